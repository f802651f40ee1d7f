package domain

import "time"

// FeatureSeries is the caller-supplied window of per-day values for each
// named feature. Every name in the fixed feature order must be present with
// at least the encoder window of observations; validation happens in the
// assembler, not here.
type FeatureSeries struct {
	BaseDate time.Time
	Values   map[string][]float64
}

// FeatureVector is the assembled, normalized, fixed-order input split into
// its encoder and decoder segments. Row lengths are graph constants - a
// mismatch is a contract violation the executor rejects, never a silent
// truncation.
type FeatureVector struct {
	Encoder [][]float64
	Decoder [][]float64

	TargetCenter float64
	TargetScale  float64
}
