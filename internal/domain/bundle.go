package domain

import "time"

// PreprocessingArtifact is the opaque key-value structure extracted from the
// training pipeline. It may contain a group-normalizer-shaped entry, a
// plain-scaler-shaped entry, both, or neither. Parsing it into a tagged
// profile is the resolver's job - nothing else inspects it.
type PreprocessingArtifact map[string]interface{}

// ModelInputs is the fixed tensor set the inference graph expects.
// EncoderCont is row-major [EncoderLength][NumFeatures], DecoderCont is
// [DecoderLength][NumFeatures].
type ModelInputs struct {
	EncoderCont   [][]float64
	DecoderCont   [][]float64
	EncoderLength int
	DecoderLength int
	TargetCenter  float64
	TargetScale   float64
}

// RawOutput is the graph's [horizon][3] output split into its quantile
// columns, still on whatever scale the graph was trained against.
type RawOutput struct {
	Median []float64
	Lower  []float64
	Upper  []float64
}

// Graph is a handle to a loaded inference graph. Run must be safe for
// concurrent use and must not mutate any state observable across calls.
type Graph interface {
	Run(inputs ModelInputs) (*RawOutput, error)
	Close() error
}

// ModelBundle is an immutable snapshot of the paired (inference graph,
// preprocessing artifact) unit. It is created by the bundle service, swapped
// atomically, and read-only everywhere else.
type ModelBundle struct {
	Version  string
	LoadedAt time.Time
	Graph    Graph
	Artifact PreprocessingArtifact
}
