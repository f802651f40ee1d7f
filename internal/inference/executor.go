// Package inference invokes the active model bundle against an assembled
// feature vector. Execution is stateless: any number of concurrent calls
// against the same bundle are safe, and nothing here mutates bundle state.
package inference

import (
	"fmt"

	"cropcast/internal/domain"
	"cropcast/internal/features"
)

// Infer runs the bundle's graph on the vector. Shape mismatches and graph
// runtime failures surface as InferenceError; they are not retried here.
func Infer(bundle *domain.ModelBundle, vector domain.FeatureVector) (*domain.RawOutput, error) {
	if bundle == nil || bundle.Graph == nil {
		return nil, domain.InferenceError{Err: fmt.Errorf("no active model bundle")}
	}

	if err := checkShape(vector); err != nil {
		return nil, domain.InferenceError{Err: err}
	}

	raw, err := bundle.Graph.Run(domain.ModelInputs{
		EncoderCont:   vector.Encoder,
		DecoderCont:   vector.Decoder,
		EncoderLength: features.EncoderLength,
		DecoderLength: features.DecoderLength,
		TargetCenter:  vector.TargetCenter,
		TargetScale:   vector.TargetScale,
	})
	if err != nil {
		return nil, domain.InferenceError{Err: err}
	}

	if len(raw.Median) != features.DecoderLength ||
		len(raw.Lower) != features.DecoderLength ||
		len(raw.Upper) != features.DecoderLength {
		return nil, domain.InferenceError{
			Err: fmt.Errorf("graph returned %d horizon days, expected %d", len(raw.Median), features.DecoderLength),
		}
	}

	return raw, nil
}

func checkShape(vector domain.FeatureVector) error {
	if len(vector.Encoder) != features.EncoderLength {
		return fmt.Errorf("encoder window has %d rows, graph expects %d", len(vector.Encoder), features.EncoderLength)
	}
	if len(vector.Decoder) != features.DecoderLength {
		return fmt.Errorf("decoder window has %d rows, graph expects %d", len(vector.Decoder), features.DecoderLength)
	}
	for i, row := range vector.Encoder {
		if len(row) != features.NumFeatures {
			return fmt.Errorf("encoder row %d has %d features, graph expects %d", i, len(row), features.NumFeatures)
		}
	}
	for i, row := range vector.Decoder {
		if len(row) != features.NumFeatures {
			return fmt.Errorf("decoder row %d has %d features, graph expects %d", i, len(row), features.NumFeatures)
		}
	}
	return nil
}
