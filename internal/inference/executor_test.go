package inference

import (
	"cropcast/internal/domain"
	"cropcast/internal/features"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeGraph struct {
	lastInputs domain.ModelInputs
	output     *domain.RawOutput
	err        error
}

func (g *fakeGraph) Run(inputs domain.ModelInputs) (*domain.RawOutput, error) {
	g.lastInputs = inputs
	return g.output, g.err
}

func (g *fakeGraph) Close() error { return nil }

func validVector() domain.FeatureVector {
	encoder := make([][]float64, features.EncoderLength)
	for i := range encoder {
		encoder[i] = make([]float64, features.NumFeatures)
	}
	decoder := make([][]float64, features.DecoderLength)
	for i := range decoder {
		decoder[i] = make([]float64, features.NumFeatures)
	}
	return domain.FeatureVector{
		Encoder:      encoder,
		Decoder:      decoder,
		TargetCenter: 6.1,
		TargetScale:  0.05,
	}
}

func validOutput() *domain.RawOutput {
	n := features.DecoderLength
	return &domain.RawOutput{
		Median: make([]float64, n),
		Lower:  make([]float64, n),
		Upper:  make([]float64, n),
	}
}

func Test_Infer(t *testing.T) {
	t.Run("passes the vector and scale through", func(t *testing.T) {
		graph := &fakeGraph{output: validOutput()}
		bundle := &domain.ModelBundle{Version: "v1", Graph: graph}

		raw, err := Infer(bundle, validVector())
		require.NoError(t, err)
		require.Len(t, raw.Median, features.DecoderLength)
		require.Equal(t, 6.1, graph.lastInputs.TargetCenter)
		require.Equal(t, 0.05, graph.lastInputs.TargetScale)
		require.Equal(t, features.EncoderLength, graph.lastInputs.EncoderLength)
	})

	t.Run("nil bundle errors", func(t *testing.T) {
		_, err := Infer(nil, validVector())
		var infErr domain.InferenceError
		require.ErrorAs(t, err, &infErr)
	})

	t.Run("wrong encoder row count errors", func(t *testing.T) {
		vector := validVector()
		vector.Encoder = vector.Encoder[:10]

		_, err := Infer(&domain.ModelBundle{Graph: &fakeGraph{output: validOutput()}}, vector)
		var infErr domain.InferenceError
		require.ErrorAs(t, err, &infErr)
		require.ErrorContains(t, err, "encoder window has 10 rows")
	})

	t.Run("wrong feature width errors", func(t *testing.T) {
		vector := validVector()
		vector.Decoder[3] = vector.Decoder[3][:51]

		_, err := Infer(&domain.ModelBundle{Graph: &fakeGraph{output: validOutput()}}, vector)
		require.Error(t, err)
		require.ErrorContains(t, err, "decoder row 3 has 51 features")
	})

	t.Run("graph failure wraps as inference error", func(t *testing.T) {
		graph := &fakeGraph{err: fmt.Errorf("session exploded")}
		_, err := Infer(&domain.ModelBundle{Graph: graph}, validVector())

		var infErr domain.InferenceError
		require.ErrorAs(t, err, &infErr)
		require.ErrorContains(t, err, "session exploded")
	})

	t.Run("truncated graph output errors", func(t *testing.T) {
		out := validOutput()
		out.Median = out.Median[:3]
		graph := &fakeGraph{output: out}

		_, err := Infer(&domain.ModelBundle{Graph: graph}, validVector())
		require.Error(t, err)
		require.ErrorContains(t, err, "3 horizon days")
	})
}
