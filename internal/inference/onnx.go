package inference

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"cropcast/internal/domain"
)

// The graph ships as an ONNX export of the trained forecaster. Input and
// output names are fixed by the export and must match exactly.
var graphInputNames = []string{
	"encoder_cat",
	"encoder_cont",
	"encoder_lengths",
	"decoder_cat",
	"decoder_cont",
	"decoder_lengths",
	"target_scale",
}

var graphOutputNames = []string{"output"}

var (
	initOnce sync.Once
	initErr  error
)

// InitRuntime points the ONNX runtime at its shared library and initializes
// the environment. Safe to call more than once; only the first call takes
// effect.
func InitRuntime(sharedLibraryPath string) error {
	initOnce.Do(func() {
		if sharedLibraryPath != "" {
			ort.SetSharedLibraryPath(sharedLibraryPath)
		}
		initErr = ort.InitializeEnvironment()
	})
	return initErr
}

type onnxGraph struct {
	session *ort.DynamicAdvancedSession
}

// NewOnnxGraph builds a Graph from raw ONNX bytes. The session is created
// once and shared; onnxruntime sessions are safe for concurrent Run calls.
func NewOnnxGraph(modelData []byte) (domain.Graph, error) {
	session, err := ort.NewDynamicAdvancedSessionWithONNXData(
		modelData,
		graphInputNames,
		graphOutputNames,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create onnx session: %w", err)
	}
	return &onnxGraph{session: session}, nil
}

func (g *onnxGraph) Run(inputs domain.ModelInputs) (*domain.RawOutput, error) {
	encLen := inputs.EncoderLength
	decLen := inputs.DecoderLength
	width := 0
	if encLen > 0 {
		width = len(inputs.EncoderCont[0])
	}

	encoderCat, err := ort.NewTensor(ort.NewShape(1, int64(encLen), 1), make([]int64, encLen))
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder_cat tensor: %w", err)
	}
	defer encoderCat.Destroy()

	encoderCont, err := ort.NewTensor(ort.NewShape(1, int64(encLen), int64(width)), flatten(inputs.EncoderCont))
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder_cont tensor: %w", err)
	}
	defer encoderCont.Destroy()

	encoderLengths, err := ort.NewTensor(ort.NewShape(1), []int64{int64(encLen)})
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder_lengths tensor: %w", err)
	}
	defer encoderLengths.Destroy()

	decoderCat, err := ort.NewTensor(ort.NewShape(1, int64(decLen), 1), make([]int64, decLen))
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder_cat tensor: %w", err)
	}
	defer decoderCat.Destroy()

	decoderCont, err := ort.NewTensor(ort.NewShape(1, int64(decLen), int64(width)), flatten(inputs.DecoderCont))
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder_cont tensor: %w", err)
	}
	defer decoderCont.Destroy()

	decoderLengths, err := ort.NewTensor(ort.NewShape(1), []int64{int64(decLen)})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder_lengths tensor: %w", err)
	}
	defer decoderLengths.Destroy()

	targetScale, err := ort.NewTensor(ort.NewShape(1, 2), []float32{float32(inputs.TargetCenter), float32(inputs.TargetScale)})
	if err != nil {
		return nil, fmt.Errorf("failed to create target_scale tensor: %w", err)
	}
	defer targetScale.Destroy()

	outputs := []ort.Value{nil}
	err = g.session.Run(
		[]ort.Value{encoderCat, encoderCont, encoderLengths, decoderCat, decoderCont, decoderLengths, targetScale},
		outputs,
	)
	if err != nil {
		return nil, fmt.Errorf("onnx session run failed: %w", err)
	}
	defer outputs[0].Destroy()

	outputTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("graph output is not a float32 tensor")
	}

	return parseQuantiles(outputTensor.GetData(), decLen)
}

func (g *onnxGraph) Close() error {
	return g.session.Destroy()
}

func flatten(rows [][]float64) []float32 {
	out := make([]float32, 0, len(rows)*len(rows[0]))
	for _, row := range rows {
		for _, v := range row {
			out = append(out, float32(v))
		}
	}
	return out
}

// parseQuantiles splits the flat [1, horizon, 3] output into its median /
// lower / upper columns.
func parseQuantiles(data []float32, horizon int) (*domain.RawOutput, error) {
	if len(data) != horizon*3 {
		return nil, fmt.Errorf("graph output has %d values, expected %d", len(data), horizon*3)
	}

	out := &domain.RawOutput{
		Median: make([]float64, horizon),
		Lower:  make([]float64, horizon),
		Upper:  make([]float64, horizon),
	}
	for i := 0; i < horizon; i++ {
		out.Median[i] = float64(data[i*3])
		out.Lower[i] = float64(data[i*3+1])
		out.Upper[i] = float64(data[i*3+2])
	}
	return out, nil
}
