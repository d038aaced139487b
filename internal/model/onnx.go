package model

import (
	"fmt"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXRuntime runs models through the onnxruntime shared library
type ONNXRuntime struct {
	libraryPath string
	threads     int

	once    sync.Once
	initErr error
}

// NewONNXRuntime creates a runtime. libraryPath may be empty to use the
// platform default onnxruntime library name.
func NewONNXRuntime(libraryPath string) *ONNXRuntime {
	return &ONNXRuntime{
		libraryPath: libraryPath,
		threads:     runtime.NumCPU(),
	}
}

func (r *ONNXRuntime) init() error {
	r.once.Do(func() {
		if ort.IsInitialized() {
			return
		}
		if r.libraryPath != "" {
			ort.SetSharedLibraryPath(r.libraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			r.initErr = fmt.Errorf("failed to initialize onnxruntime: %w", err)
		}
	})
	return r.initErr
}

// Inspect reads input/output shapes and the class names entry
func (r *ONNXRuntime) Inspect(path string) (Metadata, error) {
	if err := r.init(); err != nil {
		return Metadata{}, err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read model inputs and outputs: %w", err)
	}

	meta := Metadata{}
	for _, in := range inputs {
		meta.Inputs = append(meta.Inputs, TensorInfo{Name: in.Name, Shape: append([]int64(nil), in.Dimensions...)})
	}
	for _, out := range outputs {
		meta.Outputs = append(meta.Outputs, TensorInfo{Name: out.Name, Shape: append([]int64(nil), out.Dimensions...)})
	}

	md, err := ort.GetModelMetadata(path)
	if err != nil {
		return meta, nil
	}
	defer md.Destroy()
	if names, ok, err := md.LookupCustomMetadataMap("names"); err == nil && ok {
		meta.Names = names
	}
	return meta, nil
}

// NewSession opens a session with preallocated input and output tensors
func (r *ONNXRuntime) NewSession(path string, provider Provider, input, output TensorInfo) (Session, error) {
	if err := r.init(); err != nil {
		return nil, err
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, err
	}
	defer options.Destroy()

	if err := options.SetIntraOpNumThreads(r.threads); err != nil {
		return nil, err
	}
	if provider == ProviderDirectML {
		if err := options.AppendExecutionProviderDirectML(0); err != nil {
			return nil, fmt.Errorf("DirectML unavailable: %w", err)
		}
	}

	inputTensor, err := ort.NewTensor(ort.NewShape(input.Shape...), make([]float32, shapeSize(input.Shape)))
	if err != nil {
		return nil, err
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(output.Shape...))
	if err != nil {
		inputTensor.Destroy()
		return nil, err
	}

	session, err := ort.NewAdvancedSession(
		path,
		[]string{input.Name},
		[]string{output.Name},
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outputTensor},
		options,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, err
	}

	return &onnxSession{session: session, input: inputTensor, output: outputTensor}, nil
}

// Close tears down the onnxruntime environment
func (r *ONNXRuntime) Close() error {
	if ort.IsInitialized() {
		return ort.DestroyEnvironment()
	}
	return nil
}

type onnxSession struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

func (s *onnxSession) Input() []float32 { return s.input.GetData() }

func (s *onnxSession) Run() ([]float32, error) {
	if err := s.session.Run(); err != nil {
		return nil, err
	}
	return s.output.GetData(), nil
}

func (s *onnxSession) Close() error {
	err := s.session.Destroy()
	s.input.Destroy()
	s.output.Destroy()
	return err
}

func shapeSize(shape []int64) int {
	n := int64(1)
	for _, d := range shape {
		n *= d
	}
	return int(n)
}
