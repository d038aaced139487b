package model

import "errors"

var (
	// ErrNotLoaded is returned by Infer when no session is ready
	ErrNotLoaded = errors.New("model not loaded")
	// ErrValidation marks a model whose metadata does not match the detection head layout
	ErrValidation = errors.New("model validation failed")
	// ErrUnsupportedSize marks a fixed-size model whose input size is not in SupportedSizes
	ErrUnsupportedSize = errors.New("unsupported model input size")
)

// Provider identifies the execution provider a session runs on
type Provider string

const (
	ProviderDirectML Provider = "DirectML"
	ProviderCPU      Provider = "CPU"
)

// TensorInfo describes one model input or output. A dimension of -1 is variable.
type TensorInfo struct {
	Name  string
	Shape []int64
}

// Metadata is what a runtime can read from a model file without running it
type Metadata struct {
	Inputs  []TensorInfo
	Outputs []TensorInfo
	// Names is the raw "names" custom metadata entry, empty when absent
	Names string
}

// Session is one loaded inference session with its own input and output buffers
type Session interface {
	// Input returns the session's input buffer; it stays valid until Close
	Input() []float32
	// Run executes the model on the current input and returns the output buffer
	Run() ([]float32, error)
	Close() error
}

// Runtime loads models. The onnxruntime implementation is returned by NewONNXRuntime.
type Runtime interface {
	Inspect(path string) (Metadata, error)
	NewSession(path string, provider Provider, input, output TensorInfo) (Session, error)
}
