package model

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jordanella.com/aim-loop-go/internal/logging"
)

type fakeSession struct {
	input  []float32
	output []float32
	runs   int
	closed bool
	runErr error
}

func (s *fakeSession) Input() []float32 { return s.input }

func (s *fakeSession) Run() ([]float32, error) {
	s.runs++
	if s.runErr != nil {
		return nil, s.runErr
	}
	return s.output, nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeRuntime struct {
	mu         sync.Mutex
	meta       Metadata
	inspectErr error
	failOn     map[Provider]error
	sessions   []*fakeSession
	providers  []Provider
}

func (r *fakeRuntime) Inspect(path string) (Metadata, error) {
	return r.meta, r.inspectErr
}

func (r *fakeRuntime) NewSession(path string, provider Provider, input, output TensorInfo) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = append(r.providers, provider)
	if err := r.failOn[provider]; err != nil {
		return nil, err
	}
	s := &fakeSession{
		input:  make([]float32, shapeSize(input.Shape)),
		output: make([]float32, shapeSize(output.Shape)),
	}
	r.sessions = append(r.sessions, s)
	return s, nil
}

func fixedMeta(size, classes int) Metadata {
	return Metadata{
		Inputs:  []TensorInfo{{Name: "images", Shape: []int64{1, 3, int64(size), int64(size)}}},
		Outputs: []TensorInfo{{Name: "output0", Shape: []int64{1, int64(4 + classes), int64(DetectionCount(size))}}},
	}
}

func dynamicMeta() Metadata {
	return Metadata{
		Inputs:  []TensorInfo{{Name: "images", Shape: []int64{1, 3, -1, -1}}},
		Outputs: []TensorInfo{{Name: "output0", Shape: []int64{1, 6, -1}}},
		Names:   "{0: 'ct', 1: 't'}",
	}
}

func TestDetectionCount(t *testing.T) {
	assert.Equal(t, 8400, DetectionCount(640))
	assert.Equal(t, 2100, DetectionCount(320))
	for s := 32; s <= 1280; s += 32 {
		a, b, c := s/8, s/16, s/32
		assert.Equal(t, a*a+b*b+c*c, DetectionCount(s), "size %d", s)
	}
}

func TestParseClassNames(t *testing.T) {
	classes, err := ParseClassNames("{0: 'person', 1: 'car', 5: 'bike'}")
	require.NoError(t, err)
	assert.Equal(t, map[int]string{0: "person", 1: "car", 5: "bike"}, classes)
	assert.Equal(t, 6, classCount(classes))

	classes, err = ParseClassNames(`{"0": "enemy", "x": "skip"}`)
	require.NoError(t, err)
	assert.Equal(t, map[int]string{0: "enemy"}, classes)

	_, err = ParseClassNames("")
	assert.Error(t, err)
	_, err = ParseClassNames("[a, b]")
	assert.Error(t, err)
}

func TestLoadFixedModel(t *testing.T) {
	rt := &fakeRuntime{meta: fixedMeta(640, 1)}
	h := NewHost(rt, nil, nil)

	desc, err := h.Load("model.onnx", 640)
	require.NoError(t, err)

	assert.Equal(t, StateReady, h.State())
	assert.Equal(t, ProviderDirectML, h.Provider())
	assert.Equal(t, 640, desc.ImageSize)
	assert.False(t, desc.Dynamic)
	assert.Equal(t, 8400, desc.NumDetections)
	assert.Equal(t, 1, desc.NumClasses)
	assert.Equal(t, "enemy", desc.ClassName(0))
	assert.Equal(t, "Class_3", desc.ClassName(3))
}

func TestFixedModelAdjustsImageSize(t *testing.T) {
	rt := &fakeRuntime{meta: fixedMeta(320, 1)}
	notifier := logging.NewNotifier()
	var notices []logging.Notice
	notifier.Attach(func(n logging.Notice) { notices = append(notices, n) })

	h := NewHost(rt, nil, notifier)
	desc, err := h.Load("model.onnx", 640)
	require.NoError(t, err)

	assert.Equal(t, 320, desc.ImageSize)
	assert.Equal(t, 2100, desc.NumDetections)
	require.NotEmpty(t, notices)
	assert.Contains(t, notices[0].Message, "320x320")
}

func TestUnsupportedFixedSizeFails(t *testing.T) {
	rt := &fakeRuntime{meta: fixedMeta(608, 1)}
	h := NewHost(rt, nil, nil)

	_, err := h.Load("model.onnx", 640)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedSize))
	assert.Equal(t, StateFailed, h.State())
	assert.Empty(t, rt.providers)
}

func TestOutputShapeMismatchIsRejected(t *testing.T) {
	meta := fixedMeta(640, 1)
	meta.Names = "{0: 'a', 1: 'b'}"
	rt := &fakeRuntime{meta: meta}
	h := NewHost(rt, nil, nil)

	_, err := h.Load("model.onnx", 640)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.True(t, strings.Contains(err.Error(), "1x5x8400"), err.Error())
	assert.True(t, strings.Contains(err.Error(), "1x6x8400"), err.Error())

	_, err = h.Infer(make([]float32, 3*640*640))
	assert.True(t, errors.Is(err, ErrNotLoaded))
}

func TestDynamicModelUsesConfiguredSize(t *testing.T) {
	rt := &fakeRuntime{meta: dynamicMeta()}
	h := NewHost(rt, nil, nil)

	desc, err := h.Load("model.onnx", 416)
	require.NoError(t, err)

	assert.True(t, desc.Dynamic)
	assert.Equal(t, 416, desc.ImageSize)
	assert.Equal(t, DetectionCount(416), desc.NumDetections)
	assert.Equal(t, 2, desc.NumClasses)
	assert.Equal(t, map[int]string{0: "ct", 1: "t"}, h.Classes())
}

func TestFallsBackToCPU(t *testing.T) {
	rt := &fakeRuntime{
		meta:   fixedMeta(640, 1),
		failOn: map[Provider]error{ProviderDirectML: errors.New("no adapter")},
	}
	h := NewHost(rt, nil, nil)

	_, err := h.Load("model.onnx", 640)
	require.NoError(t, err)
	assert.Equal(t, ProviderCPU, h.Provider())
	assert.Equal(t, []Provider{ProviderDirectML, ProviderCPU}, rt.providers)
}

func TestBothProvidersFailLeavesHostFailed(t *testing.T) {
	rt := &fakeRuntime{
		meta: fixedMeta(640, 1),
		failOn: map[Provider]error{
			ProviderDirectML: errors.New("no adapter"),
			ProviderCPU:      errors.New("bad file"),
		},
	}
	h := NewHost(rt, nil, nil)

	_, err := h.Load("model.onnx", 640)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad file")
	assert.Equal(t, StateFailed, h.State())

	_, err = h.Infer(nil)
	assert.True(t, errors.Is(err, ErrNotLoaded))
}

func TestInferReusesInputBuffer(t *testing.T) {
	rt := &fakeRuntime{meta: fixedMeta(160, 1)}
	h := NewHost(rt, nil, nil)
	_, err := h.Load("model.onnx", 160)
	require.NoError(t, err)

	session := rt.sessions[0]
	backing := &session.input[0]

	input := make([]float32, 3*160*160)
	input[7] = 0.5
	_, err = h.Infer(input)
	require.NoError(t, err)
	input[7] = 0.25
	_, err = h.Infer(input)
	require.NoError(t, err)

	assert.Equal(t, 2, session.runs)
	assert.Same(t, backing, &session.input[0])
	assert.Equal(t, float32(0.25), session.input[7])

	_, err = h.Infer(make([]float32, 10))
	assert.Error(t, err)
}

func TestSizeChange(t *testing.T) {
	rt := &fakeRuntime{meta: dynamicMeta()}
	h := NewHost(rt, nil, nil)
	_, err := h.Load("model.onnx", 640)
	require.NoError(t, err)

	assert.False(t, h.SizeChangePending())
	h.RequestSizeChange(320)
	assert.True(t, h.SizeChangePending())

	desc, err := h.ApplySizeChange()
	require.NoError(t, err)
	assert.False(t, h.SizeChangePending())
	assert.Equal(t, 320, desc.ImageSize)
	assert.True(t, rt.sessions[0].closed)
	assert.Len(t, rt.sessions, 2)
	assert.Len(t, rt.sessions[1].input, 3*320*320)
}

func TestCloseDisposesHost(t *testing.T) {
	rt := &fakeRuntime{meta: fixedMeta(640, 1)}
	h := NewHost(rt, nil, nil)
	_, err := h.Load("model.onnx", 640)
	require.NoError(t, err)

	require.NoError(t, h.Close())
	assert.Equal(t, StateDisposed, h.State())
	assert.True(t, rt.sessions[0].closed)

	_, err = h.Load("model.onnx", 640)
	assert.True(t, errors.Is(err, ErrNotLoaded))
}
