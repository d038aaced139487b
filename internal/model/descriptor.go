package model

import (
	"fmt"
	"strings"
)

// SupportedSizes lists the fixed input sizes a model may force the configuration to.
var SupportedSizes = []int{640, 512, 416, 320, 256, 160}

// DefaultClasses is used when a model carries no class metadata.
var DefaultClasses = map[int]string{0: "enemy"}

// IsSupportedSize reports whether size is in SupportedSizes
func IsSupportedSize(size int) bool {
	for _, s := range SupportedSizes {
		if s == size {
			return true
		}
	}
	return false
}

// DetectionCount returns the number of detection slots a three-stride head
// emits for a square input of the given size.
func DetectionCount(size int) int {
	s8, s16, s32 := size/8, size/16, size/32
	return s8*s8 + s16*s16 + s32*s32
}

// Descriptor describes a loaded model. It is built once per load and replaced
// wholesale; nothing mutates it afterwards.
type Descriptor struct {
	ImageSize     int
	Dynamic       bool
	NumDetections int
	NumClasses    int
	Classes       map[int]string
}

func newDescriptor(size int, dynamic bool, classes map[int]string) Descriptor {
	return Descriptor{
		ImageSize:     size,
		Dynamic:       dynamic,
		NumDetections: DetectionCount(size),
		NumClasses:    classCount(classes),
		Classes:       classes,
	}
}

// InputShape is the NCHW shape of the model input
func (d Descriptor) InputShape() []int64 {
	return []int64{1, 3, int64(d.ImageSize), int64(d.ImageSize)}
}

// OutputShape is the shape the detection head must produce
func (d Descriptor) OutputShape() []int64 {
	return []int64{1, int64(4 + d.NumClasses), int64(d.NumDetections)}
}

// InputLen is the number of floats in one input tensor
func (d Descriptor) InputLen() int {
	return 3 * d.ImageSize * d.ImageSize
}

// OutputLen is the number of floats in one output tensor
func (d Descriptor) OutputLen() int {
	return (4 + d.NumClasses) * d.NumDetections
}

// ClassName returns the name for id, or a generated name for ids the model did not label
func (d Descriptor) ClassName(id int) string {
	if name, ok := d.Classes[id]; ok {
		return name
	}
	return fmt.Sprintf("Class_%d", id)
}

// ClassID looks up a class by name
func (d Descriptor) ClassID(name string) (int, bool) {
	for id, n := range d.Classes {
		if n == name {
			return id, true
		}
	}
	return 0, false
}

// CopyClasses returns a copy of the class map that callers may keep
func (d Descriptor) CopyClasses() map[int]string {
	out := make(map[int]string, len(d.Classes))
	for id, name := range d.Classes {
		out[id] = name
	}
	return out
}

// FormatShape renders a shape as 1x5x8400
func FormatShape(shape []int64) string {
	parts := make([]string, len(shape))
	for i, v := range shape {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, "x")
}

func shapeEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
