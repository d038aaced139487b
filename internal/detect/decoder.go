package detect

import (
	"fmt"

	"jordanella.com/aim-loop-go/internal/capture"
	"jordanella.com/aim-loop-go/internal/config"
	"jordanella.com/aim-loop-go/internal/model"
)

// BestClass selects the highest scoring class of every slot
const BestClass = -1

// Options controls which slots Decode keeps
type Options struct {
	MinConfidence float32
	ClassID       int
	FOV           FOV
}

// ResolveClass maps a target class setting to a class id for desc.
// Unknown names and ids outside the model fall back to BestClass.
func ResolveClass(desc model.Descriptor, target string) int {
	if target == "" || target == config.BestConfidence {
		return BestClass
	}
	id, ok := desc.ClassID(target)
	if !ok || id >= desc.NumClasses {
		return BestClass
	}
	return id
}

// Decoder turns raw detection-head output into candidates. The output layout
// is channel-major: value(c, i) = out[c*NumDetections+i], channels 0-3 are
// centre x, centre y, width and height, channel 4+k is the score of class k.
type Decoder struct {
	buf []Detection
}

// NewDecoder creates a decoder
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode returns the candidates in slot order. The returned slice is reused by
// the next call; copy any Detection that must outlive it.
func (d *Decoder) Decode(out []float32, desc model.Descriptor, region capture.Rect, opts Options) ([]Detection, error) {
	n := desc.NumDetections
	if need := desc.OutputLen(); len(out) < need {
		return nil, fmt.Errorf("output has %d values, need %d", len(out), need)
	}

	size := float32(desc.ImageSize)
	originX, originY := float32(region.X), float32(region.Y)
	d.buf = d.buf[:0]

	for i := 0; i < n; i++ {
		cx := out[i]
		cy := out[n+i]
		w := out[2*n+i]
		h := out[3*n+i]

		classID, conf := scoreSlot(out, n, i, desc.NumClasses, opts.ClassID)
		if conf < opts.MinConfidence {
			continue
		}

		box := Box{X: cx - w/2, Y: cy - h/2, Width: w, Height: h}
		if !opts.FOV.Encloses(box) {
			continue
		}

		d.buf = append(d.buf, Detection{
			Box:        box,
			Confidence: conf,
			ClassID:    classID,
			ClassName:  desc.ClassName(classID),
			CenterX:    cx / size,
			CenterY:    cy / size,
			ScreenX:    originX + cx,
			ScreenY:    originY + cy,
			Region:     region,
		})
	}
	return d.buf, nil
}

func scoreSlot(out []float32, n, i, numClasses, selected int) (int, float32) {
	if numClasses == 1 {
		return 0, out[4*n+i]
	}
	if selected != BestClass {
		return selected, out[(4+selected)*n+i]
	}

	best, bestConf := 0, float32(0)
	for c := 0; c < numClasses; c++ {
		if v := out[(4+c)*n+i]; v > bestConf {
			best, bestConf = c, v
		}
	}
	return best, bestConf
}
