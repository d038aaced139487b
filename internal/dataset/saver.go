package dataset

import (
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"jordanella.com/aim-loop-go/internal/capture"
	"jordanella.com/aim-loop-go/internal/database"
	"jordanella.com/aim-loop-go/internal/detect"
	"jordanella.com/aim-loop-go/internal/events"
	"jordanella.com/aim-loop-go/internal/logging"
)

// DefaultCooldown is the minimum time between two saved frames
const DefaultCooldown = 500 * time.Millisecond

const jpegQuality = 90

// Options are the per-call toggles read from settings
type Options struct {
	Collect          bool
	AutoLabel        bool
	ConstantTracking bool
	ModelPath        string
}

// Saver writes captured frames, and optionally their labels, for training.
// Images go to <root>/images/<id>.jpg and labels to <root>/labels/<id>.txt.
type Saver struct {
	root     string
	db       *database.DB
	bus      events.EventBus
	cooldown time.Duration
	logger   *logging.Logger

	mu    sync.Mutex
	now   func() time.Time
	newID func() string
	last  time.Time
}

// NewSaver creates the output directories. db and bus may be nil.
func NewSaver(root string, db *database.DB, bus events.EventBus) (*Saver, error) {
	for _, dir := range []string{"images", "labels"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			return nil, fmt.Errorf("failed to create dataset directory: %w", err)
		}
	}
	return &Saver{
		root:     root,
		db:       db,
		bus:      bus,
		cooldown: DefaultCooldown,
		logger:   logging.NewLogger("Dataset"),
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}, nil
}

// Save stores frame when collection is on and the cooldown has passed. A label
// is written when auto-labelling is on and target is not nil. It reports
// whether a frame was written.
func (s *Saver) Save(frame *capture.Frame, target *detect.Detection, opts Options) (bool, error) {
	if frame == nil || !opts.Collect {
		return false, nil
	}
	if opts.ConstantTracking && !opts.AutoLabel {
		return false, nil
	}

	s.mu.Lock()
	now := s.now()
	if !s.last.IsZero() && now.Sub(s.last) < s.cooldown {
		s.mu.Unlock()
		return false, nil
	}
	s.last = now
	id := s.newID()
	s.mu.Unlock()

	imagePath := filepath.Join(s.root, "images", id+".jpg")
	if err := writeJPEG(imagePath, frame); err != nil {
		return false, err
	}

	record := &database.Frame{
		ID:         id,
		ImagePath:  imagePath,
		Width:      frame.Width,
		Height:     frame.Height,
		ModelPath:  opts.ModelPath,
		CapturedAt: now,
	}

	if opts.AutoLabel && target != nil {
		labelPath := filepath.Join(s.root, "labels", id+".txt")
		label := NewLabel(*target, frame.Width, frame.Height)
		if err := os.WriteFile(labelPath, []byte(label.String()), 0644); err != nil {
			return true, fmt.Errorf("failed to write label: %w", err)
		}
		record.Label = &database.Label{
			LabelPath:  labelPath,
			ClassID:    label.ClassID,
			ClassName:  target.ClassName,
			CenterX:    float64(label.CenterX),
			CenterY:    float64(label.CenterY),
			Width:      float64(label.Width),
			Height:     float64(label.Height),
			Confidence: float64(target.Confidence),
		}
	}

	if s.db != nil {
		if err := s.db.InsertFrame(record); err != nil {
			s.logger.Error("Failed to index saved frame", err)
		}
	}
	if s.bus != nil {
		s.bus.Publish(events.NewFrameSavedEvent(id, imagePath, record.Label != nil))
	}
	return true, nil
}

// Label is one YOLO label line, normalized by the frame size
type Label struct {
	ClassID int
	CenterX float32
	CenterY float32
	Width   float32
	Height  float32
}

// NewLabel builds the label for d in a frame of the given size
func NewLabel(d detect.Detection, frameWidth, frameHeight int) Label {
	fw, fh := float32(frameWidth), float32(frameHeight)
	cx, cy := d.Box.Center()
	return Label{
		ClassID: d.ClassID,
		CenterX: cx / fw,
		CenterY: cy / fh,
		Width:   d.Box.Width / fw,
		Height:  d.Box.Height / fh,
	}
}

// String formats the label as "classId cx cy w h"
func (l Label) String() string {
	return strconv.Itoa(l.ClassID) + " " +
		formatFloat(l.CenterX) + " " +
		formatFloat(l.CenterY) + " " +
		formatFloat(l.Width) + " " +
		formatFloat(l.Height)
}

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}

func writeJPEG(path string, frame *capture.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}
	if err := jpeg.Encode(f, toRGBA(frame), &jpeg.Options{Quality: jpegQuality}); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return f.Close()
}

// toRGBA converts a BGRA frame into an opaque RGBA image
func toRGBA(frame *capture.Frame) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, frame.Width, frame.Height))
	for y := 0; y < frame.Height; y++ {
		src := frame.Pix[y*frame.Stride : y*frame.Stride+frame.Width*4]
		dst := img.Pix[y*img.Stride : y*img.Stride+frame.Width*4]
		for x := 0; x < len(src); x += 4 {
			dst[x] = src[x+2]
			dst[x+1] = src[x+1]
			dst[x+2] = src[x]
			dst[x+3] = 0xff
		}
	}
	return img
}
