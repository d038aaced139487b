package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Frame is a saved capture
type Frame struct {
	ID         string
	ImagePath  string
	Width      int
	Height     int
	ModelPath  string
	CapturedAt time.Time
	Label      *Label
}

// Label is a normalized bounding box written next to a frame
type Label struct {
	LabelPath  string
	ClassID    int
	ClassName  string
	CenterX    float64
	CenterY    float64
	Width      float64
	Height     float64
	Confidence float64
}

// ClassCount is the number of labels recorded for one class
type ClassCount struct {
	ClassID   int
	ClassName string
	Count     int64
}

// InsertFrame records a frame and its label, if any
func (db *DB) InsertFrame(f *Frame) error {
	return db.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO frames (id, image_path, width, height, model_path, captured_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, f.ID, f.ImagePath, f.Width, f.Height, f.ModelPath, f.CapturedAt)
		if err != nil {
			return fmt.Errorf("failed to insert frame: %w", err)
		}

		if f.Label == nil {
			return nil
		}
		l := f.Label
		_, err = tx.Exec(`
			INSERT INTO frame_labels (
				frame_id, label_path, class_id, class_name,
				center_x, center_y, width, height, confidence
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, f.ID, l.LabelPath, l.ClassID, l.ClassName, l.CenterX, l.CenterY, l.Width, l.Height, l.Confidence)
		if err != nil {
			return fmt.Errorf("failed to insert label: %w", err)
		}
		return nil
	})
}

// GetFrame loads one frame with its label
func (db *DB) GetFrame(id string) (*Frame, error) {
	f := &Frame{}
	var modelPath sql.NullString
	err := db.conn.QueryRow(`
		SELECT id, image_path, width, height, model_path, captured_at
		FROM frames WHERE id = ?
	`, id).Scan(&f.ID, &f.ImagePath, &f.Width, &f.Height, &modelPath, &f.CapturedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("frame not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get frame: %w", err)
	}
	f.ModelPath = modelPath.String

	l := &Label{}
	err = db.conn.QueryRow(`
		SELECT label_path, class_id, class_name, center_x, center_y, width, height, confidence
		FROM frame_labels WHERE frame_id = ?
	`, id).Scan(&l.LabelPath, &l.ClassID, &l.ClassName, &l.CenterX, &l.CenterY, &l.Width, &l.Height, &l.Confidence)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return nil, fmt.Errorf("failed to get label: %w", err)
	default:
		f.Label = l
	}
	return f, nil
}

// ListFrames returns the newest frames first, without labels
func (db *DB) ListFrames(limit int) ([]*Frame, error) {
	rows, err := db.conn.Query(`
		SELECT id, image_path, width, height, model_path, captured_at
		FROM frames ORDER BY captured_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list frames: %w", err)
	}
	defer rows.Close()

	var frames []*Frame
	for rows.Next() {
		f := &Frame{}
		var modelPath sql.NullString
		if err := rows.Scan(&f.ID, &f.ImagePath, &f.Width, &f.Height, &modelPath, &f.CapturedAt); err != nil {
			return nil, err
		}
		f.ModelPath = modelPath.String
		frames = append(frames, f)
	}
	return frames, rows.Err()
}

// CountByClass returns label counts per class, most frequent first
func (db *DB) CountByClass() ([]ClassCount, error) {
	rows, err := db.conn.Query(`
		SELECT class_id, class_name, COUNT(*) AS n
		FROM frame_labels
		GROUP BY class_id, class_name
		ORDER BY n DESC, class_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count labels: %w", err)
	}
	defer rows.Close()

	var counts []ClassCount
	for rows.Next() {
		var c ClassCount
		if err := rows.Scan(&c.ClassID, &c.ClassName, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// DeleteFramesBefore removes frames older than cutoff and returns how many went
func (db *DB) DeleteFramesBefore(cutoff time.Time) (int64, error) {
	res, err := db.conn.Exec(`DELETE FROM frames WHERE captured_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete frames: %w", err)
	}
	return res.RowsAffected()
}
