package database

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "dataset.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDatabaseInitialization(t *testing.T) {
	db := openTestDB(t)

	version, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("Failed to get version: %v", err)
	}
	if version != LatestVersion() {
		t.Errorf("Expected version %d, got %d", LatestVersion(), version)
	}

	if _, err := os.Stat(db.Path()); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}

	// running again is a no-op
	if err := db.migrate(); err != nil {
		t.Fatalf("Second migration run failed: %v", err)
	}
}

func TestFrameOperations(t *testing.T) {
	db := openTestDB(t)
	now := time.Now().UTC().Truncate(time.Second)

	unlabelled := &Frame{ID: "a", ImagePath: "bin/images/a.jpg", Width: 640, Height: 640, CapturedAt: now.Add(-time.Minute)}
	labelled := &Frame{
		ID: "b", ImagePath: "bin/images/b.jpg", Width: 640, Height: 640, ModelPath: "m.onnx", CapturedAt: now,
		Label: &Label{LabelPath: "bin/labels/b.txt", ClassID: 1, ClassName: "t", CenterX: 0.5, CenterY: 0.5, Width: 0.1, Height: 0.2, Confidence: 0.9},
	}
	for _, f := range []*Frame{unlabelled, labelled} {
		if err := db.InsertFrame(f); err != nil {
			t.Fatalf("InsertFrame(%s) failed: %v", f.ID, err)
		}
	}

	got, err := db.GetFrame("b")
	if err != nil {
		t.Fatalf("GetFrame failed: %v", err)
	}
	if got.Label == nil || got.Label.ClassName != "t" || got.Label.Height != 0.2 {
		t.Errorf("Unexpected label: %+v", got.Label)
	}
	if got.ModelPath != "m.onnx" {
		t.Errorf("Expected model path m.onnx, got %q", got.ModelPath)
	}

	got, err = db.GetFrame("a")
	if err != nil {
		t.Fatalf("GetFrame failed: %v", err)
	}
	if got.Label != nil {
		t.Errorf("Expected no label, got %+v", got.Label)
	}

	frames, err := db.ListFrames(10)
	if err != nil {
		t.Fatalf("ListFrames failed: %v", err)
	}
	if len(frames) != 2 || frames[0].ID != "b" {
		t.Errorf("Expected newest frame first, got %d frames", len(frames))
	}

	if _, err := db.GetFrame("missing"); err == nil {
		t.Error("Expected error for missing frame")
	}

	if err := db.InsertFrame(unlabelled); err == nil {
		t.Error("Expected duplicate id to fail")
	}
}

func TestCountByClassAndCleanup(t *testing.T) {
	db := openTestDB(t)
	now := time.Now().UTC()

	for i, class := range []string{"ct", "t", "t"} {
		id := string(rune('a' + i))
		f := &Frame{
			ID: id, ImagePath: id + ".jpg", Width: 320, Height: 320, CapturedAt: now.Add(time.Duration(i) * time.Hour),
			Label: &Label{LabelPath: id + ".txt", ClassID: i % 2, ClassName: class},
		}
		if class == "t" {
			f.Label.ClassID = 1
		}
		if err := db.InsertFrame(f); err != nil {
			t.Fatalf("InsertFrame failed: %v", err)
		}
	}

	counts, err := db.CountByClass()
	if err != nil {
		t.Fatalf("CountByClass failed: %v", err)
	}
	if len(counts) != 2 || counts[0].ClassName != "t" || counts[0].Count != 2 {
		t.Errorf("Unexpected counts: %+v", counts)
	}

	deleted, err := db.DeleteFramesBefore(now.Add(90 * time.Minute))
	if err != nil {
		t.Fatalf("DeleteFramesBefore failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deleted frames, got %d", deleted)
	}

	stats, err := db.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Frames != 1 || stats.Labelled != 1 || stats.Bytes == 0 {
		t.Errorf("Expected cascade delete, got %+v", stats)
	}
}
