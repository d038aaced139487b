package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndLoadINI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Settings.ini")

	s := NewDefaultSettings()
	s.ImageSize = 320
	s.CaptureMethod = CaptureGDI
	s.StickyAim = true
	s.StickyThreshold = 42.5
	s.Alignment = AlignTop
	s.DetectionArea = AreaScreenCenter
	s.TracerPosition = TracerMiddle
	s.TargetClass = "head"

	if err := SaveToINI(s, path); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := LoadFromINI(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loaded != s {
		t.Errorf("Loaded settings differ from saved settings:\n got %+v\nwant %+v", loaded, s)
	}
}

func TestLoadINIMissingKeysUseDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Settings.ini")
	if err := os.WriteFile(path, []byte("[Aim]\nAimAssist = true\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	s, err := LoadFromINI(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if !s.AimAssist {
		t.Error("Expected AimAssist to be true")
	}
	if s.ImageSize != 640 {
		t.Errorf("Expected default image size 640, got %d", s.ImageSize)
	}
	if s.CaptureMethod != CaptureDirectX {
		t.Errorf("Expected DirectX capture, got %s", s.CaptureMethod)
	}
}

func TestLoadYAMLProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	content := `image_size: 416
capture_method: GDI+
alignment: Bottom
sticky_aim: true
min_confidence: 65
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write profile: %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load profile: %v", err)
	}

	if s.ImageSize != 416 {
		t.Errorf("Expected image size 416, got %d", s.ImageSize)
	}
	if s.CaptureMethod != CaptureGDI {
		t.Errorf("Expected GDI+ capture, got %s", s.CaptureMethod)
	}
	if s.Alignment != AlignBottom {
		t.Errorf("Expected Bottom alignment, got %s", s.Alignment)
	}
	if s.ConfidenceThreshold() != 0.65 {
		t.Errorf("Expected threshold 0.65, got %v", s.ConfidenceThreshold())
	}
	if s.FOVSize != 640 {
		t.Errorf("Expected default FOV 640, got %d", s.FOVSize)
	}
}

func TestStoreUpdateSwapsSnapshot(t *testing.T) {
	st := NewStore(NewDefaultSettings())
	before := st.Snapshot()

	var notified Settings
	st.OnChange(func(s Settings) { notified = s })

	st.Update(func(s *Settings) { s.CaptureMethod = CaptureGDI })

	if before.CaptureMethod != CaptureDirectX {
		t.Error("Earlier snapshot must not change after Update")
	}
	if st.Snapshot().CaptureMethod != CaptureGDI {
		t.Error("Expected new snapshot to carry the update")
	}
	if notified.CaptureMethod != CaptureGDI {
		t.Error("Expected listener to receive the updated settings")
	}
}
