package config

import "time"

// Settings is a read-only snapshot of every user-tunable value the loop needs.
// The loop reads one snapshot per cycle; writers replace the whole value through Store.
type Settings struct {
	// Model
	ModelPath     string `yaml:"model_path"`
	ImageSize     int    `yaml:"image_size"`
	MinConfidence int    `yaml:"min_confidence"` // percent, 1-100
	TargetClass   string `yaml:"target_class"`   // BestConfidence or a class name

	// Capture
	CaptureMethod   CaptureMethod `yaml:"capture_method"`
	ThirdPerson     bool          `yaml:"third_person"`
	SelectedDisplay int           `yaml:"selected_display"`

	// Field of view
	FOVSize       int           `yaml:"fov_size"`
	DetectionArea DetectionArea `yaml:"detection_area"`

	// Aim behaviour
	AimAssist          bool    `yaml:"aim_assist"`
	ConstantTracking   bool    `yaml:"constant_tracking"`
	ShowDetectedPlayer bool    `yaml:"show_detected_player"`
	StickyAim          bool    `yaml:"sticky_aim"`
	StickyThreshold    float64 `yaml:"sticky_threshold"`
	Predictions        bool    `yaml:"predictions"`
	PredictionMethod   string  `yaml:"prediction_method"`
	EMASmoothing       float64 `yaml:"ema_smoothing"`
	MouseSensitivity   float64 `yaml:"mouse_sensitivity"`

	// Aim point offsets
	XOffset        float64   `yaml:"x_offset"`
	YOffset        float64   `yaml:"y_offset"`
	XOffsetPercent float64   `yaml:"x_offset_percent"`
	YOffsetPercent float64   `yaml:"y_offset_percent"`
	XPercentAdjust bool      `yaml:"x_percent_adjust"`
	YPercentAdjust bool      `yaml:"y_percent_adjust"`
	Alignment      Alignment `yaml:"alignment"`

	// Trigger
	AutoTrigger  bool    `yaml:"auto_trigger"`
	SprayMode    bool    `yaml:"spray_mode"`
	CursorCheck  bool    `yaml:"cursor_check"`
	TriggerDelay float64 `yaml:"trigger_delay"` // seconds

	// Key bindings
	AimKey       string `yaml:"aim_key"`
	SecondAimKey string `yaml:"second_aim_key"`

	// Overlay
	ShowConfidence bool           `yaml:"show_confidence"`
	ShowTracers    bool           `yaml:"show_tracers"`
	TracerPosition TracerPosition `yaml:"tracer_position"`

	// Data collection
	CollectData bool   `yaml:"collect_data"`
	AutoLabel   bool   `yaml:"auto_label"`
	DataDir     string `yaml:"data_dir"`

	// Diagnostics
	DebugMode   bool   `yaml:"debug_mode"`
	LogLevel    string `yaml:"log_level"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// BestConfidence selects the arg-max class for every detection slot.
const BestConfidence = "Best Confidence"

// NewDefaultSettings returns the settings a fresh install starts with
func NewDefaultSettings() Settings {
	return Settings{
		ModelPath:        "bin/models/model.onnx",
		ImageSize:        640,
		MinConfidence:    50,
		TargetClass:      BestConfidence,
		CaptureMethod:    CaptureDirectX,
		SelectedDisplay:  0,
		FOVSize:          640,
		DetectionArea:    AreaClosestToMouse,
		StickyThreshold:  50,
		PredictionMethod: "Kalman Filter",
		EMASmoothing:     0.5,
		MouseSensitivity: 0.8,
		Alignment:        AlignCenter,
		TriggerDelay:     0.25,
		AimKey:           "Right",
		SecondAimKey:     "LMenu",
		TracerPosition:   TracerBottom,
		DataDir:          "bin",
		LogLevel:         "INFO",
		MetricsAddr:      "127.0.0.1:9464",
	}
}

// ConfidenceThreshold returns MinConfidence as a fraction in [0,1]
func (s Settings) ConfidenceThreshold() float32 {
	return float32(s.MinConfidence) / 100
}

// TriggerDelayDuration converts TriggerDelay to a time.Duration
func (s Settings) TriggerDelayDuration() time.Duration {
	return time.Duration(s.TriggerDelay * float64(time.Second))
}

// ShouldProcess reports whether any feature needs frames at all
func (s Settings) ShouldProcess() bool {
	return s.AimAssist || s.ShowDetectedPlayer || s.AutoTrigger
}
