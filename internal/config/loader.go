package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Load reads settings from path, choosing the format from the file extension
func Load(path string) (Settings, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadFromYAML(path)
	default:
		return LoadFromINI(path)
	}
}

// LoadFromINI loads settings from a Settings.ini file
func LoadFromINI(path string) (Settings, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to load config file: %w", err)
	}

	d := NewDefaultSettings()
	s := d

	model := cfg.Section("Model")
	s.ModelPath = model.Key("ModelPath").MustString(d.ModelPath)
	s.ImageSize = model.Key("ImageSize").MustInt(d.ImageSize)
	s.MinConfidence = model.Key("MinimumConfidence").MustInt(d.MinConfidence)
	s.TargetClass = model.Key("TargetClass").MustString(d.TargetClass)

	capture := cfg.Section("Capture")
	s.CaptureMethod = parseCaptureMethod(capture.Key("Method").MustString(d.CaptureMethod.String()))
	s.ThirdPerson = capture.Key("ThirdPersonSupport").MustBool(d.ThirdPerson)
	s.SelectedDisplay = capture.Key("SelectedDisplay").MustInt(d.SelectedDisplay)
	s.FOVSize = capture.Key("FOVSize").MustInt(d.FOVSize)
	s.DetectionArea = parseDetectionArea(capture.Key("DetectionAreaType").MustString(d.DetectionArea.String()))

	aim := cfg.Section("Aim")
	s.AimAssist = aim.Key("AimAssist").MustBool(d.AimAssist)
	s.ConstantTracking = aim.Key("ConstantAITracking").MustBool(d.ConstantTracking)
	s.ShowDetectedPlayer = aim.Key("ShowDetectedPlayer").MustBool(d.ShowDetectedPlayer)
	s.StickyAim = aim.Key("StickyAim").MustBool(d.StickyAim)
	s.StickyThreshold = aim.Key("StickyAimThreshold").MustFloat64(d.StickyThreshold)
	s.Predictions = aim.Key("Predictions").MustBool(d.Predictions)
	s.PredictionMethod = aim.Key("PredictionMethod").MustString(d.PredictionMethod)
	s.EMASmoothing = aim.Key("EMASmoothening").MustFloat64(d.EMASmoothing)
	s.MouseSensitivity = aim.Key("MouseSensitivity").MustFloat64(d.MouseSensitivity)
	s.XOffset = aim.Key("XOffset").MustFloat64(d.XOffset)
	s.YOffset = aim.Key("YOffset").MustFloat64(d.YOffset)
	s.XOffsetPercent = aim.Key("XOffsetPercent").MustFloat64(d.XOffsetPercent)
	s.YOffsetPercent = aim.Key("YOffsetPercent").MustFloat64(d.YOffsetPercent)
	s.XPercentAdjust = aim.Key("XAxisPercentageAdjustment").MustBool(d.XPercentAdjust)
	s.YPercentAdjust = aim.Key("YAxisPercentageAdjustment").MustBool(d.YPercentAdjust)
	s.Alignment = parseAlignment(aim.Key("AimingBoundariesAlignment").MustString(d.Alignment.String()))
	s.AimKey = aim.Key("AimKeybind").MustString(d.AimKey)
	s.SecondAimKey = aim.Key("SecondAimKeybind").MustString(d.SecondAimKey)

	trigger := cfg.Section("Trigger")
	s.AutoTrigger = trigger.Key("AutoTrigger").MustBool(d.AutoTrigger)
	s.SprayMode = trigger.Key("SprayMode").MustBool(d.SprayMode)
	s.CursorCheck = trigger.Key("CursorCheck").MustBool(d.CursorCheck)
	s.TriggerDelay = trigger.Key("AutoTriggerDelay").MustFloat64(d.TriggerDelay)

	overlay := cfg.Section("Overlay")
	s.ShowConfidence = overlay.Key("ShowAIConfidence").MustBool(d.ShowConfidence)
	s.ShowTracers = overlay.Key("ShowTracers").MustBool(d.ShowTracers)
	s.TracerPosition = parseTracerPosition(overlay.Key("TracerPosition").MustString(d.TracerPosition.String()))

	data := cfg.Section("Data")
	s.CollectData = data.Key("CollectDataWhilePlaying").MustBool(d.CollectData)
	s.AutoLabel = data.Key("AutoLabelData").MustBool(d.AutoLabel)
	s.DataDir = data.Key("Directory").MustString(d.DataDir)

	debug := cfg.Section("Debug")
	s.DebugMode = debug.Key("DebugMode").MustBool(d.DebugMode)
	s.LogLevel = debug.Key("LogLevel").MustString(d.LogLevel)
	s.MetricsAddr = debug.Key("MetricsAddr").MustString(d.MetricsAddr)

	return s, nil
}

// LoadFromYAML loads a settings profile written as YAML.
// Keys missing from the file keep their default values.
func LoadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file: %w", err)
	}

	s := NewDefaultSettings()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	return s, nil
}

// SaveToINI saves settings to an INI file
func SaveToINI(s Settings, path string) error {
	cfg := ini.Empty()

	model := cfg.Section("Model")
	model.Key("ModelPath").SetValue(s.ModelPath)
	model.Key("ImageSize").SetValue(fmt.Sprintf("%d", s.ImageSize))
	model.Key("MinimumConfidence").SetValue(fmt.Sprintf("%d", s.MinConfidence))
	model.Key("TargetClass").SetValue(s.TargetClass)

	capture := cfg.Section("Capture")
	capture.Key("Method").SetValue(s.CaptureMethod.String())
	capture.Key("ThirdPersonSupport").SetValue(fmt.Sprintf("%t", s.ThirdPerson))
	capture.Key("SelectedDisplay").SetValue(fmt.Sprintf("%d", s.SelectedDisplay))
	capture.Key("FOVSize").SetValue(fmt.Sprintf("%d", s.FOVSize))
	capture.Key("DetectionAreaType").SetValue(s.DetectionArea.String())

	aim := cfg.Section("Aim")
	aim.Key("AimAssist").SetValue(fmt.Sprintf("%t", s.AimAssist))
	aim.Key("ConstantAITracking").SetValue(fmt.Sprintf("%t", s.ConstantTracking))
	aim.Key("ShowDetectedPlayer").SetValue(fmt.Sprintf("%t", s.ShowDetectedPlayer))
	aim.Key("StickyAim").SetValue(fmt.Sprintf("%t", s.StickyAim))
	aim.Key("StickyAimThreshold").SetValue(fmt.Sprintf("%g", s.StickyThreshold))
	aim.Key("Predictions").SetValue(fmt.Sprintf("%t", s.Predictions))
	aim.Key("PredictionMethod").SetValue(s.PredictionMethod)
	aim.Key("EMASmoothening").SetValue(fmt.Sprintf("%g", s.EMASmoothing))
	aim.Key("MouseSensitivity").SetValue(fmt.Sprintf("%g", s.MouseSensitivity))
	aim.Key("XOffset").SetValue(fmt.Sprintf("%g", s.XOffset))
	aim.Key("YOffset").SetValue(fmt.Sprintf("%g", s.YOffset))
	aim.Key("XOffsetPercent").SetValue(fmt.Sprintf("%g", s.XOffsetPercent))
	aim.Key("YOffsetPercent").SetValue(fmt.Sprintf("%g", s.YOffsetPercent))
	aim.Key("XAxisPercentageAdjustment").SetValue(fmt.Sprintf("%t", s.XPercentAdjust))
	aim.Key("YAxisPercentageAdjustment").SetValue(fmt.Sprintf("%t", s.YPercentAdjust))
	aim.Key("AimingBoundariesAlignment").SetValue(s.Alignment.String())
	aim.Key("AimKeybind").SetValue(s.AimKey)
	aim.Key("SecondAimKeybind").SetValue(s.SecondAimKey)

	trigger := cfg.Section("Trigger")
	trigger.Key("AutoTrigger").SetValue(fmt.Sprintf("%t", s.AutoTrigger))
	trigger.Key("SprayMode").SetValue(fmt.Sprintf("%t", s.SprayMode))
	trigger.Key("CursorCheck").SetValue(fmt.Sprintf("%t", s.CursorCheck))
	trigger.Key("AutoTriggerDelay").SetValue(fmt.Sprintf("%g", s.TriggerDelay))

	overlay := cfg.Section("Overlay")
	overlay.Key("ShowAIConfidence").SetValue(fmt.Sprintf("%t", s.ShowConfidence))
	overlay.Key("ShowTracers").SetValue(fmt.Sprintf("%t", s.ShowTracers))
	overlay.Key("TracerPosition").SetValue(s.TracerPosition.String())

	data := cfg.Section("Data")
	data.Key("CollectDataWhilePlaying").SetValue(fmt.Sprintf("%t", s.CollectData))
	data.Key("AutoLabelData").SetValue(fmt.Sprintf("%t", s.AutoLabel))
	data.Key("Directory").SetValue(s.DataDir)

	debug := cfg.Section("Debug")
	debug.Key("DebugMode").SetValue(fmt.Sprintf("%t", s.DebugMode))
	debug.Key("LogLevel").SetValue(s.LogLevel)
	debug.Key("MetricsAddr").SetValue(s.MetricsAddr)

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	return cfg.SaveTo(path)
}
