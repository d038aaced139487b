package config

// CaptureMethod selects the screen capture backend
type CaptureMethod int

const (
	CaptureDirectX CaptureMethod = iota
	CaptureGDI
)

func (m CaptureMethod) String() string {
	switch m {
	case CaptureGDI:
		return "GDI+"
	default:
		return "DirectX"
	}
}

func (m CaptureMethod) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *CaptureMethod) UnmarshalText(text []byte) error {
	*m = parseCaptureMethod(string(text))
	return nil
}

// DetectionArea decides where the capture region is centred
type DetectionArea int

const (
	AreaClosestToMouse DetectionArea = iota
	AreaScreenCenter
)

func (a DetectionArea) String() string {
	switch a {
	case AreaScreenCenter:
		return "Screen Center"
	default:
		return "Closest to Mouse"
	}
}

func (a DetectionArea) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *DetectionArea) UnmarshalText(text []byte) error {
	*a = parseDetectionArea(string(text))
	return nil
}

// Alignment picks the vertical anchor of the aim point inside a box
type Alignment int

const (
	AlignCenter Alignment = iota
	AlignTop
	AlignBottom
)

func (a Alignment) String() string {
	switch a {
	case AlignTop:
		return "Top"
	case AlignBottom:
		return "Bottom"
	default:
		return "Center"
	}
}

func (a Alignment) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Alignment) UnmarshalText(text []byte) error {
	*a = parseAlignment(string(text))
	return nil
}

// TracerPosition is the screen edge the overlay tracer starts from
type TracerPosition int

const (
	TracerBottom TracerPosition = iota
	TracerMiddle
	TracerTop
)

func (t TracerPosition) String() string {
	switch t {
	case TracerMiddle:
		return "Middle"
	case TracerTop:
		return "Top"
	default:
		return "Bottom"
	}
}

func (t TracerPosition) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TracerPosition) UnmarshalText(text []byte) error {
	*t = parseTracerPosition(string(text))
	return nil
}

func parseCaptureMethod(s string) CaptureMethod {
	switch s {
	case "GDI+", "GDI":
		return CaptureGDI
	default:
		return CaptureDirectX
	}
}

func parseDetectionArea(s string) DetectionArea {
	switch s {
	case "Screen Center":
		return AreaScreenCenter
	default:
		return AreaClosestToMouse
	}
}

func parseAlignment(s string) Alignment {
	switch s {
	case "Top":
		return AlignTop
	case "Bottom":
		return AlignBottom
	default:
		return AlignCenter
	}
}

func parseTracerPosition(s string) TracerPosition {
	switch s {
	case "Middle":
		return TracerMiddle
	case "Top":
		return TracerTop
	default:
		return TracerBottom
	}
}
