package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

var (
	// DefaultWindowSize is the default window dimensions
	DefaultWindowSize = fyne.NewSize(960, 680)

	// Colors
	ColorPrimary    = color.NRGBA{R: 0, G: 150, B: 136, A: 255}  // Material Teal
	ColorTarget     = color.NRGBA{R: 255, G: 64, B: 129, A: 255} // Material Pink
	ColorSuccess    = color.NRGBA{R: 76, G: 175, B: 80, A: 255}  // Material Green
	ColorWarning    = color.NRGBA{R: 255, G: 152, B: 0, A: 255}  // Material Orange
	ColorError      = color.NRGBA{R: 244, G: 67, B: 54, A: 255}  // Material Red
	ColorIdle       = color.NRGBA{R: 120, G: 144, B: 156, A: 255}
	ColorBackground = color.NRGBA{R: 18, G: 18, B: 18, A: 255}
)

// AimTheme is the dark theme of the status window
type AimTheme struct{}

func (t *AimTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary, theme.ColorNameButton:
		return ColorPrimary
	case theme.ColorNameBackground:
		return ColorBackground
	case theme.ColorNameSuccess:
		return ColorSuccess
	case theme.ColorNameWarning:
		return ColorWarning
	case theme.ColorNameError:
		return ColorError
	default:
		return theme.DefaultTheme().Color(name, theme.VariantDark)
	}
}

func (t *AimTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *AimTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *AimTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameText:
		return 13
	case theme.SizeNameHeadingText:
		return 18
	case theme.SizeNameSubHeadingText:
		return 15
	case theme.SizeNamePadding:
		return 6
	default:
		return theme.DefaultTheme().Size(name)
	}
}
