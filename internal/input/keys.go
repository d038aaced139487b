package input

import (
	"fmt"
	"strconv"
	"strings"
)

// VirtualKey is a Windows virtual-key code
type VirtualKey uint16

const (
	KeyLeftButton   VirtualKey = 0x01
	KeyRightButton  VirtualKey = 0x02
	KeyMiddleButton VirtualKey = 0x04
	KeyXButton1     VirtualKey = 0x05
	KeyXButton2     VirtualKey = 0x06
	KeyTab          VirtualKey = 0x09
	KeyCapital      VirtualKey = 0x14
	KeySpace        VirtualKey = 0x20
	KeyLShift       VirtualKey = 0xA0
	KeyRShift       VirtualKey = 0xA1
	KeyLControl     VirtualKey = 0xA2
	KeyRControl     VirtualKey = 0xA3
	KeyLMenu        VirtualKey = 0xA4
	KeyRMenu        VirtualKey = 0xA5
)

// named covers the mouse buttons and modifiers by the names Settings.ini uses
var named = map[string]VirtualKey{
	"left":       KeyLeftButton,
	"right":      KeyRightButton,
	"middle":     KeyMiddleButton,
	"xbutton1":   KeyXButton1,
	"xbutton2":   KeyXButton2,
	"tab":        KeyTab,
	"capital":    KeyCapital,
	"capslock":   KeyCapital,
	"space":      KeySpace,
	"lshift":     KeyLShift,
	"leftshift":  KeyLShift,
	"rshift":     KeyRShift,
	"rightshift": KeyRShift,
	"lcontrol":   KeyLControl,
	"leftctrl":   KeyLControl,
	"rcontrol":   KeyRControl,
	"rightctrl":  KeyRControl,
	"lmenu":      KeyLMenu,
	"leftalt":    KeyLMenu,
	"rmenu":      KeyRMenu,
	"rightalt":   KeyRMenu,
}

// ParseKey resolves a binding name such as "Right", "LMenu", "F", "D4" or "F5"
func ParseKey(name string) (VirtualKey, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "" {
		return 0, fmt.Errorf("empty key name")
	}
	if vk, ok := named[s]; ok {
		return vk, nil
	}

	// Letters
	if len(s) == 1 && s[0] >= 'a' && s[0] <= 'z' {
		return VirtualKey('A' + s[0] - 'a'), nil
	}
	// Digits, with or without the "D" prefix
	if len(s) == 1 && s[0] >= '0' && s[0] <= '9' {
		return VirtualKey(s[0]), nil
	}
	if len(s) == 2 && s[0] == 'd' && s[1] >= '0' && s[1] <= '9' {
		return VirtualKey(s[1]), nil
	}
	// Function keys F1-F24
	if len(s) >= 2 && s[0] == 'f' {
		if n, err := strconv.Atoi(s[1:]); err == nil && n >= 1 && n <= 24 && s[1] != '0' {
			return VirtualKey(0x70 + n - 1), nil
		}
	}

	return 0, fmt.Errorf("unknown key %q", name)
}
