//go:build !windows

package input

import "jordanella.com/aim-loop-go/internal/logging"

// PlatformKeyState reports every key as released. Only constant tracking
// can drive the loop on hosts without a global key-state API.
func PlatformKeyState() KeyState {
	logging.NewLogger("Input").Warn("Global key state is not available on this platform, aim keys are ignored")
	return func(VirtualKey) bool { return false }
}
