//go:build windows

package input

import "golang.org/x/sys/windows"

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	procGetAsyncKeyState = user32.NewProc("GetAsyncKeyState")
)

// PlatformKeyState polls GetAsyncKeyState
func PlatformKeyState() KeyState {
	return func(vk VirtualKey) bool {
		r, _, _ := procGetAsyncKeyState.Call(uintptr(vk))
		return r&0x8000 != 0
	}
}
