//go:build windows

package capture

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                     = windows.NewLazySystemDLL("user32.dll")
	gdi32                      = windows.NewLazySystemDLL("gdi32.dll")
	procGetDC                  = user32.NewProc("GetDC")
	procReleaseDC              = user32.NewProc("ReleaseDC")
	procCreateCompatibleDC     = gdi32.NewProc("CreateCompatibleDC")
	procCreateCompatibleBitmap = gdi32.NewProc("CreateCompatibleBitmap")
	procSelectObject           = gdi32.NewProc("SelectObject")
	procBitBlt                 = gdi32.NewProc("BitBlt")
	procDeleteDC               = gdi32.NewProc("DeleteDC")
	procDeleteObject           = gdi32.NewProc("DeleteObject")
	procGetDIBits              = gdi32.NewProc("GetDIBits")
)

const (
	SRCCOPY        = 0x00CC0020
	CAPTUREBLT     = 0x40000000
	BI_RGB         = 0
	DIB_RGB_COLORS = 0
)

// BITMAPINFOHEADER structure
type BITMAPINFOHEADER struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

// BITMAPINFO structure
type BITMAPINFO struct {
	BmiHeader BITMAPINFOHEADER
	BmiColors [1]uint32
}

// gdiBlitter copies screen pixels with BitBlt from the desktop DC.
// The memory DC and bitmap are kept while the region size stays the same.
type gdiBlitter struct {
	hdcMem  uintptr
	hBitmap uintptr
	width   int
	height  int
}

// NewBlitter creates the GDI fallback capturer
func NewBlitter() Blitter {
	return &gdiBlitter{}
}

func (g *gdiBlitter) ensure(hdcScreen uintptr, width, height int) error {
	if g.hBitmap != 0 && g.width == width && g.height == height {
		return nil
	}
	g.release()

	hdcMem, _, err := procCreateCompatibleDC.Call(hdcScreen)
	if hdcMem == 0 {
		return fmt.Errorf("failed to create compatible DC: %v", err)
	}

	hBitmap, _, err := procCreateCompatibleBitmap.Call(hdcScreen, uintptr(width), uintptr(height))
	if hBitmap == 0 {
		procDeleteDC.Call(hdcMem)
		return fmt.Errorf("failed to create compatible bitmap: %v", err)
	}
	procSelectObject.Call(hdcMem, hBitmap)

	g.hdcMem, g.hBitmap = hdcMem, hBitmap
	g.width, g.height = width, height
	return nil
}

func (g *gdiBlitter) Blit(region Rect, dst *Frame) error {
	hdcScreen, _, err := procGetDC.Call(0)
	if hdcScreen == 0 {
		return fmt.Errorf("failed to get screen DC: %v", err)
	}
	defer procReleaseDC.Call(0, hdcScreen)

	if err := g.ensure(hdcScreen, region.Width, region.Height); err != nil {
		return err
	}

	ret, _, err := procBitBlt.Call(
		g.hdcMem,
		0, 0,
		uintptr(region.Width), uintptr(region.Height),
		hdcScreen,
		uintptr(region.X), uintptr(region.Y),
		SRCCOPY|CAPTUREBLT,
	)
	if ret == 0 {
		return fmt.Errorf("BitBlt failed: %v", err)
	}

	var bi BITMAPINFO
	bi.BmiHeader.Size = uint32(unsafe.Sizeof(bi.BmiHeader))
	bi.BmiHeader.Width = int32(region.Width)
	bi.BmiHeader.Height = -int32(region.Height) // top-down rows
	bi.BmiHeader.Planes = 1
	bi.BmiHeader.BitCount = 32
	bi.BmiHeader.Compression = BI_RGB

	// GetDIBits writes BGRA, which is already the frame layout
	ret, _, err = procGetDIBits.Call(
		g.hdcMem,
		g.hBitmap,
		0,
		uintptr(region.Height),
		uintptr(unsafe.Pointer(&dst.Pix[0])),
		uintptr(unsafe.Pointer(&bi)),
		DIB_RGB_COLORS,
	)
	if ret == 0 {
		return fmt.Errorf("GetDIBits failed: %v", err)
	}
	dst.Stride = region.Width * 4

	return nil
}

func (g *gdiBlitter) release() {
	if g.hBitmap != 0 {
		procDeleteObject.Call(g.hBitmap)
		g.hBitmap = 0
	}
	if g.hdcMem != 0 {
		procDeleteDC.Call(g.hdcMem)
		g.hdcMem = 0
	}
}

func (g *gdiBlitter) Close() error {
	g.release()
	return nil
}
