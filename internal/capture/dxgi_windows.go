//go:build windows

package capture

import (
	"fmt"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modDXGI  = windows.NewLazySystemDLL("dxgi.dll")
	modD3D11 = windows.NewLazySystemDLL("d3d11.dll")

	procCreateDXGIFactory1 = modDXGI.NewProc("CreateDXGIFactory1")
	procD3D11CreateDevice  = modD3D11.NewProc("D3D11CreateDevice")
)

var (
	iidIDXGIFactory1   = windows.GUID{Data1: 0x770aae78, Data2: 0xf26f, Data3: 0x4dba, Data4: [8]byte{0xa8, 0x29, 0x25, 0x3c, 0x83, 0xd1, 0xb3, 0x87}}
	iidIDXGIOutput1    = windows.GUID{Data1: 0x00cddea8, Data2: 0x939b, Data3: 0x4b83, Data4: [8]byte{0xa3, 0x40, 0xa6, 0x85, 0x22, 0x66, 0x66, 0xcc}}
	iidID3D11Texture2D = windows.GUID{Data1: 0x6f15aaf2, Data2: 0xd208, Data3: 0x4e89, Data4: [8]byte{0x9a, 0xb4, 0x48, 0x95, 0x35, 0xd3, 0x4f, 0x9c}}
)

// vtable slots
const (
	vtQueryInterface = 0
	vtRelease        = 2

	vtFactoryEnumAdapters1 = 12
	vtAdapterEnumOutputs   = 7
	vtOutputGetDesc        = 7
	vtOutput1Duplicate     = 22

	vtDuplAcquireNextFrame = 8
	vtDuplReleaseFrame     = 14

	vtDeviceCreateTexture2D = 5

	vtContextMap                   = 14
	vtContextUnmap                 = 15
	vtContextCopySubresourceRegion = 46
)

const (
	dxgiErrorNotFound       = 0x887A0002
	dxgiErrorUnsupported    = 0x887A0004
	dxgiErrorDeviceRemoved  = 0x887A0005
	dxgiErrorDeviceReset    = 0x887A0007
	dxgiErrorAccessLost     = 0x887A0026
	dxgiErrorWaitTimeout    = 0x887A0027
	dxgiFormatB8G8R8A8UNorm = 87
	d3d11UsageStaging       = 3
	d3d11CPUAccessRead      = 0x20000
	d3d11MapRead            = 1
	d3dDriverTypeUnknown    = 0
	d3d11SDKVersion         = 7
)

type dxgiOutputDesc struct {
	DeviceName        [32]uint16
	Left, Top         int32
	Right, Bottom     int32
	AttachedToDesktop int32
	Rotation          uint32
	Monitor           uintptr
}

type dxgiFrameInfo struct {
	LastPresentTime           int64
	LastMouseUpdateTime       int64
	AccumulatedFrames         uint32
	RectsCoalesced            int32
	ProtectedContentMaskedOut int32
	PointerX, PointerY        int32
	PointerVisible            int32
	TotalMetadataBufferSize   uint32
	PointerShapeBufferSize    uint32
}

type d3d11Texture2DDesc struct {
	Width, Height  uint32
	MipLevels      uint32
	ArraySize      uint32
	Format         uint32
	SampleCount    uint32
	SampleQuality  uint32
	Usage          uint32
	BindFlags      uint32
	CPUAccessFlags uint32
	MiscFlags      uint32
}

type d3d11Box struct {
	Left, Top, Front    uint32
	Right, Bottom, Back uint32
}

type d3d11MappedSubresource struct {
	Data       uintptr
	RowPitch   uint32
	DepthPitch uint32
}

type hresult uint32

func (h hresult) Error() string {
	return fmt.Sprintf("HRESULT 0x%08X", uint32(h))
}

func hresultErr(r uintptr) error {
	hr := uint32(r)
	if int32(hr) >= 0 {
		return nil
	}
	switch hr {
	case dxgiErrorWaitTimeout:
		return ErrWaitTimeout
	case dxgiErrorAccessLost:
		return ErrAccessLost
	case dxgiErrorDeviceRemoved, dxgiErrorDeviceReset:
		return ErrDeviceRemoved
	case dxgiErrorUnsupported:
		return ErrUnsupported
	}
	return hresult(hr)
}

// comObject is a raw COM interface pointer
type comObject uintptr

func (o comObject) call(slot int, args ...uintptr) uintptr {
	vtbl := *(*uintptr)(unsafe.Pointer(o))
	fn := *(*uintptr)(unsafe.Pointer(vtbl + uintptr(slot)*unsafe.Sizeof(uintptr(0))))
	r, _, _ := syscall.SyscallN(fn, append([]uintptr{uintptr(o)}, args...)...)
	return r
}

func (o comObject) release() {
	if o != 0 {
		o.call(vtRelease)
	}
}

func (o comObject) queryInterface(iid *windows.GUID) (comObject, error) {
	var out comObject
	if err := hresultErr(o.call(vtQueryInterface, uintptr(unsafe.Pointer(iid)), uintptr(unsafe.Pointer(&out)))); err != nil {
		return 0, err
	}
	return out, nil
}

// dxgiDuplicator implements Duplicator with DXGI desktop duplication and a D3D11 staging texture
type dxgiDuplicator struct {
	device  comObject
	context comObject
	dupl    comObject

	staging       comObject
	stagingWidth  int
	stagingHeight int

	frameTex comObject
	acquired bool
}

// NewDuplicator opens desktop duplication on the output whose desktop bounds equal display
func NewDuplicator(display Rect) (Duplicator, error) {
	if err := procCreateDXGIFactory1.Find(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	var factory comObject
	r, _, _ := procCreateDXGIFactory1.Call(uintptr(unsafe.Pointer(&iidIDXGIFactory1)), uintptr(unsafe.Pointer(&factory)))
	if err := hresultErr(r); err != nil {
		return nil, fmt.Errorf("CreateDXGIFactory1: %w", err)
	}
	defer factory.release()

	adapter, output1, err := findOutput(factory, display)
	if err != nil {
		return nil, err
	}
	defer adapter.release()
	defer output1.release()

	d := &dxgiDuplicator{}
	var featureLevel uint32
	r, _, _ = procD3D11CreateDevice.Call(
		uintptr(adapter),
		d3dDriverTypeUnknown,
		0,
		0,
		0, 0,
		d3d11SDKVersion,
		uintptr(unsafe.Pointer(&d.device)),
		uintptr(unsafe.Pointer(&featureLevel)),
		uintptr(unsafe.Pointer(&d.context)),
	)
	if err := hresultErr(r); err != nil {
		return nil, fmt.Errorf("D3D11CreateDevice: %w", err)
	}

	if err := hresultErr(output1.call(vtOutput1Duplicate, uintptr(d.device), uintptr(unsafe.Pointer(&d.dupl)))); err != nil {
		d.Close()
		return nil, fmt.Errorf("DuplicateOutput: %w", err)
	}

	return d, nil
}

func findOutput(factory comObject, display Rect) (comObject, comObject, error) {
	for a := uintptr(0); ; a++ {
		var adapter comObject
		if hr := uint32(factory.call(vtFactoryEnumAdapters1, a, uintptr(unsafe.Pointer(&adapter)))); hr == dxgiErrorNotFound {
			break
		} else if err := hresultErr(uintptr(hr)); err != nil {
			return 0, 0, fmt.Errorf("EnumAdapters1: %w", err)
		}

		for o := uintptr(0); ; o++ {
			var output comObject
			hr := uint32(adapter.call(vtAdapterEnumOutputs, o, uintptr(unsafe.Pointer(&output))))
			if hr == dxgiErrorNotFound || hresultErr(uintptr(hr)) != nil {
				break
			}

			var desc dxgiOutputDesc
			output.call(vtOutputGetDesc, uintptr(unsafe.Pointer(&desc)))
			bounds := Rect{
				X:      int(desc.Left),
				Y:      int(desc.Top),
				Width:  int(desc.Right - desc.Left),
				Height: int(desc.Bottom - desc.Top),
			}
			if bounds != display {
				output.release()
				continue
			}

			output1, err := output.queryInterface(&iidIDXGIOutput1)
			output.release()
			if err != nil {
				adapter.release()
				return 0, 0, fmt.Errorf("%w: IDXGIOutput1: %v", ErrUnsupported, err)
			}
			return adapter, output1, nil
		}
		adapter.release()
	}
	return 0, 0, fmt.Errorf("%w: %+v", ErrNoDisplay, display)
}

func (d *dxgiDuplicator) AcquireNextFrame(timeout time.Duration) error {
	var info dxgiFrameInfo
	var resource comObject
	r := d.dupl.call(vtDuplAcquireNextFrame,
		uintptr(timeout.Milliseconds()),
		uintptr(unsafe.Pointer(&info)),
		uintptr(unsafe.Pointer(&resource)),
	)
	if err := hresultErr(r); err != nil {
		return err
	}
	d.acquired = true

	tex, err := resource.queryInterface(&iidID3D11Texture2D)
	resource.release()
	if err != nil {
		return fmt.Errorf("desktop resource: %w", err)
	}
	d.frameTex = tex
	return nil
}

func (d *dxgiDuplicator) ReleaseFrame() error {
	d.frameTex.release()
	d.frameTex = 0
	if !d.acquired || d.dupl == 0 {
		return nil
	}
	d.acquired = false
	return hresultErr(d.dupl.call(vtDuplReleaseFrame))
}

func (d *dxgiDuplicator) EnsureStaging(width, height int) error {
	if d.staging != 0 && d.stagingWidth == width && d.stagingHeight == height {
		return nil
	}
	d.staging.release()
	d.staging = 0

	desc := d3d11Texture2DDesc{
		Width:          uint32(width),
		Height:         uint32(height),
		MipLevels:      1,
		ArraySize:      1,
		Format:         dxgiFormatB8G8R8A8UNorm,
		SampleCount:    1,
		Usage:          d3d11UsageStaging,
		CPUAccessFlags: d3d11CPUAccessRead,
	}
	if err := hresultErr(d.device.call(vtDeviceCreateTexture2D,
		uintptr(unsafe.Pointer(&desc)), 0, uintptr(unsafe.Pointer(&d.staging)))); err != nil {
		return fmt.Errorf("CreateTexture2D: %w", err)
	}
	d.stagingWidth, d.stagingHeight = width, height
	return nil
}

func (d *dxgiDuplicator) CopyToStaging(src Rect, dstX, dstY int) error {
	if d.frameTex == 0 || d.staging == 0 {
		return fmt.Errorf("copy without acquired frame or staging texture")
	}
	box := d3d11Box{
		Left:   uint32(src.X),
		Top:    uint32(src.Y),
		Front:  0,
		Right:  uint32(src.Right()),
		Bottom: uint32(src.Bottom()),
		Back:   1,
	}
	d.context.call(vtContextCopySubresourceRegion,
		uintptr(d.staging), 0,
		uintptr(dstX), uintptr(dstY), 0,
		uintptr(d.frameTex), 0,
		uintptr(unsafe.Pointer(&box)),
	)
	return nil
}

func (d *dxgiDuplicator) MapStaging() ([]byte, int, error) {
	var mapped d3d11MappedSubresource
	if err := hresultErr(d.context.call(vtContextMap,
		uintptr(d.staging), 0, d3d11MapRead, 0, uintptr(unsafe.Pointer(&mapped)))); err != nil {
		return nil, 0, fmt.Errorf("Map: %w", err)
	}
	pitch := int(mapped.RowPitch)
	pix := unsafe.Slice((*byte)(unsafe.Pointer(mapped.Data)), pitch*d.stagingHeight)
	return pix, pitch, nil
}

func (d *dxgiDuplicator) UnmapStaging() {
	d.context.call(vtContextUnmap, uintptr(d.staging), 0)
}

func (d *dxgiDuplicator) Close() error {
	d.ReleaseFrame()
	d.staging.release()
	d.dupl.release()
	d.context.release()
	d.device.release()
	*d = dxgiDuplicator{}
	return nil
}
