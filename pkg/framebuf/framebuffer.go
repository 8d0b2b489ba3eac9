package framebuf

import (
	"fmt"

	"github.com/pion/framering/pkg/devarray"
	"github.com/pion/framering/pkg/device"
	"github.com/pion/framering/pkg/frame"
)

// Mode tells how a FrameBuffer got its memory.
type Mode int

const (
	// Owning buffers allocate their memory and free it on Close.
	Owning Mode = iota
	// AliasedSlot buffers borrow one frame sized slot of a larger allocation
	// owned by someone else. They never allocate or free.
	AliasedSlot
)

func (m Mode) String() string {
	switch m {
	case Owning:
		return "owning"
	case AliasedSlot:
		return "aliased"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// FrameBuffer is one frame of device memory together with views of its planes.
//
// A FrameBuffer is not safe for concurrent use. Loading a new frame overwrites
// the memory every previously handed out PlaneView points to.
type FrameBuffer struct {
	ctx        device.Context
	layout     frame.Layout
	mode       Mode
	base       device.Ptr
	slot       int
	planes     []PlaneView
	generation uint64
	closed     bool
}

// New allocates a frame of the given format and resolution on ctx.
// Allocation failures are returned as is, typically *device.OutOfMemoryError.
func New(ctx device.Context, f frame.Format, width, height int) (*FrameBuffer, error) {
	layout, err := frame.Describe(f, width, height)
	if err != nil {
		return nil, err
	}
	return newOwning(ctx, layout)
}

func newOwning(ctx device.Context, layout frame.Layout) (*FrameBuffer, error) {
	base, err := ctx.Alloc(layout.Size)
	if err != nil {
		return nil, err
	}
	return newFrameBuffer(ctx, layout, Owning, base, 0), nil
}

// NewAliased builds a frame over slot of an allocation starting at shared.
// The frame starts slot*size bytes into the allocation, where size is the
// frame size of the format. ctx is only used for copies; the caller keeps
// ownership of the allocation.
func NewAliased(ctx device.Context, f frame.Format, width, height int, shared device.Ptr, slot int) (*FrameBuffer, error) {
	layout, err := frame.Describe(f, width, height)
	if err != nil {
		return nil, err
	}
	if slot < 0 {
		return nil, fmt.Errorf("framebuf: negative slot %d", slot)
	}
	return newAliased(ctx, layout, shared, slot), nil
}

func newAliased(ctx device.Context, layout frame.Layout, shared device.Ptr, slot int) *FrameBuffer {
	return newFrameBuffer(ctx, layout, AliasedSlot, shared.Add(slot*layout.Size), slot)
}

// newFrameBuffer is the only place plane views are built, so both modes share
// the same geometry and differ only by base.
func newFrameBuffer(ctx device.Context, layout frame.Layout, mode Mode, base device.Ptr, slot int) *FrameBuffer {
	planes := make([]PlaneView, len(layout.Planes))
	for i, spec := range layout.Planes {
		planes[i] = newPlaneView(spec, base)
	}
	return &FrameBuffer{
		ctx:    ctx,
		layout: layout,
		mode:   mode,
		base:   base,
		slot:   slot,
		planes: planes,
	}
}

// Format returns the pixel format of the frame.
func (b *FrameBuffer) Format() frame.Format { return b.layout.Format }

// Width returns the frame width in pixels.
func (b *FrameBuffer) Width() int { return b.layout.Width }

// Height returns the frame height in pixels.
func (b *FrameBuffer) Height() int { return b.layout.Height }

// Size returns the frame size in bytes.
func (b *FrameBuffer) Size() int { return b.layout.Size }

// Layout returns the frame layout.
func (b *FrameBuffer) Layout() frame.Layout { return b.layout }

// Mode returns how the frame memory is held.
func (b *FrameBuffer) Mode() Mode { return b.mode }

// Ptr returns the device address of the first byte of the frame.
func (b *FrameBuffer) Ptr() device.Ptr { return b.base }

// Slot returns the slot index of an aliased frame. Owning frames report 0.
func (b *FrameBuffer) Slot() int { return b.slot }

// Planes returns the views of every plane in layout order. The slice is shared
// and must not be modified.
func (b *FrameBuffer) Planes() []PlaneView { return b.planes }

// Plane returns the i-th plane view.
func (b *FrameBuffer) Plane(i int) PlaneView { return b.planes[i] }

// Arrays returns the device-array descriptors of every plane.
func (b *FrameBuffer) Arrays() []devarray.Descriptor {
	arrays := make([]devarray.Descriptor, len(b.planes))
	for i, p := range b.planes {
		arrays[i] = p.Array()
	}
	return arrays
}

// Generation counts how many times a frame has been loaded into the buffer.
// A consumer that records it when it receives the buffer can later tell
// whether the contents were replaced.
func (b *FrameBuffer) Generation() uint64 { return b.generation }

// Load copies a host frame into the buffer, blocking until the copy is done.
// src must be exactly Size bytes.
func (b *FrameBuffer) Load(src []byte) error {
	if b.closed {
		return errClosed
	}
	if len(src) != b.layout.Size {
		return fmt.Errorf("framebuf: load %d bytes into a %d byte frame", len(src), b.layout.Size)
	}
	if err := b.ctx.CopyHtoD(b.base, src); err != nil {
		return err
	}
	b.generation++
	return nil
}

// Store copies the frame back to host memory. dst must hold at least Size bytes.
func (b *FrameBuffer) Store(dst []byte) error {
	if b.closed {
		return errClosed
	}
	if len(dst) < b.layout.Size {
		return fmt.Errorf("framebuf: store a %d byte frame into %d bytes", b.layout.Size, len(dst))
	}
	return b.ctx.CopyDtoH(dst[:b.layout.Size], b.base)
}

// StorePlane copies plane i back to host memory. dst must hold at least the
// plane's Len bytes.
func (b *FrameBuffer) StorePlane(i int, dst []byte) error {
	if b.closed {
		return errClosed
	}
	p := b.planes[i]
	if len(dst) < p.Len() {
		return fmt.Errorf("framebuf: store a %d byte plane into %d bytes", p.Len(), len(dst))
	}
	return b.ctx.CopyDtoH(dst[:p.Len()], p.Ptr())
}

// Close frees the memory of an owning frame. It is a no-op for aliased frames
// and safe to call more than once.
func (b *FrameBuffer) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	if b.mode != Owning {
		return nil
	}
	return b.ctx.Free(b.base)
}
