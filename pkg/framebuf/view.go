package framebuf

import (
	"github.com/pion/framering/pkg/devarray"
	"github.com/pion/framering/pkg/device"
	"github.com/pion/framering/pkg/frame"
)

// PlaneView is a zero-copy view of one plane of a FrameBuffer. It does not own
// the memory it points to and must not be used after its FrameBuffer is closed.
type PlaneView struct {
	spec frame.PlaneSpec
	ptr  device.Ptr
}

func newPlaneView(spec frame.PlaneSpec, base device.Ptr) PlaneView {
	return PlaneView{spec: spec, ptr: base.Add(spec.Offset)}
}

// Name returns the plane name, e.g. "Y" or "UV".
func (v PlaneView) Name() string { return v.spec.Name }

// Spec returns the plane geometry relative to the start of the frame.
func (v PlaneView) Spec() frame.PlaneSpec { return v.spec }

// Ptr returns the device address of the first sample.
func (v PlaneView) Ptr() device.Ptr { return v.ptr }

// Offset returns the byte offset of the plane from the start of the frame.
func (v PlaneView) Offset() int { return v.spec.Offset }

// Len returns the number of bytes covered by the plane.
func (v PlaneView) Len() int { return v.spec.Len() }

// Array returns the device-array descriptor of the plane.
func (v PlaneView) Array() devarray.Descriptor {
	return devarray.Descriptor{
		Shape:   v.spec.Shape[:],
		Strides: v.spec.Strides[:],
		Data:    uintptr(v.ptr),
		Typestr: v.spec.Elem.Typestr(),
		Version: devarray.Version,
	}
}
