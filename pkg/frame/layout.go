package frame

import (
	"fmt"
	"math"
)

// maxBytesPerPixel bounds the bytes per pixel of every format, reached by
// YUV444_16BIT.
const maxBytesPerPixel = 6

// ElementType describes a single sample of a plane.
type ElementType struct {
	// Kind is 'u' for unsigned and 'i' for signed integers.
	Kind byte
	// Size is the sample width in bytes.
	Size int
}

var (
	// Uint8 is an unsigned 8-bit sample.
	Uint8 = ElementType{Kind: 'u', Size: 1}
	// Uint16 is an unsigned little endian 16-bit sample.
	Uint16 = ElementType{Kind: 'u', Size: 2}
)

// Typestr returns the array interface type string, e.g. "|u1" or "<u2".
func (t ElementType) Typestr() string {
	order := byte('<')
	if t.Size == 1 {
		order = '|'
	}
	return fmt.Sprintf("%c%c%d", order, t.Kind, t.Size)
}

// PlaneSpec is the geometry of one plane relative to the start of a frame.
type PlaneSpec struct {
	Name string
	// Shape is (rows, columns, channels).
	Shape [3]int
	// Strides is the byte distance between consecutive rows, columns and channels.
	Strides [3]int
	Elem    ElementType
	// Offset is the byte offset of the first sample from the start of the frame.
	Offset int
}

// Len returns the number of bytes covered by the plane.
func (p PlaneSpec) Len() int {
	return p.Shape[0] * p.Shape[1] * p.Shape[2] * p.Elem.Size
}

// End returns the offset one past the last byte of the plane.
func (p PlaneSpec) End() int {
	return p.Offset + p.Len()
}

// Layout is the complete memory layout of a frame.
type Layout struct {
	Format        Format
	Width, Height int
	// Size is the number of bytes a frame occupies.
	Size   int
	Planes []PlaneSpec
}

type layoutFunc func(w, h int) (size int, planes []PlaneSpec)

var layouts = [numFormats]layoutFunc{
	FormatNV12:      layoutNV12,
	FormatARGB:      layoutPacked32,
	FormatABGR:      layoutPacked32,
	FormatYUV444:    layoutYUV444,
	FormatYUV420:    layoutYUV420,
	FormatP010:      layoutP010,
	FormatYUV444P16: layoutYUV444P16,
}

// Describe computes the layout of a width x height frame in format f.
// Width and height must be positive and even, and the frame size must fit
// in an int.
func Describe(f Format, width, height int) (Layout, error) {
	if !f.Valid() || layouts[f] == nil {
		return Layout{}, &UnsupportedFormatError{Format: f}
	}
	if width <= 0 || height <= 0 {
		return Layout{}, &InvalidDimensionsError{Width: width, Height: height, Reason: "must be positive"}
	}
	if width%2 != 0 || height%2 != 0 {
		return Layout{}, &InvalidDimensionsError{Width: width, Height: height, Reason: "must be even"}
	}
	if width > math.MaxInt/maxBytesPerPixel/height {
		return Layout{}, &InvalidDimensionsError{Width: width, Height: height, Reason: "too large"}
	}

	size, planes := layouts[f](width, height)
	return Layout{
		Format: f,
		Width:  width,
		Height: height,
		Size:   size,
		Planes: planes,
	}, nil
}

func plane(name string, h, w, c int, elem ElementType, offset int) PlaneSpec {
	return PlaneSpec{
		Name:    name,
		Shape:   [3]int{h, w, c},
		Strides: [3]int{w * c * elem.Size, c * elem.Size, elem.Size},
		Elem:    elem,
		Offset:  offset,
	}
}

func layoutNV12(w, h int) (int, []PlaneSpec) {
	yi := w * h
	return yi * 3 / 2, []PlaneSpec{
		plane("Y", h, w, 1, Uint8, 0),
		plane("UV", h/2, w/2, 2, Uint8, yi),
	}
}

func layoutPacked32(w, h int) (int, []PlaneSpec) {
	return w * h * 4, []PlaneSpec{
		plane("RGBA", h, w, 4, Uint8, 0),
	}
}

func layoutYUV444(w, h int) (int, []PlaneSpec) {
	yi := w * h
	return yi * 3, []PlaneSpec{
		plane("Y", h, w, 1, Uint8, 0),
		plane("U", h, w, 1, Uint8, yi),
		plane("V", h, w, 1, Uint8, 2*yi),
	}
}

func layoutYUV420(w, h int) (int, []PlaneSpec) {
	yi := w * h
	ci := yi / 4
	return yi + 2*ci, []PlaneSpec{
		plane("Y", h, w, 1, Uint8, 0),
		plane("U", h/2, w/2, 1, Uint8, yi),
		plane("V", h/2, w/2, 1, Uint8, yi+ci),
	}
}

func layoutP010(w, h int) (int, []PlaneSpec) {
	yi := w * h * 2
	return w * h * 3, []PlaneSpec{
		plane("Y", h, w, 1, Uint16, 0),
		plane("UV", h/2, w/2, 2, Uint16, yi),
	}
}

func layoutYUV444P16(w, h int) (int, []PlaneSpec) {
	yi := w * h * 2
	return w * h * 6, []PlaneSpec{
		plane("Y", h, w, 1, Uint16, 0),
		plane("U", h, w, 1, Uint16, yi),
		plane("V", h, w, 1, Uint16, 2*yi),
	}
}
