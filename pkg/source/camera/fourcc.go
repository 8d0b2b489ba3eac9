package camera

import (
	"github.com/pion/framering/pkg/frame"
)

// fourcc packs a V4L2 pixel format code.
func fourcc(code string) uint32 {
	return uint32(code[0]) | uint32(code[1])<<8 | uint32(code[2])<<16 | uint32(code[3])<<24
}

// Pixel formats with a V4L2 equivalent. ARGB is stored B,G,R,A which V4L2
// calls ABGR32, and ABGR is stored R,G,B,A which V4L2 calls RGBA32.
var fourccs = map[frame.Format]uint32{
	frame.FormatNV12:   fourcc("NV12"),
	frame.FormatYUV420: fourcc("YU12"),
	frame.FormatARGB:   fourcc("AR24"),
	frame.FormatABGR:   fourcc("AB24"),
	frame.FormatP010:   fourcc("P010"),
}

// PixelFormat returns the V4L2 code for f.
func PixelFormat(f frame.Format) (uint32, bool) {
	pf, ok := fourccs[f]
	return pf, ok
}
