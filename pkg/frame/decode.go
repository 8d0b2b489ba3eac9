package frame

import (
	"fmt"
)

// NewDecoder returns a Decoder for f. The 16-bit formats decode to their luma plane only.
func NewDecoder(f Format) (Decoder, error) {
	var decode decoderFunc

	switch f {
	case FormatNV12:
		decode = decodeNV12
	case FormatYUV420:
		decode = decodeYUV420
	case FormatYUV444:
		decode = decodeYUV444
	case FormatARGB:
		decode = decodeARGB
	case FormatABGR:
		decode = decodeABGR
	case FormatP010, FormatYUV444P16:
		decode = luma16Decoder(f)
	default:
		return nil, &UnsupportedFormatError{Format: f}
	}

	return decode, nil
}

func checkLen(frame []byte, f Format, width, height int) (Layout, error) {
	layout, err := Describe(f, width, height)
	if err != nil {
		return Layout{}, err
	}
	if len(frame) < layout.Size {
		return Layout{}, fmt.Errorf("frame length (%d) less than expected (%d)", len(frame), layout.Size)
	}
	return layout, nil
}

func planeBytes(frame []byte, p PlaneSpec) []byte {
	return frame[p.Offset:p.End():p.End()]
}

func nopRelease() {}
