package frame

import "fmt"

// Format is a raw pixel format understood by the frame ring. The set is closed:
// every value below numFormats has an entry in the layout table.
type Format uint8

const (
	// FormatNV12 is 4:2:0 YUV with a full resolution Y plane followed by an
	// interleaved half resolution UV plane.
	FormatNV12 Format = iota
	// FormatARGB is packed 8-bit ARGB, one 32-bit word per pixel with B in the lowest byte.
	FormatARGB
	// FormatABGR is packed 8-bit ABGR, one 32-bit word per pixel with R in the lowest byte.
	FormatABGR
	// FormatYUV444 is planar 4:4:4 YUV without sub-sampling.
	FormatYUV444
	// FormatYUV420 is planar 4:2:0 YUV (I420).
	FormatYUV420
	// FormatP010 is NV12 with 16-bit little endian samples holding 10 significant bits.
	FormatP010
	// FormatYUV444P16 is planar 4:4:4 YUV with 16-bit little endian samples.
	FormatYUV444P16

	numFormats
)

var formatNames = [numFormats]string{
	FormatNV12:      "NV12",
	FormatARGB:      "ARGB",
	FormatABGR:      "ABGR",
	FormatYUV444:    "YUV444",
	FormatYUV420:    "YUV420",
	FormatP010:      "P010",
	FormatYUV444P16: "YUV444_16BIT",
}

// Formats lists every supported format in declaration order.
func Formats() []Format {
	formats := make([]Format, 0, numFormats)
	for f := Format(0); f < numFormats; f++ {
		formats = append(formats, f)
	}
	return formats
}

// Valid reports whether f is one of the supported formats.
func (f Format) Valid() bool {
	return f < numFormats
}

func (f Format) String() string {
	if !f.Valid() {
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
	return formatNames[f]
}

// ParseFormat maps a format name such as "NV12" or "YUV444_16BIT" to its tag.
func ParseFormat(name string) (Format, error) {
	for f, n := range formatNames {
		if n == name {
			return Format(f), nil
		}
	}
	return 0, &UnsupportedFormatError{Name: name}
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, &UnsupportedFormatError{Format: f}
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(text []byte) error {
	parsed, err := ParseFormat(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
