package frame

import "fmt"

// UnsupportedFormatError is returned for a pixel format tag or name outside the
// supported set.
type UnsupportedFormatError struct {
	Format Format
	// Name is set when the error comes from parsing a format name.
	Name string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("unsupported pixel format %q", e.Name)
	}
	return fmt.Sprintf("unsupported pixel format %v", e.Format)
}

// InvalidDimensionsError is returned when a resolution cannot be laid out
// without fractional planes.
type InvalidDimensionsError struct {
	Width, Height int
	Reason        string
}

func (e *InvalidDimensionsError) Error() string {
	return fmt.Sprintf("invalid frame dimensions %dx%d: %s", e.Width, e.Height, e.Reason)
}
