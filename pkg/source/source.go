// Package source provides host frame sources: producers of raw frames in host
// memory that a feeder stages into device memory.
package source

import (
	"errors"
	"io"
)

// Source yields raw frames.
//
// Pull returns exactly n bytes for a complete frame. A shorter slice means the
// source ran dry: an empty slice is a clean end of stream, while a non-empty
// short slice is a truncated frame. An error is returned only for failures
// other than running out of data. The returned slice is only valid until the
// next call to Pull.
type Source interface {
	Pull(n int) ([]byte, error)
}

// SourceFunc is a proxy type to make it easier to implement Source.
type SourceFunc func(n int) ([]byte, error)

// Pull implements Source.
func (f SourceFunc) Pull(n int) ([]byte, error) {
	return f(n)
}

type readerSource struct {
	r   io.Reader
	buf []byte
}

// NewReader returns a Source pulling frames from r. The internal buffer is
// reused, so r is never asked for more than one frame at a time.
func NewReader(r io.Reader) Source {
	return &readerSource{r: r}
}

func (s *readerSource) Pull(n int) ([]byte, error) {
	if cap(s.buf) < n {
		s.buf = make([]byte, n)
	}
	return readFrame(s.r, s.buf[:n])
}

// readFrame fills buf from r, mapping io.ReadFull's end of stream errors to
// short results.
func readFrame(r io.Reader, buf []byte) ([]byte, error) {
	n, err := io.ReadFull(r, buf)
	switch {
	case err == nil:
		return buf, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return buf[:n], nil
	default:
		return nil, err
	}
}
