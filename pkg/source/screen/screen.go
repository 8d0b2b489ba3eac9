// Package screen captures a display as packed RGB frames.
package screen

import (
	"errors"
	"image"
	"sync/atomic"

	"github.com/kbinani/screenshot"
	"golang.org/x/image/draw"

	"github.com/pion/framering/internal/logging"
	"github.com/pion/framering/pkg/frame"
)

var (
	errNoDisplay = errors.New("screen: no such display")
	errClosed    = errors.New("screen: closed")
)

var logger = logging.NewLogger("framering/source/screen")

// CaptureFunc grabs one image of a display.
type CaptureFunc func(displayIndex int) (*image.RGBA, error)

// Screen captures a display and scales every capture to a fixed resolution.
type Screen struct {
	displayIndex int
	format       frame.Format
	rect         image.Rectangle
	capture      CaptureFunc
	scaler       draw.Scaler
	scaled       *image.RGBA
	buf          []byte
	closed       atomic.Bool
}

// Option configures a Screen.
type Option func(*Screen)

// WithCapture replaces the screenshot based capture.
func WithCapture(capture CaptureFunc) Option {
	return func(s *Screen) {
		s.capture = capture
	}
}

// WithScaler sets the scaling algorithm. The default is draw.ApproxBiLinear.
func WithScaler(scaler draw.Scaler) Option {
	return func(s *Screen) {
		s.scaler = scaler
	}
}

// Displays returns the number of active displays.
func Displays() int {
	return screenshot.NumActiveDisplays()
}

// Open prepares capture of display displayIndex as f frames of width x height.
// Only the packed RGB formats are supported.
func Open(displayIndex int, f frame.Format, width, height int, opts ...Option) (*Screen, error) {
	if f != frame.FormatARGB && f != frame.FormatABGR {
		return nil, &frame.UnsupportedFormatError{Format: f}
	}
	if _, err := frame.Describe(f, width, height); err != nil {
		return nil, err
	}

	s := &Screen{
		displayIndex: displayIndex,
		format:       f,
		rect:         image.Rect(0, 0, width, height),
		capture:      screenshot.CaptureDisplay,
		scaler:       draw.ApproxBiLinear,
	}
	for _, o := range opts {
		o(s)
	}

	if s.capture == nil {
		return nil, errors.New("screen: nil capture function")
	}
	if displayIndex < 0 {
		return nil, errNoDisplay
	}
	s.scaled = image.NewRGBA(s.rect)
	logger.Infof("display %d: capturing %s %dx%d", displayIndex, f, width, height)
	return s, nil
}

// Pull implements source.Source. Every call takes a new capture.
func (s *Screen) Pull(n int) ([]byte, error) {
	if s.closed.Load() {
		return nil, errClosed
	}

	img, err := s.capture(s.displayIndex)
	if err != nil {
		return nil, err
	}

	src := img
	if !img.Bounds().Size().Eq(s.rect.Size()) {
		s.scaler.Scale(s.scaled, s.rect, img, img.Bounds(), draw.Src, nil)
		src = s.scaled
	}

	if cap(s.buf) < len(s.scaled.Pix) {
		s.buf = make([]byte, len(s.scaled.Pix))
	}
	out := s.buf[:len(s.scaled.Pix)]
	pack(out, src, s.format)
	return out, nil
}

// Close stops the capture. Pull fails afterwards. Close may be called while
// a Pull is in flight.
func (s *Screen) Close() error {
	s.closed.Store(true)
	return nil
}

// pack writes img row by row into dst. ABGR frames share image.RGBA's byte
// order; ARGB frames swap red and blue.
func pack(dst []byte, img *image.RGBA, f frame.Format) {
	b := img.Bounds()
	rowLen := 4 * b.Dx()
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+rowLen]
		out := dst[y*rowLen : (y+1)*rowLen]
		if f == frame.FormatABGR {
			copy(out, row)
			continue
		}
		for i := 0; i < rowLen; i += 4 {
			out[i] = row[i+2]
			out[i+1] = row[i+1]
			out[i+2] = row[i]
			out[i+3] = row[i+3]
		}
	}
}
