package sink

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"

	"github.com/pion/framering/pkg/frame"
	"github.com/pion/framering/pkg/framebuf"
)

const snapshotQuality = 85

// Snapshot writes every n-th frame as a JPEG still, scaled to a fixed width.
type Snapshot struct {
	dir     string
	every   int
	width   int
	scaler  draw.Scaler
	decoder frame.Decoder
	scratch []byte
	scaled  *image.RGBA
	seen    int
	written int
}

// NewSnapshot writes stills into dir. every <= 1 keeps every frame and
// width <= 0 keeps the frame width. The aspect ratio is always preserved.
func NewSnapshot(dir string, every, width int) (*Snapshot, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if every < 1 {
		every = 1
	}
	return &Snapshot{
		dir:    dir,
		every:  every,
		width:  width,
		scaler: draw.ApproxBiLinear,
	}, nil
}

// Consume implements Sink.
func (s *Snapshot) Consume(buf *framebuf.FrameBuffer) error {
	index := s.seen
	s.seen++
	if index%s.every != 0 {
		return nil
	}

	if s.decoder == nil {
		decoder, err := frame.NewDecoder(buf.Format())
		if err != nil {
			return err
		}
		s.decoder = decoder
	}

	if cap(s.scratch) < buf.Size() {
		s.scratch = make([]byte, buf.Size())
	}
	raw := s.scratch[:buf.Size()]
	if err := buf.Store(raw); err != nil {
		return err
	}
	img, release, err := s.decoder.Decode(raw, buf.Width(), buf.Height())
	if err != nil {
		return err
	}
	defer release()

	var out bytes.Buffer
	if err := jpeg.Encode(&out, s.scale(img), &jpeg.Options{Quality: snapshotQuality}); err != nil {
		return err
	}
	name := filepath.Join(s.dir, fmt.Sprintf("frame-%06d.jpg", index))
	if err := os.WriteFile(name, out.Bytes(), 0o644); err != nil {
		return err
	}
	s.written++
	return nil
}

func (s *Snapshot) scale(img image.Image) image.Image {
	b := img.Bounds()
	if s.width <= 0 || s.width == b.Dx() {
		return img
	}
	if s.scaled == nil {
		h := b.Dy() * s.width / b.Dx()
		if h < 1 {
			h = 1
		}
		s.scaled = image.NewRGBA(image.Rect(0, 0, s.width, h))
	}
	s.scaler.Scale(s.scaled, s.scaled.Bounds(), img, b, draw.Src, nil)
	return s.scaled
}

// Written returns the number of stills written.
func (s *Snapshot) Written() int { return s.written }

// Close implements Sink.
func (s *Snapshot) Close() error {
	logger.Debugf("snapshot: wrote %d stills to %s", s.written, s.dir)
	return nil
}
