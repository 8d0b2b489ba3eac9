package sink

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/pion/framering/pkg/framebuf"
)

// Dump writes every frame back to back as raw bytes, producing a stream a file
// source can replay.
type Dump struct {
	w       io.Writer
	bw      *bufio.Writer
	zw      *zstd.Encoder
	f       *os.File
	scratch []byte
	frames  int
}

// NewDump writes raw frames to w.
func NewDump(w io.Writer) *Dump {
	bw := bufio.NewWriterSize(w, 1<<20)
	return &Dump{w: bw, bw: bw}
}

// CreateDump creates path and dumps frames into it, compressed with zstd when
// the name ends in ".zst".
func CreateDump(path string) (*Dump, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	d := NewDump(f)
	d.f = f
	if strings.HasSuffix(path, ".zst") {
		zw, err := zstd.NewWriter(d.bw)
		if err != nil {
			f.Close()
			return nil, err
		}
		d.zw = zw
		d.w = zw
	}
	return d, nil
}

// Consume implements Sink.
func (d *Dump) Consume(buf *framebuf.FrameBuffer) error {
	if cap(d.scratch) < buf.Size() {
		d.scratch = make([]byte, buf.Size())
	}
	b := d.scratch[:buf.Size()]
	if err := buf.Store(b); err != nil {
		return err
	}
	if _, err := d.w.Write(b); err != nil {
		return err
	}
	d.frames++
	return nil
}

// Frames returns the number of frames written.
func (d *Dump) Frames() int { return d.frames }

// Close flushes buffered output and closes the file if CreateDump opened it.
func (d *Dump) Close() error {
	var errs []error
	if d.zw != nil {
		errs = append(errs, d.zw.Close())
		d.zw = nil
	}
	errs = append(errs, d.bw.Flush())
	if d.f != nil {
		errs = append(errs, d.f.Close())
		d.f = nil
	}
	logger.Debugf("dump: wrote %d frames", d.frames)
	return errors.Join(errs...)
}
