package feed

import (
	"context"
	"errors"
	"io"

	"github.com/pion/framering/pkg/framebuf"
)

// ConsumeFunc processes one frame. The buffer must not be used after it returns.
type ConsumeFunc func(buf *framebuf.FrameBuffer) error

// Pump feeds every frame to consume until the stream ends, consume fails or ctx
// is done. Cancellation is checked between frames. A clean end of stream
// returns a nil error.
func Pump(ctx context.Context, f *Feeder, consume ConsumeFunc) (Stats, error) {
	for {
		if err := ctx.Err(); err != nil {
			return f.Stats(), err
		}

		buf, release, err := f.Read()
		if errors.Is(err, io.EOF) {
			f.log.Infof("pool %s: fed %d frames (%d bytes, %v copying)",
				f.pool.ID(), f.stats.Frames, f.stats.Bytes, f.stats.CopyTime)
			return f.Stats(), nil
		}
		if err != nil {
			return f.Stats(), err
		}

		err = consume(buf)
		release()
		if err != nil {
			return f.Stats(), err
		}
	}
}
