// Package feed pumps raw frames from a host source into the slots of a frame
// pool, one synchronous copy at a time.
//
// The feeder is lazy: nothing is read until the consumer asks for the next
// frame, and the copy into device memory finishes before the frame is handed
// out. Frame i always lands in slot i mod N of an N slot pool, so a consumer
// must be done with frame i before asking for frame i+N. See WithReuseCheck to
// catch consumers that are not.
package feed

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/pion/logging"

	internalLogging "github.com/pion/framering/internal/logging"
	"github.com/pion/framering/pkg/framebuf"
	"github.com/pion/framering/pkg/source"
)

const noFrame = -1

var logger = internalLogging.NewLogger("framering/feed")

// Stats counts the work done by a feeder.
type Stats struct {
	Frames int
	Bytes  int64
	// CopyTime is the time spent in host to device copies.
	CopyTime time.Duration
}

// Feeder stages frames from a source into a pool. A Feeder makes a single
// pass over its source and is not safe for concurrent use.
type Feeder struct {
	pool      *framebuf.Pool
	src       source.Source
	maxFrames int
	check     bool
	pending   []int
	next      int
	err       error
	stats     Stats
	log       logging.LeveledLogger
}

// Option configures a Feeder.
type Option func(*Feeder)

// WithMaxFrames stops the feeder after n frames. Zero or less means no limit,
// so WithMaxFrames(0) feeds until the source ends rather than yielding nothing.
// Use an empty source, or stop iterating, to feed no frames at all.
func WithMaxFrames(n int) Option {
	return func(f *Feeder) {
		f.maxFrames = n
	}
}

// WithReuseCheck makes the feeder track which frames have been released and
// fail with *ReuseHazardError instead of overwriting a slot that still holds
// an unreleased frame.
func WithReuseCheck() Option {
	return func(f *Feeder) {
		f.check = true
	}
}

// WithLogger replaces the package logger.
func WithLogger(log logging.LeveledLogger) Option {
	return func(f *Feeder) {
		f.log = log
	}
}

// New creates a feeder pulling from src into pool.
func New(pool *framebuf.Pool, src source.Source, opts ...Option) *Feeder {
	f := &Feeder{
		pool: pool,
		src:  src,
		log:  logger,
	}
	for _, o := range opts {
		o(f)
	}
	if f.check {
		f.pending = make([]int, pool.Len())
		for i := range f.pending {
			f.pending[i] = noFrame
		}
	}
	return f
}

// Read loads the next frame and returns the slot holding it. release tells the
// feeder the consumer is done with the frame; it only matters with
// WithReuseCheck but is always safe to call. At the end of the stream Read
// returns io.EOF. After any error the feeder stays terminated and keeps
// returning the same error.
func (f *Feeder) Read() (buf *framebuf.FrameBuffer, release func(), err error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	if f.maxFrames > 0 && f.next >= f.maxFrames {
		return nil, nil, f.finish()
	}

	i := f.next
	slot := f.pool.Slot(i)
	if f.check && f.pending[slot] != noFrame {
		return nil, nil, f.fail(&ReuseHazardError{Slot: slot, Frame: i, Pending: f.pending[slot]})
	}

	want := f.pool.FrameSize()
	chunk, err := f.src.Pull(want)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, f.fail(fmt.Errorf("feed: frame %d: %w", i, err))
	}
	switch {
	case len(chunk) == 0:
		return nil, nil, f.finish()
	case len(chunk) < want:
		return nil, nil, f.fail(&IncompleteFrameError{Frame: i, Got: len(chunk), Want: want})
	case len(chunk) > want:
		return nil, nil, f.fail(fmt.Errorf("feed: frame %d: source returned %d bytes, want %d", i, len(chunk), want))
	}

	buf = f.pool.Get(i)
	start := time.Now()
	if err := buf.Load(chunk); err != nil {
		return nil, nil, f.fail(fmt.Errorf("feed: frame %d: loading slot %d: %w", i, slot, err))
	}
	f.stats.CopyTime += time.Since(start)
	f.stats.Frames++
	f.stats.Bytes += int64(want)
	f.next++

	if !f.check {
		return buf, func() {}, nil
	}
	f.pending[slot] = i
	return buf, func() {
		if f.pending[slot] == i {
			f.pending[slot] = noFrame
		}
	}, nil
}

// Frames returns the frames as a lazy sequence. Each frame is released once
// the loop body has run for it. Iteration stops at the end of the stream or
// after yielding the first error.
func (f *Feeder) Frames() iter.Seq2[*framebuf.FrameBuffer, error] {
	return func(yield func(*framebuf.FrameBuffer, error) bool) {
		for {
			buf, release, err := f.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			ok := yield(buf, nil)
			release()
			if !ok {
				return
			}
		}
	}
}

// Next returns the index of the frame the next Read will load.
func (f *Feeder) Next() int {
	return f.next
}

// Stats returns the counters accumulated so far.
func (f *Feeder) Stats() Stats {
	return f.stats
}

func (f *Feeder) finish() error {
	f.err = io.EOF
	f.log.Debugf("pool %s: end of stream after %d frames", f.pool.ID(), f.next)
	return f.err
}

func (f *Feeder) fail(err error) error {
	f.err = err
	f.log.Errorf("pool %s: %v", f.pool.ID(), err)
	return err
}
