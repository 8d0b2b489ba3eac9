// Package framebuf lays raw video frames out in device memory and recycles a
// small, fixed set of them.
//
// A Pool is created once per streaming session at a fixed format and
// resolution. Frames are handed out round robin with Get(i), which always
// returns the buffer of slot i mod N: nothing is allocated after construction.
//
// Buffers are reused without any bookkeeping. Whoever consumes the buffer
// returned for frame i must be done with it, including any device work it
// queued, before frame i+N is loaded into the same slot. Breaking that rule
// does not fail; it silently corrupts the frame in use.
package framebuf

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/pion/logging"

	internalLogging "github.com/pion/framering/internal/logging"
	"github.com/pion/framering/pkg/device"
	"github.com/pion/framering/pkg/frame"
)

var (
	errClosed          = errors.New("framebuf: buffer is closed")
	errInvalidPoolSize = errors.New("framebuf: pool size must be positive")
	errPoolTooLarge    = errors.New("framebuf: pool does not fit in memory")
)

var logger = internalLogging.NewLogger("framering/framebuf")

// Pool is a fixed size ring of frame buffers sharing a format and resolution.
type Pool struct {
	id      string
	ctx     device.Context
	layout  frame.Layout
	buffers []*FrameBuffer
	shared  device.Ptr
	ownsCtx bool
	closed  bool
	log     logging.LeveledLogger
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithContextOwnership makes the pool close its device context when the pool
// is closed, tying the device lifetime to the session. If the pool cannot be
// built, the context is closed before the constructor returns.
func WithContextOwnership() PoolOption {
	return func(p *Pool) {
		p.ownsCtx = true
	}
}

// WithLogger replaces the package logger.
func WithLogger(log logging.LeveledLogger) PoolOption {
	return func(p *Pool) {
		p.log = log
	}
}

func newPool(ctx device.Context, f frame.Format, width, height, n int, opts []PoolOption) (*Pool, error) {
	p := &Pool{
		id:  uuid.New().String(),
		ctx: ctx,
		log: logger,
	}
	for _, o := range opts {
		o(p)
	}

	layout, err := frame.Describe(f, width, height)
	if err == nil {
		switch {
		case n <= 0:
			err = fmt.Errorf("%w: %d", errInvalidPoolSize, n)
		case n > math.MaxInt/layout.Size:
			err = fmt.Errorf("%w: %d frames of %d bytes", errPoolTooLarge, n, layout.Size)
		}
	}
	if err != nil {
		if p.ownsCtx {
			_ = ctx.Close()
		}
		return nil, err
	}
	p.layout = layout
	return p, nil
}

// NewPool allocates n owning frame buffers up front. Geometry errors, and
// pools whose total size overflows an int, are reported before anything is
// allocated. If an allocation fails, the buffers allocated so far are freed
// and the allocation error is returned.
func NewPool(ctx device.Context, f frame.Format, width, height, n int, opts ...PoolOption) (*Pool, error) {
	p, err := newPool(ctx, f, width, height, n, opts)
	if err != nil {
		return nil, err
	}

	for i := 0; i < n; i++ {
		buf, err := newOwning(ctx, p.layout)
		if err != nil {
			p.log.Errorf("pool %s: allocating slot %d of %d: %v", p.id, i, n, err)
			p.release()
			return nil, err
		}
		p.buffers = append(p.buffers, buf)
	}

	p.log.Infof("pool %s: %d x %s %dx%d (%d bytes per frame) on %s",
		p.id, n, f, width, height, p.layout.Size, ctx.Name())
	return p, nil
}

// NewSharedPool makes a single allocation of n frames and carves it into n
// aliased slots. The pool owns the allocation and frees it on Close.
func NewSharedPool(ctx device.Context, f frame.Format, width, height, n int, opts ...PoolOption) (*Pool, error) {
	p, err := newPool(ctx, f, width, height, n, opts)
	if err != nil {
		return nil, err
	}

	shared, err := ctx.Alloc(n * p.layout.Size)
	if err != nil {
		p.log.Errorf("pool %s: allocating %d shared slots: %v", p.id, n, err)
		if p.ownsCtx {
			_ = ctx.Close()
		}
		return nil, err
	}
	p.shared = shared
	for i := 0; i < n; i++ {
		p.buffers = append(p.buffers, newAliased(ctx, p.layout, shared, i))
	}

	p.log.Infof("pool %s: %d shared slots of %s %dx%d (%d bytes) on %s",
		p.id, n, f, width, height, n*p.layout.Size, ctx.Name())
	return p, nil
}

// Get returns the buffer of slot i mod Len. Negative indices wrap as well.
func (p *Pool) Get(i int) *FrameBuffer {
	return p.buffers[p.Slot(i)]
}

// Slot returns the slot that frame index i maps to.
func (p *Pool) Slot(i int) int {
	n := len(p.buffers)
	s := i % n
	if s < 0 {
		s += n
	}
	return s
}

// Len returns the number of slots.
func (p *Pool) Len() int { return len(p.buffers) }

// Layout returns the frame layout shared by every slot.
func (p *Pool) Layout() frame.Layout { return p.layout }

// FrameSize returns the size of one frame in bytes.
func (p *Pool) FrameSize() int { return p.layout.Size }

// ID identifies the pool in logs.
func (p *Pool) ID() string { return p.id }

// Context returns the device context the pool allocates from.
func (p *Pool) Context() device.Context { return p.ctx }

// Shared reports whether the slots alias one shared allocation.
func (p *Pool) Shared() bool { return p.shared != 0 }

// Close frees every allocation made by the pool, and the device context if the
// pool owns it. Buffers and views obtained from the pool are invalid afterwards.
func (p *Pool) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	err := p.release()
	p.log.Debugf("pool %s: closed", p.id)
	return err
}

func (p *Pool) release() error {
	var errs []error
	for _, buf := range p.buffers {
		if err := buf.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if p.shared != 0 {
		if err := p.ctx.Free(p.shared); err != nil {
			errs = append(errs, err)
		}
		p.shared = 0
	}
	if p.ownsCtx {
		if err := p.ctx.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
