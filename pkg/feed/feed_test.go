package feed

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/pion/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalLogging "github.com/pion/framering/internal/logging"
	"github.com/pion/framering/pkg/device/hostmem"
	"github.com/pion/framering/pkg/frame"
	"github.com/pion/framering/pkg/framebuf"
	"github.com/pion/framering/pkg/source"
)

func pattern(frameIndex, size int) []byte {
	b := make([]byte, size)
	for j := range b {
		b[j] = byte(frameIndex*31 + j*7 + j/251)
	}
	return b
}

func frames(count, size int) []byte {
	var all []byte
	for k := 0; k < count; k++ {
		all = append(all, pattern(k, size)...)
	}
	return all
}

func newPool(t *testing.T, f frame.Format, width, height, n int) (*hostmem.Memory, *framebuf.Pool) {
	t.Helper()
	mem := hostmem.New()
	pool, err := framebuf.NewPool(mem, f, width, height, n)
	require.NoError(t, err)
	t.Cleanup(func() {
		pool.Close()
		mem.Close()
	})
	return mem, pool
}

func TestRoundTripEveryFormat(t *testing.T) {
	const (
		width  = 48
		height = 32
		count  = 6
	)

	for _, f := range frame.Formats() {
		t.Run(f.String(), func(t *testing.T) {
			mem, pool := newPool(t, f, width, height, 4)
			size := pool.FrameSize()
			feeder := New(pool, source.NewReader(bytes.NewReader(frames(count, size))))

			k := 0
			for buf, err := range feeder.Frames() {
				require.NoError(t, err)
				want := pattern(k, size)
				for _, p := range buf.Planes() {
					got := make([]byte, p.Len())
					require.NoError(t, mem.CopyDtoH(got, p.Ptr()))
					require.Equal(t, want[p.Offset():p.Offset()+p.Len()], got, "frame %d plane %s", k, p.Name())
				}
				k++
			}
			assert.Equal(t, count, k)
		})
	}
}

func TestSlotsCycleInOrder(t *testing.T) {
	_, pool := newPool(t, frame.FormatNV12, 16, 8, 4)
	size := pool.FrameSize()
	feeder := New(pool, source.NewReader(bytes.NewReader(frames(9, size))), WithMaxFrames(100))

	var slots []int
	for buf, err := range feeder.Frames() {
		require.NoError(t, err)
		for s := 0; s < pool.Len(); s++ {
			if pool.Get(s) == buf {
				slots = append(slots, s)
			}
		}
	}
	assert.Equal(t, []int{0, 1, 2, 3, 0, 1, 2, 3, 0}, slots)
}

func TestSlotAssignmentIsModulo(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5} {
		_, pool := newPool(t, frame.FormatYUV420, 8, 8, n)
		const m = 17
		feeder := New(pool, source.NewReader(bytes.NewReader(frames(m, pool.FrameSize()))))

		for i := 0; i < m; i++ {
			buf, release, err := feeder.Read()
			require.NoError(t, err)
			assert.Same(t, pool.Get(i%n), buf, "pool size %d frame %d", n, i)
			release()
		}
		_, _, err := feeder.Read()
		assert.Equal(t, io.EOF, err)
	}
}

func TestCleanTermination(t *testing.T) {
	_, pool := newPool(t, frame.FormatARGB, 8, 8, 4)
	const k = 3
	feeder := New(pool, source.NewReader(bytes.NewReader(frames(k, pool.FrameSize()))), WithMaxFrames(10))

	n := 0
	for _, err := range feeder.Frames() {
		require.NoError(t, err)
		n++
	}
	assert.Equal(t, k, n)
	assert.Equal(t, k, feeder.Stats().Frames)
	assert.Equal(t, int64(k*pool.FrameSize()), feeder.Stats().Bytes)

	// The feeder is single pass.
	_, _, err := feeder.Read()
	assert.Equal(t, io.EOF, err)
}

func TestMaxFrames(t *testing.T) {
	_, pool := newPool(t, frame.FormatNV12, 8, 8, 2)
	feeder := New(pool, source.NewReader(bytes.NewReader(frames(10, pool.FrameSize()))), WithMaxFrames(4))

	n := 0
	for _, err := range feeder.Frames() {
		require.NoError(t, err)
		n++
	}
	assert.Equal(t, 4, n)
	assert.Equal(t, 4, feeder.Next())
}

func TestMaxFramesZeroIsUnlimited(t *testing.T) {
	_, pool := newPool(t, frame.FormatNV12, 8, 8, 2)
	feeder := New(pool, source.NewReader(bytes.NewReader(frames(5, pool.FrameSize()))), WithMaxFrames(0))

	n := 0
	for _, err := range feeder.Frames() {
		require.NoError(t, err)
		n++
	}
	assert.Equal(t, 5, n)
}

func TestIncompleteFrame(t *testing.T) {
	_, pool := newPool(t, frame.FormatNV12, 8, 8, 2)
	size := pool.FrameSize()
	data := append(frames(2, size), make([]byte, size/2)...)
	feeder := New(pool, source.NewReader(bytes.NewReader(data)))

	var n int
	var err error
	for _, err = range feeder.Frames() {
		if err != nil {
			break
		}
		n++
	}
	assert.Equal(t, 2, n)

	var incomplete *IncompleteFrameError
	require.True(t, errors.As(err, &incomplete))
	assert.Equal(t, 2, incomplete.Frame)
	assert.Equal(t, size/2, incomplete.Got)
	assert.Equal(t, size, incomplete.Want)

	_, _, again := feeder.Read()
	assert.Same(t, incomplete, again.(*IncompleteFrameError), "feeder stays failed")
}

func TestSourceErrors(t *testing.T) {
	_, pool := newPool(t, frame.FormatNV12, 8, 8, 2)
	errBroken := errors.New("broken pipe")

	calls := 0
	feeder := New(pool, source.SourceFunc(func(n int) ([]byte, error) {
		calls++
		if calls == 2 {
			return nil, errBroken
		}
		return make([]byte, n), nil
	}))

	_, _, err := feeder.Read()
	require.NoError(t, err)
	_, _, err = feeder.Read()
	assert.True(t, errors.Is(err, errBroken))

	oversized := New(pool, source.SourceFunc(func(n int) ([]byte, error) {
		return make([]byte, n+1), nil
	}))
	_, _, err = oversized.Read()
	assert.Error(t, err)
}

func TestSourceEOFWithFullFrame(t *testing.T) {
	_, pool := newPool(t, frame.FormatNV12, 8, 8, 2)
	sent := false
	feeder := New(pool, source.SourceFunc(func(n int) ([]byte, error) {
		if sent {
			return nil, io.EOF
		}
		sent = true
		return make([]byte, n), io.EOF
	}))

	_, _, err := feeder.Read()
	require.NoError(t, err)
	_, _, err = feeder.Read()
	assert.Equal(t, io.EOF, err)
}

func TestDeviceErrorAbortsSession(t *testing.T) {
	mem, pool := newPool(t, frame.FormatNV12, 8, 8, 2)
	feeder := New(pool, source.NewReader(bytes.NewReader(frames(4, pool.FrameSize()))))

	_, _, err := feeder.Read()
	require.NoError(t, err)
	require.NoError(t, mem.Close())

	_, _, err = feeder.Read()
	assert.Error(t, err)
	assert.NotEqual(t, io.EOF, err)
}

func TestReuseCheck(t *testing.T) {
	_, pool := newPool(t, frame.FormatNV12, 8, 8, 2)
	feeder := New(pool, source.NewReader(bytes.NewReader(frames(6, pool.FrameSize()))), WithReuseCheck())

	first, releaseFirst, err := feeder.Read()
	require.NoError(t, err)
	gen := first.Generation()

	_, releaseSecond, err := feeder.Read()
	require.NoError(t, err)
	releaseSecond()

	// Frame 2 maps to slot 0, still held by frame 0.
	_, _, err = feeder.Read()
	var hazard *ReuseHazardError
	require.True(t, errors.As(err, &hazard))
	assert.Equal(t, 0, hazard.Slot)
	assert.Equal(t, 2, hazard.Frame)
	assert.Equal(t, 0, hazard.Pending)
	assert.Equal(t, gen, first.Generation(), "slot was not overwritten")

	releaseFirst()
}

func TestReuseCheckWithReleasedFrames(t *testing.T) {
	_, pool := newPool(t, frame.FormatNV12, 8, 8, 2)
	feeder := New(pool, source.NewReader(bytes.NewReader(frames(6, pool.FrameSize()))), WithReuseCheck())

	stats, err := Pump(context.Background(), feeder, func(buf *framebuf.FrameBuffer) error {
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Frames)
}

func TestGenerationAdvancesOnRecycle(t *testing.T) {
	_, pool := newPool(t, frame.FormatNV12, 8, 8, 2)
	feeder := New(pool, source.NewReader(bytes.NewReader(frames(3, pool.FrameSize()))))

	buf, _, err := feeder.Read()
	require.NoError(t, err)
	gen := buf.Generation()

	_, _, err = feeder.Read()
	require.NoError(t, err)
	assert.Equal(t, gen, buf.Generation())

	_, _, err = feeder.Read()
	require.NoError(t, err)
	assert.Equal(t, gen+1, buf.Generation(), "slot 0 was recycled by frame 2")
}

func TestPumpStopsOnConsumerError(t *testing.T) {
	_, pool := newPool(t, frame.FormatNV12, 8, 8, 2)
	feeder := New(pool, source.NewReader(bytes.NewReader(frames(6, pool.FrameSize()))))
	errEncoder := errors.New("encoder failed")

	n := 0
	stats, err := Pump(context.Background(), feeder, func(buf *framebuf.FrameBuffer) error {
		n++
		if n == 3 {
			return errEncoder
		}
		return nil
	})
	assert.True(t, errors.Is(err, errEncoder))
	assert.Equal(t, 3, stats.Frames)
}

func TestPumpCancel(t *testing.T) {
	_, pool := newPool(t, frame.FormatNV12, 8, 8, 2)
	feeder := New(pool, source.NewReader(bytes.NewReader(frames(6, pool.FrameSize()))))

	ctx, cancel := context.WithCancel(context.Background())
	stats, err := Pump(ctx, feeder, func(buf *framebuf.FrameBuffer) error {
		cancel()
		return nil
	})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, stats.Frames)
}

func TestStopIterationEarly(t *testing.T) {
	_, pool := newPool(t, frame.FormatNV12, 8, 8, 2)
	feeder := New(pool, source.NewReader(bytes.NewReader(frames(6, pool.FrameSize()))), WithReuseCheck())

	for range feeder.Frames() {
		break
	}
	assert.Equal(t, 1, feeder.Next())

	// The frame yielded to the abandoned loop was released.
	n := 0
	for _, err := range feeder.Frames() {
		require.NoError(t, err)
		n++
	}
	assert.Equal(t, 5, n)
}

func BenchmarkFeedNV12(b *testing.B) {
	mem := hostmem.New()
	defer mem.Close()
	pool, err := framebuf.NewPool(mem, frame.FormatNV12, 1920, 1080, 4)
	if err != nil {
		b.Fatal(err)
	}
	defer pool.Close()

	chunk := make([]byte, pool.FrameSize())
	feeder := New(pool, source.SourceFunc(func(n int) ([]byte, error) {
		return chunk, nil
	}), WithMaxFrames(b.N))

	b.SetBytes(int64(pool.FrameSize()))
	b.ResetTimer()
	for _, err := range feeder.Frames() {
		if err != nil {
			b.Fatal(err)
		}
	}
}

func TestPumpLogsSummary(t *testing.T) {
	_, pool := newPool(t, frame.FormatNV12, 8, 8, 2)
	var out bytes.Buffer
	log := internalLogging.NewWriterLogger("test", logging.LogLevelDebug, &out)

	feeder := New(pool, source.NewReader(bytes.NewReader(frames(3, pool.FrameSize()))), WithLogger(log))
	_, err := Pump(context.Background(), feeder, func(*framebuf.FrameBuffer) error { return nil })
	require.NoError(t, err)

	assert.Contains(t, out.String(), "end of stream after 3 frames")
	assert.Contains(t, out.String(), "fed 3 frames")
}
