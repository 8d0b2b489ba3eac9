//go:build linux

package camera

import (
	"errors"
	"fmt"
	"sync"

	"github.com/blackjack/webcam"

	"github.com/pion/framering/internal/logging"
	"github.com/pion/framering/pkg/frame"
)

const (
	maxEmptyFrameCount = 5
	waitSeconds        = 5
)

var (
	errReadTimeout = errors.New("camera: read timeout")
	errEmptyFrame  = errors.New("camera: empty frame")
	errClosed      = errors.New("camera: closed")
)

var logger = logging.NewLogger("framering/source/camera")

// Camera streams frames from a V4L2 device.
type Camera struct {
	path   string
	cam    *webcam.Webcam
	buf    []byte
	mutex  sync.Mutex
	closed bool
}

// Open configures the device at path for format f at width x height and starts
// streaming. The device must accept the exact resolution.
func Open(path string, f frame.Format, width, height int) (*Camera, error) {
	pf, ok := PixelFormat(f)
	if !ok {
		return nil, &frame.UnsupportedFormatError{Format: f}
	}
	if _, err := frame.Describe(f, width, height); err != nil {
		return nil, err
	}

	cam, err := webcam.Open(path)
	if err != nil {
		return nil, err
	}

	got, w, h, err := cam.SetImageFormat(webcam.PixelFormat(pf), uint32(width), uint32(height))
	if err != nil {
		cam.Close()
		return nil, err
	}
	if uint32(got) != pf || int(w) != width || int(h) != height {
		cam.Close()
		return nil, fmt.Errorf("camera: %s does not support %s %dx%d, it offers %dx%d", path, f, width, height, w, h)
	}

	if err := cam.StartStreaming(); err != nil {
		cam.Close()
		return nil, err
	}
	logger.Infof("%s: streaming %s %dx%d", path, f, width, height)

	return &Camera{path: path, cam: cam}, nil
}

// Pull implements source.Source. Frames are copied out of the mmap'd driver
// buffers so they stay valid after the driver requeues them.
func (c *Camera) Pull(n int) ([]byte, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closed {
		return nil, errClosed
	}

	for i := 0; i < maxEmptyFrameCount; i++ {
		err := c.cam.WaitForFrame(waitSeconds)
		switch err.(type) {
		case nil:
		case *webcam.Timeout:
			return nil, errReadTimeout
		default:
			return nil, err
		}

		b, err := c.cam.ReadFrame()
		if err != nil {
			return nil, err
		}
		if len(b) == 0 {
			continue
		}

		if cap(c.buf) < len(b) {
			c.buf = make([]byte, len(b))
		}
		copied := copy(c.buf[:len(b)], b)
		if copied != n {
			logger.Warnf("%s: driver delivered %d bytes, expected %d", c.path, copied, n)
		}
		return c.buf[:copied], nil
	}
	return nil, errEmptyFrame
}

// Close stops streaming and releases the device.
func (c *Camera) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if err := c.cam.StopStreaming(); err != nil {
		logger.Warnf("%s: stop streaming: %v", c.path, err)
	}
	return c.cam.Close()
}
