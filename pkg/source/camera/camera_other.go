//go:build !linux

package camera

import (
	"errors"

	"github.com/pion/framering/pkg/frame"
)

var errUnsupportedPlatform = errors.New("camera: V4L2 capture is only available on linux")

// Camera is unavailable on this platform.
type Camera struct{}

// Open always fails on this platform.
func Open(path string, f frame.Format, width, height int) (*Camera, error) {
	return nil, errUnsupportedPlatform
}

// Pull implements source.Source.
func (c *Camera) Pull(n int) ([]byte, error) {
	return nil, errUnsupportedPlatform
}

// Close implements io.Closer.
func (c *Camera) Close() error {
	return nil
}
