// Package sink holds consumers for frames staged in device memory. Sinks read
// a frame back to the host, so they stand in for the hardware encoder when
// testing a pipeline or inspecting what was fed.
package sink

import (
	"github.com/pion/framering/internal/logging"
	"github.com/pion/framering/pkg/framebuf"
)

var logger = logging.NewLogger("framering/sink")

// Sink consumes staged frames. Consume must be done with buf when it returns.
type Sink interface {
	Consume(buf *framebuf.FrameBuffer) error
	Close() error
}

type discard struct{}

// Discard is a sink that drops every frame.
var Discard Sink = discard{}

func (discard) Consume(*framebuf.FrameBuffer) error { return nil }
func (discard) Close() error                        { return nil }
