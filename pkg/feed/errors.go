package feed

import "fmt"

// IncompleteFrameError tells the caller that the source returned a truncated
// frame. Unlike an empty read, which ends the stream cleanly, it means data was
// lost mid-stream.
type IncompleteFrameError struct {
	Frame int
	Got   int
	Want  int
}

func (e *IncompleteFrameError) Error() string {
	return fmt.Sprintf("feed: frame %d is incomplete: got %d of %d bytes", e.Frame, e.Got, e.Want)
}

// ReuseHazardError is returned when reuse checking is enabled and the feeder
// is about to overwrite a slot whose previous frame was never released.
type ReuseHazardError struct {
	Slot int
	// Frame is the frame that was about to be loaded.
	Frame int
	// Pending is the unreleased frame still occupying the slot.
	Pending int
}

func (e *ReuseHazardError) Error() string {
	return fmt.Sprintf("feed: frame %d would overwrite slot %d while frame %d is still in use", e.Frame, e.Slot, e.Pending)
}
