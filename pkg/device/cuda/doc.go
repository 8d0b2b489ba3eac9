// Package cuda is a device backend on top of the CUDA driver API. It retains
// the primary context of the selected GPU and makes it current around every
// call, so callers never depend on implicit per-thread context state.
// It is registered as "cuda" and is only built with -tags cuda.
package cuda
