// Package device abstracts the accelerator a frame ring lives on. A Context is
// an explicit handle to one device: every allocation and copy goes through it,
// and closing it releases the device. Backends register themselves from init,
// so importing a backend package for its side effects makes it available to Open.
package device

// Ptr is an address in device memory.
type Ptr uintptr

// Add returns p advanced by n bytes.
func (p Ptr) Add(n int) Ptr {
	return p + Ptr(n)
}

// Context is a handle to a single device.
type Context interface {
	// Name identifies the backend and device, e.g. "host" or "cuda:0".
	Name() string
	// Alloc reserves size bytes of device memory. Failures caused by exhausted
	// memory are reported as *OutOfMemoryError.
	Alloc(size int) (Ptr, error)
	// Free releases memory returned by Alloc.
	Free(p Ptr) error
	// CopyHtoD copies src into device memory starting at dst. It returns once
	// the copy has completed.
	CopyHtoD(dst Ptr, src []byte) error
	// CopyDtoH copies len(dst) bytes starting at src into dst. It returns once
	// the copy has completed.
	CopyDtoH(dst []byte, src Ptr) error
	// Close releases the device. Memory still allocated through the context
	// becomes invalid.
	Close() error
}
