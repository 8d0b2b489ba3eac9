// Package hostmem is a device backend that keeps "device" allocations in host
// memory. Addresses are synthetic but behave like device pointers: they are
// aligned, never reused while live, and may point anywhere inside an allocation.
// It is registered as "host".
package hostmem

import (
	"fmt"
	"sort"
	"sync"

	"github.com/pion/framering/pkg/device"
)

const (
	// baseAddress keeps synthetic pointers away from zero so that a zero Ptr
	// is never a valid allocation.
	baseAddress = 0x10000
	// alignment matches the allocation granularity of CUDA's cuMemAlloc.
	alignment = 256
)

func init() {
	device.Register("host", func(int) (device.Context, error) {
		return New(), nil
	})
}

type allocation struct {
	base device.Ptr
	buf  []byte
}

func (a *allocation) end() device.Ptr {
	return a.base.Add(len(a.buf))
}

// Memory is a host backed device.Context.
type Memory struct {
	mu     sync.Mutex
	allocs []*allocation // sorted by base
	next   device.Ptr
	limit  int
	inUse  int
	closed bool
}

// Option configures Memory.
type Option func(*Memory)

// WithLimit caps the total number of live bytes. Allocations beyond the cap fail
// with *device.OutOfMemoryError, which makes allocation failures testable.
func WithLimit(bytes int) Option {
	return func(m *Memory) {
		m.limit = bytes
	}
}

// New creates an empty host memory device.
func New(opts ...Option) *Memory {
	m := &Memory{next: baseAddress}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Name implements device.Context.
func (m *Memory) Name() string {
	return "host"
}

// Alloc implements device.Context.
func (m *Memory) Alloc(size int) (device.Ptr, error) {
	if size <= 0 {
		return 0, fmt.Errorf("host: invalid allocation size %d", size)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, device.ErrClosed
	}
	if m.limit > 0 && m.inUse+size > m.limit {
		return 0, &device.OutOfMemoryError{Device: m.Name(), Size: size}
	}

	a := &allocation{base: m.next, buf: make([]byte, size)}
	m.next = a.base.Add((size + alignment - 1) / alignment * alignment)
	m.allocs = append(m.allocs, a)
	m.inUse += size
	return a.base, nil
}

// Free implements device.Context.
func (m *Memory) Free(p device.Ptr) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return device.ErrClosed
	}

	i := m.search(p)
	if i < 0 || m.allocs[i].base != p {
		return fmt.Errorf("host: free %#x: %w", uintptr(p), device.ErrInvalidPtr)
	}
	m.inUse -= len(m.allocs[i].buf)
	m.allocs = append(m.allocs[:i], m.allocs[i+1:]...)
	return nil
}

// CopyHtoD implements device.Context.
func (m *Memory) CopyHtoD(dst device.Ptr, src []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	region, err := m.resolve(dst, len(src))
	if err != nil {
		return err
	}
	copy(region, src)
	return nil
}

// CopyDtoH implements device.Context.
func (m *Memory) CopyDtoH(dst []byte, src device.Ptr) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	region, err := m.resolve(src, len(dst))
	if err != nil {
		return err
	}
	copy(dst, region)
	return nil
}

// Close implements device.Context. All live allocations are dropped.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.allocs = nil
	m.inUse = 0
	return nil
}

// Live returns the number of allocations that have not been freed.
func (m *Memory) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.allocs)
}

// InUse returns the number of bytes held by live allocations.
func (m *Memory) InUse() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inUse
}

// search returns the index of the allocation containing p, or -1.
func (m *Memory) search(p device.Ptr) int {
	i := sort.Search(len(m.allocs), func(i int) bool {
		return m.allocs[i].end() > p
	})
	if i == len(m.allocs) || m.allocs[i].base > p {
		return -1
	}
	return i
}

func (m *Memory) resolve(p device.Ptr, n int) ([]byte, error) {
	if m.closed {
		return nil, device.ErrClosed
	}

	i := m.search(p)
	if i < 0 {
		return nil, fmt.Errorf("host: %#x: %w", uintptr(p), device.ErrInvalidPtr)
	}
	a := m.allocs[i]
	offset := int(p - a.base)
	if offset+n > len(a.buf) {
		return nil, fmt.Errorf("host: %d bytes at %#x+%d: %w", n, uintptr(a.base), offset, device.ErrOutOfBounds)
	}
	return a.buf[offset : offset+n], nil
}
