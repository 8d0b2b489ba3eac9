//go:build cuda

package cuda

// #cgo LDFLAGS: -lcuda
// #include <cuda.h>
// #include <stdlib.h>
import "C"

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/pion/framering/pkg/device"
)

var (
	initOnce sync.Once
	initErr  error
)

func init() {
	device.Register("cuda", func(ordinal int) (device.Context, error) {
		return Open(ordinal)
	})
}

// Context is a retained primary context of one GPU.
type Context struct {
	mu      sync.Mutex
	dev     C.CUdevice
	ctx     C.CUcontext
	ordinal int
	closed  bool
}

// Open retains the primary context of GPU ordinal.
func Open(ordinal int) (*Context, error) {
	initOnce.Do(func() {
		initErr = check("cuInit", C.cuInit(0))
	})
	if initErr != nil {
		return nil, initErr
	}

	c := &Context{ordinal: ordinal}
	if err := check("cuDeviceGet", C.cuDeviceGet(&c.dev, C.int(ordinal))); err != nil {
		return nil, err
	}
	if err := check("cuDevicePrimaryCtxRetain", C.cuDevicePrimaryCtxRetain(&c.ctx, c.dev)); err != nil {
		return nil, err
	}
	return c, nil
}

// Name implements device.Context.
func (c *Context) Name() string {
	return fmt.Sprintf("cuda:%d", c.ordinal)
}

// Alloc implements device.Context.
func (c *Context) Alloc(size int) (device.Ptr, error) {
	var p C.CUdeviceptr
	err := c.do(func() C.CUresult {
		return C.cuMemAlloc_v2(&p, C.size_t(size))
	})
	if err != nil {
		var cerr *cudaError
		if errors.As(err, &cerr) && cerr.code == C.CUDA_ERROR_OUT_OF_MEMORY {
			return 0, &device.OutOfMemoryError{Device: c.Name(), Size: size, Err: err}
		}
		return 0, err
	}
	return device.Ptr(p), nil
}

// Free implements device.Context.
func (c *Context) Free(p device.Ptr) error {
	return c.do(func() C.CUresult {
		return C.cuMemFree_v2(C.CUdeviceptr(p))
	})
}

// CopyHtoD implements device.Context.
func (c *Context) CopyHtoD(dst device.Ptr, src []byte) error {
	if len(src) == 0 {
		return nil
	}
	return c.do(func() C.CUresult {
		return C.cuMemcpyHtoD_v2(C.CUdeviceptr(dst), unsafe.Pointer(&src[0]), C.size_t(len(src)))
	})
}

// CopyDtoH implements device.Context.
func (c *Context) CopyDtoH(dst []byte, src device.Ptr) error {
	if len(dst) == 0 {
		return nil
	}
	return c.do(func() C.CUresult {
		return C.cuMemcpyDtoH_v2(unsafe.Pointer(&dst[0]), C.CUdeviceptr(src), C.size_t(len(dst)))
	})
}

// Close releases the primary context.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return check("cuDevicePrimaryCtxRelease", C.cuDevicePrimaryCtxRelease_v2(c.dev))
}

// do runs fn with the context current on a locked OS thread.
func (c *Context) do(fn func() C.CUresult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return device.ErrClosed
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := check("cuCtxPushCurrent", C.cuCtxPushCurrent_v2(c.ctx)); err != nil {
		return err
	}
	defer C.cuCtxPopCurrent_v2(nil)

	return check("cuda", fn())
}

type cudaError struct {
	op   string
	code C.CUresult
}

func (e *cudaError) Error() string {
	var name, desc *C.char
	C.cuGetErrorName(e.code, &name)
	C.cuGetErrorString(e.code, &desc)
	if name == nil || desc == nil {
		return fmt.Sprintf("%s: CUresult(%d)", e.op, int(e.code))
	}
	return fmt.Sprintf("%s: %s: %s", e.op, C.GoString(name), C.GoString(desc))
}

func check(op string, r C.CUresult) error {
	if r == C.CUDA_SUCCESS {
		return nil
	}
	return &cudaError{op: op, code: r}
}
