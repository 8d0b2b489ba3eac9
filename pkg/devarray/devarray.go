// Package devarray describes strided views into device memory in the shape of
// the CUDA array interface (version 3), which GPU tensor libraries, encoders and
// inference runtimes accept for zero-copy exchange.
package devarray

import (
	"encoding/json"
)

// Version is the array interface version emitted by this package.
const Version = 3

// Descriptor is a strided view into device memory.
type Descriptor struct {
	Shape []int
	// Strides are in bytes, one per dimension of Shape.
	Strides []int
	// Data is the device address of the first element.
	Data     uintptr
	ReadOnly bool
	// Typestr is the element type, e.g. "|u1" or "<u2".
	Typestr string
	Version int
}

// Len returns the number of bytes spanned by the view, assuming it is packed.
func (d Descriptor) Len() int {
	if len(d.Shape) == 0 {
		return 0
	}
	return d.Shape[0] * d.Strides[0]
}

type wireDescriptor struct {
	Shape   []int          `json:"shape"`
	Strides []int          `json:"strides"`
	Data    [2]interface{} `json:"data"`
	Typestr string         `json:"typestr"`
	Version int            `json:"version"`
}

// MarshalJSON emits the descriptor with the array interface key names, e.g.
// {"shape":[1080,1920,1],"strides":[1920,1,1],"data":[140000000,false],"typestr":"|u1","version":3}.
func (d Descriptor) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireDescriptor{
		Shape:   d.Shape,
		Strides: d.Strides,
		Data:    [2]interface{}{uint64(d.Data), d.ReadOnly},
		Typestr: d.Typestr,
		Version: d.Version,
	})
}
