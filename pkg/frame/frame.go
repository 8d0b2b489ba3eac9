package frame

import "image"

// Decoder turns a host copy of a raw frame into an image.
type Decoder interface {
	Decode(frame []byte, width, height int) (image.Image, func(), error)
}

// decoderFunc is a proxy type for Decoder
type decoderFunc func(frame []byte, width, height int) (image.Image, func(), error)

func (f decoderFunc) Decode(frame []byte, width, height int) (image.Image, func(), error) {
	return f(frame, width, height)
}
