package frame

import (
	"encoding/binary"
	"image"
	"image/color"
)

// luma16Decoder extracts the 16-bit Y plane of P010 and YUV444_16BIT frames.
// Both keep Y first with the same geometry.
func luma16Decoder(f Format) decoderFunc {
	return func(frame []byte, width, height int) (image.Image, func(), error) {
		layout, err := checkLen(frame, f, width, height)
		if err != nil {
			return nil, nopRelease, err
		}
		return decodeLuma16(planeBytes(frame, layout.Planes[0]), width, height), nopRelease, nil
	}
}

func decodeLuma16(y []byte, width, height int) image.Image {
	img := image.NewGray16(image.Rect(0, 0, width, height))
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			idx := 2 * (col + row*width)
			img.SetGray16(col, row, color.Gray16{Y: binary.LittleEndian.Uint16(y[idx : idx+2])})
		}
	}
	return img
}
