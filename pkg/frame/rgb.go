package frame

import (
	"image"
)

// decodeARGB converts B,G,R,A byte order into image.RGBA. The input is left untouched
// since it usually aliases a reused staging buffer.
func decodeARGB(frame []byte, width, height int) (image.Image, func(), error) {
	layout, err := checkLen(frame, FormatARGB, width, height)
	if err != nil {
		return nil, nopRelease, err
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	src := frame[:layout.Size]
	for i := 0; i < len(src); i += 4 {
		img.Pix[i] = src[i+2]
		img.Pix[i+1] = src[i+1]
		img.Pix[i+2] = src[i]
		img.Pix[i+3] = src[i+3]
	}
	return img, nopRelease, nil
}

// decodeABGR wraps R,G,B,A byte order, which is already image.RGBA's layout.
func decodeABGR(frame []byte, width, height int) (image.Image, func(), error) {
	layout, err := checkLen(frame, FormatABGR, width, height)
	if err != nil {
		return nil, nopRelease, err
	}

	return &image.RGBA{
		Pix:    frame[:layout.Size:layout.Size],
		Stride: 4 * width,
		Rect:   image.Rect(0, 0, width, height),
	}, nopRelease, nil
}
