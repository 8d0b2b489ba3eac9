package frame

import (
	"image"
)

func decodeNV12(frame []byte, width, height int) (image.Image, func(), error) {
	layout, err := checkLen(frame, FormatNV12, width, height)
	if err != nil {
		return nil, nopRelease, err
	}

	uv := planeBytes(frame, layout.Planes[1])
	cb := make([]byte, len(uv)/2)
	cr := make([]byte, len(uv)/2)
	for i := 0; i < len(cb); i++ {
		cb[i] = uv[2*i]
		cr[i] = uv[2*i+1]
	}

	return &image.YCbCr{
		Y:              planeBytes(frame, layout.Planes[0]),
		YStride:        width,
		Cb:             cb,
		Cr:             cr,
		CStride:        width / 2,
		SubsampleRatio: image.YCbCrSubsampleRatio420,
		Rect:           image.Rect(0, 0, width, height),
	}, nopRelease, nil
}

func decodeYUV420(frame []byte, width, height int) (image.Image, func(), error) {
	layout, err := checkLen(frame, FormatYUV420, width, height)
	if err != nil {
		return nil, nopRelease, err
	}

	return &image.YCbCr{
		Y:              planeBytes(frame, layout.Planes[0]),
		YStride:        width,
		Cb:             planeBytes(frame, layout.Planes[1]),
		Cr:             planeBytes(frame, layout.Planes[2]),
		CStride:        width / 2,
		SubsampleRatio: image.YCbCrSubsampleRatio420,
		Rect:           image.Rect(0, 0, width, height),
	}, nopRelease, nil
}

func decodeYUV444(frame []byte, width, height int) (image.Image, func(), error) {
	layout, err := checkLen(frame, FormatYUV444, width, height)
	if err != nil {
		return nil, nopRelease, err
	}

	return &image.YCbCr{
		Y:              planeBytes(frame, layout.Planes[0]),
		YStride:        width,
		Cb:             planeBytes(frame, layout.Planes[1]),
		Cr:             planeBytes(frame, layout.Planes[2]),
		CStride:        width,
		SubsampleRatio: image.YCbCrSubsampleRatio444,
		Rect:           image.Rect(0, 0, width, height),
	}, nopRelease, nil
}
