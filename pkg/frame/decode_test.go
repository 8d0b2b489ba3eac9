package frame

import (
	"errors"
	"image"
	"image/color"
	"reflect"
	"testing"
)

func TestDecodeNV12(t *testing.T) {
	const (
		width  = 2
		height = 2
	)
	input := []byte{
		// Y
		0x01, 0x02,
		0x03, 0x04,
		// Cb    Cr
		0x82, 0x84,
	}
	expected := &image.YCbCr{
		Y:              []byte{0x01, 0x02, 0x03, 0x04},
		YStride:        width,
		Cb:             []byte{0x82},
		Cr:             []byte{0x84},
		CStride:        width / 2,
		SubsampleRatio: image.YCbCrSubsampleRatio420,
		Rect:           image.Rect(0, 0, width, height),
	}

	decoder, err := NewDecoder(FormatNV12)
	if err != nil {
		t.Fatal(err)
	}
	img, _, err := decoder.Decode(input, width, height)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(expected, img) {
		t.Errorf("Wrong decode result,\nexpected:\n%+v\ngot:\n%+v", expected, img)
	}
}

func TestDecodeYUV420(t *testing.T) {
	const (
		width  = 4
		height = 2
	)
	input := make([]byte, width*height*3/2)
	for i := range input {
		input[i] = byte(i)
	}

	img, _, err := decodeYUV420(input, width, height)
	if err != nil {
		t.Fatal(err)
	}
	ycbcr := img.(*image.YCbCr)
	if !reflect.DeepEqual(ycbcr.Cb, []byte{8, 9}) || !reflect.DeepEqual(ycbcr.Cr, []byte{10, 11}) {
		t.Errorf("Wrong chroma planes, got Cb=%v Cr=%v", ycbcr.Cb, ycbcr.Cr)
	}
}

func TestDecodeARGB(t *testing.T) {
	input := []byte{
		// B     G     R     A
		0x10, 0x20, 0x30, 0xff,
		0x11, 0x21, 0x31, 0x80,
		0x12, 0x22, 0x32, 0x40,
		0x13, 0x23, 0x33, 0x00,
	}
	snapshot := append([]byte(nil), input...)

	img, _, err := decodeARGB(input, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if c := img.At(1, 0); c != (color.RGBA{R: 0x31, G: 0x21, B: 0x11, A: 0x80}) {
		t.Errorf("Wrong pixel at 1,0: %+v", c)
	}
	if !reflect.DeepEqual(input, snapshot) {
		t.Error("decodeARGB must not modify its input")
	}
}

func TestDecodeABGR(t *testing.T) {
	input := []byte{
		0x30, 0x20, 0x10, 0xff,
		0x31, 0x21, 0x11, 0x80,
		0x32, 0x22, 0x12, 0x40,
		0x33, 0x23, 0x13, 0x00,
	}
	img, _, err := decodeABGR(input, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if c := img.At(0, 1); c != (color.RGBA{R: 0x32, G: 0x22, B: 0x12, A: 0x40}) {
		t.Errorf("Wrong pixel at 0,1: %+v", c)
	}
}

func TestDecodeLuma16(t *testing.T) {
	const (
		width  = 2
		height = 2
	)
	for _, f := range []Format{FormatP010, FormatYUV444P16} {
		size, err := FrameSize(f, width, height)
		if err != nil {
			t.Fatal(err)
		}
		input := make([]byte, size)
		// Y(1,1) = 0xffc0, the P010 representation of a full scale 10-bit sample.
		input[6], input[7] = 0xc0, 0xff

		decoder, err := NewDecoder(f)
		if err != nil {
			t.Fatal(err)
		}
		img, _, err := decoder.Decode(input, width, height)
		if err != nil {
			t.Fatal(err)
		}
		if c := img.At(1, 1); c != (color.Gray16{Y: 0xffc0}) {
			t.Errorf("%s: wrong luma at 1,1: %+v", f, c)
		}
	}
}

func TestDecodeShortFrame(t *testing.T) {
	for _, f := range Formats() {
		decoder, err := NewDecoder(f)
		if err != nil {
			t.Fatal(err)
		}
		if _, _, err := decoder.Decode([]byte{0x00}, 4, 4); err == nil {
			t.Errorf("%s: expected to get a frame length mismatch", f)
		}
	}

	_, err := NewDecoder(numFormats)
	var unsupported *UnsupportedFormatError
	if !errors.As(err, &unsupported) {
		t.Errorf("expected UnsupportedFormatError, got %v", err)
	}
}

func BenchmarkDecodeNV12(b *testing.B) {
	input := make([]byte, 1920*1080*3/2)
	for i := 0; i < b.N; i++ {
		if _, _, err := decodeNV12(input, 1920, 1080); err != nil {
			b.Fatal(err)
		}
	}
}
