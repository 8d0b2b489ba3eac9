package source

import (
	"bufio"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

const fileReadBufferSize = 1 << 20

// File is a Source reading frames back to back from a raw file. Files with a
// ".zst" suffix are decompressed on the fly.
type File struct {
	Source
	f  *os.File
	zr *zstd.Decoder
}

// Open opens path for reading frames.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	file := &File{f: f}
	if strings.HasSuffix(path, ".zst") {
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		file.zr = zr
		file.Source = NewReader(zr)
	} else {
		file.Source = NewReader(bufio.NewReaderSize(f, fileReadBufferSize))
	}
	return file, nil
}

// Close closes the underlying file.
func (f *File) Close() error {
	if f.zr != nil {
		f.zr.Close()
		f.zr = nil
	}
	return f.f.Close()
}
