package wad

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"

	"github.com/stuarthighley/wad/v2/internal/wadfmt"
)

var gzipMagic = []byte{0x1f, 0x8b}

// OpenFile reads and opens the WAD at path. A gzip-compressed WAD is decompressed first.
func OpenFile(path string, opts ...Option) (*Archive, error) {
	logger.Debug().Str("file", path).Msg("Opening WAD file")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if bytes.HasPrefix(data, gzipMagic) {
		data, err = gunzip(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	a, err := Open(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	a.filename = path
	return a, nil
}

func gunzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// IsWadFile reports whether the file at path is a WAD, reading only its header.
func IsWadFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false
	}
	buf := make([]byte, wadfmt.HeaderSize)
	if _, err := io.ReadFull(f, buf); err != nil {
		return false
	}
	h, _ := wadfmt.ParseHeader(buf)
	return h.ValidMagic() && h.DirectoryFits(info.Size())
}
