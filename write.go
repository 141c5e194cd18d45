package wad

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/stuarthighley/wad/v2/internal/wadfmt"
)

// Write serialises the archive: header, entry data in order from offset 12, then the
// directory. Encrypted entries are written decoded. On success the archive is re-based on the
// returned image so later lazy loads read from it; the image must not be modified.
func (a *Archive) Write() ([]byte, error) {
	if !a.IsWritable() {
		return nil, fmt.Errorf("%w: %s", ErrLocked, a.describe())
	}
	logger.Debug().Int("entries", len(a.entries)).Msg("Writing WAD ...")

	// Lay out entry data
	datas := make([][]byte, len(a.entries))
	offsets := make([]int, len(a.entries))
	offset := int64(wadfmt.HeaderSize)
	for i, e := range a.entries {
		data, err := e.Data()
		if err != nil {
			return nil, fmt.Errorf("lump %q: %w", e.name, err)
		}
		datas[i] = data
		offsets[i] = int(offset)
		offset += int64(len(data))
	}
	dirOffset := offset
	total := dirOffset + int64(len(a.entries))*wadfmt.DirEntrySize
	if total > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, total)
	}

	// Write header
	magic := wadfmt.MagicPWAD
	if a.iwad {
		magic = wadfmt.MagicIWAD
	}
	var buf bytes.Buffer
	buf.Grow(int(total))
	header := wadfmt.Header{Magic: magic, NumLumps: uint32(len(a.entries)), DirOffset: uint32(dirOffset)}
	if err := binary.Write(&buf, binary.LittleEndian, header); err != nil {
		return nil, err
	}

	// Write data
	for _, data := range datas {
		buf.Write(data)
	}

	// Write directory
	for i, e := range a.entries {
		rec := wadfmt.DirEntry{
			Offset: uint32(offsets[i]),
			Size:   uint32(len(datas[i])),
			Name:   wadfmt.MakeString8(e.name),
		}
		if err := binary.Write(&buf, binary.LittleEndian, rec); err != nil {
			return nil, err
		}
	}

	out := buf.Bytes()
	a.rebase(out, offsets, datas)
	return out, nil
}

// rebase points every entry at its data in a freshly written image.
func (a *Archive) rebase(image []byte, offsets []int, datas [][]byte) {
	a.src = image
	for i, e := range a.entries {
		e.SetProp(PropOffset, offsets[i])
		e.DeleteProp(PropFullSize)
		e.encrypted = false
		e.size = len(datas[i])
		e.stored = len(datas[i])
		e.state = StateUnmodified
		if !a.cfg.keepData {
			e.Unload()
		}
	}
	a.modified = false
}

// WriteTo writes the serialised archive to w.
func (a *Archive) WriteTo(w io.Writer) (int64, error) {
	data, err := a.Write()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// Save writes the archive to path through a temporary file in the same directory.
func (a *Archive) Save(path string) error {
	data, err := a.Write()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "wad-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	a.filename = path
	return nil
}

func (a *Archive) describe() string {
	if a.filename != "" {
		return a.filename
	}
	return "archive"
}
