package wad

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/exp/constraints"

	"github.com/stuarthighley/wad/v2/internal/wadfmt"
)

// encryptedFlag marks a Jaguar-encoded lump in the first byte of its name.
const encryptedFlag = 0x80

// IsWadArchive reports whether data looks like a WAD. It checks the magic and that the
// directory lies after the header and inside data.
func IsWadArchive(data []byte) bool {
	return wadfmt.Sniff(data)
}

// fits reports whether length bytes at offset lie inside a buffer of size bytes.
func fits[T constraints.Integer](offset, length T, size int) bool {
	if offset < 0 || length < 0 {
		return false
	}
	return int64(offset)+int64(length) <= int64(size)
}

// readDirectory decodes the directory into unloaded entries, tolerating the quirks of
// historical WAD builders. Only a directory or lump outside the data is fatal.
func (a *Archive) readDirectory(h wadfmt.Header) error {
	logger.Debug().Uint32("lumps", h.NumLumps).Uint32("offset", h.DirOffset).Msg("Reading directory ...")
	size := len(a.src)
	if !fits(int64(h.DirOffset), int64(h.NumLumps)*wadfmt.DirEntrySize, size) {
		return fmt.Errorf("%w: directory of %d lumps at offset %d is past the end of %d bytes",
			ErrCorrupt, h.NumLumps, h.DirOffset, size)
	}

	// Read directory records
	records := make([]wadfmt.DirEntry, h.NumLumps)
	reader := bytes.NewReader(a.src[h.DirOffset:])
	if err := binary.Read(reader, binary.LittleEndian, records); err != nil {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	num := len(records)
	seen := make(map[uint32]struct{}, num)
	a.entries = make([]*Entry, 0, num)
	for d, rec := range records {
		a.cfg.report(StageReadingDirectory, d, num, "")

		encrypted := rec.Name[0]&encryptedFlag != 0
		rec.Name[0] &^= encryptedFlag
		name := rec.Name.String()
		offset := int64(rec.Offset)
		length := int64(rec.Size)

		// A lump with data at offset 0 would overlap the header
		if length > 0 && offset == 0 {
			logger.Warn().Str("lump", name).Int("index", d).Msg("Lump has data at offset 0, skipping")
			continue
		}

		// Some builders emit several records for one lump
		if length > 0 {
			if _, ok := seen[rec.Offset]; ok {
				logger.Debug().Str("lump", name).Int("index", d).Int64("offset", offset).Msg("Lump is a clone, skipping")
				continue
			}
			seen[rec.Offset] = struct{}{}
		}

		// Rheingold and others put markers at garbage offsets
		if length == 0 && offset > int64(size) {
			logger.Debug().Str("lump", name).Int("index", d).Int64("offset", offset).Msg("Empty lump offset out of range, resetting")
			offset = 0
		}

		stored := length
		if encrypted && length > 0 {
			stored = encryptedSize(records, d, offset, h.DirOffset, size)
		}
		if !fits(offset, stored, size) {
			return fmt.Errorf("%w: lump %q (%d bytes at offset %d) is past the end of %d bytes",
				ErrCorrupt, name, stored, offset, size)
		}

		e := &Entry{
			name:    name,
			size:    int(length),
			stored:  int(stored),
			state:   StateUnmodified,
			archive: a,
			props:   map[string]any{PropOffset: int(offset)},
		}
		if encrypted {
			e.encrypted = true
			e.props[PropFullSize] = int(length)
		}
		a.entries = append(a.entries, e)
	}
	a.cfg.report(StageReadingDirectory, num, num, "")
	return nil
}

// encryptedSize recovers the stored size of an encrypted lump, whose directory size is the
// decoded size. The stored data runs up to the next lump with a non-zero offset, else to the
// directory or the end of the data. offset is the lump's offset after any repair.
func encryptedSize(records []wadfmt.DirEntry, d int, offset int64, dirOffset uint32, size int) int64 {
	if d < len(records)-1 {
		next := int64(dirOffset)
		for _, r := range records[d+1:] {
			if r.Offset != 0 {
				next = int64(r.Offset)
				break
			}
		}
		return next - offset
	}
	if offset > int64(dirOffset) {
		return int64(size) - offset
	}
	return int64(dirOffset) - offset
}
