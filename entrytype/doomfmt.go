package entrytype

import (
	"bytes"
	"encoding/binary"

	"github.com/stuarthighley/wad/v2/internal/wadfmt"
)

// Sound lumps are stored in the DMX format: a short header followed by raw 8-bit unsigned
// PCM samples.
type binSoundHeader struct {
	Format     uint16
	SampleRate uint16
	Bytes      uint32
}

// Music formats
type binMusicHeader struct {
	ID              [4]byte // identifier "MUS" 0x1A
	ScoreLen        uint16  // score length in bytes
	ScoreStart      uint16  // the absolute file position of the score
	PrimaryCount    uint16  // count of primary channels
	SecondaryCount  uint16  // count of secondary channels
	InstrumentCount uint16
	Unused          [2]byte
}

const (
	maxPictureDim    = 4096
	maxPictureOffset = 2048
)

var musMagic = [4]byte{'M', 'U', 'S', 0x1a}

// isDoomPicture checks the patch header and that every column offset points inside the lump.
func isDoomPicture(data []byte) bool {
	var header wadfmt.PatchHeader
	reader := bytes.NewReader(data)
	if err := binary.Read(reader, binary.LittleEndian, &header); err != nil {
		return false
	}
	if header.Width <= 0 || header.Height <= 0 || header.Width > maxPictureDim || header.Height > maxPictureDim {
		return false
	}
	if abs(header.LeftOffset) > maxPictureOffset || abs(header.TopOffset) > maxPictureOffset {
		return false
	}

	// Read column offsets
	first := binary.Size(header) + int(header.Width)*4
	if first > len(data) {
		return false
	}
	offsets := make([]int32, header.Width)
	if err := binary.Read(reader, binary.LittleEndian, offsets); err != nil {
		return false
	}
	for _, offset := range offsets {
		if int(offset) < first || int(offset) >= len(data) {
			return false
		}
	}
	return true
}

// isDoomSound accepts a DMX header with format 3 whose sample count fits the lump.
func isDoomSound(data []byte) bool {
	var header binSoundHeader
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &header); err != nil {
		return false
	}
	if header.Format != 3 {
		return false
	}
	return int64(header.Bytes) <= int64(len(data)-binary.Size(header))
}

// isMUS accepts a MUS header whose score lies inside the lump.
func isMUS(data []byte) bool {
	var header binMusicHeader
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &header); err != nil {
		return false
	}
	if header.ID != musMagic {
		return false
	}
	if int(header.ScoreStart) < binary.Size(header) {
		return false
	}
	return int(header.ScoreStart)+int(header.ScoreLen) <= len(data)
}

func abs(n int16) int {
	if n < 0 {
		return -int(n)
	}
	return int(n)
}
