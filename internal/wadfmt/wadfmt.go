// Package wadfmt holds the fixed binary layout of a WAD container: the 12-byte header and the
// 16-byte directory records. The layout is documented in The Unofficial DOOM Specs:
// http://www.gamers.org/dhs/helpdocs/dmsp1666.html
package wadfmt

import (
	"bytes"
	"encoding/binary"
)

const (
	HeaderSize   = 12
	DirEntrySize = 16
	NameSize     = 8
)

var (
	MagicIWAD = [4]byte{'I', 'W', 'A', 'D'}
	MagicPWAD = [4]byte{'P', 'W', 'A', 'D'}
)

// Header is the on-disk WAD header.
type Header struct {
	Magic     [4]byte
	NumLumps  uint32
	DirOffset uint32
}

// IsIWAD reports whether the header carries the IWAD magic.
func (h Header) IsIWAD() bool {
	return h.Magic == MagicIWAD
}

// ValidMagic reports whether the header carries either WAD magic.
func (h Header) ValidMagic() bool {
	return h.Magic == MagicIWAD || h.Magic == MagicPWAD
}

// DirEntry is one on-disk directory record.
type DirEntry struct {
	Offset uint32
	Size   uint32
	Name   String8
}

// WAD eight-character string type. Null-terminated for short strings.
type String8 [NameSize]byte

// String converts String8 to string
func (s String8) String() string {
	i := bytes.IndexByte(s[:], 0)
	if i == -1 {
		i = len(s)
	}
	return string(s[0:i])
}

// MakeString8 truncates name to eight bytes and zero pads the remainder.
func MakeString8(name string) String8 {
	var s String8
	copy(s[:], name)
	return s
}

// ParseHeader decodes the header at the start of data. It only checks that enough bytes are
// present; magic and directory bounds are left to the caller.
func ParseHeader(data []byte) (Header, bool) {
	var h Header
	if len(data) < HeaderSize {
		return h, false
	}
	copy(h.Magic[:], data[0:4])
	h.NumLumps = binary.LittleEndian.Uint32(data[4:8])
	h.DirOffset = binary.LittleEndian.Uint32(data[8:12])
	return h, true
}

// DirectoryFits reports whether the directory described by h lies after the header and inside
// a buffer of the given size.
func (h Header) DirectoryFits(size int64) bool {
	if h.DirOffset < HeaderSize {
		return false
	}
	end := int64(h.DirOffset) + int64(h.NumLumps)*DirEntrySize
	return end <= size
}

// Sniff reports whether data looks like a WAD container without decoding the directory.
func Sniff(data []byte) bool {
	h, ok := ParseHeader(data)
	if !ok || !h.ValidMagic() {
		return false
	}
	return h.DirectoryFits(int64(len(data)))
}

// PatchHeader starts a Doom picture ("patch") lump. Width int32 column offsets follow it, each
// pointing at a run of posts terminated by PostEnd.
type PatchHeader struct {
	Width, Height, LeftOffset, TopOffset int16
}

// PostEnd is the top delta that ends a picture column.
const PostEnd = 0xff

// PaletteSize is the size of one 256-colour palette in PLAYPAL.
const PaletteSize = 256 * 3
