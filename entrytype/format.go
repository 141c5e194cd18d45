package entrytype

import (
	"bytes"

	"github.com/stuarthighley/wad/v2/internal/wadfmt"
)

// Built-in data format ids.
const (
	FormatAny   = "any"
	FormatText  = "text"
	FormatWad   = "archive_wad"
	FormatZip   = "archive_zip"
	FormatGzip  = "archive_gzip"
	FormatPNG   = "img_png"
	FormatDoom  = "img_doom"
	FormatSound = "snd_doom"
	FormatMIDI  = "midi"
	FormatMUS   = "mus"
)

// DataFormat recognises a binary layout from an entry's raw bytes.
type DataFormat interface {
	ID() string
	Matches(data []byte) bool
}

type funcFormat struct {
	id    string
	match func([]byte) bool
}

func (f funcFormat) ID() string               { return f.id }
func (f funcFormat) Matches(data []byte) bool { return f.match(data) }

// NewFormat wraps a match function as a DataFormat.
func NewFormat(id string, match func(data []byte) bool) DataFormat {
	return funcFormat{id: id, match: match}
}

var (
	pngMagic  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	zipMagic  = []byte{'P', 'K', 3, 4}
	gzipMagic = []byte{0x1f, 0x8b}
	midiMagic = []byte("MThd")
)

func builtinFormats() []DataFormat {
	return []DataFormat{
		NewFormat(FormatAny, func([]byte) bool { return true }),
		NewFormat(FormatText, isText),
		NewFormat(FormatWad, wadfmt.Sniff),
		NewFormat(FormatZip, prefix(zipMagic)),
		NewFormat(FormatGzip, prefix(gzipMagic)),
		NewFormat(FormatPNG, prefix(pngMagic)),
		NewFormat(FormatDoom, isDoomPicture),
		NewFormat(FormatSound, isDoomSound),
		NewFormat(FormatMIDI, prefix(midiMagic)),
		NewFormat(FormatMUS, isMUS),
	}
}

func prefix(magic []byte) func([]byte) bool {
	return func(data []byte) bool {
		return bytes.HasPrefix(data, magic)
	}
}

// isText accepts data with no NUL byte before the final position.
func isText(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	return bytes.IndexByte(data[:len(data)-1], 0) == -1
}

// ByteRange is an inclusive range of byte values.
type ByteRange struct {
	Min byte `yaml:"min"`
	Max byte `yaml:"max"`
}

// BytePattern requires the byte at Pos to fall in any of Valid.
type BytePattern struct {
	Pos   int         `yaml:"pos"`
	Valid []ByteRange `yaml:"valid"`
}

// PatternFormat is a DataFormat described by a minimum size and byte patterns, as supplied by
// rule files.
type PatternFormat struct {
	Name     string        `yaml:"id"`
	MinSize  int           `yaml:"min_size"`
	Patterns []BytePattern `yaml:"patterns"`
}

func (f *PatternFormat) ID() string { return f.Name }

func (f *PatternFormat) Matches(data []byte) bool {
	if len(data) < f.MinSize {
		return false
	}
	for _, p := range f.Patterns {
		if p.Pos < 0 || p.Pos >= len(data) {
			return false
		}
		b := data[p.Pos]
		ok := false
		for _, r := range p.Valid {
			if b >= r.Min && b <= r.Max {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}
