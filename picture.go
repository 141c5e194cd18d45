package wad

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"

	"github.com/stuarthighley/wad/v2/entrytype"
	"github.com/stuarthighley/wad/v2/internal/wadfmt"
)

// Flat dimensions by lump size
var flatSizes = map[int]image.Point{
	4096:  {64, 64},
	4160:  {64, 65},
	8192:  {64, 128},
	16384: {128, 128},
	65536: {256, 256},
}

// Picture is a decoded Doom graphic. Offsets are zero for flats.
type Picture struct {
	*image.NRGBA
	LeftOffset, TopOffset int
}

// DecodePalette reads the first palette of a PLAYPAL lump.
func DecodePalette(data []byte) (color.Palette, error) {
	if len(data) < wadfmt.PaletteSize {
		return nil, fmt.Errorf("%w: PLAYPAL is %d bytes", ErrNoPalette, len(data))
	}
	pal := make(color.Palette, 256)
	for i := range pal {
		pal[i] = color.NRGBA{data[i*3], data[i*3+1], data[i*3+2], 0xff}
	}
	return pal, nil
}

// Palette returns the first palette of the archive's PLAYPAL.
func (a *Archive) Palette() (color.Palette, error) {
	e := a.FindFirst(SearchOptions{Name: "PLAYPAL"})
	if e == nil {
		return nil, fmt.Errorf("%w: %s has no PLAYPAL", ErrNoPalette, a.describe())
	}
	data, err := e.Data()
	if err != nil {
		return nil, err
	}
	return DecodePalette(data)
}

// DecodePicture expands the column posts of a patch lump. Pixels no post covers stay
// transparent.
func DecodePicture(data []byte, pal color.Palette) (*Picture, error) {
	if len(pal) < 256 {
		return nil, fmt.Errorf("%w: palette has %d colours", ErrNoPalette, len(pal))
	}

	// Read patch lump header
	reader := bytes.NewReader(data)
	var header wadfmt.PatchHeader
	if err := binary.Read(reader, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotGraphic, err)
	}
	if header.Width <= 0 || header.Height <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrNotGraphic, header.Width, header.Height)
	}

	// Read column offsets
	offsets := make([]int32, header.Width)
	if err := binary.Read(reader, binary.LittleEndian, offsets); err != nil {
		return nil, fmt.Errorf("%w: column offsets: %w", ErrNotGraphic, err)
	}

	height := int(header.Height)
	img := image.NewNRGBA(image.Rect(0, 0, int(header.Width), height))

	// For each column offset, expand out the posts into the column
	for x, offset := range offsets {
		pos := int(offset)
		for {
			if pos < 0 || pos >= len(data) {
				return nil, fmt.Errorf("%w: column %d runs past the lump", ErrNotGraphic, x)
			}
			topDelta := int(data[pos])
			if topDelta == wadfmt.PostEnd {
				break
			}
			if pos+2 >= len(data) {
				return nil, fmt.Errorf("%w: column %d runs past the lump", ErrNotGraphic, x)
			}
			n := int(data[pos+1])
			pos += 3 // Top delta, length, padding
			if pos+n > len(data) {
				return nil, fmt.Errorf("%w: column %d runs past the lump", ErrNotGraphic, x)
			}
			for i, b := range data[pos : pos+n] {
				if y := topDelta + i; y < height {
					img.Set(x, y, pal[b])
				}
			}
			pos += n + 1 // Padding
		}
	}

	return &Picture{
		NRGBA:      img,
		LeftOffset: int(header.LeftOffset),
		TopOffset:  int(header.TopOffset),
	}, nil
}

// DecodeFlat maps the raw palette indices of a flat onto an image. The size of the lump
// decides its dimensions.
func DecodeFlat(data []byte, pal color.Palette) (*Picture, error) {
	if len(pal) < 256 {
		return nil, fmt.Errorf("%w: palette has %d colours", ErrNoPalette, len(pal))
	}
	size, ok := flatSizes[len(data)]
	if !ok {
		return nil, fmt.Errorf("%w: no flat is %d bytes", ErrNotGraphic, len(data))
	}
	img := image.NewNRGBA(image.Rect(0, 0, size.X, size.Y))
	for i, b := range data {
		img.Set(i%size.X, i/size.X, pal[b])
	}
	return &Picture{NRGBA: img}, nil
}

// Picture decodes a flat, patch or sprite entry with the archive's palette.
func (a *Archive) Picture(e *Entry) (*Picture, error) {
	if e.archive != a {
		return nil, ErrNotInArchive
	}
	pal, err := a.Palette()
	if err != nil {
		return nil, err
	}
	data, err := e.Data()
	if err != nil {
		return nil, err
	}
	switch {
	case e.TypeID() == "flat":
		return DecodeFlat(data, pal)
	case e.Type().FormatID() == entrytype.FormatDoom:
		return DecodePicture(data, pal)
	}
	return nil, fmt.Errorf("%w: %s is %s", ErrNotGraphic, e.Name(), e.TypeID())
}
