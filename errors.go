package wad

import (
	"errors"

	"github.com/stuarthighley/wad/v2/entrytype"
)

var (
	// ErrInvalidHeader means the data does not start with a usable WAD header.
	ErrInvalidHeader = errors.New("invalid wad header")
	// ErrCorrupt means the directory points outside the data.
	ErrCorrupt = errors.New("corrupt wad")
	// ErrLocked is returned when writing an IWAD while IWAD saving is disabled.
	ErrLocked = errors.New("iwad saving disabled")
	// ErrNotInArchive is returned for entries that do not belong to the archive.
	ErrNotInArchive = errors.New("entry not in archive")
	// ErrInArchive is returned when adding an entry that already belongs to an archive.
	ErrInArchive = errors.New("entry already in an archive")
	// ErrTooLarge is returned when an archive no longer fits the 32-bit directory fields.
	ErrTooLarge = errors.New("archive too large")
	// ErrUnsupportedMap is returned when a map's lumps cannot be summarised.
	ErrUnsupportedMap = errors.New("unsupported map format")
	// ErrNoPalette is returned when an archive has no usable PLAYPAL.
	ErrNoPalette = errors.New("no palette")
	// ErrNotGraphic is returned when an entry cannot be decoded as a Doom graphic.
	ErrNotGraphic = errors.New("not a doom graphic")

	ErrDuplicateType = entrytype.ErrDuplicateType
)
