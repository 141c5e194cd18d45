// Package wad reads and writes Doom's data archives, also known as WAD files. An archive is an
// ordered list of named entries (lumps); the package recovers the structure the engines infer
// from that list: marker-delimited namespaces, map lump groups and entry types.
// The file format is documented in The Unofficial DOOM Specs:
// http://www.gamers.org/dhs/helpdocs/dmsp1666.html
package wad

import (
	"fmt"

	"github.com/stuarthighley/wad/v2/entrytype"
	"github.com/stuarthighley/wad/v2/internal/wadfmt"
)

// ContainerFormat is the container format id passed to type detection.
const ContainerFormat = "wad"

// Archive is an opened WAD. It is owned by one goroutine at a time; nothing in it is locked.
type Archive struct {
	filename   string
	src        []byte // backing image that unloaded entries are read from
	iwad       bool
	entries    []*Entry
	namespaces []Namespace
	maps       []MapDesc
	modified   bool
	cfg        config
}

// New returns an empty PWAD.
func New(opts ...Option) (*Archive, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &Archive{cfg: cfg}, nil
}

// Open parses a WAD image. The archive keeps a reference to data for lazy loading, so data
// must not be modified while the archive is in use.
func Open(data []byte, opts ...Option) (*Archive, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return open(data, cfg)
}

func open(data []byte, cfg config) (*Archive, error) {
	a, err := load(data, cfg)
	if err != nil {
		ev := logger.Debug()
		if cfg.depth == 0 {
			ev = logger.Error()
		}
		ev.Err(err).Int("depth", cfg.depth).Msg("Failed to read WAD")
		return nil, err
	}
	return a, nil
}

func load(data []byte, cfg config) (*Archive, error) {
	logger.Debug().Int("size", len(data)).Int("depth", cfg.depth).Msg("Start reading WAD")

	// Read header
	h, ok := wadfmt.ParseHeader(data)
	if !ok {
		return nil, fmt.Errorf("%w: %d bytes is too short", ErrInvalidHeader, len(data))
	}
	if !h.ValidMagic() {
		return nil, fmt.Errorf("%w: bad magic %q", ErrInvalidHeader, h.Magic[:])
	}
	a := &Archive{src: data, iwad: h.IsIWAD(), cfg: cfg}

	// Read directory
	if err := a.readDirectory(h); err != nil {
		return nil, err
	}

	// Namespaces must be known before types, flats and sprites depend on them
	a.updateNamespaces()
	a.detectTypes()
	a.detectIncludes()
	a.maps = a.detectMaps()

	logger.Debug().
		Int("entries", len(a.entries)).
		Int("namespaces", len(a.namespaces)).
		Int("maps", len(a.maps)).
		Msg("Read WAD")
	return a, nil
}

func (a *Archive) detectTypes() {
	n := len(a.entries)
	for i, e := range a.entries {
		a.cfg.report(StageDetectingTypes, i, n, e.name)
		e.typ = a.cfg.registry.Detect(a.candidate(i))
		if !a.cfg.keepData {
			e.Unload()
		}
	}
	a.cfg.report(StageDetectingTypes, n, n, "")
}

// candidate describes entry i for type matching, loading its data.
func (a *Archive) candidate(i int) entrytype.Candidate {
	e := a.entries[i]
	data, err := e.Data()
	if err != nil {
		logger.Warn().Err(err).Str("lump", e.name).Int("index", i).Msg("Could not load lump")
		data = nil
	}
	return entrytype.Candidate{
		Name:      e.name,
		Size:      e.Size(),
		Data:      data,
		Section:   a.DetectNamespace(i),
		Container: ContainerFormat,
	}
}

// Filename is the path the archive was opened from, if any.
func (a *Archive) Filename() string {
	return a.filename
}

func (a *Archive) IsIWAD() bool {
	return a.iwad
}

// SetIWAD switches the archive between IWAD and PWAD.
func (a *Archive) SetIWAD(iwad bool) {
	a.iwad = iwad
	a.modified = true
}

// IsWritable reports whether Write will accept the archive.
func (a *Archive) IsWritable() bool {
	return !(a.iwad && a.cfg.iwadLock)
}

// IsModified reports whether the archive changed since it was opened or last written.
func (a *Archive) IsModified() bool {
	return a.modified
}

func (a *Archive) Registry() *entrytype.Registry {
	return a.cfg.registry
}

func (a *Archive) NumEntries() int {
	return len(a.entries)
}

// Entry returns the entry at index i, nil when out of range.
func (a *Archive) Entry(i int) *Entry {
	if i < 0 || i >= len(a.entries) {
		return nil
	}
	return a.entries[i]
}

// Entries returns a snapshot of the entry list.
func (a *Archive) Entries() []*Entry {
	out := make([]*Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

// Index returns the position of e, -1 if e is not in the archive.
func (a *Archive) Index(e *Entry) int {
	if e == nil || e.archive != a {
		return -1
	}
	for i, x := range a.entries {
		if x == e {
			return i
		}
	}
	return -1
}

// Maps returns the map descriptors found by the last map detection.
func (a *Archive) Maps() []MapDesc {
	out := make([]MapDesc, len(a.maps))
	copy(out, a.maps)
	return out
}

func (a *Archive) slice(offset, n int) ([]byte, error) {
	if offset < 0 || n < 0 || offset+n > len(a.src) {
		return nil, fmt.Errorf("%w: %d bytes at offset %d outside %d byte image", ErrCorrupt, n, offset, len(a.src))
	}
	return a.src[offset : offset+n], nil
}
