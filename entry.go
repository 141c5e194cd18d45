package wad

import (
	"strings"

	"github.com/opencontainers/go-digest"

	"github.com/stuarthighley/wad/v2/entrytype"
)

// Ex-prop keys set by the archive.
const (
	PropOffset    = "Offset"
	PropFullSize  = "FullSize"
	PropMapFormat = "MapFormat"
)

// EntryState tracks whether an entry's data differs from the archive's backing image.
type EntryState int

const (
	StateUnmodified EntryState = iota
	StateModified
	StateNew
)

// Entry is a named blob of bytes inside an archive. Data read from an archive is loaded on
// first use and may be dropped again with Unload.
type Entry struct {
	name      string
	size      int // nominal size, decoded size for encrypted entries
	stored    int // bytes occupied in the backing image
	data      []byte
	loaded    bool
	encrypted bool
	state     EntryState
	typ       *entrytype.EntryType
	props     map[string]any
	archive   *Archive
}

// NewEntry creates a loaded entry that belongs to no archive.
func NewEntry(name string, data []byte) *Entry {
	return &Entry{
		name:   name,
		size:   len(data),
		data:   data,
		loaded: true,
		state:  StateNew,
		props:  make(map[string]any),
	}
}

func (e *Entry) Name() string {
	return e.name
}

func (e *Entry) UpperName() string {
	return strings.ToUpper(e.name)
}

// NameNoExt returns the name without any extension.
func (e *Entry) NameNoExt() string {
	return stripExt(e.name)
}

// Size is the entry's data size, decoded size for encrypted entries.
func (e *Entry) Size() int {
	if e.loaded {
		return len(e.data)
	}
	return e.size
}

// Type returns the detected type, or nil before detection.
func (e *Entry) Type() *entrytype.EntryType {
	return e.typ
}

func (e *Entry) SetType(t *entrytype.EntryType) {
	e.typ = t
}

// TypeID returns the type id, "unknown" when no type is set.
func (e *Entry) TypeID() string {
	if e.typ == nil {
		return entrytype.IDUnknown
	}
	return e.typ.ID
}

func (e *Entry) IsLoaded() bool {
	return e.loaded
}

// IsEncrypted reports whether the entry is stored with the Jaguar cipher.
func (e *Entry) IsEncrypted() bool {
	return e.encrypted
}

func (e *Entry) State() EntryState {
	return e.state
}

// Archive returns the owning archive, nil for detached entries.
func (e *Entry) Archive() *Archive {
	return e.archive
}

// Data returns the entry's bytes, loading them from the archive's backing image if needed.
// The returned slice must not be modified; use Import to replace the data.
func (e *Entry) Data() ([]byte, error) {
	if e.loaded {
		return e.data, nil
	}
	data, err := e.read()
	if err != nil {
		return nil, err
	}
	e.data = data
	e.loaded = true
	return e.data, nil
}

func (e *Entry) read() ([]byte, error) {
	if e.size == 0 || e.archive == nil || e.archive.src == nil {
		return []byte{}, nil
	}
	offset, _ := e.props[PropOffset].(int)
	raw, err := e.archive.slice(offset, e.stored)
	if err != nil {
		return nil, err
	}
	if !e.encrypted {
		out := make([]byte, len(raw))
		copy(out, raw)
		return out, nil
	}
	out, err := jaguarDecode(raw, e.size)
	if err != nil {
		logger.Warn().Err(err).Str("lump", e.name).Msg("Encrypted lump did not decode properly")
	}
	return out, nil
}

// Import replaces the entry's data.
func (e *Entry) Import(data []byte) {
	e.data = data
	e.size = len(data)
	e.loaded = true
	if e.state == StateUnmodified {
		e.state = StateModified
	}
	if e.archive != nil {
		e.archive.modified = true
	}
}

// Unload drops cached data that can be read again from the archive's backing image.
func (e *Entry) Unload() {
	if !e.loaded || e.state != StateUnmodified || e.archive == nil || e.archive.src == nil {
		return
	}
	e.data = nil
	e.loaded = false
}

// Prop returns an ex-prop.
func (e *Entry) Prop(key string) (any, bool) {
	v, ok := e.props[key]
	return v, ok
}

func (e *Entry) SetProp(key string, value any) {
	if e.props == nil {
		e.props = make(map[string]any)
	}
	e.props[key] = value
}

func (e *Entry) DeleteProp(key string) {
	delete(e.props, key)
}

// Props returns a copy of the ex-props.
func (e *Entry) Props() map[string]any {
	out := make(map[string]any, len(e.props))
	for k, v := range e.props {
		out[k] = v
	}
	return out
}

// MapFormat returns the map format recorded by map detection, if any.
func (e *Entry) MapFormat() string {
	s, _ := e.props[PropMapFormat].(string)
	return s
}

// Digest returns the sha256 digest of the entry's data.
func (e *Entry) Digest() (digest.Digest, error) {
	data, err := e.Data()
	if err != nil {
		return "", err
	}
	return digest.FromBytes(data), nil
}
