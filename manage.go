package wad

import (
	"fmt"
	"path"
	"strings"

	"github.com/stuarthighley/wad/v2/internal/wadfmt"
)

// LumpName converts name to a WAD lump name. '^' becomes '\'; names that do not already look
// like short lump names lose any directory and extension and are cut to eight characters.
func LumpName(name string, upper bool) string {
	name = strings.ReplaceAll(name, "^", "\\")
	if !(len(name) <= wadfmt.NameSize && strings.Contains(name, "\\")) {
		if name != "" {
			name = stripExt(path.Base(name))
		}
		if len(name) > wadfmt.NameSize {
			name = name[:wadfmt.NameSize]
		}
	}
	if upper {
		name = strings.ToUpper(name)
	}
	return name
}

func (a *Archive) lumpName(name string) string {
	return LumpName(name, a.cfg.forceUppercase)
}

// AddEntry inserts e at position pos, appending when pos is out of range.
func (a *Archive) AddEntry(e *Entry, pos int) error {
	if e == nil {
		return fmt.Errorf("nil entry")
	}
	if e.archive != nil {
		return fmt.Errorf("%w: %q", ErrInArchive, e.name)
	}
	if pos < 0 || pos > len(a.entries) {
		pos = len(a.entries)
	}
	e.name = a.lumpName(e.name)
	e.archive = a
	if e.typ == nil {
		e.typ = a.cfg.registry.Unknown()
	}
	a.entries = append(a.entries, nil)
	copy(a.entries[pos+1:], a.entries[pos:])
	a.entries[pos] = e
	a.modified = true
	a.updateNamespaces()
	return nil
}

// AddEntryToNamespace inserts e before the end marker of namespace ns. For a canonical
// namespace that does not exist yet the markers are created at the end of the archive;
// otherwise e is appended.
func (a *Archive) AddEntryToNamespace(e *Entry, ns string) error {
	if e != nil && e.archive != nil {
		return fmt.Errorf("%w: %q", ErrInArchive, e.name)
	}
	if span, ok := a.namespace(ns); ok {
		return a.AddEntry(e, span.EndIndex)
	}
	prefix, ok := namespacePrefix(ns)
	if !ok || ns == NamespaceGlobal {
		return a.AddEntry(e, -1)
	}
	start := NewEntry(prefix+"_START", nil)
	end := NewEntry(prefix+"_END", nil)
	for _, m := range []*Entry{start, e, end} {
		if err := a.AddEntry(m, -1); err != nil {
			return err
		}
	}
	return nil
}

// RemoveEntry takes e out of the archive. Its data is loaded first so e stays usable.
func (a *Archive) RemoveEntry(e *Entry) error {
	i := a.Index(e)
	if i < 0 {
		return ErrNotInArchive
	}
	if _, err := e.Data(); err != nil {
		return err
	}
	a.entries = append(a.entries[:i], a.entries[i+1:]...)
	e.archive = nil
	e.state = StateNew
	a.modified = true
	a.updateNamespaces()
	return nil
}

// RenameEntry gives e a new lump name.
func (a *Archive) RenameEntry(e *Entry, name string) error {
	if a.Index(e) < 0 {
		return ErrNotInArchive
	}
	old := e.name
	e.name = a.lumpName(name)
	a.modified = true
	if isMarker(old) || isMarker(e.name) {
		a.updateNamespaces()
	}
	return nil
}

// MoveEntry moves e to position pos, the end when pos is out of range.
func (a *Archive) MoveEntry(e *Entry, pos int) error {
	i := a.Index(e)
	if i < 0 {
		return ErrNotInArchive
	}
	a.entries = append(a.entries[:i], a.entries[i+1:]...)
	if pos < 0 || pos > len(a.entries) {
		pos = len(a.entries)
	}
	a.entries = append(a.entries, nil)
	copy(a.entries[pos+1:], a.entries[pos:])
	a.entries[pos] = e
	a.modified = true
	a.updateNamespaces()
	return nil
}

// SwapEntries exchanges the positions of two entries.
func (a *Archive) SwapEntries(x, y *Entry) error {
	i, j := a.Index(x), a.Index(y)
	if i < 0 || j < 0 {
		return ErrNotInArchive
	}
	a.entries[i], a.entries[j] = a.entries[j], a.entries[i]
	a.modified = true
	if isMarker(x.name) || isMarker(y.name) {
		a.updateNamespaces()
	}
	return nil
}
