package wad

import (
	"strings"

	"github.com/stuarthighley/wad/v2/entrytype"
	"github.com/stuarthighley/wad/v2/internal/glob"
)

// NamespaceGraphics means no namespace restriction when searching.
const NamespaceGraphics = "graphics"

// SearchOptions filters entries. Zero fields do not filter.
type SearchOptions struct {
	// Name is matched case-insensitively with '*' and '?' wildcards.
	Name string
	// Type matches entries of that type. Entries of unknown type are tested against the
	// type's predicate instead.
	Type *entrytype.EntryType
	// Namespace restricts the search to the entries between a namespace's markers.
	// "graphics" and "global" search everything; an absent namespace matches nothing.
	Namespace string
	// IgnoreExt compares names without their extensions.
	IgnoreExt bool
}

// FindFirst returns the first matching entry, nil if none.
func (a *Archive) FindFirst(opt SearchOptions) *Entry {
	start, end, ok := a.searchRange(opt.Namespace)
	if !ok {
		return nil
	}
	match := nameMatcher(opt)
	for i := start; i < end; i++ {
		if a.matches(i, opt, match) {
			return a.entries[i]
		}
	}
	return nil
}

// FindLast returns the last matching entry, nil if none.
func (a *Archive) FindLast(opt SearchOptions) *Entry {
	start, end, ok := a.searchRange(opt.Namespace)
	if !ok {
		return nil
	}
	match := nameMatcher(opt)
	for i := end - 1; i >= start; i-- {
		if a.matches(i, opt, match) {
			return a.entries[i]
		}
	}
	return nil
}

// FindAll returns every matching entry in archive order.
func (a *Archive) FindAll(opt SearchOptions) []*Entry {
	start, end, ok := a.searchRange(opt.Namespace)
	if !ok {
		return nil
	}
	match := nameMatcher(opt)
	var found []*Entry
	for i := start; i < end; i++ {
		if a.matches(i, opt, match) {
			found = append(found, a.entries[i])
		}
	}
	return found
}

// searchRange returns the half-open index range to search, excluding namespace markers.
func (a *Archive) searchRange(namespace string) (int, int, bool) {
	switch namespace {
	case "", NamespaceGraphics, NamespaceGlobal:
		return 0, len(a.entries), true
	}
	ns, ok := a.namespace(namespace)
	if !ok {
		return 0, 0, false
	}
	return ns.StartIndex + 1, ns.EndIndex, true
}

// nameMatcher builds the name test for a search once. Names without wildcards are compared
// directly; nil means any name.
func nameMatcher(opt SearchOptions) func(name string) bool {
	if opt.Name == "" {
		return nil
	}
	pattern := opt.Name
	if opt.IgnoreExt {
		pattern = stripExt(pattern)
	}
	same := glob.Match
	if !glob.HasWildcard(pattern) {
		same = glob.Equal
	}
	return func(name string) bool {
		if opt.IgnoreExt {
			name = stripExt(name)
		}
		return same(pattern, name)
	}
}

func (a *Archive) matches(i int, opt SearchOptions, match func(string) bool) bool {
	e := a.entries[i]
	if match != nil && !match(e.name) {
		return false
	}
	if opt.Type != nil {
		if e.TypeID() == entrytype.IDUnknown {
			wasLoaded := e.loaded
			ok := opt.Type.Matches(a.candidate(i))
			if !wasLoaded && !a.cfg.keepData {
				e.Unload()
			}
			if !ok {
				return false
			}
		} else if e.typ != opt.Type {
			return false
		}
	}
	return true
}

func stripExt(name string) string {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		return name[:i]
	}
	return name
}
