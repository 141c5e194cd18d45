// Package entrytype classifies archive entries. An EntryType couples display metadata with a
// matching predicate over an entry's name, size, data, namespace and container; a Registry
// keeps types in registration order and picks the first one that matches.
package entrytype

import (
	"image/color"
	"slices"
	"strings"

	"github.com/stuarthighley/wad/v2/internal/glob"
)

// Reserved type ids.
const (
	IDUnknown   = "unknown"
	IDMapMarker = "map"
)

// Candidate is what a type predicate sees of an entry.
type Candidate struct {
	Name      string
	Size      int
	Data      []byte
	Section   string // namespace of the entry inside its archive, "global" if none
	Container string // format id of the containing archive, e.g. "wad"
}

// EntryType describes a kind of entry and how to recognise it.
type EntryType struct {
	ID          string
	Name        string
	Extension   string
	Editor      string
	Category    string
	Icon        string
	Reliability uint8
	Colour      color.RGBA
	Detectable  bool
	Extra       map[string]string
	Format      DataFormat

	MatchExtOrName bool
	MatchExtension []string
	MatchName      []string
	MatchSize      []int
	MinSize        int // 0 is unbounded
	MaxSize        int // 0 is unbounded
	SizeMultiple   []int
	Section        []string
	MatchArchive   []string

	index int
}

// Index is the type's position in its registry, -1 for the reserved types.
func (t *EntryType) Index() int {
	if t == nil {
		return -1
	}
	return t.index
}

// FormatID returns the id of the required data format.
func (t *EntryType) FormatID() string {
	if t == nil || t.Format == nil {
		return FormatAny
	}
	return t.Format.ID()
}

// Matches reports whether every listed constraint holds for c. Lists that are empty impose
// nothing. The data format is checked last since it is the only test that reads data.
func (t *EntryType) Matches(c Candidate) bool {
	if t == nil {
		return false
	}

	// Size constraints
	if len(t.MatchSize) > 0 && !slices.Contains(t.MatchSize, c.Size) {
		return false
	}
	if t.MinSize > 0 && c.Size < t.MinSize {
		return false
	}
	if t.MaxSize > 0 && c.Size > t.MaxSize {
		return false
	}
	if len(t.SizeMultiple) > 0 {
		ok := false
		for _, m := range t.SizeMultiple {
			if m > 0 && c.Size%m == 0 {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}

	// Container and section
	if len(t.MatchArchive) > 0 && !containsFold(t.MatchArchive, c.Container) {
		return false
	}
	if len(t.Section) > 0 && !containsFold(t.Section, c.Section) {
		return false
	}

	// Name and extension
	base, ext := splitExt(c.Name)
	nameOK := len(t.MatchName) == 0 || matchAny(t.MatchName, base)
	extOK := len(t.MatchExtension) == 0 || containsFold(t.MatchExtension, ext)
	if t.MatchExtOrName && len(t.MatchName) > 0 && len(t.MatchExtension) > 0 {
		if !nameOK && !extOK {
			return false
		}
	} else if !nameOK || !extOK {
		return false
	}

	if t.Format != nil && !t.Format.Matches(c.Data) {
		return false
	}
	return true
}

func splitExt(name string) (string, string) {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return name, ""
	}
	return name[:i], name[i+1:]
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if glob.Match(p, name) {
			return true
		}
	}
	return false
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
