package entrytype

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrDuplicateType   = errors.New("duplicate entry type id")
	ErrDuplicateFormat = errors.New("duplicate data format id")
	ErrUnknownFormat   = errors.New("unknown data format")
)

// Registry holds entry types in registration order. Detection returns the first detectable
// type whose predicate matches; reliability is informational and never reorders the search.
// A Registry is not safe for concurrent mutation; detection only reads it.
type Registry struct {
	types     []*EntryType
	byID      map[string]*EntryType
	formats   map[string]DataFormat
	unknown   *EntryType
	mapMarker *EntryType
}

// NewRegistry returns a registry holding the built-in data formats and the given types.
func NewRegistry(types ...*EntryType) (*Registry, error) {
	r := &Registry{
		byID:    make(map[string]*EntryType),
		formats: make(map[string]DataFormat),
		unknown: &EntryType{
			ID:       IDUnknown,
			Name:     "Unknown",
			Icon:     "unknown",
			Category: "Data",
			index:    -1,
		},
		mapMarker: &EntryType{
			ID:       IDMapMarker,
			Name:     "Map Marker",
			Icon:     "map",
			Category: "Maps",
			Colour:   rgb(0, 255, 0),
			index:    -1,
		},
	}
	for _, f := range builtinFormats() {
		r.formats[f.ID()] = f
	}
	for _, t := range types {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends t to the registry. Ids must be unique and may not use the reserved ids.
func (r *Registry) Register(t *EntryType) error {
	if t == nil || t.ID == "" {
		return fmt.Errorf("entry type has no id")
	}
	if t.ID == IDUnknown || t.ID == IDMapMarker {
		return fmt.Errorf("%w: %q is reserved", ErrDuplicateType, t.ID)
	}
	if _, ok := r.byID[t.ID]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateType, t.ID)
	}
	if t.Format == nil {
		t.Format = r.formats[FormatAny]
	}
	t.index = len(r.types)
	r.types = append(r.types, t)
	r.byID[t.ID] = t
	return nil
}

// RegisterFormat makes f available to rule files by id.
func (r *Registry) RegisterFormat(f DataFormat) error {
	if _, ok := r.formats[f.ID()]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateFormat, f.ID())
	}
	r.formats[f.ID()] = f
	return nil
}

// Format looks up a data format by id.
func (r *Registry) Format(id string) (DataFormat, bool) {
	f, ok := r.formats[id]
	return f, ok
}

// Detect returns the first detectable type matching c, or Unknown.
func (r *Registry) Detect(c Candidate) *EntryType {
	for _, t := range r.types {
		if t.Detectable && t.Matches(c) {
			return t
		}
	}
	return r.unknown
}

// FromID looks up a type, including the reserved ones.
func (r *Registry) FromID(id string) (*EntryType, bool) {
	switch id {
	case IDUnknown:
		return r.unknown, true
	case IDMapMarker:
		return r.mapMarker, true
	}
	t, ok := r.byID[id]
	return t, ok
}

// Unknown is the registry's fallback type.
func (r *Registry) Unknown() *EntryType {
	return r.unknown
}

// MapMarker is the type given to map header entries.
func (r *Registry) MapMarker() *EntryType {
	return r.mapMarker
}

// Types returns the registered types in registration order.
func (r *Registry) Types() []*EntryType {
	out := make([]*EntryType, len(r.types))
	copy(out, r.types)
	return out
}

// Categories returns the sorted set of categories used by registered types.
func (r *Registry) Categories() []string {
	seen := make(map[string]struct{})
	for _, t := range r.types {
		if t.Category != "" {
			seen[t.Category] = struct{}{}
		}
	}
	categories := make([]string, 0, len(seen))
	for c := range seen {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return categories
}
