package entrytype

import (
	"bytes"
	_ "embed"
	"fmt"
	"image/color"
	"io"

	"gopkg.in/yaml.v3"
)

//go:embed rules/default.yaml
var defaultRules []byte

// RuleSet is the YAML form of a set of pattern formats and entry types.
type RuleSet struct {
	Formats []*PatternFormat `yaml:"formats"`
	Types   []TypeRule       `yaml:"types"`
}

// TypeRule is the YAML form of an EntryType.
type TypeRule struct {
	ID             string            `yaml:"id"`
	Name           string            `yaml:"name"`
	Format         string            `yaml:"format"`
	Extension      string            `yaml:"extension"`
	Editor         string            `yaml:"editor"`
	Category       string            `yaml:"category"`
	Icon           string            `yaml:"icon"`
	Reliability    *uint8            `yaml:"reliability"`
	Colour         []int             `yaml:"colour"`
	Detectable     *bool             `yaml:"detectable"`
	Extra          map[string]string `yaml:"extra"`
	MatchExtOrName bool              `yaml:"match_ext_or_name"`
	MatchExtension []string          `yaml:"match_extension"`
	MatchName      []string          `yaml:"match_name"`
	MatchSize      []int             `yaml:"size"`
	MinSize        int               `yaml:"min_size"`
	MaxSize        int               `yaml:"max_size"`
	SizeMultiple   []int             `yaml:"size_multiple"`
	Section        []string          `yaml:"section"`
	MatchArchive   []string          `yaml:"archive"`
}

// LoadRules decodes a rule document.
func LoadRules(r io.Reader) (*RuleSet, error) {
	var rs RuleSet
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&rs); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding rules: %w", err)
	}
	return &rs, nil
}

// Load registers the formats and then the types of a rule document, in document order.
func (r *Registry) Load(src io.Reader) error {
	rs, err := LoadRules(src)
	if err != nil {
		return err
	}
	return r.Apply(rs)
}

// Apply registers the contents of rs.
func (r *Registry) Apply(rs *RuleSet) error {
	for _, f := range rs.Formats {
		if f.Name == "" {
			return fmt.Errorf("pattern format has no id")
		}
		if err := r.RegisterFormat(f); err != nil {
			return err
		}
	}
	for _, tr := range rs.Types {
		t, err := r.build(tr)
		if err != nil {
			return err
		}
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) build(tr TypeRule) (*EntryType, error) {
	formatID := tr.Format
	if formatID == "" {
		formatID = FormatAny
	}
	format, ok := r.formats[formatID]
	if !ok {
		return nil, fmt.Errorf("type %q: %w %q", tr.ID, ErrUnknownFormat, formatID)
	}
	t := &EntryType{
		ID:             tr.ID,
		Name:           tr.Name,
		Extension:      tr.Extension,
		Editor:         tr.Editor,
		Category:       tr.Category,
		Icon:           tr.Icon,
		Reliability:    255,
		Colour:         rgb(255, 255, 255),
		Detectable:     true,
		Extra:          tr.Extra,
		Format:         format,
		MatchExtOrName: tr.MatchExtOrName,
		MatchExtension: tr.MatchExtension,
		MatchName:      tr.MatchName,
		MatchSize:      tr.MatchSize,
		MinSize:        tr.MinSize,
		MaxSize:        tr.MaxSize,
		SizeMultiple:   tr.SizeMultiple,
		Section:        tr.Section,
		MatchArchive:   tr.MatchArchive,
	}
	if t.Name == "" {
		t.Name = tr.ID
	}
	if t.Extension == "" {
		t.Extension = "dat"
	}
	if tr.Reliability != nil {
		t.Reliability = *tr.Reliability
	}
	if tr.Detectable != nil {
		t.Detectable = *tr.Detectable
	}
	if len(tr.Colour) > 0 {
		c, err := parseColour(tr.Colour)
		if err != nil {
			return nil, fmt.Errorf("type %q: %w", tr.ID, err)
		}
		t.Colour = c
	}
	return t, nil
}

// DefaultRegistry builds a fresh registry from the embedded default rules.
func DefaultRegistry() (*Registry, error) {
	r, err := NewRegistry()
	if err != nil {
		return nil, err
	}
	if err := r.Load(bytes.NewReader(defaultRules)); err != nil {
		return nil, fmt.Errorf("default rules: %w", err)
	}
	return r, nil
}

func parseColour(c []int) (color.RGBA, error) {
	if len(c) != 3 {
		return color.RGBA{}, fmt.Errorf("colour needs 3 components, got %d", len(c))
	}
	for _, v := range c {
		if v < 0 || v > 255 {
			return color.RGBA{}, fmt.Errorf("colour component %d out of range", v)
		}
	}
	return rgb(uint8(c[0]), uint8(c[1]), uint8(c[2])), nil
}

func rgb(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
