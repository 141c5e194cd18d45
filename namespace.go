package wad

import "strings"

// NamespaceGlobal is the namespace of entries outside every marker span.
const NamespaceGlobal = "global"

// rottMinEntries is how many entries a Rise of the Triad WAD has at least.
const rottMinEntries = 2090

// Namespace is a span of entries delimited by X_START and X_END markers. Start and End are
// the marker entries; the indices are positions in the entry list when the span was built.
type Namespace struct {
	Name       string
	Start      *Entry
	End        *Entry
	StartIndex int
	EndIndex   int
	// FlatHack marks a flats span with no F_START, running from the first entry.
	FlatHack bool
}

// Contains reports whether index i lies in the span, markers included.
func (ns Namespace) Contains(i int) bool {
	return i >= ns.StartIndex && i <= ns.EndIndex
}

var namespaceDigraphs = map[string]string{
	"pp": "p",
	"ff": "f",
	"ss": "s",
	"tt": "t",
}

var canonicalNamespaces = map[string]string{
	"p":  "patches",
	"s":  "sprites",
	"f":  "flats",
	"tx": "textures",
	"t":  "textures",
	"hi": "hires",
	"c":  "colormaps",
	"a":  "acs",
	"v":  "voices",
	"vx": "voxels",
	"ds": "sounds",
}

// CanonicalNamespace maps a marker prefix such as "p" to its namespace name.
func CanonicalNamespace(prefix string) string {
	if name, ok := canonicalNamespaces[prefix]; ok {
		return name
	}
	return prefix
}

// namespacePrefix returns the marker letters for a canonical namespace name.
func namespacePrefix(name string) (string, bool) {
	switch name {
	case "patches":
		return "p", true
	case "sprites":
		return "s", true
	case "flats":
		return "f", true
	case "textures":
		return "tx", true
	case "hires":
		return "hi", true
	case "colormaps":
		return "c", true
	case "acs":
		return "a", true
	case "voices":
		return "v", true
	case "voxels":
		return "vx", true
	case "sounds":
		return "ds", true
	}
	return "", false
}

// isMarker reports whether name opens or closes a namespace.
func isMarker(name string) bool {
	_, ok := startMarker(name)
	if ok {
		return true
	}
	_, ok = endMarker(name)
	return ok
}

func startMarker(name string) (string, bool) {
	if !hasSuffixFold(name, "_START") {
		return "", false
	}
	return normaliseDigraph(strings.ToLower(name[:len(name)-6])), true
}

func endMarker(name string) (string, bool) {
	if !hasSuffixFold(name, "_END") || (len(name) != 5 && len(name) != 6) {
		return "", false
	}
	return normaliseDigraph(strings.ToLower(name[:len(name)-4])), true
}

func hasSuffixFold(s, suffix string) bool {
	return len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix)
}

func normaliseDigraph(prefix string) string {
	if p, ok := namespaceDigraphs[prefix]; ok {
		return p
	}
	return prefix
}

// scanNamespaces builds the namespace list for entries from scratch.
func scanNamespaces(entries []*Entry) []Namespace {
	var spans []Namespace
	open := make([]bool, 0)

	for i, e := range entries {
		if prefix, ok := startMarker(e.name); ok {
			spans = append(spans, Namespace{Name: prefix, Start: e, StartIndex: i})
			open = append(open, true)
			continue
		}

		prefix, ok := endMarker(e.name)
		if !ok {
			continue
		}

		// Close the first open span of that name opened before this marker
		closed := false
		for k := range spans {
			if spans[k].StartIndex > i {
				break
			}
			if !open[k] || spans[k].Name != prefix {
				continue
			}
			spans[k].End = e
			spans[k].EndIndex = i
			open[k] = false
			closed = true
			break
		}

		// F_END without F_START: the flats run from the first entry
		if !closed && prefix == "f" {
			spans = append(spans, Namespace{
				Name:       prefix,
				Start:      entries[0],
				End:        e,
				StartIndex: 0,
				EndIndex:   i,
				FlatHack:   true,
			})
			open = append(open, false)
		}
	}

	// Rise of the Triad keeps everything between WALLSTRT and TABLES
	n := len(entries)
	if n > rottMinEntries && strings.EqualFold(entries[0].name, "WALLSTRT") && strings.EqualFold(entries[n-2].name, "TABLES") {
		spans = append(spans, Namespace{
			Name:       "rott",
			Start:      entries[0],
			End:        entries[n-1],
			StartIndex: 0,
			EndIndex:   n - 1,
		})
		open = append(open, false)
	}

	// Drop unclosed spans and canonicalise names
	positions := make(map[*Entry]int, n)
	for i, e := range entries {
		positions[e] = i
	}
	out := make([]Namespace, 0, len(spans))
	for k, ns := range spans {
		if open[k] || ns.End == nil {
			continue
		}
		ns.Name = CanonicalNamespace(ns.Name)
		ns.StartIndex = positions[ns.Start]
		ns.EndIndex = positions[ns.End]
		out = append(out, ns)
	}
	return out
}

func (a *Archive) updateNamespaces() {
	a.namespaces = scanNamespaces(a.entries)
}

// Namespaces returns the current namespace spans in opening order.
func (a *Archive) Namespaces() []Namespace {
	out := make([]Namespace, len(a.namespaces))
	copy(out, a.namespaces)
	return out
}

// DetectNamespace returns the namespace of the first span containing index i, or "global".
func (a *Archive) DetectNamespace(i int) string {
	for _, ns := range a.namespaces {
		if ns.Contains(i) {
			return ns.Name
		}
	}
	return NamespaceGlobal
}

// DetectNamespaceOf returns the namespace of e, or "global" if e is not in the archive.
func (a *Archive) DetectNamespaceOf(e *Entry) string {
	i := a.Index(e)
	if i < 0 {
		return NamespaceGlobal
	}
	return a.DetectNamespace(i)
}

// HasFlatHack reports whether any flats span was synthesised from a lone F_END.
func (a *Archive) HasFlatHack() bool {
	for _, ns := range a.namespaces {
		if ns.FlatHack {
			return true
		}
	}
	return false
}

func (a *Archive) namespace(name string) (Namespace, bool) {
	for _, ns := range a.namespaces {
		if ns.Name == name {
			return ns, true
		}
	}
	return Namespace{}, false
}
