package wad

import (
	"strings"

	"github.com/stuarthighley/wad/v2/entrytype"
)

// MapFormat is the lump layout of a map.
type MapFormat int

const (
	MapFormatUnknown MapFormat = iota
	MapFormatDoom
	MapFormatHexen
	MapFormatDoom64
	MapFormatUDMF
)

func (f MapFormat) String() string {
	switch f {
	case MapFormatDoom:
		return "doom"
	case MapFormatHexen:
		return "hexen"
	case MapFormatDoom64:
		return "doom64"
	case MapFormatUDMF:
		return "udmf"
	default:
		return "unknown"
	}
}

// MapDesc describes one map. For a map stored as a nested WAD, Head and End are both the
// nested WAD entry and Archive is set.
type MapDesc struct {
	Name    string
	Head    *Entry
	End     *Entry
	Format  MapFormat
	Archive bool
	// Unknown holds lumps inside a UDMF map that are not standard map lumps.
	Unknown []*Entry
}

// Valid reports whether the descriptor names a map.
func (m MapDesc) Valid() bool {
	return m.Head != nil
}

// Map lumps in canonical order. lumpGLHeader stands for GL_<mapname>.
const (
	lumpThings = iota
	lumpVertexes
	lumpLinedefs
	lumpSidedefs
	lumpSectors
	lumpSegs
	lumpSSectors
	lumpNodes
	lumpBlockmap
	lumpReject
	lumpScripts
	lumpBehavior
	lumpLeafs
	lumpLights
	lumpMacros
	lumpGLHeader
	lumpGLVert
	lumpGLSegs
	lumpGLSSect
	lumpGLNodes
	lumpGLPVS
	lumpTextmap
	lumpZNodes
	numMapLumps
)

var mapLumpNames = [numMapLumps]string{
	lumpThings:   "THINGS",
	lumpVertexes: "VERTEXES",
	lumpLinedefs: "LINEDEFS",
	lumpSidedefs: "SIDEDEFS",
	lumpSectors:  "SECTORS",
	lumpSegs:     "SEGS",
	lumpSSectors: "SSECTORS",
	lumpNodes:    "NODES",
	lumpBlockmap: "BLOCKMAP",
	lumpReject:   "REJECT",
	lumpScripts:  "SCRIPTS",
	lumpBehavior: "BEHAVIOR",
	lumpLeafs:    "LEAFS",
	lumpLights:   "LIGHTS",
	lumpMacros:   "MACROS",
	lumpGLVert:   "GL_VERT",
	lumpGLSegs:   "GL_SEGS",
	lumpGLSSect:  "GL_SSECT",
	lumpGLNodes:  "GL_NODES",
	lumpGLPVS:    "GL_PVS",
	lumpTextmap:  "TEXTMAP",
	lumpZNodes:   "ZNODES",
}

// mapLumpIndex returns the position of name in the map lump list, -1 if it is not a map lump
// of the map with the given header name. Names compare exactly, as stored.
func mapLumpIndex(name, header string) int {
	if name == "GL_"+header {
		return lumpGLHeader
	}
	for i, n := range mapLumpNames {
		if n != "" && name == n {
			return i
		}
	}
	return -1
}

// isBaseMapLump reports whether name is one of the lumps every binary map has.
func isBaseMapLump(name string) bool {
	switch name {
	case "THINGS", "VERTEXES", "LINEDEFS", "SIDEDEFS", "SECTORS":
		return true
	}
	return false
}

// MapInfo evaluates head as a map header. An invalid result has a nil Head.
func (a *Archive) MapInfo(head *Entry) MapDesc {
	i := a.Index(head)
	if i < 0 {
		return MapDesc{}
	}
	entries := a.Entries()

	// A nested WAD counts as one map
	if a.isEmbeddedWad(head) {
		format, ok := a.embeddedMapFormat(head)
		if !ok {
			return MapDesc{}
		}
		return MapDesc{
			Name:    strings.ToUpper(head.NameNoExt()),
			Head:    head,
			End:     head,
			Format:  format,
			Archive: true,
		}
	}

	if i+1 < len(entries) && entries[i+1].name == "TEXTMAP" {
		md, _ := udmfMapAt(entries, i)
		return md
	}
	md, _ := binaryMapAt(entries, i)
	return md
}

// udmfMapAt reads a UDMF map whose header is at index head. It returns the descriptor and the
// index of ENDMAP; without ENDMAP the descriptor is invalid.
func udmfMapAt(entries []*Entry, head int) (MapDesc, int) {
	md := MapDesc{Name: entries[head].name, Head: entries[head], Format: MapFormatUDMF}
	for j := head + 1; j < len(entries); j++ {
		name := entries[j].name
		if name == "ENDMAP" {
			md.End = entries[j]
			return md, j
		}
		if mapLumpIndex(name, md.Name) < 0 {
			md.Unknown = append(md.Unknown, entries[j])
		}
	}
	return MapDesc{}, -1
}

// binaryMapAt reads the run of map lumps after the header at index head. It returns the
// descriptor, invalid unless the base lumps are all present, and the index of the last lump
// in the run (head if the run is empty).
func binaryMapAt(entries []*Entry, head int) (MapDesc, int) {
	header := entries[head].name
	var seen [numMapLumps]bool
	last := head
	for j := head + 1; j < len(entries); j++ {
		idx := mapLumpIndex(entries[j].name, header)
		if idx < 0 || idx == lumpTextmap {
			break
		}
		seen[idx] = true
		last = j
	}

	for _, l := range []int{lumpThings, lumpVertexes, lumpLinedefs, lumpSidedefs, lumpSectors} {
		if !seen[l] {
			return MapDesc{}, last
		}
	}

	md := MapDesc{Name: header, Head: entries[head], End: entries[last], Format: MapFormatDoom}
	switch {
	case seen[lumpBehavior]:
		md.Format = MapFormatHexen
	case seen[lumpLeafs] && seen[lumpLights] && seen[lumpMacros]:
		md.Format = MapFormatDoom64
	}
	return md, last
}

// DetectMaps scans the archive for maps, marks their headers and records each map lump's
// format in the MapFormat ex-prop.
func (a *Archive) DetectMaps() []MapDesc {
	a.maps = a.detectMaps()
	return a.Maps()
}

func (a *Archive) detectMaps() []MapDesc {
	logger.Debug().Msg("Detecting maps ...")
	entries := a.Entries()
	n := len(entries)
	var maps []MapDesc

	for i := 0; i < n; i++ {
		a.cfg.report(StageDetectingMaps, i, n, "")
		e := entries[i]

		// UDMF
		if e.name == "TEXTMAP" && i > 0 {
			md, end := udmfMapAt(entries, i-1)
			if md.Valid() {
				maps = append(maps, md)
				i = end
			}
			continue
		}

		// Doom, Hexen and Doom64
		if isBaseMapLump(e.name) && i > 0 {
			md, last := binaryMapAt(entries, i-1)
			if md.Valid() {
				maps = append(maps, md)
			}
			i = last
			continue
		}

		// Nested WAD
		if a.isEmbeddedWad(e) {
			if format, ok := a.embeddedMapFormat(e); ok {
				maps = append(maps, MapDesc{
					Name:    strings.ToUpper(e.NameNoExt()),
					Head:    e,
					End:     e,
					Format:  format,
					Archive: true,
				})
			}
		}
	}
	a.cfg.report(StageDetectingMaps, n, n, "")

	a.markMaps(entries, maps)
	logger.Debug().Int("maps", len(maps)).Msg("Detected maps")
	return maps
}

// markMaps gives map headers the map marker type and tags every map lump with its format.
func (a *Archive) markMaps(entries []*Entry, maps []MapDesc) {
	positions := make(map[*Entry]int, len(entries))
	for i, e := range entries {
		positions[e] = i
	}
	marker := a.cfg.registry.MapMarker()
	for _, md := range maps {
		if !md.Archive {
			md.Head.SetType(marker)
		}
		for k := positions[md.Head]; k <= positions[md.End]; k++ {
			entries[k].SetProp(PropMapFormat, md.Format.String())
		}
	}
}

func (a *Archive) isEmbeddedWad(e *Entry) bool {
	return e.Type() != nil && e.Type().FormatID() == entrytype.FormatWad
}

// embeddedMapFormat opens e as a child archive and returns the format of its first map.
// Failures to open the child are not errors.
func (a *Archive) embeddedMapFormat(e *Entry) (MapFormat, bool) {
	if a.cfg.depth >= a.cfg.maxNesting {
		logger.Debug().Str("lump", e.name).Int("depth", a.cfg.depth).Msg("Nested WAD too deep, not scanning")
		return MapFormatUnknown, false
	}
	data, err := e.Data()
	if err != nil {
		return MapFormatUnknown, false
	}
	if !a.cfg.keepData {
		defer e.Unload()
	}

	cfg := a.cfg
	cfg.depth++
	cfg.progress = nil
	cfg.keepData = false
	child, err := open(data, cfg)
	if err != nil || len(child.maps) == 0 {
		return MapFormatUnknown, false
	}
	return child.maps[0].Format, true
}
