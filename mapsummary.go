package wad

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"golang.org/x/exp/constraints"
)

// Binary map lump records. Doom and Hexen share sidedefs, vertexes and sectors; Doom64 widens
// vertexes to fixed point and replaces texture names with hashes.

type binThing struct {
	X       int16
	Y       int16
	Angle   int16
	Type    int16
	Options int16
}

type binHexenThing struct {
	TID     int16
	X       int16
	Y       int16
	Z       int16
	Angle   int16
	Type    int16
	Options int16
	Special uint8
	Args    [5]uint8
}

type binDoom64Thing struct {
	X       int16
	Y       int16
	Z       int16
	Angle   int16
	Type    int16
	Options int16
	TID     int16
}

type binLine struct {
	VertexStart, VertexEnd int16
	Flags                  int16
	Type                   int16
	SectorTag              int16
	SideR, SideL           int16
}

type binHexenLine struct {
	VertexStart, VertexEnd int16
	Flags                  int16
	Special                uint8
	Args                   [5]uint8
	SideR, SideL           int16
}

type binDoom64Line struct {
	VertexStart, VertexEnd int16
	Flags                  uint32
	Type                   int16
	SectorTag              int16
	SideR, SideL           int16
}

type binSide struct {
	XOffset       int16
	YOffset       int16
	UpperTexture  [8]byte
	LowerTexture  [8]byte
	MiddleTexture [8]byte
	SectorNum     int16
}

type binDoom64Side struct {
	XOffset       int16
	YOffset       int16
	UpperTexture  uint16
	LowerTexture  uint16
	MiddleTexture uint16
	SectorNum     int16
}

type binVertex struct {
	X, Y int16
}

type binDoom64Vertex struct {
	X, Y int32 // 16.16 fixed point
}

type binSector struct {
	FloorHeight    int16
	CeilingHeight  int16
	FloorTexture   [8]byte
	CeilingTexture [8]byte
	LightLevel     int16
	Type           int16
	TagNum         int16
}

type binDoom64Sector struct {
	FloorHeight    int16
	CeilingHeight  int16
	FloorTexture   uint16
	CeilingTexture uint16
	Colors         [5]uint16
	Type           int16
	TagNum         int16
	Flags          uint16
}

// recordSizes holds the size of one record of each counted lump for a map format.
type recordSizes struct {
	things, linedefs, sidedefs, vertexes, sectors int
}

var mapRecordSizes = map[MapFormat]recordSizes{
	MapFormatDoom: {
		things:   binary.Size(binThing{}),
		linedefs: binary.Size(binLine{}),
		sidedefs: binary.Size(binSide{}),
		vertexes: binary.Size(binVertex{}),
		sectors:  binary.Size(binSector{}),
	},
	MapFormatHexen: {
		things:   binary.Size(binHexenThing{}),
		linedefs: binary.Size(binHexenLine{}),
		sidedefs: binary.Size(binSide{}),
		vertexes: binary.Size(binVertex{}),
		sectors:  binary.Size(binSector{}),
	},
	MapFormatDoom64: {
		things:   binary.Size(binDoom64Thing{}),
		linedefs: binary.Size(binDoom64Line{}),
		sidedefs: binary.Size(binDoom64Side{}),
		vertexes: binary.Size(binDoom64Vertex{}),
		sectors:  binary.Size(binDoom64Sector{}),
	},
}

// Thing is a map object placement.
type Thing struct {
	X, Y  int
	Angle float64
	Type  int
	Flags int
}

type Vertex struct {
	X, Y float64
}

type BoundBox struct {
	Top, Bottom, Left, Right float64
}

func newBBox() *BoundBox {
	return &BoundBox{
		Left:   math.Inf(1),
		Right:  math.Inf(-1),
		Bottom: math.Inf(1),
		Top:    math.Inf(-1),
	}
}

func (b *BoundBox) add(v Vertex) {
	b.Left = min(b.Left, v.X)
	b.Right = max(b.Right, v.X)
	b.Bottom = min(b.Bottom, v.Y)
	b.Top = max(b.Top, v.Y)
}

// MapSummary holds record counts and extents of a binary map.
type MapSummary struct {
	Name     string
	Format   MapFormat
	Things   int
	Linedefs int
	Sidedefs int
	Vertexes int
	Sectors  int
	Bounds   BoundBox
}

// MapSummary counts the records of a Doom, Hexen or Doom64 map and measures its vertexes.
func (a *Archive) MapSummary(md MapDesc) (MapSummary, error) {
	sizes, ok := mapRecordSizes[md.Format]
	if !ok || md.Archive {
		return MapSummary{}, fmt.Errorf("%w: %s map %s", ErrUnsupportedMap, md.Format, md.Name)
	}
	lumps, err := a.mapLumps(md)
	if err != nil {
		return MapSummary{}, err
	}

	s := MapSummary{
		Name:     md.Name,
		Format:   md.Format,
		Things:   recordCount(lumps["THINGS"].Size(), sizes.things),
		Linedefs: recordCount(lumps["LINEDEFS"].Size(), sizes.linedefs),
		Sidedefs: recordCount(lumps["SIDEDEFS"].Size(), sizes.sidedefs),
		Vertexes: recordCount(lumps["VERTEXES"].Size(), sizes.vertexes),
		Sectors:  recordCount(lumps["SECTORS"].Size(), sizes.sectors),
	}

	vertexes, err := a.readVertexes(lumps["VERTEXES"], md.Format)
	if err != nil {
		return MapSummary{}, err
	}
	if len(vertexes) > 0 {
		bbox := newBBox()
		for _, v := range vertexes {
			bbox.add(v)
		}
		s.Bounds = *bbox
	}
	return s, nil
}

// ReadThings decodes the THINGS lump of a binary map.
func (a *Archive) ReadThings(md MapDesc) ([]Thing, error) {
	if _, ok := mapRecordSizes[md.Format]; !ok || md.Archive {
		return nil, fmt.Errorf("%w: %s map %s", ErrUnsupportedMap, md.Format, md.Name)
	}
	lumps, err := a.mapLumps(md)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("map", md.Name).Msg("Reading Things ...")
	data, err := lumps["THINGS"].Data()
	if err != nil {
		return nil, err
	}

	// Read lump and translate to canonical
	var things []Thing
	switch md.Format {
	case MapFormatHexen:
		recs, err := readRecords[binHexenThing](data)
		if err != nil {
			return nil, err
		}
		for _, t := range recs {
			things = append(things, Thing{X: int(t.X), Y: int(t.Y), Angle: degreesToRadians(t.Angle), Type: int(t.Type), Flags: int(t.Options)})
		}
	case MapFormatDoom64:
		recs, err := readRecords[binDoom64Thing](data)
		if err != nil {
			return nil, err
		}
		for _, t := range recs {
			things = append(things, Thing{X: int(t.X), Y: int(t.Y), Angle: degreesToRadians(t.Angle), Type: int(t.Type), Flags: int(t.Options)})
		}
	default:
		recs, err := readRecords[binThing](data)
		if err != nil {
			return nil, err
		}
		for _, t := range recs {
			things = append(things, Thing{X: int(t.X), Y: int(t.Y), Angle: degreesToRadians(t.Angle), Type: int(t.Type), Flags: int(t.Options)})
		}
	}
	logger.Debug().Int("things", len(things)).Msg("Read things")
	return things, nil
}

func (a *Archive) readVertexes(lump *Entry, format MapFormat) ([]Vertex, error) {
	data, err := lump.Data()
	if err != nil {
		return nil, err
	}
	var vertexes []Vertex
	if format == MapFormatDoom64 {
		recs, err := readRecords[binDoom64Vertex](data)
		if err != nil {
			return nil, err
		}
		for _, v := range recs {
			vertexes = append(vertexes, Vertex{X: fixedToFloat(v.X), Y: fixedToFloat(v.Y)})
		}
		return vertexes, nil
	}
	recs, err := readRecords[binVertex](data)
	if err != nil {
		return nil, err
	}
	for _, v := range recs {
		vertexes = append(vertexes, Vertex{X: float64(v.X), Y: float64(v.Y)})
	}
	return vertexes, nil
}

// mapLumps collects the lumps between a map's header and end, keyed by upper-case name.
func (a *Archive) mapLumps(md MapDesc) (map[string]*Entry, error) {
	start, end := a.Index(md.Head), a.Index(md.End)
	if start < 0 || end < start {
		return nil, ErrNotInArchive
	}
	lumps := make(map[string]*Entry)
	for i := start + 1; i <= end; i++ {
		e := a.entries[i]
		lumps[strings.ToUpper(e.name)] = e
	}
	for _, name := range []string{"THINGS", "LINEDEFS", "SIDEDEFS", "VERTEXES", "SECTORS"} {
		if lumps[name] == nil {
			return nil, fmt.Errorf("%w: map %s has no %s", ErrUnsupportedMap, md.Name, name)
		}
	}
	return lumps, nil
}

// readRecords decodes as many whole records of type T as data holds.
func readRecords[T any](data []byte) ([]T, error) {
	var zero T
	count := recordCount(len(data), binary.Size(zero))
	recs := make([]T, count)
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func recordCount[T constraints.Integer](size T, recSize int) int {
	if recSize <= 0 || size <= 0 {
		return 0
	}
	return int(size) / recSize
}

// degreesToRadians
func degreesToRadians[T constraints.Integer | constraints.Float](n T) float64 {
	return float64(n) * (math.Pi / 180)
}

func fixedToFloat[T constraints.Signed](n T) float64 {
	return float64(n) / (1 << 16)
}
