// Package testutil builds WAD images in memory for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stuarthighley/wad/v2/internal/wadfmt"
)

// Lump is a named piece of data.
type Lump struct {
	Name string
	Data []byte
}

// L is shorthand for a Lump.
func L(name string, data []byte) Lump {
	return Lump{Name: name, Data: data}
}

// Marker is an empty lump.
func Marker(name string) Lump {
	return Lump{Name: name}
}

// Record is a raw directory record. Name is copied byte for byte, so it can carry a high bit.
type Record struct {
	Offset uint32
	Size   uint32
	Name   string
}

// BuildWAD lays out lumps the way a WAD writer does: header, data from offset 12, directory.
func BuildWAD(tb testing.TB, magic string, lumps ...Lump) []byte {
	tb.Helper()
	var payload []byte
	records := make([]Record, len(lumps))
	offset := uint32(wadfmt.HeaderSize)
	for i, l := range lumps {
		records[i] = Record{Offset: offset, Size: uint32(len(l.Data)), Name: l.Name}
		payload = append(payload, l.Data...)
		offset += uint32(len(l.Data))
	}
	return BuildRaw(tb, magic, payload, records)
}

// BuildRaw writes payload at offset 12 followed by the given directory records.
func BuildRaw(tb testing.TB, magic string, payload []byte, records []Record) []byte {
	tb.Helper()
	var buf bytes.Buffer
	header := wadfmt.Header{
		NumLumps:  uint32(len(records)),
		DirOffset: uint32(wadfmt.HeaderSize + len(payload)),
	}
	copy(header.Magic[:], magic)
	require.NoError(tb, binary.Write(&buf, binary.LittleEndian, header))
	buf.Write(payload)
	for _, r := range records {
		rec := wadfmt.DirEntry{Offset: r.Offset, Size: r.Size, Name: wadfmt.MakeString8(r.Name)}
		require.NoError(tb, binary.Write(&buf, binary.LittleEndian, rec))
	}
	return buf.Bytes()
}

// DoomMap returns the lumps of a minimal Doom-format map: one thing and a single triangle.
func DoomMap(name string) []Lump {
	things := le(int16(64), int16(-32), int16(90), int16(1), int16(7))
	vertexes := le(int16(0), int16(0), int16(128), int16(0), int16(0), int16(256))
	return []Lump{
		Marker(name),
		L("THINGS", things),
		L("LINEDEFS", make([]byte, 14*3)),
		L("SIDEDEFS", make([]byte, 30*3)),
		L("VERTEXES", vertexes),
		L("SEGS", make([]byte, 12)),
		L("SSECTORS", make([]byte, 4)),
		L("NODES", make([]byte, 28)),
		L("SECTORS", make([]byte, 26)),
		L("REJECT", []byte{0}),
		L("BLOCKMAP", make([]byte, 8)),
	}
}

// HexenMap is DoomMap with a BEHAVIOR lump and Hexen-sized things.
func HexenMap(name string) []Lump {
	lumps := DoomMap(name)
	lumps[1] = L("THINGS", make([]byte, 20*2))
	lumps[2] = L("LINEDEFS", make([]byte, 16*3))
	return append(lumps, L("BEHAVIOR", []byte("ACS\x00")))
}

// UDMFMap returns a UDMF map; without end the ENDMAP lump is left out.
func UDMFMap(name string, end bool, extra ...Lump) []Lump {
	lumps := []Lump{
		Marker(name),
		L("TEXTMAP", []byte("namespace = \"zdoom\";\n")),
	}
	lumps = append(lumps, extra...)
	if end {
		lumps = append(lumps, Marker("ENDMAP"))
	}
	return lumps
}

// Concat joins lump lists.
func Concat(lists ...[]Lump) []Lump {
	var out []Lump
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

func le(values ...any) []byte {
	var buf bytes.Buffer
	for _, v := range values {
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}
	return buf.Bytes()
}
