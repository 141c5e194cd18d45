package wad

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stuarthighley/wad/v2/internal/testutil"
	"github.com/stuarthighley/wad/v2/internal/wadfmt"
)

func TestDirectoryQuirks(t *testing.T) {
	payload := []byte("AAAABBBB")
	tests := []struct {
		name    string
		records []testutil.Record
		want    []string
	}{
		{
			name: "data at offset zero is dropped",
			records: []testutil.Record{
				{Offset: 0, Size: 4, Name: "BAD"},
				{Offset: 12, Size: 4, Name: "GOOD"},
			},
			want: []string{"GOOD"},
		},
		{
			name: "clone offsets are dropped",
			records: []testutil.Record{
				{Offset: 12, Size: 4, Name: "FIRST"},
				{Offset: 12, Size: 4, Name: "CLONE"},
				{Offset: 16, Size: 4, Name: "SECOND"},
			},
			want: []string{"FIRST", "SECOND"},
		},
		{
			name: "empty lumps may share offsets",
			records: []testutil.Record{
				{Offset: 12, Size: 0, Name: "M1"},
				{Offset: 12, Size: 0, Name: "M2"},
				{Offset: 12, Size: 4, Name: "DATA"},
			},
			want: []string{"M1", "M2", "DATA"},
		},
		{
			name: "empty lump past the end is kept",
			records: []testutil.Record{
				{Offset: 99999, Size: 0, Name: "MARKER"},
			},
			want: []string{"MARKER"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Open(testutil.BuildRaw(t, "PWAD", payload, tt.records))
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(a.Entries()))
		})
	}
}

func TestDirectoryResetsGarbageOffset(t *testing.T) {
	a, err := Open(testutil.BuildRaw(t, "PWAD", nil, []testutil.Record{{Offset: 99999, Size: 0, Name: "MARKER"}}))
	require.NoError(t, err)
	off, ok := a.Entry(0).Prop(PropOffset)
	require.True(t, ok)
	assert.Equal(t, 0, off)
}

func TestDirectoryLumpPastEnd(t *testing.T) {
	data := testutil.BuildRaw(t, "PWAD", []byte("AAAA"), []testutil.Record{
		{Offset: 12, Size: 400, Name: "HUGE"},
	})
	_, err := Open(data)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestDirectoryEncryptedLump(t *testing.T) {
	// "ABC" then a copy of the last three bytes twice, then the end marker
	stream := []byte{0x18, 'A', 'B', 'C', 0x00, 0x25, 0x00, 0x00}
	payload := append(append([]byte{}, stream...), []byte("xyz")...)
	data := testutil.BuildRaw(t, "PWAD", payload, []testutil.Record{
		{Offset: 12, Size: 9, Name: "\xc5NCODED"},
		{Offset: 0, Size: 0, Name: "MARKER"},
		{Offset: 20, Size: 3, Name: "PLAIN"},
	})

	a, err := Open(data)
	require.NoError(t, err)
	require.Equal(t, []string{"ENCODED", "MARKER", "PLAIN"}, names(a.Entries()))

	enc := a.Entry(0)
	assert.True(t, enc.IsEncrypted())
	assert.Equal(t, 9, enc.Size())
	full, ok := enc.Prop(PropFullSize)
	require.True(t, ok)
	assert.Equal(t, 9, full)
	got, err := enc.Data()
	require.NoError(t, err)
	assert.Equal(t, []byte("ABCABCABC"), got)

	plain, err := a.Entry(2).Data()
	require.NoError(t, err)
	assert.Equal(t, []byte("xyz"), plain)

	// Writing stores the decoded data and clears the flag
	out, err := a.Write()
	require.NoError(t, err)
	assert.False(t, enc.IsEncrypted())
	_, ok = enc.Prop(PropFullSize)
	assert.False(t, ok)

	b, err := Open(out)
	require.NoError(t, err)
	got, err = b.Entry(0).Data()
	require.NoError(t, err)
	assert.Equal(t, []byte("ABCABCABC"), got)
	assert.False(t, b.Entry(0).IsEncrypted())
}

func TestDirectoryEncryptedLastLump(t *testing.T) {
	stream := []byte{0x18, 'A', 'B', 'C', 0x00, 0x25, 0x00, 0x00}
	data := testutil.BuildRaw(t, "PWAD", stream, []testutil.Record{
		{Offset: 12, Size: 9, Name: "\xc5NCODED"},
	})
	a, err := Open(data)
	require.NoError(t, err)
	got, err := a.Entry(0).Data()
	require.NoError(t, err)
	assert.Equal(t, []byte("ABCABCABC"), got)
}

func TestEncryptedSize(t *testing.T) {
	// Stored size ends at the next non-zero offset, else at the directory
	recs := []struct{ off, size uint32 }{{12, 100}, {0, 0}, {40, 4}}
	dir := make([]testutil.Record, len(recs))
	for i, r := range recs {
		dir[i] = testutil.Record{Offset: r.off, Size: r.size}
	}
	records := toDirEntries(dir)
	assert.Equal(t, int64(28), encryptedSize(records, 0, 12, 44, 108))
	assert.Equal(t, int64(4), encryptedSize(records, 2, 40, 44, 108))
	assert.Equal(t, int64(68), encryptedSize(records, 2, 40, 30, 108))
	assert.Equal(t, int64(16), encryptedSize(records[:2], 0, 12, 28, 60))

	// A reset offset counts from the start of the data
	assert.Equal(t, int64(40), encryptedSize(records[1:], 0, 0, 44, 108))
}

func TestDirectoryEncryptedMarkerAtGarbageOffset(t *testing.T) {
	data := testutil.BuildRaw(t, "PWAD", []byte("AAAA"), []testutil.Record{
		{Offset: 99999, Size: 0, Name: "\xc6_START"},
		{Offset: 12, Size: 4, Name: "FLOOR"},
	})
	a, err := Open(data)
	require.NoError(t, err)
	require.Equal(t, []string{"F_START", "FLOOR"}, names(a.Entries()))

	marker := a.Entry(0)
	assert.True(t, marker.IsEncrypted())
	assert.Equal(t, 0, marker.Size())
	off, ok := marker.Prop(PropOffset)
	require.True(t, ok)
	assert.Equal(t, 0, off)
	got, err := marker.Data()
	require.NoError(t, err)
	assert.Empty(t, got)

	floor, err := a.Entry(1).Data()
	require.NoError(t, err)
	assert.Equal(t, []byte("AAAA"), floor)
}

func toDirEntries(recs []testutil.Record) []wadfmt.DirEntry {
	out := make([]wadfmt.DirEntry, len(recs))
	for i, r := range recs {
		out[i] = wadfmt.DirEntry{Offset: r.Offset, Size: r.Size, Name: wadfmt.MakeString8(r.Name)}
	}
	return out
}
