package wad

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stuarthighley/wad/v2/internal/testutil"
)

func names(entries []*Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name()
	}
	return out
}

func TestOpenReadsEntries(t *testing.T) {
	data := testutil.BuildWAD(t, "PWAD",
		testutil.L("PLAYPAL", make([]byte, 768)),
		testutil.Marker("F_START"),
		testutil.L("FLOOR0_1", make([]byte, 4096)),
		testutil.Marker("F_END"),
		testutil.L("README", []byte("hello")),
	)
	a, err := Open(data)
	require.NoError(t, err)

	assert.False(t, a.IsIWAD())
	assert.True(t, a.IsWritable())
	assert.Equal(t, []string{"PLAYPAL", "F_START", "FLOOR0_1", "F_END", "README"}, names(a.Entries()))
	assert.Equal(t, 5, a.NumEntries())

	readme := a.Entry(4)
	require.NotNil(t, readme)
	assert.False(t, readme.IsLoaded())
	assert.Equal(t, 5, readme.Size())
	got, err := readme.Data()
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
	assert.True(t, readme.IsLoaded())

	assert.Equal(t, "playpal", a.Entry(0).TypeID())
	assert.Equal(t, "marker", a.Entry(1).TypeID())
	assert.Equal(t, "flat", a.Entry(2).TypeID())
	assert.Equal(t, "text", readme.TypeID())
	assert.Nil(t, a.Entry(5))
	assert.Nil(t, a.Entry(-1))
}

func TestOpenHeaderErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		err  error
	}{
		{"empty", nil, ErrInvalidHeader},
		{"short", []byte("PWAD\x00\x00"), ErrInvalidHeader},
		{"bad magic", append([]byte("JUNK"), make([]byte, 8)...), ErrInvalidHeader},
		{"directory past end", []byte("PWAD\x01\x00\x00\x00\x0c\x00\x00\x00"), ErrCorrupt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Open(tt.data)
			assert.Nil(t, a)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestWriteRoundTrip(t *testing.T) {
	data := testutil.BuildWAD(t, "PWAD", testutil.Concat(
		[]testutil.Lump{testutil.L("PLAYPAL", make([]byte, 768)), testutil.Marker("S_START"), testutil.L("TROOA1", []byte{1, 2, 3}), testutil.Marker("S_END")},
		testutil.DoomMap("MAP01"),
		[]testutil.Lump{testutil.L("LONGLUMP", []byte("data"))},
	)...)

	a, err := Open(data)
	require.NoError(t, err)
	out, err := a.Write()
	require.NoError(t, err)
	assert.Equal(t, data, out)

	b, err := Open(out)
	require.NoError(t, err)
	require.Equal(t, a.NumEntries(), b.NumEntries())
	for i := 0; i < a.NumEntries(); i++ {
		x, err := a.Entry(i).Data()
		require.NoError(t, err)
		y, err := b.Entry(i).Data()
		require.NoError(t, err)
		assert.Equal(t, a.Entry(i).Name(), b.Entry(i).Name())
		assert.Equal(t, x, y)
	}
	assert.False(t, a.IsModified())
}

func TestWriteTruncatesAndPadsNames(t *testing.T) {
	a, err := New(WithForceUppercase(false))
	require.NoError(t, err)
	require.NoError(t, a.AddEntry(NewEntry("a", []byte{1}), -1))
	e := NewEntry("x", []byte{2})
	require.NoError(t, a.AddEntry(e, -1))
	e.name = "NINECHARS"

	out, err := a.Write()
	require.NoError(t, err)
	dir := out[len(out)-32:]
	assert.Equal(t, []byte{'a', 0, 0, 0, 0, 0, 0, 0}, dir[8:16])
	assert.Equal(t, []byte("NINECHAR"), dir[24:32])
	assert.Equal(t, []byte("PWAD"), out[:4])
}

func TestWriteIWADLock(t *testing.T) {
	data := testutil.BuildWAD(t, "IWAD", testutil.L("PLAYPAL", make([]byte, 768)))

	locked, err := Open(data)
	require.NoError(t, err)
	assert.True(t, locked.IsIWAD())
	assert.False(t, locked.IsWritable())
	_, err = locked.Write()
	assert.ErrorIs(t, err, ErrLocked)

	unlocked, err := Open(data, WithIWADLock(false))
	require.NoError(t, err)
	out, err := unlocked.Write()
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestWriteRebasesArchive(t *testing.T) {
	data := testutil.BuildWAD(t, "PWAD", testutil.L("A", []byte("aaaa")), testutil.L("B", []byte("bb")))
	a, err := Open(data)
	require.NoError(t, err)

	b := a.Entry(1)
	b.Import([]byte("changed"))
	assert.True(t, a.IsModified())
	assert.Equal(t, StateModified, b.State())

	out, err := a.Write()
	require.NoError(t, err)
	assert.Equal(t, StateUnmodified, b.State())
	assert.False(t, b.IsLoaded())

	off, ok := b.Prop(PropOffset)
	require.True(t, ok)
	assert.Equal(t, 16, off)
	got, err := b.Data()
	require.NoError(t, err)
	assert.Equal(t, []byte("changed"), got)
	assert.Equal(t, []byte("changed"), out[16:23])
}

func TestKeepData(t *testing.T) {
	data := testutil.BuildWAD(t, "PWAD", testutil.L("A", []byte("aaaa")))

	a, err := Open(data)
	require.NoError(t, err)
	assert.False(t, a.Entry(0).IsLoaded())

	k, err := Open(data, WithKeepData(true))
	require.NoError(t, err)
	assert.True(t, k.Entry(0).IsLoaded())
}

func TestProgressEvents(t *testing.T) {
	data := testutil.BuildWAD(t, "PWAD", testutil.L("A", []byte("a")), testutil.L("B", []byte("b")))
	var events []ProgressEvent
	_, err := Open(data, WithProgress(func(ev ProgressEvent) {
		events = append(events, ev)
	}))
	require.NoError(t, err)

	stages := map[ProgressStage]ProgressEvent{}
	for _, ev := range events {
		stages[ev.Stage] = ev
		assert.LessOrEqual(t, ev.Done, ev.Total)
	}
	for _, s := range []ProgressStage{StageReadingDirectory, StageDetectingTypes, StageDetectingMaps} {
		last, ok := stages[s]
		require.True(t, ok, s.String())
		assert.Equal(t, last.Total, last.Done, s.String())
	}
}

func TestIsWadArchive(t *testing.T) {
	assert.True(t, IsWadArchive(testutil.BuildWAD(t, "PWAD")))
	assert.True(t, IsWadArchive(testutil.BuildWAD(t, "IWAD", testutil.L("A", []byte("a")))))
	assert.False(t, IsWadArchive([]byte("PWAD")))
	assert.False(t, IsWadArchive([]byte("PWAD\x05\x00\x00\x00\x0c\x00\x00\x00")))
}

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()
	data := testutil.BuildWAD(t, "PWAD", testutil.L("README", []byte("hello")))

	plain := filepath.Join(dir, "plain.wad")
	require.NoError(t, os.WriteFile(plain, data, 0o644))
	assert.True(t, IsWadFile(plain))

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	packed := filepath.Join(dir, "packed.wad.gz")
	require.NoError(t, os.WriteFile(packed, buf.Bytes(), 0o644))
	assert.False(t, IsWadFile(packed))

	for _, path := range []string{plain, packed} {
		a, err := OpenFile(path)
		require.NoError(t, err)
		assert.Equal(t, path, a.Filename())
		assert.Equal(t, []string{"README"}, names(a.Entries()))
	}

	_, err = OpenFile(filepath.Join(dir, "missing.wad"))
	assert.Error(t, err)
	assert.False(t, IsWadFile(filepath.Join(dir, "missing.wad")))
}

func TestSave(t *testing.T) {
	data := testutil.BuildWAD(t, "PWAD", testutil.L("README", []byte("hello")))
	a, err := Open(data)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.wad")
	require.NoError(t, a.Save(path))
	assert.Equal(t, path, a.Filename())

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, written)
}

func TestEntryDigest(t *testing.T) {
	e := NewEntry("A", []byte("abc"))
	d, err := e.Digest()
	require.NoError(t, err)
	assert.Equal(t, "sha256:ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", d.String())
}
