package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stuarthighley/wad/v2"
	"github.com/stuarthighley/wad/v2/internal/testutil"
)

func writeWAD(t *testing.T, magic string, lumps ...testutil.Lump) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.wad")
	require.NoError(t, os.WriteFile(path, testutil.BuildWAD(t, magic, lumps...), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), err
}

func fixture(t *testing.T) string {
	return writeWAD(t, "PWAD", testutil.Concat(
		[]testutil.Lump{
			testutil.L("PLAYPAL", make([]byte, 768)),
			testutil.Marker("F_START"),
			testutil.L("FLOOR", make([]byte, 4096)),
			testutil.Marker("F_END"),
		},
		testutil.DoomMap("E1M1"),
	)...)
}

func TestList(t *testing.T) {
	out, err := run(t, "list", fixture(t))
	require.NoError(t, err)
	assert.Contains(t, out, "PLAYPAL")
	assert.Contains(t, out, "playpal")
	assert.Regexp(t, `FLOOR\s+4096\s+flat\s+flats`, out)
	assert.Regexp(t, `THINGS\s+10\s+\S+\s+global\s+doom`, out)
}

func TestListSeveralFiles(t *testing.T) {
	a, b := fixture(t), writeWAD(t, "PWAD", testutil.L("README", []byte("hi")))
	out, err := run(t, "list", a, b)
	require.NoError(t, err)
	ia, ib := bytes.Index([]byte(out), []byte(a)), bytes.Index([]byte(out), []byte(b))
	require.GreaterOrEqual(t, ia, 0)
	assert.Greater(t, ib, ia)
}

func TestMaps(t *testing.T) {
	out, err := run(t, "maps", fixture(t))
	require.NoError(t, err)
	assert.Regexp(t, `E1M1\s+doom\s+4-14\s+1\s+3\s+1\s+\(0,0\)-\(128,256\)`, out)
}

func TestNamespaces(t *testing.T) {
	out, err := run(t, "namespaces", fixture(t))
	require.NoError(t, err)
	assert.Regexp(t, `flats\s+F_START\s+F_END\s+1`, out)
}

func TestVerify(t *testing.T) {
	out, err := run(t, "verify", fixture(t))
	require.NoError(t, err)
	assert.Contains(t, out, "OK 15 entries sha256:")

	iwad := writeWAD(t, "IWAD", testutil.L("PLAYPAL", make([]byte, 768)))
	_, err = run(t, "verify", iwad)
	assert.NoError(t, err)
}

func TestRepack(t *testing.T) {
	in := fixture(t)
	out := filepath.Join(t.TempDir(), "out.wad")
	_, err := run(t, "repack", in, out)
	require.NoError(t, err)

	a, err := wad.OpenFile(out)
	require.NoError(t, err)
	assert.Equal(t, 15, a.NumEntries())

	iwad := writeWAD(t, "IWAD", testutil.L("PLAYPAL", make([]byte, 768)))
	_, err = run(t, "repack", iwad, out)
	assert.ErrorIs(t, err, wad.ErrLocked)

	_, err = run(t, "--unlock-iwad", "repack", iwad, out)
	assert.NoError(t, err)
}

func TestBadInput(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.wad")
	require.NoError(t, os.WriteFile(bad, []byte("nope"), 0o644))
	_, err := run(t, "list", bad)
	assert.ErrorIs(t, err, wad.ErrInvalidHeader)

	_, err = run(t, "--log-level", "loud", "list", bad)
	assert.Error(t, err)
}

func TestConfigFile(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "wadtool.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("unlock_iwad: true\nworkers: 1\n"), 0o644))
	iwad := writeWAD(t, "IWAD", testutil.L("PLAYPAL", make([]byte, 768)))
	_, err := run(t, "--config", cfg, "repack", iwad, filepath.Join(t.TempDir(), "out.wad"))
	assert.NoError(t, err)
}

func TestExport(t *testing.T) {
	in := fixture(t)
	out := filepath.Join(t.TempDir(), "floor.png")
	stdout, err := run(t, "export", in, "floor", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "64x64")

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())

	_, err = run(t, "export", in, "PLAYPAL", out)
	assert.ErrorIs(t, err, wad.ErrNotGraphic)
	_, err = run(t, "export", in, "NOPE", out)
	assert.Error(t, err)
}
