package wad

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stuarthighley/wad/v2/internal/testutil"
)

func greyPlaypal() []byte {
	data := make([]byte, 768)
	for i := range 256 {
		data[i*3], data[i*3+1], data[i*3+2] = byte(i), byte(i), byte(i)
	}
	return data
}

// 2x3 patch: column 0 has pixels 5,6 from the top, column 1 has 9 at y=1.
func testPatch() []byte {
	return []byte{
		2, 0, 3, 0, 0xfe, 0xff, 4, 0, // width, height, left -2, top 4
		16, 0, 0, 0, 23, 0, 0, 0,
		0, 2, 0, 5, 6, 0, 0xff,
		1, 1, 0, 9, 0, 0xff,
	}
}

func grey(v uint8) color.NRGBA {
	return color.NRGBA{v, v, v, 0xff}
}

func TestDecodePicture(t *testing.T) {
	pal, err := DecodePalette(greyPlaypal())
	require.NoError(t, err)

	pic, err := DecodePicture(testPatch(), pal)
	require.NoError(t, err)
	assert.Equal(t, 2, pic.Bounds().Dx())
	assert.Equal(t, 3, pic.Bounds().Dy())
	assert.Equal(t, -2, pic.LeftOffset)
	assert.Equal(t, 4, pic.TopOffset)

	assert.Equal(t, grey(5), pic.NRGBAAt(0, 0))
	assert.Equal(t, grey(6), pic.NRGBAAt(0, 1))
	assert.Equal(t, color.NRGBA{}, pic.NRGBAAt(0, 2))
	assert.Equal(t, color.NRGBA{}, pic.NRGBAAt(1, 0))
	assert.Equal(t, grey(9), pic.NRGBAAt(1, 1))
}

func TestDecodePictureErrors(t *testing.T) {
	pal, err := DecodePalette(greyPlaypal())
	require.NoError(t, err)

	_, err = DecodePicture([]byte{1, 2}, pal)
	assert.ErrorIs(t, err, ErrNotGraphic)

	truncated := testPatch()[:20]
	_, err = DecodePicture(truncated, pal)
	assert.ErrorIs(t, err, ErrNotGraphic)

	_, err = DecodePicture(testPatch(), pal[:10])
	assert.ErrorIs(t, err, ErrNoPalette)

	_, err = DecodePalette(make([]byte, 100))
	assert.ErrorIs(t, err, ErrNoPalette)
}

func TestDecodeFlat(t *testing.T) {
	pal, err := DecodePalette(greyPlaypal())
	require.NoError(t, err)

	data := make([]byte, 4096)
	data[64+3] = 200
	pic, err := DecodeFlat(data, pal)
	require.NoError(t, err)
	assert.Equal(t, 64, pic.Bounds().Dx())
	assert.Equal(t, grey(200), pic.NRGBAAt(3, 1))
	assert.Equal(t, grey(0), pic.NRGBAAt(0, 0))

	_, err = DecodeFlat(make([]byte, 100), pal)
	assert.ErrorIs(t, err, ErrNotGraphic)
}

func TestArchivePicture(t *testing.T) {
	data := testutil.BuildWAD(t, "PWAD",
		testutil.L("PLAYPAL", greyPlaypal()),
		testutil.L("TITLEPIC", testPatch()),
		testutil.Marker("F_START"),
		testutil.L("FLOOR", make([]byte, 4096)),
		testutil.Marker("F_END"),
		testutil.L("README", []byte("text")),
	)
	a, err := Open(data)
	require.NoError(t, err)

	pic, err := a.Picture(a.FindFirst(SearchOptions{Name: "TITLEPIC"}))
	require.NoError(t, err)
	assert.Equal(t, grey(9), pic.NRGBAAt(1, 1))

	flat, err := a.Picture(a.FindFirst(SearchOptions{Name: "FLOOR"}))
	require.NoError(t, err)
	assert.Equal(t, 64, flat.Bounds().Dy())

	_, err = a.Picture(a.FindFirst(SearchOptions{Name: "README"}))
	assert.ErrorIs(t, err, ErrNotGraphic)
	_, err = a.Picture(NewEntry("LOOSE", nil))
	assert.ErrorIs(t, err, ErrNotInArchive)

	empty, err := New()
	require.NoError(t, err)
	_, err = empty.Palette()
	assert.ErrorIs(t, err, ErrNoPalette)
}
