package blob

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeBMP(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, img))
	return buf.Bytes()
}

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestNormalizeWritesWebSafeFormatsVerbatim(t *testing.T) {
	dir := t.TempDir()
	n := NewNormalizer(nil)

	for _, ext := range []string{"png", "JPG", "jpeg", "webp"} {
		data := []byte("not even an image " + ext)
		target := filepath.Join(dir, "001_1."+ext)

		name, err := n.Normalize(data, ext, target)
		require.NoError(t, err, ext)
		assert.Equal(t, "001_1."+ext, name)

		got, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Equal(t, data, got)
	}
}

func TestNormalizeReencodesUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	n := NewNormalizer(nil)
	src := encodeBMP(t, solid(4, 3, color.RGBA{R: 200, G: 10, B: 10, A: 255}))

	name, err := n.Normalize(src, "bmp", filepath.Join(dir, "002_1.bmp"))
	require.NoError(t, err)
	assert.Equal(t, "002_1.png", name)

	out, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.NotEqual(t, src, out)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 3), img.Bounds())

	_, err = os.Stat(filepath.Join(dir, "002_1.bmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestNormalizeReportsUndecodablePayload(t *testing.T) {
	dir := t.TempDir()
	var logs bytes.Buffer
	n := NewNormalizer(newTestLogger(&logs))

	name, err := n.Normalize([]byte("\x01\x00\x00\x00garbage"), "emf", filepath.Join(dir, "003_1.emf"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnrecoverable))
	assert.Empty(t, name)
	assert.Contains(t, logs.String(), "WARN:")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no partial files are left behind")
}

func TestNormalizeFallsBackWhenVerbatimWriteFails(t *testing.T) {
	dir := t.TempDir()
	n := NewNormalizer(nil)
	src := encodePNG(t, solid(2, 2, color.White))

	// The declared extension collides with an existing directory, so the
	// verbatim write fails and the fallback writes the .png sibling.
	target := filepath.Join(dir, "004_1.jpg")
	require.NoError(t, os.Mkdir(target, 0755))

	name, err := n.Normalize(src, "jpg", target)
	require.NoError(t, err)
	assert.Equal(t, "004_1.png", name)
	_, err = os.Stat(filepath.Join(dir, name))
	assert.NoError(t, err)
}

func TestNormalizeColorModel(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(0, 0, 1, 1))
	assert.Same(t, rgba, normalizeColorModel(rgba))

	nrgba := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	assert.Same(t, nrgba, normalizeColorModel(nrgba))

	pal := image.NewPaletted(image.Rect(0, 0, 1, 1), color.Palette{color.Transparent, color.White})
	assert.IsType(t, &image.NRGBA{}, normalizeColorModel(pal))

	gray := image.NewGray(image.Rect(0, 0, 2, 2))
	gray.SetGray(1, 1, color.Gray{Y: 128})
	out := normalizeColorModel(gray)
	require.IsType(t, &image.RGBA{}, out)
	r, g, b, a := out.At(1, 1).RGBA()
	assert.Equal(t, uint32(0xffff), a)
	assert.Equal(t, r, g)
	assert.Equal(t, g, b)

	cmyk := image.NewCMYK(image.Rect(0, 0, 1, 1))
	assert.IsType(t, &image.RGBA{}, normalizeColorModel(cmyk))
}

func TestIsWebSafe(t *testing.T) {
	assert.True(t, IsWebSafe("PNG"))
	assert.True(t, IsWebSafe(".jpeg"))
	assert.False(t, IsWebSafe("gif"))
	assert.False(t, IsWebSafe("emf"))
	assert.False(t, IsWebSafe(""))
}
