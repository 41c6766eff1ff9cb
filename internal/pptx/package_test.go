package pptx

import (
	"errors"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/gnemet/DeckPress/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.pptx"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestOpenRejectsNonPackage(t *testing.T) {
	p := filepath.Join(t.TempDir(), "plain.pptx")
	require.NoError(t, os.WriteFile(p, []byte("hello"), 0644))

	_, err := Open(p)
	require.Error(t, err)
	assert.False(t, errors.Is(err, fs.ErrNotExist))
}

func TestSlideOrderFollowsIDList(t *testing.T) {
	deck := &testutil.Deck{
		Slides: []testutil.Slide{
			{Shapes: testutil.TextShape(2, "first part")},
			{Shapes: testutil.TextShape(2, "second part")},
			{Shapes: testutil.TextShape(2, "third part")},
		},
		Order: []int{3, 1, 2},
	}
	pkg, err := Open(deck.Write(t, t.TempDir()))
	require.NoError(t, err)
	defer pkg.Close()

	assert.Equal(t, []string{
		"ppt/slides/slide3.xml",
		"ppt/slides/slide1.xml",
		"ppt/slides/slide2.xml",
	}, pkg.SlidePartNames())

	slide, err := pkg.Slide(1)
	require.NoError(t, err)
	assert.Equal(t, 1, slide.Index)
	require.Len(t, slide.Shapes(), 1)
	assert.Equal(t, "third part", slide.Shapes()[0].Text())

	_, err = pkg.Slide(4)
	assert.Error(t, err)

	var indexes []int
	for s, err := range pkg.Slides() {
		require.NoError(t, err)
		indexes = append(indexes, s.Index)
	}
	assert.Equal(t, []int{1, 2, 3}, indexes)
}

func TestSlidesReportsBrokenPart(t *testing.T) {
	deck := &testutil.Deck{
		Slides: []testutil.Slide{
			{Shapes: testutil.TextShape(2, "ok")},
			{Raw: "<p:sld"},
		},
	}
	pkg, err := Open(deck.Write(t, t.TempDir()))
	require.NoError(t, err)
	defer pkg.Close()

	var errs []error
	var names []string
	for s, err := range pkg.Slides() {
		errs = append(errs, err)
		names = append(names, s.PartName)
	}
	require.Len(t, errs, 2)
	assert.NoError(t, errs[0])
	assert.Error(t, errs[1])
	assert.Equal(t, []string{"ppt/slides/slide1.xml", "ppt/slides/slide2.xml"}, names)
}

func TestResolve(t *testing.T) {
	img := testutil.PNG(t, 2, 2, color.White)
	deck := &testutil.Deck{
		Slides: []testutil.Slide{{
			Shapes: testutil.PictureShape(2, "rId2"),
			Images: map[string]string{
				"rId2": "image1.PNG",
				"rId3": "missing.png",
				"rId4": "https://example.com/logo.png",
				"rId5": "blob",
			},
		}},
		Media: map[string][]byte{"image1.PNG": img, "blob": img},
	}
	pkg, err := Open(deck.Write(t, t.TempDir()), WithPartCacheSize(4))
	require.NoError(t, err)
	defer pkg.Close()

	owner := "ppt/slides/slide1.xml"

	payload, err := pkg.Resolve(owner, "rId2")
	require.NoError(t, err)
	assert.Equal(t, "ppt/media/image1.PNG", payload.PartName)
	assert.Equal(t, "image1.PNG", payload.Filename)
	assert.Equal(t, "png", payload.Ext)
	assert.Equal(t, img, payload.Data)

	payload, err = pkg.Resolve(owner, "rId5")
	require.NoError(t, err)
	assert.Equal(t, "png", payload.Ext, "extensionless parts default to png")

	_, err = pkg.Resolve(owner, "rId3")
	assert.True(t, errors.Is(err, ErrPartMissing))

	_, err = pkg.Resolve(owner, "rId4")
	assert.True(t, errors.Is(err, ErrExternalTarget))

	_, err = pkg.Resolve(owner, "rId99")
	assert.True(t, errors.Is(err, ErrRelationshipNotFound))

	_, err = pkg.Resolve(owner, "")
	assert.True(t, errors.Is(err, ErrRelationshipNotFound))

	_, err = pkg.Resolve("ppt/slides/slide9.xml", "rId2")
	assert.True(t, errors.Is(err, ErrRelationshipNotFound), "parts without rels have an empty table")
}

func TestResolveTarget(t *testing.T) {
	assert.Equal(t, "ppt/media/image1.png", resolveTarget("ppt/slides/slide1.xml", "../media/image1.png"))
	assert.Equal(t, "ppt/slides/slide2.xml", resolveTarget("ppt/presentation.xml", "slides/slide2.xml"))
	assert.Equal(t, "ppt/media/x.png", resolveTarget("ppt/slides/slide1.xml", "/ppt/media/x.png"))
	assert.Equal(t, "ppt/slides/_rels/slide1.xml.rels", relsPartName("ppt/slides/slide1.xml"))
}

func TestBackground(t *testing.T) {
	deck := &testutil.Deck{Slides: []testutil.Slide{
		{Background: testutil.BlipBackground("rId7")},
		{Background: `<p:bgRef idx="1001"/>`},
	}}
	pkg, err := Open(deck.Write(t, t.TempDir()))
	require.NoError(t, err)
	defer pkg.Close()

	s1, err := pkg.Slide(1)
	require.NoError(t, err)
	bg := s1.Background()
	require.NotNil(t, bg)
	assert.Equal(t, []string{"rId7"}, BlipRefs(bg, false))

	s2, err := pkg.Slide(2)
	require.NoError(t, err)
	assert.Nil(t, s2.Background())
}
