package imaging_test

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapkeep/printworks/internal/imaging"
)

func TestDerivedURLCrop(t *testing.T) {
	ix := imaging.NewImgix(testCropConfig())

	src := "https://photos.example.com/a/b.jpg"
	got := ix.DerivedURL(src, imaging.Instruction{Width: 1800, Height: 1200, Mode: imaging.ModeCrop})

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "proxy.imgix.net", u.Host)
	// Web-proxy style: the path is the encoded source URL.
	assert.Equal(t, "/"+url.QueryEscape(src), u.EscapedPath())

	q := u.Query()
	assert.Equal(t, "1800", q.Get("w"))
	assert.Equal(t, "1200", q.Get("h"))
	assert.Equal(t, "crop", q.Get("fit"))
	assert.Equal(t, "faces", q.Get("crop"))
}

func TestDerivedURLFill(t *testing.T) {
	ix := imaging.NewImgix(testCropConfig())

	got := ix.DerivedURL("https://photos.example.com/c.jpg",
		imaging.Instruction{Width: 1200, Height: 1200, Mode: imaging.ModeFill})

	q, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "fill", q.Query().Get("fit"))
	assert.Equal(t, "solid", q.Query().Get("fill"))
	assert.Equal(t, "fff", q.Query().Get("bg"))
}

func TestDerivedURLPassthrough(t *testing.T) {
	ix := imaging.NewImgix(testCropConfig())

	src := "https://photos.example.com/original.jpg"
	assert.Equal(t, src, ix.DerivedURL(src, imaging.Instruction{Mode: imaging.ModePassthrough}))
}

func TestDerivedURLSigned(t *testing.T) {
	cfg := testCropConfig()
	cfg.ImgixToken = "secret"
	ix := imaging.NewImgix(cfg)

	got := ix.DerivedURL("https://photos.example.com/d.jpg",
		imaging.Instruction{Width: 1800, Height: 1200, Mode: imaging.ModeCrop})

	require.Contains(t, got, "&s=")
	sig := got[strings.LastIndex(got, "&s=")+3:]
	assert.Len(t, sig, 32) // md5 hex

	// Same input signs identically; a different box signs differently.
	again := ix.DerivedURL("https://photos.example.com/d.jpg",
		imaging.Instruction{Width: 1800, Height: 1200, Mode: imaging.ModeCrop})
	assert.Equal(t, got, again)

	other := ix.DerivedURL("https://photos.example.com/d.jpg",
		imaging.Instruction{Width: 1200, Height: 1800, Mode: imaging.ModeCrop})
	assert.NotEqual(t, got, other)
}
