package image

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatTable(t *testing.T) {
	for f := FormatNone + 1; f < formatCount; f++ {
		assert.NotEmpty(t, f.String(), "format %d", f)
		assert.NotEmpty(t, f.Mime(), "format %s", f)
		assert.NotEmpty(t, f.Ext(), "format %s has no token", f)
		assert.True(t, f.Valid())
	}
	assert.False(t, FormatNone.Valid())
	assert.False(t, formatCount.Valid())
	assert.Equal(t, "unknown", Format(200).String())

	assert.True(t, GIF.Animated())
	assert.True(t, APNG.Animated())
	assert.True(t, WEBP.Animated())
	assert.True(t, TIFF.Animated())
	assert.False(t, PNG.Animated())
	assert.False(t, JPEG.Animated())

	assert.True(t, JPEG.Lossy())
	assert.False(t, PNG.Lossy())
	assert.True(t, HEIF.Optional())
	assert.False(t, WEBP.Optional())

	b, err := WEBP.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "webp", string(b))
}

func TestParseToken(t *testing.T) {
	tests := []struct {
		in   string
		name string
		f    Format
		ext  string
	}{
		{"png", "png", PNG, ".png"},
		{"JPG", "jpg", JPEG, ".jpg"},
		{"jpeg", "jpeg", JPEG, ".jpg"},
		{".webp", "webp", WEBP, ".webp"},
		{" tiff ", "tiff", TIFF, ".tiff"},
		{"bmp", "bmp", BMP, ".bmp"},
		{"gif", "gif", GIF, ".gif"},
		{"apng", "apng", APNG, ".png"},
		{"heic", "heic", HEIF, ".heic"},
		{"heif", "heif", HEIF, ".heif"},
	}
	for _, tt := range tests {
		tok, err := ParseOutputToken(tt.in)
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.name, tok.Name)
		assert.Equal(t, tt.f, tok.Format)
		assert.Equal(t, tt.ext, tok.Ext())

		in, err := ParseInputToken(tt.in)
		assert.NoError(t, err)
		assert.Equal(t, tok.Name, in.Name)
	}

	tok, err := ParseInputToken("ALL")
	assert.NoError(t, err)
	assert.True(t, tok.IsWildcard())
	assert.Equal(t, "", tok.Ext())

	_, err = ParseOutputToken("all")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	_, err = ParseInputToken("svg")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	assert.Contains(t, err.Error(), "svg")
	_, err = ParseOutputToken("")
	assert.Error(t, err)
}

func TestTokenMatch(t *testing.T) {
	jpg, _ := ParseInputToken("jpg")
	assert.True(t, jpg.Match("a.jpg"))
	assert.True(t, jpg.Match("dir/B.JPEG"))
	assert.True(t, jpg.Match("c.Jfif"))
	assert.False(t, jpg.Match("d.png"))
	assert.False(t, jpg.Match("jpg"))

	apng, _ := ParseInputToken("apng")
	assert.True(t, apng.Match("a.png"))
	assert.True(t, apng.Match("a.apng"))

	all, _ := ParseInputToken("all")
	for _, name := range []string{"a.png", "b.GIF", "c.tif", "d.heic", "e.avif", "f.bmp", "g.webp"} {
		assert.True(t, all.Match(name), name)
	}
	assert.False(t, all.Match("notes.txt"))
	assert.False(t, all.Match("README"))
}

func TestTokens(t *testing.T) {
	names := TokenNames()
	assert.Len(t, names, len(Tokens()))
	assert.Contains(t, names, "jpg")
	assert.NotContains(t, names, AllToken)

	tt := Tokens()
	tt[0].Name = "changed"
	assert.Equal(t, "png", Tokens()[0].Name)
}
