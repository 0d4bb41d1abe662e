package image

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is a supported image container
type Format uint8

const (
	FormatNone Format = iota
	PNG
	APNG
	JPEG
	WEBP
	GIF
	TIFF
	BMP
	HEIF

	formatCount
)

type capability struct {
	name     string
	mime     string
	animated bool // encoder can write more than one frame
	lossy    bool // encoder takes a quality
	optional bool // codec depends on a runtime probe
}

// indexed by Format, a missing entry fails TestFormatTable
var capabilities = [formatCount]capability{
	FormatNone: {name: "unknown"},
	PNG:        {name: "png", mime: "image/png"},
	APNG:       {name: "apng", mime: "image/apng", animated: true},
	JPEG:       {name: "jpeg", mime: "image/jpeg", lossy: true},
	WEBP:       {name: "webp", mime: "image/webp", animated: true, lossy: true},
	GIF:        {name: "gif", mime: "image/gif", animated: true},
	TIFF:       {name: "tiff", mime: "image/tiff", animated: true},
	BMP:        {name: "bmp", mime: "image/bmp"},
	HEIF:       {name: "heif", mime: "image/heif", lossy: true, optional: true},
}

func (z Format) cap() capability {
	if z >= formatCount {
		return capabilities[FormatNone]
	}
	return capabilities[z]
}

func (z Format) String() string { return z.cap().name }

// Mime ...
func (z Format) Mime() string { return z.cap().mime }

// Animated reports whether the encoder for z writes multi-frame output
func (z Format) Animated() bool { return z.cap().animated }

// Lossy reports whether the encoder for z honours a quality setting
func (z Format) Lossy() bool { return z.cap().lossy }

// Optional reports whether the codec for z is only present after a successful probe
func (z Format) Optional() bool { return z.cap().optional }

// Ext is the extension of the first token naming z
func (z Format) Ext() string {
	for _, t := range tokens {
		if t.Format == z {
			return t.Ext()
		}
	}
	return ""
}

// Valid ...
func (z Format) Valid() bool { return z > FormatNone && z < formatCount }

// MarshalText implements the encoding.TextMarshaler interface.
func (z Format) MarshalText() ([]byte, error) {
	return []byte(z.String()), nil
}

// AllToken is the input-only wildcard matching every supported extension
const AllToken = "all"

// Token is a user facing format name, as typed on the command line
type Token struct {
	Name     string   `json:"name"`
	Format   Format   `json:"format"`
	Suffixes []string `json:"suffixes"`
}

var tokens = []Token{
	{Name: "png", Format: PNG, Suffixes: []string{".png"}},
	{Name: "jpg", Format: JPEG, Suffixes: []string{".jpg", ".jpeg", ".jfif", ".jpe"}},
	{Name: "jpeg", Format: JPEG, Suffixes: []string{".jpg", ".jpeg", ".jfif", ".jpe"}},
	{Name: "webp", Format: WEBP, Suffixes: []string{".webp"}},
	{Name: "tiff", Format: TIFF, Suffixes: []string{".tiff", ".tif"}},
	{Name: "bmp", Format: BMP, Suffixes: []string{".bmp"}},
	{Name: "gif", Format: GIF, Suffixes: []string{".gif"}},
	{Name: "apng", Format: APNG, Suffixes: []string{".png", ".apng"}},
	{Name: "heic", Format: HEIF, Suffixes: []string{".heic"}},
	{Name: "heif", Format: HEIF, Suffixes: []string{".heif", ".avif"}},
}

// Tokens returns a copy of the supported token table
func Tokens() []Token {
	out := make([]Token, len(tokens))
	copy(out, tokens)
	return out
}

// TokenNames ...
func TokenNames() []string {
	names := make([]string, len(tokens))
	for i, t := range tokens {
		names[i] = t.Name
	}
	return names
}

func normalizeToken(s string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")
}

// ParseInputToken accepts any supported token or the wildcard
func ParseInputToken(s string) (Token, error) {
	if normalizeToken(s) == AllToken {
		return Token{Name: AllToken}, nil
	}
	return parseToken(s, "input")
}

// ParseOutputToken accepts a supported token, the wildcard is rejected
func ParseOutputToken(s string) (Token, error) {
	return parseToken(s, "output")
}

func parseToken(s, kind string) (Token, error) {
	name := normalizeToken(s)
	for _, t := range tokens {
		if t.Name == name {
			return t, nil
		}
	}
	return Token{}, fmt.Errorf("%w: %s format %q, supported are %s",
		ErrUnsupportedFormat, kind, s, strings.Join(TokenNames(), ", "))
}

// IsWildcard ...
func (t Token) IsWildcard() bool { return t.Name == AllToken }

// Ext is the extension given to output files
func (t Token) Ext() string {
	if len(t.Suffixes) == 0 {
		return ""
	}
	return t.Suffixes[0]
}

// Match reports whether the extension of filename belongs to t, ignoring case
func (t Token) Match(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return false
	}
	if t.IsWildcard() {
		for _, tt := range tokens {
			if tt.hasSuffix(ext) {
				return true
			}
		}
		return false
	}
	return t.hasSuffix(ext)
}

func (t Token) hasSuffix(ext string) bool {
	for _, s := range t.Suffixes {
		if s == ext {
			return true
		}
	}
	return false
}

func (t Token) String() string { return t.Name }
