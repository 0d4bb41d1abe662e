package image

import (
	"context"
	"fmt"
	"io"
	"os"

	zlog "github.com/go-imsto/imconv/log"
)

func logger() zlog.Logger {
	return zlog.Get()
}

// CodecOption ...
type CodecOption func(*Codec)

// WithHEIF enables the HEIF codec through the given libheif commands,
// pass the result of ProbeHEIF as enabled.
func WithHEIF(enabled bool, encoder, decoder string) CodecOption {
	return func(c *Codec) {
		if enabled {
			c.heif = &heifTool{encoder: encoder, decoder: decoder}
		} else {
			c.heif = nil
		}
	}
}

// Codec decodes source files into handles and writes them back in a target format
type Codec struct {
	heif *heifTool
}

// NewCodec ...
func NewCodec(opts ...CodecOption) *Codec {
	c := &Codec{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Available reports whether f can be decoded and encoded right now
func (c *Codec) Available(f Format) bool {
	if !f.Valid() {
		return false
	}
	if f == HEIF {
		return c.heif != nil
	}
	return true
}

// Open reads and decodes the file at path. The caller owns the returned handle.
func (c *Codec) Open(ctx context.Context, path string) (*Handle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	return c.decode(ctx, path, data)
}

// Inspect decodes the file at path and returns its attributes
func (c *Codec) Inspect(ctx context.Context, path string) (*Attr, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	h, err := c.decode(ctx, path, data)
	if err != nil {
		return nil, err
	}
	defer h.Close()
	a := h.Attr()
	a.Name = path
	a.Hash = SumContent(data)
	return a, nil
}

func (c *Codec) decode(ctx context.Context, path string, data []byte) (h *Handle, err error) {
	f := GuessFormat(data)
	logger().Debugw("guess format", "path", path, "format", f)

	switch f {
	case PNG:
		h, err = decodePNG(data)
	case APNG:
		h, err = decodeAPNG(data)
	case JPEG:
		h, err = decodeJPEG(data)
	case WEBP:
		h, err = decodeWebP(data)
	case GIF:
		h, err = decodeGIF(data)
	case TIFF:
		h, err = decodeTIFF(data)
	case BMP:
		h, err = decodeBMP(data)
	case HEIF:
		if c.heif == nil {
			return nil, fmt.Errorf("%w: heif decoder for %s", ErrMissingCodec, path)
		}
		h, err = c.heif.decode(ctx, data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	if h.Canvas.Width <= 0 || h.Canvas.Height <= 0 || len(h.Frames) == 0 {
		return nil, fmt.Errorf("%w: %s has size %s and %d frames", ErrInvalidImage, path, h.Canvas, len(h.Frames))
	}
	h.Path = path
	h.Bytes = int64(len(data))
	return h, nil
}

// encode writes frames in format f, frames beyond the first are only
// given to animation capable formats
func (c *Codec) encode(ctx context.Context, w io.Writer, f Format, frames []Frame, loop, quality int) error {
	m := frames[0].Image
	switch f {
	case PNG:
		return encodePNG(w, m)
	case APNG:
		return encodeAPNG(w, frames, loop)
	case JPEG:
		return encodeJPEG(w, m, quality)
	case WEBP:
		return encodeWebP(w, frames, loop, quality)
	case GIF:
		return encodeGIF(w, frames, loop)
	case TIFF:
		return encodeTIFF(w, frames)
	case BMP:
		return encodeBMP(w, m)
	case HEIF:
		if c.heif == nil {
			return ErrMissingCodec
		}
		return c.heif.encode(ctx, w, m, quality)
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
}
