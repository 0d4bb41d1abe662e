package image

import (
	"errors"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrMissingCodec      = errors.New("codec not available")
	ErrDecode            = errors.New("decode failed")
	ErrEncode            = errors.New("encode failed")
	ErrInvalidImage      = errors.New("invalid image")
	ErrInvalidBox        = errors.New("width and height must be given together")
)
