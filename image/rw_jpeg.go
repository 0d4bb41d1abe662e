package image

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"io"

	"github.com/disintegration/imaging"
)

func decodeJPEG(data []byte) (*Handle, error) {
	m, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return stillHandle(JPEG, m), nil
}

func encodeJPEG(w io.Writer, m image.Image, quality int) error {
	return jpeg.Encode(w, flatten(m), &jpeg.Options{Quality: quality})
}

// flatten composes m over white, JPEG has no alpha channel
func flatten(m image.Image) image.Image {
	if isOpaque(m) {
		return m
	}
	b := m.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, m, image.Point{}, 1.0)
}
