package image

import (
	"fmt"
	"math"
)

// Size is a pixel dimension pair, the zero Size means "keep native"
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// IsZero ...
func (s Size) IsZero() bool { return s.Width == 0 && s.Height == 0 }

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Policy decides how a requested box is applied
type Policy uint8

const (
	// Preserve fits the image inside the box keeping its aspect ratio
	Preserve Policy = iota
	// Force stretches the image to the box exactly
	Force
)

func (p Policy) String() string {
	if p == Force {
		return "force"
	}
	return "preserve"
}

// Plan computes the output size of an image of native size for the requested box.
//
// A zero box keeps the native size. With Preserve the image is scaled by
// min(box.Width/native.Width, box.Height/native.Height), each side rounded to
// the nearest integer and never below 1; with Force the box is returned as is.
func Plan(native, box Size, policy Policy) (Size, error) {
	if native.Width <= 0 || native.Height <= 0 {
		return Size{}, fmt.Errorf("%w: native size %s", ErrInvalidImage, native)
	}
	if box.IsZero() {
		return native, nil
	}
	if box.Width <= 0 || box.Height <= 0 {
		return Size{}, fmt.Errorf("%w: got %s", ErrInvalidBox, box)
	}
	if policy == Force {
		return box, nil
	}

	scale := math.Min(
		float64(box.Width)/float64(native.Width),
		float64(box.Height)/float64(native.Height),
	)
	return Size{
		Width:  scaleSide(native.Width, scale),
		Height: scaleSide(native.Height, scale),
	}, nil
}

func scaleSide(n int, scale float64) int {
	return max(1, int(math.Round(float64(n)*scale)))
}
