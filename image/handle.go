package image

import (
	"image"
	"image/color"
	"time"

	"github.com/disintegration/imaging"
)

// DefaultDelay is used for frames whose source carries no timing
const DefaultDelay = 100 * time.Millisecond

// Frame is one full-canvas picture of an image
type Frame struct {
	Image image.Image
	Delay time.Duration
}

// Handle is a decoded image owned by a single conversion.
// Frames are already composed onto the canvas, so every frame has the canvas size.
type Handle struct {
	Path   string
	Format Format
	Canvas Size
	Frames []Frame
	// Loop is the number of plays, 0 means forever
	Loop  int
	Bytes int64
}

// Len returns the frame count
func (h *Handle) Len() int {
	return len(h.Frames)
}

// Animated ...
func (h *Handle) Animated() bool {
	return len(h.Frames) > 1
}

// Attr ...
func (h *Handle) Attr() *Attr {
	a := NewAttr(uint(h.Canvas.Width), uint(h.Canvas.Height), h.Format)
	a.Frames = len(h.Frames)
	a.Size = Size64(h.Bytes)
	a.Loop = h.Loop
	a.Delays = delaysMillis(h.Frames)
	return a
}

// Close releases the decoded pixel buffers
func (h *Handle) Close() error {
	h.Frames = nil
	return nil
}

func stillHandle(f Format, m image.Image) *Handle {
	b := m.Bounds()
	return &Handle{
		Format: f,
		Canvas: Size{Width: b.Dx(), Height: b.Dy()},
		Frames: []Frame{{Image: m, Delay: DefaultDelay}},
	}
}

func frameDelay(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultDelay
	}
	return d
}

// fitCanvas lays m on a transparent canvas of size c when their sizes differ
func fitCanvas(m image.Image, c Size) image.Image {
	b := m.Bounds()
	if b.Dx() == c.Width && b.Dy() == c.Height {
		return m
	}
	return imaging.Paste(imaging.New(c.Width, c.Height, color.Transparent), m, image.Pt(0, 0))
}
