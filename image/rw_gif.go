package image

import (
	"bytes"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"io"
	"math"
	"time"

	"github.com/disintegration/imaging"
)

func decodeGIF(data []byte) (*Handle, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if len(g.Image) == 0 {
		return nil, ErrInvalidImage
	}

	w, h := g.Config.Width, g.Config.Height
	if w <= 0 || h <= 0 {
		var r image.Rectangle
		for _, p := range g.Image {
			r = r.Union(p.Bounds())
		}
		w, h = r.Max.X, r.Max.Y
	}

	canvas := imaging.New(w, h, color.Transparent)
	frames := make([]Frame, 0, len(g.Image))
	for i, p := range g.Image {
		var disposal byte
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		var prev *image.NRGBA
		if disposal == gif.DisposalPrevious {
			prev = imaging.Clone(canvas)
		}

		canvas = imaging.Overlay(canvas, p, p.Bounds().Min, 1.0)
		var delay time.Duration
		if i < len(g.Delay) {
			delay = time.Duration(g.Delay[i]) * 10 * time.Millisecond
		}
		frames = append(frames, Frame{Image: imaging.Clone(canvas), Delay: frameDelay(delay)})

		switch disposal {
		case gif.DisposalBackground:
			r := p.Bounds()
			canvas = imaging.Paste(canvas, imaging.New(r.Dx(), r.Dy(), color.Transparent), r.Min)
		case gif.DisposalPrevious:
			canvas = prev
		}
	}

	return &Handle{
		Format: GIF,
		Canvas: Size{Width: w, Height: h},
		Frames: frames,
		Loop:   gifPlays(g.LoopCount),
	}, nil
}

// gif.GIF.LoopCount counts restarts (-1 plays once), Handle.Loop counts plays
func gifPlays(loopCount int) int {
	switch {
	case loopCount == 0:
		return 0
	case loopCount < 0:
		return 1
	}
	return loopCount + 1
}

func gifLoopCount(plays int) int {
	switch {
	case plays == 0:
		return 0
	case plays == 1:
		return -1
	}
	return plays - 1
}

func encodeGIF(w io.Writer, frames []Frame, loop int) error {
	if len(frames) == 1 {
		return gif.Encode(w, frames[0].Image, &gif.Options{NumColors: 256})
	}
	g := &gif.GIF{LoopCount: gifLoopCount(loop)}
	for _, f := range frames {
		g.Image = append(g.Image, toPaletted(f.Image))
		g.Delay = append(g.Delay, gifDelay(f.Delay))
		g.Disposal = append(g.Disposal, gif.DisposalBackground)
	}
	return gif.EncodeAll(w, g)
}

// gifDelay rounds d to hundredths of a second
func gifDelay(d time.Duration) int {
	cs := int(math.Round(float64(d) / float64(10*time.Millisecond)))
	return max(1, cs)
}

// frames carrying transparency get a web-safe palette plus a transparent entry
var transparentPalette = append(color.Palette{color.Transparent}, palette.WebSafe...)

func toPaletted(m image.Image) *image.Paletted {
	pal := color.Palette(palette.Plan9)
	if !isOpaque(m) {
		pal = transparentPalette
	}
	b := m.Bounds()
	p := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), pal)
	draw.FloydSteinberg.Draw(p, p.Bounds(), m, b.Min)
	return p
}

func isOpaque(m image.Image) bool {
	if o, ok := m.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}
