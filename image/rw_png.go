package image

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"time"

	"github.com/disintegration/imaging"
	"github.com/kettek/apng"
)

// APNG frame control values, see the fcTL chunk
const (
	apngDisposeNone       byte = 0
	apngDisposeBackground byte = 1
	apngDisposePrevious   byte = 2
	apngBlendSource       byte = 0
	apngBlendOver         byte = 1
)

func decodePNG(data []byte) (*Handle, error) {
	m, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return stillHandle(PNG, m), nil
}

func decodeAPNG(data []byte) (*Handle, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	a, err := apng.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var parts []apng.Frame
	for _, f := range a.Frames {
		if !f.IsDefault {
			parts = append(parts, f)
		}
	}
	if len(parts) == 0 {
		parts = a.Frames
	}
	if len(parts) == 0 {
		return nil, ErrInvalidImage
	}

	canvas := imaging.New(cfg.Width, cfg.Height, color.Transparent)
	frames := make([]Frame, 0, len(parts))
	for _, f := range parts {
		if f.Image == nil {
			continue
		}
		pos := f.Image.Bounds().Min
		if pos == (image.Point{}) {
			pos = image.Pt(f.XOffset, f.YOffset)
		}
		var prev *image.NRGBA
		if f.DisposeOp == apngDisposePrevious {
			prev = imaging.Clone(canvas)
		}

		if f.BlendOp == apngBlendOver {
			canvas = imaging.Overlay(canvas, f.Image, pos, 1.0)
		} else {
			canvas = imaging.Paste(canvas, f.Image, pos)
		}
		frames = append(frames, Frame{
			Image: imaging.Clone(canvas),
			Delay: frameDelay(apngDelay(f.DelayNumerator, f.DelayDenominator)),
		})

		switch f.DisposeOp {
		case apngDisposeBackground:
			r := f.Image.Bounds()
			canvas = imaging.Paste(canvas, imaging.New(r.Dx(), r.Dy(), color.Transparent), pos)
		case apngDisposePrevious:
			canvas = prev
		}
	}

	return &Handle{
		Format: APNG,
		Canvas: Size{Width: cfg.Width, Height: cfg.Height},
		Frames: frames,
		Loop:   int(a.LoopCount),
	}, nil
}

// apngDelay converts a fcTL delay fraction, a zero denominator means 1/100 s
func apngDelay(num, den uint16) time.Duration {
	if den == 0 {
		den = 100
	}
	return time.Duration(num) * time.Second / time.Duration(den)
}

func apngFraction(d time.Duration) (num, den uint16) {
	ms := d.Milliseconds()
	if ms <= 0xffff {
		return uint16(ms), 1000
	}
	cs := d.Milliseconds() / 10
	if cs > 0xffff {
		cs = 0xffff
	}
	return uint16(cs), 100
}

func encodePNG(w io.Writer, m image.Image) error {
	enc := &png.Encoder{CompressionLevel: png.BestCompression}
	return enc.Encode(w, m)
}

func encodeAPNG(w io.Writer, frames []Frame, loop int) error {
	if len(frames) == 1 {
		return encodePNG(w, frames[0].Image)
	}
	a := apng.APNG{LoopCount: uint(loop)}
	for _, f := range frames {
		num, den := apngFraction(f.Delay)
		a.Frames = append(a.Frames, apng.Frame{
			Image:            f.Image,
			DelayNumerator:   num,
			DelayDenominator: den,
			DisposeOp:        apngDisposeNone,
			BlendOp:          apngBlendSource,
		})
	}
	return apng.Encode(w, a)
}
