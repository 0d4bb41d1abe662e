package image

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

const (
	gifWidth  = 16
	gifHeight = 12
)

// newGIF builds an animation of n solid frames, frame i lasts 5+i hundredths
func newGIF(t *testing.T, n int) []byte {
	t.Helper()
	g := &gif.GIF{
		Config: image.Config{Width: gifWidth, Height: gifHeight},
	}
	for i := 0; i < n; i++ {
		p := image.NewPaletted(image.Rect(0, 0, gifWidth, gifHeight), palette.Plan9)
		idx := uint8(16 + i*20)
		for j := range p.Pix {
			p.Pix[j] = idx
		}
		g.Image = append(g.Image, p)
		g.Delay = append(g.Delay, 5+i)
		g.Disposal = append(g.Disposal, gif.DisposalNone)
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		t.Fatalf("encode gif: %s", err)
	}
	return buf.Bytes()
}

// newAlphaPNG is transparent on the left half and opaque red on the right
func newAlphaPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := w / 2; x < w; x++ {
			m.SetNRGBA(x, y, color.NRGBA{R: 0xff, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, m); err != nil {
		t.Fatalf("encode png: %s", err)
	}
	return buf.Bytes()
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, data, 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

// riffChunks counts the top level chunks of a WebP file by fourcc
func riffChunks(data []byte) map[string]int {
	out := map[string]int{}
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WEBP" {
		return out
	}
	pos := 12
	for pos+8 <= len(data) {
		fourcc := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		out[fourcc]++
		pos += 8 + size + size%2
	}
	return out
}

// anmfDurations lists the frame durations of an animated WebP file in milliseconds
func anmfDurations(t *testing.T, data []byte) []int {
	t.Helper()
	chunks, err := splitChunks(data[12:])
	if err != nil {
		t.Fatalf("split chunks: %s", err)
	}
	var out []int
	for _, c := range chunks {
		if c.id == "ANMF" {
			out = append(out, int(u24(c.data[12:])))
		}
	}
	return out
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.SetNRGBA(x, y, c)
		}
	}
	return m
}

func writePNGTemp(t *testing.T, name string, m image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, m); err != nil {
		t.Fatalf("encode png: %s", err)
	}
	return writeTemp(t, name, buf.Bytes())
}

// writeScript writes an executable shell script standing in for an external codec
func writeScript(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "tool.sh")
	if err := os.WriteFile(p, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatal(err)
	}
	return p
}

func nrgbaAt(m image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)
}
