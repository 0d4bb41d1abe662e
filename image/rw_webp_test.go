package image

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func near(a, b uint8) bool {
	d := int(a) - int(b)
	return d >= -32 && d <= 32
}

func TestWebPRoundTrip(t *testing.T) {
	c := NewCodec()
	ctx := context.Background()
	src := openTemp(t, c, "a.gif", newGIF(t, 10))
	dir := t.TempDir()

	first := filepath.Join(dir, "a.webp")
	_, err := c.Reencode(ctx, src, src.Canvas, WEBP, 90, first)
	require.NoError(t, err)

	h, err := c.Open(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, WEBP, h.Format)
	assert.Equal(t, src.Canvas, h.Canvas)
	assert.Equal(t, 10, h.Len())
	assert.Equal(t, src.Loop, h.Loop)
	for i := range h.Frames {
		assert.Equal(t, src.Frames[i].Delay, h.Frames[i].Delay, "frame %d", i)
		want, got := nrgbaAt(src.Frames[i].Image, 8, 6), nrgbaAt(h.Frames[i].Image, 8, 6)
		assert.True(t, near(want.R, got.R) && near(want.G, got.G) && near(want.B, got.B), "frame %d: %v vs %v", i, want, got)
	}

	for _, f := range []Format{GIF, WEBP} {
		dest := filepath.Join(dir, "b"+f.Ext())
		res, err := c.Reencode(ctx, h, h.Canvas, f, 90, dest)
		require.NoError(t, err, f.String())
		assert.Equal(t, 10, res.Frames)
		assert.False(t, res.SingleFrameFallback)

		out, err := c.Open(ctx, dest)
		require.NoError(t, err, f.String())
		assert.Equal(t, f, out.Format)
		assert.Equal(t, h.Canvas, out.Canvas)
		assert.Equal(t, 10, out.Len())
		for i := range out.Frames {
			assert.Equal(t, src.Frames[i].Delay, out.Frames[i].Delay, "%s frame %d", f, i)
		}
	}
}

func TestWebPAlphaFrames(t *testing.T) {
	left := color.NRGBA{}
	m1 := solid(8, 8, color.NRGBA{R: 0xff, A: 0xff})
	m2 := solid(8, 8, color.NRGBA{B: 0xff, A: 0xff})
	for y := 0; y < 8; y++ {
		for x := 0; x < 4; x++ {
			m1.SetNRGBA(x, y, left)
			m2.SetNRGBA(x, y, left)
		}
	}
	h := &Handle{
		Format: APNG,
		Canvas: Size{8, 8},
		Frames: []Frame{{Image: m1, Delay: 80 * time.Millisecond}, {Image: m2, Delay: 120 * time.Millisecond}},
		Loop:   2,
	}

	c := NewCodec()
	dest := filepath.Join(t.TempDir(), "a.webp")
	_, err := c.Reencode(context.Background(), h, h.Canvas, WEBP, 80, dest)
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.NotZero(t, data[20]&webpAlphaBit)
	assert.Equal(t, []int{80, 120}, anmfDurations(t, data))

	out, err := c.Open(context.Background(), dest)
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())
	assert.Equal(t, 2, out.Loop)
	for i, f := range out.Frames {
		assert.Equal(t, uint8(0), nrgbaAt(f.Image, 1, 1).A, "frame %d", i)
		assert.Equal(t, uint8(0xff), nrgbaAt(f.Image, 6, 6).A, "frame %d", i)
	}
	assert.Greater(t, nrgbaAt(out.Frames[0].Image, 6, 6).R, uint8(0xc0))
	assert.Greater(t, nrgbaAt(out.Frames[1].Image, 6, 6).B, uint8(0xc0))
}

func losslessFrame(t *testing.T, x, y int, m image.Image, ms int, flags byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, webp.Encode(&buf, m, &webp.Options{Lossless: true}))
	chunks, err := bitstreamChunks(buf.Bytes())
	require.NoError(t, err)

	hdr := make([]byte, anmfHeaderLen)
	b := m.Bounds()
	putU24(hdr[0:], x/2)
	putU24(hdr[3:], y/2)
	putU24(hdr[6:], b.Dx()-1)
	putU24(hdr[9:], b.Dy()-1)
	putU24(hdr[12:], ms)
	hdr[15] = flags
	payload := [][]byte{hdr}
	for _, c := range chunks {
		var cb bytes.Buffer
		putChunk(&cb, c.id, c.data)
		payload = append(payload, cb.Bytes())
	}
	var out bytes.Buffer
	putChunk(&out, "ANMF", payload...)
	return out.Bytes()
}

func TestDecodeWebPCompose(t *testing.T) {
	red := color.NRGBA{R: 0xff, A: 0xff}
	blue := color.NRGBA{B: 0xff, A: 0xff}
	green := color.NRGBA{G: 0xff, A: 0xff}

	var body bytes.Buffer
	putChunk(&body, "VP8X", vp8x(webpAnimationBit|webpAlphaBit, Size{8, 8}))
	anim := make([]byte, 6)
	binary.LittleEndian.PutUint16(anim[4:], 3)
	putChunk(&body, "ANIM", anim)
	body.Write(losslessFrame(t, 0, 0, solid(8, 8, red), 40, anmfNoBlend))
	body.Write(losslessFrame(t, 4, 4, solid(4, 4, blue), 0, anmfDispose))
	body.Write(losslessFrame(t, 0, 0, solid(2, 2, green), 60, 0))

	h := openTemp(t, NewCodec(), "a.webp", riffWebP(body.Bytes()))
	assert.Equal(t, WEBP, h.Format)
	assert.Equal(t, Size{8, 8}, h.Canvas)
	assert.Equal(t, 3, h.Loop)
	require.Equal(t, 3, h.Len())
	assert.Equal(t, 40*time.Millisecond, h.Frames[0].Delay)
	assert.Equal(t, DefaultDelay, h.Frames[1].Delay)
	assert.Equal(t, 60*time.Millisecond, h.Frames[2].Delay)

	assert.Equal(t, red, nrgbaAt(h.Frames[0].Image, 5, 5))
	assert.Equal(t, red, nrgbaAt(h.Frames[1].Image, 0, 0))
	assert.Equal(t, blue, nrgbaAt(h.Frames[1].Image, 5, 5))
	assert.Equal(t, green, nrgbaAt(h.Frames[2].Image, 0, 0))
	assert.Equal(t, red, nrgbaAt(h.Frames[2].Image, 3, 3))
	assert.Equal(t, uint8(0), nrgbaAt(h.Frames[2].Image, 5, 5).A)
}

func TestDecodeWebPErrors(t *testing.T) {
	// animation chunks without a VP8X canvas
	var body bytes.Buffer
	body.Write(losslessFrame(t, 0, 0, solid(2, 2, color.NRGBA{A: 0xff}), 10, 0))
	_, err := decodeWebP(riffWebP(body.Bytes()))
	assert.Error(t, err)

	_, err = splitChunks([]byte("VP8 \xff\x00\x00\x00abc"))
	assert.ErrorIs(t, err, errWebPChunk)

	_, err = bitstreamChunks([]byte("RIFF\x04\x00\x00\x00WEBP"))
	assert.ErrorIs(t, err, errWebPChunk)
}
