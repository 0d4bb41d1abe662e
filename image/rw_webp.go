package image

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"io"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"golang.org/x/image/riff"
	xwebp "golang.org/x/image/webp"
)

var (
	fccWEBP = riff.FourCC{'W', 'E', 'B', 'P'}
	fccVP8X = riff.FourCC{'V', 'P', '8', 'X'}
	fccANIM = riff.FourCC{'A', 'N', 'I', 'M'}
	fccANMF = riff.FourCC{'A', 'N', 'M', 'F'}

	errWebPChunk = errors.New("webp: malformed chunk")
)

// VP8X flags
const (
	webpAnimationBit = 1 << 1
	webpAlphaBit     = 1 << 4
)

// ANMF flags
const (
	anmfDispose = 1 << 0
	anmfNoBlend = 1 << 1
)

const anmfHeaderLen = 16

type webpChunk struct {
	id   string
	data []byte
}

type webpFrame struct {
	x, y     int
	duration time.Duration
	flags    byte
	chunks   []webpChunk
}

type webpContainer struct {
	canvas Size
	loop   int
	frames []webpFrame
}

func decodeWebP(data []byte) (*Handle, error) {
	wc, err := readWebP(data)
	if err != nil {
		return nil, err
	}
	if len(wc.frames) == 0 {
		// x/image/webp refuses VP8L behind an alpha flagged VP8X, which some encoders write
		m, err := nativewebp.DecodeIgnoreAlphaFlag(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return stillHandle(WEBP, m), nil
	}
	return wc.compose()
}

// readWebP lists the animation chunks of a WebP file, a still file yields no frames
func readWebP(data []byte) (*webpContainer, error) {
	formType, r, err := riff.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if formType != fccWEBP {
		return nil, errWebPChunk
	}

	wc := &webpContainer{}
	for {
		id, _, chunk, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch id {
		case fccVP8X, fccANIM, fccANMF:
		default:
			continue
		}
		b, err := io.ReadAll(chunk)
		if err != nil {
			return nil, err
		}

		switch id {
		case fccVP8X:
			if len(b) < 10 {
				return nil, errWebPChunk
			}
			wc.canvas = Size{Width: int(u24(b[4:])) + 1, Height: int(u24(b[7:])) + 1}
		case fccANIM:
			if len(b) < 6 {
				return nil, errWebPChunk
			}
			wc.loop = int(binary.LittleEndian.Uint16(b[4:6]))
		case fccANMF:
			if len(b) < anmfHeaderLen {
				return nil, errWebPChunk
			}
			chunks, err := splitChunks(b[anmfHeaderLen:])
			if err != nil {
				return nil, err
			}
			wc.frames = append(wc.frames, webpFrame{
				x:        int(u24(b[0:])) * 2,
				y:        int(u24(b[3:])) * 2,
				duration: time.Duration(u24(b[12:])) * time.Millisecond,
				flags:    b[15],
				chunks:   chunks,
			})
		}
	}
	if len(wc.frames) > 0 && wc.canvas.IsZero() {
		return nil, errWebPChunk
	}
	return wc, nil
}

// compose paints every ANMF frame onto the canvas, following its blend and dispose flags
func (wc *webpContainer) compose() (*Handle, error) {
	canvas := imaging.New(wc.canvas.Width, wc.canvas.Height, color.Transparent)
	frames := make([]Frame, 0, len(wc.frames))
	for _, f := range wc.frames {
		m, err := decodeWebPFrame(f.chunks)
		if err != nil {
			return nil, err
		}
		pt := image.Pt(f.x, f.y)
		if f.flags&anmfNoBlend != 0 {
			canvas = imaging.Paste(canvas, m, pt)
		} else {
			canvas = imaging.Overlay(canvas, m, pt, 1.0)
		}
		frames = append(frames, Frame{Image: imaging.Clone(canvas), Delay: frameDelay(f.duration)})

		if f.flags&anmfDispose != 0 {
			b := m.Bounds()
			canvas = imaging.Paste(canvas, imaging.New(b.Dx(), b.Dy(), color.Transparent), pt)
		}
	}
	return &Handle{
		Format: WEBP,
		Canvas: wc.canvas,
		Frames: frames,
		Loop:   wc.loop,
	}, nil
}

// decodeWebPFrame wraps the bitstream chunks of one frame into a still file for x/image/webp
func decodeWebPFrame(chunks []webpChunk) (image.Image, error) {
	var alph, vp8 *webpChunk
	for i := range chunks {
		switch chunks[i].id {
		case "ALPH":
			alph = &chunks[i]
		case "VP8 ", "VP8L":
			vp8 = &chunks[i]
		}
	}
	if vp8 == nil {
		return nil, errWebPChunk
	}

	var body bytes.Buffer
	if alph != nil && vp8.id == "VP8 " {
		cfg, err := xwebp.DecodeConfig(bytes.NewReader(stillWebP(*vp8)))
		if err != nil {
			return nil, err
		}
		putChunk(&body, "VP8X", vp8x(webpAlphaBit, Size{Width: cfg.Width, Height: cfg.Height}))
		putChunk(&body, alph.id, alph.data)
	}
	putChunk(&body, vp8.id, vp8.data)
	return xwebp.Decode(bytes.NewReader(riffWebP(body.Bytes())))
}

func encodeWebP(w io.Writer, frames []Frame, loop, quality int) error {
	if len(frames) == 1 {
		return encodeStillWebP(w, frames[0].Image, quality)
	}

	var (
		body  bytes.Buffer
		flags byte = webpAnimationBit
	)
	canvas := frames[0].Image.Bounds()
	anim := make([]byte, 6)
	binary.LittleEndian.PutUint16(anim[4:], uint16(min(loop, 0xffff)))

	for _, f := range frames {
		var buf bytes.Buffer
		if err := encodeStillWebP(&buf, f.Image, quality); err != nil {
			return err
		}
		chunks, err := bitstreamChunks(buf.Bytes())
		if err != nil {
			return err
		}

		// frames are full canvas pictures, so each one replaces the previous
		hdr := make([]byte, anmfHeaderLen)
		b := f.Image.Bounds()
		putU24(hdr[6:], b.Dx()-1)
		putU24(hdr[9:], b.Dy()-1)
		putU24(hdr[12:], min(int(f.Delay.Milliseconds()), 1<<24-1))
		hdr[15] = anmfNoBlend

		payload := [][]byte{hdr}
		for _, c := range chunks {
			if c.id == "ALPH" || c.id == "VP8L" {
				flags |= webpAlphaBit
			}
			var cb bytes.Buffer
			putChunk(&cb, c.id, c.data)
			payload = append(payload, cb.Bytes())
		}
		putChunk(&body, "ANMF", payload...)
	}

	var head bytes.Buffer
	putChunk(&head, "VP8X", vp8x(flags, Size{Width: canvas.Dx(), Height: canvas.Dy()}))
	putChunk(&head, "ANIM", anim)
	_, err := w.Write(riffWebP(append(head.Bytes(), body.Bytes()...)))
	return err
}

func encodeStillWebP(w io.Writer, m image.Image, quality int) error {
	return webp.Encode(w, m, &webp.Options{Quality: float32(quality)})
}

// bitstreamChunks returns the ALPH, VP8 and VP8L chunks of a still WebP file
func bitstreamChunks(data []byte) ([]webpChunk, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WEBP" {
		return nil, errWebPChunk
	}
	all, err := splitChunks(data[12:])
	if err != nil {
		return nil, err
	}
	var out []webpChunk
	for _, c := range all {
		switch c.id {
		case "ALPH", "VP8 ", "VP8L":
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil, errWebPChunk
	}
	return out, nil
}

// splitChunks cuts a run of RIFF chunks into ids and payloads
func splitChunks(b []byte) ([]webpChunk, error) {
	var out []webpChunk
	for len(b) > 0 {
		if len(b) < 8 {
			return nil, errWebPChunk
		}
		n := binary.LittleEndian.Uint32(b[4:8])
		if uint64(n) > uint64(len(b)-8) {
			return nil, errWebPChunk
		}
		out = append(out, webpChunk{id: string(b[0:4]), data: b[8 : 8+n]})
		b = b[8+n:]
		if n%2 == 1 && len(b) > 0 {
			b = b[1:]
		}
	}
	return out, nil
}

func putChunk(buf *bytes.Buffer, id string, payload ...[]byte) {
	var n int
	for _, p := range payload {
		n += len(p)
	}
	buf.WriteString(id)
	_ = binary.Write(buf, binary.LittleEndian, uint32(n))
	for _, p := range payload {
		buf.Write(p)
	}
	if n%2 == 1 {
		buf.WriteByte(0)
	}
}

func vp8x(flags byte, canvas Size) []byte {
	b := make([]byte, 10)
	b[0] = flags
	putU24(b[4:], canvas.Width-1)
	putU24(b[7:], canvas.Height-1)
	return b
}

func stillWebP(c webpChunk) []byte {
	var body bytes.Buffer
	putChunk(&body, c.id, c.data)
	return riffWebP(body.Bytes())
}

func riffWebP(body []byte) []byte {
	out := make([]byte, 12, 12+len(body))
	copy(out, "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(4+len(body)))
	copy(out[8:], "WEBP")
	return append(out, body...)
}

func u24(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

func putU24(b []byte, v int) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}
