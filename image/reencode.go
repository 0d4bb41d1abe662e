package image

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nfnt/resize"

	"github.com/go-imsto/imconv/utils"
)

// every frame of an image goes through the same filter
const resampleFilter = resize.Lanczos3

// Result of a Reencode
type Result struct {
	Path    string `json:"path"`
	Size    Size   `json:"size"`
	Frames  int    `json:"frames"`
	Written int64  `json:"written"`
	// SingleFrameFallback is set when an animated source went to a still-only
	// format and only its first frame was written
	SingleFrameFallback bool `json:"singleFrameFallback,omitempty"`
}

// Reencode resizes every frame of h to size and writes it to dest in format f.
// dest is replaced atomically, a failed encode leaves no file behind.
func (c *Codec) Reencode(ctx context.Context, h *Handle, size Size, f Format, quality int, dest string) (*Result, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: output %s", ErrUnsupportedFormat, f)
	}
	if !c.Available(f) {
		return nil, fmt.Errorf("%w: %s encoder", ErrMissingCodec, f)
	}
	if h == nil || len(h.Frames) == 0 {
		return nil, fmt.Errorf("%w: no frames to encode", ErrInvalidImage)
	}
	if size.Width <= 0 || size.Height <= 0 {
		return nil, fmt.Errorf("%w: target size %s", ErrInvalidImage, size)
	}

	res := &Result{Path: dest, Size: size}
	frames := h.Frames
	if len(frames) > 1 && !f.Animated() {
		frames = frames[:1]
		res.SingleFrameFallback = true
	}
	if !f.Lossy() {
		logger().Debugw("quality ignored", "format", f, "quality", quality)
	}

	frames = ResizeFrames(frames, h.Canvas, size)
	n, err := writeAtomic(dest, func(w io.Writer) error {
		return c.encode(ctx, w, f, frames, h.Loop, quality)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrEncode, dest, err)
	}
	res.Frames = len(frames)
	res.Written = n
	logger().Debugw("reencoded", "src", h.Path, "dest", dest, "from", h.Canvas, "to", size, "frames", res.Frames, "written", n)
	return res, nil
}

// ResizeFrames scales every frame from canvas to size, frames are returned as is when both match
func ResizeFrames(frames []Frame, canvas, size Size) []Frame {
	if canvas == size {
		return frames
	}
	out := make([]Frame, len(frames))
	for i, f := range frames {
		out[i] = Frame{
			Image: resize.Resize(uint(size.Width), uint(size.Height), f.Image, resampleFilter),
			Delay: f.Delay,
		}
	}
	return out
}

// writeAtomic streams fn into a temporary file next to dest and renames it into place
func writeAtomic(dest string, fn func(w io.Writer) error) (n int64, err error) {
	if err = utils.ReadyDir(dest); err != nil {
		return
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	cw := &CountWriter{}
	bw := bufio.NewWriter(io.MultiWriter(tmp, cw))
	if err = fn(bw); err != nil {
		return
	}
	if err = bw.Flush(); err != nil {
		return
	}
	if err = tmp.Sync(); err != nil {
		return
	}
	if err = tmp.Close(); err != nil {
		return
	}
	if err = os.Chmod(tmp.Name(), os.FileMode(0644)); err != nil {
		return
	}
	if err = os.Rename(tmp.Name(), dest); err != nil {
		return
	}
	return cw.Len(), nil
}
