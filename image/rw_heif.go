package image

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// HEIF goes through the libheif command line tools
type heifTool struct {
	encoder string
	decoder string
}

// ProbeHEIF reports whether both libheif commands are found in PATH
func ProbeHEIF(encoder, decoder string) bool {
	for _, name := range []string{encoder, decoder} {
		if _, err := exec.LookPath(name); err != nil {
			logger().Infow("heif codec skipped: command not found in PATH", "command", name)
			return false
		}
	}
	logger().Debugw("heif codec registered", "encoder", encoder, "decoder", decoder)
	return true
}

func (t *heifTool) decode(ctx context.Context, data []byte) (*Handle, error) {
	dir, err := os.MkdirTemp("", "imconv-heif-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "in.heic")
	if err = os.WriteFile(in, data, 0o600); err != nil {
		return nil, err
	}
	if err = t.run(ctx, t.decoder, in, filepath.Join(dir, "out.png")); err != nil {
		return nil, err
	}

	outs, err := heifOutputs(dir)
	if err != nil {
		return nil, err
	}
	if len(outs) == 0 {
		return nil, fmt.Errorf("%s wrote no image", t.decoder)
	}

	var h *Handle
	for i, name := range outs {
		m, err := readPNGFile(name)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			h = stillHandle(HEIF, m)
			continue
		}
		h.Frames = append(h.Frames, Frame{Image: fitCanvas(m, h.Canvas), Delay: DefaultDelay})
	}
	return h, nil
}

var heifOutput = regexp.MustCompile(`^out(?:-(\d+))?\.png$`)

// heifOutputs lists the images heif-convert wrote, a collection comes out as out-1.png, out-2.png, ...
func heifOutputs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	type output struct {
		name string
		n    int
	}
	var outs []output
	for _, e := range entries {
		m := heifOutput.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		outs = append(outs, output{name: filepath.Join(dir, e.Name()), n: n})
	}
	sort.Slice(outs, func(i, j int) bool { return outs[i].n < outs[j].n })

	names := make([]string, len(outs))
	for i, o := range outs {
		names[i] = o.name
	}
	return names, nil
}

func readPNGFile(name string) (image.Image, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}

func (t *heifTool) encode(ctx context.Context, w io.Writer, m image.Image, quality int) error {
	dir, err := os.MkdirTemp("", "imconv-heif-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out.heic")
	if err = writePNGFile(in, m); err != nil {
		return err
	}
	if err = t.run(ctx, t.encoder, "-q", strconv.Itoa(quality), "-o", out, in); err != nil {
		return err
	}

	f, err := os.Open(out)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

func (t *heifTool) run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w (%s)", name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func writePNGFile(name string, m image.Image) error {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err = png.Encode(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
