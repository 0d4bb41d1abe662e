package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-imsto/imconv/batch"
	"github.com/go-imsto/imconv/config"
	"github.com/go-imsto/imconv/image"
	"github.com/go-imsto/imconv/utils"
)

var cmdConvert = &Command{
	UsageLine: "convert -i token -o token [-W width -H height] [-quality N] [-if dir] [-of dir]",
	Short:     "convert and resize every matching image of a folder",
	Long: `
Convert reads the images of the input folder whose extension matches the
input format (or every supported one with "all"), resizes them and writes
them in the output format to the output folder, one file per source.

Formats: png, jpg, jpeg, webp, tiff, bmp, gif, apng, heic, heif.
HEIC/HEIF need heif-enc and heif-convert from libheif in PATH.

Width and height are given together. The aspect ratio is kept unless
-force-aspect-ratio is set. Animated sources keep their frames when the
output format can animate (gif, apng, webp), else only the first frame.
`,
}

type convertOptions struct {
	input      string
	output     string
	quality    int
	width      int
	height     int
	size       string
	force      bool
	preserve   bool
	inputDir   string
	outputDir  string
	recursive  bool
	workers    int
	dryRun     bool
	noProgress bool
}

var convertOpts = new(convertOptions)

// lockName is held in the output folder while a run writes to it
const lockName = ".imconv.lock"

// ErrBusy means another run holds the output folder
var ErrBusy = errors.New("output folder busy")

func init() {
	convertOpts.bind(&cmdConvert.Flag, config.Current)
	cmdConvert.Run = runConvert
}

func (o *convertOptions) bind(fs *flag.FlagSet, s *config.Settings) {
	fs.StringVar(&o.input, "i", "", "input format token, or all")
	fs.StringVar(&o.input, "input-format", "", "alias of -i")
	fs.StringVar(&o.output, "o", "", "output format token")
	fs.StringVar(&o.output, "output-format", "", "alias of -o")
	fs.IntVar(&o.quality, "quality", s.Quality, "quality of lossy outputs, 0-100")
	fs.IntVar(&o.width, "W", 0, "box width")
	fs.IntVar(&o.width, "width", 0, "alias of -W")
	fs.IntVar(&o.height, "H", 0, "box height")
	fs.IntVar(&o.height, "height", 0, "alias of -H")
	fs.StringVar(&o.size, "size", "", "box as WxH, sWxH or fWxH, instead of -W and -H")
	fs.BoolVar(&o.force, "force-aspect-ratio", false, "stretch to the box exactly")
	fs.BoolVar(&o.preserve, "preserve-aspect-ratio", false, "fit inside the box keeping the aspect ratio (default)")
	fs.StringVar(&o.inputDir, "if", s.InputDir, "input folder")
	fs.StringVar(&o.inputDir, "input-folder", s.InputDir, "alias of -if")
	fs.StringVar(&o.outputDir, "of", s.OutputDir, "output folder, created when missing")
	fs.StringVar(&o.outputDir, "output-folder", s.OutputDir, "alias of -of")
	fs.BoolVar(&o.recursive, "recursive", false, "walk subfolders, outputs keep the relative folder")
	fs.IntVar(&o.workers, "workers", s.Workers, "files converted at once")
	fs.BoolVar(&o.dryRun, "dry-run", false, "decode and plan only, write nothing")
	fs.BoolVar(&o.noProgress, "no-progress", s.NoProgress, "hide the progress bar")
}

// template checks the option combination, every error wraps batch.ErrConfig
func (o *convertOptions) template() (*batch.Template, error) {
	if o.input == "" || o.output == "" {
		return nil, fmt.Errorf("%w: both -i and -o are required", batch.ErrConfig)
	}
	in, err := image.ParseInputToken(o.input)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", batch.ErrConfig, err)
	}
	out, err := image.ParseOutputToken(o.output)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", batch.ErrConfig, err)
	}
	if o.force && o.preserve {
		return nil, fmt.Errorf("%w: -force-aspect-ratio and -preserve-aspect-ratio exclude each other", batch.ErrConfig)
	}
	if o.workers < 1 {
		return nil, fmt.Errorf("%w: -workers must be at least 1", batch.ErrConfig)
	}
	box := image.Size{Width: o.width, Height: o.height}
	if !box.IsZero() && (o.width < 1 || o.height < 1) {
		return nil, fmt.Errorf("%w: -W and -H are given together and at least 1, got %s", batch.ErrConfig, box)
	}
	policy := image.Preserve
	if o.size != "" {
		if !box.IsZero() {
			return nil, fmt.Errorf("%w: -size excludes -W and -H", batch.ErrConfig)
		}
		if box, policy, err = image.ParseSize(o.size); err != nil {
			return nil, fmt.Errorf("%w: %w", batch.ErrConfig, err)
		}
		if policy == image.Force && o.preserve {
			return nil, fmt.Errorf("%w: -size %s forces the box, -preserve-aspect-ratio excludes it", batch.ErrConfig, o.size)
		}
	}
	if o.force {
		if box.IsZero() {
			logger().Warnw("-force-aspect-ratio without -W and -H has no effect")
		}
		policy = image.Force
	}

	t := &batch.Template{
		Input:     in,
		Output:    out,
		Quality:   o.quality,
		Box:       box,
		Policy:    policy,
		InputDir:  o.inputDir,
		OutputDir: o.outputDir,
		Recursive: o.recursive,
	}
	if err = t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func runConvert(args []string) bool {
	if len(args) > 0 {
		errorf("unexpected arguments %q", args)
		setExitStatus(2)
		return false
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := config.Current
	s.HEIF = image.ProbeHEIF(s.HEIFEncoder, s.HEIFDecoder)
	sum, err := convert(ctx, convertOpts, s, os.Stderr)
	if err != nil {
		errorf("convert: %s", err)
		if errors.Is(err, batch.ErrConfig) {
			setExitStatus(2)
			return false
		}
		setExitStatus(1)
		return true
	}
	fmt.Fprintf(os.Stdout, "total %d, succeeded %d, skipped %d, failed %d\n",
		sum.Total, sum.Succeeded, sum.Skipped, sum.Failed)
	setExitStatus(sum.ExitCode())
	return true
}

// convert runs a whole batch, progress goes to w unless disabled
func convert(ctx context.Context, o *convertOptions, s *config.Settings, w io.Writer) (batch.Summary, error) {
	t, err := o.template()
	if err != nil {
		return batch.Summary{}, err
	}
	files, err := t.Collect()
	if err != nil {
		return batch.Summary{}, err
	}
	if len(files) == 0 {
		logger().Warnw("no input files", "folder", t.InputDir, "format", t.Input)
		return batch.Summary{}, nil
	}
	if !o.dryRun {
		if err = os.MkdirAll(t.OutputDir, 0755); err != nil {
			return batch.Summary{}, err
		}
		lock, err := utils.NewFLock(filepath.Join(t.OutputDir, lockName))
		if err != nil {
			return batch.Summary{}, err
		}
		ok, err := lock.TryLock()
		if err != nil || !ok {
			_ = lock.Unlock()
			return batch.Summary{}, fmt.Errorf("%w: %s is used by another run", ErrBusy, t.OutputDir)
		}
		defer func() { _ = lock.Remove() }()
	}
	if t.Output.Format.Optional() && !s.HEIF {
		logger().Warnw("output codec not available, every file will be skipped", "format", t.Output)
	}

	codec := image.NewCodec(image.WithHEIF(s.HEIF, s.HEIFEncoder, s.HEIFDecoder))
	opts := []batch.Option{
		batch.WithCodec(codec),
		batch.WithWorkers(o.workers),
		batch.WithDryRun(o.dryRun),
		batch.WithSink(batch.LogSink{}),
	}
	if !o.noProgress {
		opts = append(opts, batch.WithSink(newProgressSink(len(files), w)))
	}
	logger().Infow("convert start", "files", len(files), "from", t.Input, "to", t.Output,
		"box", t.Box.String(), "policy", t.Policy, "quality", t.Quality, "workers", o.workers)
	return batch.New(opts...).Run(ctx, t.Jobs(files)), nil
}
