package batch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/go-imsto/imconv/image"
)

// Option ...
type Option func(*Runner)

// WithCodec ...
func WithCodec(c *image.Codec) Option {
	return func(r *Runner) {
		if c != nil {
			r.codec = c
		}
	}
}

// WithSink adds a sink, sinks are called in the order they were added
func WithSink(s Sink) Option {
	return func(r *Runner) {
		if s != nil {
			r.sinks = append(r.sinks, s)
		}
	}
}

// WithWorkers sets how many files are converted at once
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithDryRun decodes and plans every file but writes nothing
func WithDryRun(dry bool) Option {
	return func(r *Runner) {
		r.dryRun = dry
	}
}

// Runner converts the jobs of a batch, each file succeeds or fails on its own
type Runner struct {
	codec   *image.Codec
	sinks   Sinks
	workers int
	dryRun  bool
}

// New ...
func New(opts ...Option) *Runner {
	r := &Runner{workers: 1}
	for _, opt := range opts {
		opt(r)
	}
	if r.codec == nil {
		r.codec = image.NewCodec()
	}
	return r
}

// Run converts jobs and reports their events in job order.
// Cancellation is checked before each file starts, a file in progress is finished.
func (r *Runner) Run(ctx context.Context, jobs []Job) Summary {
	events := make([]Event, len(jobs))
	done := make([]chan struct{}, len(jobs))
	for i := range done {
		done[i] = make(chan struct{})
	}

	g := new(errgroup.Group)
	g.SetLimit(r.workers)
	go func() {
		for i := range jobs {
			i := i
			g.Go(func() error {
				defer close(done[i])
				if err := ctx.Err(); err != nil {
					events[i] = r.newEvent(i, jobs)
					events[i].setError(err)
					return nil
				}
				events[i] = r.convert(ctx, i, jobs)
				return nil
			})
		}
	}()

	var sum Summary
	for i := range jobs {
		<-done[i]
		sum.add(events[i])
		r.sinks.Report(events[i])
	}
	_ = g.Wait()

	sum.Canceled = ctx.Err() != nil
	r.sinks.Summarize(sum)
	return sum
}

func (r *Runner) newEvent(i int, jobs []Job) Event {
	return Event{Index: i, Total: len(jobs), Source: jobs[i].Source, Dest: jobs[i].Dest}
}

func (r *Runner) convert(ctx context.Context, i int, jobs []Job) (ev Event) {
	job := jobs[i]
	ev = r.newEvent(i, jobs)
	start := time.Now()
	defer func() { ev.Elapsed = time.Since(start) }()

	// a started file runs to the end, external codecs are not killed on cancel
	ctx = context.WithoutCancel(ctx)

	h, err := r.codec.Open(ctx, job.Source)
	if err != nil {
		ev.setError(err)
		return
	}
	defer h.Close()
	if job.Input.Valid() && h.Format != job.Input && !(job.Input == image.PNG && h.Format == image.APNG) {
		logger().Infow("extension does not match content", "src", job.Source, "ext", job.Input, "content", h.Format)
	}

	size, err := image.Plan(h.Canvas, job.Box, job.Policy)
	if err != nil {
		ev.setError(err)
		return
	}
	ev.Size = size
	ev.Frames = h.Len()

	if r.dryRun {
		if h.Animated() && !job.Output.Animated() {
			ev.Warning = fallbackWarning(h, job.Output)
		}
		ev.Frames = min(ev.Frames, frameCap(job.Output))
		ev.Status = StatusSuccess
		return
	}

	res, err := r.codec.Reencode(ctx, h, size, job.Output, job.Quality, job.Dest)
	if err != nil {
		ev.setError(err)
		return
	}
	ev.Status = StatusSuccess
	ev.Frames = res.Frames
	ev.Bytes = res.Written
	if res.SingleFrameFallback {
		ev.Warning = fallbackWarning(h, job.Output)
		logger().Warnw("single frame fallback", "src", job.Source, "frames", h.Len(), "format", job.Output)
	}
	return
}

func fallbackWarning(h *image.Handle, f image.Format) string {
	return fmt.Sprintf("%s has %d frames, %s keeps the first one only", h.Format, h.Len(), f)
}

func frameCap(f image.Format) int {
	if f.Animated() {
		return int(^uint(0) >> 1)
	}
	return 1
}
