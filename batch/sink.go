package batch

import (
	"context"
	"errors"
	"time"

	"github.com/go-imsto/imconv/image"
)

// Status of one file
type Status uint8

const (
	StatusSuccess Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusSkipped:
		return "skipped"
	}
	return "failed"
}

// MarshalText implements the encoding.TextMarshaler interface.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ReasonCanceled is the reason of files never started because the run was canceled
const ReasonCanceled = "canceled"

// Event is reported once per file, in file order
type Event struct {
	Index   int           `json:"index"`
	Total   int           `json:"total"`
	Source  string        `json:"source"`
	Dest    string        `json:"dest,omitempty"`
	Status  Status        `json:"status"`
	Reason  string        `json:"reason,omitempty"`
	Warning string        `json:"warning,omitempty"`
	Size    image.Size    `json:"size"`
	Frames  int           `json:"frames,omitempty"`
	Bytes   int64         `json:"bytes,omitempty"`
	Elapsed time.Duration `json:"elapsed"`
	Err     error         `json:"-"`
}

// setError classifies err: a missing codec or an unknown format skips the file,
// anything else fails it
func (e *Event) setError(err error) {
	e.Err = err
	e.Reason = err.Error()
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		e.Status = StatusSkipped
		e.Reason = ReasonCanceled
	case errors.Is(err, image.ErrMissingCodec), errors.Is(err, image.ErrUnsupportedFormat):
		e.Status = StatusSkipped
	default:
		e.Status = StatusFailed
	}
}

// Summary of a run
type Summary struct {
	Total     int  `json:"total"`
	Succeeded int  `json:"succeeded"`
	Skipped   int  `json:"skipped"`
	Failed    int  `json:"failed"`
	Canceled  bool `json:"canceled,omitempty"`
}

func (s *Summary) add(e Event) {
	s.Total++
	switch e.Status {
	case StatusSuccess:
		s.Succeeded++
	case StatusSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
}

// ExitCode is 1 when a non-empty batch converted nothing, else 0
func (s Summary) ExitCode() int {
	if s.Total > 0 && s.Succeeded == 0 {
		return 1
	}
	return 0
}

// Sink receives the progress of a run
type Sink interface {
	Report(e Event)
	Summarize(s Summary)
}

// Sinks fans out to every sink in order
type Sinks []Sink

// Report ...
func (ss Sinks) Report(e Event) {
	for _, s := range ss {
		s.Report(e)
	}
}

// Summarize ...
func (ss Sinks) Summarize(sum Summary) {
	for _, s := range ss {
		s.Summarize(sum)
	}
}

// LogSink writes one structured line per event
type LogSink struct{}

// Report ...
func (LogSink) Report(e Event) {
	kv := []any{"n", e.Index + 1, "total", e.Total, "src", e.Source}
	switch e.Status {
	case StatusSuccess:
		kv = append(kv, "dest", e.Dest, "size", e.Size.String(), "frames", e.Frames, "bytes", e.Bytes, "elapsed", e.Elapsed)
		if e.Warning != "" {
			kv = append(kv, "warning", e.Warning)
		}
		logger().Infow("converted", kv...)
	case StatusSkipped:
		logger().Warnw("skipped", append(kv, "reason", e.Reason)...)
	default:
		logger().Errorw("failed", append(kv, "reason", e.Reason)...)
	}
}

// Summarize ...
func (LogSink) Summarize(s Summary) {
	logger().Infow("batch done", "total", s.Total, "succeeded", s.Succeeded,
		"skipped", s.Skipped, "failed", s.Failed, "canceled", s.Canceled)
}
