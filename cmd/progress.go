package cmd

import (
	"io"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/go-imsto/imconv/batch"
)

// progressSink advances a terminal bar by one step per finished file
type progressSink struct {
	bar *progressbar.ProgressBar
}

func newProgressSink(total int, w io.Writer) *progressSink {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("converting"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	return &progressSink{bar: bar}
}

func (p *progressSink) Report(e batch.Event) {
	p.bar.Describe(filepath.Base(e.Source))
	_ = p.bar.Add(1)
}

func (p *progressSink) Summarize(s batch.Summary) {
	_ = p.bar.Finish()
}
