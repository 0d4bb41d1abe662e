package batch

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-imsto/imconv/image"
	zlog "github.com/go-imsto/imconv/log"
	"github.com/go-imsto/imconv/utils"
)

// ErrConfig is a bad option combination, found before any file is touched
var ErrConfig = errors.New("invalid configuration")

func logger() zlog.Logger {
	return zlog.Get()
}

// Template is the conversion shared by every file of a batch
type Template struct {
	Input     image.Token
	Output    image.Token
	Quality   int
	Box       image.Size
	Policy    image.Policy
	InputDir  string
	OutputDir string
	Recursive bool
}

// Validate ...
func (t *Template) Validate() error {
	if !t.Input.IsWildcard() && !t.Input.Format.Valid() {
		return fmt.Errorf("%w: %w: input %q", ErrConfig, image.ErrUnsupportedFormat, t.Input.Name)
	}
	if t.Output.IsWildcard() || !t.Output.Format.Valid() {
		return fmt.Errorf("%w: %w: output %q", ErrConfig, image.ErrUnsupportedFormat, t.Output.Name)
	}
	if t.Quality < 0 || t.Quality > 100 {
		return fmt.Errorf("%w: quality %d out of range 0-100", ErrConfig, t.Quality)
	}
	if !t.Box.IsZero() && (t.Box.Width < 1 || t.Box.Height < 1) {
		return fmt.Errorf("%w: %w, got %s", ErrConfig, image.ErrInvalidBox, t.Box)
	}
	if t.InputDir == "" || !utils.IsDir(t.InputDir) {
		return fmt.Errorf("%w: input folder %q is not a directory", ErrConfig, t.InputDir)
	}
	if t.OutputDir == "" {
		return fmt.Errorf("%w: output folder is empty", ErrConfig)
	}
	return nil
}

// Job converts one source file, it is not changed once built
type Job struct {
	Source  string       `json:"source"`
	Dest    string       `json:"dest"`
	Input   image.Format `json:"input"`
	Output  image.Format `json:"output"`
	Quality int          `json:"quality"`
	Box     image.Size   `json:"box"`
	Policy  image.Policy `json:"policy"`
}

// Collect lists the source files of t, the output folder is never read back
func (t *Template) Collect() ([]string, error) {
	return Resolve(t.InputDir, t.Input, t.Recursive, t.OutputDir)
}

// Jobs builds one job per file. The output name is the source stem plus the
// output extension under OutputDir, keeping the relative folder when recursive.
// Two sources with the same stem get the later one's source extension appended.
func (t *Template) Jobs(files []string) []Job {
	ext := t.Output.Ext()
	seen := make(map[string]bool, len(files))
	jobs := make([]Job, 0, len(files))
	for _, file := range files {
		rel := filepath.Base(file)
		if t.Recursive {
			if r, err := filepath.Rel(t.InputDir, file); err == nil {
				rel = r
			}
		}
		dest := filepath.Join(t.OutputDir, filepath.Dir(rel), utils.Stem(rel)+ext)
		if key := strings.ToLower(dest); seen[key] {
			srcExt := strings.TrimPrefix(strings.ToLower(filepath.Ext(rel)), ".")
			dest = filepath.Join(t.OutputDir, filepath.Dir(rel), utils.Stem(rel)+"_"+srcExt+ext)
			logger().Warnw("output name taken", "src", file, "dest", dest)
		}
		seen[strings.ToLower(dest)] = true

		jobs = append(jobs, Job{
			Source:  file,
			Dest:    dest,
			Input:   formatOf(t.Input, file),
			Output:  t.Output.Format,
			Quality: t.Quality,
			Box:     t.Box,
			Policy:  t.Policy,
		})
	}
	return jobs
}

// formatOf is the format the extension claims, the decoder sniffs the real one
func formatOf(tok image.Token, file string) image.Format {
	if !tok.IsWildcard() {
		return tok.Format
	}
	for _, tt := range image.Tokens() {
		if tt.Match(file) {
			return tt.Format
		}
	}
	return image.FormatNone
}
