package config

import (
	"fmt"
	"log"

	"github.com/kelseyhightower/envconfig"
)

// Version of imconv, overridden with -ldflags at release time
var Version = "0.1.0"

// NameKey is the envconfig prefix, every setting is read from IMCONV_*
const NameKey = "imconv"

// Settings ...
type Settings struct {
	Develop   bool   `envconfig:"DEVELOP"`
	Quality   int    `envconfig:"QUALITY" default:"85"`
	InputDir  string `envconfig:"INPUT_DIR" default:"input"`
	OutputDir string `envconfig:"OUTPUT_DIR" default:"output"`
	Workers   int    `envconfig:"WORKERS" default:"1"`

	HEIFEncoder string `envconfig:"HEIF_ENCODER" default:"heif-enc"`
	HEIFDecoder string `envconfig:"HEIF_DECODER" default:"heif-convert"`
	// HEIF is the result of the codec probe made once at start, not read from env.
	HEIF bool `ignored:"true"`

	NoProgress bool `envconfig:"NO_PROGRESS"`
}

// Current loaded at init
var Current = new(Settings)

func init() {
	if err := envconfig.Process(NameKey, Current); err != nil {
		log.Printf("envconfig process fail: %s", err)
	}
}

// Load reads a fresh Settings from the environment and validates it.
func Load() (*Settings, error) {
	s := new(Settings)
	if err := envconfig.Process(NameKey, s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate ...
func (s *Settings) Validate() error {
	if s.Quality < 0 || s.Quality > 100 {
		return fmt.Errorf("quality %d out of range 0-100", s.Quality)
	}
	if s.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", s.Workers)
	}
	return nil
}

// InDevelop ...
func InDevelop() bool {
	return Current.Develop
}

// Usage prints the environment variables understood by Settings.
func Usage() error {
	return envconfig.Usage(NameKey, new(Settings))
}
