package config

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"
)

// Flags are the command-line overrides shared by every binary.
type Flags struct {
	EnvFile  string
	LogLevel string
	// Concurrency is only registered for the worker.
	Concurrency int
}

// ParseFlags parses args (without the program name). withWorker adds
// --concurrency.
func ParseFlags(name string, args []string, withWorker bool) (*Flags, error) {
	f := &Flags{}
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringVarP(&f.EnvFile, "env-file", "e", "", "Path to a .env file (default ./.env if present)")
	fs.StringVarP(&f.LogLevel, "log-level", "l", "", "Override LOG_LEVEL (debug, info, warn, error)")
	if withWorker {
		fs.IntVarP(&f.Concurrency, "concurrency", "c", 4, "Number of tasks processed in parallel")
	}

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}
	if withWorker && f.Concurrency < 1 {
		return nil, errors.New("--concurrency must be at least 1")
	}
	return f, nil
}

// Apply copies flag overrides onto the server section.
func (f *Flags) Apply(s *ServerConfig) {
	if f.LogLevel != "" {
		s.LogLevel = f.LogLevel
	}
}
