// Package storage persists generated audio to a named backend.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/nikhilbhutani/genservices/internal/config"
	"github.com/nikhilbhutani/genservices/internal/registry"
)

// Result describes where a saved object ended up.
type Result struct {
	Location    string  `json:"location"`
	URL         *string `json:"url"`
	ContentType string  `json:"content_type"`
	Backend     string  `json:"backend"`
}

type Storage interface {
	Name() string
	Save(ctx context.Context, data []byte, filename, contentType string) (*Result, error)
}

type Registry = registry.Registry[Storage]

func NewRegistry() *Registry {
	return registry.New[Storage]("storage backend")
}

// RegisterDefaults registers local, s3 and nats. Backends connect lazily.
func RegisterDefaults(r *Registry, cfg config.StorageConfig) {
	r.Register("local", func() (Storage, error) {
		return NewLocal(cfg.LocalOutputDir)
	})
	r.Register("s3", func() (Storage, error) {
		return NewS3(context.Background(), cfg.S3)
	})
	r.Register("nats", func() (Storage, error) {
		return NewNATS(cfg.NATS)
	})
}

var errBadFilename = errors.New("invalid filename")

// checkFilename rejects anything that could escape the backend's namespace.
func checkFilename(name string) error {
	if name == "" || name == "." || strings.Contains(name, "..") ||
		strings.ContainsAny(name, `/\`) || filepath.IsAbs(name) {
		return fmt.Errorf("%w: %q", errBadFilename, name)
	}
	return nil
}

func logSaved(res *Result, size int) {
	slog.Info("audio saved", "backend", res.Backend, "location", res.Location, "bytes", size)
}
