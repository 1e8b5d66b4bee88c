package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Local writes files into a directory on this host.
type Local struct {
	dir string
}

// NewLocal creates dir if needed. The stored location is always absolute.
func NewLocal(dir string) (*Local, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve output dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Local{dir: abs}, nil
}

func (l *Local) Name() string { return "local" }

func (l *Local) Save(_ context.Context, data []byte, filename, contentType string) (*Result, error) {
	if err := checkFilename(filename); err != nil {
		return nil, err
	}

	path := filepath.Join(l.dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}

	res := &Result{Location: path, ContentType: contentType, Backend: l.Name()}
	logSaved(res, len(data))
	return res, nil
}
