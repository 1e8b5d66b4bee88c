// Package slides renders Marp Markdown decks to PDF.
package slides

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/genservices/internal/config"
)

var ErrInvalidInput = errors.New("invalid input")

// RenderError means Marp ran and exited non-zero, usually because of the
// deck's content.
type RenderError struct {
	Stderr string
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("marp failed: %v: %s", e.Err, strings.TrimSpace(e.Stderr))
}

func (e *RenderError) Unwrap() error { return e.Err }

// Rendered points at an output PDF. The file is left on disk for the caller.
type Rendered struct {
	Path     string
	Filename string
	// Pages is 0 when the output could not be inspected.
	Pages int
}

type Renderer struct {
	bin     string
	workDir string
}

func NewRenderer(cfg config.MarpConfig) (*Renderer, error) {
	if err := os.MkdirAll(cfg.WorkDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	return &Renderer{bin: cfg.BinPath, workDir: cfg.WorkDir}, nil
}

// Render writes markdown to a per-request file, runs Marp on it and returns
// the PDF it produced. The Markdown file is removed on every path.
func (r *Renderer) Render(ctx context.Context, markdown string) (*Rendered, error) {
	if markdown == "" {
		return nil, fmt.Errorf("%w: markdown must not be empty", ErrInvalidInput)
	}

	runID := uuid.NewString()
	input := filepath.Join(r.workDir, "slides_"+runID+".md")
	output := filepath.Join(r.workDir, "slides_"+runID+".pdf")

	if err := os.WriteFile(input, []byte(markdown), 0o600); err != nil {
		return nil, fmt.Errorf("write markdown: %w", err)
	}
	defer func() {
		if err := os.Remove(input); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to remove slide input", "path", input, "error", err)
		}
	}()

	// #nosec G204 -- binary comes from process configuration
	cmd := exec.CommandContext(ctx, r.bin, input, "--pdf", "--output", output, "--allow-local-files")
	cmd.Dir = r.workDir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	slog.Info("executing marp", "cmd", cmd.String())
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			slog.Error("marp error", "stderr", stderr.String())
			return nil, &RenderError{Stderr: stderr.String(), Err: err}
		}
		return nil, fmt.Errorf("run marp: %w", err)
	}

	if _, err := os.Stat(output); err != nil {
		return nil, fmt.Errorf("marp produced no output: %w", err)
	}

	rendered := &Rendered{Path: output, Filename: filepath.Base(output)}
	info, err := InspectPDF(output)
	if err != nil {
		slog.Warn("could not inspect rendered PDF", "path", output, "error", err)
		return rendered, nil
	}
	rendered.Pages = info.Pages
	slog.Info("slides rendered", "file", rendered.Filename, "pages", info.Pages, "title", info.Title)
	return rendered, nil
}
