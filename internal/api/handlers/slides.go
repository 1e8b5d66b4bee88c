package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime/debug"
	"strconv"

	"github.com/nikhilbhutani/genservices/internal/slides"
)

const maxSlideBody = 10 << 20

type SlideRenderer interface {
	Render(ctx context.Context, markdown string) (*slides.Rendered, error)
}

type SlideHandler struct {
	renderer SlideRenderer
}

func NewSlideHandler(renderer SlideRenderer) *SlideHandler {
	return &SlideHandler{renderer: renderer}
}

// Generate renders {"markdown": "..."} to a PDF download.
func (h *SlideHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	r.Body = http.MaxBytesReader(w, r.Body, maxSlideBody)
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body == nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	markdown, _ := body["markdown"].(string)
	if markdown == "" {
		writeError(w, http.StatusBadRequest, "No 'markdown' field provided")
		return
	}

	rendered, err := h.renderer.Render(context.WithoutCancel(r.Context()), markdown)
	if err != nil {
		writeRenderError(w, err)
		return
	}

	f, err := os.Open(rendered.Path)
	if err != nil {
		writeRenderError(w, fmt.Errorf("open rendered PDF: %w", err))
		return
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		writeRenderError(w, fmt.Errorf("stat rendered PDF: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, rendered.Filename))
	if rendered.Pages > 0 {
		w.Header().Set("X-Page-Count", strconv.Itoa(rendered.Pages))
	}
	http.ServeContent(w, r, rendered.Filename, st.ModTime(), f)
}

func writeRenderError(w http.ResponseWriter, err error) {
	var renderErr *slides.RenderError
	if errors.As(err, &renderErr) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Marp failed to generate PDF",
			"details": renderErr.Stderr,
		})
		return
	}

	trace := string(debug.Stack())
	slog.Error("slide generation failed", "error", err, "trace", trace)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error":   "Internal Server Error",
		"details": err.Error(),
		"trace":   trace,
	})
}
