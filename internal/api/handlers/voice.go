package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/genservices/internal/audio"
	"github.com/nikhilbhutani/genservices/internal/registry"
	"github.com/nikhilbhutani/genservices/internal/voice"
)

const maxVoiceBody = 1 << 20

// SaveEnqueuer defers a prepared save to the worker.
type SaveEnqueuer interface {
	EnqueueVoiceSave(ctx context.Context, req voice.SaveRequest) (*asynq.TaskInfo, error)
}

type VoiceHandler struct {
	svc   *voice.Service
	queue SaveEnqueuer
}

// NewVoiceHandler accepts a nil queue; SaveAsync is then unavailable.
func NewVoiceHandler(svc *voice.Service, q SaveEnqueuer) *VoiceHandler {
	return &VoiceHandler{svc: svc, queue: q}
}

func (h *VoiceHandler) Models(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"models": h.svc.Models()})
}

func (h *VoiceHandler) ModelVoices(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.Voices(chi.URLParam(r, "name"))
	if err != nil {
		writeVoiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// Generate streams synthesized WAV bytes as a download.
func (h *VoiceHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req voice.GenerateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	// Synthesis runs to completion even if the caller goes away.
	wav, err := h.svc.Synthesize(context.WithoutCancel(r.Context()), req)
	if err != nil {
		writeVoiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", audio.ContentTypeWAV)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s%s"`, uuid.NewString(), audio.Extension))
	w.Header().Set("Content-Length", strconv.Itoa(len(wav)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(wav)
}

// Save synthesizes and persists, answering with where the audio went.
func (h *VoiceHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req voice.SaveRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.svc.Save(context.WithoutCancel(r.Context()), req)
	if err != nil {
		writeVoiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SaveAsync validates synchronously, then hands the work to the worker.
func (h *VoiceHandler) SaveAsync(w http.ResponseWriter, r *http.Request) {
	var req voice.SaveRequest
	if !decodeBody(w, r, &req) {
		return
	}

	prepared, err := h.svc.PrepareSave(req)
	if err != nil {
		writeVoiceError(w, err)
		return
	}

	info, err := h.queue.EnqueueVoiceSave(r.Context(), prepared)
	if err != nil {
		slog.Error("enqueue voice save failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Failed to queue task",
			"details": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"task_id":  info.ID,
		"queue":    info.Queue,
		"filename": prepared.Filename,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxVoiceBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeVoiceError(w http.ResponseWriter, err error) {
	var (
		synthErr *voice.SynthesisError
		storeErr *voice.StorageError
	)
	switch {
	case errors.Is(err, voice.ErrInvalidInput), errors.Is(err, registry.ErrUnknown):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &synthErr):
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "TTS generation failed",
			"details": synthErr.Err.Error(),
		})
	case errors.As(err, &storeErr):
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Storage save failed",
			"details": storeErr.Err.Error(),
		})
	default:
		slog.Error("unhandled voice error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Internal Server Error",
			"details": err.Error(),
		})
	}
}
