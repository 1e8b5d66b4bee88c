package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/genservices/internal/queue"
	"github.com/nikhilbhutani/genservices/internal/voice"
)

type VoiceSaver interface {
	Save(ctx context.Context, req voice.SaveRequest) (*voice.SaveResponse, error)
}

// VoiceWorker runs deferred synthesize-and-save tasks.
type VoiceWorker struct {
	svc VoiceSaver
}

func NewVoiceWorker(svc VoiceSaver) *VoiceWorker {
	return &VoiceWorker{svc: svc}
}

func (w *VoiceWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.VoiceSavePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	req := payload.Request
	slog.Info("processing voice save", "model", req.Model, "storage", req.Storage, "filename", req.Filename)

	res, err := w.svc.Save(ctx, req)
	if err != nil {
		if errors.Is(err, voice.ErrInvalidInput) {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return err
	}

	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if rw := t.ResultWriter(); rw != nil {
		if _, err := rw.Write(data); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}

	slog.Info("voice saved", "location", res.Location, "backend", res.Backend)
	return nil
}
