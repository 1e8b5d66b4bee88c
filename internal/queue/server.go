package queue

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/genservices/internal/config"
)

// NewServer builds an asynq server bound to the voice queue.
func NewServer(cfg config.RedisConfig, concurrency int) *asynq.Server {
	return asynq.NewServer(RedisOpt(cfg), asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{QueueVoice: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			slog.Error("task failed", "type", task.Type(), "error", err)
		}),
	})
}

type HandlersRegistry struct {
	mux *asynq.ServeMux
}

func NewHandlersRegistry() *HandlersRegistry {
	return &HandlersRegistry{mux: asynq.NewServeMux()}
}

func (r *HandlersRegistry) Register(taskType string, handler asynq.Handler) {
	r.mux.Handle(taskType, handler)
}

func (r *HandlersRegistry) Mux() *asynq.ServeMux {
	return r.mux
}
