package queue

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/genservices/internal/config"
)

var ErrTaskNotFound = errors.New("task not found")

// TaskStatus is the client-facing view of a queued save.
type TaskStatus struct {
	ID     string          `json:"id"`
	State  string          `json:"state"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type Inspector struct {
	insp *asynq.Inspector
}

func NewInspector(cfg config.RedisConfig) *Inspector {
	return &Inspector{insp: asynq.NewInspector(RedisOpt(cfg))}
}

func (i *Inspector) Close() error {
	return i.insp.Close()
}

func (i *Inspector) Status(id string) (*TaskStatus, error) {
	info, err := i.insp.GetTaskInfo(QueueVoice, id)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
		}
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return statusFromInfo(info), nil
}

func statusFromInfo(info *asynq.TaskInfo) *TaskStatus {
	st := &TaskStatus{ID: info.ID, State: info.State.String(), Error: info.LastErr}
	// MaxRetry(0) sends a failed task straight to the archive.
	if info.State == asynq.TaskStateArchived {
		st.State = "failed"
	}
	if len(info.Result) > 0 && json.Valid(info.Result) {
		st.Result = info.Result
	}
	return st
}
