package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nikhilbhutani/genservices/internal/queue"
)

type TaskStatusGetter interface {
	Status(id string) (*queue.TaskStatus, error)
}

type TaskHandler struct {
	tasks TaskStatusGetter
}

func NewTaskHandler(tasks TaskStatusGetter) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := h.tasks.Status(chi.URLParam(r, "id"))
	if errors.Is(err, queue.ErrTaskNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}
