package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/taskpilot/taskpilot/internal/task"
)

// maxTaskBodySize bounds task create/update request bodies.
const maxTaskBodySize = 16 << 10

// taskHandler serves the task CRUD endpoints. Every operation is scoped
// to the authenticated user from the request context.
type taskHandler struct {
	store  task.Store
	logger *slog.Logger
}

type taskResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toTaskResponse(t *task.Task) taskResponse {
	return taskResponse{
		ID:          t.ID.String(),
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// list handles GET /api/v1/tasks.
func (h *taskHandler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	tasks, err := h.store.List(r.Context(), userID)
	if err != nil {
		h.logger.Error("listing tasks", "error", err, "user", userID)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not list tasks")
		return
	}

	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskResponse(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": out, "count": len(out)})
}

// create handles POST /api/v1/tasks.
func (h *taskHandler) create(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxTaskBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}

	created, err := h.store.Create(r.Context(), userID, req.Title, req.Description)
	if err != nil {
		if errors.Is(err, task.ErrTitleRequired) {
			writeError(w, http.StatusBadRequest, "title_required", "task title must not be empty")
			return
		}
		h.logger.Error("creating task", "error", err, "user", userID)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not create task")
		return
	}

	writeJSON(w, http.StatusCreated, toTaskResponse(created))
}

// get handles GET /api/v1/tasks/{id}.
func (h *taskHandler) get(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := h.taskRequest(w, r)
	if !ok {
		return
	}

	t, err := h.store.Get(r.Context(), userID, taskID)
	if err != nil {
		h.writeStoreError(w, err, userID)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(t))
}

// update handles PATCH /api/v1/tasks/{id}.
func (h *taskHandler) update(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := h.taskRequest(w, r)
	if !ok {
		return
	}

	var req updateTaskRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxTaskBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}

	upd := task.Update{Title: req.Title, Description: req.Description}
	if req.Status != nil {
		status := task.Status(*req.Status)
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, "invalid_status", "status must be pending or completed")
			return
		}
		upd.Status = &status
	}

	t, err := h.store.Update(r.Context(), userID, taskID, upd)
	if err != nil {
		if errors.Is(err, task.ErrTitleRequired) {
			writeError(w, http.StatusBadRequest, "title_required", "task title must not be empty")
			return
		}
		h.writeStoreError(w, err, userID)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(t))
}

// complete handles POST /api/v1/tasks/{id}/complete.
func (h *taskHandler) complete(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := h.taskRequest(w, r)
	if !ok {
		return
	}

	t, err := h.store.Complete(r.Context(), userID, taskID)
	if err != nil {
		h.writeStoreError(w, err, userID)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(t))
}

// delete handles DELETE /api/v1/tasks/{id}.
func (h *taskHandler) delete(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := h.taskRequest(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), userID, taskID); err != nil {
		h.writeStoreError(w, err, userID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// taskRequest extracts the authenticated user and the {id} path value.
func (h *taskHandler) taskRequest(w http.ResponseWriter, r *http.Request) (userID, taskID uuid.UUID, ok bool) {
	userID, ok = userIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return uuid.Nil, uuid.Nil, false
	}

	taskID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_task_id", "task id must be a UUID")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, taskID, true
}

// writeStoreError maps task store errors onto HTTP responses. Tasks
// owned by other users read as 403 without confirming existence
// details; unknown ids read as 404.
func (h *taskHandler) writeStoreError(w http.ResponseWriter, err error, userID uuid.UUID) {
	switch {
	case errors.Is(err, task.ErrNotFound):
		writeError(w, http.StatusNotFound, "task_not_found", "no such task")
	case errors.Is(err, task.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "task belongs to another user")
	default:
		h.logger.Error("task store error", "error", err, "user", userID)
		writeError(w, http.StatusInternalServerError, "internal_error", "task operation failed")
	}
}
