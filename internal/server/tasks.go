package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/akhilbawari/taskpal/internal/models"
	"github.com/akhilbawari/taskpal/internal/shared"
	"github.com/akhilbawari/taskpal/internal/tasks"
	"github.com/charmbracelet/log"
)

// ownerHeader names the header carrying the authenticated user id.
// Authentication itself happens upstream; this layer only consumes the
// identity it is handed.
const ownerHeader = "X-User-ID"

// taskRequest is the wire form for add and update operations.
type taskRequest struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	DueDate      *string `json:"due_date"`
	Weight       int     `json:"weight"`
	ParentTaskID *string `json:"parent_task_id"`
}

// taskResponse wraps an operation result with an optional sync warning.
type taskResponse struct {
	Task    *tasks.TaskNode  `json:"task,omitempty"`
	Tasks   []tasks.TaskNode `json:"tasks,omitempty"`
	Warning string           `json:"warning,omitempty"`
}

type reorderRequest struct {
	SourceID      string `json:"source_id"`
	DestinationID string `json:"destination_id"`
}

type completeRequest struct {
	Completed bool `json:"completed"`
}

// TaskHandler exposes the task engine as a JSON API.
//
// Routes:
//
//	GET    /api/tasks               → list with nested subtasks
//	POST   /api/tasks               → add
//	POST   /api/tasks/reorder       → swap two priority scores
//	PUT    /api/tasks/{id}          → update
//	DELETE /api/tasks/{id}          → delete
//	POST   /api/tasks/{id}/complete → completion cascade
type TaskHandler struct {
	engine *tasks.TaskEngine
	logger *log.Logger
}

// NewTaskHandler creates a TaskHandler over the given engine.
func NewTaskHandler(engine *tasks.TaskEngine, logger *log.Logger) *TaskHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &TaskHandler{engine: engine, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *TaskHandler) Routes() []string {
	return []string{"/api/tasks", "/api/tasks/"}
}

func (h *TaskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	owner := r.Header.Get(ownerHeader)
	if owner == "" {
		writeError(w, http.StatusUnauthorized, fmt.Errorf("missing %s header", ownerHeader))
		return
	}

	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/tasks"), "/")

	switch {
	case rest == "" && r.Method == http.MethodGet:
		h.list(w, r, owner)
	case rest == "" && r.Method == http.MethodPost:
		h.add(w, r, owner)
	case rest == "reorder" && r.Method == http.MethodPost:
		h.reorder(w, r, owner)
	case strings.HasSuffix(rest, "/complete") && r.Method == http.MethodPost:
		h.complete(w, r, owner, strings.TrimSuffix(rest, "/complete"))
	case rest != "" && r.Method == http.MethodPut:
		h.update(w, r, owner, rest)
	case rest != "" && r.Method == http.MethodDelete:
		h.delete(w, r, owner, rest)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *TaskHandler) list(w http.ResponseWriter, r *http.Request, owner string) {
	nodes, err := h.engine.List(r.Context(), owner)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, taskResponse{Tasks: nodes})
}

func (h *TaskHandler) add(w http.ResponseWriter, r *http.Request, owner string) {
	spec, err := decodeSpec(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	node, err := h.engine.Add(r.Context(), owner, *spec)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, taskResponse{Task: node})
}

func (h *TaskHandler) update(w http.ResponseWriter, r *http.Request, owner, id string) {
	spec, err := decodeSpec(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	node, err := h.engine.Update(r.Context(), owner, id, *spec)
	if err != nil && !errors.Is(err, shared.ErrSyncFailed) {
		h.fail(w, err)
		return
	}

	resp := taskResponse{Task: node}
	if err != nil {
		resp.Warning = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *TaskHandler) delete(w http.ResponseWriter, r *http.Request, owner, id string) {
	err := h.engine.Delete(r.Context(), owner, id)
	if err != nil && !errors.Is(err, shared.ErrSyncFailed) {
		h.fail(w, err)
		return
	}

	resp := taskResponse{}
	if err != nil {
		resp.Warning = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *TaskHandler) reorder(w http.ResponseWriter, r *http.Request, owner string) {
	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	if err := h.engine.Reorder(r.Context(), owner, req.SourceID, req.DestinationID); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, taskResponse{})
}

func (h *TaskHandler) complete(w http.ResponseWriter, r *http.Request, owner, id string) {
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	if err := h.engine.SetCompleted(r.Context(), owner, id, req.Completed); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, taskResponse{})
}

// fail maps engine errors onto HTTP status codes.
func (h *TaskHandler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, shared.ErrOwnership):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrMissingDueDate):
		writeError(w, http.StatusBadRequest, err)
	default:
		h.logger.Error("task operation failed", "err", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}

func decodeSpec(r *http.Request) (*tasks.TaskSpec, error) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}

	spec := tasks.TaskSpec{
		Title:        req.Title,
		Description:  req.Description,
		Weight:       req.Weight,
		ParentTaskID: req.ParentTaskID,
	}

	if req.DueDate != nil && *req.DueDate != "" {
		due, err := time.ParseInLocation(models.DueDateLayout, *req.DueDate, time.Local)
		if err != nil {
			return nil, fmt.Errorf("invalid due_date %q: expected %s", *req.DueDate, models.DueDateLayout)
		}
		spec.DueDate = &due
	}

	return &spec, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
