package handlers

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sundayekpa25-ai/projectsandtasks/middleware"
	"github.com/sundayekpa25-ai/projectsandtasks/models"
	"github.com/sundayekpa25-ai/projectsandtasks/services"
	"github.com/sundayekpa25-ai/projectsandtasks/storage"
)

const maxSubmissionFiles = 10

type TaskHandler struct {
	tasks *services.TaskService
	files *storage.FileStore
}

func NewTaskHandler(tasks *services.TaskService, files *storage.FileStore) *TaskHandler {
	return &TaskHandler{tasks: tasks, files: files}
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())

	tasks, err := h.tasks.ListTasks(r.Context(), actor, r.URL.Query().Get("projectId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())

	task, err := h.tasks.GetTask(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		ProjectID   string `json:"projectId"`
		AssignedTo  string `json:"assignedTo"`
		Priority    string `json:"priority"`
		DueDate     string `json:"dueDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.tasks.CreateTask(r.Context(), actor, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		ProjectID:   req.ProjectID,
		AssignedTo:  req.AssignedTo,
		Priority:    req.Priority,
		DueDate:     dueDate,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// SubmitWork accepts a multipart form with a work description and up to ten
// attachments. Files already written to disk are removed again whenever the
// submission does not go through.
func (h *TaskHandler) SubmitWork(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())
	taskID := mux.Vars(r)["id"]

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid multipart payload")
		return
	}

	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		headers = r.MultipartForm.File["files"]
	}
	if len(headers) > maxSubmissionFiles {
		writeMessage(w, http.StatusBadRequest, "at most 10 files may be attached")
		return
	}

	saved := []models.Attachment{}
	for _, fh := range headers {
		att, err := h.files.Save("task", fh)
		if err != nil {
			h.files.DeleteAll(saved)
			if errors.Is(err, storage.ErrFileType) || errors.Is(err, storage.ErrFileTooLarge) {
				writeMessage(w, http.StatusBadRequest, err.Error())
			} else {
				writeServiceError(w, services.StorageError("failed to store uploaded file", err))
			}
			return
		}
		saved = append(saved, att)
	}

	task, err := h.tasks.SubmitWork(r.Context(), actor, taskID, r.FormValue("work"), saved)
	if err != nil {
		h.files.DeleteAll(saved)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) ReviewTask(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())

	var req struct {
		Rating   string `json:"rating"`
		Feedback string `json:"feedback"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	task, err := h.tasks.ReviewTask(r.Context(), actor, mux.Vars(r)["id"], req.Rating, req.Feedback)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		AssignedTo  *string `json:"assignedTo"`
		Priority    *string `json:"priority"`
		DueDate     string  `json:"dueDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.tasks.UpdateTask(r.Context(), actor, mux.Vars(r)["id"], services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		Priority:    req.Priority,
		DueDate:     dueDate,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}
