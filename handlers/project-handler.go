package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/sundayekpa25-ai/projectsandtasks/middleware"
	"github.com/sundayekpa25-ai/projectsandtasks/models"
	"github.com/sundayekpa25-ai/projectsandtasks/services"
	"github.com/sundayekpa25-ai/projectsandtasks/storage"
)

type ProjectHandler struct {
	projects *services.ProjectService
	files    *storage.FileStore
}

func NewProjectHandler(projects *services.ProjectService, files *storage.FileStore) *ProjectHandler {
	return &ProjectHandler{projects: projects, files: files}
}

func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())

	projects, err := h.projects.ListProjects(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())

	project, err := h.projects.GetProject(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// saveLogo stores an uploaded clientLogo part, if any.
func (h *ProjectHandler) saveLogo(w http.ResponseWriter, r *http.Request) (*models.Attachment, bool) {
	if r.MultipartForm == nil {
		return nil, true
	}
	headers := r.MultipartForm.File["clientLogo"]
	if len(headers) == 0 {
		return nil, true
	}

	att, err := h.files.SaveLogo(headers[0])
	if err != nil {
		if errors.Is(err, storage.ErrFileType) || errors.Is(err, storage.ErrFileTooLarge) {
			writeMessage(w, http.StatusBadRequest, err.Error())
		} else {
			writeServiceError(w, services.StorageError("failed to store uploaded file", err))
		}
		return nil, false
	}
	return &att, true
}

// CreateProject accepts either JSON or a multipart form carrying an optional
// client logo. A logo already written to disk is removed again when the
// creation fails afterwards.
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())

	var input services.CreateProjectInput
	var logo *models.Attachment

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(storage.MaxLogoSize); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid multipart payload")
			return
		}

		startDate, err := parseDate(r.FormValue("startDate"))
		if err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		endDate, err := parseDate(r.FormValue("endDate"))
		if err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}

		var ok bool
		logo, ok = h.saveLogo(w, r)
		if !ok {
			return
		}

		input = services.CreateProjectInput{
			Title:       r.FormValue("title"),
			Description: r.FormValue("description"),
			ClientID:    r.FormValue("clientId"),
			StartDate:   startDate,
			EndDate:     endDate,
			ClientLogo:  logo,
		}
	} else {
		var req struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			ClientID    string `json:"clientId"`
			StartDate   string `json:"startDate"`
			EndDate     string `json:"endDate"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid request payload")
			return
		}

		startDate, err := parseDate(req.StartDate)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		endDate, err := parseDate(req.EndDate)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}

		input = services.CreateProjectInput{
			Title:       req.Title,
			Description: req.Description,
			ClientID:    req.ClientID,
			StartDate:   startDate,
			EndDate:     endDate,
		}
	}

	project, err := h.projects.CreateProject(r.Context(), actor, input)
	if err != nil {
		if logo != nil {
			h.files.DeleteAll([]models.Attachment{*logo})
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

// UpdateProject accepts the same dual payload as CreateProject. Only fields
// present in the request are applied.
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())
	projectID := mux.Vars(r)["id"]

	var input services.UpdateProjectInput
	var logo *models.Attachment

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(storage.MaxLogoSize); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid multipart payload")
			return
		}

		formString := func(key string) *string {
			if values, ok := r.MultipartForm.Value[key]; ok && len(values) > 0 {
				return &values[0]
			}
			return nil
		}

		input.Title = formString("title")
		input.Description = formString("description")
		input.Status = formString("status")
		input.ClientID = formString("clientId")

		if s := formString("startDate"); s != nil {
			startDate, err := parseDate(*s)
			if err != nil {
				writeMessage(w, http.StatusBadRequest, err.Error())
				return
			}
			input.StartDate = startDate
		}
		if s := formString("endDate"); s != nil {
			endDate, err := parseDate(*s)
			if err != nil {
				writeMessage(w, http.StatusBadRequest, err.Error())
				return
			}
			input.EndDate = endDate
		}

		var ok bool
		logo, ok = h.saveLogo(w, r)
		if !ok {
			return
		}
		input.ClientLogo = logo
	} else {
		var req struct {
			Title       *string `json:"title"`
			Description *string `json:"description"`
			Status      *string `json:"status"`
			ClientID    *string `json:"clientId"`
			StartDate   string  `json:"startDate"`
			EndDate     string  `json:"endDate"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid request payload")
			return
		}

		startDate, err := parseDate(req.StartDate)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		endDate, err := parseDate(req.EndDate)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}

		input = services.UpdateProjectInput{
			Title:       req.Title,
			Description: req.Description,
			Status:      req.Status,
			ClientID:    req.ClientID,
			StartDate:   startDate,
			EndDate:     endDate,
		}
	}

	project, err := h.projects.UpdateProject(r.Context(), actor, projectID, input)
	if err != nil {
		if logo != nil {
			h.files.DeleteAll([]models.Attachment{*logo})
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) AddTeamMember(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())

	var req struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	project, err := h.projects.AddTeamMember(r.Context(), actor, mux.Vars(r)["id"], req.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) RemoveTeamMember(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())
	vars := mux.Vars(r)

	project, err := h.projects.RemoveTeamMember(r.Context(), actor, vars["id"], vars["userId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) RemoveClient(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())

	project, err := h.projects.RemoveClient(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}
