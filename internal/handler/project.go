package handler

import (
	"log/slog"
	"net/http"

	"chatprojects/internal/domain/services"
	"chatprojects/internal/httputil"
)

// ProjectHandler handles project HTTP requests
type ProjectHandler struct {
	projectService services.ProjectService
	logger         *slog.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projectService services.ProjectService, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		logger:         logger,
	}
}

// updateProjectBody distinguishes an absent description from an explicit null
type updateProjectBody struct {
	Name             *string                 `json:"name"`
	Description      httputil.OptionalString `json:"description"`
	BaseInstructions *string                 `json:"base_instructions"`
}

// ListProjects retrieves the caller's projects
// GET /projects?skip=&limit=
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	page, err := httputil.ParsePage(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	projects, err := h.projectService.ListProjects(r.Context(), httputil.GetUserID(r), page)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, projects)
}

// CreateProject creates a new project
// POST /projects
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req services.CreateProjectRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondBodyError(w, err)
		return
	}
	req.OwnerID = httputil.GetUserID(r)

	project, err := h.projectService.CreateProject(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, project)
}

// GetProject retrieves a project by ID
// GET /projects/{id}
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "id", "Project")
	if !ok {
		return
	}

	project, err := h.projectService.GetProject(r.Context(), httputil.GetUserID(r), projectID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, project)
}

// UpdateProject updates a project
// PUT /projects/{id}
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "id", "Project")
	if !ok {
		return
	}

	var body updateProjectBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondBodyError(w, err)
		return
	}

	req := services.UpdateProjectRequest{
		Name:             body.Name,
		Description:      body.Description.Value,
		ClearDescription: body.Description.IsNull(),
		BaseInstructions: body.BaseInstructions,
	}

	project, err := h.projectService.UpdateProject(r.Context(), httputil.GetUserID(r), projectID, &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, project)
}

// DeleteProject deletes a project with its chats and messages, returning the deleted project
// DELETE /projects/{id}
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "id", "Project")
	if !ok {
		return
	}

	project, err := h.projectService.DeleteProject(r.Context(), httputil.GetUserID(r), projectID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, project)
}
