package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ecotrack/energy-dashboard/internal/domain"
)

// Upstream is the slice of the energy API the server proxies through
// largely unchanged: project management and insight queries.
type Upstream interface {
	Register(ctx context.Context, email, username, password string) (*domain.User, error)
	Projects(ctx context.Context) ([]domain.Project, error)
	Project(ctx context.Context, id int64) (*domain.Project, error)
	CreateProject(ctx context.Context, name, description, location string) (*domain.Project, error)
	UpdateProject(ctx context.Context, id int64, name, description, location string) (*domain.Project, error)
	DeleteProject(ctx context.Context, id int64) error
	Recommendations(ctx context.Context, projectID *int64) ([]domain.Recommendation, error)
	Trends(ctx context.Context, months int) (*domain.Trends, error)
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register. Input problems are rejected
// here, never forwarded upstream.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Username == "" {
		h.sendError(w, "email and username are required", http.StatusBadRequest)
		return
	}
	if len(req.Password) < 8 {
		h.sendError(w, "password must be at least 8 characters", http.StatusBadRequest)
		return
	}

	user, err := h.upstream.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		h.logger.Error("failed to register user", zap.Error(err))
		h.sendError(w, "failed to register user", http.StatusBadGateway)
		return
	}
	h.respondJSON(w, http.StatusCreated, user)
}

// ListProjects handles GET /api/projects
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.upstream.Projects(r.Context())
	if err != nil {
		h.logger.Error("failed to list projects", zap.Error(err))
		h.sendError(w, "failed to list projects", http.StatusBadGateway)
		return
	}
	if projects == nil {
		projects = []domain.Project{}
	}
	h.respondJSON(w, http.StatusOK, projects)
}

// GetProject handles GET /api/projects/{id}
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		h.sendError(w, "project id must be an integer", http.StatusBadRequest)
		return
	}

	project, err := h.upstream.Project(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to fetch project", zap.Int64("project_id", id), zap.Error(err))
		h.sendError(w, "failed to fetch project", http.StatusBadGateway)
		return
	}
	h.respondJSON(w, http.StatusOK, project)
}

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

// CreateProject handles POST /api/projects
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		h.sendError(w, "name is required", http.StatusBadRequest)
		return
	}

	project, err := h.upstream.CreateProject(r.Context(), req.Name, req.Description, req.Location)
	if err != nil {
		h.logger.Error("failed to create project", zap.Error(err))
		h.sendError(w, "failed to create project", http.StatusBadGateway)
		return
	}
	h.respondJSON(w, http.StatusCreated, project)
}

// UpdateProject handles PUT /api/projects/{id}
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		h.sendError(w, "project id must be an integer", http.StatusBadRequest)
		return
	}

	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		h.sendError(w, "name is required", http.StatusBadRequest)
		return
	}

	project, err := h.upstream.UpdateProject(r.Context(), id, req.Name, req.Description, req.Location)
	if err != nil {
		h.logger.Error("failed to update project", zap.Int64("project_id", id), zap.Error(err))
		h.sendError(w, "failed to update project", http.StatusBadGateway)
		return
	}
	h.respondJSON(w, http.StatusOK, project)
}

// DeleteProject handles DELETE /api/projects/{id}
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		h.sendError(w, "project id must be an integer", http.StatusBadRequest)
		return
	}
	if err := h.upstream.DeleteProject(r.Context(), id); err != nil {
		h.logger.Error("failed to delete project", zap.Int64("project_id", id), zap.Error(err))
		h.sendError(w, "failed to delete project", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetRecommendations handles GET /api/recommendations
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	projectID := parseProjectID(r.URL.Query().Get("project_id"))

	recommendations, err := h.upstream.Recommendations(r.Context(), projectID)
	if err != nil {
		h.logger.Error("failed to fetch recommendations", zap.Error(err))
		h.sendError(w, "failed to fetch recommendations", http.StatusBadGateway)
		return
	}
	if recommendations == nil {
		recommendations = []domain.Recommendation{}
	}
	h.respondJSON(w, http.StatusOK, recommendations)
}

// GetTrends handles GET /api/trends. months defaults to 6 and is capped to
// a year, matching the insight panel's range selector.
func (h *Handler) GetTrends(w http.ResponseWriter, r *http.Request) {
	months := 6
	if raw := r.URL.Query().Get("months"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.sendError(w, "months must be a positive integer", http.StatusBadRequest)
			return
		}
		months = parsed
	}
	if months > 12 {
		months = 12
	}

	trends, err := h.upstream.Trends(r.Context(), months)
	if err != nil {
		h.logger.Error("failed to fetch trends", zap.Error(err))
		h.sendError(w, "failed to fetch trends", http.StatusBadGateway)
		return
	}
	h.respondJSON(w, http.StatusOK, trends)
}
