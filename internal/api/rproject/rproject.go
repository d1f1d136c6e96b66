package rproject

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/the-dev-tools/kanban/internal/api"
	"github.com/the-dev-tools/kanban/pkg/errmap"
	"github.com/the-dev-tools/kanban/pkg/idwrap"
	"github.com/the-dev-tools/kanban/pkg/model/mproject"
	"github.com/the-dev-tools/kanban/pkg/service/sproject"
)

type ProjectServiceREST struct {
	DB     *sql.DB
	ps     sproject.ProjectService
	logger *slog.Logger
}

func New(db *sql.DB, ps sproject.ProjectService, logger *slog.Logger) *ProjectServiceREST {
	return &ProjectServiceREST{DB: db, ps: ps, logger: logger}
}

func (c *ProjectServiceREST) Services() []api.Service {
	return []api.Service{
		{Pattern: "POST /projects", Handler: http.HandlerFunc(c.Create)},
		{Pattern: "GET /projects", Handler: http.HandlerFunc(c.List)},
		{Pattern: "GET /projects/{projectId}", Handler: http.HandlerFunc(c.Get)},
	}
}

type createProjectRequest struct {
	Name string `json:"name"`
}

type projectResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Updated int64  `json:"updated"`
}

func toResponse(p mproject.Project) projectResponse {
	return projectResponse{
		ID:      p.ID.String(),
		Name:    p.Name,
		Updated: p.Updated.Time().Unix(),
	}
}

func (c *ProjectServiceREST) Create(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, c.logger, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		api.WriteError(w, c.logger, errmap.New(errmap.CodeInvalidRequest, "name is required"))
		return
	}

	project := mproject.Project{
		ID:   idwrap.NewNow(),
		Name: req.Name,
	}
	if err := c.ps.Create(r.Context(), &project); err != nil {
		api.WriteError(w, c.logger, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, toResponse(project))
}

func (c *ProjectServiceREST) List(w http.ResponseWriter, r *http.Request) {
	projects, err := c.ps.List(r.Context())
	if err != nil {
		api.WriteError(w, c.logger, err)
		return
	}
	out := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, toResponse(p))
	}
	api.WriteJSON(w, http.StatusOK, out)
}

func (c *ProjectServiceREST) Get(w http.ResponseWriter, r *http.Request) {
	projectID, err := api.PathID(r, "projectId")
	if err != nil {
		api.WriteError(w, c.logger, err)
		return
	}
	project, err := c.ps.Get(r.Context(), projectID)
	if err != nil {
		api.WriteError(w, c.logger, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, toResponse(*project))
}
