package rsection

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/the-dev-tools/kanban/internal/api"
	"github.com/the-dev-tools/kanban/pkg/errmap"
	"github.com/the-dev-tools/kanban/pkg/idwrap"
	"github.com/the-dev-tools/kanban/pkg/model/msection"
	"github.com/the-dev-tools/kanban/pkg/ordering"
	"github.com/the-dev-tools/kanban/pkg/service/sproject"
	"github.com/the-dev-tools/kanban/pkg/service/ssection"
)

type SectionServiceREST struct {
	DB     *sql.DB
	ss     ssection.SectionService
	ps     sproject.ProjectService
	logger *slog.Logger
}

func New(db *sql.DB, ss ssection.SectionService, ps sproject.ProjectService, logger *slog.Logger) *SectionServiceREST {
	return &SectionServiceREST{DB: db, ss: ss, ps: ps, logger: logger}
}

func (c *SectionServiceREST) Services() []api.Service {
	return []api.Service{
		{Pattern: "POST /projects/{projectId}/section", Handler: http.HandlerFunc(c.Create)},
		{Pattern: "GET /projects/{projectId}/sections", Handler: http.HandlerFunc(c.List)},
		{Pattern: "PUT /projects/{projectId}/section/{sectionId}/move", Handler: http.HandlerFunc(c.Move)},
	}
}

type createSectionRequest struct {
	Name string `json:"name"`
}

type moveSectionRequest struct {
	BeforeID *string `json:"beforeId"`
	AfterID  *string `json:"afterId"`
}

type sectionResponse struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`
	Name      string `json:"name"`
	RankKey   string `json:"rankKey"`
}

func toResponse(s msection.Section) sectionResponse {
	return sectionResponse{
		ID:        s.ID.String(),
		ProjectID: s.ProjectID.String(),
		Name:      s.Name,
		RankKey:   s.RankKey,
	}
}

func (c *SectionServiceREST) Create(w http.ResponseWriter, r *http.Request) {
	projectID, err := api.PathID(r, "projectId")
	if err != nil {
		api.WriteError(w, c.logger, err)
		return
	}
	var req createSectionRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, c.logger, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		api.WriteError(w, c.logger, errmap.New(errmap.CodeInvalidRequest, "name is required"))
		return
	}
	exists, err := c.ps.Exists(r.Context(), projectID)
	if err != nil {
		api.WriteError(w, c.logger, err)
		return
	}
	if !exists {
		api.WriteError(w, c.logger, errmap.New(errmap.CodeNotFound, "no project found"))
		return
	}

	section := msection.Section{
		ID:        idwrap.NewNow(),
		ProjectID: projectID,
		Name:      req.Name,
	}
	if err := c.ss.Create(r.Context(), &section); err != nil {
		api.WriteError(w, c.logger, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, toResponse(section))
}

func (c *SectionServiceREST) List(w http.ResponseWriter, r *http.Request) {
	projectID, err := api.PathID(r, "projectId")
	if err != nil {
		api.WriteError(w, c.logger, err)
		return
	}
	exists, err := c.ps.Exists(r.Context(), projectID)
	if err != nil {
		api.WriteError(w, c.logger, err)
		return
	}
	if !exists {
		api.WriteError(w, c.logger, errmap.New(errmap.CodeNotFound, "no project found"))
		return
	}
	sections, err := c.ss.ListByProject(r.Context(), projectID)
	if err != nil {
		api.WriteError(w, c.logger, err)
		return
	}
	out := make([]sectionResponse, 0, len(sections))
	for _, s := range sections {
		out = append(out, toResponse(s))
	}
	api.WriteJSON(w, http.StatusOK, out)
}

func (c *SectionServiceREST) Move(w http.ResponseWriter, r *http.Request) {
	projectID, err := api.PathID(r, "projectId")
	if err != nil {
		api.WriteError(w, c.logger, err)
		return
	}
	sectionID, err := api.PathID(r, "sectionId")
	if err != nil {
		api.WriteError(w, c.logger, err)
		return
	}
	var req moveSectionRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, c.logger, err)
		return
	}
	after, err := api.OptionalID(req.AfterID)
	if err != nil {
		api.WriteError(w, c.logger, err)
		return
	}
	before, err := api.OptionalID(req.BeforeID)
	if err != nil {
		api.WriteError(w, c.logger, err)
		return
	}

	section, err := c.ss.Move(r.Context(), projectID, sectionID, ordering.Hints{After: after, Before: before})
	if err != nil {
		api.WriteError(w, c.logger, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, toResponse(*section))
}
