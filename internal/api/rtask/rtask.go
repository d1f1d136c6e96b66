package rtask

import (
	"bytes"
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/the-dev-tools/kanban/internal/api"
	"github.com/the-dev-tools/kanban/pkg/errmap"
	"github.com/the-dev-tools/kanban/pkg/idwrap"
	"github.com/the-dev-tools/kanban/pkg/model/mtask"
	"github.com/the-dev-tools/kanban/pkg/ordering"
	"github.com/the-dev-tools/kanban/pkg/service/sproject"
	"github.com/the-dev-tools/kanban/pkg/service/ssection"
	"github.com/the-dev-tools/kanban/pkg/service/stask"

	json "github.com/goccy/go-json"
)

type TaskServiceREST struct {
	DB     *sql.DB
	ts     stask.TaskService
	ses    ssection.SectionService
	ps     sproject.ProjectService
	logger *slog.Logger
}

func New(db *sql.DB, ts stask.TaskService, ses ssection.SectionService, ps sproject.ProjectService, logger *slog.Logger) *TaskServiceREST {
	return &TaskServiceREST{DB: db, ts: ts, ses: ses, ps: ps, logger: logger}
}

func (c *TaskServiceREST) Services() []api.Service {
	return []api.Service{
		{Pattern: "POST /projects/{projectId}/task", Handler: http.HandlerFunc(c.Create)},
		{Pattern: "GET /projects/{projectId}/tasks", Handler: http.HandlerFunc(c.List)},
		{Pattern: "PUT /projects/{projectId}/task/{taskId}/move", Handler: http.HandlerFunc(c.Move)},
	}
}

type createTaskRequest struct {
	Name      string  `json:"name"`
	SectionID *string `json:"sectionId"`
}

// moveTaskRequest keeps targetSectionId raw so the handler can tell an
// absent field apart from an explicit null.
type moveTaskRequest struct {
	TargetSectionID json.RawMessage `json:"targetSectionId"`
	BeforeID        *string         `json:"beforeId"`
	AfterID         *string         `json:"afterId"`
}

type taskResponse struct {
	ID        string  `json:"id"`
	ProjectID string  `json:"projectId"`
	SectionID *string `json:"sectionId"`
	Name      string  `json:"name"`
	RankKey   string  `json:"rankKey"`
}

func toResponse(t mtask.Task) taskResponse {
	resp := taskResponse{
		ID:        t.ID.String(),
		ProjectID: t.ProjectID.String(),
		Name:      t.Name,
		RankKey:   t.RankKey,
	}
	if t.SectionID != nil {
		s := t.SectionID.String()
		resp.SectionID = &s
	}
	return resp
}

// containerChange maps the raw targetSectionId field to a container change:
// absent means stay put, null (or the "null"/"unlocated" strings) means the
// unlocated bucket, and anything else must be a section id.
func containerChange(raw json.RawMessage) (ordering.ContainerChange, error) {
	if len(raw) == 0 {
		return ordering.NoChange(), nil
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return ordering.ToDefault(), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ordering.ContainerChange{}, errmap.New(errmap.CodeInvalidRequest, "targetSectionId must be a string or null")
	}
	if s == "null" || s == "unlocated" {
		return ordering.ToDefault(), nil
	}
	id, err := idwrap.NewTextNormalized(s)
	if err != nil {
		return ordering.ContainerChange{}, errmap.New(errmap.CodeInvalidIdentifier, "invalid targetSectionId")
	}
	return ordering.To(id), nil
}

func (c *TaskServiceREST) Create(w http.ResponseWriter, r *http.Request) {
	projectID, err := api.PathID(r, "projectId")
	if err != nil {
		api.WriteError(w, c.logger, err)
		return
	}
	var req createTaskRequest
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

	sectionID, err := api.OptionalID(req.SectionID)
	if err != nil {
		api.WriteError(w, c.logger, err)
		return
	}
	if sectionID != nil {
		if _, err := c.ses.GetInProject(r.Context(), projectID, *sectionID); err != nil {
			api.WriteError(w, c.logger, errmap.New(errmap.CodeNotFound, "no section found"))
			return
		}
	}

	task := mtask.Task{
		ID:        idwrap.NewNow(),
		ProjectID: projectID,
		SectionID: sectionID,
		Name:      req.Name,
	}
	if err := c.ts.Create(r.Context(), &task); err != nil {
		api.WriteError(w, c.logger, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, toResponse(task))
}

func (c *TaskServiceREST) List(w http.ResponseWriter, r *http.Request) {
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

	// sectionId selects one bucket; absent or "unlocated" is the bucket of
	// tasks without a section.
	var sectionID *idwrap.IDWrap
	if q := r.URL.Query().Get("sectionId"); q != "" && q != "null" && q != "unlocated" {
		id, err := idwrap.NewTextNormalized(q)
		if err != nil {
			api.WriteError(w, c.logger, errmap.New(errmap.CodeInvalidIdentifier, "invalid sectionId"))
			return
		}
		sectionID = &id
	}

	tasks, err := c.ts.ListByContainer(r.Context(), projectID, sectionID)
	if err != nil {
		api.WriteError(w, c.logger, err)
		return
	}
	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toResponse(t))
	}
	api.WriteJSON(w, http.StatusOK, out)
}

func (c *TaskServiceREST) Move(w http.ResponseWriter, r *http.Request) {
	projectID, err := api.PathID(r, "projectId")
	if err != nil {
		api.WriteError(w, c.logger, err)
		return
	}
	taskID, err := api.PathID(r, "taskId")
	if err != nil {
		api.WriteError(w, c.logger, err)
		return
	}
	var req moveTaskRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, c.logger, err)
		return
	}
	change, err := containerChange(req.TargetSectionID)
	if err != nil {
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

	task, err := c.ts.Move(r.Context(), projectID, taskID, ordering.MoveRequest{
		Container: change,
		Hints:     ordering.Hints{After: after, Before: before},
	})
	if err != nil {
		api.WriteError(w, c.logger, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, toResponse(*task))
}
