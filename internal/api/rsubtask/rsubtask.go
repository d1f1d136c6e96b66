package rsubtask

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/the-dev-tools/kanban/internal/api"
	"github.com/the-dev-tools/kanban/pkg/errmap"
	"github.com/the-dev-tools/kanban/pkg/idwrap"
	"github.com/the-dev-tools/kanban/pkg/model/msubtask"
	"github.com/the-dev-tools/kanban/pkg/ordering"
	"github.com/the-dev-tools/kanban/pkg/service/ssubtask"
	"github.com/the-dev-tools/kanban/pkg/service/stask"
)

type SubtaskServiceREST struct {
	DB     *sql.DB
	sts    ssubtask.SubtaskService
	ts     stask.TaskService
	logger *slog.Logger
}

func New(db *sql.DB, sts ssubtask.SubtaskService, ts stask.TaskService, logger *slog.Logger) *SubtaskServiceREST {
	return &SubtaskServiceREST{DB: db, sts: sts, ts: ts, logger: logger}
}

func (c *SubtaskServiceREST) Services() []api.Service {
	return []api.Service{
		{Pattern: "POST /task/{taskId}/subtask", Handler: http.HandlerFunc(c.Create)},
		{Pattern: "GET /task/{taskId}/subtasks", Handler: http.HandlerFunc(c.List)},
		{Pattern: "PATCH /subtask/{subtaskId}/move", Handler: http.HandlerFunc(c.Move)},
	}
}

type createSubtaskRequest struct {
	Name string `json:"name"`
}

type moveSubtaskRequest struct {
	BeforeID *string `json:"beforeId"`
	AfterID  *string `json:"afterId"`
}

type subtaskResponse struct {
	ID      string `json:"id"`
	TaskID  string `json:"taskId"`
	Name    string `json:"name"`
	RankKey string `json:"rankKey"`
}

func toResponse(st msubtask.Subtask) subtaskResponse {
	return subtaskResponse{
		ID:      st.ID.String(),
		TaskID:  st.TaskID.String(),
		Name:    st.Name,
		RankKey: st.RankKey,
	}
}

func (c *SubtaskServiceREST) Create(w http.ResponseWriter, r *http.Request) {
	taskID, err := api.PathID(r, "taskId")
	if err != nil {
		api.WriteError(w, c.logger, err)
		return
	}
	var req createSubtaskRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, c.logger, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		api.WriteError(w, c.logger, errmap.New(errmap.CodeInvalidRequest, "name is required"))
		return
	}
	if _, err := c.ts.Get(r.Context(), taskID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errmap.New(errmap.CodeNotFound, "no task found")
		}
		api.WriteError(w, c.logger, err)
		return
	}

	subtask := msubtask.Subtask{
		ID:     idwrap.NewNow(),
		TaskID: taskID,
		Name:   req.Name,
	}
	if err := c.sts.Create(r.Context(), &subtask); err != nil {
		api.WriteError(w, c.logger, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, toResponse(subtask))
}

func (c *SubtaskServiceREST) List(w http.ResponseWriter, r *http.Request) {
	taskID, err := api.PathID(r, "taskId")
	if err != nil {
		api.WriteError(w, c.logger, err)
		return
	}
	if _, err := c.ts.Get(r.Context(), taskID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errmap.New(errmap.CodeNotFound, "no task found")
		}
		api.WriteError(w, c.logger, err)
		return
	}
	subtasks, err := c.sts.ListByTask(r.Context(), taskID)
	if err != nil {
		api.WriteError(w, c.logger, err)
		return
	}
	out := make([]subtaskResponse, 0, len(subtasks))
	for _, st := range subtasks {
		out = append(out, toResponse(st))
	}
	api.WriteJSON(w, http.StatusOK, out)
}

func (c *SubtaskServiceREST) Move(w http.ResponseWriter, r *http.Request) {
	subtaskID, err := api.PathID(r, "subtaskId")
	if err != nil {
		api.WriteError(w, c.logger, err)
		return
	}
	var req moveSubtaskRequest
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

	subtask, err := c.sts.Move(r.Context(), subtaskID, ordering.Hints{After: after, Before: before})
	if err != nil {
		api.WriteError(w, c.logger, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, toResponse(*subtask))
}
