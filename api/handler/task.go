package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskmaster/api/transport"
	"github.com/fastygo/taskmaster/domain"
	"github.com/fastygo/taskmaster/pkg/httpcontext"
	taskUC "github.com/fastygo/taskmaster/usecase/task"
)

type TaskHandler struct {
	baseHandler
	uc *taskUC.UseCase
}

func NewTaskHandler(uc *taskUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List tasks, optionally filtered by status, priority, overdue and search term
// @Tags tasks
// @Router /api/v1/tasks [get]
func (h *TaskHandler) GetTasks(ctx *fasthttp.RequestCtx) {
	owner, ok := h.owner(ctx)
	if !ok {
		return
	}

	args := ctx.QueryArgs()
	query := domain.TaskQuery{
		Status:   domain.TaskStatus(args.Peek("status")),
		Priority: domain.TaskPriority(args.Peek("priority")),
		Overdue:  parseBool(string(args.Peek("overdue"))),
		Term:     string(args.Peek("q")),
	}
	if query.Status != "" && !query.Status.Valid() {
		h.respondError(ctx, domain.Validation("invalid status %q", query.Status))
		return
	}
	if query.Priority != "" && !query.Priority.Valid() {
		h.respondError(ctx, domain.Validation("invalid priority %q", query.Priority))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	h.respondSuccess(ctx, http.StatusOK, h.uc.Query(stdCtx, owner, query))
}

// @Summary Create task
// @Tags tasks
// @Router /api/v1/tasks [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	owner, ok := h.owner(ctx)
	if !ok {
		return
	}

	var input domain.TaskInput
	if !h.decode(ctx, &input) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.Create(stdCtx, owner, input)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Get task
// @Tags tasks
// @Router /api/v1/tasks/{id} [get]
func (h *TaskHandler) GetTask(ctx *fasthttp.RequestCtx) {
	owner, ok := h.owner(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.Get(stdCtx, owner, taskID(ctx))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Update task
// @Tags tasks
// @Router /api/v1/tasks/{id} [patch]
func (h *TaskHandler) UpdateTask(ctx *fasthttp.RequestCtx) {
	owner, ok := h.owner(ctx)
	if !ok {
		return
	}

	var patch domain.TaskPatch
	if !h.decode(ctx, &patch) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.Update(stdCtx, owner, taskID(ctx), patch)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Delete task
// @Tags tasks
// @Router /api/v1/tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(ctx *fasthttp.RequestCtx) {
	owner, ok := h.owner(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Delete(stdCtx, owner, taskID(ctx)); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

// @Summary Apply one patch to several tasks
// @Tags tasks
// @Router /api/v1/tasks/bulk [post]
func (h *TaskHandler) BulkUpdate(ctx *fasthttp.RequestCtx) {
	owner, ok := h.owner(ctx)
	if !ok {
		return
	}

	var req transport.BulkUpdateRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	count, err := h.uc.BulkUpdate(stdCtx, owner, req.IDs, req.Updates)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.CountResponse{Count: count})
}

// @Summary Import tasks from an export bundle or a bare task array
// @Tags tasks
// @Router /api/v1/tasks/import [post]
func (h *TaskHandler) ImportTasks(ctx *fasthttp.RequestCtx) {
	owner, ok := h.owner(ctx)
	if !ok {
		return
	}

	var req transport.ImportRequest
	body := bytes.TrimSpace(ctx.PostBody())
	var err error
	if bytes.HasPrefix(body, []byte("[")) {
		err = json.Unmarshal(body, &req.Data)
	} else {
		err = json.Unmarshal(body, &req)
	}
	if err != nil {
		h.invalidPayload(ctx)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	count, err := h.uc.Import(stdCtx, owner, req.Data)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.log(stdCtx).Info("tasks imported", zap.Int("count", count))
	h.respondSuccess(ctx, http.StatusCreated, transport.CountResponse{Count: count})
}

// @Summary Task statistics of the session user
// @Tags reports
// @Router /api/v1/reports/statistics [get]
func (h *TaskHandler) Statistics(ctx *fasthttp.RequestCtx) {
	owner, ok := h.owner(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	h.respondSuccess(ctx, http.StatusOK, h.uc.Statistics(stdCtx, owner))
}

// @Summary Export tasks of the session user
// @Tags reports
// @Router /api/v1/reports/export [get]
func (h *TaskHandler) Export(ctx *fasthttp.RequestCtx) {
	owner, ok := h.owner(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	bundle := h.uc.Export(stdCtx, owner)
	body, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		h.respondError(ctx, domain.WrapError(domain.ErrCodeInternal, "encode export", err))
		return
	}
	ctx.Response.Header.SetContentType("application/json")
	ctx.Response.Header.Set("Content-Disposition",
		"attachment; filename=\"tasks-export-"+bundle.ExportedAt.Format(domain.DateLayout)+".json\"")
	ctx.SetStatusCode(http.StatusOK)
	ctx.SetBody(body)
}

func (h *TaskHandler) owner(ctx *fasthttp.RequestCtx) (domain.Owner, bool) {
	user, ok := h.sessionUser(ctx)
	if !ok {
		return domain.Owner{}, false
	}
	return domain.OwnerOf(user), true
}

func taskID(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue("id").(string)
	return id
}

func parseBool(value string) bool {
	v, err := strconv.ParseBool(value)
	return err == nil && v
}
