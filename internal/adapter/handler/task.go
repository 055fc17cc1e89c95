package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-taskflow/errors"
	taskDTO "github.com/johnquangdev/meeting-taskflow/internal/adapter/dto/task"
	"github.com/johnquangdev/meeting-taskflow/internal/adapter/presenter"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	"github.com/johnquangdev/meeting-taskflow/internal/usecase/task"
)

// TaskService is the task usecase consumed by the handler
type TaskService interface {
	CreateTask(ctx context.Context, actor *entities.User, in task.CreateInput) (*entities.Task, error)
	CreateFromText(ctx context.Context, actor *entities.User, text string) (*entities.Task, error)
	ListTasks(ctx context.Context, actor *entities.User, status *entities.TaskStatus) ([]*entities.Task, error)
	GetTask(ctx context.Context, actor *entities.User, id uuid.UUID) (*entities.Task, error)
	UpdateTask(ctx context.Context, actor *entities.User, id uuid.UUID, in task.UpdateInput) (*entities.Task, error)
}

// Task handles direct task CRUD
type Task struct {
	taskService TaskService
	logger      *zap.Logger
}

// NewTask creates a new task handler
func NewTask(taskService TaskService, logger *zap.Logger) *Task {
	return &Task{taskService: taskService, logger: logger}
}

// Create creates a task and its tracker issue
// @Summary      Create task
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      taskDTO.CreateTaskRequest  true  "Task"
// @Success      201      {object}  common.SuccessResponse{data=taskDTO.TaskResponse}
// @Failure      400      {object}  common.ErrorResponse
// @Failure      403      {object}  common.ErrorResponse
// @Failure      502      {object}  common.ErrorResponse
// @Router       /tasks [post]
func (h *Task) Create(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req taskDTO.CreateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	priority, err := entities.ParsePriority(req.Priority)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}
	assigneeID, err := parseOptionalUUID(req.AssigneeID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	created, err := h.taskService.CreateTask(c.Request().Context(), user, task.CreateInput{
		Summary:     req.Summary,
		Description: req.Description,
		AssigneeID:  assigneeID,
		Priority:    priority,
		Deadline:    req.Deadline,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleCreated(h.logger, c, http.StatusCreated, presenter.ToTaskResponse(created))
}

// CreateFromText extracts one task from free text and creates it
// @Summary      Create task from text
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      taskDTO.CreateFromTextRequest  true  "Text"
// @Success      201      {object}  common.SuccessResponse{data=taskDTO.TaskResponse}
// @Failure      502      {object}  common.ErrorResponse
// @Router       /tasks/from-text [post]
func (h *Task) CreateFromText(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req taskDTO.CreateFromTextRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	created, err := h.taskService.CreateFromText(c.Request().Context(), user, req.Text)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleCreated(h.logger, c, http.StatusCreated, presenter.ToTaskResponse(created))
}

// List returns the team's tasks
// @Summary      List tasks
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status"
// @Success      200     {object}  common.SuccessResponse{data=[]taskDTO.TaskResponse}
// @Failure      409     {object}  common.ErrorResponse
// @Router       /tasks [get]
func (h *Task) List(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req taskDTO.ListTasksRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	var filter *entities.TaskStatus
	if req.Status != "" {
		st, err := entities.ParseTaskStatus(req.Status)
		if err != nil {
			return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
		}
		filter = &st
	}

	tasks, err := h.taskService.ListTasks(c.Request().Context(), user, filter)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToTaskResponses(tasks))
}

// Get returns one task
// @Summary      Get task
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  common.SuccessResponse{data=taskDTO.TaskResponse}
// @Failure      403  {object}  common.ErrorResponse
// @Failure      404  {object}  common.ErrorResponse
// @Router       /tasks/{id} [get]
func (h *Task) Get(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("invalid task id"))
	}

	t, err := h.taskService.GetTask(c.Request().Context(), user, id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToTaskResponse(t))
}

// Update changes a task and mirrors the change to its tracker issue
// @Summary      Update task
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Task ID"
// @Param        request  body      taskDTO.UpdateTaskRequest  true  "Fields to change"
// @Success      200      {object}  common.SuccessResponse{data=taskDTO.TaskResponse}
// @Failure      400      {object}  common.ErrorResponse
// @Failure      403      {object}  common.ErrorResponse
// @Failure      404      {object}  common.ErrorResponse
// @Router       /tasks/{id} [put]
func (h *Task) Update(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("invalid task id"))
	}

	var req taskDTO.UpdateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	in := task.UpdateInput{
		Summary:     req.Summary,
		Description: req.Description,
		Deadline:    req.Deadline,
	}
	if req.Status != nil {
		st, err := entities.ParseTaskStatus(*req.Status)
		if err != nil {
			return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
		}
		in.Status = &st
	}
	if req.Priority != nil {
		p, err := entities.ParsePriority(*req.Priority)
		if err != nil {
			return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
		}
		in.Priority = &p
	}
	if in.AssigneeID, err = parseOptionalUUID(req.AssigneeID); err != nil {
		return HandleError(h.logger, c, err)
	}

	updated, err := h.taskService.UpdateTask(c.Request().Context(), user, id, in)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToTaskResponse(updated))
}

func parseOptionalUUID(raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, errors.ErrInvalidArgument("invalid uuid: " + *raw)
	}
	return &id, nil
}
