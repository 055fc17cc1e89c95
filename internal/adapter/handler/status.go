package handler

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-taskflow/internal/adapter/presenter"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	"github.com/johnquangdev/meeting-taskflow/internal/usecase/status"
)

// StatusService is the aggregator consumed by the handler
type StatusService interface {
	Overview(ctx context.Context, user *entities.User) (*status.Overview, error)
}

// Status serves the team overview
type Status struct {
	statusService StatusService
	logger        *zap.Logger
}

// NewStatus creates a new status handler
func NewStatus(statusService StatusService, logger *zap.Logger) *Status {
	return &Status{statusService: statusService, logger: logger}
}

// Overview returns task counts for the caller's team
// @Summary      Team status overview
// @Tags         Status
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  common.SuccessResponse{data=statusDTO.OverviewResponse}
// @Failure      409  {object}  common.ErrorResponse
// @Router       /status/overview [get]
func (h *Status) Overview(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	overview, err := h.statusService.Overview(c.Request().Context(), user)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToOverviewResponse(overview))
}
