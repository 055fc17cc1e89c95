package handler

import (
	"context"
	stdErrors "errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-taskflow/errors"
	teamDTO "github.com/johnquangdev/meeting-taskflow/internal/adapter/dto/team"
	"github.com/johnquangdev/meeting-taskflow/internal/adapter/presenter"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	ucerrors "github.com/johnquangdev/meeting-taskflow/internal/usecase/errors"
	"github.com/johnquangdev/meeting-taskflow/internal/usecase/team"
)

// TeamService is the team usecase consumed by the handler
type TeamService interface {
	CreateTeam(ctx context.Context, actor *entities.User, in team.CreateInput) (*entities.Team, error)
	AddMember(ctx context.Context, actor *entities.User, in team.MemberInput) (*entities.User, error)
	GetTeam(ctx context.Context, actor *entities.User) (*entities.Team, error)
	GetMembers(ctx context.Context, actor *entities.User) ([]*entities.User, error)
	RemoveMember(ctx context.Context, actor *entities.User, memberID uuid.UUID) error
}

// Team handles the project manager's team
type Team struct {
	teamService TeamService
	logger      *zap.Logger
}

// NewTeam creates a new team handler
func NewTeam(teamService TeamService, logger *zap.Logger) *Team {
	return &Team{teamService: teamService, logger: logger}
}

// Create creates the caller's team
// @Summary      Create team
// @Tags         Team
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      teamDTO.CreateTeamRequest  true  "Team"
// @Success      201      {object}  common.SuccessResponse{data=teamDTO.TeamResponse}
// @Failure      403      {object}  common.ErrorResponse
// @Failure      409      {object}  common.ErrorResponse
// @Router       /team [post]
func (h *Team) Create(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req teamDTO.CreateTeamRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	created, err := h.teamService.CreateTeam(c.Request().Context(), user, team.CreateInput{
		Name:           req.Name,
		JiraProjectKey: req.JiraProjectKey,
		JiraURL:        req.JiraURL,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleCreated(h.logger, c, http.StatusCreated, presenter.ToTeamResponse(created))
}

// Get returns the caller's team with members
// @Summary      Get team
// @Tags         Team
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  common.SuccessResponse{data=teamDTO.TeamResponse}
// @Failure      409  {object}  common.ErrorResponse
// @Router       /team [get]
func (h *Team) Get(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	t, err := h.teamService.GetTeam(c.Request().Context(), user)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToTeamResponse(t))
}

// AddMember adds or updates a team member
// @Summary      Add team member
// @Tags         Team
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      teamDTO.AddMemberRequest  true  "Member"
// @Success      201      {object}  common.SuccessResponse{data=authDTO.UserResponse}
// @Failure      400      {object}  common.ErrorResponse
// @Failure      409      {object}  common.ErrorResponse
// @Router       /team/members [post]
func (h *Team) AddMember(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req teamDTO.AddMemberRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	member, err := h.teamService.AddMember(c.Request().Context(), user, team.MemberInput{
		Username:     req.Username,
		Email:        req.Email,
		Role:         entities.UserRole(req.Role),
		JiraUsername: req.JiraUsername,
	})
	if err != nil {
		if stdErrors.Is(err, ucerrors.ErrAlreadyInTeam) {
			return HandleError(h.logger, c, errors.ErrAlreadyInTeam(req.Username))
		}
		return HandleError(h.logger, c, err)
	}

	return HandleCreated(h.logger, c, http.StatusCreated, presenter.ToUserResponse(member))
}

// Members lists the team members
// @Summary      List team members
// @Tags         Team
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  common.SuccessResponse{data=[]authDTO.UserResponse}
// @Failure      409  {object}  common.ErrorResponse
// @Router       /team/members [get]
func (h *Team) Members(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	members, err := h.teamService.GetMembers(c.Request().Context(), user)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToUserResponses(members))
}

// RemoveMember removes a member from the team
// @Summary      Remove team member
// @Tags         Team
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  common.SuccessResponse{data=common.MessageResponse}
// @Failure      400  {object}  common.ErrorResponse
// @Failure      404  {object}  common.ErrorResponse
// @Router       /team/members/{id} [delete]
func (h *Team) RemoveMember(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("invalid user id"))
	}

	if err := h.teamService.RemoveMember(c.Request().Context(), user, id); err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, map[string]string{"message": "Member removed"})
}
