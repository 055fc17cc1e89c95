package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	authDTO "github.com/johnquangdev/meeting-taskflow/internal/adapter/dto/auth"
	"github.com/johnquangdev/meeting-taskflow/internal/adapter/presenter"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	httpmw "github.com/johnquangdev/meeting-taskflow/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/meeting-taskflow/internal/usecase/auth"
)

// AuthService is the auth usecase consumed by the handler
type AuthService interface {
	PMLogin(ctx context.Context, in auth.PMLoginInput) (*auth.AuthResponse, error)
	Register(ctx context.Context, in auth.RegisterInput) (*auth.AuthResponse, error)
	Login(ctx context.Context, username, password string) (*auth.AuthResponse, error)
	Logout(ctx context.Context, token string) error
}

// Auth handles authentication HTTP requests
type Auth struct {
	authService  AuthService
	logger       *zap.Logger
	secureCookie bool
}

// NewAuth creates a new auth handler
func NewAuth(authService AuthService, logger *zap.Logger, secureCookie bool) *Auth {
	return &Auth{
		authService:  authService,
		logger:       logger,
		secureCookie: secureCookie,
	}
}

// PMLogin signs a project manager in with tracker credentials
// @Summary      Project manager login
// @Description  Validates the tracker credentials and returns an access token. The account is created on first login.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      authDTO.PMLoginRequest  true  "Tracker credentials"
// @Success      200      {object}  common.SuccessResponse{data=authDTO.AuthResponse}
// @Failure      400      {object}  common.ErrorResponse
// @Failure      401      {object}  common.ErrorResponse
// @Router       /auth/pm-login [post]
func (h *Auth) PMLogin(c echo.Context) error {
	var req authDTO.PMLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	resp, err := h.authService.PMLogin(c.Request().Context(), auth.PMLoginInput{
		Username:     req.Username,
		JiraUsername: req.JiraUsername,
		JiraAPIToken: req.JiraAPIToken,
		TelegramID:   req.TelegramID,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	setTokenCookie(c, resp.AccessToken, int(resp.ExpiresIn), h.secureCookie)
	return HandleSuccess(h.logger, c, presenter.ToAuthResponse(resp))
}

// Register creates an account with a password
// @Summary      Register
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      authDTO.RegisterRequest  true  "Account"
// @Success      201      {object}  common.SuccessResponse{data=authDTO.AuthResponse}
// @Failure      400      {object}  common.ErrorResponse
// @Failure      409      {object}  common.ErrorResponse
// @Router       /auth/register [post]
func (h *Auth) Register(c echo.Context) error {
	var req authDTO.RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	resp, err := h.authService.Register(c.Request().Context(), auth.RegisterInput{
		Username:   req.Username,
		Password:   req.Password,
		Email:      req.Email,
		Role:       entities.UserRole(req.Role),
		TelegramID: req.TelegramID,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	setTokenCookie(c, resp.AccessToken, int(resp.ExpiresIn), h.secureCookie)
	return HandleCreated(h.logger, c, http.StatusCreated, presenter.ToAuthResponse(resp))
}

// Login checks a username and password
// @Summary      Login
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      authDTO.LoginRequest  true  "Credentials"
// @Success      200      {object}  common.SuccessResponse{data=authDTO.AuthResponse}
// @Failure      401      {object}  common.ErrorResponse
// @Router       /auth/login [post]
func (h *Auth) Login(c echo.Context) error {
	var req authDTO.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	resp, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	setTokenCookie(c, resp.AccessToken, int(resp.ExpiresIn), h.secureCookie)
	return HandleSuccess(h.logger, c, presenter.ToAuthResponse(resp))
}

// Logout revokes the current access token
// @Summary      Logout
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  common.SuccessResponse{data=common.MessageResponse}
// @Failure      401  {object}  common.ErrorResponse
// @Router       /auth/logout [post]
func (h *Auth) Logout(c echo.Context) error {
	token, _ := c.Get(httpmw.TokenContextKey).(string)
	if err := h.authService.Logout(c.Request().Context(), token); err != nil {
		return HandleError(h.logger, c, err)
	}

	deleteTokenCookie(c)
	return HandleSuccess(h.logger, c, map[string]string{"message": "Logged out successfully"})
}

// Me returns the current user
// @Summary      Current user
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  common.SuccessResponse{data=authDTO.UserResponse}
// @Failure      401  {object}  common.ErrorResponse
// @Router       /auth/me [get]
func (h *Auth) Me(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToUserResponse(user))
}
