package handler

import (
	stdErrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-taskflow/errors"
	"github.com/johnquangdev/meeting-taskflow/internal/adapter/dto/common"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	"github.com/johnquangdev/meeting-taskflow/internal/infrastructure/external/jira"
	httpmw "github.com/johnquangdev/meeting-taskflow/internal/infrastructure/http/middleware"
	ucerrors "github.com/johnquangdev/meeting-taskflow/internal/usecase/errors"
	"github.com/johnquangdev/meeting-taskflow/internal/usecase/extraction"
)

// getRequestID tries to read X-Request-ID from the request or the response
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	if id := c.Request().Header.Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// currentUser returns the user set by the auth middleware
func currentUser(c echo.Context) (*entities.User, error) {
	user, ok := httpmw.GetUser(c)
	if !ok {
		return nil, errors.ErrUnauthenticated()
	}
	return user, nil
}

// HandleSuccess writes a standardized success response using provided logger
func HandleSuccess(logger *zap.Logger, c echo.Context, data interface{}) error {
	return respond(logger, c, http.StatusOK, data)
}

// HandleCreated writes a standardized success response with a non-200 status, e.g. 201 or 202
func HandleCreated(logger *zap.Logger, c echo.Context, status int, data interface{}) error {
	return respond(logger, c, status, data)
}

func respond(logger *zap.Logger, c echo.Context, status int, data interface{}) error {
	resp := common.SuccessResponse{
		Code:    int(errors.ErrorCode_HTTP_OK),
		Message: "success",
		Data:    data,
	}

	if logger != nil {
		logger.Info("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.Int("status", status),
		)
	}

	return c.JSON(status, resp)
}

// HandleError centralizes error handling and logging using provided logger
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	appErr := ToAppError(err)

	if logger != nil {
		fields := []zap.Field{
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.Stringer("app_code", appErr.Code),
			zap.Error(err),
		}
		if appErr.HTTPCode >= http.StatusInternalServerError {
			logger.Error("http.response.error", fields...)
		} else {
			logger.Warn("http.response.error", fields...)
		}
	}

	body := common.ErrorResponse{
		Code:    appErr.Code.String(),
		Message: appErr.Message,
		Details: appErr.Details,
	}
	if appErr.Raw != nil {
		body.Info = appErr.Raw.Error()
	}

	return c.JSON(appErr.HTTPCode, body)
}

// ToAppError maps usecase and client errors onto the HTTP error catalogue
func ToAppError(err error) errors.AppError {
	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		return appErr
	}

	var httpErr *echo.HTTPError
	if stdErrors.As(err, &httpErr) {
		return fromHTTPError(httpErr)
	}

	switch {
	case stdErrors.Is(err, ucerrors.ErrInvalidInput),
		stdErrors.Is(err, ucerrors.ErrEmptyContent),
		stdErrors.Is(err, ucerrors.ErrNotTeamMember):
		return errors.ErrInvalidArgument(err.Error())

	case stdErrors.Is(err, ucerrors.ErrNotFound),
		stdErrors.Is(err, entities.ErrUserNotFound),
		stdErrors.Is(err, entities.ErrTeamNotFound),
		stdErrors.Is(err, entities.ErrMeetingNotFound),
		stdErrors.Is(err, entities.ErrTaskNotFound):
		return errors.ErrNotFound("Resource")

	case stdErrors.Is(err, ucerrors.ErrAlreadyExists):
		return errors.ErrAlreadyExists("Resource")

	case stdErrors.Is(err, ucerrors.ErrRoleViolation):
		return errors.ErrRoleViolation("perform this action")

	case stdErrors.Is(err, ucerrors.ErrAccessDenied):
		return errors.ErrAccessDenied("this resource")

	case stdErrors.Is(err, ucerrors.ErrNoTeam):
		return errors.ErrNoTeam()

	case stdErrors.Is(err, ucerrors.ErrAlreadyHasTeam),
		stdErrors.Is(err, ucerrors.ErrCannotRemoveManager):
		return errors.ErrConflict(err.Error())

	case stdErrors.Is(err, ucerrors.ErrAlreadyInTeam):
		return errors.AppError{
			HTTPCode: http.StatusConflict,
			Code:     errors.ErrorCode_ALREADY_IN_TEAM,
			Message:  "User already belongs to a team",
		}

	case stdErrors.Is(err, ucerrors.ErrInvalidCredentials):
		return errors.ErrInvalidCredentials()

	case stdErrors.Is(err, ucerrors.ErrTokenExpired):
		return errors.ErrTokenExpired()

	case stdErrors.Is(err, ucerrors.ErrTokenInvalid),
		stdErrors.Is(err, ucerrors.ErrTokenRevoked):
		return errors.ErrInvalidToken()

	case stdErrors.Is(err, ucerrors.ErrQueueFull):
		return errors.ErrQueueFull()

	case stdErrors.Is(err, extraction.ErrExtractionFailed):
		return errors.ErrExtractionFailed(string(extraction.KindOf(err)), err)

	case stdErrors.Is(err, jira.ErrUnauthorized):
		return errors.ErrTrackerUnauthorized(err)

	case stdErrors.Is(err, jira.ErrRequestFailed):
		return errors.ErrTrackerRequestFailed(err)
	}

	return errors.ErrInternal(err)
}

func fromHTTPError(he *echo.HTTPError) errors.AppError {
	msg := http.StatusText(he.Code)
	if s, ok := he.Message.(string); ok && s != "" {
		msg = s
	}

	code := errors.ErrorCode_INTERNAL
	switch he.Code {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
		code = errors.ErrorCode_INVALID_ARGUMENT
	case http.StatusUnauthorized:
		code = errors.ErrorCode_UNAUTHENTICATED
	case http.StatusForbidden:
		code = errors.ErrorCode_PERMISSION_DENIED
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		code = errors.ErrorCode_NOT_FOUND
	}

	return errors.AppError{HTTPCode: he.Code, Code: code, Message: msg, Raw: he.Internal}
}

// HTTPErrorHandler renders errors that escape handlers and middleware in the common envelope
func HTTPErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		if hErr := HandleError(logger, c, err); hErr != nil && logger != nil {
			logger.Error("failed to write error response", zap.Error(hErr))
		}
	}
}

// bindAndValidate binds the request into req and validates it
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errors.ErrInvalidPayload(err)
	}
	if err := c.Validate(req); err != nil {
		return errors.ErrInvalidPayload(err)
	}
	return nil
}

// setTokenCookie stores the access token in an HTTP-only cookie
func setTokenCookie(c echo.Context, token string, maxAge int, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     "access_token",
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// deleteTokenCookie clears the access token cookie
func deleteTokenCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:   "access_token",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}
