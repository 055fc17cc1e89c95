package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-taskflow/errors"
	meetingDTO "github.com/johnquangdev/meeting-taskflow/internal/adapter/dto/meeting"
	"github.com/johnquangdev/meeting-taskflow/internal/adapter/presenter"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	"github.com/johnquangdev/meeting-taskflow/internal/usecase/meeting"
)

// MeetingService is the pipeline usecase consumed by the handler
type MeetingService interface {
	Submit(ctx context.Context, actor *entities.User, sub meeting.Submission) (*meeting.SubmitResult, error)
	GetStatus(ctx context.Context, actor *entities.User, meetingID uuid.UUID) (*meeting.StatusView, error)
}

// Meeting handles meeting submission and polling
type Meeting struct {
	meetingService MeetingService
	maxUpload      int64
	logger         *zap.Logger
}

// NewMeeting creates a new meeting handler; maxUpload is the audio size limit in bytes
func NewMeeting(meetingService MeetingService, maxUpload int64, logger *zap.Logger) *Meeting {
	return &Meeting{
		meetingService: meetingService,
		maxUpload:      maxUpload,
		logger:         logger,
	}
}

// AnalyzeAudio accepts a meeting recording
// @Summary      Submit meeting audio
// @Description  Stores the recording and queues transcription and task extraction. Returns immediately.
// @Tags         Meetings
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "Meeting recording"
// @Success      202   {object}  common.SuccessResponse{data=meetingDTO.AnalyzeResponse}
// @Failure      400   {object}  common.ErrorResponse
// @Failure      403   {object}  common.ErrorResponse
// @Failure      503   {object}  common.ErrorResponse
// @Router       /meetings/analyze [post]
func (h *Meeting) AnalyzeAudio(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("multipart field 'file' is required"))
	}
	if h.maxUpload > 0 && fileHeader.Size > h.maxUpload {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(fmt.Sprintf("file exceeds %d bytes", h.maxUpload)))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload(err))
	}
	defer src.Close()

	audio, err := io.ReadAll(src)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload(err))
	}

	result, err := h.meetingService.Submit(c.Request().Context(), user, meeting.Submission{
		FileName: fileHeader.Filename,
		Audio:    audio,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleCreated(h.logger, c, http.StatusAccepted, presenter.ToAnalyzeResponse(result))
}

// AnalyzeTranscript accepts a meeting transcript
// @Summary      Submit meeting transcript
// @Tags         Meetings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      meetingDTO.AnalyzeTranscriptRequest  true  "Transcript"
// @Success      202      {object}  common.SuccessResponse{data=meetingDTO.AnalyzeResponse}
// @Failure      400      {object}  common.ErrorResponse
// @Failure      403      {object}  common.ErrorResponse
// @Router       /meetings/analyze/transcript [post]
func (h *Meeting) AnalyzeTranscript(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req meetingDTO.AnalyzeTranscriptRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	result, err := h.meetingService.Submit(c.Request().Context(), user, meeting.Submission{
		FileName:   req.Title,
		Transcript: req.Transcript,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleCreated(h.logger, c, http.StatusAccepted, presenter.ToAnalyzeResponse(result))
}

// GetStatus returns the processing status of a meeting
// @Summary      Meeting status
// @Tags         Meetings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Meeting ID"
// @Success      200  {object}  common.SuccessResponse{data=meetingDTO.MeetingStatusResponse}
// @Failure      403  {object}  common.ErrorResponse
// @Failure      404  {object}  common.ErrorResponse
// @Router       /meetings/{id}/status [get]
func (h *Meeting) GetStatus(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("invalid meeting id"))
	}

	view, err := h.meetingService.GetStatus(c.Request().Context(), user, id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToMeetingStatusResponse(view))
}
