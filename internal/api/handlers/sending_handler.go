package handlers

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/api/response"
	apperrors "github.com/welldanyogia/webrana-mailcast-backend/internal/errors"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/logger"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/models"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/repository"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/sending"
)

// DispatchTrigger starts dispatch runs on demand
type DispatchTrigger interface {
	DispatchOne(ctx context.Context, id uint) (*sending.Result, error)
	DispatchDue(ctx context.Context) ([]*sending.Result, error)
}

// SendingHandler handles sending-related HTTP requests
type SendingHandler struct {
	sendings   repository.SendingRepository
	messages   repository.MessageRepository
	recipients repository.RecipientRepository
	events     repository.EventRepository
	service    *sending.Service
	trigger    DispatchTrigger
	security   *logger.SecurityLogger
}

// SendingHandlerConfig holds the dependencies of a SendingHandler
type SendingHandlerConfig struct {
	Sendings   repository.SendingRepository
	Messages   repository.MessageRepository
	Recipients repository.RecipientRepository
	Events     repository.EventRepository
	Service    *sending.Service
	Trigger    DispatchTrigger
	Security   *logger.SecurityLogger
}

// NewSendingHandler creates a new SendingHandler
func NewSendingHandler(cfg SendingHandlerConfig) *SendingHandler {
	return &SendingHandler{
		sendings:   cfg.Sendings,
		messages:   cfg.Messages,
		recipients: cfg.Recipients,
		events:     cfg.Events,
		service:    cfg.Service,
		trigger:    cfg.Trigger,
		security:   cfg.Security,
	}
}

// SendingRequest represents the request body for creating or updating a sending.
// CompanyID takes precedence over UserID; both are ignored on update.
type SendingRequest struct {
	Frequency    models.Frequency `json:"frequency"`
	CompanyID    *uint            `json:"company_id,omitempty"`
	UserID       *uint            `json:"user_id,omitempty"`
	TopicID      *uint            `json:"topic_id,omitempty"`
	LetterID     *uint            `json:"letter_id,omitempty"`
	RecipientIDs []uint           `json:"recipient_ids,omitempty"`
	ScheduledAt  *string          `json:"scheduled_at,omitempty"`
	IsActive     *bool            `json:"is_active,omitempty"`
}

// ReplaceRecipientsRequest represents the request body for replacing a recipient set
type ReplaceRecipientsRequest struct {
	RecipientIDs []uint `json:"recipient_ids"`
}

// UpdateStatusRequest represents the request body for a status transition
type UpdateStatusRequest struct {
	Status models.SendingStatus `json:"status"`
}

// SendingReport summarises the event log of a sending
type SendingReport struct {
	SendingID uint  `json:"sending_id"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
}

func (req *SendingRequest) companySource() sending.CompanySource {
	switch {
	case req.CompanyID != nil:
		return sending.ExplicitCompany(*req.CompanyID)
	case req.UserID != nil:
		return sending.FromUser(*req.UserID)
	}
	return sending.CompanySource{}
}

// Create handles POST /api/sendings
func (h *SendingHandler) Create(c echo.Context) error {
	var req SendingRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if !req.Frequency.IsValid() {
		return response.Error(c, apperrors.ErrInvalidFrequency)
	}

	requested, err := parseRequestedTime(req.ScheduledAt)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	ctx := c.Request().Context()
	if msg, ok := h.checkMessages(ctx, req.TopicID, req.LetterID); !ok {
		return response.BadRequest(c, msg)
	}

	s := &models.Sending{
		Frequency: req.Frequency,
		Status:    models.SendingStatusCreated,
		TopicID:   req.TopicID,
		LetterID:  req.LetterID,
		IsActive:  req.IsActive,
	}
	if len(req.RecipientIDs) > 0 {
		recipients, err := h.loadRecipients(ctx, req.RecipientIDs)
		if err != nil {
			return h.recipientError(c, err)
		}
		s.Recipients = recipients
	}

	opts := sending.SaveOptions{Company: req.companySource(), ScheduledAt: requested}
	if err := h.service.Create(ctx, s, opts); err != nil {
		if errors.Is(err, apperrors.ErrMissingCompany) || errors.Is(err, apperrors.ErrInvalidFrequency) {
			return response.Error(c, err)
		}
		return response.InternalError(c, "failed to create sending")
	}

	return response.Created(c, s)
}

// List handles GET /api/sendings
func (h *SendingHandler) List(c echo.Context) error {
	companyID, ok := optionalUintQuery(c, "company_id")
	if !ok {
		return response.BadRequest(c, "invalid company_id")
	}

	filter := repository.SendingFilter{CompanyID: companyID}
	if raw := c.QueryParam("status"); raw != "" {
		status := models.SendingStatus(raw)
		if !status.IsValid() {
			return response.Error(c, apperrors.ErrInvalidStatus)
		}
		filter.Status = status
	}
	limit, offset := parsePagination(c)

	sendings, total, err := h.sendings.List(c.Request().Context(), filter, limit, offset)
	if err != nil {
		return response.InternalError(c, "failed to list sendings")
	}

	return response.Paginated(c, sendings, total, limit, offset)
}

// Get handles GET /api/sendings/:id
func (h *SendingHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid sending ID")
	}

	s, err := h.sendings.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "sending not found")
		}
		return response.InternalError(c, "failed to get sending")
	}

	return response.Success(c, s)
}

// Update handles PUT /api/sendings/:id. A supplied scheduled_at replaces the
// stored one; otherwise the stored schedule is kept.
func (h *SendingHandler) Update(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid sending ID")
	}

	var req SendingRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if req.Frequency != "" && !req.Frequency.IsValid() {
		return response.Error(c, apperrors.ErrInvalidFrequency)
	}

	requested, err := parseRequestedTime(req.ScheduledAt)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	ctx := c.Request().Context()
	s, err := h.sendings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "sending not found")
		}
		return response.InternalError(c, "failed to get sending")
	}

	if msg, ok := h.checkMessages(ctx, req.TopicID, req.LetterID); !ok {
		return response.BadRequest(c, msg)
	}

	var recipients []models.Recipient
	if req.RecipientIDs != nil {
		recipients, err = h.loadRecipients(ctx, req.RecipientIDs)
		if err != nil {
			return h.recipientError(c, err)
		}
	}

	if req.Frequency != "" {
		s.Frequency = req.Frequency
	}
	if req.TopicID != nil {
		s.TopicID = req.TopicID
		s.Topic = nil
	}
	if req.LetterID != nil {
		s.LetterID = req.LetterID
		s.Letter = nil
	}
	if req.IsActive != nil {
		s.IsActive = req.IsActive
	}

	if err := h.service.Save(ctx, s, sending.SaveOptions{ScheduledAt: requested}); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrMissingCompany), errors.Is(err, apperrors.ErrInvalidFrequency):
			return response.Error(c, err)
		case errors.Is(err, repository.ErrNotFound):
			return response.NotFound(c, "sending not found")
		}
		return response.InternalError(c, "failed to update sending")
	}

	if req.RecipientIDs != nil {
		if err := h.sendings.ReplaceRecipients(ctx, id, recipients); err != nil {
			return response.InternalError(c, "failed to update sending recipients")
		}
		s.Recipients = recipients
	}

	return response.Success(c, s)
}

// ReplaceRecipients handles PUT /api/sendings/:id/recipients
func (h *SendingHandler) ReplaceRecipients(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid sending ID")
	}

	var req ReplaceRecipientsRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	ctx := c.Request().Context()
	recipients, err := h.loadRecipients(ctx, req.RecipientIDs)
	if err != nil {
		return h.recipientError(c, err)
	}

	if err := h.sendings.ReplaceRecipients(ctx, id, recipients); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "sending not found")
		}
		return response.InternalError(c, "failed to update sending recipients")
	}

	return response.Success(c, recipients)
}

// UpdateStatus handles PATCH /api/sendings/:id/status
func (h *SendingHandler) UpdateStatus(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid sending ID")
	}

	var req UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if !req.Status.IsValid() {
		return response.Error(c, apperrors.ErrInvalidStatus)
	}

	if err := h.sendings.UpdateStatus(c.Request().Context(), id, req.Status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "sending not found")
		}
		return response.InternalError(c, "failed to update sending status")
	}

	return response.SuccessWithMessage(c, map[string]interface{}{
		"id":     id,
		"status": req.Status,
	}, "status updated")
}

// SetActive handles PATCH /api/sendings/:id/active
func (h *SendingHandler) SetActive(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid sending ID")
	}

	var req SetActiveRequest
	if err := c.Bind(&req); err != nil || req.IsActive == nil {
		return response.BadRequest(c, "is_active is required")
	}

	if err := h.sendings.SetActive(c.Request().Context(), id, *req.IsActive); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "sending not found")
		}
		return response.InternalError(c, "failed to update sending")
	}

	return response.Success(c, map[string]interface{}{
		"id":        id,
		"is_active": *req.IsActive,
	})
}

// Dispatch handles POST /api/sendings/:id/dispatch. An aborted run answers
// with the transport error and the events recorded before the failure.
func (h *SendingHandler) Dispatch(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid sending ID")
	}

	if h.security != nil {
		h.security.DispatchTriggered(c.RealIP(), id)
	}

	result, err := h.trigger.DispatchOne(c.Request().Context(), id)
	if err != nil {
		if result != nil {
			return response.ErrorWithData(c, err, result)
		}
		return response.Error(c, err)
	}

	return response.Success(c, result)
}

// DispatchDue handles POST /api/sendings/dispatch-due
func (h *SendingHandler) DispatchDue(c echo.Context) error {
	if h.security != nil {
		h.security.DispatchTriggered(c.RealIP(), 0)
	}

	results, err := h.trigger.DispatchDue(c.Request().Context())
	if err != nil {
		return response.ErrorWithData(c, err, results)
	}

	return response.Success(c, results)
}

// Events handles GET /api/sendings/:id/events
func (h *SendingHandler) Events(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid sending ID")
	}
	limit, offset := parsePagination(c)

	events, total, err := h.events.ListBySending(c.Request().Context(), id, limit, offset)
	if err != nil {
		return response.InternalError(c, "failed to list events")
	}

	return response.Paginated(c, events, total, limit, offset)
}

// Report handles GET /api/sendings/:id/report
func (h *SendingHandler) Report(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid sending ID")
	}

	ctx := c.Request().Context()
	succeeded, err := h.events.CountByStatus(ctx, id, models.EventStatusSucceeded)
	if err != nil {
		return response.InternalError(c, "failed to count events")
	}
	failed, err := h.events.CountByStatus(ctx, id, models.EventStatusFailed)
	if err != nil {
		return response.InternalError(c, "failed to count events")
	}

	return response.Success(c, SendingReport{SendingID: id, Succeeded: succeeded, Failed: failed})
}

// Delete handles DELETE /api/sendings/:id
func (h *SendingHandler) Delete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid sending ID")
	}

	if err := h.sendings.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "sending not found")
		}
		return response.InternalError(c, "failed to delete sending")
	}

	return response.NoContent(c)
}

func parseRequestedTime(raw *string) (*sending.ScheduledTime, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	return sending.ParseScheduledTime(*raw)
}

// checkMessages verifies that referenced topic and letter exist
func (h *SendingHandler) checkMessages(ctx context.Context, topicID, letterID *uint) (string, bool) {
	for _, ref := range []struct {
		id   *uint
		name string
	}{{topicID, "topic"}, {letterID, "letter"}} {
		if ref.id == nil {
			continue
		}
		if _, err := h.messages.GetByID(ctx, *ref.id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ref.name + " not found", false
			}
			return "failed to load " + ref.name, false
		}
	}
	return "", true
}

// loadRecipients resolves recipient IDs. An unknown ID yields repository.ErrNotFound.
func (h *SendingHandler) loadRecipients(ctx context.Context, ids []uint) ([]models.Recipient, error) {
	if len(ids) == 0 {
		return []models.Recipient{}, nil
	}
	return h.recipients.GetByIDs(ctx, ids)
}

func (h *SendingHandler) recipientError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return response.BadRequest(c, "unknown recipient in recipient_ids")
	}
	return response.InternalError(c, "failed to load recipients")
}
