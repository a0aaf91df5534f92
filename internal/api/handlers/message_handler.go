package handlers

import (
	"errors"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/api/response"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/models"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/repository"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/validator"
)

const maxTitleLength = 100

// MessageHandler handles letter catalog HTTP requests
type MessageHandler struct {
	repo repository.MessageRepository
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(repo repository.MessageRepository) *MessageHandler {
	return &MessageHandler{repo: repo}
}

// MessageRequest represents the request body for creating or updating a message
type MessageRequest struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	AuthorID *uint  `json:"author_id,omitempty"`
}

func (req *MessageRequest) apply(m *models.Message) error {
	title := validator.SanitizeString(req.Title, 0)
	if title == "" {
		return errors.New("title is required")
	}
	if len([]rune(title)) > maxTitleLength {
		return validator.ErrInputTooLong
	}
	if req.Body == "" {
		return errors.New("body is required")
	}
	m.Title = title
	m.Body = req.Body
	m.AuthorID = req.AuthorID
	return nil
}

// Create handles POST /api/messages
func (h *MessageHandler) Create(c echo.Context) error {
	var req MessageRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	message := &models.Message{}
	if err := req.apply(message); err != nil {
		return response.BadRequest(c, err.Error())
	}

	if err := h.repo.Create(c.Request().Context(), message); err != nil {
		return response.InternalError(c, "failed to create message")
	}

	return response.Created(c, message)
}

// List handles GET /api/messages
func (h *MessageHandler) List(c echo.Context) error {
	authorID, ok := optionalUintQuery(c, "author_id")
	if !ok {
		return response.BadRequest(c, "invalid author_id")
	}
	limit, offset := parsePagination(c)

	messages, total, err := h.repo.List(c.Request().Context(), authorID, limit, offset)
	if err != nil {
		return response.InternalError(c, "failed to list messages")
	}

	return response.Paginated(c, messages, total, limit, offset)
}

// Get handles GET /api/messages/:id
func (h *MessageHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid message ID")
	}

	message, err := h.repo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "message not found")
		}
		return response.InternalError(c, "failed to get message")
	}

	return response.Success(c, message)
}

// Update handles PUT /api/messages/:id
func (h *MessageHandler) Update(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid message ID")
	}

	var req MessageRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	message, err := h.repo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "message not found")
		}
		return response.InternalError(c, "failed to get message")
	}

	if err := req.apply(message); err != nil {
		return response.BadRequest(c, err.Error())
	}

	if err := h.repo.Update(c.Request().Context(), message); err != nil {
		return response.InternalError(c, "failed to update message")
	}

	return response.Success(c, message)
}

// Delete handles DELETE /api/messages/:id. Sendings that use the message
// as topic or letter are deleted with it.
func (h *MessageHandler) Delete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid message ID")
	}

	if err := h.repo.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "message not found")
		}
		return response.InternalError(c, "failed to delete message")
	}

	return response.NoContent(c)
}
