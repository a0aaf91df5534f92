package handlers

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/api/response"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/smtp"
)

// OutboxHandler exposes mail captured by the development SMTP server
type OutboxHandler struct {
	outbox *smtp.Outbox
}

// NewOutboxHandler creates a new OutboxHandler
func NewOutboxHandler(outbox *smtp.Outbox) *OutboxHandler {
	return &OutboxHandler{outbox: outbox}
}

// List handles GET /api/dev/outbox
func (h *OutboxHandler) List(c echo.Context) error {
	messages := h.outbox.List(c.QueryParam("to"))
	return response.Success(c, map[string]interface{}{
		"messages": messages,
		"count":    len(messages),
	})
}

// Get handles GET /api/dev/outbox/:id
func (h *OutboxHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "invalid message ID")
	}

	msg, ok := h.outbox.Get(id)
	if !ok {
		return response.NotFound(c, "captured message not found")
	}
	return response.Success(c, msg)
}

// Clear handles DELETE /api/dev/outbox
func (h *OutboxHandler) Clear(c echo.Context) error {
	h.outbox.Clear()
	return response.NoContent(c)
}
