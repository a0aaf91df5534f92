package handlers

import (
	"errors"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/api/response"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/models"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/repository"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/validator"
)

const maxNameLength = 100

// RecipientHandler handles recipient-related HTTP requests
type RecipientHandler struct {
	repo repository.RecipientRepository
}

// NewRecipientHandler creates a new RecipientHandler
func NewRecipientHandler(repo repository.RecipientRepository) *RecipientHandler {
	return &RecipientHandler{repo: repo}
}

// RecipientRequest represents the request body for creating or updating a recipient
type RecipientRequest struct {
	Email      string  `json:"email"`
	FirstName  *string `json:"first_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	MiddleName *string `json:"middle_name,omitempty"`
	Comment    *string `json:"comment,omitempty"`
	OwnerID    *uint   `json:"owner_id,omitempty"`
}

// recipientResponse adds the rendered display name
type recipientResponse struct {
	*models.Recipient
	DisplayName string `json:"display_name"`
}

func newRecipientResponse(r *models.Recipient) recipientResponse {
	return recipientResponse{Recipient: r, DisplayName: r.DisplayName()}
}

func (req *RecipientRequest) apply(r *models.Recipient) error {
	if err := validator.ValidateEmail(req.Email); err != nil {
		return err
	}
	r.Email = validator.NormalizeEmail(req.Email)
	r.FirstName = sanitizeOptional(req.FirstName, maxNameLength)
	r.LastName = sanitizeOptional(req.LastName, maxNameLength)
	r.MiddleName = sanitizeOptional(req.MiddleName, maxNameLength)
	r.Comment = sanitizeOptional(req.Comment, 0)
	r.OwnerID = req.OwnerID
	return nil
}

// sanitizeOptional cleans an optional text field; blank values become nil
func sanitizeOptional(s *string, maxLength int) *string {
	if s == nil {
		return nil
	}
	clean := validator.SanitizeString(*s, maxLength)
	if clean == "" {
		return nil
	}
	return &clean
}

// Create handles POST /api/recipients
func (h *RecipientHandler) Create(c echo.Context) error {
	var req RecipientRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	recipient := &models.Recipient{}
	if err := req.apply(recipient); err != nil {
		return response.BadRequest(c, err.Error())
	}

	if err := h.repo.Create(c.Request().Context(), recipient); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return response.Conflict(c, "recipient already exists")
		}
		return response.InternalError(c, "failed to create recipient")
	}

	return response.Created(c, newRecipientResponse(recipient))
}

// List handles GET /api/recipients
func (h *RecipientHandler) List(c echo.Context) error {
	ownerID, ok := optionalUintQuery(c, "owner_id")
	if !ok {
		return response.BadRequest(c, "invalid owner_id")
	}
	limit, offset := parsePagination(c)

	recipients, total, err := h.repo.List(c.Request().Context(), ownerID, limit, offset)
	if err != nil {
		return response.InternalError(c, "failed to list recipients")
	}

	items := make([]recipientResponse, len(recipients))
	for i := range recipients {
		items[i] = newRecipientResponse(&recipients[i])
	}
	return response.Paginated(c, items, total, limit, offset)
}

// Get handles GET /api/recipients/:id
func (h *RecipientHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid recipient ID")
	}

	recipient, err := h.repo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "recipient not found")
		}
		return response.InternalError(c, "failed to get recipient")
	}

	return response.Success(c, newRecipientResponse(recipient))
}

// Update handles PUT /api/recipients/:id
func (h *RecipientHandler) Update(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid recipient ID")
	}

	var req RecipientRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	recipient, err := h.repo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "recipient not found")
		}
		return response.InternalError(c, "failed to get recipient")
	}

	if err := req.apply(recipient); err != nil {
		return response.BadRequest(c, err.Error())
	}

	if err := h.repo.Update(c.Request().Context(), recipient); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return response.Conflict(c, "recipient already exists")
		}
		return response.InternalError(c, "failed to update recipient")
	}

	return response.Success(c, newRecipientResponse(recipient))
}

// Delete handles DELETE /api/recipients/:id
func (h *RecipientHandler) Delete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid recipient ID")
	}

	if err := h.repo.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "recipient not found")
		}
		return response.InternalError(c, "failed to delete recipient")
	}

	return response.NoContent(c)
}
