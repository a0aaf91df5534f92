package handlers

import (
	"errors"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/api/response"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/logger"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/models"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/repository"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/storage"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/validator"
	"golang.org/x/crypto/bcrypt"
)

const maxCompanyLength = 100

// UserHandler handles company account HTTP requests
type UserHandler struct {
	repo     repository.UserRepository
	avatars  storage.AvatarStorage
	security *logger.SecurityLogger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(repo repository.UserRepository, avatars storage.AvatarStorage, security *logger.SecurityLogger) *UserHandler {
	return &UserHandler{repo: repo, avatars: avatars, security: security}
}

// CreateUserRequest represents the request body for registering a user
type CreateUserRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Company  string  `json:"company"`
	Phone    *string `json:"phone,omitempty"`
	Country  *string `json:"country,omitempty"`
}

// UpdateUserRequest represents the request body for a profile update
type UpdateUserRequest struct {
	Company *string `json:"company,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Country *string `json:"country,omitempty"`
}

// SetActiveRequest toggles an account or sending
type SetActiveRequest struct {
	IsActive *bool `json:"is_active"`
}

// Create handles POST /api/users. New accounts start inactive.
func (h *UserHandler) Create(c echo.Context) error {
	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	if err := validator.ValidateEmail(req.Email); err != nil {
		return response.BadRequest(c, err.Error())
	}
	if err := validator.ValidatePassword(req.Password); err != nil {
		return response.BadRequest(c, err.Error())
	}
	company := validator.SanitizeString(req.Company, maxCompanyLength)
	if company == "" {
		return response.BadRequest(c, "company is required")
	}
	if req.Phone != nil {
		if err := validator.ValidatePhone(*req.Phone); err != nil {
			return response.BadRequest(c, err.Error())
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return response.InternalError(c, "failed to hash password")
	}

	user := &models.User{
		Email:        validator.NormalizeEmail(req.Email),
		PasswordHash: string(hash),
		Company:      company,
		Phone:        req.Phone,
		Country:      req.Country,
	}
	if err := h.repo.Create(c.Request().Context(), user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return response.Conflict(c, "email or company already registered")
		}
		return response.InternalError(c, "failed to create user")
	}

	return response.Created(c, user)
}

// List handles GET /api/users
func (h *UserHandler) List(c echo.Context) error {
	limit, offset := parsePagination(c)

	users, total, err := h.repo.List(c.Request().Context(), limit, offset)
	if err != nil {
		return response.InternalError(c, "failed to list users")
	}

	return response.Paginated(c, users, total, limit, offset)
}

// Get handles GET /api/users/:id
func (h *UserHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid user ID")
	}

	user, err := h.repo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "user not found")
		}
		return response.InternalError(c, "failed to get user")
	}

	return response.Success(c, user)
}

// Update handles PUT /api/users/:id
func (h *UserHandler) Update(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid user ID")
	}

	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	user, err := h.repo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "user not found")
		}
		return response.InternalError(c, "failed to get user")
	}

	if req.Company != nil {
		company := validator.SanitizeString(*req.Company, maxCompanyLength)
		if company == "" {
			return response.BadRequest(c, "company cannot be empty")
		}
		user.Company = company
	}
	if req.Phone != nil {
		if err := validator.ValidatePhone(*req.Phone); err != nil {
			return response.BadRequest(c, err.Error())
		}
		user.Phone = req.Phone
	}
	if req.Country != nil {
		user.Country = req.Country
	}

	if err := h.repo.Update(c.Request().Context(), user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return response.Conflict(c, "company already registered")
		}
		return response.InternalError(c, "failed to update user")
	}

	return response.Success(c, user)
}

// SetActive handles PATCH /api/users/:id/active. It stands in for email
// confirmation and lets a manager disable an account.
func (h *UserHandler) SetActive(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid user ID")
	}

	var req SetActiveRequest
	if err := c.Bind(&req); err != nil || req.IsActive == nil {
		return response.BadRequest(c, "is_active is required")
	}

	if err := h.repo.SetActive(c.Request().Context(), id, *req.IsActive); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "user not found")
		}
		return response.InternalError(c, "failed to update user")
	}

	if h.security != nil {
		h.security.AccountStateChanged(c.RealIP(), id, *req.IsActive)
	}
	return response.SuccessWithMessage(c, map[string]interface{}{"id": id, "is_active": *req.IsActive}, "account updated")
}

// UploadAvatar handles PUT /api/users/:id/avatar (multipart field "avatar")
func (h *UserHandler) UploadAvatar(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid user ID")
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		return response.BadRequest(c, "avatar file is required")
	}
	if file.Size > storage.MaxAvatarSize {
		h.blockedUpload(c, file.Filename, "file too large")
		return response.BadRequest(c, storage.ErrFileTooLarge.Error())
	}

	user, err := h.repo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "user not found")
		}
		return response.InternalError(c, "failed to get user")
	}

	src, err := file.Open()
	if err != nil {
		return response.BadRequest(c, "failed to read avatar")
	}
	defer src.Close()

	filename := validator.SanitizeFilename(file.Filename)
	path, err := h.avatars.Save(filename, src)
	if err != nil {
		switch {
		case errors.Is(err, validator.ErrInvalidImage),
			errors.Is(err, storage.ErrNotAnImage),
			errors.Is(err, storage.ErrFileTooLarge):
			h.blockedUpload(c, filename, err.Error())
			return response.BadRequest(c, err.Error())
		default:
			return response.InternalError(c, "failed to store avatar")
		}
	}

	if err := h.repo.UpdateAvatar(c.Request().Context(), id, path); err != nil {
		_ = h.avatars.Delete(path)
		return response.InternalError(c, "failed to update user")
	}
	if user.Avatar != "" {
		_ = h.avatars.Delete(user.Avatar)
	}

	user.Avatar = path
	return response.Success(c, user)
}

// GetAvatar handles GET /api/users/:id/avatar
func (h *UserHandler) GetAvatar(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid user ID")
	}

	user, err := h.repo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "user not found")
		}
		return response.InternalError(c, "failed to get user")
	}
	if user.Avatar == "" {
		return response.NotFound(c, "user has no avatar")
	}

	rc, err := h.avatars.Get(user.Avatar)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			return response.NotFound(c, "avatar not found")
		}
		return response.InternalError(c, "failed to read avatar")
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(user.Avatar)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return c.Stream(http.StatusOK, contentType, rc)
}

// Delete handles DELETE /api/users/:id
func (h *UserHandler) Delete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid user ID")
	}

	user, err := h.repo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "user not found")
		}
		return response.InternalError(c, "failed to get user")
	}

	if err := h.repo.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "user not found")
		}
		return response.InternalError(c, "failed to delete user")
	}
	if user.Avatar != "" {
		_ = h.avatars.Delete(user.Avatar)
	}

	return response.NoContent(c)
}

func (h *UserHandler) blockedUpload(c echo.Context, filename, reason string) {
	if h.security != nil {
		h.security.BlockedFileUpload(c.RealIP(), filename, reason)
	}
}
