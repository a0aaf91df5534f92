package handlers

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/models"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/repository"
	"github.com/welldanyogia/webrana-mailcast-backend/tests/mocks"
)

// MessageHandlerTestSuite is the test suite for MessageHandler
type MessageHandlerTestSuite struct {
	suite.Suite
	echo     *echo.Echo
	handler  *MessageHandler
	mockRepo *mocks.MockMessageRepository
}

// SetupTest runs before each test
func (s *MessageHandlerTestSuite) SetupTest() {
	s.echo = echo.New()
	s.mockRepo = new(mocks.MockMessageRepository)
	s.handler = NewMessageHandler(s.mockRepo)
}

// TearDownTest runs after each test
func (s *MessageHandlerTestSuite) TearDownTest() {
	s.mockRepo.AssertExpectations(s.T())
}

// TestMessageHandlerTestSuite runs the test suite
func TestMessageHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(MessageHandlerTestSuite))
}

// ==================== Create Tests ====================

// TestCreate_ValidInput tests creating a letter
func (s *MessageHandlerTestSuite) TestCreate_ValidInput() {
	// Arrange
	body := `{"title": "Spring sale", "body": "Everything must go", "author_id": 2}`
	c, rec := newJSONContext(s.echo, http.MethodPost, "/api/messages", body)

	s.mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(m *models.Message) bool {
		return m.Title == "Spring sale" && m.Body == "Everything must go" && m.AuthorID != nil && *m.AuthorID == 2
	})).Return(nil)

	// Act
	err := s.handler.Create(c)

	// Assert
	s.NoError(err)
	s.Equal(http.StatusCreated, rec.Code)
}

// TestCreate_MissingTitle tests that a title is required
func (s *MessageHandlerTestSuite) TestCreate_MissingTitle() {
	c, rec := newJSONContext(s.echo, http.MethodPost, "/api/messages", `{"title": " ", "body": "x"}`)

	err := s.handler.Create(c)

	s.NoError(err)
	s.Equal(http.StatusBadRequest, rec.Code)
}

// TestCreate_TitleTooLong tests the title length limit
func (s *MessageHandlerTestSuite) TestCreate_TitleTooLong() {
	body := `{"title": "` + strings.Repeat("t", 101) + `", "body": "x"}`
	c, rec := newJSONContext(s.echo, http.MethodPost, "/api/messages", body)

	err := s.handler.Create(c)

	s.NoError(err)
	s.Equal(http.StatusBadRequest, rec.Code)
}

// TestCreate_MissingBody tests that a body is required
func (s *MessageHandlerTestSuite) TestCreate_MissingBody() {
	c, rec := newJSONContext(s.echo, http.MethodPost, "/api/messages", `{"title": "Hello"}`)

	err := s.handler.Create(c)

	s.NoError(err)
	s.Equal(http.StatusBadRequest, rec.Code)
}

// TestCreate_InvalidJSON tests a malformed body
func (s *MessageHandlerTestSuite) TestCreate_InvalidJSON() {
	c, rec := newJSONContext(s.echo, http.MethodPost, "/api/messages", `{invalid}`)

	err := s.handler.Create(c)

	s.NoError(err)
	s.Equal(http.StatusBadRequest, rec.Code)
}

// ==================== List/Get Tests ====================

// TestList_ByAuthor tests listing one author's letters
func (s *MessageHandlerTestSuite) TestList_ByAuthor() {
	c, rec := newJSONContext(s.echo, http.MethodGet, "/api/messages?author_id=2&limit=5", "")
	messages := []models.Message{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}}
	s.mockRepo.On("List", mock.Anything, uintPtr(2), 5, 0).Return(messages, int64(2), nil)

	err := s.handler.List(c)

	s.NoError(err)
	s.Equal(http.StatusOK, rec.Code)
	resp, err := parsePaginatedResponse(rec)
	s.NoError(err)
	s.Equal(int64(2), resp.Meta.Total)
	s.Equal(5, resp.Meta.Limit)
}

// TestGet_Success tests fetching a letter
func (s *MessageHandlerTestSuite) TestGet_Success() {
	c, rec := newJSONContext(s.echo, http.MethodGet, "/api/messages/1", "", "id", "1")
	s.mockRepo.On("GetByID", mock.Anything, uint(1)).Return(&models.Message{ID: 1, Title: "Hello", Body: "World"}, nil)

	err := s.handler.Get(c)

	s.NoError(err)
	s.Equal(http.StatusOK, rec.Code)
	resp, err := parseAPIResponse(rec)
	s.NoError(err)
	s.True(resp.Success)
}

// TestGet_RepositoryError tests an unexpected failure
func (s *MessageHandlerTestSuite) TestGet_RepositoryError() {
	c, rec := newJSONContext(s.echo, http.MethodGet, "/api/messages/1", "", "id", "1")
	s.mockRepo.On("GetByID", mock.Anything, uint(1)).Return(nil, errors.New("db down"))

	err := s.handler.Get(c)

	s.NoError(err)
	s.Equal(http.StatusInternalServerError, rec.Code)
}

// ==================== Update/Delete Tests ====================

// TestUpdate_Success tests editing a letter
func (s *MessageHandlerTestSuite) TestUpdate_Success() {
	c, rec := newJSONContext(s.echo, http.MethodPut, "/api/messages/1", `{"title": "New", "body": "Text"}`, "id", "1")
	existing := &models.Message{ID: 1, Title: "Old", Body: "Old text"}
	s.mockRepo.On("GetByID", mock.Anything, uint(1)).Return(existing, nil)
	s.mockRepo.On("Update", mock.Anything, existing).Return(nil)

	err := s.handler.Update(c)

	s.NoError(err)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("New", existing.Title)
	s.Equal("Text", existing.Body)
}

// TestUpdate_NotFound tests editing a missing letter
func (s *MessageHandlerTestSuite) TestUpdate_NotFound() {
	c, rec := newJSONContext(s.echo, http.MethodPut, "/api/messages/9", `{"title": "New", "body": "Text"}`, "id", "9")
	s.mockRepo.On("GetByID", mock.Anything, uint(9)).Return(nil, repository.ErrNotFound)

	err := s.handler.Update(c)

	s.NoError(err)
	s.Equal(http.StatusNotFound, rec.Code)
}

// TestDelete_Success tests deleting a letter
func (s *MessageHandlerTestSuite) TestDelete_Success() {
	c, rec := newJSONContext(s.echo, http.MethodDelete, "/api/messages/1", "", "id", "1")
	s.mockRepo.On("Delete", mock.Anything, uint(1)).Return(nil)

	err := s.handler.Delete(c)

	s.NoError(err)
	s.Equal(http.StatusNoContent, rec.Code)
}

// TestDelete_InvalidID tests deleting with ID zero
func (s *MessageHandlerTestSuite) TestDelete_InvalidID() {
	c, rec := newJSONContext(s.echo, http.MethodDelete, "/api/messages/0", "", "id", "0")

	err := s.handler.Delete(c)

	s.NoError(err)
	s.Equal(http.StatusBadRequest, rec.Code)
}
