package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/database"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/mail"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/models"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/repository"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/sending"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/smtp"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/trigger"
	"github.com/welldanyogia/webrana-mailcast-backend/tests/mocks"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testAPIKey = "router-test-key"

// RouterTestSuite drives the full router against an in-memory database
type RouterTestSuite struct {
	suite.Suite
	db        *gorm.DB
	echo      *echo.Echo
	transport *mocks.MockTransport
	outbox    *smtp.Outbox
}

// SetupTest builds a fresh database and router for each test
func (s *RouterTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	db.Exec("PRAGMA foreign_keys = ON")
	s.Require().NoError(database.Migrate(db))
	s.db = db

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.transport = new(mocks.MockTransport)
	dispatcher := sending.NewDispatcher(s.transport, repository.NewEventRepository(db), "noreply@mailcast.test", quiet)
	s.outbox = smtp.NewOutbox(10)

	s.echo = NewRouter(&RouterConfig{
		DB:      db,
		Logger:  quiet,
		Trigger: trigger.New(repository.NewSendingRepository(db), dispatcher, nil, quiet),
		Outbox:  s.outbox,
		APIKey:  testAPIKey,
		AppEnv:  "test",
	})
}

// TearDownTest closes the database
func (s *RouterTestSuite) TearDownTest() {
	s.transport.AssertExpectations(s.T())
	s.Require().NoError(database.Close(s.db))
}

// TestRouterTestSuite runs the test suite
func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func (s *RouterTestSuite) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+testAPIKey)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

// data decodes the data member of a response envelope into out
func (s *RouterTestSuite) data(rec *httptest.ResponseRecorder, out interface{}) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	s.Require().NoError(json.Unmarshal(envelope.Data, out), rec.Body.String())
}

func (s *RouterTestSuite) createID(path, body string) uint {
	rec := s.do(http.MethodPost, path, body)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID uint `json:"id"`
	}
	s.data(rec, &created)
	s.Require().NotZero(created.ID)
	return created.ID
}

// seedSending creates a company, a letter, two recipients and a sending
func (s *RouterTestSuite) seedSending() uint {
	userID := s.createID("/api/users", `{"email": "owner@acme.io", "password": "correct-horse", "company": "Acme"}`)
	letterID := s.createID("/api/messages", `{"title": "Spring sale", "body": "Everything must go"}`)
	first := s.createID("/api/recipients", `{"email": "bob@example.com"}`)
	second := s.createID("/api/recipients", `{"email": "ann@example.com"}`)

	body, err := json.Marshal(map[string]interface{}{
		"frequency":     "weekly",
		"user_id":       userID,
		"letter_id":     letterID,
		"recipient_ids": []uint{first, second},
	})
	s.Require().NoError(err)
	return s.createID("/api/sendings", string(body))
}

func (s *RouterTestSuite) dispatch(id string) (int, sending.Result) {
	rec := s.do(http.MethodPost, "/api/sendings/"+id+"/dispatch", "")
	var result sending.Result
	s.data(rec, &result)
	return rec.Code, result
}

// ==================== Auth Tests ====================

func (s *RouterTestSuite) TestAPIRequiresKey() {
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	rec := httptest.NewRecorder()

	s.echo.ServeHTTP(rec, req)

	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterTestSuite) TestHealthIsPublic() {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	s.echo.ServeHTTP(rec, req)

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"database":"healthy"`)
}

// ==================== Dispatch Flow Tests ====================

func (s *RouterTestSuite) TestDispatch_SkipsSendingThatIsNotLaunched() {
	id := s.seedSending()

	code, result := s.dispatch(uintString(id))

	s.Equal(http.StatusOK, code)
	s.Equal(sending.OutcomeSkipped, result.Outcome)
	s.Empty(result.Events)
}

func (s *RouterTestSuite) TestDispatch_DeliversInEmailOrderAndRepeats() {
	id := s.seedSending()
	path := "/api/sendings/" + uintString(id)
	s.Require().Equal(http.StatusOK, s.do(http.MethodPatch, path+"/status", `{"status": "launched"}`).Code)

	var sent []string
	s.transport.On("Send", mock.Anything, mock.AnythingOfType("*mail.Message")).
		Run(func(args mock.Arguments) {
			msg := args.Get(1).(*mail.Message)
			sent = append(sent, msg.To[0])
			s.Equal("Spring sale", msg.Subject)
			s.Equal("owner@acme.io", msg.Headers["Reply-To"])
		}).
		Return(nil)

	code, result := s.dispatch(uintString(id))
	s.Equal(http.StatusOK, code)
	s.Equal(sending.OutcomeDelivered, result.Outcome)
	s.Equal([]string{"ann@example.com", "bob@example.com"}, sent)

	// a second run sends again and appends a second set of events
	code, result = s.dispatch(uintString(id))
	s.Equal(http.StatusOK, code)
	s.Equal(2, result.Delivered)

	rec := s.do(http.MethodGet, path+"/report", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"succeeded":4`)
	s.Contains(rec.Body.String(), `"failed":0`)

	// status is left to the external actor
	rec = s.do(http.MethodGet, path, "")
	s.Contains(rec.Body.String(), `"status":"launched"`)
}

func (s *RouterTestSuite) TestDispatch_HaltsOnFirstFailure() {
	id := s.seedSending()
	path := "/api/sendings/" + uintString(id)
	s.Require().Equal(http.StatusOK, s.do(http.MethodPatch, path+"/status", `{"status": "launched"}`).Code)

	s.transport.On("Send", mock.Anything, mock.MatchedBy(func(m *mail.Message) bool { return m.To[0] == "ann@example.com" })).
		Return(mail.NewTransportError(errors.New("550 mailbox unavailable"))).Once()

	code, result := s.dispatch(uintString(id))

	s.Equal(http.StatusBadGateway, code)
	s.Equal(sending.OutcomeAborted, result.Outcome)
	s.Equal(1, result.Attempted)
	s.Require().Len(result.Events, 1)
	s.Equal("550 mailbox unavailable", result.Events[0].ServerResponse)

	rec := s.do(http.MethodGet, path+"/events", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"recipient_email":"ann@example.com"`)
	s.NotContains(rec.Body.String(), `"recipient_email":"bob@example.com"`)
}

func (s *RouterTestSuite) TestDispatchDue_SecondTickSendsNothing() {
	id := s.seedSending()
	path := "/api/sendings/" + uintString(id)
	s.Require().Equal(http.StatusOK, s.do(http.MethodPatch, path+"/status", `{"status": "launched"}`).Code)
	past := time.Now().Add(-time.Hour).UTC()
	s.Require().NoError(s.db.Model(&models.Sending{}).Where("id = ?", id).Update("scheduled_at", past).Error)

	s.transport.On("Send", mock.Anything, mock.AnythingOfType("*mail.Message")).Return(nil).Times(2)

	rec := s.do(http.MethodPost, "/api/sendings/dispatch-due", "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var first []sending.Result
	s.data(rec, &first)
	s.Require().Len(first, 1)
	s.Equal(sending.OutcomeDelivered, first[0].Outcome)

	rec = s.do(http.MethodPost, "/api/sendings/dispatch-due", "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var second []sending.Result
	s.data(rec, &second)
	s.Empty(second)

	var got models.Sending
	s.data(s.do(http.MethodGet, path, ""), &got)
	s.Require().NotNil(got.ScheduledAt)
	s.True(got.ScheduledAt.Equal(past.Add(7*24*time.Hour)), "next run is one week after the last")
	s.Equal(models.SendingStatusLaunched, got.Status)
}

func (s *RouterTestSuite) TestDispatch_UnknownSending() {
	rec := s.do(http.MethodPost, "/api/sendings/404/dispatch", "")

	s.Equal(http.StatusNotFound, rec.Code)
}

// ==================== Outbox Tests ====================

func (s *RouterTestSuite) TestOutboxRoutes() {
	s.outbox.Add(&smtp.CapturedMessage{EnvelopeTo: []string{"ann@example.com"}, Subject: "Spring sale"})

	rec := s.do(http.MethodGet, "/api/dev/outbox", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"subject":"Spring sale"`)

	rec = s.do(http.MethodDelete, "/api/dev/outbox", "")
	s.Equal(http.StatusNoContent, rec.Code)
	s.Equal(0, s.outbox.Count())
}

func uintString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
