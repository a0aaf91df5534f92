//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/models"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/pkg/distlock"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/repository"
	"github.com/welldanyogia/webrana-mailcast-backend/tests/fixtures"
	"gorm.io/gorm"
)

// DatabaseIntegrationTestSuite tests repositories against a real PostgreSQL
type DatabaseIntegrationTestSuite struct {
	suite.Suite
	container     testcontainers.Container
	db            *gorm.DB
	ctx           context.Context
	userRepo      repository.UserRepository
	recipientRepo repository.RecipientRepository
	messageRepo   repository.MessageRepository
	sendingRepo   repository.SendingRepository
	eventRepo     repository.EventRepository
}

// SetupSuite starts PostgreSQL and initializes repositories
func (s *DatabaseIntegrationTestSuite) SetupSuite() {
	s.container, s.db = startPostgres(s.T(), "mailcast_test")
	s.ctx = context.Background()

	s.userRepo = repository.NewUserRepository(s.db)
	s.recipientRepo = repository.NewRecipientRepository(s.db)
	s.messageRepo = repository.NewMessageRepository(s.db)
	s.sendingRepo = repository.NewSendingRepository(s.db)
	s.eventRepo = repository.NewEventRepository(s.db)
}

// TearDownSuite stops the PostgreSQL container
func (s *DatabaseIntegrationTestSuite) TearDownSuite() {
	if s.container != nil {
		s.container.Terminate(context.Background())
	}
}

// SetupTest cleans up data before each test
func (s *DatabaseIntegrationTestSuite) SetupTest() {
	truncateAll(s.db)
}

// TestDatabaseIntegrationTestSuite runs the test suite
func TestDatabaseIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(DatabaseIntegrationTestSuite))
}

// seed creates a company, a letter and recipients, and a sending using them
func (s *DatabaseIntegrationTestSuite) seed(emails ...string) (*models.User, *models.Message, *models.Sending) {
	user := fixtures.NewUserBuilder().Build()
	s.Require().NoError(s.userRepo.Create(s.ctx, user))

	letter := fixtures.NewMessageBuilder().WithAuthor(user.ID).Build()
	s.Require().NoError(s.messageRepo.Create(s.ctx, letter))

	recipients := make([]models.Recipient, 0, len(emails))
	for _, email := range emails {
		r := fixtures.NewRecipientBuilder().WithEmail(email).WithOwner(user.ID).Build()
		s.Require().NoError(s.recipientRepo.Create(s.ctx, r))
		recipients = append(recipients, *r)
	}

	sending := fixtures.NewSendingBuilder().
		WithCompanyID(user.ID).
		WithLetter(letter).
		WithRecipients(recipients...).
		ScheduledAt(time.Now().Add(-time.Minute)).
		Launched().
		Build()
	sending.Letter = nil
	s.Require().NoError(s.sendingRepo.Create(s.ctx, sending))
	return user, letter, sending
}

// ==================== Recipient Tests ====================

func (s *DatabaseIntegrationTestSuite) TestRecipient_UniqueEmail() {
	first := fixtures.NewRecipientBuilder().WithEmail("dup@example.com").Build()
	s.Require().NoError(s.recipientRepo.Create(s.ctx, first))

	second := fixtures.NewRecipientBuilder().WithEmail("dup@example.com").Build()
	err := s.recipientRepo.Create(s.ctx, second)

	s.ErrorIs(err, repository.ErrDuplicateEntry)
}

func (s *DatabaseIntegrationTestSuite) TestRecipient_OwnerDeletionKeepsRecipient() {
	user := fixtures.NewUserBuilder().Build()
	s.Require().NoError(s.userRepo.Create(s.ctx, user))
	r := fixtures.NewRecipientBuilder().WithOwner(user.ID).Build()
	s.Require().NoError(s.recipientRepo.Create(s.ctx, r))

	s.Require().NoError(s.userRepo.Delete(s.ctx, user.ID))

	found, err := s.recipientRepo.GetByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Nil(found.OwnerID)
}

// ==================== Sending Tests ====================

func (s *DatabaseIntegrationTestSuite) TestSending_GetByIDLoadsDispatchData() {
	_, letter, sending := s.seed("zed@example.com", "amy@example.com")

	found, err := s.sendingRepo.GetByID(s.ctx, sending.ID)

	s.Require().NoError(err)
	s.Require().NotNil(found.Company)
	s.Require().NotNil(found.Letter)
	s.Equal(letter.Title, found.Letter.Title)
	s.Require().Len(found.Recipients, 2)
	s.Equal("amy@example.com", found.Recipients[0].Email)
	s.Equal("zed@example.com", found.Recipients[1].Email)
}

func (s *DatabaseIntegrationTestSuite) TestSending_ListDue() {
	_, _, due := s.seed("amy@example.com")

	future := fixtures.NewSendingBuilder().WithCompanyID(due.CompanyID).Launched().
		ScheduledAt(time.Now().Add(time.Hour)).Build()
	s.Require().NoError(s.sendingRepo.Create(s.ctx, future))

	disabled := fixtures.NewSendingBuilder().WithCompanyID(due.CompanyID).Launched().
		ScheduledAt(time.Now().Add(-time.Hour)).WithActive(false).Build()
	s.Require().NoError(s.sendingRepo.Create(s.ctx, disabled))

	notLaunched := fixtures.NewSendingBuilder().WithCompanyID(due.CompanyID).
		ScheduledAt(time.Now().Add(-time.Hour)).Build()
	s.Require().NoError(s.sendingRepo.Create(s.ctx, notLaunched))

	sendings, err := s.sendingRepo.ListDue(s.ctx, time.Now())

	s.Require().NoError(err)
	s.Require().Len(sendings, 1)
	s.Equal(due.ID, sendings[0].ID)
}

func (s *DatabaseIntegrationTestSuite) TestSending_ScheduledAtKeepsInstant() {
	_, _, sending := s.seed()
	zone := time.FixedZone("MSK", 3*60*60)
	at := time.Date(2026, 5, 1, 9, 0, 0, 0, zone)
	sending.ScheduledAt = &at
	sending.Recipients = nil
	s.Require().NoError(s.sendingRepo.Update(s.ctx, sending))

	found, err := s.sendingRepo.GetByID(s.ctx, sending.ID)

	s.Require().NoError(err)
	s.True(found.ScheduledAt.Equal(at))
}

// ==================== Cascade Tests ====================

func (s *DatabaseIntegrationTestSuite) TestCascadeDelete_LetterRemovesSendingAndEvents() {
	user, letter, sending := s.seed("amy@example.com")
	event := fixtures.NewEventBuilder().For(sending.ID, sending.Recipients[0].ID).WithOwner(user.ID).Build()
	s.Require().NoError(s.eventRepo.Create(s.ctx, event))

	s.Require().NoError(s.messageRepo.Delete(s.ctx, letter.ID))

	_, err := s.sendingRepo.GetByID(s.ctx, sending.ID)
	s.ErrorIs(err, repository.ErrNotFound)

	count, err := s.eventRepo.CountByStatus(s.ctx, sending.ID, models.EventStatusSucceeded)
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *DatabaseIntegrationTestSuite) TestCascadeDelete_CompanyRemovesSendings() {
	user, _, sending := s.seed("amy@example.com")

	s.Require().NoError(s.userRepo.Delete(s.ctx, user.ID))

	_, err := s.sendingRepo.GetByID(s.ctx, sending.ID)
	s.ErrorIs(err, repository.ErrNotFound)
}

// ==================== Event Tests ====================

func (s *DatabaseIntegrationTestSuite) TestEvents_AppendOnlyLog() {
	user, _, sending := s.seed("amy@example.com", "bob@example.com")
	amy, bob := sending.Recipients[0], sending.Recipients[1]

	for _, e := range []*models.Event{
		fixtures.NewEventBuilder().For(sending.ID, amy.ID).WithOwner(user.ID).Build(),
		fixtures.NewEventBuilder().For(sending.ID, bob.ID).WithOwner(user.ID).Failed("550 rejected").Build(),
		fixtures.NewEventBuilder().For(sending.ID, amy.ID).WithOwner(user.ID).Build(),
	} {
		s.Require().NoError(s.eventRepo.Create(s.ctx, e))
	}

	events, total, err := s.eventRepo.ListBySending(s.ctx, sending.ID, 10, 0)

	s.Require().NoError(err)
	s.Equal(int64(3), total)
	s.Require().Len(events, 3)
	s.Equal("amy@example.com", events[0].RecipientEmail)
	s.Equal("550 rejected", events[1].ServerResponse)

	failed, err := s.eventRepo.CountByStatus(s.ctx, sending.ID, models.EventStatusFailed)
	s.Require().NoError(err)
	s.Equal(int64(1), failed)
}

// ==================== Advisory Lock Tests ====================

func (s *DatabaseIntegrationTestSuite) TestAdvisoryLock_ExcludesSecondHolder() {
	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	locker := distlock.NewLocker(nil, sqlDB, time.Minute)

	first := locker.NewLock(distlock.SendingKey(1))
	second := locker.NewLock(distlock.SendingKey(1))

	ok, err := first.Acquire(s.ctx)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = second.Acquire(s.ctx)
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(first.Release(s.ctx))

	ok, err = second.Acquire(s.ctx)
	s.Require().NoError(err)
	s.True(ok)
	s.NoError(second.Release(s.ctx))
}
