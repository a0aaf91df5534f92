package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/models"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/repository"
)

// MockUserRepository implements repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

// Create creates a new user
func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// GetByID retrieves a user by its ID
func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// GetByEmail retrieves a user by email
func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// List retrieves a page of users
func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]models.User, int64, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.User), args.Get(1).(int64), args.Error(2)
}

// Update updates a user profile
func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// SetActive activates or deactivates a user
func (m *MockUserRepository) SetActive(ctx context.Context, id uint, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

// UpdateAvatar stores the avatar path of a user
func (m *MockUserRepository) UpdateAvatar(ctx context.Context, id uint, avatar string) error {
	args := m.Called(ctx, id, avatar)
	return args.Error(0)
}

// Delete deletes a user by its ID
func (m *MockUserRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockRecipientRepository implements repository.RecipientRepository
type MockRecipientRepository struct {
	mock.Mock
}

// Create creates a new recipient
func (m *MockRecipientRepository) Create(ctx context.Context, recipient *models.Recipient) error {
	args := m.Called(ctx, recipient)
	return args.Error(0)
}

// GetByID retrieves a recipient by its ID
func (m *MockRecipientRepository) GetByID(ctx context.Context, id uint) (*models.Recipient, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipient), args.Error(1)
}

// GetByEmail retrieves a recipient by email
func (m *MockRecipientRepository) GetByEmail(ctx context.Context, email string) (*models.Recipient, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipient), args.Error(1)
}

// GetByIDs retrieves recipients by their IDs
func (m *MockRecipientRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Recipient, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Recipient), args.Error(1)
}

// List retrieves a page of recipients
func (m *MockRecipientRepository) List(ctx context.Context, ownerID *uint, limit, offset int) ([]models.Recipient, int64, error) {
	args := m.Called(ctx, ownerID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Recipient), args.Get(1).(int64), args.Error(2)
}

// Update updates a recipient
func (m *MockRecipientRepository) Update(ctx context.Context, recipient *models.Recipient) error {
	args := m.Called(ctx, recipient)
	return args.Error(0)
}

// Delete deletes a recipient by its ID
func (m *MockRecipientRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockMessageRepository implements repository.MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// Create creates a new message
func (m *MockMessageRepository) Create(ctx context.Context, message *models.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

// GetByID retrieves a message by its ID
func (m *MockMessageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

// List retrieves a page of messages
func (m *MockMessageRepository) List(ctx context.Context, authorID *uint, limit, offset int) ([]models.Message, int64, error) {
	args := m.Called(ctx, authorID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Message), args.Get(1).(int64), args.Error(2)
}

// Update updates a message
func (m *MockMessageRepository) Update(ctx context.Context, message *models.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

// Delete deletes a message by its ID
func (m *MockMessageRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockSendingRepository implements repository.SendingRepository
type MockSendingRepository struct {
	mock.Mock
}

// Create creates a new sending
func (m *MockSendingRepository) Create(ctx context.Context, s *models.Sending) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

// GetByID retrieves a sending by its ID
func (m *MockSendingRepository) GetByID(ctx context.Context, id uint) (*models.Sending, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Sending), args.Error(1)
}

// List retrieves a page of sendings
func (m *MockSendingRepository) List(ctx context.Context, filter repository.SendingFilter, limit, offset int) ([]models.Sending, int64, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Sending), args.Get(1).(int64), args.Error(2)
}

// ListDue retrieves sendings due for dispatch
func (m *MockSendingRepository) ListDue(ctx context.Context, now time.Time) ([]models.Sending, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Sending), args.Error(1)
}

// Update updates a sending
func (m *MockSendingRepository) Update(ctx context.Context, s *models.Sending) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

// ReplaceRecipients replaces the recipient set of a sending
func (m *MockSendingRepository) ReplaceRecipients(ctx context.Context, id uint, recipients []models.Recipient) error {
	args := m.Called(ctx, id, recipients)
	return args.Error(0)
}

// UpdateStatus sets the status of a sending
func (m *MockSendingRepository) UpdateStatus(ctx context.Context, id uint, status models.SendingStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// SetScheduledAt moves the next run of a sending
func (m *MockSendingRepository) SetScheduledAt(ctx context.Context, id uint, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// SetActive enables or disables a sending
func (m *MockSendingRepository) SetActive(ctx context.Context, id uint, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

// Delete deletes a sending by its ID
func (m *MockSendingRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockEventRepository implements repository.EventRepository
type MockEventRepository struct {
	mock.Mock
}

// Create appends an event
func (m *MockEventRepository) Create(ctx context.Context, event *models.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// ListBySending retrieves a page of a sending's events
func (m *MockEventRepository) ListBySending(ctx context.Context, sendingID uint, limit, offset int) ([]models.EventWithRecipient, int64, error) {
	args := m.Called(ctx, sendingID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.EventWithRecipient), args.Get(1).(int64), args.Error(2)
}

// CountByStatus counts a sending's events with the given status
func (m *MockEventRepository) CountByStatus(ctx context.Context, sendingID uint, status models.EventStatus) (int64, error) {
	args := m.Called(ctx, sendingID, status)
	return args.Get(0).(int64), args.Error(1)
}

// Compile-time interface checks
var (
	_ repository.UserRepository      = (*MockUserRepository)(nil)
	_ repository.RecipientRepository = (*MockRecipientRepository)(nil)
	_ repository.MessageRepository   = (*MockMessageRepository)(nil)
	_ repository.SendingRepository   = (*MockSendingRepository)(nil)
	_ repository.EventRepository     = (*MockEventRepository)(nil)
)
