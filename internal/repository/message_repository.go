package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/welldanyogia/webrana-mailcast-backend/internal/models"
	"gorm.io/gorm"
)

// MessageRepository defines the interface for message catalog data access
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id uint) (*models.Message, error)
	List(ctx context.Context, authorID *uint, limit, offset int) ([]models.Message, int64, error)
	Update(ctx context.Context, message *models.Message) error
	Delete(ctx context.Context, id uint) error
}

// messageRepository implements MessageRepository using GORM
type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository instance
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create creates a new message
func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	result := r.db.WithContext(ctx).Create(message)
	if result.Error != nil {
		return fmt.Errorf("failed to create message: %w", result.Error)
	}
	return nil
}

// GetByID retrieves a message by its ID
func (r *messageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var message models.Message
	result := r.db.WithContext(ctx).First(&message, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message by ID: %w", result.Error)
	}
	return &message, nil
}

// List retrieves messages ordered by title, optionally restricted to one author
func (r *messageRepository) List(ctx context.Context, authorID *uint, limit, offset int) ([]models.Message, int64, error) {
	var messages []models.Message
	var total int64

	byAuthor := func(db *gorm.DB) *gorm.DB {
		if authorID != nil {
			return db.Where("author_id = ?", *authorID)
		}
		return db
	}

	if err := r.db.WithContext(ctx).Model(&models.Message{}).Scopes(byAuthor).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	result := r.db.WithContext(ctx).
		Scopes(byAuthor).
		Order("title ASC").
		Limit(limit).
		Offset(offset).
		Find(&messages)
	if result.Error != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", result.Error)
	}
	return messages, total, nil
}

// Update updates an existing message
func (r *messageRepository) Update(ctx context.Context, message *models.Message) error {
	result := r.db.WithContext(ctx).Save(message)
	if result.Error != nil {
		return fmt.Errorf("failed to update message: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes a message by its ID (cascade deletes sendings using it)
func (r *messageRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Message{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete message: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
