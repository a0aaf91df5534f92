package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/welldanyogia/webrana-mailcast-backend/internal/models"
	"gorm.io/gorm"
)

// recipientOrder is the default ordering of recipient listings
const recipientOrder = "recipients.email ASC, recipients.comment ASC"

// RecipientRepository defines the interface for recipient data access
type RecipientRepository interface {
	Create(ctx context.Context, recipient *models.Recipient) error
	GetByID(ctx context.Context, id uint) (*models.Recipient, error)
	GetByEmail(ctx context.Context, email string) (*models.Recipient, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Recipient, error)
	List(ctx context.Context, ownerID *uint, limit, offset int) ([]models.Recipient, int64, error)
	Update(ctx context.Context, recipient *models.Recipient) error
	Delete(ctx context.Context, id uint) error
}

// recipientRepository implements RecipientRepository using GORM
type recipientRepository struct {
	db *gorm.DB
}

// NewRecipientRepository creates a new RecipientRepository instance
func NewRecipientRepository(db *gorm.DB) RecipientRepository {
	return &recipientRepository{db: db}
}

// Create creates a new recipient
func (r *recipientRepository) Create(ctx context.Context, recipient *models.Recipient) error {
	result := r.db.WithContext(ctx).Create(recipient)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return fmt.Errorf("recipient with email '%s' already exists: %w", recipient.Email, ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create recipient: %w", result.Error)
	}
	return nil
}

// GetByID retrieves a recipient by its ID
func (r *recipientRepository) GetByID(ctx context.Context, id uint) (*models.Recipient, error) {
	var recipient models.Recipient
	result := r.db.WithContext(ctx).First(&recipient, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get recipient by ID: %w", result.Error)
	}
	return &recipient, nil
}

// GetByEmail retrieves a recipient by email address
func (r *recipientRepository) GetByEmail(ctx context.Context, email string) (*models.Recipient, error) {
	var recipient models.Recipient
	result := r.db.WithContext(ctx).Where("email = ?", email).First(&recipient)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get recipient by email: %w", result.Error)
	}
	return &recipient, nil
}

// GetByIDs retrieves all recipients with the given IDs. Unknown IDs yield ErrNotFound.
func (r *recipientRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Recipient, error) {
	if len(ids) == 0 {
		return []models.Recipient{}, nil
	}

	unique := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}

	var recipients []models.Recipient
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Order(recipientOrder).Find(&recipients)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get recipients by IDs: %w", result.Error)
	}
	if len(recipients) != len(unique) {
		return nil, ErrNotFound
	}
	return recipients, nil
}

// List retrieves recipients with pagination, optionally restricted to one owner
func (r *recipientRepository) List(ctx context.Context, ownerID *uint, limit, offset int) ([]models.Recipient, int64, error) {
	var recipients []models.Recipient
	var total int64

	byOwner := func(db *gorm.DB) *gorm.DB {
		if ownerID != nil {
			return db.Where("owner_id = ?", *ownerID)
		}
		return db
	}

	if err := r.db.WithContext(ctx).Model(&models.Recipient{}).Scopes(byOwner).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count recipients: %w", err)
	}

	result := r.db.WithContext(ctx).
		Scopes(byOwner).
		Order(recipientOrder).
		Limit(limit).
		Offset(offset).
		Find(&recipients)
	if result.Error != nil {
		return nil, 0, fmt.Errorf("failed to list recipients: %w", result.Error)
	}
	return recipients, total, nil
}

// Update updates an existing recipient
func (r *recipientRepository) Update(ctx context.Context, recipient *models.Recipient) error {
	result := r.db.WithContext(ctx).Save(recipient)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return fmt.Errorf("recipient with email '%s' already exists: %w", recipient.Email, ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to update recipient: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes a recipient by its ID
func (r *recipientRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Recipient{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete recipient: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
