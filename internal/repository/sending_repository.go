package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/welldanyogia/webrana-mailcast-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SendingFilter narrows sending listings
type SendingFilter struct {
	CompanyID *uint
	Status    models.SendingStatus
}

// SendingRepository defines the interface for sending data access
type SendingRepository interface {
	Create(ctx context.Context, sending *models.Sending) error
	GetByID(ctx context.Context, id uint) (*models.Sending, error)
	List(ctx context.Context, filter SendingFilter, limit, offset int) ([]models.Sending, int64, error)
	ListDue(ctx context.Context, now time.Time) ([]models.Sending, error)
	Update(ctx context.Context, sending *models.Sending) error
	ReplaceRecipients(ctx context.Context, id uint, recipients []models.Recipient) error
	UpdateStatus(ctx context.Context, id uint, status models.SendingStatus) error
	SetScheduledAt(ctx context.Context, id uint, at time.Time) error
	SetActive(ctx context.Context, id uint, active bool) error
	Delete(ctx context.Context, id uint) error
}

// sendingRepository implements SendingRepository using GORM
type sendingRepository struct {
	db *gorm.DB
}

// NewSendingRepository creates a new SendingRepository instance
func NewSendingRepository(db *gorm.DB) SendingRepository {
	return &sendingRepository{db: db}
}

// withDispatchData preloads everything a dispatch reads
func withDispatchData(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Company").
		Preload("Topic").
		Preload("Letter").
		Preload("Recipients", func(db *gorm.DB) *gorm.DB {
			return db.Order(recipientOrder)
		})
}

// Create creates a new sending together with its recipient set
func (r *sendingRepository) Create(ctx context.Context, sending *models.Sending) error {
	result := r.db.WithContext(ctx).Omit("Company", "Topic", "Letter", "Recipients.*").Create(sending)
	if result.Error != nil {
		return fmt.Errorf("failed to create sending: %w", result.Error)
	}
	return nil
}

// GetByID retrieves a sending by its ID with company, messages and recipients preloaded
func (r *sendingRepository) GetByID(ctx context.Context, id uint) (*models.Sending, error) {
	var sending models.Sending
	result := r.db.WithContext(ctx).Scopes(withDispatchData).First(&sending, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get sending by ID: %w", result.Error)
	}
	return &sending, nil
}

// List retrieves sendings ordered by creation time descending
func (r *sendingRepository) List(ctx context.Context, filter SendingFilter, limit, offset int) ([]models.Sending, int64, error) {
	var sendings []models.Sending
	var total int64

	filtered := func(db *gorm.DB) *gorm.DB {
		if filter.CompanyID != nil {
			db = db.Where("company_id = ?", *filter.CompanyID)
		}
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		return db
	}

	if err := r.db.WithContext(ctx).Model(&models.Sending{}).Scopes(filtered).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count sendings: %w", err)
	}

	result := r.db.WithContext(ctx).
		Scopes(filtered).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&sendings)
	if result.Error != nil {
		return nil, 0, fmt.Errorf("failed to list sendings: %w", result.Error)
	}
	return sendings, total, nil
}

// ListDue retrieves launched, active sendings whose scheduled time is at or before now
func (r *sendingRepository) ListDue(ctx context.Context, now time.Time) ([]models.Sending, error) {
	var sendings []models.Sending
	result := r.db.WithContext(ctx).
		Scopes(withDispatchData).
		Where("status = ?", models.SendingStatusLaunched).
		Where("is_active = ? OR is_active IS NULL", true).
		Where("scheduled_at IS NOT NULL AND scheduled_at <= ?", now).
		Order("scheduled_at ASC").
		Order("id ASC").
		Find(&sendings)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list due sendings: %w", result.Error)
	}
	return sendings, nil
}

// Update updates the scalar fields of an existing sending. Associations are left untouched.
func (r *sendingRepository) Update(ctx context.Context, sending *models.Sending) error {
	result := r.db.WithContext(ctx).Omit(clause.Associations).Save(sending)
	if result.Error != nil {
		return fmt.Errorf("failed to update sending: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceRecipients replaces the recipient set of a sending
func (r *sendingRepository) ReplaceRecipients(ctx context.Context, id uint, recipients []models.Recipient) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sending models.Sending
		if err := tx.First(&sending, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to get sending by ID: %w", err)
		}

		if err := tx.Model(&sending).Omit("Recipients.*").Association("Recipients").Replace(recipients); err != nil {
			return fmt.Errorf("failed to replace sending recipients: %w", err)
		}
		return nil
	})
}

// UpdateStatus sets the lifecycle status of a sending
func (r *sendingRepository) UpdateStatus(ctx context.Context, id uint, status models.SendingStatus) error {
	result := r.db.WithContext(ctx).Model(&models.Sending{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update sending status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetScheduledAt moves the next run of a sending
func (r *sendingRepository) SetScheduledAt(ctx context.Context, id uint, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Sending{}).Where("id = ?", id).Update("scheduled_at", at)
	if result.Error != nil {
		return fmt.Errorf("failed to update sending schedule: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetActive enables or disables a sending
func (r *sendingRepository) SetActive(ctx context.Context, id uint, active bool) error {
	result := r.db.WithContext(ctx).Model(&models.Sending{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return fmt.Errorf("failed to set sending active state: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes a sending by its ID (cascade deletes events)
func (r *sendingRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Select("Recipients").Delete(&models.Sending{ID: id})
	if result.Error != nil {
		return fmt.Errorf("failed to delete sending: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
