package repository

import (
	"context"
	"fmt"

	"github.com/welldanyogia/webrana-mailcast-backend/internal/models"
	"gorm.io/gorm"
)

// EventRepository defines the interface for the append-only event log
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	ListBySending(ctx context.Context, sendingID uint, limit, offset int) ([]models.EventWithRecipient, int64, error)
	CountByStatus(ctx context.Context, sendingID uint, status models.EventStatus) (int64, error)
}

// eventRepository implements EventRepository using GORM
type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new EventRepository instance
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

// Create appends an event to the log
func (r *eventRepository) Create(ctx context.Context, event *models.Event) error {
	result := r.db.WithContext(ctx).Omit("Recipient", "Owner").Create(event)
	if result.Error != nil {
		return fmt.Errorf("failed to create event: %w", result.Error)
	}
	return nil
}

// ListBySending retrieves the events of a sending in the order they were appended
func (r *eventRepository) ListBySending(ctx context.Context, sendingID uint, limit, offset int) ([]models.EventWithRecipient, int64, error) {
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Event{}).Where("sending_id = ?", sendingID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	var results []models.EventWithRecipient

	query := `
		SELECT
			e.*,
			COALESCE(r.email, '') as recipient_email
		FROM events e
		LEFT JOIN recipients r ON r.id = e.recipient_id
		WHERE e.sending_id = ?
		ORDER BY e.created_at ASC, e.id ASC
		LIMIT ? OFFSET ?
	`

	if err := r.db.WithContext(ctx).Raw(query, sendingID, limit, offset).Scan(&results).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}

	return results, total, nil
}

// CountByStatus counts events of a sending with the given status
func (r *eventRepository) CountByStatus(ctx context.Context, sendingID uint, status models.EventStatus) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Event{}).Where("sending_id = ? AND status = ?", sendingID, status).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count events: %w", result.Error)
	}
	return count, nil
}
