package models

import (
	"time"
)

// EventStatus is the outcome of a single delivery attempt
type EventStatus string

const (
	EventStatusFailed    EventStatus = "failed"
	EventStatusSucceeded EventStatus = "succeeded"
)

// ServerResponseSuccess is recorded for accepted deliveries
const ServerResponseSuccess = "Success"

// Event records one delivery attempt of a sending to one recipient. Events are
// append-only.
type Event struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time   `gorm:"autoCreateTime" json:"created_at"`
	Status         EventStatus `gorm:"not null;size:15" json:"status"`
	ServerResponse string      `json:"server_response,omitempty"`
	RecipientID    uint        `gorm:"not null;index" json:"recipient_id"`
	SendingID      uint        `gorm:"not null;index" json:"sending_id"`
	OwnerID        *uint       `gorm:"index" json:"owner_id,omitempty"`

	// Relationships
	Recipient *Recipient `gorm:"foreignKey:RecipientID;constraint:OnDelete:CASCADE" json:"-"`
	Owner     *User      `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for Event
func (Event) TableName() string {
	return "events"
}

// EventWithRecipient is used for event log listings
type EventWithRecipient struct {
	Event
	RecipientEmail string `json:"recipient_email"`
}
