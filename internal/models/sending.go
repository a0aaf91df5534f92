package models

import (
	"fmt"
	"time"
)

// Frequency is the recurrence category of a sending
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// IsValid reports whether f is one of the known frequencies
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// SendingStatus is the lifecycle state of a sending
type SendingStatus string

const (
	SendingStatusCreated   SendingStatus = "created"
	SendingStatusLaunched  SendingStatus = "launched"
	SendingStatusCompleted SendingStatus = "completed"
)

// IsValid reports whether s is one of the known statuses
func (s SendingStatus) IsValid() bool {
	switch s {
	case SendingStatusCreated, SendingStatusLaunched, SendingStatusCompleted:
		return true
	}
	return false
}

// Sending pairs a letter with a recipient set and a delivery schedule
type Sending struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time     `gorm:"autoCreateTime;index" json:"created_at"`
	Frequency   Frequency     `gorm:"not null;size:15" json:"frequency"`
	Status      SendingStatus `gorm:"not null;size:15;default:created" json:"status"`
	CompanyID   uint          `gorm:"not null;index" json:"company_id"`
	TopicID     *uint         `gorm:"index" json:"topic_id,omitempty"`
	LetterID    *uint         `gorm:"index" json:"letter_id,omitempty"`
	ScheduledAt *time.Time    `json:"scheduled_at,omitempty"`
	IsActive    *bool         `gorm:"default:true" json:"is_active"`

	// Relationships
	Company    *User       `gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE" json:"company,omitempty"`
	Topic      *Message    `gorm:"foreignKey:TopicID;constraint:OnDelete:CASCADE" json:"topic,omitempty"`
	Letter     *Message    `gorm:"foreignKey:LetterID;constraint:OnDelete:CASCADE" json:"letter,omitempty"`
	Recipients []Recipient `gorm:"many2many:sending_recipients;constraint:OnDelete:CASCADE" json:"recipients,omitempty"`
	Events     []Event     `gorm:"foreignKey:SendingID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for Sending
func (Sending) TableName() string {
	return "sendings"
}

// Active reports whether the sending is enabled. A nil flag counts as active.
func (s *Sending) Active() bool {
	return s.IsActive == nil || *s.IsActive
}

// IsLaunched reports whether the sending may be dispatched
func (s *Sending) IsLaunched() bool {
	return s.Status == SendingStatusLaunched
}

// String implements fmt.Stringer
func (s *Sending) String() string {
	return fmt.Sprintf("Sending %d - %s", s.ID, s.Status)
}
