package models

import (
	"time"
)

// Message is a reusable letter body authored by a user. Sendings reference it as
// their topic or letter and read Title/Body at dispatch time.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"not null;size:100" json:"title"`
	Body      string    `gorm:"not null" json:"body"`
	AuthorID  *uint     `gorm:"index" json:"author_id,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Author *User `gorm:"foreignKey:AuthorID;constraint:OnDelete:SET NULL" json:"-"`
}

// TableName returns the table name for Message
func (Message) TableName() string {
	return "messages"
}
