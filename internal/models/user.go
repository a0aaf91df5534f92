package models

import (
	"time"
)

// User is an account that owns recipients, authors messages and runs sendings.
// A sending's company is the User that owns it.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null;size:254" json:"email"`
	PasswordHash string    `gorm:"not null;size:255" json:"-"`
	Company      string    `gorm:"uniqueIndex;not null;size:100" json:"company"`
	Avatar       string    `gorm:"size:500" json:"avatar,omitempty"`
	Phone        *string   `gorm:"size:35" json:"phone,omitempty"`
	Country      *string   `gorm:"size:35" json:"country,omitempty"`
	IsActive     bool      `gorm:"default:false" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for User
func (User) TableName() string {
	return "users"
}
