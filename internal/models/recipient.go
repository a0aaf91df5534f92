package models

import (
	"fmt"
	"strings"
)

// Recipient is an addressable destination for sendings.
// Email is the identity key; the name parts are display metadata only.
type Recipient struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	Email      string  `gorm:"uniqueIndex;not null;size:254" json:"email"`
	FirstName  *string `gorm:"size:100" json:"first_name,omitempty"`
	LastName   *string `gorm:"size:100" json:"last_name,omitempty"`
	MiddleName *string `gorm:"size:100" json:"middle_name,omitempty"`
	Comment    *string `json:"comment,omitempty"`
	OwnerID    *uint   `gorm:"index" json:"owner_id,omitempty"`

	// Relationships
	Owner *User `gorm:"foreignKey:OwnerID;constraint:OnDelete:SET NULL" json:"-"`
}

// TableName returns the table name for Recipient
func (Recipient) TableName() string {
	return "recipients"
}

// DisplayName renders the recipient as "<names>: <email>", or the bare email when
// no first name is known. A recipient with all three name parts shows only the
// first name.
func (r *Recipient) DisplayName() string {
	first := deref(r.FirstName)
	if first == "" {
		return r.Email
	}

	middle := deref(r.MiddleName)
	last := deref(r.LastName)

	var names []string
	switch {
	case middle == "":
		names = []string{first, last}
	case last == "":
		names = []string{first, middle}
	default:
		names = []string{first}
	}

	return fmt.Sprintf("%s: %s", strings.TrimSpace(strings.Join(names, " ")), r.Email)
}

// String implements fmt.Stringer
func (r *Recipient) String() string {
	return r.DisplayName()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
