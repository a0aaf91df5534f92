// Package fixtures provides builders for test models.
package fixtures

import (
	"time"

	"github.com/welldanyogia/webrana-mailcast-backend/internal/models"
)

// UserBuilder creates test User instances with fluent API
type UserBuilder struct {
	user models.User
}

// NewUserBuilder creates a new UserBuilder with sensible defaults
func NewUserBuilder() *UserBuilder {
	now := time.Now()
	return &UserBuilder{
		user: models.User{
			Email:        "owner@acme.io",
			PasswordHash: "$2a$10$abcdefghijklmnopqrstuuJ3Y5hVYp6VQm2h7k1yQ0P6x0m9lC6e",
			Company:      "Acme",
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
	}
}

// WithID sets the user ID
func (b *UserBuilder) WithID(id uint) *UserBuilder {
	b.user.ID = id
	return b
}

// WithEmail sets the user email
func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.user.Email = email
	return b
}

// WithCompany sets the company name
func (b *UserBuilder) WithCompany(company string) *UserBuilder {
	b.user.Company = company
	return b
}

// WithActive sets the account state
func (b *UserBuilder) WithActive(active bool) *UserBuilder {
	b.user.IsActive = active
	return b
}

// Build returns the constructed User
func (b *UserBuilder) Build() *models.User {
	u := b.user
	return &u
}

// RecipientBuilder creates test Recipient instances with fluent API
type RecipientBuilder struct {
	recipient models.Recipient
}

// NewRecipientBuilder creates a new RecipientBuilder with sensible defaults
func NewRecipientBuilder() *RecipientBuilder {
	return &RecipientBuilder{
		recipient: models.Recipient{Email: "ann@example.com"},
	}
}

// WithID sets the recipient ID
func (b *RecipientBuilder) WithID(id uint) *RecipientBuilder {
	b.recipient.ID = id
	return b
}

// WithEmail sets the recipient email
func (b *RecipientBuilder) WithEmail(email string) *RecipientBuilder {
	b.recipient.Email = email
	return b
}

// WithNames sets first, middle and last name; empty parts stay nil
func (b *RecipientBuilder) WithNames(first, middle, last string) *RecipientBuilder {
	b.recipient.FirstName = optional(first)
	b.recipient.MiddleName = optional(middle)
	b.recipient.LastName = optional(last)
	return b
}

// WithComment sets the comment
func (b *RecipientBuilder) WithComment(comment string) *RecipientBuilder {
	b.recipient.Comment = optional(comment)
	return b
}

// WithOwner sets the owning user
func (b *RecipientBuilder) WithOwner(ownerID uint) *RecipientBuilder {
	b.recipient.OwnerID = &ownerID
	return b
}

// Build returns the constructed Recipient
func (b *RecipientBuilder) Build() *models.Recipient {
	r := b.recipient
	return &r
}

// BuildValue returns the constructed Recipient as a value (not pointer)
func (b *RecipientBuilder) BuildValue() models.Recipient {
	return b.recipient
}

// MessageBuilder creates test Message instances with fluent API
type MessageBuilder struct {
	message models.Message
}

// NewMessageBuilder creates a new MessageBuilder with sensible defaults
func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{
		message: models.Message{
			Title: "Spring sale",
			Body:  "Everything must go.",
		},
	}
}

// WithID sets the message ID
func (b *MessageBuilder) WithID(id uint) *MessageBuilder {
	b.message.ID = id
	return b
}

// WithTitle sets the message title
func (b *MessageBuilder) WithTitle(title string) *MessageBuilder {
	b.message.Title = title
	return b
}

// WithBody sets the message body
func (b *MessageBuilder) WithBody(body string) *MessageBuilder {
	b.message.Body = body
	return b
}

// WithAuthor sets the author
func (b *MessageBuilder) WithAuthor(authorID uint) *MessageBuilder {
	b.message.AuthorID = &authorID
	return b
}

// Build returns the constructed Message
func (b *MessageBuilder) Build() *models.Message {
	m := b.message
	return &m
}

// SendingBuilder creates test Sending instances with fluent API
type SendingBuilder struct {
	sending models.Sending
}

// NewSendingBuilder creates a new SendingBuilder with sensible defaults
func NewSendingBuilder() *SendingBuilder {
	return &SendingBuilder{
		sending: models.Sending{
			Frequency: models.FrequencyWeekly,
			Status:    models.SendingStatusCreated,
		},
	}
}

// WithID sets the sending ID
func (b *SendingBuilder) WithID(id uint) *SendingBuilder {
	b.sending.ID = id
	return b
}

// WithFrequency sets the frequency
func (b *SendingBuilder) WithFrequency(f models.Frequency) *SendingBuilder {
	b.sending.Frequency = f
	return b
}

// WithStatus sets the lifecycle status
func (b *SendingBuilder) WithStatus(status models.SendingStatus) *SendingBuilder {
	b.sending.Status = status
	return b
}

// Launched marks the sending as launched
func (b *SendingBuilder) Launched() *SendingBuilder {
	return b.WithStatus(models.SendingStatusLaunched)
}

// WithCompany sets the owning company, loaded
func (b *SendingBuilder) WithCompany(company *models.User) *SendingBuilder {
	b.sending.CompanyID = company.ID
	b.sending.Company = company
	return b
}

// WithCompanyID sets the owning company by ID only
func (b *SendingBuilder) WithCompanyID(id uint) *SendingBuilder {
	b.sending.CompanyID = id
	return b
}

// WithLetter sets the letter, loaded
func (b *SendingBuilder) WithLetter(letter *models.Message) *SendingBuilder {
	b.sending.LetterID = &letter.ID
	b.sending.Letter = letter
	return b
}

// WithTopic sets the topic, loaded
func (b *SendingBuilder) WithTopic(topic *models.Message) *SendingBuilder {
	b.sending.TopicID = &topic.ID
	b.sending.Topic = topic
	return b
}

// WithRecipients sets the recipient set
func (b *SendingBuilder) WithRecipients(recipients ...models.Recipient) *SendingBuilder {
	b.sending.Recipients = recipients
	return b
}

// ScheduledAt sets the scheduled time
func (b *SendingBuilder) ScheduledAt(t time.Time) *SendingBuilder {
	b.sending.ScheduledAt = &t
	return b
}

// WithActive sets the enabled flag
func (b *SendingBuilder) WithActive(active bool) *SendingBuilder {
	b.sending.IsActive = &active
	return b
}

// Build returns the constructed Sending
func (b *SendingBuilder) Build() *models.Sending {
	s := b.sending
	return &s
}

// EventBuilder creates test Event instances with fluent API
type EventBuilder struct {
	event models.Event
}

// NewEventBuilder creates a succeeded event with sensible defaults
func NewEventBuilder() *EventBuilder {
	return &EventBuilder{
		event: models.Event{
			Status:         models.EventStatusSucceeded,
			ServerResponse: models.ServerResponseSuccess,
		},
	}
}

// For sets the sending and recipient of the event
func (b *EventBuilder) For(sendingID, recipientID uint) *EventBuilder {
	b.event.SendingID = sendingID
	b.event.RecipientID = recipientID
	return b
}

// Failed marks the event as failed with the given server response
func (b *EventBuilder) Failed(response string) *EventBuilder {
	b.event.Status = models.EventStatusFailed
	b.event.ServerResponse = response
	return b
}

// WithOwner sets the owning company
func (b *EventBuilder) WithOwner(ownerID uint) *EventBuilder {
	b.event.OwnerID = &ownerID
	return b
}

// Build returns the constructed Event
func (b *EventBuilder) Build() *models.Event {
	e := b.event
	return &e
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
