package smtp

import (
	"sync"
	"time"
)

// DefaultOutboxCapacity is the number of captured messages kept when no capacity is given
const DefaultOutboxCapacity = 500

// CapturedMessage is a message accepted by the capture server
type CapturedMessage struct {
	ID           uint64    `json:"id"`
	EnvelopeFrom string    `json:"envelope_from"`
	EnvelopeTo   []string  `json:"envelope_to"`
	SenderName   string    `json:"sender_name"`
	SenderEmail  string    `json:"sender_email"`
	ReplyTo      string    `json:"reply_to,omitempty"`
	Subject      string    `json:"subject"`
	Snippet      string    `json:"snippet"`
	BodyText     string    `json:"body_text"`
	BodyHTML     string    `json:"body_html,omitempty"`
	Attachments  []string  `json:"attachments,omitempty"`
	Size         int64     `json:"size"`
	ReceivedAt   time.Time `json:"received_at"`
}

// Outbox keeps the most recent captured messages in memory. When full, the
// oldest message is dropped.
type Outbox struct {
	mu       sync.RWMutex
	capacity int
	nextID   uint64
	messages []*CapturedMessage
}

// NewOutbox creates an outbox holding at most capacity messages
func NewOutbox(capacity int) *Outbox {
	if capacity <= 0 {
		capacity = DefaultOutboxCapacity
	}
	return &Outbox{capacity: capacity}
}

// Add stores msg, assigning its ID
func (o *Outbox) Add(msg *CapturedMessage) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.nextID++
	msg.ID = o.nextID
	if len(o.messages) == o.capacity {
		copy(o.messages, o.messages[1:])
		o.messages = o.messages[:len(o.messages)-1]
	}
	o.messages = append(o.messages, msg)
}

// List returns captured messages newest first, optionally only those sent to recipient
func (o *Outbox) List(recipient string) []*CapturedMessage {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]*CapturedMessage, 0, len(o.messages))
	for i := len(o.messages) - 1; i >= 0; i-- {
		msg := o.messages[i]
		if recipient != "" && !containsAddress(msg.EnvelopeTo, recipient) {
			continue
		}
		out = append(out, msg)
	}
	return out
}

// Get returns the message with the given ID
func (o *Outbox) Get(id uint64) (*CapturedMessage, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	for _, msg := range o.messages {
		if msg.ID == id {
			return msg, true
		}
	}
	return nil, false
}

// Count returns the number of stored messages
func (o *Outbox) Count() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.messages)
}

// Clear drops every stored message
func (o *Outbox) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = nil
}

func containsAddress(addresses []string, address string) bool {
	for _, a := range addresses {
		if equalFoldAddress(a, address) {
			return true
		}
	}
	return false
}
