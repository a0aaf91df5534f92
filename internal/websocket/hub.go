// Package websocket streams dispatch events and captured mail to connected
// dashboards.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/welldanyogia/webrana-mailcast-backend/internal/models"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/smtp"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypeSubscribe   MessageType = "subscribe"
	MessageTypeUnsubscribe MessageType = "unsubscribe"
	MessageTypeEvent       MessageType = "event"
	MessageTypeCaptured    MessageType = "captured"
	MessageTypeError       MessageType = "error"
)

// outboxTopic is the subscription key for captured mail
const outboxTopic uint = 0

// WSMessage represents a WebSocket message. A subscribe with no sending_id
// subscribes to the capture outbox.
type WSMessage struct {
	Type      MessageType `json:"type"`
	SendingID uint        `json:"sending_id,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// EventPayload describes one appended dispatch event
type EventPayload struct {
	ID             uint   `json:"id"`
	Status         string `json:"status"`
	ServerResponse string `json:"server_response"`
	RecipientID    uint   `json:"recipient_id"`
	RecipientEmail string `json:"recipient_email"`
	CreatedAt      string `json:"created_at"`
}

// CapturedPayload describes a message taken in by the capture server
type CapturedPayload struct {
	ID         uint64   `json:"id"`
	To         []string `json:"to"`
	Subject    string   `json:"subject"`
	ReplyTo    string   `json:"reply_to,omitempty"`
	ReceivedAt string   `json:"received_at"`
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Subscriptions: sending ID (or outboxTopic) -> set of clients
	subscriptions map[uint]map[*Client]bool

	register    chan *Client
	unregister  chan *Client
	subscribe   chan *subscriptionRequest
	unsubscribe chan *subscriptionRequest
	broadcast   chan *broadcastMessage
	done        chan struct{}
	stopOnce    sync.Once

	mu sync.RWMutex

	logger *slog.Logger
}

type subscriptionRequest struct {
	client *Client
	topic  uint
}

type broadcastMessage struct {
	topic   uint
	message []byte
}

// NewHub creates a new Hub instance
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:       make(map[*Client]bool),
		subscriptions: make(map[uint]map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		subscribe:     make(chan *subscriptionRequest),
		unsubscribe:   make(chan *subscriptionRequest),
		broadcast:     make(chan *broadcastMessage, 256),
		done:          make(chan struct{}),
		logger:        logger,
	}
}

// Run starts the hub's main loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
			}
			h.clients = make(map[*Client]bool)
			h.subscriptions = make(map[uint]map[*Client]bool)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				for topic, subscribers := range h.subscriptions {
					delete(subscribers, client)
					if len(subscribers) == 0 {
						delete(h.subscriptions, topic)
					}
				}
			}
			h.mu.Unlock()
			h.logger.Debug("client unregistered")

		case req := <-h.subscribe:
			h.mu.Lock()
			if h.subscriptions[req.topic] == nil {
				h.subscriptions[req.topic] = make(map[*Client]bool)
			}
			h.subscriptions[req.topic][req.client] = true
			h.mu.Unlock()
			h.logger.Debug("client subscribed", slog.Uint64("sending_id", uint64(req.topic)))

		case req := <-h.unsubscribe:
			h.mu.Lock()
			if subscribers, ok := h.subscriptions[req.topic]; ok {
				delete(subscribers, req.client)
				if len(subscribers) == 0 {
					delete(h.subscriptions, req.topic)
				}
			}
			h.mu.Unlock()
			h.logger.Debug("client unsubscribed", slog.Uint64("sending_id", uint64(req.topic)))

		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.subscriptions[msg.topic] {
				select {
				case client.send <- msg.message:
				default:
					// Client buffer full, skip
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Stop ends Run and closes every client's send channel
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Subscribe subscribes a client to a sending's events, or to the outbox when sendingID is 0
func (h *Hub) Subscribe(client *Client, sendingID uint) {
	select {
	case h.subscribe <- &subscriptionRequest{client: client, topic: sendingID}:
	case <-h.done:
	}
}

// Unsubscribe reverses Subscribe
func (h *Hub) Unsubscribe(client *Client, sendingID uint) {
	select {
	case h.unsubscribe <- &subscriptionRequest{client: client, topic: sendingID}:
	case <-h.done:
	}
}

// NotifyEvent broadcasts an appended dispatch event to the sending's subscribers
func (h *Hub) NotifyEvent(event *models.Event, recipientEmail string) {
	h.publish(event.SendingID, WSMessage{
		Type:      MessageTypeEvent,
		SendingID: event.SendingID,
		Payload: &EventPayload{
			ID:             event.ID,
			Status:         string(event.Status),
			ServerResponse: event.ServerResponse,
			RecipientID:    event.RecipientID,
			RecipientEmail: recipientEmail,
			CreatedAt:      event.CreatedAt.Format(time.RFC3339),
		},
	})
}

// NotifyCaptured broadcasts a captured message to outbox subscribers
func (h *Hub) NotifyCaptured(msg *smtp.CapturedMessage) {
	h.publish(outboxTopic, WSMessage{
		Type: MessageTypeCaptured,
		Payload: &CapturedPayload{
			ID:         msg.ID,
			To:         msg.EnvelopeTo,
			Subject:    msg.Subject,
			ReplyTo:    msg.ReplyTo,
			ReceivedAt: msg.ReceivedAt.Format(time.RFC3339),
		},
	})
}

// publish never blocks; a dispatch must not stall on a slow hub
func (h *Hub) publish(topic uint, msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal broadcast message", slog.Any("error", err))
		return
	}

	select {
	case h.broadcast <- &broadcastMessage{topic: topic, message: data}:
	default:
		h.logger.Warn("broadcast queue full, dropping message", slog.Uint64("sending_id", uint64(topic)))
	}
}
