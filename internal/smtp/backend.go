// Package smtp runs a development SMTP server that accepts outbound campaign
// mail instead of relaying it, so dispatches can be inspected without a real
// mail provider.
package smtp

import (
	"crypto/tls"
	"log/slog"
	"time"

	"github.com/emersion/go-smtp"
)

// Security limits
const (
	DefaultMaxMessageSize = 10 * 1024 * 1024 // 10 MB
	DefaultMaxRecipients  = 100
	DefaultReadTimeout    = 60 * time.Second
	DefaultWriteTimeout   = 60 * time.Second
	DefaultMaxLineLength  = 2000
)

// CaptureNotifier is told about every captured message
type CaptureNotifier interface {
	NotifyCaptured(msg *CapturedMessage)
}

// Backend implements the go-smtp Backend interface
type Backend struct {
	outbox   *Outbox
	notifier CaptureNotifier
	logger   *slog.Logger
	now      func() time.Time
}

// BackendConfig holds configuration for the SMTP backend
type BackendConfig struct {
	Outbox   *Outbox
	Notifier CaptureNotifier
	Logger   *slog.Logger
}

// NewBackend creates a new SMTP capture backend
func NewBackend(cfg *BackendConfig) *Backend {
	outbox := cfg.Outbox
	if outbox == nil {
		outbox = NewOutbox(0)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		outbox:   outbox,
		notifier: cfg.Notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Outbox returns the store captured messages are written to
func (b *Backend) Outbox() *Outbox {
	return b.outbox
}

// NewSession creates a new SMTP session
func (b *Backend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	b.logger.Debug("new SMTP connection", slog.String("remote_addr", c.Conn().RemoteAddr().String()))
	return NewSession(b), nil
}

// ServerConfig holds security configuration for the SMTP server
type ServerConfig struct {
	Addr           string
	Domain         string
	MaxMessageSize int64
	MaxRecipients  int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	TLSConfig      *tls.Config
}

// NewSecureServer creates a new SMTP server with security settings
func NewSecureServer(backend *Backend, cfg *ServerConfig) *smtp.Server {
	s := smtp.NewServer(backend)

	s.Addr = cfg.Addr
	s.Domain = cfg.Domain
	if s.Domain == "" {
		s.Domain = "localhost"
	}

	s.MaxMessageBytes = orDefault(cfg.MaxMessageSize, DefaultMaxMessageSize)
	s.MaxRecipients = orDefault(cfg.MaxRecipients, DefaultMaxRecipients)
	s.ReadTimeout = orDefault(cfg.ReadTimeout, DefaultReadTimeout)
	s.WriteTimeout = orDefault(cfg.WriteTimeout, DefaultWriteTimeout)

	// The capture server never authenticates clients
	s.AllowInsecureAuth = false

	if cfg.TLSConfig != nil {
		s.TLSConfig = cfg.TLSConfig
	}

	s.MaxLineLength = DefaultMaxLineLength

	return s
}

func orDefault[T int | int64 | time.Duration](v, def T) T {
	if v > 0 {
		return v
	}
	return def
}
