package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"sort"

	"gopkg.in/gomail.v2"
)

// SMTPConfig holds outbound SMTP settings
type SMTPConfig struct {
	Host          string
	Port          int
	Username      string
	Password      string
	UseTLS        bool
	SkipTLSVerify bool
}

// Dialer sends composed messages. *gomail.Dialer satisfies it.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPTransport delivers messages through an SMTP relay using gomail
type SMTPTransport struct {
	dialer Dialer
}

// NewSMTPTransport creates a transport for the given relay
func NewSMTPTransport(cfg SMTPConfig) *SMTPTransport {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if cfg.UseTLS || cfg.SkipTLSVerify {
		d.TLSConfig = &tls.Config{
			ServerName:         cfg.Host,
			InsecureSkipVerify: cfg.SkipTLSVerify,
		}
	}
	return &SMTPTransport{dialer: d}
}

// NewSMTPTransportWithDialer creates a transport backed by an arbitrary dialer
func NewSMTPTransportWithDialer(d Dialer) *SMTPTransport {
	return &SMTPTransport{dialer: d}
}

// Send composes msg and hands it to the relay. Any relay failure is returned
// as a *TransportError.
func (t *SMTPTransport) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(msg.To) == 0 {
		return fmt.Errorf("message has no recipients")
	}

	if err := t.dialer.DialAndSend(Compose(msg)); err != nil {
		return NewTransportError(err)
	}
	return nil
}

// Compose builds the gomail message for msg. The body is sent as plain text.
func Compose(msg *Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)

	keys := make([]string, 0, len(msg.Headers))
	for k := range msg.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		m.SetHeader(k, msg.Headers[k])
	}

	m.SetBody("text/plain", msg.Body)
	return m
}
