package smtp

import (
	"io"
	"log/slog"

	"github.com/emersion/go-smtp"
)

// Session implements the go-smtp Session interface
type Session struct {
	backend    *Backend
	from       string
	recipients []string
}

// NewSession creates a new SMTP session
func NewSession(backend *Backend) *Session {
	return &Session{
		backend:    backend,
		recipients: make([]string, 0),
	}
}

// Mail handles the MAIL FROM command
func (s *Session) Mail(from string, opts *smtp.MailOptions) error {
	s.from = from
	s.backend.logger.Debug("MAIL FROM", slog.String("from", from))
	return nil
}

// Rcpt handles the RCPT TO command. Any syntactically valid address is accepted.
func (s *Session) Rcpt(to string, opts *smtp.RcptOptions) error {
	if _, _, ok := parseEmailAddress(to); !ok {
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 1, 3},
			Message:      "Invalid recipient address",
		}
	}

	s.recipients = append(s.recipients, to)
	s.backend.logger.Debug("RCPT TO", slog.String("to", to))
	return nil
}

// Data handles the DATA command and captures the message once for all recipients
func (s *Session) Data(r io.Reader) error {
	if len(s.recipients) == 0 {
		return &smtp.SMTPError{
			Code:         503,
			EnhancedCode: smtp.EnhancedCode{5, 5, 1},
			Message:      "No recipients specified",
		}
	}

	msg, err := ParseMessage(r)
	if err != nil {
		s.backend.logger.Error("failed to parse email", slog.Any("error", err))
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 6, 0},
			Message:      "Failed to parse email",
		}
	}

	msg.EnvelopeFrom = s.from
	msg.EnvelopeTo = append([]string(nil), s.recipients...)
	msg.ReceivedAt = s.backend.now().UTC()
	if msg.SenderEmail == "" {
		msg.SenderEmail = s.from
	}

	s.backend.outbox.Add(msg)
	if s.backend.notifier != nil {
		s.backend.notifier.NotifyCaptured(msg)
	}

	s.backend.logger.Info("email captured",
		slog.Uint64("id", msg.ID),
		slog.String("from", s.from),
		slog.Int("recipients", len(s.recipients)),
		slog.String("subject", msg.Subject))

	return nil
}

// Reset resets the session state
func (s *Session) Reset() {
	s.from = ""
	s.recipients = make([]string, 0)
}

// Logout handles the end of the session
func (s *Session) Logout() error {
	return nil
}
