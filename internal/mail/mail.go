// Package mail delivers outbound messages over SMTP.
package mail

import (
	"context"
	"errors"

	apperrors "github.com/welldanyogia/webrana-mailcast-backend/internal/errors"
)

// Message is one outbound email
type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
	Headers map[string]string
}

// Transport delivers a message. Implementations return a *TransportError when
// the remote side rejects the message.
type Transport interface {
	Send(ctx context.Context, msg *Message) error
}

// TransportError wraps a delivery failure reported by a Transport
type TransportError struct {
	Err error
}

// Error returns the text of the underlying failure
func (e *TransportError) Error() string {
	if e.Err == nil {
		return apperrors.ErrTransport.Error()
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is makes every TransportError match apperrors.ErrTransport
func (e *TransportError) Is(target error) bool {
	return target == apperrors.ErrTransport
}

// NewTransportError wraps err as a TransportError. Errors that already are one
// are returned unchanged.
func NewTransportError(err error) error {
	if err == nil {
		return nil
	}
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Err: err}
}
