package sending

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "github.com/welldanyogia/webrana-mailcast-backend/internal/errors"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/mail"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/models"
)

// Outcome describes how a dispatch ended
type Outcome string

const (
	// OutcomeSkipped means the sending was not launched and nothing happened
	OutcomeSkipped Outcome = "skipped"
	// OutcomeNoRecipients means the sending was launched but had nobody to send to
	OutcomeNoRecipients Outcome = "no_recipients"
	// OutcomeDelivered means every recipient was sent to
	OutcomeDelivered Outcome = "delivered"
	// OutcomeAborted means a send failed and the remaining recipients were not attempted
	OutcomeAborted Outcome = "aborted"
)

// Result reports a dispatch. Events holds every event appended during the run,
// including those recorded before an abort.
type Result struct {
	SendingID uint           `json:"sending_id"`
	Outcome   Outcome        `json:"outcome"`
	Attempted int            `json:"attempted"`
	Delivered int            `json:"delivered"`
	Events    []models.Event `json:"events"`
	Failure   string         `json:"failure,omitempty"`
}

// EventRecorder appends events to the event log
type EventRecorder interface {
	Create(ctx context.Context, event *models.Event) error
}

// EventNotifier is told about every appended event
type EventNotifier interface {
	NotifyEvent(event *models.Event, recipientEmail string)
}

// Dispatcher sends a launched sending's letter to each of its recipients in order.
// It stops at the first failed send and never changes the sending's status.
// Callers must not dispatch the same sending concurrently.
type Dispatcher struct {
	Transport mail.Transport
	Events    EventRecorder
	Notifier  EventNotifier
	Logger    *slog.Logger
	From      string
}

// NewDispatcher creates a dispatcher sending from the given address
func NewDispatcher(transport mail.Transport, events EventRecorder, from string, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		Transport: transport,
		Events:    events,
		Logger:    logger,
		From:      from,
	}
}

// Dispatch runs one pass over s. The sending must have Company, Letter and
// Recipients loaded. A sending that is not launched yields OutcomeSkipped and
// a nil error. When a send fails, the failure is recorded and returned along
// with the partial result.
//
// A launched sending without a letter fails with ErrLetterRequired before
// anything is sent and no event is written for it. The error is reported
// to the caller only.
func (d *Dispatcher) Dispatch(ctx context.Context, s *models.Sending) (*Result, error) {
	result := &Result{SendingID: s.ID, Events: []models.Event{}}

	if !s.IsLaunched() {
		result.Outcome = OutcomeSkipped
		return result, nil
	}
	if s.Company == nil {
		return nil, fmt.Errorf("sending %d: %w", s.ID, apperrors.ErrMissingCompany)
	}
	if len(s.Recipients) == 0 {
		result.Outcome = OutcomeNoRecipients
		return result, nil
	}
	if s.Letter == nil {
		return nil, fmt.Errorf("sending %d: %w", s.ID, apperrors.ErrLetterRequired)
	}

	ownerID := s.CompanyID
	for i := range s.Recipients {
		recipient := &s.Recipients[i]
		result.Attempted++

		sendErr := d.Transport.Send(ctx, &mail.Message{
			From:    d.From,
			To:      []string{recipient.Email},
			Subject: s.Letter.Title,
			Body:    s.Letter.Body,
			Headers: map[string]string{"Reply-To": s.Company.Email},
		})

		event := &models.Event{
			Status:         models.EventStatusSucceeded,
			ServerResponse: models.ServerResponseSuccess,
			RecipientID:    recipient.ID,
			SendingID:      s.ID,
			OwnerID:        &ownerID,
		}
		if sendErr != nil {
			event.Status = models.EventStatusFailed
			event.ServerResponse = sendErr.Error()
		}

		if err := d.record(ctx, event, recipient.Email); err != nil {
			result.Outcome = OutcomeAborted
			result.Failure = err.Error()
			return result, err
		}
		result.Events = append(result.Events, *event)

		if sendErr != nil {
			d.Logger.Error("sending report failed",
				slog.Uint64("sending_id", uint64(s.ID)),
				slog.String("recipient", recipient.Email),
				slog.Any("error", sendErr))
			result.Outcome = OutcomeAborted
			result.Failure = sendErr.Error()
			return result, sendErr
		}

		result.Delivered++
		d.Logger.Info("sending report",
			slog.Uint64("sending_id", uint64(s.ID)),
			slog.String("recipient", recipient.Email))
	}

	result.Outcome = OutcomeDelivered
	return result, nil
}

func (d *Dispatcher) record(ctx context.Context, event *models.Event, recipientEmail string) error {
	if err := d.Events.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	if d.Notifier != nil {
		d.Notifier.NotifyEvent(event, recipientEmail)
	}
	return nil
}
