// Package trigger is the external entry point that starts dispatches. It loads
// a sending with everything the dispatcher reads, holds a per-sending lock for
// the duration of the run and hands the sending to the dispatcher.
package trigger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/welldanyogia/webrana-mailcast-backend/internal/errors"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/models"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/pkg/distlock"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/repository"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/sending"
)

// SendingLoader loads sendings ready for dispatch and moves their next run
type SendingLoader interface {
	GetByID(ctx context.Context, id uint) (*models.Sending, error)
	ListDue(ctx context.Context, now time.Time) ([]models.Sending, error)
	SetScheduledAt(ctx context.Context, id uint, at time.Time) error
}

// Dispatcher runs one dispatch pass over a sending
type Dispatcher interface {
	Dispatch(ctx context.Context, s *models.Sending) (*sending.Result, error)
}

// Trigger starts dispatches on request
type Trigger struct {
	sendings   SendingLoader
	dispatcher Dispatcher
	locker     distlock.Locker
	logger     *slog.Logger
	now        func() time.Time
}

// New creates a Trigger. A nil locker disables locking.
func New(sendings SendingLoader, dispatcher Dispatcher, locker distlock.Locker, logger *slog.Logger) *Trigger {
	if locker == nil {
		locker = distlock.NoopLocker{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Trigger{
		sendings:   sendings,
		dispatcher: dispatcher,
		locker:     locker,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// DispatchOne loads the sending with the given ID and dispatches it. It returns
// ErrDispatchInProgress when another run holds the sending's lock.
func (t *Trigger) DispatchOne(ctx context.Context, id uint) (*sending.Result, error) {
	s, err := t.sendings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrSendingNotFound
		}
		return nil, fmt.Errorf("failed to load sending %d: %w", id, err)
	}
	return t.dispatch(ctx, s, false)
}

// DispatchDue dispatches every launched, active sending whose scheduled time
// has passed. A failing sending does not stop the others; all errors are joined.
// A sending that completes its pass is rescheduled one frequency interval
// later, so the next tick does not send it again. An aborted pass keeps its
// time and is picked up again by the next tick.
func (t *Trigger) DispatchDue(ctx context.Context) ([]*sending.Result, error) {
	due, err := t.sendings.ListDue(ctx, t.now())
	if err != nil {
		return nil, err
	}

	t.logger.Info("dispatching due sendings", slog.Int("count", len(due)))

	results := make([]*sending.Result, 0, len(due))
	var errs []error
	for i := range due {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		result, err := t.dispatch(ctx, &due[i], true)
		if result != nil {
			results = append(results, result)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("sending %d: %w", due[i].ID, err))
		}
	}
	return results, errors.Join(errs...)
}

func (t *Trigger) dispatch(ctx context.Context, s *models.Sending, reschedule bool) (*sending.Result, error) {
	lock := t.locker.NewLock(distlock.SendingKey(s.ID))
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if !acquired {
		t.logger.Warn("dispatch already running", slog.Uint64("sending_id", uint64(s.ID)))
		return nil, apperrors.ErrDispatchInProgress
	}
	defer func() {
		// the run may have been cancelled; release on a fresh context
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := lock.Release(releaseCtx); err != nil {
			t.logger.Error("failed to release dispatch lock",
				slog.Uint64("sending_id", uint64(s.ID)),
				slog.Any("error", err))
		}
	}()

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	if renewer, ok := lock.(distlock.Renewer); ok {
		stop := renewer.KeepAlive(runCtx, func() {
			t.logger.Error("dispatch lock lost, stopping run", slog.Uint64("sending_id", uint64(s.ID)))
			cancelRun()
		})
		defer stop()
	}

	result, err := t.dispatcher.Dispatch(runCtx, s)
	if result != nil {
		t.logger.Info("dispatch finished",
			slog.Uint64("sending_id", uint64(s.ID)),
			slog.String("outcome", string(result.Outcome)),
			slog.Int("attempted", result.Attempted),
			slog.Int("delivered", result.Delivered))
	}
	if err != nil || !reschedule || !completed(result) {
		return result, err
	}

	if err := t.advance(ctx, s); err != nil {
		return result, err
	}
	return result, nil
}

// completed reports whether a pass finished for this period
func completed(result *sending.Result) bool {
	return result != nil &&
		(result.Outcome == sending.OutcomeDelivered || result.Outcome == sending.OutcomeNoRecipients)
}

// advance moves the sending's scheduled time past now in whole frequency intervals
func (t *Trigger) advance(ctx context.Context, s *models.Sending) error {
	next, err := NextRun(s, t.now())
	if err != nil {
		return err
	}
	if err := t.sendings.SetScheduledAt(ctx, s.ID, next); err != nil {
		return fmt.Errorf("failed to reschedule sending %d: %w", s.ID, err)
	}
	s.ScheduledAt = &next
	t.logger.Info("sending rescheduled",
		slog.Uint64("sending_id", uint64(s.ID)),
		slog.Time("scheduled_at", next))
	return nil
}

// NextRun returns the first scheduled time after now, stepping from the
// sending's current time by its frequency. Missed periods are skipped rather
// than sent in a burst.
func NextRun(s *models.Sending, now time.Time) (time.Time, error) {
	interval, err := sending.Interval(s.Frequency)
	if err != nil {
		return time.Time{}, err
	}
	next := now
	if s.ScheduledAt != nil {
		next = *s.ScheduledAt
	}
	next = next.Add(interval)
	if !next.After(now) {
		missed := now.Sub(next)/interval + 1
		next = next.Add(missed * interval)
	}
	return next, nil
}
