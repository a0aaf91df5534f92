package sending

import (
	"context"
	"log/slog"

	"github.com/welldanyogia/webrana-mailcast-backend/internal/models"
)

// Store persists sendings
type Store interface {
	Create(ctx context.Context, s *models.Sending) error
	Update(ctx context.Context, s *models.Sending) error
}

// SaveOptions carries the inputs a persist call may supply
type SaveOptions struct {
	Company     CompanySource
	ScheduledAt *ScheduledTime
}

// Service prepares sendings for persistence. Company resolution runs first,
// then scheduling, exactly once per call and before anything is written.
type Service struct {
	store     Store
	companies CompanyResolver
	scheduler *Scheduler
	logger    *slog.Logger
}

// NewService creates a new sending service
func NewService(store Store, companies CompanyResolver, scheduler *Scheduler, logger *slog.Logger) *Service {
	if scheduler == nil {
		scheduler = NewScheduler(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		companies: companies,
		scheduler: scheduler,
		logger:    logger,
	}
}

// Create resolves, schedules and inserts a new sending
func (svc *Service) Create(ctx context.Context, s *models.Sending, opts SaveOptions) error {
	if err := svc.prepare(ctx, s, opts); err != nil {
		return err
	}
	if s.Status == "" {
		s.Status = models.SendingStatusCreated
	}
	if err := svc.store.Create(ctx, s); err != nil {
		return err
	}

	svc.logger.Info("sending created",
		slog.Uint64("sending_id", uint64(s.ID)),
		slog.Uint64("company_id", uint64(s.CompanyID)),
		slog.Time("scheduled_at", *s.ScheduledAt))
	return nil
}

// Save resolves, schedules and updates an existing sending
func (svc *Service) Save(ctx context.Context, s *models.Sending, opts SaveOptions) error {
	if err := svc.prepare(ctx, s, opts); err != nil {
		return err
	}
	return svc.store.Update(ctx, s)
}

func (svc *Service) prepare(ctx context.Context, s *models.Sending, opts SaveOptions) error {
	if err := ResolveCompany(ctx, s, opts.Company, svc.companies); err != nil {
		return err
	}
	return svc.scheduler.Apply(s, opts.ScheduledAt)
}
