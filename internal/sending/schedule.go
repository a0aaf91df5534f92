package sending

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/welldanyogia/webrana-mailcast-backend/internal/errors"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/models"
)

// Layouts accepted for times without a zone offset
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ScheduledTime is a requested schedule instant. Naive times carry only a wall
// clock reading and are placed in the scheduler's zone when applied.
type ScheduledTime struct {
	At    time.Time
	Naive bool
}

// NaiveTime requests the wall clock reading of t, ignoring its location
func NaiveTime(t time.Time) *ScheduledTime {
	return &ScheduledTime{At: t, Naive: true}
}

// AwareTime requests the exact instant t
func AwareTime(t time.Time) *ScheduledTime {
	return &ScheduledTime{At: t}
}

// ParseScheduledTime parses an RFC 3339 timestamp as an aware time and the
// offset-less layouts as naive. An empty string yields nil.
func ParseScheduledTime(value string) (*ScheduledTime, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return AwareTime(t), nil
	}

	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return NaiveTime(t), nil
		}
	}

	return nil, fmt.Errorf("invalid scheduled time %q: %w", value, apperrors.ErrInvalidInput)
}

// Interval returns the default delay between creation and first dispatch for f
func Interval(f models.Frequency) (time.Duration, error) {
	switch f {
	case models.FrequencyDaily:
		return 24 * time.Hour, nil
	case models.FrequencyWeekly:
		return 7 * 24 * time.Hour, nil
	case models.FrequencyMonthly:
		return 30 * 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("frequency %q: %w", f, apperrors.ErrInvalidFrequency)
}

// Scheduler computes a sending's scheduled time before it is persisted
type Scheduler struct {
	Now      func() time.Time
	Location *time.Location
}

// NewScheduler creates a scheduler using the wall clock and loc for naive times
func NewScheduler(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{Now: time.Now, Location: loc}
}

// Apply sets s.ScheduledAt. A requested time always wins; naive requests are
// interpreted in the scheduler's zone. Without a request an empty ScheduledAt
// becomes now plus the frequency interval, and a populated one is kept.
func (sc *Scheduler) Apply(s *models.Sending, requested *ScheduledTime) error {
	if requested != nil {
		at := sc.localize(requested)
		s.ScheduledAt = &at
		return nil
	}

	if s.ScheduledAt != nil {
		return nil
	}

	interval, err := Interval(s.Frequency)
	if err != nil {
		return err
	}
	at := sc.now().Add(interval)
	s.ScheduledAt = &at
	return nil
}

func (sc *Scheduler) localize(t *ScheduledTime) time.Time {
	if !t.Naive {
		return t.At
	}
	loc := sc.Location
	if loc == nil {
		loc = time.UTC
	}
	at := t.At
	return time.Date(at.Year(), at.Month(), at.Day(), at.Hour(), at.Minute(), at.Second(), at.Nanosecond(), loc)
}

func (sc *Scheduler) now() time.Time {
	if sc.Now == nil {
		return time.Now()
	}
	return sc.Now()
}
