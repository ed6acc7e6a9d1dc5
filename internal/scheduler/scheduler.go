package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"nlcal/internal/models"
)

// EventExtractor turns a free-text request into a structured event.
type EventExtractor interface {
	Extract(ctx context.Context, query string) (*models.Event, error)
}

// EventCreator submits an event and returns its link.
type EventCreator interface {
	CreateEvent(ctx context.Context, event *models.Event) (string, error)
}

// Exporter receives every event that was created successfully.
type Exporter func(event *models.Event, link string) error

// Scheduler runs a scheduling request through extraction and creation.
type Scheduler struct {
	logger    *slog.Logger
	extractor EventExtractor
	calendar  EventCreator
	exporter  Exporter
}

// NewScheduler creates a new Scheduler.
func NewScheduler(logger *slog.Logger, extractor EventExtractor, calendar EventCreator) *Scheduler {
	return &Scheduler{
		logger:    logger,
		extractor: extractor,
		calendar:  calendar,
	}
}

// WithExporter sets a hook run after each successful creation.
func (s *Scheduler) WithExporter(exp Exporter) *Scheduler {
	s.exporter = exp
	return s
}

// ScheduleMeeting creates the event described by query. It reports ok only
// when both extraction and creation succeed; failures are logged, never returned.
func (s *Scheduler) ScheduleMeeting(ctx context.Context, query string) (link string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.report(fmt.Errorf("panic: %v", r))
			link, ok = "", false
		}
	}()

	s.logger.Info("Scheduling meeting", "query", query)

	event, err := s.extractor.Extract(ctx, query)
	if err != nil {
		s.report(err)
		return "", false
	}

	link, err = s.calendar.CreateEvent(ctx, event)
	if err != nil {
		s.report(err)
		return "", false
	}

	if s.exporter != nil {
		if err := s.exporter(event, link); err != nil {
			s.logger.Warn("Failed to export event", "link", link, "error", err)
		}
	}

	s.logger.Info("Meeting scheduled", "summary", event.Summary, "link", link)
	return link, true
}

func (s *Scheduler) report(err error) {
	s.logger.Error("Failed to schedule meeting", "stage", Stage(err), "error", err)
}

// Stage names the step err came from, or "unknown".
func Stage(err error) string {
	var staged interface{ Stage() string }
	if errors.As(err, &staged) {
		return staged.Stage()
	}
	return "unknown"
}
