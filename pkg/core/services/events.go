package services

import (
	"context"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hub/pkg/db"
	"github.com/jakechorley/volunteer-hub/pkg/schemas"
)

// EventQuery selects which events ListEvents returns. At most one of the
// fields is honoured, in the order VolunteerID, Upcoming, ProjectID.
type EventQuery struct {
	ProjectID   *int64
	VolunteerID *int64
	Upcoming    bool
}

// ListEvents lists events according to q
func ListEvents(ctx context.Context, store db.EventStore, logger *zap.Logger, q EventQuery) ([]db.Event, error) {
	switch {
	case q.VolunteerID != nil:
		logger.Debug("Listing events for volunteer", zap.Int64("volunteer_id", *q.VolunteerID))
		return store.ListEventsForVolunteer(ctx, *q.VolunteerID)
	case q.Upcoming:
		return store.ListUpcomingEvents(ctx, now())
	default:
		return store.ListEvents(ctx, db.EventFilter{ProjectID: q.ProjectID})
	}
}

// CreateEvents creates one event, or one per occurrence of the request's
// recurrence rule starting at its event date
func CreateEvents(ctx context.Context, store db.EventStore, logger *zap.Logger, req schemas.CreateEventRequest) ([]db.Event, error) {
	template := req.Event(now())

	dates := []time.Time{template.EventDate}
	if req.Recurrence != "" {
		var err error
		dates, err = expandRecurrence(req.Recurrence, template.EventDate, req.Occurrences)
		if err != nil {
			return nil, err
		}
		logger.Debug("Expanded recurrence",
			zap.String("rule", req.Recurrence),
			zap.Int("occurrences", len(dates)))
	}

	events := make([]db.Event, 0, len(dates))
	for i, date := range dates {
		e := *template
		e.EventDate = date
		created, err := store.CreateEvent(ctx, &e)
		if err != nil {
			if i > 0 {
				logger.Warn("Event series partially created",
					zap.Int64("project_id", req.ProjectID),
					zap.Int("created", i),
					zap.Int("requested", len(dates)))
			}
			return nil, err
		}
		events = append(events, *created)
	}

	logger.Info("Events created",
		zap.Int64("project_id", req.ProjectID),
		zap.String("name", req.Name),
		zap.Int("count", len(events)))
	return events, nil
}

// expandRecurrence returns the occurrences of rule starting at start,
// capped at limit (or schemas.MaxOccurrences when limit is zero)
func expandRecurrence(rule string, start time.Time, limit int) ([]time.Time, error) {
	if limit <= 0 || limit > schemas.MaxOccurrences {
		limit = schemas.MaxOccurrences
	}

	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return nil, fmt.Errorf("invalid recurrence: %w", err)
	}
	opt.Dtstart = start

	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("invalid recurrence: %w", err)
	}

	dates := make([]time.Time, 0, limit)
	next := r.Iterator()
	for len(dates) < limit {
		date, ok := next()
		if !ok {
			break
		}
		dates = append(dates, date.UTC())
	}
	return dates, nil
}
