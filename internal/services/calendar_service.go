package services

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/hiro4859/syukatsu-base-v2/internal/app"
	"github.com/hiro4859/syukatsu-base-v2/internal/calendar"
	"github.com/hiro4859/syukatsu-base-v2/internal/store"
)

// EventExporter writes one deadline to an external calendar.
type EventExporter interface {
	Upsert(ctx context.Context, ev calendar.Event) (calendar.Outcome, error)
}

// CalendarService mirrors every upcoming deadline into a calendar.
type CalendarService struct {
	Deadlines *DeadlineService
	Exporter  EventExporter
	Log       *log.Logger
}

func NewCalendarService(d *DeadlineService, exp EventExporter, l *log.Logger) *CalendarService {
	return &CalendarService{Deadlines: d, Exporter: exp, Log: l}
}

type SyncResult struct {
	Created   int      `json:"created"`
	Updated   int      `json:"updated"`
	Unchanged int      `json:"unchanged"`
	Failed    []string `json:"failed"`
}

// Sync exports the show-all upcoming view one item at a time. A failing item
// is logged and recorded; the rest still sync.
func (s *CalendarService) Sync(ctx context.Context, scope app.Scope) (*SyncResult, error) {
	if scope.Demo {
		return nil, store.ErrLoginRequired
	}
	items, err := s.Deadlines.Upcoming(ctx, scope, true)
	if err != nil {
		return nil, err
	}

	res := &SyncResult{Failed: []string{}}
	for _, it := range items {
		summary := it.Title
		if it.CompanyName != "" {
			summary = it.CompanyName + " " + it.Title
		}
		out, err := s.Exporter.Upsert(ctx, calendar.Event{
			Key:         it.Key,
			Summary:     summary,
			Description: it.Kind.Label(),
			Date:        it.DueDate,
		})
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			s.Log.WithError(err).WithField("key", it.Key).Warn("calendar export failed")
			res.Failed = append(res.Failed, it.Key)
			continue
		}
		switch out {
		case calendar.Created:
			res.Created++
		case calendar.Updated:
			res.Updated++
		default:
			res.Unchanged++
		}
	}
	s.Log.WithFields(log.Fields{
		"user_id":   scope.UserID,
		"created":   res.Created,
		"updated":   res.Updated,
		"unchanged": res.Unchanged,
		"failed":    len(res.Failed),
	}).Info("calendar sync finished")
	return res, nil
}
