// Package calendar mirrors deadlines into a Google Calendar as all-day events.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/hiro4859/syukatsu-base-v2/internal/dates"
)

// KeyProperty is the private extended property that ties an event to a deadline.
const KeyProperty = "deadline_key"

// Event is one all-day calendar entry.
type Event struct {
	Key         string
	Summary     string
	Description string
	Date        dates.Date
}

type Outcome string

const (
	Created   Outcome = "created"
	Updated   Outcome = "updated"
	Unchanged Outcome = "unchanged"
)

type Client struct {
	Service    *gcal.Service
	CalendarID string
	Log        *log.Logger

	Attempts int
	Backoff  time.Duration
}

// New builds a client on an authorized HTTP client. Extra options such as
// option.WithEndpoint are passed through to the API service.
func New(ctx context.Context, httpClient *http.Client, calendarID string, l *log.Logger, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &Client{Service: svc, CalendarID: calendarID, Log: l, Attempts: 3, Backoff: time.Second}, nil
}

// Upsert creates the event, or patches the existing one carrying the same key
// when its summary or date differ.
func (c *Client) Upsert(ctx context.Context, ev Event) (Outcome, error) {
	if ev.Key == "" || ev.Date.IsZero() {
		return "", errors.New("calendar event needs a key and a date")
	}
	existing, err := c.find(ctx, ev.Key)
	if err != nil {
		return "", err
	}
	body := toAPI(ev)

	if existing == nil {
		err = c.retry(ctx, func() error {
			_, err := c.Service.Events.Insert(c.CalendarID, body).Context(ctx).Do()
			return err
		})
		if err != nil {
			return "", fmt.Errorf("insert event %s: %w", ev.Key, err)
		}
		return Created, nil
	}

	if existing.Summary == body.Summary && existing.Start != nil && existing.Start.Date == body.Start.Date {
		return Unchanged, nil
	}
	err = c.retry(ctx, func() error {
		_, err := c.Service.Events.Patch(c.CalendarID, existing.Id, body).Context(ctx).Do()
		return err
	})
	if err != nil {
		return "", fmt.Errorf("patch event %s: %w", ev.Key, err)
	}
	return Updated, nil
}

func (c *Client) find(ctx context.Context, key string) (*gcal.Event, error) {
	var found *gcal.Event
	err := c.retry(ctx, func() error {
		res, err := c.Service.Events.List(c.CalendarID).
			PrivateExtendedProperty(KeyProperty + "=" + key).
			ShowDeleted(false).
			MaxResults(1).
			Context(ctx).
			Do()
		if err != nil {
			return err
		}
		if len(res.Items) > 0 {
			found = res.Items[0]
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("look up event %s: %w", key, err)
	}
	return found, nil
}

func toAPI(ev Event) *gcal.Event {
	return &gcal.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start:       &gcal.EventDateTime{Date: ev.Date.String()},
		End:         &gcal.EventDateTime{Date: ev.Date.AddDays(1).String()},
		ExtendedProperties: &gcal.EventExtendedProperties{
			Private: map[string]string{KeyProperty: ev.Key},
		},
		Transparency: "transparent",
	}
}

// retry runs f with exponential backoff. Client errors other than rate limits
// fail immediately.
func (c *Client) retry(ctx context.Context, f func() error) error {
	attempts := max(c.Attempts, 1)
	sleep := c.Backoff
	var err error
	for i := 0; i < attempts; i++ {
		if err = f(); err == nil {
			return nil
		}
		if permanent(err) || i == attempts-1 {
			break
		}
		c.Log.WithError(err).WithField("retry_in", sleep).Warn("calendar API error")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
		sleep *= 2
	}
	return err
}

func permanent(err error) bool {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code >= 400 && gErr.Code < 500 && gErr.Code != http.StatusTooManyRequests
	}
	return false
}
