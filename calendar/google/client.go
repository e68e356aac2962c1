package google

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/coachcal/coachcal/calendar"
	"github.com/coachcal/coachcal/internal/profile"
	"github.com/coachcal/coachcal/store"
)

var (
	// ErrUnauthorized means the stored token was rejected; the coach
	// has to reconnect the calendar.
	ErrUnauthorized = errors.New("calendar authorization rejected")
	// ErrForbidden means the token is valid but lacks access to the
	// configured calendar.
	ErrForbidden = errors.New("calendar access forbidden")
)

// Client wraps the Calendar API for one connected account. Writes go
// through a rate limiter; the per-calendar quota is easy to blow
// through during a bulk assignment.
type Client struct {
	svc        *gcal.Service
	calendarID string
	limiter    *rate.Limiter
}

// NewClient builds a client from the persisted account token. Token
// refreshes are written back to the store transparently.
func NewClient(ctx context.Context, profile *profile.Profile, st *store.Store) (*Client, error) {
	account, err := st.GetCalendarAccount(ctx, &store.FindCalendarAccount{})
	if err != nil {
		return nil, err
	}
	token, err := loadToken(account)
	if err != nil {
		return nil, err
	}

	config := OAuthConfig(profile)
	source := &persistingTokenSource{ctx: ctx, src: config.TokenSource(ctx, token), st: st}
	svc, err := gcal.NewService(ctx, option.WithTokenSource(source))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create calendar service")
	}

	calendarID := account.CalendarID
	if profile.CalendarID != "" {
		calendarID = profile.CalendarID
	}
	if calendarID == "" {
		calendarID = "primary"
	}

	return &Client{
		svc:        svc,
		calendarID: calendarID,
		limiter:    rate.NewLimiter(rate.Limit(5), 5),
	}, nil
}

func (c *Client) CalendarID() string {
	return c.calendarID
}

// wrapAPIError maps auth failures to sentinel errors the server layer
// can turn into a reconnect prompt.
func wrapAPIError(err error, msg string) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized:
			return errors.Wrap(ErrUnauthorized, apiErr.Message)
		case http.StatusForbidden:
			return errors.Wrap(ErrForbidden, apiErr.Message)
		}
	}
	return errors.Wrap(err, msg)
}

// ListEvents fetches the window [from, to) with recurring events
// expanded to single occurrences, ordered by start time.
func (c *Client) ListEvents(ctx context.Context, from, to time.Time) ([]*calendar.Event, error) {
	var out []*calendar.Event
	pageToken := ""
	for {
		call := c.svc.Events.List(c.calendarID).
			Context(ctx).
			TimeMin(from.Format(time.RFC3339)).
			TimeMax(to.Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			MaxResults(2500)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		page, err := call.Do()
		if err != nil {
			return nil, wrapAPIError(err, "failed to list events")
		}
		for _, item := range page.Items {
			out = append(out, fromAPI(item))
		}
		if page.NextPageToken == "" {
			return out, nil
		}
		pageToken = page.NextPageToken
	}
}

// GetEvent fetches a single event, including recurring masters.
func (c *Client) GetEvent(ctx context.Context, eventID string) (*calendar.Event, error) {
	item, err := c.svc.Events.Get(c.calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError(err, "failed to get event")
	}
	return fromAPI(item), nil
}

// Instances expands a recurring master into its occurrences within
// [from, to).
func (c *Client) Instances(ctx context.Context, eventID string, from, to time.Time) ([]*calendar.Event, error) {
	var out []*calendar.Event
	pageToken := ""
	for {
		call := c.svc.Events.Instances(c.calendarID, eventID).
			Context(ctx).
			TimeMin(from.Format(time.RFC3339)).
			TimeMax(to.Format(time.RFC3339))
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		page, err := call.Do()
		if err != nil {
			return nil, wrapAPIError(err, "failed to list instances")
		}
		for _, item := range page.Items {
			out = append(out, fromAPI(item))
		}
		if page.NextPageToken == "" {
			return out, nil
		}
		pageToken = page.NextPageToken
	}
}

// CreateEvent inserts a new event, timed or all-day, optionally with a
// recurrence rule.
func (c *Client) CreateEvent(ctx context.Context, event *calendar.Event) (*calendar.Event, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	created, err := c.svc.Events.Insert(c.calendarID, toAPI(event)).Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError(err, "failed to create event")
	}
	return fromAPI(created), nil
}

// PatchEvent applies a partial update to one event.
func (c *Client) PatchEvent(ctx context.Context, eventID string, patch *calendar.EventPatch) (*calendar.Event, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	updated, err := c.svc.Events.Patch(c.calendarID, eventID, patchToAPI(patch)).Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError(err, "failed to patch event")
	}
	return fromAPI(updated), nil
}

// DeleteEvent removes an event. Deleting a recurring master removes
// the whole series.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := c.svc.Events.Delete(c.calendarID, eventID).Context(ctx).Do(); err != nil {
		return wrapAPIError(err, "failed to delete event")
	}
	return nil
}
