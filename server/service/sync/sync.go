// Package sync is the service layer between the HTTP API and the
// calendar provider. It owns the fetch window, event annotation,
// schedule application and the bulk-assignment sessions; handlers
// stay thin and call into it directly.
package sync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/coachcal/coachcal/calendar"
	"github.com/coachcal/coachcal/calendar/assign"
	"github.com/coachcal/coachcal/calendar/google"
	"github.com/coachcal/coachcal/calendar/match"
	"github.com/coachcal/coachcal/calendar/pattern"
	"github.com/coachcal/coachcal/internal/profile"
	"github.com/coachcal/coachcal/plugin/webhook"
	"github.com/coachcal/coachcal/server/metrics"
	"github.com/coachcal/coachcal/store"
)

// defaultSyncWindowDays bounds the fetch window when no calendar
// account is connected or the account carries no explicit window.
const defaultSyncWindowDays = 30

// sessionTTL is how long an unapplied bulk-assignment session survives
// before it is pruned.
const sessionTTL = time.Hour

// Provider is the calendar backend the service talks to.
// *google.Client satisfies it.
type Provider interface {
	ListEvents(ctx context.Context, from, to time.Time) ([]*calendar.Event, error)
	GetEvent(ctx context.Context, eventID string) (*calendar.Event, error)
	CreateEvent(ctx context.Context, event *calendar.Event) (*calendar.Event, error)
	PatchEvent(ctx context.Context, eventID string, patch *calendar.EventPatch) (*calendar.Event, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// Store is the slice of the data layer the service depends on.
// *store.Store satisfies it.
type Store interface {
	GetCalendarAccount(ctx context.Context, find *store.FindCalendarAccount) (*store.CalendarAccount, error)
	ListClients(ctx context.Context, find *store.FindClient) ([]*store.Client, error)
	GetClient(ctx context.Context, find *store.FindClient) (*store.Client, error)
	GetDetectionSetting(ctx context.Context) (*store.DetectionSetting, error)
	GetWeekTemplate(ctx context.Context, find *store.FindWeekTemplate) (*store.WeekTemplate, error)
	ListClientPrograms(ctx context.Context, find *store.FindClientProgram) ([]*store.ClientProgram, error)
	ListClientWorkouts(ctx context.Context, find *store.FindClientWorkout) ([]*store.ClientWorkout, error)
	CreateClientWorkout(ctx context.Context, create *store.ClientWorkout) (*store.ClientWorkout, error)
	DeleteClientWorkout(ctx context.Context, delete *store.DeleteClientWorkout) error
}

// Service coordinates calendar sync, schedule application and bulk
// assignment. Safe for concurrent use.
type Service struct {
	store    Store
	provider Provider
	profile  *profile.Profile
	exporter *metrics.Exporter

	mu       sync.Mutex
	sessions map[string]*bulkSession

	// single collapses concurrent refreshes; the cron loop and a
	// manual trigger racing each other would double-count the stats.
	single singleflight.Group

	// now is swapped in tests.
	now func() time.Time
}

type bulkSession struct {
	session   *assign.Session
	createdAt time.Time
}

func NewService(st Store, provider Provider, prof *profile.Profile, exporter *metrics.Exporter) *Service {
	return &Service{
		store:    st,
		provider: provider,
		profile:  prof,
		exporter: exporter,
		sessions: map[string]*bulkSession{},
		now:      time.Now,
	}
}

// window resolves the fetch window: from the start of today (local)
// through the account's configured number of days ahead.
func (s *Service) window(ctx context.Context) (time.Time, time.Time, error) {
	days := int32(defaultSyncWindowDays)
	account, err := s.store.GetCalendarAccount(ctx, &store.FindCalendarAccount{})
	if err != nil {
		return time.Time{}, time.Time{}, errors.Wrap(err, "failed to load calendar account")
	}
	if account != nil && account.SyncWindowDays > 0 {
		days = account.SyncWindowDays
	}
	loc := s.profile.Location()
	now := s.now().In(loc)
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 0, int(days)), nil
}

// FetchWindow lists the events inside the configured sync window.
func (s *Service) FetchWindow(ctx context.Context) ([]*calendar.Event, error) {
	from, to, err := s.window(ctx)
	if err != nil {
		return nil, err
	}
	events, err := s.provider.ListEvents(ctx, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list calendar events")
	}
	return events, nil
}

func (s *Service) matcher(ctx context.Context) (*match.Matcher, error) {
	setting, err := s.store.GetDetectionSetting(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load detection settings")
	}
	normal := store.Normal
	clients, err := s.store.ListClients(ctx, &store.FindClient{RowStatus: &normal})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list clients")
	}
	return match.NewMatcher(match.ConfigFromSetting(setting), clients), nil
}

// AnnotatedEvent is a window event decorated with everything the
// calendar view needs: its weekly slot, the matched clients and
// whether exclusion keywords filtered it out.
type AnnotatedEvent struct {
	Event       *calendar.Event     `json:"event"`
	Pattern     *pattern.Pattern    `json:"pattern,omitempty"`
	Matches     []match.ClientMatch `json:"matches,omitempty"`
	SessionType match.SessionType   `json:"sessionType,omitempty"`
	Excluded    bool                `json:"excluded,omitempty"`
	AssignedTo  string              `json:"assignedTo,omitempty"`
}

// AnnotatedWindow fetches the sync window and annotates every event.
func (s *Service) AnnotatedWindow(ctx context.Context) ([]AnnotatedEvent, error) {
	from, to, err := s.window(ctx)
	if err != nil {
		return nil, err
	}
	return s.AnnotatedRange(ctx, from, to)
}

// AnnotatedRange annotates every event inside an explicit range,
// bypassing the configured window.
func (s *Service) AnnotatedRange(ctx context.Context, from, to time.Time) ([]AnnotatedEvent, error) {
	events, err := s.provider.ListEvents(ctx, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list calendar events")
	}
	matcher, err := s.matcher(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]AnnotatedEvent, 0, len(events))
	for _, event := range events {
		annotated := AnnotatedEvent{
			Event:      event,
			AssignedTo: pattern.AssignedClientID(event),
		}
		if p, ok := pattern.Detect(event); ok {
			annotated.Pattern = &p
		}
		if matcher.Excluded(event) {
			annotated.Excluded = true
		} else {
			result := matcher.Match(event)
			annotated.Matches = result.Matches
			annotated.SessionType = result.SessionType
		}
		out = append(out, annotated)
	}
	return out, nil
}

// Summary is the outcome of one sync pass.
type Summary struct {
	From    time.Time   `json:"from"`
	To      time.Time   `json:"to"`
	Fetched int         `json:"fetched"`
	Stats   match.Stats `json:"stats"`
}

// Refresh runs one full sync pass: fetch the window, run matching over
// it and publish the counts. Failures are reported to the webhook so
// an unattended instance surfaces broken calendar credentials.
func (s *Service) Refresh(ctx context.Context) (*Summary, error) {
	v, err, _ := s.single.Do("refresh", func() (any, error) {
		started := s.now()
		summary, err := s.refresh(ctx)
		s.exporter.SyncDuration.Observe(s.now().Sub(started).Seconds())
		if err != nil {
			s.exporter.SyncRuns.WithLabelValues("error").Inc()
			s.notify(&webhook.RequestPayload{
				URL:          s.profile.WebhookURL,
				ActivityType: webhook.ActivitySyncFailed,
				CreatedTs:    s.now().Unix(),
			})
			return nil, err
		}
		s.exporter.SyncRuns.WithLabelValues("ok").Inc()
		return summary, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Summary), nil
}

func (s *Service) refresh(ctx context.Context) (*Summary, error) {
	from, to, err := s.window(ctx)
	if err != nil {
		return nil, err
	}
	events, err := s.provider.ListEvents(ctx, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list calendar events")
	}
	matcher, err := s.matcher(ctx)
	if err != nil {
		return nil, err
	}

	stats := matcher.Stats(events)
	s.exporter.EventsFetched.Add(float64(stats.Total))
	s.exporter.EventsExcluded.Add(float64(stats.Excluded))
	s.exporter.EventsUnmatched.Add(float64(stats.Unmatched))
	s.exporter.EventsMatched.WithLabelValues(string(match.SessionOneOnOne)).Add(float64(stats.OneOnOne))
	s.exporter.EventsMatched.WithLabelValues(string(match.SessionBuddy)).Add(float64(stats.Buddy))
	s.exporter.EventsMatched.WithLabelValues(string(match.SessionGroup)).Add(float64(stats.Group))

	slog.Info("calendar sync completed",
		slog.Time("from", from), slog.Time("to", to),
		slog.Int("fetched", stats.Total), slog.Int("matched", stats.Matched),
		slog.Int("excluded", stats.Excluded), slog.Int("unmatched", stats.Unmatched))

	return &Summary{From: from, To: to, Fetched: stats.Total, Stats: stats}, nil
}

func (s *Service) assigner() *assign.Assigner {
	return assign.NewAssigner(s.store, s.provider, s.profile.Location(), s.profile.InstanceURL)
}

// StartBulkAssign discovers the assignable patterns around a clicked
// event and opens a review session. The returned session ID drives the
// subsequent Toggle/Apply calls.
func (s *Service) StartBulkAssign(ctx context.Context, eventID, clientID, category string) (string, *assign.Session, error) {
	event, err := s.provider.GetEvent(ctx, eventID)
	if err != nil {
		return "", nil, errors.Wrapf(err, "failed to get event %s", eventID)
	}
	events, err := s.FetchWindow(ctx)
	if err != nil {
		return "", nil, err
	}
	programs, err := s.store.ListClientPrograms(ctx, &store.FindClientProgram{ClientID: &clientID})
	if err != nil {
		return "", nil, errors.Wrapf(err, "failed to list programs for client %s", clientID)
	}

	groups := assign.FindAllPatternsWithEvents(event, clientID, events, programs, s.now(), s.profile.Location())
	session := assign.NewSession(clientID, category)
	if err := session.Discover(groups); err != nil {
		return "", nil, err
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.pruneSessionsLocked()
	s.sessions[id] = &bulkSession{session: session, createdAt: s.now()}
	s.mu.Unlock()
	return id, session, nil
}

// Session returns an open bulk-assignment session by ID.
func (s *Service) Session(id string) (*assign.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bs, ok := s.sessions[id]
	if !ok {
		return nil, errors.Errorf("unknown assignment session %s", id)
	}
	return bs.session, nil
}

// ToggleSelection flips one event in a session's selection.
func (s *Service) ToggleSelection(sessionID, eventID string) (*assign.Session, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.Toggle(eventID); err != nil {
		return nil, err
	}
	return session, nil
}

// ConfirmAndApply freezes the session's selection and runs the batch.
// The session stays retrievable afterwards so the review screen can
// show per-event outcomes.
func (s *Service) ConfirmAndApply(ctx context.Context, sessionID string) (*assign.Result, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.Confirm(); err != nil {
		return nil, err
	}
	result, err := session.Apply(ctx, s.assigner())
	if err != nil {
		return nil, err
	}

	s.exporter.AssignmentsApplied.Add(float64(result.Applied))
	s.exporter.AssignmentsFailed.Add(float64(result.Failed))
	s.notify(&webhook.RequestPayload{
		URL:          s.profile.WebhookURL,
		ActivityType: webhook.ActivityBulkAssignCompleted,
		ClientID:     session.ClientID(),
		Category:     session.Category(),
		Applied:      result.Applied,
		Failed:       result.Failed,
		Total:        result.Total,
		CreatedTs:    s.now().Unix(),
	})
	return result, nil
}

// CancelSession abandons a session and forgets it.
func (s *Service) CancelSession(sessionID string) error {
	session, err := s.Session(sessionID)
	if err != nil {
		return err
	}
	if err := session.Cancel(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

// SeriesUpdater is implemented by providers that can apply a patch at
// a recurrence scope. The Google client implements it.
type SeriesUpdater interface {
	UpdateRecurring(ctx context.Context, event *calendar.Event, scope google.UpdateScope, patch *calendar.EventPatch) (*calendar.Event, error)
}

// UpdateEvent patches one event at the requested scope. Non-single
// scopes need a provider that understands recurring series.
func (s *Service) UpdateEvent(ctx context.Context, eventID string, scope google.UpdateScope, patch *calendar.EventPatch) (*calendar.Event, error) {
	if scope == "" || scope == google.ScopeSingle {
		return s.provider.PatchEvent(ctx, eventID, patch)
	}
	updater, ok := s.provider.(SeriesUpdater)
	if !ok {
		return nil, errors.Errorf("calendar provider cannot update at scope %s", scope)
	}
	event, err := s.provider.GetEvent(ctx, eventID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get event %s", eventID)
	}
	return updater.UpdateRecurring(ctx, event, scope, patch)
}

// Unassign removes a client assignment from one event: the workout row
// is deleted and the event's metadata is reset.
func (s *Service) Unassign(ctx context.Context, eventID string) error {
	event, err := s.provider.GetEvent(ctx, eventID)
	if err != nil {
		return errors.Wrapf(err, "failed to get event %s", eventID)
	}
	return s.assigner().Unassign(ctx, event)
}

func (s *Service) pruneSessionsLocked() {
	cutoff := s.now().Add(-sessionTTL)
	for id, bs := range s.sessions {
		if bs.createdAt.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}

func (s *Service) notify(payload *webhook.RequestPayload) {
	if s.profile.WebhookURL == "" {
		return
	}
	webhook.PostAsync(payload)
	s.exporter.WebhookDeliveries.WithLabelValues("sent").Inc()
}
