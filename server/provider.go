package server

import (
	"context"
	"sync"
	"time"

	"github.com/coachcal/coachcal/calendar"
	"github.com/coachcal/coachcal/calendar/google"
	"github.com/coachcal/coachcal/internal/profile"
	"github.com/coachcal/coachcal/store"
)

// calendarProvider dials the Google client lazily so the server can
// start before a calendar is connected. Reset drops the cached client
// after a connect or disconnect; the next call re-reads the persisted
// token.
type calendarProvider struct {
	mu      sync.Mutex
	profile *profile.Profile
	store   *store.Store
	client  *google.Client
}

func newCalendarProvider(prof *profile.Profile, st *store.Store) *calendarProvider {
	return &calendarProvider{profile: prof, store: st}
}

func (p *calendarProvider) get(ctx context.Context) (*google.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return p.client, nil
	}
	client, err := google.NewClient(ctx, p.profile, p.store)
	if err != nil {
		return nil, err
	}
	p.client = client
	return client, nil
}

func (p *calendarProvider) Reset() {
	p.mu.Lock()
	p.client = nil
	p.mu.Unlock()
}

func (p *calendarProvider) ListEvents(ctx context.Context, from, to time.Time) ([]*calendar.Event, error) {
	client, err := p.get(ctx)
	if err != nil {
		return nil, err
	}
	return client.ListEvents(ctx, from, to)
}

func (p *calendarProvider) GetEvent(ctx context.Context, eventID string) (*calendar.Event, error) {
	client, err := p.get(ctx)
	if err != nil {
		return nil, err
	}
	return client.GetEvent(ctx, eventID)
}

func (p *calendarProvider) CreateEvent(ctx context.Context, event *calendar.Event) (*calendar.Event, error) {
	client, err := p.get(ctx)
	if err != nil {
		return nil, err
	}
	return client.CreateEvent(ctx, event)
}

func (p *calendarProvider) PatchEvent(ctx context.Context, eventID string, patch *calendar.EventPatch) (*calendar.Event, error) {
	client, err := p.get(ctx)
	if err != nil {
		return nil, err
	}
	return client.PatchEvent(ctx, eventID, patch)
}

func (p *calendarProvider) DeleteEvent(ctx context.Context, eventID string) error {
	client, err := p.get(ctx)
	if err != nil {
		return err
	}
	return client.DeleteEvent(ctx, eventID)
}

func (p *calendarProvider) UpdateRecurring(ctx context.Context, event *calendar.Event, scope google.UpdateScope, patch *calendar.EventPatch) (*calendar.Event, error) {
	client, err := p.get(ctx)
	if err != nil {
		return nil, err
	}
	return client.UpdateRecurring(ctx, event, scope, patch)
}
