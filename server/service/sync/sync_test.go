package sync

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/coachcal/coachcal/calendar"
	"github.com/coachcal/coachcal/calendar/google"
	"github.com/coachcal/coachcal/internal/profile"
	"github.com/coachcal/coachcal/server/metrics"
	"github.com/coachcal/coachcal/store"
)

type fakeProvider struct {
	events     []*calendar.Event
	listedFrom time.Time
	listedTo   time.Time

	created    []*calendar.Event
	patches    map[string]*calendar.EventPatch
	failCreate bool
}

func (f *fakeProvider) ListEvents(_ context.Context, from, to time.Time) ([]*calendar.Event, error) {
	f.listedFrom, f.listedTo = from, to
	return f.events, nil
}

func (f *fakeProvider) GetEvent(_ context.Context, eventID string) (*calendar.Event, error) {
	for _, event := range f.events {
		if event.ID == eventID {
			return event, nil
		}
	}
	return nil, errors.Errorf("event %s not found", eventID)
}

func (f *fakeProvider) CreateEvent(_ context.Context, event *calendar.Event) (*calendar.Event, error) {
	if f.failCreate {
		return nil, errors.New("backend unavailable")
	}
	created := *event
	created.ID = fmt.Sprintf("evt-%d", len(f.created)+1)
	f.created = append(f.created, &created)
	return &created, nil
}

func (f *fakeProvider) PatchEvent(_ context.Context, eventID string, patch *calendar.EventPatch) (*calendar.Event, error) {
	if f.patches == nil {
		f.patches = map[string]*calendar.EventPatch{}
	}
	f.patches[eventID] = patch
	return &calendar.Event{ID: eventID}, nil
}

func (f *fakeProvider) DeleteEvent(_ context.Context, eventID string) error {
	return nil
}

type fakeStore struct {
	account  *store.CalendarAccount
	clients  []*store.Client
	setting  *store.DetectionSetting
	template *store.WeekTemplate
	programs []*store.ClientProgram
	workouts []*store.ClientWorkout

	createdWorkouts []*store.ClientWorkout
	deletedWorkouts []string
}

func (f *fakeStore) GetCalendarAccount(_ context.Context, _ *store.FindCalendarAccount) (*store.CalendarAccount, error) {
	return f.account, nil
}

func (f *fakeStore) ListClients(_ context.Context, _ *store.FindClient) ([]*store.Client, error) {
	return f.clients, nil
}

func (f *fakeStore) GetClient(_ context.Context, find *store.FindClient) (*store.Client, error) {
	for _, client := range f.clients {
		if find.UID != nil && client.UID == *find.UID {
			return client, nil
		}
	}
	return nil, errors.New("client not found")
}

func (f *fakeStore) GetDetectionSetting(_ context.Context) (*store.DetectionSetting, error) {
	return f.setting, nil
}

func (f *fakeStore) GetWeekTemplate(_ context.Context, _ *store.FindWeekTemplate) (*store.WeekTemplate, error) {
	if f.template == nil {
		return nil, errors.New("template not found")
	}
	return f.template, nil
}

func (f *fakeStore) ListClientPrograms(_ context.Context, find *store.FindClientProgram) ([]*store.ClientProgram, error) {
	var out []*store.ClientProgram
	for _, program := range f.programs {
		if find.ClientID != nil && program.ClientID != *find.ClientID {
			continue
		}
		if find.Status != nil && program.Status != *find.Status {
			continue
		}
		out = append(out, program)
	}
	return out, nil
}

func (f *fakeStore) ListClientWorkouts(_ context.Context, find *store.FindClientWorkout) ([]*store.ClientWorkout, error) {
	var out []*store.ClientWorkout
	for _, workout := range f.workouts {
		if find.ClientID != nil && workout.ClientID != *find.ClientID {
			continue
		}
		if find.TsAfter != nil && workout.Ts < *find.TsAfter {
			continue
		}
		out = append(out, workout)
	}
	return out, nil
}

func (f *fakeStore) CreateClientWorkout(_ context.Context, create *store.ClientWorkout) (*store.ClientWorkout, error) {
	f.createdWorkouts = append(f.createdWorkouts, create)
	return create, nil
}

func (f *fakeStore) DeleteClientWorkout(_ context.Context, delete *store.DeleteClientWorkout) error {
	if delete.UID != nil {
		f.deletedWorkouts = append(f.deletedWorkouts, *delete.UID)
	}
	return nil
}

func testLocation(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)
	return loc
}

// Monday, March 2 2026, 08:00 local.
func testNow(loc *time.Location) time.Time {
	return time.Date(2026, 3, 2, 8, 0, 0, 0, loc)
}

func newTestService(st *fakeStore, provider *fakeProvider, loc *time.Location) *Service {
	prof := &profile.Profile{
		Timezone:    "America/Los_Angeles",
		InstanceURL: "https://coach.example.com",
	}
	svc := NewService(st, provider, prof, metrics.NewExporter())
	svc.now = func() time.Time { return testNow(loc) }
	return svc
}

func TestFetchWindowDefault(t *testing.T) {
	loc := testLocation(t)
	provider := &fakeProvider{}
	svc := newTestService(&fakeStore{}, provider, loc)

	_, err := svc.FetchWindow(context.Background())
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, loc), provider.listedFrom)
	require.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, loc), provider.listedTo)
}

func TestFetchWindowFromAccount(t *testing.T) {
	loc := testLocation(t)
	provider := &fakeProvider{}
	st := &fakeStore{account: &store.CalendarAccount{CalendarID: "primary", SyncWindowDays: 7}}
	svc := newTestService(st, provider, loc)

	_, err := svc.FetchWindow(context.Background())
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, loc), provider.listedTo)
}

func TestRefresh(t *testing.T) {
	loc := testLocation(t)
	provider := &fakeProvider{events: []*calendar.Event{
		{
			ID:      "evt-jane",
			Summary: "Training session",
			Start:   time.Date(2026, 3, 3, 18, 0, 0, 0, loc),
			Attendees: []calendar.Attendee{
				{Email: "jane.doe@example.com", DisplayName: "Jane Doe"},
			},
		},
		{
			ID:      "evt-hold",
			Summary: "Hold for gym maintenance",
			Start:   time.Date(2026, 3, 4, 10, 0, 0, 0, loc),
		},
		{
			ID:      "evt-stranger",
			Summary: "Training session",
			Start:   time.Date(2026, 3, 5, 10, 0, 0, 0, loc),
			Attendees: []calendar.Attendee{
				{Email: "stranger@example.com"},
			},
		},
	}}
	st := &fakeStore{clients: []*store.Client{
		{UID: "c-jane", Name: "Jane Doe", Email: "jane.doe@example.com", RowStatus: store.Normal},
	}}
	svc := newTestService(st, provider, loc)

	summary, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, summary.Fetched)
	require.Equal(t, 1, summary.Stats.Matched)
	require.Equal(t, 1, summary.Stats.Excluded)
	require.Equal(t, 1, summary.Stats.Unmatched)
	require.Equal(t, 1, summary.Stats.OneOnOne)
}

func TestAnnotatedWindow(t *testing.T) {
	loc := testLocation(t)
	provider := &fakeProvider{events: []*calendar.Event{
		{
			ID:      "evt-jane",
			Summary: "Training session",
			Start:   time.Date(2026, 3, 3, 18, 0, 0, 0, loc),
			Attendees: []calendar.Attendee{
				{Email: "jane.doe@example.com", DisplayName: "Jane Doe"},
			},
		},
		{
			ID:      "evt-hold",
			Summary: "Hold",
			Start:   time.Date(2026, 3, 4, 10, 0, 0, 0, loc),
		},
	}}
	st := &fakeStore{clients: []*store.Client{
		{UID: "c-jane", Name: "Jane Doe", Email: "jane.doe@example.com", RowStatus: store.Normal},
	}}
	svc := newTestService(st, provider, loc)

	annotated, err := svc.AnnotatedWindow(context.Background())
	require.NoError(t, err)
	require.Len(t, annotated, 2)

	require.NotNil(t, annotated[0].Pattern)
	require.Equal(t, "2-18:00", annotated[0].Pattern.Key())
	require.Len(t, annotated[0].Matches, 1)
	require.Equal(t, "c-jane", annotated[0].Matches[0].ClientID)
	require.False(t, annotated[0].Excluded)

	require.True(t, annotated[1].Excluded)
	require.Empty(t, annotated[1].Matches)
}

func marchTemplate() *store.WeekTemplate {
	return &store.WeekTemplate{
		ID:   1,
		UID:  "wt-1",
		Name: "Strength block",
		Days: []store.TemplateDay{
			{Day: "Tuesday", Category: "Strength", Time: "18:00"},
			{Day: "Saturday", Category: "Recovery", IsAllDay: true},
			{Day: "Sunday", Category: "Rest Day"},
		},
	}
}

func marchStore(loc *time.Location) *fakeStore {
	periodStart := time.Date(2026, 3, 1, 0, 0, 0, 0, loc)
	periodEnd := time.Date(2026, 4, 1, 0, 0, 0, 0, loc)
	return &fakeStore{
		clients: []*store.Client{
			{UID: "c-jane", Name: "Jane Doe", Email: "jane.doe@example.com", RowStatus: store.Normal},
		},
		template: marchTemplate(),
		programs: []*store.ClientProgram{{
			UID:      "prog-1",
			ClientID: "c-jane",
			Status:   store.ProgramStatusActive,
			Periods: []store.Period{{
				ID:      "p1",
				Name:    "March block",
				StartTs: periodStart.Unix(),
				EndTs:   periodEnd.Unix(),
			}},
		}},
	}
}

func TestApplySchedule(t *testing.T) {
	loc := testLocation(t)
	provider := &fakeProvider{}
	svc := newTestService(marchStore(loc), provider, loc)

	result, err := svc.ApplySchedule(context.Background(), &ApplyScheduleRequest{
		ClientID:   "c-jane",
		ProgramUID: "prog-1",
		PeriodID:   "p1",
		TemplateID: 1,
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.Masters)
	require.Equal(t, 4, result.Singles)
	require.Zero(t, result.Failed)
	require.Len(t, result.EventIDs, 5)

	master := provider.created[0]
	require.Equal(t, "Jane Doe - Strength", master.Summary)
	require.Equal(t, time.Date(2026, 3, 3, 18, 0, 0, 0, loc), master.Start)
	require.Equal(t, []string{"RRULE:FREQ=WEEKLY;BYDAY=TU;UNTIL=20260401"}, master.Recurrence)
	require.Equal(t, "c-jane", master.Private[calendar.PropClientID])
	require.Equal(t, "Strength", master.Private[calendar.PropCategory])
	require.Equal(t, "p1", master.Private[calendar.PropPeriodID])
	require.Contains(t, master.Description, "client=c-jane")

	// The remaining creates are the four March Saturdays as single
	// all-day events.
	var saturdays []time.Time
	for _, event := range provider.created[1:] {
		require.True(t, event.AllDay)
		require.Equal(t, "Jane Doe - Recovery", event.Summary)
		saturdays = append(saturdays, event.Start)
	}
	require.Equal(t, []time.Time{
		time.Date(2026, 3, 7, 0, 0, 0, 0, loc),
		time.Date(2026, 3, 14, 0, 0, 0, 0, loc),
		time.Date(2026, 3, 21, 0, 0, 0, 0, loc),
		time.Date(2026, 3, 28, 0, 0, 0, 0, loc),
	}, saturdays)
}

func TestApplyScheduleFallback(t *testing.T) {
	loc := testLocation(t)
	provider := &fakeProvider{}
	st := marchStore(loc)
	// Malformed time: no rule is built, so the single-day fallback
	// applies on the first schedulable day.
	st.template = &store.WeekTemplate{
		ID:  1,
		UID: "wt-1",
		Days: []store.TemplateDay{
			{Day: "Tuesday", Category: "Strength", Time: "18:0"},
		},
	}
	svc := newTestService(st, provider, loc)

	result, err := svc.ApplySchedule(context.Background(), &ApplyScheduleRequest{
		ClientID:   "c-jane",
		ProgramUID: "prog-1",
		PeriodID:   "p1",
		TemplateID: 1,
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.Masters)
	require.Zero(t, result.Singles)

	master := provider.created[0]
	require.Equal(t, []string{"RRULE:FREQ=WEEKLY;BYDAY=TU;UNTIL=20260401"}, master.Recurrence)
	require.Equal(t, time.Date(2026, 3, 3, 18, 0, 0, 0, loc), master.Start)
}

func TestBulkAssignLifecycle(t *testing.T) {
	loc := testLocation(t)
	provider := &fakeProvider{events: []*calendar.Event{
		{ID: "evt-tue1", Summary: "Training", Start: time.Date(2026, 3, 3, 18, 0, 0, 0, loc)},
		{ID: "evt-tue2", Summary: "Training", Start: time.Date(2026, 3, 10, 18, 0, 0, 0, loc)},
	}}
	st := &fakeStore{clients: []*store.Client{
		{UID: "c-jane", Name: "Jane Doe", RowStatus: store.Normal},
	}}
	svc := newTestService(st, provider, loc)
	ctx := context.Background()

	sessionID, session, err := svc.StartBulkAssign(ctx, "evt-tue1", "c-jane", "Strength")
	require.NoError(t, err)
	require.NotEmpty(t, sessionID)

	groups := session.Groups()
	require.Len(t, groups, 1)
	require.True(t, groups[0].Clicked)
	require.Len(t, groups[0].Events, 2)
	require.Len(t, session.Selected(), 2)

	_, err = svc.ToggleSelection(sessionID, "evt-tue2")
	require.NoError(t, err)
	require.Equal(t, []string{"evt-tue1"}, session.Selected())

	result, err := svc.ConfirmAndApply(ctx, sessionID)
	require.NoError(t, err)
	require.Equal(t, 1, result.Applied)
	require.Zero(t, result.Failed)

	require.Contains(t, provider.patches, "evt-tue1")
	require.NotContains(t, provider.patches, "evt-tue2")
	require.Len(t, st.createdWorkouts, 1)
	require.Equal(t, "c-jane", st.createdWorkouts[0].ClientID)
	require.Equal(t, store.QuickWorkoutsPeriodID, st.createdWorkouts[0].PeriodID)

	// The finished session stays retrievable for the results view.
	got, err := svc.Session(sessionID)
	require.NoError(t, err)
	require.NotNil(t, got.Result())
}

func TestCancelSessionForgetsIt(t *testing.T) {
	loc := testLocation(t)
	provider := &fakeProvider{events: []*calendar.Event{
		{ID: "evt-tue1", Summary: "Training", Start: time.Date(2026, 3, 3, 18, 0, 0, 0, loc)},
	}}
	st := &fakeStore{clients: []*store.Client{{UID: "c-jane", Name: "Jane Doe"}}}
	svc := newTestService(st, provider, loc)

	sessionID, _, err := svc.StartBulkAssign(context.Background(), "evt-tue1", "c-jane", "Strength")
	require.NoError(t, err)
	require.NoError(t, svc.CancelSession(sessionID))

	_, err = svc.Session(sessionID)
	require.Error(t, err)
}

func TestUnassign(t *testing.T) {
	loc := testLocation(t)
	provider := &fakeProvider{events: []*calendar.Event{
		{
			ID:      "evt-tue1",
			Summary: "Training",
			Start:   time.Date(2026, 3, 3, 18, 0, 0, 0, loc),
			Private: map[string]string{
				calendar.PropClientID:  "c-jane",
				calendar.PropWorkoutID: "w42",
			},
		},
	}}
	st := &fakeStore{}
	svc := newTestService(st, provider, loc)

	require.NoError(t, svc.Unassign(context.Background(), "evt-tue1"))
	require.Equal(t, []string{"w42"}, st.deletedWorkouts)
	require.Contains(t, provider.patches, "evt-tue1")
}

func TestExportICS(t *testing.T) {
	loc := testLocation(t)
	st := &fakeStore{
		clients: []*store.Client{{UID: "c-jane", Name: "Jane Doe"}},
		workouts: []*store.ClientWorkout{
			{
				UID:      "w1",
				ClientID: "c-jane",
				Category: "Strength",
				Time:     "18:00",
				Ts:       time.Date(2026, 3, 3, 0, 0, 0, 0, loc).Unix(),
			},
			{
				UID:      "w2",
				ClientID: "c-jane",
				Category: "Recovery",
				Ts:       time.Date(2026, 3, 7, 0, 0, 0, 0, loc).Unix(),
			},
		},
	}
	svc := newTestService(st, &fakeProvider{}, loc)

	payload, err := svc.ExportICS(context.Background(), "c-jane")
	require.NoError(t, err)
	require.Contains(t, payload, "BEGIN:VCALENDAR")
	require.Contains(t, payload, "UID:w1@coachcal")
	require.Contains(t, payload, "SUMMARY:Strength")
	require.Contains(t, payload, "SUMMARY:Recovery")
	require.Equal(t, 2, strings.Count(payload, "BEGIN:VEVENT"))
}

func TestUpcomingFeed(t *testing.T) {
	loc := testLocation(t)
	st := &fakeStore{
		clients: []*store.Client{{UID: "c-jane", Name: "Jane Doe", RowStatus: store.Normal}},
		workouts: []*store.ClientWorkout{
			{
				UID:      "w1",
				ClientID: "c-jane",
				Category: "Strength",
				Time:     "18:00",
				Ts:       time.Date(2026, 3, 3, 0, 0, 0, 0, loc).Unix(),
			},
		},
	}
	svc := newTestService(st, &fakeProvider{}, loc)

	atom, err := svc.UpcomingFeed(context.Background())
	require.NoError(t, err)
	require.Contains(t, atom, "<feed")
	require.Contains(t, atom, "Jane Doe - Strength")
	require.Contains(t, atom, "https://coach.example.com/workouts/w1")
}

func TestUpdateEventScope(t *testing.T) {
	loc := testLocation(t)
	provider := &fakeProvider{events: []*calendar.Event{
		{ID: "evt-tue1", Summary: "Training", Start: time.Date(2026, 3, 3, 18, 0, 0, 0, loc)},
	}}
	svc := newTestService(&fakeStore{}, provider, loc)
	ctx := context.Background()

	summary := "Renamed"
	_, err := svc.UpdateEvent(ctx, "evt-tue1", google.ScopeSingle, &calendar.EventPatch{Summary: &summary})
	require.NoError(t, err)
	require.Contains(t, provider.patches, "evt-tue1")

	// The fake provider cannot reach into a series.
	_, err = svc.UpdateEvent(ctx, "evt-tue1", google.ScopeThisAndFollowing, &calendar.EventPatch{Summary: &summary})
	require.Error(t, err)
}

func TestRefresherSpec(t *testing.T) {
	loc := testLocation(t)
	svc := newTestService(&fakeStore{}, &fakeProvider{}, loc)

	require.NoError(t, NewRefresher(svc, "").Start())
	require.Error(t, NewRefresher(svc, "not a cron spec").Start())
}
