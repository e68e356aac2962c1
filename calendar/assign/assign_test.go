package assign

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/coachcal/coachcal/calendar"
	"github.com/coachcal/coachcal/store"
)

type fakeStore struct {
	programs []*store.ClientProgram
	created  []*store.ClientWorkout
	deleted  []string
}

func (f *fakeStore) ListClientPrograms(_ context.Context, find *store.FindClientProgram) ([]*store.ClientProgram, error) {
	var out []*store.ClientProgram
	for _, p := range f.programs {
		if find.ClientID != nil && p.ClientID != *find.ClientID {
			continue
		}
		if find.Status != nil && p.Status != *find.Status {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) CreateClientWorkout(_ context.Context, create *store.ClientWorkout) (*store.ClientWorkout, error) {
	f.created = append(f.created, create)
	return create, nil
}

func (f *fakeStore) DeleteClientWorkout(_ context.Context, delete *store.DeleteClientWorkout) error {
	if delete.UID != nil {
		f.deleted = append(f.deleted, *delete.UID)
	}
	return nil
}

type fakeWriter struct {
	patches map[string]*calendar.EventPatch
	failIDs map[string]bool
}

func (f *fakeWriter) PatchEvent(_ context.Context, eventID string, patch *calendar.EventPatch) (*calendar.Event, error) {
	if f.failIDs[eventID] {
		return nil, errors.New("backend unavailable")
	}
	if f.patches == nil {
		f.patches = map[string]*calendar.EventPatch{}
	}
	f.patches[eventID] = patch
	return &calendar.Event{ID: eventID}, nil
}

var la = mustLoc("America/Los_Angeles")

func mustLoc(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func eventAt(id string, year int, month time.Month, day, hour, minute int) *calendar.Event {
	start := time.Date(year, month, day, hour, minute, 0, 0, la)
	return &calendar.Event{
		ID:      id,
		Summary: "Training session",
		Start:   start,
		End:     start.Add(time.Hour),
	}
}

func midnight(year int, month time.Month, day int) int64 {
	return time.Date(year, month, day, 0, 0, 0, 0, la).Unix()
}

// One active program for March 2026 scheduling Tuesday and Thursday at
// 18:00 plus a Saturday morning.
func marchProgram() *store.ClientProgram {
	return &store.ClientProgram{
		UID:      "prog-1",
		ClientID: "c1",
		Status:   store.ProgramStatusActive,
		Periods: []store.Period{{
			ID:      "p1",
			Name:    "Base",
			StartTs: midnight(2026, time.March, 1),
			EndTs:   midnight(2026, time.April, 1),
			Days: []store.ProgramDay{
				{Ts: midnight(2026, time.March, 3), Category: "Strength", Time: "18:00"},
				{Ts: midnight(2026, time.March, 5), Category: "Strength", Time: "18:00"},
				{Ts: midnight(2026, time.March, 7), Category: "Mobility", Time: "09:00"},
			},
		}},
	}
}

func TestFindAllPatternsWithEvents(t *testing.T) {
	clicked := eventAt("tue-1", 2026, time.March, 3, 18, 0)
	events := []*calendar.Event{
		clicked,
		eventAt("thu-1", 2026, time.March, 5, 18, 0),
		eventAt("thu-2", 2026, time.March, 12, 18, 0),
		eventAt("thu-3", 2026, time.March, 19, 18, 0),
		// Wrong slot, must not appear anywhere.
		eventAt("mon-1", 2026, time.March, 2, 7, 0),
	}
	now := time.Date(2026, time.March, 2, 12, 0, 0, 0, la)

	groups := FindAllPatternsWithEvents(clicked, "c1", events, []*store.ClientProgram{marchProgram()}, now, la)

	// The clicked Tuesday slot comes first even though no other event
	// falls on it; Thursday follows with its three matches. Saturday
	// has no events so it is dropped.
	require.Len(t, groups, 2)

	require.True(t, groups[0].Clicked)
	require.Equal(t, "2-18:00", groups[0].Pattern.Key())
	require.Len(t, groups[0].Events, 1)
	require.Equal(t, "tue-1", groups[0].Events[0].ID)

	require.False(t, groups[1].Clicked)
	require.Equal(t, "4-18:00", groups[1].Pattern.Key())
	require.Len(t, groups[1].Events, 3)
}

func TestFindAllPatternsSkipsAssignedEvents(t *testing.T) {
	clicked := eventAt("tue-1", 2026, time.March, 3, 18, 0)
	taken := eventAt("thu-1", 2026, time.March, 5, 18, 0)
	taken.Private = map[string]string{calendar.PropClientID: "someone-else"}
	now := time.Date(2026, time.March, 2, 12, 0, 0, 0, la)

	groups := FindAllPatternsWithEvents(clicked, "c1", []*calendar.Event{clicked, taken}, []*store.ClientProgram{marchProgram()}, now, la)

	require.Len(t, groups, 1)
	require.True(t, groups[0].Clicked)
}

func TestAssign(t *testing.T) {
	st := &fakeStore{programs: []*store.ClientProgram{marchProgram()}}
	writer := &fakeWriter{}
	assigner := NewAssigner(st, writer, la, "https://coach.example.com")

	event := eventAt("thu-1", 2026, time.March, 5, 18, 0)
	event.Description = "Bring the bands"

	workout, err := assigner.Assign(context.Background(), event, "c1", "Strength")
	require.NoError(t, err)

	require.Equal(t, "c1", workout.ClientID)
	require.Equal(t, "p1", workout.PeriodID)
	require.Equal(t, "18:00", workout.Time)
	require.Equal(t, int32(4), workout.DayOfWeek)
	require.Equal(t, midnight(2026, time.March, 5), workout.Ts)
	require.NotEmpty(t, workout.UID)

	patch := writer.patches["thu-1"]
	require.NotNil(t, patch)
	require.Equal(t, "c1", patch.Private[calendar.PropClientID])
	require.Equal(t, "Strength", patch.Private[calendar.PropCategory])
	require.Equal(t, workout.UID, patch.Private[calendar.PropWorkoutID])
	require.Equal(t, "p1", patch.Private[calendar.PropPeriodID])

	require.NotNil(t, patch.Description)
	require.Contains(t, *patch.Description, "Bring the bands")
	require.Contains(t, *patch.Description, "client=c1")
	require.Contains(t, *patch.Description, "workoutId="+workout.UID)
	require.Contains(t, *patch.Description, "View Your Workout")
}

func TestAssignOutsideProgramUsesQuickWorkouts(t *testing.T) {
	st := &fakeStore{programs: []*store.ClientProgram{marchProgram()}}
	assigner := NewAssigner(st, &fakeWriter{}, la, "https://coach.example.com")

	event := eventAt("june-1", 2026, time.June, 1, 18, 0)
	workout, err := assigner.Assign(context.Background(), event, "c1", "Strength")
	require.NoError(t, err)
	require.Equal(t, store.QuickWorkoutsPeriodID, workout.PeriodID)
}

func TestUnassign(t *testing.T) {
	st := &fakeStore{}
	writer := &fakeWriter{}
	assigner := NewAssigner(st, writer, la, "https://coach.example.com")

	event := eventAt("thu-1", 2026, time.March, 5, 18, 0)
	event.Description = "Leg day\n[Metadata: client=c1, category=Strength, workoutId=w42, periodId=p1]"
	event.Private = map[string]string{calendar.PropClientID: "c1", calendar.PropWorkoutID: "w42"}

	require.NoError(t, assigner.Unassign(context.Background(), event))
	require.Equal(t, []string{"w42"}, st.deleted)

	patch := writer.patches["thu-1"]
	require.NotNil(t, patch)
	// Empty values delete the extended properties.
	require.Equal(t, "", patch.Private[calendar.PropClientID])
	require.Equal(t, "", patch.Private[calendar.PropWorkoutID])
	// The explicit none marker stops legacy decoders from reviving the
	// assignment out of leftover description text.
	require.Contains(t, *patch.Description, "client=none")
	require.NotContains(t, *patch.Description, "w42")
}

func TestSessionLifecycle(t *testing.T) {
	clicked := eventAt("tue-1", 2026, time.March, 3, 18, 0)
	events := []*calendar.Event{
		clicked,
		eventAt("thu-1", 2026, time.March, 5, 18, 0),
		eventAt("thu-2", 2026, time.March, 12, 18, 0),
	}
	now := time.Date(2026, time.March, 2, 12, 0, 0, 0, la)
	groups := FindAllPatternsWithEvents(clicked, "c1", events, []*store.ClientProgram{marchProgram()}, now, la)

	session := NewSession("c1", "Strength")
	require.Equal(t, StateIdle, session.State())

	require.NoError(t, session.Discover(groups))
	require.Equal(t, StateReviewing, session.State())

	// Deselect one Thursday, then change it back.
	require.NoError(t, session.Toggle("thu-2"))
	require.NoError(t, session.Toggle("thu-2"))
	require.Equal(t, StateReviewing, session.State())

	require.NoError(t, session.Confirm())
	require.Equal(t, StateConfirmed, session.State())

	st := &fakeStore{programs: []*store.ClientProgram{marchProgram()}}
	writer := &fakeWriter{failIDs: map[string]bool{"thu-1": true}}
	assigner := NewAssigner(st, writer, la, "https://coach.example.com")

	result, err := session.Apply(context.Background(), assigner)
	require.NoError(t, err)
	require.Equal(t, 3, result.Total)
	require.Equal(t, 2, result.Applied)
	require.Equal(t, 1, result.Failed)
	require.Len(t, result.Results, 3)
	// Results follow start order, so the clicked Tuesday comes first.
	require.Equal(t, "tue-1", result.Results[0].EventID)
	require.Equal(t, "thu-1", result.Results[1].EventID)
	require.NotEmpty(t, result.Results[1].Error)

	require.Equal(t, StatePartiallyFailed, session.State())
	require.Equal(t, result, session.Result())

	// A finished session cannot be applied again.
	_, err = session.Apply(context.Background(), assigner)
	require.Error(t, err)
}

func TestSessionConfirmRequiresSelection(t *testing.T) {
	session := NewSession("c1", "Strength")
	require.NoError(t, session.Discover(nil))
	require.Error(t, session.Confirm())
}

func TestSessionCancel(t *testing.T) {
	session := NewSession("c1", "Strength")
	require.NoError(t, session.Discover(nil))
	require.NoError(t, session.Cancel())
	require.Equal(t, StateIdle, session.State())
}
