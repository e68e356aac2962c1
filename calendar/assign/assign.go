// Package assign links calendar events to clients, individually and in
// pattern-sized batches. Assignment is the write side of matching: it
// creates the workout row, stamps the event with metadata and extended
// properties, and appends the deep links clients open their sessions
// through.
package assign

import (
	"context"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/coachcal/coachcal/calendar"
	"github.com/coachcal/coachcal/calendar/metadata"
	"github.com/coachcal/coachcal/calendar/pattern"
	"github.com/coachcal/coachcal/store"
)

// EventWriter is the slice of the calendar provider assignment needs.
type EventWriter interface {
	PatchEvent(ctx context.Context, eventID string, patch *calendar.EventPatch) (*calendar.Event, error)
}

// WorkoutStore is the slice of the store assignment needs. *store.Store
// satisfies it.
type WorkoutStore interface {
	ListClientPrograms(ctx context.Context, find *store.FindClientProgram) ([]*store.ClientProgram, error)
	CreateClientWorkout(ctx context.Context, create *store.ClientWorkout) (*store.ClientWorkout, error)
	DeleteClientWorkout(ctx context.Context, delete *store.DeleteClientWorkout) error
}

// Assigner performs single-event assignment and unassignment against
// the store and the calendar.
type Assigner struct {
	store       WorkoutStore
	events      EventWriter
	loc         *time.Location
	instanceURL string
}

func NewAssigner(st WorkoutStore, events EventWriter, loc *time.Location, instanceURL string) *Assigner {
	return &Assigner{store: st, events: events, loc: loc, instanceURL: instanceURL}
}

// dayStart truncates t to local midnight.
func dayStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// resolvePeriod finds the program period covering the event date. When
// no period covers it the workout lands in the quick-workouts bucket,
// so assignment never fails just because a program has lapsed.
func (a *Assigner) resolvePeriod(ctx context.Context, clientID string, eventDate time.Time) (string, error) {
	status := store.ProgramStatusActive
	programs, err := a.store.ListClientPrograms(ctx, &store.FindClientProgram{
		ClientID: &clientID,
		Status:   &status,
	})
	if err != nil {
		return "", errors.Wrap(err, "list client programs")
	}
	ts := dayStart(eventDate, a.loc).Unix()
	for _, program := range programs {
		for _, period := range program.Periods {
			if ts >= period.StartTs && ts < period.EndTs {
				return period.ID, nil
			}
		}
	}
	return store.QuickWorkoutsPeriodID, nil
}

// Assign links one event to a client under the given category. It
// creates the workout row first and patches the calendar event second;
// a patch failure leaves the row behind for the next sync to repair
// rather than losing the assignment.
func (a *Assigner) Assign(ctx context.Context, event *calendar.Event, clientID, category string) (*store.ClientWorkout, error) {
	if event == nil || event.ID == "" {
		return nil, errors.New("event is required")
	}
	if clientID == "" {
		return nil, errors.New("client id is required")
	}

	periodID, err := a.resolvePeriod(ctx, clientID, event.Start)
	if err != nil {
		return nil, err
	}

	start := event.Start.In(a.loc)
	workout := &store.ClientWorkout{
		UID:       shortuuid.New(),
		ClientID:  clientID,
		PeriodID:  periodID,
		EventID:   event.ID,
		Category:  category,
		Title:     event.Summary,
		CreatedBy: "calendar",
		Ts:        dayStart(start, a.loc).Unix(),
		DayOfWeek: int32(start.Weekday()),
	}
	if !event.AllDay {
		workout.Time = start.Format("15:04")
	}
	workout, err = a.store.CreateClientWorkout(ctx, workout)
	if err != nil {
		return nil, errors.Wrap(err, "create client workout")
	}

	fields := metadata.Fields{}
	fields.Set("client", clientID)
	fields.Set("category", category)
	fields.Set("workoutId", workout.UID)
	fields.Set("periodId", periodID)
	description := metadata.Encode(event.Description, fields)
	description = metadata.UpsertWorkoutLinks(description, a.instanceURL, workout.UID, clientID, start)

	patch := &calendar.EventPatch{
		Description: &description,
		Private: map[string]string{
			calendar.PropClientID:  clientID,
			calendar.PropCategory:  category,
			calendar.PropWorkoutID: workout.UID,
			calendar.PropPeriodID:  periodID,
		},
	}
	if _, err := a.events.PatchEvent(ctx, event.ID, patch); err != nil {
		return workout, errors.Wrapf(err, "patch event %s", event.ID)
	}
	return workout, nil
}

// Unassign severs the link between an event and its client. The
// metadata block is rewritten to an explicit client=none rather than
// removed outright, so the legacy decoders cannot resurrect the old
// assignment from leftover text on the next sync.
func (a *Assigner) Unassign(ctx context.Context, event *calendar.Event) error {
	if event == nil || event.ID == "" {
		return errors.New("event is required")
	}

	if uid := metadata.Value(metadata.Decode(event.Description).WorkoutID); uid != "" {
		if err := a.store.DeleteClientWorkout(ctx, &store.DeleteClientWorkout{UID: &uid}); err != nil {
			return errors.Wrap(err, "delete client workout")
		}
	} else if uid := event.PrivateProp(calendar.PropWorkoutID); uid != "" {
		if err := a.store.DeleteClientWorkout(ctx, &store.DeleteClientWorkout{UID: &uid}); err != nil {
			return errors.Wrap(err, "delete client workout")
		}
	}

	fields := metadata.Fields{}
	fields.Set("client", metadata.None)
	description := metadata.StripWorkoutLinks(metadata.Strip(event.Description))
	description = metadata.Encode(description, fields)

	patch := &calendar.EventPatch{
		Description: &description,
		Private: map[string]string{
			calendar.PropClientID:  "",
			calendar.PropCategory:  "",
			calendar.PropWorkoutID: "",
			calendar.PropPeriodID:  "",
		},
	}
	if _, err := a.events.PatchEvent(ctx, event.ID, patch); err != nil {
		return errors.Wrapf(err, "patch event %s", event.ID)
	}
	return nil
}

// PatternGroup is one recurring slot with every unassigned event that
// falls on it. Clicked marks the slot the coach started from; it sorts
// first so the review list opens on what they clicked.
type PatternGroup struct {
	Pattern pattern.Pattern
	Events  []*calendar.Event
	Clicked bool
}

// FindAllPatternsWithEvents discovers every pattern worth offering when
// a coach assigns a client from a clicked event: the clicked event's
// own slot first (always included, even with no other occurrences),
// then each slot on the client's active program schedule that has at
// least one unassigned matching event.
func FindAllPatternsWithEvents(clicked *calendar.Event, clientID string, events []*calendar.Event, programs []*store.ClientProgram, now time.Time, loc *time.Location) []PatternGroup {
	var groups []PatternGroup
	seen := map[string]bool{}

	clickedPattern, ok := pattern.Detect(clicked)
	if ok {
		matches := pattern.FindMatching(events, clickedPattern, []string{clicked.ID})
		groups = append(groups, PatternGroup{
			Pattern: clickedPattern,
			Events:  append([]*calendar.Event{clicked}, matches...),
			Clicked: true,
		})
		seen[clickedPattern.Key()] = true
	}

	for _, p := range pattern.ClientScheduledPatterns(clientID, programs, now, loc) {
		if seen[p.Key()] {
			continue
		}
		seen[p.Key()] = true
		matches := pattern.FindMatching(events, p, nil)
		if len(matches) == 0 {
			continue
		}
		groups = append(groups, PatternGroup{Pattern: p, Events: matches})
	}
	return groups
}
