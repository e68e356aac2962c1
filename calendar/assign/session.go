package assign

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/coachcal/coachcal/calendar"
)

// State is the lifecycle of one bulk-assignment session.
type State string

const (
	StateIdle               State = "idle"
	StatePatternsDiscovered State = "patterns_discovered"
	StateReviewing          State = "reviewing"
	StateSelectionChanged   State = "selection_changed"
	StateConfirmed          State = "confirmed"
	StateApplying           State = "applying"
	StateCompleted          State = "completed"
	StatePartiallyFailed    State = "partially_failed"
)

// transitions lists the legal moves. Reviewing and selection-changed
// cycle freely while the coach toggles checkboxes; applying is a
// one-way door out of confirmed.
var transitions = map[State][]State{
	StateIdle:               {StatePatternsDiscovered},
	StatePatternsDiscovered: {StateReviewing, StateIdle},
	StateReviewing:          {StateSelectionChanged, StateConfirmed, StateIdle},
	StateSelectionChanged:   {StateReviewing, StateConfirmed, StateIdle},
	StateConfirmed:          {StateApplying, StateReviewing, StateIdle},
	StateApplying:           {StateCompleted, StatePartiallyFailed},
	StateCompleted:          {StateIdle},
	StatePartiallyFailed:    {StateIdle},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// EventResult records the outcome of one event in a batch.
type EventResult struct {
	EventID string `json:"eventId"`
	Error   string `json:"error,omitempty"`
}

// Result summarizes a finished (or partially finished) batch.
type Result struct {
	Applied int           `json:"applied"`
	Failed  int           `json:"failed"`
	Total   int           `json:"total"`
	Results []EventResult `json:"results"`
}

// Session drives one coach through discovering, reviewing and applying
// a bulk assignment. It is safe for concurrent use; Apply refuses to
// run twice.
type Session struct {
	mu       sync.Mutex
	state    State
	clientID string
	category string
	groups   []PatternGroup
	selected map[string]*calendar.Event
	result   *Result
}

func NewSession(clientID, category string) *Session {
	return &Session{
		state:    StateIdle,
		clientID: clientID,
		category: category,
		selected: map[string]*calendar.Event{},
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) transition(to State) error {
	if !canTransition(s.state, to) {
		return errors.Errorf("illegal transition %s -> %s", s.state, to)
	}
	s.state = to
	return nil
}

// Discover records the pattern groups and pre-selects every event in
// them; coaches deselect rather than opt in.
func (s *Session) Discover(groups []PatternGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transition(StatePatternsDiscovered); err != nil {
		return err
	}
	s.groups = groups
	s.selected = map[string]*calendar.Event{}
	for _, g := range groups {
		for _, event := range g.Events {
			s.selected[event.ID] = event
		}
	}
	s.state = StateReviewing
	return nil
}

func (s *Session) Groups() []PatternGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.groups
}

func (s *Session) ClientID() string { return s.clientID }

func (s *Session) Category() string { return s.category }

// Selected returns the IDs of the currently selected events, sorted.
func (s *Session) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Toggle flips one event's selection during review.
func (s *Session) Toggle(eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transition(StateSelectionChanged); err != nil {
		return err
	}
	if _, ok := s.selected[eventID]; ok {
		delete(s.selected, eventID)
	} else {
		for _, g := range s.groups {
			for _, event := range g.Events {
				if event.ID == eventID {
					s.selected[eventID] = event
				}
			}
		}
	}
	s.state = StateReviewing
	return nil
}

// Confirm freezes the selection. At least one event must be selected.
func (s *Session) Confirm() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.selected) == 0 {
		return errors.New("nothing selected")
	}
	return s.transition(StateConfirmed)
}

// Cancel abandons the session from any resting state.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transition(StateIdle)
}

// Result returns the batch outcome once Apply has finished.
func (s *Session) Result() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Apply assigns every selected event sequentially. The batch is not
// atomic: a failure is recorded and the loop moves on, so one flaky
// calendar write cannot roll back the sessions already stamped. Events
// are processed in start order to keep the results readable.
func (s *Session) Apply(ctx context.Context, assigner *Assigner) (*Result, error) {
	s.mu.Lock()
	if s.state == StateApplying {
		s.mu.Unlock()
		return nil, errors.New("apply already in progress")
	}
	if err := s.transition(StateApplying); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	events := make([]*calendar.Event, 0, len(s.selected))
	for _, event := range s.selected {
		events = append(events, event)
	}
	clientID, category := s.clientID, s.category
	s.mu.Unlock()

	sortEventsByStart(events)

	result := &Result{Total: len(events)}
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			result.Failed++
			result.Results = append(result.Results, EventResult{EventID: event.ID, Error: err.Error()})
			continue
		}
		if _, err := assigner.Assign(ctx, event, clientID, category); err != nil {
			slog.Warn("bulk assign failed for event",
				slog.String("eventID", event.ID), slog.Any("err", err))
			result.Failed++
			result.Results = append(result.Results, EventResult{EventID: event.ID, Error: err.Error()})
			continue
		}
		result.Applied++
		result.Results = append(result.Results, EventResult{EventID: event.ID})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = result
	if result.Failed > 0 {
		s.state = StatePartiallyFailed
	} else {
		s.state = StateCompleted
	}
	return result, nil
}

func sortEventsByStart(events []*calendar.Event) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].Start.Equal(events[j].Start) {
			return events[i].ID < events[j].ID
		}
		return events[i].Start.Before(events[j].Start)
	})
}
