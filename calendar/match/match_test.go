package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coachcal/coachcal/calendar"
	"github.com/coachcal/coachcal/store"
)

func testClients() []*store.Client {
	return []*store.Client{
		{ID: 1, UID: "c-jane", Name: "Jane Doe", Email: "jane.doe@example.com"},
		{ID: 2, UID: "c-bob", Name: "Bob Smith", Email: "bob@example.com,bsmith@work.example.com"},
		{ID: 3, UID: "c-devon", Name: "Devon McGuire", Email: ""},
	}
}

func timedEvent(summary string) *calendar.Event {
	start := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	return &calendar.Event{
		ID:      "evt-" + summary,
		Summary: summary,
		Start:   start,
		End:     start.Add(time.Hour),
	}
}

func TestMatchExtendedPropertyWins(t *testing.T) {
	m := NewMatcher(Config{}, testClients())

	event := timedEvent("Personal Training")
	event.Private = map[string]string{calendar.PropClientID: "c-devon"}
	// A conflicting attendee email must not displace the explicit
	// assignment.
	event.Attendees = []calendar.Attendee{{Email: "jane.doe@example.com"}}

	result := m.Match(event)
	require.NotEmpty(t, result.Matches)
	require.Equal(t, "c-devon", result.Matches[0].ClientID)
	require.Equal(t, ConfidenceExact, result.Matches[0].Confidence)
}

func TestMatchDescriptionMetadata(t *testing.T) {
	m := NewMatcher(Config{}, testClients())

	event := timedEvent("Training session")
	event.Description = "Leg day\n[Metadata: client=c-bob, category=Strength]"

	match, ok := m.Primary(event)
	require.True(t, ok)
	require.Equal(t, "c-bob", match.ClientID)
}

func TestMatchAttendeeEmail(t *testing.T) {
	m := NewMatcher(Config{}, testClients())

	t.Run("exact address", func(t *testing.T) {
		event := timedEvent("PT")
		event.Attendees = []calendar.Attendee{{Email: "bsmith@work.example.com"}}
		match, ok := m.Primary(event)
		require.True(t, ok)
		require.Equal(t, "c-bob", match.ClientID)
		require.Equal(t, ConfidenceExact, match.Confidence)
	})

	t.Run("local part only", func(t *testing.T) {
		event := timedEvent("PT")
		event.Attendees = []calendar.Attendee{{Email: "jane.doe@othermail.example.org"}}
		match, ok := m.Primary(event)
		require.True(t, ok)
		require.Equal(t, "c-jane", match.ClientID)
		require.Equal(t, ConfidencePartial, match.Confidence)
	})
}

func TestMatchSummaryName(t *testing.T) {
	m := NewMatcher(Config{}, testClients())

	event := timedEvent("Session with Jane Doe - Strength")
	result := m.Match(event)
	require.Len(t, result.Matches, 1)
	require.Equal(t, "c-jane", result.Matches[0].ClientID)
	require.Equal(t, SessionOneOnOne, result.SessionType)
}

func TestMatchAttendeeDisplayName(t *testing.T) {
	m := NewMatcher(Config{}, testClients())

	event := timedEvent("Workout")
	event.Attendees = []calendar.Attendee{
		{Email: "unknown@example.net", DisplayName: "McGuire, Devon"},
	}
	match, ok := m.Primary(event)
	require.True(t, ok)
	require.Equal(t, "c-devon", match.ClientID)
}

func TestSessionTypeByAttendeeCount(t *testing.T) {
	m := NewMatcher(Config{}, testClients())

	t.Run("three attendees is a group", func(t *testing.T) {
		event := timedEvent("Group training")
		event.Attendees = []calendar.Attendee{
			{Email: "jane.doe@example.com"},
			{Email: "bob@example.com"},
			{Email: "stranger@example.com"},
		}
		result := m.Match(event)
		require.Equal(t, 3, result.TotalAttendees)
		require.Equal(t, SessionGroup, result.SessionType)
	})

	t.Run("two attendees is a buddy session", func(t *testing.T) {
		event := timedEvent("Training session")
		event.Attendees = []calendar.Attendee{
			{Email: "jane.doe@example.com"},
			{Email: "bob@example.com"},
		}
		result := m.Match(event)
		require.Equal(t, SessionBuddy, result.SessionType)
		require.Len(t, result.Matches, 2)
	})
}

func TestExclusionOutranksEverything(t *testing.T) {
	m := NewMatcher(Config{}, testClients())

	event := timedEvent("Hold for Jane Doe")
	event.Private = map[string]string{calendar.PropClientID: "c-jane"}
	event.Attendees = []calendar.Attendee{{Email: "jane.doe@example.com"}}

	result := m.Match(event)
	require.Empty(t, result.Matches)

	excluded := m.ExcludedEvents([]*calendar.Event{event})
	require.Len(t, excluded, 1)
}

func TestCoachAndResourceAttendeesIgnored(t *testing.T) {
	cfg := Config{CoachEmailPatterns: []string{"coach@mygym.example.com"}}
	m := NewMatcher(cfg, testClients())

	event := timedEvent("Personal Training")
	event.Attendees = []calendar.Attendee{
		{Email: "coach@mygym.example.com", DisplayName: "Coach"},
		{Email: "studio-a@resource.calendar.google.com", Resource: true},
		{Email: "jane.doe@example.com"},
	}
	result := m.Match(event)
	require.Equal(t, 1, result.TotalAttendees)
	require.Equal(t, SessionOneOnOne, result.SessionType)
}

func TestGuestEmailsProperty(t *testing.T) {
	m := NewMatcher(Config{}, testClients())

	event := timedEvent("PT")
	event.Private = map[string]string{
		calendar.PropGuestEmails: "bob@example.com, jane.doe@example.com",
	}
	result := m.Match(event)
	require.Len(t, result.Matches, 2)
	require.Equal(t, SessionBuddy, result.SessionType)
}

func TestNamesMatch(t *testing.T) {
	tests := []struct {
		client, attendee string
		want             Confidence
		ok               bool
	}{
		{"Jane Doe", "Jane Doe", ConfidenceExact, true},
		{"Jane Doe", "jane doe ", ConfidenceExact, true},
		{"Devon", "Devon McGuire", ConfidencePartial, true},
		{"Devon McGuire", "McGuire, Devon", ConfidenceFuzzy, true},
		{"Jane Doe", "Jane Do", ConfidencePartial, true},
		{"Katherine", "Katharine", ConfidenceFuzzy, true},
		{"Jane Doe", "Bob Smith", "", false},
		{"Al", "Alfred", ConfidencePartial, true},
		{"", "Jane", "", false},
	}
	for _, tt := range tests {
		confidence, ok := namesMatch(tt.client, tt.attendee)
		require.Equal(t, tt.ok, ok, "%q vs %q", tt.client, tt.attendee)
		if tt.ok {
			require.Equal(t, tt.want, confidence, "%q vs %q", tt.client, tt.attendee)
		}
	}
}

func TestUnmatchedAndStats(t *testing.T) {
	m := NewMatcher(Config{}, testClients())

	matched := timedEvent("Session with Jane Doe - Strength")
	unmatched := timedEvent("Personal Training")
	unmatched.Attendees = []calendar.Attendee{{Email: "stranger@example.net"}}
	excluded := timedEvent("Team meeting")

	events := []*calendar.Event{matched, unmatched, excluded}

	require.Equal(t, []*calendar.Event{unmatched}, m.UnmatchedEvents(events))

	stats := m.Stats(events)
	require.Equal(t, Stats{
		Total:     3,
		Matched:   1,
		Unmatched: 1,
		Excluded:  1,
		OneOnOne:  1,
	}, stats)
}
