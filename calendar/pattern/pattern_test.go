package pattern

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachcal/coachcal/calendar"
	"github.com/coachcal/coachcal/store"
)

func timedEvent(id string, start time.Time) *calendar.Event {
	return &calendar.Event{
		ID:    id,
		Start: start,
		End:   start.Add(time.Hour),
	}
}

func TestDetect(t *testing.T) {
	la, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	testCases := []struct {
		name    string
		event   *calendar.Event
		wantOK  bool
		wantDay int
		wantHHM string
	}{
		{
			// 2026-03-02 is a Monday.
			name:    "monday morning",
			event:   timedEvent("e1", time.Date(2026, 3, 2, 7, 0, 0, 0, la)),
			wantOK:  true,
			wantDay: 1,
			wantHHM: "07:00",
		},
		{
			name:    "sunday evening zero padded minutes",
			event:   timedEvent("e2", time.Date(2026, 3, 1, 18, 5, 0, 0, la)),
			wantOK:  true,
			wantDay: 0,
			wantHHM: "18:05",
		},
		{
			name:   "all day has no pattern",
			event:  &calendar.Event{ID: "e3", AllDay: true, Start: time.Date(2026, 3, 2, 0, 0, 0, 0, la)},
			wantOK: false,
		},
		{
			name:   "missing start",
			event:  &calendar.Event{ID: "e4"},
			wantOK: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, ok := Detect(tc.event)
			assert.Equal(t, tc.wantOK, ok)
			if !tc.wantOK {
				return
			}
			assert.Equal(t, tc.wantDay, p.DayOfWeek)
			assert.Equal(t, tc.wantHHM, p.Time)
		})
	}
}

func TestPatternEqualityByKey(t *testing.T) {
	la, _ := time.LoadLocation("America/Los_Angeles")
	// Two different Mondays, same local time.
	p1, ok1 := Detect(timedEvent("a", time.Date(2026, 3, 2, 9, 0, 0, 0, la)))
	p2, ok2 := Detect(timedEvent("b", time.Date(2026, 3, 9, 9, 0, 0, 0, la)))
	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, p1.Key(), p2.Key())

	// One minute off is a different pattern. No tolerance window.
	p3, _ := Detect(timedEvent("c", time.Date(2026, 3, 2, 9, 1, 0, 0, la)))
	assert.NotEqual(t, p1.Key(), p3.Key())
}

func TestAssignedClientID(t *testing.T) {
	testCases := []struct {
		name  string
		event *calendar.Event
		want  string
	}{
		{
			name:  "extended property wins",
			event: &calendar.Event{Private: map[string]string{calendar.PropClientID: "prop"}, Description: "[Metadata: client=desc]"},
			want:  "prop",
		},
		{
			name:  "description metadata fallback",
			event: &calendar.Event{Description: "[Metadata: client=desc]"},
			want:  "desc",
		},
		{
			name:  "explicit none means unassigned",
			event: &calendar.Event{Description: "[Metadata: client=none]"},
			want:  "",
		},
		{
			name:  "unassigned",
			event: &calendar.Event{Description: "just notes"},
			want:  "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AssignedClientID(tc.event))
		})
	}
}

func TestFindMatching(t *testing.T) {
	la, _ := time.LoadLocation("America/Los_Angeles")
	monday := time.Date(2026, 3, 2, 9, 0, 0, 0, la)

	assigned := timedEvent("assigned", monday)
	assigned.Private = map[string]string{calendar.PropClientID: "c1"}

	events := []*calendar.Event{
		timedEvent("m1", monday),
		timedEvent("m2", monday.AddDate(0, 0, 7)),
		timedEvent("off-by-a-minute", monday.Add(time.Minute)),
		timedEvent("tuesday", monday.AddDate(0, 0, 1)),
		assigned,
		timedEvent("excluded", monday.AddDate(0, 0, 14)),
	}

	p := Make(1, "09:00")
	got := FindMatching(events, p, []string{"excluded"})

	var ids []string
	for _, e := range got {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"m1", "m2"}, ids)
}

func dayTs(t time.Time) int64 {
	return t.Unix()
}

func TestClientScheduledPatterns(t *testing.T) {
	la, _ := time.LoadLocation("America/Los_Angeles")
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, la)

	monday := time.Date(2026, 2, 2, 0, 0, 0, 0, la)
	thursday := time.Date(2026, 2, 5, 0, 0, 0, 0, la)

	programs := []*store.ClientProgram{
		{
			ClientID: "c1",
			Status:   store.ProgramStatusActive,
			Periods: []store.Period{
				{
					ID:      "p1",
					StartTs: monday.Unix(),
					EndTs:   monday.AddDate(0, 2, 0).Unix(),
					Days: []store.ProgramDay{
						{Ts: dayTs(monday), Category: "Strength", Time: "07:00"},
						{Ts: dayTs(thursday), Category: "Strength", Time: "18:00"},
						// Duplicated slot in a later week must not repeat.
						{Ts: dayTs(monday.AddDate(0, 0, 7)), Category: "Strength", Time: "07:00"},
						// All-day and time-less entries carry no pattern.
						{Ts: dayTs(monday.AddDate(0, 0, 2)), Category: "Recovery", IsAllDay: true},
						{Ts: dayTs(monday.AddDate(0, 0, 4)), Category: "Rest Day"},
					},
				},
				{
					// Period already over: ignored.
					ID:      "p0",
					StartTs: monday.AddDate(-1, 0, 0).Unix(),
					EndTs:   now.AddDate(0, 0, -1).Unix(),
					Days: []store.ProgramDay{
						{Ts: dayTs(monday.AddDate(-1, 0, 0)), Category: "Base", Time: "06:00"},
					},
				},
			},
		},
		{ClientID: "c1", Status: store.ProgramStatusCompleted},
		{ClientID: "other", Status: store.ProgramStatusActive},
	}

	patterns := ClientScheduledPatterns("c1", programs, now, la)
	require.Len(t, patterns, 2)
	assert.Equal(t, "1-07:00", patterns[0].Key())
	assert.Equal(t, "4-18:00", patterns[1].Key())

	assert.Empty(t, ClientScheduledPatterns("nobody", programs, now, la))
}

func TestFormatTime(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"07:00", "7:00 AM"},
		{"12:30", "12:30 PM"},
		{"00:15", "12:15 AM"},
		{"18:05", "6:05 PM"},
		{"garbage", "garbage"},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatTime(tc.in))
		})
	}
}

func TestKeyFormat(t *testing.T) {
	p := Make(3, "09:30")
	assert.Equal(t, fmt.Sprintf("%d-%s", 3, "09:30"), p.Key())
	assert.Equal(t, "Wednesday 09:30", p.String())
}
