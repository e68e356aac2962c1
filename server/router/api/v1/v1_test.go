package v1

import (
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/coachcal/coachcal/calendar"
	"github.com/coachcal/coachcal/calendar/assign"
	"github.com/coachcal/coachcal/calendar/pattern"
	"github.com/coachcal/coachcal/internal/profile"
	"github.com/coachcal/coachcal/store"
)

type noopProvider struct{}

func (noopProvider) Reset() {}

func TestRegisterRoutes(t *testing.T) {
	svc := NewAPIV1Service(&profile.Profile{}, nil, nil, noopProvider{})
	e := echo.New()
	svc.RegisterRoutes(e)

	registered := map[string]bool{}
	for _, route := range e.Routes() {
		registered[route.Method+" "+route.Path] = true
	}
	for _, want := range []string{
		"GET /api/v1/clients",
		"POST /api/v1/clients",
		"GET /api/v1/clients/:uid/schedule.ics",
		"GET /api/v1/calendar/events",
		"PATCH /api/v1/calendar/events/:id",
		"POST /api/v1/calendar/schedule",
		"POST /api/v1/assignments/discover",
		"POST /api/v1/assignments/:sessionId/apply",
		"GET /api/v1/auth/google",
		"GET /api/v1/auth/google/callback",
	} {
		require.True(t, registered[want], "missing route %s", want)
	}
}

func TestParseProgramStatus(t *testing.T) {
	status, err := parseProgramStatus("active")
	require.NoError(t, err)
	require.Equal(t, store.ProgramStatusActive, status)

	_, err = parseProgramStatus("running")
	require.Error(t, err)
}

func TestValidPeriods(t *testing.T) {
	require.NoError(t, validPeriods([]store.Period{{ID: "p1", StartTs: 1, EndTs: 2}}))
	require.Error(t, validPeriods([]store.Period{{ID: "", StartTs: 1, EndTs: 2}}))
	require.Error(t, validPeriods([]store.Period{{ID: "p1", StartTs: 2, EndTs: 2}}))
}

func TestValidTemplateDays(t *testing.T) {
	require.NoError(t, validTemplateDays([]store.TemplateDay{
		{Day: "Tuesday", Category: "Strength", Time: "18:00"},
		{Day: "Saturday", Category: "Recovery", IsAllDay: true},
	}))
	require.Error(t, validTemplateDays([]store.TemplateDay{
		{Day: "Tuesday", Category: "Strength", Time: "18:00", IsAllDay: true},
	}))
}

func TestSessionResponse(t *testing.T) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	session := assign.NewSession("c-jane", "Strength")
	require.NoError(t, session.Discover([]assign.PatternGroup{{
		Pattern: pattern.Make(2, "18:00"),
		Clicked: true,
		Events: []*calendar.Event{
			{ID: "evt-1", Summary: "Training", Start: time.Date(2026, 3, 3, 18, 0, 0, 0, loc)},
		},
	}}))

	resp := sessionResponse("sess-1", session)
	require.Equal(t, "sess-1", resp.SessionID)
	require.Equal(t, "reviewing", resp.State)
	require.Equal(t, "c-jane", resp.ClientID)
	require.Len(t, resp.Groups, 1)
	require.Equal(t, "2-18:00", resp.Groups[0].Key)
	require.Equal(t, "Tuesday 6:00 PM", resp.Groups[0].Label)
	require.True(t, resp.Groups[0].Clicked)
	require.Equal(t, []string{"evt-1"}, resp.Selected)
}
