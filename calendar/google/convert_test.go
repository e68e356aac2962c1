package google

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	gcal "google.golang.org/api/calendar/v3"

	"github.com/coachcal/coachcal/calendar"
)

func TestFromAPITimedEvent(t *testing.T) {
	item := &gcal.Event{
		Id:          "evt-1",
		Summary:     "Session with Jane",
		Description: "notes",
		Start:       &gcal.EventDateTime{DateTime: "2026-03-02T07:00:00-08:00", TimeZone: "America/Los_Angeles"},
		End:         &gcal.EventDateTime{DateTime: "2026-03-02T08:00:00-08:00", TimeZone: "America/Los_Angeles"},
		Attendees: []*gcal.EventAttendee{
			{Email: "jane@example.com", DisplayName: "Jane Doe"},
			{Email: "studio@resource.calendar.google.com", Resource: true},
		},
		ExtendedProperties: &gcal.EventExtendedProperties{
			Private: map[string]string{calendar.PropClientID: "c1"},
		},
		RecurringEventId: "master-1",
	}

	event := fromAPI(item)
	require.Equal(t, "evt-1", event.ID)
	require.False(t, event.AllDay)
	require.Equal(t, 7, event.Start.Hour())
	require.Equal(t, "America/Los_Angeles", event.Timezone)
	require.Equal(t, "c1", event.PrivateProp(calendar.PropClientID))
	require.Equal(t, "master-1", event.RecurringEventID)
	require.Len(t, event.Attendees, 2)
	require.True(t, event.Attendees[1].Resource)
}

func TestFromAPIAllDayEvent(t *testing.T) {
	item := &gcal.Event{
		Id:    "evt-2",
		Start: &gcal.EventDateTime{Date: "2026-03-02"},
		End:   &gcal.EventDateTime{Date: "2026-03-03"},
	}
	event := fromAPI(item)
	require.True(t, event.AllDay)
	require.Equal(t, time.March, event.Start.Month())
	require.Equal(t, 2, event.Start.Day())
}

func TestPatchToAPIForceSendsClearedFields(t *testing.T) {
	empty := ""
	patch := &calendar.EventPatch{
		Description: &empty,
		Private:     map[string]string{calendar.PropClientID: ""},
	}
	item := patchToAPI(patch)
	require.Contains(t, item.ForceSendFields, "Description")
	require.NotNil(t, item.ExtendedProperties)
	require.Equal(t, "", item.ExtendedProperties.Private[calendar.PropClientID])
}

func TestToAPIRoundTripShape(t *testing.T) {
	start := time.Date(2026, time.March, 2, 7, 0, 0, 0, time.UTC)
	event := &calendar.Event{
		Summary:    "Strength",
		Start:      start,
		End:        start.Add(time.Hour),
		Timezone:   "UTC",
		Recurrence: []string{"RRULE:FREQ=WEEKLY;BYDAY=MO;UNTIL=20260301"},
		Private:    map[string]string{calendar.PropCategory: "Strength"},
	}
	item := toAPI(event)
	require.Equal(t, "2026-03-02T07:00:00Z", item.Start.DateTime)
	require.Equal(t, event.Recurrence, item.Recurrence)
	require.Equal(t, "Strength", item.ExtendedProperties.Private[calendar.PropCategory])
}
