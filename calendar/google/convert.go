package google

import (
	"time"

	gcal "google.golang.org/api/calendar/v3"

	"github.com/coachcal/coachcal/calendar"
)

const dateLayout = "2006-01-02"

func parseEventTime(t *gcal.EventDateTime) (time.Time, bool) {
	if t == nil {
		return time.Time{}, false
	}
	if t.Date != "" {
		loc := time.Local
		if t.TimeZone != "" {
			if l, err := time.LoadLocation(t.TimeZone); err == nil {
				loc = l
			}
		}
		parsed, err := time.ParseInLocation(dateLayout, t.Date, loc)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	}
	parsed, err := time.Parse(time.RFC3339, t.DateTime)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, false
}

// fromAPI normalizes an API event. Unparseable times leave zero
// time.Time values, which the pattern detector treats as undetectable.
func fromAPI(item *gcal.Event) *calendar.Event {
	event := &calendar.Event{
		ID:               item.Id,
		Summary:          item.Summary,
		Description:      item.Description,
		Location:         item.Location,
		Recurrence:       item.Recurrence,
		RecurringEventID: item.RecurringEventId,
		HTMLLink:         item.HtmlLink,
	}
	event.Start, event.AllDay = parseEventTime(item.Start)
	event.End, _ = parseEventTime(item.End)
	if item.Start != nil {
		event.Timezone = item.Start.TimeZone
	}
	for _, a := range item.Attendees {
		event.Attendees = append(event.Attendees, calendar.Attendee{
			Email:       a.Email,
			DisplayName: a.DisplayName,
			Resource:    a.Resource,
		})
	}
	if item.ExtendedProperties != nil && item.ExtendedProperties.Private != nil {
		event.Private = item.ExtendedProperties.Private
	}
	return event
}

func toAPI(event *calendar.Event) *gcal.Event {
	item := &gcal.Event{
		Summary:     event.Summary,
		Description: event.Description,
		Location:    event.Location,
		Recurrence:  event.Recurrence,
	}
	if event.AllDay {
		item.Start = &gcal.EventDateTime{Date: event.Start.Format(dateLayout)}
		item.End = &gcal.EventDateTime{Date: event.End.Format(dateLayout)}
	} else {
		item.Start = &gcal.EventDateTime{DateTime: event.Start.Format(time.RFC3339), TimeZone: event.Timezone}
		item.End = &gcal.EventDateTime{DateTime: event.End.Format(time.RFC3339), TimeZone: event.Timezone}
	}
	if len(event.Private) > 0 {
		item.ExtendedProperties = &gcal.EventExtendedProperties{Private: event.Private}
	}
	return item
}

// patchToAPI builds the sparse API event for a partial update. The
// Patch endpoint merges extended properties key by key and drops keys
// patched to the empty string, which is exactly the unassign behavior.
func patchToAPI(patch *calendar.EventPatch) *gcal.Event {
	item := &gcal.Event{}
	if patch.Summary != nil {
		item.Summary = *patch.Summary
		item.ForceSendFields = append(item.ForceSendFields, "Summary")
	}
	if patch.Description != nil {
		item.Description = *patch.Description
		item.ForceSendFields = append(item.ForceSendFields, "Description")
	}
	if patch.Private != nil {
		item.ExtendedProperties = &gcal.EventExtendedProperties{Private: patch.Private}
	}
	return item
}
