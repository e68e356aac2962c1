// Package calendar defines the normalized event model shared by the
// pattern, matching, and assignment subsystems. Provider payloads are
// converted into Event exactly once at the I/O boundary so the rest of
// the code never probes optional provider fields.
package calendar

import (
	"time"
)

// Private extended-property keys written by this application.
const (
	PropClientID    = "ccClientId"
	PropCategory    = "ccCategory"
	PropWorkoutID   = "ccWorkoutId"
	PropPeriodID    = "ccPeriodId"
	PropGuestEmails = "guest_emails"
)

// Attendee is a single guest on a calendar event.
type Attendee struct {
	Email       string
	DisplayName string
	// Resource marks room/equipment entries that must never be treated
	// as a client.
	Resource bool
}

// Event is the normalized calendar event. Times carry the location the
// provider reported; no app-wide timezone conversion happens after
// construction.
type Event struct {
	ID          string
	Summary     string
	Description string
	Location    string

	Start    time.Time
	End      time.Time
	Timezone string
	AllDay   bool

	Attendees []Attendee

	// Private holds the provider's private extended properties.
	Private map[string]string

	// Recurrence is only present on a recurring master.
	Recurrence       []string
	RecurringEventID string

	HTMLLink string
}

// HasStart reports whether the event carries a usable start instant.
// All-day events have a date but no time-of-day and are excluded from
// pattern detection.
func (e *Event) HasStart() bool {
	return !e.AllDay && !e.Start.IsZero()
}

// PrivateProp returns the named private extended property, or "".
func (e *Event) PrivateProp(key string) string {
	if e.Private == nil {
		return ""
	}
	return e.Private[key]
}

// IsRecurringMaster reports whether the event is the master of a
// recurring series.
func (e *Event) IsRecurringMaster() bool {
	return len(e.Recurrence) > 0
}
