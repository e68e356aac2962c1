// Package pattern derives weekly day+time signatures from calendar
// events and from a client's programmed schedule. Patterns are the
// grouping key for bulk assignment: two sessions belong to the same
// recurring slot iff they share a day-of-week and an exact HH:MM
// start. There is deliberately no tolerance window; coaches schedule
// on consistent minute boundaries and a 09:00 slot is not a 09:01 slot.
package pattern

import (
	"fmt"
	"time"

	"github.com/coachcal/coachcal/calendar"
	"github.com/coachcal/coachcal/calendar/metadata"
	"github.com/coachcal/coachcal/store"
)

var dayNames = [...]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// Pattern is a weekly recurrence signature. It is derived, never
// persisted.
type Pattern struct {
	DayOfWeek int    // 0 (Sunday) through 6 (Saturday)
	Time      string // zero-padded "HH:MM"
	DayName   string
}

// Key returns the canonical grouping key for the pattern. Patterns are
// equal iff their keys are equal.
func (p Pattern) Key() string {
	return fmt.Sprintf("%d-%s", p.DayOfWeek, p.Time)
}

// String implements fmt.Stringer for log output.
func (p Pattern) String() string {
	return p.DayName + " " + p.Time
}

// Make builds a pattern from a day-of-week and an HH:MM time string.
func Make(dayOfWeek int, timeOfDay string) Pattern {
	return Pattern{
		DayOfWeek: dayOfWeek,
		Time:      timeOfDay,
		DayName:   dayNames[dayOfWeek],
	}
}

// Detect extracts the weekly signature from an event's start instant,
// in the timezone the instant was constructed in. Returns false for
// events without a usable start (all-day entries included).
func Detect(event *calendar.Event) (Pattern, bool) {
	if event == nil || !event.HasStart() {
		return Pattern{}, false
	}
	start := event.Start
	return Pattern{
		DayOfWeek: int(start.Weekday()),
		Time:      fmt.Sprintf("%02d:%02d", start.Hour(), start.Minute()),
		DayName:   dayNames[int(start.Weekday())],
	}, true
}

// AssignedClientID resolves the client an event is already assigned
// to, checking the private extended properties first and the
// description metadata second. Returns "" when unassigned.
func AssignedClientID(event *calendar.Event) string {
	if id := event.PrivateProp(calendar.PropClientID); id != "" && id != metadata.None {
		return id
	}
	return metadata.Value(metadata.Decode(event.Description).ClientID)
}

// FindMatching returns every event whose detected pattern equals p,
// that has no client assigned, and that is not in excludeIDs.
func FindMatching(events []*calendar.Event, p Pattern, excludeIDs []string) []*calendar.Event {
	exclude := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		exclude[id] = struct{}{}
	}

	var out []*calendar.Event
	for _, event := range events {
		if AssignedClientID(event) != "" {
			continue
		}
		if _, skip := exclude[event.ID]; skip {
			continue
		}
		detected, ok := Detect(event)
		if !ok || detected.Key() != p.Key() {
			continue
		}
		out = append(out, event)
	}
	return out
}

// ClientScheduledPatterns collects the distinct day+time patterns in a
// client's active program, considering only periods that have not
// ended before now. Day timestamps are resolved in loc, the zone the
// schedule was authored in. Order follows first appearance in the
// schedule.
func ClientScheduledPatterns(clientID string, programs []*store.ClientProgram, now time.Time, loc *time.Location) []Pattern {
	var active *store.ClientProgram
	for _, program := range programs {
		if program.ClientID == clientID && program.Status == store.ProgramStatusActive {
			active = program
			break
		}
	}
	if active == nil {
		return nil
	}

	if loc == nil {
		loc = time.Local
	}

	seen := make(map[string]struct{})
	var out []Pattern
	for _, period := range active.Periods {
		if time.Unix(period.EndTs, 0).Before(now) {
			continue
		}
		for _, day := range period.Days {
			if day.Time == "" || day.IsAllDay {
				continue
			}
			p := Make(int(time.Unix(day.Ts, 0).In(loc).Weekday()), day.Time)
			if _, dup := seen[p.Key()]; dup {
				continue
			}
			seen[p.Key()] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// FormatTime renders an HH:MM time for display, e.g. "7:00 AM".
func FormatTime(timeOfDay string) string {
	t, err := time.Parse("15:04", timeOfDay)
	if err != nil {
		return timeOfDay
	}
	return t.Format("3:04 PM")
}
