// Package rrule builds the weekly recurrence rules attached to
// calendar master events from a period's week template. One rule is
// emitted per day+category+time combination rather than one combined
// BYDAY rule per category: different days may carry different times,
// and a single RRULE cannot express per-day time variation.
package rrule

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/teambition/rrule-go"

	"github.com/coachcal/coachcal/store"
)

var dayCodes = map[string]string{
	"Monday":    "MO",
	"Tuesday":   "TU",
	"Wednesday": "WE",
	"Thursday":  "TH",
	"Friday":    "FR",
	"Saturday":  "SA",
	"Sunday":    "SU",
}

var weekdayByCode = map[string]rrule.Weekday{
	"MO": rrule.MO, "TU": rrule.TU, "WE": rrule.WE, "TH": rrule.TH,
	"FR": rrule.FR, "SA": rrule.SA, "SU": rrule.SU,
}

var timeRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Rule pairs a built rule string with the day entry it came from, so
// callers can schedule each series at its own time of day.
type Rule struct {
	RRule    string
	Day      string // weekday name
	Time     string // "HH:MM", empty only for entries without a time
	Category string
}

// untilToken formats the date-only inclusive UNTIL bound.
func untilToken(end time.Time) string {
	return end.Format("20060102")
}

// Build converts a week template into recurrence rules bounded by
// periodEnd, grouped by category. Entries are processed in a stable
// order so the output is deterministic for identical input.
//
// Skipped without failing the rest of the template:
//   - rest-day entries (category containing "rest day")
//   - all-day entries (recurring all-day series are not supported;
//     callers create those as plain per-occurrence all-day events)
//   - unknown weekday names and malformed times, with a warning
func Build(template *store.WeekTemplate, periodEnd time.Time) map[string][]Rule {
	out := make(map[string][]Rule)
	if template == nil {
		return out
	}
	until := untilToken(periodEnd)

	days := make([]store.TemplateDay, len(template.Days))
	copy(days, template.Days)
	sort.SliceStable(days, func(i, j int) bool {
		return dayOrder(days[i].Day) < dayOrder(days[j].Day)
	})

	for _, day := range days {
		if strings.Contains(strings.ToLower(day.Category), "rest day") {
			continue
		}
		if day.IsAllDay {
			continue
		}

		code, ok := dayCodes[day.Day]
		if !ok {
			slog.Warn("skipping unknown weekday in template", "template", template.Name, "day", day.Day)
			continue
		}
		if day.Time != "" && !timeRe.MatchString(day.Time) {
			slog.Warn("skipping malformed time in template", "template", template.Name, "day", day.Day, "time", day.Time)
			continue
		}

		out[day.Category] = append(out[day.Category], Rule{
			RRule:    fmt.Sprintf("RRULE:FREQ=WEEKLY;BYDAY=%s;UNTIL=%s", code, until),
			Day:      day.Day,
			Time:     day.Time,
			Category: day.Category,
		})
	}
	return out
}

// SingleDay builds one bounded weekly rule for a weekday name. This is
// the documented fallback when Build produces no rules at all.
func SingleDay(dayName string, periodEnd time.Time) (string, error) {
	code, ok := dayCodes[dayName]
	if !ok {
		return "", errors.Errorf("invalid day of week: %s", dayName)
	}
	return fmt.Sprintf("RRULE:FREQ=WEEKLY;BYDAY=%s;UNTIL=%s", code, untilToken(periodEnd)), nil
}

// Parsed is the decomposed form of a rule string.
type Parsed struct {
	Frequency string
	ByDay     []string
	Until     time.Time // zero when absent
}

// Parse extracts frequency, BYDAY codes and the UNTIL bound from a
// rule string. Unknown parts are ignored.
func Parse(rule string) Parsed {
	out := Parsed{Frequency: "WEEKLY"}
	rule = strings.TrimPrefix(rule, "RRULE:")
	for _, part := range strings.Split(rule, ";") {
		switch {
		case strings.HasPrefix(part, "FREQ="):
			out.Frequency = strings.TrimPrefix(part, "FREQ=")
		case strings.HasPrefix(part, "BYDAY="):
			out.ByDay = strings.Split(strings.TrimPrefix(part, "BYDAY="), ",")
		case strings.HasPrefix(part, "UNTIL="):
			token := strings.TrimPrefix(part, "UNTIL=")
			if t, err := time.Parse("20060102", token[:min(8, len(token))]); err == nil {
				out.Until = t
			}
		}
	}
	return out
}

// RewriteUntil replaces the UNTIL bound of a rule string, used when a
// recurring series is split at a date.
var untilRe = regexp.MustCompile(`UNTIL=\d{8}(T\d{6}Z?)?`)

func RewriteUntil(rule string, until time.Time) string {
	return untilRe.ReplaceAllString(rule, "UNTIL="+untilToken(until))
}

// Occurrences expands a built rule into concrete start instants inside
// [from, to), anchored at the series start. Used for schedule previews
// and ICS export; the calendar provider does its own expansion on its
// side.
func Occurrences(rule string, seriesStart time.Time, from, to time.Time) ([]time.Time, error) {
	parsed := Parse(rule)
	if parsed.Frequency != "WEEKLY" {
		return nil, errors.Errorf("unsupported frequency: %s", parsed.Frequency)
	}

	opts := rrule.ROption{
		Freq:    rrule.WEEKLY,
		Dtstart: seriesStart,
	}
	for _, code := range parsed.ByDay {
		wd, ok := weekdayByCode[code]
		if !ok {
			return nil, errors.Errorf("unsupported BYDAY code: %s", code)
		}
		opts.Byweekday = append(opts.Byweekday, wd)
	}
	if !parsed.Until.IsZero() {
		// UNTIL is date-only and inclusive: extend to the end of day in
		// the series' own zone.
		opts.Until = time.Date(parsed.Until.Year(), parsed.Until.Month(), parsed.Until.Day(),
			23, 59, 59, 0, seriesStart.Location())
	}

	r, err := rrule.NewRRule(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to construct rrule")
	}
	return r.Between(from, to, true), nil
}

func dayOrder(dayName string) int {
	for i, name := range []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"} {
		if name == dayName {
			return i
		}
	}
	return 7
}
