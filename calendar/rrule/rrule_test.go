package rrule

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachcal/coachcal/store"
)

func strengthTemplate() *store.WeekTemplate {
	return &store.WeekTemplate{
		Name: "Strength Block",
		Days: []store.TemplateDay{
			{Day: "Monday", Category: "Strength", Time: "07:00"},
			{Day: "Wednesday", Category: "Strength", Time: "07:00"},
		},
	}
}

func TestBuildWeeklyRulesPerDay(t *testing.T) {
	periodEnd := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	rules := Build(strengthTemplate(), periodEnd)
	require.Len(t, rules, 1)
	strength := rules["Strength"]
	require.Len(t, strength, 2)

	assert.Equal(t, "RRULE:FREQ=WEEKLY;BYDAY=MO;UNTIL=20260301", strength[0].RRule)
	assert.Equal(t, "RRULE:FREQ=WEEKLY;BYDAY=WE;UNTIL=20260301", strength[1].RRule)
	assert.Equal(t, "07:00", strength[0].Time)
}

func TestBuildPerDayTimeVariation(t *testing.T) {
	// One category on two days with different times yields two rules,
	// each keeping its own time.
	template := &store.WeekTemplate{
		Days: []store.TemplateDay{
			{Day: "Tuesday", Category: "Conditioning", Time: "06:30"},
			{Day: "Friday", Category: "Conditioning", Time: "17:00"},
		},
	}
	rules := Build(template, time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC))
	require.Len(t, rules["Conditioning"], 2)
	assert.Equal(t, "06:30", rules["Conditioning"][0].Time)
	assert.Equal(t, "17:00", rules["Conditioning"][1].Time)
}

func TestBuildDeterministic(t *testing.T) {
	template := &store.WeekTemplate{
		Days: []store.TemplateDay{
			{Day: "Friday", Category: "Conditioning", Time: "17:00"},
			{Day: "Monday", Category: "Strength", Time: "07:00"},
			{Day: "Wednesday", Category: "Strength", Time: "07:00"},
		},
	}
	periodEnd := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	first := Build(template, periodEnd)
	second := Build(template, periodEnd)
	assert.True(t, reflect.DeepEqual(first, second))

	// Days come out in weekday order regardless of input order.
	assert.Equal(t, "Monday", first["Strength"][0].Day)
	assert.Equal(t, "Wednesday", first["Strength"][1].Day)
}

func TestBuildSkipsBadEntries(t *testing.T) {
	template := &store.WeekTemplate{
		Days: []store.TemplateDay{
			{Day: "Monday", Category: "Strength", Time: "07:00"},
			{Day: "Tuesday", Category: "Strength", Time: "7am"},     // malformed
			{Day: "Wednesday", Category: "Strength", Time: "25:00"}, // malformed
			{Day: "Blursday", Category: "Strength", Time: "08:00"},  // unknown day
			{Day: "Thursday", Category: "Rest Day"},
			{Day: "Friday", Category: "Mobility", IsAllDay: true},
		},
	}
	rules := Build(template, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	// One bad entry must not abort the rest.
	require.Len(t, rules, 1)
	require.Len(t, rules["Strength"], 1)
	assert.Equal(t, "Monday", rules["Strength"][0].Day)
}

func TestBuildEmpty(t *testing.T) {
	assert.Empty(t, Build(nil, time.Now()))
	assert.Empty(t, Build(&store.WeekTemplate{}, time.Now()))

	onlyRest := &store.WeekTemplate{Days: []store.TemplateDay{{Day: "Sunday", Category: "Rest Day"}}}
	assert.Empty(t, Build(onlyRest, time.Now()))
}

func TestSingleDay(t *testing.T) {
	rule, err := SingleDay("Thursday", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "RRULE:FREQ=WEEKLY;BYDAY=TH;UNTIL=20260301", rule)

	_, err = SingleDay("Blursday", time.Now())
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	parsed := Parse("RRULE:FREQ=WEEKLY;BYDAY=MO,WE;UNTIL=20260301")
	assert.Equal(t, "WEEKLY", parsed.Frequency)
	assert.Equal(t, []string{"MO", "WE"}, parsed.ByDay)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), parsed.Until)

	noUntil := Parse("RRULE:FREQ=WEEKLY;BYDAY=FR")
	assert.True(t, noUntil.Until.IsZero())
}

func TestRewriteUntil(t *testing.T) {
	rewritten := RewriteUntil("RRULE:FREQ=WEEKLY;BYDAY=MO;UNTIL=20260301", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "RRULE:FREQ=WEEKLY;BYDAY=MO;UNTIL=20260115", rewritten)
}

func TestOccurrences(t *testing.T) {
	la, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	// Mondays at 07:00 from Feb 2 through Mar 1 inclusive: Feb 2, 9,
	// 16, 23. Mar 2 falls past the UNTIL bound.
	seriesStart := time.Date(2026, 2, 2, 7, 0, 0, 0, la)
	rule := "RRULE:FREQ=WEEKLY;BYDAY=MO;UNTIL=20260301"

	occ, err := Occurrences(rule, seriesStart,
		time.Date(2026, 2, 1, 0, 0, 0, 0, la),
		time.Date(2026, 4, 1, 0, 0, 0, 0, la))
	require.NoError(t, err)
	require.Len(t, occ, 4)
	assert.Equal(t, seriesStart, occ[0])
	for _, o := range occ {
		assert.Equal(t, time.Monday, o.Weekday())
		assert.Equal(t, 7, o.Hour())
	}
}

func TestOccurrencesRejectsUnsupported(t *testing.T) {
	_, err := Occurrences("RRULE:FREQ=DAILY", time.Now(), time.Now(), time.Now().Add(time.Hour))
	assert.Error(t, err)
}
