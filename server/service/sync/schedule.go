package sync

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/coachcal/coachcal/calendar"
	"github.com/coachcal/coachcal/calendar/metadata"
	"github.com/coachcal/coachcal/calendar/rrule"
	"github.com/coachcal/coachcal/store"
)

// Session length when the provider gives us no end time to copy.
const defaultSessionMinutes = 60

// defaultSessionTime is used by the single-day fallback when the
// template entry carries no time.
const defaultSessionTime = "09:00"

var weekdayByName = map[string]time.Weekday{
	"Sunday":    time.Sunday,
	"Monday":    time.Monday,
	"Tuesday":   time.Tuesday,
	"Wednesday": time.Wednesday,
	"Thursday":  time.Thursday,
	"Friday":    time.Friday,
	"Saturday":  time.Saturday,
}

// ApplyScheduleRequest names the period to push onto the calendar and
// the week template supplying the weekly shape.
type ApplyScheduleRequest struct {
	ClientID   string `json:"clientId"`
	ProgramUID string `json:"programUid"`
	PeriodID   string `json:"periodId"`
	TemplateID int32  `json:"templateId"`
}

// ApplyScheduleResult reports what landed on the calendar. Failed
// counts creates the provider rejected; the rest of the batch still
// runs.
type ApplyScheduleResult struct {
	Masters  int      `json:"masters"`
	Singles  int      `json:"singles"`
	Failed   int      `json:"failed"`
	EventIDs []string `json:"eventIds"`
}

// ApplySchedule materializes one program period on the calendar. Timed
// template entries become recurring masters, one per day+category+time,
// bounded by the period end. All-day entries cannot recur (the series
// would lose its all-day shape on some providers), so each occurrence
// is created as its own single all-day event. A template that yields
// no rules at all falls back to one bounded weekly rule on its first
// schedulable day.
func (s *Service) ApplySchedule(ctx context.Context, req *ApplyScheduleRequest) (*ApplyScheduleResult, error) {
	client, err := s.store.GetClient(ctx, &store.FindClient{UID: &req.ClientID})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get client %s", req.ClientID)
	}
	if client == nil {
		return nil, errors.Errorf("client %s not found", req.ClientID)
	}
	period, err := s.findPeriod(ctx, req.ClientID, req.ProgramUID, req.PeriodID)
	if err != nil {
		return nil, err
	}
	template, err := s.store.GetWeekTemplate(ctx, &store.FindWeekTemplate{ID: &req.TemplateID})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get week template %d", req.TemplateID)
	}
	if template == nil {
		return nil, errors.Errorf("week template %d not found", req.TemplateID)
	}

	loc := s.profile.Location()
	periodStart := time.Unix(period.StartTs, 0).In(loc)
	periodEnd := time.Unix(period.EndTs, 0).In(loc)

	result := &ApplyScheduleResult{}

	rules := rrule.Build(template, periodEnd)
	categories := make([]string, 0, len(rules))
	for category := range rules {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		for _, rule := range rules[category] {
			start, err := firstOccurrence(periodStart, rule.Day, rule.Time, loc)
			if err != nil {
				slog.Warn("skipping template entry", "day", rule.Day, "err", err)
				continue
			}
			if !start.Before(periodEnd) {
				continue
			}
			s.createMaster(ctx, result, client, period, rule.Category, start, rule.RRule)
		}
	}

	s.createAllDaySingles(ctx, result, client, period, template, periodStart, periodEnd, loc)

	if result.Masters == 0 && result.Singles == 0 {
		s.applyFallback(ctx, result, client, period, template, periodStart, periodEnd, loc)
	}
	return result, nil
}

func (s *Service) findPeriod(ctx context.Context, clientID, programUID, periodID string) (*store.Period, error) {
	programs, err := s.store.ListClientPrograms(ctx, &store.FindClientProgram{ClientID: &clientID})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list programs for client %s", clientID)
	}
	for _, program := range programs {
		if program.UID != programUID {
			continue
		}
		for i := range program.Periods {
			if program.Periods[i].ID == periodID {
				return &program.Periods[i], nil
			}
		}
		return nil, errors.Errorf("program %s has no period %s", programUID, periodID)
	}
	return nil, errors.Errorf("client %s has no program %s", clientID, programUID)
}

func (s *Service) createMaster(ctx context.Context, result *ApplyScheduleResult, client *store.Client, period *store.Period, category string, start time.Time, rule string) {
	event := s.scheduledEvent(client, period, category)
	event.Start = start
	event.End = start.Add(defaultSessionMinutes * time.Minute)
	event.Recurrence = []string{rule}

	created, err := s.provider.CreateEvent(ctx, event)
	if err != nil {
		slog.Warn("failed to create recurring master",
			"client", client.UID, "category", category, "err", err)
		result.Failed++
		return
	}
	result.Masters++
	result.EventIDs = append(result.EventIDs, created.ID)
}

func (s *Service) createAllDaySingles(ctx context.Context, result *ApplyScheduleResult, client *store.Client, period *store.Period, template *store.WeekTemplate, periodStart, periodEnd time.Time, loc *time.Location) {
	day := time.Date(periodStart.Year(), periodStart.Month(), periodStart.Day(), 0, 0, 0, 0, loc)
	for ; day.Before(periodEnd); day = day.AddDate(0, 0, 1) {
		for _, entry := range template.Days {
			if !entry.IsAllDay || strings.Contains(strings.ToLower(entry.Category), "rest day") {
				continue
			}
			if weekdayByName[entry.Day] != day.Weekday() {
				continue
			}
			event := s.scheduledEvent(client, period, entry.Category)
			event.AllDay = true
			event.Start = day
			event.End = day.AddDate(0, 0, 1)

			created, err := s.provider.CreateEvent(ctx, event)
			if err != nil {
				slog.Warn("failed to create all-day event",
					"client", client.UID, "category", entry.Category, "err", err)
				result.Failed++
				continue
			}
			result.Singles++
			result.EventIDs = append(result.EventIDs, created.ID)
		}
	}
}

func (s *Service) applyFallback(ctx context.Context, result *ApplyScheduleResult, client *store.Client, period *store.Period, template *store.WeekTemplate, periodStart, periodEnd time.Time, loc *time.Location) {
	for _, entry := range template.Days {
		if strings.Contains(strings.ToLower(entry.Category), "rest day") {
			continue
		}
		rule, err := rrule.SingleDay(entry.Day, periodEnd)
		if err != nil {
			continue
		}
		timeOfDay := entry.Time
		if timeOfDay == "" {
			timeOfDay = defaultSessionTime
		}
		start, err := firstOccurrence(periodStart, entry.Day, timeOfDay, loc)
		if err != nil || !start.Before(periodEnd) {
			continue
		}
		s.createMaster(ctx, result, client, period, entry.Category, start, rule)
		return
	}
}

// scheduledEvent builds the common shell of a schedule-created event.
// The "Name - Category" summary shape is deliberate: it is the same
// shape the matcher's summary fallback parses, so even a stripped copy
// of the event still resolves to the client.
func (s *Service) scheduledEvent(client *store.Client, period *store.Period, category string) *calendar.Event {
	description := metadata.Encode("", metadata.Fields{
		ClientID: metadata.String(client.UID),
		Category: metadata.String(category),
		PeriodID: metadata.String(period.ID),
	})
	return &calendar.Event{
		Summary:     client.Name + " - " + category,
		Description: description,
		Timezone:    s.profile.Timezone,
		Private: map[string]string{
			calendar.PropClientID: client.UID,
			calendar.PropCategory: category,
			calendar.PropPeriodID: period.ID,
		},
	}
}

// firstOccurrence finds the first instant of the named weekday at the
// given HH:MM on or after from.
func firstOccurrence(from time.Time, dayName, timeOfDay string, loc *time.Location) (time.Time, error) {
	weekday, ok := weekdayByName[dayName]
	if !ok {
		return time.Time{}, errors.Errorf("invalid day of week: %s", dayName)
	}
	hour, minute, err := parseClock(timeOfDay)
	if err != nil {
		return time.Time{}, err
	}
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	for day.Weekday() != weekday {
		day = day.AddDate(0, 0, 1)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc), nil
}

func parseClock(timeOfDay string) (int, int, error) {
	if timeOfDay == "" {
		timeOfDay = defaultSessionTime
	}
	parts := strings.SplitN(timeOfDay, ":", 2)
	if len(parts) != 2 {
		return 0, 0, errors.Errorf("invalid time of day: %s", timeOfDay)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, errors.Wrapf(err, "invalid hour in %s", timeOfDay)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, errors.Wrapf(err, "invalid minute in %s", timeOfDay)
	}
	return hour, minute, nil
}
