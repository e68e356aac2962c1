package google

import (
	"context"

	"github.com/pkg/errors"
	gcal "google.golang.org/api/calendar/v3"

	"github.com/coachcal/coachcal/calendar"
	"github.com/coachcal/coachcal/calendar/rrule"
)

// UpdateScope selects how far a change to a recurring occurrence
// reaches.
type UpdateScope string

const (
	ScopeSingle           UpdateScope = "single"
	ScopeAll              UpdateScope = "all"
	ScopeThisAndFollowing UpdateScope = "thisAndFollowing"
)

// UpdateRecurring applies a patch to a recurring event occurrence at
// the requested scope.
//
// Single patches just the occurrence. All patches the series master.
// ThisAndFollowing splits the series: the master's UNTIL is pulled
// back to the day before the occurrence, and a new series carrying the
// patch starts at the occurrence. The split is two calendar writes and
// is not atomic; if the second write fails the original series is
// already truncated, and the caller surfaces that for manual repair.
func (c *Client) UpdateRecurring(ctx context.Context, event *calendar.Event, scope UpdateScope, patch *calendar.EventPatch) (*calendar.Event, error) {
	switch scope {
	case ScopeSingle, "":
		return c.PatchEvent(ctx, event.ID, patch)
	case ScopeAll:
		masterID := event.RecurringEventID
		if masterID == "" {
			masterID = event.ID
		}
		return c.PatchEvent(ctx, masterID, patch)
	case ScopeThisAndFollowing:
		return c.splitSeries(ctx, event, patch)
	default:
		return nil, errors.Errorf("unknown update scope: %s", scope)
	}
}

func (c *Client) splitSeries(ctx context.Context, event *calendar.Event, patch *calendar.EventPatch) (*calendar.Event, error) {
	if event.RecurringEventID == "" {
		// Not part of a series; a plain patch is the whole answer.
		return c.PatchEvent(ctx, event.ID, patch)
	}

	master, err := c.GetEvent(ctx, event.RecurringEventID)
	if err != nil {
		return nil, err
	}
	if len(master.Recurrence) == 0 {
		return nil, errors.Errorf("event %s is not a recurring master", master.ID)
	}

	// Truncate the original series the day before the occurrence.
	cutoff := event.Start.AddDate(0, 0, -1)
	truncated := make([]string, len(master.Recurrence))
	for i, rule := range master.Recurrence {
		truncated[i] = rrule.RewriteUntil(rule, cutoff)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if _, err := c.svc.Events.Patch(c.calendarID, master.ID, &gcal.Event{Recurrence: truncated}).Context(ctx).Do(); err != nil {
		return nil, wrapAPIError(err, "failed to truncate series")
	}

	// Start a new series at the occurrence with the patch applied,
	// keeping the original UNTIL bound.
	successor := &calendar.Event{
		Summary:     master.Summary,
		Description: master.Description,
		Location:    master.Location,
		Start:       event.Start,
		End:         event.Start.Add(master.End.Sub(master.Start)),
		Timezone:    master.Timezone,
		Recurrence:  master.Recurrence,
		Private:     master.Private,
	}
	if patch.Summary != nil {
		successor.Summary = *patch.Summary
	}
	if patch.Description != nil {
		successor.Description = *patch.Description
	}
	if patch.Private != nil {
		merged := make(map[string]string, len(successor.Private)+len(patch.Private))
		for k, v := range successor.Private {
			merged[k] = v
		}
		for k, v := range patch.Private {
			if v == "" {
				delete(merged, k)
				continue
			}
			merged[k] = v
		}
		successor.Private = merged
	}
	created, err := c.CreateEvent(ctx, successor)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create successor series")
	}
	return created, nil
}
