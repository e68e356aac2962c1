package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coachcal/coachcal/calendar"
	"github.com/coachcal/coachcal/calendar/google"
	syncsvc "github.com/coachcal/coachcal/server/service/sync"
)

// ListCalendarEvents serves the annotated sync window: every event
// with its detected weekly slot, matched clients and exclusion flag.
// Optional start/end query parameters (RFC 3339) override the window.
func (s *APIV1Service) ListCalendarEvents(c echo.Context) error {
	ctx := c.Request().Context()
	startParam, endParam := c.QueryParam("start"), c.QueryParam("end")
	if startParam != "" || endParam != "" {
		start, err := time.Parse(time.RFC3339, startParam)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid start")
		}
		end, err := time.Parse(time.RFC3339, endParam)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid end")
		}
		if !start.Before(end) {
			return echo.NewHTTPError(http.StatusBadRequest, "start must precede end")
		}
		annotated, err := s.Sync.AnnotatedRange(ctx, start, end)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, annotated)
	}
	annotated, err := s.Sync.AnnotatedWindow(ctx)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, annotated)
}

// ApplySchedule pushes one program period onto the calendar.
func (s *APIV1Service) ApplySchedule(c echo.Context) error {
	var req syncsvc.ApplyScheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	if req.ClientID == "" || req.ProgramUID == "" || req.PeriodID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "clientId, programUid and periodId are required")
	}
	result, err := s.Sync.ApplySchedule(c.Request().Context(), &req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

type updateEventRequest struct {
	Summary     *string `json:"summary"`
	Description *string `json:"description"`
	// Scope is single, all or thisAndFollowing; empty means single.
	Scope string `json:"scope"`
}

// UpdateCalendarEvent patches one event. For an occurrence of a
// recurring series the scope controls how far the change reaches;
// thisAndFollowing splits the series at the occurrence.
func (s *APIV1Service) UpdateCalendarEvent(c echo.Context) error {
	var req updateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	scope := google.UpdateScope(req.Scope)
	switch scope {
	case "", google.ScopeSingle, google.ScopeAll, google.ScopeThisAndFollowing:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "invalid scope")
	}
	event, err := s.Sync.UpdateEvent(c.Request().Context(), c.Param("id"), scope, &calendar.EventPatch{
		Summary:     req.Summary,
		Description: req.Description,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, event)
}

// TriggerSync runs one sync pass on demand.
func (s *APIV1Service) TriggerSync(c echo.Context) error {
	summary, err := s.Sync.Refresh(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, summary)
}

// ExportClientICS serves a client's upcoming sessions as an iCalendar
// subscription.
func (s *APIV1Service) ExportClientICS(c echo.Context) error {
	client, err := s.findClient(c)
	if err != nil {
		return err
	}
	payload, err := s.Sync.ExportICS(c.Request().Context(), client.UID)
	if err != nil {
		return httpError(err)
	}
	return c.Blob(http.StatusOK, "text/calendar", []byte(payload))
}
