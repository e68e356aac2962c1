package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coachcal/coachcal/calendar/assign"
	"github.com/coachcal/coachcal/calendar/pattern"
)

type groupEventResponse struct {
	ID      string    `json:"id"`
	Summary string    `json:"summary"`
	Start   time.Time `json:"start"`
}

type patternGroupResponse struct {
	Key     string               `json:"key"`
	Day     string               `json:"day"`
	Time    string               `json:"time"`
	Label   string               `json:"label"`
	Clicked bool                 `json:"clicked"`
	Events  []groupEventResponse `json:"events"`
}

type assignSessionResponse struct {
	SessionID string                 `json:"sessionId"`
	State     string                 `json:"state"`
	ClientID  string                 `json:"clientId"`
	Category  string                 `json:"category"`
	Groups    []patternGroupResponse `json:"groups"`
	Selected  []string               `json:"selected"`
	Result    *assign.Result         `json:"result,omitempty"`
}

func sessionResponse(sessionID string, session *assign.Session) *assignSessionResponse {
	resp := &assignSessionResponse{
		SessionID: sessionID,
		State:     string(session.State()),
		ClientID:  session.ClientID(),
		Category:  session.Category(),
		Selected:  session.Selected(),
		Result:    session.Result(),
	}
	for _, group := range session.Groups() {
		groupResp := patternGroupResponse{
			Key:     group.Pattern.Key(),
			Day:     group.Pattern.DayName,
			Time:    group.Pattern.Time,
			Label:   group.Pattern.DayName + " " + pattern.FormatTime(group.Pattern.Time),
			Clicked: group.Clicked,
		}
		for _, event := range group.Events {
			groupResp.Events = append(groupResp.Events, groupEventResponse{
				ID:      event.ID,
				Summary: event.Summary,
				Start:   event.Start,
			})
		}
		resp.Groups = append(resp.Groups, groupResp)
	}
	return resp
}

type discoverAssignmentsRequest struct {
	EventID  string `json:"eventId"`
	ClientID string `json:"clientId"`
	Category string `json:"category"`
}

// DiscoverAssignments opens a bulk-assignment session around a clicked
// event: its own weekly slot plus every slot the client's program
// schedules, each with the matching unassigned events pre-selected.
func (s *APIV1Service) DiscoverAssignments(c echo.Context) error {
	var req discoverAssignmentsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	if req.EventID == "" || req.ClientID == "" || req.Category == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "eventId, clientId and category are required")
	}
	sessionID, session, err := s.Sync.StartBulkAssign(c.Request().Context(), req.EventID, req.ClientID, req.Category)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sessionResponse(sessionID, session))
}

type toggleAssignmentRequest struct {
	EventID string `json:"eventId"`
}

func (s *APIV1Service) ToggleAssignment(c echo.Context) error {
	sessionID := c.Param("sessionId")
	var req toggleAssignmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	if req.EventID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "eventId is required")
	}
	session, err := s.Sync.ToggleSelection(sessionID, req.EventID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, sessionResponse(sessionID, session))
}

// ApplyAssignments confirms the selection and runs the batch. The
// response carries per-event outcomes; a partial failure is still a
// 200 because the applied events stay applied.
func (s *APIV1Service) ApplyAssignments(c echo.Context) error {
	sessionID := c.Param("sessionId")
	if _, err := s.Sync.ConfirmAndApply(c.Request().Context(), sessionID); err != nil {
		return httpError(err)
	}
	session, err := s.Sync.Session(sessionID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sessionResponse(sessionID, session))
}

func (s *APIV1Service) CancelAssignments(c echo.Context) error {
	if err := s.Sync.CancelSession(c.Param("sessionId")); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

type unassignEventRequest struct {
	EventID string `json:"eventId"`
}

func (s *APIV1Service) UnassignEvent(c echo.Context) error {
	var req unassignEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	if req.EventID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "eventId is required")
	}
	if err := s.Sync.Unassign(c.Request().Context(), req.EventID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
