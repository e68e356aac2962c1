package v1

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/coachcal/coachcal/calendar/google"
	"github.com/coachcal/coachcal/store"
)

// oauthStateTTL bounds how long a consent round-trip may take.
const oauthStateTTL = 10 * time.Minute

// ConnectGoogle starts the consent flow by redirecting to Google with
// a one-time state token.
func (s *APIV1Service) ConnectGoogle(c echo.Context) error {
	if s.Profile.GoogleClientID == "" || s.Profile.GoogleClientSecret == "" || s.Profile.GoogleRedirectURL == "" {
		return echo.NewHTTPError(http.StatusPreconditionFailed, "google oauth is not configured")
	}
	state := uuid.NewString()
	s.stateMu.Lock()
	for existing, issued := range s.oauthStates {
		if time.Since(issued) > oauthStateTTL {
			delete(s.oauthStates, existing)
		}
	}
	s.oauthStates[state] = time.Now()
	s.stateMu.Unlock()

	return c.Redirect(http.StatusFound, google.AuthURL(s.oauthConfig, state))
}

// GoogleCallback finishes the consent flow: the code is exchanged for
// a token, the token is persisted, and the cached provider client is
// dropped so the next calendar call picks the new credentials up.
func (s *APIV1Service) GoogleCallback(c echo.Context) error {
	state := c.QueryParam("state")
	s.stateMu.Lock()
	issued, ok := s.oauthStates[state]
	delete(s.oauthStates, state)
	s.stateMu.Unlock()
	if !ok || time.Since(issued) > oauthStateTTL {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid or expired oauth state")
	}

	code := c.QueryParam("code")
	if code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing oauth code")
	}
	if _, err := google.Exchange(c.Request().Context(), s.oauthConfig, s.Store, code); err != nil {
		return httpError(err)
	}
	s.Provider.Reset()

	if s.Profile.InstanceURL != "" {
		return c.Redirect(http.StatusFound, s.Profile.InstanceURL)
	}
	return c.JSON(http.StatusOK, map[string]bool{"connected": true})
}

type calendarStatusResponse struct {
	Connected      bool   `json:"connected"`
	CalendarID     string `json:"calendarId,omitempty"`
	SyncWindowDays int32  `json:"syncWindowDays,omitempty"`
}

func (s *APIV1Service) GoogleStatus(c echo.Context) error {
	account, err := s.Store.GetCalendarAccount(c.Request().Context(), &store.FindCalendarAccount{})
	if err != nil {
		return httpError(err)
	}
	resp := calendarStatusResponse{}
	if account != nil && account.Token != "" {
		resp.Connected = true
		resp.CalendarID = account.CalendarID
		resp.SyncWindowDays = account.SyncWindowDays
	}
	return c.JSON(http.StatusOK, resp)
}

// DisconnectGoogle drops the stored token. Calendar data stays
// untouched; only the connection is severed.
func (s *APIV1Service) DisconnectGoogle(c echo.Context) error {
	if err := s.Store.DeleteCalendarAccount(c.Request().Context(), &store.DeleteCalendarAccount{}); err != nil {
		return httpError(err)
	}
	s.Provider.Reset()
	return c.NoContent(http.StatusNoContent)
}
