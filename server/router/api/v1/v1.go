// Package v1 is the REST surface of the API. Handlers stay thin:
// request parsing and status mapping here, business logic in the sync
// service and the store.
package v1

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/coachcal/coachcal/calendar/google"
	"github.com/coachcal/coachcal/internal/profile"
	syncsvc "github.com/coachcal/coachcal/server/service/sync"
	"github.com/coachcal/coachcal/store"
)

// CalendarProvider is the piece of the provider the auth endpoints
// need: dropping the cached client after a connect or disconnect.
type CalendarProvider interface {
	Reset()
}

type APIV1Service struct {
	Profile  *profile.Profile
	Store    *store.Store
	Sync     *syncsvc.Service
	Provider CalendarProvider

	oauthConfig *oauth2.Config

	stateMu     sync.Mutex
	oauthStates map[string]time.Time
}

func NewAPIV1Service(prof *profile.Profile, st *store.Store, syncer *syncsvc.Service, provider CalendarProvider) *APIV1Service {
	return &APIV1Service{
		Profile:     prof,
		Store:       st,
		Sync:        syncer,
		Provider:    provider,
		oauthConfig: google.OAuthConfig(prof),
		oauthStates: map[string]time.Time{},
	}
}

func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	g := echoServer.Group("/api/v1")

	g.GET("/clients", s.ListClients)
	g.POST("/clients", s.CreateClient)
	g.GET("/clients/:uid", s.GetClient)
	g.PATCH("/clients/:uid", s.UpdateClient)
	g.DELETE("/clients/:uid", s.DeleteClient)
	g.GET("/clients/:uid/schedule.ics", s.ExportClientICS)
	g.GET("/clients/:uid/workouts", s.ListClientWorkouts)

	g.GET("/categories", s.ListCategories)
	g.POST("/categories", s.CreateCategory)
	g.PATCH("/categories/:id", s.UpdateCategory)
	g.DELETE("/categories/:id", s.DeleteCategory)

	g.GET("/templates", s.ListWeekTemplates)
	g.POST("/templates", s.CreateWeekTemplate)
	g.GET("/templates/:uid", s.GetWeekTemplate)
	g.PATCH("/templates/:uid", s.UpdateWeekTemplate)
	g.DELETE("/templates/:uid", s.DeleteWeekTemplate)

	g.GET("/programs", s.ListClientPrograms)
	g.POST("/programs", s.CreateClientProgram)
	g.PATCH("/programs/:uid", s.UpdateClientProgram)
	g.DELETE("/programs/:uid", s.DeleteClientProgram)

	g.GET("/calendar/events", s.ListCalendarEvents)
	g.PATCH("/calendar/events/:id", s.UpdateCalendarEvent)
	g.POST("/calendar/schedule", s.ApplySchedule)
	g.POST("/calendar/sync", s.TriggerSync)

	g.POST("/assignments/discover", s.DiscoverAssignments)
	g.POST("/assignments/:sessionId/toggle", s.ToggleAssignment)
	g.POST("/assignments/:sessionId/apply", s.ApplyAssignments)
	g.POST("/assignments/:sessionId/cancel", s.CancelAssignments)
	g.POST("/assignments/unassign", s.UnassignEvent)

	g.GET("/settings/detection", s.GetDetectionSetting)
	g.PATCH("/settings/detection", s.UpdateDetectionSetting)

	g.GET("/auth/google", s.ConnectGoogle)
	g.GET("/auth/google/callback", s.GoogleCallback)
	g.GET("/auth/google/status", s.GoogleStatus)
	g.POST("/auth/google/disconnect", s.DisconnectGoogle)
}

// httpError maps domain errors onto status codes. Auth failures from
// the calendar provider surface as 401 so the UI can prompt a
// reconnect.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, google.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized, "calendar authorization rejected, reconnect the calendar")
	case errors.Is(err, google.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "calendar access forbidden")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
