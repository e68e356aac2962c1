package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/coachcal/coachcal/store"
)

type clientWorkoutResponse struct {
	UID       string `json:"uid"`
	ClientID  string `json:"clientId"`
	PeriodID  string `json:"periodId"`
	EventID   string `json:"eventId,omitempty"`
	Category  string `json:"category"`
	Time      string `json:"time,omitempty"`
	Title     string `json:"title,omitempty"`
	CreatedBy string `json:"createdBy,omitempty"`
	Ts        int64  `json:"ts"`
	DayOfWeek int32  `json:"dayOfWeek"`
	ID        int32  `json:"id"`
}

func clientWorkoutFromStore(workout *store.ClientWorkout) *clientWorkoutResponse {
	return &clientWorkoutResponse{
		UID:       workout.UID,
		ClientID:  workout.ClientID,
		PeriodID:  workout.PeriodID,
		EventID:   workout.EventID,
		Category:  workout.Category,
		Time:      workout.Time,
		Title:     workout.Title,
		CreatedBy: workout.CreatedBy,
		Ts:        workout.Ts,
		DayOfWeek: workout.DayOfWeek,
		ID:        workout.ID,
	}
}

// ListClientWorkouts serves one client's sessions, optionally bounded
// by the after/before unix-second query params (half-open range).
func (s *APIV1Service) ListClientWorkouts(c echo.Context) error {
	client, err := s.findClient(c)
	if err != nil {
		return err
	}
	find := &store.FindClientWorkout{ClientID: &client.UID}
	if raw := c.QueryParam("after"); raw != "" {
		after, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid after timestamp")
		}
		find.TsAfter = &after
	}
	if raw := c.QueryParam("before"); raw != "" {
		before, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid before timestamp")
		}
		find.TsBefore = &before
	}
	workouts, err := s.Store.ListClientWorkouts(c.Request().Context(), find)
	if err != nil {
		return httpError(err)
	}
	out := make([]*clientWorkoutResponse, 0, len(workouts))
	for _, workout := range workouts {
		out = append(out, clientWorkoutFromStore(workout))
	}
	return c.JSON(http.StatusOK, out)
}
