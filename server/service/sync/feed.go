package sync

import (
	"context"
	"fmt"
	"sort"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/gorilla/feeds"
	"github.com/pkg/errors"

	"github.com/coachcal/coachcal/store"
)

// ExportICS renders a client's upcoming sessions as an iCalendar
// payload, so athletes can subscribe from their own calendar app
// without touching the coach's calendar.
func (s *Service) ExportICS(ctx context.Context, clientUID string) (string, error) {
	client, err := s.store.GetClient(ctx, &store.FindClient{UID: &clientUID})
	if err != nil {
		return "", errors.Wrapf(err, "failed to get client %s", clientUID)
	}
	if client == nil {
		return "", errors.Errorf("client %s not found", clientUID)
	}
	workouts, err := s.upcomingWorkouts(ctx, &clientUID)
	if err != nil {
		return "", err
	}
	loc := s.profile.Location()
	now := s.now().In(loc)

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//coachcal//schedule//EN")
	cal.SetName(client.Name + " sessions")

	for _, workout := range workouts {
		event := cal.AddEvent(workout.UID + "@coachcal")
		event.SetDtStampTime(now)
		event.SetSummary(workoutTitle(workout))

		day := time.Unix(workout.Ts, 0).In(loc)
		if workout.Time == "" {
			event.SetAllDayStartAt(day)
			event.SetAllDayEndAt(day.AddDate(0, 0, 1))
			continue
		}
		hour, minute, err := parseClock(workout.Time)
		if err != nil {
			continue
		}
		start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
		event.SetStartAt(start)
		event.SetEndAt(start.Add(defaultSessionMinutes * time.Minute))
	}
	return cal.Serialize(), nil
}

// UpcomingFeed renders every client's upcoming sessions as an Atom
// feed for the coach's dashboard reader.
func (s *Service) UpcomingFeed(ctx context.Context) (string, error) {
	workouts, err := s.upcomingWorkouts(ctx, nil)
	if err != nil {
		return "", err
	}
	normal := store.Normal
	clients, err := s.store.ListClients(ctx, &store.FindClient{RowStatus: &normal})
	if err != nil {
		return "", errors.Wrap(err, "failed to list clients")
	}
	names := make(map[string]string, len(clients))
	for _, client := range clients {
		names[client.UID] = client.Name
	}

	loc := s.profile.Location()
	feed := &feeds.Feed{
		Title:       "Upcoming coaching sessions",
		Link:        &feeds.Link{Href: s.profile.InstanceURL},
		Description: "Scheduled sessions for the next sync window",
		Created:     s.now().In(loc),
	}
	for _, workout := range workouts {
		name := names[workout.ClientID]
		if name == "" {
			name = workout.ClientID
		}
		day := time.Unix(workout.Ts, 0).In(loc)
		when := day.Format("Monday, Jan 2")
		if workout.Time != "" {
			when += " at " + workout.Time
		}
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          s.profile.InstanceURL + "/workouts/" + workout.UID,
			Title:       fmt.Sprintf("%s - %s", name, workoutTitle(workout)),
			Link:        &feeds.Link{Href: s.profile.InstanceURL + "/workouts/" + workout.UID},
			Description: when,
			Created:     day,
		})
	}
	atom, err := feed.ToAtom()
	if err != nil {
		return "", errors.Wrap(err, "failed to render feed")
	}
	return atom, nil
}

// upcomingWorkouts lists workouts from the start of today on, oldest
// first. A nil clientUID means all clients.
func (s *Service) upcomingWorkouts(ctx context.Context, clientUID *string) ([]*store.ClientWorkout, error) {
	loc := s.profile.Location()
	now := s.now().In(loc)
	after := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).Unix()

	workouts, err := s.store.ListClientWorkouts(ctx, &store.FindClientWorkout{
		ClientID: clientUID,
		TsAfter:  &after,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list workouts")
	}
	sort.SliceStable(workouts, func(i, j int) bool {
		if workouts[i].Ts == workouts[j].Ts {
			return workouts[i].Time < workouts[j].Time
		}
		return workouts[i].Ts < workouts[j].Ts
	})
	return workouts, nil
}

func workoutTitle(workout *store.ClientWorkout) string {
	if workout.Title != "" {
		return workout.Title
	}
	return workout.Category
}
