package store

// QuickWorkoutsPeriodID is the fallback period for workouts created on
// dates no program period covers.
const QuickWorkoutsPeriodID = "quick-workouts"

// ClientWorkout is a concrete session created when a calendar event is
// assigned to a client. EventID links back to the calendar event the
// workout was created from.
type ClientWorkout struct {
	UID       string
	ClientID  string // Client UID
	PeriodID  string
	EventID   string
	Category  string
	Time      string // "HH:MM"
	Title     string
	CreatedBy string
	Ts        int64 // session date
	CreatedTs int64
	UpdatedTs int64
	DayOfWeek int32 // 0 (Sunday) through 6 (Saturday)
	ID        int32
}

type FindClientWorkout struct {
	ID       *int32
	UID      *string
	ClientID *string
	PeriodID *string
	EventID  *string
	// TsAfter/TsBefore bound the session date, half-open [after, before).
	TsAfter  *int64
	TsBefore *int64
}

type UpdateClientWorkout struct {
	Category  *string
	Time      *string
	Title     *string
	Ts        *int64
	UpdatedTs *int64
	ID        int32
}

type DeleteClientWorkout struct {
	ID  *int32
	UID *string
}
