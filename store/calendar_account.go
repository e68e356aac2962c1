package store

// CalendarAccount holds the external calendar connection for the
// coach: which calendar to sync and the serialized OAuth token. Token
// is an opaque JSON blob owned by the calendar client; the store never
// inspects it.
type CalendarAccount struct {
	CalendarID     string
	Token          string // oauth2 token, JSON
	CreatedTs      int64
	UpdatedTs      int64
	SyncWindowDays int32
	ID             int32
}

type FindCalendarAccount struct {
	ID *int32
}

type UpdateCalendarAccount struct {
	CalendarID     *string
	Token          *string
	SyncWindowDays *int32
	UpdatedTs      *int64
	ID             int32
}

type DeleteCalendarAccount struct {
	ID int32
}
