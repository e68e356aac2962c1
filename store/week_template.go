package store

// TemplateDay is one weekday entry of a week template. Day is the
// English weekday name ("Monday"). Time is zero-padded "HH:MM", empty
// for entries that only pick a category, mutually exclusive with
// IsAllDay.
type TemplateDay struct {
	Day      string `json:"day"`
	Category string `json:"category"`
	Time     string `json:"time,omitempty"`
	IsAllDay bool   `json:"isAllDay,omitempty"`
}

// WeekTemplate is a reusable weekly skeleton, not bound to dates.
// Templates are immutable reference data; scheduling never mutates
// them as a side effect.
type WeekTemplate struct {
	UID       string
	Name      string
	Color     string
	Days      []TemplateDay
	CreatedTs int64
	UpdatedTs int64
	ID        int32
}

type FindWeekTemplate struct {
	ID  *int32
	UID *string
}

type UpdateWeekTemplate struct {
	Name      *string
	Color     *string
	Days      []TemplateDay
	UpdatedTs *int64
	ID        int32
}

type DeleteWeekTemplate struct {
	ID int32
}
