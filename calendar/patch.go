package calendar

// EventPatch is a partial event update. Nil fields are left untouched.
// A Private entry with an empty value deletes that property.
type EventPatch struct {
	Summary     *string
	Description *string
	Private     map[string]string
}
