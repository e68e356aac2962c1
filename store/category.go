package store

// Category is a workout category (e.g. "Strength", "Conditioning")
// referenced by name from week templates and program days.
type Category struct {
	Name      string
	Color     string
	CreatedTs int64
	UpdatedTs int64
	ID        int32
	SortOrder int32
}

type FindCategory struct {
	ID   *int32
	Name *string
}

type UpdateCategory struct {
	Name      *string
	Color     *string
	SortOrder *int32
	UpdatedTs *int64
	ID        int32
}

type DeleteCategory struct {
	ID int32
}
