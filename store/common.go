package store

// RowStatus is the archival state of a row.
type RowStatus string

const (
	Normal   RowStatus = "NORMAL"
	Archived RowStatus = "ARCHIVED"
)

func (s RowStatus) String() string {
	return string(s)
}
