package store

// ProgramStatus is the lifecycle state of a client program.
type ProgramStatus string

const (
	ProgramStatusActive    ProgramStatus = "active"
	ProgramStatusCompleted ProgramStatus = "completed"
	ProgramStatusPaused    ProgramStatus = "paused"
	ProgramStatusCancelled ProgramStatus = "cancelled"
)

// ProgramDay is one concrete scheduled day inside a period. Ts is the
// day's date at local midnight. Time ("HH:MM") and IsAllDay are
// mutually exclusive.
type ProgramDay struct {
	Ts            int64  `json:"ts"`
	Category      string `json:"category"`
	CategoryColor string `json:"categoryColor,omitempty"`
	Time          string `json:"time,omitempty"`
	IsAllDay      bool   `json:"isAllDay,omitempty"`
}

// Period is a contiguous macrocycle of a program with its own weekly
// schedule. StartTs < EndTs always holds for persisted periods.
type Period struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Color   string       `json:"color"`
	StartTs int64        `json:"startTs"`
	EndTs   int64        `json:"endTs"`
	Days    []ProgramDay `json:"days"`
}

// ClientProgram associates a client with an ordered list of periods.
// At most one program per client is active; the store enforces this by
// completing any other active program in the same transaction that
// activates a new one.
type ClientProgram struct {
	UID       string
	ClientID  string // Client UID
	Status    ProgramStatus
	Periods   []Period
	StartTs   int64
	EndTs     int64
	CreatedTs int64
	UpdatedTs int64
	ID        int32
}

type FindClientProgram struct {
	ID       *int32
	UID      *string
	ClientID *string
	Status   *ProgramStatus
}

type UpdateClientProgram struct {
	Status    *ProgramStatus
	Periods   []Period
	StartTs   *int64
	EndTs     *int64
	UpdatedTs *int64
	ID        int32
}

type DeleteClientProgram struct {
	ID int32
}
