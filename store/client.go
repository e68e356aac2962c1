package store

import "strings"

// Client is a coached athlete. Email may hold several comma-separated
// addresses; all of them are valid attendee identities for calendar
// matching.
type Client struct {
	UID       string
	Name      string
	Email     string
	Phone     string
	Notes     string
	RowStatus RowStatus
	CreatedTs int64
	UpdatedTs int64
	ID        int32
}

// Emails returns the client's registered addresses, trimmed and with
// empties dropped.
func (c *Client) Emails() []string {
	if c.Email == "" {
		return nil
	}
	parts := strings.Split(c.Email, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type FindClient struct {
	ID        *int32
	UID       *string
	RowStatus *RowStatus
}

type UpdateClient struct {
	Name      *string
	Email     *string
	Phone     *string
	Notes     *string
	RowStatus *RowStatus
	UpdatedTs *int64
	ID        int32
}

type DeleteClient struct {
	ID int32
}
