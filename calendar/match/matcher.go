package match

import (
	"strings"

	"github.com/coachcal/coachcal/calendar"
	"github.com/coachcal/coachcal/calendar/metadata"
	"github.com/coachcal/coachcal/store"
)

// Matcher resolves events against a fixed client roster. Build one per
// matching pass; the roster is captured at construction so a pass is
// consistent even while clients are being edited.
type Matcher struct {
	cfg     Config
	clients []*store.Client
	byUID   map[string]*store.Client
}

func NewMatcher(cfg Config, clients []*store.Client) *Matcher {
	byUID := make(map[string]*store.Client, len(clients))
	for _, c := range clients {
		byUID[c.UID] = c
	}
	return &Matcher{cfg: cfg, clients: clients, byUID: byUID}
}

func (m *Matcher) clientByUID(uid string) *store.Client {
	return m.byUID[uid]
}

// Match resolves every client present on an event.
//
// An explicit assignment always wins: a client id stored in the
// event's private extended properties, or failing that in the
// description metadata block, short-circuits attendee matching for
// that client. Remaining attendees are then resolved by email and by
// name. Excluded events match nothing regardless of explicit
// assignment.
func (m *Matcher) Match(event *calendar.Event) MultiMatch {
	result := MultiMatch{SessionType: SessionOneOnOne}
	if event == nil || m.cfg.Excluded(event) {
		return result
	}

	attendees := m.cfg.attendeeIdentities(event)
	result.TotalAttendees = len(attendees)
	seen := map[string]bool{}
	add := func(c *store.Client, matchedName string, confidence Confidence) {
		if c == nil || seen[c.UID] {
			return
		}
		seen[c.UID] = true
		result.Matches = append(result.Matches, ClientMatch{
			ClientID:    c.UID,
			ClientName:  c.Name,
			MatchedName: matchedName,
			Confidence:  confidence,
		})
	}

	// 1. Private extended property written at assignment time.
	if uid := event.PrivateProp(calendar.PropClientID); uid != "" {
		add(m.clientByUID(uid), event.Summary, ConfidenceExact)
	}

	// 2. Description metadata, including legacy formats.
	if len(result.Matches) == 0 {
		fields := metadata.Decode(event.Description)
		if uid := metadata.Value(fields.ClientID); uid != "" {
			add(m.clientByUID(uid), event.Summary, ConfidenceExact)
		}
	}

	// 3. Attendee emails against client emails, exact address first,
	// then local part. A client row can carry several comma-separated
	// addresses.
	for _, attendee := range attendees {
		if attendee.Email == "" {
			continue
		}
		for _, client := range m.clients {
			matched := false
			for _, email := range client.Emails() {
				if strings.EqualFold(email, attendee.Email) {
					add(client, attendee.Identity, ConfidenceExact)
					matched = true
					break
				}
				if localPart(email) != "" && localPart(email) == localPart(attendee.Email) {
					add(client, attendee.Identity, ConfidencePartial)
					matched = true
					break
				}
			}
			if matched {
				break
			}
		}
	}

	// 4. Fuzzy name matching on attendee display names and on the
	// summary ("Session with Jane Doe - Strength").
	candidates := make([]string, 0, len(attendees)+1)
	for _, a := range attendees {
		if a.Identity != a.Email {
			candidates = append(candidates, a.Identity)
		}
	}
	if name := summaryName(event.Summary); name != "" {
		candidates = append(candidates, name)
	}
	for _, candidate := range candidates {
		for _, client := range m.clients {
			if confidence, ok := namesMatch(client.Name, candidate); ok {
				add(client, candidate, confidence)
				break
			}
		}
	}

	result.SessionType = classifySession(len(result.Matches), result.TotalAttendees)
	return result
}

// classifySession types a session by how many people are in it. The
// matched-client count governs when it is higher than the attendee
// count; work calendars frequently drop guests, so the larger signal
// wins.
func classifySession(matched, attendees int) SessionType {
	n := attendees
	if matched > n {
		n = matched
	}
	switch {
	case n >= 3:
		return SessionGroup
	case n == 2:
		return SessionBuddy
	default:
		return SessionOneOnOne
	}
}

// Primary returns the single best match for an event, if any.
func (m *Matcher) Primary(event *calendar.Event) (ClientMatch, bool) {
	result := m.Match(event)
	if len(result.Matches) == 0 {
		return ClientMatch{}, false
	}
	return result.Matches[0], true
}

// MatchedEvents pairs each event with its matching result, skipping
// events that matched nothing.
type MatchedEvent struct {
	Event *calendar.Event
	Match MultiMatch
}

func (m *Matcher) MatchedEvents(events []*calendar.Event) []MatchedEvent {
	var out []MatchedEvent
	for _, event := range events {
		if result := m.Match(event); len(result.Matches) > 0 {
			out = append(out, MatchedEvent{Event: event, Match: result})
		}
	}
	return out
}

// UnmatchedEvents returns coaching-shaped events that resolved to no
// client. These are what the review UI surfaces for manual assignment.
func (m *Matcher) UnmatchedEvents(events []*calendar.Event) []*calendar.Event {
	var out []*calendar.Event
	for _, event := range events {
		if !m.cfg.ValidSession(event) && !m.cfg.isCoachingSession(event.Summary) {
			continue
		}
		if m.cfg.Excluded(event) {
			continue
		}
		if result := m.Match(event); len(result.Matches) == 0 {
			out = append(out, event)
		}
	}
	return out
}

// Excluded reports whether the exclusion keywords filter this event
// out.
func (m *Matcher) Excluded(event *calendar.Event) bool {
	return event != nil && m.cfg.Excluded(event)
}

// ExcludedEvents returns the events the exclusion keywords filtered
// out, for display rather than matching.
func (m *Matcher) ExcludedEvents(events []*calendar.Event) []*calendar.Event {
	var out []*calendar.Event
	for _, event := range events {
		if event != nil && m.cfg.Excluded(event) {
			out = append(out, event)
		}
	}
	return out
}

// Stats aggregates one matching pass over a window of events.
type Stats struct {
	Total     int `json:"total"`
	Matched   int `json:"matched"`
	Unmatched int `json:"unmatched"`
	Excluded  int `json:"excluded"`
	OneOnOne  int `json:"oneOnOne"`
	Buddy     int `json:"buddy"`
	Group     int `json:"group"`
}

// Stats runs the same match every other view runs and counts the
// outcomes, so the numbers always agree with MatchedEvents and
// UnmatchedEvents.
func (m *Matcher) Stats(events []*calendar.Event) Stats {
	s := Stats{Total: len(events)}
	for _, event := range events {
		if m.cfg.Excluded(event) {
			s.Excluded++
			continue
		}
		result := m.Match(event)
		if len(result.Matches) == 0 {
			s.Unmatched++
			continue
		}
		s.Matched++
		switch result.SessionType {
		case SessionGroup:
			s.Group++
		case SessionBuddy:
			s.Buddy++
		default:
			s.OneOnOne++
		}
	}
	return s
}
