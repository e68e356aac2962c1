// Package match infers which client a calendar event belongs to and
// what kind of session it is. Inference is heuristic by nature: the
// calendar is fed by a work-account sync that strips most structure,
// so matching falls back through explicit metadata, attendee emails
// and finally free-text names. All functions here are pure; every
// aggregate view is built on the one primary matching path so the
// criteria cannot drift apart.
package match

import (
	"regexp"
	"strings"

	"github.com/coachcal/coachcal/calendar"
	"github.com/coachcal/coachcal/calendar/metadata"
	"github.com/coachcal/coachcal/store"
)

// Defaults apply when the coach has not configured a list.
var (
	defaultCoachingKeywords  = []string{"personal training", "pt", "training session", "workout"}
	defaultClassKeywords     = []string{"class", "group class", "group training", "group session"}
	defaultExclusionKeywords = []string{"hold", "blocked", "meeting", "admin"}
	defaultCoachPatterns     = []string{"@resource.calendar.google.com"}
)

// Config carries the keyword lists driving matching. Zero value uses
// defaults everywhere.
type Config struct {
	CoachingKeywords   []string
	ClassKeywords      []string
	ExclusionKeywords  []string
	CoachEmailPatterns []string
}

// ConfigFromSetting builds a Config from the persisted settings row.
func ConfigFromSetting(setting *store.DetectionSetting) Config {
	if setting == nil {
		return Config{}
	}
	return Config{
		CoachingKeywords:   setting.CoachingKeywords,
		ClassKeywords:      setting.ClassKeywords,
		ExclusionKeywords:  setting.ExclusionKeywords,
		CoachEmailPatterns: setting.CoachEmailPatterns,
	}
}

// Confidence grades how a client was matched.
type Confidence string

const (
	ConfidenceExact   Confidence = "exact"
	ConfidencePartial Confidence = "partial"
	ConfidenceFuzzy   Confidence = "fuzzy"
)

// SessionType classifies an event by distinct matched clients.
type SessionType string

const (
	SessionOneOnOne SessionType = "1-on-1"
	SessionBuddy    SessionType = "buddy"
	SessionGroup    SessionType = "group"
)

// ClientMatch is one matched client on an event.
type ClientMatch struct {
	ClientID    string
	ClientName  string
	MatchedName string // attendee identity that matched
	Confidence  Confidence
}

// MultiMatch is the full matching result for one event.
type MultiMatch struct {
	Matches        []ClientMatch
	SessionType    SessionType
	TotalAttendees int
}

func containsAnyFold(s string, keywords, fallback []string) bool {
	lower := strings.ToLower(s)
	list := keywords
	if len(list) == 0 {
		list = fallback
	}
	for _, kw := range list {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// mergedContains matches against the configured keywords plus the
// defaults; configured lists extend rather than replace defaults for
// session-kind keywords.
func mergedContains(s string, keywords, defaults []string) bool {
	lower := strings.ToLower(s)
	for _, kw := range append(append([]string{}, keywords...), defaults...) {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func (c Config) isCoachingSession(summary string) bool {
	return mergedContains(summary, c.CoachingKeywords, defaultCoachingKeywords)
}

func (c Config) isClassSession(summary string) bool {
	return mergedContains(summary, c.ClassKeywords, defaultClassKeywords)
}

// Excluded reports whether the event is excluded from matching
// entirely. Exclusion outranks every other rule: holds, meetings and
// admin blocks never become sessions no matter how well their guests
// match.
func (c Config) Excluded(event *calendar.Event) bool {
	if event == nil {
		return false
	}
	return containsAnyFold(event.Summary, c.ExclusionKeywords, defaultExclusionKeywords) ||
		containsAnyFold(metadata.Strip(event.Description), c.ExclusionKeywords, defaultExclusionKeywords)
}

func (c Config) isCoachIdentity(nameOrEmail string) bool {
	return containsAnyFold(nameOrEmail, c.CoachEmailPatterns, defaultCoachPatterns)
}

// attendeeIdentities returns the non-coach, non-resource attendee
// identities on an event: display name when present, email otherwise.
func (c Config) attendeeIdentities(event *calendar.Event) []Attendee {
	var out []Attendee
	for _, a := range event.Attendees {
		if a.Resource || strings.Contains(a.Email, "resource.calendar.google.com") {
			continue
		}
		identity := a.DisplayName
		if identity == "" {
			identity = a.Email
		}
		if identity == "" || c.isCoachIdentity(identity) || c.isCoachIdentity(a.Email) {
			continue
		}
		out = append(out, Attendee{Email: a.Email, Identity: identity})
	}
	// Guest emails stashed in extended properties by the work-calendar
	// sync count as attendees too.
	if raw := event.PrivateProp(calendar.PropGuestEmails); raw != "" {
		for _, email := range strings.Split(raw, ",") {
			email = strings.TrimSpace(email)
			if email == "" || c.isCoachIdentity(email) {
				continue
			}
			if !containsEmail(out, email) {
				out = append(out, Attendee{Email: email, Identity: email})
			}
		}
	}
	return out
}

// Attendee is a filtered guest identity used for matching.
type Attendee struct {
	Email    string
	Identity string
}

func containsEmail(list []Attendee, email string) bool {
	for _, a := range list {
		if strings.EqualFold(a.Email, email) {
			return true
		}
	}
	return false
}

// ValidSession reports whether the event is a session worth matching.
// Class sessions are always valid; coaching sessions need at least one
// client attendee; everything else is noise.
func (c Config) ValidSession(event *calendar.Event) bool {
	if event.Summary == "" {
		return false
	}
	if c.Excluded(event) {
		return false
	}
	if c.isClassSession(event.Summary) {
		return true
	}
	if c.isCoachingSession(event.Summary) {
		return len(c.attendeeIdentities(event)) > 0
	}
	return false
}

var punctRe = regexp.MustCompile(`[.,]`)
var spaceRe = regexp.MustCompile(`\s+`)

func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = punctRe.ReplaceAllString(name, "")
	return spaceRe.ReplaceAllString(name, " ")
}

// namesMatch reports whether a client name and an attendee identity
// refer to the same person, and how confidently.
func namesMatch(clientName, attendeeName string) (Confidence, bool) {
	nc := normalizeName(clientName)
	na := normalizeName(attendeeName)
	if nc == "" || na == "" {
		return "", false
	}

	if nc == na {
		return ConfidenceExact, true
	}
	// "Devon" inside "Devon McGuire", either direction.
	if strings.Contains(na, nc) || strings.Contains(nc, na) {
		return ConfidencePartial, true
	}

	// Word-level match handles "McGuire, Devon" orderings. Words of
	// one or two letters are too ambiguous to count.
	clientWords := strings.Split(nc, " ")
	attendeeWords := strings.Split(na, " ")
	for _, cw := range clientWords {
		if len(cw) <= 2 {
			continue
		}
		for _, aw := range attendeeWords {
			if cw == aw {
				return ConfidenceFuzzy, true
			}
		}
	}

	// Edit distance catches typos; the allowance scales with length to
	// avoid false positives on short names.
	if len(nc) >= 3 && len(na) >= 3 {
		maxDistance := 1
		if len(nc) > 5 {
			maxDistance = 2
		}
		if levenshtein(nc, na) <= maxDistance {
			return ConfidenceFuzzy, true
		}
	}

	return "", false
}

func levenshtein(s1, s2 string) int {
	m, n := len(s1), len(s2)
	prev := make([]int, n+1)
	cur := make([]int, n+1)
	for j := 0; j <= n; j++ {
		prev[j] = j
	}
	for i := 1; i <= m; i++ {
		cur[0] = i
		for j := 1; j <= n; j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, min(cur[j-1]+1, prev[j-1]+cost))
		}
		prev, cur = cur, prev
	}
	return prev[n]
}

// localPart lowercases an address and cuts it at '@'.
func localPart(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if i := strings.IndexByte(email, '@'); i >= 0 {
		return email[:i]
	}
	return email
}

var (
	withNameRe  = regexp.MustCompile(`(?i)\bwith\s+([^-–]+)`)
	separatorRe = regexp.MustCompile(`\s[-–]\s`)
)

// summaryName extracts a candidate client name from an event summary:
// the text after "with", or the text preceding a " - " separator.
func summaryName(summary string) string {
	if m := withNameRe.FindStringSubmatch(summary); m != nil {
		return strings.TrimSpace(m[1])
	}
	if loc := separatorRe.FindStringIndex(summary); loc != nil {
		return strings.TrimSpace(summary[:loc[0]])
	}
	return ""
}
