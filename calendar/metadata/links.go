package metadata

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// WorkoutLinks are the deep links appended below an event description
// so a client can open their session and a coach can edit it.
type WorkoutLinks struct {
	ClientLink string
	CoachLink  string
}

// BuildWorkoutLinks builds view/edit links for a linked workout.
func BuildWorkoutLinks(baseURL, workoutID, clientID string, date time.Time) WorkoutLinks {
	dateStr := date.Format("2006-01-02")
	return WorkoutLinks{
		ClientLink: fmt.Sprintf("%s/workouts/view?workoutId=%s&client=%s&date=%s", baseURL, workoutID, clientID, dateStr),
		CoachLink:  fmt.Sprintf("%s/workouts/builder?workoutId=%s&client=%s&date=%s", baseURL, workoutID, clientID, dateStr),
	}
}

// Block renders the links as the HTML fragment the calendar provider
// displays. Calendar descriptions accept inline anchors.
func (l WorkoutLinks) Block() string {
	return fmt.Sprintf("\n\n---\n<a href=%q>View Your Workout</a>\n<a href=%q>Edit Workout (Coach)</a>", l.ClientLink, l.CoachLink)
}

var (
	linkBlockHTMLRe  = regexp.MustCompile(`\n*---\n<a href="[^"]*"[^>]*>View Your Workout</a>\n<a href="[^"]*"[^>]*>Edit Workout[^<]*</a>`)
	linkBlockPlainRe = regexp.MustCompile(`\n*---\nView Your Workout:[^\n]*\nEdit Workout:[^\n]*`)

	viewLinkHTMLRe  = regexp.MustCompile(`<a href="([^"]+)"[^>]*>View Your Workout</a>`)
	editLinkHTMLRe  = regexp.MustCompile(`<a href="([^"]+)"[^>]*>Edit Workout[^<]*</a>`)
	viewLinkPlainRe = regexp.MustCompile(`View Your Workout:\s*(https?://[^\s\n]+)`)
	editLinkPlainRe = regexp.MustCompile(`Edit Workout:\s*(https?://[^\s\n]+)`)
)

// ExtractWorkoutLinks reads existing links from a description,
// accepting both the HTML and the older plain-text form.
func ExtractWorkoutLinks(description string) WorkoutLinks {
	var out WorkoutLinks
	if m := viewLinkHTMLRe.FindStringSubmatch(description); m != nil {
		out.ClientLink = m[1]
	} else if m := viewLinkPlainRe.FindStringSubmatch(description); m != nil {
		out.ClientLink = m[1]
	}
	if m := editLinkHTMLRe.FindStringSubmatch(description); m != nil {
		out.CoachLink = m[1]
	} else if m := editLinkPlainRe.FindStringSubmatch(description); m != nil {
		out.CoachLink = m[1]
	}
	return out
}

// StripWorkoutLinks removes any link block from a description,
// accepting both the HTML and the older plain-text form.
func StripWorkoutLinks(description string) string {
	cleaned := linkBlockHTMLRe.ReplaceAllString(description, "")
	cleaned = linkBlockPlainRe.ReplaceAllString(cleaned, "")
	return strings.TrimRight(cleaned, " \n")
}

// UpsertWorkoutLinks replaces any existing link block in description
// with links for the given workout, preserving the rest of the text.
func UpsertWorkoutLinks(description, baseURL, workoutID, clientID string, date time.Time) string {
	links := BuildWorkoutLinks(baseURL, workoutID, clientID, date)
	return StripWorkoutLinks(description) + links.Block()
}
