package metadata

import (
	"net/url"
	"regexp"
	"strings"
)

// decoder is one historical encoding strategy. It returns whatever
// fields the format carries; missing fields stay nil.
type decoder func(description string) Fields

// decoders in priority order: anchor links written by the first
// release, then the bracketed block, then bare key=value tokens.
var decoders = []decoder{
	decodeAnchorLinks,
	decodeBracketBlock,
	decodeBareTokens,
}

var (
	anchorRe = regexp.MustCompile(`<a href="([^"]+)"[^>]*>(?:View Your Workout|Edit Workout[^<]*)</a>`)

	bracketRe      = regexp.MustCompile(`\[Metadata:([^\]]*)\]`)
	bracketPairRe  = regexp.MustCompile(`(client|category|workoutId|periodId)=([^,\s\]]+)`)
	bareClientRe   = regexp.MustCompile(`client=([^,\s\n\]]+)`)
	bareCategoryRe = regexp.MustCompile(`category=([^,\s\n\]]+)`)
	bareWorkoutRe  = regexp.MustCompile(`workoutId=([^,\s\n\]]+)`)
	barePeriodRe   = regexp.MustCompile(`periodId=([^,\s\n\]]+)`)
	categoryLineRe = regexp.MustCompile(`Workout Category:\s*([^\n]+)`)
)

// decodeAnchorLinks reads the HTML workout links appended by the first
// release. The workout and client ids ride in the link query string.
func decodeAnchorLinks(description string) Fields {
	var out Fields
	for _, m := range anchorRe.FindAllStringSubmatch(description, -1) {
		u, err := url.Parse(m[1])
		if err != nil {
			continue
		}
		q := u.Query()
		if v := q.Get("workoutId"); v != "" && out.WorkoutID == nil {
			out.WorkoutID = &v
		}
		if v := q.Get("client"); v != "" && out.ClientID == nil {
			out.ClientID = &v
		}
	}
	return out
}

// decodeBracketBlock reads the "[Metadata: k=v, ...]" block.
func decodeBracketBlock(description string) Fields {
	var out Fields
	block := bracketRe.FindStringSubmatch(description)
	if block == nil {
		return out
	}
	for _, m := range bracketPairRe.FindAllStringSubmatch(block[1], -1) {
		out.Set(m[1], m[2])
	}
	return out
}

// decodeBareTokens reads key=value tokens without any wrapper, plus
// the freestanding "Workout Category:" line some events carry.
func decodeBareTokens(description string) Fields {
	var out Fields
	if m := bareClientRe.FindStringSubmatch(description); m != nil {
		out.Set("client", m[1])
	}
	if m := bareCategoryRe.FindStringSubmatch(description); m != nil {
		out.Set("category", m[1])
	} else if m := categoryLineRe.FindStringSubmatch(description); m != nil {
		out.Set("category", strings.TrimSpace(m[1]))
	}
	if m := bareWorkoutRe.FindStringSubmatch(description); m != nil {
		out.Set("workoutId", m[1])
	}
	if m := barePeriodRe.FindStringSubmatch(description); m != nil {
		out.Set("periodId", m[1])
	}
	return out
}
