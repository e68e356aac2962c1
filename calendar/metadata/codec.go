// Package metadata encodes coaching metadata into calendar event
// descriptions. The external calendar has no structured custom fields
// beyond its private key/value extension, so client/category/workout
// links ride along in a delimited block of the free-text description.
//
// Three encodings exist in the wild: HTML anchor links appended by the
// first release, a bracketed "[Metadata: ...]" block, and bare
// key=value tokens. New code only ever writes the bracketed block, but
// events written by older releases persist unmodified, so decoding
// tries every format in a fixed priority order.
package metadata

import (
	"fmt"
	"regexp"
	"strings"
)

// Sentinel marks the start of the metadata block inside a description.
const Sentinel = "[Metadata:"

// None is the explicit-unset value. A field carrying None was cleared
// on purpose and must survive re-encoding; a field that is simply
// absent must not be written as None.
const None = "none"

// Fields is the set of coaching attributes carried on an event.
// A nil pointer means "absent"; a pointer to None means "explicitly
// unset".
type Fields struct {
	ClientID  *string
	Category  *string
	WorkoutID *string
	PeriodID  *string
}

// Set assigns a concrete value to the named field.
func (f *Fields) Set(key, value string) {
	v := value
	switch key {
	case "client":
		f.ClientID = &v
	case "category":
		f.Category = &v
	case "workoutId":
		f.WorkoutID = &v
	case "periodId":
		f.PeriodID = &v
	}
}

// pairs returns the key=value tokens in canonical order, skipping
// absent fields.
func (f *Fields) pairs() []string {
	var out []string
	add := func(key string, val *string) {
		if val != nil && *val != "" {
			out = append(out, key+"="+*val)
		}
	}
	add("client", f.ClientID)
	add("category", f.Category)
	add("workoutId", f.WorkoutID)
	add("periodId", f.PeriodID)
	return out
}

// merge overlays non-nil fields from other onto f.
func (f *Fields) merge(other Fields) {
	if other.ClientID != nil {
		f.ClientID = other.ClientID
	}
	if other.Category != nil {
		f.Category = other.Category
	}
	if other.WorkoutID != nil {
		f.WorkoutID = other.WorkoutID
	}
	if other.PeriodID != nil {
		f.PeriodID = other.PeriodID
	}
}

// IsZero reports whether no field is present.
func (f Fields) IsZero() bool {
	return f.ClientID == nil && f.Category == nil && f.WorkoutID == nil && f.PeriodID == nil
}

// String returns a pointer to s, for building Fields literals.
func String(s string) *string {
	return &s
}

var blockRe = regexp.MustCompile(`\n?\[Metadata:[^\]]*\]`)

// Encode writes fields into description, replacing any existing
// metadata block and preserving all surrounding human-authored text.
// Fields already present in the description that the caller did not
// override are carried over, which keeps Encode idempotent: encoding
// the same fields twice yields the same description.
func Encode(description string, fields Fields) string {
	existing := Decode(description)
	existing.merge(fields)

	stripped := strings.TrimRight(blockRe.ReplaceAllString(description, ""), " \n")

	pairs := existing.pairs()
	if len(pairs) == 0 {
		return stripped
	}

	block := fmt.Sprintf("%s %s]", Sentinel, strings.Join(pairs, ", "))
	if stripped == "" {
		return block
	}
	return stripped + "\n" + block
}

// Strip removes the metadata block from description, leaving the
// human-authored text untouched.
func Strip(description string) string {
	return strings.TrimSpace(blockRe.ReplaceAllString(description, ""))
}

// Decode extracts fields from description. Each decoder strategy is a
// pure function tried in priority order; the first strategy that finds
// a given field wins and later formats cannot override it. A field not
// found anywhere stays nil. Decode never fails: unparseable text just
// yields empty Fields.
func Decode(description string) Fields {
	var out Fields
	if description == "" {
		return out
	}
	for _, dec := range decoders {
		found := dec(description)
		// Priority order: only fill fields still missing.
		if out.ClientID == nil {
			out.ClientID = found.ClientID
		}
		if out.Category == nil {
			out.Category = found.Category
		}
		if out.WorkoutID == nil {
			out.WorkoutID = found.WorkoutID
		}
		if out.PeriodID == nil {
			out.PeriodID = found.PeriodID
		}
	}
	return out
}

// Value returns the usable value of a decoded field: "" when the field
// is absent or explicitly unset.
func Value(p *string) string {
	if p == nil || *p == None {
		return ""
	}
	return *p
}
