package metadata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	testCases := []struct {
		name   string
		fields Fields
	}{
		{"client only", Fields{ClientID: String("abc123")}},
		{"client and category", Fields{ClientID: String("abc123"), Category: String("Strength")}},
		{"all fields", Fields{ClientID: String("c1"), Category: String("Cardio"), WorkoutID: String("w9"), PeriodID: String("p2")}},
		{"explicit none", Fields{ClientID: String(None), Category: String("Strength")}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			encoded := Encode("Morning session notes", tc.fields)
			decoded := Decode(encoded)
			assert.Equal(t, tc.fields.ClientID, decoded.ClientID)
			assert.Equal(t, tc.fields.Category, decoded.Category)
			assert.Equal(t, tc.fields.WorkoutID, decoded.WorkoutID)
			assert.Equal(t, tc.fields.PeriodID, decoded.PeriodID)
		})
	}
}

func TestEncodePreservesPrefix(t *testing.T) {
	prefix := "Bring resistance bands.\nWarm up 10 minutes first."
	encoded := Encode(prefix, Fields{ClientID: String("c1")})
	assert.True(t, len(encoded) > len(prefix))
	assert.Equal(t, prefix, encoded[:len(prefix)])
}

func TestEncodeIdempotent(t *testing.T) {
	fields := Fields{ClientID: String("c1"), Category: String("Strength")}
	once := Encode("notes", fields)
	twice := Encode(once, fields)
	assert.Equal(t, once, twice)
}

func TestEncodeReplacesExistingBlock(t *testing.T) {
	first := Encode("notes", Fields{ClientID: String("old")})
	second := Encode(first, Fields{ClientID: String("new")})

	decoded := Decode(second)
	require.NotNil(t, decoded.ClientID)
	assert.Equal(t, "new", *decoded.ClientID)
	// Only one metadata block survives.
	assert.Equal(t, 1, len(blockRe.FindAllString(second, -1)))
}

func TestEncodeMergesUntouchedFields(t *testing.T) {
	// Assigning a workout must not drop the client recorded earlier.
	first := Encode("", Fields{ClientID: String("c1")})
	second := Encode(first, Fields{WorkoutID: String("w1")})

	decoded := Decode(second)
	require.NotNil(t, decoded.ClientID)
	require.NotNil(t, decoded.WorkoutID)
	assert.Equal(t, "c1", *decoded.ClientID)
	assert.Equal(t, "w1", *decoded.WorkoutID)
}

func TestAbsentFieldNeverWrittenAsNone(t *testing.T) {
	encoded := Encode("", Fields{ClientID: String("c1")})
	assert.NotContains(t, encoded, "workoutId")
	assert.NotContains(t, encoded, None)

	// An explicit none survives re-encoding untouched.
	withNone := Encode("", Fields{ClientID: String("c1"), WorkoutID: String(None)})
	reencoded := Encode(withNone, Fields{Category: String("Strength")})
	decoded := Decode(reencoded)
	require.NotNil(t, decoded.WorkoutID)
	assert.Equal(t, None, *decoded.WorkoutID)
}

func TestDecodeLegacyFormats(t *testing.T) {
	testCases := []struct {
		name        string
		description string
		wantClient  string
		wantWorkout string
	}{
		{
			name:        "bracketed block",
			description: "notes\n[Metadata: client=c1, workoutId=w1]",
			wantClient:  "c1",
			wantWorkout: "w1",
		},
		{
			name:        "bare tokens",
			description: "client=c2\nworkoutId=w2",
			wantClient:  "c2",
			wantWorkout: "w2",
		},
		{
			name:        "html anchor links",
			description: `<a href="https://app.example.com/workouts/view?workoutId=w3&client=c3&date=2026-01-05">View Your Workout</a>`,
			wantClient:  "c3",
			wantWorkout: "w3",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			decoded := Decode(tc.description)
			require.NotNil(t, decoded.ClientID)
			require.NotNil(t, decoded.WorkoutID)
			assert.Equal(t, tc.wantClient, *decoded.ClientID)
			assert.Equal(t, tc.wantWorkout, *decoded.WorkoutID)
		})
	}
}

func TestDecodePriorityOrder(t *testing.T) {
	// Anchor links outrank the bracketed block when both are present.
	description := `<a href="https://app.example.com/workouts/view?workoutId=w1&client=anchor&date=2026-01-05">View Your Workout</a>` +
		"\n[Metadata: client=bracket]"
	decoded := Decode(description)
	require.NotNil(t, decoded.ClientID)
	assert.Equal(t, "anchor", *decoded.ClientID)
}

func TestDecodeCategoryLine(t *testing.T) {
	decoded := Decode("Workout Category: Upper Body\nsome notes")
	require.NotNil(t, decoded.Category)
	assert.Equal(t, "Upper Body", *decoded.Category)
}

func TestStrip(t *testing.T) {
	encoded := Encode("human text", Fields{ClientID: String("c1")})
	assert.Equal(t, "human text", Strip(encoded))
	assert.Equal(t, "plain", Strip("plain"))
}

func TestValue(t *testing.T) {
	assert.Equal(t, "", Value(nil))
	assert.Equal(t, "", Value(String(None)))
	assert.Equal(t, "c1", Value(String("c1")))
}

func TestWorkoutLinksRoundTrip(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	desc := UpsertWorkoutLinks("session notes", "https://app.example.com", "w1", "c1", date)

	links := ExtractWorkoutLinks(desc)
	assert.Contains(t, links.ClientLink, "workoutId=w1")
	assert.Contains(t, links.CoachLink, "builder")
	assert.Contains(t, desc, "session notes")

	// Upserting again replaces rather than duplicates.
	again := UpsertWorkoutLinks(desc, "https://app.example.com", "w2", "c1", date)
	assert.Equal(t, 1, len(viewLinkHTMLRe.FindAllString(again, -1)))
	assert.Contains(t, ExtractWorkoutLinks(again).ClientLink, "workoutId=w2")
}

func TestExtractWorkoutLinksPlainText(t *testing.T) {
	desc := "notes\n---\nView Your Workout: https://app.example.com/workouts/view?workoutId=w4\nEdit Workout: https://app.example.com/workouts/builder?workoutId=w4"
	links := ExtractWorkoutLinks(desc)
	assert.Contains(t, links.ClientLink, "w4")
	assert.Contains(t, links.CoachLink, "builder")
}
