package store

// DetectionSetting is the coach-configurable keyword lists driving
// event matching. A single row per instance; defaults apply when a
// list is empty.
type DetectionSetting struct {
	CoachingKeywords   []string
	ClassKeywords      []string
	ExclusionKeywords  []string
	CoachEmailPatterns []string
	UpdatedTs          int64
	ID                 int32
}

type UpdateDetectionSetting struct {
	CoachingKeywords   []string
	ClassKeywords      []string
	ExclusionKeywords  []string
	CoachEmailPatterns []string
	UpdatedTs          *int64
	ID                 int32
}
