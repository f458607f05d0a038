package models

// FridayPreference expresses how the student feels about Friday meetings.
type FridayPreference string

const (
	FridayAvoid   FridayPreference = "avoid"
	FridayNeutral FridayPreference = "neutral"
	FridayPrefer  FridayPreference = "prefer"
)

// DensityPreference expresses whether the student wants meetings packed
// tightly or spread across the week.
type DensityPreference string

const (
	DensityCompact DensityPreference = "compact"
	DensitySpread  DensityPreference = "spread"
)

// ProtectedBlock is a weekly time window the student wants kept free of
// classes.
type ProtectedBlock struct {
	Day   Day    `json:"day"`
	Start string `json:"start"`
	End   string `json:"end"`
	Label string `json:"label,omitempty"`
}

// Preferences captures the scheduling preferences collected from the
// onboarding / advisor flow. Earliest and Latest are HH:MM clock times;
// empty strings mean "no constraint". MinBreakMins is advisory only: the
// break penalty in scoring uses a fixed 15-minute threshold.
type Preferences struct {
	Earliest            string            `json:"earliest,omitempty"`
	Latest              string            `json:"latest,omitempty"`
	DaysOff             []Day             `json:"days_off,omitempty"`
	ProtectedBlocks     []ProtectedBlock  `json:"protected_blocks,omitempty"`
	TargetCredits       int               `json:"target_credits,omitempty"`
	MinBreakMins        int               `json:"min_break_mins,omitempty"`
	AvoidInstructorIDs  []string          `json:"avoid_instructor_ids,omitempty"`
	PreferInstructorIDs []string          `json:"prefer_instructor_ids,omitempty"`
	Density             DensityPreference `json:"density,omitempty"`
	Fridays             FridayPreference  `json:"fridays,omitempty"`
}
