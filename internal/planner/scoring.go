package planner

import (
	"math"
	"sort"

	"github.com/campusdesk/course-planner-api/internal/models"
)

// ScoreBreakdown exposes the individual terms of a schedule score. The first
// five terms are normalized to roughly [0,1]; the penalties are raw counts.
type ScoreBreakdown struct {
	Coverage        float64 `json:"coverage"`
	Interest        float64 `json:"interest"`
	TimeWindow      float64 `json:"time_window"`
	DayOff          float64 `json:"day_off"`
	Density         float64 `json:"density"`
	FridayPenalty   float64 `json:"friday_penalty"`
	BreakPenalty    float64 `json:"break_penalty"`
	CapacityPenalty float64 `json:"capacity_penalty"`
}

// Gaps between back-to-back sections shorter than this count against the
// schedule.
const minBreakMinutes = 15

// scoreContext bundles the per-request lookups the scoring terms need.
type scoreContext struct {
	prefs      *prefs
	required   map[string]struct{}
	interestOf func(courseID string) float64
	courses    map[string]models.Course
}

// scoreSchedule computes the weighted total score for a candidate schedule.
// The section list is expanded through its linked components first so
// lecture/lab partners are always scored as a unit.
func scoreSchedule(sections []*section, sc *scoreContext) (float64, ScoreBreakdown) {
	var flattened []*section
	for _, group := range partitionLinked(sections) {
		flattened = append(flattened, group...)
	}

	breakdown := ScoreBreakdown{
		Coverage:        coverageScore(flattened, sc.required),
		Interest:        interestScore(flattened, sc.interestOf),
		TimeWindow:      timeWindowScore(flattened, sc.prefs),
		DayOff:          dayOffScore(flattened, sc.prefs),
		Density:         densityScore(flattened),
		FridayPenalty:   fridayPenalty(flattened, sc.prefs),
		BreakPenalty:    breakPenalty(flattened),
		CapacityPenalty: capacityPenalty(flattened, sc.courses),
	}

	total := breakdown.Coverage*6 +
		breakdown.Interest*3 +
		breakdown.TimeWindow*3 +
		breakdown.DayOff*2 +
		breakdown.Density*1 -
		breakdown.FridayPenalty*2 -
		breakdown.BreakPenalty*2 -
		breakdown.CapacityPenalty*1

	return total, breakdown
}

// coverageScore is the fraction of required courses present in the schedule,
// or 1 when nothing is required.
func coverageScore(sections []*section, required map[string]struct{}) float64 {
	if len(required) == 0 {
		return 1
	}
	covered := make(map[string]struct{})
	for _, s := range sections {
		if _, ok := required[s.ref.CourseID]; ok {
			covered[s.ref.CourseID] = struct{}{}
		}
	}
	return float64(len(covered)) / float64(len(required))
}

// interestScore is the mean per-course interest across selected sections.
func interestScore(sections []*section, interestOf func(string) float64) float64 {
	if len(sections) == 0 {
		return 0
	}
	var total float64
	for _, s := range sections {
		total += interestOf(s.ref.CourseID)
	}
	return total / float64(len(sections))
}

// timeWindowScore rewards schedules whose sections stay inside the preferred
// earliest/latest window.
func timeWindowScore(sections []*section, p *prefs) float64 {
	if len(sections) == 0 {
		return 1
	}
	violations := 0
	for _, s := range sections {
		if p.violatesWindow(s) {
			violations++
		}
	}
	return math.Max(0, 1-float64(violations)/float64(len(sections)))
}

// dayOffScore is the fraction of requested days off that remain entirely
// meeting-free, or 1 when no days off were requested.
func dayOffScore(sections []*section, p *prefs) float64 {
	if len(p.daysOff) == 0 {
		return 1
	}
	meetingDays := make(map[int]struct{})
	for _, s := range sections {
		for _, m := range s.meetings {
			meetingDays[m.day] = struct{}{}
		}
	}
	free := 0
	for day := range p.daysOff {
		if _, ok := meetingDays[day]; !ok {
			free++
		}
	}
	return float64(free) / float64(len(p.daysOff))
}

// densityScore is a symmetric balance metric: 1 minus the normalized
// variance of per-weekday meeting counts, clamped to [0,1]. It rewards even
// distribution rather than any particular compact/spread direction.
func densityScore(sections []*section) float64 {
	if len(sections) == 0 {
		return 1
	}
	counts := make([]float64, weekdayCount)
	var totalMeetings float64
	for _, s := range sections {
		for _, m := range s.meetings {
			counts[m.day]++
			totalMeetings++
		}
	}
	if totalMeetings == 0 {
		return 1
	}

	mean := totalMeetings / float64(len(counts))
	var variance float64
	for _, c := range counts {
		variance += (c - mean) * (c - mean)
	}
	variance /= float64(len(counts))

	normalized := math.Min(variance/(totalMeetings*totalMeetings), 1)
	return 1 - normalized
}

// fridayPenalty is 1 when the student wants Fridays avoided yet any meeting
// lands on Friday.
func fridayPenalty(sections []*section, p *prefs) float64 {
	if p.raw.Fridays != models.FridayAvoid {
		return 0
	}
	fridayIdx, _ := DayIndex(models.DayFriday)
	for _, s := range sections {
		for _, m := range s.meetings {
			if m.day == fridayIdx {
				return 1
			}
		}
	}
	return 0
}

// breakPenalty counts same-term section pairs that do not overlap but whose
// first meetings are separated by less than minBreakMinutes. Only each
// section's first meeting is compared; gaps between later meetings in the
// week are not detected.
func breakPenalty(sections []*section) float64 {
	timed := make([]*section, 0, len(sections))
	for _, s := range sections {
		if len(s.meetings) > 0 {
			timed = append(timed, s)
		}
	}
	sort.SliceStable(timed, func(i, j int) bool {
		return timed[i].meetings[0].span.Start < timed[j].meetings[0].span.Start
	})

	var penalty float64
	for i := 0; i < len(timed); i++ {
		for j := i + 1; j < len(timed); j++ {
			a, b := timed[i], timed[j]
			if a.ref.TermID != b.ref.TermID {
				continue
			}
			if a.overlaps(b) {
				continue
			}
			gap := b.meetings[0].span.Start - a.meetings[0].span.End
			if gap < 0 {
				gap = -gap
			}
			if gap < minBreakMinutes {
				penalty++
			}
		}
	}
	return penalty
}

// capacityPenalty counts cataloged sections that are already full.
func capacityPenalty(sections []*section, courses map[string]models.Course) float64 {
	var penalty float64
	for _, s := range sections {
		if _, ok := courses[s.ref.CourseID]; !ok {
			continue
		}
		if s.ref.Capacity != nil && s.ref.Enrolled != nil && *s.ref.Enrolled >= *s.ref.Capacity {
			penalty++
		}
	}
	return penalty
}
