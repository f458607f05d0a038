package planner

import (
	"fmt"

	"github.com/campusdesk/course-planner-api/internal/models"
)

// buildExplanations produces one human-readable rationale per course in the
// primary schedule: the requirement group it fulfills, whether it fits the
// student's protected times and window, a Friday note, and the interest
// score to two decimals.
func buildExplanations(sections []*section, groups []*groupInfo, interestOf func(string) float64, p *prefs) map[string]string {
	groupByCourse := make(map[string]*groupInfo)
	for _, g := range groups {
		for _, courseID := range g.CandidateCourseIDs {
			if _, ok := groupByCourse[courseID]; !ok {
				groupByCourse[courseID] = g
			}
		}
	}

	explanations := make(map[string]string)
	for _, sec := range sections {
		courseID := sec.ref.CourseID
		if _, done := explanations[courseID]; done {
			continue
		}

		groupTitle := courseID
		if g, ok := groupByCourse[courseID]; ok {
			switch {
			case g.Title != "":
				groupTitle = g.Title
			case g.GroupID != "":
				groupTitle = g.GroupID
			}
		}

		fit := "fits your protected times"
		if p.violatesProtected(sec) || p.violatesWindow(sec) {
			fit = "needs flexibility"
		}

		explanations[courseID] = fmt.Sprintf("Fulfills %s; %s; %s; interest %.2f.",
			groupTitle, fit, fridayNote(sec, p.raw.Fridays), interestOf(courseID))
	}
	return explanations
}

func fridayNote(sec *section, pref models.FridayPreference) string {
	meetsFriday := false
	for _, m := range sec.meetings {
		if m.day == 4 {
			meetsFriday = true
			break
		}
	}
	if !meetsFriday {
		return "avoids Fridays"
	}
	if pref == models.FridayAvoid {
		return "may require Fridays"
	}
	return "includes Friday sessions"
}
