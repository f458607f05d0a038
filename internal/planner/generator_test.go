package planner

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusdesk/course-planner-api/internal/models"
)

func businessCatalog() map[string]models.Course {
	return map[string]models.Course{
		"BUS-201":  {ID: "BUS-201", Code: "BUS 201", Title: "Operations", Credits: 3},
		"FIN-310":  {ID: "FIN-310", Code: "FIN 310", Title: "Finance", Credits: 3},
		"MKT-220":  {ID: "MKT-220", Code: "MKT 220", Title: "Marketing", Credits: 3},
		"LEAD-305": {ID: "LEAD-305", Code: "LEAD 305", Title: "Leadership", Credits: 3},
	}
}

func businessSections() map[string][]models.Section {
	return map[string][]models.Section{
		"BUS-201": {
			testSection("BUS-201-A", "BUS-201", "",
				meetAt(models.DayMonday, "09:00", "10:15"),
				meetAt(models.DayWednesday, "09:00", "10:15"),
			),
			testSection("BUS-201-B", "BUS-201", "",
				meetAt(models.DayTuesday, "11:00", "12:15"),
				meetAt(models.DayThursday, "11:00", "12:15"),
			),
		},
		"FIN-310": {
			testSection("FIN-310-A", "FIN-310", "",
				meetAt(models.DayMonday, "13:00", "14:15"),
				meetAt(models.DayWednesday, "13:00", "14:15"),
			),
			testSection("FIN-310-B", "FIN-310", "",
				meetAt(models.DayTuesday, "09:30", "10:45"),
				meetAt(models.DayThursday, "09:30", "10:45"),
			),
		},
		"MKT-220": {
			testSection("MKT-220-A", "MKT-220", "",
				meetAt(models.DayTuesday, "14:00", "15:15"),
				meetAt(models.DayThursday, "14:00", "15:15"),
			),
			testSection("MKT-220-B", "MKT-220", "",
				meetAt(models.DayMonday, "15:00", "16:15"),
				meetAt(models.DayWednesday, "15:00", "16:15"),
			),
		},
		"LEAD-305": {
			testSection("LEAD-305-A", "LEAD-305", "",
				meetAt(models.DayFriday, "09:00", "11:00"),
			),
			testSection("LEAD-305-B", "LEAD-305", "",
				meetAt(models.DayMonday, "11:00", "12:15"),
				meetAt(models.DayWednesday, "11:00", "12:15"),
			),
		},
	}
}

func businessGroups() []GroupInput {
	return []GroupInput{
		{
			GroupID:            "core-ops",
			Title:              "Operations Core",
			Type:               models.GroupAllOf,
			Needed:             1,
			CandidateCourseIDs: []string{"BUS-201"},
		},
		{
			GroupID:            "finance-choice",
			Title:              "Finance Choice",
			Type:               models.GroupChooseN,
			Needed:             1,
			CandidateCourseIDs: []string{"FIN-310", "MKT-220"},
		},
		{
			GroupID:            "leadership-overlay",
			Title:              "Leadership",
			Type:               models.GroupChooseN,
			Needed:             1,
			CandidateCourseIDs: []string{"LEAD-305", "MKT-220"},
		},
	}
}

func businessInput() Input {
	return Input{
		Groups:           businessGroups(),
		SectionsByCourse: businessSections(),
		Prefs: models.Preferences{
			Earliest:      "08:00",
			Latest:        "18:00",
			TargetCredits: 15,
			MinBreakMins:  15,
			Density:       models.DensityCompact,
			Fridays:       models.FridayAvoid,
			DaysOff:       []models.Day{models.DayFriday},
		},
		RequiredCourseIDs: map[string]struct{}{"BUS-201": {}, "FIN-310": {}},
		InterestByCourse: map[string]float64{
			"BUS-201":  0.9,
			"FIN-310":  0.8,
			"MKT-220":  0.7,
			"LEAD-305": 0.6,
		},
		Courses:       businessCatalog(),
		TargetCredits: 9,
		BeamSize:      6,
		MaxNodes:      1500,
	}
}

func courseIDsOf(sections []models.Section) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, sec := range sections {
		ids[sec.CourseID] = struct{}{}
	}
	return ids
}

func TestGenerateReturnsRankedPlansWithExplanations(t *testing.T) {
	result, err := Generate(businessInput())
	require.NoError(t, err)

	assert.NotEmpty(t, result.Primary)
	assert.LessOrEqual(t, len(result.Backups), 2)
	require.NotEmpty(t, result.Scores)
	assert.LessOrEqual(t, len(result.Scores), 3)
	assert.GreaterOrEqual(t, result.Scores[0], result.Scores[len(result.Scores)-1])

	require.NotEmpty(t, result.Explanations)
	for courseID, text := range result.Explanations {
		assert.Contains(t, text, "Fulfills", "course %s", courseID)
	}

	assert.Empty(t, result.LockConflicts)
	assert.Greater(t, result.Stats.NodesGenerated, 0)
	assert.False(t, result.Stats.Truncated)
}

func TestGenerateSingleMandatoryGroupYieldsOnePlan(t *testing.T) {
	in := Input{
		Groups: []GroupInput{
			{
				GroupID:            "core-ops",
				Title:              "Operations Core",
				Type:               models.GroupAllOf,
				Needed:             1,
				CandidateCourseIDs: []string{"BUS-201"},
			},
		},
		SectionsByCourse: map[string][]models.Section{
			"BUS-201": {
				testSection("BUS-201-A", "BUS-201", "",
					meetAt(models.DayMonday, "09:00", "10:15"),
					meetAt(models.DayWednesday, "09:00", "10:15"),
				),
				testSection("BUS-201-B", "BUS-201", "",
					meetAt(models.DayTuesday, "11:00", "12:15"),
					meetAt(models.DayThursday, "11:00", "12:15"),
				),
			},
		},
		Prefs: models.Preferences{
			DaysOff: []models.Day{models.DayFriday},
		},
		RequiredCourseIDs: map[string]struct{}{"BUS-201": {}},
		Courses:           businessCatalog(),
		TargetCredits:     9,
		BeamSize:          6,
		MaxNodes:          1500,
	}

	result, err := Generate(in)
	require.NoError(t, err)

	// Both sections cover the same course set, so they collapse to one plan.
	assert.Len(t, result.Scores, 1)
	assert.Empty(t, result.Backups)
	require.Len(t, result.Primary, 1)
	assert.Equal(t, "BUS-201", result.Primary[0].CourseID)
	assert.Empty(t, result.LockConflicts)
}

func TestGenerateSchedulesStayWithinCreditCap(t *testing.T) {
	in := businessInput()
	result, err := Generate(in)
	require.NoError(t, err)
	require.NotEmpty(t, result.Primary)

	catalog := businessCatalog()
	limit := in.TargetCredits + CreditBuffer(in.TargetCredits)
	schedules := append([][]models.Section{result.Primary}, result.Backups...)
	for _, schedule := range schedules {
		credits := 0
		seen := make(map[string]struct{})
		for _, sec := range schedule {
			if _, ok := seen[sec.CourseID]; ok {
				continue
			}
			seen[sec.CourseID] = struct{}{}
			credits += catalog[sec.CourseID].Credits
		}
		assert.LessOrEqual(t, credits, limit)
	}
}

func TestGeneratePrimaryHasNoMeetingOverlaps(t *testing.T) {
	result, err := Generate(businessInput())
	require.NoError(t, err)
	require.NotEmpty(t, result.Primary)

	schedules := append([][]models.Section{result.Primary}, result.Backups...)
	for _, schedule := range schedules {
		compiled := make([]*section, 0, len(schedule))
		for _, ref := range schedule {
			compiled = append(compiled, compileTestSection(t, ref))
		}
		for i := 0; i < len(compiled); i++ {
			for j := i + 1; j < len(compiled); j++ {
				assert.False(t, compiled[i].overlaps(compiled[j]),
					"%s overlaps %s", compiled[i].ref.ID, compiled[j].ref.ID)
			}
		}
	}
}

func TestGenerateBackupsUseDistinctCourseCombinations(t *testing.T) {
	result, err := Generate(businessInput())
	require.NoError(t, err)

	seen := make(map[string]bool)
	schedules := append([][]models.Section{result.Primary}, result.Backups...)
	for _, schedule := range schedules {
		sig := courseSetSignature(courseIDsOf(schedule))
		assert.False(t, seen[sig], "duplicate course combination %s", sig)
		seen[sig] = true
	}

	assert.Empty(t, result.LockConflicts)
}

func TestGenerateIsDeterministic(t *testing.T) {
	first, err := Generate(businessInput())
	require.NoError(t, err)
	second, err := Generate(businessInput())
	require.NoError(t, err)

	assert.Equal(t, first.Scores, second.Scores)
	assert.Equal(t, sectionIDsOf(first.Primary), sectionIDsOf(second.Primary))
	require.Equal(t, len(first.Backups), len(second.Backups))
	for i := range first.Backups {
		assert.Equal(t, sectionIDsOf(first.Backups[i]), sectionIDsOf(second.Backups[i]))
	}
}

func TestGenerateHonorsCleanLock(t *testing.T) {
	in := businessInput()
	in.LockedSectionIDs = []string{"BUS-201-B"}

	result, err := Generate(in)
	require.NoError(t, err)
	require.NotEmpty(t, result.Primary)

	assert.Contains(t, sectionIDsOf(result.Primary), "BUS-201-B")
	assert.Empty(t, result.LockConflicts)
}

func TestGenerateReportsPreferenceConflictsForLocks(t *testing.T) {
	in := businessInput()
	in.Prefs.Earliest = "10:00"
	in.LockedSectionIDs = []string{"BUS-201-A"}

	result, err := Generate(in)
	require.NoError(t, err)

	// A window clash is advisory: the lock still seeds and generation
	// proceeds, but the reason is surfaced.
	assert.NotEmpty(t, result.Primary)
	assert.Contains(t, result.LockConflicts["BUS-201"], "Starts before preferred time")
}

func TestGenerateHaltsWhenLockedSectionsOverlap(t *testing.T) {
	in := businessInput()
	in.SectionsByCourse["FIN-310"] = append(in.SectionsByCourse["FIN-310"],
		testSection("FIN-310-Z", "FIN-310", "",
			meetAt(models.DayMonday, "09:00", "10:15"),
			meetAt(models.DayWednesday, "09:00", "10:15"),
		),
	)
	in.LockedSectionIDs = []string{"BUS-201-A", "FIN-310-Z"}

	result, err := Generate(in)
	require.NoError(t, err)

	assert.Empty(t, result.Primary)
	require.Contains(t, result.LockConflicts, "FIN-310")
	assert.Contains(t, result.LockConflicts["FIN-310"], "Overlaps with")
}

func TestGenerateFailsFastOnEmptyRequiredPool(t *testing.T) {
	in := businessInput()
	in.Groups = append(in.Groups, GroupInput{
		GroupID: "capstone",
		Title:   "Capstone",
		Type:    models.GroupAllOf,
		Needed:  1,
	})

	result, err := Generate(in)
	require.NoError(t, err)

	assert.Empty(t, result.Primary)
	assert.Empty(t, result.Backups)
	assert.Empty(t, result.Scores)
	assert.Zero(t, result.Stats.NodesGenerated)
}

func TestGenerateDegradesGracefullyUnderTinyNodeBudget(t *testing.T) {
	in := businessInput()
	in.MaxNodes = 3

	result, err := Generate(in)
	require.NoError(t, err)

	assert.True(t, result.Stats.Truncated)
	assert.LessOrEqual(t, result.Stats.NodesGenerated, 3)
}

func TestGenerateRejectsMalformedCatalogData(t *testing.T) {
	in := businessInput()
	in.SectionsByCourse["BUS-201"][0].Meetings[0].Start = "nine"

	_, err := Generate(in)
	assert.ErrorIs(t, err, ErrInvalidTimeOfDay)
}

func TestCreditBuffer(t *testing.T) {
	assert.Equal(t, 3, CreditBuffer(9))
	assert.Equal(t, 3, CreditBuffer(15))
	assert.Equal(t, 4, CreditBuffer(20))
	assert.Equal(t, 3, CreditBuffer(0))
}

func sectionIDsOf(sections []models.Section) []string {
	ids := make([]string, 0, len(sections))
	for _, sec := range sections {
		ids = append(ids, sec.ID)
	}
	return ids
}

func courseSetSignature(ids map[string]struct{}) string {
	keys := make([]string, 0, len(ids))
	for id := range ids {
		keys = append(keys, id)
	}
	sort.Strings(keys)
	return strings.Join(keys, "|")
}
