package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusdesk/course-planner-api/internal/models"
)

func meetAt(day models.Day, start, end string) models.Meeting {
	return models.Meeting{Day: day, Start: start, End: end}
}

func testSection(id, courseID, linkedWith string, meetings ...models.Meeting) models.Section {
	return models.Section{
		ID:         id,
		CourseID:   courseID,
		Label:      id,
		Meetings:   meetings,
		TermID:     "TERM-1",
		LinkedWith: linkedWith,
	}
}

func compileTestSection(t *testing.T, ref models.Section) *section {
	t.Helper()
	sec, err := compileSection(ref)
	require.NoError(t, err)
	return sec
}

func TestParseMinutes(t *testing.T) {
	v, err := ParseMinutes("09:30")
	require.NoError(t, err)
	assert.Equal(t, 570, v)

	_, err = ParseMinutes("25:00")
	assert.ErrorIs(t, err, ErrInvalidTimeOfDay)

	_, err = ParseMinutes("lunch")
	assert.ErrorIs(t, err, ErrInvalidTimeOfDay)

	_, err = ParseMinutes("09:30xyz")
	assert.ErrorIs(t, err, ErrInvalidTimeOfDay)

	_, err = ParseMinutes("x09:30")
	assert.ErrorIs(t, err, ErrInvalidTimeOfDay)

	_, err = ParseMinutes("0930")
	assert.ErrorIs(t, err, ErrInvalidTimeOfDay)
}

func TestRangeOverlaps(t *testing.T) {
	a := Range{Start: 540, End: 600}
	assert.True(t, a.Overlaps(Range{Start: 585, End: 630}))
	// Half-open: touching endpoints do not overlap.
	assert.False(t, a.Overlaps(Range{Start: 600, End: 660}))
}

func TestDayIndex(t *testing.T) {
	idx, err := DayIndex(models.DayMonday)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	idx, err = DayIndex(models.DayThursday)
	require.NoError(t, err)
	assert.Equal(t, 3, idx)

	_, err = DayIndex(models.Day("S"))
	assert.ErrorIs(t, err, ErrInvalidDayCode)
}

func TestSectionOverlaps(t *testing.T) {
	tueThu := compileTestSection(t, testSection("SEC-TR", "COURSE-1", "",
		meetAt(models.DayTuesday, "09:30", "10:45"),
		meetAt(models.DayThursday, "09:30", "10:45"),
	))
	monWedFri := compileTestSection(t, testSection("SEC-MWF", "COURSE-2", "",
		meetAt(models.DayMonday, "09:00", "09:50"),
		meetAt(models.DayWednesday, "09:00", "09:50"),
		meetAt(models.DayFriday, "09:00", "09:50"),
	))
	clashing := compileTestSection(t, testSection("SEC-TR2", "COURSE-3", "",
		meetAt(models.DayTuesday, "10:00", "11:15"),
		meetAt(models.DayThursday, "10:00", "11:15"),
	))

	assert.True(t, tueThu.overlaps(clashing))
	assert.False(t, tueThu.overlaps(monWedFri))
}

func TestViolatesProtectedAndWindow(t *testing.T) {
	compiled, err := compilePrefs(models.Preferences{
		Earliest: "08:00",
		Latest:   "17:00",
		ProtectedBlocks: []models.ProtectedBlock{
			{Day: models.DayTuesday, Start: "10:30", End: "12:00", Label: "Club"},
			{Day: models.DayThursday, Start: "14:00", End: "15:30", Label: "Work"},
		},
	})
	require.NoError(t, err)

	tueThu := compileTestSection(t, testSection("SEC-TR", "COURSE-1", "",
		meetAt(models.DayTuesday, "09:30", "10:45"),
		meetAt(models.DayThursday, "09:30", "10:45"),
	))
	monWed := compileTestSection(t, testSection("SEC-MW", "COURSE-2", "",
		meetAt(models.DayMonday, "09:00", "09:50"),
		meetAt(models.DayWednesday, "09:00", "09:50"),
	))
	early := compileTestSection(t, testSection("EARLY", "COURSE-4", "",
		meetAt(models.DayMonday, "07:00", "08:15"),
	))
	late := compileTestSection(t, testSection("LATE", "COURSE-5", "",
		meetAt(models.DayThursday, "16:30", "18:00"),
	))

	assert.True(t, compiled.violatesProtected(tueThu))
	assert.False(t, compiled.violatesProtected(monWed))

	assert.True(t, compiled.violatesWindow(early))
	assert.True(t, compiled.violatesWindow(late))
	assert.False(t, compiled.violatesWindow(monWed))
}

func TestGatherLinkedFollowsChains(t *testing.T) {
	lecture := compileTestSection(t, testSection("LECTURE", "SCI-101", "LAB",
		meetAt(models.DayMonday, "13:00", "14:15"),
	))
	lab := compileTestSection(t, testSection("LAB", "SCI-101", "RECITATION",
		meetAt(models.DayFriday, "10:00", "12:00"),
	))
	recitation := compileTestSection(t, testSection("RECITATION", "SCI-101", "LECTURE",
		meetAt(models.DayWednesday, "15:00", "15:50"),
	))
	index := map[string]*section{
		"LECTURE":    lecture,
		"LAB":        lab,
		"RECITATION": recitation,
	}

	// Three-member cycle: traversal must terminate and visit every member
	// exactly once, starting section first.
	group := gatherLinked(lab, index)
	require.Len(t, group, 3)
	assert.Equal(t, "LAB", group[0].ref.ID)

	ids := make(map[string]struct{})
	for _, sec := range group {
		ids[sec.ref.ID] = struct{}{}
	}
	assert.Contains(t, ids, "LECTURE")
	assert.Contains(t, ids, "RECITATION")
}

func TestPartitionLinkedGroupsPairsAndSingles(t *testing.T) {
	lecture := compileTestSection(t, testSection("LECTURE", "SCI-101", "LAB",
		meetAt(models.DayMonday, "13:00", "14:15"),
		meetAt(models.DayWednesday, "13:00", "14:15"),
	))
	lab := compileTestSection(t, testSection("LAB", "SCI-101", "LECTURE",
		meetAt(models.DayFriday, "10:00", "12:00"),
	))
	standalone := compileTestSection(t, testSection("SEC-TR", "COURSE-1", "",
		meetAt(models.DayTuesday, "09:30", "10:45"),
	))

	groups := partitionLinked([]*section{lecture, lab, standalone})
	require.Len(t, groups, 2)

	pairIDs := make(map[string]struct{})
	for _, sec := range groups[0] {
		pairIDs[sec.ref.ID] = struct{}{}
	}
	assert.Equal(t, map[string]struct{}{"LECTURE": {}, "LAB": {}}, pairIDs)

	require.Len(t, groups[1], 1)
	assert.Equal(t, "SEC-TR", groups[1][0].ref.ID)
}
