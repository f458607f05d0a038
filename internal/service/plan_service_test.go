package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusdesk/course-planner-api/internal/dto"
	"github.com/campusdesk/course-planner-api/internal/models"
	appErrors "github.com/campusdesk/course-planner-api/pkg/errors"
)

type planCatalogStub struct {
	snapshot *CatalogSnapshot
	major    *models.Major
}

func (s planCatalogStub) Snapshot(ctx context.Context, termID string) (*CatalogSnapshot, error) {
	return s.snapshot, nil
}

func (s planCatalogStub) GetTerm(ctx context.Context, id string) (*models.Term, error) {
	if id != "2026-FA" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
	}
	return &models.Term{ID: id, Name: "Fall 2026"}, nil
}

func (s planCatalogStub) GetMajor(ctx context.Context, id string) (*models.Major, error) {
	if s.major == nil || s.major.ID != id {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "major not found")
	}
	return s.major, nil
}

func planFixtureCourse(id, code string, credits int, tags ...string) models.Course {
	return models.Course{ID: id, Code: code, Title: code, Credits: credits, Tags: tags}
}

func planFixtureSection(id, courseID string, day models.Day, start, end string) models.Section {
	return models.Section{
		ID:       id,
		CourseID: courseID,
		Label:    "Sec " + id,
		TermID:   "2026-FA",
		Meetings: []models.Meeting{{Day: day, Start: start, End: end}},
	}
}

func newPlanFixture(t *testing.T) (*PlanService, planCatalogStub) {
	t.Helper()

	courses := map[string]models.Course{
		"BUS-201": planFixtureCourse("BUS-201", "BUS 201", 3, "management"),
		"FIN-310": planFixtureCourse("FIN-310", "FIN 310", 3, "finance"),
		"MKT-220": planFixtureCourse("MKT-220", "MKT 220", 3, "marketing"),
	}
	sections := map[string][]models.Section{
		"BUS-201": {
			planFixtureSection("BUS-201-A", "BUS-201", models.DayMonday, "09:00", "10:15"),
			planFixtureSection("BUS-201-B", "BUS-201", models.DayTuesday, "13:00", "14:15"),
		},
		"FIN-310": {
			planFixtureSection("FIN-310-A", "FIN-310", models.DayWednesday, "10:00", "11:15"),
		},
		"MKT-220": {
			planFixtureSection("MKT-220-A", "MKT-220", models.DayThursday, "09:00", "10:15"),
		},
	}
	chooseOne := 1
	major := &models.Major{
		ID:          "BUS-BA",
		Name:        "Business Administration",
		CatalogYear: "2025",
		RequirementGroups: []models.RequirementGroup{
			{ID: "core", Title: "Business Core", AllOf: []string{"BUS-201"}},
			{ID: "elective", Title: "Business Elective", ChooseN: &chooseOne, AnyOf: []string{"FIN-310", "MKT-220"}},
		},
	}

	catalog := planCatalogStub{
		snapshot: &CatalogSnapshot{TermID: "2026-FA", Courses: courses, SectionsByCourse: sections},
		major:    major,
	}
	service := NewPlanService(catalog, nil, nil, nil, PlanConfig{ProposalTTL: time.Minute})
	return service, catalog
}

func planFixtureRequest() dto.GeneratePlanRequest {
	return dto.GeneratePlanRequest{
		TermID: "2026-FA",
		Student: dto.StudentProfileRequest{
			ID:           "stu-1",
			MajorID:      "BUS-BA",
			InterestTags: map[string]float64{"finance": 0.9},
		},
		Preferences: models.Preferences{TargetCredits: 6},
	}
}

func TestPlanServiceGenerateReturnsRankedProposal(t *testing.T) {
	service, _ := newPlanFixture(t)

	resp, err := service.Generate(context.Background(), planFixtureRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ProposalID)
	assert.Equal(t, dto.PlanStatusOK, resp.Status)
	require.NotNil(t, resp.Primary)
	assert.Len(t, resp.Primary.Sections, 2)
	assert.Empty(t, resp.LockConflicts)
	assert.Greater(t, resp.Primary.Score, 0.0)
	assert.NotEmpty(t, resp.Explanations)
}

func TestPlanServiceGenerateRejectsMissingTerm(t *testing.T) {
	service, _ := newPlanFixture(t)

	req := planFixtureRequest()
	req.TermID = "1999-SP"
	_, err := service.Generate(context.Background(), req)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestPlanServiceGenerateRejectsInvalidPayload(t *testing.T) {
	service, _ := newPlanFixture(t)

	_, err := service.Generate(context.Background(), dto.GeneratePlanRequest{})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestPlanServiceGetProposalRoundTrip(t *testing.T) {
	service, _ := newPlanFixture(t)

	resp, err := service.Generate(context.Background(), planFixtureRequest())
	require.NoError(t, err)

	stored, err := service.GetProposal(resp.ProposalID)
	require.NoError(t, err)
	assert.Equal(t, resp.ProposalID, stored.ProposalID)
	assert.Equal(t, resp.Status, stored.Status)
}

func TestPlanServiceGetProposalMissing(t *testing.T) {
	service, _ := newPlanFixture(t)

	_, err := service.GetProposal("nope")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestPlanServiceGetProposalExpired(t *testing.T) {
	service, _ := newPlanFixture(t)
	service.store.ttl = time.Nanosecond

	resp, err := service.Generate(context.Background(), planFixtureRequest())
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	_, err = service.GetProposal(resp.ProposalID)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrProposalExpired.Code, appErr.Code)
}

func TestPlanServiceUpdateLocksSupersedesProposal(t *testing.T) {
	service, _ := newPlanFixture(t)

	resp, err := service.Generate(context.Background(), planFixtureRequest())
	require.NoError(t, err)

	updated, err := service.UpdateLocks(context.Background(), resp.ProposalID, dto.UpdateLocksRequest{
		LockedSectionIDs: []string{"BUS-201-B"},
	})
	require.NoError(t, err)
	assert.Equal(t, resp.ProposalID, updated.ProposalID)
	assert.Equal(t, dto.PlanStatusOK, updated.Status)

	ids := make([]string, 0, len(updated.Primary.Sections))
	for _, sec := range updated.Primary.Sections {
		ids = append(ids, sec.ID)
	}
	assert.Contains(t, ids, "BUS-201-B")

	stored, err := service.GetProposal(resp.ProposalID)
	require.NoError(t, err)
	assert.Equal(t, updated.GeneratedAt, stored.GeneratedAt)
}

func TestPlanServiceUpdateLocksReportsConflicts(t *testing.T) {
	service, catalog := newPlanFixture(t)
	overlapping := planFixtureSection("FIN-310-X", "FIN-310", models.DayMonday, "09:30", "10:45")
	catalog.snapshot.SectionsByCourse["FIN-310"] = append(catalog.snapshot.SectionsByCourse["FIN-310"], overlapping)

	resp, err := service.Generate(context.Background(), planFixtureRequest())
	require.NoError(t, err)

	updated, err := service.UpdateLocks(context.Background(), resp.ProposalID, dto.UpdateLocksRequest{
		LockedSectionIDs: []string{"BUS-201-A", "FIN-310-X"},
	})
	require.NoError(t, err)
	assert.Equal(t, dto.PlanStatusLockConflict, updated.Status)
	assert.Nil(t, updated.Primary)
	assert.NotEmpty(t, updated.LockConflicts)
}

func TestPlanServiceGenerateInfeasibleWhenRequiredCourseUnoffered(t *testing.T) {
	service, catalog := newPlanFixture(t)
	delete(catalog.snapshot.SectionsByCourse, "BUS-201")

	resp, err := service.Generate(context.Background(), planFixtureRequest())
	require.NoError(t, err)
	assert.Equal(t, dto.PlanStatusInfeasible, resp.Status)
	assert.Nil(t, resp.Primary)
	assert.Empty(t, resp.LockConflicts)
}
