package dto

import (
	"time"

	"github.com/campusdesk/course-planner-api/internal/models"
	"github.com/campusdesk/course-planner-api/internal/planner"
)

// PlanStatus distinguishes the outcomes of a generation run.
type PlanStatus string

const (
	// PlanStatusOK means a primary schedule was produced.
	PlanStatusOK PlanStatus = "OK"
	// PlanStatusLockConflict means the locked sections are mutually
	// unsatisfiable and generation was aborted.
	PlanStatusLockConflict PlanStatus = "LOCK_CONFLICT"
	// PlanStatusInfeasible means no conflict-free schedule exists for the
	// remaining requirements.
	PlanStatusInfeasible PlanStatus = "INFEASIBLE"
)

// StudentProfileRequest carries the student context for plan generation.
// Profiles are supplied by the caller rather than persisted here.
type StudentProfileRequest struct {
	ID                 string             `json:"id" validate:"required"`
	Name               string             `json:"name"`
	MajorID            string             `json:"majorId" validate:"required"`
	CatalogYear        string             `json:"catalogYear"`
	CompletedCourseIDs []string           `json:"completedCourseIds"`
	InterestTags       map[string]float64 `json:"interestTags"`
}

// GeneratePlanRequest instructs the planner to build schedule proposals for
// one term.
type GeneratePlanRequest struct {
	TermID           string                `json:"termId" validate:"required"`
	Student          StudentProfileRequest `json:"student" validate:"required"`
	Preferences      models.Preferences    `json:"preferences"`
	LockedSectionIDs []string              `json:"lockedSectionIds"`
}

// UpdateLocksRequest re-invokes generation for an existing proposal with a
// replacement locked-section set. The new result supersedes the stored one.
type UpdateLocksRequest struct {
	LockedSectionIDs []string `json:"lockedSectionIds" validate:"required"`
}

// PlanSchedule is one generated schedule with its score.
type PlanSchedule struct {
	Sections []models.Section `json:"sections"`
	Score    float64          `json:"score"`
}

// GeneratePlanResponse returns the ranked proposals for a generation run.
type GeneratePlanResponse struct {
	ProposalID    string              `json:"proposalId"`
	Status        PlanStatus          `json:"status"`
	Primary       *PlanSchedule       `json:"primary,omitempty"`
	Backups       []PlanSchedule      `json:"backups"`
	Explanations  map[string]string   `json:"explanations"`
	LockConflicts map[string]string   `json:"lockConflicts"`
	Stats         planner.SearchStats `json:"stats"`
	GeneratedAt   time.Time           `json:"generatedAt"`
}
