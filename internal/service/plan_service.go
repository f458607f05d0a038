package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusdesk/course-planner-api/internal/dto"
	"github.com/campusdesk/course-planner-api/internal/models"
	"github.com/campusdesk/course-planner-api/internal/planner"
	"github.com/campusdesk/course-planner-api/internal/requirements"
	appErrors "github.com/campusdesk/course-planner-api/pkg/errors"
)

const defaultTargetCredits = 15

type planCatalog interface {
	Snapshot(ctx context.Context, termID string) (*CatalogSnapshot, error)
	GetTerm(ctx context.Context, id string) (*models.Term, error)
	GetMajor(ctx context.Context, id string) (*models.Major, error)
}

// PlanConfig governs plan generation behaviour.
type PlanConfig struct {
	BeamSize    int
	MaxNodes    int
	ProposalTTL time.Duration
}

// PlanService orchestrates requirement resolution and schedule generation
// into plan proposals. Proposals live in memory until their TTL lapses; a
// lock update regenerates and supersedes the stored proposal in place.
type PlanService struct {
	catalog   planCatalog
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	beamSize  int
	maxNodes  int
	store     *proposalStore
}

// NewPlanService wires planner dependencies.
func NewPlanService(catalog planCatalog, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg PlanConfig) *PlanService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BeamSize <= 0 {
		cfg.BeamSize = planner.DefaultBeamSize
	}
	if cfg.MaxNodes <= 0 {
		cfg.MaxNodes = planner.DefaultMaxNodes
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	return &PlanService{
		catalog:   catalog,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		beamSize:  cfg.BeamSize,
		maxNodes:  cfg.MaxNodes,
		store:     newProposalStore(cfg.ProposalTTL),
	}
}

// Generate builds ranked schedule proposals for one student and term.
func (s *PlanService) Generate(ctx context.Context, req dto.GeneratePlanRequest) (*dto.GeneratePlanResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid plan generation payload")
	}
	return s.generate(ctx, req, uuid.NewString())
}

// GetProposal returns a previously generated proposal.
func (s *PlanService) GetProposal(id string) (*dto.GeneratePlanResponse, error) {
	proposal, ok, expired := s.store.Get(id)
	if expired {
		return nil, appErrors.Clone(appErrors.ErrProposalExpired, "plan proposal expired")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "plan proposal not found")
	}
	return proposal.Response, nil
}

// UpdateLocks regenerates a proposal with a replacement locked-section set.
// The regenerated result replaces the stored one under the same proposal ID.
func (s *PlanService) UpdateLocks(ctx context.Context, proposalID string, req dto.UpdateLocksRequest) (*dto.GeneratePlanResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lock update payload")
	}
	proposal, ok, expired := s.store.Get(proposalID)
	if expired {
		return nil, appErrors.Clone(appErrors.ErrProposalExpired, "plan proposal expired")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "plan proposal not found")
	}

	regen := proposal.Request
	regen.LockedSectionIDs = req.LockedSectionIDs
	return s.generate(ctx, regen, proposalID)
}

func (s *PlanService) generate(ctx context.Context, req dto.GeneratePlanRequest, proposalID string) (*dto.GeneratePlanResponse, error) {
	start := time.Now()

	if _, err := s.catalog.GetTerm(ctx, req.TermID); err != nil {
		return nil, err
	}
	major, err := s.catalog.GetMajor(ctx, req.Student.MajorID)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.catalog.Snapshot(ctx, req.TermID)
	if err != nil {
		return nil, err
	}

	profile := models.StudentProfile{
		ID:                 req.Student.ID,
		Name:               req.Student.Name,
		MajorIDs:           []string{req.Student.MajorID},
		CatalogYear:        req.Student.CatalogYear,
		CompletedCourseIDs: req.Student.CompletedCourseIDs,
		Preferences:        req.Preferences,
		InterestTags:       req.Student.InterestTags,
	}

	catalog := catalogSlice(snapshot.Courses)
	summary := requirements.ComputeRemaining(profile, *major, catalog)

	target := req.Preferences.TargetCredits
	if target <= 0 {
		target = defaultTargetCredits
	}

	input := planner.Input{
		Groups:            plannerGroups(summary.RemainingGroups, snapshot.SectionsByCourse),
		SectionsByCourse:  snapshot.SectionsByCourse,
		Prefs:             req.Preferences,
		RequiredCourseIDs: summary.RequiredCourseIDs,
		InterestByCourse:  interestByCourse(catalog, req.Student.InterestTags),
		Courses:           snapshot.Courses,
		TargetCredits:     target,
		BeamSize:          s.beamSize,
		MaxNodes:          s.maxNodes,
		LockedSectionIDs:  req.LockedSectionIDs,
	}

	result, err := planner.Generate(input)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrMalformedCatalog.Code, appErrors.ErrMalformedCatalog.Status, "catalog data cannot be scheduled")
	}

	resp := buildPlanResponse(proposalID, result)
	s.store.Save(planProposal{
		ProposalID:  proposalID,
		Request:     req,
		Response:    resp,
		RequestedAt: time.Now().UTC(),
	})

	elapsed := time.Since(start)
	s.metrics.ObservePlanGeneration(string(resp.Status), result.Stats.NodesGenerated, elapsed)
	s.logger.Info("plan generated",
		zap.String("proposal_id", proposalID),
		zap.String("term_id", req.TermID),
		zap.String("status", string(resp.Status)),
		zap.Int("nodes", result.Stats.NodesGenerated),
		zap.Bool("truncated", result.Stats.Truncated),
		zap.Duration("elapsed", elapsed),
	)
	return resp, nil
}

func buildPlanResponse(proposalID string, result planner.Result) *dto.GeneratePlanResponse {
	status := dto.PlanStatusOK
	if len(result.Primary) == 0 {
		status = dto.PlanStatusInfeasible
		if len(result.LockConflicts) > 0 {
			status = dto.PlanStatusLockConflict
		}
	}

	var primary *dto.PlanSchedule
	if len(result.Primary) > 0 {
		primary = &dto.PlanSchedule{Sections: result.Primary, Score: result.Scores[0]}
	}
	backups := make([]dto.PlanSchedule, 0, len(result.Backups))
	for i, sections := range result.Backups {
		backups = append(backups, dto.PlanSchedule{Sections: sections, Score: result.Scores[i+1]})
	}

	return &dto.GeneratePlanResponse{
		ProposalID:    proposalID,
		Status:        status,
		Primary:       primary,
		Backups:       backups,
		Explanations:  result.Explanations,
		LockConflicts: result.LockConflicts,
		Stats:         result.Stats,
		GeneratedAt:   time.Now().UTC(),
	}
}

// plannerGroups narrows each candidate pool to courses offered this term. A
// required group whose pool empties out stays in the input so generation
// reports infeasibility instead of silently skipping the requirement.
func plannerGroups(remaining []requirements.RemainingGroup, sectionsByCourse map[string][]models.Section) []planner.GroupInput {
	groups := make([]planner.GroupInput, 0, len(remaining))
	for _, group := range remaining {
		offered := make([]string, 0, len(group.CandidateCourseIDs))
		for _, courseID := range group.CandidateCourseIDs {
			if len(sectionsByCourse[courseID]) > 0 {
				offered = append(offered, courseID)
			}
		}
		groups = append(groups, planner.GroupInput{
			GroupID:            group.ID,
			Title:              group.Title,
			Type:               group.Type,
			Needed:             group.Needed,
			CandidateCourseIDs: offered,
		})
	}
	return groups
}

// interestByCourse scores each tagged course against the student's interest
// profile. Courses with no matching tags are left out so the engine applies
// its neutral default.
func interestByCourse(catalog []models.Course, interestTags map[string]float64) map[string]float64 {
	scores := make(map[string]float64)
	if len(interestTags) == 0 {
		return scores
	}
	for _, course := range catalog {
		matched := false
		for _, tag := range course.Tags {
			if _, ok := interestTags[tag]; ok {
				matched = true
				break
			}
		}
		if matched {
			scores[course.ID] = requirements.ScoreByInterest(course.Tags, interestTags)
		}
	}
	return scores
}

func catalogSlice(courses map[string]models.Course) []models.Course {
	ids := make([]string, 0, len(courses))
	for id := range courses {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	list := make([]models.Course, 0, len(ids))
	for _, id := range ids {
		list = append(list, courses[id])
	}
	return list
}

// --- Proposal cache ---

type planProposal struct {
	ProposalID  string
	Request     dto.GeneratePlanRequest
	Response    *dto.GeneratePlanResponse
	RequestedAt time.Time
}

type proposalStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]planProposal
}

func newProposalStore(ttl time.Duration) *proposalStore {
	return &proposalStore{
		ttl:   ttl,
		items: make(map[string]planProposal),
	}
}

func (s *proposalStore) Save(proposal planProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[proposal.ProposalID] = proposal
}

// Get reports whether a proposal exists and whether it lapsed. Expired
// entries are dropped on read.
func (s *proposalStore) Get(id string) (planProposal, bool, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return planProposal{}, false, false
	}
	if time.Since(proposal.RequestedAt) > s.ttl {
		s.Delete(id)
		return planProposal{}, false, true
	}
	return proposal, true, false
}

func (s *proposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
