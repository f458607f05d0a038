package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campusdesk/course-planner-api/internal/models"
	appErrors "github.com/campusdesk/course-planner-api/pkg/errors"
)

type catalogCourseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ListAll(ctx context.Context) ([]models.Course, error)
}

type catalogSectionRepository interface {
	ListByCourse(ctx context.Context, courseID, termID string) ([]models.Section, error)
	ListByTerm(ctx context.Context, termID string) ([]models.Section, error)
}

type catalogTermRepository interface {
	List(ctx context.Context) ([]models.Term, error)
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

type catalogMajorRepository interface {
	FindByID(ctx context.Context, id string) (*models.Major, error)
	List(ctx context.Context) ([]models.Major, error)
}

// CatalogSnapshot is the full course and section inventory for one term,
// assembled once per generation run and cached in Redis.
type CatalogSnapshot struct {
	TermID           string                      `json:"term_id"`
	Courses          map[string]models.Course    `json:"courses"`
	SectionsByCourse map[string][]models.Section `json:"sections_by_course"`
}

// CatalogService serves catalog reads and term-scoped snapshots for the
// planner.
type CatalogService struct {
	courses  catalogCourseRepository
	sections catalogSectionRepository
	terms    catalogTermRepository
	majors   catalogMajorRepository
	cache    *CacheService
	metrics  *MetricsService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewCatalogService wires catalog dependencies.
func NewCatalogService(
	courses catalogCourseRepository,
	sections catalogSectionRepository,
	terms catalogTermRepository,
	majors catalogMajorRepository,
	cache *CacheService,
	metrics *MetricsService,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *CatalogService {
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		courses:  courses,
		sections: sections,
		terms:    terms,
		majors:   majors,
		cache:    cache,
		metrics:  metrics,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

func snapshotCacheKey(termID string) string {
	return fmt.Sprintf("catalog:snapshot:%s", termID)
}

// Snapshot returns the catalog snapshot for a term, reading through the
// cache. A cache failure degrades to a direct database read.
func (s *CatalogService) Snapshot(ctx context.Context, termID string) (*CatalogSnapshot, error) {
	key := snapshotCacheKey(termID)
	var snapshot CatalogSnapshot
	if hit, err := s.cache.Get(ctx, key, &snapshot); err == nil && hit {
		return &snapshot, nil
	}

	built, err := s.buildSnapshot(ctx, termID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, built, s.cacheTTL); err != nil {
		s.logger.Warn("catalog snapshot cache write failed", zap.String("term_id", termID), zap.Error(err))
	}
	return built, nil
}

func (s *CatalogService) buildSnapshot(ctx context.Context, termID string) (*CatalogSnapshot, error) {
	start := time.Now()
	courses, err := s.courses.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course catalog")
	}
	s.metrics.ObserveDBQuery("catalog_courses", time.Since(start))

	start = time.Now()
	sections, err := s.sections.ListByTerm(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term sections")
	}
	s.metrics.ObserveDBQuery("catalog_sections", time.Since(start))

	byID := make(map[string]models.Course, len(courses))
	for _, course := range courses {
		byID[course.ID] = course
	}
	byCourse := make(map[string][]models.Section)
	for _, section := range sections {
		byCourse[section.CourseID] = append(byCourse[section.CourseID], section)
	}

	return &CatalogSnapshot{TermID: termID, Courses: byID, SectionsByCourse: byCourse}, nil
}

// Invalidate drops cached snapshots, used when catalog data changes.
func (s *CatalogService) Invalidate(ctx context.Context) error {
	return s.cache.Invalidate(ctx, "catalog:snapshot:*")
}

// ListTerms returns all academic terms, most recent first.
func (s *CatalogService) ListTerms(ctx context.Context) ([]models.Term, error) {
	terms, err := s.terms.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list terms")
	}
	return terms, nil
}

// GetTerm returns one term by identifier.
func (s *CatalogService) GetTerm(ctx context.Context, id string) (*models.Term, error) {
	term, err := s.terms.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	if term == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
	}
	return term, nil
}

// GetMajor returns a major with its requirement groups.
func (s *CatalogService) GetMajor(ctx context.Context, id string) (*models.Major, error) {
	major, err := s.majors.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load major")
	}
	if major == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "major not found")
	}
	return major, nil
}

// ListCourses returns paginated catalog courses.
func (s *CatalogService) ListCourses(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	return courses, models.NewPagination(page, filter.PageSize, total), nil
}

// ListSections returns the meeting sections for one course, optionally
// scoped to a term.
func (s *CatalogService) ListSections(ctx context.Context, courseID, termID string) ([]models.Section, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}

	sections, err := s.sections.ListByCourse(ctx, courseID, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	return sections, nil
}
