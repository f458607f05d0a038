package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/campusdesk/course-planner-api/internal/models"
)

// CourseRepository handles persistence for the course catalog.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new repository instance.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// courseRow is the scan target: tags, prereqs, and equivalents live in JSONB
// columns.
type courseRow struct {
	models.Course
	Tags        types.JSONText `db:"tags"`
	Prereqs     types.JSONText `db:"prereqs"`
	Equivalents types.JSONText `db:"equivalents"`
}

func (row *courseRow) toModel() (models.Course, error) {
	course := row.Course
	if err := decodeJSONList(row.Tags, &course.Tags); err != nil {
		return models.Course{}, fmt.Errorf("course %s tags: %w", course.ID, err)
	}
	if err := decodeJSONList(row.Prereqs, &course.Prereqs); err != nil {
		return models.Course{}, fmt.Errorf("course %s prereqs: %w", course.ID, err)
	}
	if err := decodeJSONList(row.Equivalents, &course.Equivalents); err != nil {
		return models.Course{}, fmt.Errorf("course %s equivalents: %w", course.ID, err)
	}
	return course, nil
}

func decodeJSONList(raw types.JSONText, dest *[]string) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}

const courseColumns = "id, code, title, credits, level, tags, prereqs, equivalents, created_at, updated_at"

// List returns catalog courses matching filters with pagination metadata.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	base := "FROM courses WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(code) LIKE $%d OR LOWER(title) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.Tag != "" {
		conditions = append(conditions, fmt.Sprintf("tags ? $%d", len(args)+1))
		args = append(args, filter.Tag)
	}
	if filter.MinLevel > 0 {
		conditions = append(conditions, fmt.Sprintf("level >= $%d", len(args)+1))
		args = append(args, filter.MinLevel)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"code":       true,
		"title":      true,
		"level":      true,
		"credits":    true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "code"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", courseColumns, base, sortBy, order, size, offset)
	var rows []courseRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + base
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}

	courses := make([]models.Course, 0, len(rows))
	for i := range rows {
		course, err := rows[i].toModel()
		if err != nil {
			return nil, 0, err
		}
		courses = append(courses, course)
	}
	return courses, total, nil
}

// FindByID returns a single course or nil when absent.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE id = $1", courseColumns)
	var row courseRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find course %s: %w", id, err)
	}
	course, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// ListAll returns the entire course catalog, used to build planning
// snapshots.
func (r *CourseRepository) ListAll(ctx context.Context) ([]models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses ORDER BY code ASC", courseColumns)
	var rows []courseRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list all courses: %w", err)
	}
	courses := make([]models.Course, 0, len(rows))
	for i := range rows {
		course, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	return courses, nil
}
