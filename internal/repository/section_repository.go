package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/campusdesk/course-planner-api/internal/models"
)

// SectionRepository handles persistence for offered sections.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository creates a new repository instance.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// sectionRow is the scan target: weekly meetings are stored as a JSONB
// array.
type sectionRow struct {
	models.Section
	Meetings types.JSONText `db:"meetings"`
}

func (row *sectionRow) toModel() (models.Section, error) {
	section := row.Section
	if len(row.Meetings) > 0 {
		if err := json.Unmarshal(row.Meetings, &section.Meetings); err != nil {
			return models.Section{}, fmt.Errorf("section %s meetings: %w", section.ID, err)
		}
	}
	return section, nil
}

const sectionColumns = "id, course_id, label, instructor, location, meetings, capacity, enrolled, term_id, linked_with, created_at, updated_at"

// ListByCourse returns a course's sections, optionally narrowed to a term.
func (r *SectionRepository) ListByCourse(ctx context.Context, courseID, termID string) ([]models.Section, error) {
	query := fmt.Sprintf("SELECT %s FROM sections WHERE course_id = $1", sectionColumns)
	args := []interface{}{courseID}
	if termID != "" {
		query += " AND term_id = $2"
		args = append(args, termID)
	}
	query += " ORDER BY label ASC"

	var rows []sectionRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list sections for course %s: %w", courseID, err)
	}
	return rowsToSections(rows)
}

// ListByTerm returns every section offered in a term, the working set for
// one planning snapshot.
func (r *SectionRepository) ListByTerm(ctx context.Context, termID string) ([]models.Section, error) {
	query := fmt.Sprintf("SELECT %s FROM sections WHERE term_id = $1 ORDER BY course_id ASC, label ASC", sectionColumns)
	var rows []sectionRow
	if err := r.db.SelectContext(ctx, &rows, query, termID); err != nil {
		return nil, fmt.Errorf("list sections for term %s: %w", termID, err)
	}
	return rowsToSections(rows)
}

func rowsToSections(rows []sectionRow) ([]models.Section, error) {
	sections := make([]models.Section, 0, len(rows))
	for i := range rows {
		section, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		sections = append(sections, section)
	}
	return sections, nil
}
