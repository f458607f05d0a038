package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/campusdesk/course-planner-api/internal/models"
)

// MajorRepository handles persistence for majors and their requirement
// groups.
type MajorRepository struct {
	db *sqlx.DB
}

// NewMajorRepository creates a new repository instance.
func NewMajorRepository(db *sqlx.DB) *MajorRepository {
	return &MajorRepository{db: db}
}

type majorRow struct {
	models.Major
	RequirementGroups types.JSONText `db:"requirement_groups"`
}

func (row *majorRow) toModel() (models.Major, error) {
	major := row.Major
	if len(row.RequirementGroups) > 0 {
		if err := json.Unmarshal(row.RequirementGroups, &major.RequirementGroups); err != nil {
			return models.Major{}, fmt.Errorf("major %s requirement groups: %w", major.ID, err)
		}
	}
	return major, nil
}

const majorColumns = "id, name, catalog_year, requirement_groups, created_at, updated_at"

// FindByID returns a major or nil when absent.
func (r *MajorRepository) FindByID(ctx context.Context, id string) (*models.Major, error) {
	query := fmt.Sprintf("SELECT %s FROM majors WHERE id = $1", majorColumns)
	var row majorRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find major %s: %w", id, err)
	}
	major, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &major, nil
}

// List returns all majors ordered by name.
func (r *MajorRepository) List(ctx context.Context) ([]models.Major, error) {
	query := fmt.Sprintf("SELECT %s FROM majors ORDER BY name ASC", majorColumns)
	var rows []majorRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list majors: %w", err)
	}
	majors := make([]models.Major, 0, len(rows))
	for i := range rows {
		major, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		majors = append(majors, major)
	}
	return majors, nil
}
