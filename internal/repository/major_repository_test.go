package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMajorRepositoryFindByIDDecodesRequirementGroups(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMajorRepository(db)

	now := time.Now()
	groups := `[{"id":"core","title":"Business Core","allOf":["BUS-101","MAT-101"]},{"id":"depth","title":"Depth","anyOf":["STAT-310","ADV-401"],"minCredits":6,"note":"level>=300"}]`
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, catalog_year, requirement_groups, created_at, updated_at FROM majors WHERE id = $1")).
		WithArgs("bs-business").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "catalog_year", "requirement_groups", "created_at", "updated_at"}).
			AddRow("bs-business", "B.S. Business", "2026-2027", groups, now, now))

	major, err := repo.FindByID(context.Background(), "bs-business")
	require.NoError(t, err)
	require.NotNil(t, major)
	require.Len(t, major.RequirementGroups, 2)
	assert.Equal(t, []string{"BUS-101", "MAT-101"}, major.RequirementGroups[0].AllOf)
	require.NotNil(t, major.RequirementGroups[1].MinCredits)
	assert.Equal(t, 6, *major.RequirementGroups[1].MinCredits)
	assert.Equal(t, "level>=300", major.RequirementGroups[1].Note)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMajorRepositoryFindByIDMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMajorRepository(db)

	mock.ExpectQuery("FROM majors WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "catalog_year", "requirement_groups", "created_at", "updated_at"}))

	major, err := repo.FindByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, major)
	assert.NoError(t, mock.ExpectationsWereMet())
}
