package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawnics/pawnics-api/internal/models"
)

func reportRows(t *testing.T) *sqlmock.Rows {
	t.Helper()
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "reporter_id", "type", "pet_name", "pet_type", "breed", "color", "description", "photo",
		"contact.name", "contact.phone", "contact.email",
		"location.lat", "location.lng", "location.address",
		"status", "created_at", "updated_at",
	}).
		AddRow("report-1", "user-a", "lost", "Luna", "cat", "siamese", "cream", "ran off at night", "uploads/lost-found/luna.jpg",
			"Alice", "+31600000000", "alice@example.com",
			52.37, 4.89, "Vondelpark, Amsterdam",
			"active", now, now)
}

func TestLostFoundRepositoryFindByIDNestsContactAndLocation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLostFoundRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM lost_found_reports WHERE id = $1")).
		WithArgs("report-1").
		WillReturnRows(reportRows(t))

	report, err := repo.FindByID(context.Background(), "report-1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", report.Contact.Name)
	assert.Equal(t, "alice@example.com", report.Contact.Email)
	assert.Equal(t, 52.37, report.Location.Lat)
	assert.Equal(t, "Vondelpark, Amsterdam", report.Location.Address)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLostFoundRepositoryListAppliesFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLostFoundRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM lost_found_reports WHERE 1=1 AND type = $1 AND breed ILIKE $2 AND status = $3")).
		WithArgs("lost", "%siam%", "active").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT $4 OFFSET $5")).
		WithArgs("lost", "%siam%", "active", 20, 0).
		WillReturnRows(reportRows(t))

	reports, total, err := repo.List(context.Background(), models.ReportFilter{
		Type:  "lost",
		Breed: "siam",
		Page:  1,
		Limit: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, reports, 1)
	assert.Equal(t, "Luna", reports[0].PetName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLostFoundRepositoryListDefaultsToActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLostFoundRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND status = $1")).
		WithArgs("active").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $2 OFFSET $3")).
		WithArgs("active", 20, 0).
		WillReturnRows(reportRows(t))

	_, total, err := repo.List(context.Background(), models.ReportFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLostFoundRepositoryUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLostFoundRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE lost_found_reports SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	report := &models.LostFoundReport{ID: "report-ghost"}
	err := repo.Update(context.Background(), report)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
