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

func TestRequestRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAdoptionRequestRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO adoption_requests")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := &models.Request{
		SubjectID:   "pet-1",
		OwnerID:     "owner-1",
		ApplicantID: "user-2",
		Message:     "please",
	}
	require.NoError(t, repo.Create(context.Background(), req))
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, models.RequestStatusPending, req.Status)
	assert.False(t, req.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAdoptionRequestRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM adoption_requests WHERE id = $1")).
		WithArgs("req-ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "req-ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryExistsForApplicant(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAdoptionRequestRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("pet-1", "user-2").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsForApplicant(context.Background(), "pet-1", "user-2")
	require.NoError(t, err)
	assert.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryUpdateStatusMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAdoptionRequestRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE adoption_requests SET status")).
		WithArgs("req-ghost", models.RequestStatusAccepted, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "req-ghost", models.RequestStatusAccepted)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryListReceived(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAdoptionRequestRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "subject_id", "owner_id", "applicant_id", "status", "message", "created_at", "updated_at",
		"subject_name", "subject_photo", "applicant_name", "applicant_email", "owner_name",
	}).
		AddRow("req-1", "pet-1", "owner-1", "user-2", "pending", "please", now, now,
			"Rex", "uploads/pets/rex.jpg", "Bob", "bob@example.com", "Alice")

	mock.ExpectQuery(regexp.QuoteMeta("FROM adoption_requests req")).
		WithArgs("owner-1").
		WillReturnRows(rows)

	items, err := repo.ListReceived(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Rex", items[0].SubjectName)
	assert.Equal(t, "uploads/pets/rex.jpg", items[0].SubjectPhoto)
	assert.Equal(t, models.RequestStatusPending, items[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventApplicationRepositoryUsesEventTables(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEventApplicationRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "subject_id", "owner_id", "applicant_id", "status", "message", "created_at", "updated_at",
		"subject_name", "subject_photo", "applicant_name", "applicant_email", "owner_name",
	}).
		AddRow("app-1", "event-1", "organizer-1", "user-2", "declined", "", now, now,
			"Beach cleanup", "", "Bob", "bob@example.com", "Carol")

	mock.ExpectQuery("FROM event_applications req\\s+JOIN events s").
		WithArgs("user-2").
		WillReturnRows(rows)

	items, err := repo.ListSent(context.Background(), "user-2")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Beach cleanup", items[0].SubjectName)
	assert.Empty(t, items[0].SubjectPhoto)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAdoptionRequestRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM adoption_requests WHERE id = $1")).
		WithArgs("req-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "req-1"))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM adoption_requests WHERE id = $1")).
		WithArgs("req-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "req-1"), sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
