package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pawnics/pawnics-api/internal/models"
)

// RequestRepository provides database access for one request lifecycle kind.
// The same implementation backs adoption requests (subjects are pets) and
// event applications (subjects are events); table names are fixed at
// construction time.
type RequestRepository struct {
	db *sqlx.DB

	table        string
	subjectTable string
	// photoExpr is the SQL expression yielding the subject photo column,
	// or a literal '' for subjects without one.
	photoExpr string
}

// NewAdoptionRequestRepository returns the repository for adoption requests.
func NewAdoptionRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{
		db:           db,
		table:        "adoption_requests",
		subjectTable: "pets",
		photoExpr:    "s.photo",
	}
}

// NewEventApplicationRepository returns the repository for event applications.
func NewEventApplicationRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{
		db:           db,
		table:        "event_applications",
		subjectTable: "events",
		photoExpr:    "''",
	}
}

// Create inserts a pending request.
func (r *RequestRepository) Create(ctx context.Context, req *models.Request) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now
	if req.Status == "" {
		req.Status = models.RequestStatusPending
	}

	query := fmt.Sprintf(`INSERT INTO %s (id, subject_id, owner_id, applicant_id, status, message, created_at, updated_at)
		VALUES (:id, :subject_id, :owner_id, :applicant_id, :status, :message, :created_at, :updated_at)`, r.table)
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("insert %s: %w", r.table, err)
	}
	return nil
}

// FindByID returns a request by identifier.
func (r *RequestRepository) FindByID(ctx context.Context, id string) (*models.Request, error) {
	query := fmt.Sprintf(`SELECT id, subject_id, owner_id, applicant_id, status, message, created_at, updated_at
		FROM %s WHERE id = $1 LIMIT 1`, r.table)
	var req models.Request
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find %s by id: %w", r.table, err)
	}
	return &req, nil
}

// ExistsForApplicant reports whether the applicant ever filed a request for
// the subject, regardless of its current status.
func (r *RequestRepository) ExistsForApplicant(ctx context.Context, subjectID, applicantID string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE subject_id = $1 AND applicant_id = $2)`, r.table)
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, subjectID, applicantID); err != nil {
		return false, fmt.Errorf("check %s exists: %w", r.table, err)
	}
	return exists, nil
}

// UpdateStatus settles a request.
func (r *RequestRepository) UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error {
	query := fmt.Sprintf(`UPDATE %s SET status = $2, updated_at = $3 WHERE id = $1`, r.table)
	result, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update %s status: %w", r.table, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a request.
func (r *RequestRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table)
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.table, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListReceived returns requests against subjects owned by the given user,
// joined with subject and applicant display fields.
func (r *RequestRepository) ListReceived(ctx context.Context, ownerID string) ([]models.RequestDetail, error) {
	query := fmt.Sprintf(`SELECT req.id, req.subject_id, req.owner_id, req.applicant_id, req.status, req.message,
			req.created_at, req.updated_at,
			s.name AS subject_name, %s AS subject_photo,
			a.name AS applicant_name, a.email AS applicant_email,
			o.name AS owner_name
		FROM %s req
		JOIN %s s ON s.id = req.subject_id
		JOIN users a ON a.id = req.applicant_id
		JOIN users o ON o.id = req.owner_id
		WHERE req.owner_id = $1
		ORDER BY req.created_at DESC`, r.photoExpr, r.table, r.subjectTable)
	items := []models.RequestDetail{}
	if err := r.db.SelectContext(ctx, &items, query, ownerID); err != nil {
		return nil, fmt.Errorf("list received %s: %w", r.table, err)
	}
	return items, nil
}

// ListSent returns requests filed by the given applicant.
func (r *RequestRepository) ListSent(ctx context.Context, applicantID string) ([]models.RequestDetail, error) {
	query := fmt.Sprintf(`SELECT req.id, req.subject_id, req.owner_id, req.applicant_id, req.status, req.message,
			req.created_at, req.updated_at,
			s.name AS subject_name, %s AS subject_photo,
			a.name AS applicant_name, a.email AS applicant_email,
			o.name AS owner_name
		FROM %s req
		JOIN %s s ON s.id = req.subject_id
		JOIN users a ON a.id = req.applicant_id
		JOIN users o ON o.id = req.owner_id
		WHERE req.applicant_id = $1
		ORDER BY req.created_at DESC`, r.photoExpr, r.table, r.subjectTable)
	items := []models.RequestDetail{}
	if err := r.db.SelectContext(ctx, &items, query, applicantID); err != nil {
		return nil, fmt.Errorf("list sent %s: %w", r.table, err)
	}
	return items, nil
}

// ListBySubject returns all requests against one subject.
func (r *RequestRepository) ListBySubject(ctx context.Context, subjectID string) ([]models.RequestDetail, error) {
	query := fmt.Sprintf(`SELECT req.id, req.subject_id, req.owner_id, req.applicant_id, req.status, req.message,
			req.created_at, req.updated_at,
			s.name AS subject_name, %s AS subject_photo,
			a.name AS applicant_name, a.email AS applicant_email,
			o.name AS owner_name
		FROM %s req
		JOIN %s s ON s.id = req.subject_id
		JOIN users a ON a.id = req.applicant_id
		JOIN users o ON o.id = req.owner_id
		WHERE req.subject_id = $1
		ORDER BY req.created_at DESC`, r.photoExpr, r.table, r.subjectTable)
	items := []models.RequestDetail{}
	if err := r.db.SelectContext(ctx, &items, query, subjectID); err != nil {
		return nil, fmt.Errorf("list %s by subject: %w", r.table, err)
	}
	return items, nil
}
