package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pawnics/pawnics-api/internal/models"
)

// Contact and location columns are flattened in the table and re-nested via
// sqlx path aliases.
const reportColumns = `id, reporter_id, type, pet_name, pet_type, breed, color, description, photo,
	contact_name AS "contact.name", contact_phone AS "contact.phone", contact_email AS "contact.email",
	location_lat AS "location.lat", location_lng AS "location.lng", location_address AS "location.address",
	status, created_at, updated_at`

// LostFoundRepository provides database access for lost/found pet reports.
type LostFoundRepository struct {
	db *sqlx.DB
}

// NewLostFoundRepository creates a new instance of LostFoundRepository.
func NewLostFoundRepository(db *sqlx.DB) *LostFoundRepository {
	return &LostFoundRepository{db: db}
}

// Create inserts a new report.
func (r *LostFoundRepository) Create(ctx context.Context, report *models.LostFoundReport) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	report.CreatedAt = now
	report.UpdatedAt = now
	if report.Status == "" {
		report.Status = models.ReportStatusActive
	}

	const query = `INSERT INTO lost_found_reports (id, reporter_id, type, pet_name, pet_type, breed, color,
			description, photo, contact_name, contact_phone, contact_email,
			location_lat, location_lng, location_address, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	if _, err := r.db.ExecContext(ctx, query,
		report.ID, report.ReporterID, report.Type, report.PetName, report.PetType, report.Breed, report.Color,
		report.Description, report.Photo, report.Contact.Name, report.Contact.Phone, report.Contact.Email,
		report.Location.Lat, report.Location.Lng, report.Location.Address, report.Status,
		report.CreatedAt, report.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// FindByID returns a report by identifier.
func (r *LostFoundRepository) FindByID(ctx context.Context, id string) (*models.LostFoundReport, error) {
	query := fmt.Sprintf(`SELECT %s FROM lost_found_reports WHERE id = $1 LIMIT 1`, reportColumns)
	var report models.LostFoundReport
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find report by id: %w", err)
	}
	return &report, nil
}

// List returns reports matching the filter with the total count.
func (r *LostFoundRepository) List(ctx context.Context, filter models.ReportFilter) ([]models.LostFoundReport, int, error) {
	baseQuery := `FROM lost_found_reports WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.PetType != "" {
		conditions = append(conditions, fmt.Sprintf("pet_type = $%d", len(args)+1))
		args = append(args, filter.PetType)
	}
	if filter.Breed != "" {
		conditions = append(conditions, fmt.Sprintf("breed ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Breed+"%")
	}
	status := filter.Status
	if status == "" {
		status = string(models.ReportStatusActive)
	}
	conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
	args = append(args, status)

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) " + baseQuery
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count reports: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		reportColumns, baseQuery, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	reports := []models.LostFoundReport{}
	if err := r.db.SelectContext(ctx, &reports, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list reports: %w", err)
	}
	return reports, total, nil
}

// ListByReporter returns reports filed by the given user.
func (r *LostFoundRepository) ListByReporter(ctx context.Context, reporterID string) ([]models.LostFoundReport, error) {
	query := fmt.Sprintf(`SELECT %s FROM lost_found_reports WHERE reporter_id = $1 ORDER BY created_at DESC`, reportColumns)
	reports := []models.LostFoundReport{}
	if err := r.db.SelectContext(ctx, &reports, query, reporterID); err != nil {
		return nil, fmt.Errorf("list reports by reporter: %w", err)
	}
	return reports, nil
}

// Update persists the mutable fields of a report.
func (r *LostFoundRepository) Update(ctx context.Context, report *models.LostFoundReport) error {
	report.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lost_found_reports SET pet_name = $2, pet_type = $3, breed = $4, color = $5,
			description = $6, photo = $7, contact_name = $8, contact_phone = $9, contact_email = $10,
			location_lat = $11, location_lng = $12, location_address = $13, status = $14, updated_at = $15
		WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query,
		report.ID, report.PetName, report.PetType, report.Breed, report.Color,
		report.Description, report.Photo, report.Contact.Name, report.Contact.Phone, report.Contact.Email,
		report.Location.Lat, report.Location.Lng, report.Location.Address, report.Status, report.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a report.
func (r *LostFoundRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM lost_found_reports WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
