package models

import "time"

// ReportType distinguishes lost pets from found pets.
type ReportType string

const (
	ReportTypeLost  ReportType = "lost"
	ReportTypeFound ReportType = "found"
)

// ReportStatus represents the lifecycle state of a report.
type ReportStatus string

const (
	ReportStatusActive   ReportStatus = "active"
	ReportStatusResolved ReportStatus = "resolved"
	ReportStatusInactive ReportStatus = "inactive"
)

// Contact holds how to reach the reporter.
type Contact struct {
	Name  string `db:"name" json:"name"`
	Phone string `db:"phone" json:"phone"`
	Email string `db:"email" json:"email"`
}

// Location pins where the pet was lost or found.
type Location struct {
	Lat     float64 `db:"lat" json:"lat"`
	Lng     float64 `db:"lng" json:"lng"`
	Address string  `db:"address" json:"address"`
}

// LostFoundReport represents a lost or found pet report.
type LostFoundReport struct {
	ID          string       `db:"id" json:"id"`
	ReporterID  string       `db:"reporter_id" json:"reporter_id"`
	Type        ReportType   `db:"type" json:"type"`
	PetName     string       `db:"pet_name" json:"pet_name"`
	PetType     string       `db:"pet_type" json:"pet_type"`
	Breed       string       `db:"breed" json:"breed"`
	Color       string       `db:"color" json:"color"`
	Description string       `db:"description" json:"description"`
	Photo       string       `db:"photo" json:"photo"`
	Contact     Contact      `db:"contact" json:"contact"`
	Location    Location     `db:"location" json:"location"`
	Status      ReportStatus `db:"status" json:"status"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// ReportFilter captures listing filters for lost/found reports.
type ReportFilter struct {
	Type    string
	PetType string
	Breed   string
	Status  string
	Page    int
	Limit   int
}

// CreateReportRequest is the payload for filing a lost/found report.
// The photo arrives as a multipart file alongside this form.
type CreateReportRequest struct {
	Type        ReportType `form:"type" json:"type" validate:"required,oneof=lost found"`
	PetName     string     `form:"pet_name" json:"pet_name" validate:"required,max=100"`
	PetType     string     `form:"pet_type" json:"pet_type" validate:"required,max=50"`
	Breed       string     `form:"breed" json:"breed" validate:"max=100"`
	Color       string     `form:"color" json:"color" validate:"max=50"`
	Description string     `form:"description" json:"description" validate:"max=2000"`
	ContactName string     `form:"contact_name" json:"contact_name" validate:"required,max=100"`
	Phone       string     `form:"phone" json:"phone" validate:"max=30"`
	Email       string     `form:"email" json:"email" validate:"omitempty,email"`
	Lat         float64    `form:"lat" json:"lat" validate:"gte=-90,lte=90"`
	Lng         float64    `form:"lng" json:"lng" validate:"gte=-180,lte=180"`
	Address     string     `form:"address" json:"address" validate:"max=300"`
}

// UpdateReportRequest carries partial updates for a report.
type UpdateReportRequest struct {
	PetName     *string       `json:"pet_name" validate:"omitempty,max=100"`
	PetType     *string       `json:"pet_type" validate:"omitempty,max=50"`
	Breed       *string       `json:"breed" validate:"omitempty,max=100"`
	Color       *string       `json:"color" validate:"omitempty,max=50"`
	Description *string       `json:"description" validate:"omitempty,max=2000"`
	ContactName *string       `json:"contact_name" validate:"omitempty,max=100"`
	Phone       *string       `json:"phone" validate:"omitempty,max=30"`
	Email       *string       `json:"email" validate:"omitempty,email"`
	Lat         *float64      `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lng         *float64      `json:"lng" validate:"omitempty,gte=-180,lte=180"`
	Address     *string       `json:"address" validate:"omitempty,max=300"`
	Status      *ReportStatus `json:"status" validate:"omitempty,oneof=active resolved inactive"`
}
