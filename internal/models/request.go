package models

import "time"

// RequestKind discriminates the request lifecycle flavours.
type RequestKind string

const (
	KindAdoption         RequestKind = "adoption"
	KindEventApplication RequestKind = "event_application"
)

// RequestStatus represents the lifecycle state of a request.
type RequestStatus string

const (
	RequestStatusPending     RequestStatus = "pending"
	RequestStatusAccepted    RequestStatus = "accepted"
	RequestStatusNotAccepted RequestStatus = "not_accepted"
	RequestStatusDeclined    RequestStatus = "declined"
)

// Request is a pending-or-settled application against a subject. Adoption
// requests target pets, event applications target volunteer events; both
// share the same shape and lifecycle.
type Request struct {
	ID          string        `db:"id" json:"id"`
	SubjectID   string        `db:"subject_id" json:"subject_id"`
	OwnerID     string        `db:"owner_id" json:"owner_id"`
	ApplicantID string        `db:"applicant_id" json:"applicant_id"`
	Status      RequestStatus `db:"status" json:"status"`
	Message     string        `db:"message" json:"message"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// RequestDetail joins the request with display fields of its subject and
// counterpart, used by received/sent listings.
type RequestDetail struct {
	Request
	SubjectName    string `db:"subject_name" json:"subject_name"`
	SubjectPhoto   string `db:"subject_photo" json:"subject_photo,omitempty"`
	ApplicantName  string `db:"applicant_name" json:"applicant_name"`
	ApplicantEmail string `db:"applicant_email" json:"applicant_email"`
	OwnerName      string `db:"owner_name" json:"owner_name"`
}

// CreateRequestPayload is the payload for submitting a request.
type CreateRequestPayload struct {
	SubjectID string `json:"subject_id" validate:"required"`
	Message   string `json:"message" validate:"max=1000"`
}

// TransitionRequestPayload settles a pending request.
type TransitionRequestPayload struct {
	Status RequestStatus `json:"status" validate:"required"`
}
