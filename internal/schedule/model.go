package schedule

import (
	"time"

	"github.com/google/uuid"
)

const (
	TimeFormat  = "15:04"      // HH:MM, time of day on the grid
	DateFormat  = "2006-01-02" // YYYY-MM-DD
	MonthFormat = "2006-01"    // YYYY-MM, invoice reference month

	DefaultDurationMin = 60
)

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCanceled   Status = "canceled"
	StatusNoShow     Status = "no-show"
)

// ValidStatus reports whether s is one of the known lifecycle states.
// Transitions between valid states are not restricted; the front desk may
// reassign any status for operational reasons.
func ValidStatus(s Status) bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCanceled, StatusNoShow:
		return true
	}
	return false
}

// InactiveStatuses no longer occupy their slot and are skipped by the
// conflict scan. A substitution replacement overlaps its no-show original
// on purpose.
var InactiveStatuses = []Status{
	StatusCanceled,
	StatusNoShow,
}

type ConsultationType string

const (
	ConsultFirstVisit ConsultationType = "first-visit"
	ConsultFollowUp   ConsultationType = "follow-up"
	ConsultExam       ConsultationType = "exam"
	ConsultProcedure  ConsultationType = "procedure"
)

func ValidConsultationType(t ConsultationType) bool {
	switch t {
	case ConsultFirstVisit, ConsultFollowUp, ConsultExam, ConsultProcedure:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentPartial  PaymentStatus = "partial"
	PaymentOverdue  PaymentStatus = "overdue"
	PaymentCanceled PaymentStatus = "canceled"
)

type PaymentType string

const (
	PaymentTypeConsultation PaymentType = "consultation"
	PaymentTypeMonthlyFee   PaymentType = "monthly-fee"
)

type InvoiceStatus string

const (
	InvoiceIssued   InvoiceStatus = "issued"
	InvoiceSent     InvoiceStatus = "sent"
	InvoicePaid     InvoiceStatus = "paid"
	InvoiceCanceled InvoiceStatus = "canceled"
)

type Patient struct {
	ID           uuid.UUID
	Name         string
	StandardRate *float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Professional struct {
	ID        uuid.UUID
	Name      string
	Specialty *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Appointment is one cell on a professional's time grid. Date is a calendar
// day at midnight UTC; StartTime is "15:04". An appointment never spans
// midnight.
type Appointment struct {
	ID               uuid.UUID
	Date             time.Time
	StartTime        string
	DurationMin      int
	PatientID        uuid.UUID
	PatientName      string
	ProfessionalID   uuid.UUID
	ProfessionalName string
	ConsultationType ConsultationType
	Status           Status

	// SeriesID groups recurring appointments. Only a shared identifier, no
	// recurrence rule is stored.
	SeriesID *uuid.UUID

	// Substitution linkage lives on the replacement side only. The original
	// keeps its history in remarks and in appointment_events.
	IsSubstitution        bool
	OriginalAppointmentID *uuid.UUID
	ReplacedPatientID     *uuid.UUID
	ReplacedPatientName   *string
	SubstitutionReason    *string

	Amount  float64
	Remarks string // append-only audit notes

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PaymentRecord is keyed loosely by appointment id; monthly-fee payments may
// have no appointment at all.
type PaymentRecord struct {
	ID            uuid.UUID
	AppointmentID *uuid.UUID
	PatientID     uuid.UUID
	PatientName   string
	AmountDue     float64
	AmountPaid    float64
	DueDate       time.Time
	PaidDate      *time.Time
	Status        PaymentStatus
	Method        string
	Type          PaymentType
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// InvoiceRecord is keyed by (patient, reference month) and append-only per
// period.
type InvoiceRecord struct {
	ID             uuid.UUID
	PatientID      uuid.UUID
	ReferenceMonth string // "2006-01"
	Amount         float64
	IssueDate      time.Time
	Status         InvoiceStatus
	Description    string
	SessionCount   int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AppointmentEvent is the structured audit trail behind the free-text
// remarks field.
type AppointmentEvent struct {
	ID            int64
	AppointmentID uuid.UUID
	Actor         string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
}

// ListFilter narrows AppointmentRepository.List. Zero fields are ignored.
type ListFilter struct {
	From           time.Time
	To             time.Time
	Date           time.Time
	ProfessionalID *uuid.UUID
	SeriesID       *uuid.UUID
}
