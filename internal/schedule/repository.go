package schedule

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound      = errors.New("patient not found")
	ErrProfessionalNotFound = errors.New("professional not found")
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrPaymentNotFound      = errors.New("payment record not found")
	ErrInvoiceNotFound      = errors.New("invoice record not found")
	ErrSubstitutionNotFound = errors.New("substitution not found")
)

// AppointmentRepository contains all calendar DB interactions needed by the
// service. Batch methods are transactional: either every row is written or
// none is.
type AppointmentRepository interface {
	List(ctx context.Context, filter ListFilter) ([]Appointment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Create(ctx context.Context, a *Appointment) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) (*Appointment, error)

	// UpdateMany applies a batch of full-row updates in one transaction.
	// Series moves rely on this: a half-moved series must never be visible.
	UpdateMany(ctx context.Context, appts []Appointment) ([]Appointment, error)

	Delete(ctx context.Context, id uuid.UUID) error

	// CountSeries reports how many appointments share a series id.
	CountSeries(ctx context.Context, seriesID uuid.UUID) (int, error)

	// FindActiveSubstitution returns the replacement appointment referencing
	// originalID, or ErrSubstitutionNotFound.
	FindActiveSubstitution(ctx context.Context, originalID uuid.UUID) (*Appointment, error)

	// CreateSubstitution inserts the replacement and updates the original in
	// one transaction.
	CreateSubstitution(ctx context.Context, replacement, original *Appointment) (*Appointment, error)

	// DeleteSubstitution removes the replacement and updates the original in
	// one transaction.
	DeleteSubstitution(ctx context.Context, replacementID uuid.UUID, original *Appointment) error

	InsertEvent(ctx context.Context, ev AppointmentEvent) error
	ListEvents(ctx context.Context, appointmentID uuid.UUID) ([]AppointmentEvent, error)
}

// Directory is the read-only patient/professional lookup. Directory
// management itself lives outside this engine.
type Directory interface {
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetProfessionalByID(ctx context.Context, id uuid.UUID) (*Professional, error)
}

type PaymentRepository interface {
	GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*PaymentRecord, error)
	Create(ctx context.Context, p *PaymentRecord) (*PaymentRecord, error)
	Update(ctx context.Context, p *PaymentRecord) (*PaymentRecord, error)
}

type InvoiceRepository interface {
	GetByPatientMonth(ctx context.Context, patientID uuid.UUID, month string) (*InvoiceRecord, error)
	Create(ctx context.Context, inv *InvoiceRecord) (*InvoiceRecord, error)
}
