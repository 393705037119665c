package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-scheduling/internal/observability/metrics"
	redisclient "github.com/clinicore/clinic-scheduling/internal/redis"
	"github.com/clinicore/clinic-scheduling/pkg/logging"
)

const (
	EventScheduled            = "APPOINTMENT_SCHEDULED"
	EventMoved                = "APPOINTMENT_MOVED"
	EventSeriesMoved          = "APPOINTMENT_SERIES_MOVED"
	EventStatusChanged        = "APPOINTMENT_STATUS_CHANGED"
	EventSubstitutionCreated  = "SUBSTITUTION_CREATED"
	EventSubstitutionEdited   = "SUBSTITUTION_EDITED"
	EventSubstitutionCanceled = "SUBSTITUTION_CANCELED"
	EventPaymentRecorded      = "PAYMENT_RECORDED"
	EventInvoiceIssued        = "INVOICE_ISSUED"
)

const defaultActor = "staff"

var (
	ErrInvalidStatus             = errors.New("unknown appointment status")
	ErrInvalidConsultationType   = errors.New("unknown consultation type")
	ErrInvalidPlacement          = errors.New("invalid date or time placement")
	ErrInvalidSubstitutionTarget = errors.New("substitution requires a no-show appointment")
	ErrDuplicateInvoicePeriod    = errors.New("invoice already exists for this patient and month")
)

// Deps wires the service to its collaborators. Locker, Metrics and Logger
// may be nil (no locking, no metrics, default logger).
type Deps struct {
	Appointments AppointmentRepository
	Payments     PaymentRepository
	Invoices     InvoiceRepository
	Directory    Directory
	Locker       redisclient.Locker
	Metrics      *metrics.SchedulingMetrics
	Logger       *logging.Logger
}

type Service struct {
	repo     AppointmentRepository
	payments PaymentRepository
	invoices InvoiceRepository
	dir      Directory
	locker   redisclient.Locker
	metrics  *metrics.SchedulingMetrics
	logger   *logging.Logger
}

func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = logging.Default()
	}
	return &Service{
		repo:     d.Appointments,
		payments: d.Payments,
		invoices: d.Invoices,
		dir:      d.Directory,
		locker:   d.Locker,
		metrics:  d.Metrics,
		logger:   d.Logger,
	}
}

// CreateInput describes a new placement on the grid.
type CreateInput struct {
	PatientID        uuid.UUID
	ProfessionalID   uuid.UUID
	Date             time.Time
	StartTime        string
	DurationMin      int
	ConsultationType ConsultationType
	Amount           *float64
	SeriesID         *uuid.UUID
	Remarks          string
	Status           Status // scheduled when empty
	Actor            string
}

// ScheduleResult carries the mutation outcome plus any overlaps found.
// Conflicts are advisory: when Applied is false the caller is expected to
// confirm and retry, not to treat the response as a failure.
type ScheduleResult struct {
	Appointment *Appointment
	Conflicts   []Appointment
	Applied     bool
}

// CreateAppointment places a new appointment. Overlaps with the same
// professional's day are reported back; the operator may double-book by
// retrying with confirm set.
func (s *Service) CreateAppointment(ctx context.Context, in CreateInput, confirm bool) (*ScheduleResult, error) {
	if !ValidTimeOfDay(in.StartTime) || in.Date.IsZero() {
		return nil, ErrInvalidPlacement
	}
	if in.DurationMin <= 0 {
		in.DurationMin = DefaultDurationMin
	}
	if in.ConsultationType == "" {
		in.ConsultationType = ConsultFollowUp
	}
	if !ValidConsultationType(in.ConsultationType) {
		return nil, ErrInvalidConsultationType
	}
	if in.Status == "" {
		in.Status = StatusScheduled
	}
	if !ValidStatus(in.Status) {
		return nil, ErrInvalidStatus
	}

	patient, err := s.dir.GetPatientByID(ctx, in.PatientID)
	if err != nil {
		return nil, fmt.Errorf("load patient: %w", err)
	}
	professional, err := s.dir.GetProfessionalByID(ctx, in.ProfessionalID)
	if err != nil {
		return nil, fmt.Errorf("load professional: %w", err)
	}

	amount := 0.0
	if in.Amount != nil {
		amount = *in.Amount
	} else if patient.StandardRate != nil {
		amount = *patient.StandardRate
	}

	var result *ScheduleResult

	err = s.withCalendarLock(ctx, in.ProfessionalID, in.Date, func(lockCtx context.Context) error {
		candidate := Candidate{
			Date:           in.Date,
			StartTime:      in.StartTime,
			DurationMin:    in.DurationMin,
			ProfessionalID: in.ProfessionalID,
		}
		conflicts, err := s.FindConflicts(lockCtx, candidate, uuid.Nil)
		if err != nil {
			return fmt.Errorf("check conflicts: %w", err)
		}
		s.metrics.ConflictsDetected(len(conflicts))

		if len(conflicts) > 0 && !confirm {
			result = &ScheduleResult{Conflicts: conflicts, Applied: false}
			return nil
		}

		appt := &Appointment{
			ID:               uuid.New(),
			Date:             in.Date,
			StartTime:        in.StartTime,
			DurationMin:      in.DurationMin,
			PatientID:        patient.ID,
			PatientName:      patient.Name,
			ProfessionalID:   professional.ID,
			ProfessionalName: professional.Name,
			ConsultationType: in.ConsultationType,
			Status:           in.Status,
			SeriesID:         in.SeriesID,
			Amount:           amount,
			Remarks:          in.Remarks,
		}

		created, err := s.repo.Create(lockCtx, appt)
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}

		s.logEvent(lockCtx, created.ID, in.Actor, EventScheduled, map[string]any{
			"date":       created.Date.Format(DateFormat),
			"start_time": created.StartTime,
			"patient_id": created.PatientID.String(),
		})
		s.metrics.MutationApplied("create")

		result = &ScheduleResult{Appointment: created, Conflicts: conflicts, Applied: true}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ChangeStatus reassigns the lifecycle state. Any valid state may follow any
// other; the transition itself is always persisted and audited.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, newStatus Status, actor string) (*Appointment, error) {
	if !ValidStatus(newStatus) {
		return nil, ErrInvalidStatus
	}

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	from := appt.Status
	appt.Status = newStatus

	updated, err := s.repo.Update(ctx, appt)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	s.logEvent(ctx, updated.ID, actor, EventStatusChanged, map[string]any{
		"from": string(from),
		"to":   string(newStatus),
	})
	s.metrics.MutationApplied("status")

	return updated, nil
}

// GetAppointment retrieves one appointment by id.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

// ListRange returns appointments between from and to inclusive, optionally
// narrowed to one professional. The professional filter is an explicit
// parameter, never ambient state.
func (s *Service) ListRange(ctx context.Context, from, to time.Time, professionalID *uuid.UUID) ([]Appointment, error) {
	appts, err := s.repo.List(ctx, ListFilter{
		From:           from,
		To:             to,
		ProfessionalID: professionalID,
	})
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

// ListEvents returns the structured audit trail for one appointment.
func (s *Service) ListEvents(ctx context.Context, appointmentID uuid.UUID) ([]AppointmentEvent, error) {
	events, err := s.repo.ListEvents(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// DeleteAppointment is the administrative hard delete. It sits outside the
// lifecycle guarantees; linked payment records survive on purpose.
func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return fmt.Errorf("load appointment: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	s.metrics.MutationApplied("delete")
	return nil
}

// withCalendarLock runs fn under the per (professional, day) lock when a
// locker is configured, directly otherwise.
func (s *Service) withCalendarLock(ctx context.Context, professionalID uuid.UUID, date time.Time, fn func(ctx context.Context) error) error {
	if s.locker == nil {
		return fn(ctx)
	}
	return s.locker.WithCalendarLock(ctx, professionalID, date, fn)
}

// logEvent appends a structured audit row. Best effort: a failed insert is
// logged and never fails the mutation it describes.
func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, actor, eventType string, payload map[string]any) {
	if actor == "" {
		actor = defaultActor
	}

	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("marshal event payload", "event_type", eventType, "error", err)
		data = nil
	}

	ev := AppointmentEvent{
		AppointmentID: appointmentID,
		Actor:         actor,
		EventType:     eventType,
		Payload:       data,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.logger.Error("insert audit event", "event_type", eventType, "appointment_id", appointmentID.String(), "error", err)
	}
}

// appendRemark adds a timestamped audit line to the remarks field. Existing
// text is never rewritten.
func appendRemark(appt *Appointment, note string) {
	line := fmt.Sprintf("[%s] %s", time.Now().UTC().Format("2006-01-02 15:04"), note)
	if appt.Remarks == "" {
		appt.Remarks = line
		return
	}
	appt.Remarks = appt.Remarks + "\n" + line
}
