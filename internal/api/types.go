package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-scheduling/internal/schedule"
)

type CreateAppointmentRequest struct {
	PatientID        string   `json:"patient_id"`
	ProfessionalID   string   `json:"professional_id"`
	Date             string   `json:"date"`
	StartTime        string   `json:"start_time"`
	DurationMin      int      `json:"duration_min,omitempty"`
	ConsultationType string   `json:"consultation_type,omitempty"`
	Amount           *float64 `json:"amount,omitempty"`
	SeriesID         string   `json:"series_id,omitempty"`
	Remarks          string   `json:"remarks,omitempty"`
	Status           string   `json:"status,omitempty"`
	Confirm          bool     `json:"confirm,omitempty"`
}

type MoveAppointmentRequest struct {
	Date    string `json:"date"`
	Time    string `json:"time"`
	Scope   string `json:"scope,omitempty"` // "one" (default) or "series"
	Confirm bool   `json:"confirm,omitempty"`
}

type ChangeStatusRequest struct {
	Status string `json:"status"`
}

type SubstitutionRequest struct {
	StandInPatientID string `json:"stand_in_patient_id"`
	Reason           string `json:"reason,omitempty"`
}

type PaymentRequest struct {
	Status string   `json:"status"`
	Amount *float64 `json:"amount,omitempty"`
}

type AppointmentResponse struct {
	ID                    uuid.UUID  `json:"id"`
	Date                  string     `json:"date"`
	StartTime             string     `json:"start_time"`
	DurationMin           int        `json:"duration_min"`
	PatientID             uuid.UUID  `json:"patient_id"`
	PatientName           string     `json:"patient_name"`
	ProfessionalID        uuid.UUID  `json:"professional_id"`
	ProfessionalName      string     `json:"professional_name"`
	ConsultationType      string     `json:"consultation_type"`
	Status                string     `json:"status"`
	SeriesID              *uuid.UUID `json:"series_id,omitempty"`
	IsSubstitution        bool       `json:"is_substitution,omitempty"`
	OriginalAppointmentID *uuid.UUID `json:"original_appointment_id,omitempty"`
	ReplacedPatientID     *uuid.UUID `json:"replaced_patient_id,omitempty"`
	ReplacedPatientName   *string    `json:"replaced_patient_name,omitempty"`
	SubstitutionReason    *string    `json:"substitution_reason,omitempty"`
	Amount                float64    `json:"amount"`
	Remarks               string     `json:"remarks,omitempty"`
}

func toAppointmentResponse(a *schedule.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:                    a.ID,
		Date:                  a.Date.Format(schedule.DateFormat),
		StartTime:             a.StartTime,
		DurationMin:           a.DurationMin,
		PatientID:             a.PatientID,
		PatientName:           a.PatientName,
		ProfessionalID:        a.ProfessionalID,
		ProfessionalName:      a.ProfessionalName,
		ConsultationType:      string(a.ConsultationType),
		Status:                string(a.Status),
		SeriesID:              a.SeriesID,
		IsSubstitution:        a.IsSubstitution,
		OriginalAppointmentID: a.OriginalAppointmentID,
		ReplacedPatientID:     a.ReplacedPatientID,
		ReplacedPatientName:   a.ReplacedPatientName,
		SubstitutionReason:    a.SubstitutionReason,
		Amount:                a.Amount,
		Remarks:               a.Remarks,
	}
}

func toAppointmentResponses(appts []schedule.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(appts))
	for i := range appts {
		out = append(out, toAppointmentResponse(&appts[i]))
	}
	return out
}

// ScheduleResponse reports a create attempt. Conflicts with applied=false
// mean the operator must confirm to double-book.
type ScheduleResponse struct {
	Applied     bool                  `json:"applied"`
	Appointment *AppointmentResponse  `json:"appointment,omitempty"`
	Conflicts   []AppointmentResponse `json:"conflicts,omitempty"`
}

type MoveResponse struct {
	Applied   bool                  `json:"applied"`
	Moved     []AppointmentResponse `json:"moved,omitempty"`
	Conflicts []AppointmentResponse `json:"conflicts,omitempty"`
}

type PaymentResponse struct {
	ID            uuid.UUID  `json:"id"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	PatientID     uuid.UUID  `json:"patient_id"`
	PatientName   string     `json:"patient_name"`
	AmountDue     float64    `json:"amount_due"`
	AmountPaid    float64    `json:"amount_paid"`
	DueDate       string     `json:"due_date"`
	PaidDate      *time.Time `json:"paid_date,omitempty"`
	Status        string     `json:"status"`
	Method        string     `json:"method,omitempty"`
	Type          string     `json:"type"`
}

func toPaymentResponse(p *schedule.PaymentRecord) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		AppointmentID: p.AppointmentID,
		PatientID:     p.PatientID,
		PatientName:   p.PatientName,
		AmountDue:     p.AmountDue,
		AmountPaid:    p.AmountPaid,
		DueDate:       p.DueDate.Format(schedule.DateFormat),
		PaidDate:      p.PaidDate,
		Status:        string(p.Status),
		Method:        p.Method,
		Type:          string(p.Type),
	}
}

type InvoiceResponse struct {
	ID             uuid.UUID `json:"id"`
	PatientID      uuid.UUID `json:"patient_id"`
	ReferenceMonth string    `json:"reference_month"`
	Amount         float64   `json:"amount"`
	IssueDate      time.Time `json:"issue_date"`
	Status         string    `json:"status"`
	Description    string    `json:"description,omitempty"`
	SessionCount   int       `json:"session_count"`
}

func toInvoiceResponse(inv *schedule.InvoiceRecord) InvoiceResponse {
	return InvoiceResponse{
		ID:             inv.ID,
		PatientID:      inv.PatientID,
		ReferenceMonth: inv.ReferenceMonth,
		Amount:         inv.Amount,
		IssueDate:      inv.IssueDate,
		Status:         string(inv.Status),
		Description:    inv.Description,
		SessionCount:   inv.SessionCount,
	}
}

type EventResponse struct {
	ID            int64           `json:"id"`
	AppointmentID uuid.UUID       `json:"appointment_id"`
	Actor         string          `json:"actor"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
