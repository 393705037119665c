package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EnsurePayment creates or updates the payment record tied to an
// appointment. The record is keyed by appointment id: calling twice yields
// one record reflecting the latest status, not two records. Statuses are
// applied verbatim; only emptiness is rejected.
func (s *Service) EnsurePayment(ctx context.Context, appointmentID uuid.UUID, status PaymentStatus, amountOverride *float64, actor string) (*PaymentRecord, error) {
	if status == "" {
		return nil, errors.New("payment status must not be empty")
	}

	appt, err := s.repo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	now := time.Now().UTC()

	existing, err := s.payments.GetByAppointmentID(ctx, appointmentID)
	if err != nil && !errors.Is(err, ErrPaymentNotFound) {
		return nil, fmt.Errorf("load payment record: %w", err)
	}

	var record *PaymentRecord

	if existing == nil {
		amount := appt.Amount
		if amountOverride != nil {
			amount = *amountOverride
		}

		apptID := appt.ID
		p := &PaymentRecord{
			ID:            uuid.New(),
			AppointmentID: &apptID,
			PatientID:     appt.PatientID,
			PatientName:   appt.PatientName,
			AmountDue:     amount,
			DueDate:       appt.Date,
			Status:        status,
			Type:          PaymentTypeConsultation,
		}
		if status == PaymentPaid {
			p.AmountPaid = amount
			p.PaidDate = &now
		}

		record, err = s.payments.Create(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("create payment record: %w", err)
		}
	} else {
		existing.Status = status
		if amountOverride != nil {
			existing.AmountDue = *amountOverride
		}
		if status == PaymentPaid {
			existing.AmountPaid = existing.AmountDue
			if existing.PaidDate == nil {
				existing.PaidDate = &now
			}
		}

		record, err = s.payments.Update(ctx, existing)
		if err != nil {
			return nil, fmt.Errorf("update payment record: %w", err)
		}
	}

	s.logEvent(ctx, appt.ID, actor, EventPaymentRecorded, map[string]any{
		"payment_id": record.ID.String(),
		"status":     string(status),
		"amount_due": record.AmountDue,
	})
	s.metrics.MutationApplied("payment")

	return record, nil
}

// EnsureInvoice issues the invoice for the appointment's patient and
// reference month. Invoices are append-only per period: a second call for
// the same (patient, month) fails with ErrDuplicateInvoicePeriod and never
// overwrites.
func (s *Service) EnsureInvoice(ctx context.Context, appointmentID uuid.UUID, actor string) (*InvoiceRecord, error) {
	appt, err := s.repo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	month := appt.Date.Format(MonthFormat)

	existing, err := s.invoices.GetByPatientMonth(ctx, appt.PatientID, month)
	if err != nil && !errors.Is(err, ErrInvoiceNotFound) {
		return nil, fmt.Errorf("load invoice record: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: patient %s, month %s", ErrDuplicateInvoicePeriod, appt.PatientID, month)
	}

	inv := &InvoiceRecord{
		ID:             uuid.New(),
		PatientID:      appt.PatientID,
		ReferenceMonth: month,
		Amount:         appt.Amount,
		IssueDate:      time.Now().UTC(),
		Status:         InvoiceIssued,
		Description:    fmt.Sprintf("Sessions for %s, %s", appt.PatientName, month),
		SessionCount:   1,
	}

	created, err := s.invoices.Create(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("create invoice record: %w", err)
	}

	s.logEvent(ctx, appt.ID, actor, EventInvoiceIssued, map[string]any{
		"invoice_id":      created.ID.String(),
		"reference_month": month,
		"amount":          created.Amount,
	})
	s.metrics.MutationApplied("invoice")

	return created, nil
}
