package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// CancelOutcome selects what happens to the original appointment when a
// substitution is canceled.
type CancelOutcome string

const (
	// CancelRestore puts the original booking back on the grid as scheduled.
	CancelRestore CancelOutcome = "restore"
	// CancelVacate leaves the original at no-show and the slot open.
	CancelVacate CancelOutcome = "vacate"
)

func ParseCancelOutcome(s string) (CancelOutcome, error) {
	switch CancelOutcome(s) {
	case CancelRestore, CancelVacate:
		return CancelOutcome(s), nil
	}
	return "", fmt.Errorf("unknown cancel outcome %q", s)
}

// Substitute fills a no-show slot with a stand-in patient. The original
// keeps its no-show status and gains an audit note; the replacement is a new
// confirmed appointment on the same grid cell, linked back through
// OriginalAppointmentID. At most one active replacement exists per original:
// substituting again for the same original swaps the stand-in on the
// existing replacement instead of creating a second one.
func (s *Service) Substitute(ctx context.Context, originalID, standInPatientID uuid.UUID, reason, actor string) (*Appointment, error) {
	original, err := s.repo.GetByID(ctx, originalID)
	if err != nil {
		return nil, fmt.Errorf("load original appointment: %w", err)
	}
	if original.Status != StatusNoShow {
		return nil, ErrInvalidSubstitutionTarget
	}

	existing, err := s.repo.FindActiveSubstitution(ctx, originalID)
	if err != nil && !errors.Is(err, ErrSubstitutionNotFound) {
		return nil, fmt.Errorf("check existing substitution: %w", err)
	}
	if existing != nil {
		return s.EditSubstitution(ctx, existing.ID, standInPatientID, actor)
	}

	standIn, err := s.dir.GetPatientByID(ctx, standInPatientID)
	if err != nil {
		return nil, fmt.Errorf("load stand-in patient: %w", err)
	}

	amount := original.Amount
	if standIn.StandardRate != nil {
		amount = *standIn.StandardRate
	}

	origPatientID := original.PatientID
	origPatientName := original.PatientName

	replacement := &Appointment{
		ID:                    uuid.New(),
		Date:                  original.Date,
		StartTime:             original.StartTime,
		DurationMin:           original.DurationMin,
		PatientID:             standIn.ID,
		PatientName:           standIn.Name,
		ProfessionalID:        original.ProfessionalID,
		ProfessionalName:      original.ProfessionalName,
		ConsultationType:      original.ConsultationType,
		Status:                StatusConfirmed,
		IsSubstitution:        true,
		OriginalAppointmentID: &original.ID,
		ReplacedPatientID:     &origPatientID,
		ReplacedPatientName:   &origPatientName,
		Amount:                amount,
	}
	if reason != "" {
		replacement.SubstitutionReason = &reason
	}

	appendRemark(original, fmt.Sprintf("no-show slot filled by %s", standIn.Name))

	created, err := s.repo.CreateSubstitution(ctx, replacement, original)
	if err != nil {
		return nil, fmt.Errorf("create substitution: %w", err)
	}

	s.logEvent(ctx, original.ID, actor, EventSubstitutionCreated, map[string]any{
		"replacement_id":      created.ID.String(),
		"stand_in_patient_id": standIn.ID.String(),
		"reason":              reason,
	})
	s.metrics.SubstitutionAction("create")
	s.metrics.MutationApplied("substitution")

	return created, nil
}

// EditSubstitution swaps the stand-in patient on an existing replacement.
// The original appointment is not touched.
func (s *Service) EditSubstitution(ctx context.Context, substitutionID, newStandInPatientID uuid.UUID, actor string) (*Appointment, error) {
	sub, err := s.repo.GetByID(ctx, substitutionID)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrSubstitutionNotFound
		}
		return nil, fmt.Errorf("load substitution: %w", err)
	}
	if !sub.IsSubstitution {
		return nil, ErrSubstitutionNotFound
	}

	standIn, err := s.dir.GetPatientByID(ctx, newStandInPatientID)
	if err != nil {
		return nil, fmt.Errorf("load stand-in patient: %w", err)
	}

	previous := sub.PatientName
	sub.PatientID = standIn.ID
	sub.PatientName = standIn.Name
	if standIn.StandardRate != nil {
		sub.Amount = *standIn.StandardRate
	}

	appendRemark(sub, fmt.Sprintf("stand-in changed from %s to %s", previous, standIn.Name))

	updated, err := s.repo.Update(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("edit substitution: %w", err)
	}

	s.logEvent(ctx, updated.ID, actor, EventSubstitutionEdited, map[string]any{
		"stand_in_patient_id": standIn.ID.String(),
		"previous_stand_in":   previous,
	})
	s.metrics.SubstitutionAction("edit")
	s.metrics.MutationApplied("substitution")

	return updated, nil
}

// CancelSubstitution removes the replacement appointment. With
// CancelRestore the original goes back to scheduled; with CancelVacate it
// stays no-show and the slot is simply left open. Returns the original in
// its resulting state.
func (s *Service) CancelSubstitution(ctx context.Context, substitutionID uuid.UUID, outcome CancelOutcome, actor string) (*Appointment, error) {
	sub, err := s.repo.GetByID(ctx, substitutionID)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrSubstitutionNotFound
		}
		return nil, fmt.Errorf("load substitution: %w", err)
	}
	if !sub.IsSubstitution || sub.OriginalAppointmentID == nil {
		return nil, ErrSubstitutionNotFound
	}

	original, err := s.repo.GetByID(ctx, *sub.OriginalAppointmentID)
	if err != nil {
		return nil, fmt.Errorf("load original appointment: %w", err)
	}

	switch outcome {
	case CancelRestore:
		original.Status = StatusScheduled
		appendRemark(original, fmt.Sprintf("substitution canceled, booking restored for %s", original.PatientName))
	case CancelVacate:
		appendRemark(original, "substitution canceled, slot left open")
	default:
		return nil, fmt.Errorf("unknown cancel outcome %q", outcome)
	}

	if err := s.repo.DeleteSubstitution(ctx, sub.ID, original); err != nil {
		return nil, fmt.Errorf("cancel substitution: %w", err)
	}

	s.logEvent(ctx, original.ID, actor, EventSubstitutionCanceled, map[string]any{
		"replacement_id": sub.ID.String(),
		"outcome":        string(outcome),
	})
	s.metrics.SubstitutionAction("cancel")
	s.metrics.MutationApplied("substitution")

	return original, nil
}
