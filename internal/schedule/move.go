package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MoveResult reports a relocation attempt. When conflicts are present and
// the caller did not confirm, nothing is written and Moved is empty.
type MoveResult struct {
	Moved     []Appointment
	Conflicts []Appointment
	Applied   bool
}

// MoveOne relocates a single appointment to a new date and time. If the
// appointment belonged to a recurring series it is detached: its series id
// is cleared so later whole-series moves leave it where the operator put it.
func (s *Service) MoveOne(ctx context.Context, id uuid.UUID, newDate time.Time, newTime string, confirm bool, actor string) (*MoveResult, error) {
	if !ValidTimeOfDay(newTime) || newDate.IsZero() {
		return nil, ErrInvalidPlacement
	}

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	var result *MoveResult

	err = s.withCalendarLock(ctx, appt.ProfessionalID, newDate, func(lockCtx context.Context) error {
		candidate := Candidate{
			Date:           newDate,
			StartTime:      newTime,
			DurationMin:    appt.DurationMin,
			ProfessionalID: appt.ProfessionalID,
		}
		conflicts, err := s.FindConflicts(lockCtx, candidate, appt.ID)
		if err != nil {
			return fmt.Errorf("check conflicts: %w", err)
		}
		s.metrics.ConflictsDetected(len(conflicts))

		if len(conflicts) > 0 && !confirm {
			result = &MoveResult{Conflicts: conflicts, Applied: false}
			return nil
		}

		fromDate := appt.Date
		fromTime := appt.StartTime
		detached := appt.SeriesID != nil

		appt.Date = newDate
		appt.StartTime = newTime
		appt.SeriesID = nil

		updated, err := s.repo.Update(lockCtx, appt)
		if err != nil {
			return fmt.Errorf("move appointment: %w", err)
		}

		s.logEvent(lockCtx, updated.ID, actor, EventMoved, map[string]any{
			"from_date": fromDate.Format(DateFormat),
			"from_time": fromTime,
			"to_date":   newDate.Format(DateFormat),
			"to_time":   newTime,
			"detached":  detached,
		})
		s.metrics.MutationApplied("move_one")

		result = &MoveResult{Moved: []Appointment{*updated}, Conflicts: conflicts, Applied: true}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// MoveSeries shifts every appointment sharing the anchor's series id by the
// same day offset and sets all of them to the new time. The batch is written
// in one transaction; a half-moved series is never visible. An appointment
// whose series id is shared by nobody else is moved as a single occurrence.
func (s *Service) MoveSeries(ctx context.Context, id uuid.UUID, newDate time.Time, newTime string, confirm bool, actor string) (*MoveResult, error) {
	if !ValidTimeOfDay(newTime) || newDate.IsZero() {
		return nil, ErrInvalidPlacement
	}

	anchor, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if anchor.SeriesID == nil {
		return s.MoveOne(ctx, id, newDate, newTime, confirm, actor)
	}

	count, err := s.repo.CountSeries(ctx, *anchor.SeriesID)
	if err != nil {
		return nil, fmt.Errorf("count series members: %w", err)
	}
	if count < 2 {
		return s.MoveOne(ctx, id, newDate, newTime, confirm, actor)
	}

	members, err := s.repo.List(ctx, ListFilter{SeriesID: anchor.SeriesID})
	if err != nil {
		return nil, fmt.Errorf("list series members: %w", err)
	}

	dayOffset := daysBetween(anchor.Date, newDate)

	memberIDs := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		memberIDs = append(memberIDs, m.ID)
	}

	moved := make([]Appointment, 0, len(members))
	for _, m := range members {
		m.Date = m.Date.AddDate(0, 0, dayOffset)
		m.StartTime = newTime
		moved = append(moved, m)
	}

	var result *MoveResult

	// Only the anchor's target day is locked; the other days a long series
	// touches stay open to concurrent edits within the advisory window.
	err = s.withCalendarLock(ctx, anchor.ProfessionalID, newDate, func(lockCtx context.Context) error {
		seen := make(map[uuid.UUID]struct{})
		var conflicts []Appointment
		for _, m := range moved {
			candidate := Candidate{
				Date:           m.Date,
				StartTime:      m.StartTime,
				DurationMin:    m.DurationMin,
				ProfessionalID: m.ProfessionalID,
			}
			found, err := s.FindConflicts(lockCtx, candidate, m.ID, memberIDs...)
			if err != nil {
				return fmt.Errorf("check conflicts: %w", err)
			}
			for _, c := range found {
				if _, ok := seen[c.ID]; ok {
					continue
				}
				seen[c.ID] = struct{}{}
				conflicts = append(conflicts, c)
			}
		}
		s.metrics.ConflictsDetected(len(conflicts))

		if len(conflicts) > 0 && !confirm {
			result = &MoveResult{Conflicts: conflicts, Applied: false}
			return nil
		}

		updated, err := s.repo.UpdateMany(lockCtx, moved)
		if err != nil {
			return fmt.Errorf("move series: %w", err)
		}

		s.logEvent(lockCtx, anchor.ID, actor, EventSeriesMoved, map[string]any{
			"series_id":  anchor.SeriesID.String(),
			"day_offset": dayOffset,
			"new_time":   newTime,
			"members":    len(updated),
		})
		s.metrics.MutationApplied("move_series")

		result = &MoveResult{Moved: updated, Conflicts: conflicts, Applied: true}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
