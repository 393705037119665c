package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Candidate is a placement being tested against a professional's day.
type Candidate struct {
	Date           time.Time
	StartTime      string
	DurationMin    int
	ProfessionalID uuid.UUID
}

// FindConflicts returns every appointment of the same professional on the
// same day whose interval overlaps the candidate. The result is advisory
// data for the operator, never a blocking error: knowingly double-booking
// is allowed.
//
// excludeID drops the appointment being moved so it cannot conflict with
// itself; skipIDs drops series siblings during a series move. Canceled and
// no-show appointments don't occupy their slot and are ignored.
func (s *Service) FindConflicts(ctx context.Context, c Candidate, excludeID uuid.UUID, skipIDs ...uuid.UUID) ([]Appointment, error) {
	candidate, err := NewInterval(c.Date, c.StartTime, c.DurationMin)
	if err != nil {
		return nil, fmt.Errorf("candidate interval: %w", err)
	}

	// Scope is always one professional, even when the caller's view filter
	// is "all professionals". Cross-professional overlap is not a conflict.
	profID := c.ProfessionalID
	existing, err := s.repo.List(ctx, ListFilter{
		Date:           c.Date,
		ProfessionalID: &profID,
	})
	if err != nil {
		return nil, fmt.Errorf("list same-day appointments: %w", err)
	}

	skip := make(map[uuid.UUID]struct{}, len(skipIDs)+1)
	skip[excludeID] = struct{}{}
	for _, id := range skipIDs {
		skip[id] = struct{}{}
	}

	var conflicts []Appointment
	for _, a := range existing {
		if _, ok := skip[a.ID]; ok {
			continue
		}
		if slotInactive(a.Status) {
			continue
		}
		iv, err := a.Interval()
		if err != nil {
			// A stored appointment with an unparseable time is data corruption;
			// report it rather than silently skipping the row.
			return nil, fmt.Errorf("interval of appointment %s: %w", a.ID, err)
		}
		if candidate.Overlaps(iv) {
			conflicts = append(conflicts, a)
		}
	}

	return conflicts, nil
}

func slotInactive(s Status) bool {
	for _, st := range InactiveStatuses {
		if s == st {
			return true
		}
	}
	return false
}
