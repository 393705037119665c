package schedule

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestFindConflictsReportsOverlapOnly(t *testing.T) {
	env := newTestEnv(t)
	prof := env.dir.addProfessional("Dr. Reis")
	pat := env.dir.addPatient("Ana", nil)

	// A: 09:00-10:00
	a := env.appt(t, prof, pat, "2024-06-10", "09:00", nil)

	// B at 09:30 overlaps A
	conflicts, err := env.svc.FindConflicts(context.Background(), Candidate{
		Date:           mustDate(t, "2024-06-10"),
		StartTime:      "09:30",
		DurationMin:    60,
		ProfessionalID: prof.ID,
	}, uuid.Nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conflicts) != 1 || conflicts[0].ID != a.ID {
		t.Fatalf("expected exactly appointment A as conflict, got %d", len(conflicts))
	}

	// C at 10:00 touches A's end and must not conflict
	conflicts, err = env.svc.FindConflicts(context.Background(), Candidate{
		Date:           mustDate(t, "2024-06-10"),
		StartTime:      "10:00",
		DurationMin:    60,
		ProfessionalID: prof.ID,
	}, uuid.Nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("touching boundary must not conflict, got %d conflicts", len(conflicts))
	}
}

func TestFindConflictsScopedToProfessional(t *testing.T) {
	env := newTestEnv(t)
	p1 := env.dir.addProfessional("Dr. Reis")
	p2 := env.dir.addProfessional("Dr. Lima")
	pat := env.dir.addPatient("Ana", nil)

	env.appt(t, p1, pat, "2024-06-10", "09:00", nil)

	// Same grid cell, other professional: no conflict.
	conflicts, err := env.svc.FindConflicts(context.Background(), Candidate{
		Date:           mustDate(t, "2024-06-10"),
		StartTime:      "09:00",
		DurationMin:    60,
		ProfessionalID: p2.ID,
	}, uuid.Nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("cross-professional overlap must not be a conflict, got %d", len(conflicts))
	}
}

func TestFindConflictsExcludesSelfAndSkipIDs(t *testing.T) {
	env := newTestEnv(t)
	prof := env.dir.addProfessional("Dr. Reis")
	pat := env.dir.addPatient("Ana", nil)

	a := env.appt(t, prof, pat, "2024-06-10", "09:00", nil)
	b := env.appt(t, prof, pat, "2024-06-10", "09:30", nil)

	conflicts, err := env.svc.FindConflicts(context.Background(), Candidate{
		Date:           mustDate(t, "2024-06-10"),
		StartTime:      "09:00",
		DurationMin:    60,
		ProfessionalID: prof.ID,
	}, a.ID, b.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("excluded ids must not conflict, got %d", len(conflicts))
	}
}

func TestFindConflictsIgnoresInactiveStatuses(t *testing.T) {
	env := newTestEnv(t)
	prof := env.dir.addProfessional("Dr. Reis")
	pat := env.dir.addPatient("Ana", nil)

	env.appt(t, prof, pat, "2024-06-10", "09:00", func(a *Appointment) {
		a.Status = StatusCanceled
	})
	env.appt(t, prof, pat, "2024-06-10", "09:00", func(a *Appointment) {
		a.Status = StatusNoShow
	})

	conflicts, err := env.svc.FindConflicts(context.Background(), Candidate{
		Date:           mustDate(t, "2024-06-10"),
		StartTime:      "09:00",
		DurationMin:    60,
		ProfessionalID: prof.ID,
	}, uuid.Nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("canceled and no-show slots must not conflict, got %d", len(conflicts))
	}
}
