package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

var apptTestColumns = []string{
	"id", "date", "start_time", "duration_min",
	"patient_id", "patient_name", "professional_id", "professional_name",
	"consultation_type", "status", "series_id",
	"is_substitution", "original_appointment_id", "replaced_patient_id", "replaced_patient_name", "substitution_reason",
	"amount", "remarks", "created_at", "updated_at",
}

func apptRow(a Appointment) *pgxmock.Rows {
	return pgxmock.NewRows(apptTestColumns).AddRow(
		a.ID, a.Date, a.StartTime, a.DurationMin,
		a.PatientID, a.PatientName, a.ProfessionalID, a.ProfessionalName,
		a.ConsultationType, a.Status, a.SeriesID,
		a.IsSubstitution, a.OriginalAppointmentID, a.ReplacedPatientID, a.ReplacedPatientName, a.SubstitutionReason,
		a.Amount, a.Remarks, a.CreatedAt, a.UpdatedAt,
	)
}

// anyArgs returns n pgxmock.AnyArg() matchers; pgxmock v4 requires the
// expected argument count to be declared even when values are irrelevant.
func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func testAppt() Appointment {
	now := time.Now().UTC()
	return Appointment{
		ID:               uuid.New(),
		Date:             time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC),
		StartTime:        "14:00",
		DurationMin:      60,
		PatientID:        uuid.New(),
		PatientName:      "Ana",
		ProfessionalID:   uuid.New(),
		ProfessionalName: "Dr. Reis",
		ConsultationType: ConsultFollowUp,
		Status:           StatusScheduled,
		Amount:           100,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestUpdateManyCommitsWholeBatch(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("new mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewPgRepository(mock)

	a := testAppt()
	b := testAppt()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE appointments").WithArgs(anyArgs(12)...).WillReturnRows(apptRow(a))
	mock.ExpectQuery("UPDATE appointments").WithArgs(anyArgs(12)...).WillReturnRows(apptRow(b))
	mock.ExpectCommit()

	updated, err := repo.UpdateMany(context.Background(), []Appointment{a, b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updated) != 2 {
		t.Fatalf("expected 2 updated rows, got %d", len(updated))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpdateManyRollsBackOnFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("new mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewPgRepository(mock)

	a := testAppt()
	b := testAppt()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE appointments").WithArgs(anyArgs(12)...).WillReturnRows(apptRow(a))
	mock.ExpectQuery("UPDATE appointments").WithArgs(anyArgs(12)...).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err = repo.UpdateMany(context.Background(), []Appointment{a, b})
	if err == nil {
		t.Fatal("expected error when a batch member fails")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDeleteReportsMissingRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("new mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewPgRepository(mock)

	mock.ExpectExec("DELETE FROM appointments").
		WithArgs(anyArgs(1)...).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	if err := repo.Delete(context.Background(), uuid.New()); !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("expected ErrAppointmentNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetByIDMapsNoRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("new mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewPgRepository(mock)

	mock.ExpectQuery("SELECT (.+) FROM appointments").WithArgs(anyArgs(1)...).WillReturnError(pgx.ErrNoRows)

	if _, err := repo.GetByID(context.Background(), uuid.New()); !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("expected ErrAppointmentNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestFindActiveSubstitutionMapsNoRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("new mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewPgRepository(mock)

	mock.ExpectQuery("SELECT (.+) FROM appointments").WithArgs(anyArgs(1)...).WillReturnError(pgx.ErrNoRows)

	if _, err := repo.FindActiveSubstitution(context.Background(), uuid.New()); !errors.Is(err, ErrSubstitutionNotFound) {
		t.Errorf("expected ErrSubstitutionNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
