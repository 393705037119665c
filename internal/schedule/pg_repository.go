package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool the repositories use. pgxmock
// satisfies it in tests.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgRepository struct {
	pool PgxPool
}

func NewPgRepository(pool PgxPool) *PgRepository {
	return &PgRepository{pool: pool}
}

const apptColumns = `id, date, start_time, duration_min,
	patient_id, patient_name, professional_id, professional_name,
	consultation_type, status, series_id,
	is_substitution, original_appointment_id, replaced_patient_id, replaced_patient_name, substitution_reason,
	amount, remarks, created_at, updated_at`

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.Date,
		&a.StartTime,
		&a.DurationMin,
		&a.PatientID,
		&a.PatientName,
		&a.ProfessionalID,
		&a.ProfessionalName,
		&a.ConsultationType,
		&a.Status,
		&a.SeriesID,
		&a.IsSubstitution,
		&a.OriginalAppointmentID,
		&a.ReplacedPatientID,
		&a.ReplacedPatientName,
		&a.SubstitutionReason,
		&a.Amount,
		&a.Remarks,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.StandardRate,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	return &p, nil
}

func scanProfessional(row pgx.Row) (*Professional, error) {
	var p Professional

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Specialty,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfessionalNotFound
		}
		return nil, err
	}

	return &p, nil
}

// Interface methods

func (r *PgRepository) List(ctx context.Context, filter ListFilter) ([]Appointment, error) {
	var conds []string
	var args []any

	if !filter.Date.IsZero() {
		args = append(args, filter.Date)
		conds = append(conds, fmt.Sprintf("date = $%d", len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		conds = append(conds, fmt.Sprintf("date >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		conds = append(conds, fmt.Sprintf("date <= $%d", len(args)))
	}
	if filter.ProfessionalID != nil {
		args = append(args, *filter.ProfessionalID)
		conds = append(conds, fmt.Sprintf("professional_id = $%d", len(args)))
	}
	if filter.SeriesID != nil {
		args = append(args, *filter.SeriesID)
		conds = append(conds, fmt.Sprintf("series_id = $%d", len(args)))
	}

	query := `SELECT ` + apptColumns + ` FROM appointments`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date, start_time"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) Create(ctx context.Context, a *Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (
			id, date, start_time, duration_min,
			patient_id, patient_name, professional_id, professional_name,
			consultation_type, status, series_id,
			is_substitution, original_appointment_id, replaced_patient_id, replaced_patient_name, substitution_reason,
			amount, remarks, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, now(), now())
		RETURNING `+apptColumns+`
	`,
		a.ID, a.Date, a.StartTime, a.DurationMin,
		a.PatientID, a.PatientName, a.ProfessionalID, a.ProfessionalName,
		a.ConsultationType, a.Status, a.SeriesID,
		a.IsSubstitution, a.OriginalAppointmentID, a.ReplacedPatientID, a.ReplacedPatientName, a.SubstitutionReason,
		a.Amount, a.Remarks,
	)
	return scanAppointment(row)
}

const apptUpdateSQL = `
	UPDATE appointments
	SET date = $2,
	    start_time = $3,
	    duration_min = $4,
	    patient_id = $5,
	    patient_name = $6,
	    consultation_type = $7,
	    status = $8,
	    series_id = $9,
	    substitution_reason = $10,
	    amount = $11,
	    remarks = $12,
	    updated_at = now()
	WHERE id = $1
	RETURNING ` + apptColumns

func updateArgs(a *Appointment) []any {
	return []any{
		a.ID, a.Date, a.StartTime, a.DurationMin,
		a.PatientID, a.PatientName,
		a.ConsultationType, a.Status, a.SeriesID,
		a.SubstitutionReason, a.Amount, a.Remarks,
	}
}

func (r *PgRepository) Update(ctx context.Context, a *Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, apptUpdateSQL, updateArgs(a)...)
	return scanAppointment(row)
}

// UpdateMany applies the batch inside one transaction so a partially moved
// series is never observable.
func (r *PgRepository) UpdateMany(ctx context.Context, appts []Appointment) ([]Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin batch update: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	updated := make([]Appointment, 0, len(appts))
	for i := range appts {
		row := tx.QueryRow(ctx, apptUpdateSQL, updateArgs(&appts[i])...)
		a, err := scanAppointment(row)
		if err != nil {
			return nil, fmt.Errorf("update appointment %s: %w", appts[i].ID, err)
		}
		updated = append(updated, *a)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit batch update: %w", err)
	}

	return updated, nil
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) CountSeries(ctx context.Context, seriesID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM appointments WHERE series_id = $1
	`, seriesID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PgRepository) FindActiveSubstitution(ctx context.Context, originalID uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE original_appointment_id = $1
		  AND is_substitution
	`, originalID)

	a, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrSubstitutionNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *PgRepository) CreateSubstitution(ctx context.Context, replacement, original *Appointment) (*Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin substitution: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	row := tx.QueryRow(ctx, `
		INSERT INTO appointments (
			id, date, start_time, duration_min,
			patient_id, patient_name, professional_id, professional_name,
			consultation_type, status, series_id,
			is_substitution, original_appointment_id, replaced_patient_id, replaced_patient_name, substitution_reason,
			amount, remarks, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, now(), now())
		RETURNING `+apptColumns+`
	`,
		replacement.ID, replacement.Date, replacement.StartTime, replacement.DurationMin,
		replacement.PatientID, replacement.PatientName, replacement.ProfessionalID, replacement.ProfessionalName,
		replacement.ConsultationType, replacement.Status, replacement.SeriesID,
		replacement.IsSubstitution, replacement.OriginalAppointmentID, replacement.ReplacedPatientID, replacement.ReplacedPatientName, replacement.SubstitutionReason,
		replacement.Amount, replacement.Remarks,
	)
	created, err := scanAppointment(row)
	if err != nil {
		return nil, fmt.Errorf("insert replacement: %w", err)
	}

	if _, err := scanAppointment(tx.QueryRow(ctx, apptUpdateSQL, updateArgs(original)...)); err != nil {
		return nil, fmt.Errorf("update original: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit substitution: %w", err)
	}

	return created, nil
}

func (r *PgRepository) DeleteSubstitution(ctx context.Context, replacementID uuid.UUID, original *Appointment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin substitution cancel: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, replacementID)
	if err != nil {
		return fmt.Errorf("delete replacement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSubstitutionNotFound
	}

	if _, err := scanAppointment(tx.QueryRow(ctx, apptUpdateSQL, updateArgs(original)...)); err != nil {
		return fmt.Errorf("update original: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit substitution cancel: %w", err)
	}

	return nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev AppointmentEvent) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointment_events (appointment_id, actor, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, ev.AppointmentID, ev.Actor, ev.EventType, ev.Payload, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert appointment event: %w", err)
	}
	return nil
}

func (r *PgRepository) ListEvents(ctx context.Context, appointmentID uuid.UUID) ([]AppointmentEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, appointment_id, actor, event_type, payload, created_at
		FROM appointment_events
		WHERE appointment_id = $1
		ORDER BY created_at, id
	`, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AppointmentEvent
	for rows.Next() {
		var ev AppointmentEvent
		if err := rows.Scan(&ev.ID, &ev.AppointmentID, &ev.Actor, &ev.EventType, &ev.Payload, &ev.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Directory methods

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, standard_rate, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) GetProfessionalByID(ctx context.Context, id uuid.UUID) (*Professional, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, specialty, created_at, updated_at
		FROM professionals
		WHERE id = $1
	`, id)
	return scanProfessional(row)
}
