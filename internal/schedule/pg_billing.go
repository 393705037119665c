package schedule

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PgPaymentRepository struct {
	pool PgxPool
}

func NewPgPaymentRepository(pool PgxPool) *PgPaymentRepository {
	return &PgPaymentRepository{pool: pool}
}

const paymentColumns = `id, appointment_id, patient_id, patient_name,
	amount_due, amount_paid, due_date, paid_date,
	status, method, type, created_at, updated_at`

func scanPayment(row pgx.Row) (*PaymentRecord, error) {
	var p PaymentRecord

	err := row.Scan(
		&p.ID,
		&p.AppointmentID,
		&p.PatientID,
		&p.PatientName,
		&p.AmountDue,
		&p.AmountPaid,
		&p.DueDate,
		&p.PaidDate,
		&p.Status,
		&p.Method,
		&p.Type,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	return &p, nil
}

func (r *PgPaymentRepository) GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*PaymentRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE appointment_id = $1
	`, appointmentID)
	return scanPayment(row)
}

func (r *PgPaymentRepository) Create(ctx context.Context, p *PaymentRecord) (*PaymentRecord, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO payments (
			id, appointment_id, patient_id, patient_name,
			amount_due, amount_paid, due_date, paid_date,
			status, method, type, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())
		RETURNING `+paymentColumns+`
	`,
		p.ID, p.AppointmentID, p.PatientID, p.PatientName,
		p.AmountDue, p.AmountPaid, p.DueDate, p.PaidDate,
		p.Status, p.Method, p.Type,
	)
	return scanPayment(row)
}

func (r *PgPaymentRepository) Update(ctx context.Context, p *PaymentRecord) (*PaymentRecord, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE payments
		SET amount_due = $2,
		    amount_paid = $3,
		    paid_date = $4,
		    status = $5,
		    method = $6,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+paymentColumns+`
	`, p.ID, p.AmountDue, p.AmountPaid, p.PaidDate, p.Status, p.Method)
	return scanPayment(row)
}

type PgInvoiceRepository struct {
	pool PgxPool
}

func NewPgInvoiceRepository(pool PgxPool) *PgInvoiceRepository {
	return &PgInvoiceRepository{pool: pool}
}

const invoiceColumns = `id, patient_id, reference_month, amount, issue_date,
	status, description, session_count, created_at, updated_at`

func scanInvoice(row pgx.Row) (*InvoiceRecord, error) {
	var inv InvoiceRecord

	err := row.Scan(
		&inv.ID,
		&inv.PatientID,
		&inv.ReferenceMonth,
		&inv.Amount,
		&inv.IssueDate,
		&inv.Status,
		&inv.Description,
		&inv.SessionCount,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}

	return &inv, nil
}

func (r *PgInvoiceRepository) GetByPatientMonth(ctx context.Context, patientID uuid.UUID, month string) (*InvoiceRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE patient_id = $1 AND reference_month = $2
	`, patientID, month)
	return scanInvoice(row)
}

func (r *PgInvoiceRepository) Create(ctx context.Context, inv *InvoiceRecord) (*InvoiceRecord, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO invoices (
			id, patient_id, reference_month, amount, issue_date,
			status, description, session_count, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING `+invoiceColumns+`
	`,
		inv.ID, inv.PatientID, inv.ReferenceMonth, inv.Amount, inv.IssueDate,
		inv.Status, inv.Description, inv.SessionCount,
	)
	return scanInvoice(row)
}
