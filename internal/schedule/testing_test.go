package schedule

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// memRepo is an in-memory AppointmentRepository with the same atomicity
// shape as the pg implementation: batch methods apply all-or-nothing.
type memRepo struct {
	mu     sync.Mutex
	appts  map[uuid.UUID]Appointment
	events []AppointmentEvent
	nextEv int64

	updateManyCalls int
	failUpdateMany  bool
}

func newMemRepo() *memRepo {
	return &memRepo{appts: make(map[uuid.UUID]Appointment)}
}

func (r *memRepo) put(a Appointment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appts[a.ID] = a
}

func (r *memRepo) List(_ context.Context, filter ListFilter) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Appointment
	for _, a := range r.appts {
		if !filter.Date.IsZero() && !a.Date.Equal(filter.Date) {
			continue
		}
		if !filter.From.IsZero() && a.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && a.Date.After(filter.To) {
			continue
		}
		if filter.ProfessionalID != nil && a.ProfessionalID != *filter.ProfessionalID {
			continue
		}
		if filter.SeriesID != nil && (a.SeriesID == nil || *a.SeriesID != *filter.SeriesID) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := a
	return &cp, nil
}

func (r *memRepo) Create(_ context.Context, a *Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	r.appts[a.ID] = *a
	cp := *a
	return &cp, nil
}

func (r *memRepo) Update(_ context.Context, a *Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updateLocked(a)
}

func (r *memRepo) updateLocked(a *Appointment) (*Appointment, error) {
	if _, ok := r.appts[a.ID]; !ok {
		return nil, ErrAppointmentNotFound
	}
	a.UpdatedAt = time.Now().UTC()
	r.appts[a.ID] = *a
	cp := *a
	return &cp, nil
}

func (r *memRepo) UpdateMany(_ context.Context, appts []Appointment) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.updateManyCalls++
	if r.failUpdateMany {
		return nil, fmt.Errorf("batch update: forced failure")
	}

	// all-or-nothing, like the transactional pg implementation
	for i := range appts {
		if _, ok := r.appts[appts[i].ID]; !ok {
			return nil, ErrAppointmentNotFound
		}
	}
	out := make([]Appointment, 0, len(appts))
	for i := range appts {
		updated, _ := r.updateLocked(&appts[i])
		out = append(out, *updated)
	}
	return out, nil
}

func (r *memRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.appts[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(r.appts, id)
	return nil
}

func (r *memRepo) CountSeries(_ context.Context, seriesID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, a := range r.appts {
		if a.SeriesID != nil && *a.SeriesID == seriesID {
			count++
		}
	}
	return count, nil
}

func (r *memRepo) FindActiveSubstitution(_ context.Context, originalID uuid.UUID) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.appts {
		if a.IsSubstitution && a.OriginalAppointmentID != nil && *a.OriginalAppointmentID == originalID {
			cp := a
			return &cp, nil
		}
	}
	return nil, ErrSubstitutionNotFound
}

func (r *memRepo) CreateSubstitution(_ context.Context, replacement, original *Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.appts[original.ID]; !ok {
		return nil, ErrAppointmentNotFound
	}
	now := time.Now().UTC()
	replacement.CreatedAt = now
	replacement.UpdatedAt = now
	r.appts[replacement.ID] = *replacement
	if _, err := r.updateLocked(original); err != nil {
		delete(r.appts, replacement.ID)
		return nil, err
	}
	cp := *replacement
	return &cp, nil
}

func (r *memRepo) DeleteSubstitution(_ context.Context, replacementID uuid.UUID, original *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.appts[replacementID]; !ok {
		return ErrSubstitutionNotFound
	}
	if _, ok := r.appts[original.ID]; !ok {
		return ErrAppointmentNotFound
	}
	delete(r.appts, replacementID)
	_, err := r.updateLocked(original)
	return err
}

func (r *memRepo) InsertEvent(_ context.Context, ev AppointmentEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextEv++
	ev.ID = r.nextEv
	r.events = append(r.events, ev)
	return nil
}

func (r *memRepo) ListEvents(_ context.Context, appointmentID uuid.UUID) ([]AppointmentEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []AppointmentEvent
	for _, ev := range r.events {
		if ev.AppointmentID == appointmentID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (r *memRepo) eventsOfType(appointmentID uuid.UUID, eventType string) []AppointmentEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []AppointmentEvent
	for _, ev := range r.events {
		if ev.AppointmentID == appointmentID && ev.EventType == eventType {
			out = append(out, ev)
		}
	}
	return out
}

type memDirectory struct {
	patients      map[uuid.UUID]Patient
	professionals map[uuid.UUID]Professional
}

func newMemDirectory() *memDirectory {
	return &memDirectory{
		patients:      make(map[uuid.UUID]Patient),
		professionals: make(map[uuid.UUID]Professional),
	}
}

func (d *memDirectory) addPatient(name string, rate *float64) Patient {
	p := Patient{ID: uuid.New(), Name: name, StandardRate: rate}
	d.patients[p.ID] = p
	return p
}

func (d *memDirectory) addProfessional(name string) Professional {
	p := Professional{ID: uuid.New(), Name: name}
	d.professionals[p.ID] = p
	return p
}

func (d *memDirectory) GetPatientByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := d.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return &p, nil
}

func (d *memDirectory) GetProfessionalByID(_ context.Context, id uuid.UUID) (*Professional, error) {
	p, ok := d.professionals[id]
	if !ok {
		return nil, ErrProfessionalNotFound
	}
	return &p, nil
}

type memPayments struct {
	mu      sync.Mutex
	records map[uuid.UUID]PaymentRecord // keyed by appointment id
}

func newMemPayments() *memPayments {
	return &memPayments{records: make(map[uuid.UUID]PaymentRecord)}
}

func (r *memPayments) GetByAppointmentID(_ context.Context, appointmentID uuid.UUID) (*PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.records[appointmentID]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	cp := p
	return &cp, nil
}

func (r *memPayments) Create(_ context.Context, p *PaymentRecord) (*PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.AppointmentID == nil {
		return nil, fmt.Errorf("test payments fake requires an appointment id")
	}
	r.records[*p.AppointmentID] = *p
	cp := *p
	return &cp, nil
}

func (r *memPayments) Update(_ context.Context, p *PaymentRecord) (*PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.AppointmentID == nil {
		return nil, ErrPaymentNotFound
	}
	if _, ok := r.records[*p.AppointmentID]; !ok {
		return nil, ErrPaymentNotFound
	}
	r.records[*p.AppointmentID] = *p
	cp := *p
	return &cp, nil
}

func (r *memPayments) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

type memInvoices struct {
	mu      sync.Mutex
	records map[string]InvoiceRecord // keyed by patientID + month
}

func newMemInvoices() *memInvoices {
	return &memInvoices{records: make(map[string]InvoiceRecord)}
}

func invoiceKey(patientID uuid.UUID, month string) string {
	return patientID.String() + "/" + month
}

func (r *memInvoices) GetByPatientMonth(_ context.Context, patientID uuid.UUID, month string) (*InvoiceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inv, ok := r.records[invoiceKey(patientID, month)]
	if !ok {
		return nil, ErrInvoiceNotFound
	}
	cp := inv
	return &cp, nil
}

func (r *memInvoices) Create(_ context.Context, inv *InvoiceRecord) (*InvoiceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[invoiceKey(inv.PatientID, inv.ReferenceMonth)] = *inv
	cp := *inv
	return &cp, nil
}

// testEnv bundles a service over in-memory collaborators.
type testEnv struct {
	svc      *Service
	repo     *memRepo
	dir      *memDirectory
	payments *memPayments
	invoices *memInvoices
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := newMemRepo()
	dir := newMemDirectory()
	payments := newMemPayments()
	invoices := newMemInvoices()

	svc := NewService(Deps{
		Appointments: repo,
		Payments:     payments,
		Invoices:     invoices,
		Directory:    dir,
	})

	return &testEnv{svc: svc, repo: repo, dir: dir, payments: payments, invoices: invoices}
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

// appt builds a stored appointment with sensible defaults.
func (e *testEnv) appt(t *testing.T, prof Professional, pat Patient, date, startTime string, mutate func(*Appointment)) Appointment {
	t.Helper()

	a := Appointment{
		ID:               uuid.New(),
		Date:             mustDate(t, date),
		StartTime:        startTime,
		DurationMin:      60,
		PatientID:        pat.ID,
		PatientName:      pat.Name,
		ProfessionalID:   prof.ID,
		ProfessionalName: prof.Name,
		ConsultationType: ConsultFollowUp,
		Status:           StatusScheduled,
		Amount:           100,
	}
	if mutate != nil {
		mutate(&a)
	}
	e.repo.put(a)
	return a
}
