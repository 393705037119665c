package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore/clinic-scheduling/internal/db"
	"github.com/clinicore/clinic-scheduling/internal/schedule"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	professionals, err := seedProfessionals(context.Background(), pool, 12)
	if err != nil {
		log.Fatalf("seed professionals: %v", err)
	}
	patients, err := seedPatients(context.Background(), pool, 400)
	if err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedAppointments(context.Background(), pool, professionals, patients); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

type person struct {
	id   uuid.UUID
	name string
}

func seedProfessionals(ctx context.Context, pool *pgxpool.Pool, count int) ([]person, error) {
	log.Printf("seeding %d professionals", count)

	specialties := []string{
		"Physiotherapy",
		"Speech Therapy",
		"Psychology",
		"Nutrition",
		"Occupational Therapy",
		"General Practice",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	out := make([]person, 0, count)
	for i := 0; i < count; i++ {
		p := person{id: uuid.New(), name: gofakeit.Name()}
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO professionals (id, name, specialty, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
		`, p.id, p.name, spec)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("professionals seeded")
	return out, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) ([]person, error) {
	log.Printf("seeding %d patients", count)

	const batchSize = 100

	out := make([]person, 0, count)
	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return nil, err
		}

		for i := offset; i < end; i++ {
			p := person{id: uuid.New(), name: gofakeit.Name()}
			rate := float64(gofakeit.Number(80, 250))

			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, name, standard_rate, created_at, updated_at)
				VALUES ($1, $2, $3, now(), now())
			`, p.id, p.name, rate)
			if err != nil {
				_ = tx.Rollback(ctx)
				return nil, err
			}
			out = append(out, p)
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	log.Println("patients seeded")
	return out, nil
}

// seedAppointments fills the next four weeks with standalone visits plus a
// few weekly recurring series per professional.
func seedAppointments(ctx context.Context, pool *pgxpool.Pool, professionals, patients []person) error {
	log.Println("seeding appointments")

	types := []schedule.ConsultationType{
		schedule.ConsultFirstVisit,
		schedule.ConsultFollowUp,
		schedule.ConsultExam,
		schedule.ConsultProcedure,
	}
	slots := []string{"08:00", "09:00", "10:00", "11:00", "14:00", "15:00", "16:00", "17:00"}

	today := time.Now().UTC().Truncate(24 * time.Hour)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	insert := func(prof, pat person, date time.Time, slot string, ctype schedule.ConsultationType, seriesID *uuid.UUID) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO appointments (
				id, date, start_time, duration_min,
				patient_id, patient_name, professional_id, professional_name,
				consultation_type, status, series_id, amount, remarks,
				created_at, updated_at
			)
			VALUES ($1, $2, $3, 60, $4, $5, $6, $7, $8, 'scheduled', $9, $10, '', now(), now())
		`, uuid.New(), date, slot, pat.id, pat.name, prof.id, prof.name,
			ctype, seriesID, float64(gofakeit.Number(80, 250)))
		return err
	}

	for _, prof := range professionals {
		// standalone visits
		for day := 0; day < 28; day++ {
			date := today.AddDate(0, 0, day)
			for _, slot := range slots {
				if gofakeit.Number(0, 3) != 0 {
					continue
				}
				pat := patients[gofakeit.Number(0, len(patients)-1)]
				ctype := types[gofakeit.Number(0, len(types)-1)]
				if err := insert(prof, pat, date, slot, ctype, nil); err != nil {
					return err
				}
			}
		}

		// weekly series, 4 occurrences each
		for s := 0; s < 2; s++ {
			seriesID := uuid.New()
			pat := patients[gofakeit.Number(0, len(patients)-1)]
			slot := slots[gofakeit.Number(0, len(slots)-1)]
			start := today.AddDate(0, 0, gofakeit.Number(0, 6))
			for week := 0; week < 4; week++ {
				date := start.AddDate(0, 0, 7*week)
				if err := insert(prof, pat, date, slot, schedule.ConsultFollowUp, &seriesID); err != nil {
					return err
				}
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("appointments seeded")
	return nil
}
