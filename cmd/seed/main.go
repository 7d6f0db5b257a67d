package main

import (
	"context"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/civisched/appointment-scheduling/internal/db"
	"github.com/civisched/appointment-scheduling/internal/scheduling"
)

const (
	divisionCount  = 12
	citizensPerDiv = 200
	availableDays  = 5
	officeDayStart = "09:00"
	officeDayEnd   = "17:00"
	slotMinutes    = 30
)

var serviceNames = []string{
	"Passport Renewal",
	"National ID Card",
	"Birth Certificate",
	"Marriage Certificate",
	"Residence Permit",
	"Land Registry Extract",
	"Business License",
	"Police Clearance",
}

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "seed").Logger()
	logger.Info().Msg("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		logger.Fatal().Msg("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn, 4)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	officerIDs, err := seedDivisions(context.Background(), pool, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed divisions")
	}
	if err := seedServices(context.Background(), pool); err != nil {
		logger.Fatal().Err(err).Msg("seed services")
	}
	if err := seedSlots(context.Background(), pool, officerIDs); err != nil {
		logger.Fatal().Err(err).Msg("seed slots")
	}

	logger.Info().Msg("seed complete")
}

// seedDivisions creates each division with one assigned officer and a
// population of verified citizens.
func seedDivisions(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) ([]uuid.UUID, error) {
	logger.Info().Int("divisions", divisionCount).Msg("seeding divisions")

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	officerIDs := make([]uuid.UUID, 0, divisionCount)
	for i := 0; i < divisionCount; i++ {
		officerID := uuid.New()
		_, err := tx.Exec(ctx, `
			INSERT INTO officers (id, name, active)
			VALUES ($1, $2, true)
		`, officerID, gofakeit.Name())
		if err != nil {
			return nil, err
		}
		officerIDs = append(officerIDs, officerID)

		divisionID := uuid.New()
		_, err = tx.Exec(ctx, `
			INSERT INTO divisions (id, name, assigned_officer_id)
			VALUES ($1, $2, $3)
		`, divisionID, gofakeit.City()+" District Office", officerID)
		if err != nil {
			return nil, err
		}

		for j := 0; j < citizensPerDiv; j++ {
			// Leave a few unverified to exercise the forbidden path.
			verified := gofakeit.Number(0, 9) > 0
			_, err := tx.Exec(ctx, `
				INSERT INTO citizens (id, name, verified, division_id)
				VALUES ($1, $2, $3, $4)
			`, uuid.New(), gofakeit.Name(), verified, divisionID)
			if err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	logger.Info().Int("officers", len(officerIDs)).Msg("divisions seeded")
	return officerIDs, nil
}

func seedServices(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i, name := range serviceNames {
		// Keep one disabled entry for testing the rejected path.
		enabled := i != len(serviceNames)-1
		_, err := tx.Exec(ctx, `
			INSERT INTO services (id, name, enabled)
			VALUES ($1, $2, $3)
		`, uuid.New(), name, enabled)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// seedSlots fills each officer's next few working days with half-hour
// windows.
func seedSlots(ctx context.Context, pool *pgxpool.Pool, officerIDs []uuid.UUID) error {
	ranges, err := scheduling.GenerateSlots(officeDayStart, officeDayEnd, slotMinutes)
	if err != nil {
		return err
	}

	today := scheduling.DateOnly(time.Now())

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, officerID := range officerIDs {
		for day := 0; day < availableDays; day++ {
			date := today.AddDate(0, 0, day+1)
			for _, r := range ranges {
				_, err := tx.Exec(ctx, `
					INSERT INTO slots (officer_id, date, start_time, end_time, status, created_at, updated_at)
					VALUES ($1, $2, $3, $4, $5, now(), now())
				`, officerID, date, r.Start, r.End, scheduling.SlotAvailable)
				if err != nil {
					return err
				}
			}
		}
	}

	return tx.Commit(ctx)
}
