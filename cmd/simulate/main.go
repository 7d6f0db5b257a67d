// simulate fires concurrent booking requests at a running api-server to
// exercise the slot reservation race: many citizens of the same division
// target a small pool of their officer's slots, and the summary shows
// exactly one winner per slot.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/civisched/appointment-scheduling/internal/config"
	"github.com/civisched/appointment-scheduling/internal/db"
)

type simConfig struct {
	APIBaseURL string
	Workers    int
	Requests   int
	SlotPool   int
}

type citizenTarget struct {
	CitizenID uuid.UUID
	OfficerID uuid.UUID
}

type counters struct {
	booked   atomic.Int64
	conflict atomic.Int64
	rejected atomic.Int64
	failed   atomic.Int64
}

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "simulate").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load error")
	}

	sim := simConfig{
		APIBaseURL: getEnv("SIM_API_URL", "http://localhost:"+cfg.HTTPPort),
		Workers:    getEnvInt("SIM_WORKERS", 16),
		Requests:   getEnvInt("SIM_REQUESTS", 200),
		SlotPool:   getEnvInt("SIM_SLOT_POOL", 10),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, 4)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	citizens, slots, serviceID, err := loadTargets(ctx, pool, sim.SlotPool)
	if err != nil {
		logger.Fatal().Err(err).Msg("load simulation targets")
	}
	if len(citizens) == 0 || len(slots) == 0 {
		logger.Fatal().Msg("no seeded citizens or slots found, run cmd/seed first")
	}

	logger.Info().
		Int("workers", sim.Workers).
		Int("requests", sim.Requests).
		Int("citizens", len(citizens)).
		Int("slots", len(slots)).
		Msg("starting booking storm")

	var c counters
	var wg sync.WaitGroup
	requests := make(chan int)

	for w := 0; w < sim.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 10 * time.Second}
			for range requests {
				target := citizens[rand.Intn(len(citizens))]
				slotID := slots[target.OfficerID][rand.Intn(len(slots[target.OfficerID]))]
				book(client, sim.APIBaseURL, cfg.JWTSecret, target, serviceID, slotID, &c)
			}
		}()
	}

	for i := 0; i < sim.Requests; i++ {
		requests <- i
	}
	close(requests)
	wg.Wait()

	logger.Info().
		Int64("booked", c.booked.Load()).
		Int64("conflict", c.conflict.Load()).
		Int64("rejected", c.rejected.Load()).
		Int64("failed", c.failed.Load()).
		Msg("booking storm finished")
}

// loadTargets picks verified citizens with an assigned officer, a small pool
// of that officer's open slots, and one enabled service.
func loadTargets(ctx context.Context, pool *pgxpool.Pool, slotPool int) ([]citizenTarget, map[uuid.UUID][]int64, uuid.UUID, error) {
	rows, err := pool.Query(ctx, `
		SELECT c.id, d.assigned_officer_id
		FROM citizens c
		JOIN divisions d ON d.id = c.division_id
		WHERE c.verified AND d.assigned_officer_id IS NOT NULL
		LIMIT 500
	`)
	if err != nil {
		return nil, nil, uuid.Nil, err
	}
	defer rows.Close()

	var citizens []citizenTarget
	officers := make(map[uuid.UUID]bool)
	for rows.Next() {
		var t citizenTarget
		if err := rows.Scan(&t.CitizenID, &t.OfficerID); err != nil {
			return nil, nil, uuid.Nil, err
		}
		citizens = append(citizens, t)
		officers[t.OfficerID] = true
	}
	if err := rows.Err(); err != nil {
		return nil, nil, uuid.Nil, err
	}

	slots := make(map[uuid.UUID][]int64)
	for officerID := range officers {
		srows, err := pool.Query(ctx, `
			SELECT id FROM slots
			WHERE officer_id = $1 AND status = 'available' AND date >= CURRENT_DATE
			ORDER BY date, start_time
			LIMIT $2
		`, officerID, slotPool)
		if err != nil {
			return nil, nil, uuid.Nil, err
		}
		for srows.Next() {
			var id int64
			if err := srows.Scan(&id); err != nil {
				srows.Close()
				return nil, nil, uuid.Nil, err
			}
			slots[officerID] = append(slots[officerID], id)
		}
		srows.Close()
		if err := srows.Err(); err != nil {
			return nil, nil, uuid.Nil, err
		}
		if len(slots[officerID]) == 0 {
			delete(slots, officerID)
		}
	}

	// Keep only citizens whose officer still has open slots.
	filtered := citizens[:0]
	for _, t := range citizens {
		if len(slots[t.OfficerID]) > 0 {
			filtered = append(filtered, t)
		}
	}

	var serviceID uuid.UUID
	err = pool.QueryRow(ctx, `SELECT id FROM services WHERE enabled LIMIT 1`).Scan(&serviceID)
	if err != nil {
		return nil, nil, uuid.Nil, err
	}

	return filtered, slots, serviceID, nil
}

func book(client *http.Client, baseURL, secret string, target citizenTarget, serviceID uuid.UUID, slotID int64, c *counters) {
	token, err := signCitizenToken(secret, target.CitizenID)
	if err != nil {
		c.failed.Add(1)
		return
	}

	body, _ := json.Marshal(map[string]any{
		"service_id": serviceID.String(),
		"slot_id":    slotID,
		"purpose":    "simulated booking",
	})

	req, err := http.NewRequest(http.MethodPost, baseURL+"/appointments", bytes.NewReader(body))
	if err != nil {
		c.failed.Add(1)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		c.failed.Add(1)
		return
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusCreated:
		c.booked.Add(1)
	case resp.StatusCode == http.StatusConflict:
		c.conflict.Add(1)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		c.rejected.Add(1)
	default:
		c.failed.Add(1)
	}
}

func signCitizenToken(secret string, citizenID uuid.UUID) (string, error) {
	claims := jwt.MapClaims{
		"sub":  citizenID.String(),
		"role": "citizen",
		"exp":  time.Now().Add(time.Hour).Unix(),
		"iat":  time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
