package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civisched/appointment-scheduling/internal/auth"
	"github.com/civisched/appointment-scheduling/internal/directory"
	"github.com/civisched/appointment-scheduling/internal/scheduling"
)

const testSecret = "router-test-secret"

type testEnv struct {
	router http.Handler
	repo   *scheduling.MemoryRepository
	dir    *directory.MemoryDirectory

	officerID  uuid.UUID
	citizenID  uuid.UUID
	divisionID uuid.UUID
	serviceID  uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := scheduling.NewMemoryRepository()
	dir := directory.NewMemoryDirectory()
	logger := zerolog.Nop()

	availability := scheduling.NewAvailabilityService(repo, dir)
	booking := scheduling.NewBookingService(repo, dir, nil, logger)
	query := scheduling.NewQueryService(repo)

	metrics := NewMetrics(prometheus.NewRegistry())
	handlers := NewHandlers(availability, booking, query, dir, metrics, logger)

	env := &testEnv{
		repo:       repo,
		dir:        dir,
		officerID:  uuid.New(),
		citizenID:  uuid.New(),
		divisionID: uuid.New(),
		serviceID:  uuid.New(),
	}
	dir.PutOfficer(directory.Officer{ID: env.officerID, Name: "Officer One", Active: true})
	dir.PutDivision(directory.Division{ID: env.divisionID, Name: "Central", AssignedOfficerID: &env.officerID})
	dir.PutCitizen(directory.Citizen{ID: env.citizenID, Name: "Citizen One", Verified: true, DivisionID: &env.divisionID})
	dir.PutService(directory.ServiceEntry{ID: env.serviceID, Name: "Passport Renewal", Enabled: true})

	env.router = NewRouter(RouterConfig{
		Handlers: handlers,
		Verifier: auth.NewVerifier(testSecret),
		Metrics:  metrics,
		Logger:   logger,
		Env:      "test",
		Version:  "test",
	})
	return env
}

func signToken(t *testing.T, actorID uuid.UUID, role auth.Role) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  actorID.String(),
		"role": string(role),
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeInto[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func tomorrow() string {
	return scheduling.FormatDate(time.Now().UTC().AddDate(0, 0, 1))
}

func TestAuthBoundary(t *testing.T) {
	env := newTestEnv(t)
	officerToken := signToken(t, env.officerID, auth.RoleOfficer)
	citizenToken := signToken(t, env.citizenID, auth.RoleCitizen)

	t.Run("missing token", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/availability/mine", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "missing_token", decodeInto[ErrorResponse](t, rec).Error)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/availability/mine", "not.a.jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":  env.officerID.String(),
			"role": "officer",
			"exp":  time.Now().Add(time.Hour).Unix(),
		})
		signed, err := token.SignedString([]byte("some-other-secret"))
		require.NoError(t, err)
		rec := env.do(t, http.MethodGet, "/availability/mine", signed, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("citizen on officer route", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/availability/mine", citizenToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "wrong_role", decodeInto[ErrorResponse](t, rec).Error)
	})

	t.Run("officer on citizen route", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/appointments/mine", officerToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("public route needs no token", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/availability/available", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestAvailabilityEndpoints(t *testing.T) {
	env := newTestEnv(t)
	officerToken := signToken(t, env.officerID, auth.RoleOfficer)
	date := tomorrow()

	rec := env.do(t, http.MethodPost, "/availability", officerToken, CreateAvailabilityRequest{
		Date:  date,
		Start: "09:00",
		End:   "12:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeInto[CreateAvailabilityResponse](t, rec)
	assert.Equal(t, 6, created.Count)
	assert.Equal(t, "09:00", created.Slots[0].StartTime)
	assert.Equal(t, "available", created.Slots[0].Status)

	t.Run("overlap maps to conflict", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/availability", officerToken, CreateAvailabilityRequest{
			Date:  date,
			Start: "11:30",
			End:   "12:30",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "availability_overlap", decodeInto[ErrorResponse](t, rec).Error)
	})

	t.Run("own listing is paginated", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/availability/mine?limit=4", officerToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		list := decodeInto[SlotListResponse](t, rec)
		assert.Equal(t, 6, list.Total)
		assert.Len(t, list.Slots, 4)
		assert.Equal(t, 2, list.TotalPages)
	})

	t.Run("public listing shows the slots", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/availability/available?officerId="+env.officerID.String(), "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		list := decodeInto[SlotListResponse](t, rec)
		assert.Equal(t, 6, list.Total)
	})

	t.Run("bad slot id", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, "/availability/zero", officerToken, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("delete one slot", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, fmt.Sprintf("/availability/%d", created.Slots[5].ID), officerToken, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("bulk cancel", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, "/availability/status", officerToken, BulkSlotStatusRequest{
			SlotIDs: []int64{created.Slots[3].ID, created.Slots[4].ID},
			Status:  "cancelled",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		report := decodeInto[BulkSlotStatusResponse](t, rec)
		assert.Equal(t, 2, report.Updated)
		assert.Equal(t, 0, report.Skipped)
	})

	t.Run("delete remaining by date", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, "/availability/date/"+date+"?mode=skipBooked", officerToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		report := decodeInto[DeleteForDateResponse](t, rec)
		assert.Equal(t, 3, report.Deleted)
		assert.Equal(t, 0, report.Booked)
	})
}

func TestBookingEndpoints(t *testing.T) {
	env := newTestEnv(t)
	officerToken := signToken(t, env.officerID, auth.RoleOfficer)
	citizenToken := signToken(t, env.citizenID, auth.RoleCitizen)

	rec := env.do(t, http.MethodPost, "/availability", officerToken, CreateAvailabilityRequest{
		Date:  tomorrow(),
		Start: "09:00",
		End:   "10:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	slots := decodeInto[CreateAvailabilityResponse](t, rec).Slots

	book := func(slotID int64) *httptest.ResponseRecorder {
		return env.do(t, http.MethodPost, "/appointments", citizenToken, CreateAppointmentRequest{
			ServiceID: env.serviceID.String(),
			SlotID:    slotID,
			Purpose:   "passport renewal",
		})
	}

	rec = book(slots[0].ID)
	require.Equal(t, http.StatusCreated, rec.Code)
	appt := decodeInto[AppointmentResponse](t, rec)
	assert.Equal(t, "confirmed", appt.Status)
	assert.Equal(t, slots[0].ID, appt.SlotID)

	t.Run("double booking conflicts", func(t *testing.T) {
		rec := book(slots[0].ID)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "slot_unavailable", decodeInto[ErrorResponse](t, rec).Error)
	})

	t.Run("missing slot maps to not found", func(t *testing.T) {
		rec := book(99999)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("citizen sees the appointment", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/appointments/mine", citizenToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		mine := decodeInto[[]AppointmentResponse](t, rec)
		require.Len(t, mine, 1)
		assert.Equal(t, appt.ID, mine[0].ID)
	})

	t.Run("officer sees the appointment", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/appointments?status=confirmed", officerToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		list := decodeInto[AppointmentListResponse](t, rec)
		assert.Equal(t, 1, list.Total)
	})

	t.Run("stranger cannot cancel", func(t *testing.T) {
		stranger := uuid.New()
		env.dir.PutCitizen(directory.Citizen{ID: stranger, Name: "Stranger", Verified: true, DivisionID: &env.divisionID})
		rec := env.do(t, http.MethodPost, "/appointments/"+appt.ID.String()+"/cancel", signToken(t, stranger, auth.RoleCitizen), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("owner cancels and slot frees", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/appointments/"+appt.ID.String()+"/cancel", citizenToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "cancelled", decodeInto[AppointmentResponse](t, rec).Status)

		rec = env.do(t, http.MethodGet, "/availability/available", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 2, decodeInto[SlotListResponse](t, rec).Total)
	})

	t.Run("officer completes a booking", func(t *testing.T) {
		rec := book(slots[1].ID)
		require.Equal(t, http.StatusCreated, rec.Code)
		second := decodeInto[AppointmentResponse](t, rec)

		rec = env.do(t, http.MethodPost, "/appointments/"+second.ID.String()+"/complete", officerToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "completed", decodeInto[AppointmentResponse](t, rec).Status)

		rec = env.do(t, http.MethodPost, "/appointments/"+second.ID.String()+"/cancel", citizenToken, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHealthAndDirectory(t *testing.T) {
	env := newTestEnv(t)
	officerToken := signToken(t, env.officerID, auth.RoleOfficer)

	rec := env.do(t, http.MethodGet, "/health/live", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeInto[LivenessResponse](t, rec).Status)

	rec = env.do(t, http.MethodPost, "/admin/directory/reload", officerToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
