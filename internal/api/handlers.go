// Package api exposes HTTP handlers for the fittrack service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"example.com/fittrack/internal/auth"
	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/leaderboard"
	"example.com/fittrack/internal/progression"
)

// LeaderboardReader is the read side of the XP leaderboard.
type LeaderboardReader interface {
	Top(ctx context.Context, limit int) ([]leaderboard.Entry, error)
	Rank(ctx context.Context, userID string) (leaderboard.Entry, error)
}

// Handler coordinates HTTP requests with the domain service and the progression engine.
type Handler struct {
	service *domain.Service
	engine  *progression.Engine
	board   LeaderboardReader
	logger  logrus.FieldLogger
}

// NewHandler builds a Handler. board may be nil when no leaderboard backend is configured.
func NewHandler(service *domain.Service, engine *progression.Engine, board LeaderboardReader, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{service: service, engine: engine, board: board, logger: logger.WithField("component", "api")}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", healthz)

	mux.HandleFunc("PUT /v1/profile", h.upsertProfile)
	mux.HandleFunc("GET /v1/profile", h.getProfile)
	mux.HandleFunc("GET /v1/profile/stats", h.profileStats)

	mux.HandleFunc("GET /v1/muscle-groups", h.listMuscleGroups)
	mux.HandleFunc("POST /v1/exercises", h.createExercise)
	mux.HandleFunc("GET /v1/exercises", h.listExercises)
	mux.HandleFunc("POST /v1/workouts", h.createWorkout)
	mux.HandleFunc("GET /v1/workouts", h.listWorkouts)
	mux.HandleFunc("GET /v1/workouts/{id}", h.getWorkout)

	mux.HandleFunc("POST /v1/workouts/{id}/sessions", h.startSession)
	mux.HandleFunc("GET /v1/sessions", h.listSessions)
	mux.HandleFunc("GET /v1/sessions/{id}", h.getSession)
	mux.HandleFunc("POST /v1/sessions/{id}/complete", h.completeSession)
	mux.HandleFunc("POST /v1/sessions/{id}/sets", h.recordSet)
	mux.HandleFunc("POST /v1/sessions/{id}/achievements", h.evaluateAchievements)

	mux.HandleFunc("POST /v1/supplements", h.createSupplement)
	mux.HandleFunc("GET /v1/supplements", h.listSupplements)
	mux.HandleFunc("POST /v1/supplements/{id}/take", h.recordSupplement(true))
	mux.HandleFunc("POST /v1/supplements/{id}/skip", h.recordSupplement(false))

	mux.HandleFunc("GET /v1/achievements", h.listAchievements)
	mux.HandleFunc("GET /v1/achievements/mine", h.listUserAchievements)

	mux.HandleFunc("POST /v1/challenges", h.createChallenge)
	mux.HandleFunc("GET /v1/challenges", h.listChallenges)
	mux.HandleFunc("POST /v1/challenges/{id}/join", h.joinChallenge)
	mux.HandleFunc("POST /v1/challenges/{id}/complete", h.completeChallenge)

	mux.HandleFunc("GET /v1/notifications", h.listNotifications)
	mux.HandleFunc("GET /v1/notifications/unread-count", h.unreadNotifications)
	mux.HandleFunc("POST /v1/notifications/{id}/read", h.markNotificationRead)
	mux.HandleFunc("POST /v1/notifications/read-all", h.markAllNotificationsRead)

	mux.HandleFunc("GET /v1/leaderboard", h.getLeaderboard)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// authorize resolves the caller and checks that it holds at least one of scopes.
func authorize(w http.ResponseWriter, r *http.Request, scopes ...string) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	if !claims.HasAnyScope(scopes...) {
		writeError(w, http.StatusForbidden, "forbidden", "scope "+scopes[0]+" required")
		return nil, false
	}
	return claims, true
}

func canRead(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	return authorize(w, r, auth.ScopeWorkoutsRead, auth.ScopeWorkoutsWrite)
}

func canWrite(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	return authorize(w, r, auth.ScopeWorkoutsWrite)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return false
	}
	return true
}

// queryLimit reads a positive limit parameter, falling back to def and capping at ceiling.
func queryLimit(r *http.Request, def, ceiling int) int {
	limit := def
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > ceiling {
		limit = ceiling
	}
	return limit
}

var conflictErrors = []error{
	domain.ErrAlreadyCompleted,
	domain.ErrSessionNotCompleted,
	domain.ErrChallengeEnded,
	domain.ErrChallengeAlreadyJoined,
	domain.ErrChallengeNotJoined,
	domain.ErrChallengeAlreadyCompleted,
}

var notFoundErrors = []error{
	domain.ErrRecordNotFound,
	domain.ErrUserNotFound,
	domain.ErrSessionNotFound,
	domain.ErrWorkoutNotFound,
	domain.ErrExerciseNotFound,
	domain.ErrSupplementNotFound,
	domain.ErrNotificationNotFound,
	domain.ErrChallengeNotFound,
}

// writeServiceError maps domain sentinels to HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrIncompleteInput), errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			writeError(w, http.StatusConflict, "conflict", err.Error())
			return
		}
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			writeError(w, http.StatusNotFound, "not_found", err.Error())
			return
		}
	}
	h.logger.WithError(err).WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}).Error("request failed")
	writeError(w, http.StatusInternalServerError, "server_error", "internal error")
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
