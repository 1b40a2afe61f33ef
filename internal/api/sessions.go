package api

import (
	"errors"
	"net/http"
	"strings"

	"example.com/fittrack/internal/persistence"
	"example.com/fittrack/internal/progression"
)

// RecordSetRequest is the payload for POST /v1/sessions/{id}/sets.
type RecordSetRequest struct {
	ExerciseID string   `json:"exercise_id"`
	SetNumber  int      `json:"set_number"`
	ActualReps int      `json:"actual_reps"`
	WeightKG   *float64 `json:"weight_kg"`
}

// Validate ensures request correctness.
func (r RecordSetRequest) Validate() error {
	if strings.TrimSpace(r.ExerciseID) == "" {
		return errors.New("exercise_id is required")
	}
	if r.SetNumber <= 0 {
		return errors.New("set_number must be > 0")
	}
	return nil
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := canWrite(w, r)
	if !ok {
		return
	}
	detail, err := h.engine.StartSession(r.Context(), claims.Subject, r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionDetailView(*detail))
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	claims, ok := canRead(w, r)
	if !ok {
		return
	}

	cursor, err := persistence.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}
	limit := queryLimit(r, 20, 100)

	sessions, next, err := h.service.ListSessions(r.Context(), claims.Subject, cursor, limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	items := make([]SessionView, 0, len(sessions))
	for _, s := range sessions {
		items = append(items, toSessionView(s))
	}
	writeJSON(w, http.StatusOK, ListSessionsResponse{
		Items:      items,
		NextCursor: persistence.EncodeCursor(next),
	})
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := canRead(w, r)
	if !ok {
		return
	}
	detail, err := h.service.GetSession(r.Context(), claims.Subject, r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDetailView(*detail))
}

func (h *Handler) completeSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := canWrite(w, r)
	if !ok {
		return
	}
	completion, err := h.engine.CompleteSession(r.Context(), claims.Subject, r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCompletionResponse(*completion))
}

func (h *Handler) recordSet(w http.ResponseWriter, r *http.Request) {
	claims, ok := canWrite(w, r)
	if !ok {
		return
	}
	var req RecordSetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	set, err := h.engine.RecordSet(r.Context(), claims.Subject, r.PathValue("id"), progression.RecordSetInput{
		ExerciseID: req.ExerciseID,
		SetNumber:  req.SetNumber,
		ActualReps: req.ActualReps,
		WeightKG:   req.WeightKG,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSetView(*set))
}

func (h *Handler) evaluateAchievements(w http.ResponseWriter, r *http.Request) {
	claims, ok := canWrite(w, r)
	if !ok {
		return
	}
	unlocked, err := h.engine.EvaluateAchievements(r.Context(), claims.Subject, r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"achievements_unlocked": toAchievementViews(unlocked)})
}
