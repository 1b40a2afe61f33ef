package api

import (
	"net/http"

	"example.com/fittrack/internal/domain"
)

// ProfileRequest is the payload for PUT /v1/profile.
type ProfileRequest struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	HeightCM *float64 `json:"height_cm"`
	WeightKG *float64 `json:"weight_kg"`
}

func (h *Handler) upsertProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := canWrite(w, r)
	if !ok {
		return
	}
	var req ProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.service.UpsertProfile(r.Context(), domain.ProfileInput{
		UserID:   claims.Subject,
		Username: req.Username,
		Email:    req.Email,
		HeightCM: req.HeightCM,
		WeightKG: req.WeightKG,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileView(*user))
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := canRead(w, r)
	if !ok {
		return
	}
	user, err := h.service.Profile(r.Context(), claims.Subject)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileView(*user))
}

func (h *Handler) profileStats(w http.ResponseWriter, r *http.Request) {
	claims, ok := canRead(w, r)
	if !ok {
		return
	}
	user, err := h.service.Profile(r.Context(), claims.Subject)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	stats, err := h.service.Stats(r.Context(), claims.Subject)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatsView(*user, stats))
}
