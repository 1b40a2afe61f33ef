package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"example.com/fittrack/internal/auth"
	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/leaderboard"
)

// CreateChallengeRequest is the payload for POST /v1/challenges. Dates use YYYY-MM-DD.
type CreateChallengeRequest struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	Icon             string `json:"icon"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	XPReward         int    `json:"xp_reward"`
	RequiredWorkouts int    `json:"required_workouts"`
}

// Validate ensures request correctness and returns the parsed dates.
func (r CreateChallengeRequest) Validate() (time.Time, time.Time, error) {
	if strings.TrimSpace(r.Name) == "" {
		return time.Time{}, time.Time{}, errors.New("name is required")
	}
	start, err := time.Parse(time.DateOnly, r.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("start_date must be YYYY-MM-DD")
	}
	end, err := time.Parse(time.DateOnly, r.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("end_date must be YYYY-MM-DD")
	}
	return start, end, nil
}

func (h *Handler) listAchievements(w http.ResponseWriter, r *http.Request) {
	if _, ok := canRead(w, r); !ok {
		return
	}
	achievements, err := h.service.ListAchievements(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": toAchievementViews(achievements)})
}

func (h *Handler) listUserAchievements(w http.ResponseWriter, r *http.Request) {
	claims, ok := canRead(w, r)
	if !ok {
		return
	}
	earned, err := h.service.ListUserAchievements(r.Context(), claims.Subject)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	items := make([]UserAchievementView, 0, len(earned))
	for _, ua := range earned {
		items = append(items, UserAchievementView{AchievementID: ua.AchievementID, EarnedAt: ua.EarnedAt})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) createChallenge(w http.ResponseWriter, r *http.Request) {
	if _, ok := authorize(w, r, auth.ScopeChallengesAdmin); !ok {
		return
	}
	var req CreateChallengeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	start, end, err := req.Validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	challenge, err := h.service.CreateChallenge(r.Context(), domain.CreateChallengeInput{
		Name:             req.Name,
		Description:      req.Description,
		Icon:             req.Icon,
		StartDate:        start,
		EndDate:          end,
		XPReward:         req.XPReward,
		RequiredWorkouts: req.RequiredWorkouts,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toChallengeView(*challenge))
}

func (h *Handler) listChallenges(w http.ResponseWriter, r *http.Request) {
	if _, ok := canRead(w, r); !ok {
		return
	}
	challenges, err := h.service.ListActiveChallenges(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	items := make([]ChallengeView, 0, len(challenges))
	for _, c := range challenges {
		items = append(items, toChallengeView(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) joinChallenge(w http.ResponseWriter, r *http.Request) {
	claims, ok := canWrite(w, r)
	if !ok {
		return
	}
	uc, err := h.engine.JoinChallenge(r.Context(), claims.Subject, r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, UserChallengeView{
		ChallengeID: uc.ChallengeID,
		JoinedAt:    uc.JoinedAt,
		Completed:   uc.Completed,
		CompletedAt: uc.CompletedAt,
	})
}

func (h *Handler) completeChallenge(w http.ResponseWriter, r *http.Request) {
	claims, ok := canWrite(w, r)
	if !ok {
		return
	}
	result, err := h.engine.CompleteChallenge(r.Context(), claims.Subject, r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ChallengeCompletionResponse{
		Challenge: toChallengeView(result.Challenge),
		XPEarned:  result.XPEarned,
		LeveledUp: result.LeveledUp,
		Level:     result.Level,
	})
}

func (h *Handler) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	claims, ok := canRead(w, r)
	if !ok {
		return
	}
	if h.board == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "leaderboard is not configured")
		return
	}

	entries, err := h.board.Top(r.Context(), queryLimit(r, 10, leaderboard.MaxLimit))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if entries == nil {
		entries = []leaderboard.Entry{}
	}
	resp := LeaderboardResponse{Items: entries}

	me, err := h.board.Rank(r.Context(), claims.Subject)
	switch {
	case err == nil:
		resp.Me = &me
	case !errors.Is(err, leaderboard.ErrNotRanked):
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
