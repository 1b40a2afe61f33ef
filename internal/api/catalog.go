package api

import (
	"net/http"

	"example.com/fittrack/internal/domain"
)

// CreateExerciseRequest is the payload for POST /v1/exercises.
type CreateExerciseRequest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Difficulty     string   `json:"difficulty"`
	Equipment      string   `json:"equipment"`
	MuscleGroupIDs []string `json:"muscle_group_ids"`
}

// WorkoutExerciseRequest is one planned exercise in CreateWorkoutRequest.
type WorkoutExerciseRequest struct {
	ExerciseID  string `json:"exercise_id"`
	Sets        int    `json:"sets"`
	TargetReps  int    `json:"target_reps"`
	RestSeconds int    `json:"rest_seconds"`
	Notes       string `json:"notes"`
}

// CreateWorkoutRequest is the payload for POST /v1/workouts.
type CreateWorkoutRequest struct {
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	IsTemplate  bool                     `json:"is_template"`
	Exercises   []WorkoutExerciseRequest `json:"exercises"`
}

func (h *Handler) listMuscleGroups(w http.ResponseWriter, r *http.Request) {
	if _, ok := canRead(w, r); !ok {
		return
	}
	groups, err := h.service.ListMuscleGroups(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	items := make([]MuscleGroupView, 0, len(groups))
	for _, g := range groups {
		items = append(items, MuscleGroupView{ID: g.ID, Name: g.Name})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) createExercise(w http.ResponseWriter, r *http.Request) {
	claims, ok := canWrite(w, r)
	if !ok {
		return
	}
	var req CreateExerciseRequest
	if !decodeBody(w, r, &req) {
		return
	}

	exercise, err := h.service.CreateExercise(r.Context(), domain.CreateExerciseInput{
		OwnerID:        claims.Subject,
		Name:           req.Name,
		Description:    req.Description,
		Difficulty:     req.Difficulty,
		Equipment:      req.Equipment,
		MuscleGroupIDs: req.MuscleGroupIDs,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExerciseView(*exercise))
}

func (h *Handler) listExercises(w http.ResponseWriter, r *http.Request) {
	claims, ok := canRead(w, r)
	if !ok {
		return
	}
	exercises, err := h.service.ListExercises(r.Context(), claims.Subject, r.URL.Query().Get("muscle_group_id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	items := make([]ExerciseView, 0, len(exercises))
	for _, e := range exercises {
		items = append(items, toExerciseView(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) createWorkout(w http.ResponseWriter, r *http.Request) {
	claims, ok := canWrite(w, r)
	if !ok {
		return
	}
	var req CreateWorkoutRequest
	if !decodeBody(w, r, &req) {
		return
	}

	input := domain.CreateWorkoutInput{
		UserID:      claims.Subject,
		Name:        req.Name,
		Description: req.Description,
		IsTemplate:  req.IsTemplate,
		Exercises:   make([]domain.WorkoutExerciseInput, 0, len(req.Exercises)),
	}
	for _, ex := range req.Exercises {
		input.Exercises = append(input.Exercises, domain.WorkoutExerciseInput{
			ExerciseID:  ex.ExerciseID,
			Sets:        ex.Sets,
			TargetReps:  ex.TargetReps,
			RestSeconds: ex.RestSeconds,
			Notes:       ex.Notes,
		})
	}

	workout, err := h.service.CreateWorkout(r.Context(), input)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWorkoutView(*workout))
}

func (h *Handler) listWorkouts(w http.ResponseWriter, r *http.Request) {
	claims, ok := canRead(w, r)
	if !ok {
		return
	}
	workouts, err := h.service.ListWorkouts(r.Context(), claims.Subject)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	items := make([]WorkoutView, 0, len(workouts))
	for _, wk := range workouts {
		items = append(items, toWorkoutView(wk))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) getWorkout(w http.ResponseWriter, r *http.Request) {
	claims, ok := canRead(w, r)
	if !ok {
		return
	}
	workout, err := h.service.GetWorkout(r.Context(), claims.Subject, r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkoutView(*workout))
}
