package domain

// DefaultMuscleGroups is the reference set seeded by the initial migration.
func DefaultMuscleGroups() []MuscleGroup {
	return []MuscleGroup{
		{ID: "chest", Name: "Chest"},
		{ID: "back", Name: "Back"},
		{ID: "shoulders", Name: "Shoulders"},
		{ID: "biceps", Name: "Biceps"},
		{ID: "triceps", Name: "Triceps"},
		{ID: "legs", Name: "Legs"},
		{ID: "glutes", Name: "Glutes"},
		{ID: "core", Name: "Core"},
	}
}
