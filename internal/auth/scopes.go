package auth

// Known OAuth scopes.
const (
	ScopeWorkoutsRead    = "workouts:read"
	ScopeWorkoutsWrite   = "workouts:write"
	ScopeChallengesAdmin = "challenges:admin"
)
