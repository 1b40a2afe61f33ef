package outbox

const sessionCompletedSchema = `{
  "type": "object",
  "title": "SessionCompleted",
  "properties": {
    "user_id": {"type": "string"},
    "total_xp": {"type": "integer"},
    "level": {"type": "integer"},
    "session_id": {"type": "string"},
    "workout_id": {"type": "string"},
    "duration_seconds": {"type": "integer"},
    "calories_burned": {"type": "integer"},
    "xp_earned": {"type": "integer"},
    "leveled_up": {"type": "boolean"},
    "streak_count": {"type": "integer"},
    "completed_at": {"type": "string", "format": "date-time"}
  },
  "required": ["user_id", "total_xp", "level", "session_id", "workout_id", "xp_earned", "completed_at"],
  "additionalProperties": false
}`

const achievementUnlockedSchema = `{
  "type": "object",
  "title": "AchievementUnlocked",
  "properties": {
    "user_id": {"type": "string"},
    "total_xp": {"type": "integer"},
    "level": {"type": "integer"},
    "achievement_id": {"type": "string"},
    "xp_reward": {"type": "integer"},
    "unlocked_at": {"type": "string", "format": "date-time"}
  },
  "required": ["user_id", "total_xp", "level", "achievement_id", "xp_reward", "unlocked_at"],
  "additionalProperties": false
}`

const challengeCompletedSchema = `{
  "type": "object",
  "title": "ChallengeCompleted",
  "properties": {
    "user_id": {"type": "string"},
    "total_xp": {"type": "integer"},
    "level": {"type": "integer"},
    "challenge_id": {"type": "string"},
    "xp_reward": {"type": "integer"},
    "completed_at": {"type": "string", "format": "date-time"}
  },
  "required": ["user_id", "total_xp", "level", "challenge_id", "xp_reward", "completed_at"],
  "additionalProperties": false
}`
