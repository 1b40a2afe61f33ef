package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/events"
)

// Topic carries every gamification event; the partition key is the user id so a user's events
// stay ordered.
const Topic = "gamification_events"

// Route describes where an event type is published and which schema frames it.
type Route struct {
	Topic         string
	SchemaSubject string
	Schema        string
}

var routes = map[string]Route{
	events.TypeSessionCompleted: {
		Topic:         Topic,
		SchemaSubject: Topic + "-SessionCompleted",
		Schema:        sessionCompletedSchema,
	},
	events.TypeAchievementUnlocked: {
		Topic:         Topic,
		SchemaSubject: Topic + "-AchievementUnlocked",
		Schema:        achievementUnlockedSchema,
	},
	events.TypeChallengeCompleted: {
		Topic:         Topic,
		SchemaSubject: Topic + "-ChallengeCompleted",
		Schema:        challengeCompletedSchema,
	},
}

// RouteFor returns the route registered for eventType.
func RouteFor(eventType string) (Route, bool) {
	r, ok := routes[eventType]
	return r, ok
}

// Insert appends event to the outbox table inside tx. Re-inserting the same event type for the
// same aggregate is a no-op.
func Insert(ctx context.Context, tx pgx.Tx, event domain.OutboxEvent) error {
	route, ok := RouteFor(event.Type)
	if !ok {
		return fmt.Errorf("outbox: no route for event_type=%s", event.Type)
	}
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("outbox: marshal %s: %w", event.Type, err)
	}

	const stmt = `INSERT INTO outbox (user_id, aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        ON CONFLICT (dedupe_key) DO NOTHING`

	_, err = tx.Exec(ctx, stmt,
		event.UserID,
		event.AggregateType,
		event.AggregateID,
		event.Type,
		route.Topic,
		route.SchemaSubject,
		event.UserID,
		payload,
		event.Type+":"+event.AggregateID,
		event.OccurredAt,
	)
	return err
}
