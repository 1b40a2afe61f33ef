//go:build integration

package consumer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/fittrack/internal/events"
	"example.com/fittrack/internal/outbox"
	"example.com/fittrack/internal/testsupport"
)

func TestPersistenceHandlerStoresEventOnce(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(t)

	handler := NewPersistenceHandler(pool)

	payload := json.RawMessage(`{"user_id":"user-1","total_xp":142,"level":2}`)
	msg := Message{
		EventType:     events.TypeSessionCompleted,
		UserID:        "user-1",
		SchemaID:      42,
		SchemaSubject: "gamification_events-SessionCompleted",
		Topic:         outbox.Topic,
		Partition:     0,
		Offset:        5,
		Payload:       payload,
		Timestamp:     time.Now().UTC(),
	}

	require.NoError(t, handler.Handle(ctx, msg))
	require.NoError(t, handler.Handle(ctx, msg))

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM gamification_event_log`).Scan(&count))
	require.Equal(t, 1, count)

	var storedPayload []byte
	require.NoError(t, pool.QueryRow(ctx, `SELECT payload FROM gamification_event_log WHERE user_id = $1`, "user-1").Scan(&storedPayload))
	require.JSONEq(t, string(payload), string(storedPayload))
}
