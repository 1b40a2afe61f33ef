//go:build integration

package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/events"
	"example.com/fittrack/internal/testsupport"
)

func TestDispatcherPublishesMessages(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(t)

	userID := uuid.NewString()
	seedEvent(t, ctx, pool, userID, uuid.NewString(), events.TypeSessionCompleted)

	producer := &stubProducer{}
	dispatcher := newIntegrationDispatcher(pool, producer, &stubRegistry{id: 42})

	beforeDelivered := testutil.ToFloat64(deliveredCounter)
	beforeHistogram := histogramSampleCount(t)

	require.NoError(t, dispatcher.processBatch(ctx))

	require.Len(t, producer.writes, 1)
	require.Equal(t, Topic, producer.writes[0].topic)
	require.Len(t, producer.writes[0].messages, 1)
	require.Equal(t, userID, string(producer.writes[0].messages[0].Key))

	require.InDelta(t, beforeDelivered+1, testutil.ToFloat64(deliveredCounter), 0.0001)
	require.Greater(t, histogramSampleCount(t), beforeHistogram)

	var published int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE published_at IS NOT NULL`).Scan(&published))
	require.Equal(t, 1, published)
}

func TestInsertIgnoresDuplicateEvents(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(t)

	userID := uuid.NewString()
	sessionID := uuid.NewString()
	seedEvent(t, ctx, pool, userID, sessionID, events.TypeSessionCompleted)
	seedEvent(t, ctx, pool, userID, sessionID, events.TypeSessionCompleted)

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE aggregate_id = $1`, sessionID).Scan(&count))
	require.Equal(t, 1, count)
}

func TestDispatcherRoutesMessagesToDLQOnFailure(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(t)

	userID := uuid.NewString()
	seedEvent(t, ctx, pool, userID, uuid.NewString(), events.TypeAchievementUnlocked)

	dispatcher := newIntegrationDispatcher(pool, &stubProducer{err: errors.New("kafka write failed")}, &stubRegistry{id: 7})

	beforeFailed := testutil.ToFloat64(failedCounter)
	beforeDLQ := testutil.ToFloat64(dlqCounter.WithLabelValues(Topic))

	require.NoError(t, dispatcher.processBatch(ctx))

	require.InDelta(t, beforeFailed+1, testutil.ToFloat64(failedCounter), 0.0001)
	require.InDelta(t, beforeDLQ+1, testutil.ToFloat64(dlqCounter.WithLabelValues(Topic)), 0.0001)

	var dlqCount int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox_dlq WHERE user_id = $1`, userID).Scan(&dlqCount))
	require.Equal(t, 1, dlqCount)

	var published int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE published_at IS NOT NULL`).Scan(&published))
	require.Equal(t, 1, published)
}

func TestDLQManagerRequeuesThenQuarantines(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(t)

	userID := uuid.NewString()
	seedEvent(t, ctx, pool, userID, uuid.NewString(), events.TypeChallengeCompleted)
	dispatcher := newIntegrationDispatcher(pool, &stubProducer{err: errors.New("down")}, &stubRegistry{id: 3})
	require.NoError(t, dispatcher.processBatch(ctx))

	manager := NewDLQManager(pool, 1, time.Minute)
	beforeRequeued := testutil.ToFloat64(dlqRequeuedCounter.WithLabelValues(Topic, events.TypeChallengeCompleted))

	requeued, err := manager.RunOnce(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, requeued)
	require.InDelta(t, beforeRequeued+1, testutil.ToFloat64(dlqRequeuedCounter.WithLabelValues(Topic, events.TypeChallengeCompleted)), 0.0001)
	require.Zero(t, testutil.ToFloat64(dlqBacklogGauge))

	var pending int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE published_at IS NULL`).Scan(&pending))
	require.Equal(t, 1, pending)

	_, err = pool.Exec(ctx,
		`INSERT INTO outbox_dlq (user_id, event_id, event_type, topic, payload, reason, retry_count, next_retry_at)
         VALUES ($1, 99, $2, $3, '{}', 'exhausted', 1, NOW())`,
		userID, events.TypeChallengeCompleted, Topic)
	require.NoError(t, err)

	requeued, err = manager.RunOnce(ctx, 10)
	require.NoError(t, err)
	require.Zero(t, requeued)

	var quarantined int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox_dlq WHERE quarantined_at IS NOT NULL`).Scan(&quarantined))
	require.Equal(t, 1, quarantined)
}

func newIntegrationDispatcher(pool *pgxpool.Pool, producer messageWriter, registry schemaRegistrar) *Dispatcher {
	logger, _ := test.NewNullLogger()
	return NewDispatcher(pool, producer, registry, logger, 10*time.Millisecond, 5)
}

func histogramSampleCount(t *testing.T) uint64 {
	t.Helper()

	metric := &dto.Metric{}
	require.NoError(t, batchDuration.Write(metric))
	hist := metric.GetHistogram()
	require.NotNil(t, hist)
	return hist.GetSampleCount()
}

func seedEvent(t *testing.T, ctx context.Context, pool *pgxpool.Pool, userID, aggregateID, eventType string) {
	t.Helper()

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()

	event := domain.OutboxEvent{
		Type:          eventType,
		AggregateType: "workout_session",
		AggregateID:   aggregateID,
		UserID:        userID,
		Payload:       events.Envelope{UserID: userID, TotalXP: 50, Level: 1},
		OccurredAt:    time.Now().UTC(),
	}
	require.NoError(t, Insert(ctx, tx, event))
	require.NoError(t, tx.Commit(ctx))
}
