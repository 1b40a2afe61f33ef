package consumer

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"example.com/fittrack/internal/events"
	"example.com/fittrack/internal/outbox"
)

func framed(schemaID uint32, payload []byte) []byte {
	value := make([]byte, 5+len(payload))
	binary.BigEndian.PutUint32(value[1:5], schemaID)
	copy(value[5:], payload)
	return value
}

func sessionRecord(offset int64, payload []byte) kafka.Message {
	return kafka.Message{
		Topic:     outbox.Topic,
		Partition: 0,
		Offset:    offset,
		Time:      time.Now().UTC(),
		Value:     framed(42, payload),
		Headers: []kafka.Header{
			{Key: outbox.HeaderEventType, Value: []byte(events.TypeSessionCompleted)},
			{Key: outbox.HeaderUserID, Value: []byte("user-1")},
			{Key: outbox.HeaderSchemaSubject, Value: []byte("gamification_events-SessionCompleted")},
		},
	}
}

func newTestProcessor(reader Reader, handler Handler) *Processor {
	logger, _ := test.NewNullLogger()
	return NewProcessor(reader, handler, WithLogger(logger))
}

func TestProcessorCommitsOnSuccess(t *testing.T) {
	payload := []byte(`{"user_id":"user-1","total_xp":142,"level":2}`)
	reader := &stubReader{messages: []kafka.Message{sessionRecord(10, payload)}}
	handler := &stubHandler{}

	err := newTestProcessor(reader, handler).Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Equal(t, 1, reader.commitCalls)
	require.Equal(t, events.TypeSessionCompleted, handler.last.EventType)
	require.Equal(t, "user-1", handler.last.UserID)
	require.Equal(t, 42, handler.last.SchemaID)
	require.Equal(t, int64(10), handler.last.Offset)
	require.JSONEq(t, string(payload), string(handler.last.Payload))
}

func TestProcessorSkipsCommitOnHandlerError(t *testing.T) {
	reader := &stubReader{messages: []kafka.Message{sessionRecord(20, []byte(`{}`))}}
	handler := &stubHandler{err: errors.New("boom")}

	err := newTestProcessor(reader, handler).Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Equal(t, 0, reader.commitCalls)
}

func TestProcessorCommitsUndecodableMessages(t *testing.T) {
	short := kafka.Message{Topic: outbox.Topic, Value: []byte{0, 1}}
	noHeader := kafka.Message{Topic: outbox.Topic, Value: framed(1, []byte(`{}`))}
	badMagic := sessionRecord(3, []byte(`{}`))
	badMagic.Value[0] = 1
	notJSON := sessionRecord(4, []byte(`not json`))

	reader := &stubReader{messages: []kafka.Message{short, noHeader, badMagic, notJSON}}
	handler := &stubHandler{}

	err := newTestProcessor(reader, handler).Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)

	require.Zero(t, handler.calls)
	require.Equal(t, 4, reader.commitCalls)
}

func TestProcessorStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reader := &stubReader{messages: []kafka.Message{sessionRecord(1, []byte(`{}`))}}
	handler := &stubHandler{}

	err := newTestProcessor(reader, handler).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, reader.index)
}

func TestChainStopsAtFirstError(t *testing.T) {
	first := &stubHandler{err: errors.New("redis down")}
	second := &stubHandler{}

	err := Chain(first, second).Handle(context.Background(), Message{})
	require.EqualError(t, err, "redis down")
	require.Equal(t, 1, first.calls)
	require.Zero(t, second.calls)

	first.err = nil
	require.NoError(t, Chain(first, second).Handle(context.Background(), Message{}))
	require.Equal(t, 1, second.calls)
}

type stubReader struct {
	messages    []kafka.Message
	index       int
	commitCalls int
}

func (r *stubReader) FetchMessage(context.Context) (kafka.Message, error) {
	if r.index >= len(r.messages) {
		return kafka.Message{}, context.Canceled
	}
	msg := r.messages[r.index]
	r.index++
	return msg, nil
}

func (r *stubReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.commitCalls += len(msgs)
	return nil
}

func (r *stubReader) Close() error { return nil }

type stubHandler struct {
	calls int
	err   error
	last  Message
}

func (h *stubHandler) Handle(_ context.Context, msg Message) error {
	h.calls++
	h.last = msg
	return h.err
}
