package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

type funcJob struct {
	name string
	fn   func(context.Context) error
}

func (j funcJob) Name() string                  { return j.name }
func (j funcJob) Run(ctx context.Context) error { return j.fn(ctx) }

func TestAddRejectsInvalidSpec(t *testing.T) {
	s := New(time.UTC, nil)
	err := s.Add("every tuesday", funcJob{name: "bad", fn: func(context.Context) error { return nil }})
	require.ErrorContains(t, err, "schedule bad")
}

func TestRunJobRecordsOutcome(t *testing.T) {
	logger, hook := test.NewNullLogger()

	beforeOK := testutil.ToFloat64(jobRunsCounter.WithLabelValues("probe", "success"))
	beforeErr := testutil.ToFloat64(jobRunsCounter.WithLabelValues("probe", "error"))

	RunJob(context.Background(), funcJob{name: "probe", fn: func(context.Context) error { return nil }}, logger)
	RunJob(context.Background(), funcJob{name: "probe", fn: func(context.Context) error { return errors.New("nope") }}, logger)

	require.InDelta(t, beforeOK+1, testutil.ToFloat64(jobRunsCounter.WithLabelValues("probe", "success")), 0.0001)
	require.InDelta(t, beforeErr+1, testutil.ToFloat64(jobRunsCounter.WithLabelValues("probe", "error")), 0.0001)

	last := hook.LastEntry()
	require.NotNil(t, last)
	require.Equal(t, logrus.ErrorLevel, last.Level)
	require.Equal(t, "probe", last.Data["job"])
}

func TestSchedulerRunsAndStops(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := New(time.UTC, logger)

	ran := make(chan struct{}, 1)
	stopped := make(chan struct{})
	var once sync.Once
	require.NoError(t, s.Add("@every 1s", funcJob{name: "tick", fn: func(ctx context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		<-ctx.Done()
		once.Do(func() { close(stopped) })
		return ctx.Err()
	}}))

	s.Start()
	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	<-stopped
}

func TestCronLoggerFields(t *testing.T) {
	require.Equal(t, logrus.Fields{"entry": 1, "next": "soon"}, fields([]any{"entry", 1, "next", "soon", "dangling"}))
}
