package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bbernstein/duckdive/internal/models"
	"github.com/bbernstein/duckdive/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubRunner) Run(_ context.Context, req report.Request) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &models.Report{ID: "run", Columns: req.SpotIDs}, nil
}

func recordingSink(name string, got chan<- string, err error) Sink {
	return Sink{
		Name: name,
		Save: func(_ context.Context, r *models.Report) error {
			got <- name + ":" + r.ID
			return err
		},
	}
}

func TestRunOnce(t *testing.T) {
	got := make(chan string, 2)
	s := New(&stubRunner{}, report.Request{SpotIDs: []string{"A"}}, time.Hour,
		recordingSink("dynamo", got, nil),
		recordingSink("kafka", got, errors.New("broker down")),
	)

	err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka: broker down")
	assert.ElementsMatch(t, []string{"dynamo:run", "kafka:run"}, []string{<-got, <-got})
}

func TestRunOnceRunnerError(t *testing.T) {
	got := make(chan string, 1)
	s := New(&stubRunner{err: models.ErrNoData}, report.Request{}, time.Hour, recordingSink("dynamo", got, nil))

	err := s.RunOnce(context.Background())
	assert.ErrorIs(t, err, models.ErrNoData)
	assert.Empty(t, got)
}

func TestStartRunsImmediately(t *testing.T) {
	got := make(chan string, 4)
	s := New(&stubRunner{}, report.Request{}, time.Hour, recordingSink("dynamo", got, nil))

	require.NoError(t, s.Start())
	defer s.Stop()

	select {
	case v := <-got:
		assert.Equal(t, "dynamo:run", v)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled report did not run")
	}
}

func TestStartDisabled(t *testing.T) {
	runner := &stubRunner{}
	s := New(runner, report.Request{}, 0)

	require.NoError(t, s.Start())
	s.Stop()
	assert.Zero(t, runner.calls)
}
