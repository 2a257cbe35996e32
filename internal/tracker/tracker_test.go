package tracker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lastmile-backend/internal/trip"
)

type stubAnalyzer struct {
	calls   atomic.Int64
	analyze func(ctx context.Context, destination string, lat, lng float64) (trip.Analysis, error)
}

func (s *stubAnalyzer) Analyze(ctx context.Context, destination string, lat, lng float64) (trip.Analysis, error) {
	s.calls.Add(1)
	if s.analyze != nil {
		return s.analyze(ctx, destination, lat, lng)
	}
	return trip.Analysis{Destination: destination}, nil
}

func TestStart_ReplacesExistingSession(t *testing.T) {
	tr := New(&stubAnalyzer{}, time.Hour, 5)
	defer tr.StopAll()

	tr.Start(context.Background(), "alice", "Old Place", 0, 0)
	tr.Start(context.Background(), "alice", "New Place", 0, 0)

	status, ok := tr.Status("alice")
	require.True(t, ok)
	assert.Equal(t, "New Place", status.Destination)
	assert.Equal(t, StatePending, status.State)

	tr.mu.Lock()
	assert.Len(t, tr.sessions, 1, "replacing a session must not leak timers")
	tr.mu.Unlock()
}

func TestStop(t *testing.T) {
	tr := New(&stubAnalyzer{}, time.Hour, 5)

	tr.Start(context.Background(), "alice", "Somewhere", 0, 0)
	assert.True(t, tr.Stop("alice"))
	assert.False(t, tr.Stop("alice"), "second stop finds no session")

	_, ok := tr.Status("alice")
	assert.False(t, ok)
}

func TestRefreshLoop_UpdatesStatus(t *testing.T) {
	analyzer := &stubAnalyzer{}
	tr := New(analyzer, 10*time.Millisecond, 5)
	defer tr.StopAll()

	tr.Start(context.Background(), "alice", "Pier 39", 37.8, -122.4)

	require.Eventually(t, func() bool {
		status, ok := tr.Status("alice")
		return ok && status.State == StateSucceeded && status.Latest != nil
	}, time.Second, 5*time.Millisecond)

	status, _ := tr.Status("alice")
	assert.Equal(t, "Pier 39", status.Latest.Destination)
	assert.Zero(t, status.ConsecutiveFailures)
}

func TestRefreshLoop_DegradesAfterConsecutiveFailures(t *testing.T) {
	analyzer := &stubAnalyzer{
		analyze: func(context.Context, string, float64, float64) (trip.Analysis, error) {
			return trip.Analysis{}, errors.New("service down")
		},
	}
	tr := New(analyzer, 5*time.Millisecond, 3)
	defer tr.StopAll()

	tr.Start(context.Background(), "alice", "Pier 39", 0, 0)

	require.Eventually(t, func() bool {
		status, ok := tr.Status("alice")
		return ok && status.State == StateDegraded
	}, time.Second, 5*time.Millisecond)

	status, _ := tr.Status("alice")
	assert.Equal(t, 3, status.ConsecutiveFailures)
	assert.Equal(t, "service down", status.LastError)

	// The loop must have stopped at the ceiling.
	calls := analyzer.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, analyzer.calls.Load(), "no further refreshes after degrading")
}

func TestSession_StaleResultIsDiscarded(t *testing.T) {
	s := &session{destination: "Pier 39", state: StatePending}

	early := s.begin()
	late := s.begin()

	// The later refresh finishes first and is accepted.
	s.complete(late, trip.Analysis{Destination: "fresh"}, nil, 5)
	// The earlier refresh straggles in afterwards and must be ignored.
	s.complete(early, trip.Analysis{Destination: "stale"}, nil, 5)

	status := s.status()
	require.NotNil(t, status.Latest)
	assert.Equal(t, "fresh", status.Latest.Destination)
	assert.Equal(t, StateSucceeded, status.State)
}

func TestSession_FailureThenSuccessResetsCounter(t *testing.T) {
	s := &session{destination: "Pier 39", state: StatePending}

	s.complete(s.begin(), trip.Analysis{}, errors.New("boom"), 5)
	assert.Equal(t, StateFailed, s.status().State)
	assert.Equal(t, 1, s.status().ConsecutiveFailures)

	s.complete(s.begin(), trip.Analysis{Destination: "ok"}, nil, 5)
	status := s.status()
	assert.Equal(t, StateSucceeded, status.State)
	assert.Zero(t, status.ConsecutiveFailures)
	assert.Empty(t, status.LastError)
}

func TestSession_NoUpdatesAfterStop(t *testing.T) {
	s := &session{destination: "Pier 39", state: StatePending}
	seq := s.begin()
	s.stop()

	s.complete(seq, trip.Analysis{Destination: "late"}, nil, 5)
	status := s.status()
	assert.Equal(t, StateStopped, status.State)
	assert.Nil(t, status.Latest)
}
