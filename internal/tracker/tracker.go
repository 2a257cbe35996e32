package tracker

import (
	"context"
	"log"
	"sync"
	"time"

	"lastmile-backend/internal/trip"
)

// Analyzer runs one full two-stage trip analysis.
type Analyzer interface {
	Analyze(ctx context.Context, destination string, lat, lng float64) (trip.Analysis, error)
}

// State describes where a tracking session currently stands.
type State string

const (
	// StatePending: session started, no refresh has completed yet.
	StatePending State = "pending"
	// StateSucceeded: the most recent refresh produced an analysis.
	StateSucceeded State = "succeeded"
	// StateFailed: the most recent refresh failed; the session keeps going.
	StateFailed State = "failed"
	// StateDegraded: too many consecutive failures; refreshing has stopped.
	StateDegraded State = "degraded"
	// StateStopped: the session was ended by the user or shutdown.
	StateStopped State = "stopped"
)

// Status is an inspectable snapshot of a session.
type Status struct {
	Destination         string         `json:"destination"`
	State               State          `json:"state"`
	Latest              *trip.Analysis `json:"latest,omitempty"`
	ConsecutiveFailures int            `json:"consecutiveFailures"`
	LastError           string         `json:"lastError,omitempty"`
	UpdatedAt           time.Time      `json:"updatedAt"`
}

// session is one user's live-tracking loop.
type session struct {
	mu sync.Mutex

	destination string
	lat, lng    float64

	state    State
	latest   *trip.Analysis
	lastErr  string
	failures int

	// Monotonic refresh counter. Results are only accepted if no newer
	// refresh has been accepted in the meantime, so a slow response can
	// never overwrite a fresher one.
	nextSeq     uint64
	acceptedSeq uint64

	updatedAt time.Time
	cancel    context.CancelFunc
}

// begin reserves a sequence number for a refresh about to start.
func (s *session) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	return s.nextSeq
}

// complete records the outcome of a refresh. Stale results (an older refresh
// finishing after a newer one was accepted) are discarded. It reports
// whether the session has degraded and should stop refreshing.
func (s *session) complete(seq uint64, a trip.Analysis, err error, maxFailures int) (degraded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateStopped || s.state == StateDegraded {
		return s.state == StateDegraded
	}
	if seq <= s.acceptedSeq {
		log.Printf("tracker: discarding stale refresh %d for %q (accepted %d)", seq, s.destination, s.acceptedSeq)
		return false
	}

	s.updatedAt = time.Now()
	if err != nil {
		s.acceptedSeq = seq
		s.failures++
		s.lastErr = err.Error()
		if s.failures >= maxFailures {
			s.state = StateDegraded
			log.Printf("tracker: session for %q degraded after %d consecutive failures", s.destination, s.failures)
			return true
		}
		s.state = StateFailed
		return false
	}

	s.acceptedSeq = seq
	s.failures = 0
	s.lastErr = ""
	s.latest = &a
	s.state = StateSucceeded
	return false
}

func (s *session) status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Destination:         s.destination,
		State:               s.state,
		Latest:              s.latest,
		ConsecutiveFailures: s.failures,
		LastError:           s.lastErr,
		UpdatedAt:           s.updatedAt,
	}
}

func (s *session) stop() {
	s.mu.Lock()
	if s.state != StateDegraded {
		s.state = StateStopped
	}
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Tracker manages at most one live-tracking session per user.
type Tracker struct {
	mu       sync.Mutex
	sessions map[string]*session

	analyzer    Analyzer
	interval    time.Duration
	maxFailures int
}

// New creates a Tracker. interval is the refresh period; maxFailures is the
// consecutive-failure ceiling after which a session degrades.
func New(analyzer Analyzer, interval time.Duration, maxFailures int) *Tracker {
	return &Tracker{
		sessions:    make(map[string]*session),
		analyzer:    analyzer,
		interval:    interval,
		maxFailures: maxFailures,
	}
}

// Start begins (or restarts) live tracking for the user. An existing session
// is cancelled first so there is never more than one timer per user. The
// first refresh runs on the first tick, not immediately: callers start
// tracking right after an interactive search that already produced a result.
func (t *Tracker) Start(ctx context.Context, username, destination string, lat, lng float64) Status {
	t.mu.Lock()
	if old, ok := t.sessions[username]; ok {
		old.stop()
	}

	sessCtx, cancel := context.WithCancel(ctx)
	s := &session{
		destination: destination,
		lat:         lat,
		lng:         lng,
		state:       StatePending,
		updatedAt:   time.Now(),
		cancel:      cancel,
	}
	t.sessions[username] = s
	t.mu.Unlock()

	go t.run(sessCtx, s)
	return s.status()
}

// run is the per-session refresh loop. Errors are absorbed by the session
// state; nothing is surfaced to the user directly.
func (t *Tracker) run(ctx context.Context, s *session) {
	timer := time.NewTimer(t.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			seq := s.begin()
			a, err := t.analyzer.Analyze(ctx, s.destination, s.lat, s.lng)
			if err != nil {
				log.Printf("tracker: refresh for %q failed: %v", s.destination, err)
			}
			if degraded := s.complete(seq, a, err, t.maxFailures); degraded {
				return
			}
			timer.Reset(t.interval)
		}
	}
}

// Status reports the user's session, if one exists.
func (t *Tracker) Status(username string) (Status, bool) {
	t.mu.Lock()
	s, ok := t.sessions[username]
	t.mu.Unlock()
	if !ok {
		return Status{}, false
	}
	return s.status(), true
}

// Stop ends the user's session, if any. It reports whether one existed.
func (t *Tracker) Stop(username string) bool {
	t.mu.Lock()
	s, ok := t.sessions[username]
	if ok {
		delete(t.sessions, username)
	}
	t.mu.Unlock()
	if ok {
		s.stop()
	}
	return ok
}

// StopAll ends every session. Used on shutdown and logout sweeps.
func (t *Tracker) StopAll() {
	t.mu.Lock()
	sessions := t.sessions
	t.sessions = make(map[string]*session)
	t.mu.Unlock()
	for _, s := range sessions {
		s.stop()
	}
}
