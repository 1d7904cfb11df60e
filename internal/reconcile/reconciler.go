// Package reconcile merges job updates from the poller and the push channel
// into one authoritative client-side view per job, deterministically under
// any arrival order or duplication.
package reconcile

import (
	"log/slog"
	"sync"
	"time"

	"github.com/videogenai/videogen-go/internal/models"
)

// Snapshot is a copy of the displayed state of one job.
type Snapshot struct {
	JobID     int64
	Kind      models.JobKind
	Status    models.JobStatus
	Progress  int
	Stage     string
	Message   string
	Error     string
	Result    models.Result
	UpdatedAt time.Time
}

// Terminal reports whether the displayed status is final.
func (s Snapshot) Terminal() bool {
	return s.Status.IsTerminal()
}

// Presenter receives exactly one call per job when it first reaches a
// terminal status. Implemented by the notify package.
type Presenter interface {
	JobCompleted(Snapshot)
	JobFailed(Snapshot)
}

// displayed is the mutable per-job state. Owned exclusively by the
// reconciler; everything escaping the package is a copy.
type displayed struct {
	snap     Snapshot
	seen     bool // at least one update merged
	notified bool // terminal transition already reported
	watchers map[int]chan Snapshot
}

// Reconciler owns the displayed-state map for all jobs the client currently
// cares about. All methods are safe for concurrent use.
type Reconciler struct {
	mu        sync.RWMutex
	jobs      map[int64]*displayed
	nextWatch int
	presenter Presenter
}

// New creates a reconciler reporting terminal transitions to the presenter.
// A nil presenter disables notifications.
func New(presenter Presenter) *Reconciler {
	return &Reconciler{
		jobs:      make(map[int64]*displayed),
		presenter: presenter,
	}
}

// Register creates the displayed state for a job the UI is interested in.
// Registering an already-registered id is a no-op.
func (r *Reconciler) Register(kind models.JobKind, id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[id]; ok {
		return
	}
	r.jobs[id] = &displayed{
		snap:     Snapshot{JobID: id, Kind: kind},
		watchers: make(map[int]chan Snapshot),
	}
}

// Release forgets a job. The server remains the source of truth; nothing is
// persisted client-side.
func (r *Reconciler) Release(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.jobs[id]; ok {
		for _, ch := range s.watchers {
			close(ch)
		}
		delete(r.jobs, id)
	}
}

// Snapshot returns a copy of the displayed state for a job.
func (r *Reconciler) Snapshot(id int64) (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.jobs[id]
	if !ok {
		return Snapshot{}, false
	}
	return s.snap, true
}

// Watch returns a channel of state snapshots for a job plus a disposer. The
// channel is buffered; a slow consumer misses intermediate snapshots, never
// the latest.
func (r *Reconciler) Watch(id int64) (<-chan Snapshot, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.jobs[id]
	if !ok {
		ch := make(chan Snapshot)
		close(ch)
		return ch, func() {}
	}

	r.nextWatch++
	watchID := r.nextWatch
	ch := make(chan Snapshot, 16)
	s.watchers[watchID] = ch
	if s.seen {
		ch <- s.snap
	}

	return ch, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if s, ok := r.jobs[id]; ok {
			if ch, ok := s.watchers[watchID]; ok {
				delete(s.watchers, watchID)
				close(ch)
			}
		}
	}
}

// Apply merges an incoming update (from poll or push, already normalized)
// into the displayed state. Updates for unregistered jobs are dropped; a
// job's terminal state is immune to any further update; an update that first
// reaches a terminal status is reported to the presenter exactly once.
func (r *Reconciler) Apply(u models.JobUpdate) {
	r.mu.Lock()

	s, ok := r.jobs[u.JobID]
	if !ok {
		r.mu.Unlock()
		slog.Debug("dropping update for unregistered job", "job_id", u.JobID)
		return
	}

	if s.seen && s.snap.Status.IsTerminal() {
		r.mu.Unlock()
		slog.Debug("ignoring update for terminal job", "job_id", u.JobID, "status", s.snap.Status)
		return
	}

	if !s.seen {
		s.snap = snapshotFrom(u)
		s.seen = true
	} else {
		merge(&s.snap, u)
	}
	s.snap.UpdatedAt = time.Now()

	notify := s.snap.Status.IsTerminal() && !s.notified
	if notify {
		s.notified = true
	}

	snap := s.snap
	for _, ch := range s.watchers {
		select {
		case ch <- snap:
		default:
			// Drain one stale snapshot so the latest always fits.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
	r.mu.Unlock()

	if notify && r.presenter != nil {
		switch snap.Status {
		case models.StatusCompleted:
			r.presenter.JobCompleted(snap)
		case models.StatusFailed:
			r.presenter.JobFailed(snap)
		}
	}
}

// snapshotFrom adopts the first update for a job verbatim.
func snapshotFrom(u models.JobUpdate) Snapshot {
	snap := Snapshot{JobID: u.JobID, Kind: u.Kind}
	merge(&snap, u)
	return snap
}

// merge applies the field-wise rules: status and progress overwrite when
// present; stage and message only when non-empty; error and result only
// alongside their terminal status. A progress value lower than the displayed
// one is accepted as-is.
func merge(snap *Snapshot, u models.JobUpdate) {
	if u.Status != nil {
		snap.Status = *u.Status
	}
	if u.Progress != nil {
		snap.Progress = *u.Progress
	}
	if u.Stage != "" {
		snap.Stage = u.Stage
	}
	if u.Message != "" {
		snap.Message = u.Message
	}
	if u.Status != nil && *u.Status == models.StatusFailed && u.Error != "" {
		snap.Error = u.Error
	}
	if u.Status != nil && *u.Status == models.StatusCompleted && u.Result != nil {
		snap.Result = u.Result
	}
}
