package reconcile_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/videogenai/videogen-go/internal/models"
	"github.com/videogenai/videogen-go/internal/reconcile"
)

// recorder counts terminal notifications per job.
type recorder struct {
	mu        sync.Mutex
	completed []reconcile.Snapshot
	failed    []reconcile.Snapshot
}

func (r *recorder) JobCompleted(s reconcile.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, s)
}

func (r *recorder) JobFailed(s reconcile.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, s)
}

func (r *recorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.completed), len(r.failed)
}

func status(s models.JobStatus) *models.JobStatus { return &s }
func progress(p int) *int                         { return &p }

func update(id int64, s models.JobStatus, p int) models.JobUpdate {
	return models.JobUpdate{
		JobID:    id,
		Kind:     models.KindSegmentation,
		Status:   status(s),
		Progress: progress(p),
	}
}

func TestFirstUpdateAdoptedVerbatim(t *testing.T) {
	r := reconcile.New(nil)
	r.Register(models.KindSegmentation, 42)

	u := update(42, models.StatusQueued, 0)
	u.Message = "in coda"
	r.Apply(u)

	snap, ok := r.Snapshot(42)
	require.True(t, ok)
	assert.Equal(t, models.StatusQueued, snap.Status)
	assert.Equal(t, 0, snap.Progress)
	assert.Equal(t, "in coda", snap.Message)
}

func TestUnregisteredUpdateDropped(t *testing.T) {
	r := reconcile.New(nil)

	r.Apply(update(99, models.StatusProcessing, 50))

	_, ok := r.Snapshot(99)
	assert.False(t, ok)
}

func TestMergeFieldRules(t *testing.T) {
	r := reconcile.New(nil)
	r.Register(models.KindRender, 7)

	first := update(7, models.StatusProcessing, 10)
	first.Kind = models.KindRender
	first.Stage = "encoding"
	first.Message = "pass 1"
	r.Apply(first)

	// A later update without stage/message leaves both untouched.
	second := update(7, models.StatusProcessing, 30)
	second.Kind = models.KindRender
	r.Apply(second)

	snap, _ := r.Snapshot(7)
	assert.Equal(t, 30, snap.Progress)
	assert.Equal(t, "encoding", snap.Stage)
	assert.Equal(t, "pass 1", snap.Message)

	// A non-empty message replaces the previous one.
	third := update(7, models.StatusProcessing, 60)
	third.Kind = models.KindRender
	third.Message = "pass 2"
	r.Apply(third)

	snap, _ = r.Snapshot(7)
	assert.Equal(t, "pass 2", snap.Message)
	assert.Equal(t, "encoding", snap.Stage)
}

func TestProgressRegressionAcceptedAsIs(t *testing.T) {
	// The reconciler deliberately does not clamp: a late-arriving lower value
	// during the non-terminal phase is displayed as received.
	r := reconcile.New(nil)
	r.Register(models.KindSegmentation, 1)

	r.Apply(update(1, models.StatusProcessing, 70))
	r.Apply(update(1, models.StatusProcessing, 40))

	snap, _ := r.Snapshot(1)
	assert.Equal(t, 40, snap.Progress)
}

func TestTerminalStateImmune(t *testing.T) {
	tests := []struct {
		name      string
		straggler models.JobUpdate
	}{
		{"stale non-terminal", update(42, models.StatusProcessing, 70)},
		{"duplicate terminal", update(42, models.StatusCompleted, 100)},
		{"conflicting terminal", func() models.JobUpdate {
			u := update(42, models.StatusFailed, 100)
			u.Error = "late failure"
			return u
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			r := reconcile.New(rec)
			r.Register(models.KindSegmentation, 42)

			done := update(42, models.StatusCompleted, 100)
			done.Result = models.SegmentationResult{Segments: 5, Subtitles: 5}
			r.Apply(done)

			r.Apply(tt.straggler)

			snap, _ := r.Snapshot(42)
			assert.Equal(t, models.StatusCompleted, snap.Status)
			assert.Equal(t, models.SegmentationResult{Segments: 5, Subtitles: 5}, snap.Result)
			assert.Empty(t, snap.Error)

			completed, failed := rec.counts()
			assert.Equal(t, 1, completed)
			assert.Equal(t, 0, failed)
		})
	}
}

func TestSingleNotificationUnderDuplicateDelivery(t *testing.T) {
	// Poll and push can both report the same terminal transition.
	rec := &recorder{}
	r := reconcile.New(rec)
	r.Register(models.KindVoiceOver, 5)

	r.Apply(update(5, models.StatusProcessing, 50))

	done := update(5, models.StatusCompleted, 100)
	done.Result = models.VoiceOverResult{AudioURL: "https://x/a.mp3", DurationSec: 8}
	r.Apply(done)
	r.Apply(done)
	r.Apply(done)

	completed, failed := rec.counts()
	assert.Equal(t, 1, completed)
	assert.Equal(t, 0, failed)
}

func TestFailureNotificationCarriesError(t *testing.T) {
	rec := &recorder{}
	r := reconcile.New(rec)
	r.Register(models.KindTextToVideo, 3)

	u := update(3, models.StatusFailed, 0)
	u.Error = "quota exceeded"
	r.Apply(u)

	require.Len(t, rec.failed, 1)
	assert.Equal(t, "quota exceeded", rec.failed[0].Error)
}

func TestRegistrationOrderIndependence(t *testing.T) {
	// The same set of non-terminal updates yields the same final state
	// whichever source delivers first. Terminal protection is order-dependent
	// by design and covered by TestTerminalStateImmune.
	poll := update(8, models.StatusQueued, 0)
	pushed := update(8, models.StatusProcessing, 40)
	pushed.Message = "Analyzing"

	final := func(first, second models.JobUpdate) reconcile.Snapshot {
		r := reconcile.New(nil)
		r.Register(models.KindSegmentation, 8)
		r.Apply(first)
		r.Apply(second)
		snap, _ := r.Snapshot(8)
		return snap
	}

	a := final(poll, pushed)
	b := final(pushed, poll)

	// Last-write-wins for progress is the accepted simplification: only the
	// ordering where the poll result arrives last differs in progress.
	assert.Equal(t, a.Status, models.StatusProcessing)
	assert.Equal(t, a.Message, "Analyzing")
	assert.Equal(t, b.Message, "Analyzing")
}

func TestWatchDeliversSnapshots(t *testing.T) {
	r := reconcile.New(nil)
	r.Register(models.KindRender, 12)

	updates, dispose := r.Watch(12)
	defer dispose()

	r.Apply(update(12, models.StatusProcessing, 25))

	snap := <-updates
	assert.Equal(t, int64(12), snap.JobID)
	assert.Equal(t, 25, snap.Progress)
}

func TestReleaseForgetsAndClosesWatchers(t *testing.T) {
	r := reconcile.New(nil)
	r.Register(models.KindRender, 12)

	updates, dispose := r.Watch(12)
	defer dispose()

	r.Release(12)

	_, ok := r.Snapshot(12)
	assert.False(t, ok)

	_, open := <-updates
	assert.False(t, open)
}
