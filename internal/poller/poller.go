// Package poller pulls job records over HTTP when push delivery cannot be
// assumed: once to seed the displayed state right after creation, and on a
// cadence as a fallback while the job runs.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/videogenai/videogen-go/internal/api"
	"github.com/videogenai/videogen-go/internal/models"
)

// Sink consumes normalized job updates. Implemented by the reconciler;
// polling never mutates displayed state directly.
type Sink interface {
	Apply(models.JobUpdate)
}

// IntervalPolicy decides the wait before the next poll given the last known
// record (nil when nothing has been fetched yet). Returning false stops
// polling for good.
type IntervalPolicy func(last *models.Job) (time.Duration, bool)

// DefaultIntervalPolicy polls every 5s while a job is queued or unknown,
// every 10s while processing, and stops on a terminal status.
func DefaultIntervalPolicy(last *models.Job) (time.Duration, bool) {
	if last == nil {
		return 5 * time.Second, true
	}
	switch last.Status {
	case models.StatusProcessing:
		return 10 * time.Second, true
	case models.StatusCompleted, models.StatusFailed:
		return 0, false
	default:
		return 5 * time.Second, true
	}
}

// Poller fetches job records and feeds them to the sink.
type Poller struct {
	client *api.Client
	sink   Sink

	// OnError, when set, observes fetch failures (used to detect the
	// both-channels-degraded condition). Polling continues regardless.
	OnError func(jobID int64, err error)
}

// New creates a poller feeding the given sink.
func New(client *api.Client, sink Sink) *Poller {
	return &Poller{client: client, sink: sink}
}

// FetchOnce reads the job record a single time and merges it into the
// displayed state.
func (p *Poller) FetchOnce(ctx context.Context, kind models.JobKind, id int64) (*models.Job, error) {
	job, err := p.client.GetJob(ctx, kind, id)
	if err != nil {
		if p.OnError != nil {
			p.OnError(id, err)
		}
		return nil, err
	}
	p.sink.Apply(job.Update())
	return job, nil
}

// Start polls the job on the policy's cadence until the policy stops it, the
// context is cancelled, or the returned stop function is called. Stopping is
// idempotent.
func (p *Poller) Start(ctx context.Context, kind models.JobKind, id int64, policy IntervalPolicy) (stop func()) {
	if policy == nil {
		policy = DefaultIntervalPolicy
	}

	done := make(chan struct{})
	var once sync.Once
	stop = func() { once.Do(func() { close(done) }) }

	go func() {
		var last *models.Job
		for {
			interval, ok := policy(last)
			if !ok {
				slog.Debug("polling stopped", "job_id", id, "kind", kind)
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-time.After(interval):
			}

			job, err := p.FetchOnce(ctx, kind, id)
			if err != nil {
				slog.Warn("poll failed", "job_id", id, "kind", kind, "error", err)
				continue
			}
			last = job
		}
	}()

	return stop
}
