// Package launch starts AI jobs and wires their ids into the poller, the
// push channel, and the reconciler. All dependencies are injected; the
// package holds no ambient state.
package launch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/videogenai/videogen-go/internal/api"
	"github.com/videogenai/videogen-go/internal/models"
	"github.com/videogenai/videogen-go/internal/poller"
	"github.com/videogenai/videogen-go/internal/push"
	"github.com/videogenai/videogen-go/internal/reconcile"
)

// Launcher creates jobs and registers them for status tracking.
type Launcher struct {
	api        *api.Client
	poller     *poller.Poller
	channel    *push.Channel
	reconciler *reconcile.Reconciler
}

// New creates a launcher from its collaborators.
func New(apiClient *api.Client, p *poller.Poller, ch *push.Channel, r *reconcile.Reconciler) *Launcher {
	return &Launcher{
		api:        apiClient,
		poller:     p,
		channel:    ch,
		reconciler: r,
	}
}

// Handle tracks one launched job. Stop ends client-side interest: it
// unsubscribes from push events, halts fallback polling, and releases the
// displayed state. The server-side job keeps running.
type Handle struct {
	JobID int64
	Kind  models.JobKind

	once sync.Once
	stop func()
}

// Stop is idempotent.
func (h *Handle) Stop() {
	h.once.Do(h.stop)
}

// LaunchSegmentation validates the parameters, creates a segmentation job,
// and registers it for tracking.
func (l *Launcher) LaunchSegmentation(ctx context.Context, params SegmentationParams) (*Handle, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	id, err := l.api.CreateSegmentation(ctx, api.SegmentationRequest{
		VideoURL:  params.VideoURL,
		ProjectID: params.ProjectID,
	})
	if err != nil {
		return nil, err
	}

	return l.track(ctx, models.KindSegmentation, id), nil
}

// LaunchTextToVideo validates the parameters, creates a text-to-video job,
// and registers it for tracking.
func (l *Launcher) LaunchTextToVideo(ctx context.Context, params TextToVideoParams) (*Handle, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	req := api.TextToVideoRequest{
		Prompt:      params.Prompt,
		Style:       params.Style,
		DurationSec: params.DurationSec,
		AspectRatio: params.AspectRatio,
		ProjectID:   params.ProjectID,
	}
	if params.VoiceOver != nil {
		req.VoiceOver = &api.VoiceOverConfig{
			Voice: params.VoiceOver.Voice,
			Speed: params.VoiceOver.Speed,
		}
	}

	id, err := l.api.CreateTextToVideo(ctx, req)
	if err != nil {
		return nil, err
	}

	return l.track(ctx, models.KindTextToVideo, id), nil
}

// LaunchVoiceOver validates the parameters, creates a voice-over job, and
// registers it for tracking.
func (l *Launcher) LaunchVoiceOver(ctx context.Context, params VoiceOverParams) (*Handle, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	id, err := l.api.CreateVoiceOver(ctx, api.VoiceOverRequest{
		Text:      params.Text,
		Voice:     params.Voice,
		Speed:     params.Speed,
		ProjectID: params.ProjectID,
	})
	if err != nil {
		return nil, err
	}

	return l.track(ctx, models.KindVoiceOver, id), nil
}

// Track registers an already-created job (render, publish) for tracking
// without issuing a creation request. For render jobs the server additionally
// needs a subscribe frame so it targets render_update frames here; sending it
// fails silently while the channel is down, and polling covers the gap.
func (l *Launcher) Track(ctx context.Context, kind models.JobKind, id int64) *Handle {
	if kind == models.KindRender || kind == models.KindPublish {
		if err := l.channel.Send(models.Subscribe{VideoID: id}); err != nil {
			slog.Debug("subscribe frame not sent", "job_id", id, "error", err)
		}
	}
	return l.track(ctx, kind, id)
}

// track wires a job id into reconciler, push channel, and poller, then seeds
// the displayed state with an initial pull.
func (l *Launcher) track(ctx context.Context, kind models.JobKind, id int64) *Handle {
	l.reconciler.Register(kind, id)

	unsubscribe := l.channel.On(kind.UpdateEventType(), func(ev models.ServerEvent) {
		upd, ok := ev.(models.JobUpdateEvent)
		if !ok {
			return
		}
		u := upd.Update()
		if u.JobID != id {
			return
		}
		l.reconciler.Apply(u)
	})

	// Seed before push events arrive; a failed seed is covered by polling.
	if _, err := l.poller.FetchOnce(ctx, kind, id); err != nil {
		slog.Warn("initial job fetch failed", "job_id", id, "kind", kind, "error", err)
	}

	stopPolling := l.poller.Start(ctx, kind, id, poller.DefaultIntervalPolicy)

	return &Handle{
		JobID: id,
		Kind:  kind,
		stop: func() {
			unsubscribe()
			stopPolling()
			l.reconciler.Release(id)
		},
	}
}
