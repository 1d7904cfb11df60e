package launch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/videogenai/videogen-go/internal/api"
	"github.com/videogenai/videogen-go/internal/models"
	"github.com/videogenai/videogen-go/internal/poller"
	"github.com/videogenai/videogen-go/internal/push"
	"github.com/videogenai/videogen-go/internal/reconcile"
)

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

func (r *recorder) completedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.completed)
}

// backend fakes the VideoGenAI API plus its push endpoint in one test server.
// Frames the client sends over the socket are forwarded to the frames channel.
type backend struct {
	mux       *http.ServeMux
	srv       *httptest.Server
	httpCalls atomic.Int32
	frames    chan models.Frame

	connMu sync.Mutex
	conn   *websocket.Conn
}

var upgrader = websocket.Upgrader{}

func newBackend(t *testing.T) *backend {
	t.Helper()

	b := &backend{
		mux:    http.NewServeMux(),
		frames: make(chan models.Frame, 16),
	}
	b.mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		b.connMu.Lock()
		b.conn = conn
		b.connMu.Unlock()
		for {
			var f models.Frame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			b.frames <- f
		}
	})

	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/ws") {
			b.httpCalls.Add(1)
		}
		b.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) pushFrame(t *testing.T, eventType string, payload any) {
	t.Helper()

	b.connMu.Lock()
	conn := b.conn
	b.connMu.Unlock()
	require.NotNil(t, conn, "push connection not established")

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(models.Frame{Type: eventType, Payload: raw}))
}

// harness wires a launcher against the fake backend with a connected channel.
func harness(t *testing.T, b *backend, presenter reconcile.Presenter) (*Launcher, *reconcile.Reconciler, *push.Channel) {
	t.Helper()

	client := api.New(b.srv.URL)
	r := reconcile.New(presenter)
	p := poller.New(client, r)
	ch := push.NewChannel(push.Endpoint(b.srv.URL))
	t.Cleanup(func() { ch.Close() })

	ch.Connect()
	require.Eventually(t, func() bool {
		return ch.State() == push.Connected
	}, 2*time.Second, 5*time.Millisecond)

	return New(client, p, ch, r), r, ch
}

func TestLaunchValidationFailsBeforeAnyRequest(t *testing.T) {
	b := newBackend(t)
	l, _, _ := harness(t, b, nil)

	_, err := l.LaunchTextToVideo(context.Background(), TextToVideoParams{
		DurationSec: 15,
		AspectRatio: "16:9",
	})
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "prompt", verr.Field)
	assert.Equal(t, int32(0), b.httpCalls.Load())
}

func TestLaunchCreateFailureSurfacesServerMessage(t *testing.T) {
	b := newBackend(t)
	b.mux.HandleFunc("POST /api/text-to-video", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"message":"quota exceeded"}`)
	})

	l, _, _ := harness(t, b, nil)

	_, err := l.LaunchTextToVideo(context.Background(), TextToVideoParams{
		Prompt:      "sunset over a harbor",
		DurationSec: 15,
		AspectRatio: "16:9",
	})
	require.Error(t, err)

	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "quota exceeded", apiErr.Message)

	// Creation failed, so nothing was registered for tracking.
	assert.Equal(t, int32(1), b.httpCalls.Load())
}

func TestSegmentationLifecycle(t *testing.T) {
	b := newBackend(t)
	b.mux.HandleFunc("POST /api/segmentation", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"requestId":42}`)
	})
	b.mux.HandleFunc("GET /api/segmentation/42", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":42,"status":"queued","progress":0}`)
	})

	rec := &recorder{}
	l, r, _ := harness(t, b, rec)

	h, err := l.LaunchSegmentation(context.Background(), SegmentationParams{
		VideoURL:  "https://cdn.local/v.mp4",
		ProjectID: 3,
	})
	require.NoError(t, err)
	defer h.Stop()
	assert.Equal(t, int64(42), h.JobID)

	// Seeded from the initial pull.
	snap, ok := r.Snapshot(42)
	require.True(t, ok)
	assert.Equal(t, models.StatusQueued, snap.Status)

	// Mid-flight push update.
	b.pushFrame(t, models.EventSegmentationUpdate, map[string]any{
		"requestId": 42, "status": "processing", "progress": 40, "message": "Analyzing",
	})
	require.Eventually(t, func() bool {
		snap, _ := r.Snapshot(42)
		return snap.Status == models.StatusProcessing && snap.Progress == 40
	}, 2*time.Second, 5*time.Millisecond)

	// Terminal push update carrying the result.
	b.pushFrame(t, models.EventSegmentationUpdate, map[string]any{
		"requestId": 42, "status": "completed", "progress": 100,
		"data": map[string]any{"segments": 5, "subtitles": 5},
	})
	require.Eventually(t, func() bool {
		return rec.completedCount() == 1
	}, 2*time.Second, 5*time.Millisecond)

	snap, _ = r.Snapshot(42)
	require.NotNil(t, snap.Result)
	assert.Equal(t, "5 segmenti e 5 sottotitoli generati", snap.Result.Summary())

	// A straggler cannot regress the terminal state or re-notify.
	b.pushFrame(t, models.EventSegmentationUpdate, map[string]any{
		"requestId": 42, "status": "processing", "progress": 70,
	})
	time.Sleep(50 * time.Millisecond)
	snap, _ = r.Snapshot(42)
	assert.Equal(t, models.StatusCompleted, snap.Status)
	assert.Equal(t, 100, snap.Progress)
	assert.Equal(t, 1, rec.completedCount())
}

func TestStopReleasesTracking(t *testing.T) {
	b := newBackend(t)
	b.mux.HandleFunc("POST /api/voice-over", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":5}`)
	})
	b.mux.HandleFunc("GET /api/voice-over/5", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":5,"status":"processing","progress":50}`)
	})

	l, r, _ := harness(t, b, nil)

	h, err := l.LaunchVoiceOver(context.Background(), VoiceOverParams{
		Text:  "ciao a tutti",
		Voice: "alessia",
	})
	require.NoError(t, err)

	_, ok := r.Snapshot(5)
	require.True(t, ok)

	h.Stop()
	h.Stop()

	_, ok = r.Snapshot(5)
	assert.False(t, ok)
}

func TestTrackSubscribesRenderJobs(t *testing.T) {
	b := newBackend(t)
	b.mux.HandleFunc("GET /api/render/12", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":12,"status":"processing","progress":25,"stage":"encoding"}`)
	})

	l, r, _ := harness(t, b, nil)

	h := l.Track(context.Background(), models.KindRender, 12)
	defer h.Stop()

	snap, ok := r.Snapshot(12)
	require.True(t, ok)
	assert.Equal(t, "encoding", snap.Stage)

	select {
	case f := <-b.frames:
		assert.Equal(t, models.EventSubscribe, f.Type)
		var sub models.Subscribe
		require.NoError(t, json.Unmarshal(f.Payload, &sub))
		assert.Equal(t, int64(12), sub.VideoID)
	case <-time.After(2 * time.Second):
		t.Fatal("no subscribe frame received")
	}
}
