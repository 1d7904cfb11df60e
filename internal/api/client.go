// Package api provides the HTTP client for the VideoGenAI job endpoints:
// kind-specific creation requests and status polling.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/videogenai/videogen-go/internal/metrics"
	"github.com/videogenai/videogen-go/internal/models"
)

// DefaultTimeout bounds every job-creation and poll request.
const DefaultTimeout = 30 * time.Second

// Client talks to the VideoGenAI backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Collector
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithMetrics attaches a metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a new API client.
// If baseURL is empty, uses VIDEOGEN_API_URL env var or defaults to localhost:8080.
// Timeout can be configured via VIDEOGEN_API_TIMEOUT env var (default 30s).
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("VIDEOGEN_API_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	timeout := DefaultTimeout
	if t := os.Getenv("VIDEOGEN_API_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured backend URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// kindPath maps a job kind to its URL path segment.
func kindPath(kind models.JobKind) string {
	switch kind {
	case models.KindSegmentation:
		return "segmentation"
	case models.KindTextToVideo:
		return "text-to-video"
	case models.KindVoiceOver:
		return "voice-over"
	case models.KindRender:
		return "render"
	case models.KindPublish:
		return "publish"
	default:
		return string(kind)
	}
}

// doJSON issues a request and decodes the response body into result.
// Non-2xx responses become *APIError with the server message verbatim;
// 404 is wrapped in ErrNotFound.
func (c *Client) doJSON(ctx context.Context, method, url string, reqBody, result any) error {
	var body io.Reader
	if reqBody != nil {
		encoded, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// Server-side dedup key for retried creation requests.
	req.Header.Set("X-Request-Id", uuid.New().String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(respBody, &errBody); err != nil || errBody.Message == "" {
			slog.Debug("non-JSON error body", "status", resp.StatusCode, "body", string(respBody))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: errBody.Message}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// createResponse is the creation payload; the backend returns requestId for
// segmentation and id for the other kinds.
type createResponse struct {
	RequestID *int64 `json:"requestId"`
	ID        *int64 `json:"id"`
}

func (r createResponse) jobID() (int64, error) {
	if r.RequestID != nil {
		return *r.RequestID, nil
	}
	if r.ID != nil {
		return *r.ID, nil
	}
	return 0, fmt.Errorf("creation response carries neither requestId nor id")
}

func (c *Client) create(ctx context.Context, kind models.JobKind, reqBody any) (int64, error) {
	start := time.Now()
	var resp createResponse
	err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/api/"+kindPath(kind), reqBody, &resp)
	if err != nil {
		c.metrics.RecordFailure(metrics.OpJobCreate)
		return 0, err
	}
	c.metrics.RecordTiming(metrics.OpJobCreate, time.Since(start))

	id, err := resp.jobID()
	if err != nil {
		return 0, err
	}
	slog.Info("job created", "kind", kind, "job_id", id)
	return id, nil
}

// SegmentationRequest starts scene segmentation with auto-captioning
// on an uploaded video.
type SegmentationRequest struct {
	VideoURL  string `json:"videoUrl"`
	ProjectID int64  `json:"projectId"`
}

// CreateSegmentation starts a segmentation job and returns its id.
func (c *Client) CreateSegmentation(ctx context.Context, req SegmentationRequest) (int64, error) {
	return c.create(ctx, models.KindSegmentation, req)
}

// VoiceOverConfig attaches voice-over synthesis to a generation request.
type VoiceOverConfig struct {
	Voice string  `json:"voice"`
	Speed float64 `json:"speed,omitempty"`
}

// TextToVideoRequest starts AI video generation from a prompt.
type TextToVideoRequest struct {
	Prompt      string           `json:"prompt"`
	Style       string           `json:"style,omitempty"`
	DurationSec int              `json:"duration"`
	AspectRatio string           `json:"aspectRatio"`
	VoiceOver   *VoiceOverConfig `json:"voiceOver,omitempty"`
	ProjectID   int64            `json:"projectId"`
}

// CreateTextToVideo starts a text-to-video generation job and returns its id.
func (c *Client) CreateTextToVideo(ctx context.Context, req TextToVideoRequest) (int64, error) {
	return c.create(ctx, models.KindTextToVideo, req)
}

// VoiceOverRequest starts standalone voice-over synthesis.
type VoiceOverRequest struct {
	Text      string  `json:"text"`
	Voice     string  `json:"voice"`
	Speed     float64 `json:"speed,omitempty"`
	ProjectID int64   `json:"projectId"`
}

// CreateVoiceOver starts a voice-over job and returns its id.
func (c *Client) CreateVoiceOver(ctx context.Context, req VoiceOverRequest) (int64, error) {
	return c.create(ctx, models.KindVoiceOver, req)
}

// jobRecord is the wire shape of a job status response; the result payload
// stays raw until the kind is known.
type jobRecord struct {
	ID          int64            `json:"id"`
	Kind        models.JobKind   `json:"kind"`
	Status      models.JobStatus `json:"status"`
	Progress    int              `json:"progress"`
	Stage       string           `json:"stage,omitempty"`
	Message     string           `json:"message,omitempty"`
	Error       string           `json:"error,omitempty"`
	Result      json.RawMessage  `json:"result,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
}

// GetJob fetches the current record of a job.
func (c *Client) GetJob(ctx context.Context, kind models.JobKind, id int64) (*models.Job, error) {
	start := time.Now()
	var rec jobRecord
	url := fmt.Sprintf("%s/api/%s/%d", c.baseURL, kindPath(kind), id)
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &rec); err != nil {
		c.metrics.RecordFailure(metrics.OpPoll)
		return nil, err
	}
	c.metrics.RecordTiming(metrics.OpPoll, time.Since(start))

	result, err := models.DecodeResult(kind, rec.Result)
	if err != nil {
		return nil, err
	}

	job := &models.Job{
		ID:          rec.ID,
		Kind:        kind,
		Status:      rec.Status,
		Progress:    rec.Progress,
		Stage:       rec.Stage,
		Message:     rec.Message,
		Error:       rec.Error,
		Result:      result,
		CreatedAt:   rec.CreatedAt,
		CompletedAt: rec.CompletedAt,
	}
	if job.ID == 0 {
		job.ID = id
	}
	return job, nil
}
