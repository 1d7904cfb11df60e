// Package models defines the job lifecycle types and the push-channel wire
// protocol for the VideoGenAI backend.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// JobKind identifies the operation a job performs. Fixed at creation.
type JobKind string

const (
	KindSegmentation JobKind = "segmentation"
	KindTextToVideo  JobKind = "text_to_video"
	KindVoiceOver    JobKind = "voice_over"
	KindRender       JobKind = "render"
	KindPublish      JobKind = "publish"
)

// UpdateEventType returns the push event type carrying updates for this kind.
func (k JobKind) UpdateEventType() string {
	return string(k) + "_update"
}

// JobStatus represents the lifecycle stage of a job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// IsTerminal reports whether no further transition is valid from this status.
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is the server-side record of a long-running operation, as returned by
// the status endpoints.
type Job struct {
	ID          int64      `json:"id"`
	Kind        JobKind    `json:"kind"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`
	Stage       string     `json:"stage,omitempty"`
	Message     string     `json:"message,omitempty"`
	Error       string     `json:"error,omitempty"`
	Result      Result     `json:"-"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Update converts a polled record into the normalized update shape the
// reconciler consumes. Poll results always carry status and progress.
func (j *Job) Update() JobUpdate {
	status := j.Status
	progress := j.Progress
	u := JobUpdate{
		JobID:    j.ID,
		Kind:     j.Kind,
		Status:   &status,
		Progress: &progress,
		Stage:    j.Stage,
		Message:  j.Message,
	}
	if status == StatusFailed {
		u.Error = j.Error
	}
	if status == StatusCompleted {
		u.Result = j.Result
	}
	return u
}

// Result is the kind-specific payload of a completed job.
type Result interface {
	isResult()
	// Summary returns the user-facing one-line description of the outcome.
	Summary() string
}

// SegmentationResult reports how many segments and subtitles were generated.
type SegmentationResult struct {
	Segments  int `json:"segments"`
	Subtitles int `json:"subtitles"`
}

func (SegmentationResult) isResult() {}

func (r SegmentationResult) Summary() string {
	return fmt.Sprintf("%d segmenti e %d sottotitoli generati", r.Segments, r.Subtitles)
}

// VideoResult carries the produced video for generation and render jobs.
type VideoResult struct {
	VideoURL     string `json:"videoUrl"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

func (VideoResult) isResult() {}

func (r VideoResult) Summary() string {
	return "video pronto: " + r.VideoURL
}

// VoiceOverResult carries the synthesized audio track.
type VoiceOverResult struct {
	AudioURL    string  `json:"audioUrl"`
	DurationSec float64 `json:"duration"`
}

func (VoiceOverResult) isResult() {}

func (r VoiceOverResult) Summary() string {
	return fmt.Sprintf("voce fuori campo generata (%.1fs)", r.DurationSec)
}

// PublishResult reports a video published to a social platform.
type PublishResult struct {
	PlatformName     string `json:"platformName"`
	Title            string `json:"title,omitempty"`
	PlatformVideoURL string `json:"platformVideoUrl,omitempty"`
}

func (PublishResult) isResult() {}

func (r PublishResult) Summary() string {
	return "pubblicato su " + r.PlatformName
}

// DecodeResult parses a kind-specific result payload.
func DecodeResult(kind JobKind, raw json.RawMessage) (Result, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	switch kind {
	case KindSegmentation:
		var r SegmentationResult
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("decode segmentation result: %w", err)
		}
		return r, nil
	case KindTextToVideo, KindRender:
		var r VideoResult
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("decode video result: %w", err)
		}
		return r, nil
	case KindVoiceOver:
		var r VoiceOverResult
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("decode voice-over result: %w", err)
		}
		return r, nil
	case KindPublish:
		var r PublishResult
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("decode publish result: %w", err)
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown job kind %q", kind)
	}
}

// JobUpdate is the normalized incoming update both poll results and push
// events reduce to before reaching the reconciler. Optional fields are
// pointers (status, progress); absent or empty stage/message leave the
// displayed state untouched on merge.
type JobUpdate struct {
	JobID    int64
	Kind     JobKind
	Status   *JobStatus
	Progress *int
	Stage    string
	Message  string
	Error    string
	Result   Result
}
