package models

import (
	"encoding/json"
	"fmt"
)

// Frame is the envelope for every push-channel message, in both directions.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event type tags used on the wire.
const (
	EventAuth               = "auth"
	EventAuthSuccess        = "auth_success"
	EventSubscribe          = "subscribe"
	EventSegmentationUpdate = "segmentation_update"
	EventRenderUpdate       = "render_update"
	EventPublishUpdate      = "publish_update"
)

// ClientEvent is a message the client sends over the push channel.
type ClientEvent interface {
	isClientEvent()
	EventType() string
}

// Auth identifies the connected user. Sent once after every successful open
// and again whenever the identity changes.
type Auth struct {
	UserID string `json:"userId"`
}

func (Auth) isClientEvent() {}
func (Auth) EventType() string { return EventAuth }

// Subscribe registers interest in a video so the server targets subsequent
// render_update frames at this connection.
type Subscribe struct {
	VideoID int64 `json:"videoId"`
}

func (Subscribe) isClientEvent() {}
func (Subscribe) EventType() string { return EventSubscribe }

// EncodeClientEvent wraps a client event into its wire frame.
func EncodeClientEvent(ev ClientEvent) (Frame, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return Frame{}, fmt.Errorf("marshal %s payload: %w", ev.EventType(), err)
	}
	return Frame{Type: ev.EventType(), Payload: payload}, nil
}

// ServerEvent is a message the server pushes to the client.
type ServerEvent interface {
	isServerEvent()
	EventType() string
}

// AuthSuccess acknowledges an auth frame.
type AuthSuccess struct{}

func (AuthSuccess) isServerEvent() {}
func (AuthSuccess) EventType() string { return EventAuthSuccess }

// SegmentationData counts the artifacts produced by a segmentation job.
type SegmentationData struct {
	Segments  int `json:"segments"`
	Subtitles int `json:"subtitles"`
}

// SegmentationUpdate reports progress of a scene-segmentation job.
type SegmentationUpdate struct {
	RequestID int64             `json:"requestId"`
	Status    JobStatus         `json:"status"`
	Progress  *int              `json:"progress,omitempty"`
	Message   string            `json:"message,omitempty"`
	Error     string            `json:"error,omitempty"`
	Data      *SegmentationData `json:"data,omitempty"`
}

func (SegmentationUpdate) isServerEvent() {}
func (SegmentationUpdate) EventType() string { return EventSegmentationUpdate }

// Update converts the event into the normalized shape the reconciler consumes.
func (e SegmentationUpdate) Update() JobUpdate {
	status := e.Status
	u := JobUpdate{
		JobID:    e.RequestID,
		Kind:     KindSegmentation,
		Status:   &status,
		Progress: e.Progress,
		Message:  e.Message,
	}
	if status == StatusFailed {
		u.Error = e.Error
	}
	if status == StatusCompleted && e.Data != nil {
		u.Result = SegmentationResult{Segments: e.Data.Segments, Subtitles: e.Data.Subtitles}
	}
	return u
}

// RenderUpdate reports progress of a timeline render job.
type RenderUpdate struct {
	ID           int64     `json:"id"`
	Status       JobStatus `json:"status"`
	Progress     *int      `json:"progress,omitempty"`
	Stage        string    `json:"stage,omitempty"`
	Message      string    `json:"message,omitempty"`
	VideoURL     string    `json:"videoUrl,omitempty"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	Error        string    `json:"error,omitempty"`
	Timestamp    int64     `json:"timestamp,omitempty"`
}

func (RenderUpdate) isServerEvent() {}
func (RenderUpdate) EventType() string { return EventRenderUpdate }

func (e RenderUpdate) Update() JobUpdate {
	status := e.Status
	u := JobUpdate{
		JobID:    e.ID,
		Kind:     KindRender,
		Status:   &status,
		Progress: e.Progress,
		Stage:    e.Stage,
		Message:  e.Message,
	}
	if status == StatusFailed {
		u.Error = e.Error
	}
	if status == StatusCompleted {
		u.Result = VideoResult{VideoURL: e.VideoURL, ThumbnailURL: e.ThumbnailURL}
	}
	return u
}

// PublishUpdate reports progress of a social-platform publish job.
type PublishUpdate struct {
	ID               int64     `json:"id"`
	PlatformName     string    `json:"platformName"`
	Status           JobStatus `json:"status"`
	Title            string    `json:"title,omitempty"`
	PlatformVideoURL string    `json:"platformVideoUrl,omitempty"`
	Error            string    `json:"error,omitempty"`
	Timestamp        int64     `json:"timestamp,omitempty"`
}

func (PublishUpdate) isServerEvent() {}
func (PublishUpdate) EventType() string { return EventPublishUpdate }

func (e PublishUpdate) Update() JobUpdate {
	status := e.Status
	u := JobUpdate{
		JobID:  e.ID,
		Kind:   KindPublish,
		Status: &status,
	}
	if status == StatusFailed {
		u.Error = e.Error
	}
	if status == StatusCompleted {
		u.Result = PublishResult{
			PlatformName:     e.PlatformName,
			Title:            e.Title,
			PlatformVideoURL: e.PlatformVideoURL,
		}
	}
	return u
}

// JobUpdateEvent is implemented by server events that carry a job update.
type JobUpdateEvent interface {
	ServerEvent
	Update() JobUpdate
}

// DecodeServerEvent parses a wire frame into its typed event. Unknown types
// and malformed payloads are errors; callers log and discard them.
func DecodeServerEvent(frame Frame) (ServerEvent, error) {
	switch frame.Type {
	case EventAuthSuccess:
		return AuthSuccess{}, nil
	case EventSegmentationUpdate:
		var ev SegmentationUpdate
		if err := json.Unmarshal(frame.Payload, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", frame.Type, err)
		}
		return ev, nil
	case EventRenderUpdate:
		var ev RenderUpdate
		if err := json.Unmarshal(frame.Payload, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", frame.Type, err)
		}
		return ev, nil
	case EventPublishUpdate:
		var ev PublishUpdate
		if err := json.Unmarshal(frame.Payload, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", frame.Type, err)
		}
		return ev, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", frame.Type)
	}
}
