package launch

import "fmt"

// ValidationError is a local, pre-network failure: a required field missing
// or out of its declared bound. It never reaches the backend.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Generation bounds.
const (
	MinDurationSec = 1
	MaxDurationSec = 60
)

// AspectRatios lists the accepted aspect ratio values.
var AspectRatios = []string{"16:9", "9:16", "1:1"}

func validAspectRatio(v string) bool {
	for _, r := range AspectRatios {
		if v == r {
			return true
		}
	}
	return false
}

// SegmentationParams configures a scene-segmentation job.
type SegmentationParams struct {
	VideoURL  string
	ProjectID int64
}

func (p SegmentationParams) validate() error {
	if p.VideoURL == "" {
		return &ValidationError{Field: "videoUrl", Reason: "a source video is required"}
	}
	if p.ProjectID <= 0 {
		return &ValidationError{Field: "projectId", Reason: "an owning project is required"}
	}
	return nil
}

// VoiceParams configures voice synthesis, standalone or attached to a
// generation request.
type VoiceParams struct {
	Voice string
	Speed float64
}

func (p VoiceParams) validate() error {
	if p.Voice == "" {
		return &ValidationError{Field: "voice", Reason: "a voice is required"}
	}
	if p.Speed != 0 && (p.Speed < 0.5 || p.Speed > 2.0) {
		return &ValidationError{Field: "speed", Reason: "must be between 0.5 and 2.0"}
	}
	return nil
}

// TextToVideoParams configures an AI video generation job.
type TextToVideoParams struct {
	Prompt      string
	Style       string
	DurationSec int
	AspectRatio string
	VoiceOver   *VoiceParams
	ProjectID   int64
}

func (p TextToVideoParams) validate() error {
	if p.Prompt == "" {
		return &ValidationError{Field: "prompt", Reason: "a prompt is required"}
	}
	if p.DurationSec < MinDurationSec || p.DurationSec > MaxDurationSec {
		return &ValidationError{
			Field:  "duration",
			Reason: fmt.Sprintf("must be between %d and %d seconds", MinDurationSec, MaxDurationSec),
		}
	}
	if !validAspectRatio(p.AspectRatio) {
		return &ValidationError{Field: "aspectRatio", Reason: "must be one of 16:9, 9:16, 1:1"}
	}
	if p.VoiceOver != nil {
		if err := p.VoiceOver.validate(); err != nil {
			return err
		}
	}
	return nil
}

// VoiceOverParams configures a standalone voice-over job.
type VoiceOverParams struct {
	Text      string
	Voice     string
	Speed     float64
	ProjectID int64
}

func (p VoiceOverParams) validate() error {
	if p.Text == "" {
		return &ValidationError{Field: "text", Reason: "text to synthesize is required"}
	}
	return VoiceParams{Voice: p.Voice, Speed: p.Speed}.validate()
}
