package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/videogenai/videogen-go/internal/launch"
)

var (
	generateStyle    string
	generateDuration int
	generateAspect   string
	generateVoice    string
	generateSpeed    float64
	generateProject  int64
)

var generateCmd = &cobra.Command{
	Use:   "generate <prompt>",
	Short: "Generate a video from a text prompt",
	Long: `Start an AI text-to-video generation job. An optional voice-over is
synthesized alongside the video when --voice is given.

Examples:
  videogen generate "a drone shot over a coastline at dawn" --duration 15
  videogen generate "product demo intro" --aspect 9:16 --voice alloy`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generateStyle, "style", "", "visual style hint")
	generateCmd.Flags().IntVar(&generateDuration, "duration", 15, "target duration in seconds (1-60)")
	generateCmd.Flags().StringVar(&generateAspect, "aspect", "16:9", "aspect ratio (16:9, 9:16, 1:1)")
	generateCmd.Flags().StringVar(&generateVoice, "voice", "", "voice-over voice (omit for no voice-over)")
	generateCmd.Flags().Float64Var(&generateSpeed, "speed", 0, "voice-over speed (0.5-2.0)")
	generateCmd.Flags().Int64Var(&generateProject, "project", 0, "owning project id")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	params := launch.TextToVideoParams{
		Prompt:      strings.Join(args, " "),
		Style:       generateStyle,
		DurationSec: generateDuration,
		AspectRatio: generateAspect,
		ProjectID:   generateProject,
	}
	if generateVoice != "" {
		params.VoiceOver = &launch.VoiceParams{Voice: generateVoice, Speed: generateSpeed}
	}

	handle, err := launcher.LaunchTextToVideo(ctx, params)
	if err != nil {
		return fmt.Errorf("start generation: %w", err)
	}
	defer handle.Stop()

	fmt.Printf("Generation job %d started\n", handle.JobID)
	return runJobProgress(reconciler, channel, handle.JobID)
}
