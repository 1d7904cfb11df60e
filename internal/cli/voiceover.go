package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/videogenai/videogen-go/internal/launch"
)

var (
	voiceoverVoice   string
	voiceoverSpeed   float64
	voiceoverProject int64
)

var voiceoverCmd = &cobra.Command{
	Use:   "voiceover <text>",
	Short: "Synthesize a voice-over from text",
	Long: `Start a voice-over synthesis job. The resulting audio track can be added
to a project timeline.

Examples:
  videogen voiceover "Welcome to our channel" --voice alloy`,
	Args: cobra.MinimumNArgs(1),
	RunE: runVoiceover,
}

func init() {
	voiceoverCmd.Flags().StringVar(&voiceoverVoice, "voice", "", "voice to use (required)")
	voiceoverCmd.Flags().Float64Var(&voiceoverSpeed, "speed", 0, "speech speed (0.5-2.0)")
	voiceoverCmd.Flags().Int64Var(&voiceoverProject, "project", 0, "owning project id")
}

func runVoiceover(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	handle, err := launcher.LaunchVoiceOver(ctx, launch.VoiceOverParams{
		Text:      strings.Join(args, " "),
		Voice:     voiceoverVoice,
		Speed:     voiceoverSpeed,
		ProjectID: voiceoverProject,
	})
	if err != nil {
		return fmt.Errorf("start voice-over: %w", err)
	}
	defer handle.Stop()

	fmt.Printf("Voice-over job %d started\n", handle.JobID)
	return runJobProgress(reconciler, channel, handle.JobID)
}
