package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/videogenai/videogen-go/internal/launch"
)

var segmentProject int64

var segmentCmd = &cobra.Command{
	Use:   "segment <video-url>",
	Short: "Segment a video into scenes with auto-captioning",
	Long: `Start a scene-segmentation job on an uploaded video. The backend splits
the video into scenes and generates subtitles for each one.

Examples:
  videogen segment https://cdn.example.com/uploads/a.mp4 --project 1`,
	Args: cobra.ExactArgs(1),
	RunE: runSegment,
}

func init() {
	segmentCmd.Flags().Int64Var(&segmentProject, "project", 0, "owning project id (required)")
}

func runSegment(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	handle, err := launcher.LaunchSegmentation(ctx, launch.SegmentationParams{
		VideoURL:  args[0],
		ProjectID: segmentProject,
	})
	if err != nil {
		return fmt.Errorf("start segmentation: %w", err)
	}
	defer handle.Stop()

	fmt.Printf("Segmentation job %d started\n", handle.JobID)
	return runJobProgress(reconciler, channel, handle.JobID)
}
