package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <kind> <job-id>",
	Short: "Follow a running job until it finishes",
	Long: `Track an already-running job through polling and the push channel. For
render and publish jobs this also subscribes the connection so the server
targets its update frames here.

Examples:
  videogen watch render 12
  videogen watch segmentation 42`,
	Args: cobra.ExactArgs(2),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	kind, err := parseKind(args[0])
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid job id %q", args[1])
	}

	handle := launcher.Track(cmd.Context(), kind, id)
	defer handle.Stop()

	return runJobProgress(reconciler, channel, handle.JobID)
}
