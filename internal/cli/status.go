package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <kind> <job-id>",
	Short: "Show the current state of a job",
	Long: `Fetch a job's record from the backend once and print it.

Examples:
  videogen status segmentation 42
  videogen status text-to-video 7`,
	Args: cobra.ExactArgs(2),
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	kind, err := parseKind(args[0])
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid job id %q", args[1])
	}

	job, err := apiClient.GetJob(cmd.Context(), kind, id)
	if err != nil {
		return fmt.Errorf("get job: %w", err)
	}

	fmt.Printf("Job: %d\n", job.ID)
	fmt.Printf("  Kind: %s\n", job.Kind)
	fmt.Printf("  Status: %s\n", job.Status)
	fmt.Printf("  Progress: %d%%\n", job.Progress)
	if job.Stage != "" {
		fmt.Printf("  Stage: %s\n", job.Stage)
	}
	if job.Message != "" {
		fmt.Printf("  Message: %s\n", job.Message)
	}
	if !job.CreatedAt.IsZero() {
		fmt.Printf("  Created: %s\n", job.CreatedAt.Format(time.RFC3339))
	}
	if job.CompletedAt != nil {
		fmt.Printf("  Completed: %s\n", job.CompletedAt.Format(time.RFC3339))
		if !job.CreatedAt.IsZero() {
			fmt.Printf("  Duration: %s\n", job.CompletedAt.Sub(job.CreatedAt).Round(time.Second))
		}
	}
	if job.Error != "" {
		fmt.Printf("  Error: %s\n", job.Error)
	}
	if job.Result != nil {
		fmt.Printf("\nResult: %s\n", job.Result.Summary())
	}

	return nil
}
