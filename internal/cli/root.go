// Package cli provides the command-line interface for videogen.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/videogenai/videogen-go/internal/api"
	"github.com/videogenai/videogen-go/internal/config"
	"github.com/videogenai/videogen-go/internal/launch"
	"github.com/videogenai/videogen-go/internal/metrics"
	"github.com/videogenai/videogen-go/internal/models"
	"github.com/videogenai/videogen-go/internal/notify"
	"github.com/videogenai/videogen-go/internal/poller"
	"github.com/videogenai/videogen-go/internal/push"
	"github.com/videogenai/videogen-go/internal/reconcile"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose    bool
	configPath string

	// Composition root: one instance of everything, injected downwards.
	cfg        config.Config
	collector  *metrics.Collector
	apiClient  *api.Client
	channel    *push.Channel
	reconciler *reconcile.Reconciler
	jobPoller  *poller.Poller
	launcher   *launch.Launcher

	logCleanup func() error
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "videogen",
	Short: "VideoGenAI job client",
	Long: `Videogen launches AI operations on the VideoGenAI backend - scene
segmentation with auto-captioning, text-to-video generation, voice-over
synthesis - and tracks their progress through polling and the server's
push channel until completion.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		// .env is optional, absence is not an error
		_ = godotenv.Load()

		cfg = config.Load()

		path := configPath
		if path == "" {
			if home, err := os.UserHomeDir(); err == nil {
				path = filepath.Join(home, ".videogen.yaml")
			}
		}
		if path != "" {
			var err error
			cfg, err = config.LoadFile(path, cfg)
			if err != nil {
				return err
			}
		}

		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}
		logger, cleanup := config.SetupLogger(cfg.LogFile, level)
		slog.SetDefault(logger)
		logCleanup = cleanup

		collector = metrics.NewCollector()
		apiClient = api.New(cfg.APIURL,
			api.WithTimeout(cfg.APITimeout),
			api.WithMetrics(collector))

		endpoint := cfg.PushURL
		if endpoint == "" {
			endpoint = push.Endpoint(cfg.APIURL)
		}
		var policy push.RetryPolicy = push.FixedRetry{}
		if cfg.Profile == config.ProfileMobile {
			policy = push.DefaultBackoff()
		}
		channel = push.NewChannel(endpoint,
			push.WithRetryPolicy(policy),
			push.WithChannelMetrics(collector))
		if cfg.UserID != "" {
			channel.SetIdentity(cfg.UserID)
		}
		channel.Connect()

		var presenter reconcile.Presenter = notify.NewToast(os.Stdout)
		if cfg.Profile == config.ProfileMobile {
			presenter = notify.Multi{presenter, notify.NewLocalNotifier(nil)}
		}

		reconciler = reconcile.New(presenter)
		jobPoller = poller.New(apiClient, reconciler)
		launcher = launch.New(apiClient, jobPoller, channel, reconciler)

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if channel != nil {
			if err := channel.Close(); err != nil {
				slog.Warn("failed to close push channel", "error", err)
			}
		}
		if verbose && collector != nil {
			snap := collector.Snapshot()
			slog.Debug("session stats",
				"uptime_s", fmt.Sprintf("%.1f", snap.UptimeSeconds),
				"creates", opCount(snap.JobCreate),
				"polls", opCount(snap.Poll),
				"push_events", opCount(snap.PushEvent),
				"reconnects", opCount(snap.Reconnect))
		}
		if logCleanup != nil {
			if err := logCleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

func opCount(s *metrics.OperationSnapshot) int64 {
	if s == nil {
		return 0
	}
	return s.Count
}

// parseKind maps a CLI argument to a job kind.
func parseKind(s string) (models.JobKind, error) {
	switch s {
	case "segmentation":
		return models.KindSegmentation, nil
	case "text-to-video", "generation":
		return models.KindTextToVideo, nil
	case "voice-over", "voiceover":
		return models.KindVoiceOver, nil
	case "render":
		return models.KindRender, nil
	case "publish":
		return models.KindPublish, nil
	default:
		return "", fmt.Errorf("unknown job kind %q (segmentation, text-to-video, voice-over, render, publish)", s)
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $HOME/.videogen.yaml)")

	rootCmd.AddCommand(segmentCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(voiceoverCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)
}
