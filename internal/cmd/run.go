package cmd

import (
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/automailhq/automail/internal/config"
	"github.com/automailhq/automail/internal/observability"
	"github.com/automailhq/automail/pkg/joblog"
	"github.com/automailhq/automail/pkg/manifest"
	"github.com/automailhq/automail/pkg/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one report job and exit",
	Long: `Run the pipeline once: connect to the remote endpoint, locate the newest
report artifact, download it, send the notification email, and clean up.

By default the persisted configuration is used. A run manifest overrides it
for this invocation only:

  automail run
  automail run --job daily.yaml`,
	RunE: runRun,
}

var (
	runJobPath string
	runLogPath string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runJobPath, "job", "j", "", "Path to a run manifest (YAML or JSON)")
	runCmd.Flags().StringVar(&runLogPath, "log-file", "execution_log.txt", "Path to the operator log file")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store := config.NewStore(flagConfigPath)
	cfg, err := store.Load(ctx)
	if err != nil {
		observability.CLILogger.Error("Failed to load configuration", zap.Error(err))
		return exitError(foundry.ExitInvalidArgument, "Failed to load configuration", err)
	}

	if runJobPath != "" {
		m, err := manifest.Load(runJobPath)
		if err != nil {
			observability.CLILogger.Error("Invalid run manifest", zap.String("path", runJobPath), zap.Error(err))
			return exitError(foundry.ExitInvalidArgument, "Invalid run manifest", err)
		}
		cfg = manifestToConfig(m, cfg)
	}

	log := joblog.Open(runLogPath)
	runner := pipeline.NewRunner(
		func() (pipeline.Config, error) { return pipelineConfig(cfg), nil },
		log.Printf,
	)

	outcome := runner.Trigger(ctx)
	if !outcome.Success {
		observability.CLILogger.Error("Job failed",
			zap.String("kind", string(outcome.Kind)),
			zap.String("message", outcome.Message))
		return exitError(foundry.ExitExternalServiceUnavailable, "Job failed", nil)
	}

	observability.CLILogger.Info("Job finished", zap.String("message", outcome.Message))
	return nil
}
