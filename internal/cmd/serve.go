package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/automailhq/automail/internal/config"
	"github.com/automailhq/automail/internal/observability"
	"github.com/automailhq/automail/internal/schedule"
	"github.com/automailhq/automail/internal/server"
	"github.com/automailhq/automail/pkg/joblog"
	"github.com/automailhq/automail/pkg/pipeline"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the control surface and the daily scheduler",
	Long: `Start the HTTP control panel API and the background scheduler. The job
runs daily at schedule.run_time and can be triggered manually via POST
/api/run. At most one job is active at a time; extra triggers are dropped.`,
	RunE: runServe,
}

var serveLogPath string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveLogPath, "log-file", "execution_log.txt", "Path to the operator log file")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := config.NewStore(flagConfigPath)
	cfg, err := store.Load(ctx)
	if err != nil {
		observability.CLILogger.Error("Failed to load configuration", zap.Error(err))
		return exitError(foundry.ExitInvalidArgument, "Failed to load configuration", err)
	}

	log := joblog.Open(serveLogPath)

	// Each trigger reloads configuration so saved changes apply to the next
	// run without a restart.
	runner := pipeline.NewRunner(func() (pipeline.Config, error) {
		current, err := store.Load(context.Background())
		if err != nil {
			return pipeline.Config{}, err
		}
		return pipelineConfig(current), nil
	}, log.Printf)

	sched := schedule.New(func() {
		runner.Trigger(context.Background())
	})
	if err := sched.SetDaily(cfg.Schedule.RunTime); err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid schedule", err)
	}
	sched.Start()
	defer sched.Stop()
	log.Printf("Schedule updated. Will run daily at %s", cfg.Schedule.RunTime)

	srv := server.New(cfg.Server.Host, cfg.Server.Port, server.Options{
		Store:     store,
		Runner:    runner,
		Log:       log,
		Scheduler: sched,
		Version:   Version,
	})

	observability.ServerLogger.Info("Control surface listening",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port))

	if err := srv.ListenAndServe(ctx); err != nil {
		observability.ServerLogger.Error("Server failed", zap.Error(err))
		return exitError(foundry.ExitExternalServiceUnavailable, "Server failed", err)
	}
	return nil
}
