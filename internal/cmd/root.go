// Package cmd wires the automail command-line interface.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/automailhq/automail/internal/observability"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

var (
	flagConfigPath string
	flagLogLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "automail",
	Short: "Daily report retrieval and mail-out pipeline",
	Long: `automail fetches the newest report artifact from a remote file server,
composes a notification email with inline previews and the document attached,
and sends it to the configured recipients - on a daily schedule or on demand.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return observability.Init(flagLogLevel, false)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "Path to config.json (default ./config.json)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

// cliError carries a foundry exit code alongside the underlying error.
type cliError struct {
	code int
	msg  string
	err  error
}

func (e *cliError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *cliError) Unwrap() error {
	return e.err
}

func exitError(code foundry.ExitCode, msg string, err error) error {
	return &cliError{code: int(code), msg: msg, err: err}
}

// Execute runs the CLI and exits the process with the mapped code.
func Execute() {
	defer observability.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)

		var ce *cliError
		if errors.As(err, &ce) {
			os.Exit(ce.code)
		}
		os.Exit(1)
	}
}
