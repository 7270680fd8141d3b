// Package cli implements the storeledger command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/storeledger/internal/app"
)

// ErrAnomalies is returned by check --strict when the scan is not clean.
var ErrAnomalies = errors.New("consistency anomalies found")

// Execute runs the command tree against os.Args and returns the exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		return 1
	}
	return 0
}

// NewRootCommand builds a fresh command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "storeledger",
		Short:         "Single-store ledger: invoices, maal/jama and document numbering",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("driver", "", "storage driver override (postgres|memory)")
	root.PersistentFlags().Bool("json", false, "print machine readable output")

	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newCheckCommand(),
		newNextIDCommand(),
		newJobsCommand(),
	)
	return root
}

// loadConfig applies persistent flag overrides on top of the environment.
func loadConfig(cmd *cobra.Command) (*app.Config, error) {
	if driver, _ := cmd.Flags().GetString("driver"); driver != "" {
		if err := os.Setenv("STORAGE_DRIVER", driver); err != nil {
			return nil, err
		}
	}
	return app.LoadConfig()
}

// env is what a data command needs: config, logger and an open backend.
type env struct {
	cfg     *app.Config
	logger  *slog.Logger
	backend *app.Backend
}

func openEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := app.NewLogger(cfg)
	backend, err := app.OpenBackend(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return &env{cfg: cfg, logger: logger, backend: backend}, nil
}

func (e *env) Close() { e.backend.Close() }

func jsonOutput(cmd *cobra.Command) bool {
	on, _ := cmd.Flags().GetBool("json")
	return on
}

func out(cmd *cobra.Command) io.Writer { return cmd.OutOrStdout() }
