// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tuulbelt/cli-progress-reporting/internal/cli"
	"github.com/tuulbelt/cli-progress-reporting/internal/config"
	progerrors "github.com/tuulbelt/cli-progress-reporting/internal/errors"
	"github.com/tuulbelt/cli-progress-reporting/internal/logging"
	"github.com/tuulbelt/cli-progress-reporting/internal/metrics"
	"github.com/tuulbelt/cli-progress-reporting/internal/output"
	"github.com/tuulbelt/cli-progress-reporting/internal/retry"
	"github.com/tuulbelt/cli-progress-reporting/internal/state"
)

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	dir        string
	configPath string
	jsonOutput bool
	verbose    bool
	retries    int
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "prog",
		Short: "Track progress of long-running work across processes",
		Long: `prog records the progress of long-running work in small JSON state files.

Any process can update a tracker and any other process can read it, which
makes prog suitable for shell scripts, CI jobs and parallel workers.
State files live in the system temporary directory unless --dir, the
PROG_DIR environment variable or a config file says otherwise.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.dir, "dir", "", "State directory (default: system temp dir)")
	flags.StringVar(&opts.configPath, "config", "", "Config file path (default: .prog.yaml or ~/.prog/config.yaml)")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Print results as NDJSON")
	flags.BoolVar(&opts.verbose, "verbose", false, "Enable debug logging on stderr")
	flags.IntVar(&opts.retries, "retries", 0, "Retry IO failures this many times")

	rootCmd.AddCommand(
		newInitCommand(opts),
		newIncrementCommand(opts),
		newSetCommand(opts),
		newFinishCommand(opts),
		newGetCommand(opts),
		newClearCommand(opts),
		newListCommand(opts),
		newMultiCommand(opts),
	)
	return rootCmd
}

// session is the per-invocation wiring built from config and flags.
type session struct {
	env         cli.Env
	logger      *zap.Logger
	registry    *prometheus.Registry
	metricsFile string
}

func (o *globalOptions) newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}

	// Flags take precedence over the config file and environment.
	flags := cmd.Flags()
	if flags.Changed("dir") {
		cfg.State.Dir = o.dir
	}
	if flags.Changed("retries") {
		cfg.Retry.MaxRetries = o.retries
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		Output:      cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}

	if cfg.State.Dir != "" {
		if err := os.MkdirAll(cfg.State.Dir, 0o755); err != nil {
			return nil, &progerrors.IOError{Op: "create state directory", Path: cfg.State.Dir, Err: err}
		}
	}

	registry := prometheus.NewRegistry()
	storeMetrics, err := metrics.NewStoreMetrics(registry)
	if err != nil {
		return nil, err
	}
	store := state.NewStore(state.Config{Dir: cfg.State.Dir, Logger: logger, Observer: storeMetrics})
	if err := registry.Register(metrics.NewTrackerCollector(store, logger)); err != nil {
		return nil, err
	}

	var printer output.Printer = output.NewTextPrinter(cmd.OutOrStdout())
	if o.jsonOutput {
		printer = output.NewWriter(cmd.OutOrStdout())
	}

	return &session{
		env: cli.Env{
			Config:  cfg,
			Store:   store,
			Logger:  logger,
			Printer: printer,
			Retry: &retry.Config{
				MaxRetries:        cfg.Retry.MaxRetries,
				InitialBackoff:    cfg.Retry.InitialBackoff,
				MaxBackoff:        cfg.Retry.MaxBackoff,
				BackoffMultiplier: cfg.Retry.BackoffMultiplier,
				Logger:            logger,
			},
		},
		logger:      logger,
		registry:    registry,
		metricsFile: cfg.Metrics.File,
	}, nil
}

// run executes command and then exports metrics when a metrics file is
// configured. A failed export is logged and does not change the result.
func (o *globalOptions) run(cmd *cobra.Command, command cli.Command) error {
	s, err := o.newSession(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = s.logger.Sync() }()

	err = cli.Dispatch(cmd.Context(), s.env, command)

	if s.metricsFile != "" {
		if exportErr := metrics.WriteTextfile(s.metricsFile, s.registry); exportErr != nil {
			s.logger.Warn("metrics export failed", zap.Error(exportErr))
		}
	}
	return err
}
