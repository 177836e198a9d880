// Package cli implements the dfa command line tool.
package cli

import (
	"log/slog"

	"github.com/me/dfanalyzer/internal/config"
	"github.com/me/dfanalyzer/internal/logging"
	"github.com/me/dfanalyzer/pkg/client"
	"github.com/spf13/cobra"
)

var (
	flagURL       string
	flagConfig    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	cfg    config.Config
	logger *slog.Logger
	sender *client.Client
)

// NewRootCmd creates the root cobra command for the dfa CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dfa",
		Short: "Provenance capture for dataflow programs",
		Long:  "dfa declares dataflow schemas, reports task executions to a provenance store and runs a local capture server.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = config.Load(flagConfig); err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("url") {
				cfg.BaseURL = flagURL
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = flagLogLevel
			}
			if flags.Changed("log-format") {
				cfg.LogFormat = flagLogFormat
			}
			if flagDebug {
				cfg.LogLevel = "debug"
			}
			logger = logging.NewLoggerWithWriter(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat, cmd.ErrOrStderr())
			sender = client.New(cfg.BaseURL, logger, client.WithTimeout(cfg.Timeout))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagURL, "url", client.DefaultBaseURL, "Provenance store URL (or DFA_URL env)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a YAML config file")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newValidateCmd(),
		newDataflowCmd(),
		newTaskCmd(),
		newDocumentsCmd(),
		newCaptureCmd(),
	)

	return root
}
