// Package cli wires configuration, logging and metrics around the cleaning
// pipeline and the metadata stripper, and exposes both as cobra commands.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/couchcryptid/deeper-cleaner/internal/config"
	"github.com/couchcryptid/deeper-cleaner/internal/observability"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// NewRootCommand builds the deeper-cleaner command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "deeper-cleaner",
		Short:         "Field data hygiene: clean sensor CSV exports and strip photo metadata",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "path to a YAML/JSON/TOML config file")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text or json")
	pf.String("report", "text", "summary format on success: text or json")
	pf.String("metrics-file", "", "write run metrics in Prometheus text format to this path")

	root.AddCommand(newCleanCommand(), newStripCommand())
	return root
}

// env carries what every command needs once flags are parsed.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
}

// setup merges flags, environment and config file into a Config and builds
// the logger and metrics. bindings maps config keys to flag names.
func setup(cmd *cobra.Command, bindings map[string]string) (*env, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	v, err := config.New(path)
	if err != nil {
		return nil, err
	}

	common := map[string]string{
		"log_level":    "log-level",
		"log_format":   "log-format",
		"report":       "report",
		"metrics_file": "metrics-file",
	}
	if err := bindFlags(v, cmd.Flags(), common); err != nil {
		return nil, err
	}
	if err := bindFlags(v, cmd.Flags(), bindings); err != nil {
		return nil, err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:     cfg,
		logger:  observability.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat),
		metrics: observability.NewMetrics(),
	}, nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet, bindings map[string]string) error {
	for key, name := range bindings {
		f := flags.Lookup(name)
		if f == nil {
			return fmt.Errorf("unknown flag %q", name)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// writeMetrics exports metrics when a metrics file is configured. A failure
// here is logged and does not change the command's outcome.
func (e *env) writeMetrics() {
	if e.cfg.MetricsFile == "" {
		return
	}
	if err := e.metrics.WriteTextfile(e.cfg.MetricsFile); err != nil {
		e.logger.Error("metrics export failed", "path", e.cfg.MetricsFile, "error", err)
	}
}
