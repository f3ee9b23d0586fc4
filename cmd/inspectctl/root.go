package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/inspections/internal/client"
	"github.com/JonMunkholm/inspections/internal/config"
	"github.com/JonMunkholm/inspections/internal/core"
	"github.com/JonMunkholm/inspections/internal/logging"
)

// options holds the persistent flags shared by every command.
type options struct {
	output   string
	backend  string
	apiKey   string
	timeout  time.Duration
	maxBytes int64
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "inspectctl",
		Short: "Work with vehicle inspection records",
		Long: `inspectctl reads inspection snapshot files (the workbook or the CSV
files) and queries a running inspection server.

Examples:
  inspectctl parse data/vehicles_data.csv --dataset vehicles
  inspectctl summary --dir data
  inspectctl vehicles --backend http://localhost:5000 --division North
  inspectctl history 12 -o json
  inspectctl export --dir data --out backup --format workbook`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), opts.logLevel, "text"))
			return applyConfigDefaults(cmd, opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.output, "output", "o", "yaml", "Output format: yaml, json or table")
	flags.StringVar(&opts.backend, "backend", "", "Inspection server URL (default: BACKEND_URL)")
	flags.StringVar(&opts.apiKey, "api-key", "", "API key for the server (default: BACKEND_API_KEY)")
	flags.DurationVar(&opts.timeout, "timeout", 0, "Request timeout (default: BACKEND_TIMEOUT)")
	flags.Int64Var(&opts.maxBytes, "max-bytes", 0, "Largest file read in bytes (default: SNAPSHOT_MAX_FILE_SIZE)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	cmd.AddCommand(
		newParseCmd(opts),
		newSummaryCmd(opts),
		newVehiclesCmd(opts),
		newHistoryCmd(opts),
		newExportCmd(opts),
	)
	return cmd
}

// applyConfigDefaults fills flags the user left unset from the environment
// configuration.
func applyConfigDefaults(cmd *cobra.Command, opts *options) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if !flags.Changed("backend") {
		opts.backend = cfg.Client.BackendURL
	}
	if !flags.Changed("api-key") {
		opts.apiKey = cfg.Client.APIKey
	}
	if !flags.Changed("timeout") {
		opts.timeout = cfg.Client.Timeout
	}
	if !flags.Changed("max-bytes") {
		opts.maxBytes = cfg.Snapshot.MaxFileSize
	}
	return nil
}

// remoteService returns a Service whose store is the server at --backend.
func (o *options) remoteService() *core.Service {
	c := client.FromConfig(config.ClientConfig{
		BackendURL: o.backend,
		Timeout:    o.timeout,
		APIKey:     o.apiKey,
	})
	return core.NewService(c, core.WithLogger(slog.Default()))
}

// print writes v in the selected output format. table is the fallback for
// formats that need one.
func (o *options) print(w io.Writer, v any, table func(io.Writer) error) error {
	switch o.output {
	case "json":
		return writeJSON(w, v)
	case "yaml", "":
		return writeYAML(w, v)
	case "table":
		if table == nil {
			return writeYAML(w, v)
		}
		return table(w)
	default:
		return fmt.Errorf("unknown output format %q (want yaml, json or table)", o.output)
	}
}
