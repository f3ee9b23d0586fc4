package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/inspections/internal/core"
	"github.com/JonMunkholm/inspections/internal/snapshot"
	"github.com/JonMunkholm/inspections/internal/tabular"
)

// parseResult is what parse prints.
type parseResult struct {
	File       string                 `json:"file" yaml:"file"`
	Header     []string               `json:"header" yaml:"header"`
	Records    []tabular.Record       `json:"records" yaml:"records"`
	Duplicates []string               `json:"duplicates,omitempty" yaml:"duplicates,omitempty"`
	Problems   []core.ValidationError `json:"problems,omitempty" yaml:"problems,omitempty"`
}

func newParseCmd(opts *options) *cobra.Command {
	var dataset string

	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Parse a CSV file into typed records",
		Long: `Parses FILE with the snapshot rules: the first non-blank line is the
header, blank lines are skipped and every field becomes a number, a boolean
or text. With --dataset the header is also checked against that dataset.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var def core.DatasetDefinition
			if dataset != "" {
				var ok bool
				if def, ok = core.Get(dataset); !ok {
					return fmt.Errorf("unknown dataset: %s", dataset)
				}
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			table, err := tabular.ReadTable(f, opts.maxBytes)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			res := parseResult{
				File:       args[0],
				Header:     table.Header,
				Records:    table.Records,
				Duplicates: table.Duplicates(),
			}
			if dataset != "" {
				res.Problems = core.ValidateHeader(def.FieldSpecs, table).Errors
			}
			if err := opts.print(cmd.OutOrStdout(), res, nil); err != nil {
				return err
			}
			if len(res.Problems) > 0 {
				return fmt.Errorf("%s: header does not match dataset %s", args[0], dataset)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dataset, "dataset", "", "Check the header against a dataset: vehicles, inspections or analytics")
	return cmd
}

// summary is what the summary command prints.
type summary struct {
	Source    snapshot.Source `json:"source" yaml:"source"`
	Files     []string        `json:"files" yaml:"files"`
	Analytics core.Analytics  `json:"analytics" yaml:"analytics"`
	Stored    *core.Analytics `json:"storedAnalytics,omitempty" yaml:"storedAnalytics,omitempty"`
	Drift     bool            `json:"analyticsDrift" yaml:"analyticsDrift"`
}

func newSummaryCmd(opts *options) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Load a snapshot directory and print its analytics",
		Long: `Loads the workbook or the CSV files in --dir the same way the server
does and prints the analytics computed from the records. When the snapshot
carries its own analytics row and the numbers differ, analyticsDrift is true.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := snapshot.Load(os.DirFS(dir), opts.maxBytes)
			if err != nil {
				return err
			}
			snap := res.Snapshot
			s := summary{
				Source:    res.Source,
				Files:     res.Files,
				Analytics: core.ComputeAnalytics(snap.Vehicles, snap.Inspections),
				Stored:    snap.Analytics,
			}
			s.Drift = s.Stored != nil && *s.Stored != s.Analytics
			return opts.print(cmd.OutOrStdout(), s, nil)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "data", "Snapshot directory")
	return cmd
}

func newVehiclesCmd(opts *options) *cobra.Command {
	var filter core.VehicleFilter

	cmd := &cobra.Command{
		Use:   "vehicles",
		Short: "List vehicles on the server with their latest inspection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := opts.remoteService().ListVehicles(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
			}
			if rows == nil {
				rows = []core.VehicleRow{}
			}
			return opts.print(cmd.OutOrStdout(), rows, vehicleTable(rows))
		},
	}
	cmd.Flags().StringVar(&filter.Search, "search", "", "Door or plate number substring")
	cmd.Flags().StringVar(&filter.Division, "division", "", "Exact division")
	return cmd
}

func newHistoryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "history VEHICLE_ID",
		Short: "Show a vehicle's inspections, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id < 1 {
				return fmt.Errorf("invalid vehicle id %q", args[0])
			}
			history, err := opts.remoteService().History(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
			}
			if history == nil {
				history = []core.Inspection{}
			}
			return opts.print(cmd.OutOrStdout(), history, historyTable(history))
		},
	}
}

func newExportCmd(opts *options) *cobra.Command {
	var (
		dir    string
		out    string
		format string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write records as a snapshot directory",
		Long: `Writes the records to --out as the workbook or as the CSV files, in the
layout the server loads. Records come from --dir, or from the server when
--dir is not given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var source snapshot.Source
			switch format {
			case "workbook", "xlsx":
				source = snapshot.SourceWorkbook
			case "csv":
				source = snapshot.SourceCSV
			default:
				return fmt.Errorf("unknown export format %q (want workbook or csv)", format)
			}

			var snap core.Snapshot
			if dir != "" {
				res, err := snapshot.Load(os.DirFS(dir), opts.maxBytes)
				if err != nil {
					return err
				}
				snap = res.Snapshot
			} else {
				var err error
				snap, err = opts.remoteService().Snapshot(cmd.Context())
				if err != nil {
					return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
				}
			}

			if err := snapshot.WriteDir(out, snap, source); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d vehicles and %d inspections to %s\n",
				len(snap.Vehicles), len(snap.Inspections), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Snapshot directory to read (default: the server)")
	cmd.Flags().StringVar(&out, "out", "", "Directory to write")
	cmd.Flags().StringVar(&format, "format", "workbook", "Output layout: workbook or csv")
	cmd.MarkFlagRequired("out")
	return cmd
}
