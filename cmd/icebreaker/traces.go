package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/manthysbr/icebreaker/internal/adapters/duckdb"
	"github.com/manthysbr/icebreaker/internal/core/domain"
	"github.com/spf13/cobra"
)

var errStorageDisabled = errors.New("trace storage is disabled; set storage.duckdb_path or ICEBREAKER_DUCKDB_PATH")

func newTracesCmd(flags *rootFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "traces [trace-id]",
		Short: "List persisted pipeline traces, or show one trace with its spans",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if cfg.Storage.DuckDBPath == "" {
				return errStorageDisabled
			}
			repo, err := duckdb.NewRepository(cfg.Storage.DuckDBPath)
			if err != nil {
				return fmt.Errorf("failed to open repository: %w", err)
			}
			defer repo.Close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				trace, err := repo.GetTrace(cmd.Context(), domain.TraceID(args[0]))
				if err != nil {
					return err
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(trace)
			}

			traces, err := repo.ListTraces(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTARTED\tSTATUS\tKIND\tDURATION\tSPANS\tNAME")
			for _, t := range traces {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
					t.ID,
					t.StartTime.Local().Format(time.DateTime),
					t.Status,
					dash(t.ErrorKind),
					time.Duration(t.DurationMs)*time.Millisecond,
					t.SpanCount,
					t.Name,
				)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of traces to list")
	return cmd
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
