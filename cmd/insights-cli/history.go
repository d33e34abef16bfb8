package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"rms-insight-workers/internal/store/sqlite"
)

func newHistoryCmd() *cobra.Command {
	var path string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded insight builds",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			store, err := sqlite.New(path)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(ctx, limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tCREATED\tSOURCE\tROWS\tURGENT\tSTATEMENTS")
			for _, run := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\n",
					run.ID, run.CreatedAt.Local().Format(time.DateTime), run.Source,
					run.RowCount, run.UrgentRows, run.Summary.Statements)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&path, "history", "insight-runs.db", "SQLite history file")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show, 0 for all")
	return cmd
}
