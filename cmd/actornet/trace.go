package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/actornet/datarecording"
	"github.com/sarchlab/actornet/tracing"
)

func newTraceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trace <trace.sqlite3>",
		Short: "Summarize a recorded trace tick by tick",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); err != nil {
				return err
			}

			reader := datarecording.NewReader(args[0])
			defer reader.Close()

			reader.MapTable(tracing.TickTable, tracing.TickEntry{})

			rows, _, err := reader.Query(cmd.Context(), tracing.TickTable,
				datarecording.QueryParams{OrderBy: "Session, Tick"})
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SESSION\tTICK\tDELIVERED\tDROPPED\tFAILED")

			for _, row := range rows {
				e := row.(*tracing.TickEntry)
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n",
					e.Session, e.Tick, e.Delivered, e.Dropped, e.Failed)
			}

			return tw.Flush()
		},
	}
}
