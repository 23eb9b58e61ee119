package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	periodsdom "namecensus/internal/services/periods/domain"

	"github.com/spf13/cobra"
)

func newPeriodsCmd(open opener, out *printer) *cobra.Command {
	return &cobra.Command{
		Use:   "periods",
		Short: "List catalog periods with their ingest and analysis state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, open, func(ctx context.Context, a *app) error {
				views, err := a.Periods.List(ctx)
				if err != nil {
					return err
				}
				return out.print(cmd.OutOrStdout(), views, func(w io.Writer) { printPeriods(w, views) })
			})
		},
	}
}

func printPeriods(w io.Writer, views []periodsdom.PeriodView) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tLABEL\tSOURCE\tROWS\tINCLUDED\tEXCLUDED\tINGESTED\tANALYZED")
	for _, v := range views {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			v.Key, v.Label, v.SourceKind, v.TotalRows, v.IncludedCount, v.ExcludedCount,
			stamp(v.IngestedAt), stamp(v.AnalyzedAt))
	}
	_ = tw.Flush()
}

func stamp(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func newIngestCmd(open opener, out *printer) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <period>",
		Short: "Fetch, clean and store the rows of a period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, open, func(ctx context.Context, a *app) error {
				res, err := a.Periods.Ingest(ctx, args[0])
				if err != nil {
					return err
				}
				return out.print(cmd.OutOrStdout(), res, func(w io.Writer) {
					fmt.Fprintf(w, "ingested %s: %d rows, %d included, %d excluded (%.0f ms)\n",
						res.Period, res.Total, res.Included, res.Excluded, res.ElapsedMS)
				})
			})
		},
	}
}
