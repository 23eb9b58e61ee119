package main

import (
	"context"
	"fmt"
	"io"

	comparisondom "namecensus/internal/services/comparison/domain"

	"github.com/spf13/cobra"
)

func newCompareCmd(open opener, out *printer) *cobra.Command {
	return &cobra.Command{
		Use:   "compare <period-a> <period-b>",
		Short: "Compare the normalized name sets of two analyzed periods",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, open, func(ctx context.Context, a *app) error {
				sum, err := a.Comparison.Run(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return out.print(cmd.OutOrStdout(), sum, func(w io.Writer) { printComparison(w, sum) })
			})
		},
	}
}

func printComparison(w io.Writer, s comparisondom.Summary) {
	fmt.Fprintf(w, "%s vs %s (run %s)\n", s.PeriodA, s.PeriodB, s.RunID)
	fmt.Fprintf(w, "  records      %d / %d\n", s.TotalRecordsA, s.TotalRecordsB)
	fmt.Fprintf(w, "  unique names %d / %d\n", s.UniqueNamesA, s.UniqueNamesB)
	fmt.Fprintf(w, "  common       %d (%s of %s, %s of %s)\n",
		s.CommonNamesCount, pct(s.CommonNamesPctOfA), s.PeriodA, pct(s.CommonNamesPctOfB), s.PeriodB)
	fmt.Fprintf(w, "  only in %s  %d names, %d records\n", s.PeriodA, s.UniqueToACount, s.UniqueToARecords)
	fmt.Fprintf(w, "  only in %s  %d names, %d records\n", s.PeriodB, s.UniqueToBCount, s.UniqueToBRecords)
	fmt.Fprintf(w, "  top 80%% of %s found in %s: %d (%s)\n", s.PeriodA, s.PeriodB, s.Top80AInB, pct(s.Top80AInBPct))
	fmt.Fprintf(w, "  top 80%% of %s found in %s: %d (%s)\n", s.PeriodB, s.PeriodA, s.Top80BInA, pct(s.Top80BInAPct))
	fmt.Fprintf(w, "  in both top 80%%: %d (%s of common)\n", s.BothTop80Count, pct(s.BothTop80Pct))
}
