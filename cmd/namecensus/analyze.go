package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"namecensus/internal/core/duplicates"
	analyticsdom "namecensus/internal/services/analytics/domain"

	"github.com/spf13/cobra"
)

func newAnalyzeCmd(open opener, out *printer) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <period>",
		Short: "Compute name frequencies, the 80% coverage set and duplicate groups",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, open, func(ctx context.Context, a *app) error {
				sum, err := a.Analytics.Run(ctx, args[0])
				if err != nil {
					return err
				}
				return out.print(cmd.OutOrStdout(), sum, func(w io.Writer) { printAnalysis(w, sum) })
			})
		},
	}
}

func printAnalysis(w io.Writer, s analyticsdom.Summary) {
	fmt.Fprintf(w, "period %s: %d records, %d unique names (%d normalized)\n",
		s.Period, s.TotalRecords, s.UniqueNames, s.UniqueNamesNormalized)
	fmt.Fprintf(w, "top 80%%: %d names covering %s of records\n", s.Top80Count, pct(s.Top80RecordsPct))
	if len(s.Top80Names) > 0 {
		fmt.Fprintf(w, "  %s\n", strings.Join(s.Top80Names, ", "))
	}
	fmt.Fprintf(w, "duplicates (%s):\n", s.DuplicateMode)
	for _, p := range duplicates.Pairs() {
		k := p.String()
		fmt.Fprintf(w, "  %-11s %d groups, %d records\n", k, s.DuplicateGroupsByPair[k], s.DuplicateRecordsByPair[k])
	}
	fmt.Fprintf(w, "  %-11s %d records\n", "any", s.DuplicateRecords)
}

func pct(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", *p)
}
