package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"namecensus/internal/adapters/export"
	"namecensus/internal/core/normalize"
	perr "namecensus/internal/platform/errors"
	analyticshttp "namecensus/internal/services/analytics/http"
	comparisondom "namecensus/internal/services/comparison/domain"
	exportdom "namecensus/internal/services/export/domain"
	periodsdom "namecensus/internal/services/periods/domain"

	"github.com/spf13/cobra"
)

type exportFlags struct {
	format    string
	out       string
	mode      string
	top80     string
	top80Only bool
}

func newExportCmd(open opener) *cobra.Command {
	f := &exportFlags{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a stored table or result as csv, xlsx or json",
		Long: `Write a stored table or result to a file.

Examples:
  namecensus export records 2023 included --format xlsx
  namecensus export frequencies 2023 --mode normalized --top80-only
  namecensus export duplicates 2023 name_year --out dupes.csv
  namecensus export common 2022 2023 --top80 both
  namecensus export unique 2022 2023 a --format json --out -`,
	}
	cmd.PersistentFlags().StringVar(&f.format, "format", "csv", "csv, xlsx or json")
	cmd.PersistentFlags().StringVar(&f.out, "out", "", "output file, a directory, or - for stdout (default: generated name)")

	build := func(use, short string, args cobra.PositionalArgs, fn func(ctx context.Context, s exportdom.ServicePort, fm export.Format, args []string) (exportdom.Download, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  args,
			RunE: func(cmd *cobra.Command, args []string) error {
				fm, err := export.ParseFormat(f.format)
				if err != nil {
					return err
				}
				return run(cmd, open, func(ctx context.Context, a *app) error {
					d, err := fn(ctx, a.Export, fm, args)
					if err != nil {
						return err
					}
					return f.write(cmd, a.Export, d)
				})
			},
		}
	}

	cmd.AddCommand(build("records <period> <original|included|excluded>", "Export the stored rows of a period", cobra.ExactArgs(2),
		func(ctx context.Context, s exportdom.ServicePort, fm export.Format, args []string) (exportdom.Download, error) {
			t, err := periodsdom.ParseTableType(args[1])
			if err != nil {
				return exportdom.Download{}, err
			}
			return s.Records(ctx, args[0], t, fm)
		}))

	freq := build("frequencies <period>", "Export the ranked names of an analyzed period", cobra.ExactArgs(1),
		func(ctx context.Context, s exportdom.ServicePort, fm export.Format, args []string) (exportdom.Download, error) {
			mode, ok := normalize.ParseMode(f.mode)
			if !ok {
				return exportdom.Download{}, perr.WithField(perr.InvalidArgf("unknown mode %q (want exact or normalized)", f.mode), "mode")
			}
			return s.Frequencies(ctx, args[0], mode, f.top80Only, fm)
		})
	freq.Flags().StringVar(&f.mode, "mode", "exact", "exact or normalized")
	freq.Flags().BoolVar(&f.top80Only, "top80-only", false, "only names inside the 80% coverage set")
	cmd.AddCommand(freq)

	cmd.AddCommand(build("duplicates <period> <pair>", "Export the duplicate groups of one pair", cobra.ExactArgs(2),
		func(ctx context.Context, s exportdom.ServicePort, fm export.Format, args []string) (exportdom.Download, error) {
			p, err := analyticshttp.ParsePair(args[1])
			if err != nil {
				return exportdom.Download{}, err
			}
			return s.Duplicates(ctx, args[0], p, fm)
		}))

	common := build("common <period-a> <period-b>", "Export the names two compared periods share", cobra.ExactArgs(2),
		func(ctx context.Context, s exportdom.ServicePort, fm export.Format, args []string) (exportdom.Download, error) {
			return s.Common(ctx, args[0], args[1], f.top80, fm)
		})
	common.Flags().StringVar(&f.top80, "top80", "", "a, b or both: keep names in that coverage set")
	cmd.AddCommand(common)

	unique := build("unique <period-a> <period-b> <a|b>", "Export the records whose name only one side has", cobra.ExactArgs(3),
		func(ctx context.Context, s exportdom.ServicePort, fm export.Format, args []string) (exportdom.Download, error) {
			side, err := comparisondom.ParseSide(args[2])
			if err != nil {
				return exportdom.Download{}, err
			}
			return s.Unique(ctx, args[0], args[1], side, f.top80Only, fm)
		})
	unique.Flags().BoolVar(&f.top80Only, "top80-only", false, "only records whose name is in its period's coverage set")
	cmd.AddCommand(unique)

	return cmd
}

// write renders d to stdout, a named file, or a generated name inside a directory
func (f *exportFlags) write(cmd *cobra.Command, s exportdom.ServicePort, d exportdom.Download) error {
	if f.out == "-" {
		return s.Render(cmd.OutOrStdout(), d)
	}
	path := f.out
	switch {
	case path == "":
		path = d.Filename
	default:
		if fi, err := os.Stat(path); err == nil && fi.IsDir() {
			path = filepath.Join(path, d.Filename)
		}
	}
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := s.Render(fh, d); err != nil {
		_ = fh.Close()
		return err
	}
	if err := fh.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}
