// Package main provides the operator CLI for namecensus
package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"namecensus/internal/modkit"
	"namecensus/internal/platform/config"
	"namecensus/internal/platform/logger"

	analyticsdom "namecensus/internal/services/analytics/domain"
	analyticsmod "namecensus/internal/services/analytics/module"
	"namecensus/internal/services/api"
	comparisondom "namecensus/internal/services/comparison/domain"
	comparisonmod "namecensus/internal/services/comparison/module"
	exportdom "namecensus/internal/services/export/domain"
	exportmod "namecensus/internal/services/export/module"
	periodsdom "namecensus/internal/services/periods/domain"
	periodsmod "namecensus/internal/services/periods/module"

	"github.com/spf13/cobra"
)

// app is the service surface the commands drive, the same ports the API mounts
type app struct {
	Periods    periodsdom.ServicePort
	Analytics  analyticsdom.ServicePort
	Comparison comparisondom.ServicePort
	Export     exportdom.ServicePort
}

// opener builds the app and returns a release func
type opener func(ctx context.Context) (*app, func(), error)

func mustSetEnv(key, val string) {
	if val != "" {
		_ = os.Setenv(key, val)
	}
}

func main() {
	if err := newRootCmd(openStore).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(open opener) *cobra.Command {
	var (
		periodsFile  string
		workbookRoot string
		asJSON       bool
	)
	rootCmd := &cobra.Command{
		Use:           "namecensus",
		Short:         "Ingest periods, analyze names and compare periods",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(*cobra.Command, []string) {
			// modules read CORE_* through FromConfig, so flags win by landing in env
			mustSetEnv("CORE_PERIODS_FILE", periodsFile)
			mustSetEnv("CORE_WORKBOOK_ROOT", workbookRoot)
		},
	}
	rootCmd.PersistentFlags().StringVar(&periodsFile, "periods", "", "period catalog file (default $CORE_PERIODS_FILE or periods.yaml)")
	rootCmd.PersistentFlags().StringVar(&workbookRoot, "workbook-root", "", "directory workbook paths resolve against")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print results as JSON")

	out := &printer{json: &asJSON}
	rootCmd.AddCommand(newPeriodsCmd(open, out))
	rootCmd.AddCommand(newIngestCmd(open, out))
	rootCmd.AddCommand(newAnalyzeCmd(open, out))
	rootCmd.AddCommand(newCompareCmd(open, out))
	rootCmd.AddCommand(newExportCmd(open))
	return rootCmd
}

// openStore opens the stores the API uses and builds the same modules over them
func openStore(ctx context.Context) (*app, func(), error) {
	root := config.New()
	l := logger.Get()
	st, err := api.OpenStore(ctx, root, "cli")
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("close store")
		}
	}

	deps := modkit.Deps{
		Cfg: root,
		PG:  st.PG,
		CH:  st.CH,
		Log: *l,
	}
	a := &app{}
	for _, m := range api.Modules(deps, nil) {
		switch p := m.Ports().(type) {
		case periodsmod.Ports:
			a.Periods = p.Service
		case analyticsmod.Ports:
			a.Analytics = p.Service
		case comparisonmod.Ports:
			a.Comparison = p.Service
		case exportmod.Ports:
			a.Export = p.Service
		}
	}
	return a, release, nil
}

// run opens the app, hands it to fn and releases it
func run(cmd *cobra.Command, open opener, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, release, err := open(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx, a)
}

// printer writes either the text rendering or the JSON value of a result
type printer struct{ json *bool }

func (p *printer) print(w io.Writer, v any, text func(io.Writer)) error {
	if p.json != nil && *p.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}
