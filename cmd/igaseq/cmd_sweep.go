package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/microbialman/igaseq/adapters/tabular"
	"github.com/microbialman/igaseq/app"
	"github.com/microbialman/igaseq/internal/config"
	"github.com/microbialman/igaseq/ui"
)

func newSweepCmd() *cobra.Command {
	var (
		configPath string
		tablePath  string
		thresholds string
		outPath    string
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Report filter retention across candidate thresholds",
		Long: `sweep applies the contamination filter at each candidate threshold and
reports taxa retained, mean retained abundance and the unexpected-taxon ratio
per candidate. The output feeds a human decision; nothing is chosen here.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			analysisCfg, err := config.LoadAnalysis(configPath)
			if err != nil {
				return err
			}
			table, err := tabular.NewReader(tablePath).ReadAbundanceTable()
			if err != nil {
				return err
			}
			candidates, err := parseThresholds(thresholds)
			if err != nil {
				return err
			}

			rows := app.NewSweepService().Run(table, candidates, filterOptions(analysisCfg.Filter))
			report := ui.RenderSweepMarkdown(rows)
			if outPath == "" {
				fmt.Print(report)
				return nil
			}
			return os.WriteFile(outPath, []byte(report), 0o644)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "analysis.yaml", "Analysis parameter file")
	cmd.Flags().StringVar(&tablePath, "table", "", "Abundance table to sweep (.csv/.xlsx)")
	cmd.Flags().StringVar(&thresholds, "thresholds", "1e-4,5e-4,1e-3,5e-3,1e-2", "Comma-separated candidate thresholds")
	cmd.Flags().StringVar(&outPath, "out", "", "Write the markdown report here instead of stdout")
	cmd.MarkFlagRequired("table")
	return cmd
}

func parseThresholds(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("parsing threshold %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
