package main

import (
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/microbialman/igaseq/adapters/postgres"
	statscompare "github.com/microbialman/igaseq/adapters/stats/compare"
	"github.com/microbialman/igaseq/adapters/stats/filter"
	"github.com/microbialman/igaseq/adapters/tabular"
	"github.com/microbialman/igaseq/app"
	"github.com/microbialman/igaseq/domain/compare"
	"github.com/microbialman/igaseq/domain/core"
	"github.com/microbialman/igaseq/domain/tables"
	"github.com/microbialman/igaseq/internal/config"
	"github.com/microbialman/igaseq/internal/testkit"
	"github.com/microbialman/igaseq/ports"
	"github.com/microbialman/igaseq/ui"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		configPath  string
		prePath     string
		posPath     string
		negPath     string
		posSizePath string
		negSizePath string
		metaPath    string
		outPath     string
		oracleName  string
		persist     bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run a differential binding analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			analysisCfg, err := config.LoadAnalysis(configPath)
			if err != nil {
				return err
			}

			oracle, err := selectOracle(oracleName)
			if err != nil {
				return err
			}

			fractions, meta, err := loadInputs(prePath, posPath, negPath, posSizePath, negSizePath, metaPath)
			if err != nil {
				return err
			}

			var repo ports.ResultRepository
			if persist {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
				if err != nil {
					return fmt.Errorf("connecting to database: %w", err)
				}
				defer db.Close()
				pgRepo := postgres.NewResultRepository(db)
				if err := pgRepo.EnsureSchema(cmd.Context()); err != nil {
					return err
				}
				repo = pgRepo
			}

			service := app.NewAnalysisService(oracle, repo)
			manifest, table, err := service.Run(cmd.Context(), app.AnalysisRequest{
				Fractions: fractions,
				Metadata:  meta,
				Filter:    filterOptions(analysisCfg.Filter),
				Method:    ports.ScoreMethod(analysisCfg.Scoring.Method),
				Pseudo:    analysisCfg.Scoring.Pseudocount,
				Comparison: statscompare.Comparison{
					Strategy: compare.Strategy(analysisCfg.Engine.Strategy),
					Groups:   [2]string{analysisCfg.Engine.Groups[0], analysisCfg.Engine.Groups[1]},
				},
				Engine: statscompare.Options{
					MinPerGroup:       analysisCfg.Engine.MinPerGroup,
					MinSubjects:       analysisCfg.Engine.MinSubjects,
					ExpectedCellCount: analysisCfg.Engine.ExpectedCellCount,
					EnumerationLimit:  analysisCfg.Engine.EnumerationLimit,
					Workers:           analysisCfg.Engine.Workers,
				},
				Alpha: analysisCfg.Engine.Alpha,
			})
			if err != nil {
				return err
			}

			report := ui.RenderMarkdown(manifest, table.Rows)
			if outPath == "" {
				fmt.Print(report)
				return nil
			}
			return os.WriteFile(outPath, []byte(report), 0o644)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "analysis.yaml", "Analysis parameter file")
	cmd.Flags().StringVar(&prePath, "presort", "", "Pre-sort abundance table (.csv/.xlsx)")
	cmd.Flags().StringVar(&posPath, "positive", "", "IgA-positive abundance table")
	cmd.Flags().StringVar(&negPath, "negative", "", "IgA-negative abundance table")
	cmd.Flags().StringVar(&posSizePath, "positive-sizes", "", "Positive gate sizes (subject,size)")
	cmd.Flags().StringVar(&negSizePath, "negative-sizes", "", "Negative gate sizes (subject,size)")
	cmd.Flags().StringVar(&metaPath, "metadata", "", "Sample metadata (subject,condition[,covariate])")
	cmd.Flags().StringVar(&outPath, "out", "", "Write the markdown report here instead of stdout")
	cmd.Flags().StringVar(&oracleName, "oracle", "", "Score oracle (only \"stub\" is built in; not the published formulas)")
	cmd.Flags().BoolVar(&persist, "persist", false, "Store the run in the configured database")
	cmd.MarkFlagRequired("presort")
	cmd.MarkFlagRequired("positive")
	cmd.MarkFlagRequired("negative")
	cmd.MarkFlagRequired("metadata")
	return cmd
}

// selectOracle resolves the --oracle flag. The repository ships no
// implementation of the published scoring formulas, only the synthetic
// stand-in from testkit, so running it on real data must be an explicit
// opt-in rather than a silent default.
func selectOracle(name string) (ports.ScoreOracle, error) {
	switch name {
	case "stub":
		return testkit.NewStubOracle(), nil
	case "":
		return nil, fmt.Errorf("no score oracle selected; pass --oracle stub to dry-run the pipeline on the synthetic stand-in oracle (its scores are not the published formulas)")
	default:
		return nil, fmt.Errorf("unknown score oracle %q", name)
	}
}

func loadInputs(prePath, posPath, negPath, posSizePath, negSizePath, metaPath string) (*tables.FractionSet, *tables.SampleMetadata, error) {
	pre, err := tabular.NewReader(prePath).ReadAbundanceTable()
	if err != nil {
		return nil, nil, err
	}
	pos, err := tabular.NewReader(posPath).ReadAbundanceTable()
	if err != nil {
		return nil, nil, err
	}
	neg, err := tabular.NewReader(negPath).ReadAbundanceTable()
	if err != nil {
		return nil, nil, err
	}

	posSize := map[core.SubjectID]float64{}
	negSize := map[core.SubjectID]float64{}
	if posSizePath != "" {
		if posSize, err = tabular.NewReader(posSizePath).ReadGateSizes(); err != nil {
			return nil, nil, err
		}
	}
	if negSizePath != "" {
		if negSize, err = tabular.NewReader(negSizePath).ReadGateSizes(); err != nil {
			return nil, nil, err
		}
	}

	meta, err := tabular.NewReader(metaPath).ReadMetadata()
	if err != nil {
		return nil, nil, err
	}
	return &tables.FractionSet{
		Pre:     pre,
		Pos:     pos,
		Neg:     neg,
		PosSize: posSize,
		NegSize: negSize,
	}, meta, nil
}

func filterOptions(cfg config.FilterConfig) filter.Options {
	expected := make([]core.Taxon, 0, len(cfg.ExpectedTaxa))
	for _, t := range cfg.ExpectedTaxa {
		expected = append(expected, core.Taxon(t))
	}
	return filter.Options{
		Threshold:      cfg.Threshold,
		MinPrevalence:  cfg.MinPrevalence,
		ControlSubject: core.SubjectID(cfg.ControlSubject),
		ExpectedTaxa:   expected,
	}
}
