package compare

import (
	"context"
	"errors"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/microbialman/igaseq/domain/compare"
	"github.com/microbialman/igaseq/domain/core"
	"github.com/microbialman/igaseq/domain/tables"
	"github.com/microbialman/igaseq/internal/apperr"
)

// Options configures the engine. The sample-count minimums are empirical
// choices tied to the experiment designs this engine is tailored to; all are
// caller-configurable with the observed defaults.
type Options struct {
	// MinPerGroup is the minimum non-missing observations per group for
	// the permutation strategy.
	MinPerGroup int

	// MinSubjects is the minimum total non-missing observations for the
	// factorial strategy.
	MinSubjects int

	// ExpectedCellCount is the required observation count in every
	// covariate-by-condition cell of the factorial design.
	ExpectedCellCount int

	// EnumerationLimit caps the number of assignments the exact
	// permutation test may enumerate before a taxon is declared
	// untestable. Zero means no cap.
	EnumerationLimit int

	// Workers bounds concurrent per-taxon evaluation. Taxa share no
	// mutable state, so they parallelize freely; output order stays
	// deterministic regardless.
	Workers int
}

func (o Options) withDefaults() Options {
	if o.MinPerGroup <= 0 {
		o.MinPerGroup = 3
	}
	if o.MinSubjects <= 0 {
		o.MinSubjects = 7
	}
	if o.ExpectedCellCount <= 0 {
		o.ExpectedCellCount = 2
	}
	if o.EnumerationLimit == 0 {
		o.EnumerationLimit = 200000
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	return o
}

// Comparison defines what is being compared. Groups names the two condition
// levels; their order fixes the SSMD sign (first minus second). For the
// factorial strategy the covariate levels come from the metadata.
type Comparison struct {
	Strategy compare.Strategy
	Groups   [2]string
}

// Engine evaluates one comparison per taxon over a score matrix.
type Engine struct {
	opts Options
}

// NewEngine creates an engine with the given options, applying defaults.
func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts.withDefaults()}
}

// Run evaluates the comparison for every taxon in the score matrix. The
// returned slice holds exactly one record per input taxon, sorted by taxon
// identifier; untestable taxa carry NA results, never disappear. The only
// error conditions are shape-level contract violations.
func (e *Engine) Run(ctx context.Context, scores *tables.ScoreMatrix, meta *tables.SampleMetadata, cmp Comparison) ([]compare.Result, error) {
	if err := scores.CheckAlignment(meta.Subjects()); err != nil {
		return nil, apperr.Wrap(apperr.ShapeMismatch("score matrix and metadata are not subject-aligned"), err.Error())
	}
	if cmp.Strategy != compare.StrategyFactorial && cmp.Strategy != compare.StrategyPermutation {
		return nil, apperr.Newf(apperr.CodeBadRequest, "unknown comparison strategy %q", cmp.Strategy)
	}
	if cmp.Groups[0] == "" || cmp.Groups[1] == "" || cmp.Groups[0] == cmp.Groups[1] {
		return nil, apperr.New(apperr.CodeBadRequest, "comparison requires two distinct group labels")
	}

	results := make([]compare.Result, len(scores.Taxa))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, taxon := range scores.Taxa {
		i, taxon := i, taxon
		g.Go(func() error {
			row, _ := scores.Row(taxon)
			switch cmp.Strategy {
			case compare.StrategyPermutation:
				results[i] = e.comparePermutation(taxon, row, meta, cmp)
			case compare.StrategyFactorial:
				results[i] = e.compareFactorial(taxon, row, meta, cmp)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(a, b int) bool { return results[a].Taxon < results[b].Taxon })
	return results, nil
}

// comparePermutation runs the exact two-group test for one taxon.
func (e *Engine) comparePermutation(taxon core.Taxon, row []float64, meta *tables.SampleMetadata, cmp Comparison) compare.Result {
	var groupA, groupB []float64
	for i, v := range row {
		if tables.IsNA(v) {
			continue
		}
		switch meta.Rows[i].Condition {
		case cmp.Groups[0]:
			groupA = append(groupA, v)
		case cmp.Groups[1]:
			groupB = append(groupB, v)
		}
	}
	if len(groupA) < e.opts.MinPerGroup || len(groupB) < e.opts.MinPerGroup {
		return compare.Untestable(taxon, cmp.Strategy, compare.ReasonInsufficientSamples)
	}

	outcome, err := ExactPermutationTest(groupA, groupB, e.opts.EnumerationLimit)
	if err != nil {
		reason := compare.ReasonDegenerateStatistic
		if errors.Is(err, ErrEnumerationLimit) {
			reason = compare.ReasonEnumerationOverflow
		}
		return compare.Untestable(taxon, cmp.Strategy, reason)
	}

	result := compare.Untestable(taxon, cmp.Strategy, compare.ReasonNone)
	result.Testable = true
	result.PValue = outcome.P
	result.Effects = []compare.StratumEffect{{Stratum: "", SSMD: SSMD(groupA, groupB)}}
	return result
}

// compareFactorial runs the two-way ANOVA for one taxon.
func (e *Engine) compareFactorial(taxon core.Taxon, row []float64, meta *tables.SampleMetadata, cmp Comparison) compare.Result {
	var (
		values     []float64
		covariates []string
		conditions []string
	)
	for i, v := range row {
		if tables.IsNA(v) {
			continue
		}
		cond := meta.Rows[i].Condition
		if cond != cmp.Groups[0] && cond != cmp.Groups[1] {
			continue
		}
		values = append(values, v)
		covariates = append(covariates, meta.Rows[i].Covariate)
		conditions = append(conditions, cond)
	}
	if len(values) < e.opts.MinSubjects {
		return compare.Untestable(taxon, cmp.Strategy, compare.ReasonInsufficientSamples)
	}

	// Every cell of the covariate-by-condition cross-tabulation must hold
	// exactly the expected count, for both condition levels. The tabulation
	// is keyed on the design's covariate levels, not the levels left after
	// dropping missing scores: a level wiped out by missingness is an empty
	// cell, not a smaller design.
	counts := make(map[string][2]int)
	for _, row := range meta.Rows {
		if row.Condition == cmp.Groups[0] || row.Condition == cmp.Groups[1] {
			counts[row.Covariate] = [2]int{}
		}
	}
	for i := range values {
		c := counts[covariates[i]]
		if conditions[i] == cmp.Groups[0] {
			c[0]++
		} else {
			c[1]++
		}
		counts[covariates[i]] = c
	}
	for _, c := range counts {
		if c[0] != e.opts.ExpectedCellCount || c[1] != e.opts.ExpectedCellCount {
			return compare.Untestable(taxon, cmp.Strategy, compare.ReasonUnbalancedDesign)
		}
	}

	outcome, err := TwoWayANOVA(values, covariates, conditions)
	if err != nil {
		return compare.Untestable(taxon, cmp.Strategy, compare.ReasonDegenerateStatistic)
	}

	result := compare.Untestable(taxon, cmp.Strategy, compare.ReasonNone)
	result.Testable = true
	result.PCondition = outcome.PCondition
	result.PInteraction = outcome.PInteraction

	// Per-stratum effect: SSMD between the two condition groups restricted
	// to each covariate level, in metadata level order for stable output.
	for _, level := range meta.CovariateLevels() {
		if _, present := counts[level]; !present {
			continue
		}
		var a, b []float64
		for i := range values {
			if covariates[i] != level {
				continue
			}
			if conditions[i] == cmp.Groups[0] {
				a = append(a, values[i])
			} else {
				b = append(b, values[i])
			}
		}
		result.Effects = append(result.Effects, compare.StratumEffect{Stratum: level, SSMD: SSMD(a, b)})
	}
	return result
}
