// Package testkit provides the validation oracles: a synthetic IgA-Seq
// simulator with known ground truth, and a deterministic stand-in score
// oracle. The analyze command reaches the stand-in oracle only through an
// explicit --oracle stub opt-in; nothing here implements the published
// scoring formulas.
package testkit

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/microbialman/igaseq/domain/core"
	"github.com/microbialman/igaseq/domain/tables"
	"github.com/microbialman/igaseq/ports"
)

// bindingSD is the spread of per-bacterium binding values around the species
// mean.
const bindingSD = 1.0

// Simulator generates synthetic IgA-Seq experiments: log-normal starting
// abundances, per-subject binding values drawn around species means, and
// gating into positive/negative fractions by binding thresholds. Subjects in
// the second half of the ordering form "group two" and receive any configured
// between-group binding shift.
type Simulator struct{}

// NewSimulator creates a simulator.
func NewSimulator() *Simulator { return &Simulator{} }

var _ ports.Simulator = (*Simulator)(nil)

// Simulate generates one experiment. Deterministic for a fixed seed.
func (s *Simulator) Simulate(req ports.SimRequest) (*ports.SimResult, error) {
	if req.NumSubjects < 2 {
		return nil, fmt.Errorf("simulation requires at least 2 subjects, got %d", req.NumSubjects)
	}
	if req.NumSpecies <= 0 {
		req.NumSpecies = 10
	}
	if req.HighThreshold <= req.LowThreshold {
		return nil, fmt.Errorf("high threshold %g must exceed low threshold %g", req.HighThreshold, req.LowThreshold)
	}
	if req.SpeciesMeanBinding != nil && len(req.SpeciesMeanBinding) != req.NumSpecies {
		return nil, fmt.Errorf("got %d species mean binding values for %d species", len(req.SpeciesMeanBinding), req.NumSpecies)
	}
	rng := rand.New(rand.NewSource(req.Seed))

	subjects := make([]core.SubjectID, req.NumSubjects)
	for i := range subjects {
		subjects[i] = core.SubjectID(fmt.Sprintf("subject_%d", i+1))
	}
	taxa := make([]core.Taxon, req.NumSpecies)
	for i := range taxa {
		taxa[i] = core.Taxon(fmt.Sprintf("species_%d", i+1))
	}

	means := req.SpeciesMeanBinding
	if means == nil {
		means = make([]float64, req.NumSpecies)
		for i := range means {
			means[i] = rng.Float64() * (req.HighThreshold - req.LowThreshold) * 2
		}
	}

	pre := tables.NewAbundanceTable(subjects)
	pos := tables.NewAbundanceTable(subjects)
	neg := tables.NewAbundanceTable(subjects)
	result := &ports.SimResult{
		SpeciesMeanBinding: make(map[core.Taxon]float64, req.NumSpecies),
		SampledBinding:     make(map[core.Taxon][]float64, req.NumSpecies),
	}

	preRows := make([][]float64, req.NumSpecies)
	posRaw := make([][]float64, req.NumSpecies)
	negRaw := make([][]float64, req.NumSpecies)
	for sp := range taxa {
		preRows[sp] = make([]float64, req.NumSubjects)
		posRaw[sp] = make([]float64, req.NumSubjects)
		negRaw[sp] = make([]float64, req.NumSubjects)
		result.SampledBinding[taxa[sp]] = make([]float64, req.NumSubjects)
		result.SpeciesMeanBinding[taxa[sp]] = means[sp]
	}

	// Log-normal starting community per subject, normalized to a relative
	// abundance simplex.
	for sub := 0; sub < req.NumSubjects; sub++ {
		var total float64
		for sp := range taxa {
			v := rngLogNormal(rng)
			preRows[sp][sub] = v
			total += v
		}
		for sp := range taxa {
			preRows[sp][sub] /= total
		}

		secondGroup := sub >= req.NumSubjects/2
		for sp := range taxa {
			mean := means[sp]
			if secondGroup {
				mean += req.GroupShift[sp]
			}
			binding := rng.NormFloat64()*bindingSD + mean
			result.SampledBinding[taxa[sp]][sub] = binding

			dist := distuv.Normal{Mu: binding, Sigma: bindingSD}
			posRaw[sp][sub] = preRows[sp][sub] * dist.Survival(req.HighThreshold)
			negRaw[sp][sub] = preRows[sp][sub] * dist.CDF(req.LowThreshold)
		}
	}

	posSize := make(map[core.SubjectID]float64, req.NumSubjects)
	negSize := make(map[core.SubjectID]float64, req.NumSubjects)
	for sub, subject := range subjects {
		var posTotal, negTotal float64
		for sp := range taxa {
			posTotal += posRaw[sp][sub]
			negTotal += negRaw[sp][sub]
		}
		posSize[subject] = posTotal
		negSize[subject] = negTotal
		for sp := range taxa {
			if posTotal > 0 {
				posRaw[sp][sub] /= posTotal
			}
			if negTotal > 0 {
				negRaw[sp][sub] /= negTotal
			}
		}
	}

	for sp, taxon := range taxa {
		pre.SetRow(taxon, preRows[sp])
		pos.SetRow(taxon, posRaw[sp])
		neg.SetRow(taxon, negRaw[sp])
	}

	result.Fractions = &tables.FractionSet{
		Pre:     pre,
		Pos:     pos,
		Neg:     neg,
		PosSize: posSize,
		NegSize: negSize,
	}
	return result, nil
}

// rngLogNormal draws exp(N(0,1)) from the given source.
func rngLogNormal(rng *rand.Rand) float64 {
	return math.Exp(rng.NormFloat64())
}
