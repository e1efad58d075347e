package engine

import (
	"fmt"
	"math"
	"sort"

	"pubstats/domain/core"
	"pubstats/domain/stats"
)

// MultiplicityCorrector turns a family of raw p-values into
// multiple-comparison-corrected significance decisions
type MultiplicityCorrector struct{}

// NewMultiplicityCorrector creates a new multiplicity corrector
func NewMultiplicityCorrector() *MultiplicityCorrector {
	return &MultiplicityCorrector{}
}

// Correct applies Bonferroni and Benjamini-Hochberg FDR corrections to one
// family of raw p-values. Index i of every output slice refers to labels[i]
// and rawP[i]; the input order is the join key back to the source questions
// and is preserved exactly. Both corrections are always computed; the
// configured method only decides which one drives the Significant flags.
//
// A label/p-value length mismatch is a configuration error. Undefined
// (NaN/out-of-range) p-values are rejected: degenerate questions must be
// excluded by the caller before correction, since a placeholder p-value
// would corrupt the BH ordering.
func (m *MultiplicityCorrector) Correct(labels []core.QuestionKey, rawP []float64, cfg stats.AnalysisConfig) (stats.CorrectionResult, error) {
	if len(labels) != len(rawP) {
		return stats.CorrectionResult{}, fmt.Errorf("%w: %d labels, %d p-values",
			core.ErrFamilySizeMismatch, len(labels), len(rawP))
	}
	if len(rawP) == 0 {
		return stats.CorrectionResult{}, core.ErrEmptyFamily
	}
	for i, p := range rawP {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return stats.CorrectionResult{}, fmt.Errorf("%w: index %d (%s)",
				core.ErrUndefinedPValue, i, labels[i])
		}
	}

	k := len(rawP)

	result := stats.CorrectionResult{
		Labels:      append([]core.QuestionKey(nil), labels...),
		RawP:        append([]float64(nil), rawP...),
		BonferroniP: make([]float64, k),
		QValues:     benjaminiHochberg(rawP),
		Significant: make([]bool, k),
		Alpha:       cfg.Alpha,
		Method:      cfg.Method,
		FamilySize:  k,
		FamilyHash:  core.ComputeFamilyHash(labels),
	}

	for i, p := range rawP {
		result.BonferroniP[i] = math.Min(p*float64(k), 1.0)
	}

	for i := range rawP {
		result.Significant[i] = verdict(cfg, result.BonferroniP[i], result.QValues[i])
	}

	return result, nil
}

// verdict applies the configured decision rule to one question's corrected values
func verdict(cfg stats.AnalysisConfig, bonferroniP, qValue float64) bool {
	switch cfg.Method {
	case stats.MethodBonferroni:
		return bonferroniP < cfg.Alpha
	case stats.MethodFDR:
		return qValue < cfg.Alpha
	default:
		// Cascade: Bonferroni first, FDR as the fallback.
		if bonferroniP < cfg.Alpha {
			return true
		}
		return qValue < cfg.Alpha
	}
}

// benjaminiHochberg computes BH step-up q-values: sort ascending, take
// q(i) = p(i)*k/rank, monotonize from the largest rank down so q-values are
// non-decreasing in sorted order, then map back to the original positions.
func benjaminiHochberg(rawP []float64) []float64 {
	k := len(rawP)

	type indexValue struct {
		index int
		value float64
	}

	pairs := make([]indexValue, k)
	for i, p := range rawP {
		pairs[i] = indexValue{index: i, value: p}
	}

	// Stable sort keeps tied p-values in input order, so reruns on the same
	// family are bit-identical.
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].value < pairs[j].value })

	qValues := make([]float64, k)
	runningMin := math.Inf(1)
	for i := k - 1; i >= 0; i-- {
		rank := i + 1
		q := pairs[i].value * float64(k) / float64(rank)
		runningMin = math.Min(runningMin, q)
		qValues[pairs[i].index] = math.Min(runningMin, 1.0)
	}

	return qValues
}
