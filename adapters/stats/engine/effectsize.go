package engine

import (
	"math"

	"pubstats/domain/stats"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// EffectSizeCalculator computes standardized mean-difference effect sizes and
// the 95% CI for the raw difference in means
type EffectSizeCalculator struct{}

// NewEffectSizeCalculator creates a new effect size calculator
func NewEffectSizeCalculator() *EffectSizeCalculator {
	return &EffectSizeCalculator{}
}

// EffectSizes computes Hedges' g, Glass's delta and the Welch-Satterthwaite
// 95% CI for the mean difference. Every difference is (group A - group B):
// callers must pass the baseline cohort as group A, because Glass's delta is
// scaled by group A's standard deviation and is not symmetric. Requires
// n >= 2 in both groups; otherwise every field is undefined.
func (e *EffectSizeCalculator) EffectSizes(sampleA, sampleB []float64) stats.EffectSizeResult {
	a := Clean(sampleA)
	b := Clean(sampleB)

	result := stats.EffectSizeResult{
		HedgesG:    stats.Undefined(),
		GlassDelta: stats.Undefined(),
		MeanDiff:   stats.Undefined(),
		CILow:      stats.Undefined(),
		CIHigh:     stats.Undefined(),
	}

	n1 := float64(len(a))
	n2 := float64(len(b))
	if n1 < 2 || n2 < 2 {
		return result
	}

	mean1, _ := mstats.Mean(a)
	mean2, _ := mstats.Mean(b)
	var1, _ := mstats.SampleVariance(a)
	var2, _ := mstats.SampleVariance(b)

	meanDiff := mean1 - mean2
	result.MeanDiff = stats.Metric(meanDiff)

	// Hedges' g: Cohen's d on the pooled SD with small-sample bias correction
	pooledSD := math.Sqrt(((n1-1)*var1 + (n2-1)*var2) / (n1 + n2 - 2))
	if pooledSD > 0 {
		d := meanDiff / pooledSD
		j := 1 - 3/(4*(n1+n2)-9)
		result.HedgesG = stats.Metric(d * j)
	}

	// Glass's delta: scaled by group A's SD only
	sd1 := math.Sqrt(var1)
	if sd1 > 0 {
		result.GlassDelta = stats.Metric(meanDiff / sd1)
	}

	// 95% CI for the mean difference on Welch-Satterthwaite degrees of freedom
	se := math.Sqrt(var1/n1 + var2/n2)
	df := welchSatterthwaiteDF(var1, var2, n1, n2)
	if se > 0 && df > 0 && !math.IsNaN(df) {
		tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
		tCrit := tDist.Quantile(0.975)
		result.CILow = stats.Metric(meanDiff - tCrit*se)
		result.CIHigh = stats.Metric(meanDiff + tCrit*se)
	} else if se == 0 {
		// Two constant groups: the difference is exact.
		result.CILow = stats.Metric(meanDiff)
		result.CIHigh = stats.Metric(meanDiff)
	}

	return result
}
