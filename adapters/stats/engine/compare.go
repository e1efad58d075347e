package engine

import (
	"math"
	"sort"

	"pubstats/domain/stats"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// TwoSampleComparator runs parametric and non-parametric tests between two samples
type TwoSampleComparator struct{}

// NewTwoSampleComparator creates a new two-sample comparator
func NewTwoSampleComparator() *TwoSampleComparator {
	return &TwoSampleComparator{}
}

// Compare runs Welch's t-test (two-sided, unequal variances) and the
// Mann-Whitney U test (two-sided, normal asymptotic approximation) between
// two samples. Missing values are dropped first. Welch needs n >= 2 in both
// groups; Mann-Whitney needs n >= 1. Each test degrades to an undefined
// p-value independently of the other.
func (c *TwoSampleComparator) Compare(sampleA, sampleB []float64) stats.ComparisonResult {
	a := Clean(sampleA)
	b := Clean(sampleB)

	return stats.ComparisonResult{
		WelchTP:      welchTTestP(a, b),
		MannWhitneyP: mannWhitneyP(a, b),
		SampleSizeA:  len(a),
		SampleSizeB:  len(b),
	}
}

// welchTTestP computes the two-sided Welch's t-test p-value with
// Welch-Satterthwaite degrees of freedom.
func welchTTestP(a, b []float64) stats.Metric {
	n1 := float64(len(a))
	n2 := float64(len(b))
	if n1 < 2 || n2 < 2 {
		return stats.Undefined()
	}

	mean1, _ := mstats.Mean(a)
	mean2, _ := mstats.Mean(b)
	var1, _ := mstats.SampleVariance(a)
	var2, _ := mstats.SampleVariance(b)

	se := math.Sqrt(var1/n1 + var2/n2)
	if se == 0 {
		// Both groups are constant; the t statistic has no scale.
		return stats.Undefined()
	}
	t := (mean1 - mean2) / se

	df := welchSatterthwaiteDF(var1, var2, n1, n2)
	if df <= 0 || math.IsNaN(df) {
		return stats.Undefined()
	}

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * tDist.CDF(-math.Abs(t))
	return stats.Metric(clampP(p))
}

// welchSatterthwaiteDF computes the Welch-Satterthwaite approximation to the
// degrees of freedom for unequal-variance comparisons. Shared with the
// mean-difference CI in the effect size calculator.
func welchSatterthwaiteDF(var1, var2, n1, n2 float64) float64 {
	num := math.Pow(var1/n1+var2/n2, 2)
	den := math.Pow(var1, 2)/(math.Pow(n1, 2)*(n1-1)) + math.Pow(var2, 2)/(math.Pow(n2, 2)*(n2-1))
	if den == 0 {
		return 0
	}
	return num / den
}

// mannWhitneyP computes the two-sided Mann-Whitney U p-value using the normal
// asymptotic approximation with midranks for ties, a tie-corrected variance,
// and a 0.5 continuity correction, matching the standard asymptotic method.
func mannWhitneyP(a, b []float64) stats.Metric {
	n1 := len(a)
	n2 := len(b)
	if n1 < 1 || n2 < 1 {
		return stats.Undefined()
	}

	ranks, tieTerm := midranks(a, b)

	// Rank sum of group A; ranks[0:n1] are group A's entries.
	r1 := 0.0
	for i := 0; i < n1; i++ {
		r1 += ranks[i]
	}

	fn1 := float64(n1)
	fn2 := float64(n2)
	n := fn1 + fn2

	u1 := r1 - fn1*(fn1+1)/2
	mu := fn1 * fn2 / 2

	sigma := math.Sqrt(fn1 * fn2 / 12 * ((n + 1) - tieTerm/(n*(n-1))))
	if sigma == 0 {
		// Every observation is tied; the rank distribution carries no signal.
		return stats.Undefined()
	}

	bigU := math.Max(u1, fn1*fn2-u1)
	z := (bigU - mu - 0.5) / sigma

	norm := distuv.Normal{Mu: 0, Sigma: 1}
	p := 2 * norm.CDF(-z)
	return stats.Metric(clampP(p))
}

// midranks ranks the pooled samples, assigning tied values the mean of the
// ranks they span, and accumulates the tie correction term sum(t^3 - t).
func midranks(a, b []float64) ([]float64, float64) {
	type obs struct {
		value float64
		pos   int // position in the output: a's indices first, then b's
	}

	pooled := make([]obs, 0, len(a)+len(b))
	for i, v := range a {
		pooled = append(pooled, obs{value: v, pos: i})
	}
	for i, v := range b {
		pooled = append(pooled, obs{value: v, pos: len(a) + i})
	}

	sort.Slice(pooled, func(i, j int) bool { return pooled[i].value < pooled[j].value })

	ranks := make([]float64, len(pooled))
	tieTerm := 0.0

	i := 0
	for i < len(pooled) {
		j := i
		for j < len(pooled) && pooled[j].value == pooled[i].value {
			j++
		}
		// Observations i..j-1 are tied; assign the midrank.
		midrank := float64(i+j+1) / 2 // ranks are 1-based
		for k := i; k < j; k++ {
			ranks[pooled[k].pos] = midrank
		}
		t := float64(j - i)
		if t > 1 {
			tieTerm += t*t*t - t
		}
		i = j
	}

	return ranks, tieTerm
}

// clampP keeps p-values inside [0, 1] against floating point drift
func clampP(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
