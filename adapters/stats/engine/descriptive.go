package engine

import (
	"math"
	"sort"

	"pubstats/domain/stats"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// DescriptiveStats computes summary statistics for one sample
type DescriptiveStats struct{}

// NewDescriptiveStats creates a new descriptive stats calculator
func NewDescriptiveStats() *DescriptiveStats {
	return &DescriptiveStats{}
}

// Summarize computes n, mean/SD/SEM, a Student-t 95% CI for the mean, and
// median/quartiles for one sample. Missing values are dropped before n is
// computed. With n < 2 every statistic except n is undefined; degenerate
// input never raises.
func (d *DescriptiveStats) Summarize(sample []float64) stats.DescriptiveResult {
	clean := Clean(sample)
	n := len(clean)

	result := stats.DescriptiveResult{
		N:      n,
		Mean:   stats.Undefined(),
		StdDev: stats.Undefined(),
		SEM:    stats.Undefined(),
		CILow:  stats.Undefined(),
		CIHigh: stats.Undefined(),
		Median: stats.Undefined(),
		Q1:     stats.Undefined(),
		Q3:     stats.Undefined(),
	}

	if n < 2 {
		return result
	}

	mean, _ := mstats.Mean(clean)
	stdDev, _ := mstats.StandardDeviationSample(clean)
	median, _ := mstats.Median(clean)

	sem := stdDev / math.Sqrt(float64(n))

	// Two-sided 95% CI for the mean on Student-t with n-1 degrees of freedom
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}
	tCrit := tDist.Quantile(0.975)

	result.Mean = stats.Metric(mean)
	result.StdDev = stats.Metric(stdDev)
	result.SEM = stats.Metric(sem)
	result.CILow = stats.Metric(mean - tCrit*sem)
	result.CIHigh = stats.Metric(mean + tCrit*sem)
	result.Median = stats.Metric(median)
	result.Q1 = stats.Metric(quantile(clean, 0.25))
	result.Q3 = stats.Metric(quantile(clean, 0.75))

	return result
}

// quantile estimates the p-th quantile with linear interpolation between
// closest ranks (the R-7 policy pandas and numpy default to). The library's
// Percentile uses a nearest-rank policy, which disagrees with the quartile
// values the rest of the pipeline reports.
func quantile(data []float64, p float64) float64 {
	if len(data) == 0 {
		return math.NaN()
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}

	h := p * float64(len(sorted)-1)
	lo := int(math.Floor(h))
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
