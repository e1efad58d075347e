package testkit

import (
	"fmt"
	"math"
	"math/rand"

	"pubstats/domain/core"
	"pubstats/domain/stats"
)

// CohortConfig controls the synthetic two-cohort fixtures used in tests.
// Generation is fully seeded so fixtures are reproducible run to run.
type CohortConfig struct {
	Seed int64

	// Baseline cohort (group A)
	BaselineN    int
	BaselineMean float64
	BaselineSD   float64

	// Treatment cohort (group B)
	TreatmentN    int
	TreatmentMean float64
	TreatmentSD   float64
}

// DefaultCohortConfig mimics the publication workflow data: a slow baseline
// process and a faster revised one, with comparable spread.
func DefaultCohortConfig() CohortConfig {
	return CohortConfig{
		Seed:          42,
		BaselineN:     40,
		BaselineMean:  118, // workdays to publish, old process
		BaselineSD:    35,
		TreatmentN:    40,
		TreatmentMean: 55, // revised process
		TreatmentSD:   22,
	}
}

// Cohorts holds one synthetic baseline/treatment sample pair
type Cohorts struct {
	Baseline  []float64
	Treatment []float64
}

// GenerateCohorts draws two independent normal samples from the config
func GenerateCohorts(cfg CohortConfig) (*Cohorts, error) {
	if cfg.BaselineN <= 0 || cfg.TreatmentN <= 0 {
		return nil, fmt.Errorf("cohort sizes must be > 0")
	}
	if cfg.BaselineSD < 0 || cfg.TreatmentSD < 0 {
		return nil, fmt.Errorf("cohort standard deviations must be >= 0")
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	baseline := make([]float64, cfg.BaselineN)
	for i := range baseline {
		baseline[i] = cfg.BaselineMean + rng.NormFloat64()*cfg.BaselineSD
	}

	treatment := make([]float64, cfg.TreatmentN)
	for i := range treatment {
		treatment[i] = cfg.TreatmentMean + rng.NormFloat64()*cfg.TreatmentSD
	}

	return &Cohorts{Baseline: baseline, Treatment: treatment}, nil
}

// WithMissing returns a copy of a sample with every k-th value replaced by
// NaN, for exercising the missing-value policy.
func WithMissing(sample []float64, k int) []float64 {
	out := make([]float64, len(sample))
	copy(out, sample)
	if k <= 0 {
		return out
	}
	for i := k - 1; i < len(out); i += k {
		out[i] = math.NaN()
	}
	return out
}

// FeedbackTable builds a contingency table shaped like the feedback-form
// exports: per-cohort counts over ordered response categories. The counts
// slices are row-major over (groups, categories).
func FeedbackTable(groups []core.GroupKey, categories []string, counts [][]int) *stats.ContingencyTable {
	table := stats.NewContingencyTable()
	for i, g := range groups {
		for j, c := range categories {
			count := 0
			if i < len(counts) && j < len(counts[i]) {
				count = counts[i][j]
			}
			table.Add(g, c, count)
		}
	}
	return table
}
