package engine

import (
	"pubstats/domain/stats"

	"gonum.org/v1/gonum/stat/distuv"
)

// CategoricalAssociationTester tests independence between a categorical
// response and a grouping variable
type CategoricalAssociationTester struct{}

// NewCategoricalAssociationTester creates a new categorical association tester
func NewCategoricalAssociationTester() *CategoricalAssociationTester {
	return &CategoricalAssociationTester{}
}

// TestIndependence runs the Pearson chi-square test of independence on a
// contingency table of category counts per cohort. A table with any zero
// marginal, or fewer than two non-empty rows or columns, is flagged
// degenerate instead of being given a fabricated p-value; degenerate results
// must not enter a correction family.
func (c *CategoricalAssociationTester) TestIndependence(table *stats.ContingencyTable) stats.ContingencyResult {
	result := stats.ContingencyResult{
		ChiSquare: stats.Undefined(),
		PValue:    stats.Undefined(),
	}
	if table == nil {
		result.Degenerate = true
		return result
	}

	result.SampleSize = table.Total()

	if table.IsDegenerate() {
		result.Degenerate = true
		return result
	}

	groups := table.Groups()
	categories := table.Categories()
	total := float64(table.Total())

	chiSq := 0.0
	for _, g := range groups {
		rowTotal := float64(table.RowTotal(g))
		for _, cat := range categories {
			expected := rowTotal * float64(table.ColumnTotal(cat)) / total
			observed := float64(table.Count(g, cat))
			diff := observed - expected
			chiSq += diff * diff / expected
		}
	}

	df := (len(groups) - 1) * (len(categories) - 1)

	chiDist := distuv.ChiSquared{K: float64(df)}
	p := chiDist.Survival(chiSq)

	result.ChiSquare = stats.Metric(chiSq)
	result.DF = df
	result.PValue = stats.Metric(clampP(p))
	return result
}
