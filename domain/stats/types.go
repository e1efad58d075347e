package stats

import (
	"bytes"
	"math"
	"strconv"

	"pubstats/domain/core"
)

// ============================================================================
// STABLE PRIMITIVES (Canonical, never change)
// ============================================================================

// Metric is a statistic value that may be undefined. Undefined statistics
// (n too small, degenerate input) carry NaN internally and encode as JSON
// null, so result records survive encoding without faulting.
type Metric float64

// Undefined returns the undefined sentinel
func Undefined() Metric {
	return Metric(math.NaN())
}

// Defined reports whether the metric holds a real value
func (m Metric) Defined() bool {
	return !math.IsNaN(float64(m))
}

// Float returns the underlying float64 (NaN when undefined)
func (m Metric) Float() float64 {
	return float64(m)
}

// MarshalJSON encodes undefined metrics as null
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Defined() || math.IsInf(float64(m), 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(float64(m), 'g', -1, 64)), nil
}

// UnmarshalJSON decodes null as the undefined sentinel
func (m *Metric) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*m = Undefined()
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*m = Metric(f)
	return nil
}

// TestType identifies the statistical test that produced a p-value
type TestType string

const (
	TestWelchT      TestType = "welch_ttest"
	TestMannWhitney TestType = "mann_whitney_u"
	TestChiSquare   TestType = "chi_square"
)

// CorrectionMethod selects which corrected value drives the significance verdict.
// Both Bonferroni and BH-FDR values are always computed; the method only
// changes which one is reported as "significant".
type CorrectionMethod string

const (
	// MethodBonferroniThenFDR is the default cascade: significant if the
	// Bonferroni-adjusted p clears alpha, otherwise if the BH q-value does.
	MethodBonferroniThenFDR CorrectionMethod = "bonferroni_then_fdr"
	MethodBonferroni        CorrectionMethod = "bonferroni"
	MethodFDR               CorrectionMethod = "fdr_bh"
)

// AnalysisConfig carries per-run analysis settings. It is passed explicitly
// into each call; the engine holds no ambient state.
type AnalysisConfig struct {
	Alpha       float64          `json:"alpha"`
	Method      CorrectionMethod `json:"method"`
	PrimaryTest TestType         `json:"primary_test"`
}

// DefaultAnalysisConfig returns the standard configuration: alpha 0.05,
// Bonferroni-then-FDR verdicts, Welch's t as the family p-value for numeric
// questions (Mann-Whitney is reported as a robustness check).
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		Alpha:       0.05,
		Method:      MethodBonferroniThenFDR,
		PrimaryTest: TestWelchT,
	}
}

// ============================================================================
// RESULT RECORDS (pure, created fresh per analysis, never mutated)
// ============================================================================

// DescriptiveResult summarizes a single sample.
// INVARIANTS:
// - N counts valid (non-missing) values only; N may be zero
// - If N < 2 every field except N is undefined and no CI is computed
type DescriptiveResult struct {
	N      int    `json:"n"`
	Mean   Metric `json:"mean"`
	StdDev Metric `json:"std_dev"`
	SEM    Metric `json:"sem"`
	CILow  Metric `json:"ci_95_low"`
	CIHigh Metric `json:"ci_95_high"`
	Median Metric `json:"median"`
	Q1     Metric `json:"q1"`
	Q3     Metric `json:"q3"`
}

// ComparisonResult holds the two-sample test p-values. The two tests are
// independent: either may be undefined without affecting the other.
type ComparisonResult struct {
	WelchTP      Metric `json:"welch_t_p_value"`      // undefined unless both n >= 2
	MannWhitneyP Metric `json:"mann_whitney_p_value"` // undefined unless both n >= 1
	SampleSizeA  int    `json:"sample_size_a"`
	SampleSizeB  int    `json:"sample_size_b"`
}

// EffectSizeResult holds standardized mean-difference effect sizes and the
// 95% CI for the raw difference. Defined only when both groups have n >= 2.
// Sign convention: all differences are (group A - group B); swapping the
// groups flips the sign of every field but not its magnitude.
type EffectSizeResult struct {
	HedgesG    Metric `json:"hedges_g"`
	GlassDelta Metric `json:"glass_delta"` // scaled by group A's SD only
	MeanDiff   Metric `json:"mean_difference"`
	CILow      Metric `json:"mean_difference_ci_95_low"`
	CIHigh     Metric `json:"mean_difference_ci_95_high"`
}

// ContingencyResult holds the chi-square independence test outcome.
// Degenerate tables (a zero row/column marginal, or fewer than two non-empty
// rows or columns) are flagged rather than given a fabricated p-value, and
// must be excluded from any correction family.
type ContingencyResult struct {
	ChiSquare  Metric `json:"chi_square"`
	DF         int    `json:"degrees_of_freedom"`
	PValue     Metric `json:"p_value"`
	SampleSize int    `json:"sample_size"`
	Degenerate bool   `json:"degenerate"`
}

// CorrectionResult covers one whole family of raw p-values. Index i of every
// parallel slice refers to the question that produced RawP[i]; the ordering is
// the join key and is never reorganized.
type CorrectionResult struct {
	Labels      []core.QuestionKey `json:"labels"`
	RawP        []float64          `json:"raw_p_values"`
	BonferroniP []float64          `json:"bonferroni_adjusted_p"`
	QValues     []float64          `json:"fdr_q_values"`
	Significant []bool             `json:"significant"`
	Alpha       float64            `json:"alpha"`
	Method      CorrectionMethod   `json:"method"`
	FamilySize  int                `json:"family_size"`
	FamilyHash  core.FamilyHash    `json:"family_hash"`
}

// QuestionKind distinguishes numeric from categorical questions
type QuestionKind string

const (
	KindNumeric     QuestionKind = "numeric"
	KindCategorical QuestionKind = "categorical"
)

// CorrectionEntry is one question's share of the family correction, joined
// back by position after Correct runs.
type CorrectionEntry struct {
	BonferroniP float64 `json:"bonferroni_adjusted_p"`
	QValue      float64 `json:"fdr_q_value"`
	Significant bool    `json:"significant"`
}

// QuestionResult is the per-question record assembled by the family pipeline.
// Numeric questions carry descriptives, comparison and effect sizes;
// categorical questions carry the contingency result. Correction is nil when
// the question's raw p-value was undefined/degenerate and therefore excluded
// from the family.
type QuestionResult struct {
	Key         core.QuestionKey   `json:"key"`
	Kind        QuestionKind       `json:"kind"`
	GroupA      *DescriptiveResult `json:"group_a,omitempty"`
	GroupB      *DescriptiveResult `json:"group_b,omitempty"`
	Comparison  *ComparisonResult  `json:"comparison,omitempty"`
	Effects     *EffectSizeResult  `json:"effect_sizes,omitempty"`
	Contingency *ContingencyResult `json:"contingency,omitempty"`
	RawP        Metric             `json:"raw_p_value"`
	Excluded    bool               `json:"excluded_from_family"`
	Correction  *CorrectionEntry   `json:"correction,omitempty"`
}
