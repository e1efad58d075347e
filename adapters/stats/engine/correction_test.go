package engine

import (
	"errors"
	"math"
	"sort"
	"testing"

	"pubstats/domain/core"
	"pubstats/domain/stats"
)

func familyLabels(n int) []core.QuestionKey {
	labels := make([]core.QuestionKey, n)
	for i := range labels {
		labels[i] = core.QuestionKey(string(rune('a' + i)))
	}
	return labels
}

func TestCorrect_KnownFamily(t *testing.T) {
	m := NewMultiplicityCorrector()
	cfg := stats.DefaultAnalysisConfig()

	rawP := []float64{0.01, 0.20, 0.04, 0.50}
	labels := []core.QuestionKey{"q1", "q2", "q3", "q4"}

	res, err := m.Correct(labels, rawP, cfg)
	if err != nil {
		t.Fatalf("correct: %v", err)
	}

	wantBonf := []float64{0.04, 0.80, 0.16, 1.0}
	for i, want := range wantBonf {
		if !almostEqual(res.BonferroniP[i], want, 1e-12) {
			t.Errorf("Bonferroni[%d]: expected %f, got %f", i, want, res.BonferroniP[i])
		}
	}

	// Step-up: sorted p [.01,.04,.20,.50] -> q [.04,.08,.2667,.50],
	// mapped back to input order.
	wantQ := []float64{0.04, 4.0 / 15.0, 0.08, 0.50}
	for i, want := range wantQ {
		if !almostEqual(res.QValues[i], want, 1e-9) {
			t.Errorf("QValue[%d]: expected %f, got %f", i, want, res.QValues[i])
		}
	}

	// Only q1 clears alpha 0.05 under either correction.
	wantSig := []bool{true, false, false, false}
	for i, want := range wantSig {
		if res.Significant[i] != want {
			t.Errorf("Significant[%d]: expected %v, got %v", i, want, res.Significant[i])
		}
	}

	if res.FamilySize != 4 {
		t.Errorf("Expected family size 4, got %d", res.FamilySize)
	}
}

func TestCorrect_BonferroniBounds(t *testing.T) {
	m := NewMultiplicityCorrector()
	cfg := stats.DefaultAnalysisConfig()

	rawP := []float64{0.001, 0.01, 0.049, 0.05, 0.2, 0.5, 0.9, 1.0}
	res, err := m.Correct(familyLabels(len(rawP)), rawP, cfg)
	if err != nil {
		t.Fatalf("correct: %v", err)
	}

	for i, p := range rawP {
		if res.BonferroniP[i] < p {
			t.Errorf("Bonferroni p must be >= raw p at %d: %f < %f", i, res.BonferroniP[i], p)
		}
		if res.BonferroniP[i] > 1.0 {
			t.Errorf("Bonferroni p must be <= 1 at %d: %f", i, res.BonferroniP[i])
		}
	}
}

func TestCorrect_QValuesNonDecreasingInSortedOrder(t *testing.T) {
	m := NewMultiplicityCorrector()
	cfg := stats.DefaultAnalysisConfig()

	rawP := []float64{0.73, 0.02, 0.31, 0.0004, 0.31, 0.048, 0.92, 0.11}
	res, err := m.Correct(familyLabels(len(rawP)), rawP, cfg)
	if err != nil {
		t.Fatalf("correct: %v", err)
	}

	type pair struct{ p, q float64 }
	pairs := make([]pair, len(rawP))
	for i := range rawP {
		pairs[i] = pair{p: rawP[i], q: res.QValues[i]}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].p < pairs[j].p })

	for i := 1; i < len(pairs); i++ {
		if pairs[i].q < pairs[i-1].q {
			t.Errorf("q-values must be non-decreasing in sorted p order: q[%d]=%f < q[%d]=%f",
				i, pairs[i].q, i-1, pairs[i-1].q)
		}
	}
}

func TestCorrect_Deterministic(t *testing.T) {
	m := NewMultiplicityCorrector()
	cfg := stats.DefaultAnalysisConfig()

	rawP := []float64{0.03, 0.03, 0.2, 0.007, 0.03}
	labels := familyLabels(len(rawP))

	first, err := m.Correct(labels, rawP, cfg)
	if err != nil {
		t.Fatalf("correct: %v", err)
	}
	second, err := m.Correct(labels, rawP, cfg)
	if err != nil {
		t.Fatalf("correct: %v", err)
	}

	for i := range rawP {
		if first.BonferroniP[i] != second.BonferroniP[i] {
			t.Errorf("Bonferroni not bit-identical at %d", i)
		}
		if first.QValues[i] != second.QValues[i] {
			t.Errorf("q-values not bit-identical at %d", i)
		}
		if first.Significant[i] != second.Significant[i] {
			t.Errorf("verdicts not identical at %d", i)
		}
	}
	if first.FamilyHash != second.FamilyHash {
		t.Error("Family hash should be deterministic")
	}
}

func TestCorrect_PreservesInputOrder(t *testing.T) {
	m := NewMultiplicityCorrector()
	cfg := stats.DefaultAnalysisConfig()

	labels := []core.QuestionKey{"straightforward", "useful", "complete", "supported"}
	rawP := []float64{0.6, 0.001, 0.3, 0.02}

	res, err := m.Correct(labels, rawP, cfg)
	if err != nil {
		t.Fatalf("correct: %v", err)
	}

	for i, l := range labels {
		if res.Labels[i] != l {
			t.Errorf("Label order changed at %d: %s", i, res.Labels[i])
		}
		if res.RawP[i] != rawP[i] {
			t.Errorf("Raw p order changed at %d", i)
		}
	}
	// The smallest raw p must map back to its own label's position.
	if res.QValues[1] != 0.004 {
		t.Errorf("Expected q=0.004 for the rank-1 p-value, got %f", res.QValues[1])
	}
}

func TestCorrect_FamilySizeMismatch(t *testing.T) {
	m := NewMultiplicityCorrector()
	cfg := stats.DefaultAnalysisConfig()

	_, err := m.Correct([]core.QuestionKey{"a", "b"}, []float64{0.05}, cfg)
	if !errors.Is(err, core.ErrFamilySizeMismatch) {
		t.Fatalf("Expected ErrFamilySizeMismatch, got %v", err)
	}
}

func TestCorrect_RejectsUndefinedPValues(t *testing.T) {
	m := NewMultiplicityCorrector()
	cfg := stats.DefaultAnalysisConfig()

	tests := [][]float64{
		{0.05, math.NaN()},
		{-0.1, 0.2},
		{0.3, 1.2},
	}

	for _, rawP := range tests {
		_, err := m.Correct(familyLabels(len(rawP)), rawP, cfg)
		if !errors.Is(err, core.ErrUndefinedPValue) {
			t.Errorf("Expected ErrUndefinedPValue for %v, got %v", rawP, err)
		}
	}
}

func TestCorrect_EmptyFamily(t *testing.T) {
	m := NewMultiplicityCorrector()

	_, err := m.Correct(nil, nil, stats.DefaultAnalysisConfig())
	if !errors.Is(err, core.ErrEmptyFamily) {
		t.Fatalf("Expected ErrEmptyFamily, got %v", err)
	}
}

func TestCorrect_MethodSelectsVerdict(t *testing.T) {
	m := NewMultiplicityCorrector()

	// The rank-2 p of 0.02 gets Bonferroni 0.08 (not significant) but
	// BH q = 0.02*4/2 = 0.04 (significant): the two methods disagree there.
	labels := familyLabels(4)
	rawP := []float64{0.01, 0.02, 0.6, 0.7}

	bonfCfg := stats.AnalysisConfig{Alpha: 0.05, Method: stats.MethodBonferroni}
	fdrCfg := stats.AnalysisConfig{Alpha: 0.05, Method: stats.MethodFDR}
	cascadeCfg := stats.AnalysisConfig{Alpha: 0.05, Method: stats.MethodBonferroniThenFDR}

	bonf, err := m.Correct(labels, rawP, bonfCfg)
	if err != nil {
		t.Fatalf("correct: %v", err)
	}
	fdr, err := m.Correct(labels, rawP, fdrCfg)
	if err != nil {
		t.Fatalf("correct: %v", err)
	}
	cascade, err := m.Correct(labels, rawP, cascadeCfg)
	if err != nil {
		t.Fatalf("correct: %v", err)
	}

	if bonf.Significant[1] {
		t.Error("Bonferroni-only verdict should not be significant at p=0.02, k=4")
	}
	if !fdr.Significant[1] {
		t.Error("FDR verdict should be significant at q=0.04")
	}
	if !cascade.Significant[1] {
		t.Error("Cascade verdict should fall through to FDR and be significant")
	}
	if !bonf.Significant[0] || !fdr.Significant[0] || !cascade.Significant[0] {
		t.Error("The rank-1 p of 0.01 should be significant under every method")
	}

	// Corrected values themselves must not depend on the method.
	for i := range rawP {
		if bonf.BonferroniP[i] != fdr.BonferroniP[i] || bonf.QValues[i] != fdr.QValues[i] {
			t.Error("Method choice must not change the corrected values")
		}
	}
}
