package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"pubstats/adapters/stats/engine"
	"pubstats/domain/core"
	"pubstats/domain/stats"
	"pubstats/models"
	"pubstats/ports"
)

// FamilyAnalysisService runs one family of questions through the full
// pipeline: per-question descriptives, comparisons and effect sizes, then a
// single multiplicity correction across every defined raw p-value
type FamilyAnalysisService struct {
	descriptive *engine.DescriptiveStats
	comparator  *engine.TwoSampleComparator
	effects     *engine.EffectSizeCalculator
	association *engine.CategoricalAssociationTester
	corrector   *engine.MultiplicityCorrector
	runs        ports.RunRepository // optional archive, may be nil
}

// NumericQuestion is a named pair of samples for one continuous metric.
// GroupA is the reference cohort: differences are reported A minus B and
// Glass's delta standardizes by A's spread
type NumericQuestion struct {
	Key    core.QuestionKey `json:"key"`
	GroupA []float64        `json:"group_a"`
	GroupB []float64        `json:"group_b"`
}

// CategoricalQuestion is a named cross-tabulation of cohort by response
type CategoricalQuestion struct {
	Key   core.QuestionKey        `json:"key"`
	Table *stats.ContingencyTable `json:"table"`
}

// FamilyRequest defines one analysis run. Question order is preserved in the
// result and determines the family's positional join
type FamilyRequest struct {
	RunID       core.RunID            `json:"run_id,omitempty"` // optional, generated if empty
	Config      stats.AnalysisConfig  `json:"config"`
	Numeric     []NumericQuestion     `json:"numeric"`
	Categorical []CategoricalQuestion `json:"categorical"`
}

// FamilyResult contains the complete output of one analysis run
type FamilyResult struct {
	RunID      core.RunID              `json:"run_id"`
	Config     stats.AnalysisConfig    `json:"config"`
	Questions  []stats.QuestionResult  `json:"questions"`
	Correction *stats.CorrectionResult `json:"correction,omitempty"`
	FamilyHash core.FamilyHash         `json:"family_hash"`
	ComputedAt core.Timestamp          `json:"computed_at"`
	RuntimeMs  int64                   `json:"runtime_ms"`
}

// SignificantCount returns how many questions survived correction
func (r *FamilyResult) SignificantCount() int {
	count := 0
	for _, q := range r.Questions {
		if q.Correction != nil && q.Correction.Significant {
			count++
		}
	}
	return count
}

// NewFamilyAnalysisService creates a family analysis service. The repository
// is optional: pass nil to run without an archive
func NewFamilyAnalysisService(runs ports.RunRepository) *FamilyAnalysisService {
	return &FamilyAnalysisService{
		descriptive: engine.NewDescriptiveStats(),
		comparator:  engine.NewTwoSampleComparator(),
		effects:     engine.NewEffectSizeCalculator(),
		association: engine.NewCategoricalAssociationTester(),
		corrector:   engine.NewMultiplicityCorrector(),
		runs:        runs,
	}
}

// AnalyzeFamily executes the full pipeline for one request. Questions are
// computed concurrently but assembled into request order, so repeated calls
// with the same inputs produce identical output. Questions whose raw p-value
// is undefined are kept in the result, flagged excluded, and left out of the
// correction family
func (s *FamilyAnalysisService) AnalyzeFamily(ctx context.Context, req FamilyRequest) (*FamilyResult, error) {
	startTime := time.Now()

	cfg := req.Config
	if cfg == (stats.AnalysisConfig{}) {
		cfg = stats.DefaultAnalysisConfig()
	}
	if err := validateRequest(req, cfg); err != nil {
		return nil, err
	}

	runID := req.RunID
	if runID == "" {
		runID = core.RunID(core.NewID())
	}

	total := len(req.Numeric) + len(req.Categorical)
	questions := make([]stats.QuestionResult, total)

	g, ctx := errgroup.WithContext(ctx)
	for i := range req.Numeric {
		i := i
		g.Go(func() error {
			questions[i] = s.analyzeNumeric(req.Numeric[i], cfg)
			return ctx.Err()
		})
	}
	offset := len(req.Numeric)
	for i := range req.Categorical {
		i := i
		g.Go(func() error {
			questions[offset+i] = s.analyzeCategorical(req.Categorical[i])
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Collect the correction family: defined raw p-values only, in
	// question order. indexes remembers where each family member came
	// from so corrected values join back positionally
	var labels []core.QuestionKey
	var rawP []float64
	var indexes []int
	for i := range questions {
		if !questions[i].RawP.Defined() {
			questions[i].Excluded = true
			continue
		}
		labels = append(labels, questions[i].Key)
		rawP = append(rawP, questions[i].RawP.Float())
		indexes = append(indexes, i)
	}

	result := &FamilyResult{
		RunID:      runID,
		Config:     cfg,
		Questions:  questions,
		FamilyHash: core.ComputeFamilyHash(labels),
		ComputedAt: core.Now(),
	}

	if len(labels) > 0 {
		correction, err := s.corrector.Correct(labels, rawP, cfg)
		if err != nil {
			return nil, fmt.Errorf("multiplicity correction failed: %w", err)
		}
		result.Correction = &correction
		for j, i := range indexes {
			questions[i].Correction = &stats.CorrectionEntry{
				BonferroniP: correction.BonferroniP[j],
				QValue:      correction.QValues[j],
				Significant: correction.Significant[j],
			}
		}
	}

	result.RuntimeMs = time.Since(startTime).Milliseconds()
	return result, nil
}

// ArchiveRun persists a completed result. Callers without an archive get
// ErrNoArchive and can treat it as non-fatal
func (s *FamilyAnalysisService) ArchiveRun(ctx context.Context, result *FamilyResult) error {
	if s.runs == nil {
		return ErrNoArchive
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode run payload: %w", err)
	}
	run := models.NewAnalysisRun(
		result.RunID,
		result.FamilyHash,
		result.Config,
		len(result.Questions),
		result.SignificantCount(),
		payload,
	)
	if err := s.runs.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("failed to archive run %s: %w", result.RunID, err)
	}
	return nil
}

// ErrNoArchive signals that the service was built without a run repository
var ErrNoArchive = fmt.Errorf("no run archive configured")

func (s *FamilyAnalysisService) analyzeNumeric(q NumericQuestion, cfg stats.AnalysisConfig) stats.QuestionResult {
	result := stats.QuestionResult{
		Key:  q.Key,
		Kind: stats.KindNumeric,
	}

	groupA := s.descriptive.Summarize(q.GroupA)
	groupB := s.descriptive.Summarize(q.GroupB)
	result.GroupA = &groupA
	result.GroupB = &groupB

	comparison := s.comparator.Compare(q.GroupA, q.GroupB)
	result.Comparison = &comparison

	effects := s.effects.EffectSizes(q.GroupA, q.GroupB)
	result.Effects = &effects

	switch cfg.PrimaryTest {
	case stats.TestMannWhitney:
		result.RawP = comparison.MannWhitneyP
	default:
		result.RawP = comparison.WelchTP
	}
	return result
}

func (s *FamilyAnalysisService) analyzeCategorical(q CategoricalQuestion) stats.QuestionResult {
	result := stats.QuestionResult{
		Key:  q.Key,
		Kind: stats.KindCategorical,
	}

	contingency := s.association.TestIndependence(q.Table)
	result.Contingency = &contingency
	result.RawP = contingency.PValue
	return result
}

func validateRequest(req FamilyRequest, cfg stats.AnalysisConfig) error {
	if len(req.Numeric)+len(req.Categorical) == 0 {
		return fmt.Errorf("analysis request has no questions")
	}
	seen := make(map[core.QuestionKey]bool, len(req.Numeric)+len(req.Categorical))
	for _, q := range req.Numeric {
		if q.Key == "" {
			return fmt.Errorf("numeric question with empty key")
		}
		if seen[q.Key] {
			return fmt.Errorf("duplicate question key %q", q.Key)
		}
		seen[q.Key] = true
	}
	for _, q := range req.Categorical {
		if q.Key == "" {
			return fmt.Errorf("categorical question with empty key")
		}
		if seen[q.Key] {
			return fmt.Errorf("duplicate question key %q", q.Key)
		}
		seen[q.Key] = true
	}
	switch cfg.PrimaryTest {
	case stats.TestWelchT, stats.TestMannWhitney:
	default:
		return fmt.Errorf("unsupported primary test %q", cfg.PrimaryTest)
	}
	return nil
}
