package tracelink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Recorder receives run telemetry. Implementations must tolerate being called
// once per stage and once per run.
type Recorder interface {
	ObserveStage(stage string, d time.Duration)
	ObserveRun(summary RunSummary)
}

// RunSummary is the size information reported after a run.
type RunSummary struct {
	RunID      string
	MatchType  MatchType
	High       int
	Low        int
	Vocabulary int
	Links      int
	Counts     *Counts
}

// Inputs are the raw requirement rows and the optional reference links of a run.
type Inputs struct {
	High      []RequirementRecord
	Low       []RequirementRecord
	Reference LinkSet
}

// Result holds every intermediate product of a run. Partition and Counts are
// nil when no reference links were supplied.
type Result struct {
	RunID      string
	Policy     LinkPolicy
	High       RequirementSet
	Low        RequirementSet
	Vocabulary *Vocabulary
	Vectors    *Vectors
	Matrix     *SimilarityMatrix
	Links      LinkSet
	Partition  *Partition
	Counts     *Counts
}

// Service runs the normalize, vectorize, compare, link and evaluate pipeline.
type Service struct {
	normalizer Normalizer
	cfg        Config
	logger     *slog.Logger
	recorder   Recorder
}

// NewService validates cfg and constructs a service. Callers start from
// DefaultConfig; thresholds are used as given, including 0. A nil logger
// discards log output; a nil recorder disables telemetry.
func NewService(normalizer Normalizer, cfg Config, logger *slog.Logger, recorder Recorder) (*Service, error) {
	if normalizer == nil {
		return nil, errors.New("normalizer is required")
	}
	cfg.ApplyDefaults()
	if err := cfg.ValidateSettings(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{normalizer: normalizer, cfg: cfg, logger: logger, recorder: recorder}, nil
}

// Config returns the configuration the service runs with.
func (s *Service) Config() Config {
	return s.cfg
}

// LoadInputs reads the high, low and reference files named by the config.
// An empty reference path skips evaluation.
func (s *Service) LoadInputs(opts ParseOptions) (Inputs, error) {
	var in Inputs
	var err error
	if in.High, err = ParseRequirementFile(s.cfg.Input.High, opts); err != nil {
		return in, fmt.Errorf("read high-level requirements: %w", err)
	}
	if in.Low, err = ParseRequirementFile(s.cfg.Input.Low, opts); err != nil {
		return in, fmt.Errorf("read low-level requirements: %w", err)
	}
	if s.cfg.Input.Reference != "" {
		if in.Reference, err = ParseReferenceLinks(s.cfg.Input.Reference, opts); err != nil {
			return in, fmt.Errorf("read reference links: %w", err)
		}
	}
	s.logger.Info("inputs loaded", "high", len(in.High), "low", len(in.Low), "reference", len(in.Reference))
	return in, nil
}

// Run normalizes the raw rows and runs the pipeline on the resulting tokens.
func (s *Service) Run(ctx context.Context, in Inputs) (*Result, error) {
	t0 := time.Now()
	high, err := NormalizeRequirements(s.normalizer, in.High)
	if err != nil {
		return nil, fmt.Errorf("normalize high-level requirements: %w", err)
	}
	low, err := NormalizeRequirements(s.normalizer, in.Low)
	if err != nil {
		return nil, fmt.Errorf("normalize low-level requirements: %w", err)
	}
	s.observeStage("normalize", t0)
	return s.RunTokens(ctx, high, low, in.Reference)
}

// RunTokens runs the pipeline on already normalized requirements. A nil
// reference skips evaluation.
func (s *Service) RunTokens(ctx context.Context, high, low RequirementSet, reference LinkSet) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), Policy: s.cfg.LinkPolicy(), High: high, Low: low}
	if err := res.Policy.Validate(); err != nil {
		return nil, err
	}
	logger := s.logger.With("run_id", res.RunID)
	logger.Info("run started", "match_type", int(res.Policy.MatchType), "policy", res.Policy.MatchType.Description(),
		"high", len(high), "low", len(low))
	if err := s.compare(ctx, res, logger); err != nil {
		return nil, err
	}

	t0 := time.Now()
	links, err := Link(res.Matrix, res.Policy)
	if err != nil {
		return nil, err
	}
	res.Links = links
	s.observeStage("link", t0)
	logger.Info("links selected", "links", links.Total())

	if reference != nil {
		t0 = time.Now()
		p, err := Evaluate(links, reference, high.IDs(), low.IDs())
		if err != nil {
			return nil, fmt.Errorf("evaluate: %w", err)
		}
		counts := p.Counts()
		res.Partition = &p
		res.Counts = &counts
		s.observeStage("evaluate", t0)
		logger.Info("evaluation finished",
			"indicated_predicted", counts.IndicatedPredicted,
			"indicated_not_predicted", counts.IndicatedNotPredicted,
			"not_indicated_predicted", counts.NotIndicatedPredicted,
			"not_indicated_not_predicted", counts.NotIndicatedNotPredicted)
	}

	if s.recorder != nil {
		s.recorder.ObserveRun(RunSummary{
			RunID:      res.RunID,
			MatchType:  res.Policy.MatchType,
			High:       len(high),
			Low:        len(low),
			Vocabulary: res.Vocabulary.Len(),
			Links:      links.Total(),
			Counts:     res.Counts,
		})
	}
	return res, nil
}

// Compare normalizes the raw rows and stops after the similarity matrix. It
// needs no match type.
func (s *Service) Compare(ctx context.Context, in Inputs) (*Result, error) {
	high, err := NormalizeRequirements(s.normalizer, in.High)
	if err != nil {
		return nil, fmt.Errorf("normalize high-level requirements: %w", err)
	}
	low, err := NormalizeRequirements(s.normalizer, in.Low)
	if err != nil {
		return nil, fmt.Errorf("normalize low-level requirements: %w", err)
	}
	res := &Result{RunID: uuid.NewString(), High: high, Low: low}
	if err := s.compare(ctx, res, s.logger.With("run_id", res.RunID)); err != nil {
		return nil, err
	}
	return res, nil
}

// compare fills the vocabulary, vectors and similarity matrix of res. The
// vocabulary and the idf pool are both drawn from high and low together.
func (s *Service) compare(ctx context.Context, res *Result, logger *slog.Logger) error {
	pool := res.Low.Concat(res.High)
	if err := checkUniqueIDs(pool); err != nil {
		return err
	}

	t0 := time.Now()
	res.Vocabulary = BuildVocabulary(pool.TokenSequences()...)
	s.observeStage("vocabulary", t0)
	logger.Debug("vocabulary built", "terms", res.Vocabulary.Len())

	t0 = time.Now()
	vecs, err := BuildVectors(res.Vocabulary, pool)
	if err != nil {
		return fmt.Errorf("build vectors: %w", err)
	}
	res.Vectors = vecs
	s.observeStage("vectors", t0)

	t0 = time.Now()
	m, err := ComputeSimilarity(ctx, res.High, res.Low, vecs, s.cfg.Workers)
	if err != nil {
		return fmt.Errorf("compute similarity: %w", err)
	}
	res.Matrix = m
	s.observeStage("similarity", t0)
	return nil
}

func (s *Service) observeStage(stage string, start time.Time) {
	d := time.Since(start)
	s.logger.Debug("stage finished", "stage", stage, "dur_ms", d.Milliseconds())
	if s.recorder != nil {
		s.recorder.ObserveStage(stage, d)
	}
}
