package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/corroborate/internal/consensus"
	"github.com/ppiankov/corroborate/internal/extract"
	"github.com/ppiankov/corroborate/internal/metrics"
	"github.com/ppiankov/corroborate/internal/model"
	"github.com/ppiankov/corroborate/internal/score"
	"github.com/ppiankov/corroborate/internal/validate"
)

// ErrEmptyStatement is returned when the input has no text to verify
var ErrEmptyStatement = errors.New("empty statement")

// DefaultDeadline bounds one fan-out when no deadline is configured
const DefaultDeadline = 20 * time.Second

// Engine orchestrates the complete verification of one claim:
// normalize, classify, weigh, fan out, analyze risk, fuse and compose
type Engine struct {
	normalizer *extract.Normalizer
	classifier *extract.DomainClassifier
	risk       *score.RiskAnalyzer
	authority  *validate.AuthorityClassifier
	fanOut     *FanOut

	deadline time.Duration
	logger   *zap.Logger
	metrics  *metrics.Recorder
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the structured logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics records provider outcomes and verdicts
func WithMetrics(r *metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = r }
}

// WithAuthority tiers report sources with the given configuration
func WithAuthority(cfg *model.AuthorityConfig) Option {
	return func(e *Engine) { e.authority = validate.NewAuthorityClassifier(cfg) }
}

// WithDeadline sets the global fan-out deadline
func WithDeadline(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.deadline = d
		}
	}
}

// NewEngine creates an engine over a read-only table of verifiers
func NewEngine(verifiers VerifierSource, opts ...Option) *Engine {
	e := &Engine{
		normalizer: extract.NewNormalizer(),
		classifier: extract.NewDomainClassifier(),
		risk:       score.NewRiskAnalyzer(),
		authority:  validate.NewAuthorityClassifier(nil),
		deadline:   DefaultDeadline,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.fanOut = NewFanOut(verifiers, e.deadline, e.logger, e.metrics)
	return e
}

// Verify checks one claim against the available providers. At most quota
// providers are consulted (quota <= 0 consults every available one). Provider
// failures never surface as errors; only empty input does.
func (e *Engine) Verify(ctx context.Context, raw string, quota int, providers []model.ProviderDescriptor) (*model.VerdictReport, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("verify: %w", ErrEmptyStatement)
	}

	// 1. Normalize into a declarative statement
	claim := e.normalizer.Normalize(raw)

	// 2. Classify topical domains
	domains := e.classifier.Classify(claim.NormalizedStatement)

	// 3. Select and weigh providers
	weighting := score.Weigh(domains, quota, providers)

	e.logger.Debug("providers selected",
		zap.String("statement", claim.NormalizedStatement),
		zap.Int("quota", quota),
		zap.Strings("providers", weighting.IDs()))

	// 4. Query the selected providers concurrently
	results := e.fanOut.RunAll(ctx, claim.NormalizedStatement, weighting.IDs())

	// 5. Risk signals read the raw input, not the normalized statement
	risk := e.risk.Analyze(raw, results)

	// 6. Fuse and compose
	fusion := consensus.Fuse(claim.NormalizedStatement, results, weighting, risk)
	report := consensus.Compose(weighting, results, fusion, risk)
	report.Claim = claim
	report.Domains = domains
	e.authority.ClassifySources(report.Sources)

	e.metrics.ObserveVerdict(verdictLabel(report))
	e.logger.Info("claim verified",
		zap.String("claim_id", report.ID),
		zap.Bool("is_true", report.IsTrue),
		zap.Float64("confidence", report.Confidence),
		zap.Float64("coverage", report.Coverage),
		zap.Int("succeeded", len(report.Breakdown)),
		zap.Int("failed", len(report.Failures)))

	return &report, nil
}

func verdictLabel(report model.VerdictReport) string {
	switch {
	case len(report.Breakdown) == 0:
		return "unverified"
	case report.IsTrue:
		return "true"
	default:
		return "false"
	}
}
