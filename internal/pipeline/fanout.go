package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/corroborate/internal/metrics"
	"github.com/ppiankov/corroborate/internal/model"
	"github.com/ppiankov/corroborate/internal/provider"
)

// ErrUnknownProvider is recorded when a selected id has no registered verifier
var ErrUnknownProvider = errors.New("unknown provider")

// VerifierSource resolves provider ids to verifiers. *provider.Registry satisfies it.
type VerifierSource interface {
	Get(id string) (provider.Verifier, bool)
}

// FanOut queries the selected providers concurrently under one global deadline
type FanOut struct {
	verifiers VerifierSource
	deadline  time.Duration
	logger    *zap.Logger
	metrics   *metrics.Recorder
}

// NewFanOut creates a fan-out orchestrator. A non-positive deadline uses
// DefaultDeadline, a nil logger logs nothing and a nil recorder records nothing.
func NewFanOut(verifiers VerifierSource, deadline time.Duration, logger *zap.Logger, recorder *metrics.Recorder) *FanOut {
	if deadline <= 0 {
		deadline = DefaultDeadline
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FanOut{
		verifiers: verifiers,
		deadline:  deadline,
		logger:    logger,
		metrics:   recorder,
	}
}

type outcome struct {
	index   int
	result  model.ProviderResult
	outcome string
}

// RunAll invokes every selected provider at once and waits for all of them or
// the deadline, whichever comes first. Results are in selection order. A
// provider still running at the deadline is recorded as failed and its late
// answer is discarded.
func (f *FanOut) RunAll(ctx context.Context, statement string, selected []string) []model.ProviderResult {
	results := make([]model.ProviderResult, len(selected))
	if len(selected) == 0 {
		return results
	}

	ctx, cancel := context.WithTimeout(ctx, f.deadline)
	defer cancel()

	start := time.Now()

	// Buffered so abandoned goroutines never block on send
	done := make(chan outcome, len(selected))
	for i, id := range selected {
		go func(idx int, id string) {
			res, kind := f.invoke(ctx, id, statement)
			done <- outcome{index: idx, result: res, outcome: kind}
		}(i, id)
	}

	finished := make([]bool, len(selected))
	for remaining := len(selected); remaining > 0; {
		select {
		case o := <-done:
			results[o.index] = o.result
			finished[o.index] = true
			remaining--
			f.observe(o.result, o.outcome)
		case <-ctx.Done():
			reason := "deadline exceeded"
			if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
				reason = ctx.Err().Error()
			}
			for i, id := range selected {
				if finished[i] {
					continue
				}
				results[i] = model.ProviderResult{
					ProviderID: id,
					Error:      reason,
					Latency:    time.Since(start),
				}
				f.observe(results[i], metrics.OutcomeTimeout)
			}
			return results
		}
	}

	return results
}

// invoke runs one provider, turning errors and panics into failed results
func (f *FanOut) invoke(ctx context.Context, id, statement string) (result model.ProviderResult, kind string) {
	start := time.Now()
	result = model.ProviderResult{ProviderID: id}

	defer func() {
		if r := recover(); r != nil {
			result = model.ProviderResult{
				ProviderID: id,
				Error:      fmt.Sprintf("panic: %v", r),
				Latency:    time.Since(start),
			}
			kind = metrics.OutcomePanic
		}
	}()

	v, ok := f.verifiers.Get(id)
	if !ok || v == nil {
		result.Error = fmt.Errorf("%w: %s", ErrUnknownProvider, id).Error()
		return result, metrics.OutcomeError
	}

	resp, err := v.CheckFact(ctx, statement)
	result.Latency = time.Since(start)
	if err != nil {
		result.Error = err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			return result, metrics.OutcomeTimeout
		}
		return result, metrics.OutcomeError
	}
	if resp == nil {
		result.Error = "empty response"
		return result, metrics.OutcomeError
	}

	result.Succeeded = true
	result.Verdict = resp.Verdict
	result.Confidence = clamp01(resp.Confidence)
	result.Explanation = strings.TrimSpace(resp.Explanation)
	result.Context = strings.TrimSpace(resp.Context)
	result.Sources = resp.Sources
	result.Model = resp.Model
	return result, metrics.OutcomeSuccess
}

func (f *FanOut) observe(r model.ProviderResult, kind string) {
	f.metrics.ObserveProvider(r.ProviderID, kind, r.Latency)
	if r.Succeeded {
		f.logger.Debug("provider answered",
			zap.String("provider", r.ProviderID),
			zap.Bool("verdict", r.Verdict),
			zap.Float64("confidence", r.Confidence),
			zap.Duration("latency", r.Latency))
		return
	}
	f.logger.Warn("provider failed",
		zap.String("provider", r.ProviderID),
		zap.String("outcome", kind),
		zap.String("error", r.Error),
		zap.Duration("latency", r.Latency))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
