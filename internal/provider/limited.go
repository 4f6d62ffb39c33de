package provider

import (
	"context"
	"fmt"

	"github.com/ppiankov/corroborate/internal/worker"
)

// limitedVerifier waits for the provider's token bucket before each call
type limitedVerifier struct {
	Verifier
	limiter *worker.Limiter
}

// WithRateLimit wraps v so calls respect the limiter's bucket for v.Name().
// A nil limiter returns v unchanged.
func WithRateLimit(v Verifier, limiter *worker.Limiter) Verifier {
	if limiter == nil {
		return v
	}
	return &limitedVerifier{Verifier: v, limiter: limiter}
}

// CheckFact waits for rate limit clearance, then asks the provider
func (l *limitedVerifier) CheckFact(ctx context.Context, statement string) (*Response, error) {
	if err := l.limiter.Wait(ctx, l.Name()); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return l.Verifier.CheckFact(ctx, statement)
}
