package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/corroborate/internal/cache"
	"github.com/ppiankov/corroborate/internal/model"
	"github.com/ppiankov/corroborate/internal/worker"
)

// ErrDisabled marks a provider switched off in configuration
var ErrDisabled = errors.New("disabled in configuration")

// New creates a verifier for a provider id
func New(config Config) (Verifier, error) {
	switch strings.ToLower(config.ID) {
	case "openai":
		return NewOpenAIVerifier(config)

	case "anthropic", "claude":
		return NewAnthropicVerifier(config)

	case "ollama":
		return NewOllamaVerifier(config)

	case "google_factcheck":
		return NewGoogleFactCheckVerifier(config)

	case "claimbuster":
		return NewClaimBusterVerifier(config)

	case "wikipedia":
		return NewWikipediaVerifier(config)

	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: openai, anthropic, ollama, google_factcheck, claimbuster, wikipedia)", config.ID)
	}
}

// Status describes one configured provider
type Status struct {
	ID        string `json:"id" yaml:"id"`
	Available bool   `json:"available" yaml:"available"`
	Reason    string `json:"reason,omitempty" yaml:"reason,omitempty"` // Why it is unavailable
}

// Registry is the read-only provider table: declaration order, the verifier
// built for each usable provider, and the strengths of every provider
type Registry struct {
	order     []string
	verifiers map[string]Verifier
	strengths map[string]map[model.Domain]float64
	reasons   map[string]error
}

// RegistryOption customizes NewRegistry
type RegistryOption func(*registryOptions)

type registryOptions struct {
	cache    cache.Cache
	cacheTTL time.Duration
	limiter  *worker.Limiter
}

// WithResultCache caches successful provider responses
func WithResultCache(c cache.Cache, ttl time.Duration) RegistryOption {
	return func(o *registryOptions) {
		o.cache = c
		o.cacheTTL = ttl
	}
}

// WithLimiter rate limits every provider through its own bucket
func WithLimiter(l *worker.Limiter) RegistryOption {
	return func(o *registryOptions) {
		o.limiter = l
	}
}

// NewRegistry builds a verifier for every enabled provider in cfg. Providers
// that cannot be built (disabled, missing credentials) stay in the table as
// unavailable so the weight calculator skips them.
func NewRegistry(cfg *model.Config, opts ...RegistryOption) *Registry {
	var o registryOptions
	for _, opt := range opts {
		opt(&o)
	}

	r := NewEmptyRegistry()
	for _, pc := range cfg.Providers {
		if !pc.Enabled {
			r.add(pc.ID, nil, pc.Strengths, ErrDisabled)
			continue
		}

		v, err := New(ConfigFromModel(pc, cfg.HTTP))
		if err != nil {
			r.add(pc.ID, nil, pc.Strengths, err)
			continue
		}

		// Cache hits should not spend rate limit tokens
		v = WithRateLimit(v, o.limiter)
		v = WithCache(v, o.cache, o.cacheTTL)
		r.add(pc.ID, v, pc.Strengths, nil)
	}
	return r
}

// NewEmptyRegistry creates a registry with no providers
func NewEmptyRegistry() *Registry {
	return &Registry{
		verifiers: make(map[string]Verifier),
		strengths: make(map[string]map[model.Domain]float64),
		reasons:   make(map[string]error),
	}
}

// Register adds a ready verifier under id, after any existing providers
func (r *Registry) Register(id string, v Verifier, strengths map[model.Domain]float64) {
	r.add(id, v, strengths, nil)
}

func (r *Registry) add(id string, v Verifier, strengths map[model.Domain]float64, reason error) {
	if _, exists := r.strengths[id]; !exists {
		r.order = append(r.order, id)
	}
	r.strengths[id] = strengths
	delete(r.verifiers, id)
	delete(r.reasons, id)
	if v != nil {
		r.verifiers[id] = v
	} else {
		r.reasons[id] = reason
	}
}

// Get returns the verifier registered for id
func (r *Registry) Get(id string) (Verifier, bool) {
	v, ok := r.verifiers[id]
	return v, ok
}

// IDs returns provider ids in declaration order
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// Descriptors returns the provider table in declaration order. A provider is
// available when a verifier could be built for it.
func (r *Registry) Descriptors() []model.ProviderDescriptor {
	out := make([]model.ProviderDescriptor, 0, len(r.order))
	for _, id := range r.order {
		_, ok := r.verifiers[id]
		out = append(out, model.ProviderDescriptor{
			ID:          id,
			Strengths:   r.strengths[id],
			IsAvailable: ok,
		})
	}
	return out
}

// Statuses reports every provider with the reason it is unavailable, if any
func (r *Registry) Statuses() []Status {
	out := make([]Status, 0, len(r.order))
	for _, id := range r.order {
		s := Status{ID: id, Available: r.verifiers[id] != nil}
		if err := r.reasons[id]; err != nil {
			s.Reason = err.Error()
		}
		out = append(out, s)
	}
	return out
}

// Probe calls IsAvailable on every built verifier concurrently and returns
// the statuses with unreachable providers marked unavailable. A failed probe
// never fails the others.
func (r *Registry) Probe(ctx context.Context) []Status {
	statuses := r.Statuses()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for i := range statuses {
		v, ok := r.verifiers[statuses[i].ID]
		if !ok {
			continue
		}
		i := i
		g.Go(func() error {
			reachable := v.IsAvailable(gctx)
			mu.Lock()
			defer mu.Unlock()
			if !reachable {
				statuses[i].Available = false
				statuses[i].Reason = "probe failed: provider unreachable or credentials rejected"
			}
			return nil
		})
	}
	_ = g.Wait()

	return statuses
}

// ProbedDescriptors returns Descriptors with availability taken from a probe
func (r *Registry) ProbedDescriptors(ctx context.Context) []model.ProviderDescriptor {
	reachable := make(map[string]bool)
	for _, s := range r.Probe(ctx) {
		reachable[s.ID] = s.Available
	}

	descriptors := r.Descriptors()
	for i := range descriptors {
		descriptors[i].IsAvailable = reachable[descriptors[i].ID]
	}
	return descriptors
}
