package provider

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/corroborate/internal/cache"
	"github.com/ppiankov/corroborate/internal/model"
	"github.com/ppiankov/corroborate/internal/worker"
)

// MockVerifier implements Verifier
type MockVerifier struct {
	ID        string
	Resp      *Response
	Err       error
	Available bool
	calls     int32
}

func (m *MockVerifier) Name() string { return m.ID }

func (m *MockVerifier) CheckFact(ctx context.Context, statement string) (*Response, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.Err != nil {
		return nil, m.Err
	}
	resp := *m.Resp
	return &resp, nil
}

func (m *MockVerifier) IsAvailable(ctx context.Context) bool { return m.Available }

func (m *MockVerifier) Calls() int { return int(atomic.LoadInt32(&m.calls)) }

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(Config{ID: "bing"})
	if err == nil || !strings.Contains(err.Error(), "unknown provider") {
		t.Errorf("Expected unknown provider error, got %v", err)
	}
}

func TestNewRegistry_DefaultConfig(t *testing.T) {
	cfg := model.DefaultConfig()
	r := NewRegistry(cfg)

	statuses := r.Statuses()
	if len(statuses) != len(cfg.Providers) {
		t.Fatalf("Expected %d statuses, got %d", len(cfg.Providers), len(statuses))
	}

	byID := make(map[string]Status)
	for i, s := range statuses {
		if s.ID != cfg.Providers[i].ID {
			t.Errorf("Expected declaration order %s at %d, got %s", cfg.Providers[i].ID, i, s.ID)
		}
		byID[s.ID] = s
	}

	if !byID["wikipedia"].Available {
		t.Errorf("Expected keyless wikipedia to be available, got %+v", byID["wikipedia"])
	}
	if byID["openai"].Available || byID["openai"].Reason != ErrDisabled.Error() {
		t.Errorf("Expected openai disabled by default, got %+v", byID["openai"])
	}
	if _, ok := r.Get("wikipedia"); !ok {
		t.Error("Expected wikipedia verifier to be registered")
	}
	if _, ok := r.Get("openai"); ok {
		t.Error("Expected no verifier for a disabled provider")
	}
}

func TestNewRegistry_MissingCredentials(t *testing.T) {
	cfg := model.DefaultConfig()
	for i := range cfg.Providers {
		cfg.Providers[i].Enabled = cfg.Providers[i].ID == "anthropic"
	}

	r := NewRegistry(cfg)
	descriptors := r.Descriptors()

	for _, d := range descriptors {
		if d.IsAvailable {
			t.Errorf("Expected %s unavailable, got available", d.ID)
		}
	}
	for _, s := range r.Statuses() {
		if s.ID == "anthropic" && !strings.Contains(s.Reason, ErrMissingAPIKey.Error()) {
			t.Errorf("Expected missing key reason for anthropic, got %q", s.Reason)
		}
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewEmptyRegistry()
	strengths := map[model.Domain]float64{model.DomainGeneral: 0.9}
	r.Register("alpha", &MockVerifier{ID: "alpha"}, strengths)
	r.Register("beta", &MockVerifier{ID: "beta"}, nil)

	// Re-registering keeps the original position
	r.Register("alpha", &MockVerifier{ID: "alpha"}, strengths)

	ids := r.IDs()
	if strings.Join(ids, ",") != "alpha,beta" {
		t.Errorf("Expected alpha,beta, got %v", ids)
	}

	d := r.Descriptors()
	if !d[0].IsAvailable || d[0].Strength(model.DomainGeneral, 0) != 0.9 {
		t.Errorf("Unexpected descriptor: %+v", d[0])
	}
}

func TestRegistry_Probe(t *testing.T) {
	r := NewEmptyRegistry()
	r.Register("up", &MockVerifier{ID: "up", Available: true}, nil)
	r.Register("down", &MockVerifier{ID: "down", Available: false}, nil)
	r.add("off", nil, nil, ErrDisabled)

	statuses := r.Probe(context.Background())
	want := map[string]bool{"up": true, "down": false, "off": false}
	for _, s := range statuses {
		if s.Available != want[s.ID] {
			t.Errorf("Expected %s available=%v, got %v", s.ID, want[s.ID], s.Available)
		}
	}
	if statuses[1].Reason == "" {
		t.Error("Expected a reason for the failed probe")
	}

	descriptors := r.ProbedDescriptors(context.Background())
	if !descriptors[0].IsAvailable || descriptors[1].IsAvailable || descriptors[2].IsAvailable {
		t.Errorf("Unexpected probed descriptors: %+v", descriptors)
	}
}

func TestWithCache(t *testing.T) {
	mock := &MockVerifier{ID: "alpha", Resp: &Response{Verdict: true, Confidence: 0.9, Explanation: "cached"}}
	v := WithCache(mock, cache.NewMemoryCache(time.Minute, time.Minute), time.Minute)

	for i := 0; i < 3; i++ {
		resp, err := v.CheckFact(context.Background(), "  The sky is blue.  ")
		if err != nil {
			t.Fatalf("CheckFact failed: %v", err)
		}
		if !resp.Verdict || resp.Explanation != "cached" {
			t.Errorf("Unexpected response: %+v", resp)
		}
	}

	if mock.Calls() != 1 {
		t.Errorf("Expected 1 provider call, got %d", mock.Calls())
	}
	if v.Name() != "alpha" {
		t.Errorf("Expected decorator to keep the provider name, got %s", v.Name())
	}
}

func TestWithCache_DoesNotCacheErrors(t *testing.T) {
	mock := &MockVerifier{ID: "alpha", Err: errors.New("boom")}
	v := WithCache(mock, cache.NewMemoryCache(time.Minute, time.Minute), time.Minute)

	_, _ = v.CheckFact(context.Background(), "x")
	_, _ = v.CheckFact(context.Background(), "x")

	if mock.Calls() != 2 {
		t.Errorf("Expected failures to be retried, got %d calls", mock.Calls())
	}
}

func TestWithCache_NilCache(t *testing.T) {
	mock := &MockVerifier{ID: "alpha"}
	if v := WithCache(mock, nil, time.Minute); v != Verifier(mock) {
		t.Error("Expected nil cache to return the verifier unchanged")
	}
}

func TestWithRateLimit(t *testing.T) {
	mock := &MockVerifier{ID: "alpha", Resp: &Response{Verdict: true}}
	limiter := worker.NewLimiter(0.01, 1)
	v := WithRateLimit(mock, limiter)

	if _, err := v.CheckFact(context.Background(), "x"); err != nil {
		t.Fatalf("First call failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := v.CheckFact(ctx, "x"); err == nil {
		t.Error("Expected the second call to be rate limited")
	}
	if mock.Calls() != 1 {
		t.Errorf("Expected 1 provider call, got %d", mock.Calls())
	}
}
