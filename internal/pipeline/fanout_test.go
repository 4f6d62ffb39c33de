package pipeline

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/ppiankov/corroborate/internal/metrics"
	"github.com/ppiankov/corroborate/internal/model"
	"github.com/ppiankov/corroborate/internal/provider"
)

// FakeVerifier implements provider.Verifier with scripted behavior
type FakeVerifier struct {
	ID       string
	Verdict  bool
	Conf     float64
	Sources  []model.Source
	Context  string
	Err      error
	Delay    time.Duration
	PanicMsg string
}

func (f *FakeVerifier) Name() string { return f.ID }

func (f *FakeVerifier) IsAvailable(ctx context.Context) bool { return true }

func (f *FakeVerifier) CheckFact(ctx context.Context, statement string) (*provider.Response, error) {
	if f.PanicMsg != "" {
		panic(f.PanicMsg)
	}
	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return &provider.Response{
		Verdict:     f.Verdict,
		Confidence:  f.Conf,
		Explanation: f.ID + " looked into it.",
		Context:     f.Context,
		Sources:     f.Sources,
		Model:       "fake",
	}, nil
}

// newTestRegistry registers the verifiers with identical strengths
func newTestRegistry(verifiers ...*FakeVerifier) *provider.Registry {
	r := provider.NewEmptyRegistry()
	for _, v := range verifiers {
		r.Register(v.ID, v, map[model.Domain]float64{model.DomainGeneral: 0.8})
	}
	return r
}

func TestFanOut_RunAll_SelectionOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := newTestRegistry(
		&FakeVerifier{ID: "slow", Verdict: true, Conf: 0.9, Delay: 30 * time.Millisecond},
		&FakeVerifier{ID: "fast", Verdict: false, Conf: 0.6},
	)
	f := NewFanOut(reg, time.Second, nil, nil)

	results := f.RunAll(context.Background(), "The sky is blue.", []string{"slow", "fast"})

	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].ProviderID != "slow" || results[1].ProviderID != "fast" {
		t.Errorf("Expected selection order [slow fast], got [%s %s]", results[0].ProviderID, results[1].ProviderID)
	}
	for _, r := range results {
		if !r.Succeeded {
			t.Errorf("Expected %s to succeed, got error %q", r.ProviderID, r.Error)
		}
	}
	if results[0].Confidence != 0.9 || !results[0].Verdict {
		t.Errorf("Unexpected result for slow: %+v", results[0])
	}
}

func TestFanOut_RunAll_Empty(t *testing.T) {
	f := NewFanOut(newTestRegistry(), time.Second, nil, nil)
	if results := f.RunAll(context.Background(), "x", nil); len(results) != 0 {
		t.Errorf("Expected no results, got %d", len(results))
	}
}

func TestFanOut_RunAll_DeadlineAbandonsSlowProvider(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := newTestRegistry(
		&FakeVerifier{ID: "fast", Verdict: true, Conf: 0.8},
		&FakeVerifier{ID: "stuck", Verdict: true, Conf: 0.8, Delay: 10 * time.Second},
	)
	f := NewFanOut(reg, 50*time.Millisecond, nil, nil)

	start := time.Now()
	results := f.RunAll(context.Background(), "The sky is blue.", []string{"fast", "stuck"})

	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Expected fan-out to return at the deadline, took %v", elapsed)
	}
	if !results[0].Succeeded {
		t.Errorf("Expected fast provider to succeed, got %q", results[0].Error)
	}
	if results[1].Succeeded {
		t.Error("Expected stuck provider to be abandoned")
	}
	if results[1].Error != "deadline exceeded" {
		t.Errorf("Expected 'deadline exceeded', got %q", results[1].Error)
	}
}

func TestNewFanOut_DefaultDeadline(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := newTestRegistry(&FakeVerifier{ID: "fast", Verdict: true, Conf: 0.8})

	for _, d := range []time.Duration{0, -time.Second} {
		f := NewFanOut(reg, d, nil, nil)
		if f.deadline != DefaultDeadline {
			t.Errorf("Expected deadline %v for %v, got %v", DefaultDeadline, d, f.deadline)
		}

		results := f.RunAll(context.Background(), "The sky is blue.", []string{"fast"})
		if !results[0].Succeeded {
			t.Errorf("Expected provider to succeed under the default deadline, got %q", results[0].Error)
		}
	}
}

func TestFanOut_RunAll_ParentCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := newTestRegistry(&FakeVerifier{ID: "stuck", Delay: 10 * time.Second})
	f := NewFanOut(reg, time.Minute, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	results := f.RunAll(ctx, "x", []string{"stuck"})
	if results[0].Succeeded || results[0].Error != context.Canceled.Error() {
		t.Errorf("Expected cancelled result, got %+v", results[0])
	}
}

func TestFanOut_RunAll_PanicRecovered(t *testing.T) {
	reg := newTestRegistry(
		&FakeVerifier{ID: "broken", PanicMsg: "nil map write"},
		&FakeVerifier{ID: "ok", Verdict: true, Conf: 0.7},
	)
	f := NewFanOut(reg, time.Second, nil, nil)

	results := f.RunAll(context.Background(), "x", []string{"broken", "ok"})

	if results[0].Succeeded {
		t.Error("Expected panicking provider to fail")
	}
	if !strings.Contains(results[0].Error, "panic: nil map write") {
		t.Errorf("Expected panic message, got %q", results[0].Error)
	}
	if !results[1].Succeeded {
		t.Error("Expected the other provider to be unaffected")
	}
}

func TestFanOut_RunAll_UnknownProvider(t *testing.T) {
	f := NewFanOut(newTestRegistry(), time.Second, nil, nil)

	results := f.RunAll(context.Background(), "x", []string{"bing"})

	if results[0].Succeeded {
		t.Error("Expected unknown provider to fail")
	}
	if !strings.Contains(results[0].Error, ErrUnknownProvider.Error()) {
		t.Errorf("Expected unknown provider error, got %q", results[0].Error)
	}
}

func TestFanOut_RunAll_ErrorAndClamp(t *testing.T) {
	reg := newTestRegistry(
		&FakeVerifier{ID: "down", Err: errors.New("API error (503): unavailable")},
		&FakeVerifier{ID: "eager", Verdict: true, Conf: 1.7},
	)
	f := NewFanOut(reg, time.Second, nil, nil)

	results := f.RunAll(context.Background(), "x", []string{"down", "eager"})

	if results[0].Succeeded || results[0].Error != "API error (503): unavailable" {
		t.Errorf("Expected provider error to be recorded, got %+v", results[0])
	}
	if results[1].Confidence != 1 {
		t.Errorf("Expected confidence clamped to 1, got %v", results[1].Confidence)
	}
}

func TestFanOut_RunAll_Metrics(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := newTestRegistry(
		&FakeVerifier{ID: "ok", Verdict: true, Conf: 0.7},
		&FakeVerifier{ID: "down", Err: errors.New("boom")},
		&FakeVerifier{ID: "stuck", Delay: 10 * time.Second},
	)
	recorder := metrics.NewRecorder()
	f := NewFanOut(reg, 50*time.Millisecond, nil, recorder)

	f.RunAll(context.Background(), "x", []string{"ok", "down", "stuck"})

	rec := httptest.NewRecorder()
	recorder.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	exposition := string(body)

	for _, want := range []string{
		`corroborate_provider_requests_total{outcome="success",provider="ok"} 1`,
		`corroborate_provider_requests_total{outcome="error",provider="down"} 1`,
		`corroborate_provider_requests_total{outcome="timeout",provider="stuck"} 1`,
	} {
		if !strings.Contains(exposition, want) {
			t.Errorf("Expected %s in exposition, got:\n%s", want, exposition)
		}
	}
}
