package validate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/corroborate/internal/model"
)

func robotsServer(t *testing.T, robots string, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var robotsFetches atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			robotsFetches.Add(1)
			w.WriteHeader(status)
			_, _ = w.Write([]byte(robots))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, &robotsFetches
}

func TestRobotsChecker_Allowed(t *testing.T) {
	server, fetches := robotsServer(t, "User-agent: *\nDisallow: /private/\n", http.StatusOK)
	r := NewRobotsChecker(5*time.Second, model.HTTPConfig{UserAgent: "corroborate-test/1.0"})

	tests := []struct {
		path string
		want bool
	}{
		{"/public/page", true},
		{"/private/page", false},
		{"", true},
	}

	for _, tt := range tests {
		if got := r.Allowed(context.Background(), server.URL+tt.path); got != tt.want {
			t.Errorf("Allowed(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}

	if fetches.Load() != 1 {
		t.Errorf("Expected robots.txt fetched once per host, got %d", fetches.Load())
	}
}

func TestRobotsChecker_AgentSpecificGroup(t *testing.T) {
	server, _ := robotsServer(t, "User-agent: corroborate-test\nDisallow: /\n\nUser-agent: *\nAllow: /\n", http.StatusOK)
	r := NewRobotsChecker(5*time.Second, model.HTTPConfig{UserAgent: "corroborate-test/1.0 (+https://example.com)"})

	if r.Allowed(context.Background(), server.URL+"/anything") {
		t.Error("Expected the agent-specific group to disallow everything")
	}
}

func TestRobotsChecker_MissingRobotsAllowsAll(t *testing.T) {
	server, _ := robotsServer(t, "", http.StatusNotFound)
	r := NewRobotsChecker(5*time.Second, model.HTTPConfig{})

	if !r.Allowed(context.Background(), server.URL+"/private/page") {
		t.Error("Expected a missing robots.txt to allow everything")
	}
}

func TestRobotsChecker_UnreachableAllows(t *testing.T) {
	r := NewRobotsChecker(200*time.Millisecond, model.HTTPConfig{})

	if !r.Allowed(context.Background(), "http://127.0.0.1:1/page") {
		t.Error("Expected an unreachable host to be allowed by default")
	}
	if !r.Allowed(context.Background(), "not a url") {
		t.Error("Expected an unparseable URL to be allowed by default")
	}
}

func TestValidator_Check_RespectsRobots(t *testing.T) {
	server, _ := robotsServer(t, "User-agent: *\nDisallow: /private/\n", http.StatusOK)

	v := newTestValidator(5, nil).UseRobots(NewRobotsChecker(5*time.Second, model.HTTPConfig{}))
	results := v.Check(context.Background(), []model.Source{
		{URL: server.URL + "/public"},
		{URL: server.URL + "/private/report"},
	})

	if !results[0].IsAccessible {
		t.Errorf("Expected public source to be checked, got %+v", results[0])
	}
	if results[1].IsAccessible || results[1].IsDead || results[1].Error != errRobotsDisallowed {
		t.Errorf("Expected private source to be skipped, got %+v", results[1])
	}
}

func TestNormalizeUserAgent(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"corroborate/0.1 (+https://github.com/ppiankov/corroborate)", "corroborate"},
		{"Mozilla/5.0 (X11)", "Mozilla"},
		{"bot", "bot"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeUserAgent(tt.in); got != tt.want {
			t.Errorf("NormalizeUserAgent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
