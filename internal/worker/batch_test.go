package worker

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/corroborate/internal/model"
)

// MockChecker implements Checker
type MockChecker struct {
	ShouldError bool
}

func (m *MockChecker) Check(ctx context.Context, claim string) (*model.VerdictReport, error) {
	// Later claims finish first so ordering is exercised
	time.Sleep(time.Duration(20-len(claim)%20) * time.Millisecond)
	if m.ShouldError {
		return nil, errors.New("verification error")
	}
	return &model.VerdictReport{
		Claim:  model.Claim{RawInput: claim, NormalizedStatement: claim},
		IsTrue: true,
	}, nil
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp(t.TempDir(), "claims")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpfile.Name()
}

func TestBatchProcessor_ProcessClaims(t *testing.T) {
	processor := NewBatchProcessor(&MockChecker{}, 3)

	claims := []string{
		"The Earth is flat.",
		"Water boils at 100 degrees Celsius at sea level.",
		"Is Pluto a planet?",
		"Vaccines cause autism.",
	}

	results := processor.ProcessClaims(context.Background(), claims)

	if len(results) != len(claims) {
		t.Fatalf("Expected %d results, got %d", len(claims), len(results))
	}

	for i, res := range results {
		if res.Error != nil {
			t.Errorf("Unexpected error for %q: %v", res.Claim, res.Error)
		}
		if res.Claim != claims[i] {
			t.Errorf("Expected claim %q at index %d, got %q", claims[i], i, res.Claim)
		}
		if res.Report == nil || res.Report.Claim.RawInput != claims[i] {
			t.Errorf("Expected report for %q at index %d", claims[i], i)
		}
	}
}

func TestBatchProcessor_ProcessClaims_Error(t *testing.T) {
	processor := NewBatchProcessor(&MockChecker{ShouldError: true}, 2)

	results := processor.ProcessClaims(context.Background(), []string{"The sky is green."})

	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].Error == nil {
		t.Error("Expected error, got nil")
	}
	if results[0].Report != nil {
		t.Error("Expected nil report on error")
	}
}

func TestBatchProcessor_ProcessClaims_Empty(t *testing.T) {
	processor := NewBatchProcessor(&MockChecker{}, 2)

	results := processor.ProcessClaims(context.Background(), []string{})
	if len(results) != 0 {
		t.Errorf("Expected 0 results, got %d", len(results))
	}
}

func TestBatchProcessor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	processor := NewBatchProcessor(&MockChecker{}, 1)
	results := processor.ProcessClaims(ctx, []string{"a", "b", "c"})

	if len(results) != 3 {
		t.Fatalf("Expected a result per claim, got %d", len(results))
	}
	for _, res := range results {
		if res == nil {
			t.Fatal("Expected no nil results")
		}
	}
}

func TestCheckerFunc(t *testing.T) {
	called := ""
	checker := CheckerFunc(func(ctx context.Context, claim string) (*model.VerdictReport, error) {
		called = claim
		return &model.VerdictReport{}, nil
	})

	if _, err := checker.Check(context.Background(), "x"); err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if called != "x" {
		t.Errorf("Expected claim x, got %q", called)
	}
}

func TestReadClaimsFromFile(t *testing.T) {
	path := writeTemp(t, `The Earth is flat.
# comment
Is water wet?
   
Vaccines cause autism.   `)

	claims, err := ReadClaimsFromFile(path)
	if err != nil {
		t.Fatalf("ReadClaimsFromFile failed: %v", err)
	}

	expected := []string{"The Earth is flat.", "Is water wet?", "Vaccines cause autism."}
	if strings.Join(claims, "|") != strings.Join(expected, "|") {
		t.Errorf("Expected %v, got %v", expected, claims)
	}
}

func TestReadClaimsFromFile_Deduplication(t *testing.T) {
	path := writeTemp(t, "The Earth is flat.\nThe Earth is flat.\n")

	claims, err := ReadClaimsFromFile(path)
	if err != nil {
		t.Fatalf("ReadClaimsFromFile failed: %v", err)
	}
	if len(claims) != 1 {
		t.Errorf("Expected 1 claim after deduplication, got %d", len(claims))
	}
}

func TestReadClaimsFromFile_NonExistent(t *testing.T) {
	_, err := ReadClaimsFromFile("non_existent_file.txt")
	if err == nil {
		t.Error("Expected error for non-existent file, got nil")
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := writeTemp(t, "Claim one.\nClaim two.\n# comment\n\nClaim three.\n")

	processor := NewBatchProcessor(&MockChecker{}, 2)

	results, err := processor.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("Expected 3 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessFile_NonExistent(t *testing.T) {
	processor := NewBatchProcessor(&MockChecker{}, 2)

	_, err := processor.ProcessFile(context.Background(), "no_such_file.txt")
	if err == nil {
		t.Error("Expected error for non-existent file, got nil")
	}
}
