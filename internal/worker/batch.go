package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/corroborate/internal/model"
)

// Checker verifies one raw claim
type Checker interface {
	Check(ctx context.Context, claim string) (*model.VerdictReport, error)
}

// CheckerFunc adapts a function to the Checker interface
type CheckerFunc func(ctx context.Context, claim string) (*model.VerdictReport, error)

// Check calls f(ctx, claim)
func (f CheckerFunc) Check(ctx context.Context, claim string) (*model.VerdictReport, error) {
	return f(ctx, claim)
}

// ClaimJob represents one claim verification job
type ClaimJob struct {
	Index   int
	Claim   string
	Checker Checker
}

// Execute executes the verification job
func (j *ClaimJob) Execute(ctx context.Context) Result {
	report, err := j.Checker.Check(ctx, j.Claim)
	return &ClaimResult{
		Index:  j.Index,
		Claim:  j.Claim,
		Report: report,
		Error:  err,
	}
}

// ClaimResult represents the result of a verification job
type ClaimResult struct {
	Index  int
	Claim  string
	Report *model.VerdictReport
	Error  error
}

// GetError returns the error from the verification
func (r *ClaimResult) GetError() error {
	return r.Error
}

// BatchProcessor verifies multiple claims concurrently
type BatchProcessor struct {
	checker     Checker
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(checker Checker, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		checker:     checker,
		concurrency: concurrency,
	}
}

// ProcessClaims verifies claims concurrently. Results come back in input order.
func (b *BatchProcessor) ProcessClaims(ctx context.Context, claims []string) []*ClaimResult {
	if len(claims) == 0 {
		return []*ClaimResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, claim := range claims {
		pool.Submit(&ClaimJob{
			Index:   i,
			Claim:   claim,
			Checker: b.checker,
		})
	}

	results := pool.Wait()

	claimResults := make([]*ClaimResult, len(claims))
	for _, result := range results {
		cr := result.(*ClaimResult)
		claimResults[cr.Index] = cr
	}

	// Jobs dropped by a cancelled context never ran
	for i, cr := range claimResults {
		if cr == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			claimResults[i] = &ClaimResult{Index: i, Claim: claims[i], Error: fmt.Errorf("not processed: %w", err)}
		}
	}

	return claimResults
}

// ProcessFile reads claims from a file and verifies them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*ClaimResult, error) {
	claims, err := ReadClaimsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read claims: %w", err)
	}

	return b.ProcessClaims(ctx, claims), nil
}

// ReadClaimsFromFile reads claims from a file, one per line.
// Blank lines and # comments are skipped; repeated claims are kept once.
func ReadClaimsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var claims []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			claims = append(claims, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return claims, nil
}
