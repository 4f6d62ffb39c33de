package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/corroborate/internal/model"
	"github.com/ppiankov/corroborate/internal/pipeline"
	"github.com/ppiankov/corroborate/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	metricsAddr  string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Verify multiple claims from a file in parallel",
	Long: `Batch verifies many claims concurrently:
- Read claims from input file (one per line, # starts a comment)
- Verify claims in parallel with configurable worker count
- Each claim fans out to its own providers under the global deadline
- Generate individual JSON and Markdown reports for each claim

Example:
  corroborate batch claims.txt
  corroborate batch claims.txt --concurrency 8 --output-dir ./reports
  corroborate batch claims.txt --tier free --metrics-addr :9090`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Concurrency flags
	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./corroborate-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while the batch runs (e.g. :9090)")

	// Shared with verify
	batchCmd.Flags().IntVar(&quota, "quota", 0, "maximum number of providers per claim (0 = all available)")
	batchCmd.Flags().StringVar(&tier, "tier", "", "quota tier: free (2), pro (4), enterprise (6)")
	batchCmd.Flags().DurationVar(&deadline, "deadline", 0, "global provider deadline per claim")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable provider response cache")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if deadline > 0 {
		cfg.Engine.Deadline = deadline
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
	if cmd.Flags().Changed("concurrency") || cfg.Concurrency.Workers <= 0 {
		cfg.Concurrency.Workers = concurrency
	}

	q, err := resolveQuota(cfg, tier, quota, cmd.Flags().Changed("quota"))
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Corroborate Batch Verification\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Quota:        %d\n", q)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	if metricsAddr != "" {
		fmt.Fprintf(os.Stderr, "  Metrics:      http://%s/metrics\n", metricsAddr)
	}
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	a := newApp(cfg, cfg.Cache.Enabled && !noCache)
	descriptors := a.registry.Descriptors()

	if metricsAddr != "" {
		stop := serveMetrics(a, metricsAddr)
		defer stop()
	}

	checker := worker.CheckerFunc(func(ctx context.Context, claim string) (*model.VerdictReport, error) {
		return a.engine.Verify(ctx, claim, q, descriptors)
	})
	processor := worker.NewBatchProcessor(checker, cfg.Concurrency.Workers)

	fmt.Fprintf(os.Stderr, "⚙️  Reading claims from file...\n")
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ Verified %d claims with %d workers\n", len(results), cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "\n")

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	var successCount, failureCount, unverifiedCount int

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Claim, result.Error)
			continue
		}

		slug := fmt.Sprintf("%03d-%s", result.Index+1, sanitizeFilename(result.Claim))
		jsonPath := filepath.Join(outputDir, slug+".json")
		mdPath := filepath.Join(outputDir, slug+".md")

		if err := renderer.RenderJSON(result.Report, jsonPath); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Claim, err)
			continue
		}
		if err := renderer.RenderMarkdown(result.Report, mdPath); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.Claim, err)
			continue
		}

		successCount++
		if len(result.Report.Breakdown) == 0 {
			unverifiedCount++
			fmt.Fprintf(os.Stderr, "⚠️  %s (unverified: no provider answered)\n", result.Claim)
			continue
		}
		fmt.Fprintf(os.Stderr, "✓ %s (%s, confidence %.0f%%)\n",
			result.Claim, verdictWord(result.Report.IsTrue), result.Report.Confidence*100)
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:       %d claims\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:     %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Unverified:  %d\n", unverifiedCount)
	fmt.Fprintf(os.Stderr, "  Failures:    %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:      %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// serveMetrics exposes the recorder until the returned stop func is called
func serveMetrics(a *app, addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.String("addr", addr), zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func verdictWord(isTrue bool) string {
	if isTrue {
		return "true"
	}
	return "false"
}

// sanitizeFilename turns a claim into a short, filesystem-safe slug
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "",
		"\"", "",
		"'", "",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = replacer.Replace(strings.ToLower(strings.TrimSpace(s)))
	s = strings.Trim(s, "-_.")

	// Limit length
	if r := []rune(s); len(r) > 60 {
		s = strings.TrimRight(string(r[:60]), "-_.")
	}
	if s == "" {
		s = "claim"
	}
	return s
}
