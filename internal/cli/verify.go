package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/corroborate/internal/model"
	"github.com/ppiankov/corroborate/internal/pipeline"
	"github.com/ppiankov/corroborate/internal/validate"
)

var (
	outJSON      string
	outMD        string
	quota        int
	tier         string
	deadline     time.Duration
	checkSources bool
	noCache      bool
	noFooter     bool
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <claim>",
	Short: "Verify a single claim against several providers",
	Long: `Verify checks one claim or question:
- Rewrite questions into a checkable statement
- Tag the claim's topical domains and weigh providers by their strengths
- Query the strongest providers concurrently under one deadline
- Fuse their verdicts, confidences, explanations and sources
- Report consensus, contradiction and manipulation risk

Example:
  corroborate verify "Is the Earth flat?"
  corroborate verify "The Great Wall of China is visible from space" --tier pro
  corroborate verify "Coffee stunts growth" --json report.json --md report.md --check-sources`,
	Args: cobra.MinimumNArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	// Output flags
	verifyCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	verifyCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	verifyCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// Engine flags
	verifyCmd.Flags().IntVar(&quota, "quota", 0, "maximum number of providers to consult (0 = all available)")
	verifyCmd.Flags().StringVar(&tier, "tier", "", "quota tier: free (2), pro (4), enterprise (6)")
	verifyCmd.Flags().DurationVar(&deadline, "deadline", 0, "global provider deadline (default from config, 20s)")
	verifyCmd.Flags().BoolVar(&checkSources, "check-sources", false, "check that cited sources are reachable")
	verifyCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable provider response cache")
}

func runVerify(cmd *cobra.Command, args []string) error {
	claim := strings.TrimSpace(strings.Join(args, " "))

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

	q, err := resolveQuota(cfg, tier, quota, cmd.Flags().Changed("quota"))
	if err != nil {
		return err
	}

	a := newApp(cfg, cfg.Cache.Enabled && !noCache)
	descriptors := a.registry.Descriptors()

	if verbose {
		fmt.Fprintf(os.Stderr, "Claim:    %s\n", claim)
		fmt.Fprintf(os.Stderr, "Quota:    %d\n", q)
		fmt.Fprintf(os.Stderr, "Deadline: %v\n", cfg.Engine.Deadline)
		fmt.Fprintf(os.Stderr, "Cache:    %v\n", cfg.Cache.Enabled && !noCache)
		fmt.Fprintf(os.Stderr, "Providers available: %s\n", strings.Join(availableIDs(descriptors), ", "))
		fmt.Fprintln(os.Stderr)
		fmt.Fprintf(os.Stderr, "⚙️  Querying providers...\n")
	}

	// The engine enforces its own deadline; this only bounds source checks on top
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Engine.Deadline+time.Minute)
	defer cancel()

	report, err := a.engine.Verify(ctx, claim, q, descriptors)
	if err != nil {
		return fmt.Errorf("verify failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ %d provider(s) answered, %d failed\n", len(report.Breakdown), len(report.Failures))
		fmt.Fprintf(os.Stderr, "✓ Confidence: %.0f%%, consensus: %.0f%%\n", report.Confidence*100, report.ConsensusStrength*100)
		fmt.Fprintln(os.Stderr)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	if err := renderer.RenderReport(report, outJSON, outMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	if checkSources && len(report.Sources) > 0 {
		printSourceChecks(ctx, cfg, report.Sources)
	}

	return nil
}

// printSourceChecks probes the report's sources and prints one line per source
func printSourceChecks(ctx context.Context, cfg *model.Config, sources []model.Source) {
	v := validate.NewValidator(10*time.Second, cfg.Concurrency.ValidationWorkers, &cfg.Authority, cfg.HTTP).
		UseRobots(validate.NewRobotsChecker(10*time.Second, cfg.HTTP))
	checks := v.Check(ctx, sources)

	fmt.Fprintf(os.Stderr, "Source checks:\n")
	for _, c := range checks {
		switch {
		case c.IsAccessible && c.IsStale:
			fmt.Fprintf(os.Stderr, "  ⚠️  %s (stale, %d days)\n", c.URL, *c.Age)
		case c.IsAccessible:
			fmt.Fprintf(os.Stderr, "  ✓ %s (%d)\n", c.URL, c.StatusCode)
		case c.Error != "":
			fmt.Fprintf(os.Stderr, "  ✗ %s: %s\n", c.URL, c.Error)
		default:
			fmt.Fprintf(os.Stderr, "  ✗ %s (%d)\n", c.URL, c.StatusCode)
		}
	}

	s := validate.Summarize(checks)
	fmt.Fprintf(os.Stderr, "  %d/%d accessible, %d dead, %d stale\n\n", s.Accessible, s.Total, s.Dead, s.Stale)
}

func availableIDs(descriptors []model.ProviderDescriptor) []string {
	var ids []string
	for _, d := range descriptors {
		if d.IsAvailable {
			ids = append(ids, d.ID)
		}
	}
	if len(ids) == 0 {
		return []string{"none"}
	}
	return ids
}
