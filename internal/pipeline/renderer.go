package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/corroborate/internal/model"
)

// Renderer writes verdict reports as JSON, Markdown and a terminal summary
type Renderer struct {
	includeFooter bool
	out           io.Writer
}

// NewRenderer creates a renderer printing summaries to stdout
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{
		includeFooter: includeFooter,
		out:           os.Stdout,
	}
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *model.VerdictReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderMarkdown writes a human-readable report
func (r *Renderer) RenderMarkdown(report *model.VerdictReport, path string) error {
	return writeFile(path, []byte(r.Markdown(report)))
}

// Markdown renders the report as a Markdown document
func (r *Renderer) Markdown(report *model.VerdictReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Claim Verification Report\n\n")
	fmt.Fprintf(&b, "**Claim:** %s\n\n", report.Claim.RawInput)
	if report.Claim.WasQuestion {
		fmt.Fprintf(&b, "**Checked as:** %s\n\n", report.Claim.NormalizedStatement)
	}
	fmt.Fprintf(&b, "**Checked:** %s  \n", report.CheckedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "**Report ID:** `%s`\n\n", report.ID)

	b.WriteString("## Verdict\n\n")
	fmt.Fprintf(&b, "| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Verdict | **%s** |\n", verdictText(report))
	fmt.Fprintf(&b, "| Confidence | %.0f%% |\n", report.Confidence*100)
	fmt.Fprintf(&b, "| Consensus | %.0f%% |\n", report.ConsensusStrength*100)
	fmt.Fprintf(&b, "| Coverage | %.0f%% |\n", report.Coverage*100)
	fmt.Fprintf(&b, "| Manipulation risk | %.2f |\n", report.ManipulationScore)
	fmt.Fprintf(&b, "| Contradiction index | %.2f |\n", report.ContradictionIndex)
	fmt.Fprintf(&b, "| Domains | %s |\n\n", joinDomains(report.Domains))

	if len(report.Claim.ImplicitClaims) > 0 {
		b.WriteString("### Implicit claims\n\n")
		for _, c := range report.Claim.ImplicitClaims {
			fmt.Fprintf(&b, "- %s\n", c)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Explanation\n\n")
	b.WriteString(strings.TrimSpace(report.Explanation))
	b.WriteString("\n\n")

	if report.Context != "" {
		b.WriteString("## Context\n\n")
		b.WriteString(report.Context)
		b.WriteString("\n\n")
	}

	if len(report.Breakdown) > 0 || len(report.Failures) > 0 {
		b.WriteString("## Providers\n\n")
		b.WriteString("| Provider | Verdict | Confidence | Weight | Reliability |\n|---|---|---|---|---|\n")
		for _, p := range report.Breakdown {
			fmt.Fprintf(&b, "| %s | %s | %.0f%% | %.2f | %.2f |\n",
				p.ProviderID, boolVerdict(p.Verdict), p.NormalizedConfidence*100, p.Weight, p.Reliability)
		}
		for _, f := range report.Failures {
			fmt.Fprintf(&b, "| %s | failed: %s | - | %.2f | - |\n",
				f.ProviderID, escapePipes(f.Error), report.Weights[f.ProviderID])
		}
		b.WriteString("\n")
	}

	if len(report.Sources) > 0 {
		b.WriteString("## Sources\n\n")
		for i, s := range report.Sources {
			fmt.Fprintf(&b, "%d. [%s](%s) (%s)\n", i+1, sourceName(s), s.URL, s.Authority)
		}
		b.WriteString("\n")
	}

	if len(report.Signals) > 0 {
		b.WriteString("## Signals\n\n")
		for _, s := range report.Signals {
			fmt.Fprintf(&b, "- **%s** [%s]: %s", s.Type, s.Severity, s.Description)
			if formula, ok := s.Data["formula"].(string); ok {
				fmt.Fprintf(&b, " (`%s`)", formula)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		b.WriteString("*Generated by corroborate. Providers can be wrong; the confidence is the mean of their own confidences, ")
		b.WriteString("and the risk scores describe the claim's wording and provider disagreement, not its truth.*\n")
	}

	return b.String()
}

// RenderSummary prints a one-screen summary
func (r *Renderer) RenderSummary(report *model.VerdictReport) {
	w := r.out
	fmt.Fprintln(w)
	fmt.Fprintf(w, "═══════════════════════════════════════════════\n")
	fmt.Fprintf(w, "  Claim Verification\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════\n")
	fmt.Fprintf(w, "  Claim:         %s\n", report.Claim.RawInput)
	if report.Claim.WasQuestion {
		fmt.Fprintf(w, "  Checked as:    %s\n", report.Claim.NormalizedStatement)
	}
	fmt.Fprintf(w, "  Verdict:       %s\n", verdictText(report))
	fmt.Fprintf(w, "  Confidence:    %.0f%%\n", report.Confidence*100)
	fmt.Fprintf(w, "  Consensus:     %.0f%%\n", report.ConsensusStrength*100)
	fmt.Fprintf(w, "  Manipulation:  %.2f\n", report.ManipulationScore)
	fmt.Fprintf(w, "  Contradiction: %.2f\n", report.ContradictionIndex)
	fmt.Fprintf(w, "  Domains:       %s\n", joinDomains(report.Domains))
	fmt.Fprintf(w, "───────────────────────────────────────────────\n")
	for _, p := range report.Breakdown {
		fmt.Fprintf(w, "  ✓ %-18s %-6s %3.0f%%  (weight %.2f)\n",
			p.ProviderID, boolVerdict(p.Verdict), p.NormalizedConfidence*100, p.Weight)
	}
	for _, f := range report.Failures {
		fmt.Fprintf(w, "  ✗ %-18s %s\n", f.ProviderID, f.Error)
	}
	if len(report.Sources) > 0 {
		fmt.Fprintf(w, "───────────────────────────────────────────────\n")
		for _, s := range report.Sources {
			fmt.Fprintf(w, "  • %s\n    %s\n", sourceName(s), s.URL)
		}
	}
	fmt.Fprintf(w, "═══════════════════════════════════════════════\n")
	fmt.Fprintln(w)
}

// RenderReport writes the requested files and prints the summary
func (r *Renderer) RenderReport(report *model.VerdictReport, jsonPath, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := r.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := r.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	r.RenderSummary(report)
	return nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

func verdictText(report *model.VerdictReport) string {
	return strings.ToUpper(verdictLabel(*report))
}

func boolVerdict(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func sourceName(s model.Source) string {
	if s.Name != "" {
		return s.Name
	}
	return s.URL
}

func joinDomains(domains []model.Domain) string {
	names := make([]string, len(domains))
	for i, d := range domains {
		names[i] = string(d)
	}
	return strings.Join(names, ", ")
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
