package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/corroborate/internal/model"
	"github.com/ppiankov/corroborate/internal/provider"
)

var probe bool

// providersCmd represents the providers command
var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List verification providers and their availability",
	Long: `List every configured provider in declaration order with its availability.

A provider is available when it is enabled and its credentials are present.
With --probe each available provider is also contacted to confirm it answers.

Example:
  corroborate providers
  corroborate providers --probe`,
	Args: cobra.NoArgs,
	RunE: runProviders,
}

func init() {
	rootCmd.AddCommand(providersCmd)
	providersCmd.Flags().BoolVar(&probe, "probe", false, "contact each available provider to confirm it answers")
}

func runProviders(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	registry := provider.NewRegistry(cfg)

	var statuses []provider.Status
	if probe {
		fmt.Fprintf(os.Stderr, "⚙️  Probing providers...\n\n")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		statuses = registry.Probe(ctx)
	} else {
		statuses = registry.Statuses()
	}

	printProviders(os.Stdout, statuses, registry.Descriptors())
	return nil
}

// printProviders writes one line per provider with its strongest domains
func printProviders(w io.Writer, statuses []provider.Status, descriptors []model.ProviderDescriptor) {
	strengths := make(map[string]map[model.Domain]float64, len(descriptors))
	for _, d := range descriptors {
		strengths[d.ID] = d.Strengths
	}

	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "  Providers\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	for _, s := range statuses {
		mark := "✓"
		if !s.Available {
			mark = "✗"
		}
		fmt.Fprintf(w, "  %s %-18s", mark, s.ID)
		if s.Reason != "" {
			fmt.Fprintf(w, " %s", s.Reason)
		}
		fmt.Fprintln(w)
		if top := topDomains(strengths[s.ID], 3); top != "" {
			fmt.Fprintf(w, "      strongest: %s\n", top)
		}
	}
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
}

// topDomains lists the n strongest domains, ties in domain declaration order
func topDomains(strengths map[model.Domain]float64, n int) string {
	domains := make([]model.Domain, 0, len(strengths))
	for _, d := range model.AllDomains() {
		if _, ok := strengths[d]; ok {
			domains = append(domains, d)
		}
	}
	sort.SliceStable(domains, func(i, j int) bool {
		return strengths[domains[i]] > strengths[domains[j]]
	})
	if len(domains) > n {
		domains = domains[:n]
	}

	parts := make([]string, len(domains))
	for i, d := range domains {
		parts[i] = fmt.Sprintf("%s %.2f", d, strengths[d])
	}
	return strings.Join(parts, ", ")
}
