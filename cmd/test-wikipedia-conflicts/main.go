// Test program to demonstrate the Wikipedia verifier against the live API.
// It shows edit war detection on contested articles and how a conflict
// lowers the confidence of a corroborating answer.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/corroborate/internal/provider"
)

func main() {
	fmt.Println("=== Wikipedia Conflict Detection Test ===")
	fmt.Println()

	v, err := provider.NewWikipediaVerifier(provider.DefaultConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Articles with known conflicts
	titles := []string{
		"Borscht", // Contested origin
		"Chicken Kiev",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, title := range titles {
		fmt.Printf("Testing: %s\n", title)
		fmt.Println(strings.Repeat("-", 60))

		editWar, err := v.DetectEditWar(ctx, title)
		if err != nil {
			fmt.Printf("  Edit war check error: %v\n", err)
		} else if editWar.IsHighConflict {
			fmt.Printf("  ⚠️  EDIT WAR DETECTED\n")
			fmt.Printf("     - Recent edits (30 days): %d\n", editWar.RecentEdits)
			fmt.Printf("     - Reverts: %d\n", editWar.RevertCount)
			fmt.Printf("     - Unique editors: %d\n", editWar.UniqueEditors)
			fmt.Printf("     - Edit frequency: %.2f edits/day\n", editWar.EditFrequency)
			fmt.Printf("     - Severity: %s\n", editWar.ConflictSeverity)
		} else {
			fmt.Println("  ✓ No significant edit conflict detected")
			if editWar.RecentEdits > 0 {
				fmt.Printf("    (Recent edits: %d, Reverts: %d)\n", editWar.RecentEdits, editWar.RevertCount)
			}
		}
		fmt.Println()
	}

	claims := []string{
		"Borscht is a sour soup from Ukraine.",
		"The Great Wall of China is visible from space.",
	}
	for _, claim := range claims {
		fmt.Printf("Claim: %s\n", claim)
		resp, err := v.CheckFact(ctx, claim)
		if err != nil {
			fmt.Printf("  ✗ %v\n\n", err)
			continue
		}
		fmt.Printf("  Verdict: %v (confidence %.2f)\n", resp.Verdict, resp.Confidence)
		fmt.Printf("  %s\n", resp.Explanation)
		for _, s := range resp.Sources {
			fmt.Printf("  • %s\n", s.URL)
		}
		fmt.Println()
	}

	fmt.Println("=== Test Complete ===")
	fmt.Println()
	fmt.Println("Note: This program needs access to the Wikipedia API.")
}
