// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pdiddy/draft-engine/internal/backend"
	"github.com/pdiddy/draft-engine/internal/score"
	"github.com/pdiddy/draft-engine/pkg/types"
)

var scoreCmd = &cobra.Command{
	Use:   "score [file]",
	Short: "Score an existing draft against the editorial rubric",
	Long: `Score evaluates a Markdown draft with the same rubric the pipeline uses
during generation and prints the per-category breakdown. Without --judge
the grammar and argument categories take a fixed baseline score.`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().String("title", "", "title to pass to the judge")
	scoreCmd.Flags().String("judge", "", "backend name to use as the scoring judge")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading draft: %w", err)
	}

	cfg, err := loadPipelineConfig()
	if err != nil {
		return err
	}

	var judge score.Judge
	if name, _ := cmd.Flags().GetString("judge"); name != "" {
		backends, err := backend.NewAll(cfg.Backends, cfg.HTTP)
		if err != nil {
			return err
		}
		judge, err = judgeFromFlag(cmd, backends)
		if err != nil {
			return err
		}
	}

	title, _ := cmd.Flags().GetString("title")
	scorer := score.New(cfg.Rubric, cfg.Style, judge, os.Stderr)
	report := scorer.Score(cmd.Context(), title, types.Draft{Text: string(data), OK: true})

	fmt.Printf("%-10s  %-6s  %-7s  %s\n", "Category", "Score", "Weight", "Feedback")
	categories := make([]string, 0, len(report.Categories))
	for c := range report.Categories {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		fmt.Printf("%-10s  %.3f  %.2f    %s\n", c, report.Categories[c], cfg.Rubric.Weights[c], report.Feedback[c])
	}

	verdict := "FAIL"
	if report.Pass {
		verdict = "PASS"
	}
	fmt.Printf("\nComposite: %.3f (%s)  Threshold: %.2f  %s\n",
		report.Composite, report.Grade, cfg.Rubric.Threshold, verdict)
	fmt.Printf("Weakest category: %s\n", report.Weakest)
	return nil
}
