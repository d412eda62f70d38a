// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/draft-engine/internal/backend"
	"github.com/pdiddy/draft-engine/internal/dispatch"
	"github.com/pdiddy/draft-engine/internal/history"
	"github.com/pdiddy/draft-engine/internal/prompt"
	"github.com/pdiddy/draft-engine/internal/publish"
	"github.com/pdiddy/draft-engine/internal/score"
	"github.com/pdiddy/draft-engine/internal/session"
)

var generateCmd = &cobra.Command{
	Use:   "generate [topic]",
	Short: "Generate a blog post from a topic",
	Long: `Generate dispatches the topic to every configured backend in parallel,
scores each draft against the editorial rubric, and refines the best one
over several cycles. The winning post is written to the publish directory
and the full session is saved to history.

Use --dry-run to exercise the pipeline with offline mock backends.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().String("title", "", "title for the post (derived from content if empty)")
	generateCmd.Flags().Int("cycles", -1, "refinement cycles (overrides config; 0 disables refinement)")
	generateCmd.Flags().String("judge", "", "backend name to use as the scoring judge")
	generateCmd.Flags().String("output-dir", "", "directory for the published post (overrides config)")
	generateCmd.Flags().Bool("html", false, "also render the post to HTML")
	generateCmd.Flags().Bool("no-save", false, "skip saving the session to history")
	generateCmd.Flags().Bool("dry-run", false, "use offline mock backends")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	topic := args[0]
	title, _ := cmd.Flags().GetString("title")

	cfg, err := loadPipelineConfig()
	if err != nil {
		return err
	}
	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		mockBackends(&cfg)
	}
	if cycles, _ := cmd.Flags().GetInt("cycles"); cycles >= 0 {
		cfg.Session.RefinementCycles = cycles
	}
	if dir, _ := cmd.Flags().GetString("output-dir"); dir != "" {
		cfg.Publish.Dir = dir
	}
	if html, _ := cmd.Flags().GetBool("html"); html {
		cfg.Publish.RenderHTML = true
	}

	backends, err := backend.NewAll(cfg.Backends, cfg.HTTP)
	if err != nil {
		return err
	}

	judge, err := judgeFromFlag(cmd, backends)
	if err != nil {
		return err
	}

	scorer := score.New(cfg.Rubric, cfg.Style, judge, os.Stderr)
	dispatcher := dispatch.New(cfg.Dispatch, os.Stderr)
	runner, err := session.New(backends, dispatcher, scorer, prompt.Builder{Style: cfg.Style}, cfg.Rubric, cfg.Session, os.Stderr)
	if err != nil {
		return err
	}

	res, runErr := runner.Run(cmd.Context(), topic, title)

	if noSave, _ := cmd.Flags().GetBool("no-save"); !noSave && res != nil {
		store, err := history.NewStore(cfg.History)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: history unavailable: %v\n", err)
		} else {
			defer store.Close()
			if err := store.Save(cmd.Context(), res); err != nil {
				fmt.Fprintf(os.Stderr, "warning: saving session: %v\n", err)
			}
		}
	}

	if runErr != nil {
		return runErr
	}

	path, err := publish.New(cfg.Publish).Publish(res)
	if err != nil {
		return err
	}

	fmt.Printf("Session %s finished in state %s\n", res.ID, res.State)
	fmt.Printf("Winner: %s (%s), %s\n", res.Best.Draft.Backend, res.Best.Draft.Model, score.Summarize(res.Best.Report))
	fmt.Printf("Cycles: %d  Drafts: %d  Tokens: %d  Cost: $%.4f\n",
		len(res.Cycles), res.Totals.Drafts, res.Totals.Tokens, res.Totals.Cost)
	fmt.Printf("Published to %s\n", path)
	return nil
}

// judgeFromFlag resolves the --judge backend by name. An empty flag means
// no judge: grammar and argument take the baseline score.
func judgeFromFlag(cmd *cobra.Command, backends []backend.Backend) (score.Judge, error) {
	name, _ := cmd.Flags().GetString("judge")
	if name == "" {
		return nil, nil
	}
	for _, b := range backends {
		if b.Name() == name {
			return &score.LLMJudge{Backend: b}, nil
		}
	}
	return nil, fmt.Errorf("judge backend %q not found in configuration", name)
}
