// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/draft-engine/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect past generation sessions",
	Long: `History reads the session database written by generate. Use subcommands
to list recent sessions, show one in full, or aggregate usage statistics.`,
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent sessions, newest first",
	RunE:  runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	sessions, err := store.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions recorded.")
		return nil
	}

	fmt.Printf("%-36s  %-8s  %-6s  %-5s  %-8s  %-19s  %s\n",
		"ID", "State", "Score", "Grade", "Cost", "Started", "Topic")
	for _, s := range sessions {
		topic := s.Topic
		if len(topic) > 40 {
			topic = topic[:37] + "..."
		}
		fmt.Printf("%-36s  %-8s  %.3f  %-5s  $%.4f  %-19s  %s\n",
			s.ID, s.State, s.BestComposite, s.BestGrade, s.Cost,
			s.StartedAt.Format("2006-01-02 15:04:05"), topic)
	}
	return nil
}

// --- show subcommand ---

var historyShowCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Show one session with every cycle and draft",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	res, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Printf("Session %s  [%s]\n", res.ID, res.State)
	fmt.Printf("Topic: %s\n", res.Topic)
	if res.Title != "" {
		fmt.Printf("Title: %s\n", res.Title)
	}
	if res.FailureReason != "" {
		fmt.Printf("Failure: %s\n", res.FailureReason)
	}
	fmt.Printf("Started: %s  Drafts: %d  Tokens: %d  Cost: $%.4f\n\n",
		res.StartedAt.Format("2006-01-02 15:04:05"), res.Totals.Drafts, res.Totals.Tokens, res.Totals.Cost)

	for _, cycle := range res.Cycles {
		fmt.Printf("Cycle %d:\n", cycle.Index)
		for slot, sd := range cycle.Drafts {
			marker := " "
			if slot == cycle.WinnerIdx {
				marker = "*"
			}
			if sd.Draft.Failed() {
				fmt.Printf("  %s %-10s %-28s failed: %s\n", marker, sd.Draft.Backend, sd.Draft.Model, sd.Draft.Err)
				continue
			}
			fmt.Printf("  %s %-10s %-28s %.3f (%s)  %s  %dms\n",
				marker, sd.Draft.Backend, sd.Draft.Model,
				sd.Report.Composite, sd.Report.Grade, sd.Draft.Strategy,
				sd.Draft.Latency.Milliseconds())
		}
	}

	fmt.Printf("\nWinning draft (%s, %.3f):\n\n%s\n",
		res.Best.Draft.Backend, res.Best.Report.Composite, res.Best.Draft.Text)
	return nil
}

// --- stats subcommand ---

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Aggregate usage across all sessions",
	RunE:  runHistoryStats,
}

func runHistoryStats(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Aggregate(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Sessions:   %d (%d done, %d failed)\n", stats.Sessions, stats.Completed, stats.Failed)
	fmt.Printf("Drafts:     %d\n", stats.Drafts)
	fmt.Printf("Tokens:     %d\n", stats.Tokens)
	fmt.Printf("Total cost: $%.4f\n", stats.Cost)
	fmt.Printf("Composite:  avg %.3f, best %.3f\n", stats.AvgComposite, stats.BestComposite)
	return nil
}

func openHistory() (*history.Store, error) {
	cfg, err := loadPipelineConfig()
	if err != nil {
		return nil, err
	}
	return history.NewStore(cfg.History)
}

func init() {
	historyShowCmd.Flags().Bool("json", false, "output the session as JSON")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyStatsCmd)
	rootCmd.AddCommand(historyCmd)
}
