// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pdiddy/draft-engine/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(types.HistoryConfig{Dir: t.TempDir(), MaxResults: 5})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleSession(id string, started time.Time) *types.SessionResult {
	winner := types.ScoredDraft{
		Draft: types.Draft{
			Backend: "claude", Model: "claude-sonnet-4-20250514",
			Text: "The winning draft.", Strategy: "technical",
			Latency: 1200 * time.Millisecond, Tokens: 450, Cost: 0.0071, OK: true,
		},
		Report: types.ScoreReport{
			Categories: map[string]float64{"grammar": 0.9, "argument": 0.88, "style": 1.0, "cliche": 1.0, "brevity": 0.95},
			Composite:  0.93, Grade: "A", Pass: true, Weakest: "argument",
			Feedback: map[string]string{"argument": "could be tighter"},
		},
	}
	failed := types.ScoredDraft{
		Draft: types.Draft{Backend: "gpt", Model: "gpt-4.1", Err: "timed out after 60s"},
		Report: types.ScoreReport{
			Categories: map[string]float64{"grammar": 0, "argument": 0, "style": 0, "cliche": 0, "brevity": 0},
			Grade:      "F", Weakest: "grammar",
			Feedback: map[string]string{"grammar": "generation failed: timed out after 60s"},
		},
	}

	res := &types.SessionResult{
		ID:         id,
		Topic:      "edge caching economics",
		Title:      "Cache Rules Everything",
		State:      types.StateDone,
		StartedAt:  started,
		FinishedAt: started.Add(30 * time.Second),
		Cycles: []types.CycleResult{
			{Index: 0, Drafts: []types.ScoredDraft{winner, failed}, WinnerIdx: 0},
		},
		Best: winner,
	}
	res.Totals.Add(winner.Draft)
	res.Totals.Add(failed.Draft)
	return res
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	started := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	want := sampleSession("sess-1", started)
	if err := store.Save(ctx, want); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatal(err)
	}

	if got.Topic != want.Topic {
		t.Errorf("topic = %q, want %q", got.Topic, want.Topic)
	}
	if got.State != types.StateDone {
		t.Errorf("state = %q, want DONE", got.State)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("started_at = %v, want %v", got.StartedAt, started)
	}
	if got.Totals.Drafts != 2 || got.Totals.Tokens != 450 {
		t.Errorf("totals = %+v, want 2 drafts, 450 tokens", got.Totals)
	}
	if got.Best.Draft.Text != "The winning draft." {
		t.Errorf("best text = %q", got.Best.Draft.Text)
	}
	if got.Best.Report.Composite != 0.93 {
		t.Errorf("best composite = %f, want 0.93", got.Best.Report.Composite)
	}

	if len(got.Cycles) != 1 {
		t.Fatalf("got %d cycles, want 1", len(got.Cycles))
	}
	cycle := got.Cycles[0]
	if cycle.WinnerIdx != 0 {
		t.Errorf("winner idx = %d, want 0", cycle.WinnerIdx)
	}
	if len(cycle.Drafts) != 2 {
		t.Fatalf("got %d drafts, want 2", len(cycle.Drafts))
	}
	if cycle.Drafts[0].Draft.Backend != "claude" || cycle.Drafts[1].Draft.Backend != "gpt" {
		t.Errorf("draft order not preserved: %q, %q",
			cycle.Drafts[0].Draft.Backend, cycle.Drafts[1].Draft.Backend)
	}
	if !cycle.Drafts[1].Draft.Failed() {
		t.Error("failed draft lost its failure flag")
	}
	if cycle.Drafts[0].Report.Categories["argument"] != 0.88 {
		t.Errorf("category scores not round-tripped: %+v", cycle.Drafts[0].Report.Categories)
	}
	if cycle.Drafts[0].Draft.Latency != 1200*time.Millisecond {
		t.Errorf("latency = %v, want 1.2s", cycle.Drafts[0].Draft.Latency)
	}
}

func TestGetMissingSession(t *testing.T) {
	store := testStore(t)
	if _, err := store.Get(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for missing session")
	}
}

func TestSaveReplacesExisting(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	res := sampleSession("sess-1", time.Now().UTC())
	if err := store.Save(ctx, res); err != nil {
		t.Fatal(err)
	}
	res.State = types.StateFailed
	res.FailureReason = "all backends failed"
	if err := store.Save(ctx, res); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.State != types.StateFailed {
		t.Errorf("state = %q, want FAILED", got.State)
	}
	if len(got.Cycles[0].Drafts) != 2 {
		t.Errorf("drafts duplicated on re-save: got %d", len(got.Cycles[0].Drafts))
	}
}

func TestListNewestFirstAndCapped(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 8; i++ {
		res := sampleSession(fmt.Sprintf("sess-%d", i), base.Add(time.Duration(i)*time.Hour))
		if err := store.Save(ctx, res); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 {
		t.Fatalf("got %d sessions, want cap of 5", len(got))
	}
	if got[0].ID != "sess-7" {
		t.Errorf("first = %s, want sess-7 (newest)", got[0].ID)
	}
	for i := 1; i < len(got); i++ {
		if got[i].StartedAt.After(got[i-1].StartedAt) {
			t.Errorf("listing not newest-first at index %d", i)
		}
	}
}

func TestAggregate(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	ok := sampleSession("sess-ok", time.Now().UTC())
	if err := store.Save(ctx, ok); err != nil {
		t.Fatal(err)
	}
	bad := sampleSession("sess-bad", time.Now().UTC())
	bad.State = types.StateFailed
	if err := store.Save(ctx, bad); err != nil {
		t.Fatal(err)
	}

	stats, err := store.Aggregate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Sessions != 2 || stats.Completed != 1 || stats.Failed != 1 {
		t.Errorf("stats = %+v, want 2 sessions, 1 completed, 1 failed", stats)
	}
	if stats.Drafts != 4 {
		t.Errorf("drafts = %d, want 4", stats.Drafts)
	}
	if stats.BestComposite != 0.93 {
		t.Errorf("best composite = %f, want 0.93", stats.BestComposite)
	}
}

func TestAggregateEmpty(t *testing.T) {
	store := testStore(t)
	stats, err := store.Aggregate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Sessions != 0 {
		t.Errorf("sessions = %d, want 0", stats.Sessions)
	}
}
