// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package publish

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/draft-engine/pkg/types"
)

func sampleResult() *types.SessionResult {
	res := &types.SessionResult{
		ID:    "sess-1",
		Topic: "engineering hiring in a downturn",
		Title: "Hiring When Everyone Stopped",
		State: types.StateDone,
		Best: types.ScoredDraft{
			Draft: types.Draft{
				Backend: "claude", Model: "claude-sonnet-4-20250514",
				Text: "Engineering teams cut hiring 40% last year. The data tells a different story about who kept shipping.",
				OK:   true, Tokens: 320, Cost: 0.004, Latency: 900 * time.Millisecond,
			},
			Report: types.ScoreReport{Composite: 0.91, Grade: "A-"},
		},
		Cycles: []types.CycleResult{{Index: 0}},
	}
	res.Totals.Add(res.Best.Draft)
	return res
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hiring When Everyone Stopped", "hiring-when-everyone-stopped"},
		{"What's Next: AI & You!", "whats-next-ai-you"},
		{"  spaced   out  ", "spaced-out"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Slug(tt.in); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCategories(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"AIContent", "LLM agents are rewriting automation", []string{"AI"}},
		{"Fallback", "gardening tips for the spring", []string{"trend"}},
		{
			"CappedAtThree",
			"ai startup revenue data pipeline engineering culture hiring",
			[]string{"AI", "SaaS", "data"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Categories(tt.content)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("category %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPublish(t *testing.T) {
	dir := t.TempDir()
	p := New(types.PublishConfig{Dir: dir})

	path, err := p.Publish(sampleResult())
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "hiring-when-everyone-stopped.md" {
		t.Errorf("path = %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	post := string(data)
	if !strings.HasPrefix(post, "---\n") {
		t.Error("missing front matter")
	}
	for _, want := range []string{
		`title: "Hiring When Everyone Stopped"`,
		"layout: post",
		"categories: [",
		"The data tells a different story",
	} {
		if !strings.Contains(post, want) {
			t.Errorf("post missing %q", want)
		}
	}

	statsData, err := os.ReadFile(filepath.Join(dir, "hiring-when-everyone-stopped-stats.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	stats := string(statsData)
	for _, want := range []string{"session_id: sess-1", "best_grade: A-", "drafts: 1"} {
		if !strings.Contains(stats, want) {
			t.Errorf("stats missing %q", want)
		}
	}
}

func TestPublishRendersHTML(t *testing.T) {
	dir := t.TempDir()
	p := New(types.PublishConfig{Dir: dir, RenderHTML: true})

	res := sampleResult()
	res.Best.Draft.Text = "# Heading\n\nSome *emphasis* here."
	if _, err := p.Publish(res); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "hiring-when-everyone-stopped.html"))
	if err != nil {
		t.Fatal(err)
	}
	html := string(data)
	if !strings.Contains(html, "<h1>Heading</h1>") || !strings.Contains(html, "<em>emphasis</em>") {
		t.Errorf("unexpected HTML: %s", html)
	}
}

func TestPublishUntitledUsesFirstLine(t *testing.T) {
	dir := t.TempDir()
	p := New(types.PublishConfig{Dir: dir})

	res := sampleResult()
	res.Title = ""
	res.Best.Draft.Text = "# The Quiet Cost of Microservices\n\nBody text with 12% more numbers."
	path, err := p.Publish(res)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "the-quiet-cost-of-microservices.md" {
		t.Errorf("path = %s", path)
	}
}

func TestPublishFailedSession(t *testing.T) {
	p := New(types.PublishConfig{Dir: t.TempDir()})
	res := sampleResult()
	res.Best = types.ScoredDraft{}
	if _, err := p.Publish(res); err == nil {
		t.Fatal("expected error for session without a usable draft")
	}
}
