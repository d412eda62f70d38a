// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package publish writes the winning draft to disk as a blog post with
// Hugo front matter, plus a session statistics file and an optional
// HTML rendering.
package publish

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/draft-engine/pkg/types"
)

// categoryKeywords maps a category to the content keywords that imply it.
// Categories are checked in order; at most three apply.
var categoryKeywords = []struct {
	name     string
	keywords []string
}{
	{"AI", []string{"ai", "artificial intelligence", "machine learning", "llm", "gpt", "claude", "automation", "agent"}},
	{"SaaS", []string{"saas", "software", "startup", "revenue", "business", "growth", "sales", "marketing"}},
	{"data", []string{"data", "analytics", "pipeline", "etl", "database", "warehouse", "visualization"}},
	{"management", []string{"management", "leadership", "team", "hiring", "culture", "manager", "ceo"}},
	{"technology", []string{"engineering", "developer", "programming", "code", "technical", "infrastructure"}},
}

const maxCategories = 3

var (
	nonSlugChars = regexp.MustCompile(`[^\w\s-]`)
	slugDashes   = regexp.MustCompile(`[-\s]+`)
)

// Publisher writes session output files under a target directory.
type Publisher struct {
	dir        string
	renderHTML bool
}

func New(cfg types.PublishConfig) *Publisher {
	return &Publisher{dir: cfg.Dir, renderHTML: cfg.RenderHTML}
}

// Publish writes the winning draft as <slug>.md with front matter and a
// <slug>-stats.yaml alongside it. With HTML rendering enabled it also
// writes <slug>.html. Returns the path of the markdown file.
func (p *Publisher) Publish(res *types.SessionResult) (string, error) {
	if res.Best.Draft.Failed() {
		return "", fmt.Errorf("session %s has no publishable draft", res.ID)
	}
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating publish directory: %w", err)
	}

	title := res.Title
	if title == "" {
		title = firstLine(res.Best.Draft.Text)
	}
	slug := Slug(title)
	if slug == "" {
		slug = "post-" + time.Now().Format("20060102-150405")
	}

	post := FrontMatter(title, res.Best.Draft.Text)
	mdPath := filepath.Join(p.dir, slug+".md")
	if err := os.WriteFile(mdPath, []byte(post), 0o644); err != nil {
		return "", fmt.Errorf("writing post: %w", err)
	}

	if err := p.writeStats(res, filepath.Join(p.dir, slug+"-stats.yaml")); err != nil {
		return mdPath, err
	}

	if p.renderHTML {
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(res.Best.Draft.Text), &buf); err != nil {
			return mdPath, fmt.Errorf("rendering HTML: %w", err)
		}
		htmlPath := filepath.Join(p.dir, slug+".html")
		if err := os.WriteFile(htmlPath, buf.Bytes(), 0o644); err != nil {
			return mdPath, fmt.Errorf("writing HTML: %w", err)
		}
	}

	return mdPath, nil
}

// FrontMatter prepends Hugo front matter to the post body.
func FrontMatter(title, body string) string {
	categories := Categories(body)
	var sb strings.Builder
	sb.WriteString("---\n")
	sb.WriteString("layout: post\n")
	sb.WriteString("draft: false\n")
	fmt.Fprintf(&sb, "title: %q\n", title)
	fmt.Fprintf(&sb, "categories: [%s]\n", strings.Join(categories, ", "))
	fmt.Fprintf(&sb, "date: %q\n", time.Now().Format("2006-01-02"))
	sb.WriteString("---\n\n")
	sb.WriteString(body)
	return sb.String()
}

// Categories derives up to three categories from content keywords,
// falling back to "trend" when nothing matches.
func Categories(content string) []string {
	lower := strings.ToLower(content)
	var out []string
	for _, c := range categoryKeywords {
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				out = append(out, c.name)
				break
			}
		}
		if len(out) == maxCategories {
			return out
		}
	}
	if len(out) == 0 {
		return []string{"trend"}
	}
	return out
}

// Slug converts a title into a filesystem-safe kebab-case name.
func Slug(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = nonSlugChars.ReplaceAllString(s, "")
	s = slugDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// sessionStats is the YAML shape of the per-session statistics file.
type sessionStats struct {
	SessionID     string  `yaml:"session_id"`
	Topic         string  `yaml:"topic"`
	State         string  `yaml:"state"`
	Cycles        int     `yaml:"cycles"`
	Drafts        int     `yaml:"drafts"`
	Tokens        int     `yaml:"tokens"`
	CostUSD       float64 `yaml:"cost_usd"`
	LatencyMS     int64   `yaml:"latency_ms"`
	BestBackend   string  `yaml:"best_backend"`
	BestModel     string  `yaml:"best_model"`
	BestComposite float64 `yaml:"best_composite"`
	BestGrade     string  `yaml:"best_grade"`
}

func (p *Publisher) writeStats(res *types.SessionResult, path string) error {
	stats := sessionStats{
		SessionID:     res.ID,
		Topic:         res.Topic,
		State:         string(res.State),
		Cycles:        len(res.Cycles),
		Drafts:        res.Totals.Drafts,
		Tokens:        res.Totals.Tokens,
		CostUSD:       res.Totals.Cost,
		LatencyMS:     res.Totals.Latency.Milliseconds(),
		BestBackend:   res.Best.Draft.Backend,
		BestModel:     res.Best.Draft.Model,
		BestComposite: res.Best.Report.Composite,
		BestGrade:     res.Best.Report.Grade,
	}
	data, err := yaml.Marshal(&stats)
	if err != nil {
		return fmt.Errorf("marshaling statistics: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing statistics: %w", err)
	}
	return nil
}

func firstLine(text string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	line = strings.TrimLeft(line, "# ")
	return strings.TrimRight(strings.TrimSpace(line), ".")
}
