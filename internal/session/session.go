// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session orchestrates a generation run: fan out to backends,
// score the drafts, pick a winner, and refine it over a bounded number
// of cycles. The winner never regresses; a refinement that scores lower
// than the current best is recorded but not adopted.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/draft-engine/internal/backend"
	"github.com/pdiddy/draft-engine/internal/dispatch"
	"github.com/pdiddy/draft-engine/internal/prompt"
	"github.com/pdiddy/draft-engine/internal/score"
	"github.com/pdiddy/draft-engine/pkg/types"
)

// ErrRefinementStalled is returned when two consecutive refinement
// rounds produce no usable draft.
var ErrRefinementStalled = errors.New("two consecutive refinement rounds failed")

const (
	defaultStagnationThreshold = 0.02
	defaultMaxStagnation       = 3
)

// A Scorer turns a batch of drafts into scored drafts in slot order.
type Scorer interface {
	ScoreAll(ctx context.Context, title string, drafts []types.Draft) []types.ScoredDraft
}

// Runner drives one session from first dispatch to a terminal state.
type Runner struct {
	backends   []backend.Backend
	dispatcher *dispatch.Dispatcher
	scorer     Scorer
	builder    prompt.Builder
	rubric     types.Rubric
	cfg        types.SessionConfig
	out        io.Writer
}

// New assembles a Runner. Zero-valued session settings take defaults;
// backends must be non-empty and the rubric already validated.
func New(backends []backend.Backend, dispatcher *dispatch.Dispatcher, scorer Scorer, builder prompt.Builder, rubric types.Rubric, cfg types.SessionConfig, out io.Writer) (*Runner, error) {
	if len(backends) == 0 {
		return nil, fmt.Errorf("no backends configured")
	}
	if cfg.RefinementCycles < 0 {
		return nil, fmt.Errorf("refinement cycles must not be negative")
	}
	if cfg.StagnationThreshold <= 0 {
		cfg.StagnationThreshold = defaultStagnationThreshold
	}
	if cfg.MaxStagnation <= 0 {
		cfg.MaxStagnation = defaultMaxStagnation
	}
	if out == nil {
		out = io.Discard
	}
	return &Runner{
		backends:   backends,
		dispatcher: dispatcher,
		scorer:     scorer,
		builder:    builder,
		rubric:     rubric,
		cfg:        cfg,
		out:        out,
	}, nil
}

// Run executes the full session. The result is non-nil even on failure
// so callers can persist whatever was produced.
func (r *Runner) Run(ctx context.Context, topic, title string) (*types.SessionResult, error) {
	res := &types.SessionResult{
		ID:        uuid.NewString(),
		Topic:     topic,
		Title:     title,
		StartedAt: time.Now().UTC(),
	}
	defer func() { res.FinishedAt = time.Now().UTC() }()

	calls := make([]dispatch.Call, len(r.backends))
	for i, b := range r.backends {
		calls[i] = dispatch.Call{Backend: b, Req: r.builder.Initial(topic, title, 0, i)}
	}

	cr, err := r.runCycle(ctx, res, 0, calls)
	if cerr := ctx.Err(); cerr != nil {
		return r.fail(res, "cancelled"), cerr
	}
	if errors.Is(err, dispatch.ErrAllBackendsFailed) {
		return r.fail(res, "all backends failed on the opening round"), err
	}
	if err != nil {
		return r.fail(res, err.Error()), err
	}

	winner, ok := cr.Winner()
	if !ok {
		return r.fail(res, "no usable draft produced"), dispatch.ErrAllBackendsFailed
	}
	res.Best = winner
	fmt.Fprintf(r.out, "cycle 0 winner: %s %s\n", winner.Draft.Backend, score.Summarize(winner.Report))

	if err := r.refine(ctx, res, topic, title); err != nil {
		return res, err
	}

	if res.State != types.StateFailed {
		res.State = types.StateDone
	}
	return res, nil
}

// refine runs the refinement loop until cycles are exhausted, the score
// ceiling is met, improvement stagnates, or refinement stalls outright.
func (r *Runner) refine(ctx context.Context, res *types.SessionResult, topic, title string) error {
	stagnant := 0
	failedRounds := 0

	for cycle := 1; cycle <= r.cfg.RefinementCycles; cycle++ {
		if r.ceilingMet(res.Best) {
			fmt.Fprintf(r.out, "score %.3f meets ceiling %.3f, stopping early\n", res.Best.Report.Composite, r.rubric.Ceiling)
			return nil
		}

		res.State = types.StateRefining
		b, err := r.backendByName(res.Best.Draft.Backend)
		if err != nil {
			r.fail(res, err.Error())
			return err
		}
		fmt.Fprintf(r.out, "refining with %s, weakest category %s (cycle %d)\n", b.Name(), res.Best.Report.Weakest, cycle)

		req := r.builder.Refinement(topic, title, res.Best, cycle, 0)
		cr, err := r.runCycle(ctx, res, cycle, []dispatch.Call{{Backend: b, Req: req}})
		if cerr := ctx.Err(); cerr != nil {
			r.fail(res, "cancelled")
			return cerr
		}
		if errors.Is(err, dispatch.ErrAllBackendsFailed) {
			failedRounds++
			if failedRounds >= 2 {
				r.fail(res, ErrRefinementStalled.Error())
				return ErrRefinementStalled
			}
			fmt.Fprintf(r.out, "warning: refinement cycle %d produced no usable draft, keeping previous winner\n", cycle)
			continue
		}
		failedRounds = 0

		refined, _ := cr.Winner()
		improvement := refined.Report.Composite - res.Best.Report.Composite
		if improvement > 0 {
			res.Best = refined
			fmt.Fprintf(r.out, "cycle %d improved the winner: %s\n", cycle, score.Summarize(refined.Report))
		} else {
			fmt.Fprintf(r.out, "cycle %d scored %.3f, keeping winner at %.3f\n", cycle, refined.Report.Composite, res.Best.Report.Composite)
		}

		if improvement < r.cfg.StagnationThreshold {
			stagnant++
			if stagnant >= r.cfg.MaxStagnation {
				fmt.Fprintf(r.out, "improvement stalled for %d cycles, stopping\n", stagnant)
				return nil
			}
		} else {
			stagnant = 0
		}
	}
	return nil
}

// runCycle walks one batch through dispatch, collection, scoring, and
// selection, appending the cycle to the result.
func (r *Runner) runCycle(ctx context.Context, res *types.SessionResult, cycle int, calls []dispatch.Call) (types.CycleResult, error) {
	res.State = types.StateDispatching
	fmt.Fprintf(r.out, "dispatching %d backend(s) (cycle %d)\n", len(calls), cycle)

	drafts, err := r.dispatcher.Dispatch(ctx, calls)
	if ctx.Err() != nil {
		return types.CycleResult{}, err
	}

	res.State = types.StateCollecting
	for _, d := range drafts {
		res.Totals.Add(d)
	}

	res.State = types.StateScoring
	scored := r.scorer.ScoreAll(ctx, res.Title, drafts)

	res.State = types.StateSelecting
	cr := types.CycleResult{
		Index:     cycle,
		Drafts:    scored,
		WinnerIdx: selectWinner(scored),
	}
	res.Cycles = append(res.Cycles, cr)
	return cr, err
}

// selectWinner picks the highest composite among usable drafts. Ties go
// to the earliest dispatch slot. Returns -1 when nothing is usable.
func selectWinner(scored []types.ScoredDraft) int {
	winner := -1
	best := -1.0
	for i, sd := range scored {
		if sd.Draft.Failed() {
			continue
		}
		if sd.Report.Composite > best {
			winner = i
			best = sd.Report.Composite
		}
	}
	return winner
}

func (r *Runner) ceilingMet(best types.ScoredDraft) bool {
	return r.rubric.Ceiling > 0 && best.Report.Composite >= r.rubric.Ceiling
}

func (r *Runner) backendByName(name string) (backend.Backend, error) {
	for _, b := range r.backends {
		if b.Name() == name {
			return b, nil
		}
	}
	return nil, fmt.Errorf("winner backend %q no longer configured", name)
}

func (r *Runner) fail(res *types.SessionResult, reason string) *types.SessionResult {
	res.State = types.StateFailed
	res.FailureReason = reason
	fmt.Fprintf(r.out, "session failed: %s\n", reason)
	return res
}
