// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dispatch fans generation requests out to backends in parallel
// and gathers the results in dispatch order. A backend failure never
// aborts the batch; it lands as a failed draft in its slot.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/draft-engine/internal/backend"
	"github.com/pdiddy/draft-engine/pkg/types"
)

// ErrAllBackendsFailed is returned when every call in a batch failed.
var ErrAllBackendsFailed = errors.New("all backends failed")

const defaultCallTimeout = 60 * time.Second

// A Call pairs one backend with the request it should serve.
type Call struct {
	Backend backend.Backend
	Req     types.GenerationRequest
}

// Dispatcher runs batches of generation calls.
type Dispatcher struct {
	timeout time.Duration
	out     io.Writer
}

func New(cfg types.DispatchConfig, out io.Writer) *Dispatcher {
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	if out == nil {
		out = io.Discard
	}
	return &Dispatcher{timeout: timeout, out: out}
}

// Dispatch runs all calls concurrently, each under its own timeout, and
// returns one draft per call in the order the calls were given. The
// returned error is ErrAllBackendsFailed when no call produced text, or
// the context error if the batch was cancelled; individual failures are
// recorded on the drafts themselves.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []Call) ([]types.Draft, error) {
	if len(calls) == 0 {
		return nil, fmt.Errorf("no calls to dispatch")
	}

	drafts := make([]types.Draft, len(calls))
	g, gctx := errgroup.WithContext(ctx)

	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			drafts[i] = d.run(gctx, call)
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return drafts, err
	}

	failed := 0
	for _, dr := range drafts {
		if dr.Failed() {
			failed++
		}
	}
	if failed == len(drafts) {
		return drafts, ErrAllBackendsFailed
	}
	return drafts, nil
}

// run executes a single call and converts the outcome into a draft.
func (d *Dispatcher) run(ctx context.Context, call Call) types.Draft {
	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	gen, err := call.Backend.Generate(callCtx, call.Req)
	elapsed := time.Since(start)

	draft := types.Draft{
		Backend:  call.Backend.Name(),
		Model:    gen.Model,
		Strategy: call.Req.Strategy,
		Cycle:    call.Req.Cycle,
		Latency:  elapsed,
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", d.timeout, err)
		}
		draft.Err = err.Error()
		fmt.Fprintf(d.out, "warning: backend %s failed: %v\n", call.Backend.Name(), err)
		return draft
	}

	draft.Text = gen.Text
	draft.Tokens = gen.Tokens()
	draft.Cost = gen.Cost
	draft.OK = true
	return draft
}
