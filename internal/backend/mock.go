// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pdiddy/draft-engine/pkg/types"
)

// mockDryRunText is returned by config-built mock backends so dry runs
// produce a scorable draft without network access.
const mockDryRunText = "A placeholder draft produced without calling any provider. " +
	"It exists so the pipeline can be exercised end to end, and it cites 42% " +
	"of nothing in particular."

// Mock is a deterministic in-process backend for tests and dry runs. It
// returns canned text without network calls. When Responses is set, calls
// consume it in order and the last entry repeats.
type Mock struct {
	BackendName string
	Model       string

	// Text is returned for every call when Responses is empty.
	Text string

	// Responses overrides Text with a per-call sequence.
	Responses []string

	// Err, when set, fails every call.
	Err error

	// Delay simulates generation latency. Calls respect context
	// cancellation during the wait.
	Delay time.Duration

	mu    sync.Mutex
	calls int
}

// Name returns the backend identifier.
func (m *Mock) Name() string { return m.BackendName }

// Calls reports how many times Generate was invoked.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Generate returns the next canned response.
func (m *Mock) Generate(ctx context.Context, _ types.GenerationRequest) (Generation, error) {
	m.mu.Lock()
	n := m.calls
	m.calls++
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return Generation{}, ctx.Err()
		case <-time.After(m.Delay):
		}
	}

	if m.Err != nil {
		return Generation{}, m.Err
	}

	text := m.Text
	if len(m.Responses) > 0 {
		if n >= len(m.Responses) {
			n = len(m.Responses) - 1
		}
		text = m.Responses[n]
	}
	if text == "" {
		return Generation{}, fmt.Errorf("mock backend %s has no response configured", m.BackendName)
	}

	return Generation{
		Text:         text,
		Model:        m.Model,
		OutputTokens: estimateTokens(text),
	}, nil
}
