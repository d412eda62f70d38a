// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/draft-engine/internal/score"
	"github.com/pdiddy/draft-engine/internal/secrets"
	"github.com/pdiddy/draft-engine/pkg/types"
)

// defaultConfig returns the pipeline settings used when the config file
// omits a section.
func defaultConfig() types.PipelineConfig {
	return types.PipelineConfig{
		HTTP: types.HTTPConfig{
			Timeout:   120 * time.Second,
			UserAgent: "draft-engine/" + version,
		},
		Rubric: score.DefaultRubric(),
		Style: types.StyleOptions{
			Tone:                     "analytical",
			TargetWords:              500,
			MaxWords:                 600,
			MaxSentencesPerParagraph: 4,
		},
		Dispatch: types.DispatchConfig{CallTimeout: 60 * time.Second},
		Session: types.SessionConfig{
			RefinementCycles:    3,
			StagnationThreshold: 0.02,
			MaxStagnation:       3,
		},
		History: types.HistoryConfig{Dir: "history", MaxResults: 20},
		Publish: types.PublishConfig{Dir: "output/posts"},
	}
}

// loadPipelineConfig merges the discovered config file over the defaults
// and fills missing backend API keys from the secrets directory.
func loadPipelineConfig() (types.PipelineConfig, error) {
	cfg := defaultConfig()

	if path := viper.ConfigFileUsed(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	for i := range cfg.Backends {
		if cfg.Backends[i].APIKey == "" {
			cfg.Backends[i].APIKey = secrets.APIKey(loadedSecrets, cfg.Backends[i].Provider)
		}
	}

	if err := score.ValidateRubric(cfg.Rubric); err != nil {
		return cfg, fmt.Errorf("invalid rubric: %w", err)
	}
	return cfg, nil
}

// mockBackends replaces every configured backend with an offline mock,
// keeping names and order for a faithful dry run. With no backends
// configured at all it fabricates a three-way batch.
func mockBackends(cfg *types.PipelineConfig) {
	if len(cfg.Backends) == 0 {
		cfg.Backends = []types.BackendConfig{
			{Name: "mock-a", Provider: types.ProviderMock, Model: "mock"},
			{Name: "mock-b", Provider: types.ProviderMock, Model: "mock"},
			{Name: "mock-c", Provider: types.ProviderMock, Model: "mock"},
		}
		return
	}
	for i := range cfg.Backends {
		cfg.Backends[i].Provider = types.ProviderMock
		cfg.Backends[i].APIKey = ""
	}
}
