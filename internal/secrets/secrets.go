// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets resolves backend API keys. Keys come from a directory of
// plain-text files (the filename is the key name, the trimmed contents are
// the value) with provider environment variables as a fallback.
//
// Supported key files: openai-api-key, anthropic-api-key, google-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/draft-engine/pkg/types"
)

// providerKeys maps a backend provider to its key file under the secrets
// directory and its conventional environment variable.
var providerKeys = map[types.BackendProvider]struct {
	file string
	env  string
}{
	types.ProviderOpenAI:    {"openai-api-key", "OPENAI_API_KEY"},
	types.ProviderAnthropic: {"anthropic-api-key", "ANTHROPIC_API_KEY"},
	types.ProviderGemini:    {"google-api-key", "GOOGLE_API_KEY"},
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// APIKey returns the key for provider, preferring the loaded secrets map and
// falling back to the provider's environment variable. The empty string means
// no key is configured; mock backends need none.
func APIKey(loaded map[string]string, provider types.BackendProvider) string {
	entry, ok := providerKeys[provider]
	if !ok {
		return ""
	}
	if key := loaded[entry.file]; key != "" {
		return key
	}
	return os.Getenv(entry.env)
}
