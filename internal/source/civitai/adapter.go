// Package civitai pairs scraped images with their JSON metadata sidecars and
// extracts the generation prompt from each.
package civitai

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/timmy/capeval/internal/logger"
	"github.com/timmy/capeval/internal/source"
)

const SourceID = "civitai"

// Adapter implements the Source interface for a folder of <base>.json +
// <base>.jpg pairs scraped from Civitai.
type Adapter struct {
	targetDir string
}

// NewAdapter creates a new Civitai adapter rooted at targetDir.
func NewAdapter(targetDir string) *Adapter {
	return &Adapter{targetDir: targetDir}
}

// GetSourceID returns the unique identifier for this source.
func (a *Adapter) GetSourceID() string {
	return SourceID
}

// metadata mirrors the sidecar layout; only meta.prompt is consumed.
type metadata struct {
	Meta struct {
		Prompt string `json:"prompt"`
	} `json:"meta"`
}

// LoadItems scans the target folder for .json files with an existing sibling
// .jpg, extracts non-empty prompts and drops duplicate prompts. Sidecars
// that fail to parse are skipped with a logged warning.
func (a *Adapter) LoadItems(ctx context.Context) ([]source.Item, error) {
	log := logger.FromContext(ctx)

	entries, err := os.ReadDir(a.targetDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list target folder: %w", err)
	}

	// Deterministic order regardless of filesystem listing.
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	seenPrompts := make(map[string]bool)
	var items []source.Item

	for _, name := range names {
		base := strings.TrimSuffix(name, ".json")
		jpgName := base + ".jpg"
		jpgPath := filepath.Join(a.targetDir, jpgName)

		if _, err := os.Stat(jpgPath); err != nil {
			continue
		}

		data, err := os.ReadFile(filepath.Join(a.targetDir, name))
		if err != nil {
			log.WithField("file", name).WithError(err).Warn("Failed to read metadata, skipping")
			continue
		}

		var meta metadata
		if err := json.Unmarshal(data, &meta); err != nil {
			log.WithField("file", name).WithError(err).Warn("Failed to parse metadata, skipping")
			continue
		}

		prompt := strings.TrimSpace(meta.Meta.Prompt)
		if prompt == "" || seenPrompts[prompt] {
			continue
		}
		seenPrompts[prompt] = true

		items = append(items, source.Item{
			ID:            base,
			Prompt:        prompt,
			ImagePath:     jpgPath,
			ImageFilename: jpgName,
		})
	}

	return items, nil
}
