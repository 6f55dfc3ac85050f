// Package modelout pairs generated images with their sibling enhanced-prompt
// text files inside one model-output folder.
package modelout

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/timmy/capeval/internal/domain"
	"github.com/timmy/capeval/internal/logger"
	"github.com/timmy/capeval/internal/source"
)

// Adapter implements the Source interface for one model-output folder
// containing <n>.png images with sibling <n>.txt prompts.
type Adapter struct {
	folder     string
	model      string
	numSamples int
}

// NewAdapter creates an adapter for the model folder under baseFolder.
// numSamples caps the queue to the first N images in numeric order; a
// non-positive value means no cap.
func NewAdapter(baseFolder, model string, numSamples int) *Adapter {
	return &Adapter{
		folder:     filepath.Join(baseFolder, model),
		model:      model,
		numSamples: numSamples,
	}
}

// GetSourceID returns the unique identifier for this source.
func (a *Adapter) GetSourceID() string {
	return "modelout/" + a.model
}

// LoadItems lists the folder's .png images in ascending numeric order, pairs
// each with its sibling .txt prompt and returns up to numSamples items.
// Images whose prompt file is missing or unreadable are skipped with a
// logged warning.
func (a *Adapter) LoadItems(ctx context.Context) ([]source.Item, error) {
	log := logger.FromContext(ctx).WithField(logger.FieldModel, a.model)

	entries, err := os.ReadDir(a.folder)
	if err != nil {
		return nil, fmt.Errorf("failed to list model folder: %w", err)
	}

	type candidate struct {
		id   int
		name string
	}
	var candidates []candidate
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".png") {
			continue
		}
		id, ok := domain.NumericID(entry.Name())
		if !ok {
			log.WithField("file", entry.Name()).Warn("No numeric ID in filename, skipping")
			continue
		}
		candidates = append(candidates, candidate{id: id, name: entry.Name()})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].id < candidates[j].id })
	if a.numSamples > 0 && len(candidates) > a.numSamples {
		candidates = candidates[:a.numSamples]
	}

	var items []source.Item
	for _, c := range candidates {
		txtPath := filepath.Join(a.folder, strings.TrimSuffix(c.name, ".png")+".txt")
		data, err := os.ReadFile(txtPath)
		if err != nil {
			log.WithField("file", c.name).WithError(err).Warn("Missing or unreadable prompt file, skipping")
			continue
		}

		items = append(items, source.Item{
			ID:            strconv.Itoa(c.id),
			Prompt:        strings.TrimSpace(string(data)),
			ImagePath:     filepath.Join(a.folder, c.name),
			ImageFilename: c.name,
		})
	}

	return items, nil
}
