// Package promptdir reads a folder of per-item prompt text files for the
// consolidation pipeline.
package promptdir

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/timmy/capeval/internal/domain"
	"github.com/timmy/capeval/internal/logger"
)

// Load reads every .txt file in dir and returns one PromptRecord per file,
// sorted ascending by the numeric identifier embedded in the filename.
// Files without a digit run and files that cannot be read are skipped with a
// logged warning.
// Parameters:
//   - ctx: context carrying the run logger.
//   - dir: folder containing the prompt text files.
//
// Returns:
//   - []domain.PromptRecord: sorted prompt records.
//   - error: non-nil when the folder itself cannot be listed.
func Load(ctx context.Context, dir string) ([]domain.PromptRecord, error) {
	log := logger.FromContext(ctx)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompt folder: %w", err)
	}

	var records []domain.PromptRecord
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}

		id, ok := domain.NumericID(entry.Name())
		if !ok {
			log.WithField("file", entry.Name()).Warn("No numeric ID in filename, skipping")
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			log.WithField("file", entry.Name()).WithError(err).Warn("Failed to read prompt file, skipping")
			continue
		}

		records = append(records, domain.PromptRecord{
			ID:     id,
			Prompt: strings.TrimSpace(string(data)),
		})
	}

	domain.SortPrompts(records)
	return records, nil
}
