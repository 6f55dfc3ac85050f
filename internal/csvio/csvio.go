// Package csvio reads and writes the CSV artifacts the pipelines hand off to
// each other. The output CSV is the sole source of truth across runs, so
// every write goes through a temp-file rename to keep the previous artifact
// intact if the process dies mid-write.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/timmy/capeval/internal/domain"
)

// CaptionHeader is the column layout of every captioning pipeline output.
var CaptionHeader = []string{"id", "prompt", "image_filename", "caption"}

// PromptHeader is the column layout of the consolidated prompt CSV.
var PromptHeader = []string{"id", "prompt_original"}

// WriteCaptions writes records to path, creating parent directories as needed.
// Parameters:
//   - path: destination CSV path.
//   - records: rows to write, in the order given.
//
// Returns:
//   - error: non-nil on filesystem or encoding failure.
func WriteCaptions(path string, records []domain.CaptionRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{r.ID, r.Prompt, r.ImageFilename, r.Caption})
	}
	return writeAtomic(path, CaptionHeader, rows)
}

// WritePrompts writes consolidated prompt records to path.
func WritePrompts(path string, records []domain.PromptRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{fmt.Sprintf("%d", r.ID), r.Prompt})
	}
	return writeAtomic(path, PromptHeader, rows)
}

// ReadCaptions loads a captioning CSV. Missing files yield an empty slice so
// first runs and resumed runs share one code path.
func ReadCaptions(path string) ([]domain.CaptionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open CSV: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	col := columnIndex(header)

	var records []domain.CaptionRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		records = append(records, domain.CaptionRecord{
			ID:            field(row, col, "id"),
			Prompt:        field(row, col, "prompt"),
			ImageFilename: field(row, col, "image_filename"),
			Caption:       field(row, col, "caption"),
		})
	}
	return records, nil
}

// Resume splits a prior output into the rows worth keeping and the set of
// image filenames that already carry a caption. Re-running a pipeline never
// re-issues a captioning call for a filename in the completed set.
// Parameters:
//   - path: prior output CSV path; may not exist.
//
// Returns:
//   - []domain.CaptionRecord: prior rows with non-empty captions.
//   - map[string]bool: completed image filenames.
//   - error: non-nil on read failure.
func Resume(path string) ([]domain.CaptionRecord, map[string]bool, error) {
	prior, err := ReadCaptions(path)
	if err != nil {
		return nil, nil, err
	}

	completed := make(map[string]bool)
	kept := make([]domain.CaptionRecord, 0, len(prior))
	for _, r := range prior {
		if r.Failed() || r.ImageFilename == "" {
			continue
		}
		if completed[r.ImageFilename] {
			continue
		}
		completed[r.ImageFilename] = true
		kept = append(kept, r)
	}
	return kept, completed, nil
}

func columnIndex(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	return col
}

func field(row []string, col map[string]int, name string) string {
	idx, ok := col[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func writeAtomic(path string, header []string, rows [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	writer := csv.NewWriter(tmp)
	if err := writer.Write(header); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace output file: %w", err)
	}
	return nil
}
