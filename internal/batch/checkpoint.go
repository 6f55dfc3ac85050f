package batch

import (
	"context"

	"github.com/timmy/capeval/internal/csvio"
	"github.com/timmy/capeval/internal/domain"
	"github.com/timmy/capeval/internal/logger"
)

// CheckpointWriter persists the accumulated records mid-batch so a crash
// loses at most one interval's worth of work. The driver flushes it on every
// exit path, not just at interval boundaries.
type CheckpointWriter struct {
	path     string
	interval int
}

// NewCheckpointWriter creates a writer for the given checkpoint path.
// A non-positive interval disables interval flushes; Flush still works.
func NewCheckpointWriter(path string, interval int) *CheckpointWriter {
	return &CheckpointWriter{path: path, interval: interval}
}

// MaybeFlush writes a checkpoint when processed lands on an interval
// boundary. Checkpointing is best effort: failures are logged, never fatal.
func (w *CheckpointWriter) MaybeFlush(ctx context.Context, records []domain.CaptionRecord, processed int) {
	if w.path == "" || w.interval <= 0 || processed == 0 || processed%w.interval != 0 {
		return
	}
	w.Flush(ctx, records)
}

// Flush unconditionally writes the accumulated records to the checkpoint file.
func (w *CheckpointWriter) Flush(ctx context.Context, records []domain.CaptionRecord) {
	if w.path == "" {
		return
	}
	log := logger.FromContext(ctx)
	if err := csvio.WriteCaptions(w.path, records); err != nil {
		log.WithField("checkpoint", w.path).WithError(err).Warn("Failed to write checkpoint")
		return
	}
	log.WithFields(logger.Fields{
		"checkpoint":      w.path,
		logger.FieldCount: len(records),
	}).Info("Checkpoint saved")
}
