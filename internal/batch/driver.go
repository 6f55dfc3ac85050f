// Package batch drives the sequential caption loop shared by every
// captioning pipeline: encode, caption, accumulate, checkpoint, and abort
// once the consecutive-failure streak crosses the configured threshold.
package batch

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/timmy/capeval/internal/domain"
	"github.com/timmy/capeval/internal/imaging"
	"github.com/timmy/capeval/internal/logger"
	"github.com/timmy/capeval/internal/source"
)

// Captioner produces a caption for a base64 PNG image. An empty caption
// marks a failed item; an error is returned only on cancellation.
type Captioner interface {
	Caption(ctx context.Context, b64Image string) (string, error)
}

// Config holds the driver policy. Thresholds come from the shared batch
// configuration so every pipeline runs the same policy.
type Config struct {
	SaveInterval           int
	MaxConsecutiveFailures int
	RequestPause           time.Duration
	CheckpointPath         string // empty disables checkpointing
}

// Stats summarizes one batch run.
type Stats struct {
	Total     int
	Captioned int
	Failed    int
	Aborted   bool
}

// Runner executes a batch of captioning work items.
type Runner struct {
	captioner Captioner
	cfg       Config

	// encode and sleep are swappable in tests.
	encode func(path string) (string, error)
	sleep  func(time.Duration)
}

// NewRunner creates a batch runner.
// Parameters:
//   - captioner: captioning client.
//   - cfg: driver policy; nil-safe fields are defaulted.
//
// Returns:
//   - *Runner: initialized runner.
func NewRunner(captioner Captioner, cfg *Config) *Runner {
	c := *cfg
	if c.MaxConsecutiveFailures <= 0 {
		c.MaxConsecutiveFailures = 10
	}
	return &Runner{
		captioner: captioner,
		cfg:       c,
		encode:    imaging.EncodeBase64PNG,
		sleep:     time.Sleep,
	}
}

// Run processes items in order and returns every attempted record, failed
// ones included. Records accumulate append-only; the checkpoint writer
// flushes them every SaveInterval items and on every exit path. The run
// aborts early once MaxConsecutiveFailures items fail in a row.
// Parameters:
//   - ctx: context for cancellation; carries the run logger.
//   - items: bounded work queue.
//
// Returns:
//   - []domain.CaptionRecord: attempted records in processing order.
//   - *Stats: run summary.
//   - error: non-nil only on cancellation.
func (r *Runner) Run(ctx context.Context, items []source.Item) ([]domain.CaptionRecord, *Stats, error) {
	ctx = logger.SetRunID(ctx, uuid.New().String())
	log := logger.FromContext(ctx)

	stats := &Stats{Total: len(items)}
	records := make([]domain.CaptionRecord, 0, len(items))
	ckpt := NewCheckpointWriter(r.cfg.CheckpointPath, r.cfg.SaveInterval)
	defer func() {
		ckpt.Flush(ctx, records)
	}()

	log.WithField(logger.FieldCount, len(items)).Info("Starting captioning batch")
	start := time.Now()
	streak := 0

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return records, stats, err
		}

		record := domain.CaptionRecord{
			ID:            item.ID,
			Prompt:        item.Prompt,
			ImageFilename: item.ImageFilename,
		}

		b64, err := r.encode(item.ImagePath)
		if err != nil {
			log.WithField(logger.FieldImage, item.ImageFilename).WithError(err).Warn("Image encoding failed")
		} else {
			caption, err := r.captioner.Caption(ctx, b64)
			if err != nil {
				return records, stats, err
			}
			record.Caption = caption
			if r.cfg.RequestPause > 0 {
				r.sleep(r.cfg.RequestPause)
			}
		}

		records = append(records, record)
		if record.Failed() {
			stats.Failed++
			streak++
			if streak >= r.cfg.MaxConsecutiveFailures {
				stats.Aborted = true
				log.WithField(logger.FieldCount, streak).Error("Too many consecutive failures, aborting batch")
				break
			}
		} else {
			stats.Captioned++
			streak = 0
		}

		ckpt.MaybeFlush(ctx, records, i+1)
	}

	log.WithFields(logger.Fields{
		"total":                stats.Total,
		"captioned":            stats.Captioned,
		"failed":               stats.Failed,
		"aborted":              stats.Aborted,
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
	}).Info("Captioning batch finished")

	return records, stats, nil
}

// Finalize filters out failed records and sorts the remainder by identifier.
// This is the shape every terminal CSV artifact is written in.
func Finalize(records []domain.CaptionRecord) []domain.CaptionRecord {
	final := make([]domain.CaptionRecord, 0, len(records))
	for _, r := range records {
		if !r.Failed() {
			final = append(final, r)
		}
	}
	domain.SortRecords(final)
	return final
}
