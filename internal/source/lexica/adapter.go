// Package lexica builds a captioning work queue from parquet shards of the
// Lexica Stable Diffusion dataset. Each shard row references an image either
// inline (bytes) or by URL; referenced images are downloaded into a local
// image folder and validated before they enter the queue.
package lexica

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/timmy/capeval/internal/imaging"
	"github.com/timmy/capeval/internal/logger"
	"github.com/timmy/capeval/internal/source"
)

const SourceID = "lexica"

var allowedExts = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"webp": true,
}

// Config holds adapter configuration.
type Config struct {
	DataDir                string        // folder containing .parquet shards
	ImageDir               string        // folder downloaded images are written to
	DownloadTimeout        time.Duration // per-fetch HTTP timeout
	MaxConsecutiveFailures int           // abort threshold for the download phase
}

// Adapter implements the Source interface for parquet dataset shards.
type Adapter struct {
	dataDir     string
	imageDir    string
	client      *resty.Client
	maxFailures int
}

// NewAdapter creates a new Lexica adapter.
func NewAdapter(cfg *Config) *Adapter {
	client := resty.New()
	if cfg.DownloadTimeout > 0 {
		client.SetTimeout(cfg.DownloadTimeout)
	} else {
		client.SetTimeout(10 * time.Second)
	}

	maxFailures := cfg.MaxConsecutiveFailures
	if maxFailures <= 0 {
		maxFailures = 20
	}

	return &Adapter{
		dataDir:     cfg.DataDir,
		imageDir:    cfg.ImageDir,
		client:      client,
		maxFailures: maxFailures,
	}
}

// GetSourceID returns the unique identifier for this source.
func (a *Adapter) GetSourceID() string {
	return SourceID
}

// LoadItems reads every parquet shard in the data folder, downloads the
// referenced images and returns the validated work queue. Sequential ids
// (img_0000001, ...) are assigned in shard-row order so re-runs produce the
// same filenames. The whole extraction aborts once the consecutive-failure
// streak reaches the configured threshold.
func (a *Adapter) LoadItems(ctx context.Context) ([]source.Item, error) {
	log := logger.FromContext(ctx)

	if err := os.MkdirAll(a.imageDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}

	entries, err := os.ReadDir(a.dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list data folder: %w", err)
	}
	var shards []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".parquet") {
			shards = append(shards, entry.Name())
		}
	}
	sort.Strings(shards)

	var items []source.Item
	idCounter := 1
	consecutiveFails := 0

	for _, shard := range shards {
		if ctx.Err() != nil {
			return items, ctx.Err()
		}

		rows, err := readShard(filepath.Join(a.dataDir, shard))
		if err != nil {
			log.WithField("shard", shard).WithError(err).Warn("Failed to read shard, skipping")
			continue
		}
		if len(rows) == 0 {
			log.WithField("shard", shard).Info("Empty shard, skipping")
			continue
		}
		log.WithFields(logger.Fields{"shard": shard, "rows": len(rows)}).Info("Processing shard")

		for _, row := range rows {
			if ctx.Err() != nil {
				return items, ctx.Err()
			}
			if consecutiveFails >= a.maxFailures {
				log.WithField(logger.FieldCount, consecutiveFails).Error("Aborting extraction: too many consecutive failures")
				return items, nil
			}

			item, ok, failed := a.processRow(ctx, row, idCounter)
			if failed {
				consecutiveFails++
				continue
			}
			if !ok {
				continue // skipped, not a failure
			}

			items = append(items, item)
			idCounter++
			consecutiveFails = 0
		}
	}

	return items, nil
}

// processRow resolves one shard row into a validated local image. The bool
// results distinguish a usable item, a silent skip and a counted failure.
func (a *Adapter) processRow(ctx context.Context, row shardRow, idCounter int) (item source.Item, ok bool, failed bool) {
	log := logger.FromContext(ctx)

	prompt := strings.TrimSpace(row.prompt)
	if prompt == "" {
		return item, false, false
	}

	ext := "png"
	if row.url != "" && len(row.inlineBytes) == 0 {
		var valid bool
		ext, valid = extFromURL(row.url)
		if !valid {
			return item, false, false
		}
	} else if len(row.inlineBytes) == 0 {
		return item, false, false
	}

	filename := fmt.Sprintf("img_%07d.%s", idCounter, ext)
	imgPath := filepath.Join(a.imageDir, filename)

	if _, err := os.Stat(imgPath); err == nil {
		// Already downloaded by a previous run; keep it in the queue so the
		// CSV resume logic decides whether it still needs a caption.
		return source.Item{ID: strings.TrimSuffix(filename, "."+ext), Prompt: prompt, ImagePath: imgPath, ImageFilename: filename}, true, false
	}

	imgBytes := row.inlineBytes
	if len(imgBytes) == 0 {
		data, err := a.download(ctx, row.url)
		if err != nil {
			log.WithField("url", row.url).WithError(err).Warn("Image download failed")
			return item, false, true
		}
		imgBytes = data
	}

	if err := imaging.Verify(imgBytes); err != nil {
		log.WithField(logger.FieldImage, filename).WithError(err).Warn("Downloaded image is corrupt, discarding")
		return item, false, true
	}

	if err := os.WriteFile(imgPath, imgBytes, 0o644); err != nil {
		log.WithField(logger.FieldImage, filename).WithError(err).Warn("Failed to save image")
		return item, false, true
	}

	return source.Item{
		ID:            strings.TrimSuffix(filename, "."+ext),
		Prompt:        prompt,
		ImagePath:     imgPath,
		ImageFilename: filename,
	}, true, false
}

func (a *Adapter) download(ctx context.Context, imgURL string) ([]byte, error) {
	resp, err := a.client.R().SetContext(ctx).Get(imgURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("image fetch returned HTTP %d", resp.StatusCode())
	}
	return resp.Body(), nil
}

// extFromURL pulls the lowercased file extension from an image URL, ignoring
// any query string. Only whitelisted raster formats are accepted.
func extFromURL(imgURL string) (string, bool) {
	u, err := url.Parse(imgURL)
	if err != nil {
		return "", false
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(u.Path), "."))
	if !allowedExts[ext] {
		return "", false
	}
	return ext, true
}
