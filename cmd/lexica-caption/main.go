package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/timmy/capeval/internal/batch"
	"github.com/timmy/capeval/internal/caption"
	"github.com/timmy/capeval/internal/config"
	"github.com/timmy/capeval/internal/csvio"
	"github.com/timmy/capeval/internal/domain"
	"github.com/timmy/capeval/internal/logger"
	"github.com/timmy/capeval/internal/source"
	"github.com/timmy/capeval/internal/source/lexica"
)

func main() {
	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}
	out := cfg.Lexica.OutputCSV

	ctx, cancel := context.WithCancel(appLogger.WithContext(context.Background()))
	defer cancel()
	ctx = logger.SetPipeline(ctx, "lexica")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	adapter := lexica.NewAdapter(&lexica.Config{
		DataDir:                cfg.Lexica.DataDir,
		ImageDir:               cfg.Lexica.ImageDir,
		DownloadTimeout:        cfg.Lexica.DownloadTimeout(),
		MaxConsecutiveFailures: cfg.Batch.MaxConsecutiveFailures,
	})

	items, err := adapter.LoadItems(ctx)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to extract dataset")
	}
	if len(items) == 0 {
		appLogger.Info("No valid images extracted")
		return
	}

	// Resume: images already captioned in a previous run leave the queue.
	prior, completed, err := csvio.Resume(out)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load existing output CSV")
	}
	queue := make([]source.Item, 0, len(items))
	for _, item := range items {
		if !completed[item.ImageFilename] {
			queue = append(queue, item)
		}
	}
	if len(queue) == 0 {
		appLogger.Info("All images already captioned")
		return
	}
	appLogger.WithFields(logger.Fields{
		"pending":  len(queue),
		"resumed":  len(prior),
		"extracted": len(items),
	}).Info("Starting captioning")

	client := caption.NewClient(&caption.ClientConfig{
		Model:          cfg.VLM.Model,
		APIKey:         cfg.VLM.APIKey,
		BaseURL:        cfg.VLM.BaseURL,
		MaxTokens:      cfg.VLM.MaxTokens,
		RetryCount:     cfg.Batch.RetryCount,
		RetryDelay:     cfg.Batch.RetryDelay(),
		RateLimitPause: cfg.Batch.RateLimitPause(),
	})

	runner := batch.NewRunner(client, &batch.Config{
		SaveInterval:           cfg.Batch.SaveInterval,
		MaxConsecutiveFailures: cfg.Batch.MaxConsecutiveFailures,
		RequestPause:           cfg.Batch.RequestPause(),
		CheckpointPath:         strings.TrimSuffix(out, ".csv") + "_temp.csv",
	})

	records, stats, err := runner.Run(ctx, queue)
	if err != nil {
		appLogger.WithError(err).Fatal("Captioning interrupted")
	}

	merged := append(prior, batch.Finalize(records)...)
	domain.SortRecords(merged)
	if err := csvio.WriteCaptions(out, merged); err != nil {
		appLogger.WithError(err).Fatal("Failed to write output CSV")
	}

	appLogger.WithFields(logger.Fields{
		"captioned": stats.Captioned,
		"failed":    stats.Failed,
		"aborted":   stats.Aborted,
		"rows":      len(merged),
		"output":    out,
	}).Info("Saved final captioned dataset")
}
