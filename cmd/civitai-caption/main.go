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
	"github.com/timmy/capeval/internal/logger"
	"github.com/timmy/capeval/internal/source/civitai"
)

func main() {
	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	configPath := flag.String("config", "", "Path to config file")
	targetDir := flag.String("target", "", "Image/metadata folder override")
	output := flag.String("output", "", "Output CSV path override")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	dir := cfg.Civitai.TargetDir
	if *targetDir != "" {
		dir = *targetDir
	}
	out := cfg.Civitai.OutputCSV
	if *output != "" {
		out = *output
	}

	ctx, cancel := context.WithCancel(appLogger.WithContext(context.Background()))
	defer cancel()
	ctx = logger.SetPipeline(ctx, "civitai")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	adapter := civitai.NewAdapter(dir)
	items, err := adapter.LoadItems(ctx)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load work items")
	}
	appLogger.WithField(logger.FieldCount, len(items)).Info("Extracted unique prompts")

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

	records, stats, err := runner.Run(ctx, items)
	if err != nil {
		appLogger.WithError(err).Fatal("Captioning interrupted")
	}

	final := batch.Finalize(records)
	if err := csvio.WriteCaptions(out, final); err != nil {
		appLogger.WithError(err).Fatal("Failed to write output CSV")
	}

	appLogger.WithFields(logger.Fields{
		"captioned": stats.Captioned,
		"failed":    stats.Failed,
		"aborted":   stats.Aborted,
		"output":    out,
	}).Info("Saved cleaned captioned CSV")
}
