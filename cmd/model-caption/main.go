package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/timmy/capeval/internal/batch"
	"github.com/timmy/capeval/internal/caption"
	"github.com/timmy/capeval/internal/config"
	"github.com/timmy/capeval/internal/csvio"
	"github.com/timmy/capeval/internal/logger"
	"github.com/timmy/capeval/internal/source/modelout"
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

	ctx, cancel := context.WithCancel(appLogger.WithContext(context.Background()))
	defer cancel()
	ctx = logger.SetPipeline(ctx, "model")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	client := caption.NewClient(&caption.ClientConfig{
		Model:          cfg.VLM.Model,
		APIKey:         cfg.VLM.APIKey,
		BaseURL:        cfg.VLM.BaseURL,
		MaxTokens:      cfg.VLM.MaxTokens,
		RetryCount:     cfg.Batch.RetryCount,
		RetryDelay:     cfg.Batch.RetryDelay(),
		RateLimitPause: cfg.Batch.RateLimitPause(),
	})

	for _, model := range cfg.Models.ModelFolders {
		mctx := logger.WithField(ctx, logger.FieldModel, model)
		log := logger.FromContext(mctx)

		adapter := modelout.NewAdapter(cfg.Models.BaseFolder, model, cfg.Models.NumSamples)
		items, err := adapter.LoadItems(mctx)
		if err != nil {
			log.WithError(err).Error("Failed to load model folder, skipping")
			continue
		}

		runner := batch.NewRunner(client, &batch.Config{
			SaveInterval:           cfg.Batch.SaveInterval,
			MaxConsecutiveFailures: cfg.Batch.MaxConsecutiveFailures,
			RequestPause:           cfg.Batch.RequestPause(),
			CheckpointPath:         filepath.Join(cfg.Models.OutputDir, model+"_captions_temp.csv"),
		})

		records, stats, err := runner.Run(mctx, items)
		if err != nil {
			log.WithError(err).Fatal("Captioning interrupted")
		}

		final := batch.Finalize(records)
		outPath := filepath.Join(cfg.Models.OutputDir, model+"_captions_sorted.csv")
		if err := csvio.WriteCaptions(outPath, final); err != nil {
			log.WithError(err).Fatal("Failed to write output CSV")
		}

		log.WithFields(logger.Fields{
			"captioned": stats.Captioned,
			"failed":    stats.Failed,
			"aborted":   stats.Aborted,
			"output":    outPath,
		}).Info("Final sorted save")
	}
}
