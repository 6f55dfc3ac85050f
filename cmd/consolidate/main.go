package main

import (
	"context"
	"flag"

	"github.com/timmy/capeval/internal/config"
	"github.com/timmy/capeval/internal/csvio"
	"github.com/timmy/capeval/internal/logger"
	"github.com/timmy/capeval/internal/source/promptdir"
)

func main() {
	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	configPath := flag.String("config", "", "Path to config file")
	promptDir := flag.String("prompts", "", "Prompt folder override")
	output := flag.String("output", "", "Output CSV path override")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	dir := cfg.Consolidate.PromptDir
	if *promptDir != "" {
		dir = *promptDir
	}
	out := cfg.Consolidate.OutputCSV
	if *output != "" {
		out = *output
	}

	ctx := logger.SetPipeline(appLogger.WithContext(context.Background()), "consolidate")

	records, err := promptdir.Load(ctx, dir)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to read prompt folder")
	}

	if err := csvio.WritePrompts(out, records); err != nil {
		appLogger.WithError(err).Fatal("Failed to write output CSV")
	}

	appLogger.WithFields(logger.Fields{
		logger.FieldCount: len(records),
		"output":          out,
	}).Info("Saved sorted prompts")
}
