package main

import (
	"flag"
	"fmt"

	"github.com/timmy/capeval/internal/config"
	"github.com/timmy/capeval/internal/logger"
	"github.com/timmy/capeval/internal/stats"
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

	report("Faithfulness", cfg.PCA.FaithfulnessCSV, stats.FaithfulnessColumns)
	fmt.Println()
	report("Richness", cfg.PCA.RichnessCSV, stats.RichnessColumns)
}

func report(group, path string, columns []string) {
	log := logger.GetDefault().WithField("group", group)

	rows, err := stats.LoadMetricColumns(path, columns)
	if err != nil {
		log.WithError(err).Fatal("Failed to load metric scores")
	}

	loadings, err := stats.PC1Loadings(columns, rows)
	if err != nil {
		log.WithError(err).Fatal("Failed to compute PCA loadings")
	}

	fmt.Printf("%s PC1 loadings (abs):\n", group)
	for _, l := range loadings {
		fmt.Printf("%-18s %.6f\n", l.Column, l.Weight)
	}
}
