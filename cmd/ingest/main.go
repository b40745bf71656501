package main

import (
	"context"
	"os"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yekaditya11/shindler-oicc-sub001/internal/cleaner"
	"github.com/yekaditya11/shindler-oicc-sub001/internal/config"
	"github.com/yekaditya11/shindler-oicc-sub001/internal/database"
	"github.com/yekaditya11/shindler-oicc-sub001/internal/ingestion"
	"github.com/yekaditya11/shindler-oicc-sub001/internal/schema"
)

// One-shot batch mode: ingest every spreadsheet under the directory given as
// the first argument.
func main() {
	if len(os.Args) < 2 {
		logrus.Fatal("usage: ingest <directory>")
	}
	dirPath := os.Args[1]

	cfg, err := config.New()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	logger := cfg.Logger()
	startTime := time.Now()

	ctx := context.Background()
	dbpool, err := database.ConnectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("unable to connect to database: %v", err)
	}
	defer dbpool.Close()

	store := database.NewPostgresStore(dbpool, logger)
	if err := store.Bootstrap(ctx); err != nil {
		logger.Fatalf("failed to bootstrap store: %v", err)
	}

	var catalog *schema.Catalog
	if cfg.SchemaConfigPath != "" {
		catalog, err = schema.NewCatalogFromFile(cfg.SchemaConfigPath)
	} else {
		catalog, err = schema.NewCatalog(schema.DefaultDefinitions()...)
	}
	if err != nil {
		logger.Fatalf("failed to build schema catalog: %v", err)
	}

	pattern, err := regexp.Compile(cfg.FilenamePattern)
	if err != nil {
		logger.Fatalf("invalid FILENAME_PATTERN: %v", err)
	}

	svc := ingestion.NewService(
		store,
		catalog,
		schema.NewDetector(catalog, schema.DefaultDetectorConfig()),
		cleaner.New(catalog),
		logger,
		ingestion.Options{
			BatchSize:         cfg.BatchSize,
			StoreTimeout:      cfg.StoreTimeout,
			AllowedExtensions: cfg.AllowedExtensions,
			FilenamePattern:   pattern,
		},
	)

	runner := ingestion.NewRunner(svc, store, logger, cfg.NumIngestWorkers)
	ingested, err := runner.Run(ctx, dirPath)
	if err != nil {
		logger.Fatalf("error during ingestion: %v", err)
	}

	logger.WithFields(logrus.Fields{
		"ingested": ingested,
		"elapsed":  time.Since(startTime).String(),
	}).Info("batch ingestion finished")
}
