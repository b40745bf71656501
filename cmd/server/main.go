package main

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yekaditya11/shindler-oicc-sub001/internal/cleaner"
	"github.com/yekaditya11/shindler-oicc-sub001/internal/config"
	"github.com/yekaditya11/shindler-oicc-sub001/internal/database"
	"github.com/yekaditya11/shindler-oicc-sub001/internal/ingestion"
	"github.com/yekaditya11/shindler-oicc-sub001/internal/schema"
	"github.com/yekaditya11/shindler-oicc-sub001/internal/server"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	logger := cfg.Logger()

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

	catalog, err := buildCatalog(cfg)
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

	uploadService := server.NewUploadService(svc, store, catalog, logger, cfg.MaxUploadSize)

	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.SetupRoutes(uploadService),
		ReadTimeout:  time.Minute,
		WriteTimeout: 2 * time.Minute,
	}

	logger.WithField("addr", addr).Info("ingestion server listening")
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatalf("server stopped: %v", err)
	}
}

func buildCatalog(cfg *config.Config) (*schema.Catalog, error) {
	if cfg.SchemaConfigPath != "" {
		return schema.NewCatalogFromFile(cfg.SchemaConfigPath)
	}
	return schema.NewCatalog(schema.DefaultDefinitions()...)
}
