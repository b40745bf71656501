package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/yekaditya11/shindler-oicc-sub001/internal/database"
	"github.com/yekaditya11/shindler-oicc-sub001/pkg/checksum"
)

// Runner ingests every spreadsheet under a directory through a bounded worker
// pool. Files whose checksum already completed are skipped; per-file failures
// are logged and do not stop the run. Same-period collisions between workers
// serialize on the service's period lock.
type Runner struct {
	svc        *Service
	store      database.Store
	logger     *logrus.Logger
	numWorkers int
}

func NewRunner(svc *Service, store database.Store, logger *logrus.Logger, numWorkers int) *Runner {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	return &Runner{svc: svc, store: store, logger: logger, numWorkers: numWorkers}
}

type fileJob struct {
	path     string
	checksum string
}

// Run scans rootPath and ingests everything with an allowed extension.
// Returns the number of files ingested.
func (r *Runner) Run(ctx context.Context, rootPath string) (int, error) {
	jobs, err := r.scan(ctx, rootPath)
	if err != nil {
		return 0, err
	}
	r.logger.WithField("files", len(jobs)).Info("starting directory ingestion")

	jobCh := make(chan fileJob)
	var wg sync.WaitGroup
	var mu sync.Mutex
	ingested := 0

	for i := 0; i < r.numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				if r.ingestOne(ctx, job) {
					mu.Lock()
					ingested++
					mu.Unlock()
				}
			}
		}()
	}

	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)
	wg.Wait()

	r.logger.WithField("ingested", ingested).Info("directory ingestion finished")
	return ingested, nil
}

func (r *Runner) scan(ctx context.Context, rootPath string) ([]fileJob, error) {
	var jobs []fileJob
	err := filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		allowed := false
		for _, e := range r.svc.opts.AllowedExtensions {
			if ext == e {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil
		}

		sum, err := checksum.GetFileChecksum(path)
		if err != nil {
			r.logger.WithError(err).WithField("path", path).Warn("could not checksum file, skipping")
			return nil
		}

		done, err := r.store.IsFileAlreadyIngested(ctx, sum)
		if err != nil {
			return fmt.Errorf("error checking checksum for %s: %w", path, err)
		}
		if done {
			r.logger.WithField("path", path).Info("file already ingested, skipping")
			return nil
		}

		jobs = append(jobs, fileJob{path: path, checksum: sum})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory %s: %w", rootPath, err)
	}
	return jobs, nil
}

func (r *Runner) ingestOne(ctx context.Context, job fileJob) bool {
	log := r.logger.WithField("path", job.path)

	data, err := os.ReadFile(job.path)
	if err != nil {
		log.WithError(err).Error("could not read file")
		return false
	}

	report, err := r.svc.Ingest(ctx, filepath.Base(job.path), data, "file://"+job.path)
	if err != nil {
		if inputErr, ok := AsInputError(err); ok {
			log.WithField("error_kind", inputErr.Kind).Warn(inputErr.Detail)
		} else {
			log.WithError(err).Error("ingestion failed")
		}
		return false
	}

	log.WithFields(logrus.Fields{
		"schema_type":    report.SchemaType,
		"processed_rows": report.ProcessedRows,
		"failed_rows":    report.FailedRows,
		"version":        report.Version,
		"status":         report.Status,
	}).Info("file ingested")
	return true
}
