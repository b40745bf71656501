// Package ingestion orchestrates one end-to-end spreadsheet ingestion:
// validate, detect schema, clean, replace the current reporting-period slice,
// batch insert with partial-failure tolerance, stamp a version and record the
// upload audit trail.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yekaditya11/shindler-oicc-sub001/internal/cleaner"
	"github.com/yekaditya11/shindler-oicc-sub001/internal/database"
	"github.com/yekaditya11/shindler-oicc-sub001/internal/models"
	"github.com/yekaditya11/shindler-oicc-sub001/internal/parser"
	"github.com/yekaditya11/shindler-oicc-sub001/internal/schema"
	"github.com/yekaditya11/shindler-oicc-sub001/pkg/checksum"
)

func sourceChecksum(data []byte) string {
	return checksum.FromBytes(data)
}

// Options tunes one Service instance. Zero values are replaced by defaults.
type Options struct {
	BatchSize         int
	StoreTimeout      time.Duration
	AllowedExtensions []string
	FilenamePattern   *regexp.Regexp
}

const (
	defaultBatchSize    = 2000
	defaultStoreTimeout = 30 * time.Second
)

var defaultFilenamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 ._()-]*$`)

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = defaultBatchSize
	}
	if o.StoreTimeout <= 0 {
		o.StoreTimeout = defaultStoreTimeout
	}
	if len(o.AllowedExtensions) == 0 {
		o.AllowedExtensions = []string{".xlsx", ".xls", ".csv"}
	}
	if o.FilenamePattern == nil {
		o.FilenamePattern = defaultFilenamePattern
	}
	return o
}

type Service struct {
	store    database.Store
	catalog  *schema.Catalog
	detector *schema.Detector
	cleaner  *cleaner.Cleaner
	locks    *periodLock
	logger   *logrus.Logger
	opts     Options

	// now is the clock the reporting period is derived from; injectable
	// for tests.
	now func() time.Time
}

func NewService(store database.Store, catalog *schema.Catalog, detector *schema.Detector, recordCleaner *cleaner.Cleaner, logger *logrus.Logger, opts Options) *Service {
	return &Service{
		store:    store,
		catalog:  catalog,
		detector: detector,
		cleaner:  recordCleaner,
		locks:    newPeriodLock(),
		logger:   logger,
		opts:     opts.withDefaults(),
		now:      time.Now,
	}
}

// WithClock overrides the processing-time clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Ingest runs one upload through the full pipeline and returns the ingestion
// report. Errors raised before the upload record is opened leave no trace in
// the store; anything after is always reflected in a finalized upload record.
func (s *Service) Ingest(ctx context.Context, filename string, data []byte, sourceRef string) (*models.IngestReport, error) {
	// Step 1: validate the declared filename.
	if err := s.validateFilename(filename); err != nil {
		return nil, err
	}

	// Step 2: decode the spreadsheet bytes.
	file, err := parser.Decode(filename, data)
	if err != nil {
		return nil, &InputError{Kind: KindUnparsableFile, Detail: err.Error()}
	}

	// Step 3: detect the schema.
	observed := file.ColumnLabels()
	detection, candidates := s.detector.Detect(observed)
	if detection == nil {
		return nil, &InputError{
			Kind:       KindSchemaUndetectable,
			Detail:     fmt.Sprintf("no known schema matched the columns of %s", filename),
			Candidates: candidates,
		}
	}
	def := detection.Schema

	// Step 4: authoritative column re-check, independent of detection.
	// Detection selects the best available schema, which may still be a
	// weak match.
	if ratio := schema.MatchRatio(def, observed); ratio <= s.detector.Threshold(def) {
		return nil, &InputError{
			Kind:           KindInsufficientColumnMatch,
			Detail:         fmt.Sprintf("schema %s matched at %.2f, below threshold %.2f", def.Name, ratio, s.detector.Threshold(def)),
			MissingColumns: schema.MissingColumns(def, observed),
		}
	}

	// Step 5: clean into canonical records.
	records, err := s.cleaner.Clean(file, def.Name)
	if err != nil {
		return nil, err
	}

	period := models.PeriodOf(s.now())
	log := s.logger.WithFields(logrus.Fields{
		"filename":    filename,
		"schema_type": def.Name,
		"period":      period.String(),
	})
	log.WithField("match_ratio", detection.MatchRatio).Info("schema detected, starting ingestion")

	// The replace-delete and the version stamp must be serialized per
	// (schema_type, year, month).
	release := s.locks.Acquire(def.Name, period)
	defer release()

	if err := s.storeCall(ctx, func(c context.Context) error {
		return s.store.EnsureSchemaTable(c, def.Name)
	}); err != nil {
		return nil, err
	}

	// Step 6: open the audit record. Total rows is the pre-clean count.
	upload := &models.UploadRecord{
		Filename:   filename,
		SchemaType: def.Name,
		FileSize:   int64(len(data)),
		Checksum:   sourceChecksum(data),
		TotalRows:  len(file.Rows),
	}
	var uploadID int
	if err := s.storeCall(ctx, func(c context.Context) error {
		var openErr error
		uploadID, openErr = s.store.OpenUpload(c, upload)
		return openErr
	}); err != nil {
		return nil, err
	}
	log = log.WithField("upload_id", uploadID)

	report, err := s.run(ctx, log, def.Name, period, uploadID, filename, sourceRef, file, records)
	if err != nil {
		// The upload record was opened; never leave it unaccounted for.
		s.finalize(log, uploadID, 0, 0, models.UploadStatusFailed)
		return nil, err
	}
	return report, nil
}

// run executes steps 7-10 under an open upload record.
func (s *Service) run(ctx context.Context, log *logrus.Entry, schemaType string, period models.ReportingPeriod, uploadID int, filename, sourceRef string, file *models.RawFile, records []*models.CanonicalRecord) (*models.IngestReport, error) {
	// Step 7: replace-scope delete, current period only.
	var cleared int64
	if err := s.storeCall(ctx, func(c context.Context) error {
		var delErr error
		cleared, delErr = s.store.ClearPeriodRows(c, schemaType, period)
		return delErr
	}); err != nil {
		return nil, err
	}
	log.WithField("previous_rows_cleared", cleared).Info("cleared current-period rows")

	// Step 8: sequential batch inserts. A batch failure is confined to that
	// batch; committed batches stay committed.
	processed, failed := 0, 0
	for start := 0; start < len(records); start += s.opts.BatchSize {
		end := start + s.opts.BatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		var outcome *database.BatchOutcome
		err := s.storeCall(ctx, func(c context.Context) error {
			var batchErr error
			outcome, batchErr = s.store.InsertBatch(c, schemaType, period, uploadID, batch)
			return batchErr
		})
		if err != nil {
			if errors.Is(err, ErrStoreUnavailable) {
				return nil, err
			}
			// The batch never started; its rows are failed, the run
			// continues.
			log.WithError(err).WithField("batch_start", start).Error("batch could not be attempted")
			failed += len(batch)
			continue
		}

		if outcome.CommitFailed {
			failed += len(batch)
			continue
		}
		processed += outcome.Inserted
		failed += len(outcome.RowFailures)
		for _, rowErr := range outcome.RowFailures {
			log.WithField("row", start+rowErr.RowIndex).WithError(rowErr.Err).Warn("row failed to persist")
		}
	}

	// Step 9: stamp the next version, one retry on conflict.
	version, err := s.stampVersion(ctx, schemaType, period, filename, sourceRef)
	if err != nil {
		return nil, err
	}

	// Step 10: finalize the audit record.
	status := models.UploadStatusCompleted
	if failed > 0 {
		status = models.UploadStatusPartial
	}
	if err := s.storeCall(ctx, func(c context.Context) error {
		return s.store.FinalizeUpload(c, uploadID, processed, failed, status)
	}); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"processed_rows": processed,
		"failed_rows":    failed,
		"version":        version,
		"status":         status,
	}).Info("ingestion finished")

	return &models.IngestReport{
		UploadID:            uploadID,
		SchemaType:          schemaType,
		TotalRows:           len(file.Rows),
		ProcessedRows:       processed,
		FailedRows:          failed,
		Status:              status,
		PreviousRowsCleared: int(cleared),
		Version:             version,
	}, nil
}

func (s *Service) stampVersion(ctx context.Context, schemaType string, period models.ReportingPeriod, filename, sourceRef string) (int, error) {
	var version int
	stamp := func(c context.Context) error {
		var stampErr error
		version, stampErr = s.store.StampVersion(c, schemaType, period, filename, sourceRef)
		return stampErr
	}

	err := s.storeCall(ctx, stamp)
	if errors.Is(err, database.ErrVersionConflict) {
		err = s.storeCall(ctx, stamp)
		if errors.Is(err, database.ErrVersionConflict) {
			return 0, fmt.Errorf("%w: %v", ErrVersioningConflict, err)
		}
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}

// storeCall runs one store operation under the configured timeout and maps a
// deadline hit to ErrStoreUnavailable.
func (s *Service) storeCall(ctx context.Context, fn func(context.Context) error) error {
	opCtx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()

	err := fn(opCtx)
	if err != nil && (errors.Is(err, context.DeadlineExceeded) || opCtx.Err() != nil) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}

// finalize marks an upload failed; best-effort on a fresh context since the
// caller's context may already be dead.
func (s *Service) finalize(log *logrus.Entry, uploadID, processed, failed int, status string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.StoreTimeout)
	defer cancel()

	if err := s.store.FinalizeUpload(ctx, uploadID, processed, failed, status); err != nil {
		log.WithError(err).Error("failed to finalize upload record")
	}
}

func (s *Service) validateFilename(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	allowed := false
	for _, e := range s.opts.AllowedExtensions {
		if ext == e {
			allowed = true
			break
		}
	}
	if !allowed {
		return &InputError{
			Kind:   KindInvalidExtension,
			Detail: fmt.Sprintf("extension %q is not allowed (allowed: %s)", ext, strings.Join(s.opts.AllowedExtensions, ", ")),
		}
	}

	if !s.opts.FilenamePattern.MatchString(filepath.Base(filename)) {
		return &InputError{
			Kind:   KindInvalidFilenamePattern,
			Detail: fmt.Sprintf("filename %q does not match the expected pattern", filename),
		}
	}
	return nil
}
