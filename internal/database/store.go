package database

import (
	"context"
	"errors"

	"github.com/yekaditya11/shindler-oicc-sub001/internal/models"
)

// ErrVersionConflict is returned when two ingestions race on the same
// (schema_type, year, month) version slot. The coordinator retries once
// before giving up.
var ErrVersionConflict = errors.New("version conflict")

// ErrUploadNotFound is returned by GetUpload for unknown ids.
var ErrUploadNotFound = errors.New("upload record not found")

// BatchOutcome reports the result of persisting one batch. When CommitFailed
// is set every record in the batch counts as failed, including those that
// succeeded individually before the commit.
type BatchOutcome struct {
	Inserted     int
	RowFailures  []models.RowError
	CommitFailed bool
}

// Store is the persistence boundary of the ingestion subsystem.
type Store interface {
	// Bootstrap creates the shared audit tables if they do not exist.
	Bootstrap(ctx context.Context) error
	// EnsureSchemaTable creates the per-schema incident table if needed.
	EnsureSchemaTable(ctx context.Context, schemaType string) error

	// Upload audit (append-only; one terminal status transition).
	OpenUpload(ctx context.Context, rec *models.UploadRecord) (int, error)
	FinalizeUpload(ctx context.Context, uploadID, processedRows, failedRows int, status string) error
	GetUpload(ctx context.Context, uploadID int) (*models.UploadRecord, error)
	IsFileAlreadyIngested(ctx context.Context, checksum string) (bool, error)

	// ClearPeriodRows removes previously persisted rows for the same
	// reporting period only and returns the count removed.
	ClearPeriodRows(ctx context.Context, schemaType string, period models.ReportingPeriod) (int64, error)

	// InsertBatch persists one batch in a single transaction with per-row
	// failure isolation. A non-nil error means the batch could not even be
	// attempted (connection/begin failure).
	InsertBatch(ctx context.Context, schemaType string, period models.ReportingPeriod, uploadID int, records []*models.CanonicalRecord) (*BatchOutcome, error)

	// StampVersion allocates the next version for the period and persists
	// the VersionRecord atomically. Returns ErrVersionConflict on a
	// concurrent allocation of the same version.
	StampVersion(ctx context.Context, schemaType string, period models.ReportingPeriod, sourceFilename, sourceReference string) (int, error)
}
