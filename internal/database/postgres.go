package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/yekaditya11/shindler-oicc-sub001/internal/models"
	"github.com/yekaditya11/shindler-oicc-sub001/pkg/checksum"
)

func ConnectDB(ctx context.Context, connStr string) (*pgxpool.Pool, error) {
	dbpool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	return dbpool, nil
}

type PostgresStore struct {
	dbpool *pgxpool.Pool
	logger *logrus.Logger
}

func NewPostgresStore(pool *pgxpool.Pool, logger *logrus.Logger) *PostgresStore {
	return &PostgresStore{dbpool: pool, logger: logger}
}

func (s *PostgresStore) Bootstrap(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS upload_records (
			id SERIAL PRIMARY KEY,
			file_name VARCHAR(255) NOT NULL,
			schema_type VARCHAR(64) NOT NULL,
			file_size BIGINT NOT NULL,
			checksum VARCHAR(64),
			total_rows INT NOT NULL,
			processed_rows INT NOT NULL DEFAULT 0,
			failed_rows INT NOT NULL DEFAULT 0,
			status VARCHAR(20) NOT NULL CHECK (status IN ('processing', 'completed', 'partial', 'failed')),
			started_at TIMESTAMP NOT NULL DEFAULT now(),
			finished_at TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS ingestion_versions (
			id SERIAL PRIMARY KEY,
			schema_type VARCHAR(64) NOT NULL,
			period_year INT NOT NULL,
			period_month INT NOT NULL,
			version INT NOT NULL,
			source_filename VARCHAR(255) NOT NULL,
			source_reference VARCHAR(255),
			created_at TIMESTAMP NOT NULL DEFAULT now(),
			UNIQUE (schema_type, period_year, period_month, version)
		);`,
	}

	for _, query := range queries {
		if _, err := s.dbpool.Exec(ctx, query); err != nil {
			return fmt.Errorf("error creating audit tables: %w", err)
		}
	}
	return nil
}

// incidentTableName derives the persisted table for a schema type. Schema
// names come from the catalog, but the identifier is sanitized anyway since
// schemas can be registered at runtime.
func incidentTableName(schemaType string) pgx.Identifier {
	return pgx.Identifier{fmt.Sprintf("incident_%s", schemaType)}
}

func (s *PostgresStore) EnsureSchemaTable(ctx context.Context, schemaType string) error {
	table := incidentTableName(schemaType).Sanitize()
	query := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id BIGSERIAL PRIMARY KEY,
		event_id TEXT NOT NULL,
		employee_id BIGINT,
		period_year INT NOT NULL,
		period_month INT NOT NULL,
		upload_id INT,
		row_hash VARCHAR(64) NOT NULL,
		fields JSONB NOT NULL,
		persisted_at TIMESTAMP NOT NULL DEFAULT now(),
		UNIQUE (period_year, period_month, row_hash)
	);`, table)

	if _, err := s.dbpool.Exec(ctx, query); err != nil {
		return fmt.Errorf("error creating incident table for schema %s: %w", schemaType, err)
	}
	return nil
}

func (s *PostgresStore) OpenUpload(ctx context.Context, rec *models.UploadRecord) (int, error) {
	query := `
	INSERT INTO upload_records (file_name, schema_type, file_size, checksum, total_rows, status, started_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id;`

	var uploadID int
	err := s.dbpool.QueryRow(ctx, query,
		rec.Filename, rec.SchemaType, rec.FileSize, rec.Checksum,
		rec.TotalRows, models.UploadStatusProcessing, time.Now(),
	).Scan(&uploadID)
	if err != nil {
		return 0, fmt.Errorf("error inserting upload record: %w", err)
	}
	return uploadID, nil
}

func (s *PostgresStore) FinalizeUpload(ctx context.Context, uploadID, processedRows, failedRows int, status string) error {
	query := `
	UPDATE upload_records
	SET processed_rows = $1,
		failed_rows = $2,
		status = $3,
		finished_at = now()
	WHERE id = $4 AND status = 'processing';`

	if _, err := s.dbpool.Exec(ctx, query, processedRows, failedRows, status, uploadID); err != nil {
		return fmt.Errorf("error finalizing upload record %d: %w", uploadID, err)
	}
	return nil
}

func (s *PostgresStore) GetUpload(ctx context.Context, uploadID int) (*models.UploadRecord, error) {
	query := `
	SELECT id, file_name, schema_type, file_size, COALESCE(checksum, ''), total_rows,
		processed_rows, failed_rows, status, started_at, finished_at
	FROM upload_records
	WHERE id = $1;`

	rec := &models.UploadRecord{}
	err := s.dbpool.QueryRow(ctx, query, uploadID).Scan(
		&rec.ID, &rec.Filename, &rec.SchemaType, &rec.FileSize, &rec.Checksum,
		&rec.TotalRows, &rec.ProcessedRows, &rec.FailedRows, &rec.Status,
		&rec.StartedAt, &rec.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrUploadNotFound, uploadID)
		}
		return nil, fmt.Errorf("error finding upload record %d: %w", uploadID, err)
	}
	return rec, nil
}

func (s *PostgresStore) IsFileAlreadyIngested(ctx context.Context, fileChecksum string) (bool, error) {
	query := `
	SELECT id
	FROM upload_records
	WHERE checksum = $1 AND status IN ('completed', 'partial');`

	var id int
	err := s.dbpool.QueryRow(ctx, query, fileChecksum).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("error finding upload record by checksum: %w", err)
	}
	return true, nil
}

func (s *PostgresStore) ClearPeriodRows(ctx context.Context, schemaType string, period models.ReportingPeriod) (int64, error) {
	query := fmt.Sprintf(
		`DELETE FROM %s WHERE period_year = $1 AND period_month = $2;`,
		incidentTableName(schemaType).Sanitize(),
	)

	tag, err := s.dbpool.Exec(ctx, query, period.Year, period.Month)
	if err != nil {
		return 0, fmt.Errorf("error clearing period %s rows for schema %s: %w", period, schemaType, err)
	}
	return tag.RowsAffected(), nil
}

// InsertBatch persists one batch inside a single transaction. Each record is
// attempted under its own savepoint so a failing row is skipped without
// poisoning the rest of the batch. A failed commit fails every record in the
// batch; batches already committed are unaffected.
func (s *PostgresStore) InsertBatch(ctx context.Context, schemaType string, period models.ReportingPeriod, uploadID int, records []*models.CanonicalRecord) (*BatchOutcome, error) {
	tx, err := s.dbpool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("error beginning batch transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insertQuery := fmt.Sprintf(`
	INSERT INTO %s (event_id, employee_id, period_year, period_month, upload_id, row_hash, fields)
	VALUES ($1, $2, $3, $4, $5, $6, $7);`,
		incidentTableName(schemaType).Sanitize())

	outcome := &BatchOutcome{}
	for i, record := range records {
		rowErr := s.insertRecord(ctx, tx, insertQuery, period, uploadID, record)
		if rowErr != nil {
			rowErr.RowIndex = i
			outcome.RowFailures = append(outcome.RowFailures, *rowErr)
			continue
		}
		outcome.Inserted++
	}

	if err := tx.Commit(ctx); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"schema_type": schemaType,
			"batch_size":  len(records),
		}).Error("batch commit failed, all rows in batch counted as failed")
		outcome.Inserted = 0
		outcome.RowFailures = nil
		outcome.CommitFailed = true
	}
	return outcome, nil
}

func (s *PostgresStore) insertRecord(ctx context.Context, tx pgx.Tx, insertQuery string, period models.ReportingPeriod, uploadID int, record *models.CanonicalRecord) *models.RowError {
	fieldsJSON, err := json.Marshal(record.Fields)
	if err != nil {
		return &models.RowError{Message: "failed to encode fields", Err: err}
	}

	// Nested Begin opens a savepoint on the batch transaction.
	sp, err := tx.Begin(ctx)
	if err != nil {
		return &models.RowError{Message: "failed to open savepoint", Err: err}
	}

	_, err = sp.Exec(ctx, insertQuery,
		record.Fields["event_id"],
		record.Fields["employee_id"],
		period.Year,
		period.Month,
		uploadID,
		checksum.RowHash(record.Fields),
		fieldsJSON,
	)
	if err != nil {
		if rx := sp.Rollback(ctx); rx != nil {
			s.logger.WithError(rx).Warn("error rolling back row savepoint")
		}
		return &models.RowError{Message: "failed to persist row", Err: err}
	}

	if err := sp.Commit(ctx); err != nil {
		return &models.RowError{Message: "failed to release row savepoint", Err: err}
	}
	return nil
}

// StampVersion computes max+1 and inserts the version record in a single
// statement; the unique index on (schema_type, period_year, period_month,
// version) turns a concurrent allocation into ErrVersionConflict.
func (s *PostgresStore) StampVersion(ctx context.Context, schemaType string, period models.ReportingPeriod, sourceFilename, sourceReference string) (int, error) {
	query := `
	INSERT INTO ingestion_versions (schema_type, period_year, period_month, version, source_filename, source_reference)
	VALUES ($1, $2, $3,
		COALESCE((
			SELECT MAX(version) FROM ingestion_versions
			WHERE schema_type = $1 AND period_year = $2 AND period_month = $3
		), 0) + 1,
		$4, $5)
	RETURNING version;`

	var version int
	err := s.dbpool.QueryRow(ctx, query, schemaType, period.Year, period.Month, sourceFilename, sourceReference).Scan(&version)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: schema %s period %s: %v", ErrVersionConflict, schemaType, period, err)
		}
		return 0, fmt.Errorf("error stamping version for schema %s period %s: %w", schemaType, period, err)
	}
	return version, nil
}
