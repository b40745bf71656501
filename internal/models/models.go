package models

import (
	"fmt"
	"time"
)

// SchemaDefinition describes one known spreadsheet layout. Definitions are
// immutable once published; new ones may be registered at runtime.
type SchemaDefinition struct {
	Name            string   `json:"name"`
	ExpectedColumns []string `json:"expected_columns"`
	IsAugmented     bool     `json:"is_augmented"`
	// BaseSchema names the non-augmented twin of an augmented schema, empty
	// otherwise. The detector uses it to keep a base schema from shadowing
	// its richer counterpart.
	BaseSchema string `json:"base_schema,omitempty"`
}

// RawFile is a decoded spreadsheet: one map per data row, keyed by the header
// labels as they appeared in the file. Owned by the current ingestion call.
type RawFile struct {
	Filename string
	Rows     []map[string]string
}

// ColumnLabels returns the observed header labels in file order.
func (f *RawFile) ColumnLabels() []string {
	if len(f.Rows) == 0 {
		return nil
	}
	labels := make([]string, 0, len(f.Rows[0]))
	seen := make(map[string]bool, len(f.Rows[0]))
	for _, row := range f.Rows {
		for label := range row {
			if !seen[label] {
				seen[label] = true
				labels = append(labels, label)
			}
		}
	}
	return labels
}

// CanonicalRecord is one row after column-name normalization and type
// coercion. Field values are string, int64, float64, time.Time, bool or nil.
type CanonicalRecord struct {
	SchemaType string
	Fields     map[string]any
}

// RowError describes why a single row could not be cleaned or persisted.
type RowError struct {
	RowIndex int
	Column   string
	Message  string
	Err      error
}

func (e *RowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("row %d (%s): %s: %v", e.RowIndex, e.Column, e.Message, e.Err)
	}
	return fmt.Sprintf("row %d (%s): %s", e.RowIndex, e.Column, e.Message)
}

func (e *RowError) Unwrap() error { return e.Err }

// RowResult is the outcome of cleaning or persisting one row. Exactly one of
// Record and Err is set.
type RowResult struct {
	Record *CanonicalRecord
	Err    *RowError
}

// ReportingPeriod scopes which persisted rows an upload replaces. It is taken
// from the ingestion wall clock, not from row data.
type ReportingPeriod struct {
	Year  int
	Month int
}

func PeriodOf(t time.Time) ReportingPeriod {
	return ReportingPeriod{Year: t.Year(), Month: int(t.Month())}
}

func (p ReportingPeriod) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// VersionRecord marks the Nth successful ingestion into a reporting period.
// Never mutated after creation.
type VersionRecord struct {
	ID              int
	SchemaType      string
	Period          ReportingPeriod
	Version         int
	SourceFilename  string
	SourceReference string
	CreatedAt       time.Time
}

// Upload statuses. An UploadRecord is opened as processing and moved exactly
// once to a terminal status.
const (
	UploadStatusProcessing = "processing"
	UploadStatusCompleted  = "completed"
	UploadStatusPartial    = "partial"
	UploadStatusFailed     = "failed"
)

// UploadRecord is the append-only audit entry for one ingestion attempt.
type UploadRecord struct {
	ID            int
	Filename      string
	SchemaType    string
	FileSize      int64
	Checksum      string
	TotalRows     int
	ProcessedRows int
	FailedRows    int
	Status        string
	StartedAt     time.Time
	FinishedAt    *time.Time
}

// IngestReport is returned to the caller after one ingestion run.
type IngestReport struct {
	UploadID            int    `json:"upload_id"`
	SchemaType          string `json:"schema_type"`
	TotalRows           int    `json:"total_rows"`
	ProcessedRows       int    `json:"processed_rows"`
	FailedRows          int    `json:"failed_rows"`
	Status              string `json:"status"`
	PreviousRowsCleared int    `json:"previous_rows_cleared"`
	Version             int    `json:"version"`
}

// SchemaCandidate is one ranked detection candidate, surfaced when no schema
// clears its threshold so a human can disambiguate.
type SchemaCandidate struct {
	Name        string  `json:"name"`
	MatchRatio  float64 `json:"match_ratio"`
	IsAugmented bool    `json:"is_augmented"`
}
