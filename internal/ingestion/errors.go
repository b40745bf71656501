package ingestion

import (
	"errors"
	"fmt"

	"github.com/yekaditya11/shindler-oicc-sub001/internal/models"
)

// Input error kinds, client-correctable and surfaced directly with no partial
// state created.
const (
	KindInvalidExtension        = "invalid_extension"
	KindInvalidFilenamePattern  = "invalid_filename_pattern"
	KindUnparsableFile          = "unparsable_file"
	KindSchemaUndetectable      = "schema_undetectable"
	KindInsufficientColumnMatch = "insufficient_column_match"
)

// Systemic errors, fatal to the current ingestion and not retried
// automatically.
var (
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrVersioningConflict = errors.New("versioning conflict")
)

// InputError is a structured, client-correctable rejection. Depending on the
// kind it carries the missing columns or the ranked candidate schemas for
// human disambiguation.
type InputError struct {
	Kind           string                   `json:"error_kind"`
	Detail         string                   `json:"detail"`
	MissingColumns []string                 `json:"missing_columns,omitempty"`
	Candidates     []models.SchemaCandidate `json:"candidates,omitempty"`
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// AsInputError unwraps err into an InputError if it is one.
func AsInputError(err error) (*InputError, bool) {
	var inputErr *InputError
	if errors.As(err, &inputErr) {
		return inputErr, true
	}
	return nil, false
}
