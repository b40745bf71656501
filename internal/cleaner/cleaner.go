// Package cleaner transforms decoded spreadsheet rows into canonical records
// under a detected schema: column names are mapped to canonical fields and
// cell values are type-coerced. Malformed data never fails a row; unparsable
// cells become nulls.
package cleaner

import (
	"errors"
	"fmt"

	"github.com/yekaditya11/shindler-oicc-sub001/internal/models"
	"github.com/yekaditya11/shindler-oicc-sub001/internal/schema"
)

var ErrUnknownSchema = errors.New("unknown schema")

type Cleaner struct {
	catalog *schema.Catalog
}

func New(catalog *schema.Catalog) *Cleaner {
	return &Cleaner{catalog: catalog}
}

// Clean produces one CanonicalRecord per input row, dropping rows that are
// entirely empty across all columns. The only error is ErrUnknownSchema; bad
// data is absorbed as nulls.
func (c *Cleaner) Clean(file *models.RawFile, schemaName string) ([]*models.CanonicalRecord, error) {
	if _, err := c.catalog.Lookup(schemaName); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSchema, schemaName)
	}

	records := make([]*models.CanonicalRecord, 0, len(file.Rows))
	for _, row := range file.Rows {
		record, empty := cleanRow(row, schemaName)
		if empty {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func cleanRow(row map[string]string, schemaName string) (*models.CanonicalRecord, bool) {
	fields := make(map[string]any, len(row))
	empty := true

	for label, raw := range row {
		name := FieldName(schemaName, label)
		cell := cleanCell(raw)
		if cell == nil {
			fields[name] = nil
			continue
		}
		empty = false
		fields[name] = coerce(name, *cell)
	}

	if empty {
		return nil, true
	}
	return &models.CanonicalRecord{SchemaType: schemaName, Fields: fields}, false
}

func coerce(name, value string) any {
	switch {
	case dateFields[name]:
		if t, ok := parseDate(value); ok {
			return t
		}
		return nil
	case timeFields[name]:
		if s, ok := parseTimeOfDay(value); ok {
			return s
		}
		return nil
	case numericFields[name]:
		if n, ok := parseNumber(value); ok {
			return n
		}
		return nil
	case booleanFields[name]:
		if b, ok := parseBool(value); ok {
			return b
		}
		return nil
	default:
		return value
	}
}
