// Package parser decodes uploaded spreadsheet bytes into a RawFile. Excel
// workbooks go through excelize; CSV goes through encoding/csv with relaxed
// quoting since exports from the reporting systems are not always
// well-formed.
package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/yekaditya11/shindler-oicc-sub001/internal/models"
)

var ErrUnparsableFile = errors.New("unparsable file")

// Decode interprets data as a spreadsheet based on the filename extension and
// returns its rows keyed by header label.
func Decode(filename string, data []byte) (*models.RawFile, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xls":
		return decodeExcel(filename, data)
	case ".csv":
		return decodeCSV(filename, data)
	default:
		return nil, fmt.Errorf("%w: unsupported extension on %s", ErrUnparsableFile, filename)
	}
}

func decodeExcel(filename string, data []byte) (*models.RawFile, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnparsableFile, filename, err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: %s has no sheets", ErrUnparsableFile, filename)
	}

	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnparsableFile, filename, err)
	}

	return assemble(filename, rows)
}

func decodeCSV(filename string, data []byte) (*models.RawFile, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnparsableFile, filename, err)
		}
		rows = append(rows, record)
	}

	return assemble(filename, rows)
}

// assemble turns a header row plus data rows into label-keyed maps. Short
// rows are padded; cells beyond the header are dropped.
func assemble(filename string, rows [][]string) (*models.RawFile, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrUnparsableFile, filename)
	}

	header := make([]string, 0, len(rows[0]))
	for _, label := range rows[0] {
		header = append(header, strings.TrimSpace(label))
	}
	if len(header) == 0 || allBlank(header) {
		return nil, fmt.Errorf("%w: %s has no header row", ErrUnparsableFile, filename)
	}

	out := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		mapped := make(map[string]string, len(header))
		for i, label := range header {
			if label == "" {
				continue
			}
			if i < len(row) {
				mapped[label] = row[i]
			} else {
				mapped[label] = ""
			}
		}
		out = append(out, mapped)
	}

	return &models.RawFile{Filename: filename, Rows: out}, nil
}

func allBlank(labels []string) bool {
	for _, l := range labels {
		if l != "" {
			return false
		}
	}
	return true
}
