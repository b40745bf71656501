package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	workbook := excelize.NewFile()
	defer workbook.Close()

	sheet := workbook.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, workbook.SetSheetRow(sheet, cell, &row))
	}

	buf, err := workbook.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	t.Run("Expect: xlsx rows keyed by header labels", func(t *testing.T) {
		data := buildWorkbook(t, [][]any{
			{"Event Id", "Reporter Name", "Severity"},
			{"EV-1", "Alice", "High"},
			{"EV-2", "Bob", "Low"},
		})

		file, err := Decode("incidents.xlsx", data)
		require.NoError(t, err)
		require.Len(t, file.Rows, 2)
		assert.Equal(t, "EV-1", file.Rows[0]["Event Id"])
		assert.Equal(t, "Bob", file.Rows[1]["Reporter Name"])
		assert.ElementsMatch(t, []string{"Event Id", "Reporter Name", "Severity"}, file.ColumnLabels())
	})

	t.Run("Expect: short xlsx rows to be padded with empty cells", func(t *testing.T) {
		data := buildWorkbook(t, [][]any{
			{"Event Id", "Reporter Name", "Severity"},
			{"EV-1"},
		})

		file, err := Decode("incidents.xlsx", data)
		require.NoError(t, err)
		require.Len(t, file.Rows, 1)
		assert.Equal(t, "", file.Rows[0]["Severity"])
	})

	t.Run("Expect: csv decoding with uneven rows", func(t *testing.T) {
		data := []byte("Event Id,Reporter Name,Severity\nEV-1,Alice,High\nEV-2,Bob\n")

		file, err := Decode("incidents.csv", data)
		require.NoError(t, err)
		require.Len(t, file.Rows, 2)
		assert.Equal(t, "High", file.Rows[0]["Severity"])
		assert.Equal(t, "", file.Rows[1]["Severity"])
	})

	t.Run("Expect: header labels to be trimmed", func(t *testing.T) {
		data := []byte(" Event Id , Reporter Name \nEV-1,Alice\n")

		file, err := Decode("incidents.csv", data)
		require.NoError(t, err)
		assert.Equal(t, "EV-1", file.Rows[0]["Event Id"])
	})

	t.Run("Expect: ErrUnparsableFile for unsupported extensions", func(t *testing.T) {
		_, err := Decode("incidents.pdf", []byte("x"))
		assert.True(t, errors.Is(err, ErrUnparsableFile))
	})

	t.Run("Expect: ErrUnparsableFile for empty files", func(t *testing.T) {
		_, err := Decode("incidents.csv", nil)
		assert.True(t, errors.Is(err, ErrUnparsableFile))
	})

	t.Run("Expect: ErrUnparsableFile for bytes that are not a workbook", func(t *testing.T) {
		_, err := Decode("incidents.xlsx", []byte("definitely not a zip"))
		assert.True(t, errors.Is(err, ErrUnparsableFile))
	})
}
