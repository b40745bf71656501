package cleaner

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yekaditya11/shindler-oicc-sub001/internal/models"
	"github.com/yekaditya11/shindler-oicc-sub001/internal/schema"
)

func buildCleaner(t *testing.T) *Cleaner {
	t.Helper()
	catalog, err := schema.NewCatalog(schema.DefaultDefinitions()...)
	require.NoError(t, err)
	return New(catalog)
}

func TestCleaner_Clean(t *testing.T) {
	t.Run("Expect: rows to be mapped to canonical fields with coerced types", func(t *testing.T) {
		c := buildCleaner(t)

		file := &models.RawFile{
			Filename: "srs_raw.xlsx",
			Rows: []map[string]string{{
				"Event Id":            "EV-1001",
				"Reporter Name":       "  A. Reporter  ",
				"Reported Date":       "05/01/2025",
				"Reported Time":       "09:30:00",
				"Work Stopped":        "Yes",
				"Work Stoppage Hours": "4",
				"Days Lost":           "1.5",
				"Body Part Affected":  "Hand",
			}},
		}

		records, err := c.Clean(file, "srs")
		require.NoError(t, err)
		require.Len(t, records, 1)

		fields := records[0].Fields
		assert.Equal(t, "srs", records[0].SchemaType)
		assert.Equal(t, "EV-1001", fields["event_id"])
		assert.Equal(t, "A. Reporter", fields["reporter_name"])
		assert.Equal(t, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), fields["reported_date"])
		assert.Equal(t, "09:30:00", fields["reported_time"])
		assert.Equal(t, true, fields["work_stopped"])
		assert.Equal(t, int64(4), fields["work_stoppage_hours"])
		assert.Equal(t, 1.5, fields["days_lost"])
		// Static mapping table entry, not the generic fallback.
		assert.Equal(t, "Hand", fields["body_part"])
	})

	t.Run("Expect: day-first resolution for ambiguous dates", func(t *testing.T) {
		c := buildCleaner(t)

		file := &models.RawFile{Rows: []map[string]string{{
			"Event Id":      "EV-1",
			"Incident Date": "03/04/2025",
		}}}

		records, err := c.Clean(file, "srs")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 4, 3, 0, 0, 0, 0, time.UTC), records[0].Fields["incident_date"])
	})

	t.Run("Expect: sentinel strings to canonicalize to null", func(t *testing.T) {
		c := buildCleaner(t)

		file := &models.RawFile{Rows: []map[string]string{{
			"Event Id":      "EV-1",
			"Reporter Name": "nan",
			"Root Cause":    "NULL",
			"Severity":      "   ",
		}}}

		records, err := c.Clean(file, "srs")
		require.NoError(t, err)

		fields := records[0].Fields
		assert.Nil(t, fields["reporter_name"])
		assert.Nil(t, fields["root_cause"])
		assert.Nil(t, fields["severity"])
	})

	t.Run("Expect: unparsable typed cells to become null, never fail the row", func(t *testing.T) {
		c := buildCleaner(t)

		file := &models.RawFile{Rows: []map[string]string{{
			"Event Id":            "EV-1",
			"Reported Date":       "not a date",
			"Reported Time":       "25:99",
			"Work Stoppage Hours": "four",
			"Work Stopped":        "maybe",
		}}}

		records, err := c.Clean(file, "srs")
		require.NoError(t, err)
		require.Len(t, records, 1)

		fields := records[0].Fields
		assert.Nil(t, fields["reported_date"])
		assert.Nil(t, fields["reported_time"])
		assert.Nil(t, fields["work_stoppage_hours"])
		assert.Nil(t, fields["work_stopped"])
	})

	t.Run("Expect: entirely empty rows to be dropped", func(t *testing.T) {
		c := buildCleaner(t)

		file := &models.RawFile{Rows: []map[string]string{
			{"Event Id": "EV-1", "Reporter Name": "R"},
			{"Event Id": "", "Reporter Name": "nan"},
			{"Event Id": "EV-2", "Reporter Name": ""},
		}}

		records, err := c.Clean(file, "srs")
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("Expect: unmapped columns to fall back to the generic normalization", func(t *testing.T) {
		c := buildCleaner(t)

		file := &models.RawFile{Rows: []map[string]string{{
			"Event Id":             "EV-1",
			"Some  Custom--Field!": "value",
		}}}

		records, err := c.Clean(file, "srs")
		require.NoError(t, err)
		assert.Equal(t, "value", records[0].Fields["some_custom_field"])
	})

	t.Run("Expect: ErrUnknownSchema for names absent from the catalog", func(t *testing.T) {
		c := buildCleaner(t)

		_, err := c.Clean(&models.RawFile{}, "mystery")
		assert.True(t, errors.Is(err, ErrUnknownSchema))
	})
}

func TestNormalizeFieldName(t *testing.T) {
	assert.Equal(t, "event_id", NormalizeFieldName("Event Id"))
	assert.Equal(t, "employee_id", NormalizeFieldName("  Employee ID "))
	assert.Equal(t, "site_risk_index", NormalizeFieldName("Site Risk Index"))
	assert.Equal(t, "a_b_c", NormalizeFieldName("A--B__C!!"))
	assert.Equal(t, "", NormalizeFieldName("***"))
}

func TestFieldName(t *testing.T) {
	t.Run("Expect: static mapping to win over the fallback", func(t *testing.T) {
		assert.Equal(t, "event_subtype", FieldName("srs", "Event Sub Type"))
		assert.Equal(t, "joining_date", FieldName("srs", "Date Of Joining"))
		assert.Equal(t, "job_no", FieldName("ni_tct", "Job Number"))
		assert.Equal(t, "weather_severity", FieldName("srs_augmented", "Weather Severity Index"))
	})

	t.Run("Expect: fallback for unmapped labels and unknown schemas", func(t *testing.T) {
		assert.Equal(t, "event_id", FieldName("srs", "Event Id"))
		assert.Equal(t, "event_sub_type", FieldName("unknown", "Event Sub Type"))
	})
}
