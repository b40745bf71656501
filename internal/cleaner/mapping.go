package cleaner

import (
	"regexp"
	"strings"
)

// Per-schema mapping from raw export header to canonical field name. Only
// labels whose canonical name differs from the generic normalization need an
// entry; everything else falls through to NormalizeFieldName.
var columnMappings = map[string]map[string]string{
	"srs": {
		"Event Sub Type":     "event_subtype",
		"Body Part Affected": "body_part",
		"Date Of Joining":    "joining_date",
	},
	"ni_tct": {
		"Job Number":           "job_no",
		"Observation Category": "observation_type",
	},
	"srs_augmented": {
		"Event Sub Type":         "event_subtype",
		"Body Part Affected":     "body_part",
		"Date Of Joining":        "joining_date",
		"Weather Severity Index": "weather_severity",
	},
	"ni_tct_augmented": {
		"Job Number":             "job_no",
		"Observation Category":   "observation_type",
		"Weather Severity Index": "weather_severity",
	},
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeFieldName is the generic fallback: lower-case, non-alphanumeric
// runs collapsed to one underscore, leading/trailing underscores stripped.
func NormalizeFieldName(label string) string {
	name := strings.ToLower(strings.TrimSpace(label))
	name = nonAlnum.ReplaceAllString(name, "_")
	return strings.Trim(name, "_")
}

// FieldName resolves a raw column label under a schema. The lookup is total:
// unmapped labels get the fallback normalization.
func FieldName(schemaName, rawLabel string) string {
	if mapping, ok := columnMappings[schemaName]; ok {
		if canonical, ok := mapping[strings.TrimSpace(rawLabel)]; ok {
			return canonical
		}
	}
	return NormalizeFieldName(rawLabel)
}

// Canonical field type declarations, shared across schemas. A field absent
// from every set stays a plain string.
var (
	dateFields = set(
		"reported_date", "incident_date", "joining_date",
		"action_due_date", "closure_date",
	)
	timeFields = set("reported_time", "incident_time")
	numericFields = set(
		"work_stoppage_hours", "days_lost", "likelihood",
		"weather_severity", "employee_tenure_months", "site_risk_index",
		"temperature", "humidity", "employee_age",
	)
	booleanFields = set(
		"work_stopped", "first_aid_given", "medical_treatment",
		"lost_time_injury", "serious_near_miss", "unsafe_act",
		"unsafe_condition",
	)
)

func set(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}
