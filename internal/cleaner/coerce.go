package cleaner

import (
	"strconv"
	"strings"
	"time"
)

// cleanCell trims a raw cell and canonicalizes sentinel strings to nil.
func cleanCell(raw string) *string {
	v := strings.TrimSpace(raw)
	switch strings.ToLower(v) {
	case "", "nan", "null":
		return nil
	}
	return &v
}

// Day-first layouts tried in order. ISO dates are unambiguous and accepted
// last so "03/04/2025" resolves to April 3rd, not March 4th.
var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseDate(v string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var timeLayouts = []string{"15:04:05", "15:04"}

func parseTimeOfDay(v string) (string, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format("15:04:05"), true
		}
	}
	return "", false
}

// parseNumber coerces to int64 when the value is integral, float64 otherwise.
func parseNumber(v string) (any, bool) {
	v = strings.ReplaceAll(v, ",", "")
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f, true
	}
	return nil, false
}

func parseBool(v string) (bool, bool) {
	switch strings.ToLower(v) {
	case "yes", "y", "true", "1":
		return true, true
	case "no", "n", "false", "0":
		return false, true
	}
	return false, false
}
