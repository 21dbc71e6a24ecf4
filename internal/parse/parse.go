// Package parse coerces loosely typed request input into domain values.
package parse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	spaceRe = regexp.MustCompile(`\s+`)

	// ErrMissing is returned when a required value is absent or null.
	ErrMissing = errors.New("value is required")
)

// dateLayouts are tried in order by Date.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Position decodes a JSON number (or numeric string) into whole degrees.
// Fractional values are rejected; range checks belong to the caller.
func Position(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, ErrMissing
	}

	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, fmt.Errorf("invalid position %s: %w", raw, err)
		}
		text = strings.TrimSpace(text)
	} else {
		text = string(raw)
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("position %q is not a number", text)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("position %q is not a whole number of degrees", text)
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("position %q is out of range", text)
	}
	return int(f), nil
}

// Date accepts an RFC 3339 timestamp or a plain calendar date. Values without
// an offset are read in UTC.
func Date(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrMissing
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %q", s)
}

// Text trims s and collapses internal runs of whitespace.
func Text(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// PartNumber normalizes a part or serial number: whitespace collapsed, upper case.
func PartNumber(s string) string {
	return strings.ToUpper(Text(s))
}
