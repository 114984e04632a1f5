package utils

import (
	"encoding/json"
	"log"
	"time"
)

// TimeFormat is the single timestamp format used for every TEXT date/time
// column in the store. Always UTC, fixed-width millisecond precision so the
// stored text sorts lexically in chronological order; variable-width formats
// like RFC3339Nano break ORDER BY on these columns.
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

// SafeMarshal serializes v to JSON for storage in a TEXT column. A marshal
// failure is logged and degrades to an empty object so the column always
// receives usable text.
func SafeMarshal(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("serialization: marshal error: %v", err)
		return "{}"
	}
	return string(b)
}

// UnmarshalArray decodes a stored JSON array. Malformed or non-array input
// yields an empty slice, never an error.
func UnmarshalArray[T any](s string) []T {
	var out []T
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		log.Printf("serialization: array unmarshal error: %v", err)
		return []T{}
	}
	if out == nil {
		return []T{}
	}
	return out
}

// UnmarshalObject decodes a stored JSON object. Malformed input yields the
// zero value of T, never an error.
func UnmarshalObject[T any](s string) T {
	var out T
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		log.Printf("serialization: object unmarshal error: %v", err)
		var zero T
		return zero
	}
	return out
}

// FormatTime renders t in the storage timestamp format.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// FormatTimePtr renders an optional timestamp, mapping absent to NULL.
func FormatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatTime(*t)
	return &s
}

// ParseTime decodes a stored timestamp. Unparseable input deserializes to
// absent (nil), not an error.
func ParseTime(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}

// ParseTimePtr decodes an optional stored timestamp.
func ParseTimePtr(s *string) *time.Time {
	if s == nil {
		return nil
	}
	return ParseTime(*s)
}
