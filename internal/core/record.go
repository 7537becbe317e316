package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Column names used by the collection export.
const (
	FieldID              = "IGDB ID"
	FieldTitle           = "Game name"
	FieldPlatform        = "Platform"
	FieldReleaseDate     = "Game release date"
	FieldCompletion      = "Completion"
	FieldStatus          = "Status"
	FieldAcquisitionDate = "Acquisition date"
	FieldCompletionDate  = "Completion date"
	FieldPlayTime        = "Playtime"
	FieldRating          = "Rating (Score)"
	FieldCover           = "Cover"
)

// RawRecord is one loosely typed export row. Values are strings, numbers or
// absent; nothing about the shape is guaranteed.
type RawRecord map[string]any

// Text returns the field rendered as text with surrounding whitespace
// trimmed, so " Foo " and "Foo" yield the same id, title and platform group.
// Absent, nil and blank values report false.
func (r RawRecord) Text(key string) (string, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return "", false
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return "", false
		}
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return RawRecord{key: float64(t)}.Text(key)
	case int:
		s = strconv.Itoa(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	case int32:
		s = strconv.FormatInt(int64(t), 10)
	case bool:
		s = strconv.FormatBool(t)
	case fmt.Stringer:
		s = t.String()
	default:
		s = fmt.Sprint(t)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

// TextOr returns the field text or def when the field is missing.
func (r RawRecord) TextOr(key, def string) string {
	if s, ok := r.Text(key); ok {
		return s
	}
	return def
}

// leadingInt parses the integer prefix of s ("125", "125.9", "90 min").
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
