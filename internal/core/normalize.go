package core

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// isoLayouts are the ISO-8601 shapes accepted for dates, most specific first.
// Layouts without an offset are read as wall-clock time in UTC.
var isoLayouts = []struct {
	layout string
	zoned  bool
}{
	{"2006-01-02T15:04:05Z07:00", true},
	{"2006-01-02T15:04:05Z0700", true},
	{"2006-01-02T15:04Z07:00", true},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02", false},
	{"2006-01", false},
	{"2006-002", false},
	{"2006", false},
	// basic format
	{"20060102T150405Z0700", true},
	{"20060102T1504Z0700", true},
	{"20060102T150405", false},
	{"20060102T1504", false},
	{"20060102", false},
}

// Normalize converts one raw record into a Game. position is the record's
// index within its batch and is only used to build a placeholder id.
// Normalize never fails: every field has a fallback.
func Normalize(rec RawRecord, position int) Game {
	platform := rec.TextOr(FieldPlatform, UnknownPlatform)
	g := Game{
		ID:                   rec.TextOr(FieldID, placeholderID(position)),
		Title:                rec.TextOr(FieldTitle, UnknownTitle),
		Platform:             platform,
		PlatformAbbreviation: PlatformAbbreviation(platform),
		Completion:           rec.TextOr(FieldCompletion, UnknownValue),
		Status:               rec.TextOr(FieldStatus, UnknownValue),
		AcquisitionDate:      parseRecordDate(rec, FieldAcquisitionDate),
		CompletionDate:       parseRecordDate(rec, FieldCompletionDate),
		PlayTime:             parsePlayTime(rec),
		Rating:               parseRating(rec),
	}
	if released := parseRecordDate(rec, FieldReleaseDate); released != nil {
		y := released.Year()
		g.ReleaseYear = &y
	}
	if cover, ok := rec.Text(FieldCover); ok {
		g.CoverImage = &cover
	}
	return g
}

func placeholderID(position int) string {
	return "unknown_" + strconv.Itoa(position)
}

func parseRecordDate(rec RawRecord, key string) *time.Time {
	s, ok := rec.Text(key)
	if !ok {
		return nil
	}
	t, ok := ParseISODate(s)
	if !ok {
		return nil
	}
	return &t
}

// ParseISODate parses ISO-8601 calendar and ordinal dates and date-times, in
// extended or basic format. The offset written in the value is kept as the
// time's location. Week dates are not supported.
func ParseISODate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range isoLayouts {
		var (
			t   time.Time
			err error
		)
		if l.zoned {
			t, err = time.Parse(l.layout, s)
		} else {
			t, err = time.ParseInLocation(l.layout, s, time.UTC)
		}
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parsePlayTime reads whole minutes. Zero, negative and non-numeric values
// are treated as unknown; the export writes 0 for untracked games.
func parsePlayTime(rec RawRecord) *int {
	s, ok := rec.Text(FieldPlayTime)
	if !ok {
		return nil
	}
	n, ok := leadingInt(s)
	if !ok || n <= 0 {
		return nil
	}
	return &n
}

// parseRating rescales the 10-point export score to a 5-point rating.
func parseRating(rec RawRecord) *float64 {
	s, ok := rec.Text(FieldRating)
	if !ok {
		return nil
	}
	f, ok := parseFloat(s)
	if !ok {
		return nil
	}
	r := f / 2
	return &r
}

// PlayTimeInHours converts minutes to hours. With decimals <= 0 the result is
// truncated to whole hours, otherwise rounded to that many decimals. Unknown
// playtime stays unknown.
func PlayTimeInHours(playTime *int, decimals int) *float64 {
	if playTime == nil || *playTime == 0 {
		return nil
	}
	h := hoursFromMinutes(*playTime, decimals)
	return &h
}

func hoursFromMinutes(minutes, decimals int) float64 {
	hours := float64(minutes) / 60
	if decimals <= 0 {
		return math.Floor(hours)
	}
	return roundTo(hours, decimals)
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
