package collection

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"recap/internal/core"
)

var numericCell = regexp.MustCompile(`^-?(\d+\.?|\.\d+|\d+\.\d+)([eE][-+]?\d+)?$`)

// TypedValue applies dynamic typing to one text cell: numbers become float64,
// true/false become bool, blank cells become nil and everything else stays text.
func TypedValue(cell string) any {
	s := strings.TrimSpace(cell)
	switch {
	case s == "":
		return nil
	case strings.EqualFold(s, "true"):
		return true
	case strings.EqualFold(s, "false"):
		return false
	case numericCell.MatchString(s):
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return s
}

// Row builds a raw record from a header row and one data row. Cells beyond
// the header and nil cells are dropped; short rows leave the remaining
// columns absent.
func Row(headers []string, cells []any) core.RawRecord {
	rec := make(core.RawRecord, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if h == "" || i >= len(cells) {
			continue
		}
		v := cells[i]
		if s, ok := v.(string); ok {
			v = TypedValue(s)
		}
		if v == nil {
			continue
		}
		rec[h] = v
	}
	return rec
}

// Headers renders a header row as trimmed text.
func Headers(cells []any) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		if c == nil {
			continue
		}
		out[i] = strings.TrimSpace(fmt.Sprint(c))
	}
	return out
}

// IsBlank reports whether every cell of a row is empty.
func IsBlank(cells []any) bool {
	for _, c := range cells {
		if c == nil {
			continue
		}
		if s, ok := c.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		return false
	}
	return true
}
