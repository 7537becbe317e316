package http

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"recap/internal/collection/csvfile"
	"recap/internal/core"

	json "github.com/goccy/go-json"
)

const maxYearsPerRequest = 20

// parseYear reads ?year=, falling back to def.
func parseYear(r *http.Request, def int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("year"))
	if v == "" {
		return def, nil
	}
	y, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: year %q is not a number", core.ErrInvalidYear, v)
	}
	return y, core.ValidateYear(y)
}

// parseYears reads a comma separated ?years= list, dropping duplicates.
func parseYears(raw string) ([]int, error) {
	seen := map[int]bool{}
	years := make([]int, 0)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		y, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: year %q is not a number", core.ErrInvalidYear, part)
		}
		if err := core.ValidateYear(y); err != nil {
			return nil, err
		}
		if !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	if len(years) > maxYearsPerRequest {
		return nil, fmt.Errorf("%w: at most %d years per request", errBadRequest, maxYearsPerRequest)
	}
	return years, nil
}

// requestYears returns ?years= when present, else ?year=, else def.
func requestYears(r *http.Request, def int) ([]int, error) {
	if raw := r.URL.Query().Get("years"); strings.TrimSpace(raw) != "" {
		years, err := parseYears(raw)
		if err != nil {
			return nil, err
		}
		if len(years) > 0 {
			return years, nil
		}
	}
	y, err := parseYear(r, def)
	if err != nil {
		return nil, err
	}
	return []int{y}, nil
}

// readRecords decodes the request body as a JSON array of objects or, for any
// other content type, as a CSV export.
func readRecords(w http.ResponseWriter, r *http.Request, maxBytes int64) ([]core.RawRecord, string, error) {
	body := http.MaxBytesReader(w, r.Body, maxBytes)
	defer body.Close()

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, "", err
		}
		var records []core.RawRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, "", fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
		}
		if records == nil {
			records = []core.RawRecord{}
		}
		return records, "json", nil
	}

	records, err := csvfile.Parse(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || errors.Is(err, csvfile.ErrNoHeader) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return records, "csv", nil
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid import id %q", errBadRequest, r.PathValue("id"))
	}
	return id, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
