// Package csvfile reads collection exports written as delimited text.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"recap/internal/collection"
	"recap/internal/core"
)

var ErrNoHeader = errors.New("csv: missing header row")

const bom = "\ufeff"

// Parse reads a header-driven CSV document. The first non-blank row is the
// header; every following row becomes one record with dynamically typed cells.
func Parse(r io.Reader) ([]core.RawRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var headers []string
	records := make([]core.RawRecord, 0)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		cells := make([]any, len(row))
		for i, c := range row {
			cells[i] = c
		}
		if collection.IsBlank(cells) {
			continue
		}
		if headers == nil {
			if len(row) > 0 {
				cells[0] = strings.TrimPrefix(row[0], bom)
			}
			headers = collection.Headers(cells)
			continue
		}
		records = append(records, collection.Row(headers, cells))
	}
	if headers == nil {
		return nil, ErrNoHeader
	}
	return records, nil
}

// Source reads records from a CSV file on disk.
type Source struct {
	Path string
}

var _ collection.RecordSource = Source{}

func (s Source) Records(_ context.Context) ([]core.RawRecord, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.Path, err)
	}
	defer f.Close()
	recs, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.Path, err)
	}
	return recs, nil
}
