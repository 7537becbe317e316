package csvfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"recap/internal/core"
)

const export = "\ufeffIGDB ID,Game name,Platform,Game release date,Completion,Status,Acquisition date,Completion date,Playtime,Rating (Score)\n" +
	"119133,Elden Ring,PlayStation 5,2022-02-25,Beaten,Played,2022-02-25,2024-03-02,5400,10\n" +
	"\n" +
	",,,,,,,,,\n" +
	"1020,\"Grand Theft Auto, V\",Windows PC,,,Playing,2024-01-01\n"

func TestParse(t *testing.T) {
	recs, err := Parse(strings.NewReader(export))
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}

	first := recs[0]
	if first[core.FieldID] != 119133.0 {
		t.Fatalf("expected numeric id (BOM stripped from header), got %#v", first)
	}
	if first[core.FieldPlayTime] != 5400.0 || first[core.FieldRating] != 10.0 {
		t.Fatalf("expected numeric playtime and rating, got %#v", first)
	}
	if first[core.FieldCompletionDate] != "2024-03-02" {
		t.Fatalf("dates must stay text, got %#v", first[core.FieldCompletionDate])
	}

	second := recs[1]
	if second[core.FieldTitle] != "Grand Theft Auto, V" {
		t.Fatalf("quoted cell not kept, got %#v", second[core.FieldTitle])
	}
	for _, k := range []string{core.FieldReleaseDate, core.FieldCompletion, core.FieldPlayTime, core.FieldRating} {
		if _, ok := second[k]; ok {
			t.Fatalf("expected %q absent, got %#v", k, second[k])
		}
	}

	g := core.Normalize(second, 1)
	if g.Title != "Grand Theft Auto, V" || !g.AcquiredIn(2024) || g.PlayTime != nil {
		t.Fatalf("unexpected normalized game %+v", g)
	}
}

func TestParse_NoHeader(t *testing.T) {
	for _, in := range []string{"", "\n\n", ",,\n"} {
		if _, err := Parse(strings.NewReader(in)); !errors.Is(err, ErrNoHeader) {
			t.Fatalf("%q: expected ErrNoHeader, got %v", in, err)
		}
	}
}

func TestParse_HeaderOnly(t *testing.T) {
	recs, err := Parse(strings.NewReader("Game name,Platform\n"))
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if recs == nil || len(recs) != 0 {
		t.Fatalf("expected empty non-nil records, got %#v", recs)
	}
}

func TestSourceRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	if err := os.WriteFile(path, []byte(export), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	recs, err := Source{Path: path}.Records(context.Background())
	if err != nil || len(recs) != 2 {
		t.Fatalf("unexpected records %d err=%v", len(recs), err)
	}

	if _, err := (Source{Path: filepath.Join(t.TempDir(), "missing.csv")}).Records(context.Background()); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
