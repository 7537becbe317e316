package memory

import (
	"context"
	"errors"
	"testing"

	"recap/internal/core"
)

func newImport(name string, years ...int) core.Import {
	return core.Import{
		Name:    name,
		Source:  "csv",
		Years:   years,
		Records: []core.RawRecord{{core.FieldTitle: "Hades", core.FieldCompletionDate: "2024-01-01"}},
	}
}

func TestMemoryStoreImports(t *testing.T) {
	ctx := context.Background()
	s := New()

	id1, err := s.CreateImport(ctx, newImport("first", 2024))
	if err != nil || id1 != 1 {
		t.Fatalf("unexpected create: id=%d err=%v", id1, err)
	}
	id2, err := s.CreateImport(ctx, newImport("second", 2023, 2024))
	if err != nil || id2 != 2 {
		t.Fatalf("unexpected create: id=%d err=%v", id2, err)
	}
	if _, err := s.CreateImport(ctx, core.Import{Years: []int{2024}}); !errors.Is(err, core.ErrEmptyImport) {
		t.Fatalf("expected ErrEmptyImport, got %v", err)
	}

	imp, err := s.GetImport(ctx, id2)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if imp.Status != core.ImportPending || imp.RecordCount != 1 || len(imp.Records) != 1 || imp.CreatedAt.IsZero() {
		t.Fatalf("unexpected import %+v", imp)
	}
	if _, err := s.GetImport(ctx, 99); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	list, _ := s.ListImports(ctx)
	if len(list) != 2 || list[0].ID != id2 || list[0].Records != nil {
		t.Fatalf("unexpected list %+v", list)
	}

	if err := s.MarkImport(ctx, id1, core.ImportProcessed); err != nil {
		t.Fatalf("mark: %v", err)
	}
	pending, _ := s.PendingImports(ctx, 10)
	if len(pending) != 1 || pending[0].ID != id2 {
		t.Fatalf("unexpected pending %+v", pending)
	}
	if err := s.MarkImport(ctx, 42, core.ImportFailed); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStorePendingOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, n := range []string{"a", "b", "c"} {
		if _, err := s.CreateImport(ctx, newImport(n, 2024)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	pending, _ := s.PendingImports(ctx, 2)
	if len(pending) != 2 || pending[0].Name != "a" || pending[1].Name != "b" {
		t.Fatalf("expected oldest first, got %+v", pending)
	}
}

func TestMemoryStoreSummaries(t *testing.T) {
	ctx := context.Background()
	s := New()
	id, _ := s.CreateImport(ctx, newImport("x", 2024))

	sum := core.Summarize(newImport("x", 2024).Records, 2024)
	if err := s.SaveSummary(ctx, id, sum); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveSummary(ctx, 77, sum); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown import, got %v", err)
	}

	got, err := s.GetSummary(ctx, id, 2024)
	if err != nil || got.CompletionWindowGames() != 1 {
		t.Fatalf("unexpected summary %+v err=%v", got, err)
	}
	got.Games[0].Title = "changed"
	*got.Games[0].CompletionDate = "changed"
	*got.Games[0].CompletionMonth = "changed"
	*sum.Games[0].CompletionDate = "changed after save"
	again, _ := s.GetSummary(ctx, id, 2024)
	if again.Games[0].Title != "Hades" {
		t.Fatalf("stored summary was mutated through a returned copy")
	}
	if *again.Games[0].CompletionDate != "Jan 01" || *again.Games[0].CompletionMonth != "January" {
		t.Fatalf("stored game dates were mutated through a shared pointer: %q %q",
			*again.Games[0].CompletionDate, *again.Games[0].CompletionMonth)
	}
	if _, err := s.GetSummary(ctx, id, 2023); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreOverrides(t *testing.T) {
	ctx := context.Background()
	s := New()
	cover := "https://img.example.com/hades.png"

	if err := s.SaveOverride(ctx, " ", core.GameOverride{CoverImage: &cover}); !errors.Is(err, core.ErrEmptyGameID) {
		t.Fatalf("expected ErrEmptyGameID, got %v", err)
	}
	if err := s.SaveOverride(ctx, "1", core.GameOverride{}); !errors.Is(err, core.ErrInvalidOverride) {
		t.Fatalf("expected ErrInvalidOverride, got %v", err)
	}
	if err := s.SaveOverride(ctx, "1", core.GameOverride{CoverImage: &cover}); err != nil {
		t.Fatalf("save: %v", err)
	}

	all, _ := s.ListOverrides(ctx)
	if o, ok := all["1"]; !ok || *o.CoverImage != cover || o.UpdatedAt.IsZero() {
		t.Fatalf("unexpected overrides %+v", all)
	}

	if err := s.DeleteOverride(ctx, "1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteOverride(ctx, "1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
