package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"recap/internal/cache"
	"recap/internal/collection/memory"
	"recap/internal/core"

	"github.com/google/go-cmp/cmp"
)

func records() []core.RawRecord {
	return []core.RawRecord{
		{
			core.FieldID:             "101",
			core.FieldTitle:          "Hades",
			core.FieldPlatform:       "Nintendo Switch",
			core.FieldCompletion:     "Beaten",
			core.FieldStatus:         "Played",
			core.FieldCompletionDate: "2024-03-10",
			core.FieldPlayTime:       float64(1500),
			core.FieldRating:         float64(10),
			core.FieldCover:          "https://img.example.com/hades.jpg",
		},
		{
			core.FieldID:              "102",
			core.FieldTitle:           "Celeste",
			core.FieldPlatform:        "PC",
			core.FieldStatus:          "Playing",
			core.FieldAcquisitionDate: "2024-06-01",
			core.FieldCompletionDate:  "2023-12-01",
		},
		{
			core.FieldID:             "103",
			core.FieldTitle:          "Outer Wilds",
			core.FieldCompletionDate: "2023-05-05",
		},
	}
}

func newTestService(t *testing.T) (*RecapService, *memory.Store, *cache.LRUCache[core.Summary]) {
	t.Helper()
	store := memory.New()
	c := cache.NewLRUCache[core.Summary](16, time.Minute)
	return NewRecapService(store, c, 2, nil), store, c
}

func TestRecapService_RecapMatchesEngine(t *testing.T) {
	svc, _, _ := newTestService(t)

	got, err := svc.Recap(context.Background(), records(), 2024)
	if err != nil {
		t.Fatalf("Recap: %v", err)
	}
	want := core.Summarize(records(), 2024)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("recap mismatch (-want +got):\n%s", diff)
	}
}

func TestRecapService_OutOfRangeYear(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for _, year := range []int{0, -5, 10000} {
		got, err := svc.Recap(ctx, records(), year)
		if err != nil {
			t.Fatalf("year %d: unexpected error %v", year, err)
		}
		if got.Year != year || len(got.Games) != 0 || got.TotalGamesBeaten != 0 {
			t.Fatalf("year %d: expected empty summary, got %+v", year, got)
		}
	}

	sums, err := svc.BuildRecaps(ctx, records(), []int{2024, 0})
	if err != nil {
		t.Fatalf("BuildRecaps: %v", err)
	}
	if len(sums) != 2 || len(sums[0].Games) == 0 || len(sums[1].Games) != 0 {
		t.Fatalf("unexpected summaries %+v", sums)
	}
}

func TestRecapService_CallerOwnsResult(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Recap(ctx, records(), 2024)
	if err != nil {
		t.Fatal(err)
	}
	want := core.Summarize(records(), 2024)

	hades := first.Games[0]
	if hades.PlayTime == nil || hades.Rating == nil || hades.CoverImage == nil || hades.CompletionDate == nil {
		t.Fatalf("expected populated game, got %+v", hades)
	}
	*hades.PlayTime = 999999
	*hades.PlayTimeHours = -1
	*hades.Rating = -1
	*hades.CoverImage = "mutated"
	*hades.CompletionDate = "mutated"

	second, err := svc.Recap(ctx, records(), 2024)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, second); diff != "" {
		t.Fatalf("cached summary was changed through the first result (-want +got):\n%s", diff)
	}
}

func TestRecapService_CachesByContentAndYear(t *testing.T) {
	svc, _, c := newTestService(t)
	ctx := context.Background()

	first, err := svc.Recap(ctx, records(), 2024)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Recap(ctx, records(), 2024)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("cached recap differs (-first +second):\n%s", diff)
	}
	if hits, _ := c.Stats(); hits != 1 {
		t.Fatalf("expected 1 cache hit, got %d", hits)
	}

	if _, err := svc.Recap(ctx, records(), 2023); err != nil {
		t.Fatal(err)
	}
	changed := records()
	changed[0][core.FieldRating] = float64(2)
	if _, err := svc.Recap(ctx, changed, 2024); err != nil {
		t.Fatal(err)
	}
	if c.Size() != 3 {
		t.Fatalf("expected 3 cache entries, got %d", c.Size())
	}
}

func TestRecapService_CallerCannotCorruptCache(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Recap(ctx, records(), 2024)
	if err != nil {
		t.Fatal(err)
	}
	first.Games[0].Title = "mutated"
	first.PlatformTotals[0].Total = 99

	again, err := svc.Recap(ctx, records(), 2024)
	if err != nil {
		t.Fatal(err)
	}
	if again.Games[0].Title == "mutated" || again.PlatformTotals[0].Total == 99 {
		t.Fatalf("cached summary was modified through a returned value")
	}
}

func TestRecapService_OverridesOverlay(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	cover := "https://img.example.com/custom.png"
	if err := svc.SetOverride(ctx, " 102 ", core.GameOverride{CoverImage: &cover}); err != nil {
		t.Fatalf("SetOverride: %v", err)
	}

	got, err := svc.Recap(ctx, records(), 2024)
	if err != nil {
		t.Fatal(err)
	}
	covers := map[string]string{}
	for _, g := range got.Games {
		if g.CoverImage != nil {
			covers[g.ID] = *g.CoverImage
		}
	}
	want := map[string]string{
		"101": "https://img.example.com/hades.jpg",
		"102": cover,
	}
	if diff := cmp.Diff(want, covers); diff != "" {
		t.Fatalf("covers mismatch (-want +got):\n%s", diff)
	}

	if err := svc.DeleteOverride(ctx, "102"); err != nil {
		t.Fatalf("DeleteOverride: %v", err)
	}
	got, err = svc.Recap(ctx, records(), 2024)
	if err != nil {
		t.Fatal(err)
	}
	for _, g := range got.Games {
		if g.ID == "102" && g.CoverImage != nil {
			t.Fatalf("override should be gone, got %q", *g.CoverImage)
		}
	}
}

func TestRecapService_SetOverrideValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	cover := "https://img.example.com/a.png"
	bad := "javascript:alert(1)"

	if err := svc.SetOverride(ctx, "  ", core.GameOverride{CoverImage: &cover}); !errors.Is(err, core.ErrEmptyGameID) {
		t.Fatalf("expected ErrEmptyGameID, got %v", err)
	}
	if err := svc.SetOverride(ctx, "1", core.GameOverride{CoverImage: &bad}); !errors.Is(err, core.ErrInvalidOverride) {
		t.Fatalf("expected ErrInvalidOverride, got %v", err)
	}
	if err := svc.DeleteOverride(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecapService_BuildRecapsKeepsYearOrder(t *testing.T) {
	svc, _, _ := newTestService(t)
	years := []int{2024, 2023, 2022, 2024}

	sums, err := svc.BuildRecaps(context.Background(), records(), years)
	if err != nil {
		t.Fatalf("BuildRecaps: %v", err)
	}
	if len(sums) != len(years) {
		t.Fatalf("expected %d summaries, got %d", len(years), len(sums))
	}
	for i, s := range sums {
		if s.Year != years[i] {
			t.Fatalf("summary %d has year %d, want %d", i, s.Year, years[i])
		}
	}
	if sums[1].TotalGamesBeaten != 0 || len(sums[1].Games) != 2 {
		t.Fatalf("2023 recap unexpected: %+v", sums[1])
	}
	if len(sums[2].Games) != 0 {
		t.Fatalf("2022 recap should be empty, got %d games", len(sums[2].Games))
	}
}

func TestRecapService_BuildRecapsCancelled(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.BuildRecaps(ctx, records(), []int{2024}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRecapService_RecapImport(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	id, err := store.CreateImport(ctx, core.Import{Name: "export", Years: []int{2024}, Records: records()})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := store.GetSummary(ctx, id, 2024); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected no stored summary yet, got %v", err)
	}
	got, err := svc.RecapImport(ctx, id, 2024)
	if err != nil {
		t.Fatalf("RecapImport: %v", err)
	}
	stored, err := store.GetSummary(ctx, id, 2024)
	if err != nil {
		t.Fatalf("summary should be saved: %v", err)
	}
	if diff := cmp.Diff(stored, got); diff != "" {
		t.Fatalf("returned and stored summaries differ (-stored +got):\n%s", diff)
	}

	if _, err := svc.RecapImport(ctx, 999, 2024); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	empty, err := svc.RecapImport(ctx, id, 0)
	if err != nil || len(empty.Games) != 0 {
		t.Fatalf("expected empty summary for year 0, got %+v, %v", empty, err)
	}
}

func TestRecapService_StoreImportRecaps(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	imp := core.Import{Name: "export", Years: []int{2023, 2024}, Records: records()}
	id, err := store.CreateImport(ctx, imp)
	if err != nil {
		t.Fatal(err)
	}
	imp.ID = id

	if err := svc.StoreImportRecaps(ctx, imp); err != nil {
		t.Fatalf("StoreImportRecaps: %v", err)
	}
	for _, year := range imp.Years {
		s, err := store.GetSummary(ctx, id, year)
		if err != nil {
			t.Fatalf("year %d not stored: %v", year, err)
		}
		if s.Year != year {
			t.Fatalf("stored year %d, want %d", s.Year, year)
		}
	}
}

func TestRecapService_ConcurrentRecaps(t *testing.T) {
	svc, _, _ := newTestService(t)
	want := core.Summarize(records(), 2024)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := svc.Recap(context.Background(), records(), 2024)
			if err != nil {
				errs <- err
				return
			}
			if !cmp.Equal(want, got) {
				errs <- errors.New("concurrent recap differs")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}
