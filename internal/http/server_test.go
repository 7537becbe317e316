package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"recap/internal/collection/memory"
	"recap/internal/core"
	"recap/internal/log"
	"recap/internal/middleware/trace"
	"recap/internal/services"

	json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
)

const sampleCSV = "\ufeffIGDB ID,Game name,Platform,Completion,Status,Completion date,Acquisition date,Playtime,Rating (Score)\n" +
	"1,Hades,Nintendo Switch,Beaten,Played,2024-03-10,,1500,10\n" +
	"2,Celeste,PC,,Playing,,2024-06-01,,\n" +
	"\n" +
	"3,Outer Wilds,PC,Completed,Played,2023-05-05,2023-01-01,900,9\n"

func newTestServer(t *testing.T, cfg Config, ready func(context.Context) error) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	logger := log.New(log.Config{Output: &bytes.Buffer{}})
	recaps := services.NewRecapService(store, nil, 2, logger)
	if cfg.DefaultYear == 0 {
		cfg.DefaultYear = 2024
	}
	srv := NewServer(cfg, store, recaps, ready, logger)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv, store
}

func do(t *testing.T, srv *Server, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	srv, _ := newTestServer(t, Config{}, nil)
	for _, path := range []string{"/healthz", "/readyz"} {
		if rr := do(t, srv, http.MethodGet, path, "", ""); rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	down, _ := newTestServer(t, Config{}, func(context.Context) error { return errors.New("db gone") })
	if rr := do(t, down, http.MethodGet, "/readyz", "", ""); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestSummary_CSV(t *testing.T) {
	srv, _ := newTestServer(t, Config{}, nil)

	rr := do(t, srv, http.MethodPost, "/api/summary?year=2024", "text/csv", sampleCSV)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	got := decode[core.Summary](t, rr)

	if got.Year != 2024 || got.TotalGamesBeaten != 1 || len(got.Games) != 2 {
		t.Fatalf("unexpected summary %+v", got)
	}
	wantPlatforms := []core.PlatformTotal{{Platform: "Nintendo Switch", PlatformAbbreviation: "Switch", Total: 1}}
	if diff := cmp.Diff(wantPlatforms, got.PlatformTotals); diff != "" {
		t.Fatalf("platform totals (-want +got):\n%s", diff)
	}
	if got.Acquisitions.TotalAcquired != 1 || got.Acquisitions.PercentPlayed != 100 {
		t.Fatalf("unexpected acquisitions %+v", got.Acquisitions)
	}
	if rr.Header().Get("Content-Type") != "application/json; charset=utf-8" {
		t.Fatalf("unexpected content type %q", rr.Header().Get("Content-Type"))
	}
	if rr.Header().Get(trace.HeaderRequestID) == "" || rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("middleware headers missing: %v", rr.Header())
	}
}

func TestSummary_DefaultYearAndJSONBody(t *testing.T) {
	srv, _ := newTestServer(t, Config{DefaultYear: 2023}, nil)

	body := `[{"IGDB ID": 3, "Game name": "Outer Wilds", "Completion": "Completed", "Completion date": "2023-05-05"}]`
	rr := do(t, srv, http.MethodPost, "/api/summary", "application/json", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	got := decode[core.Summary](t, rr)
	if got.Year != 2023 || got.TotalGamesCompleted != 1 || got.Games[0].ID != "3" {
		t.Fatalf("unexpected summary %+v", got)
	}
}

func TestSummary_MultipleYears(t *testing.T) {
	srv, _ := newTestServer(t, Config{}, nil)

	rr := do(t, srv, http.MethodPost, "/api/summary?years=2024,2023,2024", "text/csv", sampleCSV)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	got := decode[[]core.Summary](t, rr)
	if len(got) != 2 || got[0].Year != 2024 || got[1].Year != 2023 {
		t.Fatalf("expected 2024 then 2023, got %d summaries", len(got))
	}
}

func TestSummary_Errors(t *testing.T) {
	srv, _ := newTestServer(t, Config{MaxUploadBytes: 64}, nil)

	tests := []struct {
		name        string
		target      string
		contentType string
		body        string
		want        int
	}{
		{"year not a number", "/api/summary?year=abc", "text/csv", sampleCSV[:40], http.StatusBadRequest},
		{"year out of range", "/api/summary?year=0", "text/csv", "a\n", http.StatusBadRequest},
		{"empty body has no header", "/api/summary?year=2024", "text/csv", "", http.StatusBadRequest},
		{"bad json", "/api/summary?year=2024", "application/json", "{", http.StatusBadRequest},
		{"too large", "/api/summary?year=2024", "text/csv", strings.Repeat("x", 200), http.StatusRequestEntityTooLarge},
		{"wrong method", "/api/summary", "", "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := http.MethodPost
			if tt.want == http.StatusMethodNotAllowed {
				method = http.MethodGet
			}
			rr := do(t, srv, method, tt.target, tt.contentType, tt.body)
			if rr.Code != tt.want {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestSummary_EmptyCollection(t *testing.T) {
	srv, _ := newTestServer(t, Config{}, nil)

	rr := do(t, srv, http.MethodPost, "/api/summary?year=2024", "text/csv", "IGDB ID,Game name\n")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	for _, key := range []string{`"platformTotals":[]`, `"games":[]`, `"topGames":[]`} {
		if !strings.Contains(rr.Body.String(), key) {
			t.Fatalf("expected %s in %s", key, rr.Body.String())
		}
	}
}

func TestImports_Lifecycle(t *testing.T) {
	srv, store := newTestServer(t, Config{}, nil)

	rr := do(t, srv, http.MethodPost, "/api/imports?name=backloggd&years=2023,2024", "text/csv", sampleCSV)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	created := decode[createImportResponse](t, rr)
	if created.ID == 0 || rr.Header().Get("Location") != "/api/imports/1" {
		t.Fatalf("unexpected create response %+v location=%q", created, rr.Header().Get("Location"))
	}

	rr = do(t, srv, http.MethodGet, "/api/imports", "", "")
	list := decode[[]core.Import](t, rr)
	if len(list) != 1 || list[0].Name != "backloggd" || list[0].RecordCount != 3 || list[0].Source != "csv" {
		t.Fatalf("unexpected import list %+v", list)
	}

	rr = do(t, srv, http.MethodGet, "/api/imports/1/summary?year=2023", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	sum := decode[core.Summary](t, rr)
	if sum.Year != 2023 || sum.TotalGamesCompleted != 1 {
		t.Fatalf("unexpected stored summary %+v", sum)
	}
	if _, err := store.GetSummary(context.Background(), 1, 2023); err != nil {
		t.Fatalf("summary should have been saved: %v", err)
	}

	for target, want := range map[string]int{
		"/api/imports/99/summary?year=2024": http.StatusNotFound,
		"/api/imports/abc/summary":          http.StatusBadRequest,
		"/api/imports/1/summary?year=-1":    http.StatusBadRequest,
		"/api/imports/99":                   http.StatusNotFound,
		"/api/imports/1":                    http.StatusOK,
	} {
		if rr := do(t, srv, http.MethodGet, target, "", ""); rr.Code != want {
			t.Errorf("%s: status=%d want %d", target, rr.Code, want)
		}
	}
}

func TestImports_Validation(t *testing.T) {
	srv, _ := newTestServer(t, Config{}, nil)

	if rr := do(t, srv, http.MethodPost, "/api/imports", "text/csv", "IGDB ID,Game name\n"); rr.Code != http.StatusBadRequest {
		t.Fatalf("empty import: status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodPost, "/api/imports?years=2024,nope", "text/csv", sampleCSV); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad years: status=%d", rr.Code)
	}
}

func TestOverrides(t *testing.T) {
	srv, _ := newTestServer(t, Config{}, nil)

	rr := do(t, srv, http.MethodPut, "/api/overrides/2", "application/json", `{"coverImage": "https://img.example.com/celeste.png"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodGet, "/api/overrides", "", "")
	overrides := decode[map[string]core.GameOverride](t, rr)
	if o, ok := overrides["2"]; !ok || *o.CoverImage != "https://img.example.com/celeste.png" {
		t.Fatalf("override not listed: %+v", overrides)
	}

	rr = do(t, srv, http.MethodPost, "/api/summary?year=2024", "text/csv", sampleCSV)
	sum := decode[core.Summary](t, rr)
	var cover string
	for _, g := range sum.Games {
		if g.ID == "2" && g.CoverImage != nil {
			cover = *g.CoverImage
		}
	}
	if cover != "https://img.example.com/celeste.png" {
		t.Fatalf("override not applied to summary, cover=%q", cover)
	}

	for _, tc := range []struct {
		method, target, body string
		want                 int
	}{
		{http.MethodPut, "/api/overrides/2", `{"coverImage": "ftp://x"}`, http.StatusBadRequest},
		{http.MethodPut, "/api/overrides/2", `{}`, http.StatusBadRequest},
		{http.MethodPut, "/api/overrides/2", `not json`, http.StatusBadRequest},
		{http.MethodDelete, "/api/overrides/2", "", http.StatusNoContent},
		{http.MethodDelete, "/api/overrides/2", "", http.StatusNotFound},
	} {
		if rr := do(t, srv, tc.method, tc.target, "application/json", tc.body); rr.Code != tc.want {
			t.Errorf("%s %s %s: status=%d want %d", tc.method, tc.target, tc.body, rr.Code, tc.want)
		}
	}
}

func TestRateLimitOnlyAppliesToWrites(t *testing.T) {
	srv, _ := newTestServer(t, Config{RequestsPerMinute: 2}, nil)

	for i := 0; i < 2; i++ {
		if rr := do(t, srv, http.MethodPost, "/api/summary?year=2024", "text/csv", sampleCSV); rr.Code != http.StatusOK {
			t.Fatalf("request %d: status=%d", i, rr.Code)
		}
	}
	rr := do(t, srv, http.MethodPost, "/api/summary?year=2024", "text/csv", sampleCSV)
	if rr.Code != http.StatusTooManyRequests || rr.Header().Get("Retry-After") != "60" {
		t.Fatalf("expected 429 with Retry-After, got %d", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/api/imports", "", ""); rr.Code != http.StatusOK {
		t.Fatalf("reads must not be limited, got %d", rr.Code)
	}
}
