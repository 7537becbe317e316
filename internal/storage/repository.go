package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"recap/internal/collection"
	"recap/internal/core"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

var _ collection.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("SQLite database ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateImport implements collection.ImportStore
func (r *SQLiteRepository) CreateImport(ctx context.Context, imp core.Import) (int64, error) {
	if err := imp.Validate(); err != nil {
		return 0, err
	}
	years, err := json.Marshal(imp.Years)
	if err != nil {
		return 0, fmt.Errorf("encode years: %w", err)
	}
	records, err := json.Marshal(imp.Records)
	if err != nil {
		return 0, fmt.Errorf("encode records: %w", err)
	}

	id, err := r.queries.CreateImport(ctx, CreateImportParams{
		Name:        imp.Name,
		Source:      imp.Source,
		Years:       string(years),
		Records:     string(records),
		RecordCount: int64(len(imp.Records)),
		CreatedAt:   r.now().UnixMilli(),
	})
	if err != nil {
		return 0, fmt.Errorf("create import: %w", err)
	}

	slog.InfoContext(ctx, "Import saved to SQLite",
		"id", id,
		"name", imp.Name,
		"records", len(imp.Records),
		"years", imp.Years)
	return id, nil
}

// GetImport implements collection.ImportStore
func (r *SQLiteRepository) GetImport(ctx context.Context, id int64) (core.Import, error) {
	row, err := r.queries.GetImport(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Import{}, fmt.Errorf("import %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Import{}, fmt.Errorf("get import: %w", err)
	}
	return toCoreImport(row)
}

// ListImports implements collection.ImportStore
func (r *SQLiteRepository) ListImports(ctx context.Context) ([]core.Import, error) {
	rows, err := r.queries.ListImports(ctx)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	return toCoreImports(rows)
}

// PendingImports implements collection.ImportStore
func (r *SQLiteRepository) PendingImports(ctx context.Context, limit int) ([]core.Import, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.queries.ListPendingImports(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list pending imports: %w", err)
	}
	return toCoreImports(rows)
}

// MarkImport implements collection.ImportStore
func (r *SQLiteRepository) MarkImport(ctx context.Context, id int64, status core.ImportStatus) error {
	n, err := r.queries.UpdateImportStatus(ctx, UpdateImportStatusParams{Status: string(status), ID: id})
	if err != nil {
		return fmt.Errorf("mark import %d %s: %w", id, status, err)
	}
	if n == 0 {
		return fmt.Errorf("import %d: %w", id, core.ErrNotFound)
	}
	if status == core.ImportFailed {
		slog.WarnContext(ctx, "Import marked with recap error", "id", id)
	} else {
		slog.InfoContext(ctx, "Import status updated", "id", id, "status", status)
	}
	return nil
}

// SaveSummary implements collection.SummaryStore
func (r *SQLiteRepository) SaveSummary(ctx context.Context, importID int64, s core.Summary) error {
	ok, err := r.queries.ImportExists(ctx, importID)
	if err != nil {
		return fmt.Errorf("check import: %w", err)
	}
	if !ok {
		return fmt.Errorf("import %d: %w", importID, core.ErrNotFound)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := r.queries.UpsertSummary(ctx, UpsertSummaryParams{
		ImportID:  importID,
		Year:      int64(s.Year),
		Data:      string(data),
		CreatedAt: r.now().UnixMilli(),
	}); err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	slog.DebugContext(ctx, "Summary saved", "import_id", importID, "year", s.Year, "games", len(s.Games))
	return nil
}

// GetSummary implements collection.SummaryStore
func (r *SQLiteRepository) GetSummary(ctx context.Context, importID int64, year int) (core.Summary, error) {
	data, err := r.queries.GetSummary(ctx, GetSummaryParams{ImportID: importID, Year: int64(year)})
	if errors.Is(err, sql.ErrNoRows) {
		return core.Summary{}, fmt.Errorf("summary %d/%d: %w", importID, year, core.ErrNotFound)
	}
	if err != nil {
		return core.Summary{}, fmt.Errorf("get summary: %w", err)
	}
	var s core.Summary
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return core.Summary{}, fmt.Errorf("decode summary %d/%d: %w", importID, year, err)
	}
	return s, nil
}

// SaveOverride implements collection.OverrideStore
func (r *SQLiteRepository) SaveOverride(ctx context.Context, gameID string, o core.GameOverride) error {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return core.ErrEmptyGameID
	}
	if err := o.Validate(); err != nil {
		return err
	}
	updated := o.UpdatedAt
	if updated.IsZero() {
		updated = r.now()
	}
	err := r.queries.UpsertOverride(ctx, UpsertOverrideParams{
		GameID:     gameID,
		CoverImage: sql.NullString{String: strings.TrimSpace(*o.CoverImage), Valid: true},
		UpdatedAt:  updated.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("save override: %w", err)
	}
	slog.InfoContext(ctx, "Game override saved", "game_id", gameID)
	return nil
}

// DeleteOverride implements collection.OverrideStore
func (r *SQLiteRepository) DeleteOverride(ctx context.Context, gameID string) error {
	n, err := r.queries.DeleteOverride(ctx, strings.TrimSpace(gameID))
	if err != nil {
		return fmt.Errorf("delete override: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("override %q: %w", gameID, core.ErrNotFound)
	}
	slog.InfoContext(ctx, "Game override deleted", "game_id", gameID)
	return nil
}

// ListOverrides implements collection.OverrideStore
func (r *SQLiteRepository) ListOverrides(ctx context.Context) (map[string]core.GameOverride, error) {
	rows, err := r.queries.ListOverrides(ctx)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	out := make(map[string]core.GameOverride, len(rows))
	for _, row := range rows {
		o := core.GameOverride{UpdatedAt: time.UnixMilli(row.UpdatedAt).UTC()}
		if row.CoverImage.Valid {
			cover := row.CoverImage.String
			o.CoverImage = &cover
		}
		out[row.GameID] = o
	}
	return out, nil
}

func toCoreImports(rows []Import) ([]core.Import, error) {
	out := make([]core.Import, 0, len(rows))
	for _, row := range rows {
		imp, err := toCoreImport(row)
		if err != nil {
			return nil, err
		}
		out = append(out, imp)
	}
	return out, nil
}

func toCoreImport(row Import) (core.Import, error) {
	imp := core.Import{
		ID:          row.ID,
		Name:        row.Name,
		Source:      row.Source,
		RecordCount: int(row.RecordCount),
		Status:      core.ImportStatus(row.Status),
		CreatedAt:   time.UnixMilli(row.CreatedAt).UTC(),
	}
	if err := json.Unmarshal([]byte(row.Years), &imp.Years); err != nil {
		return core.Import{}, fmt.Errorf("decode years of import %d: %w", row.ID, err)
	}
	if row.Records != "" {
		if err := json.Unmarshal([]byte(row.Records), &imp.Records); err != nil {
			return core.Import{}, fmt.Errorf("decode records of import %d: %w", row.ID, err)
		}
	}
	return imp, nil
}
