package collection

import (
	"context"

	"recap/internal/core"
)

// Ports for outbound adapters.
type (
	// RecordSource yields the raw rows of one collection export.
	RecordSource interface {
		Records(ctx context.Context) ([]core.RawRecord, error)
	}

	ImportStore interface {
		// CreateImport stores imp and returns its id.
		CreateImport(ctx context.Context, imp core.Import) (int64, error)
		// GetImport returns the import with its records, or core.ErrNotFound.
		GetImport(ctx context.Context, id int64) (core.Import, error)
		// ListImports returns imports newest first, without records.
		ListImports(ctx context.Context) ([]core.Import, error)
		// PendingImports returns up to limit imports still waiting for a recap.
		PendingImports(ctx context.Context, limit int) ([]core.Import, error)
		MarkImport(ctx context.Context, id int64, status core.ImportStatus) error
	}

	// SummaryStore keeps computed summaries per import and year.
	SummaryStore interface {
		SaveSummary(ctx context.Context, importID int64, s core.Summary) error
		// GetSummary returns core.ErrNotFound when nothing was stored yet.
		GetSummary(ctx context.Context, importID int64, year int) (core.Summary, error)
	}

	// OverrideStore holds user corrections keyed by game id.
	OverrideStore interface {
		SaveOverride(ctx context.Context, gameID string, o core.GameOverride) error
		DeleteOverride(ctx context.Context, gameID string) error
		ListOverrides(ctx context.Context) (map[string]core.GameOverride, error)
	}

	// Store is a backend that can hold everything.
	Store interface {
		ImportStore
		SummaryStore
		OverrideStore
	}
)
