package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"recap/internal/amqp"
	"recap/internal/collection"
	"recap/internal/core"
	"recap/internal/services"
)

const defaultBatchSize = 10

// RecapWorker computes and stores the recaps of uploaded imports.
type RecapWorker struct {
	imports   collection.ImportStore
	recaps    *services.RecapService
	batchSize int
}

func NewRecapWorker(imports collection.ImportStore, recaps *services.RecapService, batchSize int) *RecapWorker {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &RecapWorker{
		imports:   imports,
		recaps:    recaps,
		batchSize: batchSize,
	}
}

// HandleRecapRequest processes a single recap request from AMQP. A returned
// error requeues the message.
func (w *RecapWorker) HandleRecapRequest(ctx context.Context, msg *amqp.RecapRequestMessage) error {
	slog.InfoContext(ctx, "Processing recap request",
		"message_id", msg.ID,
		"import_id", msg.ImportID,
		"years", msg.Years)

	imp, err := w.imports.GetImport(ctx, msg.ImportID)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Import no longer exists, dropping request", "import_id", msg.ImportID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get import: %w", err)
	}
	if len(msg.Years) > 0 {
		imp.Years = msg.Years
	}

	return w.process(ctx, imp)
}

// ProcessPendingImports recaps imports that are still pending. This is the
// backup path for lost messages and for runs without a broker.
func (w *RecapWorker) ProcessPendingImports(ctx context.Context) (int, error) {
	pending, err := w.imports.PendingImports(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("get pending imports: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Processing pending imports", "count", len(pending))

	processed := 0
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		imp, err := w.imports.GetImport(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get import", "import_id", p.ID, "error", err)
			w.mark(ctx, p.ID, core.ImportFailed)
			continue
		}
		if err := w.process(ctx, imp); err != nil {
			slog.ErrorContext(ctx, "Failed to process pending import", "import_id", p.ID, "error", err)
			continue
		}
		processed++
	}
	return processed, nil
}

func (w *RecapWorker) process(ctx context.Context, imp core.Import) error {
	if err := validateYears(imp.Years); err != nil {
		// retrying cannot fix a bad year
		slog.ErrorContext(ctx, "Import requests an invalid year", "import_id", imp.ID, "error", err)
		w.mark(ctx, imp.ID, core.ImportFailed)
		return nil
	}
	if err := w.recaps.StoreImportRecaps(ctx, imp); err != nil {
		return fmt.Errorf("store recaps: %w", err)
	}

	w.mark(ctx, imp.ID, core.ImportProcessed)
	slog.InfoContext(ctx, "Recaps stored",
		"import_id", imp.ID,
		"years", imp.Years,
		"records", len(imp.Records))
	return nil
}

func (w *RecapWorker) mark(ctx context.Context, id int64, status core.ImportStatus) {
	if err := w.imports.MarkImport(ctx, id, status); err != nil {
		slog.ErrorContext(ctx, "Failed to mark import", "import_id", id, "status", status, "error", err)
	}
}

func validateYears(years []int) error {
	for _, y := range years {
		if err := core.ValidateYear(y); err != nil {
			return err
		}
	}
	return nil
}
