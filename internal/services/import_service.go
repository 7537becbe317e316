package services

import (
	"context"
	"fmt"
	"log/slog"

	"recap/internal/collection"
	"recap/internal/core"
)

// Publisher announces new imports to the recap worker.
type Publisher interface {
	PublishRecapRequest(ctx context.Context, importID int64, years []int) error
	Close() error
}

// ImportService stores imports and notifies the worker through AMQP.
type ImportService struct {
	store     collection.ImportStore
	publisher Publisher
}

// NewImportService wires the service; publisher may be nil.
func NewImportService(store collection.ImportStore, publisher Publisher) *ImportService {
	return &ImportService{
		store:     store,
		publisher: publisher,
	}
}

// CreateImport saves the import locally and publishes a recap request.
// A failed publish is logged only: the pending sweep picks the import up.
func (s *ImportService) CreateImport(ctx context.Context, imp core.Import) (int64, error) {
	if err := imp.Validate(); err != nil {
		return 0, err
	}
	imp.Status = core.ImportPending

	id, err := s.store.CreateImport(ctx, imp)
	if err != nil {
		return 0, fmt.Errorf("save import: %w", err)
	}

	if err := s.publish(ctx, id, imp.Years); err != nil {
		slog.ErrorContext(ctx, "Failed to publish recap request",
			"import_id", id, "error", err)
	}

	return id, nil
}

func (s *ImportService) publish(ctx context.Context, id int64, years []int) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping recap request", "import_id", id)
		return nil
	}
	return s.publisher.PublishRecapRequest(ctx, id, years)
}

// Close closes the publisher.
func (s *ImportService) Close() error {
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.Close(); err != nil {
		return fmt.Errorf("close publisher: %w", err)
	}
	return nil
}
