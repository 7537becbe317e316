package adapters

import (
	"context"

	"recap/internal/collection"
	"recap/internal/core"
	"recap/internal/services"
	"recap/internal/storage"
)

// SQLiteAdapter exposes the SQLite repository as a collection.Store, routing
// new imports through ImportService so they are announced on AMQP.
type SQLiteAdapter struct {
	*storage.SQLiteRepository
	service *services.ImportService
}

var _ collection.Store = (*SQLiteAdapter)(nil)

func NewSQLiteAdapter(storage *storage.SQLiteRepository, service *services.ImportService) *SQLiteAdapter {
	return &SQLiteAdapter{
		SQLiteRepository: storage,
		service:          service,
	}
}

// CreateImport implements collection.ImportStore
func (a *SQLiteAdapter) CreateImport(ctx context.Context, imp core.Import) (int64, error) {
	return a.service.CreateImport(ctx, imp)
}
