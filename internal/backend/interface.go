package backend

import (
	"context"

	"recap/internal/collection"
)

// Backend stores imports, summaries and overrides.
type Backend interface {
	collection.Store
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and its lifecycle hooks.
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
	// Ready reports whether the backend can serve requests. Nil means always ready.
	Ready func(ctx context.Context) error
	// Publishing is true when new imports are announced on AMQP.
	Publishing bool
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
