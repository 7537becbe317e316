package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"recap/internal/collection"
	"recap/internal/core"
)

type summaryKey struct {
	importID int64
	year     int
}

// Store keeps imports, summaries and overrides in process memory.
type Store struct {
	mu        sync.Mutex
	nextID    int64
	imports   map[int64]core.Import
	summaries map[summaryKey]core.Summary
	overrides map[string]core.GameOverride
	now       func() time.Time
}

var _ collection.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		imports:   map[int64]core.Import{},
		summaries: map[summaryKey]core.Summary{},
		overrides: map[string]core.GameOverride{},
		now:       time.Now,
	}
}

func (s *Store) CreateImport(_ context.Context, imp core.Import) (int64, error) {
	if err := imp.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	imp.ID = s.nextID
	imp.Years = append([]int(nil), imp.Years...)
	imp.Records = append([]core.RawRecord(nil), imp.Records...)
	imp.RecordCount = len(imp.Records)
	imp.Status = core.ImportPending
	imp.CreatedAt = s.now().UTC()
	s.imports[imp.ID] = imp
	return imp.ID, nil
}

func (s *Store) GetImport(_ context.Context, id int64) (core.Import, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	imp, ok := s.imports[id]
	if !ok {
		return core.Import{}, fmt.Errorf("import %d: %w", id, core.ErrNotFound)
	}
	imp.Years = append([]int(nil), imp.Years...)
	imp.Records = append([]core.RawRecord(nil), imp.Records...)
	return imp, nil
}

func (s *Store) ListImports(_ context.Context) ([]core.Import, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Import, 0, len(s.imports))
	for _, imp := range s.imports {
		imp.Records = nil
		imp.Years = append([]int(nil), imp.Years...)
		out = append(out, imp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) PendingImports(ctx context.Context, limit int) ([]core.Import, error) {
	all, err := s.ListImports(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.Import, 0)
	// oldest first
	for i := len(all) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if all[i].Status == core.ImportPending {
			out = append(out, all[i])
		}
	}
	return out, nil
}

func (s *Store) MarkImport(_ context.Context, id int64, status core.ImportStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	imp, ok := s.imports[id]
	if !ok {
		return fmt.Errorf("import %d: %w", id, core.ErrNotFound)
	}
	imp.Status = status
	s.imports[id] = imp
	return nil
}

func (s *Store) SaveSummary(_ context.Context, importID int64, sum core.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.imports[importID]; !ok {
		return fmt.Errorf("import %d: %w", importID, core.ErrNotFound)
	}
	s.summaries[summaryKey{importID, sum.Year}] = sum.Clone()
	return nil
}

func (s *Store) GetSummary(_ context.Context, importID int64, year int) (core.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum, ok := s.summaries[summaryKey{importID, year}]
	if !ok {
		return core.Summary{}, fmt.Errorf("summary %d/%d: %w", importID, year, core.ErrNotFound)
	}
	return sum.Clone(), nil
}

func (s *Store) SaveOverride(_ context.Context, gameID string, o core.GameOverride) error {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return core.ErrEmptyGameID
	}
	if err := o.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = s.now().UTC()
	}
	s.overrides[gameID] = o
	return nil
}

func (s *Store) DeleteOverride(_ context.Context, gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.overrides[gameID]; !ok {
		return fmt.Errorf("override %q: %w", gameID, core.ErrNotFound)
	}
	delete(s.overrides, gameID)
	return nil
}

func (s *Store) ListOverrides(_ context.Context) (map[string]core.GameOverride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]core.GameOverride, len(s.overrides))
	for k, v := range s.overrides {
		out[k] = v
	}
	return out, nil
}
