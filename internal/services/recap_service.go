package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"recap/internal/cache"
	"recap/internal/collection"
	"recap/internal/core"
	"recap/internal/log"

	json "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

// RecapService computes year recaps, caches them by content and applies the
// user's overrides on the way out.
type RecapService struct {
	store       collection.Store
	cache       cache.Cache[core.Summary]
	concurrency int
	logger      *log.StructuredLogger
}

// NewRecapService wires the service. summaries may be nil to disable caching.
func NewRecapService(store collection.Store, summaries cache.Cache[core.Summary], concurrency int, logger *log.Logger) *RecapService {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &RecapService{
		store:       store,
		cache:       summaries,
		concurrency: concurrency,
		logger:      log.NewStructuredLogger(logger.WithComponent(log.ComponentRecap)),
	}
}

// Recap returns the summary of records for year with overrides applied.
func (s *RecapService) Recap(ctx context.Context, records []core.RawRecord, year int) (core.Summary, error) {
	sum, err := s.compute(ctx, 0, records, year)
	if err != nil {
		return core.Summary{}, err
	}
	return s.overlay(ctx, sum)
}

// BuildRecaps computes one summary per requested year, in the order given.
func (s *RecapService) BuildRecaps(ctx context.Context, records []core.RawRecord, years []int) ([]core.Summary, error) {
	sums, err := s.computeAll(ctx, 0, records, years)
	if err != nil {
		return nil, err
	}
	overrides, err := s.listOverrides(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sums {
		sums[i] = ApplyOverrides(sums[i], overrides)
	}
	return sums, nil
}

// RecapImport returns the stored summary of an import, computing and saving
// it first when the worker has not done so yet.
func (s *RecapService) RecapImport(ctx context.Context, importID int64, year int) (core.Summary, error) {
	sum, err := s.store.GetSummary(ctx, importID, year)
	switch {
	case err == nil:
		return s.overlay(ctx, sum)
	case !errors.Is(err, core.ErrNotFound):
		return core.Summary{}, fmt.Errorf("get summary: %w", err)
	}

	imp, err := s.store.GetImport(ctx, importID)
	if err != nil {
		return core.Summary{}, fmt.Errorf("get import: %w", err)
	}
	sum, err = s.compute(ctx, importID, imp.Records, year)
	if err != nil {
		return core.Summary{}, err
	}
	if err := s.store.SaveSummary(ctx, importID, sum); err != nil {
		s.logger.LogError(ctx, "Failed to save summary", err, log.ComponentRecap, log.OpCreate,
			log.NewFields().WithRecap(importID, year, len(imp.Records), len(sum.Games)))
	}
	return s.overlay(ctx, sum)
}

// StoreImportRecaps computes and saves the summaries of every year the import
// asks for. Overrides are not baked into stored summaries.
func (s *RecapService) StoreImportRecaps(ctx context.Context, imp core.Import) error {
	sums, err := s.computeAll(ctx, imp.ID, imp.Records, imp.Years)
	if err != nil {
		return err
	}
	for _, sum := range sums {
		if err := s.store.SaveSummary(ctx, imp.ID, sum); err != nil {
			return fmt.Errorf("save summary %d/%d: %w", imp.ID, sum.Year, err)
		}
	}
	return nil
}

// SetOverride validates and stores an override for gameID.
func (s *RecapService) SetOverride(ctx context.Context, gameID string, o core.GameOverride) error {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return core.ErrEmptyGameID
	}
	if err := o.Validate(); err != nil {
		return err
	}
	cover := strings.TrimSpace(*o.CoverImage)
	o.CoverImage = &cover
	o.UpdatedAt = time.Now().UTC()
	return s.store.SaveOverride(ctx, gameID, o)
}

func (s *RecapService) DeleteOverride(ctx context.Context, gameID string) error {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return core.ErrEmptyGameID
	}
	return s.store.DeleteOverride(ctx, gameID)
}

func (s *RecapService) ListOverrides(ctx context.Context) (map[string]core.GameOverride, error) {
	return s.listOverrides(ctx)
}

func (s *RecapService) computeAll(ctx context.Context, importID int64, records []core.RawRecord, years []int) ([]core.Summary, error) {
	sums := make([]core.Summary, len(years))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, year := range years {
		g.Go(func() error {
			sum, err := s.compute(ctx, importID, records, year)
			if err != nil {
				return err
			}
			sums[i] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sums, nil
}

func (s *RecapService) compute(ctx context.Context, importID int64, records []core.RawRecord, year int) (core.Summary, error) {
	if err := ctx.Err(); err != nil {
		return core.Summary{}, err
	}

	key, cacheable := recapKey(records, year)
	if cacheable && s.cache != nil {
		if sum, ok := s.cache.Get(key); ok {
			s.logger.LogRecapComputed(ctx, importID, year, len(records), len(sum.Games), true)
			return sum.Clone(), nil
		}
	}

	sum := core.Summarize(records, year)
	if cacheable && s.cache != nil {
		s.cache.Set(key, sum.Clone())
	}
	s.logger.LogRecapComputed(ctx, importID, year, len(records), len(sum.Games), false)
	return sum, nil
}

func (s *RecapService) overlay(ctx context.Context, sum core.Summary) (core.Summary, error) {
	overrides, err := s.listOverrides(ctx)
	if err != nil {
		return core.Summary{}, err
	}
	return ApplyOverrides(sum, overrides), nil
}

func (s *RecapService) listOverrides(ctx context.Context) (map[string]core.GameOverride, error) {
	if s.store == nil {
		return nil, nil
	}
	overrides, err := s.store.ListOverrides(ctx)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	return overrides, nil
}

// recapKey hashes the records and the year. Records that cannot be encoded
// are not cached.
func recapKey(records []core.RawRecord, year int) (string, bool) {
	data, err := json.Marshal(records)
	if err != nil {
		return "", false
	}
	h := sha256.New()
	h.Write(data)
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(year)))
	return hex.EncodeToString(h.Sum(nil)), true
}
