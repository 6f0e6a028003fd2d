package sources

import (
	"context"
	"log/slog"
	"sync"

	"scifind-backend/internal/breaker"
	"scifind-backend/internal/models"
)

// FanoutResult is the gathered output of querying every enabled adapter.
type FanoutResult struct {
	Records     []*models.PaperRecord
	SourceStats map[models.SourceTag]int
}

// Fanout runs one goroutine per adapter, each guarded by that source's
// circuit breaker, and gathers every PaperRecord produced. No adapter
// shares mutable state with another; a single slow or failing adapter
// never blocks or fails the others, per spec 5.
type Fanout struct {
	adapters []Adapter
	breakers *breaker.Manager
	logger   *slog.Logger
}

// NewFanout builds a fan-out orchestrator over the given adapters.
func NewFanout(adapters []Adapter, breakers *breaker.Manager, logger *slog.Logger) *Fanout {
	return &Fanout{adapters: adapters, breakers: breakers, logger: logger}
}

type fanoutItem struct {
	source  models.SourceTag
	records []*models.PaperRecord
}

// Search queries every adapter concurrently with the same query/limit/year
// bounds and returns the concatenated records plus a per-source count. An
// adapter that errors (including a circuit-open skip) contributes zero
// records and is logged; it never fails the overall request.
func (f *Fanout) Search(ctx context.Context, query string, limitPerSource int, yearMin, yearMax *int) *FanoutResult {
	resultsCh := make(chan fanoutItem, len(f.adapters))
	var wg sync.WaitGroup

	for _, adapter := range f.adapters {
		wg.Add(1)
		go func(a Adapter) {
			defer wg.Done()
			source := a.Name()

			var records []*models.PaperRecord
			b := f.breakers.GetOrCreate(string(source))
			err := b.Execute(func() error {
				recs, searchErr := a.Search(ctx, query, limitPerSource, yearMin, yearMax)
				if searchErr != nil {
					return searchErr
				}
				records = recs
				return nil
			})
			if err != nil {
				if f.logger != nil {
					f.logger.Warn("source adapter search failed",
						slog.String("source", string(source)),
						slog.String("error", err.Error()))
				}
				records = nil
			}

			resultsCh <- fanoutItem{source: source, records: records}
		}(adapter)
	}

	wg.Wait()
	close(resultsCh)

	out := &FanoutResult{SourceStats: make(map[models.SourceTag]int, len(f.adapters))}
	for item := range resultsCh {
		out.SourceStats[item.source] = len(item.records)
		out.Records = append(out.Records, item.records...)
	}
	return out
}

// GetFromSource resolves a single record by id from a named source, or nil
// if the source is unknown, its breaker is open, or the record is absent.
func (f *Fanout) GetFromSource(ctx context.Context, source models.SourceTag, paperID string) (*models.PaperRecord, error) {
	for _, adapter := range f.adapters {
		if adapter.Name() != source {
			continue
		}
		var rec *models.PaperRecord
		b := f.breakers.GetOrCreate(string(source))
		err := b.Execute(func() error {
			r, getErr := adapter.Get(ctx, paperID)
			if getErr != nil {
				return getErr
			}
			rec = r
			return nil
		})
		return rec, err
	}
	return nil, nil
}
