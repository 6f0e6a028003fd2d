package sources

import (
	"context"

	"scifind-backend/internal/models"
)

// Adapter is the contract every bibliographic source implements, per spec
// 4.1: search returns up to limit records, get resolves exactly one.
type Adapter interface {
	Name() models.SourceTag
	Search(ctx context.Context, query string, limit int, yearMin, yearMax *int) ([]*models.PaperRecord, error)
	Get(ctx context.Context, paperID string) (*models.PaperRecord, error)
}

// positionalRelevance implements the fallback relevance formula for sources
// that only provide ranked order: 1.0 for the first result, declining
// linearly by 0.5/total per position, so the last result scores just
// above 0.5.
func positionalRelevance(position, total int) float64 {
	if total <= 0 {
		total = 1
	}
	return 1.0 - (float64(position)/float64(total))*0.5
}
