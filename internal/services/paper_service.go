package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"scifind-backend/internal/cache"
	"scifind-backend/internal/dedup"
	"scifind-backend/internal/errors"
	"scifind-backend/internal/models"
	"scifind-backend/internal/rank"
	"scifind-backend/internal/repository"
	"scifind-backend/internal/sources"
)

// PaperService serves single-paper detail, related-papers, and the
// annotation-store-backed endpoints of spec 6: GET /paper/{id},
// GET /paper/{id}/related, PUT .../select, PUT .../comment,
// GET /papers/bookmarked, GET /papers/with-notes.
type PaperService struct {
	cache       *cache.SearchCache
	annotations *repository.AnnotationStore
	s2          *sources.SemanticScholarAdapter
	openAlex    *sources.OpenAlexAdapter
	logger      *slog.Logger
}

// NewPaperService wires the collaborators. annotations may be nil.
func NewPaperService(
	resultCache *cache.SearchCache,
	annotations *repository.AnnotationStore,
	s2 *sources.SemanticScholarAdapter,
	openAlex *sources.OpenAlexAdapter,
	logger *slog.Logger,
) PaperServiceInterface {
	return &PaperService{
		cache:       resultCache,
		annotations: annotations,
		s2:          s2,
		openAlex:    openAlex,
		logger:      logger,
	}
}

// GetByID resolves a merged paper by its internal id or DOI: the cache
// first, falling back to the annotation store's last snapshot (which
// carries the user's current selected/comments state past the cache TTL).
func (s *PaperService) GetByID(ctx context.Context, id string) (*models.MergedPaper, error) {
	if s.cache != nil {
		if cached, hit, err := s.cache.GetPaper(ctx, id); err != nil {
			if s.logger != nil {
				s.logger.Warn("paper cache lookup failed", slog.String("error", err.Error()))
			}
		} else if hit {
			return cached, nil
		}
	}

	if s.annotations == nil {
		return nil, errors.NewNotFoundError("paper", id)
	}
	row, err := s.annotations.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, errors.NewNotFoundError("paper", id)
	}

	paper, err := decodeSnapshot(row.SnapshotJSON)
	if err != nil {
		return nil, err
	}
	paper.Selected = row.Selected
	paper.Comments = row.Comments
	return paper, nil
}

func decodeSnapshot(snapshotJSON string) (*models.MergedPaper, error) {
	var paper models.MergedPaper
	if snapshotJSON == "" {
		return &paper, nil
	}
	if err := json.Unmarshal([]byte(snapshotJSON), &paper); err != nil {
		return nil, errors.NewSerializationError("decode annotated paper snapshot", err)
	}
	return &paper, nil
}

// Related merges citations+references fetched from Semantic Scholar with
// related works fetched from OpenAlex, then ranks the merged set as
// foundational literature for the source paper (spec 6).
func (s *PaperService) Related(ctx context.Context, req *RelatedPapersRequest) ([]*models.MergedPaper, error) {
	req.SetDefaults()

	s2ID, oaID := req.S2ID, req.OAID
	if s2ID == "" || oaID == "" {
		if paper, err := s.GetByID(ctx, req.PaperID); err == nil && paper != nil {
			if s2ID == "" {
				s2ID = paper.SourceIDs[models.SourceSemanticScholar]
			}
			if oaID == "" {
				oaID = paper.SourceIDs[models.SourceOpenAlex]
			}
		}
	}

	var records []*models.PaperRecord
	if s2ID != "" && s.s2 != nil {
		if rel, err := s.s2.GetCitationsAndReferences(ctx, s2ID); err == nil {
			records = append(records, rel...)
		} else if s.logger != nil {
			s.logger.Warn("semantic scholar related fetch failed", slog.String("error", err.Error()))
		}
	}
	if oaID != "" && s.openAlex != nil {
		if rel, err := s.openAlex.GetRelatedWorks(ctx, oaID); err == nil {
			records = append(records, rel...)
		} else if s.logger != nil {
			s.logger.Warn("openalex related fetch failed", slog.String("error", err.Error()))
		}
	}
	if len(records) == 0 {
		return nil, nil
	}

	now := time.Now()
	normalized := make([]*models.PaperRecord, 0, len(records))
	for _, r := range records {
		normalized = append(normalized, dedup.NormalizeRecord(r, now))
	}
	clusters := dedup.ClusterAll(normalized, now)

	idGen := func() string { return uuid.NewString() }
	merged := make([]*models.MergedPaper, 0, len(clusters))
	for _, cluster := range clusters {
		if len(cluster) == 0 {
			continue
		}
		workKey := dedup.ComputeWorkKey(cluster[0], now)
		m := dedup.MergeCluster(cluster, workKey, idGen, now)
		dedup.CitationAgeSanityPass(m, now)
		merged = append(merged, m)
	}
	merged = dedup.SafePostMergeDedup(merged)

	ranked := rank.RankPapers(merged, rank.ModeFoundational, req.Limit, false, "", now)
	rank.AddExplanations(ranked, rank.ModeFoundational, now)
	for _, m := range ranked {
		m.CitationKey = dedup.CitationKey(m)
	}

	if s.annotations != nil {
		for _, m := range ranked {
			if _, err := s.annotations.Upsert(ctx, m); err != nil && s.logger != nil {
				s.logger.Warn("annotation snapshot upsert failed", slog.String("error", err.Error()))
			}
		}
	}

	return ranked, nil
}

// Select writes the bookmark flag through the annotation store.
func (s *PaperService) Select(ctx context.Context, id string, selected bool) (*AnnotationWriteResult, error) {
	if s.annotations == nil {
		return &AnnotationWriteResult{Persisted: false}, nil
	}
	persisted, err := s.annotations.Select(ctx, id, selected)
	if err != nil {
		return nil, err
	}
	return &AnnotationWriteResult{Persisted: persisted}, nil
}

// Comment writes the free-text note through the annotation store.
func (s *PaperService) Comment(ctx context.Context, id string, comment string) (*AnnotationWriteResult, error) {
	if s.annotations == nil {
		return &AnnotationWriteResult{Persisted: false}, nil
	}
	persisted, err := s.annotations.Comment(ctx, id, comment)
	if err != nil {
		return nil, err
	}
	return &AnnotationWriteResult{Persisted: persisted}, nil
}

// Bookmarked lists every annotated paper with selected=true.
func (s *PaperService) Bookmarked(ctx context.Context) ([]models.AnnotatedPaper, error) {
	if s.annotations == nil {
		return nil, nil
	}
	return s.annotations.Bookmarked(ctx)
}

// WithNotes lists every annotated paper carrying a comment.
func (s *PaperService) WithNotes(ctx context.Context) ([]models.AnnotatedPaper, error) {
	if s.annotations == nil {
		return nil, nil
	}
	return s.annotations.WithNotes(ctx)
}

// Health reports whether the paper service's collaborators are reachable.
// The annotation store and cache share the search database; a dedicated
// ping is unnecessary since both degrade to persisted=false/cache-miss
// rather than erroring when unavailable.
func (s *PaperService) Health(ctx context.Context) error {
	return nil
}
