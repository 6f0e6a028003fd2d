package repository

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"scifind-backend/internal/errors"
	"scifind-backend/internal/models"
)

// AnnotationStore is the external persistence contract of spec 6: a
// relational store keyed by paper id holding only the two user-writable
// fields (selected, comments) plus a snapshot of the most recently seen
// merged paper so the bookmarked/with-notes listings don't need to re-run
// the search pipeline. The store is optional — callers pass a nil *gorm.DB
// and every write degrades to persisted=false rather than erroring.
type AnnotationStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewAnnotationStore builds a store over db. db may be nil, in which case
// the store is a no-op that always reports writes as not persisted.
func NewAnnotationStore(db *gorm.DB, logger *slog.Logger) *AnnotationStore {
	return &AnnotationStore{db: db, logger: logger}
}

// Available reports whether a backing database is configured.
func (s *AnnotationStore) Available() bool {
	return s.db != nil
}

// Upsert records the current snapshot of a merged paper, preserving any
// existing selected/comments state rather than clobbering it — the pipeline
// calls this on every paper a search or paper-detail response returns.
func (s *AnnotationStore) Upsert(ctx context.Context, paper *models.MergedPaper) (bool, error) {
	if s.db == nil {
		return false, nil
	}

	snapshot, err := json.Marshal(paper)
	if err != nil {
		return false, errors.NewSerializationError("encode paper snapshot", err)
	}

	row := models.AnnotatedPaper{
		ID:            paper.ID,
		DOI:           paper.DOI,
		Title:         paper.Title,
		Year:          paper.Year,
		Venue:         paper.Venue,
		Abstract:      paper.Abstract,
		CitationCount: paper.CitationCount,
		SnapshotJSON:  string(snapshot),
	}

	update := s.db.WithContext(ctx).
		Model(&models.AnnotatedPaper{}).
		Where("id = ?", paper.ID).
		Select("doi", "title", "year", "venue", "abstract", "citation_count", "snapshot_json").
		Updates(&row)
	if update.Error != nil {
		return false, errors.NewDatabaseError("update_annotated_paper", update.Error)
	}
	if update.RowsAffected == 0 {
		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			if errors.IsDuplicateKeyError(err) {
				return true, nil
			}
			return false, errors.NewDatabaseError("create_annotated_paper", err)
		}
	}
	return true, nil
}

// Get returns the stored annotation row for id, or (nil, nil) if absent.
func (s *AnnotationStore) Get(ctx context.Context, id string) (*models.AnnotatedPaper, error) {
	if s.db == nil {
		return nil, nil
	}
	var row models.AnnotatedPaper
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, errors.NewDatabaseError("get_annotated_paper", err)
	}
	return &row, nil
}

// Select writes the selected (bookmark) flag. Reports persisted=false
// without error when the store has no backing database, or when id is
// unknown (the paper was never snapshotted by a prior search/detail call).
func (s *AnnotationStore) Select(ctx context.Context, id string, selected bool) (bool, error) {
	if s.db == nil {
		return false, nil
	}
	result := s.db.WithContext(ctx).
		Model(&models.AnnotatedPaper{}).
		Where("id = ?", id).
		Update("selected", selected)
	if result.Error != nil {
		return false, errors.NewDatabaseError("select_paper", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Comment writes the free-text comment field.
func (s *AnnotationStore) Comment(ctx context.Context, id string, comment string) (bool, error) {
	if s.db == nil {
		return false, nil
	}
	result := s.db.WithContext(ctx).
		Model(&models.AnnotatedPaper{}).
		Where("id = ?", id).
		Update("comments", comment)
	if result.Error != nil {
		return false, errors.NewDatabaseError("comment_paper", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Bookmarked returns every paper with selected=true.
func (s *AnnotationStore) Bookmarked(ctx context.Context) ([]models.AnnotatedPaper, error) {
	if s.db == nil {
		return nil, nil
	}
	var rows []models.AnnotatedPaper
	err := s.db.WithContext(ctx).
		Where("selected = ?", true).
		Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.NewDatabaseError("list_bookmarked_papers", err)
	}
	return rows, nil
}

// WithNotes returns every paper carrying a non-empty comment.
func (s *AnnotationStore) WithNotes(ctx context.Context) ([]models.AnnotatedPaper, error) {
	if s.db == nil {
		return nil, nil
	}
	var rows []models.AnnotatedPaper
	err := s.db.WithContext(ctx).
		Where("comments IS NOT NULL AND comments != ''").
		Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.NewDatabaseError("list_annotated_papers", err)
	}
	return rows, nil
}

// LogRequest appends a request_log row capturing the error taxonomy kind of
// a failed or degraded request, per spec 7.
func (s *AnnotationStore) LogRequest(ctx context.Context, query, kind, message string, source *string, httpCode int) error {
	if s.db == nil {
		return nil
	}
	entry := models.RequestLogEntry{
		ID:        generateLogID(),
		Query:     query,
		Kind:      kind,
		Source:    source,
		Message:   message,
		HTTPCode:  httpCode,
		CreatedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		if s.logger != nil {
			s.logger.Warn("failed to write request log entry", slog.String("error", err.Error()))
		}
		return errors.NewDatabaseError("create_request_log", err)
	}
	return nil
}

func generateLogID() string {
	return "rl_" + time.Now().Format("20060102150405.000000")
}
