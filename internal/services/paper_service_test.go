package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"scifind-backend/internal/models"
	"scifind-backend/internal/repository"
)

func newPaperServiceTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.PublicationRecord{}, &models.AnnotatedPaper{}, &models.RequestLogEntry{}))
	return db
}

func TestPaperServiceGetByIDNotFound(t *testing.T) {
	db := newPaperServiceTestDB(t)
	annotations := repository.NewAnnotationStore(db, nil)
	svc := NewPaperService(nil, annotations, nil, nil, nil)

	_, err := svc.GetByID(t.Context(), "missing")
	require.Error(t, err)
}

func TestPaperServiceGetByIDFallsBackToAnnotationSnapshot(t *testing.T) {
	db := newPaperServiceTestDB(t)
	annotations := repository.NewAnnotationStore(db, nil)
	svc := NewPaperService(nil, annotations, nil, nil, nil)

	_, err := annotations.Upsert(t.Context(), &models.MergedPaper{ID: "m1", Title: "Deep Learning Survey"})
	require.NoError(t, err)
	_, err = annotations.Select(t.Context(), "m1", true)
	require.NoError(t, err)

	paper, err := svc.GetByID(t.Context(), "m1")
	require.NoError(t, err)
	require.Equal(t, "Deep Learning Survey", paper.Title)
	require.True(t, paper.Selected)
}

func TestPaperServiceSelectAndCommentWithoutStoreReportNotPersisted(t *testing.T) {
	svc := NewPaperService(nil, nil, nil, nil, nil)

	selected, err := svc.Select(t.Context(), "m1", true)
	require.NoError(t, err)
	require.False(t, selected.Persisted)

	commented, err := svc.Comment(t.Context(), "m1", "note")
	require.NoError(t, err)
	require.False(t, commented.Persisted)
}

func TestPaperServiceSelectAndCommentPersist(t *testing.T) {
	db := newPaperServiceTestDB(t)
	annotations := repository.NewAnnotationStore(db, nil)
	svc := NewPaperService(nil, annotations, nil, nil, nil)

	_, err := annotations.Upsert(t.Context(), &models.MergedPaper{ID: "m1", Title: "x"})
	require.NoError(t, err)

	result, err := svc.Select(t.Context(), "m1", true)
	require.NoError(t, err)
	require.True(t, result.Persisted)

	result, err = svc.Comment(t.Context(), "m1", "revisit")
	require.NoError(t, err)
	require.True(t, result.Persisted)

	bookmarked, err := svc.Bookmarked(t.Context())
	require.NoError(t, err)
	require.Len(t, bookmarked, 1)

	withNotes, err := svc.WithNotes(t.Context())
	require.NoError(t, err)
	require.Len(t, withNotes, 1)
}

func TestPaperServiceRelatedReturnsNilWithoutAdapters(t *testing.T) {
	svc := NewPaperService(nil, nil, nil, nil, nil)

	related, err := svc.Related(t.Context(), &RelatedPapersRequest{PaperID: "m1"})
	require.NoError(t, err)
	require.Nil(t, related)
}

func TestPaperServiceHealthAlwaysOK(t *testing.T) {
	svc := NewPaperService(nil, nil, nil, nil, nil)
	require.NoError(t, svc.Health(t.Context()))
}
