package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"scifind-backend/internal/models"
)

func newAnnotationTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.PublicationRecord{}, &models.AnnotatedPaper{}, &models.RequestLogEntry{}))
	return db
}

func TestAnnotationStoreNilDBDegradesToNotPersisted(t *testing.T) {
	store := NewAnnotationStore(nil, nil)
	require.False(t, store.Available())

	persisted, err := store.Upsert(t.Context(), &models.MergedPaper{ID: "m1", Title: "Untracked"})
	require.NoError(t, err)
	require.False(t, persisted)

	selected, err := store.Select(t.Context(), "m1", true)
	require.NoError(t, err)
	require.False(t, selected)

	row, err := store.Get(t.Context(), "m1")
	require.NoError(t, err)
	require.Nil(t, row)
}

func TestAnnotationStoreUpsertThenGet(t *testing.T) {
	db := newAnnotationTestDB(t)
	store := NewAnnotationStore(db, nil)
	require.True(t, store.Available())

	year := 2019
	paper := &models.MergedPaper{ID: "m1", Title: "Attention Is All You Need", Year: &year}

	persisted, err := store.Upsert(t.Context(), paper)
	require.NoError(t, err)
	require.True(t, persisted)

	row, err := store.Get(t.Context(), "m1")
	require.NoError(t, err)
	require.NotNil(t, row)
	require.Equal(t, "Attention Is All You Need", row.Title)
	require.False(t, row.Selected)
}

func TestAnnotationStoreUpsertPreservesSelectedAndComments(t *testing.T) {
	db := newAnnotationTestDB(t)
	store := NewAnnotationStore(db, nil)

	_, err := store.Upsert(t.Context(), &models.MergedPaper{ID: "m1", Title: "v1"})
	require.NoError(t, err)

	persisted, err := store.Select(t.Context(), "m1", true)
	require.NoError(t, err)
	require.True(t, persisted)

	persisted, err = store.Comment(t.Context(), "m1", "worth re-reading")
	require.NoError(t, err)
	require.True(t, persisted)

	// A later re-snapshot from a fresh search must not clobber selected/comments.
	_, err = store.Upsert(t.Context(), &models.MergedPaper{ID: "m1", Title: "v2 with updated abstract"})
	require.NoError(t, err)

	row, err := store.Get(t.Context(), "m1")
	require.NoError(t, err)
	require.Equal(t, "v2 with updated abstract", row.Title)
	require.True(t, row.Selected)
	require.NotNil(t, row.Comments)
	require.Equal(t, "worth re-reading", *row.Comments)
}

func TestAnnotationStoreSelectUnknownIDReportsNotPersisted(t *testing.T) {
	db := newAnnotationTestDB(t)
	store := NewAnnotationStore(db, nil)

	persisted, err := store.Select(t.Context(), "does-not-exist", true)
	require.NoError(t, err)
	require.False(t, persisted)
}

func TestAnnotationStoreBookmarkedAndWithNotes(t *testing.T) {
	db := newAnnotationTestDB(t)
	store := NewAnnotationStore(db, nil)

	_, err := store.Upsert(t.Context(), &models.MergedPaper{ID: "m1", Title: "bookmarked only"})
	require.NoError(t, err)
	_, err = store.Upsert(t.Context(), &models.MergedPaper{ID: "m2", Title: "noted only"})
	require.NoError(t, err)
	_, err = store.Upsert(t.Context(), &models.MergedPaper{ID: "m3", Title: "neither"})
	require.NoError(t, err)

	_, err = store.Select(t.Context(), "m1", true)
	require.NoError(t, err)
	_, err = store.Comment(t.Context(), "m2", "interesting approach")
	require.NoError(t, err)

	bookmarked, err := store.Bookmarked(t.Context())
	require.NoError(t, err)
	require.Len(t, bookmarked, 1)
	require.Equal(t, "m1", bookmarked[0].ID)

	withNotes, err := store.WithNotes(t.Context())
	require.NoError(t, err)
	require.Len(t, withNotes, 1)
	require.Equal(t, "m2", withNotes[0].ID)
}

func TestAnnotationStoreLogRequest(t *testing.T) {
	db := newAnnotationTestDB(t)
	store := NewAnnotationStore(db, nil)

	source := "arxiv"
	err := store.LogRequest(t.Context(), "deep learning", "transient", "upstream timeout", &source, 504)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.RequestLogEntry{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}
