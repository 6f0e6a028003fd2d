package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"scifind-backend/internal/models"
)

// DatabaseTestUtil provides database testing utilities
type DatabaseTestUtil struct {
	container  *postgres.PostgresContainer
	db         *gorm.DB
	cleanup    func()
	isPostgres bool
}

// SetupTestDatabase creates a test database (PostgreSQL in container or SQLite in memory)
func SetupTestDatabase(t *testing.T, usePostgres bool) *DatabaseTestUtil {
	ctx := context.Background()

	if usePostgres {
		return setupPostgresContainer(t, ctx)
	}
	return setupSQLiteInMemory(t)
}

func testModels() []interface{} {
	return []interface{}{
		&models.SearchHistory{},
		&models.SearchCache{},
		&models.PaperCache{},
		&models.PublicationRecord{},
		&models.AnnotatedPaper{},
		&models.RequestLogEntry{},
	}
}

// setupPostgresContainer creates a PostgreSQL container for testing
func setupPostgresContainer(t *testing.T, ctx context.Context) *DatabaseTestUtil {
	// Create PostgreSQL container
	pgContainer, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	// Get connection string
	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Connect with GORM
	db, err := gorm.Open(pgdriver.Open(connStr), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Auto-migrate models
	err = db.AutoMigrate(testModels()...)
	require.NoError(t, err)

	return &DatabaseTestUtil{
		container:  pgContainer,
		db:         db,
		isPostgres: true,
		cleanup: func() {
			if err := pgContainer.Terminate(ctx); err != nil {
				t.Logf("failed to terminate container: %s", err)
			}
		},
	}
}

// setupSQLiteInMemory creates an in-memory SQLite database for testing
func setupSQLiteInMemory(t *testing.T) *DatabaseTestUtil {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Auto-migrate models
	err = db.AutoMigrate(testModels()...)
	require.NoError(t, err)

	return &DatabaseTestUtil{
		db:         db,
		isPostgres: false,
		cleanup:    func() {}, // Nothing to cleanup for in-memory SQLite
	}
}

// DB returns the GORM database instance
func (d *DatabaseTestUtil) DB() *gorm.DB {
	return d.db
}

// Cleanup cleans up the test database
func (d *DatabaseTestUtil) Cleanup() {
	if d.cleanup != nil {
		d.cleanup()
	}
}

// TruncateAllTables truncates all tables for clean test state
func (d *DatabaseTestUtil) TruncateAllTables(t *testing.T) {
	tables := []string{
		"paper",
		"publication",
		"search_history",
		"search_cache",
		"paper_cache",
		"request_log",
	}

	if d.isPostgres {
		// For PostgreSQL, use TRUNCATE CASCADE
		for _, table := range tables {
			err := d.db.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error
			if err != nil {
				// Table might not exist, which is fine
				continue
			}
		}
	} else {
		// For SQLite, delete all records
		for _, table := range tables {
			err := d.db.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error
			if err != nil {
				// Table might not exist, which is fine
				continue
			}
		}
	}
}

// Transaction executes a function within a database transaction
func (d *DatabaseTestUtil) Transaction(t *testing.T, fn func(*gorm.DB) error) {
	tx := d.db.Begin()
	require.NoError(t, tx.Error)

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			t.Fatalf("Transaction panicked: %v", r)
		}
	}()

	err := fn(tx)
	if err != nil {
		tx.Rollback()
		require.NoError(t, err)
	}

	require.NoError(t, tx.Commit().Error)
}

// AssertTableCount asserts the count of records in a table
func (d *DatabaseTestUtil) AssertTableCount(t *testing.T, table string, expected int64) {
	var count int64
	err := d.db.Table(table).Count(&count).Error
	require.NoError(t, err)
	require.Equal(t, expected, count, "Table %s should have %d records", table, expected)
}

// CreateTestPaper creates a test annotated-paper row with minimal required fields
func (d *DatabaseTestUtil) CreateTestPaper(t *testing.T, overrides *models.AnnotatedPaper) *models.AnnotatedPaper {
	paper := &models.AnnotatedPaper{
		ID:    fmt.Sprintf("test_%d", time.Now().UnixNano()),
		Title: "Test Paper",
	}

	if overrides != nil {
		if overrides.ID != "" {
			paper.ID = overrides.ID
		}
		if overrides.Title != "" {
			paper.Title = overrides.Title
		}
		if overrides.DOI != nil {
			paper.DOI = overrides.DOI
		}
		if overrides.Venue != nil {
			paper.Venue = overrides.Venue
		}
		if overrides.Abstract != nil {
			paper.Abstract = overrides.Abstract
		}
		if overrides.Selected {
			paper.Selected = overrides.Selected
		}
		if overrides.Comments != nil {
			paper.Comments = overrides.Comments
		}
	}

	err := d.db.Create(paper).Error
	require.NoError(t, err)

	return paper
}

// GetPostgresConnectionForRawSQL returns raw SQL connection for PostgreSQL
func (d *DatabaseTestUtil) GetPostgresConnectionForRawSQL(t *testing.T) *sql.DB {
	require.True(t, d.isPostgres, "This method is only available for PostgreSQL containers")

	sqlDB, err := d.db.DB()
	require.NoError(t, err)

	return sqlDB
}
