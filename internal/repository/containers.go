package repository

import (
	"log/slog"

	"gorm.io/gorm"
)

// Container holds all repository instances
type Container struct {
	Search      SearchRepository
	Annotations *AnnotationStore
}

// NewContainer creates a new repository container
func NewContainer(db *gorm.DB, logger *slog.Logger) *Container {
	return &Container{
		Search:      NewSearchRepository(db, logger),
		Annotations: NewAnnotationStore(db, logger),
	}
}

// Health checks all repositories
func (c *Container) Health() map[string]bool {
	return map[string]bool{
		"search":      c.Search != nil,
		"annotations": c.Annotations != nil,
	}
}