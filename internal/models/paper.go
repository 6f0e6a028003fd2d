package models

import (
	"time"

	"gorm.io/gorm"
)

// PublicationRecord is the persisted venue metadata a paper may belong to:
// a journal, conference proceedings, or book, one row per distinct venue.
// This is the "publication" table named in the external annotation store
// contract.
type PublicationRecord struct {
	ID        string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title     string  `json:"title" gorm:"type:text;not null"`
	ISSN      *string `json:"issn,omitempty" gorm:"type:varchar(20);index"`
	ISBN      *string `json:"isbn,omitempty" gorm:"type:varchar(20);index"`
	Publisher *string `json:"publisher,omitempty" gorm:"type:text"`
	Category  string  `json:"category" gorm:"type:varchar(50);index"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (PublicationRecord) TableName() string { return "publication" }

// AnnotatedPaper is the persisted row for a canonical paper's user-writable
// state: `selected` (bookmark) and `comments` (notes). Per spec 6
// "Persistence (annotation store, external)", only these two fields are
// ever written by the API; everything else is a cached snapshot of the most
// recent merged-paper view so `GET /papers/bookmarked` and
// `GET /papers/with-notes` can be served without re-running the pipeline.
type AnnotatedPaper struct {
	ID  string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	DOI *string `json:"doi,omitempty" gorm:"uniqueIndex;type:varchar(255)"`

	Title    string  `json:"title" gorm:"type:text;not null"`
	Year     *int    `json:"year,omitempty" gorm:"index"`
	Venue    *string `json:"venue,omitempty" gorm:"type:text"`
	Abstract *string `json:"abstract,omitempty" gorm:"type:text"`

	PublicationID *string            `json:"publication_id,omitempty" gorm:"type:varchar(36);index"`
	Publication   *PublicationRecord `json:"publication,omitempty" gorm:"foreignKey:PublicationID"`

	Selected bool    `json:"selected" gorm:"default:false;index"`
	Comments *string `json:"comments,omitempty" gorm:"type:text;index"`

	CitationCount *int `json:"citation_count,omitempty" gorm:"index"`

	SnapshotJSON string `json:"-" gorm:"type:text"` // serialized MergedPaper at last write

	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime;index"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (AnnotatedPaper) TableName() string { return "paper" }

// RequestLogEntry is the persisted request_log row capturing the error
// taxonomy kind per spec 7, for operator diagnosis of silently-failing
// sources.
type RequestLogEntry struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Query     string    `json:"query" gorm:"type:text"`
	Kind      string    `json:"kind" gorm:"type:varchar(50);index"` // taxonomy kind, e.g. "transient", "internal"
	Source    *string   `json:"source,omitempty" gorm:"type:varchar(50);index"`
	Message   string    `json:"message" gorm:"type:text"`
	HTTPCode  int       `json:"http_code"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}

func (RequestLogEntry) TableName() string { return "request_log" }
