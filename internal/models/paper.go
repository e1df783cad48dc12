package models

import (
	"time"

	"gorm.io/gorm"
)

type Paper struct {
	gorm.Model
	ArxivID         string `gorm:"type:varchar(20);uniqueIndex"`
	Title           string
	Abstract        string
	PrimaryCategory string `gorm:"type:varchar(32);index"`
	Categories      string // comma-separated arXiv category codes
	PublishedAt     time.Time `gorm:"index"`
	UpdatedAtArxiv  time.Time
	PDFURL          string
	AbsURL          string
	AISummary       string // short prose summary produced by the summary queue
	Authors         []Author         `gorm:"many2many:paper_authors;"`
	References      []PaperReference `gorm:"foreignKey:PaperID"`
}

// PaperAuthor is the join table behind Paper.Authors, declared explicitly so
// the author position within the byline survives ingestion.
type PaperAuthor struct {
	PaperID  uint `gorm:"primaryKey"`
	AuthorID uint `gorm:"primaryKey"`
	Position int
}

type PaperReference struct {
	gorm.Model
	PaperID            uint   `gorm:"index"`
	CitedArxivID       string `gorm:"type:varchar(20);index"`
	Key                string
	Title              string
	Author             string
	Year               string
	Journal            string
	DOI                string
	URL                string
	RawBibEntry        string
	FormattedText      string
	IsAvailableOnArxiv bool
}
