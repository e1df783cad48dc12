package models

import "gorm.io/gorm"

type Author struct {
	gorm.Model
	DisplayName string `gorm:"index"`
	OpenAlexID  string `gorm:"type:varchar(64);uniqueIndex:idx_authors_openalex,where:open_alex_id <> ''"`
	OrcidID     string `gorm:"type:varchar(19);uniqueIndex:idx_authors_orcid,where:orcid_id <> ''"`
	Affiliation string
	WorksCount  int
	CitedCount  int
	Papers      []Paper `gorm:"many2many:paper_authors;"`
}
