package services

import (
	"errors"
	"strings"
	"time"

	"arxiv_pulse_go_backend/internal/models"

	"gorm.io/gorm"
)

// PaperFilters narrows the paper listing. Zero values mean "no filter".
type PaperFilters struct {
	Category string
	From     *time.Time
	To       *time.Time
	Query    string
	Page     int
	PerPage  int
}

type PaperService struct {
	db *gorm.DB
}

func NewPaperService(db *gorm.DB) *PaperService {
	return &PaperService{db: db}
}

// UpsertFromArxiv stores or refreshes a paper and its author byline from an
// arXiv API entry. Reports whether the paper was newly created.
func (s *PaperService) UpsertFromArxiv(entry ArxivPaper) (*models.Paper, bool, error) {
	var paper models.Paper
	err := s.db.Where("arxiv_id = ?", entry.ArxivID).First(&paper).Error
	created := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !created {
		return nil, false, err
	}

	paper.ArxivID = entry.ArxivID
	paper.Title = entry.Title
	paper.Abstract = entry.Abstract
	paper.PrimaryCategory = entry.PrimaryCategory
	paper.Categories = strings.Join(entry.Categories, ",")
	paper.PublishedAt = entry.PublishedAt
	paper.UpdatedAtArxiv = entry.UpdatedAt
	paper.PDFURL = entry.PDFURL
	paper.AbsURL = entry.AbsURL

	if created {
		if err := s.db.Create(&paper).Error; err != nil {
			return nil, false, err
		}
	} else {
		if err := s.db.Save(&paper).Error; err != nil {
			return nil, false, err
		}
	}

	if err := s.attachAuthors(&paper, entry.Authors); err != nil {
		return nil, false, err
	}
	return &paper, created, nil
}

func (s *PaperService) attachAuthors(paper *models.Paper, names []string) error {
	for i, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		var author models.Author
		if err := s.db.Where(models.Author{DisplayName: name}).FirstOrCreate(&author).Error; err != nil {
			return err
		}
		link := models.PaperAuthor{PaperID: paper.ID, AuthorID: author.ID, Position: i}
		if err := s.db.Where(models.PaperAuthor{PaperID: paper.ID, AuthorID: author.ID}).
			Assign(models.PaperAuthor{Position: i}).
			FirstOrCreate(&link).Error; err != nil {
			return err
		}
	}
	return nil
}

// ListPapers returns a filtered, paginated page plus the total match count.
func (s *PaperService) ListPapers(f PaperFilters) ([]models.Paper, int64, error) {
	q := s.db.Model(&models.Paper{})

	if f.Category != "" {
		q = q.Where("primary_category = ?", f.Category)
	}
	if f.From != nil {
		q = q.Where("published_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("published_at < ?", f.To.Add(24*time.Hour))
	}
	if f.Query != "" {
		pattern := "%" + f.Query + "%"
		q = q.Where("title ILIKE ? OR abstract ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, perPage := f.Page, f.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 25
	}

	var papers []models.Paper
	err := q.Preload("Authors").
		Order("published_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&papers).Error
	return papers, total, err
}

// GetPaperByArxivID loads one paper with its authors and references.
func (s *PaperService) GetPaperByArxivID(arxivID string) (*models.Paper, error) {
	var paper models.Paper
	err := s.db.Preload("Authors").Preload("References").
		Where("arxiv_id = ?", arxivID).First(&paper).Error
	if err != nil {
		return nil, err
	}
	return &paper, nil
}

// GetCardAnalysis returns the completed card for a paper, if any.
func (s *PaperService) GetCardAnalysis(paperID uint) (*models.PaperCardAnalysis, error) {
	var card models.PaperCardAnalysis
	err := s.db.Where("paper_id = ? AND status = ?", paperID, models.AnalysisStatusCompleted).First(&card).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// GetV3Analysis returns the completed current-schema analysis, if any.
func (s *PaperService) GetV3Analysis(paperID uint) (*models.PaperAnalysisV3, error) {
	var v3 models.PaperAnalysisV3
	err := s.db.Where("paper_id = ? AND schema_version = ? AND status = ?",
		paperID, V3SchemaVersion, models.AnalysisStatusCompleted).First(&v3).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v3, nil
}

// ReplaceReferences replaces a paper's bibliography with a fresh parse.
func (s *PaperService) ReplaceReferences(paperID uint, refs []models.PaperReference) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("paper_id = ?", paperID).Delete(&models.PaperReference{}).Error; err != nil {
			return err
		}
		for i := range refs {
			refs[i].PaperID = paperID
		}
		if len(refs) == 0 {
			return nil
		}
		return tx.Create(&refs).Error
	})
}
