package services

import (
	"context"
	"strings"

	"arxiv_pulse_go_backend/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type AuthorService struct {
	db       *gorm.DB
	openalex *OpenAlexService
	orcid    *OrcidService
}

func NewAuthorService(db *gorm.DB, openalex *OpenAlexService, orcid *OrcidService) *AuthorService {
	return &AuthorService{db: db, openalex: openalex, orcid: orcid}
}

func (s *AuthorService) GetAuthor(id uint) (*models.Author, error) {
	var author models.Author
	if err := s.db.First(&author, id).Error; err != nil {
		return nil, err
	}
	return &author, nil
}

// PapersByAuthor lists an author's papers, newest first.
func (s *AuthorService) PapersByAuthor(authorID uint, page, perPage int) ([]models.Paper, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 25
	}

	q := s.db.Model(&models.Paper{}).
		Joins("JOIN paper_authors ON paper_authors.paper_id = papers.id").
		Where("paper_authors.author_id = ?", authorID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var papers []models.Paper
	err := q.Order("papers.published_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&papers).Error
	return papers, total, err
}

// DiscoverAuthors queries OpenAlex and ORCID for a name and merges the two
// result sets. One source failing degrades the result instead of failing the
// request.
func (s *AuthorService) DiscoverAuthors(ctx context.Context, name string) ([]AuthorCandidate, error) {
	openalexResults, err := s.openalex.SearchAuthors(ctx, name)
	if err != nil {
		log.Warn().Err(err).Str("name", name).Msg("OpenAlex author search failed")
	}

	orcidResults, err := s.orcid.SearchAuthors(ctx, name)
	if err != nil {
		log.Warn().Err(err).Str("name", name).Msg("ORCID author search failed")
	}

	return MergeAuthorCandidates(openalexResults, orcidResults), nil
}

// MergeAuthorCandidates deduplicates candidates from the two sources. An
// ORCID match is authoritative; otherwise candidates with the same normalized
// name collapse into one, with OpenAlex fields winning and ORCID filling gaps.
func MergeAuthorCandidates(openalex, orcid []AuthorCandidate) []AuthorCandidate {
	merged := make([]AuthorCandidate, len(openalex))
	copy(merged, openalex)

	byOrcid := make(map[string]int)
	byName := make(map[string]int)
	for i, c := range merged {
		if c.OrcidID != "" {
			byOrcid[c.OrcidID] = i
		}
		byName[normalizeName(c.DisplayName)] = i
	}

	for _, c := range orcid {
		if i, ok := byOrcid[c.OrcidID]; ok && c.OrcidID != "" {
			if merged[i].Affiliation == "" {
				merged[i].Affiliation = c.Affiliation
			}
			continue
		}
		if i, ok := byName[normalizeName(c.DisplayName)]; ok {
			if merged[i].OrcidID == "" {
				merged[i].OrcidID = c.OrcidID
			}
			if merged[i].Affiliation == "" {
				merged[i].Affiliation = c.Affiliation
			}
			continue
		}
		merged = append(merged, c)
	}

	return merged
}

func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
