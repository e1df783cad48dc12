package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "arxiv_pulse_go_backend/internal/errors"
	"arxiv_pulse_go_backend/internal/models"
	"arxiv_pulse_go_backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// maxDateRangeDays bounds list queries so a typo cannot scan years of rows.
const maxDateRangeDays = 366

// parseDateRange validates the optional from/to query parameters.
func parseDateRange(fromStr, toStr string) (*time.Time, *time.Time, error) {
	var from, to *time.Time

	if fromStr != "" {
		t, err := time.Parse(dateLayout, fromStr)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid 'from' date, expected YYYY-MM-DD")
		}
		from = &t
	}
	if toStr != "" {
		t, err := time.Parse(dateLayout, toStr)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid 'to' date, expected YYYY-MM-DD")
		}
		to = &t
	}
	if from != nil && to != nil {
		if to.Before(*from) {
			return nil, nil, fmt.Errorf("'to' date is before 'from' date")
		}
		if to.Sub(*from) > maxDateRangeDays*24*time.Hour {
			return nil, nil, fmt.Errorf("date range exceeds %d days", maxDateRangeDays)
		}
	}
	return from, to, nil
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "25"))
	return page, perPage
}

func listPapersHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, err := parseDateRange(c.Query("from"), c.Query("to"))
		if err != nil {
			apperrors.HandleError(c, apperrors.New400Error(err.Error()))
			return
		}

		page, perPage := parsePagination(c)
		filters := services.PaperFilters{
			Category: c.Query("category"),
			From:     from,
			To:       to,
			Query:    c.Query("q"),
			Page:     page,
			PerPage:  perPage,
		}

		papers, total, err := deps.Papers.ListPapers(filters)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		items := make([]gin.H, 0, len(papers))
		for i := range papers {
			items = append(items, paperToJSON(&papers[i]))
		}
		c.JSON(200, gin.H{
			"papers": items,
			"total":  total,
			"page":   page,
		})
	}
}

func getPaperHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		arxivID := c.Param("arxiv_id")

		paper, err := deps.Papers.GetPaperByArxivID(arxivID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apperrors.HandleError(c, apperrors.New404Error(fmt.Sprintf("paper %s not found", arxivID)))
			return
		}
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		body := paperToJSON(paper)

		card, err := deps.Papers.GetCardAnalysis(paper.ID)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}
		if card != nil {
			body["card_analysis"] = json.RawMessage(card.Payload)
		}

		v3, err := deps.Papers.GetV3Analysis(paper.ID)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}
		if v3 != nil {
			body["analysis_v3"] = json.RawMessage(v3.Payload)
		}

		social, news, err := deps.Mentions.MentionCounts(paper.ID)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}
		body["social_mention_count"] = social
		body["news_mention_count"] = news

		c.JSON(200, body)
	}
}

// getPaperReferencesHandler serves the parsed bibliography, loading and
// caching it from the e-print source on first request.
func getPaperReferencesHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		arxivID := c.Param("arxiv_id")

		paper, err := deps.Papers.GetPaperByArxivID(arxivID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apperrors.HandleError(c, apperrors.New404Error(fmt.Sprintf("paper %s not found", arxivID)))
			return
		}
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		refs := paper.References
		if len(refs) == 0 {
			loaded, err := deps.Refs.LoadReferences(arxivID)
			if err != nil {
				apperrors.HandleError(c, apperrors.New400Error(err.Error()))
				return
			}
			if err := deps.Papers.ReplaceReferences(paper.ID, loaded); err != nil {
				apperrors.HandleError(c, err)
				return
			}
			refs = loaded
		}

		items := make([]gin.H, 0, len(refs))
		for _, ref := range refs {
			items = append(items, gin.H{
				"text":                  ref.FormattedText,
				"arxiv_id":              ref.CitedArxivID,
				"is_available_on_arxiv": ref.IsAvailableOnArxiv,
				"doi":                   ref.DOI,
				"url":                   ref.URL,
			})
		}
		c.JSON(200, gin.H{"arxiv_id": arxivID, "references": items})
	}
}

func getPaperMentionsHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		arxivID := c.Param("arxiv_id")

		paper, err := deps.Papers.GetPaperByArxivID(arxivID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apperrors.HandleError(c, apperrors.New404Error(fmt.Sprintf("paper %s not found", arxivID)))
			return
		}
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		social, news, err := deps.Mentions.MentionsForPaper(paper.ID)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		socialItems := make([]gin.H, 0, len(social))
		for _, m := range social {
			socialItems = append(socialItems, gin.H{
				"platform":  m.Platform,
				"url":       m.URL,
				"author":    m.AuthorHandle,
				"text":      m.Text,
				"posted_at": m.PostedAt.Format(time.RFC3339),
				"score":     m.Score,
			})
		}
		newsItems := make([]gin.H, 0, len(news))
		for _, m := range news {
			newsItems = append(newsItems, gin.H{
				"title":        m.Title,
				"url":          m.URL,
				"source":       m.Source,
				"snippet":      m.Snippet,
				"published_at": m.PublishedAt.Format(time.RFC3339),
			})
		}

		c.JSON(200, gin.H{
			"arxiv_id": arxivID,
			"social":   socialItems,
			"news":     newsItems,
		})
	}
}

func paperToJSON(paper *models.Paper) gin.H {
	authors := make([]gin.H, 0, len(paper.Authors))
	for _, a := range paper.Authors {
		authors = append(authors, gin.H{"id": a.ID, "display_name": a.DisplayName})
	}

	return gin.H{
		"arxiv_id":         paper.ArxivID,
		"title":            paper.Title,
		"abstract":         paper.Abstract,
		"summary":          paper.AISummary,
		"primary_category": paper.PrimaryCategory,
		"categories":       strings.Split(paper.Categories, ","),
		"published_at":     paper.PublishedAt.Format(time.RFC3339),
		"pdf_url":          paper.PDFURL,
		"abs_url":          paper.AbsURL,
		"authors":          authors,
	}
}
