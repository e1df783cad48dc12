package api

import (
	"errors"
	"strconv"
	"strings"

	apperrors "arxiv_pulse_go_backend/internal/errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func parseAuthorID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, apperrors.New400Error("invalid author id")
	}
	return uint(id), nil
}

func getAuthorHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseAuthorID(c)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		author, err := deps.Authors.GetAuthor(id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apperrors.HandleError(c, apperrors.New404Error("author not found"))
			return
		}
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		c.JSON(200, gin.H{
			"id":           author.ID,
			"display_name": author.DisplayName,
			"openalex_id":  author.OpenAlexID,
			"orcid_id":     author.OrcidID,
			"affiliation":  author.Affiliation,
			"works_count":  author.WorksCount,
			"cited_count":  author.CitedCount,
		})
	}
}

func getAuthorPapersHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseAuthorID(c)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		page, perPage := parsePagination(c)
		papers, total, err := deps.Authors.PapersByAuthor(id, page, perPage)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		items := make([]gin.H, 0, len(papers))
		for i := range papers {
			items = append(items, paperToJSON(&papers[i]))
		}
		c.JSON(200, gin.H{"papers": items, "total": total, "page": page})
	}
}

func discoverAuthorsHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.TrimSpace(c.Query("name"))
		if name == "" {
			apperrors.HandleError(c, apperrors.New400Error("name query parameter is required"))
			return
		}

		candidates, err := deps.Authors.DiscoverAuthors(c.Request.Context(), name)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		c.JSON(200, gin.H{"candidates": candidates})
	}
}
