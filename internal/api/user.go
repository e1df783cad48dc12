package api

import (
	"errors"
	"fmt"
	"regexp"

	apperrors "arxiv_pulse_go_backend/internal/errors"
	"arxiv_pulse_go_backend/internal/models"
	"arxiv_pulse_go_backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func currentUser(c *gin.Context) (*models.User, error) {
	user, exists := c.Get("user")
	if !exists {
		return nil, apperrors.New401Error()
	}
	userModel, ok := user.(*models.User)
	if !ok {
		return nil, apperrors.New500Error(errors.New("failed to cast user to *models.User"))
	}
	return userModel, nil
}

func savePaperHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := currentUser(c)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

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

		err = deps.Users.SavePaper(user.ID, paper.ID)
		if errors.Is(err, services.ErrDuplicate) {
			apperrors.HandleError(c, apperrors.New409Error("paper already saved"))
			return
		}
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}
		c.JSON(200, gin.H{"message": "Paper saved"})
	}
}

func unsavePaperHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := currentUser(c)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

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

		if err := deps.Users.UnsavePaper(user.ID, paper.ID); err != nil {
			apperrors.HandleError(c, err)
			return
		}
		c.JSON(200, gin.H{"message": "Paper removed"})
	}
}

func listSavedPapersHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := currentUser(c)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		papers, err := deps.Users.SavedPapers(user.ID)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		items := make([]gin.H, 0, len(papers))
		for i := range papers {
			items = append(items, paperToJSON(&papers[i]))
		}
		c.JSON(200, gin.H{"papers": items})
	}
}

func followAuthorHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := currentUser(c)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		id, err := parseAuthorID(c)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		err = deps.Users.FollowAuthor(user.ID, id)
		if errors.Is(err, services.ErrDuplicate) {
			apperrors.HandleError(c, apperrors.New409Error("author already followed"))
			return
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apperrors.HandleError(c, apperrors.New404Error("author not found"))
			return
		}
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}
		c.JSON(200, gin.H{"message": "Author followed"})
	}
}

func unfollowAuthorHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := currentUser(c)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		id, err := parseAuthorID(c)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		if err := deps.Users.UnfollowAuthor(user.ID, id); err != nil {
			apperrors.HandleError(c, err)
			return
		}
		c.JSON(200, gin.H{"message": "Author unfollowed"})
	}
}

func listFollowedAuthorsHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := currentUser(c)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		authors, err := deps.Users.FollowedAuthors(user.ID)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		items := make([]gin.H, 0, len(authors))
		for _, a := range authors {
			items = append(items, gin.H{"id": a.ID, "display_name": a.DisplayName})
		}
		c.JSON(200, gin.H{"authors": items})
	}
}

// arXiv category codes look like "cs.AI", "stat.ML", "math.CO".
var categoryPattern = regexp.MustCompile(`^[a-z-]+(\.[A-Za-z-]+)?$`)

func getPreferencesHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := currentUser(c)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		prefs, err := deps.Users.GetPreferences(user.ID)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}
		c.JSON(200, preferencesToJSON(prefs))
	}
}

func updatePreferencesHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := currentUser(c)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		var request struct {
			Categories       []string `json:"categories"`
			FeedIncludeSaved bool     `json:"feed_include_saved"`
		}
		if err := c.ShouldBindJSON(&request); err != nil {
			apperrors.HandleError(c, apperrors.New400Error(err.Error()))
			return
		}
		for _, cat := range request.Categories {
			if !categoryPattern.MatchString(cat) {
				apperrors.HandleError(c, apperrors.New400Error(fmt.Sprintf("invalid category %q", cat)))
				return
			}
		}

		prefs, err := deps.Users.UpdatePreferences(user.ID, request.Categories, request.FeedIncludeSaved)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}
		c.JSON(200, preferencesToJSON(prefs))
	}
}

func preferencesToJSON(prefs *models.UserPreferences) gin.H {
	categories := []string{}
	if prefs.Categories != "" {
		for _, cat := range regexp.MustCompile(`\s*,\s*`).Split(prefs.Categories, -1) {
			if cat != "" {
				categories = append(categories, cat)
			}
		}
	}
	return gin.H{
		"categories":         categories,
		"feed_include_saved": prefs.FeedIncludeSaved,
	}
}

func feedHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := currentUser(c)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		page, perPage := parsePagination(c)
		papers, total, err := deps.Feed.FeedForUser(user.ID, page, perPage)
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
