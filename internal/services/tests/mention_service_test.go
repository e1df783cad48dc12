package services_test

import (
	"testing"
	"time"

	"arxiv_pulse_go_backend/internal/models"
	"arxiv_pulse_go_backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newMentionDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := newTestDB(t)
	require.NoError(t, db.AutoMigrate(&models.SocialMention{}, &models.NewsMention{}))
	return db
}

func TestUpsertSocialMentionsDedupes(t *testing.T) {
	db := newMentionDB(t)
	svc := services.NewMentionService(db)

	posts := []services.SocialPost{{
		Platform:     "bluesky",
		ExternalID:   "at://did:plc:abc/app.bsky.feed.post/xyz",
		URL:          "https://bsky.app/profile/did:plc:abc/post/xyz",
		AuthorHandle: "alice.bsky.social",
		Text:         "Interesting paper",
		PostedAt:     time.Now().UTC(),
		Score:        3,
	}}

	stored, err := svc.UpsertSocialMentions(1, posts)
	require.NoError(t, err)
	assert.Equal(t, 1, stored)

	// Same post again with a higher score: not counted as new, score refreshed.
	posts[0].Score = 9
	stored, err = svc.UpsertSocialMentions(1, posts)
	require.NoError(t, err)
	assert.Zero(t, stored)

	var mentions []models.SocialMention
	require.NoError(t, db.Find(&mentions).Error)
	require.Len(t, mentions, 1)
	assert.Equal(t, 9, mentions[0].Score)
}

func TestUpsertSocialMentionsSanitizesText(t *testing.T) {
	db := newMentionDB(t)
	svc := services.NewMentionService(db)

	posts := []services.SocialPost{{
		Platform:   "reddit",
		ExternalID: "t3_abc123",
		Text:       `great <script>alert("x")</script>thread`,
		PostedAt:   time.Now().UTC(),
	}}

	_, err := svc.UpsertSocialMentions(1, posts)
	require.NoError(t, err)

	var mention models.SocialMention
	require.NoError(t, db.First(&mention).Error)
	assert.NotContains(t, mention.Text, "<script>")
	assert.Contains(t, mention.Text, "great")
}

func TestUpsertNewsMentionsDedupesByURL(t *testing.T) {
	db := newMentionDB(t)
	svc := services.NewMentionService(db)

	items := []services.NewsItem{
		{URL: "https://example.com/story", Title: "AI breakthrough", Source: "Example News", PublishedAt: time.Now().UTC()},
		{URL: "", Title: "no url, skipped"},
	}

	stored, err := svc.UpsertNewsMentions(1, items)
	require.NoError(t, err)
	assert.Equal(t, 1, stored)

	stored, err = svc.UpsertNewsMentions(1, items)
	require.NoError(t, err)
	assert.Zero(t, stored)

	social, news, err := svc.MentionCounts(1)
	require.NoError(t, err)
	assert.Zero(t, social)
	assert.Equal(t, int64(1), news)
}
