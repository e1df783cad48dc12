package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SocialPost is one mention found on a social platform.
type SocialPost struct {
	Platform     string
	ExternalID   string
	URL          string
	AuthorHandle string
	Text         string
	PostedAt     time.Time
	Score        int
}

type BlueskyService struct {
	baseURL string
	client  *http.Client
}

func NewBlueskyService(baseURL string) *BlueskyService {
	return &BlueskyService{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// SearchPosts searches the public Bluesky index for posts mentioning the
// query, typically an arXiv ID or abs URL.
func (s *BlueskyService) SearchPosts(ctx context.Context, query string) ([]SocialPost, error) {
	u := fmt.Sprintf("%s/xrpc/app.bsky.feed.searchPosts?q=%s&limit=50", s.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query Bluesky: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from Bluesky", resp.StatusCode)
	}

	var body struct {
		Posts []struct {
			URI    string `json:"uri"`
			Author struct {
				Handle string `json:"handle"`
			} `json:"author"`
			Record struct {
				Text      string    `json:"text"`
				CreatedAt time.Time `json:"createdAt"`
			} `json:"record"`
			LikeCount int `json:"likeCount"`
		} `json:"posts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to parse Bluesky response: %w", err)
	}

	posts := make([]SocialPost, 0, len(body.Posts))
	for _, p := range body.Posts {
		posts = append(posts, SocialPost{
			Platform:     "bluesky",
			ExternalID:   p.URI,
			URL:          blueskyPostURL(p.URI, p.Author.Handle),
			AuthorHandle: p.Author.Handle,
			Text:         p.Record.Text,
			PostedAt:     p.Record.CreatedAt,
			Score:        p.LikeCount,
		})
	}
	return posts, nil
}

// blueskyPostURL converts an at:// record URI into a public web URL.
func blueskyPostURL(uri, handle string) string {
	parts := strings.Split(uri, "/")
	if len(parts) == 0 {
		return ""
	}
	rkey := parts[len(parts)-1]
	return fmt.Sprintf("https://bsky.app/profile/%s/post/%s", handle, rkey)
}
