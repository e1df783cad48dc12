package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type RedditService struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

func NewRedditService(baseURL, userAgent string) *RedditService {
	return &RedditService{
		baseURL:   baseURL,
		userAgent: userAgent,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

// SearchPosts runs a Reddit search for the query. Reddit requires a
// descriptive User-Agent on unauthenticated JSON requests.
func (s *RedditService) SearchPosts(ctx context.Context, query string) ([]SocialPost, error) {
	u := fmt.Sprintf("%s/search.json?q=%s&sort=new&limit=50", s.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query Reddit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from Reddit", resp.StatusCode)
	}

	var body struct {
		Data struct {
			Children []struct {
				Data struct {
					ID         string  `json:"id"`
					Title      string  `json:"title"`
					SelfText   string  `json:"selftext"`
					Permalink  string  `json:"permalink"`
					Author     string  `json:"author"`
					CreatedUTC float64 `json:"created_utc"`
					Score      int     `json:"score"`
				} `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to parse Reddit response: %w", err)
	}

	posts := make([]SocialPost, 0, len(body.Data.Children))
	for _, child := range body.Data.Children {
		d := child.Data
		text := d.Title
		if d.SelfText != "" {
			text = d.Title + "\n" + d.SelfText
		}
		posts = append(posts, SocialPost{
			Platform:     "reddit",
			ExternalID:   d.ID,
			URL:          "https://www.reddit.com" + d.Permalink,
			AuthorHandle: d.Author,
			Text:         text,
			PostedAt:     time.Unix(int64(d.CreatedUTC), 0).UTC(),
			Score:        d.Score,
		})
	}
	return posts, nil
}
