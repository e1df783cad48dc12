package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// NewsItem is one article returned by the Serper news search.
type NewsItem struct {
	Title       string
	URL         string
	Source      string
	Snippet     string
	PublishedAt time.Time
}

type SerperService struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewSerperService(baseURL, apiKey string) *SerperService {
	return &SerperService{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *SerperService) SearchNews(ctx context.Context, query string) ([]NewsItem, error) {
	payload, err := json.Marshal(map[string]string{"q": query})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/news", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query Serper: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from Serper", resp.StatusCode)
	}

	var body struct {
		News []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
			Date    string `json:"date"`
			Source  string `json:"source"`
		} `json:"news"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to parse Serper response: %w", err)
	}

	items := make([]NewsItem, 0, len(body.News))
	for _, n := range body.News {
		item := NewsItem{
			Title:   n.Title,
			URL:     n.Link,
			Source:  n.Source,
			Snippet: n.Snippet,
		}
		// Serper dates are free-form ("2 days ago", "Mar 4, 2025"); only
		// absolute forms parse, the rest keep a zero time.
		for _, layout := range []string{"Jan 2, 2006", time.RFC3339} {
			if t, err := time.Parse(layout, n.Date); err == nil {
				item.PublishedAt = t
				break
			}
		}
		items = append(items, item)
	}
	return items, nil
}
