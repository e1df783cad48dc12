package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// AuthorCandidate is one potential author match returned by the discovery
// endpoint, sourced from OpenAlex or ORCID.
type AuthorCandidate struct {
	Source      string `json:"source"`
	OpenAlexID  string `json:"openalex_id,omitempty"`
	OrcidID     string `json:"orcid_id,omitempty"`
	DisplayName string `json:"display_name"`
	Affiliation string `json:"affiliation,omitempty"`
	WorksCount  int    `json:"works_count,omitempty"`
	CitedCount  int    `json:"cited_count,omitempty"`
}

type OpenAlexService struct {
	baseURL string
	client  *http.Client
}

func NewOpenAlexService(baseURL string) *OpenAlexService {
	return &OpenAlexService{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *OpenAlexService) SearchAuthors(ctx context.Context, name string) ([]AuthorCandidate, error) {
	u := fmt.Sprintf("%s/authors?search=%s&per-page=10", s.baseURL, url.QueryEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query OpenAlex: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from OpenAlex", resp.StatusCode)
	}

	var body struct {
		Results []struct {
			ID                    string `json:"id"`
			DisplayName           string `json:"display_name"`
			Orcid                 string `json:"orcid"`
			WorksCount            int    `json:"works_count"`
			CitedByCount          int    `json:"cited_by_count"`
			LastKnownInstitutions []struct {
				DisplayName string `json:"display_name"`
			} `json:"last_known_institutions"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAlex response: %w", err)
	}

	candidates := make([]AuthorCandidate, 0, len(body.Results))
	for _, r := range body.Results {
		c := AuthorCandidate{
			Source:      "openalex",
			OpenAlexID:  r.ID,
			OrcidID:     NormalizeOrcidID(r.Orcid),
			DisplayName: r.DisplayName,
			WorksCount:  r.WorksCount,
			CitedCount:  r.CitedByCount,
		}
		if len(r.LastKnownInstitutions) > 0 {
			c.Affiliation = r.LastKnownInstitutions[0].DisplayName
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}
