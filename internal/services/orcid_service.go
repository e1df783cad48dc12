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

type OrcidService struct {
	baseURL string
	client  *http.Client
}

func NewOrcidService(baseURL string) *OrcidService {
	return &OrcidService{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *OrcidService) SearchAuthors(ctx context.Context, name string) ([]AuthorCandidate, error) {
	u := fmt.Sprintf("%s/expanded-search/?q=%s&rows=10", s.baseURL, url.QueryEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query ORCID: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from ORCID", resp.StatusCode)
	}

	var body struct {
		ExpandedResult []struct {
			OrcidID         string   `json:"orcid-id"`
			GivenNames      string   `json:"given-names"`
			FamilyNames     string   `json:"family-names"`
			InstitutionName []string `json:"institution-name"`
		} `json:"expanded-result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to parse ORCID response: %w", err)
	}

	candidates := make([]AuthorCandidate, 0, len(body.ExpandedResult))
	for _, r := range body.ExpandedResult {
		c := AuthorCandidate{
			Source:      "orcid",
			OrcidID:     r.OrcidID,
			DisplayName: strings.TrimSpace(r.GivenNames + " " + r.FamilyNames),
		}
		if len(r.InstitutionName) > 0 {
			c.Affiliation = r.InstitutionName[0]
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// NormalizeOrcidID reduces an ORCID URL ("https://orcid.org/0000-0002-...")
// to the bare identifier.
func NormalizeOrcidID(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.LastIndex(s, "/"); idx >= 0 {
		s = s[idx+1:]
	}
	return s
}
