package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"
)

const arxivPageSize = 100

// ArxivPaper is one entry parsed out of the arXiv Atom API.
type ArxivPaper struct {
	ArxivID         string
	Title           string
	Abstract        string
	Authors         []string
	PrimaryCategory string
	Categories      []string
	PublishedAt     time.Time
	UpdatedAt       time.Time
	PDFURL          string
	AbsURL          string
}

// ArxivService queries the arXiv Atom API. arXiv asks clients to wait three
// seconds between requests, so all calls go through a shared rate limiter.
type ArxivService struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	parser  *gofeed.Parser
}

func NewArxivService(baseURL string) *ArxivService {
	return &ArxivService{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Every(3*time.Second), 1),
		parser:  gofeed.NewParser(),
	}
}

// FetchCategoryForDate returns all papers submitted to a category on the
// given UTC date, paging through the API until a short page comes back.
func (s *ArxivService) FetchCategoryForDate(ctx context.Context, category string, date time.Time) ([]ArxivPaper, error) {
	dayStart := date.UTC().Format("200601021504")
	dayEnd := date.UTC().Add(24*time.Hour - time.Minute).Format("200601021504")
	query := fmt.Sprintf("cat:%s AND submittedDate:[%s TO %s]", category, dayStart, dayEnd)

	var papers []ArxivPaper
	for start := 0; ; start += arxivPageSize {
		page, err := s.search(ctx, query, start)
		if err != nil {
			return nil, err
		}
		papers = append(papers, page...)
		if len(page) < arxivPageSize {
			break
		}
	}
	return papers, nil
}

// GetPaperMetadata fetches a single paper by its arXiv ID.
func (s *ArxivService) GetPaperMetadata(ctx context.Context, arxivID string) (*ArxivPaper, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s?id_list=%s", s.baseURL, url.QueryEscape(arxivID))
	feed, err := s.fetchFeed(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch arXiv metadata: %w", err)
	}
	if len(feed.Items) == 0 {
		return nil, fmt.Errorf("no arXiv entry found for ID %s", arxivID)
	}

	paper := itemToPaper(feed.Items[0])
	return &paper, nil
}

func (s *ArxivService) search(ctx context.Context, query string, start int) ([]ArxivPaper, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("search_query", query)
	params.Set("start", fmt.Sprintf("%d", start))
	params.Set("max_results", fmt.Sprintf("%d", arxivPageSize))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "ascending")

	feed, err := s.fetchFeed(ctx, s.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to query arXiv: %w", err)
	}

	papers := make([]ArxivPaper, 0, len(feed.Items))
	for _, item := range feed.Items {
		papers = append(papers, itemToPaper(item))
	}
	return papers, nil
}

func (s *ArxivService) fetchFeed(ctx context.Context, u string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from arXiv", resp.StatusCode)
	}

	return s.parser.Parse(resp.Body)
}

func itemToPaper(item *gofeed.Item) ArxivPaper {
	paper := ArxivPaper{
		Title:      strings.Join(strings.Fields(item.Title), " "),
		Abstract:   strings.TrimSpace(item.Description),
		Categories: item.Categories,
		AbsURL:     item.Link,
	}

	paper.ArxivID = NormalizeArxivID(item.GUID)
	if paper.ArxivID == "" {
		paper.ArxivID = NormalizeArxivID(item.Link)
	}

	for _, author := range item.Authors {
		paper.Authors = append(paper.Authors, author.Name)
	}
	if item.PublishedParsed != nil {
		paper.PublishedAt = *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		paper.UpdatedAt = *item.UpdatedParsed
	}

	for _, link := range item.Links {
		if strings.Contains(link, "/pdf/") {
			paper.PDFURL = link
			break
		}
	}
	if paper.PDFURL == "" && paper.ArxivID != "" {
		paper.PDFURL = fmt.Sprintf("https://arxiv.org/pdf/%s.pdf", paper.ArxivID)
	}

	// The arxiv namespace carries the primary category as an attribute.
	if ns, ok := item.Extensions["arxiv"]; ok {
		if exts, ok := ns["primary_category"]; ok && len(exts) > 0 {
			paper.PrimaryCategory = exts[0].Attrs["term"]
		}
	}
	if paper.PrimaryCategory == "" && len(paper.Categories) > 0 {
		paper.PrimaryCategory = paper.Categories[0]
	}

	return paper
}

var arxivIDPattern = regexp.MustCompile(`(\d{4}\.\d{4,5})(v\d+)?`)

// NormalizeArxivID extracts a bare arXiv ID (without version suffix) from an
// ID, abs URL, or raw reference string.
func NormalizeArxivID(s string) string {
	match := arxivIDPattern.FindStringSubmatch(s)
	if len(match) > 1 {
		return match[1]
	}
	return ""
}
