package services

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// FullTextService downloads a paper's PDF from arXiv and extracts its plain
// text for the v3 analysis prompt.
type FullTextService struct {
	pdfBaseURL string
	maxChars   int
}

func NewFullTextService(pdfBaseURL string, maxChars int) *FullTextService {
	return &FullTextService{
		pdfBaseURL: pdfBaseURL,
		maxChars:   maxChars,
	}
}

func (s *FullTextService) ExtractPaperText(arxivID string) (string, error) {
	pdfURL := fmt.Sprintf("%s%s.pdf", s.pdfBaseURL, arxivID)
	resp, err := http.Get(pdfURL)
	if err != nil {
		return "", fmt.Errorf("failed to download arXiv paper: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code when downloading arXiv paper: %d", resp.StatusCode)
	}

	tempFile, err := os.CreateTemp("", "arxiv-*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tempFile.Name())
	defer tempFile.Close()

	if _, err := io.Copy(tempFile, resp.Body); err != nil {
		return "", fmt.Errorf("failed to save PDF content: %w", err)
	}

	content, err := s.extractTextFromPDF(tempFile.Name())
	if err != nil {
		return "", fmt.Errorf("failed to extract text from PDF: %w", err)
	}

	if s.maxChars > 0 && len(content) > s.maxChars {
		content = content[:s.maxChars]
	}
	return content, nil
}

func (s *FullTextService) extractTextFromPDF(pdfPath string) (string, error) {
	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var content strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		p := r.Page(pageIndex)
		if p.V.IsNull() {
			continue
		}

		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		content.WriteString(text)
		content.WriteString("\n\n")
	}

	if content.Len() == 0 {
		return "", fmt.Errorf("no text content extracted from PDF")
	}

	return content.String(), nil
}
