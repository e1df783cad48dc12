package services

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"strings"

	"arxiv_pulse_go_backend/internal/models"

	"github.com/nickng/bibtex"
)

// ReferenceLoader builds a paper's bibliography by downloading its arXiv
// e-print source archive and parsing any .bib files inside.
type ReferenceLoader struct {
	eprintBaseURL string
}

func NewReferenceLoader(eprintBaseURL string) *ReferenceLoader {
	return &ReferenceLoader{eprintBaseURL: eprintBaseURL}
}

func (rl *ReferenceLoader) LoadReferences(arxivID string) ([]models.PaperReference, error) {
	sourceContent, err := rl.downloadSource(arxivID)
	if err != nil {
		return nil, fmt.Errorf("failed to download source for paper with ID: %s: %w", arxivID, err)
	}

	bibFiles, err := rl.extractBibFiles(sourceContent)
	if err != nil {
		return nil, fmt.Errorf("failed to extract bib files for paper with ID: %s: %w", arxivID, err)
	}

	entries, err := rl.parseBibFiles(bibFiles)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bib files for paper with ID: %s: %w", arxivID, err)
	}

	refs := make([]models.PaperReference, 0, len(entries))
	for i := range entries {
		refs = append(refs, entryToReference(&entries[i]))
	}
	return refs, nil
}

func (rl *ReferenceLoader) downloadSource(arxivID string) ([]byte, error) {
	resp, err := http.Get(fmt.Sprintf("%s%s", rl.eprintBaseURL, arxivID))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download source: status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}

func (rl *ReferenceLoader) extractBibFiles(content []byte) ([]string, error) {
	gzr, err := gzip.NewReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)

	var bibFiles []string
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading tar: %w", err)
		}

		if strings.HasSuffix(header.Name, ".bib") {
			content, err := io.ReadAll(tr)
			if err != nil {
				return nil, fmt.Errorf("error reading .bib file: %w", err)
			}
			bibFiles = append(bibFiles, string(content))
		}
	}
	if len(bibFiles) == 0 {
		return nil, fmt.Errorf("no .bib files found in the archive")
	}

	return bibFiles, nil
}

func (rl *ReferenceLoader) parseBibFiles(bibFiles []string) ([]bibtex.BibEntry, error) {
	var allEntries []bibtex.BibEntry
	for _, content := range bibFiles {
		bib, err := bibtex.Parse(strings.NewReader(content))
		if err != nil {
			return nil, err
		}
		for _, entry := range bib.Entries {
			allEntries = append(allEntries, *entry)
		}
	}
	return allEntries, nil
}

func entryToReference(entry *bibtex.BibEntry) models.PaperReference {
	getField := func(key string, defaultValue string) string {
		if field, ok := entry.Fields[key]; ok && field != nil {
			return field.String()
		}
		return defaultValue
	}

	authors := getField("author", "Unknown Author")
	title := getField("title", "Untitled")
	year := getField("year", "n.d.")
	journal := getField("journal", "")
	if journal == "" {
		journal = getField("booktitle", "")
	}

	ref := models.PaperReference{
		Key:           entry.CiteName,
		Title:         title,
		Author:        authors,
		Year:          year,
		Journal:       journal,
		DOI:           getField("doi", ""),
		URL:           getField("url", ""),
		RawBibEntry:   entry.String(),
		FormattedText: fmt.Sprintf("%s. (%s). %s. %s", authors, year, title, journal),
	}

	ref.CitedArxivID = NormalizeArxivID(ref.FormattedText + " " + ref.URL)
	ref.IsAvailableOnArxiv = ref.CitedArxivID != ""
	return ref
}
