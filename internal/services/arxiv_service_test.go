package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const arxivAtomFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <title>ArXiv Query Results</title>
  <entry>
    <id>http://arxiv.org/abs/2401.12345v2</id>
    <updated>2024-01-24T10:00:00Z</updated>
    <published>2024-01-22T18:00:01Z</published>
    <title>Sparse Attention  Is All
 You Need</title>
    <summary>  We study sparse attention mechanisms.  </summary>
    <author><name>Ada Lovelace</name></author>
    <author><name>Alan Turing</name></author>
    <arxiv:primary_category term="cs.LG" scheme="http://arxiv.org/schemas/atom"/>
    <category term="cs.LG" scheme="http://arxiv.org/schemas/atom"/>
    <category term="cs.AI" scheme="http://arxiv.org/schemas/atom"/>
    <link href="http://arxiv.org/abs/2401.12345v2" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/2401.12345v2" rel="related" type="application/pdf"/>
  </entry>
</feed>`

func TestGetPaperMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2401.12345", r.URL.Query().Get("id_list"))
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(arxivAtomFixture))
	}))
	defer server.Close()

	service := NewArxivService(server.URL)
	paper, err := service.GetPaperMetadata(context.Background(), "2401.12345")
	require.NoError(t, err)

	assert.Equal(t, "2401.12345", paper.ArxivID)
	assert.Equal(t, "Sparse Attention Is All You Need", paper.Title)
	assert.Equal(t, "We study sparse attention mechanisms.", paper.Abstract)
	assert.Equal(t, []string{"Ada Lovelace", "Alan Turing"}, paper.Authors)
	assert.Equal(t, "cs.LG", paper.PrimaryCategory)
	assert.ElementsMatch(t, []string{"cs.LG", "cs.AI"}, paper.Categories)
	assert.Equal(t, "http://arxiv.org/pdf/2401.12345v2", paper.PDFURL)
	assert.Equal(t, 2024, paper.PublishedAt.Year())
}

func TestGetPaperMetadataEmptyFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"><title>empty</title></feed>`))
	}))
	defer server.Close()

	service := NewArxivService(server.URL)
	_, err := service.GetPaperMetadata(context.Background(), "9999.00000")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no arXiv entry found")
}

func TestNormalizeArxivID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"abs URL", "http://arxiv.org/abs/2401.12345v2", "2401.12345"},
		{"bare ID", "2401.12345", "2401.12345"},
		{"five digit", "arXiv:2312.00001", "2312.00001"},
		{"inside reference text", "See https://arxiv.org/abs/1706.03762 for details", "1706.03762"},
		{"no match", "not a paper", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeArxivID(tt.input))
		})
	}
}
