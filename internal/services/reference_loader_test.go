package services

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bibFixture = `@article{vaswani2017attention,
  author = {Vaswani, Ashish},
  title = {Attention Is All You Need},
  year = {2017},
  journal = {NeurIPS},
  url = {https://arxiv.org/abs/1706.03762}
}

@book{knuth1997,
  author = {Knuth, Donald E.},
  title = {The Art of Computer Programming},
  year = {1997}
}
`

func makeSourceArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	gzw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gzw)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name,
			Mode: 0644,
			Size: int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gzw.Close())
	return buf.Bytes()
}

func TestLoadReferences(t *testing.T) {
	archive := makeSourceArchive(t, map[string]string{
		"main.tex":       `\documentclass{article}`,
		"references.bib": bibFixture,
	})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer server.Close()

	loader := NewReferenceLoader(server.URL + "/")
	refs, err := loader.LoadReferences("1706.03762")
	require.NoError(t, err)
	require.Len(t, refs, 2)

	byKey := map[string]int{refs[0].Key: 0, refs[1].Key: 1}
	attention := refs[byKey["vaswani2017attention"]]
	assert.Equal(t, "Attention Is All You Need", attention.Title)
	assert.Equal(t, "2017", attention.Year)
	assert.Equal(t, "NeurIPS", attention.Journal)
	assert.Equal(t, "1706.03762", attention.CitedArxivID)
	assert.True(t, attention.IsAvailableOnArxiv)

	book := refs[byKey["knuth1997"]]
	assert.Empty(t, book.CitedArxivID)
	assert.False(t, book.IsAvailableOnArxiv)
	assert.Empty(t, book.Journal)
}

func TestLoadReferencesNoBibFiles(t *testing.T) {
	archive := makeSourceArchive(t, map[string]string{"main.tex": "x"})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer server.Close()

	loader := NewReferenceLoader(server.URL + "/")
	_, err := loader.LoadReferences("2401.00001")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no .bib files found")
}
