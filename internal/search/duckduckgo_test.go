package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultsPage = `
<html><body>
  <div class="result">
    <a class="result__a" href="https://example.com/quantum">Quantum Computing Overview</a>
  </div>
  <div class="result">
    <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.org%2Fqubits&amp;rut=abc">Qubits Explained</a>
  </div>
  <div class="result">
    <a class="result__a" href="https://example.com/quantum">Duplicate Hit</a>
  </div>
  <div class="result">
    <a class="result__a" href="javascript:void(0)">Junk Link</a>
  </div>
  <div class="result">
    <a class="result__a" href="https://example.net/error-correction">Error Correction</a>
  </div>
</body></html>`

func TestDuckDuckGoSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "quantum computing", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(resultsPage))
	}))
	defer server.Close()

	s := NewDuckDuckGoSearcher(server.URL)
	results, err := s.Search(context.Background(), "quantum computing", 5)
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, "https://example.com/quantum", results[0].URL)
	assert.Equal(t, "Quantum Computing Overview", results[0].Title)
	// Redirect links are unwrapped to the destination.
	assert.Equal(t, "https://example.org/qubits", results[1].URL)
	assert.Equal(t, "https://example.net/error-correction", results[2].URL)
}

func TestDuckDuckGoSearch_MaxLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(resultsPage))
	}))
	defer server.Close()

	s := NewDuckDuckGoSearcher(server.URL)
	results, err := s.Search(context.Background(), "quantum", 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestDuckDuckGoSearch_NoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body>no hits</body></html>"))
	}))
	defer server.Close()

	s := NewDuckDuckGoSearcher(server.URL)
	_, err := s.Search(context.Background(), "gibberish", 5)
	require.Error(t, err)

	var searchErr *Error
	assert.ErrorAs(t, err, &searchErr)
}

func TestDuckDuckGoSearch_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	s := NewDuckDuckGoSearcher(server.URL)
	_, err := s.Search(context.Background(), "quantum", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
