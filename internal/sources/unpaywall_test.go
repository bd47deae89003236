// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citeminer/pkg/types"
)

func TestUnpaywallBackendGetFullTextURLs(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "researcher@example.com", r.URL.Query().Get("email"))
		fmt.Fprint(w, `{
			"best_oa_location": {"url_for_pdf": "https://example.com/best.pdf"},
			"oa_locations": [
				{"url_for_pdf": "https://example.com/best.pdf"},
				{"url": "https://example.com/alt-landing"}
			]
		}`)
	}))
	defer ts.Close()

	old := unpaywallBase
	unpaywallBase = ts.URL
	defer func() { unpaywallBase = old }()

	b := NewUnpaywallBackend(ts.Client(), "researcher@example.com")
	urls, err := b.GetFullTextURLs(context.Background(), types.Publication{DOI: "10.1/abc"})
	require.NoError(t, err)
	require.Len(t, urls, 2, "duplicate best-OA URL should be deduplicated")
	require.Equal(t, types.PDFDirect, urls[0].Type)
	require.Equal(t, 0.85, urls[0].Confidence)
}

func TestUnpaywallBackendGetFullTextURLsNoDOI(t *testing.T) {
	b := &UnpaywallBackend{Client: http.DefaultClient, Email: "x@example.com"}
	urls, err := b.GetFullTextURLs(context.Background(), types.Publication{})
	require.NoError(t, err)
	require.Nil(t, urls)
}

func TestUnpaywallBackendGetFullTextURLsRequiresEmail(t *testing.T) {
	b := &UnpaywallBackend{Client: http.DefaultClient}
	_, err := b.GetFullTextURLs(context.Background(), types.Publication{DOI: "10.1/abc"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "email is required")
}

func TestUnpaywallBackendGetFullTextURLsNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	old := unpaywallBase
	unpaywallBase = ts.URL
	defer func() { unpaywallBase = old }()

	b := NewUnpaywallBackend(ts.Client(), "x@example.com")
	urls, err := b.GetFullTextURLs(context.Background(), types.Publication{DOI: "10.1/missing"})
	require.NoError(t, err)
	require.Nil(t, urls)
}

func TestUnpaywallBackendName(t *testing.T) {
	b := &UnpaywallBackend{}
	require.Equal(t, "unpaywall", b.Name())
}
