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

func TestCoreBackendGetFullTextURLsByDOI(t *testing.T) {
	var gotQuery, gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"results":[{"id":1,"doi":"10.1/abc","downloadUrl":"https://example.com/paper.pdf"}]}`)
	}))
	defer ts.Close()

	old := coreSearchBase
	coreSearchBase = ts.URL
	defer func() { coreSearchBase = old }()

	b := NewCoreBackend(ts.Client(), "key123")
	urls, err := b.GetFullTextURLs(context.Background(), types.Publication{DOI: "10.1/abc"})
	require.NoError(t, err)
	require.Len(t, urls, 1)
	require.Equal(t, "https://example.com/paper.pdf", urls[0].URL)
	require.Equal(t, `doi:"10.1/abc"`, gotQuery)
	require.Equal(t, "Bearer key123", gotAuth)
}

func TestCoreBackendGetFullTextURLsFallsBackToTitle(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		fmt.Fprint(w, `{"results":[]}`)
	}))
	defer ts.Close()

	old := coreSearchBase
	coreSearchBase = ts.URL
	defer func() { coreSearchBase = old }()

	b := NewCoreBackend(ts.Client(), "")
	urls, err := b.GetFullTextURLs(context.Background(), types.Publication{Title: "Gene Editing"})
	require.NoError(t, err)
	require.Nil(t, urls)
	require.Equal(t, `title:"Gene Editing"`, gotQuery)
}

func TestCoreBackendGetFullTextURLsNoQueryMaterial(t *testing.T) {
	b := &CoreBackend{Client: http.DefaultClient}
	urls, err := b.GetFullTextURLs(context.Background(), types.Publication{})
	require.NoError(t, err)
	require.Nil(t, urls)
}

func TestCoreBackendGetFullTextURLsNoDownloadURL(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[{"id":1,"doi":"10.1/abc","downloadUrl":""}]}`)
	}))
	defer ts.Close()

	old := coreSearchBase
	coreSearchBase = ts.URL
	defer func() { coreSearchBase = old }()

	b := NewCoreBackend(ts.Client(), "")
	urls, err := b.GetFullTextURLs(context.Background(), types.Publication{DOI: "10.1/abc"})
	require.NoError(t, err)
	require.Nil(t, urls)
}

func TestCoreBackendName(t *testing.T) {
	b := &CoreBackend{}
	require.Equal(t, "core", b.Name())
}
