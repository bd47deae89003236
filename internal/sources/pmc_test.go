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

const samplePMCOAXML = `<OA><records><record id="PMC123">
  <link format="pdf" href="https://example.com/pmc123.pdf"/>
  <link format="tgz" href="https://example.com/pmc123.tar.gz"/>
</record></records></OA>`

func TestPMCBackendGetFullTextURLs(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "PMC123", r.URL.Query().Get("id"))
		fmt.Fprint(w, samplePMCOAXML)
	}))
	defer ts.Close()

	old := pmcOAServiceBase
	pmcOAServiceBase = ts.URL
	defer func() { pmcOAServiceBase = old }()

	b := NewPMCBackend(ts.Client(), "")
	urls, err := b.GetFullTextURLs(context.Background(), types.Publication{PMCID: "PMC123"})
	require.NoError(t, err)
	require.Len(t, urls, 2)
	require.Equal(t, types.PDFDirect, urls[0].Type)
	require.Equal(t, types.HTMLFullText, urls[1].Type)
}

func TestPMCBackendGetFullTextURLsNoPMCID(t *testing.T) {
	b := &PMCBackend{Client: http.DefaultClient}
	urls, err := b.GetFullTextURLs(context.Background(), types.Publication{})
	require.NoError(t, err)
	require.Nil(t, urls)
}

func TestPMCBackendGetFullTextURLsNoRecords(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<OA><records></records></OA>`)
	}))
	defer ts.Close()

	old := pmcOAServiceBase
	pmcOAServiceBase = ts.URL
	defer func() { pmcOAServiceBase = old }()

	b := NewPMCBackend(ts.Client(), "")
	urls, err := b.GetFullTextURLs(context.Background(), types.Publication{PMCID: "PMC999"})
	require.NoError(t, err)
	require.Nil(t, urls)
}

func TestPMCBackendName(t *testing.T) {
	b := &PMCBackend{}
	require.Equal(t, "pmc", b.Name())
}
