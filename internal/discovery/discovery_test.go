// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citeminer/internal/cache"
	"github.com/pdiddy/citeminer/internal/sources"
	"github.com/pdiddy/citeminer/pkg/types"
)

func pubmedArticleXML(pmid, title, doi string) string {
	doiTag := ""
	if doi != "" {
		doiTag = fmt.Sprintf(`<PubmedData><ArticleIdList><ArticleId IdType="doi">%s</ArticleId></ArticleIdList></PubmedData>`, doi)
	}
	return fmt.Sprintf(`<PubmedArticleSet><PubmedArticle><MedlineCitation><PMID>%s</PMID><Article><ArticleTitle>%s</ArticleTitle></Article></MedlineCitation>%s</PubmedArticle></PubmedArticleSet>`, pmid, title, doiTag)
}

// newPubMedTestServer serves an esearch that always resolves to PMID 222
// (the mention hit for Strategy B) and efetch records for 111 (the
// dataset's primary publication, used to resolve its DOI for Strategy A)
// and 222.
func newPubMedTestServer(originalTitle, originalDOI, mentionTitle string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("retmode") == "json" {
			fmt.Fprint(w, `{"esearchresult":{"idlist":["222"]}}`)
			return
		}
		switch r.URL.Query().Get("id") {
		case "111":
			fmt.Fprint(w, pubmedArticleXML("111", originalTitle, originalDOI))
		case "222":
			fmt.Fprint(w, pubmedArticleXML("222", mentionTitle, ""))
		default:
			fmt.Fprint(w, `<PubmedArticleSet></PubmedArticleSet>`)
		}
	}))
}

func TestDiscoverCombinesBothStrategies(t *testing.T) {
	pubmedTS := newPubMedTestServer("Original Paper", "10.1/orig", "Mention Paper")
	defer pubmedTS.Close()

	oldES, oldEF := sources.PubmedESearchBase, sources.PubmedEFetchBase
	sources.PubmedESearchBase, sources.PubmedEFetchBase = pubmedTS.URL, pubmedTS.URL
	defer func() { sources.PubmedESearchBase, sources.PubmedEFetchBase = oldES, oldEF }()

	citingTS := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/works" {
			fmt.Fprint(w, `{"id":"https://openalex.org/W1"}`)
			return
		}
		fmt.Fprint(w, `{"results":[{"id":"https://openalex.org/W2","title":"Citing Paper","doi":"https://doi.org/10.2/citing"}]}`)
	}))
	defer citingTS.Close()

	oldOA := sources.OpenAlexWorksBase
	sources.OpenAlexWorksBase = citingTS.URL + "/works"
	defer func() { sources.OpenAlexWorksBase = oldOA }()

	pubmed := sources.NewPubMedBackend(pubmedTS.Client(), "")
	openalex := sources.NewOpenAlexBackend(citingTS.Client(), "")

	c := &Coordinator{
		PubMed:   pubmed,
		OpenAlex: openalex,
		Config: types.DiscoveryConfig{
			EnableStrategyA: true,
			EnableStrategyB: true,
			MaxResults:      10,
			Dedup:           types.DefaultDedupConfig(),
			ScorerWeights:   types.DefaultScoringWeights(),
		},
	}

	dataset := types.Dataset{Accession: "GSE123", PMIDs: []string{"111"}}
	var buf bytes.Buffer
	result, err := c.Discover(context.Background(), dataset, &buf)
	require.NoError(t, err)
	require.Equal(t, "GSE123", result.Accession)
	require.Equal(t, "1", result.StrategyBreakdown["strategy_a"])
	require.Equal(t, "1", result.StrategyBreakdown["strategy_b"])
	require.Len(t, result.Publications, 2)
}

func TestDiscoverBothStrategiesDisabledErrors(t *testing.T) {
	c := &Coordinator{Config: types.DiscoveryConfig{}}
	var buf bytes.Buffer
	_, err := c.Discover(context.Background(), types.Dataset{Accession: "GSE1"}, &buf)
	require.Error(t, err)
}

func TestDiscoverUsesCacheHit(t *testing.T) {
	dir := t.TempDir()
	ch, err := cache.Open(cache.Options{DBPath: filepath.Join(dir, "c.db")})
	require.NoError(t, err)
	defer ch.Close()

	cached := types.DiscoveryResult{Accession: "GSE9", Publications: []types.RankedPublication{{Publication: types.Publication{Title: "Cached Paper"}}}}
	payload, err := json.Marshal(cached)
	require.NoError(t, err)
	require.NoError(t, ch.Set(cache.Key(cache.NamespaceDiscovery, "GSE9"), payload, time.Hour))

	c := &Coordinator{
		Cache:  ch,
		Config: types.DiscoveryConfig{EnableStrategyA: true, EnableCache: true},
	}
	var buf bytes.Buffer
	result, err := c.Discover(context.Background(), types.Dataset{Accession: "GSE9"}, &buf)
	require.NoError(t, err)
	require.Len(t, result.Publications, 1)
	require.Equal(t, "Cached Paper", result.Publications[0].Publication.Title)
	require.Equal(t, "true", result.StrategyBreakdown["cached"])
}

func TestHasAnyIdentifier(t *testing.T) {
	require.True(t, hasAnyIdentifier(types.Publication{PMID: "1"}))
	require.True(t, hasAnyIdentifier(types.Publication{DOI: "10.1/x"}))
	require.False(t, hasAnyIdentifier(types.Publication{Title: "No identifier"}))
}

func TestEnrichAndFilterDropsRecordsLackingIdentifierAndTitle(t *testing.T) {
	c := &Coordinator{}
	pubs := []types.Publication{
		{Title: "Has Title"},
		{DOI: "10.1/has-doi"},
		{},
	}
	var buf bytes.Buffer
	kept := c.enrichAndFilter(context.Background(), pubs, &buf)
	require.Len(t, kept, 2)
}

func TestEnrichAndFilterEnrichesTitlelessDOIRecords(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message":{"title":["Enriched Title"]}}`)
	}))
	defer ts.Close()

	old := sources.CrossrefWorksBase
	sources.CrossrefWorksBase = ts.URL
	defer func() { sources.CrossrefWorksBase = old }()

	crossref := sources.NewCrossrefBackend(ts.Client(), "")

	c := &Coordinator{Crossref: crossref}
	pubs := []types.Publication{{DOI: "10.1/titleless"}}
	var buf bytes.Buffer
	kept := c.enrichAndFilter(context.Background(), pubs, &buf)
	require.Len(t, kept, 1)
	require.Equal(t, "Enriched Title", kept[0].Title)
}
