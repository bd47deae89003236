// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/citeminer/internal/ratelimit"
	"github.com/pdiddy/citeminer/internal/retry"
	"github.com/pdiddy/citeminer/pkg/types"
)

// PubmedESearchBase and PubmedEFetchBase are the NCBI Entrez endpoints used
// for mention-based search (Strategy B) and record retrieval. Declared as
// vars so tests can substitute an httptest server.
var PubmedESearchBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
var PubmedEFetchBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"

// PubMedBackend queries the NCBI Entrez API. Entrez's published rate
// policy is 3 req/s without a key, 10 req/s with one.
type PubMedBackend struct {
	Client *http.Client
	APIKey string
	Gate   *ratelimit.Gate
}

// NewPubMedBackend constructs a backend with the Entrez rate policy
// already wired to the gate.
func NewPubMedBackend(client *http.Client, apiKey string) *PubMedBackend {
	rate := 3.0
	if apiKey != "" {
		rate = 10.0
	}
	return &PubMedBackend{Client: client, APIKey: apiKey, Gate: ratelimit.NewGate(rate)}
}

func (b *PubMedBackend) Name() string { return "pubmed" }

// Search performs an ESearch for query, then an EFetch for the matched
// PMIDs, implementing mention-based discovery (Strategy B).
func (b *PubMedBackend) Search(ctx context.Context, query string, limit int) ([]types.Publication, error) {
	if limit <= 0 {
		limit = 20
	}
	pmids, err := b.esearch(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if len(pmids) == 0 {
		return nil, nil
	}
	return b.efetch(ctx, pmids)
}

// FetchByID retrieves full record details for a single PMID via EFetch,
// used by the discovery coordinator to resolve the DOI of a dataset's
// primary publication before fanning out to the citation-graph sources.
func (b *PubMedBackend) FetchByID(ctx context.Context, pmid string) (types.Publication, error) {
	pubs, err := b.efetch(ctx, []string{pmid})
	if err != nil {
		return types.Publication{}, fmt.Errorf("fetching pmid %s: %w", pmid, err)
	}
	if len(pubs) == 0 {
		return types.Publication{}, retry.New(retry.NotFound, "pubmed", "no record for pmid "+pmid)
	}
	return pubs[0], nil
}

// esearch runs an Entrez ESearch for query and returns the PMIDs it lists.
// PubMedBackend has no GetCiting: Entrez's public API offers no citation
// graph (those come from OpenAlex/Semantic Scholar/OpenCitations), so
// PubMed is wired only as a Searcher and record-fetcher.
func (b *PubMedBackend) esearch(ctx context.Context, query string, limit int) ([]string, error) {
	if err := b.Gate.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"db":      {"pubmed"},
		"term":    {query},
		"retmax":  {fmt.Sprintf("%d", limit)},
		"retmode": {"json"},
	}
	if b.APIKey != "" {
		params.Set("api_key", b.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, PubmedESearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building esearch request: %w", err)
	}

	resp, err := retry.Do(ctx, retry.DefaultPolicy(), func(ctx context.Context, _ int) (*http.Response, error) {
		r, err := b.Client.Do(req)
		if err != nil {
			return nil, retry.Classify("pubmed", 0, err)
		}
		if r.StatusCode != http.StatusOK {
			r.Body.Close()
			return nil, retry.Classify("pubmed", r.StatusCode, nil)
		}
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("pubmed esearch: %w", err)
	}
	defer resp.Body.Close()

	var parsed struct {
		ESearchResult struct {
			IDList []string `json:"idlist"`
		} `json:"esearchresult"`
	}
	if err := jsonDecode(resp.Body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing esearch response: %w", err)
	}
	return parsed.ESearchResult.IDList, nil
}

func (b *PubMedBackend) efetch(ctx context.Context, pmids []string) ([]types.Publication, error) {
	if err := b.Gate.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(pmids, ",")},
		"retmode": {"xml"},
	}
	if b.APIKey != "" {
		params.Set("api_key", b.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, PubmedEFetchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building efetch request: %w", err)
	}

	resp, err := b.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pubmed efetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pubmed efetch returned HTTP %d", resp.StatusCode)
	}

	var set pubmedArticleSet
	if err := xml.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("parsing efetch response: %w", err)
	}

	pubs := make([]types.Publication, 0, len(set.Articles))
	for _, a := range set.Articles {
		pubs = append(pubs, a.toPublication())
	}
	return pubs, nil
}

type pubmedArticleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	MedlineCitation struct {
		PMID    string `xml:"PMID"`
		Article struct {
			ArticleTitle string `xml:"ArticleTitle"`
			Abstract     struct {
				Text []string `xml:"AbstractText"`
			} `xml:"Abstract"`
			Journal struct {
				Title   string `xml:"Title"`
				PubDate struct {
					Year  string `xml:"Year"`
					Month string `xml:"Month"`
					Day   string `xml:"Day"`
				} `xml:"JournalIssue>PubDate"`
			} `xml:"Journal"`
			AuthorList struct {
				Authors []struct {
					LastName string `xml:"LastName"`
					ForeName string `xml:"ForeName"`
				} `xml:"Author"`
			} `xml:"AuthorList"`
		} `xml:"Article"`
		MeshHeadingList struct {
			MeshHeadings []struct {
				DescriptorName string `xml:"DescriptorName"`
			} `xml:"MeshHeading"`
		} `xml:"MeshHeadingList"`
	} `xml:"MedlineCitation"`
	PubmedData struct {
		ArticleIDList struct {
			IDs []struct {
				IDType string `xml:"IdType,attr"`
				Value  string `xml:",chardata"`
			} `xml:"ArticleId"`
		} `xml:"ArticleIdList"`
	} `xml:"PubmedData"`
}

func (a pubmedArticle) toPublication() types.Publication {
	p := types.Publication{
		PMID:     strings.TrimSpace(a.MedlineCitation.PMID),
		Title:    strings.TrimSpace(a.MedlineCitation.Article.ArticleTitle),
		Abstract: strings.Join(a.MedlineCitation.Article.Abstract.Text, " "),
		Journal:  strings.TrimSpace(a.MedlineCitation.Article.Journal.Title),
		Source:   "pubmed",
	}
	for _, au := range a.MedlineCitation.Article.AuthorList.Authors {
		name := strings.TrimSpace(au.ForeName + " " + au.LastName)
		if name != "" {
			p.Authors = append(p.Authors, name)
		}
	}
	for _, mh := range a.MedlineCitation.MeshHeadingList.MeshHeadings {
		if mh.DescriptorName != "" {
			p.MeshTerms = append(p.MeshTerms, mh.DescriptorName)
		}
	}
	for _, id := range a.PubmedData.ArticleIDList.IDs {
		switch id.IDType {
		case "doi":
			p.DOI = strings.TrimSpace(id.Value)
		case "pmc":
			p.PMCID = strings.TrimSpace(id.Value)
		}
	}

	pd := a.MedlineCitation.Article.Journal.PubDate
	if pd.Year != "" {
		year, _ := strconv.Atoi(pd.Year)
		month := parseMonth(pd.Month)
		day, _ := strconv.Atoi(pd.Day)
		if day <= 0 {
			day = 1
		}
		if year > 0 {
			p.PublicationDate = time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		}
	}
	return p
}

func parseMonth(s string) int {
	if s == "" {
		return 1
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	months := map[string]int{
		"Jan": 1, "Feb": 2, "Mar": 3, "Apr": 4, "May": 5, "Jun": 6,
		"Jul": 7, "Aug": 8, "Sep": 9, "Oct": 10, "Nov": 11, "Dec": 12,
	}
	if m, ok := months[s]; ok {
		return m
	}
	return 1
}
