// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/citeminer/internal/ratelimit"
	"github.com/pdiddy/citeminer/internal/retry"
	"github.com/pdiddy/citeminer/pkg/types"
)

// semanticCitationsBase is the Semantic Scholar Graph API paper endpoint;
// /paper/{id}/citations is derived from it for citation-based discovery.
var semanticCitationsBase = "https://api.semanticscholar.org/graph/v1/paper"

const semanticCitationFields = "title,abstract,authors,externalIds,year,publicationDate,citationCount"

// SemanticScholarBackend queries the Semantic Scholar Graph API. GetCiting
// accepts either a bare PMID or a DOI, prefixed per the API's id scheme.
type SemanticScholarBackend struct {
	Client *http.Client
	APIKey string
	Gate   *ratelimit.Gate
}

// NewSemanticScholarBackend wires the published rate policy: 1 req/s
// without a key, 100/s with one.
func NewSemanticScholarBackend(client *http.Client, apiKey string) *SemanticScholarBackend {
	rate := 1.0
	if apiKey != "" {
		rate = 100.0
	}
	return &SemanticScholarBackend{Client: client, APIKey: apiKey, Gate: ratelimit.NewGate(rate)}
}

func (b *SemanticScholarBackend) Name() string { return "semantic_scholar" }

// GetCiting returns papers citing id, which may be a bare PMID (digits
// only) or a DOI.
func (b *SemanticScholarBackend) GetCiting(ctx context.Context, id string, limit int) ([]types.Publication, error) {
	if id == "" {
		return nil, fmt.Errorf("semantic scholar: empty id")
	}
	if limit <= 0 {
		limit = 20
	}

	paperID := id
	if isAllDigits(id) {
		paperID = "PMID:" + id
	} else {
		paperID = "DOI:" + id
	}

	if err := b.Gate.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"fields": {semanticCitationFields},
		"limit":  {fmt.Sprintf("%d", limit)},
	}
	reqURL := fmt.Sprintf("%s/%s/citations?%s", semanticCitationsBase, url.PathEscape(paperID), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building Semantic Scholar request: %w", err)
	}
	if b.APIKey != "" {
		req.Header.Set("x-api-key", b.APIKey)
	}

	resp, err := retry.Do(ctx, retry.DefaultPolicy(), func(ctx context.Context, _ int) (*http.Response, error) {
		r, err := b.Client.Do(req)
		if err != nil {
			return nil, retry.Classify("semantic_scholar", 0, err)
		}
		if r.StatusCode != http.StatusOK {
			r.Body.Close()
			return nil, retry.Classify("semantic_scholar", r.StatusCode, nil)
		}
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	var parsed semanticCitationsResponse
	if err := jsonDecode(resp.Body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	pubs := make([]types.Publication, 0, len(parsed.Data))
	for _, entry := range parsed.Data {
		pubs = append(pubs, entry.CitingPaper.toPublication())
	}
	return pubs, nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

type semanticCitationsResponse struct {
	Data []struct {
		CitingPaper semanticPaper `json:"citingPaper"`
	} `json:"data"`
}

type semanticPaper struct {
	PaperID         string `json:"paperId"`
	Title           string `json:"title"`
	Abstract        string `json:"abstract"`
	Year            int    `json:"year"`
	PublicationDate string `json:"publicationDate"`
	CitationCount   int    `json:"citationCount"`
	Authors         []struct {
		Name string `json:"name"`
	} `json:"authors"`
	ExternalIDs struct {
		DOI   string `json:"DOI"`
		PMID  string `json:"PubMed"`
		ArXiv string `json:"ArXiv"`
	} `json:"externalIds"`
}

func (p semanticPaper) toPublication() types.Publication {
	pub := types.Publication{
		Title:         strings.TrimSpace(p.Title),
		Abstract:      p.Abstract,
		DOI:           p.ExternalIDs.DOI,
		PMID:          p.ExternalIDs.PMID,
		ArxivID:       p.ExternalIDs.ArXiv,
		CitationCount: p.CitationCount,
		Source:        "semantic_scholar",
	}
	for _, a := range p.Authors {
		if a.Name != "" {
			pub.Authors = append(pub.Authors, a.Name)
		}
	}
	if p.PublicationDate != "" {
		if t, err := time.Parse("2006-01-02", p.PublicationDate); err == nil {
			pub.PublicationDate = t
		}
	} else if p.Year > 0 {
		pub.PublicationDate = time.Date(p.Year, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return pub
}
