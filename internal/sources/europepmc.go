// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
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

// europePMCSearchBase is the Europe PMC REST search endpoint.
var europePMCSearchBase = "https://www.ebi.ac.uk/europepmc/webservices/rest/search"

// EuropePMCBackend queries Europe PMC's REST search API using the
// CITES:<id>_<SRC> query syntax for citation-based discovery.
type EuropePMCBackend struct {
	Client *http.Client
	Gate   *ratelimit.Gate
}

// NewEuropePMCBackend wires the published rate policy of 2 req/s.
func NewEuropePMCBackend(client *http.Client) *EuropePMCBackend {
	return &EuropePMCBackend{Client: client, Gate: ratelimit.NewGate(2.0)}
}

func (b *EuropePMCBackend) Name() string { return "europepmc" }

// GetCiting returns papers citing id, which may be a PMID, a PMCID, or a
// DOI; the query syntax differs by which kind of identifier is given.
func (b *EuropePMCBackend) GetCiting(ctx context.Context, id string, limit int) ([]types.Publication, error) {
	if id == "" {
		return nil, fmt.Errorf("europepmc: empty id")
	}
	if limit <= 0 {
		limit = 20
	}

	query := citesQuery(id)
	if err := b.Gate.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"query":      {query},
		"format":     {"json"},
		"resultType": {"core"},
		"pageSize":   {fmt.Sprintf("%d", limit)},
	}
	reqURL := europePMCSearchBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building Europe PMC request: %w", err)
	}

	resp, err := retry.Do(ctx, retry.DefaultPolicy(), func(ctx context.Context, _ int) (*http.Response, error) {
		r, err := b.Client.Do(req)
		if err != nil {
			return nil, retry.Classify("europepmc", 0, err)
		}
		if r.StatusCode != http.StatusOK {
			r.Body.Close()
			return nil, retry.Classify("europepmc", r.StatusCode, nil)
		}
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("Europe PMC API request: %w", err)
	}
	defer resp.Body.Close()

	var parsed europePMCResponse
	if err := jsonDecode(resp.Body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing Europe PMC response: %w", err)
	}

	pubs := make([]types.Publication, 0, len(parsed.ResultList.Result))
	for _, r := range parsed.ResultList.Result {
		pubs = append(pubs, r.toPublication())
	}
	return pubs, nil
}

// citesQuery builds the `CITES:<id>_<SRC>` query form Europe PMC expects,
// choosing MED for PMIDs, PMC for PMCIDs, and falling back to a DOI filter.
func citesQuery(id string) string {
	switch {
	case isAllDigits(id):
		return fmt.Sprintf("CITES:%s_MED", id)
	case strings.HasPrefix(strings.ToUpper(id), "PMC"):
		return fmt.Sprintf("CITES:%s_PMC", strings.ToUpper(id))
	default:
		return fmt.Sprintf("DOI:\"%s\"", id)
	}
}

type europePMCResponse struct {
	ResultList struct {
		Result []europePMCResult `json:"result"`
	} `json:"resultList"`
}

type europePMCResult struct {
	PMID         string `json:"pmid"`
	PMCID        string `json:"pmcid"`
	DOI          string `json:"doi"`
	Title        string `json:"title"`
	AbstractText string `json:"abstractText"`
	JournalTitle string `json:"journalTitle"`
	PubYear      string `json:"pubYear"`
	CitedByCount int    `json:"citedByCount"`
	AuthorString string `json:"authorString"`
}

func (r europePMCResult) toPublication() types.Publication {
	p := types.Publication{
		PMID:          r.PMID,
		PMCID:         r.PMCID,
		DOI:           r.DOI,
		Title:         strings.TrimSpace(r.Title),
		Abstract:      r.AbstractText,
		Journal:       r.JournalTitle,
		CitationCount: r.CitedByCount,
		Source:        "europepmc",
	}
	if r.AuthorString != "" {
		for _, a := range strings.Split(r.AuthorString, ", ") {
			a = strings.TrimSpace(a)
			if a != "" {
				p.Authors = append(p.Authors, a)
			}
		}
	}
	if year, err := strconv.Atoi(r.PubYear); err == nil && year > 0 {
		p.PublicationDate = time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return p
}
