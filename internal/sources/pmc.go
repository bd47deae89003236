// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"

	"github.com/pdiddy/citeminer/internal/ratelimit"
	"github.com/pdiddy/citeminer/internal/retry"
	"github.com/pdiddy/citeminer/pkg/types"
)

// pmcOAServiceBase is the PMC Open Access Subset web service, which maps a
// PMCID to its archive/full-text download links. It shares the Entrez rate
// budget.
var pmcOAServiceBase = "https://www.ncbi.nlm.nih.gov/pmc/utils/oa/oa.fcgi"

// PMCBackend resolves full-text locations for articles in the PubMed
// Central open-access subset.
type PMCBackend struct {
	Client *http.Client
	APIKey string
	Gate   *ratelimit.Gate
}

// NewPMCBackend shares the Entrez rate policy: 3 req/s without a key,
// 10/s with one.
func NewPMCBackend(client *http.Client, apiKey string) *PMCBackend {
	rate := 3.0
	if apiKey != "" {
		rate = 10.0
	}
	return &PMCBackend{Client: client, APIKey: apiKey, Gate: ratelimit.NewGate(rate)}
}

func (b *PMCBackend) Name() string { return "pmc" }

// GetFullTextURLs returns the open-access archive/pdf link for pub.PMCID,
// if the article is in the OA subset.
func (b *PMCBackend) GetFullTextURLs(ctx context.Context, pub types.Publication) ([]types.SourceURL, error) {
	if pub.PMCID == "" {
		return nil, nil
	}
	if err := b.Gate.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s?id=%s", pmcOAServiceBase, pub.PMCID)
	if b.APIKey != "" {
		reqURL += "&api_key=" + b.APIKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building PMC OA request: %w", err)
	}

	resp, err := retry.Do(ctx, retry.DefaultPolicy(), func(ctx context.Context, _ int) (*http.Response, error) {
		r, err := b.Client.Do(req)
		if err != nil {
			return nil, retry.Classify("pmc", 0, err)
		}
		if r.StatusCode != http.StatusOK {
			r.Body.Close()
			return nil, retry.Classify("pmc", r.StatusCode, nil)
		}
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("PMC OA service request: %w", err)
	}
	defer resp.Body.Close()

	var parsed pmcOAResponse
	if err := xml.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parsing PMC OA response: %w", err)
	}
	if len(parsed.Records) == 0 {
		return nil, nil
	}

	var urls []types.SourceURL
	for _, link := range parsed.Records[0].Links {
		typ := types.HTMLFullText
		if link.Format == "pdf" {
			typ = types.PDFDirect
		}
		urls = append(urls, types.SourceURL{
			URL:        link.Href,
			Source:     "pmc",
			Priority:   2,
			Type:       typ,
			Confidence: 0.9,
		})
	}
	return urls, nil
}

type pmcOAResponse struct {
	Records []pmcOARecord `xml:"records>record"`
}

type pmcOARecord struct {
	ID    string      `xml:"id,attr"`
	Links []pmcOALink `xml:"link"`
}

type pmcOALink struct {
	Format string `xml:"format,attr"`
	Href   string `xml:"href,attr"`
}
