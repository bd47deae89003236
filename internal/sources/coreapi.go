// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/citeminer/internal/ratelimit"
	"github.com/pdiddy/citeminer/internal/retry"
	"github.com/pdiddy/citeminer/pkg/types"
)

// coreSearchBase is the CORE v3 works search endpoint.
var coreSearchBase = "https://api.core.ac.uk/v3/search/works"

// CoreBackend queries the CORE aggregator for candidate download locations.
type CoreBackend struct {
	Client *http.Client
	APIKey string
	Gate   *ratelimit.Gate
}

// NewCoreBackend wires CORE's published rate policy: 1 req/s without a
// key, 10/s with one.
func NewCoreBackend(client *http.Client, apiKey string) *CoreBackend {
	rate := 1.0
	if apiKey != "" {
		rate = 10.0
	}
	return &CoreBackend{Client: client, APIKey: apiKey, Gate: ratelimit.NewGate(rate)}
}

func (b *CoreBackend) Name() string { return "core" }

// GetFullTextURLs searches CORE by DOI (falling back to title) and returns
// the matched work's download URL, if any.
func (b *CoreBackend) GetFullTextURLs(ctx context.Context, pub types.Publication) ([]types.SourceURL, error) {
	query := ""
	switch {
	case pub.DOI != "":
		query = fmt.Sprintf("doi:\"%s\"", pub.DOI)
	case pub.Title != "":
		query = fmt.Sprintf("title:\"%s\"", pub.Title)
	default:
		return nil, nil
	}

	if err := b.Gate.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{"q": {query}, "limit": {"1"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, coreSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building CORE request: %w", err)
	}
	if b.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.APIKey)
	}

	resp, err := retry.Do(ctx, retry.DefaultPolicy(), func(ctx context.Context, _ int) (*http.Response, error) {
		r, err := b.Client.Do(req)
		if err != nil {
			return nil, retry.Classify("core", 0, err)
		}
		if r.StatusCode != http.StatusOK {
			r.Body.Close()
			return nil, retry.Classify("core", r.StatusCode, nil)
		}
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("CORE API request: %w", err)
	}
	defer resp.Body.Close()

	var parsed coreSearchResponse
	if err := jsonDecode(resp.Body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing CORE response: %w", err)
	}
	if len(parsed.Results) == 0 {
		return nil, nil
	}

	work := parsed.Results[0]
	u := work.DownloadURL
	if u == "" {
		return nil, nil
	}
	return []types.SourceURL{{
		URL:        u,
		Source:     "core",
		Priority:   4,
		Type:       types.PDFDirect,
		Confidence: 0.7,
	}}, nil
}

type coreSearchResponse struct {
	Results []coreWork `json:"results"`
}

type coreWork struct {
	ID          int    `json:"id"`
	DOI         string `json:"doi"`
	DownloadURL string `json:"downloadUrl"`
}
