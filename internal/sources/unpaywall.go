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

// unpaywallBase is the Unpaywall v2 lookup endpoint.
var unpaywallBase = "https://api.unpaywall.org/v2"

// UnpaywallBackend queries Unpaywall, which requires a contact email on
// every request per its access policy, for open-access locations.
type UnpaywallBackend struct {
	Client *http.Client
	Email  string
	Gate   *ratelimit.Gate
}

// NewUnpaywallBackend wires the published rate policy of 1 req/10s.
func NewUnpaywallBackend(client *http.Client, email string) *UnpaywallBackend {
	return &UnpaywallBackend{Client: client, Email: email, Gate: ratelimit.NewGate(0.1)}
}

func (b *UnpaywallBackend) Name() string { return "unpaywall" }

// GetFullTextURLs returns Unpaywall's best and alternate OA locations.
func (b *UnpaywallBackend) GetFullTextURLs(ctx context.Context, pub types.Publication) ([]types.SourceURL, error) {
	if pub.DOI == "" {
		return nil, nil
	}
	if b.Email == "" {
		return nil, fmt.Errorf("unpaywall: email is required")
	}
	if err := b.Gate.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/%s?email=%s", unpaywallBase, url.PathEscape(pub.DOI), url.QueryEscape(b.Email))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building Unpaywall request: %w", err)
	}

	resp, err := retry.Do(ctx, retry.DefaultPolicy(), func(ctx context.Context, _ int) (*http.Response, error) {
		r, err := b.Client.Do(req)
		if err != nil {
			return nil, retry.Classify("unpaywall", 0, err)
		}
		if r.StatusCode == http.StatusNotFound {
			r.Body.Close()
			return nil, retry.New(retry.NotFound, "unpaywall", "DOI not found")
		}
		if r.StatusCode != http.StatusOK {
			r.Body.Close()
			return nil, retry.Classify("unpaywall", r.StatusCode, nil)
		}
		return r, nil
	})
	if err != nil {
		if rerr, ok := err.(*retry.Error); ok && rerr.Kind == retry.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("Unpaywall API request: %w", err)
	}
	defer resp.Body.Close()

	var parsed unpaywallResponse
	if err := jsonDecode(resp.Body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing Unpaywall response: %w", err)
	}

	var urls []types.SourceURL
	seen := make(map[string]bool)
	add := func(loc unpaywallLocation, confidence float64) {
		if loc.URLForPDF == "" && loc.URL == "" {
			return
		}
		u := loc.URLForPDF
		typ := types.PDFDirect
		if u == "" {
			u = loc.URL
			typ = classifyURL(u)
		}
		if seen[u] {
			return
		}
		seen[u] = true
		urls = append(urls, types.SourceURL{
			URL:        u,
			Source:     "unpaywall",
			Priority:   3,
			Type:       typ,
			Confidence: confidence,
		})
	}
	if parsed.BestOALocation != nil {
		add(*parsed.BestOALocation, 0.85)
	}
	for _, loc := range parsed.OALocations {
		add(loc, 0.6)
	}
	return urls, nil
}

type unpaywallResponse struct {
	BestOALocation *unpaywallLocation `json:"best_oa_location"`
	OALocations    []unpaywallLocation `json:"oa_locations"`
}

type unpaywallLocation struct {
	URL       string `json:"url"`
	URLForPDF string `json:"url_for_pdf"`
}
