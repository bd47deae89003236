// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pdiddy/citeminer/internal/ratelimit"
	"github.com/pdiddy/citeminer/internal/retry"
	"github.com/pdiddy/citeminer/pkg/types"
)

// biorxivDetailsBase is the bioRxiv/medRxiv details-by-DOI endpoint,
// shared by both preprint servers.
var biorxivDetailsBase = "https://api.biorxiv.org/details"

// BiorxivBackend queries the bioRxiv/medRxiv details API, keyed by DOI and
// the server name embedded in it.
type BiorxivBackend struct {
	Client *http.Client
	Gate   *ratelimit.Gate
}

// NewBiorxivBackend wires the published rate policy of 1 req/s, shared
// between the bioRxiv and medRxiv servers.
func NewBiorxivBackend(client *http.Client) *BiorxivBackend {
	return &BiorxivBackend{Client: client, Gate: ratelimit.NewGate(1.0)}
}

func (b *BiorxivBackend) Name() string { return "biorxiv" }

// GetFullTextURLs looks up pub's DOI on the bioRxiv server, then on
// medRxiv, and returns the PDF link of the first server that has an entry.
func (b *BiorxivBackend) GetFullTextURLs(ctx context.Context, pub types.Publication) ([]types.SourceURL, error) {
	if pub.DOI == "" {
		return nil, nil
	}

	for _, server := range []string{"biorxiv", "medrxiv"} {
		entry, err := b.lookup(ctx, server, pub.DOI)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			continue
		}
		return []types.SourceURL{{
			URL:        fmt.Sprintf("https://www.%s.org/content/%s.full.pdf", server, pub.DOI),
			Source:     "biorxiv",
			Priority:   7,
			Type:       types.PDFDirect,
			Confidence: 0.8,
		}}, nil
	}
	return nil, nil
}

func (b *BiorxivBackend) lookup(ctx context.Context, server, doi string) (*biorxivEntry, error) {
	if err := b.Gate.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/%s/%s", biorxivDetailsBase, server, doi)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", server, err)
	}

	resp, err := retry.Do(ctx, retry.DefaultPolicy(), func(ctx context.Context, _ int) (*http.Response, error) {
		r, err := b.Client.Do(req)
		if err != nil {
			return nil, retry.Classify(server, 0, err)
		}
		if r.StatusCode != http.StatusOK {
			r.Body.Close()
			return nil, retry.Classify(server, r.StatusCode, nil)
		}
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s API request: %w", server, err)
	}
	defer resp.Body.Close()

	var parsed biorxivResponse
	if err := jsonDecode(resp.Body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing %s response: %w", server, err)
	}
	if len(parsed.Collection) == 0 {
		return nil, nil
	}
	return &parsed.Collection[0], nil
}

type biorxivResponse struct {
	Collection []biorxivEntry `json:"collection"`
}

type biorxivEntry struct {
	DOI   string `json:"doi"`
	Title string `json:"title"`
}
