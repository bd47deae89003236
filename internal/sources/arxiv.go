// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/citeminer/internal/ratelimit"
	"github.com/pdiddy/citeminer/pkg/types"
)

// arxivAPIBase is the arXiv Atom query endpoint. Declared as a var so
// tests can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivBackend resolves full-text URLs for arXiv-hosted preprints. arXiv
// publishes no citation graph, so it is wired only as a FullTextFetcher,
// gated at 1 req/3s.
type ArxivBackend struct {
	Client *http.Client
	Gate   *ratelimit.Gate
}

// NewArxivBackend constructs a backend at arXiv's published rate policy.
func NewArxivBackend(client *http.Client) *ArxivBackend {
	return &ArxivBackend{Client: client, Gate: ratelimit.NewGate(1.0 / 3.0)}
}

func (b *ArxivBackend) Name() string { return "arxiv" }

// GetFullTextURLs looks up pub's arXiv entry and returns its abstract-page
// PDF link. It trusts pub.ArxivID when already known, otherwise searches by
// title.
func (b *ArxivBackend) GetFullTextURLs(ctx context.Context, pub types.Publication) ([]types.SourceURL, error) {
	id := pub.ArxivID
	if id == "" {
		found, err := b.searchByTitle(ctx, pub.Title)
		if err != nil || found == "" {
			return nil, err
		}
		id = found
	}

	return []types.SourceURL{
		{
			URL:        fmt.Sprintf("https://arxiv.org/pdf/%s", id),
			Source:     "arxiv",
			Priority:   8,
			Type:       types.PDFDirect,
			Confidence: 0.9,
		},
	}, nil
}

func (b *ArxivBackend) searchByTitle(ctx context.Context, title string) (string, error) {
	if title == "" {
		return "", nil
	}
	if err := b.Gate.Wait(ctx); err != nil {
		return "", err
	}

	params := url.Values{
		"search_query": {"ti:\"" + title + "\""},
		"start":        {"0"},
		"max_results":  {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, arxivAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("building arxiv request: %w", err)
	}

	resp, err := b.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("arxiv API request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("arxiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return "", fmt.Errorf("parsing arxiv response: %w", err)
	}
	if len(feed.Entries) == 0 {
		return "", nil
	}
	return extractArxivID(feed.Entries[0].ID), nil
}

// extractArxivID pulls the bare id (no version suffix) out of an arXiv
// entry's <id> URL, e.g. "http://arxiv.org/abs/2301.01234v2" -> "2301.01234".
func extractArxivID(idURL string) string {
	i := strings.LastIndex(idURL, "/abs/")
	if i < 0 {
		return ""
	}
	id := idURL[i+len("/abs/"):]
	if v := strings.LastIndexByte(id, 'v'); v > 0 {
		if _, err := fmt.Sscanf(id[v+1:], "%d", new(int)); err == nil {
			id = id[:v]
		}
	}
	return id
}

type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID      string `xml:"id"`
	Title   string `xml:"title"`
	Summary string `xml:"summary"`
}
