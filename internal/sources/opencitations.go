// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/citeminer/internal/ratelimit"
	"github.com/pdiddy/citeminer/internal/retry"
	"github.com/pdiddy/citeminer/pkg/types"
)

// openCitationsCitesBase is the OpenCitations COCI citations index, keyed
// entirely by DOI.
var openCitationsCitesBase = "https://opencitations.net/index/coci/api/v1/citations"

// OpenCitationsBackend queries OpenCitations' COCI index, which returns
// bare citing-DOI pairs with no bibliographic metadata.
type OpenCitationsBackend struct {
	Client *http.Client
	Gate   *ratelimit.Gate
}

// NewOpenCitationsBackend wires the published rate policy of 1 req/s.
func NewOpenCitationsBackend(client *http.Client) *OpenCitationsBackend {
	return &OpenCitationsBackend{Client: client, Gate: ratelimit.NewGate(1.0)}
}

func (b *OpenCitationsBackend) Name() string { return "opencitations" }

// GetCiting returns stub Publications carrying only the citing DOI;
// callers needing full metadata must enrich through another source
// (e.g. Crossref) since COCI itself returns none.
func (b *OpenCitationsBackend) GetCiting(ctx context.Context, doi string, limit int) ([]types.Publication, error) {
	if doi == "" {
		return nil, fmt.Errorf("opencitations: empty DOI")
	}
	if err := b.Gate.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := openCitationsCitesBase + "/" + url.PathEscape(doi)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building OpenCitations request: %w", err)
	}

	resp, err := retry.Do(ctx, retry.DefaultPolicy(), func(ctx context.Context, _ int) (*http.Response, error) {
		r, err := b.Client.Do(req)
		if err != nil {
			return nil, retry.Classify("opencitations", 0, err)
		}
		if r.StatusCode != http.StatusOK {
			r.Body.Close()
			return nil, retry.Classify("opencitations", r.StatusCode, nil)
		}
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("OpenCitations API request: %w", err)
	}
	defer resp.Body.Close()

	var parsed []openCitationsEdge
	if err := jsonDecode(resp.Body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing OpenCitations response: %w", err)
	}

	if limit > 0 && len(parsed) > limit {
		parsed = parsed[:limit]
	}
	pubs := make([]types.Publication, 0, len(parsed))
	for _, e := range parsed {
		citing := strings.TrimSpace(e.Citing)
		if citing == "" {
			continue
		}
		pubs = append(pubs, types.Publication{DOI: citing, Source: "opencitations"})
	}
	return pubs, nil
}

type openCitationsEdge struct {
	Citing string `json:"citing"`
	Cited  string `json:"cited"`
}
