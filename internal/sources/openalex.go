// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/citeminer/internal/ratelimit"
	"github.com/pdiddy/citeminer/internal/retry"
	"github.com/pdiddy/citeminer/pkg/types"
)

// OpenAlexWorksBase is the OpenAlex works endpoint; /works/{id}/cited_by
// is derived from it for citation-based discovery.
var OpenAlexWorksBase = "https://api.openalex.org/works"

// OpenAlexBackend queries the OpenAlex API. It is DOI-keyed: GetCiting
// expects id to be a DOI.
type OpenAlexBackend struct {
	Client *http.Client
	Email  string
	Gate   *ratelimit.Gate
}

// NewOpenAlexBackend wires the polite-pool rate (10 req/s with mailto set).
func NewOpenAlexBackend(client *http.Client, email string) *OpenAlexBackend {
	return &OpenAlexBackend{Client: client, Email: email, Gate: ratelimit.NewGate(10.0)}
}

func (b *OpenAlexBackend) Name() string { return "openalex" }

// GetCiting returns publications citing the work identified by a DOI.
func (b *OpenAlexBackend) GetCiting(ctx context.Context, doi string, limit int) ([]types.Publication, error) {
	if doi == "" {
		return nil, fmt.Errorf("openalex: empty DOI")
	}
	if limit <= 0 {
		limit = 20
	}

	workID, err := b.resolveWorkID(ctx, doi)
	if err != nil {
		return nil, err
	}
	if workID == "" {
		return nil, nil
	}

	params := url.Values{
		"filter":   {"cites:" + workID},
		"per-page": {fmt.Sprintf("%d", limit)},
	}
	if b.Email != "" {
		params.Set("mailto", b.Email)
	}

	resp, err := b.get(ctx, OpenAlexWorksBase+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	pubs := make([]types.Publication, 0, len(resp.Results))
	for _, w := range resp.Results {
		pubs = append(pubs, w.toPublication())
	}
	return pubs, nil
}

// GetFullTextURLs returns the best open-access location OpenAlex knows of
// for pub, priority 5
func (b *OpenAlexBackend) GetFullTextURLs(ctx context.Context, pub types.Publication) ([]types.SourceURL, error) {
	if pub.DOI == "" {
		return nil, nil
	}
	workID, err := b.resolveWorkID(ctx, pub.DOI)
	if err != nil || workID == "" {
		return nil, err
	}

	params := url.Values{"filter": {"ids.openalex:" + workID}}
	if b.Email != "" {
		params.Set("mailto", b.Email)
	}
	resp, err := b.get(ctx, OpenAlexWorksBase+"?"+params.Encode())
	if err != nil || len(resp.Results) == 0 {
		return nil, err
	}

	oa := resp.Results[0].OpenAccess
	if !oa.IsOA || oa.OAURL == "" {
		return nil, nil
	}
	return []types.SourceURL{{
		URL:        oa.OAURL,
		Source:     "openalex",
		Priority:   5,
		Type:       classifyURL(oa.OAURL),
		Confidence: 0.75,
	}}, nil
}

func (b *OpenAlexBackend) resolveWorkID(ctx context.Context, doi string) (string, error) {
	reqURL := OpenAlexWorksBase + "/https://doi.org/" + url.PathEscape(strings.TrimPrefix(doi, "https://doi.org/"))
	var w openAlexWork
	if err := b.getInto(ctx, reqURL, &w); err != nil {
		return "", err
	}
	return w.ID, nil
}

func (b *OpenAlexBackend) get(ctx context.Context, reqURL string) (*openAlexResponse, error) {
	var out openAlexResponse
	if err := b.getInto(ctx, reqURL, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *OpenAlexBackend) getInto(ctx context.Context, reqURL string, v any) error {
	if err := b.Gate.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("building OpenAlex request: %w", err)
	}

	resp, err := retry.Do(ctx, retry.DefaultPolicy(), func(ctx context.Context, _ int) (*http.Response, error) {
		r, err := b.Client.Do(req)
		if err != nil {
			return nil, retry.Classify("openalex", 0, err)
		}
		if r.StatusCode == http.StatusNotFound {
			r.Body.Close()
			return nil, retry.New(retry.NotFound, "openalex", "work not found")
		}
		if r.StatusCode != http.StatusOK {
			r.Body.Close()
			return nil, retry.Classify("openalex", r.StatusCode, nil)
		}
		return r, nil
	})
	if err != nil {
		if rerr, ok := err.(*retry.Error); ok && rerr.Kind == retry.NotFound {
			return nil
		}
		return fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if err := jsonDecode(resp.Body, v); err != nil {
		return fmt.Errorf("parsing OpenAlex response: %w", err)
	}
	return nil
}

type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	PublicationDate       string               `json:"publication_date"`
	PublicationYear       int                  `json:"publication_year"`
	CitedByCount          int                  `json:"cited_by_count"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	OpenAccess            openAlexOpenAccess   `json:"open_access"`
	HostVenue             struct {
		DisplayName string `json:"display_name"`
	} `json:"primary_location,omitempty"`
}

type openAlexAuthorship struct {
	Author struct {
		DisplayName string `json:"display_name"`
	} `json:"author"`
}

type openAlexOpenAccess struct {
	IsOA  bool   `json:"is_oa"`
	OAURL string `json:"oa_url"`
}

func (w openAlexWork) toPublication() types.Publication {
	p := types.Publication{
		Title:         strings.TrimSpace(w.Title),
		Abstract:      reconstructAbstract(w.AbstractInvertedIndex),
		Journal:       w.HostVenue.DisplayName,
		CitationCount: w.CitedByCount,
		Source:        "openalex",
		OpenAlexID:    w.ID,
	}
	if w.DOI != "" {
		p.DOI = strings.TrimPrefix(w.DOI, "https://doi.org/")
	}
	for _, a := range w.Authorships {
		if a.Author.DisplayName != "" {
			p.Authors = append(p.Authors, a.Author.DisplayName)
		}
	}
	if w.PublicationDate != "" {
		if t, err := time.Parse("2006-01-02", w.PublicationDate); err == nil {
			p.PublicationDate = t
		}
	} else if w.PublicationYear > 0 {
		p.PublicationDate = time.Date(w.PublicationYear, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return p
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}
	type posWord struct {
		pos  int
		word string
	}
	pairs := make([]posWord, 0, len(invertedIndex))
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].pos < pairs[j].pos })
	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}
