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

// CrossrefWorksBase is the Crossref REST API works endpoint.
var CrossrefWorksBase = "https://api.crossref.org/works"

// CrossrefBackend queries Crossref for full-text links and, separately,
// for bibliographic enrichment of DOI-only records that arrived without
// a title.
type CrossrefBackend struct {
	client *http.Client
	Mailto string
	Gate   *ratelimit.Gate
}

// NewCrossrefBackend wires Crossref's polite-pool rate (50 req/s with a
// mailto contact, else 1 req/s).
func NewCrossrefBackend(client *http.Client, mailto string) *CrossrefBackend {
	rate := 1.0
	if mailto != "" {
		rate = 50.0
	}
	return &CrossrefBackend{client: client, Mailto: mailto, Gate: ratelimit.NewGate(rate)}
}

func (b *CrossrefBackend) Name() string { return "crossref" }

// GetFullTextURLs returns Crossref's "link" entries for pub's DOI, if any.
func (b *CrossrefBackend) GetFullTextURLs(ctx context.Context, pub types.Publication) ([]types.SourceURL, error) {
	if pub.DOI == "" {
		return nil, nil
	}
	work, err := b.lookup(ctx, pub.DOI)
	if err != nil || work == nil {
		return nil, err
	}

	urls := make([]types.SourceURL, 0, len(work.Link))
	for _, l := range work.Link {
		if l.URL == "" {
			continue
		}
		typ := classifyURL(l.URL)
		if strings.Contains(strings.ToLower(l.ContentType), "pdf") {
			typ = types.PDFDirect
		}
		urls = append(urls, types.SourceURL{
			URL:        l.URL,
			Source:     "crossref",
			Priority:   6,
			Type:       typ,
			Confidence: 0.6,
		})
	}
	return urls, nil
}

// EnrichFromCrossref fills in title/abstract/authors/journal/date for pub
// when they are missing, looking the record up by pub.DOI. It never
// overwrites a field pub already has.
func (b *CrossrefBackend) EnrichFromCrossref(ctx context.Context, pub types.Publication) (types.Publication, error) {
	if pub.DOI == "" {
		return pub, nil
	}
	work, err := b.lookup(ctx, pub.DOI)
	if err != nil || work == nil {
		return pub, err
	}

	if pub.Title == "" && len(work.Title) > 0 {
		pub.Title = work.Title[0]
	}
	if pub.Journal == "" && len(work.ContainerTitle) > 0 {
		pub.Journal = work.ContainerTitle[0]
	}
	if len(pub.Authors) == 0 {
		for _, a := range work.Author {
			name := strings.TrimSpace(a.Given + " " + a.Family)
			if name != "" {
				pub.Authors = append(pub.Authors, name)
			}
		}
	}
	if pub.PublicationDate.IsZero() {
		if parts := work.Issued.DateParts; len(parts) > 0 && len(parts[0]) > 0 {
			year := parts[0][0]
			month, day := 1, 1
			if len(parts[0]) > 1 {
				month = parts[0][1]
			}
			if len(parts[0]) > 2 {
				day = parts[0][2]
			}
			pub.PublicationDate = time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		}
	}
	return pub, nil
}

func (b *CrossrefBackend) lookup(ctx context.Context, doi string) (*crossrefWork, error) {
	if err := b.Gate.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := CrossrefWorksBase + "/" + url.PathEscape(doi)
	if b.Mailto != "" {
		reqURL += "?mailto=" + url.QueryEscape(b.Mailto)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building Crossref request: %w", err)
	}

	resp, err := retry.Do(ctx, retry.DefaultPolicy(), func(ctx context.Context, _ int) (*http.Response, error) {
		r, err := b.client.Do(req)
		if err != nil {
			return nil, retry.Classify("crossref", 0, err)
		}
		if r.StatusCode == http.StatusNotFound {
			r.Body.Close()
			return nil, retry.New(retry.NotFound, "crossref", "DOI not found")
		}
		if r.StatusCode != http.StatusOK {
			r.Body.Close()
			return nil, retry.Classify("crossref", r.StatusCode, nil)
		}
		return r, nil
	})
	if err != nil {
		if rerr, ok := err.(*retry.Error); ok && rerr.Kind == retry.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("Crossref API request: %w", err)
	}
	defer resp.Body.Close()

	var parsed struct {
		Message crossrefWork `json:"message"`
	}
	if err := jsonDecode(resp.Body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing Crossref response: %w", err)
	}
	return &parsed.Message, nil
}

type crossrefWork struct {
	Title          []string `json:"title"`
	ContainerTitle []string `json:"container-title"`
	Author         []struct {
		Given  string `json:"given"`
		Family string `json:"family"`
	} `json:"author"`
	Issued struct {
		DateParts [][]int `json:"date-parts"`
	} `json:"issued"`
	Link []struct {
		URL         string `json:"URL"`
		ContentType string `json:"content-type"`
	} `json:"link"`
}
