// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package urlcollect implements the URL collector: given one Publication,
// it fans out to every enabled full-text source concurrently (bounded
// worker pool via a semaphore channel, default 8), classifies every
// returned URL that its source left untyped or UNKNOWN,
// deduplicates, and sorts candidates into the waterfall order the
// download manager consumes.
package urlcollect

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/citeminer/internal/sources"
	"github.com/pdiddy/citeminer/pkg/types"
)

// perPublicationConcurrency bounds how many sources are queried at once
// for a single publication.
const perPublicationConcurrency = 8

// fetchFunc is the uniform shape every priority-table entry reduces to,
// whether backed by a sources.FullTextFetcher or a local helper such as
// the institutional-proxy or gray-market entries, neither of which has a
// public API worth modeling as a sources.Client.
type fetchFunc func(ctx context.Context, pub types.Publication) ([]types.SourceURL, error)

type sourceEntry struct {
	name     string
	priority int
	fetch    fetchFunc
}

// Collector runs the per-publication fan-out across every enabled
// full-text source.
type Collector struct {
	Config  types.URLCollectorConfig
	entries []sourceEntry

	// HTTPClient backs the UNKNOWN-type HEAD check; nil falls back to
	// http.DefaultClient.
	HTTPClient *http.Client
}

// NewCollector builds an empty Collector; call Register/RegisterFullText
// for each source before use.
func NewCollector(cfg types.URLCollectorConfig, httpClient *http.Client) *Collector {
	return &Collector{Config: cfg, HTTPClient: httpClient}
}

// enabled applies the enable_<source> gate: a source is on unless
// explicitly disabled in config.
func (c *Collector) enabled(name string) bool {
	if v, ok := c.Config.EnabledSources[name]; ok {
		return v
	}
	return true
}

func (c *Collector) addEntry(name string, priority int, f fetchFunc) {
	c.entries = append(c.entries, sourceEntry{name: name, priority: priority, fetch: f})
	sort.SliceStable(c.entries, func(i, j int) bool { return c.entries[i].priority < c.entries[j].priority })
}

// Register adds one named, prioritized full-text source, respecting the
// per-source enable gate.
func (c *Collector) Register(name string, priority int, f fetchFunc) {
	if !c.enabled(name) {
		return
	}
	c.addEntry(name, priority, f)
}

// RegisterFullText wraps a sources.FullTextFetcher (one of the domain
// clients in internal/sources) into the collector's priority table.
func (c *Collector) RegisterFullText(name string, priority int, backend sources.FullTextFetcher) {
	c.Register(name, priority, func(ctx context.Context, pub types.Publication) ([]types.SourceURL, error) {
		return backend.GetFullTextURLs(ctx, pub)
	})
}

// RegisterGrayMarket adds an optional, disabled-by-default source. It is wired only when AllowGrayMarket is
// set, on top of the ordinary per-source enable gate.
func (c *Collector) RegisterGrayMarket(name string, priority int, f fetchFunc) {
	if !c.Config.AllowGrayMarket {
		return
	}
	c.Register(name, priority, f)
}

// NewInstitutionalProxyFetch builds the priority-1 "Institutional proxy"
// source: it has no public discovery API of its own, just an EZproxy-style
// login URL that rewrites a DOI-resolvable landing page through the
// caller's proxy. proxyBase is expected to end in the proxy's URL
// parameter, e.g. "https://proxy.example.edu/login?url=".
func NewInstitutionalProxyFetch(proxyBase string) fetchFunc {
	return func(ctx context.Context, pub types.Publication) ([]types.SourceURL, error) {
		if proxyBase == "" || pub.DOI == "" {
			return nil, nil
		}
		target := "https://doi.org/" + pub.DOI
		return []types.SourceURL{{
			URL:          proxyBase + url.QueryEscape(target),
			Source:       "institutional",
			Priority:     1,
			Type:         types.LandingPage,
			RequiresAuth: true,
			Confidence:   0.95,
		}}, nil
	}
}

// Classify applies 's extension/path-fragment/host heuristics to a raw
// URL. The collector runs it on every candidate whose originating source
// left the type empty or UNKNOWN; a type set by the source is kept.
func Classify(rawURL string) types.URLType {
	lower := strings.ToLower(rawURL)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		return types.PDFDirect
	case strings.Contains(lower, "/pdf/"):
		return types.PDFDirect
	case strings.Contains(lower, "/articles/"), strings.Contains(lower, ".full"):
		return types.HTMLFullText
	case strings.Contains(lower, "doi.org"):
		return types.LandingPage
	default:
		return types.URLUnknown
	}
}

// typeRank gives the total order over URLType used for sorting:
// PDF_DIRECT < HTML_FULLTEXT < LANDING_PAGE < UNKNOWN.
func typeRank(t types.URLType) int {
	switch t {
	case types.PDFDirect:
		return 0
	case types.HTMLFullText:
		return 1
	case types.LandingPage:
		return 2
	default:
		return 3
	}
}

// resolveUnknown issues a HEAD request to decide an UNKNOWN URL's type: a
// PDF content-type promotes it to PDF_DIRECT, anything else (including a
// failed request) defaults to LANDING_PAGE
func (c *Collector) resolveUnknown(ctx context.Context, rawURL string) types.URLType {
	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return types.LandingPage
	}
	resp, err := client.Do(req)
	if err != nil {
		return types.LandingPage
	}
	defer resp.Body.Close()
	if strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "pdf") {
		return types.PDFDirect
	}
	return types.LandingPage
}

// timeoutPerSource returns the configured per-source timeout, defaulting
// to 10s
func (c *Collector) timeoutPerSource() time.Duration {
	if c.Config.TimeoutPerSourceSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Config.TimeoutPerSourceSeconds) * time.Second
}

// CollectForPublication fans out to every registered source concurrently
// (bounded by perPublicationConcurrency), classifies untyped URLs, deduplicates, and
// sorts the result. A source that times out or errors contributes nothing;
// the aggregate Success is true iff any source returned at least one URL.
func (c *Collector) CollectForPublication(ctx context.Context, pub types.Publication) types.FullTextResult {
	type rawResult struct {
		name string
		urls []types.SourceURL
		err  error
	}

	results := make([]rawResult, len(c.entries))
	sem := make(chan struct{}, perPublicationConcurrency)
	var wg sync.WaitGroup

	timeout := c.timeoutPerSource()
	for i, e := range c.entries {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, e sourceEntry) {
			defer wg.Done()
			defer func() { <-sem }()

			sctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			urls, err := e.fetch(sctx, pub)
			results[i] = rawResult{name: e.name, urls: urls, err: err}
		}(i, e)
	}
	wg.Wait()

	var all []types.SourceURL
	errs := map[string]string{}
	success := false
	for _, r := range results {
		if r.err != nil {
			errs[r.name] = r.err.Error()
			continue
		}
		if len(r.urls) > 0 {
			success = true
		}
		all = append(all, r.urls...)
	}

	for i := range all {
		if all[i].Type == "" || all[i].Type == types.URLUnknown {
			all[i].Type = Classify(all[i].URL)
		}
		if all[i].Type == types.URLUnknown {
			all[i].Type = c.resolveUnknown(ctx, all[i].URL)
		}
	}

	return types.FullTextResult{
		Success: success,
		URLs:    c.sortAndDedupe(all),
		Errors:  errs,
	}
}

// sortAndDedupe implements 's sort and dedup rule: primary key is
// url_type, secondary is priority ascending, tertiary is source
// enumeration (registration) order; duplicate URLs keep the best-sorting
// occurrence.
func (c *Collector) sortAndDedupe(urls []types.SourceURL) []types.SourceURL {
	enumIndex := make(map[string]int, len(c.entries))
	for i, e := range c.entries {
		enumIndex[e.name] = i
	}

	less := func(a, b types.SourceURL) bool {
		if typeRank(a.Type) != typeRank(b.Type) {
			return typeRank(a.Type) < typeRank(b.Type)
		}
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return enumIndex[a.Source] < enumIndex[b.Source]
	}

	best := make(map[string]types.SourceURL, len(urls))
	var order []string
	for _, u := range urls {
		existing, ok := best[u.URL]
		if !ok {
			order = append(order, u.URL)
			best[u.URL] = u
			continue
		}
		if less(u, existing) {
			best[u.URL] = u
		}
	}

	out := make([]types.SourceURL, 0, len(order))
	for _, k := range order {
		out = append(out, best[k])
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// CollectBatch runs CollectForPublication over pubs with bounded global
// concurrency, preserving input order.
func (c *Collector) CollectBatch(ctx context.Context, pubs []types.Publication) []types.FullTextResult {
	maxConcurrent := c.Config.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}

	results := make([]types.FullTextResult, len(pubs))
	sem := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup
	for i, pub := range pubs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, pub types.Publication) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = c.CollectForPublication(ctx, pub)
		}(i, pub)
	}
	wg.Wait()
	return results
}
