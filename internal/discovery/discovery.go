// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discovery implements the citation discovery coordinator: given a
// dataset, it finds papers that cite or mention it by running two
// strategies concurrently, then dedups, scores, and ranks the union.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pdiddy/citeminer/internal/cache"
	"github.com/pdiddy/citeminer/internal/dedup"
	"github.com/pdiddy/citeminer/internal/quality"
	"github.com/pdiddy/citeminer/internal/relevance"
	"github.com/pdiddy/citeminer/internal/retry"
	"github.com/pdiddy/citeminer/internal/sources"
	"github.com/pdiddy/citeminer/pkg/types"
)

// Coordinator wires the citation-graph sources, the mention searcher, the
// cache, and the dedup/quality/relevance stages into the two-strategy
// discovery flow.
type Coordinator struct {
	PubMed          *sources.PubMedBackend
	OpenAlex        *sources.OpenAlexBackend
	SemanticScholar *sources.SemanticScholarBackend
	EuropePMC       *sources.EuropePMCBackend
	OpenCitations   *sources.OpenCitationsBackend

	// Crossref enriches title-less DOI-bearing records before they would
	// otherwise be dropped for lacking a title.
	Crossref *sources.CrossrefBackend

	Cache  *cache.Cache
	Config types.DiscoveryConfig

	// Now is overridable in tests; defaults to time.Now.
	Now func() time.Time
}

func (c *Coordinator) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// sourceResult is one citing-fetcher's contribution, collected over a
// channel from its own goroutine.
type sourceResult struct {
	name string
	pubs []types.Publication
	err  error
}

// Discover finds, dedups, and ranks publications citing or mentioning
// dataset. Failures of individual sources are logged to w and do not
// abort the other strategy (graceful degradation); Discover only returns
// an error if both strategies are disabled or the cache payload is
// corrupt.
func (c *Coordinator) Discover(ctx context.Context, dataset types.Dataset, w io.Writer) (types.DiscoveryResult, error) {
	if !c.Config.EnableStrategyA && !c.Config.EnableStrategyB {
		return types.DiscoveryResult{}, fmt.Errorf("discovery: both strategy A and strategy B are disabled")
	}

	cacheKey := cache.Key(cache.NamespaceDiscovery, dataset.Accession)
	if c.Config.EnableCache && c.Cache != nil {
		if payload, ok, err := c.Cache.Get(cacheKey); err == nil && ok {
			var cached types.DiscoveryResult
			if err := json.Unmarshal(payload, &cached); err != nil {
				return types.DiscoveryResult{}, fmt.Errorf("discovery: decoding cached result for %s: %w", dataset.Accession, err)
			}
			fmt.Fprintf(w, "discovery: cache hit for %s (%d publications)\n", dataset.Accession, len(cached.Publications))
			if cached.StrategyBreakdown == nil {
				cached.StrategyBreakdown = map[string]string{}
			}
			cached.StrategyBreakdown["cached"] = "true"
			return cached, nil
		}
	}

	primaryPMID := dataset.PrimaryPMID()

	var strategyA, strategyB []types.Publication
	var wg sync.WaitGroup

	if c.Config.EnableStrategyA && primaryPMID != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			strategyA = c.findViaCitation(ctx, primaryPMID, c.Config.MaxResults, w)
		}()
	}

	if c.Config.EnableStrategyB {
		wg.Add(1)
		go func() {
			defer wg.Done()
			strategyB = c.findViaMention(ctx, dataset.Accession, c.Config.MaxResults, w)
		}()
	}

	wg.Wait()

	all := make([]types.Publication, 0, len(strategyA)+len(strategyB))
	all = append(all, strategyA...)
	all = append(all, strategyB...)

	all = c.enrichAndFilter(ctx, all, w)

	dedupRes := dedup.Deduplicate(all, c.Config.Dedup)

	ranked := relevance.RankByRelevance(dedupRes.Publications, dataset, c.Config.ScorerWeights, c.now())

	var qualitySummary *types.QualitySummary
	if c.Config.EnableQuality {
		summary := types.QualitySummary{CountByLevel: map[types.QualityLevel]int{}}
		var total float64
		kept := ranked[:0]
		for _, rp := range ranked {
			a := quality.Assess(rp.Publication, types.DefaultQualityConfig(), c.now())
			summary.CountByLevel[a.Level]++
			total += a.Overall
			if c.Config.MinQualityLevel != "" && !a.Level.AtLeast(c.Config.MinQualityLevel) {
				continue
			}
			assessment := a
			rp.Quality = &assessment
			kept = append(kept, rp)
		}
		ranked = kept
		if len(dedupRes.Publications) > 0 {
			summary.AverageScore = total / float64(len(dedupRes.Publications))
		}
		qualitySummary = &summary
	}

	if c.Config.MaxResults > 0 && len(ranked) > c.Config.MaxResults {
		ranked = ranked[:c.Config.MaxResults]
	}

	result := types.DiscoveryResult{
		Accession:   dataset.Accession,
		PrimaryPMID: primaryPMID,
		Publications: ranked,
		StrategyBreakdown: map[string]string{
			"strategy_a": fmt.Sprintf("%d", len(strategyA)),
			"strategy_b": fmt.Sprintf("%d", len(strategyB)),
		},
		PreprintPairs:  dedupRes.PreprintPairs,
		QualitySummary: qualitySummary,
	}

	if c.Config.EnableCache && c.Cache != nil {
		if payload, err := json.Marshal(result); err == nil {
			ttl := time.Duration(c.Config.CacheTTLSeconds) * time.Second
			if err := c.Cache.Set(cacheKey, payload, ttl); err != nil {
				fmt.Fprintf(w, "discovery: warning: failed to cache result for %s: %v\n", dataset.Accession, err)
			}
		}
	}

	return result, nil
}

// findViaCitation is Strategy A: resolve the primary publication's DOI via
// PubMed, then fan out to every citation-graph source concurrently. A
// source failure is logged and skipped; the strategy only comes back
// empty if every source fails (graceful degradation).
func (c *Coordinator) findViaCitation(ctx context.Context, pmid string, maxResults int, w io.Writer) []types.Publication {
	if c.PubMed == nil {
		return nil
	}

	policy := retry.Policy{MaxRetries: 2, BaseDelay: time.Second, MaxDelay: 30 * time.Second}

	original, err := retry.Do(ctx, policy, func(ctx context.Context, attempt int) (types.Publication, error) {
		return c.PubMed.FetchByID(ctx, pmid)
	})
	if err != nil {
		fmt.Fprintf(w, "discovery: strategy A: could not fetch original publication for pmid %s: %v\n", pmid, err)
		return nil
	}

	type fetcher struct {
		name string
		fn   func(ctx context.Context) ([]types.Publication, error)
	}
	var fetchers []fetcher

	if c.OpenAlex != nil && original.DOI != "" {
		fetchers = append(fetchers, fetcher{"openalex", func(ctx context.Context) ([]types.Publication, error) {
			return c.OpenAlex.GetCiting(ctx, original.DOI, maxResults)
		}})
	}
	if c.SemanticScholar != nil {
		idForS2 := pmid
		fetchers = append(fetchers, fetcher{"semantic_scholar", func(ctx context.Context) ([]types.Publication, error) {
			return c.SemanticScholar.GetCiting(ctx, idForS2, maxResults)
		}})
	}
	if c.EuropePMC != nil {
		fetchers = append(fetchers, fetcher{"europepmc", func(ctx context.Context) ([]types.Publication, error) {
			return c.EuropePMC.GetCiting(ctx, pmid, maxResults)
		}})
	}
	if c.OpenCitations != nil && original.DOI != "" {
		fetchers = append(fetchers, fetcher{"opencitations", func(ctx context.Context) ([]types.Publication, error) {
			return c.OpenCitations.GetCiting(ctx, original.DOI, maxResults)
		}})
	}

	ch := make(chan sourceResult, len(fetchers))
	var wg sync.WaitGroup
	for _, f := range fetchers {
		wg.Add(1)
		go func(f fetcher) {
			defer wg.Done()
			pubs, err := retry.Do(ctx, policy, func(ctx context.Context, attempt int) ([]types.Publication, error) {
				return f.fn(ctx)
			})
			ch <- sourceResult{name: f.name, pubs: pubs, err: err}
		}(f)
	}
	go func() {
		wg.Wait()
		close(ch)
	}()

	var out []types.Publication
	allFailed := true
	for r := range ch {
		if r.err != nil {
			fmt.Fprintf(w, "discovery: strategy A: %s failed (will try remaining sources): %v\n", r.name, r.err)
			continue
		}
		allFailed = false
		out = append(out, r.pubs...)
		fmt.Fprintf(w, "discovery: strategy A: %s contributed %d publications\n", r.name, len(r.pubs))
	}
	if allFailed && len(fetchers) > 0 {
		fmt.Fprintf(w, "discovery: strategy A: all citation sources failed for pmid %s\n", pmid)
	}
	return out
}

// findViaMention is Strategy B: search PubMed for papers mentioning the
// accession anywhere in their indexed text.
func (c *Coordinator) findViaMention(ctx context.Context, accession string, maxResults int, w io.Writer) []types.Publication {
	if c.PubMed == nil {
		return nil
	}

	policy := retry.Policy{MaxRetries: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second}
	query := fmt.Sprintf("%s[All Fields]", accession)

	pubs, err := retry.Do(ctx, policy, func(ctx context.Context, attempt int) ([]types.Publication, error) {
		return c.PubMed.Search(ctx, query, maxResults)
	})
	if err != nil {
		fmt.Fprintf(w, "discovery: strategy B: pubmed search failed for %s (after retries): %v\n", accession, err)
		return nil
	}
	fmt.Fprintf(w, "discovery: strategy B: pubmed contributed %d publications mentioning %s\n", len(pubs), accession)
	return pubs
}

// hasAnyIdentifier reports whether pub carries at least one of the
// identifier fields identifier.Resolve treats as authoritative (i.e.
// anything short of the title-hash fallback).
func hasAnyIdentifier(pub types.Publication) bool {
	return pub.PMID != "" || pub.DOI != "" || pub.PMCID != "" || pub.ArxivID != "" || pub.OpenAlexID != "" || pub.CoreID != ""
}

// enrichAndFilter attempts Crossref enrichment for every title-less,
// DOI-bearing record in pubs, then drops any record that still lacks
// both an identifier and a title. Enrichment runs concurrently, bounded
// by perPublicationConcurrency.
func (c *Coordinator) enrichAndFilter(ctx context.Context, pubs []types.Publication, w io.Writer) []types.Publication {
	if c.Crossref != nil {
		sem := make(chan struct{}, perPublicationConcurrency)
		var wg sync.WaitGroup
		for i := range pubs {
			if pubs[i].Title != "" || pubs[i].DOI == "" {
				continue
			}
			wg.Add(1)
			sem <- struct{}{}
			go func(i int) {
				defer wg.Done()
				defer func() { <-sem }()
				enriched, err := c.Crossref.EnrichFromCrossref(ctx, pubs[i])
				if err != nil {
					fmt.Fprintf(w, "discovery: crossref enrichment failed for doi %s: %v\n", pubs[i].DOI, err)
					return
				}
				pubs[i] = enriched
			}(i)
		}
		wg.Wait()
	}

	kept := pubs[:0]
	dropped := 0
	for _, p := range pubs {
		if p.Title == "" && !hasAnyIdentifier(p) {
			dropped++
			continue
		}
		kept = append(kept, p)
	}
	if dropped > 0 {
		fmt.Fprintf(w, "discovery: dropped %d publications lacking both an identifier and a title\n", dropped)
	}
	return kept
}

// perPublicationConcurrency bounds how many Crossref enrichment lookups
// run at once for a single discovery pass.
const perPublicationConcurrency = 8
