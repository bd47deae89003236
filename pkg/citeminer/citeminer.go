// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package citeminer is the top-level facade: it wires the source clients,
// cache, discovery coordinator, URL collector, and download manager into
// one Engine exposing the two operations a caller actually needs:
// Discover and Retrieve (discover, then collect URLs, then download, then
// write the accession mapping file). The constructor builds every stage
// once from a shared config so library callers don't repeat that wiring
// themselves.
package citeminer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/citeminer/internal/cache"
	"github.com/pdiddy/citeminer/internal/discovery"
	"github.com/pdiddy/citeminer/internal/download"
	"github.com/pdiddy/citeminer/internal/identifier"
	"github.com/pdiddy/citeminer/internal/sources"
	"github.com/pdiddy/citeminer/internal/urlcollect"
	"github.com/pdiddy/citeminer/pkg/types"
)

// Credentials holds the optional per-source API keys and polite-pool
// identifiers loaded by internal/secrets in the AMBIENT-CLI, passed
// through here so the facade never reads the filesystem itself.
type Credentials struct {
	NCBIAPIKey       string
	UnpaywallEmail   string
	CoreAPIKey       string
	CrossrefMailto   string
	OpenAlexEmail    string
	SemanticScholarAPIKey string
}

// Engine wires the source clients, cache, discovery coordinator, URL
// collector, and download manager into the two operations callers need.
type Engine struct {
	Config      types.EngineConfig
	Cache       *cache.Cache
	Discovery   *discovery.Coordinator
	URLCollector *urlcollect.Collector
	Downloader  *download.Manager
}

// New constructs an Engine from cfg and creds. cachePath is the SQLite
// file backing the L2 cache layer; an empty path disables caching
// entirely (EnableCache is forced false in that case).
func New(cfg types.EngineConfig, creds Credentials, cachePath string) (*Engine, error) {
	httpClient := &http.Client{Timeout: 30 * time.Second}

	pubmed := sources.NewPubMedBackend(httpClient, creds.NCBIAPIKey)
	openalex := sources.NewOpenAlexBackend(httpClient, creds.OpenAlexEmail)
	semanticScholar := sources.NewSemanticScholarBackend(httpClient, creds.SemanticScholarAPIKey)
	europePMC := sources.NewEuropePMCBackend(httpClient)
	openCitations := sources.NewOpenCitationsBackend(httpClient)
	crossref := sources.NewCrossrefBackend(httpClient, creds.CrossrefMailto)

	var c *cache.Cache
	discoveryCfg := cfg.Discovery
	if cachePath != "" {
		opened, err := cache.Open(cache.Options{DBPath: cachePath, EnableMemory: true, MemoryCapacity: 1000})
		if err != nil {
			return nil, fmt.Errorf("citeminer: opening cache at %s: %w", cachePath, err)
		}
		c = opened
	} else {
		discoveryCfg.EnableCache = false
	}

	coordinator := &discovery.Coordinator{
		PubMed:          pubmed,
		OpenAlex:        openalex,
		SemanticScholar: semanticScholar,
		EuropePMC:       europePMC,
		OpenCitations:   openCitations,
		Crossref:        crossref,
		Cache:           c,
		Config:          discoveryCfg,
	}

	collector := urlcollect.NewCollector(cfg.URLCollector, httpClient)
	wireURLSources(collector, httpClient, creds)

	return &Engine{
		Config:       cfg,
		Cache:        c,
		Discovery:    coordinator,
		URLCollector: collector,
		Downloader:   download.NewManager(cfg.Downloader, httpClient),
	}, nil
}

// wireURLSources registers every full-text source into collector at its
// fixed priority, plus the institutional-proxy and gray-market entries
// that have no sources.FullTextFetcher of their own.
func wireURLSources(collector *urlcollect.Collector, httpClient *http.Client, creds Credentials) {
	collector.RegisterFullText("pmc", 2, sources.NewPMCBackend(httpClient, creds.NCBIAPIKey))
	collector.RegisterFullText("unpaywall", 3, sources.NewUnpaywallBackend(httpClient, creds.UnpaywallEmail))
	collector.RegisterFullText("core", 4, sources.NewCoreBackend(httpClient, creds.CoreAPIKey))
	collector.RegisterFullText("openalex", 5, sources.NewOpenAlexBackend(httpClient, creds.OpenAlexEmail))
	collector.RegisterFullText("crossref", 6, sources.NewCrossrefBackend(httpClient, creds.CrossrefMailto))
	collector.RegisterFullText("biorxiv", 7, sources.NewBiorxivBackend(httpClient))
	collector.RegisterFullText("arxiv", 8, sources.NewArxivBackend(httpClient))

	if proxyBase := collector.Config.InstitutionalProxyBase; proxyBase != "" {
		collector.Register("institutional", 1, urlcollect.NewInstitutionalProxyFetch(proxyBase))
	}
}

// Discover runs the discovery coordinator for one dataset, writing
// progress/warning lines to w.
func (e *Engine) Discover(ctx context.Context, dataset types.Dataset, w io.Writer) (types.DiscoveryResult, error) {
	return e.Discovery.Discover(ctx, dataset, w)
}

// mappingEntry is one row of the per-accession mapping file.
type mappingEntry struct {
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
	Path       string `json:"path"`
	Source     string `json:"source"`
	Size       int64  `json:"size"`
}

// mappingFile is the `<root>/<accession>_mapping.json` document.
type mappingFile struct {
	Accession string         `json:"accession"`
	Timestamp time.Time      `json:"timestamp"`
	PDFs      []mappingEntry `json:"pdfs"`
}

// Retrieve runs the full pipeline for dataset: discovery, URL collection,
// download, and writes `<outputRoot>/<accession>_mapping.json` summarizing
// every PDF that landed on disk under `<outputRoot>/<accession>/`.
func (e *Engine) Retrieve(ctx context.Context, dataset types.Dataset, outputRoot string, w io.Writer) (types.DiscoveryResult, types.DownloadReport, error) {
	discoveryResult, err := e.Discover(ctx, dataset, w)
	if err != nil {
		return types.DiscoveryResult{}, types.DownloadReport{}, fmt.Errorf("citeminer: discovery for %s: %w", dataset.Accession, err)
	}

	pubs := make([]types.Publication, len(discoveryResult.Publications))
	for i, rp := range discoveryResult.Publications {
		pubs[i] = rp.Publication
	}

	urlResults := e.URLCollector.CollectBatch(ctx, pubs)

	accessionDir := filepath.Join(outputRoot, dataset.Accession)
	items := make([]download.BatchItem, len(pubs))
	for i, pub := range pubs {
		items[i] = download.BatchItem{Publication: pub, URLs: urlResults[i].URLs}
	}
	report := e.Downloader.DownloadBatch(ctx, items, accessionDir)

	mapping := mappingFile{Accession: dataset.Accession, Timestamp: time.Now()}
	for i, result := range report.PerResult {
		if !result.Success {
			continue
		}
		id := identifier.Resolve(pubs[i], false)
		mapping.PDFs = append(mapping.PDFs, mappingEntry{
			Identifier: id.CacheKey(),
			Title:      pubs[i].Title,
			Path:       result.FilePath,
			Source:     result.Source,
			Size:       result.Size,
		})
	}

	mappingPath := filepath.Join(outputRoot, dataset.Accession+"_mapping.json")
	if err := writeMapping(mappingPath, mapping); err != nil {
		fmt.Fprintf(w, "citeminer: warning: failed to write mapping file for %s: %v\n", dataset.Accession, err)
	}

	return discoveryResult, report, nil
}

func writeMapping(path string, mapping mappingFile) error {
	data, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding mapping: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output root: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Close releases the Engine's cache connection, if any.
func (e *Engine) Close() error {
	if e.Cache == nil {
		return nil
	}
	return e.Cache.Close()
}
