// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download implements the full-text PDF download manager: a
// priority-ordered waterfall over candidate URLs, landing-page PDF-link
// recovery, PDF content validation, and atomic on-disk persistence with a
// JSON sidecar, with a bounded worker pool for batch downloads.
package download

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/citeminer/internal/identifier"
	"github.com/pdiddy/citeminer/internal/retry"
	"github.com/pdiddy/citeminer/pkg/types"
)

// Manager downloads and persists full-text PDFs for publications, trying
// candidate URLs in priority order until one yields a valid PDF.
type Manager struct {
	Config types.DownloaderConfig
	Client *http.Client
}

// NewManager builds a Manager. A nil client defaults to an *http.Client
// configured from cfg.Timeout.
func NewManager(cfg types.DownloaderConfig, client *http.Client) *Manager {
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Manager{Config: cfg, Client: client}
}

// sortURLs orders candidates by URLType rank, then by ascending Priority,
// then stably by input position, matching the sort used by
// internal/urlcollect before a Manager ever sees the list.
func sortURLs(urls []types.SourceURL) []types.SourceURL {
	out := append([]types.SourceURL{}, urls...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type.Less(out[j].Type)
		}
		return out[i].Priority < out[j].Priority
	})
	return out
}

func (m *Manager) bounds() (min, max int64) {
	min, max = m.Config.MinPDFSize, m.Config.MaxPDFSize
	if min <= 0 {
		min = 10240
	}
	if max <= 0 {
		max = 104857600
	}
	return min, max
}

// DownloadWithFallback tries urls in priority order against one
// publication, stopping at the first successful store. It never returns a
// Go error: every outcome, including "every candidate failed", is reported
// through the returned DownloadResult.
func (m *Manager) DownloadWithFallback(ctx context.Context, pub types.Publication, urls []types.SourceURL, outputDir string) types.DownloadResult {
	start := time.Now()
	id := identifier.Resolve(pub, false)
	path := filepath.Join(outputDir, id.Filename())

	if existing, err := os.ReadFile(path); err == nil {
		min, max := m.bounds()
		if ok, encrypted, _ := validatePDF(existing, min, max); ok {
			return types.DownloadResult{
				Success:   true,
				FilePath:  path,
				Size:      int64(len(existing)),
				SHA256:    sha256Hex(existing),
				Encrypted: encrypted,
				Source:    "cache",
				Duration:  time.Since(start).Seconds(),
			}
		}
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return types.DownloadResult{Success: false, Error: fmt.Sprintf("create output dir: %v", err), Duration: time.Since(start).Seconds()}
	}

	var errs []string
	for _, candidate := range sortURLs(urls) {
		result, ok := m.attempt(ctx, candidate, path)
		if ok {
			result.Duration = time.Since(start).Seconds()
			return result
		}
		errs = append(errs, fmt.Sprintf("%s (%s): %s", candidate.Source, candidate.URL, result.Error))
	}

	msg := "no candidate URLs"
	if len(errs) > 0 {
		msg = fmt.Sprintf("all %d candidates failed", len(errs))
	}
	return types.DownloadResult{Success: false, Error: msg, Duration: time.Since(start).Seconds()}
}

// attempt tries a single candidate URL. For a LandingPage/HTMLFullText
// candidate it first fetches the page and, if the body is not itself a
// PDF, recovers up to three PDF links from the markup and retries those
// inline before giving up on the candidate.
func (m *Manager) attempt(ctx context.Context, candidate types.SourceURL, path string) (types.DownloadResult, bool) {
	cctx, cancel := context.WithTimeout(ctx, m.timeout())
	defer cancel()

	body, contentType, err := m.fetch(cctx, candidate.URL)
	if err != nil {
		return types.DownloadResult{Error: err.Error()}, false
	}

	if result, ok := m.tryStore(body, candidate.Source, path); ok {
		return result, true
	}

	if candidate.Type == types.PDFDirect {
		return types.DownloadResult{Error: "downloaded content failed PDF validation"}, false
	}
	if !looksLikeHTML(contentType, body) {
		return types.DownloadResult{Error: "response was neither a valid PDF nor HTML"}, false
	}

	base, _ := url.Parse(candidate.URL)
	for _, link := range extractPDFCandidates(body, base) {
		linkBody, _, err := m.fetch(cctx, link)
		if err != nil {
			continue
		}
		if result, ok := m.tryStore(linkBody, candidate.Source, path); ok {
			return result, true
		}
	}
	return types.DownloadResult{Error: "no PDF recovered from landing page"}, false
}

func looksLikeHTML(contentType string, body []byte) bool {
	if contentType != "" {
		return containsFold(contentType, "html")
	}
	return len(body) > 0 && body[0] == '<'
}

func containsFold(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if equalFold(s[i:i+len(substr)], substr) {
			return true
		}
	}
	return false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

func (m *Manager) timeout() time.Duration {
	if m.Config.TimeoutSeconds > 0 {
		return time.Duration(m.Config.TimeoutSeconds) * time.Second
	}
	return 30 * time.Second
}

// maxBodyBytes caps a single fetch, generously above MaxPDFSize, to bound
// memory use against a server that never closes the connection.
const maxBodyBytes = 200 * 1024 * 1024

// fetch retrieves rawURL through internal/retry.Do, classifying non-2xx
// responses the same way internal/sources does, and returns the body, the
// response's Content-Type, and any classified error.
func (m *Manager) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	type fetched struct {
		body        []byte
		contentType string
	}

	policy := retry.DefaultPolicy()
	if m.Config.MaxRetries > 0 {
		policy.MaxRetries = m.Config.MaxRetries
	}

	result, err := retry.Do(ctx, policy, func(ctx context.Context, attempt int) (fetched, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return fetched{}, retry.New(retry.InvalidInput, "download", err.Error())
		}
		ua := m.Config.UserAgent
		if ua == "" {
			ua = "citeminer/0.1"
		}
		req.Header.Set("User-Agent", ua)
		req.Header.Set("Accept", "application/pdf,text/html;q=0.9,*/*;q=0.8")

		resp, err := m.Client.Do(req)
		if err != nil {
			return fetched{}, retry.Classify("download", 0, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if delay, ok := retry.ParseRetryAfter(resp.Header.Get("Retry-After")); ok {
				ce := retry.Classify("download", resp.StatusCode, fmt.Errorf("status %d", resp.StatusCode))
				ce.RetryAfter = delay
				return fetched{}, ce
			}
			return fetched{}, retry.Classify("download", resp.StatusCode, fmt.Errorf("status %d", resp.StatusCode))
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return fetched{}, retry.Classify("download", 0, err)
		}
		return fetched{body: body, contentType: resp.Header.Get("Content-Type")}, nil
	})
	if err != nil {
		return nil, "", err
	}
	return result.body, result.contentType, nil
}

// tryStore validates data as a PDF and, on success, persists it atomically
// alongside a JSON sidecar.
func (m *Manager) tryStore(data []byte, source, path string) (types.DownloadResult, bool) {
	min, max := m.bounds()
	if m.Config.ValidatePDF {
		ok, encrypted, err := validatePDF(data, min, max)
		if !ok {
			return types.DownloadResult{Error: fmt.Sprintf("validation failed: %v", err)}, false
		}
		if err := atomicWrite(path, data); err != nil {
			return types.DownloadResult{Error: fmt.Sprintf("write file: %v", err)}, false
		}
		sum := sha256Hex(data)
		writeSidecar(path, source, int64(len(data)), sum, encrypted)
		return types.DownloadResult{
			Success:   true,
			FilePath:  path,
			Size:      int64(len(data)),
			Source:    source,
			SHA256:    sum,
			Encrypted: encrypted,
		}, true
	}

	if err := atomicWrite(path, data); err != nil {
		return types.DownloadResult{Error: fmt.Sprintf("write file: %v", err)}, false
	}
	sum := sha256Hex(data)
	writeSidecar(path, source, int64(len(data)), sum, false)
	return types.DownloadResult{Success: true, FilePath: path, Size: int64(len(data)), Source: source, SHA256: sum}, true
}

// atomicWrite writes data to a temp file in path's directory and renames
// it into place so a crash mid-write never leaves a partial PDF at path.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".download-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum)
}

type sidecar struct {
	Source    string `json:"source"`
	Size      int64  `json:"size"`
	SHA256    string `json:"sha256"`
	Encrypted bool   `json:"encrypted"`
}

// writeSidecar persists a `<stem>.json` metadata file next to the PDF.
// Failures are swallowed: the sidecar is a convenience index, not the
// record of success (the PDF on disk is).
func writeSidecar(pdfPath, source string, size int64, sum string, encrypted bool) {
	ext := filepath.Ext(pdfPath)
	jsonPath := pdfPath[:len(pdfPath)-len(ext)] + ".json"
	data, err := json.MarshalIndent(sidecar{Source: source, Size: size, SHA256: sum, Encrypted: encrypted}, "", "  ")
	if err != nil {
		return
	}
	_ = atomicWrite(jsonPath, data)
}

// BatchItem pairs a Publication with its candidate URLs for DownloadBatch.
type BatchItem struct {
	Publication types.Publication
	URLs        []types.SourceURL
}

// DownloadBatch runs DownloadWithFallback over items with bounded
// concurrency (Config.MaxConcurrent, default 3) via a semaphore channel.
// Order of PerResult matches the order of items.
func (m *Manager) DownloadBatch(ctx context.Context, items []BatchItem, outputDir string) types.DownloadReport {
	concurrency := m.Config.MaxConcurrent
	if concurrency <= 0 {
		concurrency = 3
	}

	results := make([]types.DownloadResult, len(items))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, item := range items {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, item BatchItem) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = m.DownloadWithFallback(ctx, item.Publication, item.URLs, outputDir)
		}(i, item)
	}
	wg.Wait()

	report := types.DownloadReport{
		BatchID:   uuid.NewString(),
		BySource:  map[string]int{},
		PerResult: results,
	}
	var totalBytes int64
	for _, r := range results {
		if r.Success {
			report.Successful++
			totalBytes += r.Size
			if r.Source != "" {
				report.BySource[r.Source]++
			}
		} else {
			report.Failed++
		}
	}
	report.TotalSizeMB = float64(totalBytes) / (1024 * 1024)
	return report
}
