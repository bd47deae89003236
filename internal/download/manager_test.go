// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package download

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citeminer/pkg/types"
)

func validPDFBody() []byte {
	body := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("x"), 20*1024)...)
	return append(body, []byte("\n%%EOF")...)
}

func testConfig() types.DownloaderConfig {
	cfg := types.DefaultDownloaderConfig()
	cfg.MaxRetries = 0
	return cfg
}

func TestDownloadWithFallback_TriesInPriorityOrderAndStopsAtFirstSuccess(t *testing.T) {
	var hits []string

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, "bad")
		w.WriteHeader(http.StatusNotFound)
	}))
	defer bad.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, "good")
		w.Write(validPDFBody())
	}))
	defer good.Close()

	neverReached := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, "never")
		w.Write(validPDFBody())
	}))
	defer neverReached.Close()

	dir := t.TempDir()
	m := NewManager(testConfig(), nil)

	urls := []types.SourceURL{
		{URL: bad.URL, Source: "s1", Priority: 1, Type: types.PDFDirect},
		{URL: good.URL, Source: "s2", Priority: 2, Type: types.PDFDirect},
		{URL: neverReached.URL, Source: "s3", Priority: 3, Type: types.PDFDirect},
	}

	result := m.DownloadWithFallback(context.Background(), types.Publication{PMID: "111"}, urls, dir)

	require.True(t, result.Success)
	require.Equal(t, "s2", result.Source)
	require.Equal(t, []string{"bad", "good"}, hits)
	require.FileExists(t, result.FilePath)
}

func TestDownloadWithFallback_AllFailuresReportUnsuccessfulWithoutError(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	dir := t.TempDir()
	m := NewManager(testConfig(), nil)

	urls := []types.SourceURL{{URL: bad.URL, Source: "s1", Priority: 1, Type: types.PDFDirect}}
	result := m.DownloadWithFallback(context.Background(), types.Publication{PMID: "222"}, urls, dir)

	require.False(t, result.Success)
	require.NotEmpty(t, result.Error)
}

func TestDownloadWithFallback_IdempotentOnExistingValidFile(t *testing.T) {
	dir := t.TempDir()
	pub := types.Publication{PMID: "333"}

	m := NewManager(testConfig(), nil)
	path := filepath.Join(dir, "pmid_333.pdf")
	require.NoError(t, os.WriteFile(path, validPDFBody(), 0o644))

	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.Write(validPDFBody())
	}))
	defer srv.Close()

	result := m.DownloadWithFallback(context.Background(), pub, []types.SourceURL{
		{URL: srv.URL, Source: "s1", Priority: 1, Type: types.PDFDirect},
	}, dir)

	require.True(t, result.Success)
	require.Equal(t, "cache", result.Source)
	require.False(t, called)
}

func TestDownloadWithFallback_RecoversPDFFromLandingPage(t *testing.T) {
	var pdfPath string
	mux := http.NewServeMux()
	mux.HandleFunc("/landing", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><a href="` + pdfPath + `">PDF</a></body></html>`))
	})
	mux.HandleFunc("/paper.pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Write(validPDFBody())
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	pdfPath = srv.URL + "/paper.pdf"

	dir := t.TempDir()
	m := NewManager(testConfig(), nil)

	result := m.DownloadWithFallback(context.Background(), types.Publication{PMID: "444"}, []types.SourceURL{
		{URL: srv.URL + "/landing", Source: "crossref", Priority: 6, Type: types.LandingPage},
	}, dir)

	require.True(t, result.Success)
	require.Equal(t, "crossref", result.Source)
}

func TestDownloadWithFallback_WritesJSONSidecar(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(validPDFBody())
	}))
	defer srv.Close()

	dir := t.TempDir()
	m := NewManager(testConfig(), nil)

	result := m.DownloadWithFallback(context.Background(), types.Publication{PMID: "555"}, []types.SourceURL{
		{URL: srv.URL, Source: "pmc", Priority: 1, Type: types.PDFDirect},
	}, dir)
	require.True(t, result.Success)

	ext := filepath.Ext(result.FilePath)
	sidecarPath := result.FilePath[:len(result.FilePath)-len(ext)] + ".json"
	data, err := os.ReadFile(sidecarPath)
	require.NoError(t, err)

	var sc sidecar
	require.NoError(t, json.Unmarshal(data, &sc))
	require.Equal(t, "pmc", sc.Source)
	require.Equal(t, result.SHA256, sc.SHA256)
}

func TestDownloadBatch_PreservesOrderAndAggregatesReport(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(validPDFBody())
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer bad.Close()

	dir := t.TempDir()
	m := NewManager(testConfig(), nil)

	items := []BatchItem{
		{Publication: types.Publication{PMID: "1"}, URLs: []types.SourceURL{{URL: good.URL, Source: "pmc", Priority: 1, Type: types.PDFDirect}}},
		{Publication: types.Publication{PMID: "2"}, URLs: []types.SourceURL{{URL: bad.URL, Source: "pmc", Priority: 1, Type: types.PDFDirect}}},
		{Publication: types.Publication{PMID: "3"}, URLs: []types.SourceURL{{URL: good.URL, Source: "unpaywall", Priority: 2, Type: types.PDFDirect}}},
	}

	report := m.DownloadBatch(context.Background(), items, dir)

	require.NotEmpty(t, report.BatchID)
	require.Equal(t, 2, report.Successful)
	require.Equal(t, 1, report.Failed)
	require.Len(t, report.PerResult, 3)
	require.True(t, report.PerResult[0].Success)
	require.False(t, report.PerResult[1].Success)
	require.True(t, report.PerResult[2].Success)
	require.Equal(t, 1, report.BySource["pmc"])
	require.Equal(t, 1, report.BySource["unpaywall"])
}
