// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data structures passed between the
// citation-discovery engine's stages: source clients, the discovery
// coordinator, the deduplicator, the quality and relevance scorers, the
// URL collector, and the download manager.
package types

import "time"

// Publication is a scholarly paper discovered by one or more source
// clients. Identity is carried by the identifier fields (PMID, DOI,
// PMCID, ArxivID, OpenAlexID, CoreID); two Publications are identity-equal
// when they share any one of these after normalization. Source-specific
// fields that don't warrant a dedicated column go in Metadata.
type Publication struct {
	PMID       string `json:"pmid,omitempty" yaml:"pmid,omitempty"`
	DOI        string `json:"doi,omitempty" yaml:"doi,omitempty"`
	PMCID      string `json:"pmcid,omitempty" yaml:"pmcid,omitempty"`
	ArxivID    string `json:"arxiv_id,omitempty" yaml:"arxiv_id,omitempty"`
	OpenAlexID string `json:"openalex_id,omitempty" yaml:"openalex_id,omitempty"`
	CoreID     string `json:"core_id,omitempty" yaml:"core_id,omitempty"`

	Title           string    `json:"title" yaml:"title"`
	Abstract        string    `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Authors         []string  `json:"authors,omitempty" yaml:"authors,omitempty"`
	Journal         string    `json:"journal,omitempty" yaml:"journal,omitempty"`
	PublicationDate time.Time `json:"publication_date,omitempty" yaml:"publication_date,omitempty"`
	CitationCount   int       `json:"citation_count" yaml:"citation_count"`
	Keywords        []string  `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	MeshTerms       []string  `json:"mesh_terms,omitempty" yaml:"mesh_terms,omitempty"`

	LandingURL string `json:"landing_url,omitempty" yaml:"landing_url,omitempty"`
	PDFURL     string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	// Source identifies which client(s) produced this record. After a
	// merge it may be a comma-joined list.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// Metadata holds source-specific fields that have no dedicated column.
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Year returns the publication year, or 0 if PublicationDate is zero.
func (p Publication) Year() int {
	if p.PublicationDate.IsZero() {
		return 0
	}
	return p.PublicationDate.Year()
}

// HasAnyIdentifier reports whether p carries at least one of the
// identifier fields used for identity comparison.
func (p Publication) HasAnyIdentifier() bool {
	return p.PMID != "" || p.DOI != "" || p.PMCID != "" || p.ArxivID != "" || p.OpenAlexID != "" || p.CoreID != ""
}

// Dataset is the read-only input to the discovery coordinator: a GEO-style
// accession plus zero or more primary publication PMIDs to seed
// citation-based discovery.
type Dataset struct {
	Accession string   `json:"accession" yaml:"accession"`
	Title     string   `json:"title" yaml:"title"`
	Summary   string   `json:"summary" yaml:"summary"`
	PMIDs     []string `json:"pmids,omitempty" yaml:"pmids,omitempty"`
}

// PrimaryPMID returns the first primary publication PMID, or "" if none.
func (d Dataset) PrimaryPMID() string {
	if len(d.PMIDs) == 0 {
		return ""
	}
	return d.PMIDs[0]
}
