// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pdiddy/citeminer/internal/secrets"
	"github.com/pdiddy/citeminer/pkg/citeminer"
	"github.com/pdiddy/citeminer/pkg/types"
)

// Discover runs citation discovery for a single accession and prints a
// one-line summary per ranked publication.
//
// Usage: mage discover GSE123456
func Discover(accession string) error {
	if accession == "" {
		return fmt.Errorf("accession required: mage discover GSE123456")
	}

	creds, err := loadCredentials()
	if err != nil {
		return err
	}

	engine, err := citeminer.New(types.DefaultEngineConfig(), creds, "output/cache/citeminer.db")
	if err != nil {
		return fmt.Errorf("building engine: %w", err)
	}
	defer engine.Close()

	result, err := engine.Discover(context.Background(), types.Dataset{Accession: accession}, os.Stderr)
	if err != nil {
		return fmt.Errorf("discover: %w", err)
	}

	for _, rp := range result.Publications {
		fmt.Printf("%.3f  %s\n", rp.Relevance.Total, rp.Publication.Title)
	}
	fmt.Printf("%d publications found for %s\n", len(result.Publications), accession)
	return nil
}

// loadCredentials reads the .secrets/ directory into a citeminer.Credentials.
func loadCredentials() (citeminer.Credentials, error) {
	m, err := secrets.Load(".secrets")
	if err != nil {
		return citeminer.Credentials{}, fmt.Errorf("loading secrets: %w", err)
	}
	return citeminer.Credentials{
		NCBIAPIKey:            m["ncbi-api-key"],
		UnpaywallEmail:        m["unpaywall-email"],
		CoreAPIKey:            m["core-api-key"],
		CrossrefMailto:        m["crossref-mailto"],
		OpenAlexEmail:         m["openalex-email"],
		SemanticScholarAPIKey: m["semantic-scholar-api-key"],
	}, nil
}
