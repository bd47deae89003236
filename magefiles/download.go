// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pdiddy/citeminer/pkg/citeminer"
	"github.com/pdiddy/citeminer/pkg/types"
)

// Download runs the full discover-collect-download pipeline for a single
// accession and writes PDFs plus the mapping file under output/pdfs.
//
// Usage: mage download GSE123456
func Download(accession string) error {
	if accession == "" {
		return fmt.Errorf("accession required: mage download GSE123456")
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

	_, report, err := engine.Retrieve(context.Background(), types.Dataset{Accession: accession}, "output/pdfs", os.Stderr)
	if err != nil {
		return fmt.Errorf("retrieve: %w", err)
	}

	fmt.Printf("downloaded %d, failed %d, %.1f MB total\n", report.Successful, report.Failed, report.TotalSizeMB)
	return nil
}
