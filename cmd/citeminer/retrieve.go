// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citeminer/pkg/types"
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [accession]",
	Short: "Discover, collect URLs, and download full-text PDFs for a dataset accession",
	Args:  cobra.ExactArgs(1),
	RunE:  runRetrieve,
}

func init() {
	retrieveCmd.Flags().String("output", "output/pdfs", "directory PDFs and the mapping file are written under")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	accession := args[0]
	outputRoot, _ := cmd.Flags().GetString("output")

	engine, err := newEngine(cmd)
	if err != nil {
		return fmt.Errorf("building engine: %w", err)
	}
	defer engine.Close()

	_, report, err := engine.Retrieve(context.Background(), types.Dataset{Accession: accession}, outputRoot, os.Stderr)
	if err != nil {
		return fmt.Errorf("retrieve: %w", err)
	}

	fmt.Printf("downloaded %d, failed %d, %.1f MB total\n", report.Successful, report.Failed, report.TotalSizeMB)
	for source, count := range report.BySource {
		fmt.Printf("  %s: %d\n", source, count)
	}
	return nil
}
