// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citeminer/pkg/citeminer"
	"github.com/pdiddy/citeminer/pkg/types"
)

var discoverCmd = &cobra.Command{
	Use:   "discover [accession]",
	Short: "Find publications citing or mentioning a dataset accession",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiscover,
}

func init() {
	discoverCmd.Flags().Bool("json", false, "output the full DiscoveryResult as JSON")
	rootCmd.AddCommand(discoverCmd)
}

func newEngine(cmd *cobra.Command) (*citeminer.Engine, error) {
	cachePath, _ := cmd.Flags().GetString("cache")
	creds := citeminer.Credentials{
		NCBIAPIKey:            secretDefault("ncbi-api-key", ""),
		UnpaywallEmail:        secretDefault("unpaywall-email", ""),
		CoreAPIKey:            secretDefault("core-api-key", ""),
		CrossrefMailto:        secretDefault("crossref-mailto", ""),
		OpenAlexEmail:         secretDefault("openalex-email", ""),
		SemanticScholarAPIKey: secretDefault("semantic-scholar-api-key", ""),
	}

	cfg := types.DefaultEngineConfig()
	if path, _ := cmd.Flags().GetString("engine-config"); path != "" {
		loaded, err := types.LoadEngineConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	return citeminer.New(cfg, creds, cachePath)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	accession := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")

	engine, err := newEngine(cmd)
	if err != nil {
		return fmt.Errorf("building engine: %w", err)
	}
	defer engine.Close()

	result, err := engine.Discover(context.Background(), types.Dataset{Accession: accession}, os.Stderr)
	if err != nil {
		return fmt.Errorf("discover: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	for _, rp := range result.Publications {
		fmt.Printf("%.3f  %s\n", rp.Relevance.Total, rp.Publication.Title)
	}
	fmt.Fprintf(os.Stderr, "%d publications found for %s\n", len(result.Publications), accession)
	return nil
}
