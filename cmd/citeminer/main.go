// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the citeminer example CLI. The
// library's core contract lives entirely in pkg/citeminer and the
// internal packages it wires; this binary exists to exercise that
// library end to end and is not part of the core contract.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/citeminer/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the citeminer CLI.
var rootCmd = &cobra.Command{
	Use:   "citeminer",
	Short: "Find and retrieve full-text papers citing a biomedical dataset",
	Long: `citeminer discovers publications that cite or mention a dataset accession
(e.g. GSE123456), dedups and ranks them, collects candidate full-text
URLs, and downloads validated PDFs to disk.

Each stage is a subcommand: discover finds and ranks citing publications;
retrieve runs the full pipeline and writes PDFs plus a mapping file.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./citeminer.yaml or ~/.config/citeminer/config.yaml)")
	rootCmd.PersistentFlags().String("cache", "output/cache/citeminer.db", "SQLite cache file path (empty disables caching)")
	rootCmd.PersistentFlags().String("engine-config", "", "YAML EngineConfig override file (defaults applied for anything omitted)")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the citeminer version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("citeminer")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "citeminer"))
		}
	}

	viper.SetEnvPrefix("CITEMINER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
