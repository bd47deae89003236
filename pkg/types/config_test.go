// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadEngineConfig_RoundTrips(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.Downloader.MaxConcurrent = 7
	cfg.URLCollector.InstitutionalProxyBase = "https://proxy.example.edu/login?url="

	path := filepath.Join(t.TempDir(), "citeminer.yaml")
	require.NoError(t, SaveEngineConfig(cfg, path))

	got, err := LoadEngineConfig(path)
	require.NoError(t, err)
	require.Equal(t, 7, got.Downloader.MaxConcurrent)
	require.Equal(t, "https://proxy.example.edu/login?url=", got.URLCollector.InstitutionalProxyBase)
}

func TestLoadEngineConfig_MissingFileErrors(t *testing.T) {
	_, err := LoadEngineConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
