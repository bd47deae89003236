// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citeminer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citeminer/pkg/types"
)

func TestWriteMapping_ProducesExpectedShape(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "GSE123456_mapping.json")

	mapping := mappingFile{
		Accession: "GSE123456",
		PDFs: []mappingEntry{
			{Identifier: "pmid:12345", Title: "A Paper", Path: "/out/GSE123456/pmid_12345.pdf", Source: "pmc", Size: 20480},
		},
	}

	require.NoError(t, writeMapping(path, mapping))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got mappingFile
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, "GSE123456", got.Accession)
	require.Len(t, got.PDFs, 1)
	require.Equal(t, "pmid:12345", got.PDFs[0].Identifier)
	require.Equal(t, int64(20480), got.PDFs[0].Size)
}

func TestNew_NoCachePathDisablesCaching(t *testing.T) {
	cfg := types.DefaultEngineConfig()
	engine, err := New(cfg, Credentials{}, "")
	require.NoError(t, err)
	defer engine.Close()

	require.Nil(t, engine.Cache)
	require.False(t, engine.Discovery.Config.EnableCache)
}
