// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package identifier

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citeminer/pkg/types"
)

func TestResolvePrefersPMID(t *testing.T) {
	pub := types.Publication{PMID: "12345678", DOI: "10.1234/example.paper"}
	id := Resolve(pub, false)
	require.Equal(t, PMID, id.Kind)
	require.Equal(t, "12345678", id.Value)
}

func TestResolvePreferDOI(t *testing.T) {
	pub := types.Publication{PMID: "12345678", DOI: "10.1234/example.paper"}
	id := Resolve(pub, true)
	require.Equal(t, DOI, id.Kind)
}

func TestResolveDOIDisplayAndCacheKey(t *testing.T) {
	// S6 scenario.
	pub := types.Publication{DOI: "10.1234/example.paper", Title: "X"}
	id := Resolve(pub, false)
	require.Equal(t, "doi_10_1234_example_paper.pdf", id.Filename())
	require.Equal(t, "doi:10.1234/example.paper", id.CacheKey())
	require.Equal(t, "DOI 10.1234/example.paper", id.DisplayName())
}

func TestResolveBiorxivDOI(t *testing.T) {
	pub := types.Publication{DOI: "10.1101/2023.01.01.000001"}
	id := Resolve(pub, false)
	require.Equal(t, Biorxiv, id.Kind)
}

func TestResolveHashFallbackDeterministic(t *testing.T) {
	pub := types.Publication{Title: "Novel CRISPR application"}
	a := Resolve(pub, false)
	b := Resolve(pub, false)
	require.Equal(t, Hash, a.Kind)
	require.Equal(t, a.Filename(), b.Filename())
	require.Len(t, a.Value, 16)
}

func TestSanitizeCollapsesAndTruncates(t *testing.T) {
	pub := types.Publication{DOI: "10.1234//weird::chars   here." + string(make([]byte, 200))}
	id := Resolve(pub, false)
	require.LessOrEqual(t, len(id.Value), 100)
	require.NotContains(t, id.Value, "__")
}

func TestParseFilenameRoundTrip(t *testing.T) {
	pub := types.Publication{PMID: "99999999"}
	id := Resolve(pub, false)
	kind, value, ok := ParseFilename(id.Filename())
	require.True(t, ok)
	require.Equal(t, PMID, kind)
	require.Equal(t, id.Value, value)
}

func TestShortDisplayEllipsizes(t *testing.T) {
	pub := types.Publication{DOI: "10.1234/a-very-long-doi-suffix-that-exceeds-thirty-chars"}
	id := Resolve(pub, false)
	require.LessOrEqual(t, len(id.ShortDisplay()), 30)
}
