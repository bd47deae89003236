// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citeminer/pkg/types"
)

func TestClassifyURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want types.URLType
	}{
		{"pdf extension", "https://example.com/paper.pdf", types.PDFDirect},
		{"pdf path fragment", "https://example.com/pdf/123", types.PDFDirect},
		{"articles fragment", "https://example.com/articles/123", types.HTMLFullText},
		{"full suffix", "https://example.com/content/10.1.full", types.HTMLFullText},
		{"doi landing page", "https://doi.org/10.1/abc", types.LandingPage},
		{"unknown", "https://example.com/abstract/123", types.URLUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, classifyURL(tt.url))
		})
	}
}
