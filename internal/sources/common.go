// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/pdiddy/citeminer/pkg/types"
)

// jsonDecode decodes a JSON response body into v, shared by every backend
// in this package that speaks JSON.
func jsonDecode(r io.Reader, v any) error {
	return json.NewDecoder(r).Decode(v)
}

// classifyURL applies extension/path-fragment/host heuristics to a raw
// URL string a source client didn't already tag. The URL collector
// applies the same rules to every collected URL left untyped or UNKNOWN; clients that
// can state their own type with certainty (e.g. arXiv's /pdf/ path) set
// it directly instead of calling this.
func classifyURL(u string) types.URLType {
	lower := strings.ToLower(u)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		return types.PDFDirect
	case strings.Contains(lower, "/pdf/"):
		return types.PDFDirect
	case strings.Contains(lower, "/articles/"), strings.Contains(lower, ".full"):
		return types.HTMLFullText
	case strings.Contains(lower, "doi.org"):
		return types.LandingPage
	default:
		return types.URLUnknown
	}
}
