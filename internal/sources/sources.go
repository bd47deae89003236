// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sources implements the domain API clients: one file per
// upstream source, each wrapping an *http.Client and a per-source rate
// gate.
package sources

import (
	"context"

	"github.com/pdiddy/citeminer/pkg/types"
)

// Client is the identity every source backend satisfies.
type Client interface {
	Name() string
}

// Searcher finds publications matching a free-text query, used by
// Strategy B (mention-based) discovery.
type Searcher interface {
	Client
	Search(ctx context.Context, query string, limit int) ([]types.Publication, error)
}

// CitingFetcher returns publications citing or mentioning id, used by
// Strategy A (citation-based) discovery.
type CitingFetcher interface {
	Client
	GetCiting(ctx context.Context, id string, limit int) ([]types.Publication, error)
}

// FullTextFetcher resolves candidate full-text/PDF URLs for a publication,
// used by URL collection.
type FullTextFetcher interface {
	Client
	GetFullTextURLs(ctx context.Context, pub types.Publication) ([]types.SourceURL, error)
}
