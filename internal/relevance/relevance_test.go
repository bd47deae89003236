// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relevance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citeminer/pkg/types"
)

func TestScoreRecency_Bands(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	weights := types.ScoringWeights{Recency: 1.0}

	cases := []struct {
		yearsAgo int
		want     float64
	}{
		{0, 1.0}, {1, 0.9}, {2, 0.8}, {3, 0.7}, {4, 0.6}, {5, 0.4}, {6, 0.2},
	}
	for _, c := range cases {
		pub := types.Publication{PublicationDate: now.AddDate(-c.yearsAgo, 0, 0)}
		score := Score(pub, types.Dataset{}, nil, weights, now)
		require.InDelta(t, c.want, score.Total, 0.001)
	}
}

func TestScoreCitations_LogScale(t *testing.T) {
	now := time.Now()
	weights := types.ScoringWeights{Citation: 1.0}

	zero := Score(types.Publication{CitationCount: 0}, types.Dataset{}, nil, weights, now)
	require.Equal(t, 0.0, zero.Total)

	ten := Score(types.Publication{CitationCount: 10}, types.Dataset{}, nil, weights, now)
	require.InDelta(t, 0.26, ten.Total, 0.05)

	high := Score(types.Publication{CitationCount: 100000}, types.Dataset{}, nil, weights, now)
	require.Equal(t, 1.0, high.Total)
}

func TestScoreContentSimilarity_IdenticalText(t *testing.T) {
	now := time.Now()
	weights := types.ScoringWeights{Content: 1.0}

	dataset := types.Dataset{Title: "CRISPR screen in mouse embryonic stem cells"}
	pub := types.Publication{Title: "CRISPR screen in mouse embryonic stem cells"}

	score := Score(pub, dataset, nil, weights, now)
	require.InDelta(t, 1.0, score.Total, 0.001)
}

func TestRankByRelevance_SortsDescending(t *testing.T) {
	now := time.Now()
	dataset := types.Dataset{Title: "RNA-seq analysis of tumor samples", Summary: "expression profiling"}
	weights := types.DefaultScoringWeights()

	strong := types.Publication{
		Title:           "RNA-seq analysis of tumor samples expression profiling",
		PublicationDate: now,
		CitationCount:   500,
	}
	weak := types.Publication{Title: "Unrelated topic about something else entirely"}

	ranked := RankByRelevance([]types.Publication{weak, strong}, dataset, weights, now)

	require.Len(t, ranked, 2)
	require.Greater(t, ranked[0].Relevance.Total, ranked[1].Relevance.Total)
	require.Equal(t, strong.Title, ranked[0].Publication.Title)
}
