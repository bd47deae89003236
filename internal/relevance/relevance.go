// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package relevance implements the four-factor weighted relevance scorer:
// content similarity, keyword match, recency, and citation count. Content
// similarity reuses the SequenceMatcher-style ratio the deduplicator also
// uses, shared via internal/textsim.
package relevance

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/citeminer/internal/textsim"
	"github.com/pdiddy/citeminer/pkg/types"
)

// Score computes pub's relevance to dataset under weights, as of now.
func Score(pub types.Publication, dataset types.Dataset, datasetKeywords []string, weights types.ScoringWeights, now time.Time) types.RelevanceScore {
	content := scoreContentSimilarity(pub, dataset)
	keyword := scoreKeywords(pub, datasetKeywords)
	recency := scoreRecency(pub, now)
	citation := scoreCitations(pub)

	total := content*weights.Content + keyword*weights.Keyword + recency*weights.Recency + citation*weights.Citation

	return types.RelevanceScore{
		Total:             total,
		ContentSimilarity: content,
		KeywordMatch:      keyword,
		Recency:           recency,
		CitationScore:     citation,
	}
}

// DatasetKeywords extracts the keyword set used for keyword-match scoring
// from a Dataset's title and summary.
func DatasetKeywords(dataset types.Dataset) []string {
	text := dataset.Title + " " + dataset.Summary
	return textsim.ExtractKeywords(text, 20)
}

// RankByRelevance scores every publication against dataset and returns them
// sorted by descending aggregate score, each paired with its breakdown.
func RankByRelevance(pubs []types.Publication, dataset types.Dataset, weights types.ScoringWeights, now time.Time) []types.RankedPublication {
	keywords := DatasetKeywords(dataset)

	ranked := make([]types.RankedPublication, len(pubs))
	for i, pub := range pubs {
		ranked[i] = types.RankedPublication{
			Publication: pub,
			Relevance:   Score(pub, dataset, keywords, weights, now),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Relevance.Total > ranked[j].Relevance.Total
	})
	return ranked
}

// scoreRecency bands years_old per a piecewise schedule that favors
// recent publications and decays geometrically beyond six years.
func scoreRecency(pub types.Publication, now time.Time) float64 {
	if pub.PublicationDate.IsZero() {
		return 0.3
	}

	yearsOld := now.Year() - pub.PublicationDate.Year()
	switch {
	case yearsOld < 0:
		return 1.0
	case yearsOld == 0:
		return 1.0
	case yearsOld == 1:
		return 0.9
	case yearsOld == 2:
		return 0.8
	case yearsOld == 3:
		return 0.7
	case yearsOld == 4:
		return 0.6
	case yearsOld == 5:
		return 0.4
	case yearsOld == 6:
		return 0.2
	default:
		return math.Max(0.0, 0.2*math.Pow(0.7, float64(yearsOld-6)))
	}
}

// scoreCitations is log10(citations+1)/4, clamped to [0,1].
func scoreCitations(pub types.Publication) float64 {
	if pub.CitationCount <= 0 {
		return 0.0
	}
	score := math.Log10(float64(pub.CitationCount)+1) / 4.0
	return clamp01(score)
}

// scoreKeywords is the proportion of datasetKeywords found (case-insensitive
// substring match) anywhere in pub's title, abstract, keywords, or MeSH terms.
func scoreKeywords(pub types.Publication, datasetKeywords []string) float64 {
	if len(datasetKeywords) == 0 {
		return 0.5
	}

	text := strings.ToLower(strings.Join([]string{
		pub.Title,
		pub.Abstract,
		strings.Join(pub.Keywords, " "),
		strings.Join(pub.MeshTerms, " "),
	}, " "))

	matches := 0
	for _, kw := range datasetKeywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			matches++
		}
	}
	return clamp01(float64(matches) / float64(len(datasetKeywords)))
}

// scoreContentSimilarity fuzzy-compares pub's title+abstract against the
// dataset's title+summary.
func scoreContentSimilarity(pub types.Publication, dataset types.Dataset) float64 {
	datasetText := strings.ToLower(strings.TrimSpace(dataset.Title + " " + dataset.Summary))
	pubText := strings.ToLower(strings.TrimSpace(pub.Title + " " + pub.Abstract))
	if datasetText == "" || pubText == "" {
		return 0.0
	}
	return clamp01(textsim.Ratio(datasetText, pubText))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
