// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedup implements a two-pass deduplicator: an exact-id pass
// followed by a fuzzy title/author/year pass, merging survivors by a
// completeness score. It is a plain function over a slice backed by a
// map[string]int index of keys to output positions, rather than an
// object with internal tracking sets.
package dedup

import (
	"fmt"
	"strings"

	"github.com/pdiddy/citeminer/internal/textsim"
	"github.com/pdiddy/citeminer/pkg/types"
)

// Stats mirrors the  deduplication counters.
type Stats struct {
	TotalInput       int
	Unique           int
	RemovedByID      int
	RemovedByFuzzy   int
}

// Result is the output of Deduplicate: the surviving publications, any
// preprint/published pairs detected along the way, and the pass counters.
type Result struct {
	Publications  []types.Publication
	PreprintPairs []types.PreprintPair
	Stats         Stats
}

// Deduplicate runs Pass 1 (exact id) then Pass 2 (fuzzy title/author/year)
// over pubs in input order
func Deduplicate(pubs []types.Publication, cfg types.DedupConfig) Result {
	res := Result{Stats: Stats{TotalInput: len(pubs)}}

	idIndex := make(map[string]int) // canonical id -> index in res.Publications
	var titleIndex []int            // indices of kept items that lack a canonical id

	for _, pub := range pubs {
		if id := canonicalID(pub); id != "" {
			if idx, ok := idIndex[id]; ok {
				res.Publications[idx] = merge(res.Publications[idx], pub)
				res.Stats.RemovedByID++
				continue
			}
		}

		dupIdx := -1
		for _, idx := range titleIndex {
			if isFuzzyDuplicate(res.Publications[idx], pub, cfg) {
				dupIdx = idx
				break
			}
		}
		if dupIdx == -1 {
			// Also compare against id-indexed survivors, since a fuzzy
			// duplicate may carry its own identifier the first occurrence
			// didn't have.
			for _, idx := range idIndex {
				if isFuzzyDuplicate(res.Publications[idx], pub, cfg) {
					dupIdx = idx
					break
				}
			}
		}

		if dupIdx >= 0 {
			if isPreprintPublishedPair(res.Publications[dupIdx], pub) {
				res.PreprintPairs = append(res.PreprintPairs, buildPair(res.Publications[dupIdx], pub))
			}
			res.Publications[dupIdx] = merge(res.Publications[dupIdx], pub)
			res.Stats.RemovedByFuzzy++
			continue
		}

		idx := len(res.Publications)
		res.Publications = append(res.Publications, pub)
		if id := canonicalID(pub); id != "" {
			idIndex[id] = idx
		} else {
			titleIndex = append(titleIndex, idx)
		}
	}

	res.Stats.Unique = len(res.Publications)
	return res
}

// canonicalID returns the normalized PMID, DOI, or PMCID of pub, in that
// order of preference, or "" if it carries none.
func canonicalID(pub types.Publication) string {
	switch {
	case pub.PMID != "":
		return "pmid:" + strings.TrimSpace(pub.PMID)
	case pub.DOI != "":
		return "doi:" + normalizeDOI(pub.DOI)
	case pub.PMCID != "":
		return "pmcid:" + strings.ToUpper(strings.TrimSpace(pub.PMCID))
	default:
		return ""
	}
}

func normalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	doi = strings.TrimPrefix(doi, "doi:")
	return strings.ToLower(doi)
}

// isFuzzyDuplicate applies the  Pass 2 rules: title similarity above
// threshold, then (if both have authors) ordered first-author + set
// similarity, then (if both have dates) year tolerance.
func isFuzzyDuplicate(a, b types.Publication, cfg types.DedupConfig) bool {
	if a.Title == "" || b.Title == "" {
		return false
	}

	titleSim := textsim.Ratio100(textsim.NormalizeTitle(a.Title), textsim.NormalizeTitle(b.Title))
	if titleSim < cfg.TitleSimilarityThreshold {
		return false
	}

	if len(a.Authors) > 0 && len(b.Authors) > 0 {
		firstA, firstB := textsim.AuthorLastName(a.Authors[0]), textsim.AuthorLastName(b.Authors[0])
		firstSim := textsim.Ratio100(firstA, firstB)
		setSim := textsim.SetSimilarity(textsim.FirstFive(a.Authors), textsim.FirstFive(b.Authors))
		if firstSim < cfg.AuthorThreshold || setSim < cfg.AuthorThreshold {
			return false
		}
	}

	if !a.PublicationDate.IsZero() && !b.PublicationDate.IsZero() {
		yearDiff := a.Year() - b.Year()
		if yearDiff < 0 {
			yearDiff = -yearDiff
		}
		if yearDiff > cfg.YearTolerance {
			return false
		}
	}

	return true
}

// completeness implements the scoring formula used to pick the
// survivor of a duplicate pair.
func completeness(pub types.Publication) int {
	score := 0
	if pub.PMID != "" {
		score += 100
	}
	if pub.PMCID != "" {
		score += 50
	}
	if pub.DOI != "" {
		score += 30
	}
	if pub.Abstract != "" {
		score += 20
	}
	score += 2 * len(pub.Authors)
	if pub.Journal != "" {
		score += 10
	}
	if !pub.PublicationDate.IsZero() {
		score += 10
	}
	if len(pub.MeshTerms) > 0 {
		score += 15
	}
	if len(pub.Keywords) > 0 {
		score += 10
	}
	if pub.CitationCount > 0 {
		score += 5
	}
	return score
}

// merge picks the higher-completeness survivor of kept and incoming, then
// fills any field missing on the survivor from the loser.
func merge(kept, incoming types.Publication) types.Publication {
	survivor, loser := kept, incoming
	if completeness(incoming) > completeness(kept) {
		survivor, loser = incoming, kept
	}

	if survivor.PMID == "" {
		survivor.PMID = loser.PMID
	}
	if survivor.DOI == "" {
		survivor.DOI = loser.DOI
	}
	if survivor.PMCID == "" {
		survivor.PMCID = loser.PMCID
	}
	if survivor.ArxivID == "" {
		survivor.ArxivID = loser.ArxivID
	}
	if survivor.OpenAlexID == "" {
		survivor.OpenAlexID = loser.OpenAlexID
	}
	if survivor.CoreID == "" {
		survivor.CoreID = loser.CoreID
	}
	if survivor.Abstract == "" {
		survivor.Abstract = loser.Abstract
	}
	if len(survivor.Authors) == 0 {
		survivor.Authors = loser.Authors
	}
	if survivor.Journal == "" {
		survivor.Journal = loser.Journal
	}
	if survivor.PublicationDate.IsZero() {
		survivor.PublicationDate = loser.PublicationDate
	}
	if len(survivor.MeshTerms) == 0 {
		survivor.MeshTerms = loser.MeshTerms
	}
	if len(survivor.Keywords) == 0 {
		survivor.Keywords = loser.Keywords
	}
	if survivor.CitationCount == 0 {
		survivor.CitationCount = loser.CitationCount
	}
	if survivor.LandingURL == "" {
		survivor.LandingURL = loser.LandingURL
	}
	if survivor.PDFURL == "" {
		survivor.PDFURL = loser.PDFURL
	}
	if survivor.Source != loser.Source && !strings.Contains(survivor.Source, loser.Source) {
		survivor.Source = fmt.Sprintf("%s,%s", survivor.Source, loser.Source)
	}
	return survivor
}

// preprintMarkers identifies a preprint server by journal name substring,
//'s auxiliary pairing rule.
var preprintMarkers = []string{"biorxiv", "medrxiv", "arxiv", "preprint"}

func isPreprint(pub types.Publication) bool {
	journal := strings.ToLower(pub.Journal)
	for _, marker := range preprintMarkers {
		if strings.Contains(journal, marker) {
			return true
		}
	}
	return false
}

// isPreprintPublishedPair reports whether exactly one of a, b looks like a
// preprint. Caller has already established a and b are
// fuzzy-duplicates.
func isPreprintPublishedPair(a, b types.Publication) bool {
	return isPreprint(a) != isPreprint(b)
}

func buildPair(a, b types.Publication) types.PreprintPair {
	if isPreprint(a) {
		return types.PreprintPair{Preprint: a, Published: b}
	}
	return types.PreprintPair{Preprint: b, Published: a}
}
