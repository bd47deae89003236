// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package quality

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citeminer/pkg/types"
)

func TestAssess_TopTierJournalExcellent(t *testing.T) {
	cfg := types.DefaultQualityConfig()
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)

	pub := types.Publication{
		PMID:            "1",
		Title:           "A comprehensive study of something important",
		Abstract:        strings.Repeat("substantial finding. ", 40),
		Authors:         []string{"A", "B", "C"},
		Journal:         "Nature",
		PublicationDate: now.AddDate(-1, 0, 0),
		CitationCount:   25,
		MeshTerms:       []string{"Genetics"},
	}

	a := Assess(pub, cfg, now)

	require.Equal(t, types.QualityExcellent, a.Level)
	require.Equal(t, "include", a.Action)
	require.Equal(t, 0, a.CriticalIssueCount())
}

func TestAssess_MissingTitleAndAbstractRejected(t *testing.T) {
	cfg := types.DefaultQualityConfig()
	now := time.Now()

	pub := types.Publication{Journal: "Some Journal"}

	a := Assess(pub, cfg, now)

	require.Equal(t, types.QualityRejected, a.Level)
	require.Equal(t, "exclude", a.Action)
	require.GreaterOrEqual(t, a.CriticalIssueCount(), 2)
}

func TestAssess_PredatoryJournalPenalized(t *testing.T) {
	cfg := types.DefaultQualityConfig()
	now := time.Now()

	pub := types.Publication{
		Title:           "Some paper",
		Abstract:        strings.Repeat("x", 150),
		Authors:         []string{"A"},
		Journal:         "International Journal of Recent Advances",
		PublicationDate: now.AddDate(-1, 0, 0),
	}

	a := Assess(pub, cfg, now)

	require.Less(t, a.JournalScore, 0.3)
	found := false
	for _, iss := range a.Issues {
		if iss.Category == "journal" && iss.Severity == "critical" {
			found = true
		}
	}
	require.True(t, found, "expected a critical journal issue for a predatory-pattern match")
}

func TestAssess_PreprintScoredWithAllowance(t *testing.T) {
	cfg := types.DefaultQualityConfig()
	now := time.Now()

	pub := types.Publication{
		Title:           "A preprint",
		Abstract:        strings.Repeat("x", 150),
		DOI:             "10.1101/2024.01.01.123456",
		PublicationDate: now.AddDate(0, -6, 0),
	}

	a := Assess(pub, cfg, now)

	require.InDelta(t, 0.6, a.JournalScore, 0.001)
}

func TestFilter_ExcludesBelowMinLevel(t *testing.T) {
	cfg := types.DefaultQualityConfig()
	now := time.Now()

	good := types.Publication{
		PMID: "1", Title: "Good paper", Abstract: strings.Repeat("x", 150),
		Authors: []string{"A"}, Journal: "Nature", PublicationDate: now.AddDate(-1, 0, 0),
	}
	bad := types.Publication{Title: "Bad paper"}

	filtered, assessments := Filter([]types.Publication{good, bad}, cfg, types.QualityAcceptable, now)

	require.Len(t, assessments, 2)
	require.Len(t, filtered, 1)
	require.Equal(t, "1", filtered[0].PMID)
}
