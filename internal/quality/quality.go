// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package quality implements the four-axis quality validator: metadata
// completeness, content quality, journal reputation, and temporal
// relevance, combined into a weighted score and banded into a
// QualityLevel, using the point values and thresholds captured in
// types.DefaultQualityConfig.
package quality

import (
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/citeminer/pkg/types"
)

// Assess scores pub against cfg, returning the full four-axis breakdown.
func Assess(pub types.Publication, cfg types.QualityConfig, now time.Time) types.QualityAssessment {
	metadataScore, metadataIssues := checkMetadataCompleteness(pub, cfg)
	contentScore, contentIssues := checkContentQuality(pub, cfg, now)
	journalScore, journalIssues := checkJournalQuality(pub, cfg)
	temporalScore, temporalIssues := checkTemporalRelevance(pub, cfg, now)

	overall := metadataScore*cfg.Weights.Metadata +
		contentScore*cfg.Weights.Content +
		journalScore*cfg.Weights.Journal +
		temporalScore*cfg.Weights.Temporal

	issues := make([]types.QualityIssue, 0, len(metadataIssues)+len(contentIssues)+len(journalIssues)+len(temporalIssues))
	issues = append(issues, metadataIssues...)
	issues = append(issues, contentIssues...)
	issues = append(issues, journalIssues...)
	issues = append(issues, temporalIssues...)

	level := determineLevel(overall, issues, cfg)
	action := determineAction(level, issues)

	return types.QualityAssessment{
		Overall:        overall,
		MetadataScore:  metadataScore,
		ContentScore:   contentScore,
		JournalScore:   journalScore,
		TemporalScore:  temporalScore,
		Level:          level,
		Action:         action,
		Issues:         issues,
	}
}

// AssessAll scores every publication in pubs.
func AssessAll(pubs []types.Publication, cfg types.QualityConfig, now time.Time) []types.QualityAssessment {
	out := make([]types.QualityAssessment, len(pubs))
	for i, p := range pubs {
		out[i] = Assess(p, cfg, now)
	}
	return out
}

// Filter keeps publications whose assessment is at least minLevel and
// whose action is not "exclude", mirroring filter_by_quality.
func Filter(pubs []types.Publication, cfg types.QualityConfig, minLevel types.QualityLevel, now time.Time) ([]types.Publication, []types.QualityAssessment) {
	assessments := AssessAll(pubs, cfg, now)
	filtered := make([]types.Publication, 0, len(pubs))
	for i, a := range assessments {
		if a.Level.AtLeast(minLevel) && a.Action != "exclude" {
			filtered = append(filtered, pubs[i])
		}
	}
	return filtered, assessments
}

func critical(category, message string) types.QualityIssue {
	return types.QualityIssue{Severity: "critical", Category: category, Message: message}
}

func warning(category, message string) types.QualityIssue {
	return types.QualityIssue{Severity: "warning", Category: category, Message: message}
}

func info(category, message string) types.QualityIssue {
	return types.QualityIssue{Severity: "info", Category: category, Message: message}
}

// checkMetadataCompleteness scores the metadata axis (weight 0.40):
// title 0.20, abstract 0.35 (0.15 if short), authors 0.20, date 0.15,
// journal 0.10.
func checkMetadataCompleteness(pub types.Publication, cfg types.QualityConfig) (float64, []types.QualityIssue) {
	var score float64
	var issues []types.QualityIssue

	if pub.Title != "" {
		score += 0.20
	} else {
		issues = append(issues, critical("metadata", "missing title"))
	}

	switch {
	case pub.Abstract == "":
		issues = append(issues, critical("metadata", "missing abstract"))
	case len(pub.Abstract) >= cfg.MinAbstractLength:
		score += 0.35
	default:
		score += 0.15
		issues = append(issues, warning("metadata", "short abstract"))
	}

	if len(pub.Authors) > 0 {
		score += 0.20
	} else {
		issues = append(issues, warning("metadata", "missing authors"))
	}

	if !pub.PublicationDate.IsZero() {
		score += 0.15
	} else {
		issues = append(issues, warning("metadata", "missing publication date"))
	}

	if pub.Journal != "" {
		score += 0.10
	}

	return score, issues
}

// checkContentQuality scores the content axis (weight 0.30): abstract
// substance 0.40, age-adjusted citation count 0.40, indexed terms 0.20.
func checkContentQuality(pub types.Publication, cfg types.QualityConfig, now time.Time) (float64, []types.QualityIssue) {
	var score float64
	var issues []types.QualityIssue

	if pub.Abstract != "" {
		n := len(pub.Abstract)
		switch {
		case n >= 500:
			score += 0.40
		case n >= 200:
			score += 0.30
		case n >= cfg.MinAbstractLength:
			score += 0.20
		default:
			score += 0.10
			issues = append(issues, warning("content", "thin abstract"))
		}
	}

	citationScore, citationIssue := assessCitations(pub, cfg, now)
	score += citationScore * 0.40
	if citationIssue != nil {
		issues = append(issues, *citationIssue)
	}

	if len(pub.Keywords) > 0 || len(pub.MeshTerms) > 0 {
		score += 0.20
	}

	return score, issues
}

// assessCitations ports _assess_citations' age-adjusted bands.
func assessCitations(pub types.Publication, cfg types.QualityConfig, now time.Time) (float64, *types.QualityIssue) {
	if pub.PublicationDate.IsZero() || pub.CitationCount == 0 {
		return 0.5, nil
	}

	ageYears := now.Sub(pub.PublicationDate).Hours() / 24 / 365.25

	switch {
	case ageYears < 2:
		switch {
		case pub.CitationCount >= 10:
			return 1.0, nil
		case pub.CitationCount >= cfg.MinCitationsRecent:
			return 0.7, nil
		default:
			iss := info("content", "low citations for recent paper")
			return 0.3, &iss
		}
	case ageYears < 5:
		switch {
		case pub.CitationCount >= 50:
			return 1.0, nil
		case pub.CitationCount >= cfg.MinCitationsOlder:
			return 0.7, nil
		default:
			iss := warning("content", "low citations")
			return 0.4, &iss
		}
	default:
		switch {
		case pub.CitationCount >= 100:
			return 1.0, nil
		case pub.CitationCount >= 20:
			return 0.6, nil
		default:
			iss := warning("content", "low citations for older paper")
			return 0.3, &iss
		}
	}
}

var biorxivDOIPattern = regexp.MustCompile(`10\.1101`)

// checkJournalQuality scores the journal axis (weight 0.20): a high-quality
// match wins outright (1.0), a predatory-pattern match is critical (0.2),
// a low-quality pattern is a warning (0.4), else a PubMed-indexed record
// defaults to 0.7 and an unindexed one to the 0.5 neutral default.
func checkJournalQuality(pub types.Publication, cfg types.QualityConfig) (float64, []types.QualityIssue) {
	if pub.Journal == "" {
		if biorxivDOIPattern.MatchString(pub.DOI) {
			if cfg.AllowPreprints {
				return 0.6, []types.QualityIssue{info("journal", "preprint, not peer-reviewed")}
			}
			return 0.3, []types.QualityIssue{warning("journal", "preprint not allowed")}
		}
		return 0.5, []types.QualityIssue{info("journal", "no journal information")}
	}

	journal := strings.ToLower(pub.Journal)

	for _, hq := range cfg.HighQualityJournals {
		if strings.Contains(journal, hq) {
			return 1.0, nil
		}
	}

	for _, pattern := range cfg.PredatoryPatterns {
		if matched, _ := regexp.MatchString(pattern, journal); matched {
			return 0.2, []types.QualityIssue{critical("journal", "potential predatory journal: "+pub.Journal)}
		}
	}

	for _, pattern := range cfg.LowQualityPatterns {
		if matched, _ := regexp.MatchString(pattern, journal); matched {
			return 0.4, []types.QualityIssue{warning("journal", "lower-tier venue: "+pub.Journal)}
		}
	}

	if pub.PMID != "" {
		return 0.7, nil
	}
	return 0.5, nil
}

// checkTemporalRelevance scores the temporal axis (weight 0.10) purely by
// age in years.
func checkTemporalRelevance(pub types.Publication, cfg types.QualityConfig, now time.Time) (float64, []types.QualityIssue) {
	if pub.PublicationDate.IsZero() {
		return 0.5, nil
	}

	ageYears := now.Sub(pub.PublicationDate).Hours() / 24 / 365.25
	switch {
	case ageYears < 0:
		return 0.5, []types.QualityIssue{warning("age", "future publication date")}
	case ageYears <= 2:
		return 1.0, nil
	case ageYears <= float64(cfg.RecentPaperYears):
		return 0.8, nil
	case ageYears <= 10:
		return 0.5, nil
	case ageYears <= float64(cfg.MaxAgeYears):
		return 0.3, []types.QualityIssue{info("age", "older publication")}
	default:
		return 0.1, []types.QualityIssue{warning("age", "very old publication")}
	}
}

func criticalCount(issues []types.QualityIssue) int {
	n := 0
	for _, iss := range issues {
		if iss.Severity == "critical" {
			n++
		}
	}
	return n
}

// determineLevel mirrors _determine_quality_level's critical-issue gating.
func determineLevel(score float64, issues []types.QualityIssue, cfg types.QualityConfig) types.QualityLevel {
	critCount := criticalCount(issues)

	switch {
	case critCount >= 2:
		return types.QualityRejected
	case score >= cfg.ExcellentThreshold && critCount == 0:
		return types.QualityExcellent
	case score >= cfg.GoodThreshold && critCount == 0:
		return types.QualityGood
	case score >= cfg.AcceptableThreshold && critCount <= 1:
		return types.QualityAcceptable
	case score >= cfg.MinQualityScore:
		return types.QualityPoor
	default:
		return types.QualityRejected
	}
}

func determineAction(level types.QualityLevel, issues []types.QualityIssue) string {
	switch level {
	case types.QualityExcellent, types.QualityGood:
		return "include"
	case types.QualityAcceptable:
		if criticalCount(issues) > 0 {
			return "include_with_warning"
		}
		return "include"
	default:
		return "exclude"
	}
}
