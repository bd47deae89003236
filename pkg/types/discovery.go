// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// QualityLevel bands a QualityAssessment's overall score for filtering and
// reporting.
type QualityLevel string

const (
	QualityExcellent  QualityLevel = "excellent"
	QualityGood       QualityLevel = "good"
	QualityAcceptable QualityLevel = "acceptable"
	QualityPoor       QualityLevel = "poor"
	QualityRejected   QualityLevel = "rejected"
)

// qualityRank orders QualityLevel from best to worst for min-level filters.
var qualityRank = map[QualityLevel]int{
	QualityExcellent:  4,
	QualityGood:       3,
	QualityAcceptable: 2,
	QualityPoor:       1,
	QualityRejected:   0,
}

// AtLeast reports whether l is at least as good as min.
func (l QualityLevel) AtLeast(min QualityLevel) bool {
	return qualityRank[l] >= qualityRank[min]
}

// QualityIssue is one concrete finding from the quality validator.
type QualityIssue struct {
	Severity string `json:"severity" yaml:"severity"` // "critical", "warning", "info"
	Category string `json:"category" yaml:"category"`
	Message  string `json:"message" yaml:"message"`
}

// QualityAssessment is the quality validator's verdict for one Publication.
type QualityAssessment struct {
	Overall              float64        `json:"overall" yaml:"overall"`
	MetadataScore         float64       `json:"metadata_score" yaml:"metadata_score"`
	ContentScore           float64      `json:"content_score" yaml:"content_score"`
	JournalScore           float64      `json:"journal_score" yaml:"journal_score"`
	TemporalScore          float64      `json:"temporal_score" yaml:"temporal_score"`
	Level                  QualityLevel `json:"level" yaml:"level"`
	Action                 string       `json:"action" yaml:"action"` // "include", "include_with_warning", "exclude"
	Issues                 []QualityIssue `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// CriticalIssueCount returns the number of critical-severity issues.
func (a QualityAssessment) CriticalIssueCount() int {
	n := 0
	for _, iss := range a.Issues {
		if iss.Severity == "critical" {
			n++
		}
	}
	return n
}

// RelevanceScore is the relevance scorer's per-publication verdict,
// retaining the four sub-scores for transparency.
type RelevanceScore struct {
	Total              float64 `json:"total" yaml:"total"`
	ContentSimilarity  float64 `json:"content_similarity" yaml:"content_similarity"`
	KeywordMatch       float64 `json:"keyword_match" yaml:"keyword_match"`
	Recency            float64 `json:"recency" yaml:"recency"`
	CitationScore      float64 `json:"citation_score" yaml:"citation_score"`
}

// RankedPublication pairs a Publication with its relevance and (optional)
// quality verdicts for inclusion in a DiscoveryResult.
type RankedPublication struct {
	Publication Publication         `json:"publication" yaml:"publication"`
	Relevance   RelevanceScore      `json:"relevance" yaml:"relevance"`
	Quality     *QualityAssessment  `json:"quality,omitempty" yaml:"quality,omitempty"`
}

// PreprintPair links a preprint record to the published version it was
// matched against during deduplication.
type PreprintPair struct {
	Preprint  Publication `json:"preprint" yaml:"preprint"`
	Published Publication `json:"published" yaml:"published"`
}

// QualitySummary aggregates assessment counts across a DiscoveryResult.
type QualitySummary struct {
	CountByLevel map[QualityLevel]int `json:"count_by_level" yaml:"count_by_level"`
	AverageScore float64              `json:"average_score" yaml:"average_score"`
}

// DiscoveryResult is the discovery coordinator's output for one Dataset:
// a deduplicated, ranked list of citing publications plus provenance.
type DiscoveryResult struct {
	Accession string `json:"accession" yaml:"accession"`
	PrimaryPMID string `json:"primary_pmid,omitempty" yaml:"primary_pmid,omitempty"`

	Publications []RankedPublication `json:"publications" yaml:"publications"`

	// StrategyBreakdown records how many publications each strategy
	// contributed before dedup, plus "cached": "true" when served from cache.
	StrategyBreakdown map[string]string `json:"strategy_breakdown" yaml:"strategy_breakdown"`

	PreprintPairs []PreprintPair `json:"preprint_pairs,omitempty" yaml:"preprint_pairs,omitempty"`

	QualitySummary *QualitySummary `json:"quality_summary,omitempty" yaml:"quality_summary,omitempty"`
}
