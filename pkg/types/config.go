// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"os"
	"time"

	yaml "go.yaml.in/yaml/v3"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ScoringWeights holds the relevance scorer's four linear weights.
// They are expected to sum to 1.0; callers that change them are responsible
// for renormalizing.
type ScoringWeights struct {
	Content  float64 `json:"content" yaml:"content"`
	Keyword  float64 `json:"keyword" yaml:"keyword"`
	Recency  float64 `json:"recency" yaml:"recency"`
	Citation float64 `json:"citation" yaml:"citation"`
}

// DefaultScoringWeights returns the default linear-combination weights.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{Content: 0.40, Keyword: 0.30, Recency: 0.20, Citation: 0.10}
}

// QualityWeights holds the quality validator's four axis weights.
type QualityWeights struct {
	Metadata float64 `json:"metadata" yaml:"metadata"`
	Content  float64 `json:"content" yaml:"content"`
	Journal  float64 `json:"journal" yaml:"journal"`
	Temporal float64 `json:"temporal" yaml:"temporal"`
}

// DefaultQualityWeights returns the default axis weights.
func DefaultQualityWeights() QualityWeights {
	return QualityWeights{Metadata: 0.40, Content: 0.30, Journal: 0.20, Temporal: 0.10}
}

// QualityConfig tunes the quality validator's thresholds.
type QualityConfig struct {
	MinAbstractLength int `json:"min_abstract_length" yaml:"min_abstract_length"`

	MinCitationsRecent int `json:"min_citations_recent" yaml:"min_citations_recent"`
	MinCitationsOlder  int `json:"min_citations_older" yaml:"min_citations_older"`
	RecentPaperYears   int `json:"recent_paper_years" yaml:"recent_paper_years"`
	MaxAgeYears        int `json:"max_age_years" yaml:"max_age_years"`

	AllowPreprints bool `json:"allow_preprints" yaml:"allow_preprints"`

	MinQualityScore    float64 `json:"min_quality_score" yaml:"min_quality_score"`
	ExcellentThreshold float64 `json:"excellent_threshold" yaml:"excellent_threshold"`
	GoodThreshold      float64 `json:"good_threshold" yaml:"good_threshold"`
	AcceptableThreshold float64 `json:"acceptable_threshold" yaml:"acceptable_threshold"`

	// PredatoryPatterns and LowQualityPatterns are regular expressions
	// matched against the journal name; implementers MUST expose these as
	// configuration
	PredatoryPatterns  []string `json:"predatory_patterns" yaml:"predatory_patterns"`
	LowQualityPatterns []string `json:"low_quality_patterns" yaml:"low_quality_patterns"`
	HighQualityJournals []string `json:"high_quality_journals" yaml:"high_quality_journals"`

	Weights QualityWeights `json:"weights" yaml:"weights"`
}

// DefaultQualityConfig returns the default quality-validator thresholds.
func DefaultQualityConfig() QualityConfig {
	return QualityConfig{
		MinAbstractLength:   100,
		MinCitationsRecent:  5,
		MinCitationsOlder:   10,
		RecentPaperYears:    5,
		MaxAgeYears:         15,
		AllowPreprints:      true,
		MinQualityScore:     0.3,
		ExcellentThreshold:  0.8,
		GoodThreshold:       0.6,
		AcceptableThreshold: 0.4,
		PredatoryPatterns: []string{
			`international journal of recent`,
			`world journal of`,
			`global journal of`,
			`research journal of`,
			`american journal of.*research`,
		},
		LowQualityPatterns: []string{
			`conference proceedings`,
			`^arxiv$`,
			`^biorxiv$`,
			`^medrxiv$`,
			`^ssrn$`,
		},
		HighQualityJournals: []string{
			"nature", "science", "cell", "the lancet", "jama", "nejm",
			"new england journal of medicine", "nature medicine",
			"nature genetics", "nature biotechnology", "pnas",
			"genome biology", "genome research", "bioinformatics",
			"cell reports", "plos biology", "nucleic acids research",
			"nature communications", "embo journal", "molecular cell",
		},
		Weights: DefaultQualityWeights(),
	}
}

// DedupConfig tunes the deduplicator's fuzzy-match thresholds.
type DedupConfig struct {
	TitleSimilarityThreshold float64 `json:"title_similarity_threshold" yaml:"title_similarity_threshold"`
	AuthorThreshold          float64 `json:"author_threshold" yaml:"author_threshold"`
	YearTolerance            int     `json:"year_tolerance" yaml:"year_tolerance"`
}

// DefaultDedupConfig returns the default fuzzy-match thresholds.
func DefaultDedupConfig() DedupConfig {
	return DedupConfig{
		TitleSimilarityThreshold: 85,
		AuthorThreshold:          80,
		YearTolerance:            1,
	}
}

// DiscoveryConfig tunes the discovery coordinator.
type DiscoveryConfig struct {
	EnableStrategyA bool `json:"enable_strategy_a" yaml:"enable_strategy_a"`
	EnableStrategyB bool `json:"enable_strategy_b" yaml:"enable_strategy_b"`
	EnableCache     bool `json:"enable_cache" yaml:"enable_cache"`

	CacheTTLSeconds int `json:"cache_ttl_seconds" yaml:"cache_ttl_seconds"`
	MaxResults      int `json:"max_results" yaml:"max_results"`

	EnableQuality   bool         `json:"enable_quality" yaml:"enable_quality"`
	MinQualityLevel QualityLevel `json:"min_quality_level,omitempty" yaml:"min_quality_level,omitempty"`

	QualityWeights QualityWeights `json:"quality_weights" yaml:"quality_weights"`
	ScorerWeights  ScoringWeights `json:"scorer_weights" yaml:"scorer_weights"`
	Dedup          DedupConfig    `json:"dedup" yaml:"dedup"`
}

// DefaultDiscoveryConfig returns the default discovery coordinator settings.
func DefaultDiscoveryConfig() DiscoveryConfig {
	return DiscoveryConfig{
		EnableStrategyA: true,
		EnableStrategyB: true,
		EnableCache:     true,
		CacheTTLSeconds: 7 * 24 * 3600,
		MaxResults:      100,
		EnableQuality:   true,
		QualityWeights:  DefaultQualityWeights(),
		ScorerWeights:   DefaultScoringWeights(),
		Dedup:           DefaultDedupConfig(),
	}
}

// URLCollectorConfig tunes the URL collector.
type URLCollectorConfig struct {
	HTTPConfig `yaml:",inline"`

	EnabledSources map[string]bool  `json:"enabled_sources" yaml:"enabled_sources"`
	SourceAPIKeys  map[string]string `json:"source_api_keys,omitempty" yaml:"source_api_keys,omitempty"`

	// InstitutionalProxyBase, when set, enables the priority-1
	// "Institutional proxy" source: a URL prefix a target landing
	// page is appended to, e.g. an EZproxy login URL.
	InstitutionalProxyBase string `json:"institutional_proxy_base,omitempty" yaml:"institutional_proxy_base,omitempty"`

	TimeoutPerSourceSeconds int  `json:"timeout_per_source_s" yaml:"timeout_per_source_s"`
	MaxConcurrent           int  `json:"max_concurrent" yaml:"max_concurrent"`
	AllowGrayMarket         bool `json:"allow_gray_market" yaml:"allow_gray_market"`
}

// DefaultURLCollectorConfig returns the default URL collector settings.
func DefaultURLCollectorConfig() URLCollectorConfig {
	return URLCollectorConfig{
		HTTPConfig:              HTTPConfig{Timeout: 10 * time.Second, UserAgent: "citeminer/0.1"},
		TimeoutPerSourceSeconds: 10,
		MaxConcurrent:           3,
		AllowGrayMarket:         false,
	}
}

// DownloaderConfig tunes the download manager.
type DownloaderConfig struct {
	HTTPConfig `yaml:",inline"`

	MaxConcurrent  int `json:"max_concurrent" yaml:"max_concurrent"`
	MaxRetries     int `json:"max_retries" yaml:"max_retries"`
	TimeoutSeconds int `json:"timeout_seconds" yaml:"timeout_seconds"`

	ValidatePDF bool  `json:"validate_pdf" yaml:"validate_pdf"`
	MinPDFSize  int64 `json:"min_pdf_size" yaml:"min_pdf_size"`
	MaxPDFSize  int64 `json:"max_pdf_size" yaml:"max_pdf_size"`
}

// DefaultDownloaderConfig returns the default download manager settings.
func DefaultDownloaderConfig() DownloaderConfig {
	return DownloaderConfig{
		HTTPConfig:     HTTPConfig{Timeout: 30 * time.Second, UserAgent: "citeminer/0.1"},
		MaxConcurrent:  3,
		MaxRetries:     2,
		TimeoutSeconds: 30,
		ValidatePDF:    true,
		MinPDFSize:     10240,
		MaxPDFSize:     104857600,
	}
}

// EngineConfig groups every stage configuration for the top-level facade.
type EngineConfig struct {
	Discovery    DiscoveryConfig    `json:"discovery" yaml:"discovery"`
	URLCollector URLCollectorConfig `json:"url_collector" yaml:"url_collector"`
	Downloader   DownloaderConfig   `json:"downloader" yaml:"downloader"`
}

// DefaultEngineConfig returns an EngineConfig populated with every stage's
// default settings.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Discovery:    DefaultDiscoveryConfig(),
		URLCollector: DefaultURLCollectorConfig(),
		Downloader:   DefaultDownloaderConfig(),
	}
}

// LoadEngineConfig reads a YAML EngineConfig override file, starting from
// DefaultEngineConfig so an omitted section keeps its default value.
func LoadEngineConfig(path string) (EngineConfig, error) {
	cfg := DefaultEngineConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return EngineConfig{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return EngineConfig{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// SaveEngineConfig writes cfg to path as YAML, the inverse of LoadEngineConfig.
func SaveEngineConfig(cfg EngineConfig, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding engine config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
