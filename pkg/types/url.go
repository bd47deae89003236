// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// URLType classifies a candidate full-text URL so the download manager can
// attempt the most promising candidates first.
type URLType string

const (
	PDFDirect    URLType = "pdf_direct"
	HTMLFullText URLType = "html_fulltext"
	LandingPage  URLType = "landing_page"
	URLUnknown   URLType = "unknown"
)

// rank gives the total order over URLType used when sorting
// candidate URLs: PDF_DIRECT < HTML_FULLTEXT < LANDING_PAGE < UNKNOWN.
func (t URLType) rank() int {
	switch t {
	case PDFDirect:
		return 0
	case HTMLFullText:
		return 1
	case LandingPage:
		return 2
	default:
		return 3
	}
}

// Less reports whether t sorts before other under the URLType total order.
func (t URLType) Less(other URLType) bool {
	return t.rank() < other.rank()
}

// SourceURL is one candidate full-text location for a Publication,
// produced by a single source client and annotated by the URL collector.
type SourceURL struct {
	URL  string `json:"url" yaml:"url"`
	Source string `json:"source" yaml:"source"`

	// Priority is the originating source's fixed position in the table of
	//  (lower is preferred).
	Priority int `json:"priority" yaml:"priority"`

	Type          URLType            `json:"type" yaml:"type"`
	RequiresAuth  bool               `json:"requires_auth" yaml:"requires_auth"`
	Confidence    float64            `json:"confidence" yaml:"confidence"`
	Metadata      map[string]string  `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// FullTextResult is the outcome of collecting candidate full-text URLs for
// one Publication.
type FullTextResult struct {
	Success bool        `json:"success" yaml:"success"`
	URLs    []SourceURL `json:"urls" yaml:"urls"`

	// Chosen is the URL the downloader ultimately succeeded with, set
	// after a download attempt; empty until then.
	Chosen string `json:"chosen,omitempty" yaml:"chosen,omitempty"`

	// Errors maps source name to the error it returned (or timed out with).
	Errors map[string]string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// DownloadResult is the outcome of attempting to fetch and persist one PDF.
type DownloadResult struct {
	Success   bool   `json:"success" yaml:"success"`
	FilePath  string `json:"file_path,omitempty" yaml:"file_path,omitempty"`
	Size      int64  `json:"size" yaml:"size"`
	Source    string `json:"source,omitempty" yaml:"source,omitempty"`
	SHA256    string `json:"sha256,omitempty" yaml:"sha256,omitempty"`
	Encrypted bool   `json:"encrypted,omitempty" yaml:"encrypted,omitempty"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
	Duration  float64 `json:"duration_seconds,omitempty" yaml:"duration_seconds,omitempty"`
}

// DownloadReport summarizes a batch of DownloadResults.
type DownloadReport struct {
	// BatchID opaquely identifies this run for log correlation (generated
	// with google/uuid, the same role anandheritage-paper-app gives it for
	// Postgres record IDs).
	BatchID     string                    `json:"batch_id" yaml:"batch_id"`
	Successful  int                       `json:"successful" yaml:"successful"`
	Failed      int                       `json:"failed" yaml:"failed"`
	TotalSizeMB float64                   `json:"total_size_mb" yaml:"total_size_mb"`
	BySource    map[string]int            `json:"by_source" yaml:"by_source"`
	PerResult   []DownloadResult          `json:"per_result" yaml:"per_result"`
}
