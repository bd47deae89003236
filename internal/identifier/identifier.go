// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package identifier implements the universal publication identifier:
// an ordered-fallback choice over a Publication's identifier fields,
// producing a stable filesystem-safe filename, cache key, and display
// name.
package identifier

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/citeminer/pkg/types"
)

// Kind is the branch of the ordered fallback that produced an Identifier.
type Kind string

const (
	PMID       Kind = "pmid"
	DOI        Kind = "doi"
	PMCID      Kind = "pmcid"
	Arxiv      Kind = "arxiv"
	Biorxiv    Kind = "biorxiv"
	OpenAlex   Kind = "openalex"
	Core       Kind = "core"
	Hash       Kind = "hash"
)

// Identifier is the resolved universal identifier for one Publication.
type Identifier struct {
	Kind  Kind
	Value string // sanitized value used in filenames and cache keys

	// Display is the original, unsanitized value used for display_name and
	// (for DOI) for cache_key
	Display string
}

var nonFilenameRun = regexp.MustCompile(`[^A-Za-z0-9_\-]+`)

// sanitize implements 's sanitization rule: replace /, \, :, ., whitespace,
// and any run of non-[A-Za-z0-9_-] characters with a single underscore,
// collapse repeats, and truncate to 100 characters.
func sanitize(s string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", ".", "_")
	s = replacer.Replace(s)
	s = nonFilenameRun.ReplaceAllString(s, "_")
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// biorxivDOIPattern matches a DOI minted by bioRxiv or medRxiv (prefix
// 10.1101), the signal used to route a DOI-bearing preprint to the
// BIORXIV branch instead of the generic DOI branch.
var biorxivDOIPattern = regexp.MustCompile(`^10\.1101/`)

// Resolve picks pub's identifier by the ordered fallback of :
// PMID → DOI → PMCID → arXiv → OpenAlex → CORE → HASH(title). A DOI with
// the 10.1101 prefix is taken at the DOI step and yields kind Biorxiv.
// preferDOI, when true, swaps the PMID/DOI priority
func Resolve(pub types.Publication, preferDOI bool) Identifier {
	order := []func() (Identifier, bool){
		func() (Identifier, bool) { return fromPMID(pub) },
		func() (Identifier, bool) { return fromDOI(pub) },
	}
	if preferDOI {
		order[0], order[1] = order[1], order[0]
	}
	order = append(order,
		func() (Identifier, bool) { return fromPMCID(pub) },
		func() (Identifier, bool) { return fromArxiv(pub) },
		func() (Identifier, bool) { return fromOpenAlex(pub) },
		func() (Identifier, bool) { return fromCore(pub) },
	)

	for _, try := range order {
		if id, ok := try(); ok {
			return id
		}
	}
	return fromHash(pub)
}

func fromPMID(pub types.Publication) (Identifier, bool) {
	if pub.PMID == "" {
		return Identifier{}, false
	}
	return Identifier{Kind: PMID, Value: sanitize(pub.PMID), Display: pub.PMID}, true
}

func fromDOI(pub types.Publication) (Identifier, bool) {
	if pub.DOI == "" {
		return Identifier{}, false
	}
	kind := DOI
	if biorxivDOIPattern.MatchString(pub.DOI) {
		kind = Biorxiv
	}
	return Identifier{Kind: kind, Value: sanitize(pub.DOI), Display: pub.DOI}, true
}

func fromPMCID(pub types.Publication) (Identifier, bool) {
	if pub.PMCID == "" {
		return Identifier{}, false
	}
	return Identifier{Kind: PMCID, Value: sanitize(pub.PMCID), Display: pub.PMCID}, true
}

func fromArxiv(pub types.Publication) (Identifier, bool) {
	if pub.ArxivID == "" {
		return Identifier{}, false
	}
	return Identifier{Kind: Arxiv, Value: sanitize(pub.ArxivID), Display: pub.ArxivID}, true
}

func fromOpenAlex(pub types.Publication) (Identifier, bool) {
	if pub.OpenAlexID == "" {
		return Identifier{}, false
	}
	v := strings.TrimPrefix(pub.OpenAlexID, "https://openalex.org/")
	v = strings.TrimPrefix(v, "W")
	return Identifier{Kind: OpenAlex, Value: sanitize(v), Display: pub.OpenAlexID}, true
}

func fromCore(pub types.Publication) (Identifier, bool) {
	if pub.CoreID == "" {
		return Identifier{}, false
	}
	return Identifier{Kind: Core, Value: sanitize(pub.CoreID), Display: pub.CoreID}, true
}

func fromHash(pub types.Publication) Identifier {
	sum := sha256.Sum256([]byte(pub.Title))
	h := fmt.Sprintf("%x", sum)[:16]
	return Identifier{Kind: Hash, Value: h, Display: h}
}

// Filename returns the `<type>_<value>.pdf` filesystem name.
func (id Identifier) Filename() string {
	return fmt.Sprintf("%s_%s.pdf", id.Kind, id.Value)
}

// CacheKey returns `<type>:<value>`; the DOI branch uses the
// original unsanitized DOI so cache keys remain human-readable and
// round-trippable against the live DOI resolver.
func (id Identifier) CacheKey() string {
	if id.Kind == DOI || id.Kind == Biorxiv {
		return fmt.Sprintf("%s:%s", id.Kind, id.Display)
	}
	return fmt.Sprintf("%s:%s", id.Kind, id.Value)
}

// DisplayName renders a human-facing label, e.g. "PMID 12345",
// "DOI 10.xxx/yyy", "arXiv:yymm.nnnnn".
func (id Identifier) DisplayName() string {
	switch id.Kind {
	case PMID:
		return "PMID " + id.Display
	case DOI:
		return "DOI " + id.Display
	case PMCID:
		return "PMCID " + id.Display
	case Arxiv:
		return "arXiv:" + id.Display
	case Biorxiv:
		return "bioRxiv DOI " + id.Display
	case OpenAlex:
		return "OpenAlex " + id.Display
	case Core:
		return "CORE " + id.Display
	default:
		return "HASH " + id.Display
	}
}

// ShortDisplay renders DisplayName ellipsized to at most 30 characters.
func (id Identifier) ShortDisplay() string {
	d := id.DisplayName()
	if len(d) <= 30 {
		return d
	}
	return d[:27] + "..."
}

// filenamePattern parses back a Filename into its Kind and sanitized value.
var filenamePattern = regexp.MustCompile(`^([a-z]+)_(.+)\.pdf$`)

// ParseFilename reverses Filename. DOI round-trip is best-effort: the
// sanitizer is lossy, so the returned value is the sanitized (underscored)
// form, not necessarily the original DOI string.
func ParseFilename(name string) (kind Kind, value string, ok bool) {
	m := filenamePattern.FindStringSubmatch(name)
	if m == nil {
		return "", "", false
	}
	return Kind(m[1]), m[2], true
}
