// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package download

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// maxLandingPageCandidates bounds how many PDF links a landing page parse
// yields before the caller retries them.
const maxLandingPageCandidates = 3

// extractPDFCandidates parses an HTML landing page for three heuristics:
// a[href$=.pdf], meta[name=citation_pdf_url], iframe[src*=pdf]. Candidates
// are resolved against base and returned in document order, capped at
// maxLandingPageCandidates.
func extractPDFCandidates(body []byte, base *url.URL) []string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var out []string
	seen := make(map[string]bool)
	add := func(raw string) {
		if raw == "" || len(out) >= maxLandingPageCandidates {
			return
		}
		resolved := resolveHref(base, raw)
		if resolved == "" || seen[resolved] {
			return
		}
		seen[resolved] = true
		out = append(out, resolved)
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(out) >= maxLandingPageCandidates {
			return
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a":
				if href := attrOf(n, "href"); strings.HasSuffix(strings.ToLower(href), ".pdf") {
					add(href)
				}
			case "meta":
				if strings.EqualFold(attrOf(n, "name"), "citation_pdf_url") {
					add(attrOf(n, "content"))
				}
			case "iframe":
				if src := attrOf(n, "src"); strings.Contains(strings.ToLower(src), "pdf") {
					add(src)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

func attrOf(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func resolveHref(base *url.URL, raw string) string {
	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
