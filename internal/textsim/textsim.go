// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textsim provides the fuzzy title/text similarity ratio shared
// by the deduplicator and the relevance scorer: a direct port of Python's
// difflib.SequenceMatcher.ratio() rather than a hand-rolled Levenshtein
// distance.
package textsim

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
var spaceRun = regexp.MustCompile(`\s+`)

// NormalizeTitle lowercases, strips punctuation, and collapses whitespace.
// Unicode text is first put into NFC form so accented names compare
// consistently regardless of the source API's composed/decomposed
// encoding.
func NormalizeTitle(s string) string {
	s = norm.NFC.String(s)
	s = strings.ToLower(s)
	s = nonWord.ReplaceAllString(s, " ")
	s = spaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Ratio returns a SequenceMatcher-style similarity ratio in [0,1] between
// a and b: 2*M / T where M is the total length of matching blocks found by
// recursively locating the longest common substring, and T is the
// combined length of both strings.
func Ratio(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1.0
	}
	matches := matchingBlocks(ra, rb)
	return 2.0 * float64(matches) / float64(len(ra)+len(rb))
}

// Ratio100 returns Ratio scaled to [0,100], the form used by the
// deduplicator's title_similarity_threshold (default 85).
func Ratio100(a, b string) float64 {
	return Ratio(a, b) * 100
}

// matchingBlocks sums the lengths of the longest matching blocks between
// a and b using the same divide-and-conquer recursion as Python's
// difflib.SequenceMatcher.get_matching_blocks.
func matchingBlocks(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	i, j, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}
	return size + matchingBlocks(a[:i], b[:j]) + matchingBlocks(a[i+size:], b[j+size:])
}

// longestMatch finds the longest common contiguous run between a and b,
// returning its start index in each and its length.
func longestMatch(a, b []rune) (int, int, int) {
	// Index b's rune positions for O(len(a)*avg-bucket) lookup instead of
	// the naive O(len(a)*len(b)) scan.
	positions := make(map[rune][]int, len(b))
	for j, r := range b {
		positions[r] = append(positions[r], j)
	}

	bestI, bestJ, bestSize := 0, 0, 0
	// j2len[j] = length of the run ending at b[j-1] matching up through a[i-1].
	j2len := make(map[int]int)
	for i, ra := range a {
		newJ2len := make(map[int]int)
		for _, j := range positions[ra] {
			k := j2len[j-1] + 1
			newJ2len[j] = k
			if k > bestSize {
				bestI, bestJ, bestSize = i-k+1, j-k+1, k
			}
		}
		j2len = newJ2len
	}
	return bestI, bestJ, bestSize
}

// ExtractKeywords pulls alphanumeric tokens of length >= 3 out of text,
// lowercased, minus a stopword set, deduplicated, capped at max entries.
func ExtractKeywords(text string, max int) []string {
	tokens := tokenize(text)
	seen := make(map[string]bool, len(tokens))
	var out []string
	for _, tok := range tokens {
		if len(tok) < 3 || stopwords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
		if len(out) >= max {
			break
		}
	}
	return out
}

var wordPattern = regexp.MustCompile(`[a-zA-Z0-9]{3,}`)

func tokenize(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

// stopwords is a common-English stopword set, filtered out to keep
// extracted keywords content-bearing.
var stopwords = func() map[string]bool {
	words := []string{
		"the", "and", "for", "are", "was", "were", "this", "that", "with",
		"from", "has", "have", "had", "not", "but", "can", "will", "would",
		"could", "should", "may", "might", "must", "shall", "into", "than",
		"then", "these", "those", "there", "their", "they", "them", "its",
		"our", "who", "which", "what", "when", "where", "how", "all",
		"each", "any", "some", "such", "also", "using", "used", "use",
		"based", "via", "per", "between", "among", "both", "during",
		"within", "without", "upon", "across",
	}
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}()

// IsAlphaNumericWord reports whether r is a Unicode letter or digit. The
// tokenizer's regexp accepts only ASCII letters and digits, so for
// non-ASCII runes this test is wider than the tokenizer's.
func IsAlphaNumericWord(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// AuthorLastName extracts the last whitespace-separated token of an author
// name string ("Jane A. Smith" -> "smith"), lowercased, for the
// deduplicator's ordered first-author comparison.
func AuthorLastName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[len(fields)-1])
}

// FirstFive returns up to the first five elements of authors, for the
// deduplicator's set-similarity rule over "the first five authors".
func FirstFive(authors []string) []string {
	if len(authors) <= 5 {
		return authors
	}
	return authors[:5]
}

// SetSimilarity returns the Jaccard overlap in [0,100] between the
// last-name sets of a and b: 100 * |intersection| / |union|. Two empty
// sets are similar by convention (100), matching the dedup rule that only
// applies this check "if both publications have authors".
func SetSimilarity(a, b []string) float64 {
	setA := toLastNameSet(a)
	setB := toLastNameSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 100
	}

	intersection := 0
	union := make(map[string]bool, len(setA)+len(setB))
	for name := range setA {
		union[name] = true
		if setB[name] {
			intersection++
		}
	}
	for name := range setB {
		union[name] = true
	}
	if len(union) == 0 {
		return 100
	}
	return 100 * float64(intersection) / float64(len(union))
}

func toLastNameSet(authors []string) map[string]bool {
	set := make(map[string]bool, len(authors))
	for _, a := range authors {
		if last := AuthorLastName(a); last != "" {
			set[last] = true
		}
	}
	return set
}
