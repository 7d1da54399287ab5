// Package entities is the heuristic entity extractor (C8): no NER model
// dependency is wired anywhere, so extraction is a capitalization/regex
// heuristic in the spirit of root's hand-rolled text-processing helpers,
// not a claim of state-of-the-art named-entity recognition.
package entities

import (
	"regexp"
	"strings"

	"archon/internal/catalog"
)

const (
	maxTextChars   = 100000
	minEntityRunes = 2
)

// Occurrence is one (text, type) row with its first seen offset and total
// occurrence count, matching the {text, type, start_char, count} shape.
type Occurrence struct {
	Text      string
	Type      catalog.EntityType
	StartChar int
	Count     int
}

var (
	// dateRe matches common forensic-document date shapes: 2024-01-31,
	// 01/31/2024, 31 January 2024, January 31, 2024.
	dateRe = regexp.MustCompile(
		`\b(\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{2,4}|\d{1,2} (?:January|February|March|April|May|June|July|August|September|October|November|December) \d{4}|(?:January|February|March|April|May|June|July|August|September|October|November|December) \d{1,2},? \d{4})\b`,
	)

	// orgRe matches capitalized runs ending in a common legal-entity suffix.
	orgRe = regexp.MustCompile(
		`\b([A-Z][\w&.]*(?:\s+[A-Z][\w&.]*)*\s+(?:Inc|Corp|Corporation|LLC|Ltd|Group|Bank|Holdings|Co)\.?)\b`,
	)

	// locRe matches "City, ST"/"City, Region" and captures the whole span; a
	// bare place name after "in"/"at" is not matched.
	locRe = regexp.MustCompile(`\b([A-Z][a-zA-Z]+(?:\s[A-Z][a-zA-Z]+)*,\s(?:[A-Z]{2}|[A-Z][a-zA-Z]+))\b`)

	// personRe matches a simple two-to-three capitalized token run not
	// already claimed by orgRe/locRe (checked by the caller via overlap).
	personRe = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s[A-Z][a-z]+){1,2})\b`)
)

type span struct {
	start, end int
	text       string
	typ        catalog.EntityType
}

// Extract scans text for dates, organizations, locations and person-like
// name runs, truncating to maxTextChars, dropping entities shorter than 2
// non-whitespace runes, and coalescing repeated (text, type) pairs into one
// Occurrence with an incremented count. The first seen StartChar is kept.
func Extract(text string) []Occurrence {
	if len(text) > maxTextChars {
		text = text[:maxTextChars]
	}

	var spans []span
	spans = append(spans, matchAll(text, dateRe, catalog.EntityDate)...)
	spans = append(spans, matchAll(text, orgRe, catalog.EntityOrg)...)
	spans = append(spans, matchAll(text, locRe, catalog.EntityLoc)...)

	claimed := make([]bool, len(text))
	for _, s := range spans {
		for i := s.start; i < s.end && i < len(claimed); i++ {
			claimed[i] = true
		}
	}
	for _, s := range matchAll(text, personRe, catalog.EntityPerson) {
		if overlapsClaimed(claimed, s.start, s.end) {
			continue
		}
		spans = append(spans, s)
	}

	return coalesce(spans)
}

func matchAll(text string, re *regexp.Regexp, typ catalog.EntityType) []span {
	idxs := re.FindAllStringSubmatchIndex(text, -1)
	out := make([]span, 0, len(idxs))
	for _, m := range idxs {
		start, end := m[2], m[3]
		if start < 0 {
			start, end = m[0], m[1]
		}
		val := text[start:end]
		if runeLen(strings.TrimSpace(val)) < minEntityRunes {
			continue
		}
		out = append(out, span{start: start, end: end, text: val, typ: typ})
	}
	return out
}

func overlapsClaimed(claimed []bool, start, end int) bool {
	for i := start; i < end && i < len(claimed); i++ {
		if claimed[i] {
			return true
		}
	}
	return false
}

func coalesce(spans []span) []Occurrence {
	type key struct {
		text string
		typ  catalog.EntityType
	}
	index := make(map[key]int)
	var out []Occurrence
	for _, s := range spans {
		k := key{text: s.text, typ: s.typ}
		if i, ok := index[k]; ok {
			out[i].Count++
			continue
		}
		index[k] = len(out)
		out = append(out, Occurrence{Text: s.text, Type: s.typ, StartChar: s.start, Count: 1})
	}
	return out
}

func runeLen(s string) int {
	return len([]rune(s))
}

// NormalizeLabel maps a third-party model's label vocabulary (e.g. spaCy's
// PERSON/GPE/FAC) onto the fixed {PER,ORG,LOC,MISC,DATE} set, for callers
// that plug in an external NER model ahead of this package's heuristics.
func NormalizeLabel(label string) catalog.EntityType {
	switch strings.ToUpper(label) {
	case "PER", "PERSON":
		return catalog.EntityPerson
	case "ORG", "ORGANIZATION":
		return catalog.EntityOrg
	case "LOC", "GPE", "FAC", "LOCATION":
		return catalog.EntityLoc
	case "DATE", "TIME":
		return catalog.EntityDate
	default:
		return catalog.EntityMisc
	}
}
