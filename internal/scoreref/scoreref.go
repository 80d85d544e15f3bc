// Package scoreref extracts and highlights musical score references in
// free-form conversational text.
//
// Score references are citations such as measure numbers ("mm. 34-56"),
// rehearsal marks ("Rehearsal B"), movement numbers ("movement III"), and
// formal section names ("the coda"). Matching is driven by an ordered rule
// table; the extractor and the highlighter share the rules but apply
// different overlap policies, which is intentional and must not be unified.
package scoreref

import (
	"regexp"

	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/models"
)

// UnknownPieceID is assigned when a reference cannot be attributed to a piece.
const UnknownPieceID = "unknown"

// contextWindow is how many characters of surrounding text are kept on each
// side of a match for human review.
const contextWindow = 50

// rule pairs a pattern with the reference classification it produces.
// Rules are applied in declaration order; that order is part of the contract.
type rule struct {
	re        *regexp.Regexp
	kind      models.ScoreReferenceType
	highlight bool // section keywords are extracted but never highlighted
}

// rules is the fixed pattern-family table, in priority order.
var rules = []rule{
	{regexp.MustCompile(`(?i)\b(mm?\.\s*\d+(?:\s*[-–—]\s*\d+)?)`), models.ReferenceTypeMeasure, true},
	{regexp.MustCompile(`(?i)\b(measures?\s*\d+(?:\s*[-–—to]+\s*\d+)?)`), models.ReferenceTypeMeasure, true},
	{regexp.MustCompile(`(?i)\b(bars?\s*\d+(?:\s*[-–—to]+\s*\d+)?)`), models.ReferenceTypeMeasure, true},
	{regexp.MustCompile(`(?i)\b(reh(?:earsal)?\.?\s*(?:letter|mark|no\.?)?\s*[A-Z])`), models.ReferenceTypeRehearsalMark, true},
	{regexp.MustCompile(`(?i)\b(movement\s*[IVX]+|\bmvt\.?\s*[IVX]+)`), models.ReferenceTypeMovement, true},
	{regexp.MustCompile(`(?i)\b(introduction|exposition|development|recapitulation|coda|bridge)\b`), models.ReferenceTypeSection, false},
}

// Extract scans text for score references and returns one ScoreReference per
// match of every pattern family. It is pure and never fails; no matches
// yields an empty result.
//
// Emission order is family-priority first, then left-to-right within each
// family — the result is NOT globally sorted by position. Overlapping
// matches across families are all kept. The piece attribution is
// best-effort: every reference is assigned the first discussed piece, or
// UnknownPieceID when the piece list is empty.
func Extract(text string, pieceIDs []string) []models.ScoreReference {
	defaultPieceID := UnknownPieceID
	if len(pieceIDs) > 0 {
		defaultPieceID = pieceIDs[0]
	}

	var refs []models.ScoreReference
	for _, r := range rules {
		for _, m := range r.re.FindAllStringSubmatchIndex(text, -1) {
			start, end := m[0], m[1]
			ctxStart := start - contextWindow
			if ctxStart < 0 {
				ctxStart = 0
			}
			ctxEnd := end + contextWindow
			if ctxEnd > len(text) {
				ctxEnd = len(text)
			}
			refs = append(refs, models.ScoreReference{
				PieceID:       defaultPieceID,
				ReferenceType: r.kind,
				Value:         text[m[2]:m[3]],
				RawText:       text[start:end],
				Context:       text[ctxStart:ctxEnd],
			})
		}
	}
	return refs
}
