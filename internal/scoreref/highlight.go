package scoreref

import "sort"

// Span is a highlighted region of text. Start and End are byte offsets into
// the source text, with End exclusive.
type Span struct {
	Start int
	End   int
	Text  string
}

// Highlight returns the disjoint score-reference spans in text, sorted
// ascending by start offset. The rendering layer walks the text
// left-to-right, interleaving plain segments with highlighted segments.
//
// Highlighting uses the positional pattern families only — section keywords
// are excluded. Candidates are collected in rule order and a candidate is
// dropped if it overlaps any previously accepted span, so earlier families
// win ties. Concatenating the segments reconstructs the input exactly.
func Highlight(text string) []Span {
	var spans []Span
	for _, r := range rules {
		if !r.highlight {
			continue
		}
		for _, m := range r.re.FindAllStringIndex(text, -1) {
			start, end := m[0], m[1]
			if overlapsAny(spans, start, end) {
				continue
			}
			spans = append(spans, Span{Start: start, End: end, Text: text[start:end]})
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return spans
}

// overlapsAny reports whether [start, end) intersects any accepted span,
// including partial overlap.
func overlapsAny(spans []Span, start, end int) bool {
	for _, s := range spans {
		if start < s.End && end > s.Start {
			return true
		}
	}
	return false
}
