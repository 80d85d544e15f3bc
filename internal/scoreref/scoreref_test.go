package scoreref

import (
	"strings"
	"testing"

	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/models"
)

func TestExtractMeasureAbbreviation(t *testing.T) {
	refs := Extract("The tempo shifts at mm. 34-56 in the strings.", []string{"piece-1"})
	if len(refs) != 1 {
		t.Fatalf("expected 1 reference, got %d: %+v", len(refs), refs)
	}
	ref := refs[0]
	if ref.ReferenceType != models.ReferenceTypeMeasure {
		t.Errorf("expected measure reference, got %s", ref.ReferenceType)
	}
	if ref.Value != "mm. 34-56" {
		t.Errorf("expected value %q, got %q", "mm. 34-56", ref.Value)
	}
	if ref.PieceID != "piece-1" {
		t.Errorf("expected piece attribution piece-1, got %q", ref.PieceID)
	}
	if !strings.Contains(ref.Context, "mm. 34-56") {
		t.Errorf("context should contain the match, got %q", ref.Context)
	}
}

func TestExtractMeasureWordForms(t *testing.T) {
	cases := []struct {
		text  string
		value string
	}{
		{"We struggled in measure 12 last night.", "measure 12"},
		{"Look at measures 40 to 48 again.", "measures 40 to 48"},
		{"From bar 3 the oboe leads.", "bar 3"},
		{"bars 100-110 need a slower tempo", "bars 100-110"},
	}
	for _, tc := range cases {
		refs := Extract(tc.text, nil)
		if len(refs) != 1 {
			t.Fatalf("%q: expected 1 reference, got %d", tc.text, len(refs))
		}
		if refs[0].Value != tc.value {
			t.Errorf("%q: expected value %q, got %q", tc.text, tc.value, refs[0].Value)
		}
		if refs[0].ReferenceType != models.ReferenceTypeMeasure {
			t.Errorf("%q: expected measure type, got %s", tc.text, refs[0].ReferenceType)
		}
	}
}

func TestExtractRehearsalMarkAndSection(t *testing.T) {
	refs := Extract("Rehearsal B and the coda felt rushed.", []string{"p1", "p2"})
	if len(refs) != 2 {
		t.Fatalf("expected 2 references, got %d: %+v", len(refs), refs)
	}
	if refs[0].ReferenceType != models.ReferenceTypeRehearsalMark || refs[0].Value != "Rehearsal B" {
		t.Errorf("unexpected first reference: %+v", refs[0])
	}
	if refs[1].ReferenceType != models.ReferenceTypeSection || refs[1].Value != "coda" {
		t.Errorf("unexpected second reference: %+v", refs[1])
	}
	for _, ref := range refs {
		if ref.PieceID != "p1" {
			t.Errorf("expected attribution to first piece, got %q", ref.PieceID)
		}
	}
}

func TestExtractMovement(t *testing.T) {
	refs := Extract("In movement III, and again in mvt. IV, the brass dominates.", nil)
	if len(refs) != 2 {
		t.Fatalf("expected 2 references, got %d: %+v", len(refs), refs)
	}
	if refs[0].Value != "movement III" || refs[1].Value != "mvt. IV" {
		t.Errorf("unexpected movement values: %q, %q", refs[0].Value, refs[1].Value)
	}
	for _, ref := range refs {
		if ref.ReferenceType != models.ReferenceTypeMovement {
			t.Errorf("expected movement type, got %s", ref.ReferenceType)
		}
	}
}

// Emission order is family order first, then position within the family. A
// section keyword appearing before a measure number still comes after it in
// the output.
func TestExtractFamilyOrderBeforePosition(t *testing.T) {
	refs := Extract("The development section falls apart around bar 88.", nil)
	if len(refs) != 2 {
		t.Fatalf("expected 2 references, got %d: %+v", len(refs), refs)
	}
	if refs[0].ReferenceType != models.ReferenceTypeMeasure {
		t.Errorf("expected measure emitted first, got %s", refs[0].ReferenceType)
	}
	if refs[1].ReferenceType != models.ReferenceTypeSection {
		t.Errorf("expected section emitted second, got %s", refs[1].ReferenceType)
	}
}

func TestExtractUnknownPiece(t *testing.T) {
	refs := Extract("m. 5 was shaky", nil)
	if len(refs) != 1 {
		t.Fatalf("expected 1 reference, got %d", len(refs))
	}
	if refs[0].PieceID != UnknownPieceID {
		t.Errorf("expected %q, got %q", UnknownPieceID, refs[0].PieceID)
	}
}

func TestExtractContextClamping(t *testing.T) {
	text := "mm. 1-4 open the piece"
	refs := Extract(text, nil)
	if len(refs) != 1 {
		t.Fatalf("expected 1 reference, got %d", len(refs))
	}
	if refs[0].Context != text {
		t.Errorf("context should clamp to full text, got %q", refs[0].Context)
	}
}

func TestExtractNoMatches(t *testing.T) {
	refs := Extract("The acoustics in the hall were wonderful.", []string{"p1"})
	if len(refs) != 0 {
		t.Errorf("expected no references, got %+v", refs)
	}
}

func TestExtractCaseInsensitive(t *testing.T) {
	refs := Extract("REHEARSAL LETTER c was messy, and the CODA too.", nil)
	if len(refs) != 2 {
		t.Fatalf("expected 2 references, got %d: %+v", len(refs), refs)
	}
	if refs[0].ReferenceType != models.ReferenceTypeRehearsalMark {
		t.Errorf("expected rehearsal mark, got %s", refs[0].ReferenceType)
	}
	if refs[1].Value != "CODA" {
		t.Errorf("expected %q, got %q", "CODA", refs[1].Value)
	}
}
