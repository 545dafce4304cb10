package services

import (
	"testing"

	"github.com/examvault/api/database"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"AQA":              "aqa",
		"A-Level":          "a-level",
		"Edexcel  Pearson": "edexcel-pearson",
		"  OCR ":           "ocr",
	}
	for input, want := range cases {
		if got := Slugify(input); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestResolveCreatesTaxonomy(t *testing.T) {
	store := database.NewMemoryStore()
	svc := NewTaxonomyService(store)

	resolved, err := svc.Resolve("AQA", "GCSE", "Mathematics")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if resolved.Board.Name != "AQA" || resolved.Board.Slug != "aqa" {
		t.Errorf("unexpected board: %+v", resolved.Board)
	}
	if resolved.Level.Name != "GCSE" {
		t.Errorf("unexpected level: %+v", resolved.Level)
	}
	if resolved.Subject.Name != "Mathematics" || resolved.Subject.LevelID != resolved.Level.ID {
		t.Errorf("unexpected subject: %+v", resolved.Subject)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	store := database.NewMemoryStore()
	svc := NewTaxonomyService(store)

	first, err := svc.Resolve("AQA", "GCSE", "Mathematics")
	if err != nil {
		t.Fatalf("first Resolve failed: %v", err)
	}

	// Case differences must resolve to the same rows
	second, err := svc.Resolve("aqa", "gcse", "mathematics")
	if err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}

	if first.Board.ID != second.Board.ID {
		t.Errorf("boards differ: %d vs %d", first.Board.ID, second.Board.ID)
	}
	if first.Level.ID != second.Level.ID {
		t.Errorf("levels differ: %d vs %d", first.Level.ID, second.Level.ID)
	}
	if first.Subject.ID != second.Subject.ID {
		t.Errorf("subjects differ: %d vs %d", first.Subject.ID, second.Subject.ID)
	}

	boards, _ := store.GetBoards()
	if len(boards) != 1 {
		t.Errorf("expected 1 board, got %d", len(boards))
	}
}

func TestResolveSubjectScopedToLevel(t *testing.T) {
	store := database.NewMemoryStore()
	svc := NewTaxonomyService(store)

	gcse, err := svc.Resolve("AQA", "GCSE", "Mathematics")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	alevel, err := svc.Resolve("AQA", "A-Level", "Mathematics")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	// Same subject name at different levels must be distinct rows
	if gcse.Subject.ID == alevel.Subject.ID {
		t.Errorf("expected distinct subjects per level, both got ID %d", gcse.Subject.ID)
	}
}
