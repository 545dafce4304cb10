package services

import (
	"strings"
	"testing"
	"time"
)

func TestValidateMetadata(t *testing.T) {
	valid := PaperMetadata{
		Title:   "Mathematics Paper 1",
		Board:   "AQA",
		Subject: "Mathematics",
		Level:   "GCSE",
		Year:    2023,
	}

	if err := validateMetadata(&valid); err != nil {
		t.Errorf("valid metadata rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*PaperMetadata)
	}{
		{"empty title", func(m *PaperMetadata) { m.Title = "  " }},
		{"empty board", func(m *PaperMetadata) { m.Board = "" }},
		{"empty subject", func(m *PaperMetadata) { m.Subject = "" }},
		{"empty level", func(m *PaperMetadata) { m.Level = "" }},
		{"ancient year", func(m *PaperMetadata) { m.Year = 1971 }},
		{"future year", func(m *PaperMetadata) { m.Year = time.Now().Year() + 5 }},
		{"zero year", func(m *PaperMetadata) { m.Year = 0 }},
	}

	for _, tc := range cases {
		m := valid
		tc.mutate(&m)
		if err := validateMetadata(&m); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestValidateMetadataTrimsFields(t *testing.T) {
	m := PaperMetadata{
		Title:   "  Physics Paper 2  ",
		Board:   " OCR ",
		Subject: " Physics",
		Level:   "A-Level ",
		Year:    2022,
	}
	if err := validateMetadata(&m); err != nil {
		t.Fatalf("validateMetadata failed: %v", err)
	}
	if m.Title != "Physics Paper 2" || m.Board != "OCR" {
		t.Errorf("fields not trimmed: %+v", m)
	}
}

func TestSanitizeMappings(t *testing.T) {
	mappings := []PageMapping{
		{PageNumber: 3, QuestionNumber: "Q1"},
		{PageNumber: 0, QuestionNumber: "Q2"},   // invalid page
		{PageNumber: 4, QuestionNumber: "  "},   // empty question
		{PageNumber: 3, QuestionNumber: "Q9"},   // duplicate page, first wins
		{PageNumber: 5, QuestionNumber: " Q3 "}, // trimmed
	}

	cleaned := sanitizeMappings(mappings)

	if len(cleaned) != 2 {
		t.Fatalf("got %d mappings, want 2: %+v", len(cleaned), cleaned)
	}
	if cleaned[0].PageNumber != 3 || cleaned[0].QuestionNumber != "Q1" {
		t.Errorf("first mapping = %+v, want page 3 Q1", cleaned[0])
	}
	if cleaned[1].PageNumber != 5 || cleaned[1].QuestionNumber != "Q3" {
		t.Errorf("second mapping = %+v, want page 5 Q3", cleaned[1])
	}
}

func TestMetadataPromptMentionsRequiredFields(t *testing.T) {
	for _, field := range []string{"board", "subject", "level", "year", "title"} {
		if !strings.Contains(strings.ToLower(metadataExtractionPrompt), field) {
			t.Errorf("metadata prompt does not mention %q", field)
		}
	}
}
