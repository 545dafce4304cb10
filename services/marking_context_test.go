package services

import (
	"context"
	"testing"

	"github.com/examvault/api/database"
	"github.com/examvault/api/model"
)

func TestQuestionPageRange(t *testing.T) {
	pages := []pageMap{
		{page: 3, question: "Q1"},
		{page: 5, question: "Q2"},
		{page: 4, question: "Q2"},
		{page: 6, question: "Q3"},
	}

	start, end, ok := questionPageRange(pages, "Q2")
	if !ok || start != 4 || end != 5 {
		t.Errorf("Q2 range = %d-%d ok=%v, want 4-5", start, end, ok)
	}

	start, end, ok = questionPageRange(pages, "Q1")
	if !ok || start != 3 || end != 3 {
		t.Errorf("Q1 range = %d-%d ok=%v, want 3-3", start, end, ok)
	}

	if _, _, ok := questionPageRange(pages, "Q99"); ok {
		t.Error("unmapped question reported a range")
	}
}

func seedContextPaper(t *testing.T, store database.Storage) *model.Paper {
	t.Helper()

	paper := &model.Paper{
		Year:          2023,
		Title:         "Physics Paper 2",
		PDFURL:        "https://papers.example.com/paper.pdf",
		MarkSchemeURL: "https://papers.example.com/scheme.pdf",
		Status:        model.PaperStatusActive,
	}
	if err := store.CreatePaper(paper); err != nil {
		t.Fatalf("seed paper: %v", err)
	}
	if err := store.CreatePaperPage(&model.PaperPage{PaperID: paper.ID, PageNumber: 2, QuestionNumber: "Q1"}); err != nil {
		t.Fatalf("seed paper page: %v", err)
	}
	if err := store.CreateMarkSchemePage(&model.MarkSchemePage{PaperID: paper.ID, PageNumber: 1, QuestionNumber: "Q1"}); err != nil {
		t.Fatalf("seed scheme page: %v", err)
	}
	return paper
}

func TestQuestionContextBestEffort(t *testing.T) {
	store := database.NewMemoryStore()
	paper := seedContextPaper(t, store)

	svc := NewPageContextService(store, nil)
	svc.fetch = func(ctx context.Context, url string) ([]byte, error) {
		return []byte("not a pdf"), nil
	}

	// Unreadable documents degrade to empty context instead of failing
	questionText, markSchemeText := svc.QuestionContext(context.Background(), paper, "Q1")
	if questionText != "" || markSchemeText != "" {
		t.Errorf("got (%q, %q), want empty context", questionText, markSchemeText)
	}
}

func TestQuestionContextSkipsFetchForUnmappedQuestion(t *testing.T) {
	store := database.NewMemoryStore()
	paper := seedContextPaper(t, store)

	fetches := 0
	svc := NewPageContextService(store, nil)
	svc.fetch = func(ctx context.Context, url string) ([]byte, error) {
		fetches++
		return []byte("not a pdf"), nil
	}

	svc.QuestionContext(context.Background(), paper, "Q99")
	if fetches != 0 {
		t.Errorf("fetched %d documents for an unmapped question, want 0", fetches)
	}
}

func TestQuestionContextCachesDocuments(t *testing.T) {
	store := database.NewMemoryStore()
	paper := seedContextPaper(t, store)

	fetches := 0
	svc := NewPageContextService(store, nil)
	svc.fetch = func(ctx context.Context, url string) ([]byte, error) {
		fetches++
		return []byte("not a pdf"), nil
	}

	svc.QuestionContext(context.Background(), paper, "Q1")
	svc.QuestionContext(context.Background(), paper, "Q1")

	// One fetch for the paper, one for the mark scheme, then cache hits
	if fetches != 2 {
		t.Errorf("fetched %d times across repeated lookups, want 2", fetches)
	}
}
