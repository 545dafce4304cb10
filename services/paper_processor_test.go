package services

import (
	"context"
	"errors"
	"testing"

	"github.com/examvault/api/database"
	"github.com/examvault/api/model"
	"github.com/examvault/api/utils/pdfvalidation"
)

// stubExtractor returns canned extraction results, or errors when set
type stubExtractor struct {
	metadata    *PaperMetadata
	paperPages  []PageMapping
	schemePages []PageMapping

	metadataErr error
	mappingErr  error
}

func (s *stubExtractor) ExtractPaperMetadata(ctx context.Context, pdfContent []byte) (*PaperMetadata, error) {
	if s.metadataErr != nil {
		return nil, s.metadataErr
	}
	return s.metadata, nil
}

func (s *stubExtractor) ExtractPaperPageMapping(ctx context.Context, pdfContent []byte) ([]PageMapping, error) {
	if s.mappingErr != nil {
		return nil, s.mappingErr
	}
	return s.paperPages, nil
}

func (s *stubExtractor) ExtractMarkSchemePageMapping(ctx context.Context, pdfContent []byte) ([]PageMapping, error) {
	if s.mappingErr != nil {
		return nil, s.mappingErr
	}
	return s.schemePages, nil
}

func newTestProcessor(store database.Storage, extractor Extractor) *PaperProcessor {
	p := NewPaperProcessor(store, extractor, nil)
	p.fetch = func(ctx context.Context, url string, limits pdfvalidation.PDFLimits) ([]byte, error) {
		return []byte("%PDF-1.4 test content %%EOF"), nil
	}
	return p
}

func createJob(t *testing.T, store database.Storage) *model.ProcessingJob {
	t.Helper()
	job := &model.ProcessingJob{
		PaperURL:      "https://papers.example.com/paper.pdf",
		MarkSchemeURL: "https://papers.example.com/scheme.pdf",
		Status:        model.JobStatusPending,
	}
	if err := store.CreateProcessingJob(job); err != nil {
		t.Fatalf("failed to create job: %v", err)
	}
	return job
}

func TestProcessCompletesJob(t *testing.T) {
	store := database.NewMemoryStore()
	extractor := &stubExtractor{
		metadata: &PaperMetadata{
			Title:   "Mathematics Paper 1",
			Board:   "AQA",
			Subject: "Mathematics",
			Level:   "GCSE",
			Year:    2023,
			Series:  "June",
			Tier:    "Higher",
		},
		paperPages: []PageMapping{
			{PageNumber: 3, QuestionNumber: "Q1"},
			{PageNumber: 4, QuestionNumber: "Q2"},
			{PageNumber: 5, QuestionNumber: "Q3"},
		},
		schemePages: []PageMapping{
			{PageNumber: 2, QuestionNumber: "Q1"},
			{PageNumber: 3, QuestionNumber: "Q2"},
		},
	}

	processor := newTestProcessor(store, extractor)
	job := createJob(t, store)

	if err := processor.Process(context.Background(), job.ID); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	final, err := store.GetProcessingJob(job.ID)
	if err != nil {
		t.Fatalf("failed to re-read job: %v", err)
	}

	if final.Status != model.JobStatusCompleted {
		t.Errorf("Status = %q, want completed (error: %q)", final.Status, final.Error)
	}
	if final.Progress != 100 {
		t.Errorf("Progress = %d, want 100", final.Progress)
	}
	if final.CurrentStep != model.StepComplete {
		t.Errorf("CurrentStep = %q, want %q", final.CurrentStep, model.StepComplete)
	}
	if final.CompletedAt == nil {
		t.Error("CompletedAt not set on completed job")
	}
	if final.PaperID == nil {
		t.Fatal("PaperID not recorded on job")
	}

	paper, err := store.GetPaper(*final.PaperID)
	if err != nil {
		t.Fatalf("failed to load created paper: %v", err)
	}
	if paper.Title != "Mathematics Paper 1" {
		t.Errorf("Title = %q", paper.Title)
	}
	if paper.QuestionCount != 3 {
		t.Errorf("QuestionCount = %d, want 3 (one per paper page mapping)", paper.QuestionCount)
	}
	if paper.Status != model.PaperStatusActive {
		t.Errorf("Status = %q, want active", paper.Status)
	}
	if paper.Year != 2023 {
		t.Errorf("Year = %d, want 2023", paper.Year)
	}

	pages, _ := store.GetPaperPages(paper.ID)
	if len(pages) != 3 {
		t.Errorf("got %d paper pages, want 3", len(pages))
	}
	schemePages, _ := store.GetMarkSchemePages(paper.ID)
	if len(schemePages) != 2 {
		t.Errorf("got %d mark scheme pages, want 2", len(schemePages))
	}

	// Taxonomy resolved as a side effect
	board, err := store.GetBoardByName("AQA")
	if err != nil {
		t.Fatalf("board not created: %v", err)
	}
	if paper.BoardID != board.ID {
		t.Errorf("paper board %d, want %d", paper.BoardID, board.ID)
	}
}

func TestProcessFailsOnExtractionError(t *testing.T) {
	store := database.NewMemoryStore()
	extractor := &stubExtractor{
		metadataErr: errors.New("no text found on cover pages"),
	}

	processor := newTestProcessor(store, extractor)
	job := createJob(t, store)

	if err := processor.Process(context.Background(), job.ID); err == nil {
		t.Fatal("Process succeeded, want error")
	}

	final, _ := store.GetProcessingJob(job.ID)
	if final.Status != model.JobStatusFailed {
		t.Errorf("Status = %q, want failed", final.Status)
	}
	if final.Error == "" {
		t.Error("Error not recorded on failed job")
	}
	if final.PaperID != nil {
		t.Error("no paper should exist for a failed extraction")
	}

	papers, _ := store.GetPapers(model.PaperFilter{})
	if len(papers) != 0 {
		t.Errorf("got %d papers, want 0", len(papers))
	}
}

func TestProcessFailsOnDownloadError(t *testing.T) {
	store := database.NewMemoryStore()
	processor := newTestProcessor(store, &stubExtractor{})
	processor.fetch = func(ctx context.Context, url string, limits pdfvalidation.PDFLimits) ([]byte, error) {
		return nil, errors.New("connection refused")
	}
	job := createJob(t, store)

	if err := processor.Process(context.Background(), job.ID); err == nil {
		t.Fatal("Process succeeded, want error")
	}

	final, _ := store.GetProcessingJob(job.ID)
	if final.Status != model.JobStatusFailed {
		t.Errorf("Status = %q, want failed", final.Status)
	}
}

func TestProcessUnknownJob(t *testing.T) {
	store := database.NewMemoryStore()
	processor := newTestProcessor(store, &stubExtractor{})

	if err := processor.Process(context.Background(), 9999); err == nil {
		t.Fatal("Process succeeded for unknown job, want error")
	}
}

// milestoneFailingStore rejects the progress write at one milestone and
// passes everything else through
type milestoneFailingStore struct {
	database.Storage
	failAtProgress int
}

func (s *milestoneFailingStore) UpdateProcessingJob(id uint, update model.JobUpdate) error {
	if update.Progress != nil && *update.Progress == s.failAtProgress {
		return errors.New("connection reset")
	}
	return s.Storage.UpdateProcessingJob(id, update)
}

func TestProcessFailsJobOnProgressWriteError(t *testing.T) {
	memory := database.NewMemoryStore()
	store := &milestoneFailingStore{Storage: memory, failAtProgress: 30}

	extractor := &stubExtractor{
		metadata: &PaperMetadata{
			Title:   "Mathematics Paper 1",
			Board:   "AQA",
			Subject: "Mathematics",
			Level:   "GCSE",
			Year:    2023,
		},
		paperPages:  []PageMapping{{PageNumber: 3, QuestionNumber: "Q1"}},
		schemePages: []PageMapping{{PageNumber: 2, QuestionNumber: "Q1"}},
	}
	processor := newTestProcessor(store, extractor)
	job := createJob(t, store)

	if err := processor.Process(context.Background(), job.ID); err == nil {
		t.Fatal("Process succeeded, want error")
	}

	// The job must end failed rather than sit in processing until the janitor
	final, err := store.GetProcessingJob(job.ID)
	if err != nil {
		t.Fatalf("GetProcessingJob: %v", err)
	}
	if final.Status != model.JobStatusFailed {
		t.Errorf("Status = %q, want failed", final.Status)
	}
	if final.Error == "" {
		t.Error("Error not recorded on job")
	}
	if final.CompletedAt == nil {
		t.Error("CompletedAt not set on failed job")
	}
}
