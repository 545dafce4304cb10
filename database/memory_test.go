package database

import (
	"errors"
	"testing"
	"time"

	"github.com/examvault/api/model"
)

func TestMemoryStoreTaxonomyUniqueness(t *testing.T) {
	store := NewMemoryStore()

	if err := store.CreateBoard(&model.Board{Name: "AQA", Slug: "aqa"}); err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	if err := store.CreateBoard(&model.Board{Name: "aqa duplicate", Slug: "aqa"}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate slug: got %v, want ErrDuplicate", err)
	}

	if err := store.CreateLevel(&model.Level{Name: "GCSE"}); err != nil {
		t.Fatalf("CreateLevel: %v", err)
	}
	if err := store.CreateLevel(&model.Level{Name: "gcse"}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate level name: got %v, want ErrDuplicate", err)
	}

	level, err := store.GetLevelByName("GCSE")
	if err != nil {
		t.Fatalf("GetLevelByName: %v", err)
	}

	if err := store.CreateSubject(&model.Subject{Name: "Maths", LevelID: level.ID}); err != nil {
		t.Fatalf("CreateSubject: %v", err)
	}
	if err := store.CreateSubject(&model.Subject{Name: "maths", LevelID: level.ID}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate subject per level: got %v, want ErrDuplicate", err)
	}
	// Same name on a different level is allowed
	if err := store.CreateLevel(&model.Level{Name: "A-Level"}); err != nil {
		t.Fatalf("CreateLevel: %v", err)
	}
	alevel, _ := store.GetLevelByName("A-Level")
	if err := store.CreateSubject(&model.Subject{Name: "Maths", LevelID: alevel.ID}); err != nil {
		t.Errorf("same subject name on another level: %v", err)
	}
}

func TestMemoryStoreCaseInsensitiveLookups(t *testing.T) {
	store := NewMemoryStore()
	if err := store.CreateBoard(&model.Board{Name: "Edexcel", Slug: "edexcel"}); err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}

	board, err := store.GetBoardByName("EDEXCEL")
	if err != nil {
		t.Fatalf("GetBoardByName: %v", err)
	}
	if board.Name != "Edexcel" {
		t.Errorf("Name = %q, original casing should persist", board.Name)
	}

	if _, err := store.GetBoardByName("WJEC"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing board: got %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreUpdateProcessingJobPartial(t *testing.T) {
	store := NewMemoryStore()

	job := &model.ProcessingJob{
		PaperURL:      "https://example.com/p.pdf",
		MarkSchemeURL: "https://example.com/ms.pdf",
		Status:        model.JobStatusPending,
	}
	if err := store.CreateProcessingJob(job); err != nil {
		t.Fatalf("CreateProcessingJob: %v", err)
	}

	status := model.JobStatusProcessing
	step := model.StepExtractMetadata
	progress := 10
	err := store.UpdateProcessingJob(job.ID, model.JobUpdate{
		Status:      &status,
		CurrentStep: &step,
		Progress:    &progress,
	})
	if err != nil {
		t.Fatalf("UpdateProcessingJob: %v", err)
	}

	// A later partial update leaves untouched fields alone
	progress2 := 30
	step2 := model.StepExtractPaperPages
	if err := store.UpdateProcessingJob(job.ID, model.JobUpdate{Progress: &progress2, CurrentStep: &step2}); err != nil {
		t.Fatalf("UpdateProcessingJob: %v", err)
	}

	got, _ := store.GetProcessingJob(job.ID)
	if got.Status != model.JobStatusProcessing {
		t.Errorf("Status = %q, partial update must not reset it", got.Status)
	}
	if got.Progress != 30 || got.CurrentStep != model.StepExtractPaperPages {
		t.Errorf("Progress/CurrentStep = %d/%q", got.Progress, got.CurrentStep)
	}

	if err := store.UpdateProcessingJob(9999, model.JobUpdate{Progress: &progress}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown job: got %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreFailStaleProcessingJobs(t *testing.T) {
	store := NewMemoryStore()

	stale := &model.ProcessingJob{PaperURL: "a", MarkSchemeURL: "b", Status: model.JobStatusPending}
	if err := store.CreateProcessingJob(stale); err != nil {
		t.Fatalf("CreateProcessingJob: %v", err)
	}
	status := model.JobStatusProcessing
	if err := store.UpdateProcessingJob(stale.ID, model.JobUpdate{Status: &status}); err != nil {
		t.Fatalf("UpdateProcessingJob: %v", err)
	}

	done := &model.ProcessingJob{PaperURL: "c", MarkSchemeURL: "d", Status: model.JobStatusCompleted}
	if err := store.CreateProcessingJob(done); err != nil {
		t.Fatalf("CreateProcessingJob: %v", err)
	}

	// A cutoff in the future makes every processing job stale
	count, err := store.FailStaleProcessingJobs(time.Now().Add(time.Minute), "processing timed out")
	if err != nil {
		t.Fatalf("FailStaleProcessingJobs: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	got, _ := store.GetProcessingJob(stale.ID)
	if got.Status != model.JobStatusFailed || got.Error != "processing timed out" {
		t.Errorf("stale job = %q/%q", got.Status, got.Error)
	}

	// Terminal jobs are untouched
	got, _ = store.GetProcessingJob(done.ID)
	if got.Status != model.JobStatusCompleted {
		t.Errorf("completed job flipped to %q", got.Status)
	}
}

func TestMemoryStoreDeleteTerminalJobsBefore(t *testing.T) {
	store := NewMemoryStore()

	oldDone := &model.ProcessingJob{PaperURL: "a", MarkSchemeURL: "b", Status: model.JobStatusCompleted}
	pending := &model.ProcessingJob{PaperURL: "c", MarkSchemeURL: "d", Status: model.JobStatusPending}
	for _, j := range []*model.ProcessingJob{oldDone, pending} {
		if err := store.CreateProcessingJob(j); err != nil {
			t.Fatalf("CreateProcessingJob: %v", err)
		}
	}

	count, err := store.DeleteTerminalJobsBefore(time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("DeleteTerminalJobsBefore: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	if _, err := store.GetProcessingJob(oldDone.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("terminal job still present: %v", err)
	}
	if _, err := store.GetProcessingJob(pending.ID); err != nil {
		t.Errorf("pending job deleted: %v", err)
	}
}

func TestMemoryStoreResponseLifecycle(t *testing.T) {
	store := NewMemoryStore()

	attempt := &model.Attempt{PaperID: 1, SessionID: "s1", FeedbackMode: model.FeedbackImmediate, StartedAt: time.Now()}
	if err := store.CreateAttempt(attempt); err != nil {
		t.Fatalf("CreateAttempt: %v", err)
	}

	resp := &model.Response{AttemptID: attempt.ID, QuestionNumber: "Q1", StudentAnswer: "a"}
	if err := store.CreateResponse(resp); err != nil {
		t.Fatalf("CreateResponse: %v", err)
	}

	if err := store.CreateResponse(&model.Response{AttemptID: attempt.ID, QuestionNumber: "Q1", StudentAnswer: "b"}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate question response: got %v, want ErrDuplicate", err)
	}

	found, err := store.GetResponseByQuestion(attempt.ID, "Q1")
	if err != nil {
		t.Fatalf("GetResponseByQuestion: %v", err)
	}
	if found.ID != resp.ID {
		t.Errorf("found ID %d, want %d", found.ID, resp.ID)
	}

	if err := store.DeleteResponse(resp.ID); err != nil {
		t.Fatalf("DeleteResponse: %v", err)
	}
	if _, err := store.GetResponseByQuestion(attempt.ID, "Q1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted response still found: %v", err)
	}
}

func TestMemoryStoreLowConfidenceResponses(t *testing.T) {
	store := NewMemoryStore()

	attempt := &model.Attempt{PaperID: 1, SessionID: "s1", StartedAt: time.Now()}
	if err := store.CreateAttempt(attempt); err != nil {
		t.Fatalf("CreateAttempt: %v", err)
	}

	score := 0
	low := &model.Response{AttemptID: attempt.ID, QuestionNumber: "Q1", StudentAnswer: "a", AIScore: &score, AIConfidence: model.ConfidenceLow}
	high := &model.Response{AttemptID: attempt.ID, QuestionNumber: "Q2", StudentAnswer: "b", AIScore: &score, AIConfidence: model.ConfidenceHigh}
	reviewed := &model.Response{AttemptID: attempt.ID, QuestionNumber: "Q3", StudentAnswer: "c", AIScore: &score, AIConfidence: model.ConfidenceLow, ReviewedByHuman: true}
	for _, r := range []*model.Response{low, high, reviewed} {
		if err := store.CreateResponse(r); err != nil {
			t.Fatalf("CreateResponse: %v", err)
		}
	}

	queue, err := store.GetLowConfidenceResponses()
	if err != nil {
		t.Fatalf("GetLowConfidenceResponses: %v", err)
	}
	if len(queue) != 1 || queue[0].ID != low.ID {
		t.Errorf("queue = %+v, want only the unreviewed low-confidence response", queue)
	}
}

func TestMemoryStorePaperFilter(t *testing.T) {
	store := NewMemoryStore()

	board := &model.Board{Name: "AQA", Slug: "aqa"}
	store.CreateBoard(board)
	level := &model.Level{Name: "GCSE"}
	store.CreateLevel(level)
	subject := &model.Subject{Name: "Maths", LevelID: level.ID}
	store.CreateSubject(subject)

	for _, year := range []int{2021, 2022, 2023} {
		paper := &model.Paper{
			SubjectID: subject.ID, BoardID: board.ID, LevelID: level.ID,
			Year: year, Title: "Paper", PDFURL: "u", MarkSchemeURL: "m",
			Status: model.PaperStatusActive,
		}
		if err := store.CreatePaper(paper); err != nil {
			t.Fatalf("CreatePaper: %v", err)
		}
	}

	all, err := store.GetPapers(model.PaperFilter{})
	if err != nil {
		t.Fatalf("GetPapers: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("unfiltered: got %d papers, want 3", len(all))
	}

	byYear, _ := store.GetPapers(model.PaperFilter{Year: 2022})
	if len(byYear) != 1 || byYear[0].Year != 2022 {
		t.Errorf("year filter: got %+v", byYear)
	}

	none, _ := store.GetPapers(model.PaperFilter{BoardID: 999})
	if len(none) != 0 {
		t.Errorf("board filter: got %d papers, want 0", len(none))
	}

	// Taxonomy names hydrated for listing
	if all[0].Board.Name != "AQA" || all[0].Level.Name != "GCSE" {
		t.Errorf("taxonomy not hydrated: %+v", all[0])
	}
}
