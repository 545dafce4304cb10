package attempt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/examvault/api/database"
	"github.com/examvault/api/model"
	"github.com/examvault/api/services"
)

type fixedMarker struct{ awarded int }

func (m *fixedMarker) MarkAnswer(ctx context.Context, studentAnswer string, maxMarks int, questionInstructions, markSchemeExcerpt string) *services.MarkingResult {
	return &services.MarkingResult{
		AwardedMarks:    m.awarded,
		Feedback:        "Good answer.",
		ImprovementTips: []string{"Show more working"},
		Confidence:      model.ConfidenceHigh,
	}
}

func newTestApp(t *testing.T) (*fiber.App, database.Storage, *model.Paper) {
	t.Helper()

	store := database.NewMemoryStore()
	service := services.NewAttemptService(store, &fixedMarker{awarded: 4}, nil)
	handler := NewAttemptHandler(service)

	app := fiber.New()
	attempts := app.Group("/api/v1/attempts")
	attempts.Post("/", handler.CreateAttempt)
	attempts.Get("/:id", handler.GetAttempt)
	attempts.Get("/:id/responses", handler.GetResponses)
	attempts.Post("/:id/submit-question", handler.SubmitQuestion)
	attempts.Post("/:id/submit-page", handler.SubmitPage)
	attempts.Post("/:id/mark-all", handler.MarkAll)
	attempts.Post("/:id/complete", handler.Complete)
	app.Delete("/api/v1/responses/:id", handler.Retake)

	board := &model.Board{Name: "AQA", Slug: "aqa"}
	if err := store.CreateBoard(board); err != nil {
		t.Fatalf("seed board: %v", err)
	}
	level := &model.Level{Name: "GCSE"}
	if err := store.CreateLevel(level); err != nil {
		t.Fatalf("seed level: %v", err)
	}
	subject := &model.Subject{Name: "Mathematics", LevelID: level.ID}
	if err := store.CreateSubject(subject); err != nil {
		t.Fatalf("seed subject: %v", err)
	}
	paper := &model.Paper{
		SubjectID:     subject.ID,
		BoardID:       board.ID,
		LevelID:       level.ID,
		Year:          2023,
		Title:         "Mathematics Paper 1",
		PDFURL:        "https://papers.example.com/paper.pdf",
		MarkSchemeURL: "https://papers.example.com/scheme.pdf",
		QuestionCount: 2,
		Status:        model.PaperStatusActive,
	}
	if err := store.CreatePaper(paper); err != nil {
		t.Fatalf("seed paper: %v", err)
	}
	for i, qn := range []string{"Q1", "Q2"} {
		if err := store.CreatePaperPage(&model.PaperPage{PaperID: paper.ID, PageNumber: i + 2, QuestionNumber: qn}); err != nil {
			t.Fatalf("seed page: %v", err)
		}
	}

	return app, store, paper
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}

	var envelope map[string]interface{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &envelope); err != nil {
			t.Fatalf("unmarshal response %q: %v", raw, err)
		}
	}
	return resp, envelope
}

func TestCreateAndSubmitFlow(t *testing.T) {
	app, _, paper := newTestApp(t)

	resp, body := doJSON(t, app, fiber.MethodPost, "/api/v1/attempts", CreateAttemptRequest{PaperID: paper.ID})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create attempt status = %d, body %v", resp.StatusCode, body)
	}
	data := body["data"].(map[string]interface{})
	attemptID := uint(data["id"].(float64))
	if data["feedback_mode"] != string(model.FeedbackImmediate) {
		t.Errorf("feedback_mode = %v", data["feedback_mode"])
	}

	resp, body = doJSON(t, app, fiber.MethodPost, fmt.Sprintf("/api/v1/attempts/%d/submit-question", attemptID),
		SubmitQuestionRequest{QuestionNumber: "Q1", StudentAnswer: "x = 4"})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("submit status = %d, body %v", resp.StatusCode, body)
	}
	submitted := body["data"].(map[string]interface{})
	if submitted["ai_score"].(float64) != 4 {
		t.Errorf("ai_score = %v", submitted["ai_score"])
	}

	// Same question again is a conflict
	resp, _ = doJSON(t, app, fiber.MethodPost, fmt.Sprintf("/api/v1/attempts/%d/submit-question", attemptID),
		SubmitQuestionRequest{QuestionNumber: "Q1", StudentAnswer: "x = 5"})
	if resp.StatusCode != fiber.StatusConflict {
		t.Errorf("duplicate submit status = %d", resp.StatusCode)
	}

	// Unknown question number is a bad request
	resp, _ = doJSON(t, app, fiber.MethodPost, fmt.Sprintf("/api/v1/attempts/%d/submit-question", attemptID),
		SubmitQuestionRequest{QuestionNumber: "Q99", StudentAnswer: "anything"})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("invalid question status = %d", resp.StatusCode)
	}
}

func TestSubmitPageFlow(t *testing.T) {
	app, _, paper := newTestApp(t)

	_, body := doJSON(t, app, fiber.MethodPost, "/api/v1/attempts", CreateAttemptRequest{PaperID: paper.ID})
	attemptID := uint(body["data"].(map[string]interface{})["id"].(float64))

	// Page 3 is mapped to Q2 in the seeded paper
	resp, body := doJSON(t, app, fiber.MethodPost, fmt.Sprintf("/api/v1/attempts/%d/submit-page", attemptID),
		SubmitPageRequest{PageNumber: 3, StudentAnswer: "an answer"})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("submit-page status = %d, body %v", resp.StatusCode, body)
	}
	data := body["data"].(map[string]interface{})
	if data["question_number"] != "Q2" {
		t.Errorf("question_number = %v, want Q2", data["question_number"])
	}

	// A page with no mapped question is a bad request
	resp, _ = doJSON(t, app, fiber.MethodPost, fmt.Sprintf("/api/v1/attempts/%d/submit-page", attemptID),
		SubmitPageRequest{PageNumber: 42, StudentAnswer: "anything"})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("unmapped page status = %d", resp.StatusCode)
	}

	// Resubmitting the question behind the page is a conflict
	resp, _ = doJSON(t, app, fiber.MethodPost, fmt.Sprintf("/api/v1/attempts/%d/submit-question", attemptID),
		SubmitQuestionRequest{QuestionNumber: "Q2", StudentAnswer: "again"})
	if resp.StatusCode != fiber.StatusConflict {
		t.Errorf("duplicate via question number status = %d", resp.StatusCode)
	}
}

func TestCreateAttemptUnknownPaper(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, _ := doJSON(t, app, fiber.MethodPost, "/api/v1/attempts", CreateAttemptRequest{PaperID: 9999})
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestCreateAttemptValidation(t *testing.T) {
	app, _, paper := newTestApp(t)

	resp, _ := doJSON(t, app, fiber.MethodPost, "/api/v1/attempts",
		map[string]interface{}{"paper_id": paper.ID, "feedback_mode": "whenever"})
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", resp.StatusCode)
	}
}

func TestCompleteAttemptOverHTTP(t *testing.T) {
	app, _, paper := newTestApp(t)

	_, body := doJSON(t, app, fiber.MethodPost, "/api/v1/attempts", CreateAttemptRequest{PaperID: paper.ID})
	attemptID := uint(body["data"].(map[string]interface{})["id"].(float64))

	doJSON(t, app, fiber.MethodPost, fmt.Sprintf("/api/v1/attempts/%d/submit-question", attemptID),
		SubmitQuestionRequest{QuestionNumber: "Q1", StudentAnswer: "first"})
	doJSON(t, app, fiber.MethodPost, fmt.Sprintf("/api/v1/attempts/%d/submit-question", attemptID),
		SubmitQuestionRequest{QuestionNumber: "Q2", StudentAnswer: "second"})

	resp, body := doJSON(t, app, fiber.MethodPost, fmt.Sprintf("/api/v1/attempts/%d/complete", attemptID), nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("complete status = %d, body %v", resp.StatusCode, body)
	}
	data := body["data"].(map[string]interface{})
	if data["total_score"].(float64) != 8 {
		t.Errorf("total_score = %v", data["total_score"])
	}
	if data["completed_at"] == nil {
		t.Error("completed_at not set")
	}
}

func TestRetakeOverHTTP(t *testing.T) {
	app, store, paper := newTestApp(t)

	_, body := doJSON(t, app, fiber.MethodPost, "/api/v1/attempts", CreateAttemptRequest{PaperID: paper.ID})
	attemptID := uint(body["data"].(map[string]interface{})["id"].(float64))

	_, body = doJSON(t, app, fiber.MethodPost, fmt.Sprintf("/api/v1/attempts/%d/submit-question", attemptID),
		SubmitQuestionRequest{QuestionNumber: "Q1", StudentAnswer: "first try"})
	responseID := uint(body["data"].(map[string]interface{})["id"].(float64))

	resp, _ := doJSON(t, app, fiber.MethodDelete, fmt.Sprintf("/api/v1/responses/%d", responseID), nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("retake status = %d", resp.StatusCode)
	}

	responses, err := store.GetResponses(attemptID)
	if err != nil {
		t.Fatalf("GetResponses: %v", err)
	}
	if len(responses) != 0 {
		t.Errorf("responses after retake = %d, want 0", len(responses))
	}

	resp, _ = doJSON(t, app, fiber.MethodPost, fmt.Sprintf("/api/v1/attempts/%d/submit-question", attemptID),
		SubmitQuestionRequest{QuestionNumber: "Q1", StudentAnswer: "second try"})
	if resp.StatusCode != fiber.StatusCreated {
		t.Errorf("resubmit after retake status = %d", resp.StatusCode)
	}
}
