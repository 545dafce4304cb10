package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/examvault/api/model"
	"github.com/examvault/api/services/inference"
)

// markingServer returns an inference stub that always replies with the given
// marking result content
func markingServer(t *testing.T, content string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func newMarkingService(baseURL string) *MarkingService {
	return NewMarkingService(inference.NewClient(inference.Config{
		APIKey:  "test-key",
		BaseURL: baseURL,
	}))
}

func TestMarkAnswerParsesResult(t *testing.T) {
	content := `{"awardedMarks": 4, "feedback": "Good method, arithmetic slip at the end.", "improvementTips": ["Check the final calculation"], "confidence": "high"}`
	server := markingServer(t, content, http.StatusOK)
	defer server.Close()

	svc := newMarkingService(server.URL)
	result := svc.MarkAnswer(context.Background(), "x = 4", 6, "Solve for x", "")

	if result.AwardedMarks != 4 {
		t.Errorf("AwardedMarks = %d, want 4", result.AwardedMarks)
	}
	if result.Confidence != model.ConfidenceHigh {
		t.Errorf("Confidence = %q, want high", result.Confidence)
	}
	if len(result.ImprovementTips) != 1 {
		t.Errorf("ImprovementTips = %v, want 1 tip", result.ImprovementTips)
	}
}

func TestMarkAnswerFallbackOnServerError(t *testing.T) {
	server := markingServer(t, "", http.StatusInternalServerError)
	defer server.Close()

	svc := newMarkingService(server.URL)
	result := svc.MarkAnswer(context.Background(), "answer", 5, "instructions", "")

	want := FallbackMarkingResult()
	if result.AwardedMarks != want.AwardedMarks {
		t.Errorf("AwardedMarks = %d, want %d", result.AwardedMarks, want.AwardedMarks)
	}
	if result.Feedback != want.Feedback {
		t.Errorf("Feedback = %q, want %q", result.Feedback, want.Feedback)
	}
	if len(result.ImprovementTips) != 1 || result.ImprovementTips[0] != want.ImprovementTips[0] {
		t.Errorf("ImprovementTips = %v, want %v", result.ImprovementTips, want.ImprovementTips)
	}
	if result.Confidence != model.ConfidenceLow {
		t.Errorf("Confidence = %q, want low", result.Confidence)
	}
}

func TestMarkAnswerFallbackOnGarbageResponse(t *testing.T) {
	server := markingServer(t, "I cannot mark this answer, sorry!", http.StatusOK)
	defer server.Close()

	svc := newMarkingService(server.URL)
	result := svc.MarkAnswer(context.Background(), "answer", 5, "instructions", "")

	if result.Feedback != "Unable to automatically mark this answer. Please review manually." {
		t.Errorf("expected fallback feedback, got %q", result.Feedback)
	}
}

func TestMarkAnswerClampsMarks(t *testing.T) {
	cases := []struct {
		awarded  int
		maxMarks int
		want     int
	}{
		{12, 10, 10},
		{-3, 10, 0},
		{7, 10, 7},
		{12, 0, 12}, // no curated ceiling, only the lower bound applies
	}

	for _, tc := range cases {
		content := fmt.Sprintf(`{"awardedMarks": %d, "feedback": "f", "improvementTips": [], "confidence": "medium"}`, tc.awarded)
		server := markingServer(t, content, http.StatusOK)

		svc := newMarkingService(server.URL)
		result := svc.MarkAnswer(context.Background(), "answer", tc.maxMarks, "", "")
		server.Close()

		if result.AwardedMarks != tc.want {
			t.Errorf("awarded %d with max %d: got %d, want %d", tc.awarded, tc.maxMarks, result.AwardedMarks, tc.want)
		}
	}
}

func TestMarkAnswerNormalizesUnknownConfidence(t *testing.T) {
	content := `{"awardedMarks": 2, "feedback": "ok", "improvementTips": [], "confidence": "very sure"}`
	server := markingServer(t, content, http.StatusOK)
	defer server.Close()

	svc := newMarkingService(server.URL)
	result := svc.MarkAnswer(context.Background(), "answer", 5, "", "")

	if result.Confidence != model.ConfidenceLow {
		t.Errorf("Confidence = %q, want low for unknown values", result.Confidence)
	}
}
