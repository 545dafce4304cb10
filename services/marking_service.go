package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/examvault/api/model"
	"github.com/examvault/api/services/inference"
	"github.com/examvault/api/utils"
)

// MarkingResult is the outcome of marking one student answer
type MarkingResult struct {
	AwardedMarks    int              `json:"awardedMarks"`
	Feedback        string           `json:"feedback"`
	ImprovementTips []string         `json:"improvementTips"`
	Confidence      model.Confidence `json:"confidence"`
}

// Marker marks student answers. Marking never fails outright: when the AI
// marker is unavailable or returns garbage, callers receive the manual-review
// fallback result instead of an error.
type Marker interface {
	MarkAnswer(ctx context.Context, studentAnswer string, maxMarks int, questionInstructions, markSchemeExcerpt string) *MarkingResult
}

// FallbackMarkingResult returns the result recorded when automatic marking
// fails and the answer needs human attention
func FallbackMarkingResult() *MarkingResult {
	return &MarkingResult{
		AwardedMarks:    0,
		Feedback:        "Unable to automatically mark this answer. Please review manually.",
		ImprovementTips: []string{"This answer requires manual review."},
		Confidence:      model.ConfidenceLow,
	}
}

var markingSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"awardedMarks": map[string]any{
			"type":        "integer",
			"description": "Marks awarded, between 0 and the maximum",
		},
		"feedback": map[string]any{
			"type":        "string",
			"description": "Brief feedback explaining the marks awarded",
		},
		"improvementTips": map[string]any{
			"type":        "array",
			"description": "2-3 specific improvement tips for the student",
			"items":       map[string]any{"type": "string"},
		},
		"confidence": map[string]any{
			"type":        "string",
			"description": "Confidence in this marking",
			"enum":        []string{"low", "medium", "high"},
		},
	},
	"required": []string{"awardedMarks", "feedback", "improvementTips", "confidence"},
}

const markingSystemPrompt = `You are an expert exam marker for GCSE and A-Level examinations. Your task is to mark a student's answer fairly and accurately.

Be strict but fair. Award marks for correct methodology, accurate answers, and clear working. Deduct marks for missing steps, incorrect calculations, or unclear explanations.`

// MarkingService marks answers through the inference API
type MarkingService struct {
	client  *inference.Client
	timeout time.Duration
}

// NewMarkingService creates a new marking service
func NewMarkingService(client *inference.Client) *MarkingService {
	return &MarkingService{
		client:  client,
		timeout: 2 * time.Minute,
	}
}

// MarkAnswer marks one student answer against the question's instructions
// and mark scheme guidance. On any failure the manual-review fallback is
// returned.
func (s *MarkingService) MarkAnswer(ctx context.Context, studentAnswer string, maxMarks int, questionInstructions, markSchemeExcerpt string) *MarkingResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	userPrompt := buildMarkingPrompt(studentAnswer, maxMarks, questionInstructions, markSchemeExcerpt)

	response, err := s.client.StructuredCompletion(
		ctx,
		markingSystemPrompt,
		userPrompt,
		"marking_result",
		"Marks, feedback and improvement tips for a student's answer",
		markingSchema,
		inference.WithTemperature(0.3),
	)
	if err != nil {
		log.Printf("MarkingService: marking failed, falling back to manual review: %v", err)
		return FallbackMarkingResult()
	}

	var result MarkingResult
	if err := utils.ExtractJSONTo(response, &result); err != nil {
		log.Printf("MarkingService: failed to parse marking response, falling back to manual review: %v", err)
		return FallbackMarkingResult()
	}

	// Clamp awarded marks into the valid range. A zero maxMarks means the
	// question has no curated mark ceiling; only the lower bound applies.
	if result.AwardedMarks < 0 {
		result.AwardedMarks = 0
	}
	if maxMarks > 0 && result.AwardedMarks > maxMarks {
		result.AwardedMarks = maxMarks
	}

	// Normalize confidence; unknown values route to the moderation queue
	switch result.Confidence {
	case model.ConfidenceLow, model.ConfidenceMedium, model.ConfidenceHigh:
	default:
		result.Confidence = model.ConfidenceLow
	}

	if len(result.ImprovementTips) == 0 {
		result.ImprovementTips = []string{}
	}

	return &result
}

func buildMarkingPrompt(studentAnswer string, maxMarks int, questionInstructions, markSchemeExcerpt string) string {
	prompt := fmt.Sprintf("Question Instructions:\n%s\n\n", questionInstructions)

	if maxMarks > 0 {
		prompt += fmt.Sprintf("Maximum Marks: %d\n\n", maxMarks)
	}

	if markSchemeExcerpt != "" {
		prompt += fmt.Sprintf("Mark Scheme Guidance:\n%s\n\n", markSchemeExcerpt)
	}

	prompt += fmt.Sprintf("Student's Answer:\n%s\n\nPlease provide:\n", studentAnswer)
	if maxMarks > 0 {
		prompt += fmt.Sprintf("1. The awarded marks (0 to %d)\n", maxMarks)
	} else {
		prompt += "1. The awarded marks\n"
	}
	prompt += `2. Brief feedback explaining the marks awarded
3. 2-3 specific improvement tips for the student
4. Your confidence level in this marking (low/medium/high)`

	return prompt
}
