package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/examvault/api/services/inference"
	"github.com/examvault/api/utils"
)

// PaperMetadata is the metadata extracted from an exam paper's cover pages
type PaperMetadata struct {
	Title     string `json:"title"`
	Board     string `json:"board"`
	Subject   string `json:"subject"`
	Level     string `json:"level"`
	Year      int    `json:"year"`
	Series    string `json:"series,omitempty"`
	PaperCode string `json:"paperCode,omitempty"`
	Tier      string `json:"tier,omitempty"`
}

// PageMapping maps one PDF page to the question that appears on it
type PageMapping struct {
	PageNumber     int    `json:"pageNumber"`
	QuestionNumber string `json:"questionNumber"`
}

// Extractor is the AI extraction surface the ingestion pipeline depends on
type Extractor interface {
	ExtractPaperMetadata(ctx context.Context, pdfContent []byte) (*PaperMetadata, error)
	ExtractPaperPageMapping(ctx context.Context, pdfContent []byte) ([]PageMapping, error)
	ExtractMarkSchemePageMapping(ctx context.Context, pdfContent []byte) ([]PageMapping, error)
}

const metadataExtractionPrompt = `You are an expert at reading UK exam papers. Analyze the text from the first few pages of an exam paper and extract the following metadata:
- Exam board (e.g., AQA, Edexcel, OCR, etc.)
- Subject (e.g., Mathematics, Physics, Psychology, etc.)
- Level (e.g., GCSE, A-Level)
- Year (e.g., 2024)
- Series (e.g., June, November - optional)
- Paper code (e.g., 7182/1, 8300/2H - optional)
- Tier (e.g., Higher, Foundation - optional if applicable)
- Title (create a descriptive title like "AQA A-Level Psychology Paper 1 2024 June")

Look at the header/footer information on the cover page and first few pages.`

const paperPageMappingPrompt = `You are an expert at reading UK exam papers. Analyze this exam paper text and create a mapping of page numbers to question numbers. Page boundaries are marked with "===== PAGE N of M =====" lines.

For each page that contains a question, identify which question number(s) appear on that page.
Use the question numbering from the paper (e.g., "Q1", "Q2", "Q3a", "Q3b", etc.).

If a page has multiple questions or sub-questions, use the first one that appears.
Skip cover pages, instruction pages, or blank pages.`

const markSchemePageMappingPrompt = `You are an expert at reading UK exam mark schemes. Analyze this mark scheme text and create a mapping of page numbers to question numbers. Page boundaries are marked with "===== PAGE N of M =====" lines.

For each page that contains marking criteria for a question, identify which question number the page corresponds to.
Use the question numbering from the mark scheme (e.g., "Q1", "Q2", "Q3a", "Q3b", etc.).

If a page has marking criteria for multiple questions, use the first one.
Skip cover pages, instruction pages, or blank pages.`

var metadataSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"title": map[string]any{
			"type":        "string",
			"description": "Descriptive title, e.g. \"AQA A-Level Psychology Paper 1 2024 June\"",
		},
		"board": map[string]any{
			"type":        "string",
			"description": "Exam board name (e.g., AQA, Edexcel, OCR)",
		},
		"subject": map[string]any{
			"type":        "string",
			"description": "Subject name (e.g., Mathematics, Physics, Psychology)",
		},
		"level": map[string]any{
			"type":        "string",
			"description": "Qualification level (GCSE or A-Level)",
		},
		"year": map[string]any{
			"type":        "integer",
			"description": "Examination year (e.g., 2024)",
		},
		"series": map[string]any{
			"type":        "string",
			"description": "Exam series if present (e.g., June, November)",
		},
		"paperCode": map[string]any{
			"type":        "string",
			"description": "Paper code if present (e.g., 7182/1, 8300/2H)",
		},
		"tier": map[string]any{
			"type":        "string",
			"description": "Tier if applicable (e.g., Higher, Foundation)",
		},
	},
	"required": []string{"title", "board", "subject", "level", "year"},
}

var pageMappingSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"mappings": map[string]any{
			"type":        "array",
			"description": "One entry per page that contains a question",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"pageNumber": map[string]any{
						"type":        "integer",
						"description": "1-indexed page number in the PDF",
					},
					"questionNumber": map[string]any{
						"type":        "string",
						"description": "Question number on that page (e.g., Q1, Q3a)",
					},
				},
				"required": []string{"pageNumber", "questionNumber"},
			},
		},
	},
	"required": []string{"mappings"},
}

// metadataCoverPages is how many leading pages are fed to metadata extraction
const metadataCoverPages = 4

// maxExtractionChars bounds the text sent to the model
const maxExtractionChars = 50000

// ExtractionService implements Extractor using the inference API plus local
// PDF text extraction
type ExtractionService struct {
	client       *inference.Client
	pdfExtractor *PDFExtractor
	timeout      time.Duration
}

// NewExtractionService creates a new extraction service
func NewExtractionService(client *inference.Client) *ExtractionService {
	return &ExtractionService{
		client:       client,
		pdfExtractor: NewPDFExtractor(),
		timeout:      3 * time.Minute,
	}
}

// ExtractPaperMetadata extracts board/subject/level/year metadata from the
// paper's cover pages
func (s *ExtractionService) ExtractPaperMetadata(ctx context.Context, pdfContent []byte) (*PaperMetadata, error) {
	coverText, err := s.pdfExtractor.ExtractPageRange(pdfContent, 1, metadataCoverPages)
	if err != nil {
		return nil, fmt.Errorf("failed to extract cover pages: %w", err)
	}
	if strings.TrimSpace(coverText) == "" {
		return nil, fmt.Errorf("no text found on cover pages - PDF may be scanned/image-based")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	userPrompt := fmt.Sprintf("Exam paper text (first %d pages):\n\n%s", metadataCoverPages, truncateText(coverText))

	response, err := s.client.StructuredCompletion(
		ctx,
		metadataExtractionPrompt,
		userPrompt,
		"paper_metadata",
		"Metadata extracted from an exam paper's cover pages",
		metadataSchema,
		inference.WithTemperature(0.2),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to extract paper metadata from PDF: %w", err)
	}

	var metadata PaperMetadata
	if err := utils.ExtractJSONTo(response, &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metadata response: %w", err)
	}

	if err := validateMetadata(&metadata); err != nil {
		return nil, err
	}

	log.Printf("ExtractionService: Extracted metadata: %s %s %s %d", metadata.Board, metadata.Level, metadata.Subject, metadata.Year)
	return &metadata, nil
}

// ExtractPaperPageMapping maps the paper's pages to question numbers
func (s *ExtractionService) ExtractPaperPageMapping(ctx context.Context, pdfContent []byte) ([]PageMapping, error) {
	mappings, err := s.extractPageMapping(ctx, pdfContent, paperPageMappingPrompt, "paper_page_mapping")
	if err != nil {
		return nil, fmt.Errorf("failed to extract page-to-question mapping from PDF: %w", err)
	}
	return mappings, nil
}

// ExtractMarkSchemePageMapping maps the mark scheme's pages to question numbers
func (s *ExtractionService) ExtractMarkSchemePageMapping(ctx context.Context, pdfContent []byte) ([]PageMapping, error) {
	mappings, err := s.extractPageMapping(ctx, pdfContent, markSchemePageMappingPrompt, "mark_scheme_page_mapping")
	if err != nil {
		return nil, fmt.Errorf("failed to extract page-to-question mapping from mark scheme PDF: %w", err)
	}
	return mappings, nil
}

func (s *ExtractionService) extractPageMapping(ctx context.Context, pdfContent []byte, systemPrompt, schemaName string) ([]PageMapping, error) {
	pagedText, err := s.pdfExtractor.ExtractTextWithPageInfo(pdfContent)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	userPrompt := fmt.Sprintf("Document text with page markers:\n\n%s", truncateText(pagedText))

	response, err := s.client.StructuredCompletion(
		ctx,
		systemPrompt,
		userPrompt,
		schemaName,
		"Mapping of PDF page numbers to question numbers",
		pageMappingSchema,
		inference.WithTemperature(0.2),
		inference.WithMaxTokens(8192),
	)
	if err != nil {
		return nil, err
	}

	var result struct {
		Mappings []PageMapping `json:"mappings"`
	}
	if err := utils.ExtractJSONTo(response, &result); err != nil {
		return nil, fmt.Errorf("failed to parse page mapping response: %w", err)
	}

	return sanitizeMappings(result.Mappings), nil
}

// truncateText bounds text sent to the model
func truncateText(text string) string {
	if len(text) > maxExtractionChars {
		return text[:maxExtractionChars] + "\n\n[Document truncated due to length]"
	}
	return text
}

// validateMetadata rejects extraction results that are missing the fields the
// pipeline needs for taxonomy resolution
func validateMetadata(m *PaperMetadata) error {
	m.Title = strings.TrimSpace(m.Title)
	m.Board = strings.TrimSpace(m.Board)
	m.Subject = strings.TrimSpace(m.Subject)
	m.Level = strings.TrimSpace(m.Level)

	switch {
	case m.Title == "":
		return fmt.Errorf("metadata extraction returned an empty title")
	case m.Board == "":
		return fmt.Errorf("metadata extraction returned an empty board")
	case m.Subject == "":
		return fmt.Errorf("metadata extraction returned an empty subject")
	case m.Level == "":
		return fmt.Errorf("metadata extraction returned an empty level")
	case m.Year < 1990 || m.Year > time.Now().Year()+1:
		return fmt.Errorf("metadata extraction returned an implausible year: %d", m.Year)
	}
	return nil
}

// sanitizeMappings drops malformed entries and duplicate pages. When the
// model reports the same page twice the first entry wins.
func sanitizeMappings(mappings []PageMapping) []PageMapping {
	seen := make(map[int]bool, len(mappings))
	cleaned := make([]PageMapping, 0, len(mappings))

	for _, m := range mappings {
		m.QuestionNumber = strings.TrimSpace(m.QuestionNumber)
		if m.PageNumber < 1 || m.QuestionNumber == "" {
			continue
		}
		if seen[m.PageNumber] {
			continue
		}
		seen[m.PageNumber] = true
		cleaned = append(cleaned, m)
	}

	return cleaned
}
