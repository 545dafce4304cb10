package services

import (
	"bytes"
	"fmt"
	"log"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/examvault/api/utils/pdfvalidation"
)

// PDFExtractor handles PDF text extraction using ledongthuc/pdf
type PDFExtractor struct{}

// NewPDFExtractor creates a new PDF extractor
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

func (p *PDFExtractor) open(content []byte) (*pdf.Reader, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("empty PDF content")
	}

	// Downloaded PDFs often carry trailing garbage after %%EOF
	content = pdfvalidation.SanitizePDF(content)

	reader := bytes.NewReader(content)
	pdfReader, err := pdf.NewReader(reader, int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse PDF: %w", err)
	}
	return pdfReader, nil
}

// extractPageText pulls text from one page, preferring row extraction for
// better structure preservation
func extractPageText(page pdf.Page) (string, bool) {
	if page.V.IsNull() {
		return "", false
	}

	rows, err := page.GetTextByRow()
	if err != nil {
		text, plainErr := page.GetPlainText(nil)
		if plainErr != nil {
			return "", false
		}
		return text, true
	}

	var textBuilder strings.Builder
	for _, row := range rows {
		var rowText strings.Builder
		for _, word := range row.Content {
			rowText.WriteString(word.S)
		}
		line := strings.TrimSpace(rowText.String())
		if line != "" {
			textBuilder.WriteString(line)
			textBuilder.WriteString("\n")
		}
	}
	return textBuilder.String(), true
}

// ExtractTextWithPageInfo extracts text with per-page markers. The markers
// let the extraction model report page numbers for its mappings.
func (p *PDFExtractor) ExtractTextWithPageInfo(content []byte) (string, error) {
	pdfReader, err := p.open(content)
	if err != nil {
		return "", err
	}

	numPages := pdfReader.NumPage()
	if numPages == 0 {
		return "", fmt.Errorf("PDF has no pages")
	}

	var textBuilder strings.Builder

	for i := 1; i <= numPages; i++ {
		textBuilder.WriteString(fmt.Sprintf("\n===== PAGE %d of %d =====\n\n", i, numPages))

		text, ok := extractPageText(pdfReader.Page(i))
		if !ok {
			textBuilder.WriteString("[Page content unavailable]\n")
			continue
		}
		textBuilder.WriteString(text)
	}

	extracted := strings.TrimSpace(textBuilder.String())
	if len(extracted) < 50 {
		return "", fmt.Errorf("insufficient text extracted from PDF (only %d characters) - PDF may be scanned/image-based and requires OCR", len(extracted))
	}

	log.Printf("PDF Extractor: Extracted %d characters from %d pages", len(extracted), numPages)

	return extracted, nil
}

// ExtractPageRange extracts text from a specific page range (1-indexed,
// inclusive). Used to feed only the cover pages to metadata extraction.
func (p *PDFExtractor) ExtractPageRange(content []byte, startPage, endPage int) (string, error) {
	pdfReader, err := p.open(content)
	if err != nil {
		return "", err
	}

	numPages := pdfReader.NumPage()
	if numPages == 0 {
		return "", fmt.Errorf("PDF has no pages")
	}

	if startPage < 1 {
		startPage = 1
	}
	if endPage > numPages {
		endPage = numPages
	}
	if startPage > endPage {
		return "", fmt.Errorf("invalid page range: start=%d, end=%d", startPage, endPage)
	}

	var textBuilder strings.Builder

	for i := startPage; i <= endPage; i++ {
		text, ok := extractPageText(pdfReader.Page(i))
		if !ok {
			log.Printf("PDF Extractor: Failed to extract page %d, skipping", i)
			continue
		}
		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	return strings.TrimSpace(textBuilder.String()), nil
}

// GetPageCount returns the total number of pages in the PDF
func (p *PDFExtractor) GetPageCount(content []byte) (int, error) {
	pdfReader, err := p.open(content)
	if err != nil {
		return 0, err
	}
	return pdfReader.NumPage(), nil
}
