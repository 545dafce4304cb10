package pdfvalidation

import (
	"bytes"
	"strings"
	"testing"
)

func TestValidatePDFBytesRejectsOversized(t *testing.T) {
	limits := PDFLimits{MaxFileSizeMB: 1, MaxPages: 10, DocumentTypeName: "exam paper"}
	content := make([]byte, 2*1024*1024)
	copy(content, []byte("%PDF-1.4"))

	result, err := ValidatePDFBytes(content, limits)
	if err != nil {
		t.Fatalf("ValidatePDFBytes: %v", err)
	}
	if result.Valid {
		t.Error("oversized PDF reported valid")
	}
	if !strings.Contains(result.Error, "exceeds maximum allowed size of 1MB") {
		t.Errorf("Error = %q", result.Error)
	}
	if result.FileSize != int64(len(content)) {
		t.Errorf("FileSize = %d", result.FileSize)
	}
}

func TestValidatePDFBytesRejectsMissingHeader(t *testing.T) {
	result, err := ValidatePDFBytes([]byte("<html>not a pdf</html>"), DefaultLimits)
	if err != nil {
		t.Fatalf("ValidatePDFBytes: %v", err)
	}
	if result.Valid {
		t.Error("non-PDF content reported valid")
	}
	if result.Error != "Invalid PDF file: missing PDF header" {
		t.Errorf("Error = %q", result.Error)
	}
}

func TestValidatePDFBytesRejectsUnparseable(t *testing.T) {
	result, err := ValidatePDFBytes([]byte("%PDF-1.4 truncated"), DefaultLimits)
	if err != nil {
		t.Fatalf("ValidatePDFBytes: %v", err)
	}
	if result.Valid {
		t.Error("truncated PDF reported valid")
	}
	if !strings.Contains(result.Error, "Failed to read PDF") {
		t.Errorf("Error = %q", result.Error)
	}
}

func TestSanitizePDFStripsTrailingGarbage(t *testing.T) {
	clean := []byte("%PDF-1.4\nsome objects\n%%EOF\n")
	dirty := append(append([]byte{}, clean...), []byte("<script>analytics</script>")...)

	got := SanitizePDF(dirty)
	if !bytes.Equal(got, clean) {
		t.Errorf("got %q, want %q", got, clean)
	}
}

func TestSanitizePDFKeepsCleanContent(t *testing.T) {
	clean := []byte("%PDF-1.4\nsome objects\n%%EOF\r\n")
	if got := SanitizePDF(clean); !bytes.Equal(got, clean) {
		t.Errorf("clean PDF was modified: %q", got)
	}
}

func TestSanitizePDFPassthrough(t *testing.T) {
	// Non-PDF content and content without an EOF marker pass through untouched.
	for _, content := range [][]byte{nil, []byte("not a pdf"), []byte("%PDF-1.4 no eof marker")} {
		if got := SanitizePDF(content); !bytes.Equal(got, content) {
			t.Errorf("SanitizePDF(%q) = %q", content, got)
		}
	}
}

func TestDocumentLimits(t *testing.T) {
	if ExamPaperLimits.DocumentTypeName != "exam paper" {
		t.Errorf("ExamPaperLimits.DocumentTypeName = %q", ExamPaperLimits.DocumentTypeName)
	}
	if MarkSchemeLimits.MaxPages <= ExamPaperLimits.MaxPages {
		t.Error("mark schemes should allow more pages than exam papers")
	}
}
