package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/examvault/api/database"
	"github.com/examvault/api/model"
	"github.com/examvault/api/services/spaces"
	"github.com/examvault/api/utils/pdfvalidation"
)

// maxPDFDownloadBytes caps how much of a source PDF is read
const maxPDFDownloadBytes = 60 * 1024 * 1024

// PaperProcessor runs the paper ingestion pipeline: download both PDFs,
// extract metadata and page mappings with AI, resolve taxonomy, persist the
// paper, then archive the PDFs. Progress is written to the processing job so
// clients can poll.
type PaperProcessor struct {
	store        database.Storage
	extractor    Extractor
	taxonomy     *TaxonomyService
	spacesClient *spaces.Client
	enableSpaces bool
	httpClient   *http.Client

	// fetch retrieves and validates a source PDF; replaceable in tests
	fetch func(ctx context.Context, url string, limits pdfvalidation.PDFLimits) ([]byte, error)
}

// NewPaperProcessor creates a new paper processor. spacesClient may be nil;
// archival is then skipped.
func NewPaperProcessor(store database.Storage, extractor Extractor, spacesClient *spaces.Client) *PaperProcessor {
	p := &PaperProcessor{
		store:        store,
		extractor:    extractor,
		taxonomy:     NewTaxonomyService(store),
		spacesClient: spacesClient,
		enableSpaces: spacesClient != nil,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
	p.fetch = p.downloadPDF
	return p
}

// ProcessAsync runs the pipeline in a background goroutine. Panics are
// contained so a bad job can never take the server down.
func (p *PaperProcessor) ProcessAsync(jobID uint) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PaperProcessor: panic while processing job %d: %v", jobID, r)
				p.failJob(jobID, fmt.Sprintf("internal error: %v", r))
			}
		}()

		if err := p.Process(context.Background(), jobID); err != nil {
			log.Printf("PaperProcessor: job %d failed: %v", jobID, err)
		}
	}()
}

// Process runs the ingestion pipeline for one job
func (p *PaperProcessor) Process(ctx context.Context, jobID uint) error {
	job, err := p.store.GetProcessingJob(jobID)
	if err != nil {
		return fmt.Errorf("job not found: %w", err)
	}

	if err := p.advance(jobID, model.JobUpdate{
		Status:      jobStatusPtr(model.JobStatusProcessing),
		CurrentStep: strPtr(model.StepExtractMetadata),
		Progress:    intPtr(10),
	}); err != nil {
		return err
	}

	// Download and validate both source documents before any AI calls
	paperPDF, err := p.fetch(ctx, job.PaperURL, pdfvalidation.ExamPaperLimits)
	if err != nil {
		p.failJob(jobID, fmt.Sprintf("failed to download paper PDF: %v", err))
		return err
	}

	schemePDF, err := p.fetch(ctx, job.MarkSchemeURL, pdfvalidation.MarkSchemeLimits)
	if err != nil {
		p.failJob(jobID, fmt.Sprintf("failed to download mark scheme PDF: %v", err))
		return err
	}

	metadata, err := p.extractor.ExtractPaperMetadata(ctx, paperPDF)
	if err != nil {
		p.failJob(jobID, err.Error())
		return err
	}

	if err := p.advance(jobID, model.JobUpdate{
		CurrentStep: strPtr(model.StepExtractPaperPages),
		Progress:    intPtr(30),
	}); err != nil {
		return err
	}

	paperMappings, err := p.extractor.ExtractPaperPageMapping(ctx, paperPDF)
	if err != nil {
		p.failJob(jobID, err.Error())
		return err
	}

	if err := p.advance(jobID, model.JobUpdate{
		CurrentStep: strPtr(model.StepExtractSchemePages),
		Progress:    intPtr(50),
	}); err != nil {
		return err
	}

	schemeMappings, err := p.extractor.ExtractMarkSchemePageMapping(ctx, schemePDF)
	if err != nil {
		p.failJob(jobID, err.Error())
		return err
	}

	if err := p.advance(jobID, model.JobUpdate{
		CurrentStep: strPtr(model.StepResolveTaxonomy),
		Progress:    intPtr(70),
	}); err != nil {
		return err
	}

	taxonomy, err := p.taxonomy.Resolve(metadata.Board, metadata.Level, metadata.Subject)
	if err != nil {
		p.failJob(jobID, err.Error())
		return err
	}

	if err := p.advance(jobID, model.JobUpdate{
		CurrentStep: strPtr(model.StepCreatePaper),
		Progress:    intPtr(80),
	}); err != nil {
		return err
	}

	paper := &model.Paper{
		SubjectID:     taxonomy.Subject.ID,
		BoardID:       taxonomy.Board.ID,
		LevelID:       taxonomy.Level.ID,
		Year:          metadata.Year,
		Title:         metadata.Title,
		Series:        metadata.Series,
		PaperCode:     metadata.PaperCode,
		Tier:          metadata.Tier,
		PDFURL:        job.PaperURL,
		MarkSchemeURL: job.MarkSchemeURL,
		QuestionCount: len(paperMappings),
		Status:        model.PaperStatusActive,
	}
	if err := p.store.CreatePaper(paper); err != nil {
		p.failJob(jobID, fmt.Sprintf("failed to create paper record: %v", err))
		return err
	}

	// PaperID is published before terminal completion so pollers can
	// redirect as soon as the paper exists
	if err := p.advance(jobID, model.JobUpdate{
		CurrentStep: strPtr(model.StepSavePageMappings),
		Progress:    intPtr(90),
		PaperID:     &paper.ID,
	}); err != nil {
		return err
	}

	for _, mapping := range paperMappings {
		page := &model.PaperPage{
			PaperID:        paper.ID,
			PageNumber:     mapping.PageNumber,
			QuestionNumber: mapping.QuestionNumber,
		}
		if err := p.store.CreatePaperPage(page); err != nil {
			p.failJob(jobID, fmt.Sprintf("failed to save page mapping: %v", err))
			return err
		}
	}

	for _, mapping := range schemeMappings {
		page := &model.MarkSchemePage{
			PaperID:        paper.ID,
			PageNumber:     mapping.PageNumber,
			QuestionNumber: mapping.QuestionNumber,
		}
		if err := p.store.CreateMarkSchemePage(page); err != nil {
			p.failJob(jobID, fmt.Sprintf("failed to save mark scheme page mapping: %v", err))
			return err
		}
	}

	// Best-effort archival; the paper keeps its source URLs if this fails
	p.archivePaper(ctx, paper, paperPDF, schemePDF)

	now := time.Now()
	return p.advance(jobID, model.JobUpdate{
		Status:      jobStatusPtr(model.JobStatusCompleted),
		CurrentStep: strPtr(model.StepComplete),
		Progress:    intPtr(100),
		CompletedAt: &now,
	})
}

// downloadPDF fetches a source PDF and validates it before processing
func (p *PaperProcessor) downloadPDF(ctx context.Context, url string, limits pdfvalidation.PDFLimits) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, maxPDFDownloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	result, err := pdfvalidation.ValidatePDFBytes(content, limits)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, fmt.Errorf("invalid %s: %s", limits.DocumentTypeName, result.Error)
	}

	return content, nil
}

// archivePaper uploads both PDFs to Spaces and points the paper at the
// archived copies. Failures are logged, never fatal.
func (p *PaperProcessor) archivePaper(ctx context.Context, paper *model.Paper, paperPDF, schemePDF []byte) {
	if !p.enableSpaces {
		return
	}

	paperURL, err := p.spacesClient.UploadBytes(ctx, spaces.PaperKey(paper.ID, "paper"), paperPDF, "application/pdf")
	if err != nil {
		log.Printf("PaperProcessor: failed to archive paper PDF for paper %d: %v", paper.ID, err)
		return
	}

	schemeURL, err := p.spacesClient.UploadBytes(ctx, spaces.PaperKey(paper.ID, "mark-scheme"), schemePDF, "application/pdf")
	if err != nil {
		log.Printf("PaperProcessor: failed to archive mark scheme PDF for paper %d: %v", paper.ID, err)
		return
	}

	if err := p.store.UpdatePaperURLs(paper.ID, paperURL, schemeURL); err != nil {
		log.Printf("PaperProcessor: failed to update archived URLs for paper %d: %v", paper.ID, err)
		return
	}

	paper.PDFURL = paperURL
	paper.MarkSchemeURL = schemeURL
}

// failJob marks a job failed with the given reason
func (p *PaperProcessor) failJob(jobID uint, reason string) {
	now := time.Now()
	err := p.updateJob(jobID, model.JobUpdate{
		Status:      jobStatusPtr(model.JobStatusFailed),
		Error:       &reason,
		CompletedAt: &now,
	})
	if err != nil {
		log.Printf("PaperProcessor: failed to mark job %d as failed: %v", jobID, err)
	}
}

// advance writes a progress milestone. A failed write fails the job instead
// of stranding it in processing until the janitor catches it.
func (p *PaperProcessor) advance(jobID uint, update model.JobUpdate) error {
	if err := p.updateJob(jobID, update); err != nil {
		p.failJob(jobID, fmt.Sprintf("failed to record progress: %v", err))
		return err
	}
	return nil
}

func (p *PaperProcessor) updateJob(jobID uint, update model.JobUpdate) error {
	return p.store.UpdateProcessingJob(jobID, update)
}

func jobStatusPtr(s model.ProcessingJobStatus) *model.ProcessingJobStatus { return &s }
func strPtr(s string) *string                                             { return &s }
func intPtr(n int) *int                                                   { return &n }
