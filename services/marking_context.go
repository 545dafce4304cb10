package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/examvault/api/database"
	"github.com/examvault/api/model"
	"github.com/examvault/api/services/spaces"
)

// MarkingContextProvider supplies the question text and mark scheme text for
// a question so the marker sees what was actually asked. Implementations are
// best-effort; empty strings mean no context could be recovered.
type MarkingContextProvider interface {
	QuestionContext(ctx context.Context, paper *model.Paper, questionNumber string) (questionText, markSchemeText string)
}

// PageContextService recovers marking context from the ingested PDFs using
// the page maps the pipeline produced: it downloads the paper and mark scheme
// documents, then extracts the text of the pages mapped to the question.
// Archived documents are read back from Spaces; anything else is fetched over
// HTTP. Downloaded documents are cached, so mark-all reads each PDF once.
type PageContextService struct {
	store        database.Storage
	extractor    *PDFExtractor
	spacesClient *spaces.Client
	httpClient   *http.Client

	mu    sync.Mutex
	cache map[string][]byte

	// fetch retrieves a document over HTTP; replaceable in tests
	fetch func(ctx context.Context, url string) ([]byte, error)
}

// NewPageContextService creates a new page context service. spacesClient may
// be nil; all documents are then fetched over HTTP.
func NewPageContextService(store database.Storage, spacesClient *spaces.Client) *PageContextService {
	s := &PageContextService{
		store:        store,
		extractor:    NewPDFExtractor(),
		spacesClient: spacesClient,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
		cache: make(map[string][]byte),
	}
	s.fetch = s.fetchHTTP
	return s
}

// QuestionContext returns the paper and mark scheme text for a question.
// Failures are logged and surface as empty strings so marking proceeds with
// whatever context is available.
func (s *PageContextService) QuestionContext(ctx context.Context, paper *model.Paper, questionNumber string) (string, string) {
	questionText := s.documentPageText(ctx, paper.PDFURL, questionNumber, func() ([]pageMap, error) {
		pages, err := s.store.GetPaperPages(paper.ID)
		if err != nil {
			return nil, err
		}
		maps := make([]pageMap, len(pages))
		for i := range pages {
			maps[i] = pageMap{page: pages[i].PageNumber, question: pages[i].QuestionNumber}
		}
		return maps, nil
	})

	markSchemeText := s.documentPageText(ctx, paper.MarkSchemeURL, questionNumber, func() ([]pageMap, error) {
		pages, err := s.store.GetMarkSchemePages(paper.ID)
		if err != nil {
			return nil, err
		}
		maps := make([]pageMap, len(pages))
		for i := range pages {
			maps[i] = pageMap{page: pages[i].PageNumber, question: pages[i].QuestionNumber}
		}
		return maps, nil
	})

	return questionText, markSchemeText
}

// pageMap is one row of a page-to-question map, shared between paper and
// mark scheme documents
type pageMap struct {
	page     int
	question string
}

func (s *PageContextService) documentPageText(ctx context.Context, url, questionNumber string, load func() ([]pageMap, error)) string {
	pages, err := load()
	if err != nil {
		log.Printf("PageContext: failed to load page map: %v", err)
		return ""
	}

	start, end, ok := questionPageRange(pages, questionNumber)
	if !ok {
		return ""
	}

	content, err := s.getDocument(ctx, url)
	if err != nil {
		log.Printf("PageContext: failed to fetch document %s: %v", url, err)
		return ""
	}

	text, err := s.extractor.ExtractPageRange(content, start, end)
	if err != nil {
		log.Printf("PageContext: failed to extract pages %d-%d: %v", start, end, err)
		return ""
	}
	return text
}

// questionPageRange returns the first and last page mapped to the question
// number; a question spanning several pages yields the whole span.
func questionPageRange(pages []pageMap, questionNumber string) (start, end int, ok bool) {
	for i := range pages {
		if pages[i].question != questionNumber {
			continue
		}
		page := pages[i].page
		if !ok || page < start {
			start = page
		}
		if page > end {
			end = page
		}
		ok = true
	}
	return start, end, ok
}

// getDocument returns the PDF bytes for a URL, reading archived documents
// from Spaces by key and everything else over HTTP. Results are cached.
func (s *PageContextService) getDocument(ctx context.Context, url string) ([]byte, error) {
	s.mu.Lock()
	if content, hit := s.cache[url]; hit {
		s.mu.Unlock()
		return content, nil
	}
	s.mu.Unlock()

	var content []byte
	var err error
	if s.spacesClient != nil {
		if key, archived := s.spacesClient.KeyFromURL(url); archived {
			content, err = s.spacesClient.DownloadFile(ctx, key)
		} else {
			content, err = s.fetch(ctx, url)
		}
	} else {
		content, err = s.fetch(ctx, url)
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[url] = content
	s.mu.Unlock()
	return content, nil
}

func (s *PageContextService) fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxPDFDownloadBytes))
}
