package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"docbench/internal/analyzer"
	"docbench/internal/comparison"
	"docbench/internal/config"
	"docbench/internal/domain"
	"docbench/internal/port"
)

// DocumentInput is one uploaded document in a run request.
type DocumentInput struct {
	Filename string
	Bytes    []byte
}

// RunInput is the DTO for starting a benchmark run.
type RunInput struct {
	AnalyzerID string
	Backends   []string
	Documents  []DocumentInput
}

// BenchmarkService runs uploaded documents through the selected analysis
// backends and stores the results.
type BenchmarkService interface {
	Run(ctx context.Context, input RunInput) (*domain.BenchmarkRun, error)
	GetRun(id uuid.UUID) (*domain.BenchmarkRun, error)
	ListRuns() []domain.RunListing
	AvailableBackends() []string
}

type benchmarkService struct {
	registry *analyzer.Registry
	store    RunStore
	cfg      config.BenchmarkConfig
}

// NewBenchmarkService creates a new BenchmarkService implementation.
func NewBenchmarkService(registry *analyzer.Registry, store RunStore, cfg config.BenchmarkConfig) BenchmarkService {
	return &benchmarkService{
		registry: registry,
		store:    store,
		cfg:      cfg,
	}
}

func (s *benchmarkService) AvailableBackends() []string {
	return s.registry.Labels()
}

func (s *benchmarkService) GetRun(id uuid.UUID) (*domain.BenchmarkRun, error) {
	return s.store.Get(id)
}

func (s *benchmarkService) ListRuns() []domain.RunListing {
	return s.store.List()
}

// Run processes documents sequentially; within one document the selected
// backends run concurrently. One backend failing (or panicking) never
// aborts its siblings — failures become error results in the record.
func (s *benchmarkService) Run(ctx context.Context, input RunInput) (*domain.BenchmarkRun, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}

	selected, err := s.registry.Select(input.Backends)
	if err != nil {
		return nil, err
	}

	analyzerID := input.AnalyzerID
	if analyzerID == "" {
		analyzerID = s.cfg.DefaultAnalyzer
	}

	labels := make([]string, len(selected))
	for i, a := range selected {
		labels[i] = a.Label()
	}

	run := &domain.BenchmarkRun{
		ID:         uuid.New(),
		AnalyzerID: analyzerID,
		Backends:   labels,
		CreatedAt:  time.Now().UTC(),
	}

	log.Printf("benchmarkService: run %s started (documents=%d, backends=%v, analyzer=%s)",
		run.ID, len(input.Documents), labels, analyzerID)

	for _, doc := range input.Documents {
		record := s.processDocument(ctx, doc, analyzerID, selected)
		run.Records = append(run.Records, record)
	}

	run.Summary = comparison.ComputeSummaryStats(run.Records)
	s.store.Save(run)

	log.Printf("benchmarkService: run %s finished (documents=%d)", run.ID, len(run.Records))
	return run, nil
}

func (s *benchmarkService) validate(input RunInput) error {
	if len(input.Backends) == 0 {
		return domain.ErrNoBackendSelected
	}
	if len(input.Documents) == 0 {
		return domain.ErrNoDocuments
	}
	maxBytes := s.cfg.MaxFileSizeMB * 1024 * 1024
	for _, doc := range input.Documents {
		if !domain.SupportedExtension(doc.Filename) {
			return fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, doc.Filename)
		}
		if maxBytes > 0 && int64(len(doc.Bytes)) > maxBytes {
			return fmt.Errorf("%w: %s", domain.ErrFileTooLarge, doc.Filename)
		}
	}
	return nil
}

func (s *benchmarkService) processDocument(ctx context.Context, doc DocumentInput, analyzerID string, selected []port.DocumentAnalyzer) domain.DocumentRunRecord {
	analyzeInput := port.AnalyzeInput{
		FileBytes:   doc.Bytes,
		Filename:    doc.Filename,
		AnalyzerID:  analyzerID,
		ContentType: domain.MIMETypeOf(doc.Filename),
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]*domain.AnalysisResult, len(selected))
	)
	for _, a := range selected {
		wg.Add(1)
		go func(a port.DocumentAnalyzer) {
			defer wg.Done()
			res := s.analyzeSafely(ctx, a, analyzeInput)
			mu.Lock()
			results[a.Label()] = res
			mu.Unlock()
		}(a)
	}
	wg.Wait()

	for label, res := range results {
		log.Printf("benchmarkService: %s/%s -> %s (%.2fs, fields=%d)",
			doc.Filename, label, res.Status, res.TimeSeconds, res.FieldsWithValues)
	}

	return domain.DocumentRunRecord{
		Filename:        doc.Filename,
		Results:         results,
		Comparison:      comparison.BuildComparisonTable(results),
		FieldComparison: comparison.BuildFieldComparison(results),
	}
}

// analyzeSafely turns an analyzer panic into an error result so the other
// backends working on the same document still report.
func (s *benchmarkService) analyzeSafely(ctx context.Context, a port.DocumentAnalyzer, input port.AnalyzeInput) (result *domain.AnalysisResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("benchmarkService: analyzer %s panicked: %v", a.Label(), r)
			result = &domain.AnalysisResult{
				Status: domain.StatusError,
				Errors: []string{fmt.Sprintf("analyzer panic: %v", r)},
			}
		}
	}()
	return a.Analyze(ctx, input)
}
