package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AnalysisResult is the normalized output every analyzer produces,
// regardless of how the remote backend shapes its response. Every
// Analyze call returns one of these, on success and on failure alike.
type AnalysisResult struct {
	Status           AnalysisStatus  `json:"status"`
	TimeSeconds      float64         `json:"time_seconds"`
	Markdown         string          `json:"markdown,omitempty"`
	Fields           map[string]any  `json:"fields,omitempty"`
	FieldCount       int             `json:"field_count"`
	FieldsWithValues int             `json:"fields_with_values"`
	TablesCount      int             `json:"tables_count"`
	AvgConfidence    *float64        `json:"avg_confidence,omitempty"`
	Description      string          `json:"description,omitempty"`
	Errors           []string        `json:"errors,omitempty"`
	RawResult        json.RawMessage `json:"raw_result,omitempty"`
}

// Succeeded reports whether the result counts toward aggregate averages.
// Partial degradation (extraction ok, description failed) still counts.
func (r *AnalysisResult) Succeeded() bool {
	return r.Status == StatusSuccess || r.Status == StatusPartial
}

// DocumentRunRecord holds the per-backend results for one processed
// document. Immutable once all selected analyzers have finished.
type DocumentRunRecord struct {
	Filename        string                       `json:"filename"`
	Results         map[string]*AnalysisResult   `json:"results"`
	Comparison      []ComparisonRow              `json:"comparison,omitempty"`
	FieldComparison map[string]map[string]string `json:"field_comparison,omitempty"`
}

// ComparisonRow is one line of the per-document pipeline comparison table.
type ComparisonRow struct {
	Pipeline        string   `json:"pipeline"`
	Status          string   `json:"status"`
	TimeSeconds     float64  `json:"time_seconds"`
	FieldsExtracted int      `json:"fields_extracted"`
	TotalFields     int      `json:"total_fields"`
	TablesDetected  int      `json:"tables_detected"`
	AvgConfidence   *float64 `json:"avg_confidence,omitempty"`
	MarkdownLength  int      `json:"markdown_length"`
}

// PipelineSummary aggregates one backend's results across a batch.
// AvgConfidence is nil when no document reported a confidence score.
type PipelineSummary struct {
	SuccessRate    string   `json:"success_rate"`
	AvgTimeSeconds float64  `json:"avg_time_seconds"`
	AvgFields      float64  `json:"avg_fields"`
	AvgConfidence  *float64 `json:"avg_confidence,omitempty"`
}

// BenchmarkRun is one complete benchmark over a batch of documents.
type BenchmarkRun struct {
	ID         uuid.UUID                  `json:"id"`
	AnalyzerID string                     `json:"analyzer_id"`
	Backends   []string                   `json:"backends"`
	CreatedAt  time.Time                  `json:"created_at"`
	Records    []DocumentRunRecord        `json:"records"`
	Summary    map[string]PipelineSummary `json:"summary,omitempty"`
}

// RunListing is the lightweight view of a stored run.
type RunListing struct {
	ID            uuid.UUID `json:"id"`
	AnalyzerID    string    `json:"analyzer_id"`
	CreatedAt     time.Time `json:"created_at"`
	DocumentCount int       `json:"document_count"`
	BackendCount  int       `json:"backend_count"`
}
