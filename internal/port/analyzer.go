package port

import (
	"context"

	"docbench/internal/domain"
)

// AnalyzeInput carries one document into an analyzer call.
type AnalyzeInput struct {
	FileBytes   []byte
	Filename    string
	AnalyzerID  string
	ContentType string
}

// DocumentAnalyzer wraps one remote document-understanding backend.
// Analyze never returns an error: all failures, including submission
// rejections, poll timeouts, and remote cancellations, are folded into
// the returned result's status and errors fields. TimeSeconds always
// reflects the full wall-clock time of the call.
type DocumentAnalyzer interface {
	Label() string
	Analyze(ctx context.Context, input AnalyzeInput) *domain.AnalysisResult
}
