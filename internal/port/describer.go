package port

import "context"

// Describer produces a short LLM-generated description of a document.
// It backs the secondary summarization step each analyzer performs after
// extraction.
type Describer interface {
	// DescribeImage sends the document image itself for a vision summary.
	DescribeImage(ctx context.Context, fileBytes []byte, filename, contentType string) (string, error)
	// SummarizeText summarizes already-extracted OCR text.
	SummarizeText(ctx context.Context, text, filename string) (string, error)
}
