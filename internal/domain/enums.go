package domain

// AnalysisStatus is the outcome of one analyzer call.
type AnalysisStatus string

const (
	// StatusSuccess means extraction and description both completed.
	StatusSuccess AnalysisStatus = "success"
	// StatusPartial means extraction produced content but an auxiliary
	// step (the LLM description) failed.
	StatusPartial AnalysisStatus = "partial"
	// StatusError means extraction failed outright.
	StatusError AnalysisStatus = "error"
)

// PrebuiltAnalyzers maps analyzer IDs to human-readable descriptions.
// The same ID is applied to both structured-extraction backends.
var PrebuiltAnalyzers = map[string]string{
	"prebuilt-invoice": "Invoice — extracts structured fields from invoices",
	"prebuilt-layout":  "Layout — extracts tables, figures, and document structure",
	"prebuilt-read":    "Read — OCR for printed and handwritten text",
}

// DefaultAnalyzerID is used when a run does not name an analyzer.
const DefaultAnalyzerID = "prebuilt-invoice"
