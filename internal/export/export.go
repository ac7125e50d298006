// Package export renders a stored benchmark run as downloadable files:
// a JSON document that round-trips the full run, or an XLSX workbook
// with summary and per-document sheets.
package export

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"docbench/internal/domain"
)

// Format names accepted by the export endpoint.
const (
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Filename builds a download filename for a run export, e.g.
// "benchmark_20260830_1432.json".
func Filename(run *domain.BenchmarkRun, format string) string {
	stamp := run.CreatedAt.Format("20060102_1504")
	return sanitizeFilename(fmt.Sprintf("benchmark_%s.%s", stamp, format))
}

func sanitizeFilename(name string) string {
	return unsafeFilenameChars.ReplaceAllString(name, "_")
}

// JSON serializes the complete run, indented for human inspection. The
// output unmarshals back into an equivalent domain.BenchmarkRun.
func JSON(run *domain.BenchmarkRun) ([]byte, error) {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling run %s: %w", run.ID, err)
	}
	return data, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
