package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"docbench/internal/domain"
)

var summaryColumns = []string{
	"Pipeline",
	"Success Rate",
	"Avg Time (s)",
	"Avg Fields",
	"Avg Confidence",
}

var documentColumns = []string{
	"Document",
	"Pipeline",
	"Status",
	"Time (s)",
	"Fields Extracted",
	"Total Fields",
	"Tables Detected",
	"Avg Confidence",
	"Markdown Length",
	"Errors",
}

// XLSX renders the run as a two-sheet workbook: an aggregate Summary sheet
// and a Documents sheet with one row per document/backend pair.
func XLSX(run *domain.BenchmarkRun) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const summarySheet = "Summary"
	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return nil, fmt.Errorf("renaming summary sheet: %w", err)
	}
	if err := writeSummarySheet(f, summarySheet, run); err != nil {
		return nil, err
	}

	const documentsSheet = "Documents"
	if _, err := f.NewSheet(documentsSheet); err != nil {
		return nil, fmt.Errorf("creating documents sheet: %w", err)
	}
	if err := writeDocumentsSheet(f, documentsSheet, run); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummarySheet(f *excelize.File, sheet string, run *domain.BenchmarkRun) error {
	meta := [][]any{
		{"Run ID", run.ID.String()},
		{"Analyzer", run.AnalyzerID},
		{"Created At", formatTimestamp(run.CreatedAt)},
		{"Documents", len(run.Records)},
	}
	row := 1
	for _, pair := range meta {
		if err := writeRow(f, sheet, row, pair); err != nil {
			return err
		}
		row++
	}
	row++ // blank separator

	header := make([]any, len(summaryColumns))
	for i, c := range summaryColumns {
		header[i] = c
	}
	if err := writeRow(f, sheet, row, header); err != nil {
		return err
	}
	row++

	for _, label := range run.Backends {
		summary, ok := run.Summary[label]
		if !ok {
			continue
		}
		values := []any{
			label,
			summary.SuccessRate,
			summary.AvgTimeSeconds,
			summary.AvgFields,
			confidenceCell(summary.AvgConfidence),
		}
		if err := writeRow(f, sheet, row, values); err != nil {
			return err
		}
		row++
	}
	return nil
}

func writeDocumentsSheet(f *excelize.File, sheet string, run *domain.BenchmarkRun) error {
	header := make([]any, len(documentColumns))
	for i, c := range documentColumns {
		header[i] = c
	}
	if err := writeRow(f, sheet, 1, header); err != nil {
		return err
	}

	row := 2
	for _, record := range run.Records {
		for _, cr := range record.Comparison {
			var errorsCell string
			if res := record.Results[cr.Pipeline]; res != nil && len(res.Errors) > 0 {
				errorsCell = res.Errors[0]
				if len(res.Errors) > 1 {
					errorsCell = fmt.Sprintf("%s (+%d more)", errorsCell, len(res.Errors)-1)
				}
			}
			values := []any{
				record.Filename,
				cr.Pipeline,
				cr.Status,
				cr.TimeSeconds,
				cr.FieldsExtracted,
				cr.TotalFields,
				cr.TablesDetected,
				confidenceCell(cr.AvgConfidence),
				cr.MarkdownLength,
				errorsCell,
			}
			if err := writeRow(f, sheet, row, values); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("computing cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("writing row %d on %s: %w", row, sheet, err)
	}
	return nil
}

func confidenceCell(c *float64) any {
	if c == nil {
		return "N/A"
	}
	return *c
}
