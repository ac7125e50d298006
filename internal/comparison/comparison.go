// Package comparison holds the pure reshaping functions that turn one
// document's per-backend results into comparison tables, and a batch of
// records into aggregate summary statistics.
package comparison

import (
	"encoding/json"
	"fmt"
	"sort"
	"unicode/utf8"

	"docbench/internal/analyzer"
	"docbench/internal/domain"
)

// missingValue marks a field a backend did not extract.
const missingValue = "—"

// maxDisplayLength caps field values in the field comparison table.
const maxDisplayLength = 100

// BuildComparisonTable builds one metrics row per backend that produced a
// result, sorted by pipeline label for determinism. Nil entries are skipped.
func BuildComparisonTable(results map[string]*domain.AnalysisResult) []domain.ComparisonRow {
	var rows []domain.ComparisonRow
	for label, res := range results {
		if res == nil {
			continue
		}
		rows = append(rows, domain.ComparisonRow{
			Pipeline:        label,
			Status:          string(res.Status),
			TimeSeconds:     res.TimeSeconds,
			FieldsExtracted: res.FieldsWithValues,
			TotalFields:     res.FieldCount,
			TablesDetected:  res.TablesCount,
			AvgConfidence:   res.AvgConfidence,
			MarkdownLength:  utf8.RuneCountInString(res.Markdown),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Pipeline < rows[j].Pipeline })
	return rows
}

// BuildFieldComparison builds a field-by-field table across backends. The
// field universe is the union of all backends' field names, in sorted
// order; a backend missing a field renders the placeholder sentinel.
func BuildFieldComparison(results map[string]*domain.AnalysisResult) map[string]map[string]string {
	fieldNames := make(map[string]bool)
	for _, res := range results {
		if res == nil {
			continue
		}
		for name := range res.Fields {
			fieldNames[name] = true
		}
	}
	if len(fieldNames) == 0 {
		return nil
	}

	sorted := make([]string, 0, len(fieldNames))
	for name := range fieldNames {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	comparison := make(map[string]map[string]string, len(sorted))
	for _, name := range sorted {
		row := make(map[string]string, len(results))
		for label, res := range results {
			if res == nil || res.Fields == nil {
				row[label] = missingValue
				continue
			}
			val, ok := res.Fields[name]
			if !ok {
				row[label] = missingValue
				continue
			}
			row[label] = DisplayValue(val)
		}
		comparison[name] = row
	}
	return comparison
}

// DisplayValue renders a field value for tabular display, truncating long
// strings and serializing structured values.
func DisplayValue(val any) string {
	switch v := val.(type) {
	case string:
		if r := []rune(v); len(r) > maxDisplayLength {
			return string(r[:maxDisplayLength]) + "…"
		}
		return v
	case map[string]any, []any:
		serialized, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		if r := []rune(string(serialized)); len(r) > maxDisplayLength {
			return string(r[:maxDisplayLength]) + "…"
		}
		return string(serialized) + "…"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// pipelineStats accumulates one backend's raw numbers across a batch.
type pipelineStats struct {
	times       []float64
	fields      []int
	confidences []float64
	successes   int
	total       int
}

// ComputeSummaryStats folds every record's per-backend result into a
// summary per backend. Partial results count as successes for averaging;
// only error results count as failures.
func ComputeSummaryStats(records []domain.DocumentRunRecord) map[string]domain.PipelineSummary {
	stats := make(map[string]*pipelineStats)
	for _, record := range records {
		for label, res := range record.Results {
			s, ok := stats[label]
			if !ok {
				s = &pipelineStats{}
				stats[label] = s
			}
			s.total++
			if res == nil || !res.Succeeded() {
				continue
			}
			s.successes++
			s.times = append(s.times, res.TimeSeconds)
			s.fields = append(s.fields, res.FieldsWithValues)
			if res.AvgConfidence != nil {
				s.confidences = append(s.confidences, *res.AvgConfidence)
			}
		}
	}

	summary := make(map[string]domain.PipelineSummary, len(stats))
	for label, s := range stats {
		entry := domain.PipelineSummary{
			SuccessRate: fmt.Sprintf("%d/%d", s.successes, s.total),
		}
		if len(s.times) > 0 {
			entry.AvgTimeSeconds = analyzer.Round(meanFloat(s.times), 2)
		}
		if len(s.fields) > 0 {
			entry.AvgFields = analyzer.Round(meanInt(s.fields), 1)
		}
		if len(s.confidences) > 0 {
			avg := analyzer.Round(meanFloat(s.confidences), 4)
			entry.AvgConfidence = &avg
		}
		summary[label] = entry
	}
	return summary
}

func meanFloat(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func meanInt(vals []int) float64 {
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return float64(sum) / float64(len(vals))
}
