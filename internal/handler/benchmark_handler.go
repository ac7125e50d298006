package handler

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docbench/internal/domain"
	"docbench/internal/export"
	"docbench/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// BenchmarkHandler handles benchmark run endpoints.
type BenchmarkHandler struct {
	benchmarkService service.BenchmarkService
}

// NewBenchmarkHandler creates a new BenchmarkHandler.
func NewBenchmarkHandler(benchmarkService service.BenchmarkService) *BenchmarkHandler {
	return &BenchmarkHandler{benchmarkService: benchmarkService}
}

// ListAnalyzers handles GET /api/v1/analyzers
// @Summary List available backends and prebuilt analyzers
// @Tags analyzers
// @Produce json
// @Success 200 {object} APIResponse
// @Router /analyzers [get]
func (h *BenchmarkHandler) ListAnalyzers(c *gin.Context) {
	RespondOK(c, gin.H{
		"backends":           h.benchmarkService.AvailableBackends(),
		"prebuilt_analyzers": domain.PrebuiltAnalyzers,
		"default_analyzer":   domain.DefaultAnalyzerID,
	})
}

// CreateRun handles POST /api/v1/benchmark/runs
// @Summary Run uploaded documents through the selected backends
// @Tags benchmark
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Documents to analyze (PDF, JPG, PNG, BMP, TIFF)"
// @Param backends formData string true "Comma-separated backend labels"
// @Param analyzer_id formData string false "Analyzer/model identifier passed to the backends"
// @Success 201 {object} APIResponse
// @Failure 400 {object} APIResponse "No documents, no backends, or unsupported file type"
// @Failure 413 {object} APIResponse "File too large"
// @Router /benchmark/runs [post]
func (h *BenchmarkHandler) CreateRun(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_FORM", "multipart form is required")
		return
	}

	var documents []service.DocumentInput
	for _, header := range form.File["files"] {
		f, err := header.Open()
		if err != nil {
			RespondError(c, http.StatusBadRequest, "UNREADABLE_FILE", fmt.Sprintf("cannot open %s", header.Filename))
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			RespondError(c, http.StatusBadRequest, "UNREADABLE_FILE", fmt.Sprintf("cannot read %s", header.Filename))
			return
		}
		documents = append(documents, service.DocumentInput{
			Filename: header.Filename,
			Bytes:    data,
		})
	}

	input := service.RunInput{
		AnalyzerID: c.PostForm("analyzer_id"),
		Backends:   splitBackends(c.PostFormArray("backends")),
		Documents:  documents,
	}

	run, err := h.benchmarkService.Run(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, run)
}

// splitBackends flattens form values, additionally splitting each on commas
// so both repeated fields and a single comma-separated field work.
func splitBackends(values []string) []string {
	var backends []string
	for _, v := range values {
		for _, label := range strings.Split(v, ",") {
			label = strings.TrimSpace(label)
			if label != "" {
				backends = append(backends, label)
			}
		}
	}
	return backends
}

// ListRuns handles GET /api/v1/benchmark/runs
// @Summary List stored benchmark runs
// @Tags benchmark
// @Produce json
// @Success 200 {object} APIResponse
// @Router /benchmark/runs [get]
func (h *BenchmarkHandler) ListRuns(c *gin.Context) {
	RespondOK(c, h.benchmarkService.ListRuns())
}

// GetRun handles GET /api/v1/benchmark/runs/:id
// @Summary Get a stored benchmark run with full results
// @Tags benchmark
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse "Run not found"
// @Router /benchmark/runs/{id} [get]
func (h *BenchmarkHandler) GetRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "run id must be a UUID")
		return
	}

	run, err := h.benchmarkService.GetRun(id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, run)
}

// ExportRun handles GET /api/v1/benchmark/runs/:id/export
// @Summary Download a benchmark run as JSON or XLSX
// @Tags benchmark
// @Produce json
// @Param id path string true "Run ID"
// @Param format query string false "Export format: json or xlsx" default(json)
// @Success 200 {file} file "Exported run"
// @Failure 404 {object} APIResponse "Run not found"
// @Router /benchmark/runs/{id}/export [get]
func (h *BenchmarkHandler) ExportRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "run id must be a UUID")
		return
	}

	run, err := h.benchmarkService.GetRun(id)
	if err != nil {
		HandleError(c, err)
		return
	}

	format := c.DefaultQuery("format", export.FormatJSON)
	var (
		data        []byte
		contentType string
	)
	switch format {
	case export.FormatJSON:
		data, err = export.JSON(run)
		contentType = "application/json"
	case export.FormatXLSX:
		data, err = export.XLSX(run)
		contentType = xlsxContentType
	default:
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be json or xlsx")
		return
	}
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(run, format)))
	c.Data(http.StatusOK, contentType, data)
}
