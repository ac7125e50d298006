package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docbench/internal/domain"
	"docbench/internal/handler"
	"docbench/internal/service"
	"docbench/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func sampleRun() *domain.BenchmarkRun {
	return &domain.BenchmarkRun{
		ID:         uuid.New(),
		AnalyzerID: "prebuilt-invoice",
		Backends:   []string{"contentu"},
		CreatedAt:  time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
		Records: []domain.DocumentRunRecord{
			{
				Filename: "invoice.pdf",
				Results: map[string]*domain.AnalysisResult{
					"contentu": {Status: domain.StatusSuccess, TimeSeconds: 2.5},
				},
				Comparison: []domain.ComparisonRow{
					{Pipeline: "contentu", Status: "success", TimeSeconds: 2.5},
				},
			},
		},
		Summary: map[string]domain.PipelineSummary{
			"contentu": {SuccessRate: "1/1", AvgTimeSeconds: 2.5},
		},
	}
}

func multipartRun(t *testing.T, backends string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "invoice.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 test content"))
	require.NoError(t, err)
	if backends != "" {
		require.NoError(t, writer.WriteField("backends", backends))
	}
	require.NoError(t, writer.WriteField("analyzer_id", "prebuilt-invoice"))
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestBenchmarkHandler_CreateRun_Success(t *testing.T) {
	mockSvc := new(mocks.MockBenchmarkService)
	h := handler.NewBenchmarkHandler(mockSvc)

	run := sampleRun()
	mockSvc.On("Run", mock.Anything, mock.MatchedBy(func(input service.RunInput) bool {
		return input.AnalyzerID == "prebuilt-invoice" &&
			len(input.Backends) == 2 &&
			input.Backends[0] == "contentu" &&
			input.Backends[1] == "mistral" &&
			len(input.Documents) == 1 &&
			input.Documents[0].Filename == "invoice.pdf"
	})).Return(run, nil)

	body, contentType := multipartRun(t, "contentu, mistral")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/benchmark/runs", body)
	c.Request.Header.Set("Content-Type", contentType)

	h.CreateRun(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	mockSvc.AssertExpectations(t)
}

func TestBenchmarkHandler_CreateRun_NoForm(t *testing.T) {
	mockSvc := new(mocks.MockBenchmarkService)
	h := handler.NewBenchmarkHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/benchmark/runs", nil)

	h.CreateRun(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBenchmarkHandler_CreateRun_ServiceError(t *testing.T) {
	mockSvc := new(mocks.MockBenchmarkService)
	h := handler.NewBenchmarkHandler(mockSvc)
	mockSvc.On("Run", mock.Anything, mock.Anything).Return(nil, domain.ErrNoBackendSelected)

	body, contentType := multipartRun(t, "")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/benchmark/runs", body)
	c.Request.Header.Set("Content-Type", contentType)

	h.CreateRun(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NO_BACKEND_SELECTED", resp.Error.Code)
}

func TestBenchmarkHandler_GetRun_Success(t *testing.T) {
	mockSvc := new(mocks.MockBenchmarkService)
	h := handler.NewBenchmarkHandler(mockSvc)

	run := sampleRun()
	mockSvc.On("GetRun", run.ID).Return(run, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/benchmark/runs/"+run.ID.String(), nil)
	c.Params = gin.Params{{Key: "id", Value: run.ID.String()}}

	h.GetRun(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBenchmarkHandler_GetRun_InvalidID(t *testing.T) {
	mockSvc := new(mocks.MockBenchmarkService)
	h := handler.NewBenchmarkHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/benchmark/runs/not-a-uuid", nil)
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}

	h.GetRun(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBenchmarkHandler_GetRun_NotFound(t *testing.T) {
	mockSvc := new(mocks.MockBenchmarkService)
	h := handler.NewBenchmarkHandler(mockSvc)

	id := uuid.New()
	mockSvc.On("GetRun", id).Return(nil, domain.ErrRunNotFound)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/benchmark/runs/"+id.String(), nil)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.GetRun(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "RUN_NOT_FOUND", resp.Error.Code)
}

func TestBenchmarkHandler_ListRuns(t *testing.T) {
	mockSvc := new(mocks.MockBenchmarkService)
	h := handler.NewBenchmarkHandler(mockSvc)

	mockSvc.On("ListRuns").Return([]domain.RunListing{
		{ID: uuid.New(), AnalyzerID: "prebuilt-invoice", DocumentCount: 2, BackendCount: 3},
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/benchmark/runs", nil)

	h.ListRuns(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestBenchmarkHandler_ListAnalyzers(t *testing.T) {
	mockSvc := new(mocks.MockBenchmarkService)
	h := handler.NewBenchmarkHandler(mockSvc)

	mockSvc.On("AvailableBackends").Return([]string{"contentu", "docintel", "mistral"})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/analyzers", nil)

	h.ListAnalyzers(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]any)
	assert.Len(t, data["backends"], 3)
	assert.Equal(t, "prebuilt-invoice", data["default_analyzer"])
	assert.Contains(t, data["prebuilt_analyzers"], "prebuilt-layout")
}

func TestBenchmarkHandler_ExportRun_JSON(t *testing.T) {
	mockSvc := new(mocks.MockBenchmarkService)
	h := handler.NewBenchmarkHandler(mockSvc)

	run := sampleRun()
	mockSvc.On("GetRun", run.ID).Return(run, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/benchmark/runs/"+run.ID.String()+"/export?format=json", nil)
	c.Params = gin.Params{{Key: "id", Value: run.ID.String()}}

	h.ExportRun(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="benchmark_20260830_1000.json"`, w.Header().Get("Content-Disposition"))

	var decoded domain.BenchmarkRun
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	assert.Equal(t, run.ID, decoded.ID)
}

func TestBenchmarkHandler_ExportRun_XLSX(t *testing.T) {
	mockSvc := new(mocks.MockBenchmarkService)
	h := handler.NewBenchmarkHandler(mockSvc)

	run := sampleRun()
	mockSvc.On("GetRun", run.ID).Return(run, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/benchmark/runs/"+run.ID.String()+"/export?format=xlsx", nil)
	c.Params = gin.Params{{Key: "id", Value: run.ID.String()}}

	h.ExportRun(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestBenchmarkHandler_ExportRun_InvalidFormat(t *testing.T) {
	mockSvc := new(mocks.MockBenchmarkService)
	h := handler.NewBenchmarkHandler(mockSvc)

	run := sampleRun()
	mockSvc.On("GetRun", run.ID).Return(run, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/benchmark/runs/"+run.ID.String()+"/export?format=csv", nil)
	c.Params = gin.Params{{Key: "id", Value: run.ID.String()}}

	h.ExportRun(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
