package docintel

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docbench/internal/analyzer"
	"docbench/internal/config"
	"docbench/internal/domain"
	"docbench/internal/port"
)

const backendName = "document intelligence"

// Label identifies this backend in run requests and result mappings.
const Label = "docintel"

// Analyzer implements port.DocumentAnalyzer against the OCR+LLM service.
// Extraction submits the document inline as base64 and polls the returned
// operation; the description step sends the image to the chat endpoint
// independently, so it is attempted even when extraction fails.
type Analyzer struct {
	endpoint     string
	apiKey       string
	apiVersion   string
	defaultModel string
	describer    port.Describer
	client       *http.Client

	pollBudget   time.Duration
	pollInterval time.Duration
}

// NewAnalyzer creates an OCR+LLM analyzer.
func NewAnalyzer(cfg *config.DocIntelConfig, poll *config.PollConfig, describer port.Describer) *Analyzer {
	budget := poll.Timeout()
	if budget == 0 {
		budget = 300 * time.Second
	}
	interval := poll.Interval()
	if interval == 0 {
		interval = 5 * time.Second
	}
	model := cfg.DefaultModel
	if model == "" {
		model = "prebuilt-invoice"
	}
	return &Analyzer{
		endpoint:     strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:       cfg.APIKey,
		apiVersion:   cfg.APIVersion,
		defaultModel: model,
		describer:    describer,
		client:       &http.Client{Timeout: 60 * time.Second},
		pollBudget:   budget,
		pollInterval: interval,
	}
}

func (a *Analyzer) Label() string { return Label }

func (a *Analyzer) Analyze(ctx context.Context, input port.AnalyzeInput) *domain.AnalysisResult {
	start := time.Now()
	result := &domain.AnalysisResult{Status: domain.StatusSuccess}

	extractFailed := false
	raw, payload, err := a.extract(ctx, input)
	if err != nil {
		extractFailed = true
		result.Errors = append(result.Errors, err.Error())
	} else {
		result.RawResult = raw
		populate(result, payload)
	}

	desc, err := a.describer.DescribeImage(ctx, input.FileBytes, input.Filename, input.ContentType)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("description: %v", err))
		if extractFailed {
			result.Status = domain.StatusError
		} else {
			result.Status = domain.StatusPartial
		}
	} else {
		result.Description = desc
		if extractFailed {
			result.Status = domain.StatusPartial
		}
	}

	result.TimeSeconds = elapsedSince(start)
	return result
}

type analyzedDocument struct {
	Confidence *float64       `json:"confidence"`
	Fields     map[string]any `json:"fields"`
}

type operationResponse struct {
	Status        string          `json:"status"`
	Error         json.RawMessage `json:"error"`
	AnalyzeResult struct {
		Content   string             `json:"content"`
		Tables    []json.RawMessage  `json:"tables"`
		Documents []analyzedDocument `json:"documents"`
	} `json:"analyzeResult"`
}

// populate flattens the analyze result into the shared schema. Field
// values prefer raw content over typed value slots, matching how this
// backend reports recognized text.
func populate(result *domain.AnalysisResult, payload *operationResponse) {
	ar := payload.AnalyzeResult
	result.Markdown = ar.Content
	result.TablesCount = len(ar.Tables)

	fields := make(map[string]any)
	nativeFields := 0
	var confs []float64
	for _, doc := range ar.Documents {
		if doc.Confidence != nil {
			confs = append(confs, *doc.Confidence)
		}
		nativeFields += len(doc.Fields)
		for name, raw := range doc.Fields {
			f, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if c, ok := f["confidence"].(float64); ok {
				confs = append(confs, c)
			}
			if val, ok := fieldValue(f); ok {
				fields[name] = val
			}
		}
	}
	if len(fields) > 0 {
		result.Fields = fields
	}
	result.FieldCount = nativeFields
	result.FieldsWithValues = len(fields)
	if len(confs) > 0 {
		sum := 0.0
		for _, c := range confs {
			sum += c
		}
		avg := analyzer.Round(sum/float64(len(confs)), 4)
		result.AvgConfidence = &avg
	}
}

// fieldValue picks a display value for one backend-native field:
// recognized content first, then the typed value slots.
func fieldValue(f map[string]any) (any, bool) {
	if s, ok := f["content"].(string); ok && s != "" {
		return s, true
	}
	for _, slot := range []string{"valueString", "valueNumber", "valueDate", "valueCurrency", "value"} {
		if v, ok := f[slot]; ok && v != nil {
			if s, isStr := v.(string); isStr && s == "" {
				continue
			}
			return v, true
		}
	}
	return nil, false
}

func (a *Analyzer) extract(ctx context.Context, input port.AnalyzeInput) (json.RawMessage, *operationResponse, error) {
	opURL, err := a.submit(ctx, input)
	if err != nil {
		return nil, nil, err
	}
	return a.poll(ctx, opURL)
}

func (a *Analyzer) submit(ctx context.Context, input port.AnalyzeInput) (string, error) {
	model := input.AnalyzerID
	if model == "" {
		model = a.defaultModel
	}

	reqBody, err := json.Marshal(map[string]any{
		"base64Source": base64.StdEncoding.EncodeToString(input.FileBytes),
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	submitURL := fmt.Sprintf("%s/documentintelligence/documentModels/%s:analyze?api-version=%s&outputContentFormat=markdown",
		a.endpoint, model, a.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, submitURL, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("submitting analysis: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusAccepted {
		return "", analyzer.NewSubmissionError(backendName, resp.StatusCode, string(body))
	}

	opURL := resp.Header.Get("Operation-Location")
	if opURL == "" {
		return "", analyzer.NewSubmissionError(backendName, resp.StatusCode, "missing Operation-Location header")
	}
	return opURL, nil
}

func (a *Analyzer) poll(ctx context.Context, opURL string) (json.RawMessage, *operationResponse, error) {
	deadline := time.Now().Add(a.pollBudget)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-time.After(a.pollInterval):
		}

		raw, payload, err := a.pollOnce(ctx, opURL)
		if err != nil {
			return nil, nil, err
		}

		switch strings.ToLower(payload.Status) {
		case "succeeded":
			return raw, payload, nil
		case "failed", "canceled":
			detail := string(payload.Error)
			if detail == "" {
				detail = payload.Status
			}
			return nil, nil, &analyzer.RemoteError{Backend: backendName, Detail: detail}
		}
	}
	return nil, nil, &analyzer.TimeoutError{Backend: backendName, Budget: a.pollBudget}
}

func (a *Analyzer) pollOnce(ctx context.Context, opURL string) (json.RawMessage, *operationResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, http.NoBody)
	if err != nil {
		return nil, nil, fmt.Errorf("creating poll request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("polling operation: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading poll response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("poll error (status %d): %s", resp.StatusCode, analyzer.Truncate(string(body), 500))
	}

	var payload operationResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, nil, fmt.Errorf("unmarshaling poll response: %w", err)
	}
	return body, &payload, nil
}

func elapsedSince(start time.Time) float64 {
	return analyzer.Round(time.Since(start).Seconds(), 2)
}
