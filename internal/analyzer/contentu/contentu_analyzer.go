package contentu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"docbench/internal/analyzer"
	"docbench/internal/config"
	"docbench/internal/domain"
	"docbench/internal/port"
)

const backendName = "content understanding"

// Label identifies this backend in run requests and result mappings.
const Label = "contentu"

// Analyzer implements port.DocumentAnalyzer against the structured-extraction
// service. Input is URL-based: the document is staged in object storage and
// the service reads it through a presigned GET URL. Analysis is asynchronous:
// submit returns an operation URL that is polled until a terminal state.
type Analyzer struct {
	endpoint   string
	apiVersion string
	storage    port.ObjectStorage
	tokens     port.TokenSource
	describer  port.Describer
	client     *http.Client

	pollBudget   time.Duration
	pollInterval time.Duration
}

// NewAnalyzer creates a structured-extraction analyzer.
func NewAnalyzer(cfg *config.ContentUConfig, poll *config.PollConfig, storage port.ObjectStorage, tokens port.TokenSource, describer port.Describer) *Analyzer {
	budget := poll.Timeout()
	if budget == 0 {
		budget = 300 * time.Second
	}
	interval := poll.Interval()
	if interval == 0 {
		interval = 5 * time.Second
	}
	return &Analyzer{
		endpoint:     strings.TrimRight(cfg.Endpoint, "/"),
		apiVersion:   cfg.APIVersion,
		storage:      storage,
		tokens:       tokens,
		describer:    describer,
		client:       &http.Client{Timeout: 60 * time.Second},
		pollBudget:   budget,
		pollInterval: interval,
	}
}

func (a *Analyzer) Label() string { return Label }

// Analyze runs the full pipeline: stage → submit → poll → normalize →
// describe. It never returns an error; failures are folded into the result.
func (a *Analyzer) Analyze(ctx context.Context, input port.AnalyzeInput) *domain.AnalysisResult {
	start := time.Now()
	result := &domain.AnalysisResult{Status: domain.StatusSuccess}

	raw, payload, err := a.extract(ctx, input)
	if err != nil {
		result.Status = domain.StatusError
		result.Errors = append(result.Errors, err.Error())
		result.TimeSeconds = elapsedSince(start)
		return result
	}

	result.RawResult = raw
	var block contentBlock
	if len(payload.Result.Contents) > 0 {
		block = payload.Result.Contents[0]
	}
	result.Markdown = block.Markdown
	result.Fields = analyzer.ExtractFieldValues(block.Fields)
	result.FieldCount = len(block.Fields)
	result.FieldsWithValues = len(result.Fields)
	result.TablesCount = len(block.Tables)
	result.AvgConfidence = analyzer.AverageConfidence(block.Fields)

	desc, err := a.describer.DescribeImage(ctx, input.FileBytes, input.Filename, input.ContentType)
	if err != nil {
		result.Status = domain.StatusPartial
		result.Errors = append(result.Errors, fmt.Sprintf("description: %v", err))
	} else {
		result.Description = desc
	}

	result.TimeSeconds = elapsedSince(start)
	return result
}

type contentBlock struct {
	Markdown string            `json:"markdown"`
	Fields   map[string]any    `json:"fields"`
	Tables   []json.RawMessage `json:"tables"`
}

type operationResponse struct {
	Status string          `json:"status"`
	Error  json.RawMessage `json:"error"`
	Result struct {
		Contents []contentBlock `json:"contents"`
	} `json:"result"`
}

func (a *Analyzer) extract(ctx context.Context, input port.AnalyzeInput) (json.RawMessage, *operationResponse, error) {
	opURL, err := a.submit(ctx, input)
	if err != nil {
		return nil, nil, err
	}
	return a.poll(ctx, opURL)
}

// submit stages the document and starts analysis. The remote must accept
// the request within this single call or submission counts as failed.
func (a *Analyzer) submit(ctx context.Context, input port.AnalyzeInput) (string, error) {
	key := uuid.New().String() + "-" + input.Filename
	if err := a.storage.Upload(ctx, port.UploadInput{
		Key:         key,
		Body:        input.FileBytes,
		ContentType: input.ContentType,
	}); err != nil {
		return "", fmt.Errorf("staging document: %w", err)
	}

	docURL, err := a.storage.PresignedGetURL(ctx, key)
	if err != nil {
		return "", fmt.Errorf("presigning document URL: %w", err)
	}

	reqBody, err := json.Marshal(map[string]any{
		"inputs": []map[string]any{{"url": docURL}},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	submitURL := fmt.Sprintf("%s/contentunderstanding/analyzers/%s:analyze?api-version=%s",
		a.endpoint, input.AnalyzerID, a.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, submitURL, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := a.authorize(ctx, req); err != nil {
		return "", err
	}

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

// poll checks the operation at a fixed interval until a terminal state or
// the budget is exhausted.
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
	if err := a.authorize(ctx, req); err != nil {
		return nil, nil, err
	}

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

func (a *Analyzer) authorize(ctx context.Context, req *http.Request) error {
	token, err := a.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("acquiring bearer token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

func elapsedSince(start time.Time) float64 {
	return analyzer.Round(time.Since(start).Seconds(), 2)
}
