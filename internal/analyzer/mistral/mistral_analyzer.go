package mistral

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"docbench/internal/analyzer"
	"docbench/internal/config"
	"docbench/internal/domain"
	"docbench/internal/port"
)

const backendName = "mistral ocr"

// Label identifies this backend in run requests and result mappings.
const Label = "mistral"

// Analyzer implements port.DocumentAnalyzer against the OCR+chat service.
// Extraction is a single-shot OCR call; structured fields are recovered
// best-effort from the OCR markdown, and the summary step feeds the
// markdown back through the service's chat endpoint.
type Analyzer struct {
	endpoint  string
	model     string
	tokens    port.TokenSource
	describer port.Describer
	client    *http.Client
}

// NewAnalyzer creates an OCR+chat analyzer.
func NewAnalyzer(cfg *config.MistralConfig, tokens port.TokenSource, describer port.Describer) *Analyzer {
	return &Analyzer{
		endpoint:  cfg.Endpoint,
		model:     cfg.Model,
		tokens:    tokens,
		describer: describer,
		client:    &http.Client{Timeout: 120 * time.Second},
	}
}

func (a *Analyzer) Label() string { return Label }

// ChatEndpoint derives the chat completions URL from the OCR endpoint's
// scheme and host.
func ChatEndpoint(ocrEndpoint string) (string, error) {
	u, err := url.Parse(ocrEndpoint)
	if err != nil {
		return "", fmt.Errorf("parsing OCR endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("OCR endpoint %q has no scheme or host", ocrEndpoint)
	}
	return fmt.Sprintf("%s://%s/models/chat/completions", u.Scheme, u.Host), nil
}

func (a *Analyzer) Analyze(ctx context.Context, input port.AnalyzeInput) *domain.AnalysisResult {
	start := time.Now()
	result := &domain.AnalysisResult{}

	raw, markdown, err := a.extract(ctx, input)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
	} else {
		result.RawResult = raw
	}
	result.Markdown = markdown
	result.Fields = ParseFields(markdown)
	result.FieldCount = len(result.Fields)
	result.FieldsWithValues = len(result.Fields)
	// Approximate: counts markdown table markers rather than structured
	// table objects, which this backend does not report.
	result.TablesCount = strings.Count(markdown, "<table>") + strings.Count(markdown, "| ")

	if markdown != "" {
		desc, err := a.describer.SummarizeText(ctx, markdown, input.Filename)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("summary: %v", err))
		} else {
			result.Description = desc
		}
	}

	switch {
	case len(result.Errors) == 0:
		result.Status = domain.StatusSuccess
	case markdown != "":
		result.Status = domain.StatusPartial
	default:
		result.Status = domain.StatusError
	}

	result.TimeSeconds = elapsedSince(start)
	return result
}

type ocrResponse struct {
	Pages []struct {
		Markdown string `json:"markdown"`
	} `json:"pages"`
}

func (a *Analyzer) extract(ctx context.Context, input port.AnalyzeInput) (json.RawMessage, string, error) {
	encoded := base64.StdEncoding.EncodeToString(input.FileBytes)
	reqBody, err := json.Marshal(map[string]any{
		"model": a.model,
		"document": map[string]any{
			"type":         "document_url",
			"document_url": fmt.Sprintf("data:%s;base64,%s", input.ContentType, encoded),
		},
	})
	if err != nil {
		return nil, "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := a.tokens.Token(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("acquiring bearer token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("calling OCR endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading OCR response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", analyzer.NewSubmissionError(backendName, resp.StatusCode, string(body))
	}

	var payload ocrResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, "", fmt.Errorf("unmarshaling OCR response: %w", err)
	}

	parts := make([]string, 0, len(payload.Pages))
	for _, page := range payload.Pages {
		parts = append(parts, page.Markdown)
	}
	return body, strings.Join(parts, "\n\n"), nil
}

// keyValueLine matches "Key: value" lines in OCR markdown, tolerating
// list bullets and bold markers around the key.
var keyValueLine = regexp.MustCompile(`(?m)^\s*[-•*]*\s*\*{0,2}([A-Za-z /]+?)\*{0,2}\s*:\s*(.+)$`)

// ParseFields recovers key-value pairs from OCR markdown, best-effort.
func ParseFields(text string) map[string]any {
	fields := make(map[string]any)
	for _, m := range keyValueLine.FindAllStringSubmatch(text, -1) {
		key := strings.TrimSpace(m[1])
		val := strings.TrimSpace(m[2])
		if key != "" && val != "" && len(key) < 40 {
			fields[key] = val
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func elapsedSince(start time.Time) float64 {
	return analyzer.Round(time.Since(start).Seconds(), 2)
}
