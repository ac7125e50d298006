package llm

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
	"docbench/internal/port"
)

const systemPrompt = "You are an expert document analysis assistant. " +
	"You analyse scanned documents (invoices, quotes, purchase orders, etc.) " +
	"and provide a concise structured description."

const summarySystemPrompt = "You are an expert document analysis assistant. " +
	"Given OCR-extracted text from a document, provide a concise structured summary."

// maxSummaryInput caps how much OCR text is sent for summarization.
const maxSummaryInput = 4000

// ChatDescriber implements port.Describer against an OpenAI-compatible
// chat completions endpoint.
type ChatDescriber struct {
	endpoint    string
	model       string
	maxTokens   int
	temperature float64
	tokens      port.TokenSource
	client      *http.Client
}

// NewChatDescriber creates a describer from LLM config. The token source
// supplies the bearer credential for each call.
func NewChatDescriber(cfg *config.LLMConfig, tokens port.TokenSource) *ChatDescriber {
	return NewChatDescriberWithEndpoint(cfg, tokens, cfg.Endpoint, "")
}

// NewChatDescriberWithEndpoint creates a describer against a specific chat
// endpoint and optional model name (for backends that require one in the
// request body, and for tests).
func NewChatDescriberWithEndpoint(cfg *config.LLMConfig, tokens port.TokenSource, endpoint, model string) *ChatDescriber {
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 400
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &ChatDescriber{
		endpoint:    endpoint,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		tokens:      tokens,
		client:      &http.Client{Timeout: timeout},
	}
}

func (d *ChatDescriber) DescribeImage(ctx context.Context, fileBytes []byte, filename, contentType string) (string, error) {
	encoded := base64.StdEncoding.EncodeToString(fileBytes)
	userContent := []map[string]any{
		{
			"type": "text",
			"text": fmt.Sprintf(
				"Analyse this document image %q. Provide: document type, issuer, recipient, "+
					"total amount, date, and any key information. Be concise (3-5 sentences).",
				filename,
			),
		},
		{
			"type": "image_url",
			"image_url": map[string]any{
				"url":    fmt.Sprintf("data:%s;base64,%s", contentType, encoded),
				"detail": "high",
			},
		},
	}
	return d.complete(ctx, systemPrompt, userContent)
}

func (d *ChatDescriber) SummarizeText(ctx context.Context, text, filename string) (string, error) {
	userContent := fmt.Sprintf(
		"Here is the OCR text extracted from %q:\n\n%s\n\n"+
			"Provide: document type, issuer, recipient, total amount, date, and any key "+
			"information. Be concise (3-5 sentences).",
		filename, analyzer.Truncate(text, maxSummaryInput),
	)
	return d.complete(ctx, summarySystemPrompt, userContent)
}

// chatResponse models an OpenAI-compatible chat completions response.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (d *ChatDescriber) complete(ctx context.Context, system string, userContent any) (string, error) {
	reqBody := map[string]any{
		"messages": []map[string]any{
			{"role": "system", "content": system},
			{"role": "user", "content": userContent},
		},
		"max_tokens":  d.maxTokens,
		"temperature": d.temperature,
	}
	if d.model != "" {
		reqBody["model"] = d.model
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := d.tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("acquiring bearer token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling chat endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat endpoint error (status %d): %s", resp.StatusCode, analyzer.Truncate(string(respBody), 500))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty response from chat endpoint: no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
