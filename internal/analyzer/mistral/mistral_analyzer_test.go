package mistral_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docbench/internal/analyzer/mistral"
	"docbench/internal/config"
	"docbench/internal/domain"
	"docbench/internal/port"
	"docbench/mocks"
)

func testInput() port.AnalyzeInput {
	return port.AnalyzeInput{
		FileBytes:   []byte("fake-pdf"),
		Filename:    "invoice.pdf",
		ContentType: "application/pdf",
	}
}

func testTokens() *mocks.MockTokenSource {
	tokens := new(mocks.MockTokenSource)
	tokens.On("Token", mock.Anything).Return("tok-1", nil)
	return tokens
}

func ocrServer(t *testing.T, pages []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ocr-model-1", body["model"])
		doc := body["document"].(map[string]any)
		assert.Equal(t, "document_url", doc["type"])
		assert.True(t, strings.HasPrefix(doc["document_url"].(string), "data:application/pdf;base64,"))

		out := make([]map[string]any, 0, len(pages))
		for _, p := range pages {
			out = append(out, map[string]any{"markdown": p})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"pages": out})
	}))
}

func TestAnalyze_Success(t *testing.T) {
	markdown := "**Invoice Number**: INV-42\n- Vendor: Acme Corp\n\n| Item | Price |\n| Widget | 10 |"
	srv := ocrServer(t, []string{markdown})
	defer srv.Close()

	describer := new(mocks.MockDescriber)
	describer.On("SummarizeText", mock.Anything, mock.MatchedBy(func(text string) bool {
		return strings.Contains(text, "INV-42")
	}), "invoice.pdf").Return("An invoice from Acme Corp.", nil)

	a := mistral.NewAnalyzer(&config.MistralConfig{Endpoint: srv.URL, Model: "ocr-model-1"}, testTokens(), describer)
	result := a.Analyze(context.Background(), testInput())

	assert.Equal(t, domain.StatusSuccess, result.Status)
	assert.Empty(t, result.Errors)
	assert.Equal(t, markdown, result.Markdown)
	assert.Equal(t, "INV-42", result.Fields["Invoice Number"])
	assert.Equal(t, "Acme Corp", result.Fields["Vendor"])
	assert.Equal(t, len(result.Fields), result.FieldsWithValues)
	assert.Equal(t, "An invoice from Acme Corp.", result.Description)
	assert.NotEmpty(t, result.RawResult)
}

func TestAnalyze_JoinsPages(t *testing.T) {
	srv := ocrServer(t, []string{"page one", "page two"})
	defer srv.Close()

	describer := new(mocks.MockDescriber)
	describer.On("SummarizeText", mock.Anything, "page one\n\npage two", "invoice.pdf").
		Return("Two pages.", nil)

	a := mistral.NewAnalyzer(&config.MistralConfig{Endpoint: srv.URL, Model: "ocr-model-1"}, testTokens(), describer)
	result := a.Analyze(context.Background(), testInput())

	assert.Equal(t, "page one\n\npage two", result.Markdown)
	describer.AssertExpectations(t)
}

func TestAnalyze_SummaryFailureIsPartial(t *testing.T) {
	srv := ocrServer(t, []string{"Vendor: Acme"})
	defer srv.Close()

	describer := new(mocks.MockDescriber)
	describer.On("SummarizeText", mock.Anything, mock.Anything, mock.Anything).
		Return("", assert.AnError)

	a := mistral.NewAnalyzer(&config.MistralConfig{Endpoint: srv.URL, Model: "ocr-model-1"}, testTokens(), describer)
	result := a.Analyze(context.Background(), testInput())

	assert.Equal(t, domain.StatusPartial, result.Status)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "summary:")
}

func TestAnalyze_OCRRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	describer := new(mocks.MockDescriber)

	a := mistral.NewAnalyzer(&config.MistralConfig{Endpoint: srv.URL, Model: "ocr-model-1"}, testTokens(), describer)
	result := a.Analyze(context.Background(), testInput())

	assert.Equal(t, domain.StatusError, result.Status)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "submission rejected (status 401)")
	// No markdown means nothing to summarize.
	describer.AssertNotCalled(t, "SummarizeText", mock.Anything, mock.Anything, mock.Anything)
}

func TestTablesCount_MarkerHeuristic(t *testing.T) {
	markdown := "<table>rows</table>\n| a | b |\n| c | d |"
	srv := ocrServer(t, []string{markdown})
	defer srv.Close()

	describer := new(mocks.MockDescriber)
	describer.On("SummarizeText", mock.Anything, mock.Anything, mock.Anything).Return("ok", nil)

	a := mistral.NewAnalyzer(&config.MistralConfig{Endpoint: srv.URL, Model: "ocr-model-1"}, testTokens(), describer)
	result := a.Analyze(context.Background(), testInput())

	// One <table> tag plus four "| " occurrences.
	assert.Equal(t, 5, result.TablesCount)
}

func TestParseFields(t *testing.T) {
	text := "Invoice Number: INV-1\n- **Vendor Name**: Acme Corp\n* Total: 100.00\nNoColonLine\n" +
		strings.Repeat("k", 50) + ": too long a key\nEmpty:   "

	fields := mistral.ParseFields(text)
	require.NotNil(t, fields)
	assert.Equal(t, "INV-1", fields["Invoice Number"])
	assert.Equal(t, "Acme Corp", fields["Vendor Name"])
	assert.Equal(t, "100.00", fields["Total"])
	assert.Len(t, fields, 3)
}

func TestParseFields_NoMatches(t *testing.T) {
	assert.Nil(t, mistral.ParseFields("just prose with no key value pairs"))
	assert.Nil(t, mistral.ParseFields(""))
}

func TestChatEndpoint(t *testing.T) {
	got, err := mistral.ChatEndpoint("https://api.example.com/v1/ocr")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/models/chat/completions", got)
}

func TestChatEndpoint_Invalid(t *testing.T) {
	_, err := mistral.ChatEndpoint("not-a-url")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no scheme or host")
}
