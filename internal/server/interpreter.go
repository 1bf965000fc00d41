// internal/server/interpreter.go
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"mcp-med-scan/internal/models"
)

const labelSystemPrompt = `You are a medical prescription label parser. Extract ONLY the following information from prescription label text:

1. MEDICATION NAME (just the drug name, including dosage if present)
2. DIRECTIONS (how to take the medication)
3. WARNINGS (any important warnings or side effects mentioned)

Always respond with valid JSON in this exact format:
{
  "name": "medication name here",
  "directions": "directions here",
  "warnings": "warnings here or 'None listed' if no warnings"
}`

// noWarningsSentinel is what the model returns when the label carries no
// warnings; it is stored as absence, not as literal text.
const noWarningsSentinel = "None listed"

// Interpreter sends OCR'd label text to a text-understanding gateway and
// maps the structured reply back into label fields. It is best-effort:
// every failure is reported as a nil result so callers fall back to
// rule-based parsing.
type Interpreter struct {
	httpClient *http.Client
	proxyURL   string
	apiKey     string
	model      string
	log        zerolog.Logger
}

func NewInterpreter(log zerolog.Logger) *Interpreter {
	proxyURL := os.Getenv("MCP_PROXY_URL")
	if proxyURL == "" {
		proxyURL = "http://mcp-compose-http-proxy:9876"
	}

	apiKey := os.Getenv("MCP_PROXY_API_KEY")
	if apiKey == "" {
		apiKey = "myapikey"
	}

	model := os.Getenv("OPENROUTER_MODEL")
	if model == "" {
		model = "anthropic/claude-3.5-sonnet"
	}

	return &Interpreter{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		proxyURL: proxyURL,
		apiKey:   apiKey,
		model:    model,
		log:      log,
	}
}

// ParseLabel asks the gateway to structure raw label text. Returns nil on
// any failure; it never propagates an error.
func (i *Interpreter) ParseLabel(ctx context.Context, ocrText string) *models.ParsedLabel {
	userPrompt := fmt.Sprintf("Prescription label text:\n%s", ocrText)

	completionRequest := map[string]interface{}{
		"model":         i.model,
		"system_prompt": labelSystemPrompt,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": userPrompt,
			},
		},
		"max_tokens":  200,
		"temperature": 0.3,
	}

	gatewayResponse, err := i.callGateway(ctx, "create_completion", completionRequest)
	if err != nil {
		i.log.Warn().Err(err).Msg("label interpreter gateway call failed, falling back to rule-based parsing")
		return nil
	}

	parsed := i.parseReply(gatewayResponse)
	if parsed == nil {
		i.log.Warn().Msg("label interpreter returned malformed reply, falling back to rule-based parsing")
	}
	return parsed
}

func (i *Interpreter) callGateway(ctx context.Context, toolName string, args interface{}) (string, error) {
	url := fmt.Sprintf("%s/openrouter-gateway", i.proxyURL)

	requestData := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params": map[string]interface{}{
			"name":      toolName,
			"arguments": args,
		},
	}

	jsonData, err := json.Marshal(requestData)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+i.apiKey)

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	text := gjson.GetBytes(body, "result.content.0.text")
	if !text.Exists() {
		return "", fmt.Errorf("unexpected response format")
	}
	return text.String(), nil
}

// parseReply digs the structured label out of the chat-style completion
// envelope. The model is asked for plain JSON but often wraps it in prose,
// so the reply is trimmed to its outermost braces before decoding.
func (i *Interpreter) parseReply(gatewayOutput string) *models.ParsedLabel {
	content := gatewayOutput
	if inner := gjson.Get(gatewayOutput, "content"); inner.Exists() {
		content = inner.String()
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return nil
	}

	var parsed models.ParsedLabel
	if err := json.Unmarshal([]byte(content[start:end+1]), &parsed); err != nil {
		return nil
	}
	if parsed.Name == "" {
		return nil
	}

	if parsed.Warnings == noWarningsSentinel {
		parsed.Warnings = ""
	}
	return &parsed
}
