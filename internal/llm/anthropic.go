package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	anthropicEndpoint = "https://api.anthropic.com/v1/messages"
	anthropicVersion  = "2023-06-01"
	anthropicModel    = "claude-3-5-haiku-20241022"
)

type AnthropicClient struct {
	apiKey string
	http   *http.Client
	params GenParams
}

func NewAnthropic(apiKey string, params GenParams) *AnthropicClient {
	return &AnthropicClient{
		apiKey: apiKey,
		http:   &http.Client{Timeout: 30 * time.Second},
		params: params,
	}
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature,omitempty"`
	TopP        float64            `json:"top_p,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate maps "system" role messages into the Anthropic system field and
// forwards the rest as-is.
func (c *AnthropicClient) Generate(ctx context.Context, messages []Message) (Response, error) {
	maxTokens := c.params.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 150
	}
	req := anthropicRequest{
		Model:       anthropicModel,
		MaxTokens:   maxTokens,
		Temperature: c.params.Temperature,
		TopP:        c.params.TopP,
	}
	for _, m := range messages {
		if m.Role == "system" {
			req.System = m.Content
			continue
		}
		req.Messages = append(req.Messages, anthropicMessage{Role: m.Role, Content: m.Content})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("marshal anthropic request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicEndpoint, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("build anthropic request: %w", err)
	}
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("anthropic request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("read anthropic response: %w", err)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return Response{}, fmt.Errorf("decode anthropic response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := "unknown error"
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return Response{}, fmt.Errorf("anthropic api error (status %d): %s", resp.StatusCode, msg)
	}
	if len(parsed.Content) == 0 {
		return Response{}, fmt.Errorf("anthropic returned empty content")
	}

	out := Response{
		Content: parsed.Content[0].Text,
		Model:   anthropicModel,
	}
	out.PromptTokens = parsed.Usage.InputTokens
	out.CompletionTokens = parsed.Usage.OutputTokens
	out.TotalTokens = out.PromptTokens + out.CompletionTokens
	return out, nil
}
