package eval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"chat-simulator/internal/transcript"
)

// Result is one conversation's scoring outcome: a named-metric score mapping
// plus a free-text explanation.
type Result struct {
	Scores      map[string]float64
	Explanation string
}

// Scorer grades one parsed conversation. Any returned error (endpoint error,
// auth error, transport error) aborts the whole batch.
type Scorer interface {
	Score(ctx context.Context, item transcript.Item) (Result, error)
}

// AuthError marks an authentication failure reported by the scoring endpoint.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return e.Reason }

// HTTPScorer submits conversations to the external scoring endpoint.
type HTTPScorer struct {
	url      string
	provider string
	http     *http.Client
}

func NewHTTPScorer(url, provider string) *HTTPScorer {
	if provider == "" {
		provider = "openai"
	}
	return &HTTPScorer{
		url:      url,
		provider: provider,
		http:     &http.Client{Timeout: 90 * time.Second},
	}
}

type scoreRequest struct {
	Topic       string                 `json:"topic"`
	Persona1    string                 `json:"persona1"`
	Persona2    string                 `json:"persona2"`
	DialogueLog []transcript.Utterance `json:"dialogue_log"`
	Provider    string                 `json:"provider"`
}

type scoreResponse struct {
	Success bool `json:"success"`
	Result  *struct {
		Reason string             `json:"reason"`
		Score  map[string]float64 `json:"score"`
	} `json:"result"`
	Error     string `json:"error"`
	AuthError bool   `json:"auth_error"`
}

func (s *HTTPScorer) Score(ctx context.Context, item transcript.Item) (Result, error) {
	body, err := json.Marshal(scoreRequest{
		Topic:       item.Topic,
		Persona1:    item.Persona1,
		Persona2:    item.Persona2,
		DialogueLog: item.Dialogue,
		Provider:    s.provider,
	})
	if err != nil {
		return Result{}, fmt.Errorf("marshal score request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build score request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("scoring endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read score response: %w", err)
	}

	var parsed scoreResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return Result{}, fmt.Errorf("decode score response (status %d): %w", resp.StatusCode, err)
	}
	if !parsed.Success || parsed.Result == nil {
		reason := parsed.Error
		if reason == "" {
			reason = "scoring failed"
		}
		if parsed.AuthError {
			return Result{}, &AuthError{Reason: reason}
		}
		return Result{}, fmt.Errorf("%s", reason)
	}

	return Result{Scores: parsed.Result.Score, Explanation: parsed.Result.Reason}, nil
}
