package llm

import "context"

type Message struct {
	Role    string
	Content string
}

type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// GenParams are the sampling knobs forwarded to the provider as-is.
type GenParams struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
}

type Client interface {
	Generate(ctx context.Context, messages []Message) (Response, error)
}
