package sim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"chat-simulator/internal/config"
	"chat-simulator/internal/llm"
)

// RemoteProvider delegates generation to the external generation endpoint.
// Endpoint and transport failures degrade to a sentinel error text inside the
// reply; the scheduler keeps going with that text as ordinary message content.
type RemoteProvider struct {
	url      string
	apiKey   string
	provider config.LLMProvider
	http     *http.Client
}

// NewRemoteProvider builds a remote-mode provider. An empty provider tag is
// filled in from the key shape; callers that know the provider should pass it
// explicitly.
func NewRemoteProvider(url, apiKey string, provider config.LLMProvider) *RemoteProvider {
	if provider == "" {
		provider = llm.InferProvider(apiKey)
	}
	return &RemoteProvider{
		url:      url,
		apiKey:   apiKey,
		provider: provider,
		http:     &http.Client{Timeout: 60 * time.Second},
	}
}

type generateRequest struct {
	APIKey             string           `json:"api_key"`
	ModelType          string           `json:"model_type"`
	Topic              string           `json:"topic"`
	Persona            string           `json:"persona"`
	OtherPersona       string           `json:"other_persona,omitempty"`
	PreviousMessages   []historyMessage `json:"previous_messages"`
	BotNumber          int              `json:"bot_number"`
	Temperature        float64          `json:"temperature"`
	TopP               float64          `json:"top_p"`
	CustomSystemPrompt string           `json:"custom_system_prompt,omitempty"`
}

type historyMessage struct {
	Bot  int    `json:"bot"`
	Text string `json:"text"`
}

type generateResponse struct {
	Success  bool        `json:"success"`
	Text     string      `json:"response"`
	Tokens   *TokenUsage `json:"tokens"`
	Buttons  []Button    `json:"buttons"`
	ChipList []Chip      `json:"chip_list"`
	Error    string      `json:"error"`
}

func (p *RemoteProvider) Generate(ctx context.Context, req Request) (Reply, error) {
	persona := req.Persona1
	other := req.Persona2
	if req.Speaker == Bot2 {
		persona, other = req.Persona2, req.Persona1
	}

	body := generateRequest{
		APIKey:             p.apiKey,
		ModelType:          string(p.provider),
		Topic:              req.Topic,
		Persona:            persona,
		OtherPersona:       other,
		PreviousMessages:   make([]historyMessage, 0, len(req.History)),
		BotNumber:          int(req.Speaker),
		Temperature:        req.Params.Temperature,
		TopP:               req.Params.TopP,
		CustomSystemPrompt: req.Params.SystemPrompt,
	}
	for _, m := range req.History {
		body.PreviousMessages = append(body.PreviousMessages, historyMessage{Bot: int(m.Speaker), Text: m.Text})
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return errorReply(fmt.Sprintf("요청 직렬화 실패: %v", err)), nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(raw))
	if err != nil {
		return errorReply(fmt.Sprintf("요청 생성 실패: %v", err)), nil
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(httpReq)
	if err != nil {
		return errorReply(fmt.Sprintf("서버에 연결할 수 없습니다: %v", err)), nil
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errorReply(fmt.Sprintf("응답 읽기 실패: %v", err)), nil
	}

	var parsed generateResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return errorReply(fmt.Sprintf("응답 파싱 실패 (상태 코드 %d)", resp.StatusCode)), nil
	}
	if !parsed.Success {
		reason := parsed.Error
		if reason == "" {
			reason = "응답 생성에 실패했습니다."
		}
		return errorReply(reason), nil
	}

	out := Reply{Text: parsed.Text, Usage: parsed.Tokens}
	if len(parsed.Buttons) > 0 || len(parsed.ChipList) > 0 {
		out.Extras = &Extras{Buttons: parsed.Buttons, ChipList: parsed.ChipList}
	}
	return out, nil
}

func errorReply(reason string) Reply {
	return Reply{Text: fmt.Sprintf("[오류: %s]", reason)}
}
