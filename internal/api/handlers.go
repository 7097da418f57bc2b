package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	openai "github.com/sashabaranov/go-openai"

	"chat-simulator/internal/config"
	"chat-simulator/internal/estimate"
	"chat-simulator/internal/llm"
	"chat-simulator/internal/transcript"
)

type historyMessage struct {
	Bot  int    `json:"bot"`
	Text string `json:"text"`
}

type generateRequest struct {
	APIKey             string           `json:"api_key"`
	ModelType          string           `json:"model_type"`
	Topic              string           `json:"topic"`
	Persona            string           `json:"persona"`
	OtherPersona       string           `json:"other_persona"`
	PreviousMessages   []historyMessage `json:"previous_messages"`
	BotNumber          int              `json:"bot_number"`
	Temperature        *float64         `json:"temperature"`
	TopP               *float64         `json:"top_p"`
	CustomSystemPrompt string           `json:"custom_system_prompt"`
}

func appError(c *fiber.Ctx, format string, args ...any) error {
	return c.JSON(fiber.Map{"success": false, "error": fmt.Sprintf(format, args...)})
}

// generateResponse produces one bot turn. Failures are reported in the body
// with success=false so the caller can render them inline instead of aborting
// the whole run.
func (s *Server) generateResponse(c *fiber.Ctx) error {
	var req generateRequest
	if err := c.BodyParser(&req); err != nil {
		return appError(c, "invalid request body: %v", err)
	}
	if req.APIKey == "" {
		return appError(c, "api_key is required")
	}
	if req.Topic == "" || req.Persona == "" {
		return appError(c, "topic and persona are required")
	}

	temperature := clamp(valueOr(req.Temperature, 1.2), 0, 2)
	topP := clamp(valueOr(req.TopP, 0.9), 0, 1)

	provider := config.LLMProvider(strings.ToLower(req.ModelType))
	if provider == "" {
		provider = llm.InferProvider(req.APIKey)
	}

	client, err := s.factory.CreateClient(provider, req.APIKey, "", llm.GenParams{
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   150,
	})
	if err != nil {
		return appError(c, "%v", err)
	}

	messages := buildMessages(req, req.CustomSystemPrompt)
	resp, err := client.Generate(c.UserContext(), messages)
	if err != nil {
		return appError(c, "%v", err)
	}

	text := ensureCompleteSentence(cleanResponseText(resp.Content))
	return c.JSON(fiber.Map{
		"success":  true,
		"response": text,
		"model":    resp.Model,
		"tokens": fiber.Map{
			"prompt_tokens":     resp.PromptTokens,
			"completion_tokens": resp.CompletionTokens,
			"total_tokens":      resp.TotalTokens,
		},
	})
}

type estimateRequest struct {
	ModelType1   string `json:"model_type1"`
	ModelType2   string `json:"model_type2"`
	Topic        string `json:"topic"`
	Persona1     string `json:"persona1"`
	Persona2     string `json:"persona2"`
	TurnsPerBot  int    `json:"turns_per_bot"`
	NumberOfSets int    `json:"number_of_sets"`
}

func (s *Server) estimateTokens(c *fiber.Ctx) error {
	var req estimateRequest
	if err := c.BodyParser(&req); err != nil {
		return appError(c, "invalid request body: %v", err)
	}
	if req.Topic == "" || req.Persona1 == "" || req.Persona2 == "" {
		return appError(c, "topic, persona1 and persona2 are required")
	}
	if req.TurnsPerBot <= 0 {
		req.TurnsPerBot = 3
	}
	if req.NumberOfSets <= 0 {
		req.NumberOfSets = 2
	}

	est := estimate.Simulation(estimate.Params{
		ModelType1:   req.ModelType1,
		ModelType2:   req.ModelType2,
		Topic:        req.Topic,
		Persona1:     req.Persona1,
		Persona2:     req.Persona2,
		TurnsPerBot:  req.TurnsPerBot,
		NumberOfSets: req.NumberOfSets,
	})
	return c.JSON(fiber.Map{"success": true, "estimate": est})
}

type evaluateRequest struct {
	Topic       string                 `json:"topic"`
	Persona1    string                 `json:"persona1"`
	Persona2    string                 `json:"persona2"`
	DialogueLog []transcript.Utterance `json:"dialogue_log"`
	Provider    string                 `json:"provider"`
}

type evaluationVerdict struct {
	Reason string             `json:"reason"`
	Score  map[string]float64 `json:"score"`
}

const evaluationPrompt = `당신은 두 챗봇 간의 대화 품질을 평가하는 전문 평가자입니다.

평가 기준 (각 1-5점):
- 맥락 유지: 각 발언이 직전 발언에 적절히 반응하는가
- 페르소나 일관성: 각 챗봇이 자신의 페르소나를 끝까지 유지하는가
- 주제 적합성: 대화가 주어진 주제에서 벗어나지 않는가

반드시 아래 JSON 형식으로만 응답하세요:
{"reason": "평가 근거를 한두 문장으로", "score": {"맥락 유지": 점수, "페르소나 일관성": 점수, "주제 적합성": 점수}}`

// evaluateConversation grades a parsed conversation with the server's own
// OpenAI credential. Auth failures are flagged separately so the caller can
// distinguish a bad server key from a bad conversation.
func (s *Server) evaluateConversation(c *fiber.Ctx) error {
	var req evaluateRequest
	if err := c.BodyParser(&req); err != nil {
		return appError(c, "invalid request body: %v", err)
	}
	if len(req.DialogueLog) == 0 {
		return appError(c, "dialogue_log is required")
	}
	if req.Provider != "" && req.Provider != string(config.ProviderOpenAI) {
		return appError(c, "unsupported evaluation provider: %s", req.Provider)
	}
	if s.cfg.OpenAIAPIKey == "" {
		return c.JSON(fiber.Map{
			"success":    false,
			"error":      "server OpenAI API key is not configured",
			"auth_error": true,
		})
	}

	var dialogue strings.Builder
	fmt.Fprintf(&dialogue, "주제: %s\n페르소나1: %s\n페르소나2: %s\n\n", req.Topic, req.Persona1, req.Persona2)
	for _, u := range req.DialogueLog {
		fmt.Fprintf(&dialogue, "%s: %s\n", u.Speaker, u.Text)
	}

	clientCfg := openai.DefaultConfig(s.cfg.OpenAIAPIKey)
	if s.cfg.OpenAIBaseURL != "" {
		clientCfg.BaseURL = s.cfg.OpenAIBaseURL
	}
	client := openai.NewClientWithConfig(clientCfg)

	resp, err := client.CreateChatCompletion(c.UserContext(), openai.ChatCompletionRequest{
		Model:       openai.GPT4o,
		Temperature: 0.2,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: evaluationPrompt},
			{Role: openai.ChatMessageRoleUser, Content: dialogue.String()},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 401 {
			return c.JSON(fiber.Map{
				"success":    false,
				"error":      "evaluation credential rejected by provider",
				"auth_error": true,
			})
		}
		return appError(c, "evaluation request failed: %v", err)
	}
	if len(resp.Choices) == 0 {
		return appError(c, "evaluation returned no choices")
	}

	var verdict evaluationVerdict
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &verdict); err != nil {
		log.Printf("⚠️ evaluation verdict was not valid JSON: %v", err)
		return appError(c, "evaluation verdict was not valid JSON")
	}
	return c.JSON(fiber.Map{"success": true, "result": verdict})
}

type validateKeyRequest struct {
	APIKey    string `json:"api_key"`
	ModelType string `json:"model_type"`
}

// validateKey checks a caller-supplied credential with the cheapest call the
// provider offers.
func (s *Server) validateKey(c *fiber.Ctx) error {
	var req validateKeyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.JSON(fiber.Map{"valid": false, "error": fmt.Sprintf("invalid request body: %v", err)})
	}
	if req.APIKey == "" {
		return c.JSON(fiber.Map{"valid": false, "error": "api_key is required"})
	}

	provider := config.LLMProvider(strings.ToLower(req.ModelType))
	if provider == "" {
		provider = llm.InferProvider(req.APIKey)
	}

	switch provider {
	case config.ProviderOpenAI:
		clientCfg := openai.DefaultConfig(req.APIKey)
		if s.cfg.OpenAIBaseURL != "" {
			clientCfg.BaseURL = s.cfg.OpenAIBaseURL
		}
		if _, err := openai.NewClientWithConfig(clientCfg).ListModels(c.UserContext()); err != nil {
			return c.JSON(fiber.Map{"valid": false, "error": err.Error()})
		}
		return c.JSON(fiber.Map{"valid": true, "provider": provider})
	case config.ProviderAnthropic:
		client, err := s.factory.CreateClient(provider, req.APIKey, "", llm.GenParams{MaxTokens: 1})
		if err != nil {
			return c.JSON(fiber.Map{"valid": false, "error": err.Error()})
		}
		if _, err := client.Generate(c.UserContext(), []llm.Message{{Role: "user", Content: "ping"}}); err != nil {
			return c.JSON(fiber.Map{"valid": false, "error": err.Error()})
		}
		return c.JSON(fiber.Map{"valid": true, "provider": provider})
	default:
		return c.JSON(fiber.Map{"valid": false, "error": fmt.Sprintf("validation is not supported for provider %s", provider)})
	}
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
