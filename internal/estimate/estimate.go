package estimate

import (
	"fmt"
	"log"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// avgMessageTokens is the assumed length of one history message.
	avgMessageTokens = 80
	// responseTokens is the assumed completion length per message.
	responseTokens = 80
	// maxHistoryMessages is how much trailing history a generation request carries.
	maxHistoryMessages = 4
	// messageOverhead covers role and formatting tokens per message.
	messageOverhead = 4
)

type Params struct {
	ModelType1   string
	ModelType2   string
	Topic        string
	Persona1     string
	Persona2     string
	TurnsPerBot  int
	NumberOfSets int
}

type Estimate struct {
	TotalTokens      int `json:"total_tokens"`
	PromptTokens     int `json:"total_prompt_tokens"`
	CompletionTokens int `json:"total_completion_tokens"`
	PerSetTokens     int `json:"per_set_tokens"`
	PerMessageTokens int `json:"per_message_tokens"`
}

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

// countTokens measures text with the cl100k_base encoding. When the encoding
// cannot be loaded (offline environments) it falls back to a rough len/4
// approximation; the estimate is a comparison baseline, never ground truth.
func countTokens(text string) int {
	encOnce.Do(func() {
		e, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			log.Printf("⚠️ tiktoken encoding unavailable, falling back to approximate counting: %v", err)
			return
		}
		enc = e
	})
	if enc == nil {
		return (len(text) + 3) / 4
	}
	return len(enc.Encode(text, nil, nil))
}

func systemPrompt(topic, persona string) string {
	return fmt.Sprintf(`당신은 %s 역할을 맡고 있습니다.
다른 사람과 자연스러운 대화를 나누고 있습니다.
주제: %s

절대적으로 지켜야 할 규칙:
1. 반드시 한국어로만 응답하세요.
2. 반드시 완전한 문장으로 끝나야 합니다.
3. 한 번에 1-2문장으로만 응답하세요.
4. %s의 관점을 간단히 표현하세요.`, persona, topic, persona)
}

func userMessage(topic, persona string, first bool) string {
	if first {
		return fmt.Sprintf("%s에 대해 %s로서 간단히 의견을 말해주세요. 반드시 한국어로만 1-2문장으로 완전한 문장으로 답하세요.", topic, persona)
	}
	return "대화를 자연스럽게 이어가세요. 반드시 한국어로만 1-2문장으로 완전한 문장으로 답하세요."
}

// message estimates the prompt/completion tokens of one generation request.
func message(topic, persona string, previousCount int, first bool) (prompt, completion int) {
	prompt = countTokens(systemPrompt(topic, persona))
	prompt += countTokens(userMessage(topic, persona, first))

	history := previousCount
	if history > maxHistoryMessages {
		history = maxHistoryMessages
	}
	prompt += history*(avgMessageTokens+messageOverhead) + messageOverhead

	return prompt, responseTokens
}

// Simulation estimates the token usage of a full run before it happens.
func Simulation(p Params) Estimate {
	messagesPerSet := p.TurnsPerBot * 2
	var totalPrompt, totalCompletion int

	for set := 0; set < p.NumberOfSets; set++ {
		for i := 0; i < messagesPerSet; i++ {
			persona := p.Persona1
			if i%2 == 1 {
				persona = p.Persona2
			}
			pr, co := message(p.Topic, persona, i, i == 0)
			totalPrompt += pr
			totalCompletion += co
		}
	}

	est := Estimate{
		TotalTokens:      totalPrompt + totalCompletion,
		PromptTokens:     totalPrompt,
		CompletionTokens: totalCompletion,
	}
	if p.NumberOfSets > 0 {
		est.PerSetTokens = est.TotalTokens / p.NumberOfSets
	}
	if n := messagesPerSet * p.NumberOfSets; n > 0 {
		est.PerMessageTokens = est.TotalTokens / n
	}
	return est
}
