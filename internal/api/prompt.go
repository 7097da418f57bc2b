package api

import (
	"fmt"
	"regexp"
	"strings"

	"chat-simulator/internal/llm"
)

const maxHistoryMessages = 6

func defaultSystemPrompt(botNumber int, topic, persona string) string {
	other := 3 - botNumber
	return fmt.Sprintf(`당신은 챗봇 %d입니다. %s의 역할을 맡고 있습니다.

현재 상황:
- 주제: %s
- 당신은 챗봇 %d (%s)
- 상대방은 챗봇 %d
- 두 챗봇이 %s에 대해 대화를 나누고 있습니다.

당신의 역할 (매우 중요):
- 이것은 단순한 독백이 아닌 실제 대화입니다.
- 상대방(챗봇 %d)의 발언에 반드시 직접적으로 반응해야 합니다.
- 절대로 주제에 대해 독립적으로 말만 하면 안 됩니다.

절대적으로 지켜야 할 규칙:
1. 반드시 한국어로만 응답하세요.
2. 반드시 완전한 문장으로 끝나야 합니다.
3. 한 번에 1-2문장으로만 응답하세요.
4. 상대방의 발언에 직접적으로 반응하세요.`,
		botNumber, persona, topic, botNumber, persona, other, topic, other)
}

func identityAppendix(botNumber int, persona, otherPersona string) string {
	other := 3 - botNumber
	if otherPersona == "" {
		otherPersona = "알 수 없음"
	}
	return fmt.Sprintf(`

[매우 중요] 당신의 정체성과 역할:
- 당신은 챗봇 %d이며, 페르소나는 "%s"입니다
- 상대방은 챗봇 %d이며, 페르소나는 "%s"입니다
- 당신은 오직 "%s"의 페르소나로만 대화해야 합니다
- 절대 상대방의 페르소나, 역할, 말투를 모방하거나 따라하지 마세요

[매우 중요] 응답 길이 제한:
- 짧고 간결하게, 일상 대화하듯이 자연스럽게 말하세요
- 핵심만 간단히 전달하세요`,
		botNumber, persona, other, otherPersona, persona)
}

// buildMessages assembles the system prompt, trailing history and the final
// user turn for one generation request.
func buildMessages(req generateRequest, systemPrompt string) []llm.Message {
	botNumber := req.BotNumber
	if botNumber != 1 && botNumber != 2 {
		botNumber = 1
	}
	other := 3 - botNumber

	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt(botNumber, req.Topic, req.Persona)
	} else {
		systemPrompt = strings.ReplaceAll(systemPrompt, "{persona}", req.Persona)
	}
	systemPrompt += identityAppendix(botNumber, req.Persona, req.OtherPersona)

	messages := []llm.Message{{Role: "system", Content: systemPrompt}}

	history := req.PreviousMessages
	if len(history) > maxHistoryMessages {
		history = history[len(history)-maxHistoryMessages:]
	}
	for _, m := range history {
		if m.Bot == botNumber {
			messages = append(messages, llm.Message{
				Role:    "assistant",
				Content: fmt.Sprintf("[당신(챗봇 %d, %s)의 이전 발언] %s", botNumber, req.Persona, m.Text),
			})
			continue
		}
		messages = append(messages, llm.Message{
			Role:    "user",
			Content: fmt.Sprintf("[상대방(챗봇 %d)의 발언] %s", other, m.Text),
		})
	}

	if len(req.PreviousMessages) == 0 {
		messages = append(messages, llm.Message{
			Role: "user",
			Content: fmt.Sprintf(`주제 '%s'에 대해 대화를 시작합니다. "%s"의 페르소나로 짧고 간결하게 첫 메시지를 작성하세요.`,
				req.Topic, req.Persona),
		})
		return messages
	}

	last := req.PreviousMessages[len(req.PreviousMessages)-1]
	messages = append(messages, llm.Message{
		Role: "user",
		Content: fmt.Sprintf(`상대방(챗봇 %d)이 방금 한 말입니다:

"%s"

상대방의 발언에 직접적으로 반응하되, 이미 말한 내용을 다시 물어보지 마세요. 역할 표시나 따옴표 없이, "%s"의 페르소나로 짧고 간결하게 응답하세요.`,
			other, last.Text, req.Persona),
	})
	return messages
}

var (
	rolePrefix   = regexp.MustCompile(`^[^:\n]{1,30}:\s*`)
	sentenceEnds = []string{"다", "요", "죠", "네", "어", "아", "지", "게", "세", "까", "래", "대"}
)

// cleanResponseText strips wrapping quotes and leaked role labels from a
// model's reply.
func cleanResponseText(text string) string {
	text = strings.TrimSpace(text)
	text = trimWrappingQuotes(text)
	text = rolePrefix.ReplaceAllString(text, "")
	return trimWrappingQuotes(strings.TrimSpace(text))
}

func trimWrappingQuotes(text string) string {
	for _, q := range []string{`"`, `'`} {
		if strings.HasPrefix(text, q) && strings.HasSuffix(text, q) && len(text) > 1 {
			text = strings.TrimSpace(text[1 : len(text)-1])
		}
	}
	return text
}

// ensureCompleteSentence forces the reply to end on sentence-final
// punctuation, truncating to the last complete sentence when the model was
// cut off mid-thought.
func ensureCompleteSentence(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return text
	}
	if strings.HasSuffix(text, ".") || strings.HasSuffix(text, "!") || strings.HasSuffix(text, "?") {
		return text
	}
	for _, ending := range sentenceEnds {
		if strings.HasSuffix(text, ending) {
			return text + "."
		}
	}

	last := -1
	for _, p := range []string{".", "!", "?"} {
		if idx := strings.LastIndex(text, p); idx > last {
			last = idx
		}
	}
	if last >= 0 {
		return strings.TrimSpace(text[:last+1])
	}
	return text + "."
}
