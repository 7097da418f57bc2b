package transcript

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"chat-simulator/internal/estimate"
	"chat-simulator/internal/sim"
)

type Format string

const (
	FormatText Format = "text"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "text", "txt":
		return FormatText, nil
	case "csv", "excel":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown transcript format: %q", s)
	}
}

func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return ".csv"
	case FormatJSON:
		return ".json"
	default:
		return ".txt"
	}
}

const ruleWidth = 60

// Encode serializes a completed run in the selected format. All formats
// derive from the same (config, sets, estimate) triple; only the wall-clock
// export timestamp differs between calls.
func Encode(cfg sim.Config, sets []sim.ConversationSet, est *estimate.Estimate, format Format) ([]byte, error) {
	now := time.Now()
	switch format {
	case FormatText:
		return encodeText(cfg, sets, est, now), nil
	case FormatCSV:
		return encodeCSV(cfg, sets, est, now), nil
	case FormatJSON:
		return encodeJSON(cfg, sets, est, now)
	default:
		return nil, fmt.Errorf("unknown transcript format: %q", format)
	}
}

func perSetEstimate(est *estimate.Estimate) int {
	if est == nil {
		return 0
	}
	return est.PerSetTokens
}

func speakerLabel(s sim.Speaker) string {
	return fmt.Sprintf("챗봇 %d", int(s))
}

func encodeText(cfg sim.Config, sets []sim.ConversationSet, est *estimate.Estimate, now time.Time) []byte {
	var b strings.Builder
	b.WriteString("챗봇 대화 기록\n")
	fmt.Fprintf(&b, "주제: %s\n", cfg.Topic)
	fmt.Fprintf(&b, "페르소나1: %s\n", cfg.Persona1)
	fmt.Fprintf(&b, "페르소나2: %s\n", cfg.Persona2)
	if cfg.Model1 != "" || cfg.Model2 != "" {
		fmt.Fprintf(&b, "모델1: %s\n", cfg.Model1)
		fmt.Fprintf(&b, "모델2: %s\n", cfg.Model2)
	}
	fmt.Fprintf(&b, "Temperature: %.1f, Top-p: %.2f\n", cfg.Temperature, cfg.TopP)
	fmt.Fprintf(&b, "생성일: %s\n\n", now.Format("2006-01-02 15:04:05"))
	b.WriteString(strings.Repeat("=", ruleWidth) + "\n\n")

	for i, set := range sets {
		fmt.Fprintf(&b, "[세트 %d]\n\n", i+1)
		for _, msg := range set.Messages {
			fmt.Fprintf(&b, "%s: %s\n\n", speakerLabel(msg.Speaker), msg.Text)
		}

		stats := sim.ComputeStats(set.Messages, perSetEstimate(est))
		if stats.Total > 0 {
			b.WriteString("\n[토큰 통계]\n")
			fmt.Fprintf(&b, "총 사용 토큰 수: %d\n", stats.Total)
			fmt.Fprintf(&b, "평균: %d\n", stats.Average)
			if stats.ErrorPercent != nil {
				fmt.Fprintf(&b, "오차: %+.1f%%\n", *stats.ErrorPercent)
			}
			b.WriteString("\n")
		}

		b.WriteString(strings.Repeat("-", ruleWidth) + "\n\n")
	}
	return []byte(b.String())
}

// csvQuote wraps a field in double quotes, doubling internal quotes.
func csvQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func encodeCSV(cfg sim.Config, sets []sim.ConversationSet, est *estimate.Estimate, now time.Time) []byte {
	var b strings.Builder
	b.WriteString("\uFEFF") // UTF-8 BOM so spreadsheet tools pick the right charset

	b.WriteString("메타데이터,\n")
	fmt.Fprintf(&b, "주제,%s\n", csvQuote(cfg.Topic))
	fmt.Fprintf(&b, "페르소나1,%s\n", csvQuote(cfg.Persona1))
	fmt.Fprintf(&b, "페르소나2,%s\n", csvQuote(cfg.Persona2))
	fmt.Fprintf(&b, "Temperature,%.1f\n", cfg.Temperature)
	fmt.Fprintf(&b, "Top-p,%.2f\n", cfg.TopP)
	fmt.Fprintf(&b, "생성일,%s\n", now.Format("2006-01-02 15:04:05"))
	b.WriteString(",\n")

	b.WriteString("세트,화자,메시지,시간,입력토큰,출력토큰,총토큰\n")
	for i, set := range sets {
		for _, msg := range set.Messages {
			var prompt, completion, total string
			if msg.Usage != nil {
				prompt = fmt.Sprintf("%d", msg.Usage.Prompt)
				completion = fmt.Sprintf("%d", msg.Usage.Completion)
				total = fmt.Sprintf("%d", msg.Usage.Total)
			}
			fmt.Fprintf(&b, "%d,%s,%s,%s,%s,%s,%s\n",
				i+1, speakerLabel(msg.Speaker), csvQuote(msg.Text),
				msg.CreatedAt.Format("15:04:05"), prompt, completion, total)
		}

		stats := sim.ComputeStats(set.Messages, perSetEstimate(est))
		if stats.Total > 0 {
			errCell := ""
			if stats.ErrorPercent != nil {
				errCell = fmt.Sprintf("오차: %+.1f%%", *stats.ErrorPercent)
			}
			fmt.Fprintf(&b, "%d,[토큰 통계],%s,평균: %d,,,%s\n",
				i+1, csvQuote(fmt.Sprintf("총 사용 토큰 수: %d", stats.Total)), stats.Average, errCell)
		}
	}
	return []byte(b.String())
}

type jsonExport struct {
	Config          jsonConfig      `json:"config"`
	ExportDate      string          `json:"exportDate"`
	EstimatedTokens *jsonEstimate   `json:"estimatedTokens"`
	Sets            []jsonSetExport `json:"conversationSets"`
}

type jsonConfig struct {
	Topic        string  `json:"topic"`
	Persona1     string  `json:"persona1"`
	Persona2     string  `json:"persona2"`
	Model1       string  `json:"model1,omitempty"`
	Model2       string  `json:"model2,omitempty"`
	Temperature  float64 `json:"temperature"`
	TopP         float64 `json:"topP"`
	TurnsPerBot  int     `json:"turnsPerBot"`
	NumberOfSets int     `json:"numberOfSets"`
}

type jsonEstimate struct {
	TotalTokens  int `json:"total_tokens"`
	PerSetTokens int `json:"per_set_tokens"`
}

type jsonSetExport struct {
	SetNumber  int           `json:"setNumber"`
	Messages   []jsonMessage `json:"messages"`
	TokenStats *jsonSetStats `json:"tokenStats"`
}

type jsonMessage struct {
	Bot       int             `json:"bot"`
	Speaker   string          `json:"speaker"`
	Text      string          `json:"text"`
	Timestamp string          `json:"timestamp"`
	Tokens    *sim.TokenUsage `json:"tokens,omitempty"`
}

type jsonSetStats struct {
	TotalTokens      int      `json:"total_tokens"`
	PromptTokens     int      `json:"prompt_tokens"`
	CompletionTokens int      `json:"completion_tokens"`
	AverageTokens    int      `json:"average_tokens"`
	ErrorPercentage  *float64 `json:"error_percentage"`
}

func encodeJSON(cfg sim.Config, sets []sim.ConversationSet, est *estimate.Estimate, now time.Time) ([]byte, error) {
	out := jsonExport{
		Config: jsonConfig{
			Topic:        cfg.Topic,
			Persona1:     cfg.Persona1,
			Persona2:     cfg.Persona2,
			Model1:       cfg.Model1,
			Model2:       cfg.Model2,
			Temperature:  cfg.Temperature,
			TopP:         cfg.TopP,
			TurnsPerBot:  cfg.TurnsPerBot,
			NumberOfSets: cfg.NumberOfSets,
		},
		ExportDate: now.Format(time.RFC3339),
	}
	if est != nil {
		out.EstimatedTokens = &jsonEstimate{TotalTokens: est.TotalTokens, PerSetTokens: est.PerSetTokens}
	}

	for i, set := range sets {
		js := jsonSetExport{SetNumber: i + 1}
		for _, msg := range set.Messages {
			persona := cfg.Persona(msg.Speaker)
			if persona == "" {
				persona = speakerLabel(msg.Speaker)
			}
			js.Messages = append(js.Messages, jsonMessage{
				Bot:       int(msg.Speaker),
				Speaker:   persona,
				Text:      msg.Text,
				Timestamp: msg.CreatedAt.Format(time.RFC3339),
				Tokens:    msg.Usage,
			})
		}
		stats := sim.ComputeStats(set.Messages, perSetEstimate(est))
		if stats.Total > 0 {
			js.TokenStats = &jsonSetStats{
				TotalTokens:      stats.Total,
				PromptTokens:     stats.Prompt,
				CompletionTokens: stats.Completion,
				AverageTokens:    stats.Average,
				ErrorPercentage:  stats.ErrorPercent,
			}
		}
		out.Sets = append(out.Sets, js)
	}

	return json.MarshalIndent(out, "", "  ")
}
