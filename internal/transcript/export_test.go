package transcript

import (
	"strings"
	"testing"
	"time"

	"chat-simulator/internal/estimate"
	"chat-simulator/internal/sim"
)

func exportConfig() sim.Config {
	return sim.Config{
		Topic:        "인공지능 윤리",
		Persona1:     "철학자",
		Persona2:     "엔지니어",
		TurnsPerBot:  1,
		NumberOfSets: 1,
		Temperature:  1.2,
		TopP:         0.9,
	}
}

func exportSets() []sim.ConversationSet {
	at := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	return []sim.ConversationSet{{
		ID:       "set-1",
		Complete: true,
		Messages: []sim.Message{
			{ID: "set-1-msg-0", Speaker: sim.Bot1, Text: "규칙이 먼저입니다.", CreatedAt: at,
				Usage: &sim.TokenUsage{Prompt: 100, Completion: 40, Total: 140}},
			{ID: "set-1-msg-1", Speaker: sim.Bot2, Text: "아니요, \"속도\"가 먼저죠.", CreatedAt: at.Add(time.Second),
				Usage: &sim.TokenUsage{Prompt: 120, Completion: 40, Total: 160}},
		},
	}}
}

func TestEncodeTextLayout(t *testing.T) {
	est := estimate.Estimate{TotalTokens: 400, PerSetTokens: 400}
	data, err := Encode(exportConfig(), exportSets(), &est, FormatText)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	out := string(data)

	for _, want := range []string{
		"챗봇 대화 기록",
		"주제: 인공지능 윤리",
		"페르소나1: 철학자",
		"페르소나2: 엔지니어",
		"[세트 1]",
		"챗봇 1: 규칙이 먼저입니다.",
		"챗봇 2: 아니요, \"속도\"가 먼저죠.",
		"[토큰 통계]",
		"총 사용 토큰 수: 300",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("text export missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "오차: -25.0%") {
		t.Fatalf("expected error percent against the 400-token estimate:\n%s", out)
	}
}

func TestEncodeTextRoundTrip(t *testing.T) {
	data, err := Encode(exportConfig(), exportSets(), nil, FormatText)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	items, err := Parse(FormatText, string(data))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	item := items[0]
	if item.Topic != "인공지능 윤리" || item.Persona1 != "철학자" || item.Persona2 != "엔지니어" {
		t.Fatalf("metadata lost: %+v", item)
	}
	if len(item.Dialogue) != 2 {
		t.Fatalf("expected 2 utterances, got %d: %+v", len(item.Dialogue), item.Dialogue)
	}
	if item.Dialogue[0].Speaker != "Bot 1" || item.Dialogue[0].Text != "규칙이 먼저입니다." {
		t.Fatalf("unexpected first utterance: %+v", item.Dialogue[0])
	}
	if item.Dialogue[1].Speaker != "Bot 2" {
		t.Fatalf("unexpected second utterance: %+v", item.Dialogue[1])
	}
}

func TestEncodeCSVRoundTrip(t *testing.T) {
	sets := exportSets()
	sets[0].Messages[0].Text = `쉼표, 그리고 "따옴표"가 있는 메시지`

	data, err := Encode(exportConfig(), sets, nil, FormatCSV)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	out := string(data)
	if !strings.HasPrefix(out, "\uFEFF") {
		t.Fatalf("CSV export must start with a UTF-8 BOM")
	}
	if !strings.Contains(out, "세트,화자,메시지,시간,입력토큰,출력토큰,총토큰") {
		t.Fatalf("CSV header missing:\n%s", out)
	}

	items, err := Parse(FormatCSV, out)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	dialogue := items[0].Dialogue
	if len(dialogue) != 2 {
		t.Fatalf("expected 2 utterances, got %d: %+v", len(dialogue), dialogue)
	}
	if dialogue[0].Text != `쉼표, 그리고 "따옴표"가 있는 메시지` {
		t.Fatalf("quoting broke the message: %q", dialogue[0].Text)
	}
	if dialogue[0].Speaker != "Bot 1" || dialogue[1].Speaker != "Bot 2" {
		t.Fatalf("speakers not normalized: %+v", dialogue)
	}
}

func TestEncodeJSONRoundTrip(t *testing.T) {
	est := estimate.Estimate{TotalTokens: 500, PerSetTokens: 500}
	data, err := Encode(exportConfig(), exportSets(), &est, FormatJSON)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	items, err := Parse(FormatJSON, string(data))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	item := items[0]
	if item.Topic != "인공지능 윤리" || item.Persona1 != "철학자" || item.Persona2 != "엔지니어" {
		t.Fatalf("metadata lost: %+v", item)
	}
	if len(item.Dialogue) != 2 || item.Dialogue[0].Speaker != "Bot 1" || item.Dialogue[1].Speaker != "Bot 2" {
		t.Fatalf("unexpected dialogue: %+v", item.Dialogue)
	}
	if item.Dialogue[1].Text != "아니요, \"속도\"가 먼저죠." {
		t.Fatalf("text lost in round trip: %q", item.Dialogue[1].Text)
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"text": FormatText, "txt": FormatText, ".txt": FormatText,
		"csv": FormatCSV, "excel": FormatCSV, ".csv": FormatCSV,
		"json": FormatJSON, ".json": FormatJSON, "JSON": FormatJSON,
	}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
