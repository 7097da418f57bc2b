package transcript

import (
	"strings"
	"testing"
)

func TestParseTextWithoutDelimiters(t *testing.T) {
	items, err := Parse(FormatText, "주제: 어떤 주제\n\n그냥 자유 텍스트입니다.\n")
	if err != nil {
		t.Fatalf("delimiter-less text must not be an error, got %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
}

func TestParseTextFallbacks(t *testing.T) {
	content := "[세트 1]\n\n챗봇 1: 안녕하세요\n\n챗봇 2: 반갑습니다\n"
	items, err := Parse(FormatText, content)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	item := items[0]
	if item.Topic != "Imported TXT Conversation" || item.Persona1 != "Bot 1" || item.Persona2 != "Bot 2" {
		t.Fatalf("fallback metadata wrong: %+v", item)
	}
	if len(item.Dialogue) != 2 {
		t.Fatalf("expected 2 utterances, got %+v", item.Dialogue)
	}
}

func TestParseTextSkipsEmptySets(t *testing.T) {
	content := "주제: 테스트\n\n[세트 1]\n\n챗봇 1: 유일한 발언\n\n[세트 2]\n\n[토큰 통계]\n총 사용 토큰 수: 10\n"
	items, err := Parse(FormatText, content)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("set with only statistics should be dropped, got %d items", len(items))
	}
	if items[0].Dialogue[0].Text != "유일한 발언" {
		t.Fatalf("unexpected dialogue: %+v", items[0].Dialogue)
	}
}

func TestParseCSVSkipsMalformedRows(t *testing.T) {
	content := strings.Join([]string{
		"세트,화자,메시지,시간,입력토큰,출력토큰,총토큰",
		"1,챗봇 1,첫 번째 메시지,10:00:00,10,5,15",
		"깨진 행,두 칸뿐", // short row, ignored
		"1,챗봇 2,두 번째 메시지,10:00:01,12,6,18",
		"1,[토큰 통계],\"총 사용 토큰 수: 33\",평균: 17,,,",
		"2,챗봇 1,다른 세트의 메시지,10:00:02,,,",
	}, "\n")

	items, err := Parse(FormatCSV, content)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 sets, got %d", len(items))
	}
	if len(items[0].Dialogue) != 2 {
		t.Fatalf("malformed row broke grouping: %+v", items[0].Dialogue)
	}
	if items[0].Dialogue[1].Text != "두 번째 메시지" {
		t.Fatalf("row after malformed one was lost: %+v", items[0].Dialogue)
	}
	if len(items[1].Dialogue) != 1 || items[1].Dialogue[0].Text != "다른 세트의 메시지" {
		t.Fatalf("second set wrong: %+v", items[1].Dialogue)
	}
	if items[0].Topic != "Imported CSV Conversation" || items[0].Persona1 != "Unknown" {
		t.Fatalf("CSV fallback metadata wrong: %+v", items[0])
	}
}

func TestParseCSVHeaderAfterMetadata(t *testing.T) {
	content := strings.Join([]string{
		"메타데이터,",
		"주제,\"수면의 중요성\"",
		",",
		"세트,화자,메시지,시간,입력토큰,출력토큰,총토큰",
		"1,챗봇 1,잠이 최고죠,09:00:00,,,",
	}, "\n")

	items, err := Parse(FormatCSV, content)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(items) != 1 || len(items[0].Dialogue) != 1 {
		t.Fatalf("header inside the body was not skipped: %+v", items)
	}
}

func TestParseJSONErrors(t *testing.T) {
	if _, err := Parse(FormatJSON, "{not json"); err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
	if _, err := Parse(FormatJSON, `{"config":{"topic":"x"}}`); err == nil {
		t.Fatalf("expected error when conversationSets is missing")
	}
}

func TestParseJSONFallbacks(t *testing.T) {
	items, err := Parse(FormatJSON, `{"conversationSets":[{"messages":[{"bot":1,"text":"안녕"}]}]}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	item := items[0]
	if item.Topic != "Unknown Topic" || item.Persona1 != "Bot 1" || item.Persona2 != "Bot 2" {
		t.Fatalf("fallback metadata wrong: %+v", item)
	}
	if item.Dialogue[0].Speaker != "Bot 1" || item.Dialogue[0].Text != "안녕" {
		t.Fatalf("unexpected dialogue: %+v", item.Dialogue)
	}
}

func TestPlaceholderGrading(t *testing.T) {
	for i := 0; i < 50; i++ {
		items, err := Parse(FormatJSON, `{"conversationSets":[{"messages":[{"bot":1,"text":"hi"}]}]}`)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		item := items[0]
		if item.Grade < 3 || item.Grade > 5 {
			t.Fatalf("placeholder grade %d outside 3..5", item.Grade)
		}
		if item.Explanation == "" {
			t.Fatalf("placeholder explanation missing")
		}
		if item.Status != StatusPending {
			t.Fatalf("fresh item should be pending, got %q", item.Status)
		}
		if item.ID == "" {
			t.Fatalf("item ID missing")
		}
	}
}
