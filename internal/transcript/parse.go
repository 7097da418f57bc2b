package transcript

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Parse decodes a transcript in any supported format into evaluation items.
// It returns an error only for structurally invalid input; unrecognized rows
// or blocks inside an otherwise valid file are skipped silently.
func Parse(format Format, content string) ([]Item, error) {
	switch format {
	case FormatJSON:
		return parseJSON(content)
	case FormatCSV:
		return parseCSV(content)
	case FormatText:
		return parseText(content)
	default:
		return nil, fmt.Errorf("unknown transcript format: %q", format)
	}
}

func normalizeSpeaker(raw string) string {
	switch {
	case strings.Contains(raw, "1"):
		return "Bot 1"
	case strings.Contains(raw, "2"):
		return "Bot 2"
	default:
		return raw
	}
}

func parseJSON(content string) ([]Item, error) {
	var data struct {
		Config *struct {
			Topic    string `json:"topic"`
			Persona1 string `json:"persona1"`
			Persona2 string `json:"persona2"`
		} `json:"config"`
		Sets []struct {
			Messages []struct {
				Bot  int    `json:"bot"`
				Text string `json:"text"`
			} `json:"messages"`
		} `json:"conversationSets"`
	}
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return nil, fmt.Errorf("invalid JSON transcript: %w", err)
	}
	if data.Sets == nil {
		return nil, fmt.Errorf("invalid JSON transcript: missing conversationSets")
	}

	topic, persona1, persona2 := "Unknown Topic", "Bot 1", "Bot 2"
	if data.Config != nil {
		if data.Config.Topic != "" {
			topic = data.Config.Topic
		}
		if data.Config.Persona1 != "" {
			persona1 = data.Config.Persona1
		}
		if data.Config.Persona2 != "" {
			persona2 = data.Config.Persona2
		}
	}

	items := make([]Item, 0, len(data.Sets))
	for _, set := range data.Sets {
		item := Item{
			ID:       uuid.NewString(),
			Topic:    topic,
			Persona1: persona1,
			Persona2: persona2,
		}
		for _, msg := range set.Messages {
			item.Dialogue = append(item.Dialogue, Utterance{
				Speaker: fmt.Sprintf("Bot %d", msg.Bot),
				Text:    msg.Text,
			})
		}
		placeholderGrading(&item)
		items = append(items, item)
	}
	return items, nil
}

// splitCSVRow tokenizes one CSV row: a field is either a double-quoted run
// (doubled quotes stand for literal quotes) or an unquoted comma-free token.
func splitCSVRow(row string) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false
	for i := 0; i < len(row); i++ {
		c := row[i]
		switch {
		case inQuotes && c == '"':
			if i+1 < len(row) && row[i+1] == '"' {
				cur.WriteByte('"')
				i++
				continue
			}
			inQuotes = false
		case c == '"':
			inQuotes = true
		case c == ',' && !inQuotes:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	fields = append(fields, cur.String())
	return fields
}

func parseCSV(content string) ([]Item, error) {
	content = strings.TrimPrefix(content, "\uFEFF")
	lines := strings.Split(content, "\n")
	if len(lines) == 0 {
		return nil, fmt.Errorf("empty CSV transcript")
	}

	type pending struct {
		messages []Utterance
	}
	var order []string
	sets := make(map[string]*pending)

	// The first line is either the header row or a metadata marker; either
	// way it is never a message row.
	for _, line := range lines[1:] {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := splitCSVRow(line)
		if len(fields) < 3 {
			continue
		}
		setNum := strings.TrimSpace(fields[0])
		speakerRaw := strings.TrimSpace(fields[1])
		text := strings.TrimSpace(fields[2])

		// A metadata block may precede the real header; skip the header
		// wherever it appears, and the synthetic per-set statistics rows.
		if setNum == "세트" || speakerRaw == "[토큰 통계]" {
			continue
		}

		p, ok := sets[setNum]
		if !ok {
			p = &pending{}
			sets[setNum] = p
			order = append(order, setNum)
		}
		p.messages = append(p.messages, Utterance{Speaker: normalizeSpeaker(speakerRaw), Text: text})
	}

	items := make([]Item, 0, len(order))
	for _, key := range order {
		item := Item{
			ID:       uuid.NewString(),
			Topic:    "Imported CSV Conversation",
			Persona1: "Unknown",
			Persona2: "Unknown",
			Dialogue: sets[key].messages,
		}
		placeholderGrading(&item)
		items = append(items, item)
	}
	return items, nil
}

var (
	topicLine    = regexp.MustCompile(`주제: (.*)`)
	persona1Line = regexp.MustCompile(`페르소나1: (.*)`)
	persona2Line = regexp.MustCompile(`페르소나2: (.*)`)
	setDelimiter = regexp.MustCompile(`\[세트 \d+\]`)
)

func matchLine(re *regexp.Regexp, content, fallback string) string {
	if m := re.FindStringSubmatch(content); m != nil {
		if v := strings.TrimSpace(m[1]); v != "" {
			return v
		}
	}
	return fallback
}

func parseText(content string) ([]Item, error) {
	topic := matchLine(topicLine, content, "Imported TXT Conversation")
	persona1 := matchLine(persona1Line, content, "Bot 1")
	persona2 := matchLine(persona2Line, content, "Bot 2")

	segments := setDelimiter.Split(content, -1)
	if len(segments) < 2 {
		// No set delimiters: nothing to evaluate, but not an error.
		return []Item{}, nil
	}

	var items []Item
	for _, segment := range segments[1:] {
		var dialogue []Utterance
		for _, block := range strings.Split(strings.TrimSpace(segment), "\n\n") {
			block = strings.TrimSpace(block)
			if block == "" || strings.HasPrefix(block, "[토큰 통계]") {
				continue
			}
			colon := strings.Index(block, ":")
			if colon < 0 {
				continue
			}
			dialogue = append(dialogue, Utterance{
				Speaker: normalizeSpeaker(strings.TrimSpace(block[:colon])),
				Text:    strings.TrimSpace(block[colon+1:]),
			})
		}
		if len(dialogue) == 0 {
			continue
		}

		item := Item{
			ID:       uuid.NewString(),
			Topic:    topic,
			Persona1: persona1,
			Persona2: persona2,
			Dialogue: dialogue,
		}
		placeholderGrading(&item)
		items = append(items, item)
	}
	return items, nil
}
