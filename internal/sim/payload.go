package sim

import (
	"strings"

	"github.com/dlclark/regexp2"
)

type SegmentKind int

const (
	Spoken SegmentKind = iota
	Interactive
)

// Segment is one block of a structured provider payload. Interactive segments
// additionally carry their comma-separated options.
type Segment struct {
	Kind    SegmentKind
	Text    string
	Options []string
}

var payloadMarker = regexp2.MustCompile(`(\[(?:MESSAGE|CONTENT)\])([\s\S]*?)(?=\[(?:MESSAGE|CONTENT)\]|$)`, regexp2.None)

// ParsePayload splits text on [MESSAGE]/[CONTENT] markers, preserving order.
// Text without any recognized marker is one spoken segment. Parsing is
// lenient and never fails.
func ParsePayload(text string) []Segment {
	if !strings.Contains(text, "[MESSAGE]") && !strings.Contains(text, "[CONTENT]") {
		return []Segment{{Kind: Spoken, Text: text}}
	}

	var segments []Segment
	for m, _ := payloadMarker.FindStringMatch(text); m != nil; m, _ = payloadMarker.FindNextMatch(m) {
		groups := m.Groups()
		content := strings.TrimSpace(groups[2].String())
		if groups[1].String() == "[CONTENT]" {
			var opts []string
			for _, o := range strings.Split(content, ",") {
				if o = strings.TrimSpace(o); o != "" {
					opts = append(opts, o)
				}
			}
			segments = append(segments, Segment{Kind: Interactive, Text: content, Options: opts})
			continue
		}
		segments = append(segments, Segment{Kind: Spoken, Text: content})
	}
	if len(segments) == 0 {
		return []Segment{{Kind: Spoken, Text: text}}
	}
	return segments
}
