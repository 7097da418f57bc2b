package sim

import "time"

// Speaker is one of the two conversation roles. Bot1 always opens a set.
type Speaker int

const (
	Bot1 Speaker = 1
	Bot2 Speaker = 2
)

// SpeakerForStep returns the role for step k of a set (0-indexed).
func SpeakerForStep(step int) Speaker {
	if step%2 == 0 {
		return Bot1
	}
	return Bot2
}

type TokenUsage struct {
	Prompt     int `json:"prompt_tokens"`
	Completion int `json:"completion_tokens"`
	Total      int `json:"total_tokens"`
}

// Button and Chip mirror provider-specific interactive elements. The scheduler
// and codec carry them opaquely; only the rendering layer interprets them.
type Button struct {
	Type        string `json:"type"`
	DisplayText string `json:"displayText"`
	Postback    string `json:"postback,omitempty"`
	IntentID    string `json:"intentId,omitempty"`
}

type Chip struct {
	Type        string `json:"type"`
	DisplayText string `json:"displayText"`
	Postback    string `json:"postback,omitempty"`
	IntentID    string `json:"intentId,omitempty"`
}

type Extras struct {
	Buttons  []Button `json:"buttons,omitempty"`
	ChipList []Chip   `json:"chipList,omitempty"`
}

// Message is one utterance. Messages are append-only: once added to a set
// they are never mutated.
type Message struct {
	ID        string
	Speaker   Speaker
	Text      string
	CreatedAt time.Time
	Usage     *TokenUsage
	Extras    *Extras
}

type ConversationSet struct {
	ID       string
	Messages []Message
	Complete bool
}

// Config is a snapshot of one run's parameters. It is immutable for the
// duration of the run.
type Config struct {
	Topic        string
	Persona1     string
	Persona2     string
	Model1       string
	Model2       string
	TurnsPerBot  int
	NumberOfSets int
	Temperature  float64
	TopP         float64
	ExportFormat string
}

func (c Config) MessagesPerSet() int { return c.TurnsPerBot * 2 }

// Persona returns the persona description for a speaker.
func (c Config) Persona(s Speaker) string {
	if s == Bot1 {
		return c.Persona1
	}
	return c.Persona2
}
