package transcript

import (
	"math/rand"
	"sync"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

type Utterance struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Item is one parsed conversation set, normalized for evaluation. The
// orchestrator fills Grade/Scores/Explanation as scoring completes.
type Item struct {
	ID          string
	Topic       string
	Persona1    string
	Persona2    string
	Dialogue    []Utterance
	Grade       int
	Scores      map[string]float64
	Explanation string
	Status      Status
}

var placeholderExplanations = []string{
	"Conversation flows logically. Personas are well maintained throughout the session.",
	"Some minor topic drifts detected, but overall coherence is acceptable.",
	"Excellent debate structure with clear arguments and counter-arguments.",
	"Engagement level is high, though Bot 2 became slightly repetitive near the end.",
	"Interaction feels a bit robotic in the middle, but concludes effectively.",
}

var (
	placeholderMu  sync.Mutex
	placeholderRng = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// placeholderGrading fills a pre-evaluation grade and explanation so freshly
// parsed items have something to display before real scores arrive. Real
// grading overwrites both.
func placeholderGrading(item *Item) {
	placeholderMu.Lock()
	defer placeholderMu.Unlock()
	item.Grade = 3 + placeholderRng.Intn(3)
	item.Explanation = placeholderExplanations[placeholderRng.Intn(len(placeholderExplanations))]
	item.Status = StatusPending
}
