package sim

import "context"

// Request carries everything a provider needs to produce one utterance.
// History is the set's local message list so far, oldest first.
type Request struct {
	Speaker  Speaker
	Topic    string
	Persona1 string
	Persona2 string
	History  []Message
	Params   GenParams
}

type GenParams struct {
	Temperature  float64
	TopP         float64
	SystemPrompt string
}

// Reply is the discriminated provider result: Text is always set, Usage and
// Extras only when the provider reports them. Downstream code never has to
// guess by re-parsing the text.
type Reply struct {
	Text   string
	Usage  *TokenUsage
	Extras *Extras
}

// Provider produces one utterance for the requested speaker. Implementations
// recover endpoint failures into sentinel error text inside Reply rather than
// returning an error, so a failed turn never aborts a run; a non-nil error is
// reserved for programming mistakes.
type Provider interface {
	Generate(ctx context.Context, req Request) (Reply, error)
}
