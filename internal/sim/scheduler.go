package sim

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// DefaultTurnDelay is the fixed pause between steps inside one set.
const DefaultTurnDelay = 500 * time.Millisecond

// ProviderFor selects the provider for one speaker of a run, so the two
// speakers can mix template and remote mode.
type ProviderFor func(s Speaker) Provider

// Scheduler drives all conversation sets of one run forward, concurrently and
// independently, publishing each new message to the store as it is produced.
type Scheduler struct {
	store     *Store
	providers ProviderFor
	delay     time.Duration
	busy      atomic.Bool
}

func NewScheduler(store *Store, providers ProviderFor) *Scheduler {
	return &Scheduler{store: store, providers: providers, delay: DefaultTurnDelay}
}

// SetTurnDelay overrides the inter-turn delay. Tests set it to zero.
func (sc *Scheduler) SetTurnDelay(d time.Duration) { sc.delay = d }

// Run executes one full simulation: NumberOfSets sets, each stepping
// TurnsPerBot*2 turns with alternating speakers starting at Bot1. It returns
// once every set has finished all its steps. Provider failures surface as
// inline error messages and never abort the run.
func (sc *Scheduler) Run(ctx context.Context, cfg Config) error {
	if cfg.TurnsPerBot < 1 || cfg.NumberOfSets < 1 {
		return fmt.Errorf("invalid simulation config: turnsPerBot=%d numberOfSets=%d", cfg.TurnsPerBot, cfg.NumberOfSets)
	}
	if !sc.busy.CompareAndSwap(false, true) {
		return fmt.Errorf("simulation already running")
	}
	defer sc.busy.Store(false)

	initial := make([]ConversationSet, cfg.NumberOfSets)
	for i := range initial {
		initial[i] = ConversationSet{ID: uuid.NewString()}
	}
	// Publish the empty sets right away so observers can render placeholders.
	gen := sc.store.Begin(initial)

	log.Printf("🎬 simulation started: %d sets, %d messages per set", cfg.NumberOfSets, cfg.MessagesPerSet())

	var wg sync.WaitGroup
	for i := range initial {
		wg.Add(1)
		go func(idx int, set ConversationSet) {
			defer wg.Done()
			sc.runSet(ctx, cfg, gen, idx, set)
		}(i, initial[i])
	}
	wg.Wait()

	log.Printf("🏁 simulation finished")
	return nil
}

func (sc *Scheduler) runSet(ctx context.Context, cfg Config, gen uint64, idx int, set ConversationSet) {
	target := cfg.MessagesPerSet()
	var local []Message

	for step := 0; step < target; step++ {
		speaker := SpeakerForStep(step)
		msg := sc.step(ctx, cfg, set.ID, speaker, local)
		local = append(local, msg)

		published := make([]Message, len(local))
		copy(published, local)
		sc.store.Publish(gen, idx, ConversationSet{
			ID:       set.ID,
			Messages: published,
			Complete: len(local) >= target,
		})

		if step < target-1 && sc.delay > 0 {
			select {
			case <-time.After(sc.delay):
			case <-ctx.Done():
				return
			}
		}
	}
}

// step produces one message, converting any provider error into an inline
// error message so the set keeps advancing.
func (sc *Scheduler) step(ctx context.Context, cfg Config, setID string, speaker Speaker, history []Message) Message {
	req := Request{
		Speaker:  speaker,
		Topic:    cfg.Topic,
		Persona1: cfg.Persona1,
		Persona2: cfg.Persona2,
		History:  history,
		Params:   GenParams{Temperature: cfg.Temperature, TopP: cfg.TopP},
	}

	reply, err := sc.providers(speaker).Generate(ctx, req)
	if err != nil {
		log.Printf("❌ set %s step %d generation failed: %v", setID, len(history), err)
		reply = errorReply(err.Error())
	}

	return Message{
		ID:        fmt.Sprintf("%s-msg-%d", setID, len(history)),
		Speaker:   speaker,
		Text:      reply.Text,
		CreatedAt: time.Now(),
		Usage:     reply.Usage,
		Extras:    reply.Extras,
	}
}
