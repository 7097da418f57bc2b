package sim

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
)

type scriptedProvider struct {
	mu    sync.Mutex
	calls int
	fail  func(call int) error
}

func (p *scriptedProvider) Generate(_ context.Context, req Request) (Reply, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.fail != nil {
		if err := p.fail(p.calls); err != nil {
			return Reply{}, err
		}
	}
	return Reply{Text: fmt.Sprintf("turn %d from bot %d", len(req.History), req.Speaker)}, nil
}

func sameProvider(p Provider) ProviderFor {
	return func(Speaker) Provider { return p }
}

func testConfig(turns, sets int) Config {
	return Config{
		Topic:        "도시 개발",
		Persona1:     "환경 운동가",
		Persona2:     "부동산 개발자",
		TurnsPerBot:  turns,
		NumberOfSets: sets,
	}
}

func TestRunProducesCompleteSets(t *testing.T) {
	store := NewStore()
	sc := NewScheduler(store, sameProvider(NewTemplateProvider(rand.New(rand.NewSource(7)))))
	sc.SetTurnDelay(0)

	if err := sc.Run(context.Background(), testConfig(2, 3)); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	sets := store.Snapshot()
	if len(sets) != 3 {
		t.Fatalf("expected 3 sets, got %d", len(sets))
	}
	seen := map[string]bool{}
	for _, set := range sets {
		if set.ID == "" || seen[set.ID] {
			t.Fatalf("set ID missing or duplicated: %q", set.ID)
		}
		seen[set.ID] = true
		if !set.Complete {
			t.Fatalf("set %s not marked complete", set.ID)
		}
		if len(set.Messages) != 4 {
			t.Fatalf("set %s has %d messages, want 4", set.ID, len(set.Messages))
		}
		for i, msg := range set.Messages {
			if msg.Speaker != SpeakerForStep(i) {
				t.Fatalf("set %s message %d spoken by %d, want %d", set.ID, i, msg.Speaker, SpeakerForStep(i))
			}
			if msg.Text == "" {
				t.Fatalf("set %s message %d is empty", set.ID, i)
			}
			if msg.Usage != nil {
				t.Fatalf("template mode should not report token usage, got %+v", msg.Usage)
			}
			if want := fmt.Sprintf("%s-msg-%d", set.ID, i); msg.ID != want {
				t.Fatalf("message ID %q, want %q", msg.ID, want)
			}
		}
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	sc := NewScheduler(NewStore(), sameProvider(&scriptedProvider{}))
	sc.SetTurnDelay(0)

	if err := sc.Run(context.Background(), testConfig(0, 2)); err == nil {
		t.Fatalf("expected error for zero turns")
	}
	if err := sc.Run(context.Background(), testConfig(2, 0)); err == nil {
		t.Fatalf("expected error for zero sets")
	}
}

type gatedProvider struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (p *gatedProvider) Generate(_ context.Context, _ Request) (Reply, error) {
	p.once.Do(func() { close(p.started) })
	<-p.release
	return Reply{Text: "ok"}, nil
}

func TestRunRejectsConcurrentRun(t *testing.T) {
	gate := &gatedProvider{started: make(chan struct{}), release: make(chan struct{})}
	store := NewStore()
	sc := NewScheduler(store, sameProvider(gate))
	sc.SetTurnDelay(0)

	done := make(chan error, 1)
	go func() { done <- sc.Run(context.Background(), testConfig(1, 1)) }()
	<-gate.started

	if err := sc.Run(context.Background(), testConfig(1, 1)); err == nil {
		t.Fatalf("expected second run to be rejected while first is active")
	}

	close(gate.release)
	if err := <-done; err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	// The busy flag clears after completion, so a fresh run is accepted.
	sc2 := NewScheduler(store, sameProvider(NewTemplateProvider(rand.New(rand.NewSource(1)))))
	sc2.SetTurnDelay(0)
	if err := sc2.Run(context.Background(), testConfig(1, 1)); err != nil {
		t.Fatalf("follow-up run failed: %v", err)
	}
}

func TestProviderFailureBecomesInlineMessage(t *testing.T) {
	provider := &scriptedProvider{fail: func(call int) error {
		if call == 2 {
			return fmt.Errorf("rate limited")
		}
		return nil
	}}
	store := NewStore()
	sc := NewScheduler(store, sameProvider(provider))
	sc.SetTurnDelay(0)

	if err := sc.Run(context.Background(), testConfig(2, 1)); err != nil {
		t.Fatalf("run should survive a provider failure, got %v", err)
	}

	sets := store.Snapshot()
	if len(sets) != 1 || !sets[0].Complete || len(sets[0].Messages) != 4 {
		t.Fatalf("set did not complete after failure: %+v", sets)
	}

	var inline int
	for _, msg := range sets[0].Messages {
		if strings.HasPrefix(msg.Text, "[오류: ") {
			inline++
			if !strings.Contains(msg.Text, "rate limited") {
				t.Fatalf("inline error lost reason: %q", msg.Text)
			}
		}
	}
	if inline != 1 {
		t.Fatalf("expected exactly one inline error message, got %d", inline)
	}
}

func TestProviderSelectionPerSpeaker(t *testing.T) {
	p1 := &scriptedProvider{}
	p2 := &scriptedProvider{}
	store := NewStore()
	sc := NewScheduler(store, func(s Speaker) Provider {
		if s == Bot1 {
			return p1
		}
		return p2
	})
	sc.SetTurnDelay(0)

	if err := sc.Run(context.Background(), testConfig(3, 1)); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if p1.calls != 3 || p2.calls != 3 {
		t.Fatalf("uneven provider calls: bot1=%d bot2=%d", p1.calls, p2.calls)
	}
}
