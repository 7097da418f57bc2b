package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"chat-simulator/internal/sim"
)

// RunEvent is one completed simulation run, recorded without credentials.
type RunEvent struct {
	Timestamp    time.Time `json:"timestamp"`
	Topic        string    `json:"topic"`
	Persona1     string    `json:"persona1"`
	Persona2     string    `json:"persona2"`
	TurnsPerBot  int       `json:"turns_per_bot"`
	NumberOfSets int       `json:"number_of_sets"`
	Messages     int       `json:"messages"`
	TotalTokens  int       `json:"total_tokens"`
}

// FileRecorder appends run events to a JSONL file.
type FileRecorder struct {
	path string
	mu   sync.Mutex
}

func NewFileRecorder(path string) (*FileRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to init log file: %w", err)
	}
	_ = f.Close()
	return &FileRecorder{path: path}, nil
}

// AppendRun records one finished run.
func (r *FileRecorder) AppendRun(cfg sim.Config, sets []sim.ConversationSet) error {
	ev := RunEvent{
		Timestamp:    time.Now(),
		Topic:        cfg.Topic,
		Persona1:     cfg.Persona1,
		Persona2:     cfg.Persona2,
		TurnsPerBot:  cfg.TurnsPerBot,
		NumberOfSets: cfg.NumberOfSets,
	}
	for _, set := range sets {
		ev.Messages += len(set.Messages)
		ev.TotalTokens += sim.ComputeStats(set.Messages, 0).Total
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open append: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(ev); err != nil {
		return fmt.Errorf("encode append: %w", err)
	}
	return nil
}
