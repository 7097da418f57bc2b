package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"chat-simulator/internal/config"
	"chat-simulator/internal/estimate"
	"chat-simulator/internal/eval"
	"chat-simulator/internal/sim"
	"chat-simulator/internal/storage"
	"chat-simulator/internal/transcript"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.EvaluateFile != "" {
		if err := evaluateTranscript(ctx, cfg); err != nil {
			log.Fatalf("evaluation failed: %v", err)
		}
		return
	}

	if cfg.Topic == "" {
		log.Fatalf("SIM_TOPIC is required")
	}

	format, err := transcript.ParseFormat(cfg.ExportFormat)
	if err != nil {
		log.Fatalf("invalid export format: %v", err)
	}

	simCfg := sim.Config{
		Topic:        cfg.Topic,
		Persona1:     cfg.Persona1,
		Persona2:     cfg.Persona2,
		Model1:       cfg.Model1,
		Model2:       cfg.Model2,
		TurnsPerBot:  cfg.TurnsPerBot,
		NumberOfSets: cfg.NumberOfSets,
		Temperature:  cfg.Temperature,
		TopP:         cfg.TopP,
		ExportFormat: cfg.ExportFormat,
	}

	est := estimate.Simulation(estimate.Params{
		ModelType1:   cfg.Model1,
		ModelType2:   cfg.Model2,
		Topic:        cfg.Topic,
		Persona1:     cfg.Persona1,
		Persona2:     cfg.Persona2,
		TurnsPerBot:  cfg.TurnsPerBot,
		NumberOfSets: cfg.NumberOfSets,
	})
	log.Printf("📦 estimated usage: %d tokens (%d per set)", est.TotalTokens, est.PerSetTokens)

	store := sim.NewStore()
	scheduler := sim.NewScheduler(store, providerSelector(cfg))

	if err := scheduler.Run(ctx, simCfg); err != nil {
		log.Fatalf("simulation failed: %v", err)
	}
	sets := store.Snapshot()

	data, err := transcript.Encode(simCfg, sets, &est, format)
	if err != nil {
		log.Fatalf("failed to encode transcript: %v", err)
	}
	path := filepath.Join(cfg.OutputDir, fmt.Sprintf("chatbot_conversation_%s%s",
		time.Now().Format("2006-01-02_15-04-05"), format.Extension()))
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		log.Fatalf("failed to ensure output dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Fatalf("failed to write transcript: %v", err)
	}
	log.Printf("💾 transcript saved to %s", path)

	if cfg.RunLogPath != "" {
		rec, err := storage.NewFileRecorder(cfg.RunLogPath)
		if err != nil {
			log.Printf("failed to init run recorder: %v", err)
		} else if err := rec.AppendRun(simCfg, sets); err != nil {
			log.Printf("failed to record run: %v", err)
		}
	}
}

// evaluateTranscript parses an exported transcript and grades every set
// through the evaluation endpoint. Format is taken from the file extension.
func evaluateTranscript(ctx context.Context, cfg *config.Config) error {
	format, err := transcript.ParseFormat(filepath.Ext(cfg.EvaluateFile))
	if err != nil {
		return err
	}
	content, err := os.ReadFile(cfg.EvaluateFile)
	if err != nil {
		return fmt.Errorf("read transcript: %w", err)
	}
	items, err := transcript.Parse(format, string(content))
	if err != nil {
		return err
	}
	if len(items) == 0 {
		log.Printf("⚠️ no conversation sets found in %s", cfg.EvaluateFile)
		return nil
	}

	var graded []transcript.Item
	scorer := eval.NewHTTPScorer(cfg.EvaluateURL, "openai")
	orchestrator := eval.NewOrchestrator(scorer, func(items []transcript.Item, progress float64) {
		graded = items
		log.Printf("📦 evaluation progress: %.0f%%", progress)
	})
	if err := orchestrator.RunBatch(ctx, items); err != nil {
		return err
	}
	for i, item := range graded {
		log.Printf("✅ set %d: grade %d/5 (%s)", i+1, item.Grade, item.Explanation)
	}
	return nil
}

// providerSelector wires one provider per speaker. A speaker with an API key
// talks to the backend; a speaker without one uses canned template replies,
// so the two modes can be mixed in a single run.
func providerSelector(cfg *config.Config) sim.ProviderFor {
	template := sim.NewTemplateProvider(nil)

	var p1, p2 sim.Provider = template, template
	if cfg.APIKey1 != "" {
		p1 = sim.NewRemoteProvider(cfg.GenerateURL, cfg.APIKey1, "")
	}
	if cfg.APIKey2 != "" {
		p2 = sim.NewRemoteProvider(cfg.GenerateURL, cfg.APIKey2, "")
	}

	return func(s sim.Speaker) sim.Provider {
		if s == sim.Bot1 {
			return p1
		}
		return p2
	}
}
