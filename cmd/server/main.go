package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"chat-simulator/internal/api"
	"chat-simulator/internal/config"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()
	srv := api.NewServer(cfg)

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		log.Printf("shutting down")
		if err := srv.Shutdown(); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()

	log.Printf("🚀 API server listening on %s", cfg.ListenAddr)
	if err := srv.Listen(); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
