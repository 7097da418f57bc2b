package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"chat-simulator/internal/config"
	"chat-simulator/internal/llm"
)

// Server is the HTTP backend the simulator talks to in remote mode. It also
// serves browser clients directly, hence the permissive CORS policy.
type Server struct {
	app     *fiber.App
	cfg     *config.Config
	factory *llm.Factory
}

func NewServer(cfg *config.Config) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "chat-simulator",
		DisableStartupMessage: true,
	})
	app.Use(logger.New())
	app.Use(cors.New())

	s := &Server{
		app:     app,
		cfg:     cfg,
		factory: llm.NewFactory(cfg),
	}

	app.Get("/health", s.health)

	api := app.Group("/api")
	api.Post("/generate-response", s.generateResponse)
	api.Post("/estimate-tokens", s.estimateTokens)
	api.Post("/evaluate-conversation", s.evaluateConversation)
	api.Post("/validate-key", s.validateKey)

	return s
}

func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.ListenAddr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
