package config

import (
	"log"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderOpenAI    LLMProvider = "openai"
	ProviderAnthropic LLMProvider = "anthropic"
	ProviderYandex    LLMProvider = "yandex"
	ProviderGoogle    LLMProvider = "google"
)

type Config struct {
	// Server
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":5000"`

	// LLM credentials. Keys are passed to provider clients only and must
	// never appear in logs or exported transcripts.
	OpenAIAPIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string `env:"OPENAI_BASE_URL"`
	AnthropicAPIKey  string `env:"ANTHROPIC_API_KEY"`
	YandexOAuthToken string `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string `env:"YANDEX_FOLDER_ID"`

	// Simulation defaults
	Topic        string  `env:"SIM_TOPIC"`
	Persona1     string  `env:"SIM_PERSONA1" envDefault:"Bot 1"`
	Persona2     string  `env:"SIM_PERSONA2" envDefault:"Bot 2"`
	Model1       string  `env:"SIM_MODEL1"`
	Model2       string  `env:"SIM_MODEL2"`
	APIKey1      string  `env:"SIM_API_KEY1"`
	APIKey2      string  `env:"SIM_API_KEY2"`
	TurnsPerBot  int     `env:"SIM_TURNS_PER_BOT" envDefault:"3"`
	NumberOfSets int     `env:"SIM_NUMBER_OF_SETS" envDefault:"2"`
	Temperature  float64 `env:"SIM_TEMPERATURE" envDefault:"1.2"`
	TopP         float64 `env:"SIM_TOP_P" envDefault:"0.9"`
	ExportFormat string  `env:"SIM_EXPORT_FORMAT" envDefault:"text"`

	// Remote endpoints used by the simulator in remote mode
	GenerateURL string `env:"GENERATE_URL" envDefault:"http://localhost:5000/api/generate-response"`
	EvaluateURL string `env:"EVALUATE_URL" envDefault:"http://localhost:5000/api/evaluate-conversation"`

	// Evaluation mode: path of a transcript to grade instead of simulating
	EvaluateFile string `env:"EVALUATE_FILE"`

	// Storage
	OutputDir  string `env:"OUTPUT_DIR" envDefault:"out"`
	RunLogPath string `env:"RUN_LOG_PATH" envDefault:"logs/runs.jsonl"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}
