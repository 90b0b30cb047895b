package llm

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds environment-driven settings for the OpenAI compatible client.
type Config struct {
	// APIKey is sent as bearer token. Required for the hosted API.
	APIKey string `env:"TRIAGE_MODEL_API_KEY"`
	// BaseURL is the API root, e.g. a self-hosted OpenAI compatible gateway.
	BaseURL string `env:"TRIAGE_MODEL_BASE_URL" envDefault:"https://api.openai.com/v1"`
	// Model is the chat model name.
	Model string `env:"TRIAGE_MODEL_NAME" envDefault:"gpt-4o-mini"`
	// Timeout bounds a single HTTP request.
	Timeout time.Duration `env:"TRIAGE_MODEL_TIMEOUT" envDefault:"30s"`
	// Temperature is kept at 0 for reproducible answers.
	Temperature float64 `env:"TRIAGE_MODEL_TEMPERATURE" envDefault:"0"`
	// Seed is forwarded to providers that support deterministic sampling.
	Seed int64 `env:"TRIAGE_MODEL_SEED" envDefault:"0"`
}

// LoadConfig parses environment variables into Config.
func LoadConfig() (Config, error) {
	return env.ParseAs[Config]()
}
