package config

import (
	"os"
	"strconv"
	"time"
)

// Provider names accepted by the application.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
)

// App holds the runtime configuration of the assistant process.
type App struct {
	// Provider selects the reasoning backend: gemini, openai or claude.
	Provider string
	// Model overrides the provider's default model name.
	Model string
	// StoreBackend selects the conversation store: memory, redis, mongo
	// or postgres.
	StoreBackend string

	GoogleAPIKey    string
	OpenAIAPIKey    string
	AnthropicAPIKey string

	SerpAPIKey          string
	AmadeusClientID     string
	AmadeusClientSecret string
	GeocodingAPIKey     string

	StepTimeout    time.Duration
	MaxIterations  int
	MaxConcurrency int
}

// Load reads the application configuration from environment variables.
func Load() *App {
	return &App{
		Provider:     getEnv("TRIPFLOW_PROVIDER", ProviderGemini),
		Model:        getEnv("TRIPFLOW_MODEL", ""),
		StoreBackend: getEnv("TRIPFLOW_STORE", "memory"),

		GoogleAPIKey:    os.Getenv("GOOGLE_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),

		SerpAPIKey:          os.Getenv("SERPAPI_API_KEY"),
		AmadeusClientID:     os.Getenv("AMADEUS_CLIENT_ID"),
		AmadeusClientSecret: os.Getenv("AMADEUS_CLIENT_SECRET"),
		GeocodingAPIKey:     os.Getenv("GOOGLE_GEOLOCATION_API"),

		StepTimeout:    getEnvDuration("TRIPFLOW_STEP_TIMEOUT", 90*time.Second),
		MaxIterations:  getEnvInt("TRIPFLOW_MAX_ITERATIONS", 10),
		MaxConcurrency: getEnvInt("TRIPFLOW_MAX_CONCURRENCY", 10),
	}
}

// ProviderKey returns the API key matching the selected provider.
func (a *App) ProviderKey() string {
	switch a.Provider {
	case ProviderOpenAI:
		return a.OpenAIAPIKey
	case ProviderClaude:
		return a.AnthropicAPIKey
	default:
		return a.GoogleAPIKey
	}
}

// Validate checks that the configuration is complete enough to start.
func (a *App) Validate() error {
	v := NewValidator()

	v.ValidateOneOf("provider", a.Provider, ProviderGemini, ProviderOpenAI, ProviderClaude)
	v.RequireNonEmpty("providerKey", a.ProviderKey())
	v.RequireNonEmpty("serpAPIKey", a.SerpAPIKey)
	v.RequireNonEmpty("amadeusClientID", a.AmadeusClientID)
	v.RequireNonEmpty("amadeusClientSecret", a.AmadeusClientSecret)
	v.RequireNonEmpty("geocodingAPIKey", a.GeocodingAPIKey)
	v.RequirePositive("maxIterations", a.MaxIterations)
	v.RequirePositive("maxConcurrency", a.MaxConcurrency)
	if a.StepTimeout <= 0 {
		v.errors = append(v.errors, ValidationError{
			Field:   "stepTimeout",
			Message: "timeout must be positive",
		})
	}

	return v.Error()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
