package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Database DatabaseConfig
	Provider ProviderConfig
	APIPort  string
	LogLevel string

	DetectAPIURL string
	UploadsDir   string
	ReportsDir   string

	CorpusReindexInterval time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
	MaxConns int
	MinConns int
}

// ProviderConfig holds the credentials and tuning for every estimation/chat
// backend. Empty keys disable the corresponding provider at call time, not
// at startup.
type ProviderConfig struct {
	Preferred string

	OpenAIAPIKey string
	OpenAIModel  string

	GeminiAPIKey string
	GeminiModel  string

	DeepseekAPIKey string
	DeepseekModel  string

	HuggingFaceAPIKey string
	HuggingFaceModel  string

	OllamaBaseURL string
	OllamaModel   string

	AttemptTimeout    time.Duration
	OllamaProbe       time.Duration
	TransportRetries  int
	DeepseekRetries   int
	RequestsPerMinute int
}

func Load() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "autofix"),
			User:     getEnv("DB_USER", "autofix"),
			Password: getEnv("DB_PASSWORD", ""),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 25),
			MinConns: getEnvInt("DB_MIN_CONNS", 5),
		},
		Provider: ProviderConfig{
			Preferred: getEnv("PREFERRED_PROVIDER", ""),

			OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),

			GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
			GeminiModel:  getEnv("GEMINI_MODEL", ""),

			DeepseekAPIKey: getEnv("DEEPSEEK_API_KEY", ""),
			DeepseekModel:  getEnv("DEEPSEEK_MODEL", "deepseek-chat"),

			HuggingFaceAPIKey: getEnv("HUGGINGFACE_API_KEY", ""),
			HuggingFaceModel:  getEnv("HUGGINGFACE_MODEL", "google/flan-t5-large"),

			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:   getEnv("OLLAMA_MODEL", "llama3.2"),

			AttemptTimeout:    getEnvDuration("PROVIDER_TIMEOUT", 45*time.Second),
			OllamaProbe:       getEnvDuration("OLLAMA_PROBE_TIMEOUT", 2*time.Second),
			TransportRetries:  getEnvInt("TRANSPORT_RETRIES", 2),
			DeepseekRetries:   getEnvInt("DEEPSEEK_RETRIES", 1),
			RequestsPerMinute: getEnvInt("LLM_REQUESTS_PER_MINUTE", 0),
		},
		APIPort:  getEnv("API_PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DetectAPIURL: getEnv("DETECT_API_URL", "http://localhost:5000"),
		UploadsDir:   getEnv("UPLOADS_DIR", "uploads"),
		ReportsDir:   getEnv("REPORTS_DIR", "reports"),

		CorpusReindexInterval: getEnvDuration("CORPUS_REINDEX_INTERVAL", 5*time.Minute),
	}
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
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
