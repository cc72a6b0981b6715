package main

import (
	_ "embed"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultSourcesFile = "sources.yaml"

//go:embed config/sources.yaml
var defaultSourcesYAML string

// EmailConfig holds the SMTP settings for the digest email.
type EmailConfig struct {
	Sender          string
	Password        string
	Receiver        string
	SMTPServer      string
	SMTPPort        int
	SubjectTemplate string
}

// Config holds the runtime configuration, resolved from the environment and
// the sources YAML file.
type Config struct {
	MaxPerSource     int
	LLMProvider      string
	OpenRouterAPIKey string
	OpenRouterModel  string
	AnthropicAPIKey  string
	AnthropicModel   string
	Email            EmailConfig
	Headless         bool
	RawSources       []any
}

// LoadConfig resolves configuration from a .env file when present, the
// process environment, and the named sources file. Source entries are kept
// raw; the workflow validates their shape.
func LoadConfig(sourcesFile string) (*Config, error) {
	// Values from .env feed the env lookups below. A missing file is fine.
	_ = godotenv.Load()

	cfg := &Config{
		MaxPerSource:     envInt("MAX_ARTICLES_PER_SOURCE", defaultMaxPerSource),
		LLMProvider:      os.Getenv("LLM_PROVIDER"),
		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModel:  envStr("OPENROUTER_MODEL", defaultOpenRouterModel),
		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:   envStr("ANTHROPIC_MODEL", defaultAnthropicModel),
		Email: EmailConfig{
			Sender:          envStr("EMAIL_SENDER", "your-email@gmail.com"),
			Password:        envStr("EMAIL_PASSWORD", "your-app-password"),
			Receiver:        envStr("EMAIL_RECEIVER", "recipient@example.com"),
			SMTPServer:      envStr("EMAIL_SMTP_SERVER", "smtp.gmail.com"),
			SMTPPort:        envInt("EMAIL_SMTP_PORT", 587),
			SubjectTemplate: envStr("EMAIL_SUBJECT", "Daily News Summary - {date}"),
		},
		Headless: envBool("HEADLESS", true),
	}

	if cfg.MaxPerSource < 1 {
		log.Printf("Warning: MAX_ARTICLES_PER_SOURCE is %d, defaulting to %d (minimum)", cfg.MaxPerSource, defaultMaxPerSource)
		cfg.MaxPerSource = defaultMaxPerSource
	}
	// Reserved for browser-backed fetching.
	debugLog("headless mode: %v", cfg.Headless)

	raw, err := loadSources(sourcesFile)
	if err != nil {
		return nil, err
	}
	cfg.RawSources = raw
	return cfg, nil
}

// loadSources reads the source list from the YAML file. The default file is
// created from the embedded copy on first run so there is something to edit;
// an explicitly named file must already exist.
func loadSources(path string) ([]any, error) {
	if path == defaultSourcesFile {
		if err := ensureSourcesFileExists(path); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file %s: %w", path, err)
	}

	var parsed struct {
		Sources []any `yaml:"sources"`
	}
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse sources YAML: %w", err)
	}
	return parsed.Sources, nil
}

// ensureSourcesFileExists writes the embedded default sources file if none
// exists yet.
func ensureSourcesFileExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte(defaultSourcesYAML), 0644); err != nil {
			return fmt.Errorf("failed to write default sources file: %w", err)
		}
		log.Printf("Created default sources file: %s", path)
	}
	return nil
}

func envStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: %s is %q, defaulting to %d", key, value, fallback)
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Warning: %s is %q, defaulting to %v", key, value, fallback)
		return fallback
	}
	return b
}
