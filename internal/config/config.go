// Package config loads docwiz settings from a YAML file, a .env file and the
// environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"docwiz/internal/outline"
)

type Config struct {
	Server struct {
		Port        string        `yaml:"port"`
		FrontendURL string        `yaml:"frontend_url"`
		SessionTTL  time.Duration `yaml:"session_ttl"`
		ReadTimeout time.Duration `yaml:"read_timeout"`
	} `yaml:"server"`
	AI struct {
		Provider     string `yaml:"provider"`
		OutlineModel string `yaml:"outline_model"`
		ContentModel string `yaml:"content_model"`
		APIKey       string `yaml:"api_key"`
		BaseURL      string `yaml:"base_url"`
	} `yaml:"ai"`
	Document struct {
		PreparedBy    string `yaml:"prepared_by"`
		Institution   string `yaml:"institution"`
		DefaultLevel  string `yaml:"default_level"`
		DefaultLength int    `yaml:"default_length"`
	} `yaml:"document"`
}

// LoadConfig reads path if it exists. A missing file is not an error; the
// result is then built from defaults and the environment alone.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	// 2. Load YAML config
	var cfg Config
	if path != "" {
		file, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(file, &cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	// 3. Override with Environment Variables if present
	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if apiKey := os.Getenv("DOCWIZ_API_KEY"); apiKey != "" {
		c.AI.APIKey = apiKey
	}
	if provider := os.Getenv("DOCWIZ_AI_PROVIDER"); provider != "" {
		c.AI.Provider = provider
	}
	if baseURL := os.Getenv("DOCWIZ_BASE_URL"); baseURL != "" {
		c.AI.BaseURL = baseURL
	}
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Port = port
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.SessionTTL == 0 {
		c.Server.SessionTTL = 60 * time.Minute
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	if c.AI.Provider == "" {
		c.AI.Provider = "gemini"
	}
	if c.Document.PreparedBy == "" {
		c.Document.PreparedBy = "docwiz"
	}
	if c.Document.DefaultLevel == "" {
		c.Document.DefaultLevel = outline.DefaultLevel
	}
	if c.Document.DefaultLength <= 0 {
		c.Document.DefaultLength = outline.DefaultLength
	}
}

// Validate checks the values that have no usable default.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port cannot be empty")
	}
	if c.Server.SessionTTL < time.Minute {
		return fmt.Errorf("server.session_ttl must be at least 1m, got %s", c.Server.SessionTTL)
	}
	switch c.AI.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("unsupported ai.provider %q", c.AI.Provider)
	}
	return nil
}

// HasAI reports whether a provider can be constructed. Without a key the
// wizard runs on the default outline only.
func (c *Config) HasAI() bool {
	return c.AI.APIKey != ""
}

// IsDevelopment returns true when no production frontend is configured.
func (c *Config) IsDevelopment() bool {
	return c.Server.FrontendURL == "" ||
		strings.Contains(c.Server.FrontendURL, "localhost") ||
		strings.Contains(c.Server.FrontendURL, "127.0.0.1")
}

// AllowedOrigins is the CORS allow-list derived from the frontend URL.
func (c *Config) AllowedOrigins() []string {
	if c.IsDevelopment() {
		return []string{"*"}
	}
	return []string{strings.TrimRight(c.Server.FrontendURL, "/")}
}

// Topic returns t with document defaults applied where the user left
// fields empty.
func (c *Config) Topic(t outline.Topic) outline.Topic {
	if strings.TrimSpace(t.AcademicLevel) == "" {
		t.AcademicLevel = c.Document.DefaultLevel
	}
	if t.DocumentLength <= 0 {
		t.DocumentLength = c.Document.DefaultLength
	}
	return t.Normalize()
}
