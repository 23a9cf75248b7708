// Package config loads application settings from the embedded defaults,
// an optional config file, and the environment, in that order of
// precedence (environment wins).
package config

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed config.yaml
var defaultsYAML embed.FS

type ServerConfig struct {
	Port string `yaml:"port"`
}

type UploadsConfig struct {
	Dir       string `yaml:"dir"`
	MaxSizeMB int64  `yaml:"max_size_mb"`
}

type OpenAIConfig struct {
	APIKey     string `yaml:"api_key,omitempty"`
	BaseURL    string `yaml:"base_url,omitempty"`
	Model      string `yaml:"model"`
	EmbedModel string `yaml:"embed_model"`
}

type ExtractionConfig struct {
	MaxChunkChars int `yaml:"max_chunk_chars"`
	ChunkOverlap  int `yaml:"chunk_overlap"`
}

type CalendarConfig struct {
	Name string `yaml:"name"`
}

type GoogleConfig struct {
	ClientID     string `yaml:"client_id,omitempty"`
	ClientSecret string `yaml:"client_secret,omitempty"`
	RedirectURI  string `yaml:"redirect_uri,omitempty"`
}

type Config struct {
	Server      ServerConfig     `yaml:"server"`
	DatabaseURL string           `yaml:"database_url,omitempty"`
	Uploads     UploadsConfig    `yaml:"uploads"`
	OpenAI      OpenAIConfig     `yaml:"openai"`
	Extraction  ExtractionConfig `yaml:"extraction"`
	Calendar    CalendarConfig   `yaml:"calendar"`
	Google      GoogleConfig     `yaml:"google"`
}

// Load builds the configuration. path may name a YAML file layered on top
// of the embedded defaults; pass "" to use defaults plus environment only.
func Load(path string) (*Config, error) {
	raw, err := defaultsYAML.ReadFile("config.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded defaults: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse embedded defaults: %w", err)
	}

	if path != "" {
		fileRaw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(fileRaw, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	setFromEnv(&cfg.Server.Port, "PORT")
	setFromEnv(&cfg.DatabaseURL, "DATABASE_URL")
	setFromEnv(&cfg.Uploads.Dir, "UPLOADS_DIR")
	setFromEnv(&cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	setFromEnv(&cfg.OpenAI.BaseURL, "OPENAI_BASE_URL")
	setFromEnv(&cfg.OpenAI.Model, "OPENAI_MODEL")
	setFromEnv(&cfg.Google.ClientID, "GOOGLE_CLIENT_ID")
	setFromEnv(&cfg.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	setFromEnv(&cfg.Google.RedirectURI, "GOOGLE_REDIRECT_URI")
}

func setFromEnv(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}
