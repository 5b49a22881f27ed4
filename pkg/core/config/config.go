// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/leseb/docingest/pkg/llm"
	"github.com/leseb/docingest/pkg/template"
)

// Config represents the main configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Extraction ExtractionConfig `yaml:"extraction"`
	BlobStore  BackendConfig    `yaml:"blob_store"`
	DocStore   BackendConfig    `yaml:"doc_store"`
	LLM        LLMConfig        `yaml:"llm"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host          string        `yaml:"host"`
	Port          int           `yaml:"port"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxUploadSize int64         `yaml:"max_upload_size"` // bytes
}

// LoggingConfig selects the log level and format
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// ExtractionConfig tunes the extraction pipeline
type ExtractionConfig struct {
	PDFWorkers int           `yaml:"pdf_workers"`
	Timeout    time.Duration `yaml:"timeout"`
	Workers    int           `yaml:"workers"` // documents reprocessed at once
}

// BackendConfig names a registered backend and its parameters
type BackendConfig struct {
	Type   string            `yaml:"type"`
	Params map[string]string `yaml:"params"`
}

// LLMConfig describes the completion provider
type LLMConfig struct {
	Shape       string        `yaml:"shape"` // openai, anthropic, google, cohere, custom
	Endpoint    string        `yaml:"endpoint"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Temperature *float64      `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`

	// Template is an optional request body with {placeholders}. It is kept
	// as a YAML node so key order survives.
	Template yaml.Node `yaml:"template"`
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

// Default returns default configuration
func Default() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:          "0.0.0.0",
			Port:          8080,
			Timeout:       60 * time.Second,
			MaxUploadSize: 50 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Extraction: ExtractionConfig{
			PDFWorkers: 1,
			Timeout:    2 * time.Minute,
			Workers:    4,
		},
		LLM: LLMConfig{
			Shape:     string(llm.ShapeOpenAI),
			MaxTokens: llm.DefaultMaxTokens,
			Timeout:   60 * time.Second,
		},
	}
	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg
}

// applyEnv overrides file values with environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	// Blob store env overrides
	if v := os.Getenv("BLOB_STORE_DIR"); v != "" {
		cfg.BlobStore.Type = "filesystem"
		setParam(&cfg.BlobStore, "base_dir", v)
	}
	if v := os.Getenv("BLOB_STORE_S3_BUCKET"); v != "" {
		cfg.BlobStore.Type = "s3"
		setParam(&cfg.BlobStore, "bucket", v)
		if endpoint := os.Getenv("BLOB_STORE_S3_ENDPOINT"); endpoint != "" {
			setParam(&cfg.BlobStore, "endpoint", endpoint)
		}
	}

	// Document store env overrides
	if v := os.Getenv("DOC_STORE_SQLITE_PATH"); v != "" {
		cfg.DocStore.Type = "sqlite"
		setParam(&cfg.DocStore, "path", v)
	}
	if v := os.Getenv("DOC_STORE_POSTGRES_DSN"); v != "" {
		cfg.DocStore.Type = "postgres"
		setParam(&cfg.DocStore, "dsn", v)
	}

	// LLM env overrides
	if v := os.Getenv("LLM_SHAPE"); v != "" {
		cfg.LLM.Shape = v
	}
	if v := os.Getenv("LLM_ENDPOINT"); v != "" {
		cfg.LLM.Endpoint = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	} else if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.BlobStore.Type == "" {
		cfg.BlobStore.Type = "memory"
	}
	if cfg.DocStore.Type == "" {
		cfg.DocStore.Type = "memory"
	}
	if cfg.Extraction.PDFWorkers < 1 {
		cfg.Extraction.PDFWorkers = 1
	}
	if cfg.Extraction.Workers < 1 {
		cfg.Extraction.Workers = 1
	}
}

func setParam(b *BackendConfig, key, value string) {
	if b.Params == nil {
		b.Params = make(map[string]string)
	}
	b.Params[key] = value
}

// Client converts the section into an llm.Config. The request template, if
// any, is parsed here so a malformed template fails at startup.
func (c LLMConfig) Client() (llm.Config, error) {
	shape, err := llm.ParseShape(c.Shape)
	if err != nil {
		return llm.Config{}, err
	}

	out := llm.Config{
		Shape:       shape,
		Endpoint:    c.Endpoint,
		APIKey:      c.APIKey,
		Model:       c.Model,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
		Timeout:     c.Timeout,
	}
	if c.Template.Kind != 0 {
		tmpl, err := template.FromYAML(&c.Template)
		if err != nil {
			return llm.Config{}, fmt.Errorf("llm template: %w", err)
		}
		out.Template = tmpl
	}
	return out, nil
}
