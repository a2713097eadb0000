package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Defaults applied by Default and used by the CLI as flag defaults.
const (
	DefaultAddr          = ":8088"
	DefaultModelsDir     = "models"
	DefaultModelConfig   = "config.json"
	DefaultBuildMetadata = "build.toml"
	DefaultMaxTokens     = 140
	DefaultMaxConcurrent = 1
	DefaultRegistryURL   = "https://huggingface.co"
	DefaultRevision      = "main"
	DefaultProvisionFile = "config.json"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified"; Merge leaves the receiver untouched for them.
type Config struct {
	Addr          string `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir     string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	ModelConfig   string `json:"model_config" yaml:"model_config" toml:"model_config"`
	BuildMetadata string `json:"build_metadata" yaml:"build_metadata" toml:"build_metadata"`
	MaxTokens     int    `json:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`
	Threads       int    `json:"threads" yaml:"threads" toml:"threads"`
	ContextSize   int    `json:"context_size" yaml:"context_size" toml:"context_size"`
	MaxConcurrent int    `json:"max_concurrent" yaml:"max_concurrent" toml:"max_concurrent"`
	MaxBodyBytes  int64  `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	LogLevel      string `json:"log_level" yaml:"log_level" toml:"log_level"`

	CORSEnabled        bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSAllowedOrigins []string `json:"cors_allowed_origins" yaml:"cors_allowed_origins" toml:"cors_allowed_origins"`
	CORSAllowedMethods []string `json:"cors_allowed_methods" yaml:"cors_allowed_methods" toml:"cors_allowed_methods"`
	CORSAllowedHeaders []string `json:"cors_allowed_headers" yaml:"cors_allowed_headers" toml:"cors_allowed_headers"`

	Provision Provision `json:"provision" yaml:"provision" toml:"provision"`
}

// Provision describes the model artifact fetched once at startup.
// An empty ModelID disables provisioning.
type Provision struct {
	ModelID     string `json:"model_id" yaml:"model_id" toml:"model_id"`
	File        string `json:"file" yaml:"file" toml:"file"`
	Revision    string `json:"revision" yaml:"revision" toml:"revision"`
	RegistryURL string `json:"registry_url" yaml:"registry_url" toml:"registry_url"`
	Token       string `json:"token" yaml:"token" toml:"token"`
	Force       bool   `json:"force" yaml:"force" toml:"force"`
}

// Default returns a Config populated with package defaults.
func Default() Config {
	return Config{
		Addr:          DefaultAddr,
		ModelsDir:     DefaultModelsDir,
		ModelConfig:   DefaultModelConfig,
		BuildMetadata: DefaultBuildMetadata,
		MaxTokens:     DefaultMaxTokens,
		MaxConcurrent: DefaultMaxConcurrent,
		LogLevel:      "info",
		Provision: Provision{
			File:        DefaultProvisionFile,
			Revision:    DefaultRevision,
			RegistryURL: DefaultRegistryURL,
		},
	}
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// Merge overlays the non-zero fields of o onto c.
func (c *Config) Merge(o Config) {
	setStr(&c.Addr, o.Addr)
	setStr(&c.ModelsDir, o.ModelsDir)
	setStr(&c.ModelConfig, o.ModelConfig)
	setStr(&c.BuildMetadata, o.BuildMetadata)
	setInt(&c.MaxTokens, o.MaxTokens)
	setInt(&c.Threads, o.Threads)
	setInt(&c.ContextSize, o.ContextSize)
	setInt(&c.MaxConcurrent, o.MaxConcurrent)
	if o.MaxBodyBytes > 0 {
		c.MaxBodyBytes = o.MaxBodyBytes
	}
	setStr(&c.LogLevel, o.LogLevel)
	if o.CORSEnabled {
		c.CORSEnabled = true
	}
	if len(o.CORSAllowedOrigins) > 0 {
		c.CORSAllowedOrigins = o.CORSAllowedOrigins
	}
	if len(o.CORSAllowedMethods) > 0 {
		c.CORSAllowedMethods = o.CORSAllowedMethods
	}
	if len(o.CORSAllowedHeaders) > 0 {
		c.CORSAllowedHeaders = o.CORSAllowedHeaders
	}
	setStr(&c.Provision.ModelID, o.Provision.ModelID)
	setStr(&c.Provision.File, o.Provision.File)
	setStr(&c.Provision.Revision, o.Provision.Revision)
	setStr(&c.Provision.RegistryURL, o.Provision.RegistryURL)
	setStr(&c.Provision.Token, o.Provision.Token)
	if o.Provision.Force {
		c.Provision.Force = true
	}
}

// FromEnv returns the overrides found in LLMSERVER_* variables.
// The registry credential additionally falls back to HF_TOKEN.
func FromEnv(getenv func(string) string) Config {
	if getenv == nil {
		getenv = os.Getenv
	}
	var c Config
	c.Addr = getenv("LLMSERVER_ADDR")
	c.ModelsDir = getenv("LLMSERVER_MODELS_DIR")
	c.ModelConfig = getenv("LLMSERVER_MODEL_CONFIG")
	c.BuildMetadata = getenv("LLMSERVER_BUILD_METADATA")
	c.MaxTokens = atoi(getenv("LLMSERVER_MAX_TOKENS"))
	c.Threads = atoi(getenv("LLMSERVER_THREADS"))
	c.MaxConcurrent = atoi(getenv("LLMSERVER_MAX_CONCURRENT"))
	c.LogLevel = getenv("LLMSERVER_LOG_LEVEL")
	if origins := splitCSV(getenv("LLMSERVER_CORS_ORIGINS")); len(origins) > 0 {
		c.CORSEnabled = true
		c.CORSAllowedOrigins = origins
	}
	c.Provision.ModelID = getenv("LLMSERVER_PROVISION_MODEL")
	c.Provision.RegistryURL = getenv("LLMSERVER_REGISTRY_URL")
	c.Provision.Token = getenv("LLMSERVER_REGISTRY_TOKEN")
	if c.Provision.Token == "" {
		c.Provision.Token = getenv("HF_TOKEN")
	}
	return c
}

// splitCSV splits a comma-separated list, trimming blanks and dropping empties.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func setStr(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
