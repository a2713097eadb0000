package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"
)

var (
	// ErrNotFound is returned when the model config file does not exist.
	ErrNotFound = errors.New("model config not found")
	// ErrMalformed is returned when the model config is not valid JSON or lacks model_name.
	ErrMalformed = errors.New("model config malformed")
)

// ModelConfig names the model artifact used for inference.
type ModelConfig struct {
	ModelName string `json:"model_name"`
}

// ConfigProvider resolves the model configuration for a request.
type ConfigProvider interface {
	Load() (ModelConfig, error)
}

// FileModelConfig reads and parses Path on every Load. Nothing is cached, so
// edits to the file are picked up by the next request.
type FileModelConfig struct {
	Path string
}

// NewFileModelConfig returns a provider for path, or DefaultModelConfig when path is empty.
func NewFileModelConfig(path string) *FileModelConfig {
	if path == "" {
		path = DefaultModelConfig
	}
	return &FileModelConfig{Path: path}
}

func (f *FileModelConfig) Load() (ModelConfig, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ModelConfig{}, fmt.Errorf("%w: %s", ErrNotFound, f.Path)
		}
		return ModelConfig{}, fmt.Errorf("read %s: %w", f.Path, err)
	}
	return ParseModelConfig(b)
}

// ParseModelConfig decodes a {"model_name": string} document. The key must
// match exactly.
func ParseModelConfig(b []byte) (ModelConfig, error) {
	if !utf8.Valid(b) {
		return ModelConfig{}, fmt.Errorf("%w: not valid UTF-8", ErrMalformed)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return ModelConfig{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var name *string
	if raw, ok := fields["model_name"]; ok {
		if err := json.Unmarshal(raw, &name); err != nil {
			return ModelConfig{}, fmt.Errorf("%w: model_name: %v", ErrMalformed, err)
		}
	}
	if name == nil || strings.TrimSpace(*name) == "" {
		return ModelConfig{}, fmt.Errorf("%w: model_name is required", ErrMalformed)
	}
	return ModelConfig{ModelName: *name}, nil
}

// StaticModelConfig always returns the same configuration.
type StaticModelConfig ModelConfig

func (s StaticModelConfig) Load() (ModelConfig, error) {
	if strings.TrimSpace(s.ModelName) == "" {
		return ModelConfig{}, fmt.Errorf("%w: model_name is required", ErrMalformed)
	}
	return ModelConfig(s), nil
}
