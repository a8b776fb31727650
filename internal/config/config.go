package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied to unset fields.
const (
	DefaultDataDir   = "."
	DefaultOutputDir = "out"
	DefaultModel     = "gemini-2.0-flash"
	DefaultAPIKeyEnv = "GEMINI_API_KEY"
	DefaultTimeout   = 30 * time.Second
	DefaultHTTPAddr  = "localhost:8080"
)

// ProjectConfig holds project-level settings loaded from alchemist.yml.
type ProjectConfig struct {
	DataDir   string      `yaml:"dataDir,omitempty"`
	OutputDir string      `yaml:"outputDir,omitempty"`
	LLM       LLMConfig   `yaml:"llm,omitempty"`
	MCP       MCPConfig   `yaml:"mcp,omitempty"`
	Graph     GraphConfig `yaml:"graph,omitempty"`
}

// LLMConfig selects the text-generation service.
type LLMConfig struct {
	Model     string        `yaml:"model,omitempty"`
	APIKeyEnv string        `yaml:"apiKeyEnv,omitempty"`
	Timeout   time.Duration `yaml:"timeout,omitempty"`
}

// MCPConfig configures the tool server.
type MCPConfig struct {
	HTTPAddr string `yaml:"httpAddr,omitempty"`
}

// GraphConfig configures the dataset graph.
type GraphConfig struct {
	PersistPath string `yaml:"persistPath,omitempty"`
}

// Load attempts to read alchemist.yml or alchemist.yaml from the given
// directory. Returns a zero-value config (not an error) if no config file
// exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range []string{"alchemist.yml", "alchemist.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return &cfg, nil
	}
	return &ProjectConfig{}, nil
}

// ApplyDefaults fills every unset field.
func (c *ProjectConfig) ApplyDefaults() {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.LLM.Model == "" {
		c.LLM.Model = DefaultModel
	}
	if c.LLM.APIKeyEnv == "" {
		c.LLM.APIKeyEnv = DefaultAPIKeyEnv
	}
	if c.LLM.Timeout <= 0 {
		c.LLM.Timeout = DefaultTimeout
	}
	if c.MCP.HTTPAddr == "" {
		c.MCP.HTTPAddr = DefaultHTTPAddr
	}
}

// APIKey returns the key held by the configured environment variable.
func (c *ProjectConfig) APIKey() string {
	return os.Getenv(c.LLM.APIKeyEnv)
}

// Save writes cfg to alchemist.yml in dir.
func Save(dir string, cfg *ProjectConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	path := filepath.Join(dir, "alchemist.yml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
