package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/nanocode/logging"
	"github.com/hupe1980/nanocode/model"
)

// Environment variables read by LoadFromEnv.
const (
	EnvConfigFile      = "NANOCODE_CONFIG"
	EnvProvider        = "NANOCODE_PROVIDER"
	EnvBaseURL         = "NANOCODE_BASE_URL"
	EnvMaxToolRounds   = "NANOCODE_MAX_TOOL_ROUNDS"
	EnvMaxTokens       = "NANOCODE_MAX_TOKENS"
	EnvToolParallelism = "NANOCODE_TOOL_PARALLELISM"
	EnvSystemPrompt    = "NANOCODE_SYSTEM_PROMPT"
	EnvWorkDir         = "NANOCODE_WORK_DIR"
	EnvLogLevel        = "NANOCODE_LOG_LEVEL"
	EnvLogFormat       = "NANOCODE_LOG_FORMAT"
	EnvLogFile         = "NANOCODE_LOG_FILE"
)

// DefaultSystemPrompt is rendered with the host's system information.
const DefaultSystemPrompt = `Concise coding assistant.
{{.SystemInfo}}
Provide OS-appropriate commands and file paths based on the system information above.`

// Config holds every tunable setting of nanocode.
type Config struct {
	Provider        string    `json:"provider" yaml:"provider" toml:"provider"`
	Model           string    `json:"model" yaml:"model" toml:"model"`
	BaseURL         string    `json:"base_url" yaml:"base_url" toml:"base_url"`
	MaxToolRounds   int       `json:"max_tool_rounds" yaml:"max_tool_rounds" toml:"max_tool_rounds"`
	MaxTokens       int       `json:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`
	ToolParallelism int       `json:"tool_parallelism" yaml:"tool_parallelism" toml:"tool_parallelism"`
	SystemPrompt    string    `json:"system_prompt" yaml:"system_prompt" toml:"system_prompt"`
	WorkDir         string    `json:"work_dir" yaml:"work_dir" toml:"work_dir"`
	Log             LogConfig `json:"log" yaml:"log" toml:"log"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" toml:"level"`
	Format string `json:"format" yaml:"format" toml:"format"` // text or json
	File   string `json:"file" yaml:"file" toml:"file"`       // empty means stderr
	// AddSource records the source position of each log call.
	AddSource bool `json:"add_source" yaml:"add_source" toml:"add_source"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		MaxToolRounds:   25,
		MaxTokens:       8192,
		ToolParallelism: 4,
		SystemPrompt:    DefaultSystemPrompt,
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load builds the effective configuration: defaults, then the file named by
// NANOCODE_CONFIG (if any), then environment overrides. The result is validated.
func Load(lookup model.LookupFunc) (Config, error) {
	cfg := DefaultConfig()

	if path := get(lookup, EnvConfigFile); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.LoadFromEnv(lookup); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFile merges the file at path into c. The format follows the extension:
// .yaml/.yml, .toml or .json. Keys missing from the file keep their current value.
func (c *Config) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if len(bytes.TrimSpace(raw)) == 0 {
			return nil
		}

		err = yaml.Unmarshal(raw, c)
	case ".toml":
		_, err = toml.Decode(string(raw), c)
	case ".json":
		err = json.Unmarshal(raw, c)
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}

	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	return nil
}

// LoadFromEnv applies NANOCODE_* variables and MODEL on top of c. Blank values
// are ignored.
func (c *Config) LoadFromEnv(lookup model.LookupFunc) error {
	setString := func(key string, dst *string) {
		if v := get(lookup, key); v != "" {
			*dst = v
		}
	}

	setInt := func(key string, dst *int) error {
		v := get(lookup, key)
		if v == "" {
			return nil
		}

		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", key, v)
		}

		*dst = n

		return nil
	}

	setString(EnvProvider, &c.Provider)
	setString(model.EnvModel, &c.Model)
	setString(EnvBaseURL, &c.BaseURL)
	setString(EnvSystemPrompt, &c.SystemPrompt)
	setString(EnvWorkDir, &c.WorkDir)
	setString(EnvLogLevel, &c.Log.Level)
	setString(EnvLogFormat, &c.Log.Format)
	setString(EnvLogFile, &c.Log.File)

	return errors.Join(
		setInt(EnvMaxToolRounds, &c.MaxToolRounds),
		setInt(EnvMaxTokens, &c.MaxTokens),
		setInt(EnvToolParallelism, &c.ToolParallelism),
	)
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error

	if c.Provider != "" {
		if _, err := model.ParseKind(c.Provider); err != nil {
			errs = append(errs, err)
		}
	}

	if c.MaxToolRounds < 1 {
		errs = append(errs, fmt.Errorf("max_tool_rounds must be positive, got %d", c.MaxToolRounds))
	}

	if c.MaxTokens < 1 {
		errs = append(errs, fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens))
	}

	if c.ToolParallelism < 1 {
		errs = append(errs, fmt.Errorf("tool_parallelism must be positive, got %d", c.ToolParallelism))
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}

	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}

	return nil
}

// Override returns the provider selection pins of c.
func (c Config) Override() model.Override {
	// Validate has already rejected unknown kinds.
	kind, _ := model.ParseKind(c.Provider)

	return model.Override{Kind: kind, Model: c.Model, BaseURL: c.BaseURL}
}

// Logging returns the logger configuration of c, writing to stderr.
func (c Config) Logging() logging.Config {
	lc := logging.DefaultConfig()
	lc.Level, _ = logging.ParseLevel(c.Log.Level)
	lc.AddSource = c.Log.AddSource

	if c.Log.Format != "" {
		lc.Format = c.Log.Format
	}

	return lc
}

func get(lookup model.LookupFunc, key string) string {
	if lookup == nil {
		return ""
	}

	v, ok := lookup(key)
	if !ok {
		return ""
	}

	return strings.TrimSpace(v)
}
