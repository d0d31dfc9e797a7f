// Package config provides configuration file support for ace.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = ".ace.yaml"

// Duration is a custom type that handles YAML duration parsing.
// Supports both Go duration format ("5m", "300s") and numeric seconds.
type Duration time.Duration

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	case int:
		*d = Duration(time.Duration(v) * time.Second)
	case float64:
		*d = Duration(time.Duration(v) * time.Second)
	default:
		return fmt.Errorf("invalid duration type: %T", v)
	}
	return nil
}

// AsDuration returns the underlying time.Duration.
func (d Duration) AsDuration() time.Duration {
	return time.Duration(d)
}

// Config represents the ace configuration file.
type Config struct {
	Model     *string    `yaml:"model"`
	BaseURL   *string    `yaml:"base_url"`
	MaxTokens *int       `yaml:"max_tokens"`
	MaxLoops  *int       `yaml:"max_loops"`
	IDEName   *string    `yaml:"ide_name"`
	Workspace *string    `yaml:"workspace"`
	Timeout   *Duration  `yaml:"timeout"`
	LogLevel  *string    `yaml:"log_level"`
	Tools     ToolConfig `yaml:"tools"`
}

// ToolConfig holds tool-related configuration.
type ToolConfig struct {
	Enabled    []string `yaml:"enabled"`
	ShellAllow []string `yaml:"shell_allow"`
}

// knownTools are the tool names accepted in the enabled list.
var knownTools = []string{"file", "search", "shell"}

// knownLogLevels are the accepted log_level values.
var knownLogLevels = []string{"debug", "info", "warn", "error"}

// LoadResult contains the loaded config and any warnings encountered.
type LoadResult struct {
	Config   *Config
	Warnings []string
}

// LoadFromDirWithWarnings reads .ace.yaml from the specified directory and
// returns warnings. Returns an empty config (not error) if the file doesn't
// exist. Returns an error if the file exists but is invalid.
func LoadFromDirWithWarnings(dir string) (*LoadResult, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	return LoadFromPathWithWarnings(configPath)
}

// LoadFromPathWithWarnings reads a config file and returns warnings for
// unknown keys. Returns an empty config (not error) if the file doesn't
// exist. Returns an error if the file exists but is invalid YAML or contains
// invalid values.
func LoadFromPathWithWarnings(path string) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &LoadResult{Config: &Config{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	warnings := checkUnknownKeys(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ConfigFileName, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", ConfigFileName, err)
	}

	return &LoadResult{Config: &cfg, Warnings: warnings}, nil
}

// Validate checks that all config values are valid.
func (c *Config) Validate() error {
	if c.MaxTokens != nil && *c.MaxTokens < 1 {
		return fmt.Errorf("max_tokens must be >= 1, got %d", *c.MaxTokens)
	}
	if c.MaxLoops != nil && *c.MaxLoops < 1 {
		return fmt.Errorf("max_loops must be >= 1, got %d", *c.MaxLoops)
	}
	if c.Timeout != nil && *c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0, got %s", time.Duration(*c.Timeout))
	}
	if c.LogLevel != nil && !slices.Contains(knownLogLevels, *c.LogLevel) {
		return fmt.Errorf("log_level must be one of %v, got %q", knownLogLevels, *c.LogLevel)
	}
	for _, name := range c.Tools.Enabled {
		if !slices.Contains(knownTools, name) {
			return fmt.Errorf("tools.enabled must contain only %v, got %q", knownTools, name)
		}
	}
	return nil
}

// knownTopLevelKeys are the valid top-level keys in the config file.
var knownTopLevelKeys = []string{"model", "base_url", "max_tokens", "max_loops", "ide_name", "workspace", "timeout", "log_level", "tools"}

// knownToolKeys are the valid keys under the "tools" section.
var knownToolKeys = []string{"enabled", "shell_allow"}

// checkUnknownKeys checks for unknown keys in the YAML data and returns warnings.
func checkUnknownKeys(data []byte) []string {
	var warnings []string

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		// If we can't parse, let the main parser handle the error
		return nil
	}

	for key := range raw {
		if !slices.Contains(knownTopLevelKeys, key) {
			warning := fmt.Sprintf("unknown key %q in %s", key, ConfigFileName)
			if suggestion := findSimilar(key, knownTopLevelKeys); suggestion != "" {
				warning += fmt.Sprintf(" (did you mean %q?)", suggestion)
			}
			warnings = append(warnings, warning)
		}
	}

	if tools, ok := raw["tools"].(map[string]any); ok {
		for key := range tools {
			if !slices.Contains(knownToolKeys, key) {
				warning := fmt.Sprintf("unknown key %q in tools section of %s", key, ConfigFileName)
				if suggestion := findSimilar(key, knownToolKeys); suggestion != "" {
					warning += fmt.Sprintf(" (did you mean %q?)", suggestion)
				}
				warnings = append(warnings, warning)
			}
		}
	}

	return warnings
}

// findSimilar finds the most similar string from candidates using Levenshtein
// distance. Returns empty string if no candidate is similar enough
// (threshold: 3 edits).
func findSimilar(input string, candidates []string) string {
	const maxDistance = 3
	bestMatch := ""
	bestDistance := maxDistance + 1

	for _, candidate := range candidates {
		dist := levenshtein(input, candidate)
		if dist < bestDistance {
			bestDistance = dist
			bestMatch = candidate
		}
	}

	if bestDistance <= maxDistance {
		return bestMatch
	}
	return ""
}

// levenshtein calculates the Levenshtein distance between two strings.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)

	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	matrix := make([][]int, len(ra)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(rb)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(ra)][len(rb)]
}

// Defaults holds the built-in default values.
var Defaults = ResolvedConfig{
	Model:      "gpt-4o-mini",
	MaxTokens:  4000,
	MaxLoops:   2,
	IDEName:    "your editor",
	Workspace:  ".",
	Timeout:    5 * time.Minute,
	LogLevel:   "info",
	Tools:      []string{"file", "search"},
	ShellAllow: nil,
}

// ResolvedConfig holds the final resolved configuration values.
type ResolvedConfig struct {
	Model      string
	BaseURL    string
	MaxTokens  int
	MaxLoops   int
	IDEName    string
	Workspace  string
	Timeout    time.Duration
	LogLevel   string
	Tools      []string
	ShellAllow []string
}

// FlagState tracks whether a flag was explicitly set.
type FlagState struct {
	ModelSet     bool
	BaseURLSet   bool
	MaxTokensSet bool
	MaxLoopsSet  bool
	WorkspaceSet bool
	TimeoutSet   bool
	LogLevelSet  bool
}

// EnvState captures env var values and whether they were set.
type EnvState struct {
	Model       string
	ModelSet    bool
	BaseURL     string
	BaseURLSet  bool
	MaxLoops    int
	MaxLoopsSet bool
	Timeout     time.Duration
	TimeoutSet  bool
	LogLevel    string
	LogLevelSet bool
}

// LoadEnvState reads environment variables and returns their state.
func LoadEnvState() EnvState {
	var state EnvState

	if v := os.Getenv("ACE_MODEL"); v != "" {
		state.Model = v
		state.ModelSet = true
	}
	if v := os.Getenv("ACE_BASE_URL"); v != "" {
		state.BaseURL = v
		state.BaseURLSet = true
	}
	if v := os.Getenv("ACE_MAX_LOOPS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			state.MaxLoops = i
			state.MaxLoopsSet = true
		}
	}
	if v := os.Getenv("ACE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			state.Timeout = d
			state.TimeoutSet = true
		} else if secs, err := strconv.Atoi(v); err == nil {
			state.Timeout = time.Duration(secs) * time.Second
			state.TimeoutSet = true
		}
	}
	if v := os.Getenv("ACE_LOG_LEVEL"); v != "" {
		state.LogLevel = v
		state.LogLevelSet = true
	}

	return state
}

// APIKey returns the OpenAI-compatible API key from the environment.
// ACE_OPENAI_API_KEY takes precedence over OPENAI_API_KEY.
func APIKey() string {
	if v := os.Getenv("ACE_OPENAI_API_KEY"); v != "" {
		return v
	}
	return os.Getenv("OPENAI_API_KEY")
}

// Resolve merges config file values with env vars and flags.
// Precedence: flags > env vars > config file > defaults
func Resolve(cfg *Config, envState EnvState, flagState FlagState, flagValues ResolvedConfig) ResolvedConfig {
	result := Defaults

	if cfg != nil {
		if cfg.Model != nil {
			result.Model = *cfg.Model
		}
		if cfg.BaseURL != nil {
			result.BaseURL = *cfg.BaseURL
		}
		if cfg.MaxTokens != nil {
			result.MaxTokens = *cfg.MaxTokens
		}
		if cfg.MaxLoops != nil {
			result.MaxLoops = *cfg.MaxLoops
		}
		if cfg.IDEName != nil {
			result.IDEName = *cfg.IDEName
		}
		if cfg.Workspace != nil {
			result.Workspace = *cfg.Workspace
		}
		if cfg.Timeout != nil {
			result.Timeout = cfg.Timeout.AsDuration()
		}
		if cfg.LogLevel != nil {
			result.LogLevel = *cfg.LogLevel
		}
		if cfg.Tools.Enabled != nil {
			result.Tools = cfg.Tools.Enabled
		}
		if cfg.Tools.ShellAllow != nil {
			result.ShellAllow = cfg.Tools.ShellAllow
		}
	}

	if envState.ModelSet {
		result.Model = envState.Model
	}
	if envState.BaseURLSet {
		result.BaseURL = envState.BaseURL
	}
	if envState.MaxLoopsSet {
		result.MaxLoops = envState.MaxLoops
	}
	if envState.TimeoutSet {
		result.Timeout = envState.Timeout
	}
	if envState.LogLevelSet {
		result.LogLevel = envState.LogLevel
	}

	if flagState.ModelSet {
		result.Model = flagValues.Model
	}
	if flagState.BaseURLSet {
		result.BaseURL = flagValues.BaseURL
	}
	if flagState.MaxTokensSet {
		result.MaxTokens = flagValues.MaxTokens
	}
	if flagState.MaxLoopsSet {
		result.MaxLoops = flagValues.MaxLoops
	}
	if flagState.WorkspaceSet {
		result.Workspace = flagValues.Workspace
	}
	if flagState.TimeoutSet {
		result.Timeout = flagValues.Timeout
	}
	if flagState.LogLevelSet {
		result.LogLevel = flagValues.LogLevel
	}

	return result
}
