package config

import (
	"os"
	"path/filepath"
	"strconv"

	"kqlmd/pkg/errors"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultLanguage tags fenced query blocks in rendered Markdown
	DefaultLanguage = "kql"
	// DefaultMinCellWidth keeps table separator rows at least three dashes
	// wide, which strict Markdown renderers require
	DefaultMinCellWidth = 3
	// DefaultKeepDays is how long conversion history is retained
	DefaultKeepDays = 90
)

// Config holds the complete kqlmd configuration
type Config struct {
	Render    RenderConfig    `yaml:"render"`
	Clipboard ClipboardConfig `yaml:"clipboard"`
	History   HistoryConfig   `yaml:"history"`
	Azure     AzureConfig     `yaml:"azure"`
	LogLevel  string          `yaml:"log_level,omitempty"`
}

// RenderConfig controls how extractions are rendered to Markdown
type RenderConfig struct {
	Language     string `yaml:"language"`
	MinCellWidth int    `yaml:"min_cell_width"`
	LinkifyCells *bool  `yaml:"linkify_cells,omitempty"`
}

// ClipboardConfig controls how output is written back to the clipboard
type ClipboardConfig struct {
	Rich *bool `yaml:"rich,omitempty"`
}

// HistoryConfig controls the local conversion history database
type HistoryConfig struct {
	Enabled  *bool  `yaml:"enabled,omitempty"`
	Path     string `yaml:"path,omitempty"`
	KeepDays int    `yaml:"keep_days"`
}

// AzureConfig holds credentials for posting conversions to Azure DevOps.
// All fields are optional until the post command needs them
type AzureConfig struct {
	Organization        string `yaml:"organization"`
	Project             string `yaml:"project"`
	PersonalAccessToken string `yaml:"personal_access_token"`
}

// Load loads the configuration. A missing config file is fine; defaults and
// environment variables cover everything the convert path needs
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, errors.NewWithError(errors.ExitCodeConfig, "failed to get config path", err)
	}
	return loadFromPath(configPath)
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "kqlmd", "config.yaml"), nil
}

// Save saves the configuration to file
func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return errors.NewWithError(errors.ExitCodeFileOperation, "failed to create config directory", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.NewWithError(errors.ExitCodeConfig, "failed to marshal config", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return errors.NewWithError(errors.ExitCodeFileOperation, "failed to write config file", err)
	}

	return nil
}

// Default returns a config populated with the documented defaults, suitable
// for writing an initial config file
func Default() *Config {
	linkify := true
	rich := true
	enabled := true
	return &Config{
		Render: RenderConfig{
			Language:     DefaultLanguage,
			MinCellWidth: DefaultMinCellWidth,
			LinkifyCells: &linkify,
		},
		Clipboard: ClipboardConfig{Rich: &rich},
		History:   HistoryConfig{Enabled: &enabled, KeepDays: DefaultKeepDays},
	}
}

// LinkifyEnabled returns true unless cell auto-linking was switched off
func (c *Config) LinkifyEnabled() bool {
	if c.Render.LinkifyCells == nil {
		return true
	}
	return *c.Render.LinkifyCells
}

// RichEnabled returns true unless rich text/html clipboard writes were
// switched off
func (c *Config) RichEnabled() bool {
	if c.Clipboard.Rich == nil {
		return true
	}
	return *c.Clipboard.Rich
}

// HistoryEnabled returns true unless conversion history was switched off
func (c *Config) HistoryEnabled() bool {
	if c.History.Enabled == nil {
		return true
	}
	return *c.History.Enabled
}

// ValidateAzure checks the fields the post command requires. They are not
// validated at load time because the convert path never needs them
func (c *Config) ValidateAzure() error {
	if c.Azure.Organization == "" {
		return errors.ConfigError("azure organization not configured. Set it in the config file, set KQLMD_AZURE_ORG, or run inside an Azure DevOps clone")
	}
	if c.Azure.Project == "" {
		return errors.ConfigError("azure project not configured. Set it in the config file, set KQLMD_AZURE_PROJECT, or run inside an Azure DevOps clone")
	}
	if c.Azure.PersonalAccessToken == "" {
		return errors.AuthError()
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string) *bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return &parsed
		}
	}
	return nil
}

func loadFromPath(configPath string) (*Config, error) {
	cfg := &Config{}

	if err := loadConfigFile(configPath, cfg); err != nil {
		return nil, err
	}

	applyEnvironmentOverrides(cfg)
	applyDefaults(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadConfigFile reads and parses the config file from the given path
func loadConfigFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		// File doesn't exist, that's okay - we'll use env vars and defaults
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.NewWithError(errors.ExitCodeFileOperation, "failed to read config file", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.NewWithError(errors.ExitCodeConfig, "failed to parse config file", err)
	}

	return nil
}

// applyEnvironmentOverrides fills config fields the file left empty from
// environment variables. File values take precedence over the environment
func applyEnvironmentOverrides(cfg *Config) {
	if cfg.Render.Language == "" {
		cfg.Render.Language = getEnv("KQLMD_LANGUAGE", "")
	}
	if cfg.Render.MinCellWidth == 0 {
		cfg.Render.MinCellWidth = getEnvInt("KQLMD_MIN_CELL_WIDTH", 0)
	}
	if cfg.Render.LinkifyCells == nil {
		cfg.Render.LinkifyCells = getEnvBool("KQLMD_LINKIFY_CELLS")
	}
	if cfg.Clipboard.Rich == nil {
		cfg.Clipboard.Rich = getEnvBool("KQLMD_CLIPBOARD_RICH")
	}
	if cfg.History.Enabled == nil {
		cfg.History.Enabled = getEnvBool("KQLMD_HISTORY_ENABLED")
	}
	if cfg.History.Path == "" {
		cfg.History.Path = getEnv("KQLMD_HISTORY_PATH", "")
	}
	if cfg.History.KeepDays == 0 {
		cfg.History.KeepDays = getEnvInt("KQLMD_HISTORY_KEEP_DAYS", 0)
	}
	if cfg.Azure.Organization == "" {
		cfg.Azure.Organization = getEnv("KQLMD_AZURE_ORG", getEnv("AZURE_DEVOPS_ORG", ""))
	}
	if cfg.Azure.Project == "" {
		cfg.Azure.Project = getEnv("KQLMD_AZURE_PROJECT", getEnv("AZURE_DEVOPS_PROJECT", ""))
	}
	if cfg.Azure.PersonalAccessToken == "" {
		cfg.Azure.PersonalAccessToken = getEnv("KQLMD_AZURE_PAT", getEnv("AZURE_DEVOPS_EXT_PAT", ""))
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = getEnv("KQLMD_LOG_LEVEL", "")
	}
}

// applyDefaults fills whatever file and environment both left empty
func applyDefaults(cfg *Config) {
	if cfg.Render.Language == "" {
		cfg.Render.Language = DefaultLanguage
	}
	if cfg.Render.MinCellWidth == 0 {
		cfg.Render.MinCellWidth = DefaultMinCellWidth
	}
	if cfg.History.KeepDays == 0 {
		cfg.History.KeepDays = DefaultKeepDays
	}
}

// validateConfig rejects values no component can work with
func validateConfig(cfg *Config) error {
	if cfg.Render.MinCellWidth < 0 {
		return errors.ConfigError("render.min_cell_width must not be negative")
	}
	if cfg.History.KeepDays < 0 {
		return errors.ConfigError("history.keep_days must not be negative")
	}
	return nil
}
