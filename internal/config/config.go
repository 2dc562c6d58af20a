// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Agent() AgentConfig
	Browser() BrowserConfig
	Network() NetworkConfig
	Archive() ArchiveConfig

	SetAgentMaxIterations(int)
	SetBrowserHeadless(bool)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	AgentCfg   AgentConfig   `mapstructure:"agent" yaml:"agent"`
	BrowserCfg BrowserConfig `mapstructure:"browser" yaml:"browser"`
	NetworkCfg NetworkConfig `mapstructure:"network" yaml:"network"`
	ArchiveCfg ArchiveConfig `mapstructure:"archive" yaml:"archive"`
}

// Statically assert that Config implements Interface.
var _ Interface = (*Config)(nil)

func (c *Config) Logger() LoggerConfig   { return c.LoggerCfg }
func (c *Config) Agent() AgentConfig     { return c.AgentCfg }
func (c *Config) Browser() BrowserConfig { return c.BrowserCfg }
func (c *Config) Network() NetworkConfig { return c.NetworkCfg }
func (c *Config) Archive() ArchiveConfig { return c.ArchiveCfg }

func (c *Config) SetAgentMaxIterations(n int) { c.AgentCfg.MaxIterations = n }
func (c *Config) SetBrowserHeadless(b bool)   { c.BrowserCfg.Headless = b }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names used for each log level on the console.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
	Fatal string `mapstructure:"fatal" yaml:"fatal"`
}

// AgentConfig holds settings for the task loop and the reasoning oracle.
type AgentConfig struct {
	// MaxIterations bounds the evaluate/act loop of a single task.
	MaxIterations int `mapstructure:"max_iterations" yaml:"max_iterations"`
	// OracleTimeout and ActionTimeout cap a single call. Zero disables the cap.
	OracleTimeout time.Duration   `mapstructure:"oracle_timeout" yaml:"oracle_timeout"`
	ActionTimeout time.Duration   `mapstructure:"action_timeout" yaml:"action_timeout"`
	LLM           LLMRouterConfig `mapstructure:"llm" yaml:"llm"`
}

// LLMProvider defines the supported LLM providers.
type LLMProvider string

const (
	ProviderGemini LLMProvider = "gemini"
)

// LLMRouterConfig configures the model routing logic.
type LLMRouterConfig struct {
	DefaultFastModel     string                    `mapstructure:"default_fast_model" yaml:"default_fast_model"`
	DefaultPowerfulModel string                    `mapstructure:"default_powerful_model" yaml:"default_powerful_model"`
	Models               map[string]LLMModelConfig `mapstructure:"models" yaml:"models"`
	// RequestsPerMinute throttles calls across all tiers. Zero means unlimited.
	RequestsPerMinute float64 `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
}

// LLMModelConfig defines the configuration for a single LLM.
type LLMModelConfig struct {
	Provider    LLMProvider   `mapstructure:"provider" yaml:"provider"`
	Model       string        `mapstructure:"model" yaml:"model"`
	APIKey      string        `mapstructure:"api_key" yaml:"-"`
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout  time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature float32       `mapstructure:"temperature" yaml:"temperature"`
	TopP        float32       `mapstructure:"top_p" yaml:"top_p"`
	TopK        int           `mapstructure:"top_k" yaml:"top_k"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// BrowserConfig holds settings for the automated browser.
type BrowserConfig struct {
	Headless        bool     `mapstructure:"headless" yaml:"headless"`
	DisableGPU      bool     `mapstructure:"disable_gpu" yaml:"disable_gpu"`
	Args            []string `mapstructure:"args" yaml:"args"`
	SearchURL       string   `mapstructure:"search_url" yaml:"search_url"`
	ResultsSelector string   `mapstructure:"results_selector" yaml:"results_selector"`
	ContentMaxChars int      `mapstructure:"content_max_chars" yaml:"content_max_chars"`
}

// NetworkConfig tunes page loading behavior.
type NetworkConfig struct {
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	ElementTimeout    time.Duration `mapstructure:"element_timeout" yaml:"element_timeout"`
	PostLoadWait      time.Duration `mapstructure:"post_load_wait" yaml:"post_load_wait"`
}

// ArchiveType selects where finished tasks are recorded.
type ArchiveType string

const (
	ArchiveNone     ArchiveType = "none"
	ArchiveFile     ArchiveType = "file"
	ArchivePostgres ArchiveType = "postgres"
)

// ArchiveConfig configures the finished-task archive.
type ArchiveConfig struct {
	Type        ArchiveType `mapstructure:"type" yaml:"type"`
	Path        string      `mapstructure:"path" yaml:"path"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	DatabaseURL string      `mapstructure:"database_url" yaml:"-"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "scout")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Agent --
	v.SetDefault("agent.max_iterations", 15)
	v.SetDefault("agent.oracle_timeout", "60s")
	v.SetDefault("agent.action_timeout", "45s")
	v.SetDefault("agent.llm.default_fast_model", "fast")
	v.SetDefault("agent.llm.default_powerful_model", "powerful")
	v.SetDefault("agent.llm.requests_per_minute", 30)
	v.SetDefault("agent.llm.models", map[string]any{
		"fast": map[string]any{
			"provider":    string(ProviderGemini),
			"model":       "gemini-2.5-flash",
			"api_timeout": "60s",
			"temperature": 0.1,
		},
		"powerful": map[string]any{
			"provider":    string(ProviderGemini),
			"model":       "gemini-2.5-pro",
			"api_timeout": "90s",
			"temperature": 0.1,
		},
	})

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.disable_gpu", true)
	v.SetDefault("browser.search_url", "https://www.google.com/search?q=%s")
	v.SetDefault("browser.results_selector", "h3 a, .yuRUbf a")
	v.SetDefault("browser.content_max_chars", 1000)

	// -- Network --
	v.SetDefault("network.navigation_timeout", "30s")
	v.SetDefault("network.element_timeout", "10s")
	v.SetDefault("network.post_load_wait", "15s")

	// -- Archive --
	v.SetDefault("archive.type", string(ArchiveNone))
	v.SetDefault("archive.path", "~/.scout/tasks.jsonl")
	v.SetDefault("archive.max_size", 20)
	v.SetDefault("archive.max_backups", 5)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Credentials come from the environment, never from the config file.
	_ = v.BindEnv("archive.database_url", "SCOUT_ARCHIVE_DATABASE_URL", "DATABASE_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.applyAPIKeys()

	path, err := homedir.Expand(cfg.ArchiveCfg.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid archive.path: %w", err)
	}
	cfg.ArchiveCfg.Path = path

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// applyAPIKeys fills in provider keys that were not set explicitly.
func (c *Config) applyAPIKeys() {
	key := os.Getenv("SCOUT_GEMINI_API_KEY")
	if key == "" {
		key = os.Getenv("GEMINI_API_KEY")
	}
	if key == "" {
		return
	}
	for name, m := range c.AgentCfg.LLM.Models {
		if m.APIKey == "" && (m.Provider == ProviderGemini || m.Provider == "") {
			m.APIKey = key
			c.AgentCfg.LLM.Models[name] = m
		}
	}
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.AgentCfg.MaxIterations <= 0 {
		return fmt.Errorf("agent.max_iterations must be a positive integer")
	}
	if c.AgentCfg.OracleTimeout < 0 || c.AgentCfg.ActionTimeout < 0 {
		return fmt.Errorf("agent timeouts must not be negative")
	}
	if err := c.AgentCfg.LLM.Validate(); err != nil {
		return fmt.Errorf("agent.llm configuration invalid: %w", err)
	}
	if c.BrowserCfg.ContentMaxChars <= 0 {
		return fmt.Errorf("browser.content_max_chars must be a positive integer")
	}
	if err := c.ArchiveCfg.Validate(); err != nil {
		return fmt.Errorf("archive configuration invalid: %w", err)
	}
	return nil
}

// Validate checks that both default tiers resolve to a configured model.
func (l *LLMRouterConfig) Validate() error {
	for _, name := range []string{l.DefaultFastModel, l.DefaultPowerfulModel} {
		if name == "" {
			return fmt.Errorf("default model names must be set")
		}
		if _, ok := l.Models[name]; !ok {
			return fmt.Errorf("model %q is not defined under agent.llm.models", name)
		}
	}
	if l.RequestsPerMinute < 0 {
		return fmt.Errorf("requests_per_minute must not be negative")
	}
	return nil
}

// Validate checks the archive settings for the selected backend.
func (a *ArchiveConfig) Validate() error {
	switch a.Type {
	case ArchiveNone, "":
		return nil
	case ArchiveFile:
		if a.Path == "" {
			return fmt.Errorf("path is required for the file archive")
		}
		return nil
	case ArchivePostgres:
		if a.DatabaseURL == "" {
			return fmt.Errorf("database URL is required for the postgres archive (hint: set SCOUT_ARCHIVE_DATABASE_URL)")
		}
		return nil
	default:
		return fmt.Errorf("unknown archive type %q", a.Type)
	}
}
