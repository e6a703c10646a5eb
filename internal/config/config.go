package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = 1

// DirName is the per-repository and per-user configuration directory.
const DirName = ".repoviz"

// Config represents the complete repoviz configuration
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Scan    ScanConfig    `json:"scan" mapstructure:"scan"`
	Server  ServerConfig  `json:"server" mapstructure:"server"`
	LLM     LLMConfig     `json:"llm" mapstructure:"llm"`
	Store   StoreConfig   `json:"store" mapstructure:"store"`
	Cache   CacheConfig   `json:"cache" mapstructure:"cache"`
	Clone   CloneConfig   `json:"clone" mapstructure:"clone"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ScanConfig controls which files enter the pipeline and how they are processed
type ScanConfig struct {
	MaxFileSizeBytes int64    `json:"maxFileSizeBytes" mapstructure:"maxFileSizeBytes"`
	MaxFiles         int      `json:"maxFiles" mapstructure:"maxFiles"`
	Ignore           []string `json:"ignore" mapstructure:"ignore"`
	Workers          int      `json:"workers" mapstructure:"workers"`
	Extractor        string   `json:"extractor" mapstructure:"extractor"`
}

// ServerConfig contains HTTP API settings
type ServerConfig struct {
	Addr                string `json:"addr" mapstructure:"addr"`
	MaxUploadBytes      int64  `json:"maxUploadBytes" mapstructure:"maxUploadBytes"`
	TokenHash           string `json:"tokenHash" mapstructure:"tokenHash"`
	ReadTimeoutSeconds  int    `json:"readTimeoutSeconds" mapstructure:"readTimeoutSeconds"`
	WriteTimeoutSeconds int    `json:"writeTimeoutSeconds" mapstructure:"writeTimeoutSeconds"`
}

// LLMConfig contains hosted model settings
type LLMConfig struct {
	Model            string  `json:"model" mapstructure:"model"`
	APIKey           string  `json:"apiKey,omitempty" mapstructure:"apiKey"`
	Temperature      float32 `json:"temperature" mapstructure:"temperature"`
	MaxPromptChars   int     `json:"maxPromptChars" mapstructure:"maxPromptChars"`
	MaxFilesInPrompt int     `json:"maxFilesInPrompt" mapstructure:"maxFilesInPrompt"`
	TimeoutSeconds   int     `json:"timeoutSeconds" mapstructure:"timeoutSeconds"`
}

// StoreConfig contains scan persistence settings
type StoreConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// CacheConfig contains scan result cache settings
type CacheConfig struct {
	Size       int `json:"size" mapstructure:"size"`
	TTLSeconds int `json:"ttlSeconds" mapstructure:"ttlSeconds"`
}

// CloneConfig contains git clone settings
type CloneConfig struct {
	Depth          int `json:"depth" mapstructure:"depth"`
	TimeoutSeconds int `json:"timeoutSeconds" mapstructure:"timeoutSeconds"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `json:"level" mapstructure:"level"`
	File  string `json:"file" mapstructure:"file"`
}

// DefaultIgnore are the globs skipped by every loader unless overridden.
var DefaultIgnore = []string{
	"**/node_modules/**",
	"**/.git/**",
	"**/dist/**",
	"**/build/**",
	"**/vendor/**",
	"**/__pycache__/**",
	"**/.venv/**",
	"**/*.min.js",
	"**/*.map",
	"**/*.lock",
	"**/package-lock.json",
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Scan: ScanConfig{
			MaxFileSizeBytes: 1 << 20,
			MaxFiles:         5000,
			Ignore:           append([]string(nil), DefaultIgnore...),
			Workers:          0,
			Extractor:        "regex",
		},
		Server: ServerConfig{
			Addr:                "localhost:8080",
			MaxUploadBytes:      50 << 20,
			ReadTimeoutSeconds:  60,
			WriteTimeoutSeconds: 180,
		},
		LLM: LLMConfig{
			Model:            "gemini-2.5-flash",
			Temperature:      0.2,
			MaxPromptChars:   120000,
			MaxFilesInPrompt: 20,
			TimeoutSeconds:   120,
		},
		Store: StoreConfig{
			Path: "",
		},
		Cache: CacheConfig{
			Size:       64,
			TTLSeconds: 3600,
		},
		Clone: CloneConfig{
			Depth:          1,
			TimeoutSeconds: 120,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads .repoviz/config.json from explicitPath, the repository root or
// the user's home directory, in that order, then applies REPOVIZ_* env
// overrides. A missing file yields the defaults.
func Load(repoRoot, explicitPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix("REPOVIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("json")
		if repoRoot != "" {
			v.AddConfigPath(filepath.Join(repoRoot, DirName))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, DirName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicitPath != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = DefaultStorePath()
	}

	return &cfg, nil
}

// setDefaults registers every leaf key so env overrides and partial files
// both resolve against the defaults.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)

	v.SetDefault("scan.maxFileSizeBytes", d.Scan.MaxFileSizeBytes)
	v.SetDefault("scan.maxFiles", d.Scan.MaxFiles)
	v.SetDefault("scan.ignore", d.Scan.Ignore)
	v.SetDefault("scan.workers", d.Scan.Workers)
	v.SetDefault("scan.extractor", d.Scan.Extractor)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.maxUploadBytes", d.Server.MaxUploadBytes)
	v.SetDefault("server.tokenHash", d.Server.TokenHash)
	v.SetDefault("server.readTimeoutSeconds", d.Server.ReadTimeoutSeconds)
	v.SetDefault("server.writeTimeoutSeconds", d.Server.WriteTimeoutSeconds)

	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.apiKey", d.LLM.APIKey)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.maxPromptChars", d.LLM.MaxPromptChars)
	v.SetDefault("llm.maxFilesInPrompt", d.LLM.MaxFilesInPrompt)
	v.SetDefault("llm.timeoutSeconds", d.LLM.TimeoutSeconds)

	v.SetDefault("store.path", d.Store.Path)

	v.SetDefault("cache.size", d.Cache.Size)
	v.SetDefault("cache.ttlSeconds", d.Cache.TTLSeconds)

	v.SetDefault("clone.depth", d.Clone.Depth)
	v.SetDefault("clone.timeoutSeconds", d.Clone.TimeoutSeconds)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
}

// DefaultStorePath is ~/.repoviz/scans.db, or a relative path when the
// home directory cannot be resolved.
func DefaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(DirName, "scans.db")
	}
	return filepath.Join(home, DirName, "scans.db")
}

// Save writes the configuration to <dir>/.repoviz/config.json.
// The API key is never written.
func (c *Config) Save(dir string) error {
	configDir := filepath.Join(dir, DirName)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	out := *c
	out.LLM.APIKey = ""
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(configDir, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Scan.MaxFileSizeBytes <= 0 {
		return &ConfigError{Field: "scan.maxFileSizeBytes", Message: "must be positive"}
	}
	if c.Scan.MaxFiles <= 0 {
		return &ConfigError{Field: "scan.maxFiles", Message: "must be positive"}
	}
	if c.Scan.Workers < 0 {
		return &ConfigError{Field: "scan.workers", Message: "must not be negative"}
	}
	switch c.Scan.Extractor {
	case "regex", "treesitter":
	default:
		return &ConfigError{Field: "scan.extractor", Message: "must be regex or treesitter"}
	}
	if c.Server.MaxUploadBytes <= 0 {
		return &ConfigError{Field: "server.maxUploadBytes", Message: "must be positive"}
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return &ConfigError{Field: "llm.temperature", Message: "must be within [0, 2]"}
	}
	if c.LLM.MaxPromptChars <= 0 {
		return &ConfigError{Field: "llm.maxPromptChars", Message: "must be positive"}
	}
	if c.Cache.Size < 0 {
		return &ConfigError{Field: "cache.size", Message: "must not be negative"}
	}
	if c.Clone.Depth < 0 {
		return &ConfigError{Field: "clone.depth", Message: "must not be negative"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
