package config

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	defaultBaseURL            = "http://127.0.0.1:8787"
	defaultRequestTimeoutMS   = 10000
	defaultSessionIntervalMS  = 2000
	defaultWorkflowIntervalMS = 1000
	defaultTimeoutSeconds     = 120
	defaultCacheTTLSeconds    = 600
	defaultCacheCleanupSecs   = 60
	defaultLogLevel           = "info"
	defaultRole               = "executor"
)

const (
	EnvBaseURL  = "AGENTWATCH_BASE_URL"
	EnvToken    = "AGENTWATCH_TOKEN"
	EnvLogLevel = "AGENTWATCH_LOG_LEVEL"
)

type Config struct {
	Backend BackendConfig `json:"backend" toml:"backend"`
	Polling PollingConfig `json:"polling" toml:"polling"`
	Cache   CacheConfig   `json:"cache" toml:"cache"`
	Logging LoggingConfig `json:"logging" toml:"logging"`
	Agents  AgentsConfig  `json:"agents" toml:"agents"`
	UI      UIConfig      `json:"ui" toml:"ui"`
}

type BackendConfig struct {
	BaseURL          string `json:"base_url" toml:"base_url"`
	Token            string `json:"token,omitempty" toml:"token,omitempty"`
	RequestTimeoutMS int    `json:"request_timeout_ms" toml:"request_timeout_ms"`
}

type PollingConfig struct {
	SessionIntervalMS  int `json:"session_interval_ms" toml:"session_interval_ms"`
	WorkflowIntervalMS int `json:"workflow_interval_ms" toml:"workflow_interval_ms"`
	TimeoutSeconds     int `json:"timeout_seconds" toml:"timeout_seconds"`
}

type CacheConfig struct {
	TTLSeconds             int `json:"ttl_seconds" toml:"ttl_seconds"`
	CleanupIntervalSeconds int `json:"cleanup_interval_seconds" toml:"cleanup_interval_seconds"`
}

type LoggingConfig struct {
	Level string `json:"level" toml:"level"`
}

// AgentsConfig maps an agent type to the execution role its tasks are
// submitted with.
type AgentsConfig struct {
	DefaultRole string            `json:"default_role" toml:"default_role"`
	Roles       map[string]string `json:"roles,omitempty" toml:"roles,omitempty"`
}

type UIConfig struct {
	Markdown *bool `json:"markdown,omitempty" toml:"markdown,omitempty"`
}

func Default() Config {
	markdown := true
	return Config{
		Backend: BackendConfig{
			BaseURL:          defaultBaseURL,
			RequestTimeoutMS: defaultRequestTimeoutMS,
		},
		Polling: PollingConfig{
			SessionIntervalMS:  defaultSessionIntervalMS,
			WorkflowIntervalMS: defaultWorkflowIntervalMS,
			TimeoutSeconds:     defaultTimeoutSeconds,
		},
		Cache: CacheConfig{
			TTLSeconds:             defaultCacheTTLSeconds,
			CleanupIntervalSeconds: defaultCacheCleanupSecs,
		},
		Logging: LoggingConfig{
			Level: defaultLogLevel,
		},
		Agents: AgentsConfig{
			DefaultRole: defaultRole,
		},
		UI: UIConfig{
			Markdown: &markdown,
		},
	}
}

// Load reads ~/.agentwatch/config.toml, then applies environment overrides.
// A .env file in the working directory is loaded first when present.
func Load() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	return LoadFromPath(path)
}

func LoadFromPath(path string) (Config, error) {
	cfg := Default()
	if err := readTOML(path, &cfg); err != nil {
		return Config{}, err
	}
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	cfg.applyEnv()
	if strings.TrimSpace(cfg.Backend.Token) == "" {
		if token, err := readTokenFile(); err == nil {
			cfg.Backend.Token = token
		}
	}
	return cfg, nil
}

func (c Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

func (c Config) BaseURL() string {
	base := strings.TrimSpace(c.Backend.BaseURL)
	if base == "" {
		return defaultBaseURL
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return strings.TrimRight(base, "/")
}

func (c Config) Token() string {
	return strings.TrimSpace(c.Backend.Token)
}

func (c Config) RequestTimeout() time.Duration {
	return millis(c.Backend.RequestTimeoutMS, defaultRequestTimeoutMS)
}

func (c Config) SessionInterval() time.Duration {
	return millis(c.Polling.SessionIntervalMS, defaultSessionIntervalMS)
}

func (c Config) WorkflowInterval() time.Duration {
	return millis(c.Polling.WorkflowIntervalMS, defaultWorkflowIntervalMS)
}

func (c Config) PollTimeout() time.Duration {
	return seconds(c.Polling.TimeoutSeconds, defaultTimeoutSeconds)
}

func (c Config) CacheTTL() time.Duration {
	return seconds(c.Cache.TTLSeconds, defaultCacheTTLSeconds)
}

func (c Config) CacheCleanupInterval() time.Duration {
	return seconds(c.Cache.CleanupIntervalSeconds, defaultCacheCleanupSecs)
}

func (c Config) LogLevel() string {
	level := strings.TrimSpace(c.Logging.Level)
	if level == "" {
		return defaultLogLevel
	}
	return level
}

func (c Config) MarkdownEnabled() bool {
	if c.UI.Markdown == nil {
		return true
	}
	return *c.UI.Markdown
}

// RoleFor returns the execution role for agentType, falling back to the
// configured default role.
func (c Config) RoleFor(agentType string) string {
	key := strings.ToLower(strings.TrimSpace(agentType))
	if key != "" {
		for name, role := range c.Agents.Roles {
			if strings.ToLower(strings.TrimSpace(name)) == key && strings.TrimSpace(role) != "" {
				return strings.TrimSpace(role)
			}
		}
	}
	role := strings.TrimSpace(c.Agents.DefaultRole)
	if role == "" {
		return defaultRole
	}
	return role
}

// AgentTypes lists the agent types with an explicit role, sorted.
func (c Config) AgentTypes() []string {
	out := make([]string, 0, len(c.Agents.Roles))
	for name := range c.Agents.Roles {
		name = strings.TrimSpace(name)
		if name != "" {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func (c *Config) applyEnv() {
	if value := strings.TrimSpace(os.Getenv(EnvBaseURL)); value != "" {
		c.Backend.BaseURL = value
	}
	if value := strings.TrimSpace(os.Getenv(EnvToken)); value != "" {
		c.Backend.Token = value
	}
	if value := strings.TrimSpace(os.Getenv(EnvLogLevel)); value != "" {
		c.Logging.Level = value
	}
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

func readTokenFile() (string, error) {
	path, err := TokenPath()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func readTOML(path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return toml.Unmarshal(data, out)
}

// ResolvePath expands ~/ and makes relative paths relative to the data dir.
func ResolvePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("path is required")
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	}
	if filepath.IsAbs(path) {
		return path, nil
	}
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, path), nil
}

func millis(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Millisecond
}

func seconds(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}
