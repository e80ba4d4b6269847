package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	API       APIConfig       `json:"api" yaml:"api"`
	Session   SessionConfig   `json:"session" yaml:"session"`
	Auth      AuthConfig      `json:"auth" yaml:"auth"`
	Dashboard DashboardConfig `json:"dashboard" yaml:"dashboard"`
	Landing   LandingConfig   `json:"landing" yaml:"landing"`
	Chains    []ChainConfig   `json:"chains" yaml:"chains"`
	Tokens    []TokenConfig   `json:"tokens" yaml:"tokens"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
	mu        sync.RWMutex
}

type APIConfig struct {
	BaseURL           string `json:"base_url" yaml:"base_url" env:"NEXUSPAY_API_BASE_URL"`
	TimeoutSeconds    int    `json:"timeout_seconds" yaml:"timeout_seconds" env:"NEXUSPAY_API_TIMEOUT_SECONDS"`
	RequestsPerMinute int    `json:"requests_per_minute" yaml:"requests_per_minute" env:"NEXUSPAY_API_REQUESTS_PER_MINUTE"` // 0 disables pacing
	UserAgent         string `json:"user_agent,omitempty" yaml:"user_agent,omitempty" env:"NEXUSPAY_API_USER_AGENT"`
}

type SessionConfig struct {
	Backend string `json:"backend" yaml:"backend" env:"NEXUSPAY_SESSION_BACKEND"` // file, sqlite or memory
	Path    string `json:"path" yaml:"path" env:"NEXUSPAY_SESSION_PATH"`
}

type AuthConfig struct {
	ResendSeconds   int `json:"resend_seconds" yaml:"resend_seconds" env:"NEXUSPAY_AUTH_RESEND_SECONDS"`
	RedirectSeconds int `json:"redirect_seconds" yaml:"redirect_seconds" env:"NEXUSPAY_AUTH_REDIRECT_SECONDS"`
	// StrictOTPDispatch stops the login flow on the credentials step when the
	// OTP dispatch call fails instead of moving on to code entry.
	StrictOTPDispatch bool `json:"strict_otp_dispatch" yaml:"strict_otp_dispatch" env:"NEXUSPAY_AUTH_STRICT_OTP_DISPATCH"`
}

type DashboardConfig struct {
	Chain    string `json:"chain" yaml:"chain" env:"NEXUSPAY_DASHBOARD_CHAIN"`
	Token    string `json:"token" yaml:"token" env:"NEXUSPAY_DASHBOARD_TOKEN"`
	PageSize int    `json:"page_size" yaml:"page_size" env:"NEXUSPAY_DASHBOARD_PAGE_SIZE"`
}

type LandingConfig struct {
	SlideSeconds int `json:"slide_seconds" yaml:"slide_seconds" env:"NEXUSPAY_LANDING_SLIDE_SECONDS"`
}

// ChainConfig describes a chain the backend can settle on.
type ChainConfig struct {
	Name     string `json:"name" yaml:"name"`
	Label    string `json:"label" yaml:"label"`
	Explorer string `json:"explorer" yaml:"explorer"` // transaction URL prefix
}

type TokenConfig struct {
	Symbol string `json:"symbol" yaml:"symbol"`
	Label  string `json:"label" yaml:"label"`
}

type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" env:"NEXUSPAY_LOGGING_LEVEL"`
	Format string `json:"format" yaml:"format" env:"NEXUSPAY_LOGGING_FORMAT"`
	File   string `json:"file,omitempty" yaml:"file,omitempty" env:"NEXUSPAY_LOGGING_FILE"`
}

func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:           "http://localhost:8000/api",
			TimeoutSeconds:    30,
			RequestsPerMinute: 0,
		},
		Session: SessionConfig{
			Backend: "file",
			Path:    "~/.nexuspay/session.json",
		},
		Auth: AuthConfig{
			ResendSeconds:     60,
			RedirectSeconds:   2,
			StrictOTPDispatch: false,
		},
		Dashboard: DashboardConfig{
			Chain:    "arbitrum",
			Token:    "USDC",
			PageSize: 10,
		},
		Landing: LandingConfig{
			SlideSeconds: 5,
		},
		Chains: []ChainConfig{
			{Name: "arbitrum", Label: "Arbitrum", Explorer: "https://arbiscan.io/tx/"},
			{Name: "celo", Label: "Celo", Explorer: "https://celoscan.io/tx/"},
			{Name: "base", Label: "Base", Explorer: "https://basescan.org/tx/"},
			{Name: "optimism", Label: "Optimism", Explorer: "https://optimistic.etherscan.io/tx/"},
			{Name: "polygon", Label: "Polygon", Explorer: "https://polygonscan.com/tx/"},
			{Name: "avalanche", Label: "Avalanche", Explorer: "https://snowtrace.io/tx/"},
			{Name: "scroll", Label: "Scroll", Explorer: "https://scrollscan.com/tx/"},
			{Name: "gnosis", Label: "Gnosis", Explorer: "https://gnosisscan.io/tx/"},
		},
		Tokens: []TokenConfig{
			{Symbol: "USDC", Label: "USDC"},
			{Symbol: "USDT", Label: "USDT"},
			{Symbol: "BITCOIN", Label: "Bitcoin"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig reads the file at path on top of the defaults and then applies
// NEXUSPAY_* environment overrides. A missing file yields the defaults.
// Files ending in .yaml or .yml are decoded as YAML, everything else as JSON.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	if err == nil {
		if isYAML(path) {
			err = yaml.Unmarshal(data, cfg)
		} else {
			err = json.Unmarshal(data, cfg)
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Validate checks values that would otherwise fail late at request time.
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("api.base_url is required")
	}
	switch c.Session.Backend {
	case "file", "sqlite", "memory":
	default:
		return fmt.Errorf("session.backend %q: want file, sqlite or memory", c.Session.Backend)
	}
	if c.Dashboard.PageSize <= 0 {
		return fmt.Errorf("dashboard.page_size must be positive")
	}
	if c.Auth.ResendSeconds < 0 || c.Auth.RedirectSeconds < 0 {
		return fmt.Errorf("auth timers must not be negative")
	}
	if !slices.ContainsFunc(c.Chains, func(ch ChainConfig) bool { return strings.EqualFold(ch.Name, c.Dashboard.Chain) }) {
		return fmt.Errorf("dashboard.chain %q is not in chains", c.Dashboard.Chain)
	}
	if !slices.ContainsFunc(c.Tokens, func(t TokenConfig) bool { return strings.EqualFold(t.Symbol, c.Dashboard.Token) }) {
		return fmt.Errorf("dashboard.token %q is not in tokens", c.Dashboard.Token)
	}
	return nil
}

func (c *Config) SessionPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return expandHome(c.Session.Path)
}

func (c *Config) LogFile() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return expandHome(c.Logging.File)
}

func (c *Config) Timeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

func (c *Config) ResendInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.Auth.ResendSeconds) * time.Second
}

func (c *Config) RedirectDelay() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.Auth.RedirectSeconds) * time.Second
}

func (c *Config) SlideInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.Landing.SlideSeconds) * time.Second
}

// Chain returns the chain with the given name, ignoring case.
func (c *Config) Chain(name string) (ChainConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ch := range c.Chains {
		if strings.EqualFold(ch.Name, name) {
			return ch, true
		}
	}
	return ChainConfig{}, false
}

// Token returns the token with the given symbol, ignoring case.
func (c *Config) Token(symbol string) (TokenConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.Tokens {
		if strings.EqualFold(t.Symbol, symbol) {
			return t, true
		}
	}
	return TokenConfig{}, false
}

// DefaultPath is where the CLI looks for its config file.
func DefaultPath() string {
	if p := os.Getenv("NEXUSPAY_CONFIG"); p != "" {
		return p
	}
	return expandHome("~/.nexuspay/config.json")
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
