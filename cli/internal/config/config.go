// Package config provides gai configuration with a defined load order:
// CLI flags > environment variables > global config file > defaults.
//
// The global file lives in the XDG config dir, e.g. ~/.config/gai/config.toml
// (see os.UserConfigDir). Environment variables (override the file when set):
//   - GAI_PROVIDER (ollama or openai)
//   - GAI_MODEL
//   - GAI_OLLAMA_BASE_URL, GAI_OPENAI_BASE_URL
//   - OPENAI_API_KEY (credential for the openai provider; never persisted)
//   - GAI_TIMEOUT (Go duration string or integer seconds)
//   - GAI_TEMPERATURE
//
// A .env file in the working directory is loaded into the environment by the
// CLI before Load runs, so the same keys work there.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"gai/cli/internal/erruser"
)

// Config holds all gai configuration. APIKey comes from the environment
// only and is never written to the config file.
type Config struct {
	Provider      string        `toml:"provider"`
	Model         string        `toml:"model"`
	OllamaBaseURL string        `toml:"ollama_base_url"`
	OpenAIBaseURL string        `toml:"openai_base_url"`
	Timeout       time.Duration `toml:"timeout"`
	Temperature   float64       `toml:"temperature"`
	APIKey        string        `toml:"-"`
}

// Overrides are optional CLI flag overrides. A non-nil pointer means
// "override with this value"; they are applied last.
type Overrides struct {
	Provider    *string
	Model       *string
	Timeout     *time.Duration
	Temperature *float64
}

// LoadOptions configures Load. All fields are optional.
type LoadOptions struct {
	// GlobalConfigPath is the config file path; empty uses the XDG path.
	GlobalConfigPath string
	// Env is the environment key=value slice; nil uses os.Environ().
	Env []string
	// Overrides are applied last (highest precedence).
	Overrides *Overrides
}

const (
	_defaultProvider    = "ollama"
	_defaultTimeout     = 60 * time.Second
	_defaultTemperature = 0.2

	// Per-provider model defaults, applied when no model is configured.
	_defaultOllamaModel = "llama3.2"
	_defaultOpenAIModel = "gpt-3.5-turbo"
)

// DefaultConfig returns the default configuration (no I/O). Model is left
// empty; EffectiveModel resolves the per-provider default.
func DefaultConfig() Config {
	return Config{
		Provider:      _defaultProvider,
		OllamaBaseURL: "http://localhost:11434",
		OpenAIBaseURL: "https://api.openai.com/v1",
		Timeout:       _defaultTimeout,
		Temperature:   _defaultTemperature,
	}
}

// EffectiveModel returns the configured model, or the default for the
// configured provider when none is set.
func (c Config) EffectiveModel() string {
	if c.Model != "" {
		return c.Model
	}
	if c.Provider == "openai" {
		return _defaultOpenAIModel
	}
	return _defaultOllamaModel
}

// GlobalPath returns the XDG path of the global config file.
func GlobalPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", erruser.New("Could not determine the config directory.", err)
	}
	return filepath.Join(dir, "gai", "config.toml"), nil
}

// Load loads configuration with precedence: defaults < global file < env <
// overrides. A missing config file is ignored; invalid TOML or invalid env
// values return an error.
func Load(opts LoadOptions) (*Config, error) {
	if opts.Env == nil {
		opts.Env = os.Environ()
	}
	cfg := DefaultConfig()

	globalPath := opts.GlobalConfigPath
	if globalPath == "" {
		p, err := GlobalPath()
		if err != nil {
			return nil, err
		}
		globalPath = p
	}
	if err := mergeFile(&cfg, globalPath); err != nil {
		return nil, err
	}
	if err := applyEnv(&cfg, opts.Env); err != nil {
		return nil, err
	}
	applyOverrides(&cfg, opts.Overrides)

	if err := validateProvider(cfg.Provider); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateProvider(p string) error {
	switch p {
	case "ollama", "openai":
		return nil
	}
	return erruser.New(fmt.Sprintf("Invalid provider %q; use ollama or openai.", p), nil)
}

// mergeFile reads path and merges into cfg. Only fields present and
// non-empty in the file overwrite the current value. A missing file is
// skipped without error.
func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return erruser.New("Could not read the configuration file.", err)
	}
	var file struct {
		Provider      *string  `toml:"provider"`
		Model         *string  `toml:"model"`
		OllamaBaseURL *string  `toml:"ollama_base_url"`
		OpenAIBaseURL *string  `toml:"openai_base_url"`
		Timeout       *string  `toml:"timeout"`
		Temperature   *float64 `toml:"temperature"`
	}
	if _, err := toml.Decode(string(data), &file); err != nil {
		return erruser.New("Invalid configuration file.", err)
	}
	if file.Provider != nil && *file.Provider != "" {
		cfg.Provider = *file.Provider
	}
	if file.Model != nil && *file.Model != "" {
		cfg.Model = *file.Model
	}
	if file.OllamaBaseURL != nil && *file.OllamaBaseURL != "" {
		cfg.OllamaBaseURL = *file.OllamaBaseURL
	}
	if file.OpenAIBaseURL != nil && *file.OpenAIBaseURL != "" {
		cfg.OpenAIBaseURL = *file.OpenAIBaseURL
	}
	if file.Timeout != nil && *file.Timeout != "" {
		d, err := parseDuration(*file.Timeout)
		if err != nil {
			return erruser.New("Configuration timeout is invalid.", err)
		}
		cfg.Timeout = d
	}
	if file.Temperature != nil && *file.Temperature >= 0 && *file.Temperature <= 2 {
		cfg.Temperature = *file.Temperature
	}
	return nil
}

func applyEnv(cfg *Config, env []string) error {
	get := func(key string) string {
		prefix := key + "="
		for i := len(env) - 1; i >= 0; i-- {
			if strings.HasPrefix(env[i], prefix) {
				return env[i][len(prefix):]
			}
		}
		return ""
	}
	if v := get("GAI_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := get("GAI_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := get("GAI_OLLAMA_BASE_URL"); v != "" {
		cfg.OllamaBaseURL = v
	}
	if v := get("GAI_OPENAI_BASE_URL"); v != "" {
		cfg.OpenAIBaseURL = v
	}
	if v := get("OPENAI_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := get("GAI_TIMEOUT"); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return erruser.New("GAI_TIMEOUT is invalid; use a duration like 60s or an integer number of seconds.", err)
		}
		cfg.Timeout = d
	}
	if v := get("GAI_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 2 {
			return erruser.New("GAI_TEMPERATURE is invalid; use a number between 0 and 2.", err)
		}
		cfg.Temperature = f
	}
	return nil
}

func applyOverrides(cfg *Config, o *Overrides) {
	if o == nil {
		return
	}
	if o.Provider != nil && *o.Provider != "" {
		cfg.Provider = *o.Provider
	}
	if o.Model != nil && *o.Model != "" {
		cfg.Model = *o.Model
	}
	if o.Timeout != nil && *o.Timeout > 0 {
		cfg.Timeout = *o.Timeout
	}
	if o.Temperature != nil && *o.Temperature >= 0 {
		cfg.Temperature = *o.Temperature
	}
}

// parseDuration accepts a Go duration string ("90s", "2m") or a bare
// integer interpreted as seconds.
func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("duration must be positive, got %d", n)
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", d)
	}
	return d, nil
}

// Save persists provider and model to the config file at path, creating
// parent directories as needed. Other keys already in the file are kept.
// The API key is never written.
func Save(path, providerName, model string) error {
	existing := map[string]any{}
	if data, err := os.ReadFile(path); err == nil {
		// Best effort: unparsable existing content is replaced.
		_, _ = toml.Decode(string(data), &existing)
	}
	if providerName != "" {
		if err := validateProvider(providerName); err != nil {
			return err
		}
		existing["provider"] = providerName
	}
	if model != "" {
		existing["model"] = model
	}
	delete(existing, "api_key")

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return erruser.New("Could not create the config directory.", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return erruser.New("Could not write the configuration file.", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(existing); err != nil {
		return erruser.New("Could not write the configuration file.", err)
	}
	return nil
}
