package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const apiKeyEnvVar = "RNB_API_KEY"

type Config struct {
	APIKey              string `yaml:"api_key,omitempty"`
	TrackerURL          string `yaml:"tracker_url,omitempty"`
	InsecureSkipVerify  bool   `yaml:"insecure_skip_verify,omitempty"`
	Remote              string `yaml:"remote,omitempty"`
	DefaultBaseRef      string `yaml:"default_base_ref,omitempty"`
	BranchTemplate      string `yaml:"branch_template,omitempty"`
	MaintenanceTemplate string `yaml:"maintenance_template,omitempty"`
	ParentFallback      string `yaml:"parent_fallback,omitempty"`
	FetchFirst          *bool  `yaml:"fetch_first,omitempty"`
	SentryDSN           string `yaml:"sentry_dsn,omitempty"`
	LogLevel            string `yaml:"log_level,omitempty"`
}

// LoadConfig reads the config at path, or the default location when path is
// empty. A missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	path, err := configPath(path)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Config{}.normalized(), nil
	}
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %s: %v", errInvalidConfig, path, err)
	}
	cfg = cfg.normalized()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func ConfigExists(path string) (bool, error) {
	path, err := configPath(path)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func SaveConfig(path string, cfg Config) error {
	path, err := configPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	// The file holds the API key.
	return os.WriteFile(path, data, 0o600)
}

func configPath(override string) (string, error) {
	if p := strings.TrimSpace(override); p != "" {
		return p, nil
	}
	home := os.Getenv("HOME")
	if strings.TrimSpace(home) == "" {
		return "", errors.New("HOME not set")
	}
	return filepath.Join(home, ".rnb", "config.yaml"), nil
}

func (c Config) normalized() Config {
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.TrackerURL = strings.TrimRight(strings.TrimSpace(c.TrackerURL), "/")
	c.Remote = strings.TrimSpace(c.Remote)
	c.DefaultBaseRef = strings.TrimSpace(c.DefaultBaseRef)
	c.BranchTemplate = strings.TrimSpace(c.BranchTemplate)
	if c.BranchTemplate == "" {
		c.BranchTemplate = defaultBranchTemplate
	}
	c.MaintenanceTemplate = strings.TrimSpace(c.MaintenanceTemplate)
	if c.MaintenanceTemplate == "" {
		c.MaintenanceTemplate = defaultMaintenanceTemplate
	}
	c.ParentFallback = strings.ToLower(strings.TrimSpace(c.ParentFallback))
	if c.ParentFallback == "" {
		c.ParentFallback = string(ParentFallbackDefault)
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
	c.SentryDSN = strings.TrimSpace(c.SentryDSN)
	return c
}

func (c Config) Validate() error {
	if err := validateTrackerURL(c.TrackerURL); err != nil {
		return err
	}
	if _, err := NewBranchNaming(c.BranchTemplate); err != nil {
		return err
	}
	if !strings.Contains(c.MaintenanceTemplate, "{version}") {
		return fmt.Errorf("%w: maintenance_template %q must contain {version}", errInvalidConfig, c.MaintenanceTemplate)
	}
	if _, err := parseParentFallback(c.ParentFallback); err != nil {
		return err
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log_level must be debug, info, warn or error, got %q", errInvalidConfig, c.LogLevel)
	}
	return nil
}

// resolveAPIKey prefers the flag, then the environment, then the file.
func resolveAPIKey(flagValue string, cfg Config) string {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv(apiKeyEnvVar)); v != "" {
		return v
	}
	return cfg.APIKey
}

// resolveFetchPreference prefers --fetch/--no-fetch over fetch_first.
func resolveFetchPreference(explicit *bool, cfg Config) bool {
	if explicit != nil {
		return *explicit
	}
	if cfg.FetchFirst != nil {
		return *cfg.FetchFirst
	}
	return false
}

func explicitFetchPreference(fetch bool, noFetch bool) (*bool, error) {
	if fetch && noFetch {
		return nil, usageErrorf("--fetch and --no-fetch cannot be used together")
	}
	if fetch {
		v := true
		return &v, nil
	}
	if noFetch {
		v := false
		return &v, nil
	}
	return nil, nil
}

func (c Config) resolverPolicy(remote string) (ResolverPolicy, error) {
	naming, err := NewBranchNaming(c.BranchTemplate)
	if err != nil {
		return ResolverPolicy{}, err
	}
	fallback, err := parseParentFallback(c.ParentFallback)
	if err != nil {
		return ResolverPolicy{}, err
	}
	return ResolverPolicy{
		DefaultRef:     c.DefaultBaseRef,
		Remote:         remote,
		Naming:         naming,
		ParentFallback: fallback,
	}, nil
}
