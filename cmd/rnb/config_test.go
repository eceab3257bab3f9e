package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BranchTemplate != "{id}" || cfg.MaintenanceTemplate != "release-{version}" {
		t.Fatalf("unexpected templates %q/%q", cfg.BranchTemplate, cfg.MaintenanceTemplate)
	}
	if cfg.ParentFallback != "default" || cfg.LogLevel != "warn" {
		t.Fatalf("unexpected fallback/log level %q/%q", cfg.ParentFallback, cfg.LogLevel)
	}
	exists, err := ConfigExists("")
	if err != nil || exists {
		t.Fatalf("expected no config file, got exists=%v err=%v", exists, err)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	fetch := true
	want := Config{
		APIKey:              "secret",
		TrackerURL:          "https://redmine.example.com",
		Remote:              "upstream",
		DefaultBaseRef:      "upstream/main",
		BranchTemplate:      "rd-{id}-{slug}",
		MaintenanceTemplate: "maint-{version}",
		ParentFallback:      "parent-label",
		FetchFirst:          &fetch,
		LogLevel:            "info",
	}
	if err := SaveConfig("", want); err != nil {
		t.Fatalf("save: %v", err)
	}

	path := filepath.Join(home, ".rnb", "config.yaml")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected mode 0600, got %v", info.Mode().Perm())
	}

	got, err := LoadConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.APIKey != want.APIKey || got.TrackerURL != want.TrackerURL || got.Remote != want.Remote {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	if got.DefaultBaseRef != want.DefaultBaseRef || got.BranchTemplate != want.BranchTemplate || got.MaintenanceTemplate != want.MaintenanceTemplate {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	if got.ParentFallback != "parent-label" || got.LogLevel != "info" {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	if got.FetchFirst == nil || !*got.FetchFirst {
		t.Fatalf("expected fetch_first true, got %v", got.FetchFirst)
	}
}

func TestLoadConfig_ExplicitPathAndTrailingSlash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rnb.yaml")
	data := "tracker_url: https://redmine.example.com/\napi_key: \" k \"\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TrackerURL != "https://redmine.example.com" || cfg.APIKey != "k" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := map[string]string{
		"yaml":        "tracker_url: [unterminated\n",
		"template":    "branch_template: \"{slug}\"\n",
		"maintenance": "maintenance_template: release\n",
		"fallback":    "parent_fallback: sideways\n",
		"log level":   "log_level: loud\n",
		"url":         "tracker_url: redmine.example.com\n",
	}
	for name, data := range cases {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
			t.Fatalf("%s: write: %v", name, err)
		}
		_, err := LoadConfig(path)
		if !errors.Is(err, errInvalidConfig) {
			t.Fatalf("%s: expected errInvalidConfig, got %v", name, err)
		}
		if errorKind(err) != "config" {
			t.Fatalf("%s: expected config kind, got %q", name, errorKind(err))
		}
	}
}

func TestLoadConfig_RequiresHome(t *testing.T) {
	t.Setenv("HOME", "")
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error without HOME")
	}
}

func TestResolveAPIKey_Precedence(t *testing.T) {
	cfg := Config{APIKey: "from-file"}

	t.Setenv(apiKeyEnvVar, "")
	if got := resolveAPIKey("", cfg); got != "from-file" {
		t.Fatalf("expected %q, got %q", "from-file", got)
	}
	t.Setenv(apiKeyEnvVar, "from-env")
	if got := resolveAPIKey("", cfg); got != "from-env" {
		t.Fatalf("expected %q, got %q", "from-env", got)
	}
	if got := resolveAPIKey("from-flag", cfg); got != "from-flag" {
		t.Fatalf("expected %q, got %q", "from-flag", got)
	}
}

func TestResolveFetchPreference(t *testing.T) {
	yes, no := true, false

	if resolveFetchPreference(nil, Config{}) {
		t.Fatalf("expected no fetch by default")
	}
	if !resolveFetchPreference(nil, Config{FetchFirst: &yes}) {
		t.Fatalf("expected fetch_first to enable fetching")
	}
	if resolveFetchPreference(&no, Config{FetchFirst: &yes}) {
		t.Fatalf("expected --no-fetch to win over fetch_first")
	}
	if !resolveFetchPreference(&yes, Config{FetchFirst: &no}) {
		t.Fatalf("expected --fetch to win over fetch_first")
	}
}

func TestExplicitFetchPreference(t *testing.T) {
	if got, err := explicitFetchPreference(false, false); err != nil || got != nil {
		t.Fatalf("expected nil preference, got %v, %v", got, err)
	}
	if got, err := explicitFetchPreference(true, false); err != nil || got == nil || !*got {
		t.Fatalf("expected true preference, got %v, %v", got, err)
	}
	if got, err := explicitFetchPreference(false, true); err != nil || got == nil || *got {
		t.Fatalf("expected false preference, got %v, %v", got, err)
	}
	if _, err := explicitFetchPreference(true, true); !errors.Is(err, errUsage) {
		t.Fatalf("expected errUsage, got %v", err)
	}
}

func TestConfigResolverPolicy(t *testing.T) {
	cfg := Config{BranchTemplate: "rd-{id}", ParentFallback: "parent-label", DefaultBaseRef: "origin/main"}.normalized()
	policy, err := cfg.resolverPolicy("upstream")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if policy.Remote != "upstream" || policy.DefaultRef != "origin/main" {
		t.Fatalf("unexpected policy %+v", policy)
	}
	if policy.ParentFallback != ParentFallbackParentLabel || policy.Naming.Template() != "rd-{id}" {
		t.Fatalf("unexpected policy %+v", policy)
	}
	if got := (ResolverPolicy{Remote: "upstream"}).defaultRef(); got != "upstream/master" {
		t.Fatalf("expected upstream/master, got %q", got)
	}
}
